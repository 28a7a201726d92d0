package utils

import (
	"fmt"

	"github.com/gosimple/slug"
)

// CertificatePath is where the certificate PDF of a license is stored,
// relative to the media root.
func CertificatePath(seminarID uint64, login, fio string) string {
	return fmt.Sprintf("sertifikats-pdf/%d/%s-%s-sertifikat.pdf", seminarID, login, slug.Make(fio))
}
