package service

import (
	"context"
	"strconv"
	"time"

	"github.com/iliyamo/training-events/internal/model"
	"github.com/iliyamo/training-events/internal/queue"
	"github.com/iliyamo/training-events/internal/repository"
	"github.com/iliyamo/training-events/internal/utils"
)

var licenseHeadings = []string{"Логин", "ФИО", "Директор", "Количество наблюдений"}

// LicenseFilters narrow the license lists. Zero values are ignored.
type LicenseFilters struct {
	Fio           string
	Login         string
	Level         *int
	DirectorID    *uint64
	WatchersCount *int
	Sort          repository.Sort
}

func (s *Service) licenseQuery(ctx context.Context, list repository.LicenseList, seminarID, magisterID uint64, f LicenseFilters) (repository.LicenseQuery, error) {
	sem, err := s.seminars.GetByID(ctx, seminarID)
	if err != nil {
		return repository.LicenseQuery{}, err
	}
	if sem.PermissionID == nil {
		return repository.LicenseQuery{}, ErrNoLicense
	}
	return repository.LicenseQuery{
		List:          list,
		Seminar:       *sem,
		PermissionID:  *sem.PermissionID,
		MagisterID:    magisterID,
		Fio:           f.Fio,
		Login:         f.Login,
		Level:         f.Level,
		DirectorID:    f.DirectorID,
		WatchersCount: f.WatchersCount,
		Sort:          f.Sort,
	}, nil
}

// Licenses returns one page of a license list of a magister's structure.
func (s *Service) Licenses(ctx context.Context, list repository.LicenseList, seminarID, magisterID uint64, f LicenseFilters, p *repository.Paging) (ListResult[repository.LicenseRow], error) {
	q, err := s.licenseQuery(ctx, list, seminarID, magisterID, f)
	if err != nil {
		return ListResult[repository.LicenseRow]{}, err
	}
	rows, total, err := s.licenses.List(ctx, q, p)
	if err != nil {
		return ListResult[repository.LicenseRow]{}, err
	}
	return newListResult(rows, total, p), nil
}

func (s *Service) LicensesExport(ctx context.Context, list repository.LicenseList, seminarID, magisterID uint64, f LicenseFilters) (Table, error) {
	q, err := s.licenseQuery(ctx, list, seminarID, magisterID, f)
	if err != nil {
		return Table{}, err
	}
	directors, err := s.users.DirectorsForMagister(ctx, magisterID)
	if err != nil {
		return Table{}, err
	}
	rows, _, err := s.licenses.List(ctx, q, nil)
	if err != nil {
		return Table{}, err
	}
	t := Table{Headings: licenseHeadings, Rows: make([][]string, 0, len(rows))}
	for _, r := range rows {
		t.Rows = append(t.Rows, []string{r.Login, r.Fio, directors[r.DirectorID], strconv.Itoa(r.WatchersCount)})
	}
	return t, nil
}

func (s *Service) licenseTarget(ctx context.Context, seminarID, userID uint64) (*model.Seminar, *model.User, error) {
	sem, err := s.seminars.GetByID(ctx, seminarID)
	if err != nil {
		return nil, nil, err
	}
	if sem.PermissionID == nil {
		return nil, nil, ErrNoLicense
	}
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	return sem, u, nil
}

// Certify grants the seminar's license to the user and records the
// certificate path.
func (s *Service) Certify(ctx context.Context, seminarID, userID uint64) (*model.Certificate, error) {
	sem, u, err := s.licenseTarget(ctx, seminarID, userID)
	if err != nil {
		return nil, err
	}
	cert := &model.Certificate{UserID: u.ID, SeminarID: sem.ID, Media: utils.CertificatePath(sem.ID, u.Login, u.Fio)}
	if err := s.licenses.Grant(ctx, u.ID, *sem.PermissionID, cert); err != nil {
		return nil, err
	}
	s.licenseChanged(ctx, queue.ActionCertify, sem, u, cert.Media)
	return cert, nil
}

// Suspend revokes the seminar's license and remembers the suspension.
func (s *Service) Suspend(ctx context.Context, seminarID, userID uint64) error {
	sem, u, err := s.licenseTarget(ctx, seminarID, userID)
	if err != nil {
		return err
	}
	if err := s.licenses.Suspend(ctx, u.ID, *sem.PermissionID); err != nil {
		return err
	}
	s.licenseChanged(ctx, queue.ActionSuspend, sem, u, "")
	return nil
}

// Resume restores a suspended license.
func (s *Service) Resume(ctx context.Context, seminarID, userID uint64) error {
	sem, u, err := s.licenseTarget(ctx, seminarID, userID)
	if err != nil {
		return err
	}
	if err := s.licenses.Resume(ctx, u.ID, *sem.PermissionID); err != nil {
		return err
	}
	s.licenseChanged(ctx, queue.ActionResume, sem, u, "")
	return nil
}

// licenseChanged logs the mutation and publishes it for the audit
// consumer. The database write already happened, so a broker failure is
// only logged.
func (s *Service) licenseChanged(ctx context.Context, action string, sem *model.Seminar, u *model.User, cert string) {
	s.log.Info("license changed", "action", action, "user_id", u.ID, "seminar_id", sem.ID, "permission_id", *sem.PermissionID)
	if s.publisher == nil {
		return
	}
	ev := queue.LicenseEvent{
		Action:       action,
		UserID:       u.ID,
		Login:        u.Login,
		Fio:          u.Fio,
		SeminarID:    sem.ID,
		PermissionID: *sem.PermissionID,
		Certificate:  cert,
		OccurredAt:   s.now().Format(time.RFC3339),
	}
	if err := s.publisher.Publish(ctx, queue.LicenseEventsQueue, ev); err != nil {
		s.log.Warn("license event not published", "action", action, "user_id", u.ID, "error", err)
	}
}
