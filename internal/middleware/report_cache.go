package middleware

import (
	"bytes"
	"crypto/sha1"
	"encoding/hex"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/training-events/internal/cache"
)

// CachedResponse is a stored GET response.
type CachedResponse struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type"`
	Disposition string `json:"disposition,omitempty"`
	Body        []byte `json:"body"`
}

// captureWriter tees the response body up to limit bytes.
type captureWriter struct {
	http.ResponseWriter
	status   int
	buf      bytes.Buffer
	limit    int
	overflow bool
}

func (w *captureWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *captureWriter) Write(b []byte) (int, error) {
	if !w.overflow {
		if w.limit > 0 && w.buf.Len()+len(b) > w.limit {
			w.overflow = true
			w.buf.Reset()
		} else {
			w.buf.Write(b)
		}
	}
	return w.ResponseWriter.Write(b)
}

// reportKey hashes the path and the sorted query so equal reports share a
// key.
func reportKey(store *cache.ViewCache[CachedResponse], c echo.Context) string {
	u := c.Request().URL
	sum := sha1.Sum([]byte(u.Path + "?" + u.Query().Encode()))
	return store.Key("report", hex.EncodeToString(sum[:]))
}

// ReportCache serves repeated GETs of a report from redis. Only 200
// responses no larger than maxBody are stored. Hits carry X-Cache: HIT.
func ReportCache(store *cache.ViewCache[CachedResponse], maxBody int) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if store == nil || c.Request().Method != http.MethodGet {
				return next(c)
			}
			ctx := c.Request().Context()
			key := reportKey(store, c)

			if hit, ok := store.Get(ctx, key); ok {
				h := c.Response().Header()
				h.Set("X-Cache", "HIT")
				if hit.Disposition != "" {
					h.Set(echo.HeaderContentDisposition, hit.Disposition)
				}
				return c.Blob(hit.Status, hit.ContentType, hit.Body)
			}

			cw := &captureWriter{ResponseWriter: c.Response().Writer, status: http.StatusOK, limit: maxBody}
			c.Response().Writer = cw
			c.Response().Header().Set("X-Cache", "MISS")
			if err := next(c); err != nil {
				return err
			}
			if cw.status != http.StatusOK || cw.overflow {
				return nil
			}
			h := c.Response().Header()
			store.Set(ctx, key, &CachedResponse{
				Status:      cw.status,
				ContentType: h.Get(echo.HeaderContentType),
				Disposition: h.Get(echo.HeaderContentDisposition),
				Body:        bytes.Clone(cw.buf.Bytes()),
			})
			return nil
		}
	}
}
