package service

import (
	"context"
	"time"

	"github.com/iliyamo/training-events/internal/model"
	"github.com/iliyamo/training-events/internal/queue"
	"github.com/iliyamo/training-events/internal/utils"
)

const (
	codeLength   = 6
	codeLifetime = 5 * time.Minute
)

// IssueConfirmationCode stores a new code for the user and hands it to the
// SMS sender. It is refused while a previous code is still fresh.
func (s *Service) IssueConfirmationCode(ctx context.Context, lgID uint64) (*model.Notification, error) {
	u, err := s.users.GetByLgID(ctx, lgID)
	if err != nil {
		return nil, err
	}
	if s.publisher == nil {
		return nil, ErrDeliveryUnavailable
	}
	now := s.now()
	unread, err := s.notifications.Unread(ctx, u.ID, model.SMSConfirmation)
	if err != nil {
		return nil, err
	}
	for _, n := range unread {
		if now.Sub(n.CreatedAt) < codeLifetime {
			return nil, ErrCodeStillValid
		}
	}

	code, err := utils.GenerateCode(codeLength)
	if err != nil {
		return nil, err
	}
	hash, err := utils.HashCode(code, s.codeCost)
	if err != nil {
		return nil, err
	}
	n := &model.Notification{UserID: u.ID, Type: model.SMSConfirmation, CodeHash: hash, CreatedAt: now}
	if err := s.notifications.Create(ctx, n); err != nil {
		return nil, err
	}

	ev := queue.SMSConfirmationEvent{
		NotificationID: n.ID,
		UserID:         u.ID,
		Phone:          u.Phone,
		Code:           code,
		IssuedAt:       now.Format(time.RFC3339),
	}
	if err := s.publisher.Publish(ctx, queue.SMSConfirmationQueue, ev); err != nil {
		s.log.Error("confirmation code not published", "user_id", u.ID, "error", err)
		// an undelivered code must not block the next request
		if err := s.notifications.MarkRead(ctx, n.ID, now); err != nil {
			s.log.Error("undelivered code not retired", "notification_id", n.ID, "error", err)
		}
		return nil, ErrDeliveryUnavailable
	}
	s.log.Info("confirmation code issued", "user_id", u.ID, "notification_id", n.ID)
	return n, nil
}

// CheckConfirmationCode marks the matching unread code as read. A code
// nobody issued is ErrCodeNotFound; one older than five minutes is
// ErrCodeExpired.
func (s *Service) CheckConfirmationCode(ctx context.Context, lgID uint64, code string) error {
	u, err := s.users.GetByLgID(ctx, lgID)
	if err != nil {
		return err
	}
	unread, err := s.notifications.Unread(ctx, u.ID, model.SMSConfirmation)
	if err != nil {
		return err
	}
	now := s.now()
	for _, n := range unread {
		if !utils.VerifyCode(n.CodeHash, code) {
			continue
		}
		if now.Sub(n.CreatedAt) > codeLifetime {
			return ErrCodeExpired
		}
		return s.notifications.MarkRead(ctx, n.ID, now)
	}
	return ErrCodeNotFound
}
