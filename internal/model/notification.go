package model

import "time"

// SMSConfirmation is the notifications.type of confirmation codes.
const SMSConfirmation = "sms_confirmation"

// Notification stores a hashed confirmation code sent to a user.
type Notification struct {
	ID        uint64
	UserID    uint64
	Type      string
	CodeHash  string
	ReadAt    *time.Time
	CreatedAt time.Time
}
