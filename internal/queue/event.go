// Package queue carries domain events over RabbitMQ: license changes for
// the audit consumer and confirmation codes for the external SMS sender.
package queue

// Queue names.
const (
	LicenseEventsQueue   = "license.events"
	SMSConfirmationQueue = "sms.confirmation"
)

// License actions.
const (
	ActionCertify = "certify"
	ActionSuspend = "suspend"
	ActionResume  = "resume"
)

// LicenseEvent is published whenever a license is granted, suspended or
// resumed.
type LicenseEvent struct {
	Action       string `json:"action"`
	UserID       uint64 `json:"user_id"`
	Login        string `json:"login"`
	Fio          string `json:"fio"`
	SeminarID    uint64 `json:"seminar_id"`
	PermissionID uint64 `json:"permission_id"`
	Certificate  string `json:"certificate,omitempty"`
	OccurredAt   string `json:"occurred_at"`
}

// SMSConfirmationEvent asks the SMS sender to deliver Code to Phone.
type SMSConfirmationEvent struct {
	NotificationID uint64 `json:"notification_id"`
	UserID         uint64 `json:"user_id"`
	Phone          string `json:"phone"`
	Code           string `json:"code"`
	IssuedAt       string `json:"issued_at"`
}
