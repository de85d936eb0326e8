package domain

import "github.com/google/uuid"

// NotificationKind categorises side-channel notification events.
type NotificationKind string

const (
	NotificationPresentationPending  NotificationKind = "presentation_pending"
	NotificationPresentationVerified NotificationKind = "presentation_verified"
	NotificationCallbackCompleted    NotificationKind = "callback_completed"
)

// Notification is the plain set of facts handed to a notification sink.
// QRCode is only set for NotificationPresentationPending.
type Notification struct {
	ID         string           `json:"id"`
	Kind       NotificationKind `json:"kind"`
	RequestID  uuid.UUID        `json:"requestId"`
	CallerName string           `json:"callerName"`
	QRCode     string           `json:"qrCode,omitempty"`
}
