package events

import (
	"context"
	"errors"
	"time"
)

type NotificationType string

const (
	GuestCheckin          NotificationType = "guest-checkin"
	MaintenanceEscalation NotificationType = "maintenance-escalation"
	DailyReport           NotificationType = "daily-report"
)

// Notification is the logical event payload handed to delivery transports.
type Notification struct {
	Type       NotificationType `json:"type"`
	UnitNumber string           `json:"unitNumber,omitempty"`
	GuestName  string           `json:"guestName,omitempty"`
	Problems   []string         `json:"problems,omitempty"`
	Report     string           `json:"report,omitempty"`
	Timestamp  time.Time        `json:"timestamp"`
}

type Notifier interface {
	Notify(ctx context.Context, notification Notification) error
}

type NotifierFunc func(ctx context.Context, notification Notification) error

func (f NotifierFunc) Notify(ctx context.Context, notification Notification) error {
	return f(ctx, notification)
}

// Multi fans a notification out to every notifier and joins their failures.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, notification Notification) error {
	var errs []error
	for _, notifier := range m {
		if notifier == nil {
			continue
		}
		if err := notifier.Notify(ctx, notification); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type Noop struct{}

func (Noop) Notify(context.Context, Notification) error { return nil }
