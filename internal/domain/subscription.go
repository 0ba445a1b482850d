// Package domain contains entities shared between modules.
package domain

import "time"

// DeliveryMethod is the channel a briefing is delivered through.
type DeliveryMethod string

// Supported delivery methods.
const (
	DeliveryMethodIMessage DeliveryMethod = "imessage"
	DeliveryMethodSMS      DeliveryMethod = "sms"
	DeliveryMethodEmail    DeliveryMethod = "email"
	DeliveryMethodWebhook  DeliveryMethod = "webhook"
)

// DefaultDeliveryMethod is applied when a subscription does not name one.
const DefaultDeliveryMethod = DeliveryMethodIMessage

// RequiresPhone reports whether the method delivers to a phone number.
func (m DeliveryMethod) RequiresPhone() bool {
	return m == DeliveryMethodIMessage || m == DeliveryMethodSMS
}

// IsValid reports whether the method is one of the supported values.
func (m DeliveryMethod) IsValid() bool {
	switch m {
	case DeliveryMethodIMessage, DeliveryMethodSMS, DeliveryMethodEmail, DeliveryMethodWebhook:
		return true
	}
	return false
}

// Schedule describes when a subscription's briefing is generated and sent.
// Time is a 24h "HH:MM" string evaluated in Timezone. DaysOfWeek uses
// 0=Sunday..6=Saturday.
type Schedule struct {
	Enabled    bool   `json:"enabled"`
	Time       string `json:"time"`
	Timezone   string `json:"timezone"`
	DaysOfWeek []int  `json:"daysOfWeek"`
}

// DefaultSchedule returns the schedule applied when the caller omits one:
// weekday mornings at 06:00 Pacific.
func DefaultSchedule() Schedule {
	return Schedule{
		Enabled:    true,
		Time:       "06:00",
		Timezone:   "America/Los_Angeles",
		DaysOfWeek: []int{1, 2, 3, 4, 5},
	}
}

// Subscription is a persisted briefing subscription.
type Subscription struct {
	ID             string         `json:"id"`
	UserID         string         `json:"userId"`
	Name           string         `json:"name"`
	Email          string         `json:"email,omitempty"`
	Phone          string         `json:"phone,omitempty"`
	Topics         []string       `json:"topics"`
	Companies      []string       `json:"companies"`
	Schedule       Schedule       `json:"schedule"`
	DeliveryMethod DeliveryMethod `json:"deliveryMethod"`
	WebhookURL     string         `json:"webhookUrl,omitempty"`
	IsActive       bool           `json:"isActive"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
}
