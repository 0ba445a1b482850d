package domain

import "time"

// DeliveryStatus is the terminal outcome of a briefing delivery attempt.
type DeliveryStatus string

// Delivery statuses.
const (
	DeliveryStatusSent   DeliveryStatus = "sent"
	DeliveryStatusFailed DeliveryStatus = "failed"
)

// DeliveryRecord is one entry in a subscription's delivery history.
type DeliveryRecord struct {
	ID             string         `json:"id"`
	SubscriptionID string         `json:"subscriptionId"`
	Method         DeliveryMethod `json:"method"`
	Status         DeliveryStatus `json:"status"`
	Attempts       int            `json:"attempts"`
	Error          string         `json:"error,omitempty"`
	DeliveredAt    time.Time      `json:"deliveredAt"`
}
