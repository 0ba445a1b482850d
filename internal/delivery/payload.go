package delivery

import "time"

// BriefingPayload is the material a briefing message is rendered from.
// Assembling briefing content is the content pipeline's job; this service
// renders and delivers what the subscription asked for.
type BriefingPayload struct {
	SubscriptionID string    `json:"subscription_id"`
	Name           string    `json:"name"`
	Topics         []string  `json:"topics"`
	Companies      []string  `json:"companies"`
	LocalDate      string    `json:"local_date"`
	GeneratedAt    time.Time `json:"generated_at"`
}

// Delivery is one rendered message bound for a single recipient.
type Delivery struct {
	To      string
	Subject string
	Body    string
	Payload BriefingPayload
}
