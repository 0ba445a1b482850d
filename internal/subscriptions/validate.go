package subscriptions

import (
	"fmt"
	"time"

	"github.com/snapbrief/snapbrief/internal/domain"
)

// CreateRequest is the caller-supplied candidate for a new subscription.
// Fields not present in the payload keep their zero values; Schedule is a
// pointer so an omitted schedule is distinguishable from a supplied one.
type CreateRequest struct {
	Name           string           `json:"name"`
	Email          string           `json:"email"`
	Phone          string           `json:"phone"`
	Topics         []string         `json:"topics"`
	Companies      []string         `json:"companies"`
	Schedule       *domain.Schedule `json:"schedule"`
	DeliveryMethod string           `json:"deliveryMethod" validate:"omitempty,oneof=imessage sms email webhook"`
	WebhookURL     string           `json:"webhookUrl"`
}

// ValidateAndNormalize checks the candidate against the cross-field rules
// and, only once every check passes, produces a fully populated subscription
// ready for persistence. The first violated constraint wins; no storage
// contact happens on failure.
//
// Validation order:
//  1. name present and non-empty
//  2. at least one of topics/companies non-empty
//  3. method requiring phone has a phone
//  4. method email has an email
//  5. method webhook has a webhook URL
func ValidateAndNormalize(req CreateRequest) (*domain.Subscription, error) {
	if req.Name == "" {
		return nil, &MissingFieldError{Field: "name"}
	}

	if len(req.Topics) == 0 && len(req.Companies) == 0 {
		return nil, &MissingFieldError{Field: "topic_or_company"}
	}

	method := domain.DeliveryMethod(req.DeliveryMethod)
	if method == "" {
		method = domain.DefaultDeliveryMethod
	}

	if method.RequiresPhone() && req.Phone == "" {
		return nil, &MissingFieldError{Field: "phone"}
	}
	if method == domain.DeliveryMethodEmail && req.Email == "" {
		return nil, &MissingFieldError{Field: "email"}
	}
	if method == domain.DeliveryMethodWebhook && req.WebhookURL == "" {
		return nil, &MissingFieldError{Field: "webhookUrl"}
	}

	schedule := domain.DefaultSchedule()
	if req.Schedule != nil {
		if err := ValidateSchedule(*req.Schedule); err != nil {
			return nil, err
		}
		schedule = *req.Schedule
	}

	topics := req.Topics
	if topics == nil {
		topics = []string{}
	}
	companies := req.Companies
	if companies == nil {
		companies = []string{}
	}

	return &domain.Subscription{
		UserID:         DeriveUserID(req.Phone, req.Email),
		Name:           req.Name,
		Email:          req.Email,
		Phone:          req.Phone,
		Topics:         topics,
		Companies:      companies,
		Schedule:       schedule,
		DeliveryMethod: method,
		WebhookURL:     req.WebhookURL,
		IsActive:       true,
	}, nil
}

// ValidateSchedule checks a caller-supplied schedule: 24h "HH:MM" time,
// loadable IANA timezone, days of week within 0..6.
func ValidateSchedule(s domain.Schedule) error {
	if _, err := time.Parse("15:04", s.Time); err != nil {
		return fmt.Errorf("%w: time %q is not HH:MM", ErrScheduleInvalid, s.Time)
	}
	if _, err := time.LoadLocation(s.Timezone); err != nil {
		return fmt.Errorf("%w: unknown timezone %q", ErrScheduleInvalid, s.Timezone)
	}
	for _, d := range s.DaysOfWeek {
		if d < 0 || d > 6 {
			return fmt.Errorf("%w: day of week %d out of range", ErrScheduleInvalid, d)
		}
	}
	return nil
}
