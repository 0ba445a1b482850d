package subscriptions

import (
	"errors"
	"testing"

	"github.com/snapbrief/snapbrief/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validCreateRequest() CreateRequest {
	return CreateRequest{
		Name:   "Alice",
		Phone:  "(555) 123-4567",
		Topics: []string{"AI"},
	}
}

func TestValidateAndNormalize_MissingName(t *testing.T) {
	req := validCreateRequest()
	req.Name = ""

	_, err := ValidateAndNormalize(req)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingField)

	var missing *MissingFieldError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "name", missing.Field)
}

func TestValidateAndNormalize_MissingTopicAndCompany(t *testing.T) {
	req := validCreateRequest()
	req.Topics = nil
	req.Companies = nil

	_, err := ValidateAndNormalize(req)

	var missing *MissingFieldError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "topic_or_company", missing.Field)
}

func TestValidateAndNormalize_PhoneRequiredForMessageMethods(t *testing.T) {
	for _, method := range []string{"", "imessage", "sms"} {
		t.Run("method="+method, func(t *testing.T) {
			req := validCreateRequest()
			req.Phone = ""
			req.DeliveryMethod = method

			_, err := ValidateAndNormalize(req)

			var missing *MissingFieldError
			require.ErrorAs(t, err, &missing)
			assert.Equal(t, "phone", missing.Field)
		})
	}
}

func TestValidateAndNormalize_EmailRequiredForEmailMethod(t *testing.T) {
	req := CreateRequest{
		Name:           "Bob",
		Companies:      []string{"Acme"},
		DeliveryMethod: "email",
	}

	_, err := ValidateAndNormalize(req)

	var missing *MissingFieldError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "email", missing.Field)
}

func TestValidateAndNormalize_WebhookURLRequiredForWebhookMethod(t *testing.T) {
	req := validCreateRequest()
	req.DeliveryMethod = "webhook"

	_, err := ValidateAndNormalize(req)

	var missing *MissingFieldError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "webhookUrl", missing.Field)

	req.WebhookURL = "https://example.com/hook"
	_, err = ValidateAndNormalize(req)
	assert.NoError(t, err)
}

func TestValidateAndNormalize_FirstFailureWins(t *testing.T) {
	// Everything is missing; name is checked first.
	_, err := ValidateAndNormalize(CreateRequest{})

	var missing *MissingFieldError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "name", missing.Field)
}

func TestValidateAndNormalize_Defaults(t *testing.T) {
	sub, err := ValidateAndNormalize(validCreateRequest())
	require.NoError(t, err)

	assert.Equal(t, domain.DeliveryMethodIMessage, sub.DeliveryMethod)
	assert.Equal(t, "06:00", sub.Schedule.Time)
	assert.Equal(t, "America/Los_Angeles", sub.Schedule.Timezone)
	assert.Equal(t, []int{1, 2, 3, 4, 5}, sub.Schedule.DaysOfWeek)
	assert.True(t, sub.Schedule.Enabled)
	assert.True(t, sub.IsActive)
	assert.Equal(t, []string{"AI"}, sub.Topics)
	assert.Equal(t, []string{}, sub.Companies)
	assert.Equal(t, "phone:5551234567", sub.UserID)
}

func TestValidateAndNormalize_SuppliedSchedulePassesThroughWhole(t *testing.T) {
	req := validCreateRequest()
	req.Schedule = &domain.Schedule{
		Enabled:    false,
		Time:       "18:30",
		Timezone:   "Europe/Berlin",
		DaysOfWeek: []int{0, 6},
	}

	sub, err := ValidateAndNormalize(req)
	require.NoError(t, err)

	assert.Equal(t, *req.Schedule, sub.Schedule)
}

func TestValidateAndNormalize_RejectsMalformedSchedule(t *testing.T) {
	tests := []struct {
		name     string
		schedule domain.Schedule
	}{
		{"bad time", domain.Schedule{Time: "25:99", Timezone: "UTC", DaysOfWeek: []int{1}}},
		{"bad timezone", domain.Schedule{Time: "06:00", Timezone: "Mars/Olympus", DaysOfWeek: []int{1}}},
		{"day out of range", domain.Schedule{Time: "06:00", Timezone: "UTC", DaysOfWeek: []int{7}}},
		{"negative day", domain.Schedule{Time: "06:00", Timezone: "UTC", DaysOfWeek: []int{-1}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validCreateRequest()
			req.Schedule = &tt.schedule

			_, err := ValidateAndNormalize(req)
			assert.True(t, errors.Is(err, ErrScheduleInvalid), "got %v", err)
		})
	}
}
