package subscriptions

import (
	"encoding/json"
	"testing"

	"github.com/snapbrief/snapbrief/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilterUpdate_OnlyPresentKeys(t *testing.T) {
	payload := map[string]json.RawMessage{
		"name": json.RawMessage(`"X"`),
	}

	fields, err := FilterUpdate(payload)
	require.NoError(t, err)

	require.NotNil(t, fields.Name)
	assert.Equal(t, "X", *fields.Name)
	assert.Nil(t, fields.Email)
	assert.Nil(t, fields.IsActive)
	assert.False(t, fields.IsEmpty())
}

func TestFilterUpdate_IgnoresKeysOutsideAllowList(t *testing.T) {
	payload := map[string]json.RawMessage{
		"userId": json.RawMessage(`"phone:1"`),
		"id":     json.RawMessage(`"abc"`),
	}

	fields, err := FilterUpdate(payload)
	require.NoError(t, err)
	assert.True(t, fields.IsEmpty())
}

func TestFilterUpdate_ScheduleIsValidated(t *testing.T) {
	payload := map[string]json.RawMessage{
		"schedule": json.RawMessage(`{"enabled":true,"time":"99:00","timezone":"UTC","daysOfWeek":[1]}`),
	}

	_, err := FilterUpdate(payload)
	assert.ErrorIs(t, err, ErrScheduleInvalid)
}

func TestFilterUpdate_TypeMismatch(t *testing.T) {
	payload := map[string]json.RawMessage{
		"topics": json.RawMessage(`"not-an-array"`),
	}

	_, err := FilterUpdate(payload)
	assert.ErrorIs(t, err, ErrFieldInvalid)
}

func TestFilterUpdate_FullAllowList(t *testing.T) {
	payload := map[string]json.RawMessage{
		"name":           json.RawMessage(`"N"`),
		"email":          json.RawMessage(`"n@example.com"`),
		"phone":          json.RawMessage(`"5550000000"`),
		"topics":         json.RawMessage(`["a"]`),
		"companies":      json.RawMessage(`["b"]`),
		"schedule":       json.RawMessage(`{"enabled":true,"time":"07:15","timezone":"UTC","daysOfWeek":[0,6]}`),
		"deliveryMethod": json.RawMessage(`"email"`),
		"webhookUrl":     json.RawMessage(`"https://example.com"`),
		"isActive":       json.RawMessage(`true`),
	}

	fields, err := FilterUpdate(payload)
	require.NoError(t, err)

	assert.Equal(t, "N", *fields.Name)
	assert.Equal(t, "n@example.com", *fields.Email)
	assert.Equal(t, "5550000000", *fields.Phone)
	assert.Equal(t, []string{"a"}, *fields.Topics)
	assert.Equal(t, []string{"b"}, *fields.Companies)
	assert.Equal(t, domain.DeliveryMethodEmail, *fields.DeliveryMethod)
	assert.Equal(t, "https://example.com", *fields.WebhookURL)
	assert.True(t, *fields.IsActive)
	assert.Equal(t, "07:15", fields.Schedule.Time)
}
