//go:build integration

package integration

import (
	"net/http"
	"testing"

	"github.com/snapbrief/snapbrief/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubscriptionCreateDefaults(t *testing.T) {
	client := newTestClient(t)

	resp, err := client.POST("/api/v1/subscriptions", map[string]interface{}{
		"name":   "Ada",
		"phone":  "+1 (555) 123-4567",
		"topics": []string{"ai"},
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var result createEnvelope
	testutil.DecodeJSON(t, resp, &result)
	sub := result.Data.Subscription
	t.Cleanup(func() { deleteSubscription(t, client, sub.ID) })

	assert.NotEmpty(t, sub.ID)
	assert.Equal(t, "phone:15551234567", sub.UserID)
	assert.Equal(t, "imessage", string(sub.DeliveryMethod))
	assert.True(t, sub.IsActive)

	assert.True(t, sub.Schedule.Enabled)
	assert.Equal(t, "06:00", sub.Schedule.Time)
	assert.Equal(t, "America/Los_Angeles", sub.Schedule.Timezone)
	assert.Equal(t, []int{1, 2, 3, 4, 5}, sub.Schedule.DaysOfWeek)

	assert.Contains(t, result.Data.Message, "Ada")
	assert.Contains(t, result.Data.Message, "06:00")
}

func TestSubscriptionCreateUserIDDerivation(t *testing.T) {
	client := newTestClient(t)

	t.Run("phone wins over email", func(t *testing.T) {
		sub := createTestSubscription(t, client, "Ada",
			withPhone("555-000-1111"),
			withEmail("Ada@Example.COM"))
		assert.Equal(t, "phone:5550001111", sub.UserID)
	})

	t.Run("email lowercased when no phone", func(t *testing.T) {
		sub := createTestSubscription(t, client, "Ada",
			withPhone(""),
			withEmail("Ada@Example.COM"),
			withDeliveryMethod("email"))
		assert.Equal(t, "email:ada@example.com", sub.UserID)
	})

	t.Run("anonymous when neither", func(t *testing.T) {
		sub := createTestSubscription(t, client, "Ada",
			withPhone(""),
			withDeliveryMethod("webhook"),
			withWebhookURL("https://example.com/hook"))
		assert.Regexp(t, "^anon:", sub.UserID)
	})
}

func TestSubscriptionCreateValidationOrder(t *testing.T) {
	client := newTestClientWithoutValidation()

	cases := []struct {
		name       string
		payload    map[string]interface{}
		wantReason string
	}{
		{
			name:       "missing name reported first",
			payload:    map[string]interface{}{"deliveryMethod": "email"},
			wantReason: "missing_field:name",
		},
		{
			name:       "no topic or company",
			payload:    map[string]interface{}{"name": "Ada", "phone": "5551234567"},
			wantReason: "missing_field:topic_or_company",
		},
		{
			name: "imessage requires phone",
			payload: map[string]interface{}{
				"name":   "Ada",
				"topics": []string{"ai"},
			},
			wantReason: "missing_field:phone",
		},
		{
			name: "sms requires phone",
			payload: map[string]interface{}{
				"name":           "Ada",
				"topics":         []string{"ai"},
				"deliveryMethod": "sms",
			},
			wantReason: "missing_field:phone",
		},
		{
			name: "email method requires email",
			payload: map[string]interface{}{
				"name":           "Ada",
				"topics":         []string{"ai"},
				"deliveryMethod": "email",
			},
			wantReason: "missing_field:email",
		},
		{
			name: "webhook method requires url",
			payload: map[string]interface{}{
				"name":           "Ada",
				"topics":         []string{"ai"},
				"deliveryMethod": "webhook",
			},
			wantReason: "missing_field:webhookUrl",
		},
		{
			name: "contact checked before schedule",
			payload: map[string]interface{}{
				"name":     "Ada",
				"topics":   []string{"ai"},
				"schedule": map[string]interface{}{"time": "nonsense", "timezone": "Mars/Olympus"},
			},
			wantReason: "missing_field:phone",
		},
		{
			name: "invalid schedule time",
			payload: map[string]interface{}{
				"name":     "Ada",
				"phone":    "5551234567",
				"topics":   []string{"ai"},
				"schedule": map[string]interface{}{"enabled": true, "time": "25:99", "timezone": "UTC"},
			},
			wantReason: "invalid_schedule",
		},
		{
			name: "invalid schedule timezone",
			payload: map[string]interface{}{
				"name":     "Ada",
				"phone":    "5551234567",
				"topics":   []string{"ai"},
				"schedule": map[string]interface{}{"enabled": true, "time": "07:30", "timezone": "Mars/Olympus"},
			},
			wantReason: "invalid_schedule",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, err := client.POST("/api/v1/subscriptions", tc.payload)
			require.NoError(t, err)
			require.Equal(t, http.StatusBadRequest, resp.StatusCode)

			var body errorEnvelope
			testutil.DecodeJSON(t, resp, &body)
			assert.Equal(t, tc.wantReason, body.Error.Reason)
		})
	}
}

func TestSubscriptionCreateCompaniesOnly(t *testing.T) {
	client := newTestClient(t)

	resp, err := client.POST("/api/v1/subscriptions", map[string]interface{}{
		"name":      "Grace",
		"phone":     testutil.RandomPhone(),
		"companies": []string{"NVDA", "AAPL"},
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var result createEnvelope
	testutil.DecodeJSON(t, resp, &result)
	sub := result.Data.Subscription
	t.Cleanup(func() { deleteSubscription(t, client, sub.ID) })

	assert.Equal(t, []string{"NVDA", "AAPL"}, sub.Companies)
	assert.Empty(t, sub.Topics)
}

func TestSubscriptionGet(t *testing.T) {
	client := newTestClient(t)
	created := createTestSubscription(t, client, "Ada", withTopics("ai", "chips"))

	resp, err := client.GET("/api/v1/subscriptions/" + created.ID)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result subscriptionEnvelope
	testutil.DecodeJSON(t, resp, &result)

	assert.Equal(t, created.ID, result.Data.ID)
	assert.Equal(t, created.UserID, result.Data.UserID)
	assert.Equal(t, []string{"ai", "chips"}, result.Data.Topics)
}

func TestSubscriptionGetNotFound(t *testing.T) {
	client := newTestClient(t)

	resp, err := client.GET("/api/v1/subscriptions/00000000-0000-0000-0000-000000000000")
	require.NoError(t, err)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	var body errorEnvelope
	testutil.DecodeJSON(t, resp, &body)
	assert.Equal(t, "not_found", body.Error.Reason)
}

func TestSubscriptionDelete(t *testing.T) {
	client := newTestClient(t)
	created := createTestSubscription(t, client, "Ada")

	resp, err := client.DELETE("/api/v1/subscriptions/" + created.ID)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result struct {
		Data struct {
			Deleted bool `json:"deleted"`
		} `json:"data"`
	}
	testutil.DecodeJSON(t, resp, &result)
	assert.True(t, result.Data.Deleted)

	// A second delete reports not found, not success.
	resp, err = client.DELETE("/api/v1/subscriptions/" + created.ID)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestSubscriptionListForUser(t *testing.T) {
	client := newTestClient(t)

	phone := testutil.RandomPhone()
	first := createTestSubscription(t, client, "Ada", withPhone(phone), withTopics("ai"))
	second := createTestSubscription(t, client, "Ada", withPhone(phone), withTopics("chips"))
	require.Equal(t, first.UserID, second.UserID)

	// A different subscriber must not leak into the listing.
	createTestSubscription(t, client, "Grace")

	resp, err := client.GET("/api/v1/users/" + first.UserID + "/subscriptions")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result struct {
		Data []struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	testutil.DecodeJSON(t, resp, &result)

	ids := make([]string, 0, len(result.Data))
	for _, s := range result.Data {
		ids = append(ids, s.ID)
	}
	assert.ElementsMatch(t, []string{first.ID, second.ID}, ids)
}

func TestSubscriptionListForUnknownUser(t *testing.T) {
	client := newTestClient(t)

	resp, err := client.GET("/api/v1/users/phone:19998887777/subscriptions")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result struct {
		Data []interface{} `json:"data"`
	}
	testutil.DecodeJSON(t, resp, &result)
	assert.Empty(t, result.Data)
}
