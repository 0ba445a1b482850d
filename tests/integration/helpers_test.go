//go:build integration

package integration

import (
	"net/http"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/snapbrief/snapbrief/internal/domain"
	"github.com/snapbrief/snapbrief/internal/testutil"
	"github.com/stretchr/testify/require"
)

// signAdminToken signs an admin bearer token valid for the given duration.
// A negative duration produces an already-expired token.
func signAdminToken(t *testing.T, ttl time.Duration) string {
	t.Helper()
	return signTokenWithSecret(t, adminSecret, ttl)
}

// signTokenWithSecret signs an admin-shaped token with an arbitrary secret.
func signTokenWithSecret(t *testing.T, secret string, ttl time.Duration) string {
	t.Helper()

	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   "ops@example.com",
		Issuer:    "snapbrief",
		IssuedAt:  jwt.NewNumericDate(now.Add(-time.Minute)),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

// subscriptionEnvelope matches {"data": <subscription>} responses.
type subscriptionEnvelope struct {
	Data domain.Subscription `json:"data"`
}

// createEnvelope matches the POST /subscriptions response.
type createEnvelope struct {
	Data struct {
		Subscription domain.Subscription `json:"subscription"`
		Message      string              `json:"message"`
	} `json:"data"`
}

// errorEnvelope matches {"error": {...}} responses.
type errorEnvelope struct {
	Error struct {
		Message string `json:"message"`
		Reason  string `json:"reason"`
	} `json:"error"`
}

type subscriptionOption func(map[string]interface{})

func withPhone(phone string) subscriptionOption {
	return func(m map[string]interface{}) { m["phone"] = phone }
}

func withEmail(email string) subscriptionOption {
	return func(m map[string]interface{}) { m["email"] = email }
}

func withDeliveryMethod(method string) subscriptionOption {
	return func(m map[string]interface{}) { m["deliveryMethod"] = method }
}

func withWebhookURL(url string) subscriptionOption {
	return func(m map[string]interface{}) { m["webhookUrl"] = url }
}

func withTopics(topics ...string) subscriptionOption {
	return func(m map[string]interface{}) { m["topics"] = topics }
}

func withSchedule(schedule map[string]interface{}) subscriptionOption {
	return func(m map[string]interface{}) { m["schedule"] = schedule }
}

// createTestSubscription creates a subscription with a unique phone number
// and returns the persisted record. Cleanup deletes it.
func createTestSubscription(t *testing.T, client *testutil.Client, name string, opts ...subscriptionOption) domain.Subscription {
	t.Helper()

	payload := map[string]interface{}{
		"name":   name,
		"phone":  testutil.RandomPhone(),
		"topics": []string{"technology"},
	}
	for _, opt := range opts {
		opt(payload)
	}

	resp, err := client.POST("/api/v1/subscriptions", payload)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var result createEnvelope
	testutil.DecodeJSON(t, resp, &result)

	sub := result.Data.Subscription
	t.Cleanup(func() { deleteSubscription(t, client, sub.ID) })
	return sub
}

// deleteSubscription removes a subscription. Does not fail if already gone.
func deleteSubscription(t *testing.T, client *testutil.Client, id string) {
	t.Helper()
	resp, err := client.WithoutValidation().DELETE("/api/v1/subscriptions/" + id)
	if err != nil {
		t.Logf("cleanup warning (subscription %s): %v", id, err)
		return
	}
	resp.Body.Close()
}

// snapAppEnvelope matches {"data": <snap app>} responses.
type snapAppEnvelope struct {
	Data domain.SnapApp `json:"data"`
}

// createTestSnapApp creates a snap app through the admin API and returns it.
// Cleanup deletes it.
func createTestSnapApp(t *testing.T, admin *testutil.Client, title string, opts ...snapAppOption) domain.SnapApp {
	t.Helper()

	payload := map[string]interface{}{
		"slug":    testutil.RandomSlug("card"),
		"appType": "briefing",
		"title":   title,
		"content": map[string]interface{}{"summary": "Three things happened today."},
	}
	for _, opt := range opts {
		opt(payload)
	}

	resp, err := admin.POST("/api/v1/admin/snaps", payload)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var result snapAppEnvelope
	testutil.DecodeJSON(t, resp, &result)

	app := result.Data
	t.Cleanup(func() { deleteSnapApp(t, admin, app.Slug) })
	return app
}

type snapAppOption func(map[string]interface{})

func withSnapSlug(slug string) snapAppOption {
	return func(m map[string]interface{}) { m["slug"] = slug }
}

func withAppType(appType string) snapAppOption {
	return func(m map[string]interface{}) { m["appType"] = appType }
}

func withDescription(description string) snapAppOption {
	return func(m map[string]interface{}) { m["description"] = description }
}

// deleteSnapApp removes a snap app. Does not fail if already gone.
func deleteSnapApp(t *testing.T, admin *testutil.Client, slug string) {
	t.Helper()
	resp, err := admin.WithoutValidation().DELETE("/api/v1/admin/snaps/" + slug)
	if err != nil {
		t.Logf("cleanup warning (snap app %s): %v", slug, err)
		return
	}
	resp.Body.Close()
}

// getSnapApp fetches a snap app card, incrementing its view counter.
func getSnapApp(t *testing.T, client *testutil.Client, slug string) domain.SnapApp {
	t.Helper()
	resp, err := client.GET("/api/v1/snaps/" + slug)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result snapAppEnvelope
	testutil.DecodeJSON(t, resp, &result)
	return result.Data
}
