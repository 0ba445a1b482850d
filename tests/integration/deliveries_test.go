//go:build integration

package integration

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/snapbrief/snapbrief/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seedFailedQueueItem inserts a failed delivery_queue row for a subscription
// and returns its id. The delivery pipeline is disabled in tests, so seeded
// rows sit untouched until an admin endpoint acts on them.
func seedFailedQueueItem(t *testing.T, subscriptionID string) string {
	t.Helper()

	id := uuid.NewString()
	_, err := testDB.Exec(context.Background(), `
		INSERT INTO delivery_queue (id, subscription_id, dedupe_key, payload, status, attempts, max_attempts, next_attempt_at, last_error)
		VALUES ($1, $2, $3, '{}', 'failed', 3, 3, NOW(), 'gateway returned status 500')`,
		id, subscriptionID, subscriptionID+":"+uuid.NewString())
	require.NoError(t, err)

	t.Cleanup(func() {
		_, _ = testDB.Exec(context.Background(), `DELETE FROM delivery_queue WHERE id = $1`, id)
	})
	return id
}

// seedDeliveryRecord inserts a delivery_history row for a subscription.
func seedDeliveryRecord(t *testing.T, subscriptionID, status string, deliveredAt time.Time) {
	t.Helper()

	_, err := testDB.Exec(context.Background(), `
		INSERT INTO delivery_history (id, subscription_id, method, status, attempts, error, delivered_at)
		VALUES ($1, $2, 'imessage', $3, 1, '', $4)`,
		uuid.NewString(), subscriptionID, status, deliveredAt)
	require.NoError(t, err)
}

func TestAdminDeliveryHistory(t *testing.T) {
	admin := newAdminClient(t)
	sub := createTestSubscription(t, admin, "Ada")

	now := time.Now().UTC()
	seedDeliveryRecord(t, sub.ID, "sent", now.Add(-2*time.Hour))
	seedDeliveryRecord(t, sub.ID, "failed", now.Add(-time.Hour))
	seedDeliveryRecord(t, sub.ID, "sent", now)

	resp, err := admin.GET("/api/v1/admin/subscriptions/" + sub.ID + "/deliveries")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result struct {
		Data []struct {
			SubscriptionID string `json:"subscriptionId"`
			Method         string `json:"method"`
			Status         string `json:"status"`
		} `json:"data"`
	}
	testutil.DecodeJSON(t, resp, &result)

	require.Len(t, result.Data, 3)
	// Newest first.
	assert.Equal(t, "sent", result.Data[0].Status)
	assert.Equal(t, "failed", result.Data[1].Status)
	for _, rec := range result.Data {
		assert.Equal(t, sub.ID, rec.SubscriptionID)
		assert.Equal(t, "imessage", rec.Method)
	}
}

func TestAdminDeliveryHistoryLimit(t *testing.T) {
	admin := newAdminClient(t)
	sub := createTestSubscription(t, admin, "Ada")

	now := time.Now().UTC()
	for i := 0; i < 3; i++ {
		seedDeliveryRecord(t, sub.ID, "sent", now.Add(time.Duration(-i)*time.Hour))
	}

	resp, err := admin.GET("/api/v1/admin/subscriptions/" + sub.ID + "/deliveries?limit=2")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result struct {
		Data []interface{} `json:"data"`
	}
	testutil.DecodeJSON(t, resp, &result)
	assert.Len(t, result.Data, 2)

	resp, err = admin.WithoutValidation().GET("/api/v1/admin/subscriptions/" + sub.ID + "/deliveries?limit=0")
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestAdminDeliveryRetry(t *testing.T) {
	admin := newAdminClient(t)
	sub := createTestSubscription(t, admin, "Ada")
	itemID := seedFailedQueueItem(t, sub.ID)

	resp, err := admin.POST("/api/v1/admin/deliveries/"+itemID+"/retry", nil)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	var status string
	var attempts int
	err = testDB.QueryRow(context.Background(),
		`SELECT status, attempts FROM delivery_queue WHERE id = $1`, itemID).
		Scan(&status, &attempts)
	require.NoError(t, err)
	assert.Equal(t, "pending", status)
	assert.Zero(t, attempts, "retry resets the attempt budget")

	// A pending item cannot be retried again.
	resp, err = admin.POST("/api/v1/admin/deliveries/"+itemID+"/retry", nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()
}

func TestAdminDeliveryRetryNotFound(t *testing.T) {
	admin := newAdminClient(t)

	resp, err := admin.POST("/api/v1/admin/deliveries/"+uuid.NewString()+"/retry", nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestAdminDeliveryStats(t *testing.T) {
	admin := newAdminClient(t)
	sub := createTestSubscription(t, admin, "Ada")
	seedFailedQueueItem(t, sub.ID)

	resp, err := admin.GET("/api/v1/admin/deliveries/stats")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result struct {
		Data struct {
			Pending    int64 `json:"pending"`
			Processing int64 `json:"processing"`
			Sent       int64 `json:"sent"`
			Failed     int64 `json:"failed"`
		} `json:"data"`
	}
	testutil.DecodeJSON(t, resp, &result)
	assert.GreaterOrEqual(t, result.Data.Failed, int64(1))
}
