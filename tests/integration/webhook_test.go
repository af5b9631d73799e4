package integration

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"habitQuestAPI/handlers"
	"habitQuestAPI/services"
	"habitQuestAPI/tests/helpers"
)

// TestClerkWebhookUserLifecycle runs a user through created, updated
// and deleted events.
func TestClerkWebhookUserLifecycle(t *testing.T) {
	pool := helpers.SetupTestDB(t)
	defer helpers.CleanupTestDB(t, pool)

	userService := services.NewUserService(pool)
	webhookHandler := handlers.NewWebhookHandler(userService)

	os.Setenv("CLERK_WEBHOOK_SECRET", "")
	defer os.Unsetenv("CLERK_WEBHOOK_SECRET")

	clerkID := "user_test_wh_" + time.Now().Format("20060102150405")
	ctx := context.Background()

	t.Log("user.created provisions an account")
	req := httptest.NewRequest(http.MethodPost, "/webhooks/clerk",
		bytes.NewReader(helpers.MockClerkWebhookPayload("user.created", clerkID)))
	rr := httptest.NewRecorder()
	webhookHandler.HandleClerkWebhook(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)

	created, err := userService.GetUserByClerkID(ctx, clerkID)
	require.NoError(t, err)
	assert.Equal(t, "test.user@example.com", created.Email)
	assert.Equal(t, "testuser", created.Name)
	assert.True(t, created.EmailVerified)
	assert.Equal(t, 0, created.XP)
	assert.Equal(t, 1, created.Level)

	t.Log("replayed user.created does not duplicate")
	req = httptest.NewRequest(http.MethodPost, "/webhooks/clerk",
		bytes.NewReader(helpers.MockClerkWebhookPayload("user.created", clerkID)))
	rr = httptest.NewRecorder()
	webhookHandler.HandleClerkWebhook(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)

	var count int
	err = pool.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE clerk_id = $1`, clerkID).Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	t.Log("user.updated refreshes the profile")
	req = httptest.NewRequest(http.MethodPost, "/webhooks/clerk",
		bytes.NewReader(helpers.MockClerkWebhookPayload("user.updated", clerkID)))
	rr = httptest.NewRecorder()
	webhookHandler.HandleClerkWebhook(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)

	updated, err := userService.GetUserByClerkID(ctx, clerkID)
	require.NoError(t, err)
	assert.Equal(t, "updateduser", updated.Name)

	t.Log("user.deleted removes the account")
	req = httptest.NewRequest(http.MethodPost, "/webhooks/clerk",
		bytes.NewReader(helpers.MockClerkWebhookPayload("user.deleted", clerkID)))
	rr = httptest.NewRecorder()
	webhookHandler.HandleClerkWebhook(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)

	_, err = userService.GetUserByClerkID(ctx, clerkID)
	assert.Error(t, err)
}

// TestClerkWebhookRejectsBadSignature verifies the svix check when a
// secret is configured.
func TestClerkWebhookRejectsBadSignature(t *testing.T) {
	pool := helpers.SetupTestDB(t)
	defer helpers.CleanupTestDB(t, pool)

	userService := services.NewUserService(pool)
	webhookHandler := handlers.NewWebhookHandler(userService)

	os.Setenv("CLERK_WEBHOOK_SECRET", "whsec_testsecret")
	defer os.Unsetenv("CLERK_WEBHOOK_SECRET")

	clerkID := "user_test_sig_" + time.Now().Format("20060102150405")
	req := httptest.NewRequest(http.MethodPost, "/webhooks/clerk",
		bytes.NewReader(helpers.MockClerkWebhookPayload("user.created", clerkID)))
	req.Header.Set("svix-id", "msg_123")
	req.Header.Set("svix-timestamp", "1700000000")
	req.Header.Set("svix-signature", "v1,definitely-wrong")
	rr := httptest.NewRecorder()

	webhookHandler.HandleClerkWebhook(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

// TestClerkWebhookAcceptsSignedPayload signs a payload the way svix
// does: base64 HMAC-SHA256 over "id.timestamp.body" with the
// base64-decoded key behind the whsec_ prefix.
func TestClerkWebhookAcceptsSignedPayload(t *testing.T) {
	pool := helpers.SetupTestDB(t)
	defer helpers.CleanupTestDB(t, pool)

	userService := services.NewUserService(pool)
	webhookHandler := handlers.NewWebhookHandler(userService)

	key := []byte("testsecret")
	os.Setenv("CLERK_WEBHOOK_SECRET", "whsec_"+base64.StdEncoding.EncodeToString(key))
	defer os.Unsetenv("CLERK_WEBHOOK_SECRET")

	clerkID := "user_test_signed_" + time.Now().Format("20060102150405")
	payload := helpers.MockClerkWebhookPayload("user.created", clerkID)

	svixID := "msg_valid"
	svixTimestamp := "1700000000"
	mac := hmac.New(sha256.New, key)
	fmt.Fprintf(mac, "%s.%s.%s", svixID, svixTimestamp, payload)
	signature := "v1," + base64.StdEncoding.EncodeToString(mac.Sum(nil))

	req := httptest.NewRequest(http.MethodPost, "/webhooks/clerk", bytes.NewReader(payload))
	req.Header.Set("svix-id", svixID)
	req.Header.Set("svix-timestamp", svixTimestamp)
	req.Header.Set("svix-signature", signature)
	rr := httptest.NewRecorder()

	webhookHandler.HandleClerkWebhook(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	created, err := userService.GetUserByClerkID(context.Background(), clerkID)
	require.NoError(t, err)
	assert.Equal(t, clerkID, created.ClerkID)
}
