package handlers

import (
	"context"
	"net/http"
	"testing"

	"reviewcms/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVapidPublicKey(t *testing.T) {
	e := newTestEnv(t)

	w, env := e.do(t, request{method: http.MethodGet, path: "/api/v1/subscriber/push/key"})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "Push notifications are not configured", env.Message)

	e.h.Config.VAPID.PublicKey = "BPublicKey"
	e.h.Config.VAPID.PrivateKey = "private"
	w, env = e.do(t, request{method: http.MethodGet, path: "/api/v1/subscriber/push/key"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "BPublicKey", decodeData[map[string]string](t, env)["publicKey"])
}

func TestSubscribePush_UpsertsByEndpoint(t *testing.T) {
	e := newTestEnv(t)
	sub := map[string]any{
		"endpoint": "https://push.example.com/send/abc",
		"keys":     map[string]string{"p256dh": "key-1", "auth": "auth-1"},
	}

	w, _ := e.do(t, request{method: http.MethodPost, path: "/api/v1/subscriber/push", body: sub})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	sub["keys"] = map[string]string{"p256dh": "key-2", "auth": "auth-2"}
	w, env := e.do(t, request{method: http.MethodPost, path: "/api/v1/subscriber/push", body: sub})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "key-2", decodeData[models.PushSubscription](t, env).Keys.P256dh)

	n, err := e.h.Repos.PushSubs.Count(context.Background(), "endpoint", "https://push.example.com/send/abc")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	w, env = e.do(t, request{method: http.MethodPost, path: "/api/v1/subscriber/push",
		body: map[string]any{"endpoint": "not a url"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, env.Message, "endpoint is invalid")
}
