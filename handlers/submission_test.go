package handlers

import (
	"net/http"
	"testing"

	"reviewcms/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubscribeLifecycle(t *testing.T) {
	e := newTestEnv(t)
	body := map[string]any{"email": "Reader@Example.com"}

	w, env := e.do(t, request{method: http.MethodPost, path: "/api/v1/subscriber", body: body})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	sub := decodeData[models.Subscriber](t, env)
	assert.Equal(t, "reader@example.com", sub.Email)
	assert.False(t, sub.Unsubscribe)

	w, env = e.do(t, request{method: http.MethodPost, path: "/api/v1/subscriber", body: body})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Email is already subscribed", env.Message)

	w, env = e.do(t, request{method: http.MethodPut, path: "/api/v1/subscriber/unsubscribe", body: body})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Unsubscribed successfully", env.Message)
	assert.True(t, decodeData[models.Subscriber](t, env).Unsubscribe)

	w, env = e.do(t, request{method: http.MethodPost, path: "/api/v1/subscriber", body: body})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Subscribed successfully", env.Message)
	again := decodeData[models.Subscriber](t, env)
	assert.Equal(t, sub.ID, again.ID)
	assert.False(t, again.Unsubscribe)
}

func TestSubscribe_Validation(t *testing.T) {
	e := newTestEnv(t)

	w, env := e.do(t, request{method: http.MethodPost, path: "/api/v1/subscriber", body: map[string]any{"email": "nope"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "email must be a valid email address", env.Message)

	w, env = e.do(t, request{method: http.MethodPut, path: "/api/v1/subscriber/unsubscribe",
		body: map[string]any{"email": "ghost@example.com"}})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Subscriber not found", env.Message)
}

func TestCreateContact(t *testing.T) {
	e := newTestEnv(t)

	w, env := e.do(t, request{method: http.MethodPost, path: "/api/v1/contacts", token: e.token,
		body: map[string]any{"name": "Grace", "email": "Grace@Example.com", "message": "Hello there"}})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "Contact created successfully", env.Message)
	assert.Equal(t, "grace@example.com", decodeData[models.Contact](t, env).Email)

	w, env = e.do(t, request{method: http.MethodPost, path: "/api/v1/contacts", token: e.token,
		body: map[string]any{"email": "grace@example.com"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "name is required; message is required", env.Message)
}
