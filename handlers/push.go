package handlers

import (
	"errors"
	"net/http"

	"reviewcms/database"
	"reviewcms/models"
	"reviewcms/response"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
)

// VapidPublicKey hands browsers the key they subscribe with.
func (h *Handler) VapidPublicKey(c *gin.Context) {
	if !h.Config.VAPID.Enabled() {
		response.Error(c, http.StatusServiceUnavailable, "Push notifications are not configured")
		return
	}
	response.Success(c, http.StatusOK, "VAPID public key retrieved successfully", gin.H{
		"publicKey": h.Config.VAPID.PublicKey,
	})
}

// SubscribePush stores a browser push subscription. Re-subscribing the same
// endpoint refreshes its keys.
func (h *Handler) SubscribePush(c *gin.Context) {
	var sub models.PushSubscription
	if err := c.ShouldBindJSON(&sub); err != nil {
		fail(c, "SubscribePush", bindError(err))
		return
	}
	ctx := c.Request.Context()

	existing, err := h.Repos.PushSubs.FindOne(ctx, "endpoint", sub.Endpoint)
	switch {
	case err == nil:
		updated, err := h.Repos.PushSubs.Update(ctx, existing.ID, bson.M{"keys": sub.Keys})
		if err != nil {
			fail(c, "SubscribePush", err)
			return
		}
		response.Success(c, http.StatusOK, "Push subscription updated", updated)
	case errors.Is(err, database.ErrNotFound):
		if err := h.Repos.PushSubs.Create(ctx, &sub); err != nil {
			fail(c, "SubscribePush", err)
			return
		}
		response.Success(c, http.StatusCreated, "Push subscription saved", sub)
	default:
		fail(c, "SubscribePush", err)
	}
}
