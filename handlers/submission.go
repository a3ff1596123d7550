package handlers

import (
	"errors"
	"net/http"
	"strings"

	"reviewcms/database"
	"reviewcms/models"
	"reviewcms/response"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"go.mongodb.org/mongo-driver/bson"
)

func (h *Handler) contactResource() *resource[models.Contact] {
	return &resource[models.Contact]{
		name:   "Contact",
		plural: "Contacts",
		kind:   "contact",
		repo:   h.Repos.Contacts,
		prepare: func(_ *gin.Context, doc *models.Contact) error {
			doc.Email = strings.ToLower(strings.TrimSpace(doc.Email))
			return nil
		},
	}
}

func (h *Handler) subscriberResource() *resource[models.Subscriber] {
	return &resource[models.Subscriber]{
		name:   "Subscriber",
		plural: "Subscribers",
		kind:   "subscriber",
		repo:   h.Repos.Subscribers,
		unique: []string{"email"},
		prepare: func(_ *gin.Context, doc *models.Subscriber) error {
			doc.Email = strings.ToLower(strings.TrimSpace(doc.Email))
			doc.Unsubscribe = false
			return nil
		},
	}
}

type emailRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// Subscribe adds an email to the newsletter, or reactivates one that
// previously unsubscribed.
func (h *Handler) Subscribe(c *gin.Context) {
	var req emailRequest
	if err := c.ShouldBindBodyWith(&req, binding.JSON); err != nil {
		fail(c, "Subscribe", bindError(err))
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))

	existing, err := h.Repos.Subscribers.FindOne(c.Request.Context(), "email", email)
	switch {
	case errors.Is(err, database.ErrNotFound):
		h.subscribers.Create(c)
	case err != nil:
		fail(c, "Subscribe", err)
	case !existing.Unsubscribe:
		response.Error(c, http.StatusBadRequest, "Email is already subscribed")
	default:
		updated, err := h.Repos.Subscribers.Update(c.Request.Context(), existing.ID, bson.M{"unsubscribe": false})
		if err != nil {
			fail(c, "Subscribe", err)
			return
		}
		response.Success(c, http.StatusOK, "Subscribed successfully", updated)
	}
}

// Unsubscribe flags an email as opted out. The record is kept.
func (h *Handler) Unsubscribe(c *gin.Context) {
	var req emailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, "Unsubscribe", bindError(err))
		return
	}
	ctx := c.Request.Context()
	email := strings.ToLower(strings.TrimSpace(req.Email))

	existing, err := h.Repos.Subscribers.FindOne(ctx, "email", email)
	if errors.Is(err, database.ErrNotFound) {
		response.Error(c, http.StatusNotFound, "Subscriber not found")
		return
	}
	if err != nil {
		fail(c, "Unsubscribe", err)
		return
	}
	updated, err := h.Repos.Subscribers.Update(ctx, existing.ID, bson.M{"unsubscribe": true})
	if err != nil {
		fail(c, "Unsubscribe", err)
		return
	}
	response.Success(c, http.StatusOK, "Unsubscribed successfully", updated)
}
