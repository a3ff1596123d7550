package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Base carries the identity and timestamps shared by every stored document.
type Base struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}

func (b *Base) GetID() primitive.ObjectID { return b.ID }

// Reset clears the server-owned fields so a client cannot choose them.
func (b *Base) Reset() { *b = Base{} }

// Stamp assigns an id and creation time on first save and always bumps UpdatedAt.
func (b *Base) Stamp(now time.Time) {
	if b.ID.IsZero() {
		b.ID = primitive.NewObjectID()
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = now
	}
	b.UpdatedAt = now
}

const (
	StatusPublished = "published"
	StatusDraft     = "draft"

	TypeArticle    = "article"
	TypeReview     = "review"
	TypeComparison = "comparison"
)
