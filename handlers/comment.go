package handlers

import (
	"context"
	"fmt"

	"reviewcms/database"
	"reviewcms/middleware"
	"reviewcms/models"
	"reviewcms/notify"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// postTypeOf finds which content collection holds id.
func (h *Handler) postTypeOf(ctx context.Context, id primitive.ObjectID) (string, error) {
	lookups := []struct {
		postType string
		exists   func() (bool, error)
	}{
		{models.TypeArticle, func() (bool, error) { return exists(ctx, h.Repos.Articles, id) }},
		{models.TypeReview, func() (bool, error) { return exists(ctx, h.Repos.Reviews, id) }},
		{models.TypeComparison, func() (bool, error) { return exists(ctx, h.Repos.Comparisons, id) }},
	}
	for _, p := range lookups {
		ok, err := p.exists()
		if err != nil {
			return "", err
		}
		if ok {
			return p.postType, nil
		}
	}
	return "", badRequest("Invalid postId reference")
}

func commentsOp[T any](ctx context.Context, repo database.Repository[T], add bool, postID, commentID primitive.ObjectID) error {
	if add {
		return repo.AddToSet(ctx, postID, "comments", commentID)
	}
	return repo.Pull(ctx, postID, "comments", commentID)
}

// linkComment adds or removes a comment id on its post's comments list.
func (h *Handler) linkComment(ctx context.Context, cm *models.Comment, add bool) error {
	switch cm.PostType {
	case models.TypeArticle:
		return commentsOp(ctx, h.Repos.Articles, add, cm.PostID, cm.ID)
	case models.TypeReview:
		return commentsOp(ctx, h.Repos.Reviews, add, cm.PostID, cm.ID)
	case models.TypeComparison:
		return commentsOp(ctx, h.Repos.Comparisons, add, cm.PostID, cm.ID)
	}
	return fmt.Errorf("comment %s has unknown post type %q", cm.ID.Hex(), cm.PostType)
}

func (h *Handler) commentResource() *resource[models.Comment] {
	return &resource[models.Comment]{
		name:     "Comment",
		plural:   "Comments",
		kind:     "comment",
		repo:     h.Repos.Comments,
		events:   h.Events,
		populate: h.populateComments,
		prepare: func(c *gin.Context, doc *models.Comment) error {
			ctx := c.Request.Context()
			if doc.UserID.IsZero() {
				caller, ok := middleware.UserID(c)
				if !ok {
					return badRequest("userId is required")
				}
				doc.UserID = caller
			}
			if err := requireRef(ctx, h.Repos.Users, doc.UserID, "userId"); err != nil {
				return err
			}
			postType, err := h.postTypeOf(ctx, doc.PostID)
			if err != nil {
				return err
			}
			doc.PostType = postType
			return nil
		},
		amend: func(_ *gin.Context, current *models.Comment, p *patch[models.Comment]) error {
			if p.Has("postId") && p.Doc.PostID != current.PostID {
				return badRequest("postId cannot be changed")
			}
			if p.Has("userId") && p.Doc.UserID != current.UserID {
				return badRequest("userId cannot be changed")
			}
			delete(p.Set, "postId")
			delete(p.Set, "userId")
			delete(p.Set, "postType")
			return nil
		},
		created: func(ctx context.Context, doc *models.Comment) error {
			return h.linkComment(ctx, doc, true)
		},
		deleted: func(ctx context.Context, doc *models.Comment) error {
			return h.linkComment(ctx, doc, false)
		},
		describe: func(doc *models.Comment) notify.Event {
			return notify.Event{Title: doc.Body}
		},
	}
}
