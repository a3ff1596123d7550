package handlers

import (
	"context"
	"errors"
	"net/http"

	"reviewcms/database"
	"reviewcms/models"
	"reviewcms/notify"
	"reviewcms/response"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// dropManaged removes fields owned by the comment handlers.
func dropManaged[T any](p *patch[T]) {
	delete(p.Set, "comments")
}

func (h *Handler) deleteCommentsOf(ctx context.Context, postID primitive.ObjectID) error {
	_, err := h.Repos.Comments.DeleteMany(ctx, "postId", postID)
	return err
}

func (h *Handler) articleResource() *resource[models.Article] {
	rules := func(doc *models.Article) []refRule {
		out := []refRule{
			mustExist(h.Repos.Categories, "category", doc.Category),
			mustExist(h.Repos.Users, "author", doc.Author),
		}
		if doc.Subcategory != nil {
			out = append(out, mustExist(h.Repos.Subcategories, "subcategory", *doc.Subcategory))
		}
		return out
	}

	return &resource[models.Article]{
		name:       "Article",
		plural:     "Articles",
		kind:       models.TypeArticle,
		repo:       h.Repos.Articles,
		unique:     []string{"slug"},
		filterable: true,
		events:     h.Events,
		populate:   h.populateArticles,
		prepare: func(c *gin.Context, doc *models.Article) error {
			doc.ApplyDefaults()
			doc.Comments = []primitive.ObjectID{}
			return verifyRefs(c.Request.Context(), nil, rules(doc)...)
		},
		amend: func(c *gin.Context, _ *models.Article, p *patch[models.Article]) error {
			dropManaged(p)
			return verifyRefs(c.Request.Context(), p.Keys, rules(p.Doc)...)
		},
		deleted: func(ctx context.Context, doc *models.Article) error {
			return h.deleteCommentsOf(ctx, doc.ID)
		},
		describe: func(doc *models.Article) notify.Event {
			return notify.Event{Title: doc.Title, Slug: doc.Slug, Status: doc.Status}
		},
	}
}

func (h *Handler) reviewResource() *resource[models.Review] {
	rules := func(doc *models.Review) []refRule {
		return []refRule{
			mustExist(h.Repos.Categories, "category", doc.Category),
			mustExist(h.Repos.Subcategories, "subcategory", doc.Subcategory),
			mustExist(h.Repos.Users, "author", doc.Author),
		}
	}

	return &resource[models.Review]{
		name:       "Review",
		plural:     "Reviews",
		kind:       models.TypeReview,
		repo:       h.Repos.Reviews,
		unique:     []string{"slug"},
		filterable: true,
		events:     h.Events,
		populate:   h.populateReviews,
		prepare: func(c *gin.Context, doc *models.Review) error {
			doc.ApplyDefaults()
			doc.Comments = []primitive.ObjectID{}
			return verifyRefs(c.Request.Context(), nil, rules(doc)...)
		},
		amend: func(c *gin.Context, _ *models.Review, p *patch[models.Review]) error {
			dropManaged(p)
			return verifyRefs(c.Request.Context(), p.Keys, rules(p.Doc)...)
		},
		inUse: func(ctx context.Context, id primitive.ObjectID) (bool, error) {
			return referenced(ctx,
				countOf(h.Repos.Comparisons, "product1", id),
				countOf(h.Repos.Comparisons, "product2", id),
			)
		},
		deleted: func(ctx context.Context, doc *models.Review) error {
			return h.deleteCommentsOf(ctx, doc.ID)
		},
		describe: func(doc *models.Review) notify.Event {
			return notify.Event{Title: doc.Title, Slug: doc.Slug, Status: doc.Status}
		},
	}
}

func (h *Handler) comparisonResource() *resource[models.Comparison] {
	rules := func(doc *models.Comparison) []refRule {
		return []refRule{
			mustExist(h.Repos.Reviews, "product1", doc.Product1),
			mustExist(h.Repos.Reviews, "product2", doc.Product2),
			mustExist(h.Repos.Categories, "category", doc.Category),
			mustExist(h.Repos.Subcategories, "subcategory", doc.Subcategory),
			mustExist(h.Repos.Users, "author", doc.Author),
		}
	}

	return &resource[models.Comparison]{
		name:       "Comparison",
		plural:     "Comparisons",
		kind:       models.TypeComparison,
		repo:       h.Repos.Comparisons,
		unique:     []string{"slug"},
		filterable: true,
		events:     h.Events,
		populate:   h.populateComparisons,
		prepare: func(c *gin.Context, doc *models.Comparison) error {
			doc.ApplyDefaults()
			doc.Comments = []primitive.ObjectID{}
			return verifyRefs(c.Request.Context(), nil, rules(doc)...)
		},
		amend: func(c *gin.Context, _ *models.Comparison, p *patch[models.Comparison]) error {
			dropManaged(p)
			return verifyRefs(c.Request.Context(), p.Keys, rules(p.Doc)...)
		},
		deleted: func(ctx context.Context, doc *models.Comparison) error {
			return h.deleteCommentsOf(ctx, doc.ID)
		},
		describe: func(doc *models.Comparison) notify.Event {
			return notify.Event{Title: doc.Title, Slug: doc.Slug, Status: doc.Status}
		},
	}
}

// ViewReview counts one view of a review and returns the new total.
func (h *Handler) ViewReview(c *gin.Context) {
	id, err := parseID(c, "id", "Review")
	if err != nil {
		fail(c, "ViewReview", err)
		return
	}
	review, err := h.Repos.Reviews.Increment(c.Request.Context(), id, "views", 1)
	if errors.Is(err, database.ErrNotFound) {
		response.Error(c, http.StatusNotFound, "Review not found")
		return
	}
	if err != nil {
		fail(c, "ViewReview", err)
		return
	}
	response.Success(c, http.StatusOK, "Review view recorded", gin.H{"id": review.ID, "views": review.Views})
}
