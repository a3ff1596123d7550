package handlers

import (
	"context"

	"reviewcms/models"
	"reviewcms/notify"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func (h *Handler) categoryResource() *resource[models.Category] {
	return &resource[models.Category]{
		name:   "Category",
		plural: "Categories",
		kind:   "category",
		repo:   h.Repos.Categories,
		unique: []string{"slug"},
		events: h.Events,
		inUse: func(ctx context.Context, id primitive.ObjectID) (bool, error) {
			return referenced(ctx,
				countOf(h.Repos.Subcategories, "parentcategory", id),
				countOf(h.Repos.Articles, "category", id),
				countOf(h.Repos.Reviews, "category", id),
				countOf(h.Repos.Comparisons, "category", id),
			)
		},
		describe: func(doc *models.Category) notify.Event {
			return notify.Event{Title: doc.Title, Slug: doc.Slug}
		},
	}
}

func (h *Handler) subcategoryResource() *resource[models.Subcategory] {
	parentRule := func(doc *models.Subcategory) []refRule {
		if doc.ParentCategory == nil {
			return nil
		}
		return []refRule{mustExist(h.Repos.Categories, "parentcategory", *doc.ParentCategory)}
	}

	return &resource[models.Subcategory]{
		name:     "Subcategory",
		plural:   "Subcategories",
		kind:     "subcategory",
		repo:     h.Repos.Subcategories,
		unique:   []string{"slug"},
		events:   h.Events,
		populate: h.populateSubcategories,
		prepare: func(c *gin.Context, doc *models.Subcategory) error {
			return verifyRefs(c.Request.Context(), nil, parentRule(doc)...)
		},
		amend: func(c *gin.Context, _ *models.Subcategory, p *patch[models.Subcategory]) error {
			return verifyRefs(c.Request.Context(), p.Keys, parentRule(p.Doc)...)
		},
		inUse: func(ctx context.Context, id primitive.ObjectID) (bool, error) {
			return referenced(ctx,
				countOf(h.Repos.Articles, "subcategory", id),
				countOf(h.Repos.Reviews, "subcategory", id),
				countOf(h.Repos.Comparisons, "subcategory", id),
			)
		},
		describe: func(doc *models.Subcategory) notify.Event {
			return notify.Event{Title: doc.Title, Slug: doc.Slug}
		},
	}
}
