package handlers

import (
	"context"

	"reviewcms/database"
	"reviewcms/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/sync/errgroup"
)

// authorView is the public face of a user when embedded in another document.
type authorView struct {
	ID          primitive.ObjectID `json:"id"`
	FirstName   string             `json:"firstname"`
	LastName    string             `json:"lastname"`
	ProfilePic  string             `json:"profilePic"`
	Title       string             `json:"title"`
	Description string             `json:"description"`
	Social      models.Social      `json:"social"`
}

type parentView struct {
	ID    primitive.ObjectID `json:"id"`
	Title string             `json:"title"`
}

type postView struct {
	ID    primitive.ObjectID `json:"id"`
	Title string             `json:"title"`
	Slug  string             `json:"slug"`
	Type  string             `json:"type"`
}

type articleView struct {
	models.Article
	Category    any   `json:"category"`
	Subcategory any   `json:"subcategory"`
	Author      any   `json:"author"`
	Comments    []any `json:"comments"`
}

type reviewView struct {
	models.Review
	Category    any   `json:"category"`
	Subcategory any   `json:"subcategory"`
	Author      any   `json:"author"`
	Comments    []any `json:"comments"`
}

type comparisonView struct {
	models.Comparison
	Product1    any   `json:"product1"`
	Product2    any   `json:"product2"`
	Category    any   `json:"category"`
	Subcategory any   `json:"subcategory"`
	Author      any   `json:"author"`
	Comments    []any `json:"comments"`
}

type subcategoryView struct {
	models.Subcategory
	ParentCategory any `json:"parentcategory"`
}

type commentView struct {
	models.Comment
	UserID any `json:"userId"`
	PostID any `json:"postId"`
}

// refs collects the ids a batch of documents points at, per collection.
type refs struct {
	categories    []primitive.ObjectID
	subcategories []primitive.ObjectID
	users         []primitive.ObjectID
	comments      []primitive.ObjectID
	articles      []primitive.ObjectID
	reviews       []primitive.ObjectID
	comparisons   []primitive.ObjectID
}

// resolved holds the documents found for a refs set. Missing ids are absent.
type resolved struct {
	categories    map[primitive.ObjectID]*models.Category
	subcategories map[primitive.ObjectID]*models.Subcategory
	users         map[primitive.ObjectID]*models.User
	comments      map[primitive.ObjectID]*models.Comment
	articles      map[primitive.ObjectID]*models.Article
	reviews       map[primitive.ObjectID]*models.Review
	comparisons   map[primitive.ObjectID]*models.Comparison
}

// resolve runs one batched lookup per referenced collection, concurrently.
// Any store failure fails the whole expansion.
func (h *Handler) resolve(ctx context.Context, want refs) (*resolved, error) {
	var out resolved
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		out.categories, err = lookup(ctx, h.Repos.Categories, want.categories)
		return err
	})
	g.Go(func() (err error) {
		out.subcategories, err = lookup(ctx, h.Repos.Subcategories, want.subcategories)
		return err
	})
	g.Go(func() (err error) {
		out.users, err = lookup(ctx, h.Repos.Users, want.users)
		return err
	})
	g.Go(func() (err error) {
		out.comments, err = lookup(ctx, h.Repos.Comments, want.comments)
		return err
	})
	g.Go(func() (err error) {
		out.articles, err = lookup(ctx, h.Repos.Articles, want.articles)
		return err
	})
	g.Go(func() (err error) {
		out.reviews, err = lookup(ctx, h.Repos.Reviews, want.reviews)
		return err
	})
	g.Go(func() (err error) {
		out.comparisons, err = lookup(ctx, h.Repos.Comparisons, want.comparisons)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &out, nil
}

func lookup[T any](ctx context.Context, repo database.Repository[T], ids []primitive.ObjectID) (map[primitive.ObjectID]*T, error) {
	found := make(map[primitive.ObjectID]*T)
	if len(ids) == 0 {
		return found, nil
	}
	seen := make(map[primitive.ObjectID]bool, len(ids))
	unique := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if !id.IsZero() && !seen[id] {
			seen[id] = true
			unique = append(unique, id)
		}
	}
	docs, err := repo.GetMany(ctx, unique)
	if err != nil {
		return nil, err
	}
	for i := range docs {
		found[idOf(&docs[i])] = &docs[i]
	}
	return found, nil
}

// pick returns the document for id, or nil when it no longer exists.
func pick[T any](m map[primitive.ObjectID]*T, id primitive.ObjectID) any {
	if doc, ok := m[id]; ok {
		return doc
	}
	return nil
}

func (r *resolved) author(id primitive.ObjectID) any {
	u, ok := r.users[id]
	if !ok {
		return nil
	}
	return authorView{
		ID:          u.ID,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		ProfilePic:  u.ProfilePic,
		Title:       u.Title,
		Description: u.Description,
		Social:      u.Social,
	}
}

// commentList keeps the order of ids and drops comments that are gone.
func (r *resolved) commentList(ids []primitive.ObjectID) []any {
	out := make([]any, 0, len(ids))
	for _, id := range ids {
		if c, ok := r.comments[id]; ok {
			out = append(out, c)
		}
	}
	return out
}

func (r *resolved) post(postType string, id primitive.ObjectID) any {
	switch postType {
	case models.TypeArticle:
		if p, ok := r.articles[id]; ok {
			return postView{ID: p.ID, Title: p.Title, Slug: p.Slug, Type: models.TypeArticle}
		}
	case models.TypeReview:
		if p, ok := r.reviews[id]; ok {
			return postView{ID: p.ID, Title: p.Title, Slug: p.Slug, Type: models.TypeReview}
		}
	case models.TypeComparison:
		if p, ok := r.comparisons[id]; ok {
			return postView{ID: p.ID, Title: p.Title, Slug: p.Slug, Type: models.TypeComparison}
		}
	}
	return nil
}

func (h *Handler) populateArticles(ctx context.Context, docs []models.Article) ([]any, error) {
	var want refs
	for _, a := range docs {
		want.categories = append(want.categories, a.Category)
		if a.Subcategory != nil {
			want.subcategories = append(want.subcategories, *a.Subcategory)
		}
		want.users = append(want.users, a.Author)
		want.comments = append(want.comments, a.Comments...)
	}
	got, err := h.resolve(ctx, want)
	if err != nil {
		return nil, err
	}

	out := make([]any, len(docs))
	for i, a := range docs {
		v := articleView{
			Article:  a,
			Category: pick(got.categories, a.Category),
			Author:   got.author(a.Author),
			Comments: got.commentList(a.Comments),
		}
		if a.Subcategory != nil {
			v.Subcategory = pick(got.subcategories, *a.Subcategory)
		}
		out[i] = v
	}
	return out, nil
}

func (h *Handler) populateReviews(ctx context.Context, docs []models.Review) ([]any, error) {
	var want refs
	for _, r := range docs {
		want.categories = append(want.categories, r.Category)
		want.subcategories = append(want.subcategories, r.Subcategory)
		want.users = append(want.users, r.Author)
		want.comments = append(want.comments, r.Comments...)
	}
	got, err := h.resolve(ctx, want)
	if err != nil {
		return nil, err
	}

	out := make([]any, len(docs))
	for i, r := range docs {
		out[i] = reviewView{
			Review:      r,
			Category:    pick(got.categories, r.Category),
			Subcategory: pick(got.subcategories, r.Subcategory),
			Author:      got.author(r.Author),
			Comments:    got.commentList(r.Comments),
		}
	}
	return out, nil
}

func (h *Handler) populateComparisons(ctx context.Context, docs []models.Comparison) ([]any, error) {
	var want refs
	for _, c := range docs {
		want.reviews = append(want.reviews, c.Product1, c.Product2)
		want.categories = append(want.categories, c.Category)
		want.subcategories = append(want.subcategories, c.Subcategory)
		want.users = append(want.users, c.Author)
		want.comments = append(want.comments, c.Comments...)
	}
	got, err := h.resolve(ctx, want)
	if err != nil {
		return nil, err
	}

	out := make([]any, len(docs))
	for i, c := range docs {
		out[i] = comparisonView{
			Comparison:  c,
			Product1:    pick(got.reviews, c.Product1),
			Product2:    pick(got.reviews, c.Product2),
			Category:    pick(got.categories, c.Category),
			Subcategory: pick(got.subcategories, c.Subcategory),
			Author:      got.author(c.Author),
			Comments:    got.commentList(c.Comments),
		}
	}
	return out, nil
}

func (h *Handler) populateSubcategories(ctx context.Context, docs []models.Subcategory) ([]any, error) {
	var want refs
	for _, s := range docs {
		if s.ParentCategory != nil {
			want.categories = append(want.categories, *s.ParentCategory)
		}
	}
	got, err := h.resolve(ctx, want)
	if err != nil {
		return nil, err
	}

	out := make([]any, len(docs))
	for i, s := range docs {
		v := subcategoryView{Subcategory: s}
		if s.ParentCategory != nil {
			if p, ok := got.categories[*s.ParentCategory]; ok {
				v.ParentCategory = parentView{ID: p.ID, Title: p.Title}
			}
		}
		out[i] = v
	}
	return out, nil
}

func (h *Handler) populateComments(ctx context.Context, docs []models.Comment) ([]any, error) {
	var want refs
	for _, c := range docs {
		want.users = append(want.users, c.UserID)
		switch c.PostType {
		case models.TypeArticle:
			want.articles = append(want.articles, c.PostID)
		case models.TypeReview:
			want.reviews = append(want.reviews, c.PostID)
		case models.TypeComparison:
			want.comparisons = append(want.comparisons, c.PostID)
		}
	}
	got, err := h.resolve(ctx, want)
	if err != nil {
		return nil, err
	}

	out := make([]any, len(docs))
	for i, c := range docs {
		out[i] = commentView{
			Comment: c,
			UserID:  got.author(c.UserID),
			PostID:  got.post(c.PostType, c.PostID),
		}
	}
	return out, nil
}
