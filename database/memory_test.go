package database

import (
	"context"
	"errors"
	"testing"

	"reviewcms/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newCategory(slug string) *models.Category {
	return &models.Category{Title: "Title " + slug, Slug: slug}
}

func TestMemory_CreateStampsAndGets(t *testing.T) {
	repo := NewMemory[models.Category]("slug")
	ctx := context.Background()

	cat := newCategory("laptops")
	require.NoError(t, repo.Create(ctx, cat))
	assert.False(t, cat.ID.IsZero())
	assert.False(t, cat.CreatedAt.IsZero())

	got, err := repo.Get(ctx, cat.ID)
	require.NoError(t, err)
	assert.Equal(t, "laptops", got.Slug)
	assert.Equal(t, "Title laptops", got.Title)
}

func TestMemory_UniqueField(t *testing.T) {
	repo := NewMemory[models.Category]("slug")
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newCategory("phones")))
	err := repo.Create(ctx, newCategory("phones"))
	assert.True(t, errors.Is(err, ErrDuplicate))

	n, err := repo.Count(ctx, "slug", "phones")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestMemory_UpdateRejectsDuplicate(t *testing.T) {
	repo := NewMemory[models.Category]("slug")
	ctx := context.Background()

	a, b := newCategory("a"), newCategory("b")
	require.NoError(t, repo.Create(ctx, a))
	require.NoError(t, repo.Create(ctx, b))

	_, err := repo.Update(ctx, b.ID, bson.M{"slug": "a"})
	assert.True(t, errors.Is(err, ErrDuplicate))

	updated, err := repo.Update(ctx, b.ID, bson.M{"title": "Renamed"})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Title)
	assert.Equal(t, "b", updated.Slug)
}

func TestMemory_NotFound(t *testing.T) {
	repo := NewMemory[models.Category]()
	ctx := context.Background()
	id := primitive.NewObjectID()

	_, err := repo.Get(ctx, id)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = repo.Update(ctx, id, bson.M{"title": "x"})
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = repo.Delete(ctx, id)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemory_ListOrderFilterAndPaging(t *testing.T) {
	repo := NewMemory[models.Article]("slug")
	ctx := context.Background()

	for _, slug := range []string{"one", "two", "three"} {
		a := &models.Article{Title: slug, Slug: slug, Status: models.StatusDraft}
		if slug == "two" {
			a.Status = models.StatusPublished
		}
		require.NoError(t, repo.Create(ctx, a))
	}

	recent, err := repo.List(ctx, ListOptions{})
	require.NoError(t, err)
	require.Len(t, recent, 3)
	assert.Equal(t, "three", recent[0].Slug)

	oldest, err := repo.List(ctx, ListOptions{Oldest: true, Limit: 2})
	require.NoError(t, err)
	require.Len(t, oldest, 2)
	assert.Equal(t, "one", oldest[0].Slug)

	page, err := repo.List(ctx, ListOptions{Oldest: true, Skip: 2})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "three", page[0].Slug)

	published, err := repo.List(ctx, ListOptions{Filter: map[string]any{"status": models.StatusPublished}})
	require.NoError(t, err)
	require.Len(t, published, 1)
	assert.Equal(t, "two", published[0].Slug)
}

func TestMemory_ArrayOperations(t *testing.T) {
	repo := NewMemory[models.Article]()
	ctx := context.Background()

	a := &models.Article{Title: "t", Slug: "t"}
	a.ApplyDefaults()
	require.NoError(t, repo.Create(ctx, a))

	commentID := primitive.NewObjectID()
	require.NoError(t, repo.AddToSet(ctx, a.ID, "comments", commentID))
	require.NoError(t, repo.AddToSet(ctx, a.ID, "comments", commentID))

	got, err := repo.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, []primitive.ObjectID{commentID}, got.Comments)

	n, err := repo.Count(ctx, "comments", commentID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	require.NoError(t, repo.Pull(ctx, a.ID, "comments", commentID))
	got, err = repo.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Comments)
}

func TestMemory_Increment(t *testing.T) {
	repo := NewMemory[models.Review]()
	ctx := context.Background()

	r := &models.Review{Title: "r", Slug: "r"}
	require.NoError(t, repo.Create(ctx, r))

	got, err := repo.Increment(ctx, r.ID, "views", 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.Views)

	got, err = repo.Increment(ctx, r.ID, "views", 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), got.Views)
}

func TestMemory_Fail(t *testing.T) {
	repo := NewMemory[models.Category]()
	repo.Fail = errors.New("boom")

	_, err := repo.List(context.Background(), ListOptions{})
	assert.EqualError(t, err, "boom")
}

func TestMemory_DeleteMany(t *testing.T) {
	repo := NewMemory[models.Comment]()
	ctx := context.Background()
	post, other := primitive.NewObjectID(), primitive.NewObjectID()

	for _, p := range []primitive.ObjectID{post, post, other} {
		require.NoError(t, repo.Create(ctx, &models.Comment{Body: "hi", PostID: p}))
	}

	n, err := repo.DeleteMany(ctx, "postId", post)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	left, err := repo.List(ctx, ListOptions{})
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.Equal(t, other, left[0].PostID)
}

type coded struct {
	ID   primitive.ObjectID `bson:"_id,omitempty"`
	Code string             `bson:"code"`
}

func TestMemory_UniqueFieldIsSparse(t *testing.T) {
	repo := NewMemory[models.User]("email", "facebookId")
	ctx := context.Background()

	// Email is omitted from the document when empty, so neither user holds it.
	require.NoError(t, repo.Create(ctx, &models.User{FacebookID: "fb-1"}))
	require.NoError(t, repo.Create(ctx, &models.User{FacebookID: "fb-2"}))

	codes := NewMemory[coded]("code")
	require.NoError(t, codes.Create(ctx, &coded{}))
	err := codes.Create(ctx, &coded{})
	assert.ErrorIs(t, err, ErrDuplicate, "a present empty value still counts")
}
