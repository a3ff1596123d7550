package handlers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"reviewcms/database"
	"reviewcms/middleware"
	"reviewcms/notify"
	"reviewcms/response"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CRUD is the route surface shared by every resource.
type CRUD interface {
	List(c *gin.Context)
	Get(c *gin.Context)
	GetBySlug(c *gin.Context)
	Create(c *gin.Context)
	Update(c *gin.Context)
	Delete(c *gin.Context)
}

type listQuery struct {
	Sort     string `form:"sort" binding:"omitempty,oneof=recent oldest"`
	Populate string `form:"populate" binding:"omitempty,oneof=true false"`
	Status   string `form:"status" binding:"omitempty,oneof=published draft"`
	Category string `form:"category" binding:"omitempty,objectid"`
	Limit    int64  `form:"limit" binding:"omitempty,gte=1,lte=100"`
	Page     int64  `form:"page" binding:"omitempty,gte=1"`
}

// resource implements CRUD for one collection. The hooks carry what differs
// between resources; all of them are optional.
type resource[T any] struct {
	name       string // "Category"
	plural     string // "Categories"
	kind       string // event resource name
	repo       database.Repository[T]
	unique     []string // bson names of unique fields
	filterable bool     // honours ?status= and ?category=
	events     notify.Publisher

	// prepare runs on a bound document before insert.
	prepare func(c *gin.Context, doc *T) error
	// amend runs before an update with the current document and the patch.
	amend func(c *gin.Context, current *T, p *patch[T]) error
	// populate expands references of docs into response views.
	populate func(ctx context.Context, docs []T) ([]any, error)
	// inUse reports whether id is still referenced elsewhere.
	inUse func(ctx context.Context, id primitive.ObjectID) (bool, error)
	// created and deleted run after a successful write.
	created func(ctx context.Context, doc *T) error
	deleted func(ctx context.Context, doc *T) error
	// describe fills Title, Slug and Status of an activity event.
	describe func(doc *T) notify.Event
}

type identified interface {
	GetID() primitive.ObjectID
}

type resettable interface {
	Reset()
}

func idOf[T any](doc *T) primitive.ObjectID {
	if d, ok := any(doc).(identified); ok {
		return d.GetID()
	}
	return primitive.NilObjectID
}

func (r *resource[T]) List(c *gin.Context) {
	op := "List" + r.plural
	var q listQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		fail(c, op, bindError(err))
		return
	}

	opts := database.ListOptions{Oldest: q.Sort == "oldest"}
	if r.filterable {
		opts.Filter = map[string]any{}
		if q.Status != "" {
			opts.Filter["status"] = q.Status
		}
		if q.Category != "" {
			categoryID, _ := primitive.ObjectIDFromHex(q.Category)
			opts.Filter["category"] = categoryID
		}
	}
	if q.Limit > 0 {
		opts.Limit = q.Limit
		if q.Page > 1 {
			opts.Skip = (q.Page - 1) * q.Limit
		}
	}

	ctx := c.Request.Context()
	docs, err := r.repo.List(ctx, opts)
	if err != nil {
		fail(c, op, err)
		return
	}
	data, err := r.expand(ctx, docs, q.Populate != "false")
	if err != nil {
		fail(c, op, err)
		return
	}
	response.Success(c, http.StatusOK, r.plural+" retrieved successfully", data)
}

func (r *resource[T]) Get(c *gin.Context) {
	id, err := parseID(c, "id", r.name)
	if err != nil {
		fail(c, "Get"+r.name, err)
		return
	}
	doc, err := r.repo.Get(c.Request.Context(), id)
	r.respondOne(c, "Get"+r.name, doc, err)
}

func (r *resource[T]) GetBySlug(c *gin.Context) {
	doc, err := r.repo.FindOne(c.Request.Context(), "slug", c.Param("slug"))
	r.respondOne(c, "Get"+r.name+"BySlug", doc, err)
}

func (r *resource[T]) respondOne(c *gin.Context, op string, doc *T, err error) {
	if errors.Is(err, database.ErrNotFound) {
		response.Error(c, http.StatusNotFound, r.name+" not found")
		return
	}
	if err != nil {
		fail(c, op, err)
		return
	}
	data, err := r.expand(c.Request.Context(), []T{*doc}, c.Query("populate") != "false")
	if err != nil {
		fail(c, op, err)
		return
	}
	response.Success(c, http.StatusOK, r.name+" retrieved successfully", data.([]any)[0])
}

// expand returns docs as []any, populated when requested and supported.
func (r *resource[T]) expand(ctx context.Context, docs []T, populate bool) (any, error) {
	if populate && r.populate != nil {
		return r.populate(ctx, docs)
	}
	out := make([]any, len(docs))
	for i := range docs {
		out[i] = docs[i]
	}
	return out, nil
}

func (r *resource[T]) Create(c *gin.Context) {
	op := "Create" + r.name
	ctx := c.Request.Context()

	var doc T
	if err := c.ShouldBindBodyWith(&doc, binding.JSON); err != nil {
		fail(c, op, bindError(err))
		return
	}
	// id and timestamps are assigned by the store
	if b, ok := any(&doc).(resettable); ok {
		b.Reset()
	}
	if r.prepare != nil {
		if err := r.prepare(c, &doc); err != nil {
			fail(c, op, err)
			return
		}
	}

	values, err := bsonFields(&doc)
	if err != nil {
		fail(c, op, err)
		return
	}
	if err := r.checkUnique(ctx, primitive.NilObjectID, values); err != nil {
		fail(c, op, err)
		return
	}

	if err := r.repo.Create(ctx, &doc); err != nil {
		fail(c, op, r.conflict(err))
		return
	}
	if r.created != nil {
		if err := r.created(ctx, &doc); err != nil {
			log.Printf("⚠️ [%s] post-create step failed: %v", op, err)
		}
	}

	log.Printf("[%s] created %s", op, idOf(&doc).Hex())
	r.publish(ctx, notify.EventCreated, &doc, nil)
	response.Success(c, http.StatusCreated, r.name+" created successfully", doc)
}

func (r *resource[T]) Update(c *gin.Context) {
	op := "Update" + r.name
	ctx := c.Request.Context()

	id, err := parseID(c, "id", r.name)
	if err != nil {
		fail(c, op, err)
		return
	}
	current, err := r.repo.Get(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		response.Error(c, http.StatusNotFound, r.name+" not found")
		return
	}
	if err != nil {
		fail(c, op, err)
		return
	}

	p, err := decodePatch[T](c)
	if err != nil {
		fail(c, op, err)
		return
	}
	if r.amend != nil {
		if err := r.amend(c, current, p); err != nil {
			fail(c, op, err)
			return
		}
	}
	if len(p.Set) == 0 {
		response.Error(c, http.StatusBadRequest, "No valid fields to update")
		return
	}
	if err := r.checkUnique(ctx, id, p.Set); err != nil {
		fail(c, op, err)
		return
	}

	updated, err := r.repo.Update(ctx, id, p.Set)
	if errors.Is(err, database.ErrNotFound) {
		response.Error(c, http.StatusNotFound, r.name+" not found")
		return
	}
	if err != nil {
		fail(c, op, r.conflict(err))
		return
	}

	r.publish(ctx, notify.EventUpdated, updated, current)
	response.Success(c, http.StatusOK, r.name+" updated successfully", updated)
}

func (r *resource[T]) Delete(c *gin.Context) {
	op := "Delete" + r.name
	ctx := c.Request.Context()

	id, err := parseID(c, "id", r.name)
	if err != nil {
		fail(c, op, err)
		return
	}
	if r.inUse != nil {
		used, err := r.inUse(ctx, id)
		if err != nil {
			fail(c, op, err)
			return
		}
		if used {
			response.Error(c, http.StatusBadRequest, r.name+" is still referenced")
			return
		}
	}

	deleted, err := r.repo.Delete(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		response.Error(c, http.StatusNotFound, r.name+" not found")
		return
	}
	if err != nil {
		fail(c, op, err)
		return
	}
	if r.deleted != nil {
		if err := r.deleted(ctx, deleted); err != nil {
			log.Printf("⚠️ [%s] post-delete step failed: %v", op, err)
		}
	}

	if p, ok := middleware.Principal(c); ok {
		log.Printf("[%s] %s deleted by %s", op, id.Hex(), p.UserID.Hex())
	}
	r.publish(ctx, notify.EventDeleted, deleted, nil)
	response.Success(c, http.StatusOK, r.name+" deleted successfully", gin.H{"id": id.Hex()})
}

// checkUnique rejects values of unique fields already held by another document.
func (r *resource[T]) checkUnique(ctx context.Context, self primitive.ObjectID, values bson.M) error {
	for _, field := range r.unique {
		v, ok := values[field]
		if !ok || v == nil || v == "" {
			continue
		}
		existing, err := r.repo.FindOne(ctx, field, v)
		if errors.Is(err, database.ErrNotFound) {
			continue
		}
		if err != nil {
			return err
		}
		if idOf(existing) != self {
			return badRequest("%s with this %s already exists", r.name, field)
		}
	}
	return nil
}

// conflict maps a duplicate-key error from a racing insert onto the same
// 400 the pre-check produces.
func (r *resource[T]) conflict(err error) error {
	if !errors.Is(err, database.ErrDuplicate) {
		return err
	}
	if len(r.unique) == 1 {
		return badRequest("%s with this %s already exists", r.name, r.unique[0])
	}
	return badRequest("%s already exists", r.name)
}

// publish emits an event for doc. prior is the stored version an update replaced.
func (r *resource[T]) publish(ctx context.Context, eventType string, doc, prior *T) {
	if r.describe == nil || r.events == nil {
		return
	}
	e := r.describe(doc)
	if prior != nil {
		e.Previous = r.describe(prior).Status
	}
	e.Type = eventType
	e.Resource = r.kind
	e.ID = idOf(doc).Hex()
	e.At = time.Now().UTC()
	r.events.Publish(ctx, e)
}

func bsonFields(doc any) (bson.M, error) {
	data, err := bson.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	var out bson.M
	if err := bson.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	return out, nil
}

// exists reports whether id names a document in repo.
func exists[T any](ctx context.Context, repo database.Repository[T], id primitive.ObjectID) (bool, error) {
	_, err := repo.Get(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

// requireRef fails with "Invalid <field> reference" when id is not in repo.
func requireRef[T any](ctx context.Context, repo database.Repository[T], id primitive.ObjectID, field string) error {
	ok, err := exists(ctx, repo, id)
	if err != nil {
		return err
	}
	if !ok {
		return badRequest("Invalid %s reference", field)
	}
	return nil
}

// refRule ties a JSON field to the collection its id must exist in.
type refRule struct {
	field string
	check func(ctx context.Context) error
}

func mustExist[T any](repo database.Repository[T], field string, id primitive.ObjectID) refRule {
	return refRule{field: field, check: func(ctx context.Context) error {
		return requireRef(ctx, repo, id, field)
	}}
}

// verifyRefs runs rules, limited to the fields in sent when sent is non-nil.
func verifyRefs(ctx context.Context, sent map[string]bool, rules ...refRule) error {
	for _, rule := range rules {
		if sent != nil && !sent[rule.field] {
			continue
		}
		if err := rule.check(ctx); err != nil {
			return err
		}
	}
	return nil
}

// referenced reports whether any of the checks finds a document pointing at id.
func referenced(ctx context.Context, checks ...func(context.Context) (int64, error)) (bool, error) {
	for _, check := range checks {
		n, err := check(ctx)
		if err != nil {
			return false, err
		}
		if n > 0 {
			return true, nil
		}
	}
	return false, nil
}

func countOf[T any](repo database.Repository[T], field string, id primitive.ObjectID) func(context.Context) (int64, error) {
	return func(ctx context.Context) (int64, error) {
		return repo.Count(ctx, field, id)
	}
}
