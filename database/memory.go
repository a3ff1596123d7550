package database

import (
	"context"
	"fmt"
	"reflect"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Memory is an in-process Repository backed by bson-encoded documents.
// It honours unique fields and the same error sentinels as Collection,
// which makes it a drop-in store for handler tests.
type Memory[T any] struct {
	mu     sync.RWMutex
	docs   map[primitive.ObjectID]bson.M
	order  []primitive.ObjectID
	unique []string

	// Fail, when set, is returned by every call.
	Fail error
}

func NewMemory[T any](uniqueFields ...string) *Memory[T] {
	return &Memory[T]{
		docs:   make(map[primitive.ObjectID]bson.M),
		unique: uniqueFields,
	}
}

func (m *Memory[T]) List(_ context.Context, opts ListOptions) ([]T, error) {
	if m.Fail != nil {
		return nil, m.Fail
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]primitive.ObjectID, 0, len(m.order))
	for i := range m.order {
		id := m.order[i]
		if !opts.Oldest {
			id = m.order[len(m.order)-1-i]
		}
		if matches(m.docs[id], opts.Filter) {
			ids = append(ids, id)
		}
	}

	if opts.Skip > 0 {
		if opts.Skip >= int64(len(ids)) {
			ids = nil
		} else {
			ids = ids[opts.Skip:]
		}
	}
	if opts.Limit > 0 && opts.Limit < int64(len(ids)) {
		ids = ids[:opts.Limit]
	}

	results := make([]T, 0, len(ids))
	for _, id := range ids {
		doc, err := decode[T](m.docs[id])
		if err != nil {
			return nil, err
		}
		results = append(results, *doc)
	}
	return results, nil
}

func (m *Memory[T]) Get(_ context.Context, id primitive.ObjectID) (*T, error) {
	if m.Fail != nil {
		return nil, m.Fail
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	raw, ok := m.docs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return decode[T](raw)
}

func (m *Memory[T]) GetMany(ctx context.Context, ids []primitive.ObjectID) ([]T, error) {
	results := []T{}
	for _, id := range ids {
		doc, err := m.Get(ctx, id)
		if err == ErrNotFound {
			continue
		}
		if err != nil {
			return nil, err
		}
		results = append(results, *doc)
	}
	return results, nil
}

func (m *Memory[T]) FindOne(_ context.Context, field string, value any) (*T, error) {
	if m.Fail != nil {
		return nil, m.Fail
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	filter := map[string]any{field: value}
	for _, id := range m.order {
		if matches(m.docs[id], filter) {
			return decode[T](m.docs[id])
		}
	}
	return nil, ErrNotFound
}

func (m *Memory[T]) Count(_ context.Context, field string, value any) (int64, error) {
	if m.Fail != nil {
		return 0, m.Fail
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	var n int64
	filter := map[string]any{field: value}
	for _, id := range m.order {
		if matches(m.docs[id], filter) {
			n++
		}
	}
	return n, nil
}

func (m *Memory[T]) Create(_ context.Context, doc *T) error {
	if m.Fail != nil {
		return m.Fail
	}
	if s, ok := any(doc).(stamper); ok {
		s.Stamp(time.Now().UTC())
	}
	raw, err := encode(doc)
	if err != nil {
		return err
	}
	id, ok := raw["_id"].(primitive.ObjectID)
	if !ok {
		id = primitive.NewObjectID()
		raw["_id"] = id
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.docs[id]; exists {
		return fmt.Errorf("%w: _id %s", ErrDuplicate, id.Hex())
	}
	if err := m.checkUnique(id, raw); err != nil {
		return err
	}
	m.docs[id] = raw
	m.order = append(m.order, id)
	return nil
}

func (m *Memory[T]) Update(_ context.Context, id primitive.ObjectID, set bson.M) (*T, error) {
	return m.mutate(id, func(raw bson.M) error {
		for k, v := range set {
			raw[k] = normalize(v)
		}
		raw["updatedAt"] = primitive.NewDateTimeFromTime(time.Now().UTC())
		return nil
	})
}

func (m *Memory[T]) Delete(_ context.Context, id primitive.ObjectID) (*T, error) {
	if m.Fail != nil {
		return nil, m.Fail
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	raw, ok := m.docs[id]
	if !ok {
		return nil, ErrNotFound
	}
	delete(m.docs, id)
	for i, oid := range m.order {
		if oid == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return decode[T](raw)
}

func (m *Memory[T]) DeleteMany(_ context.Context, field string, value any) (int64, error) {
	if m.Fail != nil {
		return 0, m.Fail
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	filter := map[string]any{field: value}
	kept := m.order[:0]
	var n int64
	for _, id := range m.order {
		if matches(m.docs[id], filter) {
			delete(m.docs, id)
			n++
			continue
		}
		kept = append(kept, id)
	}
	m.order = kept
	return n, nil
}

func (m *Memory[T]) AddToSet(_ context.Context, id primitive.ObjectID, field string, value any) error {
	_, err := m.mutate(id, func(raw bson.M) error {
		arr, _ := raw[field].(primitive.A)
		v := normalize(value)
		for _, existing := range arr {
			if reflect.DeepEqual(existing, v) {
				return nil
			}
		}
		raw[field] = append(arr, v)
		return nil
	})
	return err
}

func (m *Memory[T]) Pull(_ context.Context, id primitive.ObjectID, field string, value any) error {
	_, err := m.mutate(id, func(raw bson.M) error {
		arr, _ := raw[field].(primitive.A)
		v := normalize(value)
		kept := primitive.A{}
		for _, existing := range arr {
			if !reflect.DeepEqual(existing, v) {
				kept = append(kept, existing)
			}
		}
		raw[field] = kept
		return nil
	})
	return err
}

func (m *Memory[T]) Increment(_ context.Context, id primitive.ObjectID, field string, n int64) (*T, error) {
	return m.mutate(id, func(raw bson.M) error {
		switch v := raw[field].(type) {
		case nil:
			raw[field] = n
		case int32:
			raw[field] = int64(v) + n
		case int64:
			raw[field] = v + n
		case float64:
			raw[field] = v + float64(n)
		default:
			return fmt.Errorf("cannot increment non-numeric field %q", field)
		}
		return nil
	})
}

func (m *Memory[T]) mutate(id primitive.ObjectID, apply func(bson.M) error) (*T, error) {
	if m.Fail != nil {
		return nil, m.Fail
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	current, ok := m.docs[id]
	if !ok {
		return nil, ErrNotFound
	}
	next := bson.M{}
	for k, v := range current {
		next[k] = v
	}
	if err := apply(next); err != nil {
		return nil, err
	}
	if err := m.checkUnique(id, next); err != nil {
		return nil, err
	}
	m.docs[id] = next
	return decode[T](next)
}

// checkUnique mirrors a sparse unique index: documents without the field
// are exempt, every present value (empty string and null included) counts.
func (m *Memory[T]) checkUnique(self primitive.ObjectID, raw bson.M) error {
	for _, field := range m.unique {
		v, ok := raw[field]
		if !ok {
			continue
		}
		for id, other := range m.docs {
			ov, present := other[field]
			if id != self && present && reflect.DeepEqual(ov, v) {
				return fmt.Errorf("%w: %s %v", ErrDuplicate, field, v)
			}
		}
	}
	return nil
}

func matches(raw bson.M, filter map[string]any) bool {
	for k, want := range filter {
		want = normalize(want)
		got := raw[k]
		if arr, ok := got.(primitive.A); ok {
			found := false
			for _, el := range arr {
				if reflect.DeepEqual(el, want) {
					found = true
					break
				}
			}
			if !found {
				return false
			}
			continue
		}
		if !reflect.DeepEqual(got, want) {
			return false
		}
	}
	return true
}

// normalize round-trips a single value through bson so comparisons see
// the same types a decoded document holds.
func normalize(v any) any {
	raw, err := encode(bson.M{"v": v})
	if err != nil {
		return v
	}
	return raw["v"]
}

func encode(v any) (bson.M, error) {
	data, err := bson.Marshal(v)
	if err != nil {
		return nil, err
	}
	var raw bson.M
	if err := bson.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

func decode[T any](raw bson.M) (*T, error) {
	data, err := bson.Marshal(raw)
	if err != nil {
		return nil, err
	}
	var doc T
	if err := bson.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

var _ Repository[struct{}] = (*Memory[struct{}])(nil)
