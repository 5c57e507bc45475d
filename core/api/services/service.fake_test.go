package services

import (
	"context"
	"errors"
	"reflect"
	"sync"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	models "github.com/zimmerman-team/dx.server/core/api/models/mongodb"
	"github.com/zimmerman-team/dx.server/core/common"
)

var errFakeNotSupported = errors.New("fakeStore: thao tác chưa được hỗ trợ trong fake")

// fakeStore giả lập BaseServiceMongo trong bộ nhớ cho unit test.
// Chỉ hỗ trợ tập filter mà các service dùng: equality (nil match field
// null/missing như Mongo), $and, $or, $in.
type fakeStore[T any] struct {
	mu        sync.Mutex
	docs      map[primitive.ObjectID]T
	insertErr error
}

func newFakeStore[T any]() *fakeStore[T] {
	return &fakeStore[T]{docs: make(map[primitive.ObjectID]T)}
}

func getObjectID(v interface{}) primitive.ObjectID {
	return reflect.ValueOf(v).FieldByName("ID").Interface().(primitive.ObjectID)
}

func withObjectID[T any](m T, id primitive.ObjectID) T {
	rv := reflect.ValueOf(&m).Elem()
	rv.FieldByName("ID").Set(reflect.ValueOf(id))
	return m
}

// toDoc chuyển model thành bson.M qua round-trip marshal để so khớp theo tên trường bson
func toDoc(v interface{}) bson.M {
	raw, err := bson.Marshal(v)
	if err != nil {
		return bson.M{}
	}
	doc := bson.M{}
	if err := bson.Unmarshal(raw, &doc); err != nil {
		return bson.M{}
	}
	return doc
}

func normalizeFilter(filter interface{}) bson.M {
	switch f := filter.(type) {
	case nil:
		return bson.M{}
	case bson.M:
		return f
	case bson.D:
		out := bson.M{}
		for _, e := range f {
			out[e.Key] = e.Value
		}
		return out
	default:
		return bson.M{}
	}
}

func valueEqual(got, want interface{}) bool {
	if gid, ok := got.(primitive.ObjectID); ok {
		wid, ok := want.(primitive.ObjectID)
		return ok && gid == wid
	}
	return reflect.DeepEqual(got, want)
}

func inList(got, list interface{}) bool {
	rv := reflect.ValueOf(list)
	if rv.Kind() != reflect.Slice {
		return false
	}
	for i := 0; i < rv.Len(); i++ {
		if valueEqual(got, rv.Index(i).Interface()) {
			return true
		}
	}
	return false
}

func docMatches(doc bson.M, filter bson.M) bool {
	for key, want := range filter {
		if key == "$and" {
			branches, ok := want.([]bson.M)
			if !ok {
				return false
			}
			for _, branch := range branches {
				if !docMatches(doc, branch) {
					return false
				}
			}
			continue
		}
		if key == "$or" {
			branches, ok := want.([]bson.M)
			if !ok {
				return false
			}
			matched := false
			for _, branch := range branches {
				if docMatches(doc, branch) {
					matched = true
					break
				}
			}
			if !matched {
				return false
			}
			continue
		}

		got := doc[key]
		if op, ok := want.(bson.M); ok {
			in, hasIn := op["$in"]
			if !hasIn || !inList(got, in) {
				return false
			}
			continue
		}
		if !valueEqual(got, want) {
			return false
		}
	}
	return true
}

func (f *fakeStore[T]) matches(m T, filter interface{}) bool {
	return docMatches(toDoc(m), normalizeFilter(filter))
}

func (f *fakeStore[T]) InsertOne(ctx context.Context, data T) (T, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var zero T
	if f.insertErr != nil {
		return zero, f.insertErr
	}

	id := getObjectID(data)
	if id.IsZero() {
		id = primitive.NewObjectID()
		data = withObjectID(data, id)
	}
	f.docs[id] = data
	return data, nil
}

func (f *fakeStore[T]) FindOne(ctx context.Context, filter interface{}, opts *options.FindOneOptions) (T, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, m := range f.docs {
		if f.matches(m, filter) {
			return m, nil
		}
	}
	var zero T
	return zero, common.ErrNotFound
}

func (f *fakeStore[T]) Find(ctx context.Context, filter interface{}, opts *options.FindOptions) ([]T, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := []T{}
	for _, m := range f.docs {
		if f.matches(m, filter) {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeStore[T]) DeleteMany(ctx context.Context, filter interface{}) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var n int64
	for id, m := range f.docs {
		if f.matches(m, filter) {
			delete(f.docs, id)
			n++
		}
	}
	return n, nil
}

func (f *fakeStore[T]) CountDocuments(ctx context.Context, filter interface{}) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var n int64
	for _, m := range f.docs {
		if f.matches(m, filter) {
			n++
		}
	}
	return n, nil
}

func (f *fakeStore[T]) FindOneById(ctx context.Context, id primitive.ObjectID) (T, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if m, ok := f.docs[id]; ok {
		return m, nil
	}
	var zero T
	return zero, common.ErrNotFound
}

func (f *fakeStore[T]) FindManyByIds(ctx context.Context, ids []primitive.ObjectID) ([]T, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := []T{}
	for _, id := range ids {
		if m, ok := f.docs[id]; ok {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeStore[T]) FindWithPagination(ctx context.Context, filter interface{}, page, limit int64, opts *options.FindOptions) (*models.PaginateResult[T], error) {
	matched, err := f.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}

	total := int64(len(matched))
	start := (page - 1) * limit
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}

	totalPage := total / limit
	if total%limit != 0 {
		totalPage++
	}

	return &models.PaginateResult[T]{
		Page:      page,
		Limit:     limit,
		ItemCount: end - start,
		Items:     matched[start:end],
		Total:     total,
		TotalPage: totalPage,
	}, nil
}

func (f *fakeStore[T]) UpdateById(ctx context.Context, id primitive.ObjectID, data interface{}) (T, error) {
	var zero T
	return zero, errFakeNotSupported
}

func (f *fakeStore[T]) DeleteById(ctx context.Context, id primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.docs[id]; !ok {
		return common.ErrNotFound
	}
	delete(f.docs, id)
	return nil
}

func (f *fakeStore[T]) DocumentExists(ctx context.Context, filter interface{}) (bool, error) {
	n, err := f.CountDocuments(ctx, filter)
	return n > 0, err
}

// all trả về snapshot toàn bộ document trong store
func (f *fakeStore[T]) all() []T {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]T, 0, len(f.docs))
	for _, m := range f.docs {
		out = append(out, m)
	}
	return out
}
