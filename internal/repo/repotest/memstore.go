// Package repotest provides an in-memory repo.DocumentStore for tests.
// It supports equality queries on top-level fields and $set-style merge
// patches, which is all the application layer relies on. It is not a query
// engine and does not try to be one.
package repotest

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/tbourn/go-todo-backend/internal/repo"
)

var _ repo.DocumentStore = (*MemStore)(nil)

// MemStore keeps collections as ordered slices of documents.
//
// Set Err to make every subsequent call fail with that error. Calls records
// the operation names in invocation order.
type MemStore struct {
	mu    sync.Mutex
	colls map[string][]bson.M

	Err   error
	Calls []string
}

// NewMemStore returns an empty store.
func NewMemStore() *MemStore {
	return &MemStore{colls: make(map[string][]bson.M)}
}

// Docs returns a copy of the documents stored in name.
func (s *MemStore) Docs(name string) []bson.M {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]bson.M, 0, len(s.colls[name]))
	for _, d := range s.colls[name] {
		out = append(out, clone(d))
	}
	return out
}

func (s *MemStore) begin(op string) error {
	s.Calls = append(s.Calls, op)
	return s.Err
}

func (s *MemStore) EnsureCollection(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.begin("ensure_collection"); err != nil {
		return err
	}
	if _, ok := s.colls[name]; !ok {
		s.colls[name] = nil
	}
	return nil
}

func (s *MemStore) DropCollection(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.begin("drop_collection"); err != nil {
		return err
	}
	delete(s.colls, name)
	return nil
}

func (s *MemStore) InsertOne(_ context.Context, name string, doc any) (*mongo.InsertOneResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.begin("insert_one"); err != nil {
		return nil, err
	}
	id, err := s.insert(name, doc)
	if err != nil {
		return nil, err
	}
	return &mongo.InsertOneResult{InsertedID: id}, nil
}

func (s *MemStore) InsertMany(_ context.Context, name string, docs []any) (*mongo.InsertManyResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.begin("insert_many"); err != nil {
		return nil, err
	}
	res := &mongo.InsertManyResult{}
	for _, d := range docs {
		id, err := s.insert(name, d)
		if err != nil {
			return res, err
		}
		res.InsertedIDs = append(res.InsertedIDs, id)
	}
	return res, nil
}

func (s *MemStore) FindMany(_ context.Context, name string, query any) ([]bson.M, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.begin("find_many"); err != nil {
		return nil, err
	}
	q, err := toM(query)
	if err != nil {
		return nil, err
	}
	out := []bson.M{}
	for _, d := range s.colls[name] {
		if matches(d, q) {
			out = append(out, clone(d))
		}
	}
	return out, nil
}

func (s *MemStore) FindOne(_ context.Context, name string, query any) (bson.M, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.begin("find_one"); err != nil {
		return nil, err
	}
	q, err := toM(query)
	if err != nil {
		return nil, err
	}
	for _, d := range s.colls[name] {
		if matches(d, q) {
			return clone(d), nil
		}
	}
	return nil, repo.ErrNotFound
}

func (s *MemStore) UpdateOne(_ context.Context, name string, query, patch any) (*mongo.UpdateResult, error) {
	return s.update("update_one", name, query, patch, 1)
}

func (s *MemStore) UpdateMany(_ context.Context, name string, query, patch any) (*mongo.UpdateResult, error) {
	return s.update("update_many", name, query, patch, -1)
}

func (s *MemStore) DeleteOne(_ context.Context, name string, query any) (*mongo.DeleteResult, error) {
	return s.delete("delete_one", name, query, 1)
}

func (s *MemStore) DeleteMany(_ context.Context, name string, query any) (*mongo.DeleteResult, error) {
	return s.delete("delete_many", name, query, -1)
}

func (s *MemStore) insert(name string, doc any) (any, error) {
	d, err := toM(doc)
	if err != nil {
		return nil, err
	}
	id, ok := d["_id"]
	if !ok {
		id = primitive.NewObjectID()
		d["_id"] = id
	}
	for _, existing := range s.colls[name] {
		if reflect.DeepEqual(existing["_id"], id) {
			return nil, mongo.WriteException{WriteErrors: []mongo.WriteError{{
				Code:    11000,
				Message: fmt.Sprintf("E11000 duplicate key error collection: %s dup key: { _id: %v }", name, id),
			}}}
		}
	}
	s.colls[name] = append(s.colls[name], d)
	return id, nil
}

// update applies patch to at most limit matches (limit < 0 means all).
func (s *MemStore) update(op, name string, query, patch any, limit int) (*mongo.UpdateResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.begin(op); err != nil {
		return nil, err
	}
	q, err := toM(query)
	if err != nil {
		return nil, err
	}
	p, err := toM(patch)
	if err != nil {
		return nil, err
	}
	res := &mongo.UpdateResult{}
	for _, d := range s.colls[name] {
		if limit >= 0 && int(res.MatchedCount) >= limit {
			break
		}
		if !matches(d, q) {
			continue
		}
		res.MatchedCount++
		changed := false
		for k, v := range p {
			if !reflect.DeepEqual(d[k], v) {
				d[k] = v
				changed = true
			}
		}
		if changed {
			res.ModifiedCount++
		}
	}
	return res, nil
}

func (s *MemStore) delete(op, name string, query any, limit int) (*mongo.DeleteResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.begin(op); err != nil {
		return nil, err
	}
	q, err := toM(query)
	if err != nil {
		return nil, err
	}
	res := &mongo.DeleteResult{}
	kept := s.colls[name][:0]
	for _, d := range s.colls[name] {
		if (limit < 0 || int(res.DeletedCount) < limit) && matches(d, q) {
			res.DeletedCount++
			continue
		}
		kept = append(kept, d)
	}
	s.colls[name] = kept
	return res, nil
}

func matches(doc, query bson.M) bool {
	for k, v := range query {
		if !reflect.DeepEqual(doc[k], v) {
			return false
		}
	}
	return true
}

// toM normalizes structs, maps and bson.D values through a BSON round trip.
func toM(v any) (bson.M, error) {
	if v == nil {
		return bson.M{}, nil
	}
	raw, err := bson.Marshal(v)
	if err != nil {
		return nil, err
	}
	out := bson.M{}
	if err := bson.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func clone(d bson.M) bson.M {
	out := make(bson.M, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}
