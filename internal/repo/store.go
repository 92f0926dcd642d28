// Package repo – document store adapter
//
// This file implements MongoHelper, a generic facade over one MongoDB
// database. Entity DAOs (see TodoDAO) are built on the DocumentStore
// interface so tests can substitute an in-memory fake.
//
// Semantics:
//   - Queries are forwarded to the driver untouched; the adapter defines no
//     query language of its own.
//   - UpdateOne/UpdateMany wrap the patch in $set, i.e. merge semantics: only
//     the supplied fields are written.
//   - FindOne returns ErrNotFound when nothing matches; FindMany returns an
//     empty, non-nil slice.
//   - Collections are created on first use. Creation relies on the server's
//     NamespaceExists error so concurrent first uses cannot race.
package repo

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// codeNamespaceExists is the server error returned by "create" when the
// collection is already present.
const codeNamespaceExists = 48

// DocumentStore is the CRUD contract over named collections of one database.
// Implementations must be safe for concurrent use.
type DocumentStore interface {
	// EnsureCollection creates the collection if it does not exist yet.
	EnsureCollection(ctx context.Context, name string) error
	// DropCollection removes the collection and all of its documents.
	DropCollection(ctx context.Context, name string) error

	InsertOne(ctx context.Context, name string, doc any) (*mongo.InsertOneResult, error)
	InsertMany(ctx context.Context, name string, docs []any) (*mongo.InsertManyResult, error)
	FindMany(ctx context.Context, name string, query any) ([]bson.M, error)
	FindOne(ctx context.Context, name string, query any) (bson.M, error)
	UpdateOne(ctx context.Context, name string, query, patch any) (*mongo.UpdateResult, error)
	UpdateMany(ctx context.Context, name string, query, patch any) (*mongo.UpdateResult, error)
	DeleteOne(ctx context.Context, name string, query any) (*mongo.DeleteResult, error)
	DeleteMany(ctx context.Context, name string, query any) (*mongo.DeleteResult, error)
}

// MongoHelper implements DocumentStore on top of a *mongo.Database.
type MongoHelper struct {
	db      *mongo.Database
	ensured sync.Map // collection name -> struct{}
}

// NewMongoHelper binds a helper to the given database handle.
func NewMongoHelper(db *mongo.Database) *MongoHelper {
	return &MongoHelper{db: db}
}

// EnsureCollection creates name unless it already exists. Successful checks
// are remembered for the lifetime of the helper.
func (h *MongoHelper) EnsureCollection(ctx context.Context, name string) error {
	if _, ok := h.ensured.Load(name); ok {
		return nil
	}
	err := observe(name, "create", func() error {
		err := h.db.CreateCollection(ctx, name)
		if isNamespaceExists(err) {
			return nil
		}
		return err
	})
	if err != nil {
		return err
	}
	h.ensured.Store(name, struct{}{})
	return nil
}

// DropCollection drops name. Dropping a missing collection is not an error.
func (h *MongoHelper) DropCollection(ctx context.Context, name string) error {
	err := observe(name, "drop", func() error {
		return h.db.Collection(name).Drop(ctx)
	})
	if err == nil {
		h.ensured.Delete(name)
	}
	return err
}

// InsertOne inserts a single document.
func (h *MongoHelper) InsertOne(ctx context.Context, name string, doc any) (*mongo.InsertOneResult, error) {
	coll, err := h.collection(ctx, name)
	if err != nil {
		return nil, err
	}
	var res *mongo.InsertOneResult
	err = observe(name, "insert_one", func() (err error) {
		res, err = coll.InsertOne(ctx, doc)
		return err
	})
	return res, err
}

// InsertMany inserts docs in order.
func (h *MongoHelper) InsertMany(ctx context.Context, name string, docs []any) (*mongo.InsertManyResult, error) {
	coll, err := h.collection(ctx, name)
	if err != nil {
		return nil, err
	}
	var res *mongo.InsertManyResult
	err = observe(name, "insert_many", func() (err error) {
		res, err = coll.InsertMany(ctx, docs)
		return err
	})
	return res, err
}

// FindMany returns every document matching query.
func (h *MongoHelper) FindMany(ctx context.Context, name string, query any) ([]bson.M, error) {
	coll, err := h.collection(ctx, name)
	if err != nil {
		return nil, err
	}
	out := []bson.M{}
	err = observe(name, "find_many", func() error {
		cur, err := coll.Find(ctx, query)
		if err != nil {
			return err
		}
		return cur.All(ctx, &out)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// FindOne returns the first document matching query, or ErrNotFound.
func (h *MongoHelper) FindOne(ctx context.Context, name string, query any) (bson.M, error) {
	coll, err := h.collection(ctx, name)
	if err != nil {
		return nil, err
	}
	var out bson.M
	err = observe(name, "find_one", func() error {
		err := coll.FindOne(ctx, query).Decode(&out)
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ErrNotFound
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateOne merges patch into the first document matching query.
func (h *MongoHelper) UpdateOne(ctx context.Context, name string, query, patch any) (*mongo.UpdateResult, error) {
	coll, err := h.collection(ctx, name)
	if err != nil {
		return nil, err
	}
	var res *mongo.UpdateResult
	err = observe(name, "update_one", func() (err error) {
		res, err = coll.UpdateOne(ctx, query, bson.M{"$set": patch})
		return err
	})
	return res, err
}

// UpdateMany merges patch into every document matching query.
func (h *MongoHelper) UpdateMany(ctx context.Context, name string, query, patch any) (*mongo.UpdateResult, error) {
	coll, err := h.collection(ctx, name)
	if err != nil {
		return nil, err
	}
	var res *mongo.UpdateResult
	err = observe(name, "update_many", func() (err error) {
		res, err = coll.UpdateMany(ctx, query, bson.M{"$set": patch})
		return err
	})
	return res, err
}

// DeleteOne removes the first document matching query.
func (h *MongoHelper) DeleteOne(ctx context.Context, name string, query any) (*mongo.DeleteResult, error) {
	coll, err := h.collection(ctx, name)
	if err != nil {
		return nil, err
	}
	var res *mongo.DeleteResult
	err = observe(name, "delete_one", func() (err error) {
		res, err = coll.DeleteOne(ctx, query)
		return err
	})
	return res, err
}

// DeleteMany removes every document matching query.
func (h *MongoHelper) DeleteMany(ctx context.Context, name string, query any) (*mongo.DeleteResult, error) {
	coll, err := h.collection(ctx, name)
	if err != nil {
		return nil, err
	}
	var res *mongo.DeleteResult
	err = observe(name, "delete_many", func() (err error) {
		res, err = coll.DeleteMany(ctx, query)
		return err
	})
	return res, err
}

// Ping reports whether the primary is reachable. It is used by readiness checks.
func (h *MongoHelper) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return h.db.Client().Ping(ctx, nil)
}

// collection ensures name exists and returns its handle.
func (h *MongoHelper) collection(ctx context.Context, name string) (*mongo.Collection, error) {
	if err := h.EnsureCollection(ctx, name); err != nil {
		return nil, err
	}
	return h.db.Collection(name), nil
}

func isNamespaceExists(err error) bool {
	var ce mongo.CommandError
	return errors.As(err, &ce) && ce.Code == codeNamespaceExists
}
