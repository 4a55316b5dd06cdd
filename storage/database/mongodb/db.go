// Package mongodb implements the repositories over a MongoDB database.
package mongodb

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/eduenglish/backend/core"
)

// Collections
const (
	usersCollection         = "users"
	vocabulariesCollection  = "vocabularies"
	coursesCollection       = "courses"
	grammarsCollection      = "grammars"
	exercisesCollection     = "exercises"
	resultsCollection       = "results"
	grammarChecksCollection = "grammar_checks"
)

type DB struct {
	client *mongo.Client
	db     *mongo.Database
}

// Open connects to the configured database and waits for it to be ready.
func Open(ctx context.Context, conf *core.Config) (*DB, error) {
	opts := options.Client().ApplyURI(conf.Database.URI)
	if conf.Database.ConnectTimeout > 0 {
		opts.SetConnectTimeout(conf.Database.ConnectTimeout)
		opts.SetServerSelectionTimeout(conf.Database.ConnectTimeout)
	}
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, errors.Wrap(err, "connecting to database")
	}

	db := &DB{client: client, db: client.Database(conf.Database.Name)}
	if err = db.waitReady(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return db, nil
}

// waitReady waits for the database to be ready. Waits 100ms longer between each attempt.
func (db *DB) waitReady(ctx context.Context) error {
	var err error
	maxAttempts := 30
	for attempts := 1; attempts <= maxAttempts; attempts++ {
		err = db.Ping(ctx)
		if err == nil {
			break
		}
		select {
		case <-ctx.Done():
			return errors.Wrap(ctx.Err(), "DB ping cancelled")
		case <-time.After(time.Duration(attempts) * 100 * time.Millisecond):
		}
	}

	if err != nil {
		return errors.Wrap(err, "DB ping timeout")
	}
	return nil
}

func (db *DB) Ping(ctx context.Context) error {
	return db.client.Ping(ctx, nil)
}

func (db *DB) Close(ctx context.Context) error {
	return db.client.Disconnect(ctx)
}

func (db *DB) collection(name string) *mongo.Collection {
	return db.db.Collection(name)
}

// EnsureIndexes creates the indexes the repositories rely on; existing indexes are kept.
func (db *DB) EnsureIndexes(ctx context.Context) error {
	indexes := map[string][]mongo.IndexModel{
		usersCollection: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "createdAt", Value: -1}}},
		},
		coursesCollection: {
			{Keys: bson.D{{Key: "name", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		vocabulariesCollection: {
			{Keys: bson.D{{Key: "createdAt", Value: -1}}},
		},
		resultsCollection: {
			{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "courseId", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "progress.overall.percentage", Value: -1}}},
		},
		grammarChecksCollection: {
			{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}}},
		},
	}
	for coll, models := range indexes {
		if _, err := db.collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return errors.Wrapf(err, "creating %s indexes", coll)
		}
	}
	return nil
}

// objectID converts a hex id; ok is false for an invalid one.
func objectID(id string) (primitive.ObjectID, bool) {
	oid, err := primitive.ObjectIDFromHex(id)
	return oid, err == nil
}

// objectIDs converts hex ids, skipping invalid ones.
func objectIDs(ids []string) []primitive.ObjectID {
	oids := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if oid, ok := objectID(id); ok {
			oids = append(oids, oid)
		}
	}
	return oids
}

func hexes(oids []primitive.ObjectID) []string {
	ids := make([]string, 0, len(oids))
	for _, oid := range oids {
		ids = append(ids, oid.Hex())
	}
	return ids
}

func optionalObjectID(id string) *primitive.ObjectID {
	if oid, ok := objectID(id); ok {
		return &oid
	}
	return nil
}

func optionalHex(oid *primitive.ObjectID) string {
	if oid == nil {
		return ""
	}
	return oid.Hex()
}

// newestFirst sorts by creation time, then insertion order.
var newestFirst = bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}

func pageOptions(opts *options.FindOptions, page *core.Pagination) *options.FindOptions {
	if page != nil && page.Limit > 0 {
		opts.SetSkip(page.Skip()).SetLimit(int64(page.Limit))
	}
	return opts
}

// deleteByID deletes the documents with the given ids from coll.
func deleteByID(ctx context.Context, coll *mongo.Collection, ids []string) error {
	oids := objectIDs(ids)
	if len(oids) == 0 {
		return nil
	}
	_, err := coll.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": oids}})
	return err
}

// noMatch is a filter matching no document.
var noMatch = bson.M{"_id": primitive.NilObjectID}
