package mongodb

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/eduenglish/backend/core/grammar"
)

type grammarCheckDoc struct {
	ID            primitive.ObjectID  `bson:"_id,omitempty"`
	UserID        *primitive.ObjectID `bson:"userId,omitempty"`
	Text          string              `bson:"text"`
	CorrectedText string              `bson:"correctedText"`
	Score         int                 `bson:"score"`
	ErrorsCount   int                 `bson:"errorsCount"`
	Source        string              `bson:"source"`
	CreatedAt     time.Time           `bson:"createdAt"`
}

func (d grammarCheckDoc) check() grammar.Check {
	return grammar.Check{
		ID:            d.ID.Hex(),
		UserID:        optionalHex(d.UserID),
		Text:          d.Text,
		CorrectedText: d.CorrectedText,
		Score:         d.Score,
		ErrorsCount:   d.ErrorsCount,
		Source:        d.Source,
		CreatedAt:     d.CreatedAt,
	}
}

type grammarCheckRepository struct {
	coll *mongo.Collection
}

var _ grammar.Repository = (*grammarCheckRepository)(nil)

func NewGrammarCheckRepository(db *DB) grammar.Repository {
	return &grammarCheckRepository{coll: db.collection(grammarChecksCollection)}
}

func (repo *grammarCheckRepository) CreateCheck(ctx context.Context, check grammar.Check) (grammar.Check, error) {
	doc := grammarCheckDoc{
		ID:            primitive.NewObjectID(),
		UserID:        optionalObjectID(check.UserID),
		Text:          check.Text,
		CorrectedText: check.CorrectedText,
		Score:         check.Score,
		ErrorsCount:   check.ErrorsCount,
		Source:        check.Source,
		CreatedAt:     check.CreatedAt,
	}
	if _, err := repo.coll.InsertOne(ctx, doc); err != nil {
		return grammar.Check{}, errors.Wrap(err, "inserting grammar check")
	}
	return doc.check(), nil
}

func (repo *grammarCheckRepository) FilterChecks(ctx context.Context, userID string, limit int) ([]grammar.Check, error) {
	oid, ok := objectID(userID)
	if !ok {
		return []grammar.Check{}, nil
	}
	opts := options.Find().SetSort(newestFirst)
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cur, err := repo.coll.Find(ctx, bson.M{"userId": oid}, opts)
	if err != nil {
		return nil, errors.Wrap(err, "finding grammar checks")
	}
	var docs []grammarCheckDoc
	if err = cur.All(ctx, &docs); err != nil {
		return nil, errors.Wrap(err, "decoding grammar checks")
	}
	checks := make([]grammar.Check, 0, len(docs))
	for _, doc := range docs {
		checks = append(checks, doc.check())
	}
	return checks, nil
}
