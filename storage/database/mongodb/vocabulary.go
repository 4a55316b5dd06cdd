package mongodb

import (
	"context"
	"regexp"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/eduenglish/backend/core/vocabulary"
)

type vocabularyDoc struct {
	ID            primitive.ObjectID  `bson:"_id,omitempty"`
	Word          string              `bson:"word"`
	Meaning       string              `bson:"meaning"`
	Example       string              `bson:"example"`
	Pronunciation string              `bson:"pronunciation"`
	PartOfSpeech  string              `bson:"partOfSpeech"`
	Favourite     bool                `bson:"favourite"`
	UserID        *primitive.ObjectID `bson:"userId,omitempty"`
	CreatedAt     time.Time           `bson:"createdAt"`
	UpdatedAt     time.Time           `bson:"updatedAt"`
}

func newVocabularyDoc(v vocabulary.Vocabulary) vocabularyDoc {
	oid, _ := objectID(v.ID)
	return vocabularyDoc{
		ID:            oid,
		Word:          v.Word,
		Meaning:       v.Meaning,
		Example:       v.Example,
		Pronunciation: v.Pronunciation,
		PartOfSpeech:  v.PartOfSpeech,
		Favourite:     v.Favourite,
		UserID:        optionalObjectID(v.UserID),
		CreatedAt:     v.CreatedAt,
		UpdatedAt:     v.UpdatedAt,
	}
}

func (d vocabularyDoc) vocabulary() vocabulary.Vocabulary {
	return vocabulary.Vocabulary{
		ID:            d.ID.Hex(),
		Word:          d.Word,
		Meaning:       d.Meaning,
		Example:       d.Example,
		Pronunciation: d.Pronunciation,
		PartOfSpeech:  d.PartOfSpeech,
		Favourite:     d.Favourite,
		UserID:        optionalHex(d.UserID),
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}
}

type vocabularyRepository struct {
	coll *mongo.Collection
}

var _ vocabulary.Repository = (*vocabularyRepository)(nil)

func NewVocabularyRepository(db *DB) vocabulary.Repository {
	return &vocabularyRepository{coll: db.collection(vocabulariesCollection)}
}

func vocabularyFilter(qf vocabulary.QueryFilter) bson.M {
	f := bson.M{}
	if qf.Search != "" {
		rx := primitive.Regex{Pattern: regexp.QuoteMeta(qf.Search), Options: "i"}
		f["$or"] = bson.A{bson.M{"word": rx}, bson.M{"meaning": rx}}
	}
	if qf.PartOfSpeech != "" {
		f["partOfSpeech"] = qf.PartOfSpeech
	}
	if qf.Favourite {
		f["favourite"] = true
	}
	if qf.UserID != "" {
		oid, ok := objectID(qf.UserID)
		if !ok {
			return noMatch
		}
		f["userId"] = oid
	}
	return f
}

func (repo *vocabularyRepository) CreateVocabularies(ctx context.Context, vocabs ...vocabulary.Vocabulary) ([]vocabulary.Vocabulary, error) {
	if len(vocabs) == 0 {
		return []vocabulary.Vocabulary{}, nil
	}
	docs := make([]interface{}, 0, len(vocabs))
	created := make([]vocabulary.Vocabulary, 0, len(vocabs))
	for _, v := range vocabs {
		doc := newVocabularyDoc(v)
		doc.ID = primitive.NewObjectID()
		docs = append(docs, doc)
		created = append(created, doc.vocabulary())
	}
	if _, err := repo.coll.InsertMany(ctx, docs); err != nil {
		return nil, errors.Wrap(err, "inserting vocabularies")
	}
	return created, nil
}

func (repo *vocabularyRepository) GetVocabularyByID(ctx context.Context, id string) (vocabulary.Vocabulary, error) {
	oid, ok := objectID(id)
	if !ok {
		return vocabulary.Vocabulary{}, vocabulary.ErrNotFound
	}
	var doc vocabularyDoc
	if err := repo.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return vocabulary.Vocabulary{}, vocabulary.ErrNotFound
		}
		return vocabulary.Vocabulary{}, errors.Wrap(err, "finding vocabulary")
	}
	return doc.vocabulary(), nil
}

func (repo *vocabularyRepository) GetVocabulariesByID(ctx context.Context, ids ...string) ([]vocabulary.Vocabulary, error) {
	docs, err := repo.find(ctx, bson.M{"_id": bson.M{"$in": objectIDs(ids)}}, options.Find())
	if err != nil {
		return nil, err
	}
	byID := make(map[string]vocabulary.Vocabulary, len(docs))
	for _, doc := range docs {
		byID[doc.ID.Hex()] = doc.vocabulary()
	}
	vocabs := make([]vocabulary.Vocabulary, 0, len(docs))
	for _, id := range ids {
		if v, ok := byID[id]; ok {
			vocabs = append(vocabs, v)
		}
	}
	return vocabs, nil
}

func (repo *vocabularyRepository) FilterVocabularies(ctx context.Context, filter vocabulary.QueryFilter) ([]vocabulary.Vocabulary, error) {
	docs, err := repo.find(ctx, vocabularyFilter(filter), options.Find().SetSort(newestFirst))
	if err != nil {
		return nil, err
	}
	vocabs := make([]vocabulary.Vocabulary, 0, len(docs))
	for _, doc := range docs {
		vocabs = append(vocabs, doc.vocabulary())
	}
	return vocabs, nil
}

func (repo *vocabularyRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]vocabularyDoc, error) {
	cur, err := repo.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, errors.Wrap(err, "finding vocabularies")
	}
	var docs []vocabularyDoc
	if err = cur.All(ctx, &docs); err != nil {
		return nil, errors.Wrap(err, "decoding vocabularies")
	}
	return docs, nil
}

func (repo *vocabularyRepository) UpdateVocabulary(ctx context.Context, v vocabulary.Vocabulary) (vocabulary.Vocabulary, error) {
	doc := newVocabularyDoc(v)
	res, err := repo.coll.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc)
	if err != nil {
		return vocabulary.Vocabulary{}, errors.Wrap(err, "replacing vocabulary")
	}
	if res.MatchedCount == 0 {
		return vocabulary.Vocabulary{}, vocabulary.ErrNotFound
	}
	return doc.vocabulary(), nil
}

func (repo *vocabularyRepository) DeleteVocabulariesByID(ctx context.Context, ids ...string) error {
	return errors.Wrap(deleteByID(ctx, repo.coll, ids), "deleting vocabularies")
}
