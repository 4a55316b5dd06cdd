package mongodb

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/eduenglish/backend/core/course"
)

type courseDoc struct {
	ID           primitive.ObjectID   `bson:"_id,omitempty"`
	Name         string               `bson:"name"`
	Title        string               `bson:"title"`
	Description  string               `bson:"description"`
	Level        string               `bson:"level"`
	Image        string               `bson:"image"`
	Vocabularies []primitive.ObjectID `bson:"vocabularies"`
	Grammars     []primitive.ObjectID `bson:"grammars"`
	Exercises    []primitive.ObjectID `bson:"exercises"`
	Duration     float64              `bson:"duration"`
	TotalLessons int                  `bson:"totalLessons"`
	IsPublished  bool                 `bson:"isPublished"`
	CreatedBy    *primitive.ObjectID  `bson:"createdBy,omitempty"`
	CreatedAt    time.Time            `bson:"createdAt"`
	UpdatedAt    time.Time            `bson:"updatedAt"`
}

func newCourseDoc(c course.Course) courseDoc {
	oid, _ := objectID(c.ID)
	return courseDoc{
		ID:           oid,
		Name:         c.Name,
		Title:        c.Title,
		Description:  c.Description,
		Level:        c.Level,
		Image:        c.Image,
		Vocabularies: objectIDs(c.VocabularyIDs),
		Grammars:     objectIDs(c.GrammarIDs),
		Exercises:    objectIDs(c.ExerciseIDs),
		Duration:     c.Duration,
		TotalLessons: c.TotalLessons,
		IsPublished:  c.IsPublished,
		CreatedBy:    optionalObjectID(c.CreatedBy),
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
	}
}

func (d courseDoc) course() course.Course {
	return course.Course{
		ID:            d.ID.Hex(),
		Name:          d.Name,
		Title:         d.Title,
		Description:   d.Description,
		Level:         d.Level,
		Image:         d.Image,
		VocabularyIDs: hexes(d.Vocabularies),
		GrammarIDs:    hexes(d.Grammars),
		ExerciseIDs:   hexes(d.Exercises),
		Duration:      d.Duration,
		TotalLessons:  d.TotalLessons,
		IsPublished:   d.IsPublished,
		CreatedBy:     optionalHex(d.CreatedBy),
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}
}

type courseRepository struct {
	coll *mongo.Collection
}

var _ course.Repository = (*courseRepository)(nil)

func NewCourseRepository(db *DB) course.Repository {
	return &courseRepository{coll: db.collection(coursesCollection)}
}

func courseFilter(qf course.QueryFilter) bson.M {
	f := bson.M{}
	if qf.Level != "" {
		f["level"] = qf.Level
	}
	if qf.IsPublished != nil {
		f["isPublished"] = *qf.IsPublished
	}
	if qf.Name != "" {
		f["name"] = qf.Name
	}
	if !qf.CreatedFrom.IsZero() {
		f["createdAt"] = bson.M{"$gte": qf.CreatedFrom}
	}
	return f
}

func (repo *courseRepository) CreateCourse(ctx context.Context, c course.Course) (course.Course, error) {
	doc := newCourseDoc(c)
	doc.ID = primitive.NewObjectID()
	if _, err := repo.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return course.Course{}, course.ErrNameExists
		}
		return course.Course{}, errors.Wrap(err, "inserting course")
	}
	return doc.course(), nil
}

func (repo *courseRepository) GetCourseByID(ctx context.Context, id string) (course.Course, error) {
	oid, ok := objectID(id)
	if !ok {
		return course.Course{}, course.ErrNotFound
	}
	var doc courseDoc
	if err := repo.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return course.Course{}, course.ErrNotFound
		}
		return course.Course{}, errors.Wrap(err, "finding course")
	}
	return doc.course(), nil
}

func (repo *courseRepository) FilterCourses(ctx context.Context, filter course.QueryFilter) ([]course.Course, error) {
	cur, err := repo.coll.Find(ctx, courseFilter(filter), options.Find().SetSort(newestFirst))
	if err != nil {
		return nil, errors.Wrap(err, "finding courses")
	}
	var docs []courseDoc
	if err = cur.All(ctx, &docs); err != nil {
		return nil, errors.Wrap(err, "decoding courses")
	}
	courses := make([]course.Course, 0, len(docs))
	for _, doc := range docs {
		courses = append(courses, doc.course())
	}
	return courses, nil
}

func (repo *courseRepository) CountCourses(ctx context.Context, filter course.QueryFilter) (int64, error) {
	return repo.coll.CountDocuments(ctx, courseFilter(filter))
}

func (repo *courseRepository) UpdateCourse(ctx context.Context, c course.Course) (course.Course, error) {
	doc := newCourseDoc(c)
	res, err := repo.coll.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return course.Course{}, course.ErrNameExists
		}
		return course.Course{}, errors.Wrap(err, "replacing course")
	}
	if res.MatchedCount == 0 {
		return course.Course{}, course.ErrNotFound
	}
	return doc.course(), nil
}

func (repo *courseRepository) DeleteCourse(ctx context.Context, id string) error {
	oid, ok := objectID(id)
	if !ok {
		return course.ErrNotFound
	}
	res, err := repo.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return errors.Wrap(err, "deleting course")
	}
	if res.DeletedCount == 0 {
		return course.ErrNotFound
	}
	return nil
}

type grammarDoc struct {
	ID             primitive.ObjectID `bson:"_id,omitempty"`
	Topic          string             `bson:"topic"`
	Explanation    string             `bson:"explanation"`
	Example        string             `bson:"example"`
	Rules          []string           `bson:"rules"`
	CommonMistakes []string           `bson:"commonMistakes"`
	CreatedAt      time.Time          `bson:"createdAt"`
	UpdatedAt      time.Time          `bson:"updatedAt"`
}

func (d grammarDoc) grammar() course.Grammar {
	g := course.Grammar{
		ID:             d.ID.Hex(),
		Topic:          d.Topic,
		Explanation:    d.Explanation,
		Example:        d.Example,
		Rules:          d.Rules,
		CommonMistakes: d.CommonMistakes,
		CreatedAt:      d.CreatedAt,
		UpdatedAt:      d.UpdatedAt,
	}
	if g.Rules == nil {
		g.Rules = []string{}
	}
	if g.CommonMistakes == nil {
		g.CommonMistakes = []string{}
	}
	return g
}

type exerciseDoc struct {
	ID            primitive.ObjectID `bson:"_id,omitempty"`
	Question      string             `bson:"question"`
	Type          string             `bson:"type"`
	Options       []string           `bson:"options"`
	CorrectAnswer string             `bson:"correctAnswer"`
	Explanation   string             `bson:"explanation"`
	Difficulty    string             `bson:"difficulty"`
	Points        int                `bson:"points"`
	CreatedAt     time.Time          `bson:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt"`
}

func (d exerciseDoc) exercise() course.Exercise {
	e := course.Exercise{
		ID:            d.ID.Hex(),
		Question:      d.Question,
		Type:          d.Type,
		Options:       d.Options,
		CorrectAnswer: d.CorrectAnswer,
		Explanation:   d.Explanation,
		Difficulty:    d.Difficulty,
		Points:        d.Points,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}
	if e.Options == nil {
		e.Options = []string{}
	}
	return e
}

type contentRepository struct {
	grammars  *mongo.Collection
	exercises *mongo.Collection
}

var _ course.ContentRepository = (*contentRepository)(nil)

func NewContentRepository(db *DB) course.ContentRepository {
	return &contentRepository{
		grammars:  db.collection(grammarsCollection),
		exercises: db.collection(exercisesCollection),
	}
}

func (repo *contentRepository) CreateGrammars(ctx context.Context, grammars ...course.Grammar) ([]course.Grammar, error) {
	if len(grammars) == 0 {
		return []course.Grammar{}, nil
	}
	docs := make([]interface{}, 0, len(grammars))
	created := make([]course.Grammar, 0, len(grammars))
	for _, g := range grammars {
		doc := grammarDoc{
			ID:             primitive.NewObjectID(),
			Topic:          g.Topic,
			Explanation:    g.Explanation,
			Example:        g.Example,
			Rules:          g.Rules,
			CommonMistakes: g.CommonMistakes,
			CreatedAt:      g.CreatedAt,
			UpdatedAt:      g.UpdatedAt,
		}
		docs = append(docs, doc)
		created = append(created, doc.grammar())
	}
	if _, err := repo.grammars.InsertMany(ctx, docs); err != nil {
		return nil, errors.Wrap(err, "inserting grammars")
	}
	return created, nil
}

func (repo *contentRepository) GetGrammarsByID(ctx context.Context, ids ...string) ([]course.Grammar, error) {
	cur, err := repo.grammars.Find(ctx, bson.M{"_id": bson.M{"$in": objectIDs(ids)}})
	if err != nil {
		return nil, errors.Wrap(err, "finding grammars")
	}
	var docs []grammarDoc
	if err = cur.All(ctx, &docs); err != nil {
		return nil, errors.Wrap(err, "decoding grammars")
	}
	byID := make(map[string]course.Grammar, len(docs))
	for _, doc := range docs {
		byID[doc.ID.Hex()] = doc.grammar()
	}
	grammars := make([]course.Grammar, 0, len(docs))
	for _, id := range ids {
		if g, ok := byID[id]; ok {
			grammars = append(grammars, g)
		}
	}
	return grammars, nil
}

func (repo *contentRepository) DeleteGrammarsByID(ctx context.Context, ids ...string) error {
	return errors.Wrap(deleteByID(ctx, repo.grammars, ids), "deleting grammars")
}

func (repo *contentRepository) CreateExercises(ctx context.Context, exercises ...course.Exercise) ([]course.Exercise, error) {
	if len(exercises) == 0 {
		return []course.Exercise{}, nil
	}
	docs := make([]interface{}, 0, len(exercises))
	created := make([]course.Exercise, 0, len(exercises))
	for _, e := range exercises {
		doc := exerciseDoc{
			ID:            primitive.NewObjectID(),
			Question:      e.Question,
			Type:          e.Type,
			Options:       e.Options,
			CorrectAnswer: e.CorrectAnswer,
			Explanation:   e.Explanation,
			Difficulty:    e.Difficulty,
			Points:        e.Points,
			CreatedAt:     e.CreatedAt,
			UpdatedAt:     e.UpdatedAt,
		}
		docs = append(docs, doc)
		created = append(created, doc.exercise())
	}
	if _, err := repo.exercises.InsertMany(ctx, docs); err != nil {
		return nil, errors.Wrap(err, "inserting exercises")
	}
	return created, nil
}

func (repo *contentRepository) GetExercisesByID(ctx context.Context, ids ...string) ([]course.Exercise, error) {
	cur, err := repo.exercises.Find(ctx, bson.M{"_id": bson.M{"$in": objectIDs(ids)}})
	if err != nil {
		return nil, errors.Wrap(err, "finding exercises")
	}
	var docs []exerciseDoc
	if err = cur.All(ctx, &docs); err != nil {
		return nil, errors.Wrap(err, "decoding exercises")
	}
	byID := make(map[string]course.Exercise, len(docs))
	for _, doc := range docs {
		byID[doc.ID.Hex()] = doc.exercise()
	}
	exercises := make([]course.Exercise, 0, len(docs))
	for _, id := range ids {
		if e, ok := byID[id]; ok {
			exercises = append(exercises, e)
		}
	}
	return exercises, nil
}

func (repo *contentRepository) DeleteExercisesByID(ctx context.Context, ids ...string) error {
	return errors.Wrap(deleteByID(ctx, repo.exercises, ids), "deleting exercises")
}
