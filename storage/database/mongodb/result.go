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
	"github.com/eduenglish/backend/core/result"
)

type (
	progressDoc struct {
		Vocabulary struct {
			Studied    int `bson:"studied"`
			Known      int `bson:"known"`
			Total      int `bson:"total"`
			Percentage int `bson:"percentage"`
		} `bson:"vocabulary"`
		Grammar struct {
			Studied    int `bson:"studied"`
			Total      int `bson:"total"`
			Percentage int `bson:"percentage"`
		} `bson:"grammar"`
		Exercises struct {
			Completed  int `bson:"completed"`
			Total      int `bson:"total"`
			Percentage int `bson:"percentage"`
		} `bson:"exercises"`
		Overall struct {
			Percentage int `bson:"percentage"`
		} `bson:"overall"`
	}

	examQuestionDoc struct {
		QuestionID     string `bson:"questionId"`
		SelectedAnswer string `bson:"selectedAnswer"`
		CorrectAnswer  string `bson:"correctAnswer"`
		IsCorrect      bool   `bson:"isCorrect"`
	}

	examResultDoc struct {
		ExamID         string            `bson:"examId"`
		Score          int               `bson:"score"`
		TotalQuestions int               `bson:"totalQuestions"`
		CorrectAnswers int               `bson:"correctAnswers"`
		Percentage     int               `bson:"percentage"`
		Passed         bool              `bson:"passed"`
		CompletedAt    time.Time         `bson:"completedAt"`
		Questions      []examQuestionDoc `bson:"questions"`
	}

	studyStatsDoc struct {
		TotalStudyTime int        `bson:"totalStudyTime"`
		LastStudied    *time.Time `bson:"lastStudied"`
		StreakDays     int        `bson:"streakDays"`
		TotalSessions  int        `bson:"totalSessions"`
	}

	resultDoc struct {
		ID          primitive.ObjectID `bson:"_id,omitempty"`
		UserID      primitive.ObjectID `bson:"userId"`
		CourseID    primitive.ObjectID `bson:"courseId"`
		Progress    progressDoc        `bson:"progress"`
		ExamResults []examResultDoc    `bson:"examResults"`
		Stats       studyStatsDoc      `bson:"stats"`
		Status      string             `bson:"status"`
		StartedAt   *time.Time         `bson:"startedAt"`
		CompletedAt *time.Time         `bson:"completedAt"`
		LastUpdated time.Time          `bson:"lastUpdated"`
		CreatedAt   time.Time          `bson:"createdAt"`
		UpdatedAt   time.Time          `bson:"updatedAt"`
	}
)

func newResultDoc(r result.Result) resultDoc {
	oid, _ := objectID(r.ID)
	userID, _ := objectID(r.UserID)
	courseID, _ := objectID(r.CourseID)
	doc := resultDoc{
		ID:       oid,
		UserID:   userID,
		CourseID: courseID,
		Stats: studyStatsDoc{
			TotalStudyTime: r.Stats.TotalStudyTime,
			LastStudied:    r.Stats.LastStudied,
			StreakDays:     r.Stats.StreakDays,
			TotalSessions:  r.Stats.TotalSessions,
		},
		ExamResults: make([]examResultDoc, 0, len(r.ExamResults)),
		Status:      r.Status,
		StartedAt:   r.StartedAt,
		CompletedAt: r.CompletedAt,
		LastUpdated: r.LastUpdated,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}

	p := r.Progress
	doc.Progress.Vocabulary.Studied = p.Vocabulary.Studied
	doc.Progress.Vocabulary.Known = p.Vocabulary.Known
	doc.Progress.Vocabulary.Total = p.Vocabulary.Total
	doc.Progress.Vocabulary.Percentage = p.Vocabulary.Percentage
	doc.Progress.Grammar.Studied = p.Grammar.Studied
	doc.Progress.Grammar.Total = p.Grammar.Total
	doc.Progress.Grammar.Percentage = p.Grammar.Percentage
	doc.Progress.Exercises.Completed = p.Exercises.Completed
	doc.Progress.Exercises.Total = p.Exercises.Total
	doc.Progress.Exercises.Percentage = p.Exercises.Percentage
	doc.Progress.Overall.Percentage = p.Overall.Percentage

	for _, exam := range r.ExamResults {
		ed := examResultDoc{
			ExamID:         exam.ExamID,
			Score:          exam.Score,
			TotalQuestions: exam.TotalQuestions,
			CorrectAnswers: exam.CorrectAnswers,
			Percentage:     exam.Percentage,
			Passed:         exam.Passed,
			CompletedAt:    exam.CompletedAt,
			Questions:      make([]examQuestionDoc, 0, len(exam.Questions)),
		}
		for _, q := range exam.Questions {
			ed.Questions = append(ed.Questions, examQuestionDoc(q))
		}
		doc.ExamResults = append(doc.ExamResults, ed)
	}
	return doc
}

func (d resultDoc) result() result.Result {
	r := result.Result{
		ID:       d.ID.Hex(),
		UserID:   d.UserID.Hex(),
		CourseID: d.CourseID.Hex(),
		Stats: result.Stats{
			TotalStudyTime: d.Stats.TotalStudyTime,
			LastStudied:    d.Stats.LastStudied,
			StreakDays:     d.Stats.StreakDays,
			TotalSessions:  d.Stats.TotalSessions,
		},
		ExamResults: make([]result.ExamResult, 0, len(d.ExamResults)),
		Status:      d.Status,
		StartedAt:   d.StartedAt,
		CompletedAt: d.CompletedAt,
		LastUpdated: d.LastUpdated,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}

	p := d.Progress
	r.Progress = result.Progress{
		Vocabulary: result.VocabularyProgress{
			Studied:    p.Vocabulary.Studied,
			Known:      p.Vocabulary.Known,
			Total:      p.Vocabulary.Total,
			Percentage: p.Vocabulary.Percentage,
		},
		Grammar: result.GrammarProgress{
			Studied:    p.Grammar.Studied,
			Total:      p.Grammar.Total,
			Percentage: p.Grammar.Percentage,
		},
		Exercises: result.ExerciseProgress{
			Completed:  p.Exercises.Completed,
			Total:      p.Exercises.Total,
			Percentage: p.Exercises.Percentage,
		},
		Overall: result.OverallProgress{Percentage: p.Overall.Percentage},
	}

	for _, ed := range d.ExamResults {
		exam := result.ExamResult{
			ExamID:         ed.ExamID,
			Score:          ed.Score,
			TotalQuestions: ed.TotalQuestions,
			CorrectAnswers: ed.CorrectAnswers,
			Percentage:     ed.Percentage,
			Passed:         ed.Passed,
			CompletedAt:    ed.CompletedAt,
			Questions:      make([]result.ExamQuestion, 0, len(ed.Questions)),
		}
		for _, q := range ed.Questions {
			exam.Questions = append(exam.Questions, result.ExamQuestion(q))
		}
		r.ExamResults = append(r.ExamResults, exam)
	}
	if r.Status == "" {
		r.Status = result.StatusNotStarted
	}
	return r
}

type resultRepository struct {
	coll *mongo.Collection
}

var _ result.Repository = (*resultRepository)(nil)

func NewResultRepository(db *DB) result.Repository {
	return &resultRepository{coll: db.collection(resultsCollection)}
}

func resultFilter(qf result.QueryFilter) bson.M {
	f := bson.M{}
	if qf.UserID != "" {
		oid, ok := objectID(qf.UserID)
		if !ok {
			return noMatch
		}
		f["userId"] = oid
	}
	if qf.CourseID != "" {
		oid, ok := objectID(qf.CourseID)
		if !ok {
			return noMatch
		}
		f["courseId"] = oid
	}
	if qf.Status != "" {
		f["status"] = qf.Status
	}
	if qf.MinOverall > 0 {
		f["progress.overall.percentage"] = bson.M{"$gte": qf.MinOverall}
	}
	if !qf.CompletedFrom.IsZero() || !qf.CompletedTo.IsZero() {
		completed := bson.M{"$ne": nil}
		if !qf.CompletedFrom.IsZero() {
			completed["$gte"] = qf.CompletedFrom
		}
		if !qf.CompletedTo.IsZero() {
			completed["$lt"] = qf.CompletedTo
		}
		f["completedAt"] = completed
	}
	return f
}

func resultSort(ord *core.DBOrdering) bson.D {
	if ord == nil {
		ord = &core.DBOrdering{Field: result.OrderLastUpdated}
	}
	field := "lastUpdated"
	switch ord.Field {
	case result.OrderOverall:
		field = "progress.overall.percentage"
	case result.OrderCompletedAt:
		field = "completedAt"
	}
	return bson.D{{Key: field, Value: ord.Direction()}, {Key: "_id", Value: 1}}
}

func (repo *resultRepository) CreateResult(ctx context.Context, r result.Result) (result.Result, error) {
	doc := newResultDoc(r)
	doc.ID = primitive.NewObjectID()
	if _, err := repo.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return result.Result{}, result.ErrExists
		}
		return result.Result{}, errors.Wrap(err, "inserting result")
	}
	return doc.result(), nil
}

func (repo *resultRepository) GetResult(ctx context.Context, userID, courseID string) (result.Result, error) {
	uid, ok := objectID(userID)
	if !ok {
		return result.Result{}, result.ErrNotFound
	}
	cid, ok := objectID(courseID)
	if !ok {
		return result.Result{}, result.ErrNotFound
	}
	var doc resultDoc
	if err := repo.coll.FindOne(ctx, bson.M{"userId": uid, "courseId": cid}).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return result.Result{}, result.ErrNotFound
		}
		return result.Result{}, errors.Wrap(err, "finding result")
	}
	return doc.result(), nil
}

func (repo *resultRepository) FilterResults(ctx context.Context, filter result.QueryFilter, ord *core.DBOrdering, page *core.Pagination) ([]result.Result, error) {
	opts := pageOptions(options.Find().SetSort(resultSort(ord)), page)
	cur, err := repo.coll.Find(ctx, resultFilter(filter), opts)
	if err != nil {
		return nil, errors.Wrap(err, "finding results")
	}
	var docs []resultDoc
	if err = cur.All(ctx, &docs); err != nil {
		return nil, errors.Wrap(err, "decoding results")
	}
	results := make([]result.Result, 0, len(docs))
	for _, doc := range docs {
		results = append(results, doc.result())
	}
	return results, nil
}

func (repo *resultRepository) CountResults(ctx context.Context, filter result.QueryFilter) (int64, error) {
	return repo.coll.CountDocuments(ctx, resultFilter(filter))
}

func (repo *resultRepository) CountExamAttempts(ctx context.Context, filter result.QueryFilter) (int64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: resultFilter(filter)}},
		{{Key: "$group", Value: bson.M{
			"_id":   nil,
			"total": bson.M{"$sum": bson.M{"$size": bson.M{"$ifNull": bson.A{"$examResults", bson.A{}}}}},
		}}},
	}
	cur, err := repo.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, errors.Wrap(err, "aggregating exam attempts")
	}
	var rows []struct {
		Total int64 `bson:"total"`
	}
	if err = cur.All(ctx, &rows); err != nil {
		return 0, errors.Wrap(err, "decoding exam attempts")
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return rows[0].Total, nil
}

func (repo *resultRepository) UpdateResult(ctx context.Context, r result.Result) (result.Result, error) {
	doc := newResultDoc(r)
	res, err := repo.coll.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return result.Result{}, result.ErrExists
		}
		return result.Result{}, errors.Wrap(err, "replacing result")
	}
	if res.MatchedCount == 0 {
		return result.Result{}, result.ErrNotFound
	}
	return doc.result(), nil
}

func (repo *resultRepository) DeleteResultsByID(ctx context.Context, ids ...string) error {
	return errors.Wrap(deleteByID(ctx, repo.coll, ids), "deleting results")
}
