package result

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/eduenglish/backend/core"
	"github.com/eduenglish/backend/core/course"
	"github.com/eduenglish/backend/core/user"
	"github.com/eduenglish/backend/core/vocabulary"
)

var (
	// errors
	ErrNotFound = core.NewNotFoundError("Progress not found")
	ErrExists   = errors.New("a result already exists for this user and course")
)

type (
	Repository interface {
		// CreateResult returns ErrExists when the user already has a result for the course.
		CreateResult(ctx context.Context, r Result) (Result, error)
		GetResult(ctx context.Context, userID, courseID string) (Result, error)
		// FilterResults returns the matching results sorted by ord (last updated first when nil). A nil page returns them all.
		FilterResults(ctx context.Context, filter QueryFilter, ord *core.DBOrdering, page *core.Pagination) ([]Result, error)
		CountResults(ctx context.Context, filter QueryFilter) (int64, error)
		// CountExamAttempts sums the exam attempts of the matching results.
		CountExamAttempts(ctx context.Context, filter QueryFilter) (int64, error)
		UpdateResult(ctx context.Context, r Result) (Result, error)
		DeleteResultsByID(ctx context.Context, ids ...string) error
	}

	VocabularyStudy struct {
		Data     []vocabulary.Vocabulary `json:"data"`
		Progress VocabularyProgress      `json:"progress"`
	}

	GrammarStudy struct {
		Data     []course.Grammar `json:"data"`
		Progress GrammarProgress  `json:"progress"`
	}

	Service interface {
		// GetProgress returns the result of userID in courseID, creating it when absent.
		GetProgress(ctx context.Context, userID, courseID string) (Result, error)
		UpdateVocabularyProgress(ctx context.Context, userID, courseID string, data UpdateVocabularyProgress) (Result, error)
		UpdateExerciseProgress(ctx context.Context, userID, courseID string, data UpdateExerciseProgress) (Result, error)
		UpdateGrammarProgress(ctx context.Context, userID, courseID string, data UpdateGrammarProgress) (Result, error)
		RecordSession(ctx context.Context, userID, courseID string, data NewSession) (Result, error)
		SubmitExam(ctx context.Context, userID, courseID string, data NewExamResult) (Result, error)
		ExamQuestions(ctx context.Context, courseID string, count int) ([]Question, error)
		CheckExam(ctx context.Context, courseID string, data CheckExam) (ExamCheck, error)
		StudyVocabulary(ctx context.Context, userID, courseID string) (VocabularyStudy, error)
		StudyGrammar(ctx context.Context, userID, courseID string) (GrammarStudy, error)

		Filter(ctx context.Context, filter QueryFilter, ord *core.DBOrdering, page *core.Pagination) ([]Result, error)
		Count(ctx context.Context, filter QueryFilter) (int64, error)
		CountExamAttempts(ctx context.Context, filter QueryFilter) (int64, error)
		// FindOrphans returns the results whose course no longer exists.
		FindOrphans(ctx context.Context) ([]Result, error)
		// Reassign moves results to courseID, skipping users who already have a result there.
		Reassign(ctx context.Context, results []Result, courseID string) (int, error)
		Delete(ctx context.Context, ids ...string) error
	}

	service struct {
		repo      Repository
		courseSvc course.Service

		mu  sync.Mutex
		rnd *rand.Rand
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, courseSvc course.Service) Service {
	return &service{
		repo:      repo,
		courseSvc: courseSvc,
		rnd:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (svc *service) GetProgress(ctx context.Context, userID, courseID string) (Result, error) {
	if !core.IsValidID(userID) {
		return Result{}, user.ErrNotFound
	}
	r, err := svc.get(ctx, userID, courseID)
	if err == nil || errors.Cause(err) != ErrNotFound {
		return r, err
	}

	c, err := svc.courseSvc.GetByID(ctx, courseID)
	if err != nil {
		return Result{}, err
	}
	r, err = svc.repo.CreateResult(ctx, New(userID, c, core.Now()))
	if errors.Cause(err) == ErrExists {
		// created concurrently
		return svc.repo.GetResult(ctx, userID, courseID)
	}
	if err != nil {
		return Result{}, errors.Wrap(err, "creating result")
	}
	return r, nil
}

func (svc *service) UpdateVocabularyProgress(ctx context.Context, userID, courseID string, data UpdateVocabularyProgress) (Result, error) {
	return svc.update(ctx, userID, courseID, func(r *Result, now time.Time) {
		r.SetVocabularyProgress(data, now)
	})
}

func (svc *service) UpdateExerciseProgress(ctx context.Context, userID, courseID string, data UpdateExerciseProgress) (Result, error) {
	return svc.update(ctx, userID, courseID, func(r *Result, now time.Time) {
		r.SetExerciseProgress(data, now)
	})
}

func (svc *service) UpdateGrammarProgress(ctx context.Context, userID, courseID string, data UpdateGrammarProgress) (Result, error) {
	return svc.update(ctx, userID, courseID, func(r *Result, now time.Time) {
		r.SetGrammarProgress(data, now)
	})
}

func (svc *service) RecordSession(ctx context.Context, userID, courseID string, data NewSession) (Result, error) {
	return svc.update(ctx, userID, courseID, func(r *Result, now time.Time) {
		r.AddSession(data.Minutes, now)
	})
}

func (svc *service) SubmitExam(ctx context.Context, userID, courseID string, data NewExamResult) (Result, error) {
	r, err := svc.get(ctx, userID, courseID)
	if err != nil {
		return Result{}, err
	}
	now := core.Now()
	r.AddExamResult(data.ExamResult(now))
	r.UpdatedAt = now
	return svc.repo.UpdateResult(ctx, r)
}

func (svc *service) ExamQuestions(ctx context.Context, courseID string, count int) ([]Question, error) {
	exercises, err := svc.courseSvc.Exercises(ctx, courseID)
	if err != nil {
		if errors.Cause(err) == course.ErrNotFound {
			return nil, course.ErrNoExercises
		}
		return nil, err
	}
	return PickQuestions(exercises, count, svc.shuffle), nil
}

func (svc *service) CheckExam(ctx context.Context, courseID string, data CheckExam) (ExamCheck, error) {
	exercises, err := svc.courseSvc.Exercises(ctx, courseID)
	if err != nil && errors.Cause(err) != course.ErrNoExercises {
		return ExamCheck{}, err
	}
	return CheckAnswers(exercises, data.Answers), nil
}

func (svc *service) StudyVocabulary(ctx context.Context, userID, courseID string) (VocabularyStudy, error) {
	detail, err := svc.courseSvc.GetDetail(ctx, courseID)
	if err != nil {
		return VocabularyStudy{}, err
	}
	study := VocabularyStudy{Data: detail.Vocabularies}
	r, err := svc.get(ctx, userID, courseID)
	switch {
	case err == nil:
		study.Progress = r.Progress.Vocabulary
	case errors.Cause(err) != ErrNotFound:
		return VocabularyStudy{}, err
	}
	return study, nil
}

func (svc *service) StudyGrammar(ctx context.Context, userID, courseID string) (GrammarStudy, error) {
	detail, err := svc.courseSvc.GetDetail(ctx, courseID)
	if err != nil {
		return GrammarStudy{}, err
	}
	study := GrammarStudy{Data: detail.Grammars}
	r, err := svc.get(ctx, userID, courseID)
	switch {
	case err == nil:
		study.Progress = r.Progress.Grammar
	case errors.Cause(err) != ErrNotFound:
		return GrammarStudy{}, err
	}
	return study, nil
}

func (svc *service) Filter(ctx context.Context, filter QueryFilter, ord *core.DBOrdering, page *core.Pagination) ([]Result, error) {
	return svc.repo.FilterResults(ctx, filter, ord, page)
}

func (svc *service) Count(ctx context.Context, filter QueryFilter) (int64, error) {
	return svc.repo.CountResults(ctx, filter)
}

func (svc *service) CountExamAttempts(ctx context.Context, filter QueryFilter) (int64, error) {
	return svc.repo.CountExamAttempts(ctx, filter)
}

func (svc *service) FindOrphans(ctx context.Context) ([]Result, error) {
	courses, err := svc.courseSvc.Filter(ctx, course.QueryFilter{})
	if err != nil {
		return nil, err
	}
	known := make(map[string]bool, len(courses))
	for _, c := range courses {
		known[c.ID] = true
	}

	results, err := svc.repo.FilterResults(ctx, QueryFilter{}, nil, nil)
	if err != nil {
		return nil, errors.Wrap(err, "filtering results")
	}
	var orphans []Result
	for _, r := range results {
		if !known[r.CourseID] {
			orphans = append(orphans, r)
		}
	}
	return orphans, nil
}

func (svc *service) Reassign(ctx context.Context, results []Result, courseID string) (int, error) {
	c, err := svc.courseSvc.GetByID(ctx, courseID)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, r := range results {
		if _, err = svc.repo.GetResult(ctx, r.UserID, c.ID); err == nil {
			continue // the user already has a result for the target course
		} else if errors.Cause(err) != ErrNotFound {
			return n, errors.Wrap(err, "getting result")
		}
		r.CourseID = c.ID
		r.UpdatedAt = core.Now()
		if _, err = svc.repo.UpdateResult(ctx, r); err != nil {
			return n, errors.Wrap(err, "updating result")
		}
		n++
	}
	return n, nil
}

func (svc *service) Delete(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	return svc.repo.DeleteResultsByID(ctx, ids...)
}

func (svc *service) get(ctx context.Context, userID, courseID string) (Result, error) {
	if !core.IsValidID(userID) || !core.IsValidID(courseID) {
		return Result{}, ErrNotFound
	}
	return svc.repo.GetResult(ctx, userID, courseID)
}

// update applies fn to the result of userID in courseID, creating the result first when absent.
func (svc *service) update(ctx context.Context, userID, courseID string, fn func(r *Result, now time.Time)) (Result, error) {
	r, err := svc.GetProgress(ctx, userID, courseID)
	if err != nil {
		return Result{}, err
	}
	now := core.Now()
	fn(&r, now)
	r.UpdatedAt = now
	return svc.repo.UpdateResult(ctx, r)
}

func (svc *service) shuffle(n int, swap func(i, j int)) {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	svc.rnd.Shuffle(n, swap)
}
