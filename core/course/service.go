package course

import (
	"context"
	"math/rand"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/eduenglish/backend/core"
	"github.com/eduenglish/backend/core/user"
	"github.com/eduenglish/backend/core/vocabulary"
)

var (
	// errors
	ErrNotFound    = core.NewNotFoundError("Course not found")
	ErrNameExists  = errors.New("A course with this name already exists")
	ErrNoExercises = core.NewNotFoundError("No exercises found")

	errUnknownSource = errors.New("source must be one of: " + strings.Join(GenerationSources, ", "))
	ErrUnknownSource = core.NewValidationError(errUnknownSource, core.FieldError{Field: "source", Error: errUnknownSource.Error()})
)

type (
	Repository interface {
		// CreateCourse returns ErrNameExists when the name is taken.
		CreateCourse(ctx context.Context, c Course) (Course, error)
		GetCourseByID(ctx context.Context, id string) (Course, error)
		// FilterCourses returns the matching courses, newest first.
		FilterCourses(ctx context.Context, filter QueryFilter) ([]Course, error)
		CountCourses(ctx context.Context, filter QueryFilter) (int64, error)
		// UpdateCourse returns ErrNameExists when the new name is taken.
		UpdateCourse(ctx context.Context, c Course) (Course, error)
		DeleteCourse(ctx context.Context, id string) error
	}

	// ContentRepository stores the grammars and exercises referenced by courses.
	// The GetXByID methods return the found documents in the order of ids.
	ContentRepository interface {
		CreateGrammars(ctx context.Context, grammars ...Grammar) ([]Grammar, error)
		GetGrammarsByID(ctx context.Context, ids ...string) ([]Grammar, error)
		DeleteGrammarsByID(ctx context.Context, ids ...string) error
		CreateExercises(ctx context.Context, exercises ...Exercise) ([]Exercise, error)
		GetExercisesByID(ctx context.Context, ids ...string) ([]Exercise, error)
		DeleteExercisesByID(ctx context.Context, ids ...string) error
	}

	Service interface {
		// Query lists course summaries.
		Query(ctx context.Context, filter QueryFilter) ([]Summary, error)
		Filter(ctx context.Context, filter QueryFilter) ([]Course, error)
		Count(ctx context.Context, filter QueryFilter) (int64, error)
		// GetByID returns the course with its unpopulated references.
		GetByID(ctx context.Context, id string) (Course, error)
		GetDetail(ctx context.Context, id string) (Detail, error)
		// Exercises returns the course exercises in reference order.
		Exercises(ctx context.Context, id string) ([]Exercise, error)
		Create(ctx context.Context, nc NewCourse, caller user.User) (Detail, error)
		Update(ctx context.Context, id string, uc UpdateCourse) (Detail, error)
		Delete(ctx context.Context, id string) error
		// GenerateExercises appends exercises generated from the course vocabulary, grammar or both.
		GenerateExercises(ctx context.Context, id, source string) (Detail, int, error)
	}

	service struct {
		repo      Repository
		content   ContentRepository
		vocabRepo vocabulary.Repository
		shuffle   ShuffleFunc
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, content ContentRepository, vocabRepo vocabulary.Repository) Service {
	rnd := rand.New(rand.NewSource(time.Now().UnixNano()))
	return &service{
		repo:      repo,
		content:   content,
		vocabRepo: vocabRepo,
		shuffle:   lockedShuffle(rnd),
	}
}

func (svc *service) Query(ctx context.Context, filter QueryFilter) ([]Summary, error) {
	courses, err := svc.Filter(ctx, filter)
	if err != nil {
		return nil, err
	}
	summaries := make([]Summary, 0, len(courses))
	for _, c := range courses {
		summaries = append(summaries, c.Summary())
	}
	return summaries, nil
}

func (svc *service) Filter(ctx context.Context, filter QueryFilter) ([]Course, error) {
	filter.Clean()
	courses, err := svc.repo.FilterCourses(ctx, filter)
	if err != nil {
		return nil, errors.Wrap(err, "filtering courses")
	}
	return courses, nil
}

func (svc *service) Count(ctx context.Context, filter QueryFilter) (int64, error) {
	filter.Clean()
	return svc.repo.CountCourses(ctx, filter)
}

func (svc *service) GetByID(ctx context.Context, id string) (Course, error) {
	if !core.IsValidID(id) {
		return Course{}, ErrNotFound
	}
	return svc.repo.GetCourseByID(ctx, id)
}

func (svc *service) GetDetail(ctx context.Context, id string) (Detail, error) {
	c, err := svc.GetByID(ctx, id)
	if err != nil {
		return Detail{}, err
	}
	return svc.populate(ctx, c)
}

func (svc *service) Exercises(ctx context.Context, id string) ([]Exercise, error) {
	c, err := svc.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	exercises, err := svc.content.GetExercisesByID(ctx, c.ExerciseIDs...)
	if err != nil {
		return nil, errors.Wrap(err, "getting exercises")
	}
	if len(exercises) == 0 {
		return nil, ErrNoExercises
	}
	return exercises, nil
}

func (svc *service) Create(ctx context.Context, nc NewCourse, caller user.User) (Detail, error) {
	if err := svc.checkName(ctx, nc.Name, ""); err != nil {
		return Detail{}, err
	}

	now := core.Now()
	c := Course{
		Name:        nc.Name,
		Title:       nc.Title,
		Description: nc.Description,
		Level:       nc.Level,
		Image:       nc.Image,
		Duration:    nc.Duration,
		IsPublished: nc.IsPublished,
		CreatedBy:   caller.ID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if c.Title == "" {
		c.Title = c.Name
	}
	if c.Image == "" {
		c.Image = DefaultImage
	}

	var err error
	if c.VocabularyIDs, err = svc.createVocabularies(ctx, nc.Vocabularies, now); err != nil {
		return Detail{}, err
	}
	if c.GrammarIDs, err = svc.createGrammars(ctx, nc.Grammars, now); err != nil {
		svc.deleteContent(ctx, Course{VocabularyIDs: c.VocabularyIDs})
		return Detail{}, err
	}
	if c.ExerciseIDs, err = svc.createExercises(ctx, nc.Exercises, now); err != nil {
		svc.deleteContent(ctx, Course{VocabularyIDs: c.VocabularyIDs, GrammarIDs: c.GrammarIDs})
		return Detail{}, err
	}

	c.TotalLessons = nc.TotalLessons
	if c.TotalLessons == 0 {
		c.TotalLessons = c.ContentCounts().TotalItems
	}

	created, err := svc.repo.CreateCourse(ctx, c)
	if err != nil {
		svc.deleteContent(ctx, c)
		return Detail{}, nameError(err, "creating course")
	}
	return svc.populate(ctx, created)
}

func (svc *service) Update(ctx context.Context, id string, uc UpdateCourse) (Detail, error) {
	c, err := svc.GetByID(ctx, id)
	if err != nil {
		return Detail{}, err
	}
	if uc.Name != nil && *uc.Name != c.Name {
		if err = svc.checkName(ctx, *uc.Name, c.ID); err != nil {
			return Detail{}, err
		}
	}

	now := core.Now()
	old := Course{}   // content to delete once the course is saved
	fresh := Course{} // content to delete if it is not
	uc.apply(&c)
	if uc.Vocabularies != nil {
		old.VocabularyIDs = c.VocabularyIDs
		if fresh.VocabularyIDs, err = svc.createVocabularies(ctx, uc.Vocabularies, now); err != nil {
			return Detail{}, err
		}
		c.VocabularyIDs = fresh.VocabularyIDs
	}
	if uc.Grammars != nil {
		old.GrammarIDs = c.GrammarIDs
		if fresh.GrammarIDs, err = svc.createGrammars(ctx, uc.Grammars, now); err != nil {
			svc.deleteContent(ctx, fresh)
			return Detail{}, err
		}
		c.GrammarIDs = fresh.GrammarIDs
	}
	if uc.Exercises != nil {
		old.ExerciseIDs = c.ExerciseIDs
		if fresh.ExerciseIDs, err = svc.createExercises(ctx, uc.Exercises, now); err != nil {
			svc.deleteContent(ctx, fresh)
			return Detail{}, err
		}
		c.ExerciseIDs = fresh.ExerciseIDs
	}
	c.UpdatedAt = now

	updated, err := svc.repo.UpdateCourse(ctx, c)
	if err != nil {
		svc.deleteContent(ctx, fresh)
		return Detail{}, nameError(err, "updating course")
	}
	svc.deleteContent(ctx, old)
	return svc.populate(ctx, updated)
}

func (svc *service) Delete(ctx context.Context, id string) error {
	c, err := svc.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err = svc.repo.DeleteCourse(ctx, c.ID); err != nil {
		return errors.Wrap(err, "deleting course")
	}
	svc.deleteContent(ctx, c)
	return nil
}

func (svc *service) GenerateExercises(ctx context.Context, id, source string) (Detail, int, error) {
	if source == "" {
		source = SourceVocabulary
	}
	if !isSource(source) {
		return Detail{}, 0, ErrUnknownSource
	}
	detail, err := svc.GetDetail(ctx, id)
	if err != nil {
		return Detail{}, 0, err
	}
	var generated []NewExercise
	if source == SourceVocabulary || source == SourceAll {
		generated = append(generated, GenerateVocabularyExercises(detail.Vocabularies, detail.Level, svc.shuffle)...)
	}
	if source == SourceGrammar || source == SourceAll {
		generated = append(generated, GenerateGrammarExercises(detail.Grammars, detail.Level, svc.shuffle)...)
	}
	if len(generated) == 0 {
		return detail, 0, nil
	}

	now := core.Now()
	ids, err := svc.createExercises(ctx, generated, now)
	if err != nil {
		return Detail{}, 0, err
	}
	c := detail.Course
	c.ExerciseIDs = append(c.ExerciseIDs, ids...)
	c.UpdatedAt = now
	if c, err = svc.repo.UpdateCourse(ctx, c); err != nil {
		return Detail{}, 0, errors.Wrap(err, "updating course")
	}
	detail, err = svc.populate(ctx, c)
	return detail, len(ids), err
}

func (svc *service) populate(ctx context.Context, c Course) (Detail, error) {
	vocabs, err := svc.vocabRepo.GetVocabulariesByID(ctx, c.VocabularyIDs...)
	if err != nil {
		return Detail{}, errors.Wrap(err, "getting vocabularies")
	}
	grammars, err := svc.content.GetGrammarsByID(ctx, c.GrammarIDs...)
	if err != nil {
		return Detail{}, errors.Wrap(err, "getting grammars")
	}
	exercises, err := svc.content.GetExercisesByID(ctx, c.ExerciseIDs...)
	if err != nil {
		return Detail{}, errors.Wrap(err, "getting exercises")
	}

	if vocabs == nil {
		vocabs = []vocabulary.Vocabulary{}
	}
	if grammars == nil {
		grammars = []Grammar{}
	}
	if exercises == nil {
		exercises = []Exercise{}
	}
	c.Title = c.DisplayTitle()
	return Detail{
		Course:       c,
		Vocabularies: vocabs,
		Grammars:     grammars,
		Exercises:    exercises,
		TotalItems:   len(vocabs) + len(grammars) + len(exercises),
	}, nil
}

// checkName fails when another course than exceptID is named name.
func (svc *service) checkName(ctx context.Context, name, exceptID string) error {
	courses, err := svc.repo.FilterCourses(ctx, QueryFilter{Name: name})
	if err != nil {
		return errors.Wrap(err, "filtering courses")
	}
	for _, c := range courses {
		if c.ID != exceptID {
			return nameError(ErrNameExists, "")
		}
	}
	return nil
}

func (svc *service) createVocabularies(ctx context.Context, items []vocabulary.NewVocabulary, now time.Time) ([]string, error) {
	var vocabs []vocabulary.Vocabulary
	for _, nv := range items {
		if nv.IsComplete() {
			vocabs = append(vocabs, nv.Vocabulary(now))
		}
	}
	if len(vocabs) == 0 {
		return []string{}, nil
	}
	vocabs, err := svc.vocabRepo.CreateVocabularies(ctx, vocabs...)
	if err != nil {
		return nil, errors.Wrap(err, "creating vocabularies")
	}
	ids := make([]string, 0, len(vocabs))
	for _, v := range vocabs {
		ids = append(ids, v.ID)
	}
	return ids, nil
}

func (svc *service) createGrammars(ctx context.Context, items []NewGrammar, now time.Time) ([]string, error) {
	var grammars []Grammar
	for _, ng := range items {
		if ng.IsComplete() {
			grammars = append(grammars, ng.Grammar(now))
		}
	}
	if len(grammars) == 0 {
		return []string{}, nil
	}
	grammars, err := svc.content.CreateGrammars(ctx, grammars...)
	if err != nil {
		return nil, errors.Wrap(err, "creating grammars")
	}
	ids := make([]string, 0, len(grammars))
	for _, g := range grammars {
		ids = append(ids, g.ID)
	}
	return ids, nil
}

func (svc *service) createExercises(ctx context.Context, items []NewExercise, now time.Time) ([]string, error) {
	var exercises []Exercise
	for _, ne := range items {
		if ne.IsComplete() {
			exercises = append(exercises, ne.Exercise(now))
		}
	}
	if len(exercises) == 0 {
		return []string{}, nil
	}
	exercises, err := svc.content.CreateExercises(ctx, exercises...)
	if err != nil {
		return nil, errors.Wrap(err, "creating exercises")
	}
	ids := make([]string, 0, len(exercises))
	for _, e := range exercises {
		ids = append(ids, e.ID)
	}
	return ids, nil
}

// deleteContent removes the documents referenced by c. Failures leave orphans behind and are ignored.
func (svc *service) deleteContent(ctx context.Context, c Course) {
	if len(c.VocabularyIDs) > 0 {
		_ = svc.vocabRepo.DeleteVocabulariesByID(ctx, c.VocabularyIDs...)
	}
	if len(c.GrammarIDs) > 0 {
		_ = svc.content.DeleteGrammarsByID(ctx, c.GrammarIDs...)
	}
	if len(c.ExerciseIDs) > 0 {
		_ = svc.content.DeleteExercisesByID(ctx, c.ExerciseIDs...)
	}
}

func nameError(err error, msg string) error {
	if errors.Cause(err) == ErrNameExists {
		return core.NewValidationError(ErrNameExists, core.FieldError{Field: "name", Error: ErrNameExists.Error()})
	}
	return errors.Wrap(err, msg)
}

func isSource(s string) bool {
	for _, src := range GenerationSources {
		if s == src {
			return true
		}
	}
	return false
}
