package dummydb

import (
	"context"
	"sort"

	"github.com/eduenglish/backend/core/course"
)

type courseRepository struct {
	db *courseTable
}

var _ course.Repository = (*courseRepository)(nil)

func NewCourseRepository(db *DB) course.Repository {
	return &courseRepository{db: db.course}
}

func (repo *courseRepository) query(filter course.QueryFilter) []course.Course {
	courses := make([]course.Course, 0, len(repo.db.table))
	for _, c := range repo.db.table {
		if filter.Match(*c) {
			courses = append(courses, *c)
		}
	}
	sort.Slice(courses, func(i, j int) bool {
		return newer(courses[i].CreatedAt, courses[i].ID, courses[j].CreatedAt, courses[j].ID)
	})
	return courses
}

func (repo *courseRepository) nameTaken(name, exceptID string) bool {
	for _, c := range repo.db.table {
		if c.ID != exceptID && c.Name == name {
			return true
		}
	}
	return false
}

func (repo *courseRepository) CreateCourse(_ context.Context, c course.Course) (course.Course, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if repo.nameTaken(c.Name, "") {
		return course.Course{}, course.ErrNameExists
	}
	c.ID = newID()
	repo.db.table[c.ID] = &c
	return c, nil
}

func (repo *courseRepository) GetCourseByID(_ context.Context, id string) (course.Course, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if c, ok := repo.db.table[id]; ok {
		return *c, nil
	}
	return course.Course{}, course.ErrNotFound
}

func (repo *courseRepository) FilterCourses(_ context.Context, filter course.QueryFilter) ([]course.Course, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return repo.query(filter), nil
}

func (repo *courseRepository) CountCourses(_ context.Context, filter course.QueryFilter) (int64, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return int64(len(repo.query(filter))), nil
}

func (repo *courseRepository) UpdateCourse(_ context.Context, c course.Course) (course.Course, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[c.ID]; !ok {
		return course.Course{}, course.ErrNotFound
	}
	if repo.nameTaken(c.Name, c.ID) {
		return course.Course{}, course.ErrNameExists
	}
	repo.db.table[c.ID] = &c
	return c, nil
}

func (repo *courseRepository) DeleteCourse(_ context.Context, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[id]; !ok {
		return course.ErrNotFound
	}
	delete(repo.db.table, id)
	return nil
}

type contentRepository struct {
	grammars  *grammarTable
	exercises *exerciseTable
}

var _ course.ContentRepository = (*contentRepository)(nil)

func NewContentRepository(db *DB) course.ContentRepository {
	return &contentRepository{grammars: db.grammar, exercises: db.exercise}
}

func (repo *contentRepository) CreateGrammars(_ context.Context, grammars ...course.Grammar) ([]course.Grammar, error) {
	repo.grammars.Lock()
	defer repo.grammars.Unlock()

	created := make([]course.Grammar, 0, len(grammars))
	for _, g := range grammars {
		g := g
		g.ID = newID()
		repo.grammars.table[g.ID] = &g
		created = append(created, g)
	}
	return created, nil
}

func (repo *contentRepository) GetGrammarsByID(_ context.Context, ids ...string) ([]course.Grammar, error) {
	repo.grammars.RLock()
	defer repo.grammars.RUnlock()

	grammars := make([]course.Grammar, 0, len(ids))
	for _, id := range ids {
		if g, ok := repo.grammars.table[id]; ok {
			grammars = append(grammars, *g)
		}
	}
	return grammars, nil
}

func (repo *contentRepository) DeleteGrammarsByID(_ context.Context, ids ...string) error {
	repo.grammars.Lock()
	defer repo.grammars.Unlock()
	for _, id := range ids {
		delete(repo.grammars.table, id)
	}
	return nil
}

func (repo *contentRepository) CreateExercises(_ context.Context, exercises ...course.Exercise) ([]course.Exercise, error) {
	repo.exercises.Lock()
	defer repo.exercises.Unlock()

	created := make([]course.Exercise, 0, len(exercises))
	for _, e := range exercises {
		e := e
		e.ID = newID()
		repo.exercises.table[e.ID] = &e
		created = append(created, e)
	}
	return created, nil
}

func (repo *contentRepository) GetExercisesByID(_ context.Context, ids ...string) ([]course.Exercise, error) {
	repo.exercises.RLock()
	defer repo.exercises.RUnlock()

	exercises := make([]course.Exercise, 0, len(ids))
	for _, id := range ids {
		if e, ok := repo.exercises.table[id]; ok {
			exercises = append(exercises, *e)
		}
	}
	return exercises, nil
}

func (repo *contentRepository) DeleteExercisesByID(_ context.Context, ids ...string) error {
	repo.exercises.Lock()
	defer repo.exercises.Unlock()
	for _, id := range ids {
		delete(repo.exercises.table, id)
	}
	return nil
}
