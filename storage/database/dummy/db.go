// Package dummydb holds in-memory repositories, used by tests.
package dummydb

import (
	"context"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/eduenglish/backend/core"
	"github.com/eduenglish/backend/core/course"
	"github.com/eduenglish/backend/core/grammar"
	"github.com/eduenglish/backend/core/result"
	"github.com/eduenglish/backend/core/user"
	"github.com/eduenglish/backend/core/vocabulary"
)

type (
	DB struct {
		user       *userTable
		vocabulary *vocabularyTable
		course     *courseTable
		grammar    *grammarTable
		exercise   *exerciseTable
		result     *resultTable
		check      *checkTable
	}

	userTable struct {
		sync.RWMutex
		table map[string]*user.User
	}

	vocabularyTable struct {
		sync.RWMutex
		table map[string]*vocabulary.Vocabulary
	}

	courseTable struct {
		sync.RWMutex
		table map[string]*course.Course
	}

	grammarTable struct {
		sync.RWMutex
		table map[string]*course.Grammar
	}

	exerciseTable struct {
		sync.RWMutex
		table map[string]*course.Exercise
	}

	resultTable struct {
		sync.RWMutex
		table map[string]*result.Result
	}

	checkTable struct {
		sync.RWMutex
		table map[string]*grammar.Check
	}
)

func Open() (*DB, error) {
	db := &DB{
		user:       &userTable{},
		vocabulary: &vocabularyTable{},
		course:     &courseTable{},
		grammar:    &grammarTable{},
		exercise:   &exerciseTable{},
		result:     &resultTable{},
		check:      &checkTable{},
	}
	db.Reset()
	return db, nil
}

// Reset empties every table.
func (db *DB) Reset() {
	db.user.Lock()
	db.user.table = make(map[string]*user.User)
	db.user.Unlock()

	db.vocabulary.Lock()
	db.vocabulary.table = make(map[string]*vocabulary.Vocabulary)
	db.vocabulary.Unlock()

	db.course.Lock()
	db.course.table = make(map[string]*course.Course)
	db.course.Unlock()

	db.grammar.Lock()
	db.grammar.table = make(map[string]*course.Grammar)
	db.grammar.Unlock()

	db.exercise.Lock()
	db.exercise.table = make(map[string]*course.Exercise)
	db.exercise.Unlock()

	db.result.Lock()
	db.result.table = make(map[string]*result.Result)
	db.result.Unlock()

	db.check.Lock()
	db.check.table = make(map[string]*grammar.Check)
	db.check.Unlock()
}

// Ping always succeeds.
func (db *DB) Ping(context.Context) error {
	return nil
}

// newID returns a new document id; ids grow with time like mongo ObjectIDs.
func newID() string {
	return primitive.NewObjectID().Hex()
}

// newer reports whether a document created at ti with id idi sorts before one created at tj with id idj.
func newer(ti time.Time, idi string, tj time.Time, idj string) bool {
	if ti.Equal(tj) {
		return idi > idj
	}
	return ti.After(tj)
}

// paginate returns the page of n items as [start, end) bounds; a nil page covers all items.
func paginate(n int, page *core.Pagination) (int, int) {
	if page == nil {
		return 0, n
	}
	return page.Window(n)
}
