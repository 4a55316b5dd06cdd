package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/eduenglish/backend/core"
	"github.com/eduenglish/backend/core/course"
	"github.com/eduenglish/backend/core/result"
	"github.com/eduenglish/backend/core/user"
	"github.com/eduenglish/backend/core/vocabulary"
	"github.com/eduenglish/backend/storage/database/dummy"
)

// NewValidator returns a validator with every custom validation registered, and its english translator.
func NewValidator() (*validator.Validate, ut.Translator) {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")

	validate := validator.New()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	vocabulary.InitValidators(validate, translator)
	course.InitValidators(validate, translator)
	return validate, translator
}

func OpenDB() *dummydb.DB {
	db, err := dummydb.Open()
	if err != nil {
		panic(err)
	}
	return db
}

func ResetDB(t *testing.T, db *dummydb.DB) {
	t.Helper()
	db.Reset()
}

func timestamp(createdAt []time.Time) time.Time {
	if len(createdAt) > 0 {
		return createdAt[0].UTC().Truncate(time.Millisecond)
	}
	return core.Now()
}

func CreateUser(
	t *testing.T,
	repo user.Repository,
	uname, email, pwd, role string,
	isActive bool,
	createdAt ...time.Time,
) user.User {
	t.Helper()
	tstamp := timestamp(createdAt)
	usr := user.User{
		Username:  uname,
		Email:     email,
		Role:      role,
		IsActive:  isActive,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	if usr.Role == "" {
		usr.Role = user.RoleUser
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

func CreateVocabulary(
	t *testing.T,
	repo vocabulary.Repository,
	word, meaning, pos, userID string,
	favourite bool,
	createdAt ...time.Time,
) vocabulary.Vocabulary {
	t.Helper()
	tstamp := timestamp(createdAt)
	vocabs, err := repo.CreateVocabularies(context.Background(), vocabulary.Vocabulary{
		Word:         word,
		Meaning:      meaning,
		PartOfSpeech: pos,
		Favourite:    favourite,
		UserID:       userID,
		CreatedAt:    tstamp,
		UpdatedAt:    tstamp,
	})
	if err != nil {
		t.Fatalf("CreateVocabulary() failed: %v", err)
	}
	return vocabs[0]
}

// CreateExercises saves exercises and returns their ids, in order.
func CreateExercises(t *testing.T, repo course.ContentRepository, exercises ...course.Exercise) []string {
	t.Helper()
	now := core.Now()
	for i := range exercises {
		exercises[i].CreatedAt, exercises[i].UpdatedAt = now, now
		if exercises[i].Options == nil {
			exercises[i].Options = []string{}
		}
	}
	created, err := repo.CreateExercises(context.Background(), exercises...)
	if err != nil {
		t.Fatalf("CreateExercises() failed: %v", err)
	}
	ids := make([]string, 0, len(created))
	for _, ex := range created {
		ids = append(ids, ex.ID)
	}
	return ids
}

// CreateCourse saves c as is; nil reference lists are saved empty.
func CreateCourse(t *testing.T, repo course.Repository, c course.Course, createdAt ...time.Time) course.Course {
	t.Helper()
	c.CreatedAt = timestamp(createdAt)
	c.UpdatedAt = c.CreatedAt
	if c.Title == "" {
		c.Title = c.Name
	}
	if c.Level == "" {
		c.Level = course.LevelBeginner
	}
	if c.VocabularyIDs == nil {
		c.VocabularyIDs = []string{}
	}
	if c.GrammarIDs == nil {
		c.GrammarIDs = []string{}
	}
	if c.ExerciseIDs == nil {
		c.ExerciseIDs = []string{}
	}
	c, err := repo.CreateCourse(context.Background(), c)
	if err != nil {
		t.Fatalf("CreateCourse() failed: %v", err)
	}
	return c
}

// CreateResult saves the empty result of usr in c, after applying fn to it when given.
func CreateResult(
	t *testing.T,
	repo result.Repository,
	usr user.User,
	c course.Course,
	fn func(r *result.Result, now time.Time),
) result.Result {
	t.Helper()
	now := core.Now()
	r := result.New(usr.ID, c, now)
	if fn != nil {
		fn(&r, now)
	}
	r, err := repo.CreateResult(context.Background(), r)
	if err != nil {
		t.Fatalf("CreateResult() failed: %v", err)
	}
	return r
}
