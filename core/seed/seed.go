// Package seed creates the initial data of a deployment: the admin account, a sample course and demo learners.
package seed

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/eduenglish/backend/core"
	"github.com/eduenglish/backend/core/course"
	"github.com/eduenglish/backend/core/user"
	"github.com/eduenglish/backend/core/vocabulary"
)

const (
	DemoEmailSuffix = "demo.com"
	demoUsers       = 5
	demoPassword    = "Learn-2024"

	SampleCourseName = "English for Beginners"
)

type Seeder struct {
	conf      *core.Config
	userSvc   user.Service
	courseSvc course.Service
	logger    core.Logger
}

func New(conf *core.Config, userSvc user.Service, courseSvc course.Service, logger core.Logger) *Seeder {
	return &Seeder{
		conf:      conf,
		userSvc:   userSvc,
		courseSvc: courseSvc,
		logger:    logger,
	}
}

// Run seeds the admin account and the sample course, plus the demo learners when demo is set.
func (s *Seeder) Run(ctx context.Context, demo bool) error {
	admin, err := s.Admin(ctx)
	if err != nil {
		return err
	}
	if _, err = s.SampleCourse(ctx, admin); err != nil {
		return err
	}
	if demo {
		if _, err = s.DemoUsers(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Admin returns the configured admin account, creating it when missing.
func (s *Seeder) Admin(ctx context.Context) (user.User, error) {
	admin, err := s.userSvc.GetByEmail(ctx, s.conf.Admin.Email)
	if err == nil {
		return admin, nil
	}
	if errors.Cause(err) != user.ErrNotFound {
		return user.User{}, errors.Wrap(err, "getting admin")
	}
	if s.conf.Admin.Password == "" {
		return user.User{}, errors.New("admin password is not configured")
	}

	nu := user.NewUser{Username: s.conf.Admin.Username, Email: s.conf.Admin.Email, Password: s.conf.Admin.Password}
	admin, err = s.userSvc.Create(ctx, nu, user.RoleAdmin, true)
	if err != nil {
		return user.User{}, errors.Wrap(err, "creating admin")
	}
	s.logger.Info("admin account created: " + admin.Email)
	return admin, nil
}

// SampleCourse creates the sample course unless a course with its name exists.
func (s *Seeder) SampleCourse(ctx context.Context, admin user.User) (bool, error) {
	n, err := s.courseSvc.Count(ctx, course.QueryFilter{Name: SampleCourseName})
	if err != nil {
		return false, errors.Wrap(err, "counting courses")
	}
	if n > 0 {
		return false, nil
	}
	if _, err = s.courseSvc.Create(ctx, sampleCourse(), admin); err != nil {
		return false, errors.Wrap(err, "creating sample course")
	}
	s.logger.Info("sample course created: " + SampleCourseName)
	return true, nil
}

// DemoUsers creates the demo learners unless some already exist. It returns the number created.
func (s *Seeder) DemoUsers(ctx context.Context) (int, error) {
	n, err := s.userSvc.Count(ctx, user.QueryFilter{EmailSuffix: "@" + DemoEmailSuffix})
	if err != nil {
		return 0, errors.Wrap(err, "counting demo users")
	}
	if n > 0 {
		return 0, nil
	}

	created := 0
	for i := 1; i <= demoUsers; i++ {
		nu := user.NewUser{
			Username: fmt.Sprintf("demo_user_%d", i),
			Email:    fmt.Sprintf("user%d@%s", i, DemoEmailSuffix),
			Password: demoPassword,
		}
		isActive := i != 3 && i != 5
		if _, err = s.userSvc.Create(ctx, nu, user.RoleUser, isActive); err != nil {
			return created, errors.Wrapf(err, "creating %s", nu.Email)
		}
		created++
	}
	s.logger.Info(fmt.Sprintf("%d demo users created", created))
	return created, nil
}

// CleanupDemoUsers deletes the demo accounts and returns how many were deleted and how many learners remain.
func (s *Seeder) CleanupDemoUsers(ctx context.Context) (int64, int64, error) {
	deleted, err := s.userSvc.Delete(ctx, user.QueryFilter{EmailSuffix: DemoEmailSuffix})
	if err != nil {
		return 0, 0, errors.Wrap(err, "deleting demo users")
	}
	remaining, err := s.userSvc.Count(ctx, user.QueryFilter{Role: user.RoleUser})
	if err != nil {
		return deleted, 0, errors.Wrap(err, "counting learners")
	}
	return deleted, remaining, nil
}

func sampleCourse() course.NewCourse {
	return course.NewCourse{
		Name:        SampleCourseName,
		Description: "A first English course: greetings, everyday words and the basics of grammar.",
		Level:       course.LevelBeginner,
		Image:       course.DefaultImage,
		Duration:    20,
		IsPublished: true,
		Vocabularies: []vocabulary.NewVocabulary{
			{Word: "hello", Meaning: "xin chào", Example: "Hello, how are you?", Pronunciation: "/həˈloʊ/", PartOfSpeech: "interjection"},
			{Word: "book", Meaning: "cuốn sách", Example: "I am reading a book", Pronunciation: "/bʊk/", PartOfSpeech: "noun"},
			{Word: "study", Meaning: "học tập", Example: "I study English every day", Pronunciation: "/ˈstʌdi/", PartOfSpeech: "verb"},
		},
		Grammars: []course.NewGrammar{
			{
				Topic:          "Present Simple",
				Explanation:    "The present simple describes habits and general truths.",
				Example:        "I go to school every day",
				Rules:          []string{"Subject + V(s/es)", "Subject + do/does + not + V"},
				CommonMistakes: []string{"Forgetting s/es with he, she and it"},
			},
			{
				Topic:          "Articles (a, an, the)",
				Explanation:    "Articles come before nouns.",
				Example:        "I have a book. The book is interesting.",
				Rules:          []string{"a/an + singular countable noun", "the + specific noun"},
				CommonMistakes: []string{"Using a before a vowel sound"},
			},
		},
		Exercises: []course.NewExercise{
			{
				Question:      "Choose the correct form: I ___ to school every day.",
				Type:          course.TypeMultipleChoice,
				Options:       []string{"go", "goes", "going", "went"},
				CorrectAnswer: "go",
				Explanation:   "With the subject 'I' the verb takes its base form.",
				Difficulty:    course.DifficultyEasy,
				Points:        10,
			},
			{
				Question:      "Fill in the blank: She ___ English very well.",
				Type:          course.TypeFillIn,
				Options:       []string{"speak", "speaks", "speaking", "spoke"},
				CorrectAnswer: "speaks",
				Explanation:   "With 'She' (third person singular) the verb takes an s.",
				Difficulty:    course.DifficultyMedium,
				Points:        15,
			},
		},
	}
}
