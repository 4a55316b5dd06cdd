package course

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/eduenglish/backend/core"
	"github.com/eduenglish/backend/core/vocabulary"
)

// Levels
const (
	LevelBeginner     = "Beginner"
	LevelIntermediate = "Intermediate"
	LevelAdvanced     = "Advanced"
)

// Exercise types
const (
	TypeQuiz           = "quiz"
	TypeFillIn         = "fill-in"
	TypeMultipleChoice = "multiple-choice"
	TypeTrueFalse      = "true-false"
	TypeMatching       = "matching"
)

// Difficulties
const (
	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"
)

const (
	DefaultImage          = "https://images.unsplash.com/photo-1546410531-bb4caa6b424d?w=800"
	DefaultExercisePoints = 10
)

var (
	Levels        = []string{LevelBeginner, LevelIntermediate, LevelAdvanced}
	ExerciseTypes = []string{TypeQuiz, TypeFillIn, TypeMultipleChoice, TypeTrueFalse, TypeMatching}
	Difficulties  = []string{DifficultyEasy, DifficultyMedium, DifficultyHard}
)

type (
	Course struct {
		ID            string    `json:"_id"`
		Name          string    `json:"name"`
		Title         string    `json:"title"`
		Description   string    `json:"description"`
		Level         string    `json:"level"`
		Image         string    `json:"image"`
		VocabularyIDs []string  `json:"vocabularies"`
		GrammarIDs    []string  `json:"grammars"`
		ExerciseIDs   []string  `json:"exercises"`
		Duration      float64   `json:"duration"` // hours
		TotalLessons  int       `json:"totalLessons"`
		IsPublished   bool      `json:"isPublished"`
		CreatedBy     string    `json:"createdBy,omitempty"`
		CreatedAt     time.Time `json:"createdAt"` // UTC
		UpdatedAt     time.Time `json:"updatedAt"` // UTC
	}

	Grammar struct {
		ID             string    `json:"_id"`
		Topic          string    `json:"topic"`
		Explanation    string    `json:"explanation"`
		Example        string    `json:"example"`
		Rules          []string  `json:"rules"`
		CommonMistakes []string  `json:"commonMistakes"`
		CreatedAt      time.Time `json:"createdAt"` // UTC
		UpdatedAt      time.Time `json:"updatedAt"` // UTC
	}

	Exercise struct {
		ID            string    `json:"_id"`
		Question      string    `json:"question"`
		Type          string    `json:"type"`
		Options       []string  `json:"options"`
		CorrectAnswer string    `json:"correctAnswer"`
		Explanation   string    `json:"explanation"`
		Difficulty    string    `json:"difficulty"`
		Points        int       `json:"points"`
		CreatedAt     time.Time `json:"createdAt"` // UTC
		UpdatedAt     time.Time `json:"updatedAt"` // UTC
	}

	Counts struct {
		TotalItems      int `json:"totalItems"`
		VocabularyCount int `json:"vocabularyCount"`
		GrammarCount    int `json:"grammarCount"`
		ExerciseCount   int `json:"exerciseCount"`
	}

	// Summary is a Course as listed: references plus content counts.
	Summary struct {
		Course
		Counts
	}

	// Detail is a Course with its content populated in reference order.
	Detail struct {
		Course
		Vocabularies []vocabulary.Vocabulary `json:"vocabularies"`
		Grammars     []Grammar               `json:"grammars"`
		Exercises    []Exercise              `json:"exercises"`
		TotalItems   int                     `json:"totalItems"`
	}
)

// DisplayTitle falls back to the name when no title is set.
func (c Course) DisplayTitle() string {
	if c.Title != "" {
		return c.Title
	}
	if c.Name != "" {
		return c.Name
	}
	return "English Course"
}

func (c Course) ContentCounts() Counts {
	return Counts{
		TotalItems:      len(c.VocabularyIDs) + len(c.GrammarIDs) + len(c.ExerciseIDs),
		VocabularyCount: len(c.VocabularyIDs),
		GrammarCount:    len(c.GrammarIDs),
		ExerciseCount:   len(c.ExerciseIDs),
	}
}

func (c Course) Summary() Summary {
	c.Title = c.DisplayTitle()
	return Summary{Course: c, Counts: c.ContentCounts()}
}

// ExercisesByLevel returns the points and difficulty of exercises generated for level.
func ExercisesByLevel(level string) (int, string) {
	switch level {
	case LevelBeginner:
		return 5, DifficultyEasy
	case LevelIntermediate:
		return 10, DifficultyMedium
	default:
		return 15, DifficultyHard
	}
}

type NewGrammar struct {
	Topic          string   `json:"topic"`
	Explanation    string   `json:"explanation"`
	Example        string   `json:"example"`
	Rules          []string `json:"rules"`
	CommonMistakes []string `json:"commonMistakes"`
}

func (ng NewGrammar) IsComplete() bool {
	return strings.TrimSpace(ng.Topic) != "" && strings.TrimSpace(ng.Explanation) != ""
}

func (ng NewGrammar) Grammar(now time.Time) Grammar {
	return Grammar{
		Topic:          core.CleanString(ng.Topic),
		Explanation:    core.CleanString(ng.Explanation),
		Example:        core.CleanString(ng.Example),
		Rules:          cleanStrings(ng.Rules),
		CommonMistakes: cleanStrings(ng.CommonMistakes),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

type NewExercise struct {
	Question      string   `json:"question"`
	Type          string   `json:"type"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correctAnswer"`
	Explanation   string   `json:"explanation"`
	Difficulty    string   `json:"difficulty"`
	Points        int      `json:"points"`
}

func (ne NewExercise) IsComplete() bool {
	return strings.TrimSpace(ne.Question) != "" && strings.TrimSpace(ne.CorrectAnswer) != ""
}

// Exercise builds the Exercise to insert; unknown type and difficulty fall back to their defaults.
func (ne NewExercise) Exercise(now time.Time) Exercise {
	ex := Exercise{
		Question:      core.CleanString(ne.Question),
		Type:          core.CleanString(ne.Type, true /* lower */),
		Options:       cleanStrings(ne.Options),
		CorrectAnswer: core.CleanString(ne.CorrectAnswer),
		Explanation:   core.CleanString(ne.Explanation),
		Difficulty:    core.CleanString(ne.Difficulty, true /* lower */),
		Points:        ne.Points,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if !core.StringsContain(ExerciseTypes, ex.Type) {
		ex.Type = TypeQuiz
	}
	if !core.StringsContain(Difficulties, ex.Difficulty) {
		ex.Difficulty = DifficultyMedium
	}
	if ex.Points <= 0 {
		ex.Points = DefaultExercisePoints
	}
	return ex
}

// NewCourse contains information needed to create a new Course.
type NewCourse struct {
	Name         string                     `json:"name" validate:"required,notblank"`
	Title        string                     `json:"title"`
	Description  string                     `json:"description"`
	Level        string                     `json:"level" validate:"required,level"`
	Image        string                     `json:"image" validate:"omitempty,courseimage"`
	Duration     float64                    `json:"duration" validate:"min=0"`
	TotalLessons int                        `json:"totalLessons" validate:"min=0"`
	IsPublished  bool                       `json:"isPublished"`
	Vocabularies []vocabulary.NewVocabulary `json:"vocabularies"`
	Grammars     []NewGrammar               `json:"grammars"`
	Exercises    []NewExercise              `json:"exercises"`
}

func (nc *NewCourse) Validate(validate *validator.Validate) error {
	nc.Name = core.CleanString(nc.Name)
	nc.Title = core.CleanString(nc.Title)
	nc.Description = core.CleanString(nc.Description)
	nc.Level = core.CleanString(nc.Level)
	nc.Image = core.CleanString(nc.Image)
	return validate.Struct(nc)
}

// UpdateCourse defines what information may be provided to modify an existing Course.
// A content list present in the payload replaces the existing content.
type UpdateCourse struct {
	Name         *string                    `json:"name" validate:"omitempty,notblank"`
	Title        *string                    `json:"title"`
	Description  *string                    `json:"description"`
	Level        *string                    `json:"level" validate:"omitempty,level"`
	Image        *string                    `json:"image" validate:"omitempty,courseimage"`
	Duration     *float64                   `json:"duration" validate:"omitempty,min=0"`
	TotalLessons *int                       `json:"totalLessons" validate:"omitempty,min=0"`
	IsPublished  *bool                      `json:"isPublished"`
	Vocabularies []vocabulary.NewVocabulary `json:"vocabularies"`
	Grammars     []NewGrammar               `json:"grammars"`
	Exercises    []NewExercise              `json:"exercises"`
}

func (uc *UpdateCourse) Validate(validate *validator.Validate) error {
	for _, s := range []*string{uc.Name, uc.Title, uc.Description, uc.Level, uc.Image} {
		if s != nil {
			*s = core.CleanString(*s)
		}
	}
	return validate.Struct(uc)
}

func (uc UpdateCourse) apply(c *Course) {
	if uc.Name != nil {
		c.Name = *uc.Name
	}
	if uc.Title != nil {
		c.Title = *uc.Title
	}
	if uc.Description != nil {
		c.Description = *uc.Description
	}
	if uc.Level != nil {
		c.Level = *uc.Level
	}
	if uc.Image != nil {
		c.Image = *uc.Image
	}
	if uc.Duration != nil {
		c.Duration = *uc.Duration
	}
	if uc.TotalLessons != nil {
		c.TotalLessons = *uc.TotalLessons
	}
	if uc.IsPublished != nil {
		c.IsPublished = *uc.IsPublished
	}
}

type QueryFilter struct {
	Level       string    `query:"level"`
	IsPublished *bool     `query:"-"`
	Name        string    `query:"-"`
	CreatedFrom time.Time `query:"-"`
}

func (qf *QueryFilter) Clean() {
	qf.Level = core.CleanString(qf.Level)
	qf.Name = core.CleanString(qf.Name)
}

// Match reports whether c satisfies the filter.
func (qf QueryFilter) Match(c Course) bool {
	if qf.Level != "" && c.Level != qf.Level {
		return false
	}
	if qf.IsPublished != nil && c.IsPublished != *qf.IsPublished {
		return false
	}
	if qf.Name != "" && c.Name != qf.Name {
		return false
	}
	if !qf.CreatedFrom.IsZero() && c.CreatedAt.Before(qf.CreatedFrom) {
		return false
	}
	return true
}

func cleanStrings(list []string) []string {
	cleaned := make([]string, 0, len(list))
	for _, s := range list {
		if s = core.CleanString(s); s != "" {
			cleaned = append(cleaned, s)
		}
	}
	return cleaned
}
