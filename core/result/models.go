package result

import (
	"math"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/eduenglish/backend/core"
	"github.com/eduenglish/backend/core/course"
)

// Statuses
const (
	StatusNotStarted = "not_started"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusExamReady  = "exam_ready"
)

// Orderings
const (
	OrderOverall     = "overall"
	OrderLastUpdated = "lastUpdated"
	OrderCompletedAt = "completedAt"
)

const (
	// PassPercentage is the minimum exam percentage for a pass; overall progress at that level makes a learner exam-ready.
	PassPercentage = 80

	vocabularyWeight = 0.6
	exerciseWeight   = 0.4
)

var Statuses = []string{StatusNotStarted, StatusInProgress, StatusCompleted, StatusExamReady}

type (
	VocabularyProgress struct {
		Studied    int `json:"studied"`
		Known      int `json:"known"`
		Total      int `json:"total"`
		Percentage int `json:"percentage"`
	}

	GrammarProgress struct {
		Studied    int `json:"studied"`
		Total      int `json:"total"`
		Percentage int `json:"percentage"`
	}

	ExerciseProgress struct {
		Completed  int `json:"completed"`
		Total      int `json:"total"`
		Percentage int `json:"percentage"`
	}

	OverallProgress struct {
		Percentage int `json:"percentage"`
	}

	Progress struct {
		Vocabulary VocabularyProgress `json:"vocabulary"`
		Grammar    GrammarProgress    `json:"grammar"`
		Exercises  ExerciseProgress   `json:"exercises"`
		Overall    OverallProgress    `json:"overall"`
	}

	ExamQuestion struct {
		QuestionID     string `json:"questionId"`
		SelectedAnswer string `json:"selectedAnswer"`
		CorrectAnswer  string `json:"correctAnswer"`
		IsCorrect      bool   `json:"isCorrect"`
	}

	ExamResult struct {
		ExamID         string         `json:"examId"`
		Score          int            `json:"score"`
		TotalQuestions int            `json:"totalQuestions"`
		CorrectAnswers int            `json:"correctAnswers"`
		Percentage     int            `json:"percentage"`
		Passed         bool           `json:"passed"`
		CompletedAt    time.Time      `json:"completedAt"` // UTC
		Questions      []ExamQuestion `json:"questions"`
	}

	Stats struct {
		TotalStudyTime int        `json:"totalStudyTime"` // minutes
		LastStudied    *time.Time `json:"lastStudied"`    // UTC
		StreakDays     int        `json:"streakDays"`
		TotalSessions  int        `json:"totalSessions"`
	}

	// Result is the progress of a user in a course.
	Result struct {
		ID          string       `json:"_id"`
		UserID      string       `json:"userId"`
		CourseID    string       `json:"courseId"`
		Progress    Progress     `json:"progress"`
		ExamResults []ExamResult `json:"examResults"`
		Stats       Stats        `json:"stats"`
		Status      string       `json:"status"`
		StartedAt   *time.Time   `json:"startedAt"`   // UTC
		CompletedAt *time.Time   `json:"completedAt"` // UTC
		LastUpdated time.Time    `json:"lastUpdated"` // UTC
		CreatedAt   time.Time    `json:"createdAt"`   // UTC
		UpdatedAt   time.Time    `json:"updatedAt"`   // UTC
	}
)

// New returns the empty Result of userID in c; totals come from the course content.
func New(userID string, c course.Course, now time.Time) Result {
	counts := c.ContentCounts()
	return Result{
		UserID:   userID,
		CourseID: c.ID,
		Progress: Progress{
			Vocabulary: VocabularyProgress{Total: counts.VocabularyCount},
			Grammar:    GrammarProgress{Total: counts.GrammarCount},
			Exercises:  ExerciseProgress{Total: counts.ExerciseCount},
		},
		ExamResults: []ExamResult{},
		Status:      StatusNotStarted,
		LastUpdated: now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Percentage returns round(done / total * 100), 0 when nothing is done or total is 0, capped at 100.
func Percentage(done, total int) int {
	if total <= 0 || done <= 0 {
		return 0
	}
	pct := int(math.Round(float64(done) / float64(total) * 100))
	if pct > 100 {
		return 100
	}
	return pct
}

func (r Result) IsCompleted() bool {
	return r.Status == StatusCompleted
}

func (r *Result) SetVocabularyProgress(data UpdateVocabularyProgress, now time.Time) {
	data.clamp()
	r.Progress.Vocabulary = VocabularyProgress{
		Studied:    data.Studied,
		Known:      data.Known,
		Total:      data.Total,
		Percentage: Percentage(data.Studied, data.Total),
	}
	r.recalculate(now)
}

func (r *Result) SetExerciseProgress(data UpdateExerciseProgress, now time.Time) {
	data.clamp()
	r.Progress.Exercises = ExerciseProgress{
		Completed:  data.Completed,
		Total:      data.Total,
		Percentage: Percentage(data.Completed, data.Total),
	}
	r.recalculate(now)
}

// SetGrammarProgress tracks grammar study; it does not weigh in the overall progress.
func (r *Result) SetGrammarProgress(data UpdateGrammarProgress, now time.Time) {
	data.clamp()
	r.Progress.Grammar = GrammarProgress{
		Studied:    data.Studied,
		Total:      data.Total,
		Percentage: Percentage(data.Studied, data.Total),
	}
	r.recalculate(now)
}

// AddSession records a study session of the given minutes and updates the daily streak.
func (r *Result) AddSession(minutes int, now time.Time) {
	today := truncateDay(now)
	switch {
	case r.Stats.LastStudied == nil || r.Stats.StreakDays == 0:
		r.Stats.StreakDays = 1
	case truncateDay(*r.Stats.LastStudied).Equal(today):
		// same day
	case truncateDay(*r.Stats.LastStudied).Equal(today.AddDate(0, 0, -1)):
		r.Stats.StreakDays++
	default:
		r.Stats.StreakDays = 1
	}
	r.Stats.TotalStudyTime += minutes
	r.Stats.TotalSessions++
	r.Stats.LastStudied = &now
	if r.StartedAt == nil {
		r.StartedAt = &now
	}
	r.LastUpdated = now
}

// AddExamResult appends an exam attempt; a pass completes the course.
func (r *Result) AddExamResult(exam ExamResult) {
	r.ExamResults = append(r.ExamResults, exam)
	if exam.Passed {
		if r.CompletedAt == nil {
			completedAt := exam.CompletedAt
			r.CompletedAt = &completedAt
		}
		r.Status = StatusCompleted
		r.Progress.Overall.Percentage = 100
	}
	if r.StartedAt == nil {
		r.StartedAt = &exam.CompletedAt
	}
	r.LastUpdated = exam.CompletedAt
}

// recalculate derives the overall progress and status from the sub-progress.
func (r *Result) recalculate(now time.Time) {
	overall := float64(r.Progress.Vocabulary.Percentage)*vocabularyWeight + float64(r.Progress.Exercises.Percentage)*exerciseWeight
	r.Progress.Overall.Percentage = int(math.Round(overall))

	switch pct := r.Progress.Overall.Percentage; {
	case r.CompletedAt != nil:
		r.Status = StatusCompleted
		r.Progress.Overall.Percentage = 100
	case pct >= 100:
		r.Status = StatusCompleted
		r.CompletedAt = &now
	case pct >= PassPercentage:
		r.Status = StatusExamReady
	case pct > 0:
		r.Status = StatusInProgress
	default:
		r.Status = StatusNotStarted
	}

	if r.StartedAt == nil && r.hasProgress() {
		r.StartedAt = &now
	}
	r.LastUpdated = now
}

func (r Result) hasProgress() bool {
	p := r.Progress
	return p.Overall.Percentage > 0 || p.Vocabulary.Studied > 0 || p.Exercises.Completed > 0 || p.Grammar.Studied > 0
}

// TotalExamAttempts returns the number of exam attempts across results.
func TotalExamAttempts(results []Result) int {
	n := 0
	for _, r := range results {
		n += len(r.ExamResults)
	}
	return n
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

type UpdateVocabularyProgress struct {
	Studied int `json:"studied"`
	Known   int `json:"known"`
	Total   int `json:"total"`
}

func (data *UpdateVocabularyProgress) clamp() {
	data.Studied, data.Known, data.Total = nonNegative(data.Studied), nonNegative(data.Known), nonNegative(data.Total)
}

type UpdateExerciseProgress struct {
	Completed int `json:"completed"`
	Total     int `json:"total"`
}

func (data *UpdateExerciseProgress) clamp() {
	data.Completed, data.Total = nonNegative(data.Completed), nonNegative(data.Total)
}

type UpdateGrammarProgress struct {
	Studied int `json:"studied"`
	Total   int `json:"total"`
}

func (data *UpdateGrammarProgress) clamp() {
	data.Studied, data.Total = nonNegative(data.Studied), nonNegative(data.Total)
}

// NewSession is a study session of the given length.
type NewSession struct {
	Minutes int `json:"minutes" validate:"required,min=1,max=1440"`
}

func (ns *NewSession) Validate(validate *validator.Validate) error {
	return validate.Struct(ns)
}

// NewExamResult is an exam attempt submitted by the client; its percentage is recomputed.
type NewExamResult struct {
	ExamID         string         `json:"examId"`
	Score          int            `json:"score" validate:"min=0"`
	TotalQuestions int            `json:"totalQuestions" validate:"required,min=1"`
	CorrectAnswers int            `json:"correctAnswers" validate:"min=0,ltefield=TotalQuestions"`
	Questions      []ExamQuestion `json:"questions"`
}

func (ne *NewExamResult) Validate(validate *validator.Validate) error {
	ne.ExamID = core.CleanString(ne.ExamID)
	return validate.Struct(ne)
}

func (ne NewExamResult) ExamResult(now time.Time) ExamResult {
	pct := Percentage(ne.CorrectAnswers, ne.TotalQuestions)
	exam := ExamResult{
		ExamID:         ne.ExamID,
		Score:          ne.Score,
		TotalQuestions: ne.TotalQuestions,
		CorrectAnswers: ne.CorrectAnswers,
		Percentage:     pct,
		Passed:         pct >= PassPercentage,
		CompletedAt:    now,
		Questions:      ne.Questions,
	}
	if exam.ExamID == "" {
		exam.ExamID = "exam_" + now.Format("20060102150405")
	}
	if exam.Score == 0 {
		exam.Score = ne.CorrectAnswers
	}
	if exam.Questions == nil {
		exam.Questions = []ExamQuestion{}
	}
	return exam
}

// QueryFilter selects results; all set fields are ANDed.
type QueryFilter struct {
	UserID        string
	CourseID      string
	Status        string
	MinOverall    int
	CompletedFrom time.Time
	CompletedTo   time.Time // exclusive
}

// Match reports whether r satisfies the filter.
func (qf QueryFilter) Match(r Result) bool {
	if qf.UserID != "" && r.UserID != qf.UserID {
		return false
	}
	if qf.CourseID != "" && r.CourseID != qf.CourseID {
		return false
	}
	if qf.Status != "" && r.Status != qf.Status {
		return false
	}
	if qf.MinOverall > 0 && r.Progress.Overall.Percentage < qf.MinOverall {
		return false
	}
	if !qf.CompletedFrom.IsZero() || !qf.CompletedTo.IsZero() {
		if r.CompletedAt == nil {
			return false
		}
		if !qf.CompletedFrom.IsZero() && r.CompletedAt.Before(qf.CompletedFrom) {
			return false
		}
		if !qf.CompletedTo.IsZero() && !r.CompletedAt.Before(qf.CompletedTo) {
			return false
		}
	}
	return true
}

func nonNegative(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
