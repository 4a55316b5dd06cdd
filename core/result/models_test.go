package result

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eduenglish/backend/core/course"
)

func TestPercentage(t *testing.T) {
	tests := []struct {
		done, total, want int
	}{
		{0, 0, 0},
		{5, 0, 0},
		{0, 10, 0},
		{-1, 10, 0},
		{1, 3, 33},
		{2, 3, 67},
		{10, 10, 100},
		{15, 10, 100},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, Percentage(tc.done, tc.total), "%d/%d", tc.done, tc.total)
	}
}

func TestNew(t *testing.T) {
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	c := course.Course{ID: "c1", VocabularyIDs: []string{"v1", "v2"}, GrammarIDs: []string{"g1"}, ExerciseIDs: []string{"e1", "e2", "e3"}}

	r := New("u1", c, now)
	assert.Equal(t, "u1", r.UserID)
	assert.Equal(t, "c1", r.CourseID)
	assert.Equal(t, 2, r.Progress.Vocabulary.Total)
	assert.Equal(t, 1, r.Progress.Grammar.Total)
	assert.Equal(t, 3, r.Progress.Exercises.Total)
	assert.Equal(t, StatusNotStarted, r.Status)
	assert.Nil(t, r.StartedAt)
	assert.NotNil(t, r.ExamResults)
}

func TestResult_Progress(t *testing.T) {
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name        string
		vocab       UpdateVocabularyProgress
		exercises   UpdateExerciseProgress
		wantOverall int
		wantStatus  string
	}{
		{"nothing", UpdateVocabularyProgress{}, UpdateExerciseProgress{}, 0, StatusNotStarted},
		{"negative values are clamped", UpdateVocabularyProgress{Studied: -3, Total: -1}, UpdateExerciseProgress{Completed: -2, Total: 4}, 0, StatusNotStarted},
		{"half vocabulary", UpdateVocabularyProgress{Studied: 5, Total: 10}, UpdateExerciseProgress{Total: 4}, 30, StatusInProgress},
		{"exam ready", UpdateVocabularyProgress{Studied: 10, Total: 10}, UpdateExerciseProgress{Completed: 2, Total: 4}, 80, StatusExamReady},
		{"all done", UpdateVocabularyProgress{Studied: 10, Total: 10}, UpdateExerciseProgress{Completed: 4, Total: 4}, 100, StatusCompleted},
		{"only exercises", UpdateVocabularyProgress{Total: 10}, UpdateExerciseProgress{Completed: 1, Total: 3}, 13, StatusInProgress},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := New("u1", course.Course{ID: "c1"}, now)
			r.SetVocabularyProgress(tc.vocab, now)
			r.SetExerciseProgress(tc.exercises, now)

			assert.Equal(t, tc.wantOverall, r.Progress.Overall.Percentage)
			assert.Equal(t, tc.wantStatus, r.Status)
			assert.GreaterOrEqual(t, r.Progress.Vocabulary.Studied, 0)
			assert.GreaterOrEqual(t, r.Progress.Exercises.Completed, 0)
			if tc.wantOverall > 0 {
				require.NotNil(t, r.StartedAt)
				assert.Equal(t, now, *r.StartedAt)
			}
			if tc.wantStatus == StatusCompleted {
				assert.NotNil(t, r.CompletedAt)
			}
		})
	}
}

func TestResult_CompletedStaysCompleted(t *testing.T) {
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	r := New("u1", course.Course{ID: "c1"}, now)
	r.AddExamResult(NewExamResult{TotalQuestions: 10, CorrectAnswers: 9}.ExamResult(now))
	require.Equal(t, StatusCompleted, r.Status)

	r.SetVocabularyProgress(UpdateVocabularyProgress{Studied: 1, Total: 10}, now.Add(time.Hour))
	assert.Equal(t, StatusCompleted, r.Status)
	assert.Equal(t, 100, r.Progress.Overall.Percentage)
	assert.Equal(t, 10, r.Progress.Vocabulary.Percentage)
	assert.Equal(t, now, *r.CompletedAt)
}

func TestResult_GrammarNotWeighted(t *testing.T) {
	now := time.Now().UTC()
	r := New("u1", course.Course{ID: "c1"}, now)
	r.SetGrammarProgress(UpdateGrammarProgress{Studied: 3, Total: 3}, now)

	assert.Equal(t, 100, r.Progress.Grammar.Percentage)
	assert.Equal(t, 0, r.Progress.Overall.Percentage)
	assert.Equal(t, StatusNotStarted, r.Status)
	assert.NotNil(t, r.StartedAt)
}

func TestResult_AddExamResult(t *testing.T) {
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name        string
		exam        NewExamResult
		wantPct     int
		wantPassed  bool
		wantStatus  string
		wantOverall int
	}{
		{"fail", NewExamResult{TotalQuestions: 10, CorrectAnswers: 7}, 70, false, StatusNotStarted, 0},
		{"pass at threshold", NewExamResult{TotalQuestions: 10, CorrectAnswers: 8}, 80, true, StatusCompleted, 100},
		{"client percentage ignored", NewExamResult{TotalQuestions: 3, CorrectAnswers: 2, Score: 2}, 67, false, StatusNotStarted, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := New("u1", course.Course{ID: "c1"}, now)
			exam := tc.exam.ExamResult(now)
			r.AddExamResult(exam)

			require.Len(t, r.ExamResults, 1)
			assert.Equal(t, tc.wantPct, r.ExamResults[0].Percentage)
			assert.Equal(t, tc.wantPassed, r.ExamResults[0].Passed)
			assert.Equal(t, tc.exam.CorrectAnswers, r.ExamResults[0].Score)
			assert.NotEmpty(t, r.ExamResults[0].ExamID)
			assert.Equal(t, tc.wantStatus, r.Status)
			assert.Equal(t, tc.wantOverall, r.Progress.Overall.Percentage)
			assert.Equal(t, tc.wantPassed, r.CompletedAt != nil)
		})
	}
}

func TestResult_AddSession(t *testing.T) {
	day := func(d, h int) time.Time { return time.Date(2024, 3, d, h, 0, 0, 0, time.UTC) }

	r := New("u1", course.Course{ID: "c1"}, day(1, 8))
	steps := []struct {
		at         time.Time
		minutes    int
		wantStreak int
	}{
		{day(1, 9), 10, 1},
		{day(1, 22), 5, 1},  // same day
		{day(2, 0), 20, 2},  // next day
		{day(3, 23), 15, 3}, // next day
		{day(6, 12), 30, 1}, // gap
	}
	total := 0
	for i, step := range steps {
		r.AddSession(step.minutes, step.at)
		total += step.minutes

		assert.Equal(t, step.wantStreak, r.Stats.StreakDays, "step %d", i)
		assert.Equal(t, i+1, r.Stats.TotalSessions)
		assert.Equal(t, total, r.Stats.TotalStudyTime)
		assert.Equal(t, step.at, *r.Stats.LastStudied)
	}
	assert.Equal(t, day(1, 9), *r.StartedAt)
}

func TestQueryFilter_Match(t *testing.T) {
	completedAt := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	done := Result{UserID: "u1", CourseID: "c1", Status: StatusCompleted, CompletedAt: &completedAt, Progress: Progress{Overall: OverallProgress{Percentage: 100}}}
	ongoing := Result{UserID: "u2", CourseID: "c1", Status: StatusInProgress, Progress: Progress{Overall: OverallProgress{Percentage: 40}}}

	tests := []struct {
		name   string
		filter QueryFilter
		want   []bool
	}{
		{"empty", QueryFilter{}, []bool{true, true}},
		{"user", QueryFilter{UserID: "u2"}, []bool{false, true}},
		{"course", QueryFilter{CourseID: "c1"}, []bool{true, true}},
		{"status", QueryFilter{Status: StatusCompleted}, []bool{true, false}},
		{"min overall", QueryFilter{MinOverall: PassPercentage}, []bool{true, false}},
		{"completed range", QueryFilter{CompletedFrom: completedAt, CompletedTo: completedAt.AddDate(0, 0, 1)}, []bool{true, false}},
		{"completed before range", QueryFilter{CompletedFrom: completedAt.AddDate(0, 0, 1)}, []bool{false, false}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, []bool{tc.filter.Match(done), tc.filter.Match(ongoing)})
		})
	}
}
