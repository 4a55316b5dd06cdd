package tests

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	. "github.com/eduenglish/backend/apps/api/echo"
	"github.com/eduenglish/backend/core/course"
	"github.com/eduenglish/backend/core/result"
	"github.com/eduenglish/backend/core/user"
	"github.com/eduenglish/backend/tests"
)

// createStudyCourse creates a course with 2 vocabularies, 1 grammar and 5 exercises answered "a0" to "a4".
func createStudyCourse(t *testing.T, name string) course.Course {
	t.Helper()
	apple := testutil.CreateVocabulary(t, vocabRepo, "apple", "a fruit", "noun", "", false)
	run := testutil.CreateVocabulary(t, vocabRepo, "run", "move fast", "verb", "", false)
	grammars, err := contentRepo.CreateGrammars(context.Background(), course.Grammar{
		Topic: "Present simple", Explanation: "Habits", Rules: []string{}, CommonMistakes: []string{},
	})
	require.NoError(t, err)

	exercises := make([]course.Exercise, 0, 5)
	for i := 0; i < 5; i++ {
		exercises = append(exercises, course.Exercise{
			Question:      fmt.Sprintf("Question %d", i),
			Type:          course.TypeMultipleChoice,
			Options:       []string{fmt.Sprintf("a%d", i), "wrong"},
			CorrectAnswer: fmt.Sprintf("a%d", i),
			Explanation:   fmt.Sprintf("Because %d", i),
			Difficulty:    course.DifficultyEasy,
			Points:        5,
		})
	}
	return testutil.CreateCourse(t, courseRepo, course.Course{
		Name:          name,
		VocabularyIDs: []string{apple.ID, run.ID},
		GrammarIDs:    []string{grammars[0].ID},
		ExerciseIDs:   testutil.CreateExercises(t, contentRepo, exercises...),
	})
}

func decodeResult(t *testing.T, tt httpTest) result.Result {
	t.Helper()
	rec := serve(t, tt)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp ResultResponse
	unmarshallObj(t, rec.Body.Bytes(), &resp)
	assert.True(t, resp.Success)
	return resp.Result
}

func Test_resultApi_access(t *testing.T) {
	testutil.ResetDB(t, db)

	bob := testutil.CreateUser(t, usrRepo, "bob", "bob@test.com", "", "", true)
	carol := testutil.CreateUser(t, usrRepo, "carol", "carol@test.com", "", "", true)
	admin := testutil.CreateUser(t, usrRepo, "admin", "admin@test.com", "", user.RoleAdmin, true)
	c := createStudyCourse(t, "Basics")
	adminToken := getToken(t, admin)
	progressPath := fmt.Sprintf("/api/results/progress/%s/%s", bob.ID, c.ID)

	tests := []httpTest{
		{name: "auth required", path: progressPath, wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errNoToken)},
		{
			name: "other user", path: progressPath, token: getToken(t, carol),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Message: "Not authorized to access this resource"}),
		},
		{name: "admin", path: progressPath, token: adminToken},
		{
			name: "unknown course", path: fmt.Sprintf("/api/results/progress/%s/%s", bob.ID, primitive.NewObjectID().Hex()),
			token: getToken(t, bob), wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Message: "Course not found"}),
		},
		{
			name: "invalid user", path: fmt.Sprintf("/api/results/progress/lol/%s", c.ID),
			token: adminToken, wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Message: "User not found"}),
		},
		{
			name: "exam without progress", method: http.MethodPost, path: fmt.Sprintf("/api/results/exam/%s/%s", carol.ID, c.ID),
			token: getToken(t, carol), body: marchallObj(t, result.NewExamResult{TotalQuestions: 10, CorrectAnswers: 9}),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Message: "Progress not found"}),
		},
		{
			name: "exam (invalid user)", method: http.MethodPost, path: fmt.Sprintf("/api/results/exam/lol/%s", c.ID),
			token: adminToken, body: marchallObj(t, result.NewExamResult{TotalQuestions: 10, CorrectAnswers: 9}),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Message: "Progress not found"}),
		},
	}
	runHTTPTests(t, tests)
}

func Test_resultApi_progress(t *testing.T) {
	testutil.ResetDB(t, db)

	bob := testutil.CreateUser(t, usrRepo, "bob", "bob@test.com", "", "", true)
	c := createStudyCourse(t, "Basics")
	token := getToken(t, bob)
	base := fmt.Sprintf("/api/results/progress/%s/%s", bob.ID, c.ID)

	r := decodeResult(t, httpTest{path: base, token: token})
	assert.NotEmpty(t, r.ID)
	assert.Equal(t, bob.ID, r.UserID)
	assert.Equal(t, c.ID, r.CourseID)
	assert.Equal(t, result.StatusNotStarted, r.Status)
	assert.Equal(t, 2, r.Progress.Vocabulary.Total)
	assert.Equal(t, 1, r.Progress.Grammar.Total)
	assert.Equal(t, 5, r.Progress.Exercises.Total)
	assert.Nil(t, r.StartedAt)
	assert.Empty(t, r.ExamResults)

	t.Run("get is idempotent", func(t *testing.T) {
		again := decodeResult(t, httpTest{path: base, token: token})
		assert.Equal(t, r.ID, again.ID)
	})

	t.Run("vocabulary", func(t *testing.T) {
		r := decodeResult(t, httpTest{
			method: http.MethodPut, path: base + "/vocabulary", token: token,
			body: marchallObj(t, result.UpdateVocabularyProgress{Studied: 2, Known: 1, Total: 2}),
		})
		assert.Equal(t, result.VocabularyProgress{Studied: 2, Known: 1, Total: 2, Percentage: 100}, r.Progress.Vocabulary)
		assert.Equal(t, 60, r.Progress.Overall.Percentage)
		assert.Equal(t, result.StatusInProgress, r.Status)
		assert.NotNil(t, r.StartedAt)
	})

	t.Run("grammar does not weigh in", func(t *testing.T) {
		r := decodeResult(t, httpTest{
			method: http.MethodPut, path: base + "/grammar", token: token,
			body: marchallObj(t, result.UpdateGrammarProgress{Studied: 1, Total: 1}),
		})
		assert.Equal(t, result.GrammarProgress{Studied: 1, Total: 1, Percentage: 100}, r.Progress.Grammar)
		assert.Equal(t, 60, r.Progress.Overall.Percentage)
	})

	t.Run("exercises make the learner exam ready", func(t *testing.T) {
		r := decodeResult(t, httpTest{
			method: http.MethodPut, path: base + "/exercises", token: token,
			body: marchallObj(t, result.UpdateExerciseProgress{Completed: 3, Total: 5}),
		})
		assert.Equal(t, result.ExerciseProgress{Completed: 3, Total: 5, Percentage: 60}, r.Progress.Exercises)
		assert.Equal(t, 84, r.Progress.Overall.Percentage)
		assert.Equal(t, result.StatusExamReady, r.Status)
		assert.Nil(t, r.CompletedAt)
	})

	t.Run("session", func(t *testing.T) {
		rec := serve(t, httpTest{method: http.MethodPost, path: base + "/session", token: token, body: []byte(`{}`)})
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Message: "minutes is required", Errors: map[string]string{"minutes": "minutes is required"}}),
		}, rec)

		decodeResult(t, httpTest{method: http.MethodPost, path: base + "/session", token: token, body: []byte(`{"minutes": 30}`)})
		r := decodeResult(t, httpTest{method: http.MethodPost, path: base + "/session", token: token, body: []byte(`{"minutes": 15}`)})
		assert.Equal(t, 45, r.Stats.TotalStudyTime)
		assert.Equal(t, 2, r.Stats.TotalSessions)
		assert.Equal(t, 1, r.Stats.StreakDays)
		assert.NotNil(t, r.Stats.LastStudied)
	})

	examPath := fmt.Sprintf("/api/results/exam/%s/%s", bob.ID, c.ID)

	t.Run("invalid exam", func(t *testing.T) {
		rec := serve(t, httpTest{method: http.MethodPost, path: examPath, token: token, body: marchallObj(t, result.NewExamResult{})})
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Message: "totalQuestions is required", Errors: map[string]string{"totalQuestions": "totalQuestions is required"}}),
		}, rec)

		rec = serve(t, httpTest{method: http.MethodPost, path: examPath, token: token, body: marchallObj(t, result.NewExamResult{TotalQuestions: 5, CorrectAnswers: 6})})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("failed exam", func(t *testing.T) {
		r := decodeResult(t, httpTest{
			method: http.MethodPost, path: examPath, token: token,
			body: marchallObj(t, result.NewExamResult{TotalQuestions: 10, CorrectAnswers: 7}),
		})
		require.Len(t, r.ExamResults, 1)
		exam := r.ExamResults[0]
		assert.Equal(t, 70, exam.Percentage)
		assert.False(t, exam.Passed)
		assert.Equal(t, 7, exam.Score)
		assert.NotEmpty(t, exam.ExamID)
		assert.Equal(t, result.StatusExamReady, r.Status)
	})

	t.Run("passed exam completes the course", func(t *testing.T) {
		r := decodeResult(t, httpTest{
			method: http.MethodPost, path: examPath, token: token,
			body: marchallObj(t, result.NewExamResult{ExamID: "final", TotalQuestions: 10, CorrectAnswers: 8}),
		})
		require.Len(t, r.ExamResults, 2)
		exam := r.ExamResults[1]
		assert.Equal(t, "final", exam.ExamID)
		assert.Equal(t, 80, exam.Percentage)
		assert.True(t, exam.Passed)
		assert.Equal(t, result.StatusCompleted, r.Status)
		assert.Equal(t, 100, r.Progress.Overall.Percentage)
		require.NotNil(t, r.CompletedAt)
		assert.Equal(t, exam.CompletedAt, *r.CompletedAt)
	})

	t.Run("completed courses stay completed", func(t *testing.T) {
		r := decodeResult(t, httpTest{
			method: http.MethodPut, path: base + "/exercises", token: token,
			body: marchallObj(t, result.UpdateExerciseProgress{Completed: 0, Total: 5}),
		})
		assert.Equal(t, result.StatusCompleted, r.Status)
		assert.Equal(t, 100, r.Progress.Overall.Percentage)
	})
}

func Test_resultApi_exam(t *testing.T) {
	testutil.ResetDB(t, db)

	bob := testutil.CreateUser(t, usrRepo, "bob", "bob@test.com", "", "", true)
	token := getToken(t, bob)
	c := createStudyCourse(t, "Basics")
	empty := testutil.CreateCourse(t, courseRepo, course.Course{Name: "Empty"})
	noExercises := marchallObj(t, httpErr{Message: "No exercises found"})

	t.Run("questions", func(t *testing.T) {
		rec := serve(t, httpTest{path: "/api/results/exam/" + c.ID + "/questions?count=3", token: token})
		require.Equal(t, http.StatusOK, rec.Code)
		assert.NotContains(t, rec.Body.String(), "correctAnswer")
		assert.NotContains(t, rec.Body.String(), "explanation")

		var resp struct {
			Success   bool              `json:"success"`
			Questions []result.Question `json:"questions"`
			Total     int               `json:"total"`
		}
		unmarshallObj(t, rec.Body.Bytes(), &resp)
		assert.Equal(t, 3, resp.Total)
		require.Len(t, resp.Questions, 3)
		seen := make(map[int]bool)
		for _, q := range resp.Questions {
			assert.False(t, seen[q.ID], "question %d picked twice", q.ID)
			seen[q.ID] = true
			assert.Equal(t, fmt.Sprintf("Question %d", q.ID), q.Question)
		}

		// count defaults to 10, bounded by the exercises
		rec = serve(t, httpTest{path: "/api/results/exam/" + c.ID + "/questions", token: token})
		unmarshallObj(t, rec.Body.Bytes(), &resp)
		assert.Equal(t, 5, resp.Total)
	})

	tests := []httpTest{
		{
			name: "questions (no exercises)", path: "/api/results/exam/" + empty.ID + "/questions", token: token,
			wantCode: http.StatusNotFound, wantData: noExercises,
		},
		{
			name: "questions (unknown course)", path: "/api/results/exam/" + primitive.NewObjectID().Hex() + "/questions", token: token,
			wantCode: http.StatusNotFound, wantData: noExercises,
		},
		{
			name: "check (no answers)", method: http.MethodPost, path: "/api/results/exam/" + c.ID + "/check", token: token,
			body: []byte(`{}`), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Message: "answers is required", Errors: map[string]string{"answers": "answers is required"}}),
		},
		{
			name: "check", method: http.MethodPost, path: "/api/results/exam/" + c.ID + "/check", token: token,
			body: marchallObj(t, result.CheckExam{Answers: []result.Answer{
				{QuestionIndex: 0, SelectedAnswer: "a0"},
				{QuestionIndex: 1, SelectedAnswer: "wrong"},
				{QuestionIndex: 2, SelectedAnswer: "a2"},
				{QuestionIndex: 3, SelectedAnswer: "a3"},
				{QuestionIndex: 4, SelectedAnswer: "a4"},
			}}),
			wantData: marchallObj(t, map[string]interface{}{
				"success": true,
				"results": []result.AnswerResult{
					{QuestionIndex: 0, SelectedAnswer: "a0", CorrectAnswer: "a0", IsCorrect: true, Explanation: "Because 0"},
					{QuestionIndex: 1, SelectedAnswer: "wrong", CorrectAnswer: "a1", IsCorrect: false, Explanation: "Because 1"},
					{QuestionIndex: 2, SelectedAnswer: "a2", CorrectAnswer: "a2", IsCorrect: true, Explanation: "Because 2"},
					{QuestionIndex: 3, SelectedAnswer: "a3", CorrectAnswer: "a3", IsCorrect: true, Explanation: "Because 3"},
					{QuestionIndex: 4, SelectedAnswer: "a4", CorrectAnswer: "a4", IsCorrect: true, Explanation: "Because 4"},
				},
				"score": result.Score{Correct: 4, Total: 5, Percentage: 80, Passed: true},
			}),
		},
		{
			name: "check (unknown questions are wrong)", method: http.MethodPost, path: "/api/results/exam/" + c.ID + "/check", token: token,
			body: marchallObj(t, result.CheckExam{Answers: []result.Answer{
				{QuestionIndex: 9, SelectedAnswer: "a9"},
				{QuestionIndex: 0, SelectedAnswer: ""},
			}}),
			wantData: marchallObj(t, map[string]interface{}{
				"success": true,
				"results": []result.AnswerResult{
					{QuestionIndex: 9, SelectedAnswer: "a9"},
					{QuestionIndex: 0, SelectedAnswer: "", CorrectAnswer: "a0", Explanation: "Because 0"},
				},
				"score": result.Score{Correct: 0, Total: 2, Percentage: 0, Passed: false},
			}),
		},
	}
	runHTTPTests(t, tests)
}

func Test_resultApi_study(t *testing.T) {
	testutil.ResetDB(t, db)

	bob := testutil.CreateUser(t, usrRepo, "bob", "bob@test.com", "", "", true)
	token := getToken(t, bob)
	c := createStudyCourse(t, "Basics")

	ctx := context.Background()
	vocabs, err := vocabRepo.GetVocabulariesByID(ctx, c.VocabularyIDs...)
	require.NoError(t, err)
	grammars, err := contentRepo.GetGrammarsByID(ctx, c.GrammarIDs...)
	require.NoError(t, err)

	vocabPath := fmt.Sprintf("/api/results/study/%s/%s/vocabulary", bob.ID, c.ID)
	grammarPath := fmt.Sprintf("/api/results/study/%s/%s/grammar", bob.ID, c.ID)
	study := func(data interface{}, progress interface{}) []byte {
		return marchallObj(t, map[string]interface{}{"success": true, "data": data, "progress": progress})
	}

	runHTTPTests(t, []httpTest{
		{name: "vocabulary (no progress yet)", path: vocabPath, token: token, wantData: study(vocabs, result.VocabularyProgress{})},
		{name: "grammar (no progress yet)", path: grammarPath, token: token, wantData: study(grammars, result.GrammarProgress{})},
	})

	decodeResult(t, httpTest{
		method: http.MethodPut, path: fmt.Sprintf("/api/results/progress/%s/%s/vocabulary", bob.ID, c.ID), token: token,
		body: marchallObj(t, result.UpdateVocabularyProgress{Studied: 1, Known: 1, Total: 2}),
	})

	runHTTPTests(t, []httpTest{
		{
			name: "vocabulary", path: vocabPath, token: token,
			wantData: study(vocabs, result.VocabularyProgress{Studied: 1, Known: 1, Total: 2, Percentage: 50}),
		},
		{
			name: "unknown course", path: fmt.Sprintf("/api/results/study/%s/%s/grammar", bob.ID, primitive.NewObjectID().Hex()), token: token,
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Message: "Course not found"}),
		},
	})
}
