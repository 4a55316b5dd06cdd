package result

import (
	"github.com/go-playground/validator/v10"

	"github.com/eduenglish/backend/core/course"
)

const DefaultQuestionCount = 10

// Question is an exam question as shown to the learner: no answer, no explanation.
type Question struct {
	ID         int      `json:"id"` // index in the course exercises
	Question   string   `json:"question"`
	Type       string   `json:"type"`
	Options    []string `json:"options"`
	Difficulty string   `json:"difficulty"`
	Points     int      `json:"points"`
}

// PickQuestions returns count random exercises as questions.
func PickQuestions(exercises []course.Exercise, count int, shuffle course.ShuffleFunc) []Question {
	if count <= 0 {
		count = DefaultQuestionCount
	}
	indexes := make([]int, len(exercises))
	for i := range indexes {
		indexes[i] = i
	}
	shuffle(len(indexes), func(i, j int) { indexes[i], indexes[j] = indexes[j], indexes[i] })
	if count < len(indexes) {
		indexes = indexes[:count]
	}

	questions := make([]Question, 0, len(indexes))
	for _, idx := range indexes {
		ex := exercises[idx]
		q := Question{
			ID:         idx,
			Question:   ex.Question,
			Type:       ex.Type,
			Options:    ex.Options,
			Difficulty: ex.Difficulty,
			Points:     ex.Points,
		}
		if q.Options == nil {
			q.Options = []string{}
		}
		if q.Points <= 0 {
			q.Points = 1
		}
		questions = append(questions, q)
	}
	return questions
}

type Answer struct {
	QuestionIndex  int    `json:"questionIndex"`
	SelectedAnswer string `json:"selectedAnswer"`
}

type CheckExam struct {
	Answers []Answer `json:"answers" validate:"required,min=1"`
}

func (ce *CheckExam) Validate(validate *validator.Validate) error {
	return validate.Struct(ce)
}

type (
	AnswerResult struct {
		QuestionIndex  int    `json:"questionIndex"`
		SelectedAnswer string `json:"selectedAnswer"`
		CorrectAnswer  string `json:"correctAnswer"`
		IsCorrect      bool   `json:"isCorrect"`
		Explanation    string `json:"explanation"`
	}

	Score struct {
		Correct    int  `json:"correct"`
		Total      int  `json:"total"`
		Percentage int  `json:"percentage"`
		Passed     bool `json:"passed"`
	}

	ExamCheck struct {
		Results []AnswerResult `json:"results"`
		Score   Score          `json:"score"`
	}
)

// CheckAnswers grades answers against the course exercises.
// An answer to an unknown question, or an empty answer, is incorrect.
func CheckAnswers(exercises []course.Exercise, answers []Answer) ExamCheck {
	check := ExamCheck{Results: make([]AnswerResult, 0, len(answers))}
	for _, answer := range answers {
		res := AnswerResult{
			QuestionIndex:  answer.QuestionIndex,
			SelectedAnswer: answer.SelectedAnswer,
		}
		if answer.QuestionIndex >= 0 && answer.QuestionIndex < len(exercises) {
			ex := exercises[answer.QuestionIndex]
			res.CorrectAnswer = ex.CorrectAnswer
			res.Explanation = ex.Explanation
			res.IsCorrect = answer.SelectedAnswer != "" && answer.SelectedAnswer == ex.CorrectAnswer
		}
		if res.IsCorrect {
			check.Score.Correct++
		}
		check.Results = append(check.Results, res)
	}
	check.Score.Total = len(answers)
	check.Score.Percentage = Percentage(check.Score.Correct, check.Score.Total)
	check.Score.Passed = check.Score.Percentage >= PassPercentage
	return check
}
