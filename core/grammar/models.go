package grammar

import (
	"time"

	"github.com/go-playground/validator/v10"
)

// Error types
const (
	TypeGrammar     = "grammar"
	TypeSpelling    = "spelling"
	TypePunctuation = "punctuation"
	TypeStyle       = "style"
)

// Sources
const (
	SourceAI    = "ai"
	SourceRules = "rules"
)

const (
	MaxTextLength       = 5000
	DefaultHistoryLimit = 20
	MaxHistoryLimit     = 100
)

type (
	Position struct {
		Start int `json:"start"`
		End   int `json:"end"`
	}

	Error struct {
		ID          string   `json:"id"`
		Text        string   `json:"text"`
		Suggestion  string   `json:"suggestion"`
		Type        string   `json:"type"`
		Position    Position `json:"position"`
		Explanation string   `json:"explanation"`
	}

	Result struct {
		OriginalText  string  `json:"originalText"`
		CorrectedText string  `json:"correctedText"`
		Score         int     `json:"score"`
		Errors        []Error `json:"errors"`
		Source        string  `json:"source"`
	}

	// Check is a saved grammar check.
	Check struct {
		ID            string    `json:"id"`
		UserID        string    `json:"userId"`
		Text          string    `json:"text"`
		CorrectedText string    `json:"correctedText"`
		Score         int       `json:"score"`
		ErrorsCount   int       `json:"errorsCount"`
		Source        string    `json:"source"`
		CreatedAt     time.Time `json:"createdAt"` // UTC
	}
)

// CheckText is a grammar check request.
type CheckText struct {
	Text string `json:"text" validate:"required,notblank,max=5000"`
}

func (ct *CheckText) Validate(validate *validator.Validate) error {
	return validate.Struct(ct)
}

func newCheck(userID, text string, res Result, now time.Time) Check {
	return Check{
		UserID:        userID,
		Text:          text,
		CorrectedText: res.CorrectedText,
		Score:         res.Score,
		ErrorsCount:   len(res.Errors),
		Source:        res.Source,
		CreatedAt:     now,
	}
}

func clampScore(score int) int {
	switch {
	case score < 0:
		return 0
	case score > 100:
		return 100
	}
	return score
}
