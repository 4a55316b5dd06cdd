package grammar

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

var (
	ErrInvalidResponse = errors.New("invalid AI response")

	codeFenceRegex = regexp.MustCompile("```(?:json)?\\n?")
)

const promptTemplate = `You are an advanced English grammar checker. Analyze the following text and provide a detailed grammar check result.

Text to analyze: %[1]s

Please respond with a JSON object in the following format:
{
  "originalText": %[1]s,
  "correctedText": "corrected version of the text",
  "score": number between 0-100 representing grammar quality,
  "errors": [
    {
      "id": "unique_id",
      "text": "incorrect text",
      "suggestion": "corrected text",
      "type": "grammar|spelling|punctuation|style",
      "position": {
        "start": start_index,
        "end": end_index
      },
      "explanation": "detailed explanation of the error"
    }
  ]
}

Rules:
1. Be thorough but accurate
2. Only flag actual errors, not stylistic preferences unless clearly wrong
3. Provide clear explanations for each error
4. Calculate score based on error severity and frequency
5. Ensure position indices are accurate
6. Return valid JSON only, no additional text

Analyze the text now:
`

// Prompt returns the prompt asking a language model to check text.
func Prompt(text string) string {
	quoted, _ := json.Marshal(text)
	return fmt.Sprintf(promptTemplate, quoted)
}

type aiResponse struct {
	OriginalText  string   `json:"originalText"`
	CorrectedText string   `json:"correctedText"`
	Score         *float64 `json:"score"`
	Errors        []Error  `json:"errors"`
}

// ParseResponse decodes the answer of a language model to Prompt.
// Code fences are stripped, the score is clamped and missing error ids are generated.
func ParseResponse(raw string) (Result, error) {
	raw = strings.TrimSpace(codeFenceRegex.ReplaceAllString(raw, ""))

	var resp aiResponse
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		return Result{}, errors.Wrap(ErrInvalidResponse, err.Error())
	}
	if resp.OriginalText == "" || resp.CorrectedText == "" || resp.Score == nil || resp.Errors == nil {
		return Result{}, errors.Wrap(ErrInvalidResponse, "missing fields")
	}

	for i := range resp.Errors {
		if resp.Errors[i].ID == "" {
			resp.Errors[i].ID = "error_" + uuid.NewString()
		}
	}
	return Result{
		OriginalText:  resp.OriginalText,
		CorrectedText: resp.CorrectedText,
		Score:         clampScore(int(math.Round(*resp.Score))),
		Errors:        resp.Errors,
		Source:        SourceAI,
	}, nil
}
