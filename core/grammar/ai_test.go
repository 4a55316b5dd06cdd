package grammar

import (
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrompt(t *testing.T) {
	prompt := Prompt(`He said "hi"`)
	assert.Contains(t, prompt, `Text to analyze: "He said \"hi\""`)
	assert.Contains(t, prompt, "Return valid JSON only")
}

func TestParseResponse(t *testing.T) {
	const valid = `{
  "originalText": "This are good.",
  "correctedText": "This is good.",
  "score": 82.6,
  "errors": [
    {"id": "e1", "text": "This are", "suggestion": "This is", "type": "grammar", "position": {"start": 0, "end": 8}, "explanation": "agreement"},
    {"text": "good", "suggestion": "great", "type": "style", "position": {"start": 9, "end": 13}, "explanation": "style"}
  ]
}`

	tests := []struct {
		name      string
		raw       string
		wantErr   bool
		wantScore int
	}{
		{name: "plain json", raw: valid, wantScore: 83},
		{name: "fenced json", raw: "```json\n" + valid + "\n```", wantScore: 83},
		{name: "score clamped", raw: strings.Replace(valid, "82.6", "140", 1), wantScore: 100},
		{name: "negative score", raw: strings.Replace(valid, "82.6", "-3", 1), wantScore: 0},
		{name: "not json", raw: "Sorry, I cannot help with that.", wantErr: true},
		{name: "missing score", raw: `{"originalText": "a", "correctedText": "a", "errors": []}`, wantErr: true},
		{name: "score not a number", raw: `{"originalText": "a", "correctedText": "a", "score": "high", "errors": []}`, wantErr: true},
		{name: "missing errors", raw: `{"originalText": "a", "correctedText": "a", "score": 90}`, wantErr: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			res, err := ParseResponse(tc.raw)
			if tc.wantErr {
				require.Error(t, err)
				assert.Equal(t, ErrInvalidResponse, errors.Cause(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, SourceAI, res.Source)
			assert.Equal(t, tc.wantScore, res.Score)
			assert.Equal(t, "This is good.", res.CorrectedText)
			require.Len(t, res.Errors, 2)
			assert.Equal(t, "e1", res.Errors[0].ID)
			assert.True(t, strings.HasPrefix(res.Errors[1].ID, "error_"))
			assert.Equal(t, Position{Start: 9, End: 13}, res.Errors[1].Position)
		})
	}
}
