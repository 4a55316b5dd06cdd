// Package gemini checks grammar with the Gemini generative model.
package gemini

import (
	"context"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/pkg/errors"
	"github.com/sony/gobreaker"
	"google.golang.org/api/option"

	"github.com/eduenglish/backend/core"
	"github.com/eduenglish/backend/core/grammar"
)

const (
	breakerName        = "gemini"
	breakerMaxFailures = 5
	breakerOpenTimeout = 30 * time.Second
)

var ErrEmptyResponse = errors.New("empty response from model")

// generateFunc sends prompt to a model and returns its text answer.
type generateFunc func(ctx context.Context, prompt string) (string, error)

// Checker implements grammar.Checker. Calls go through a circuit breaker which opens after
// consecutive failures; an open breaker fails fast so that callers fall back to the rules.
type Checker struct {
	client   *genai.Client
	generate generateFunc
	timeout  time.Duration
	cb       *gobreaker.CircuitBreaker
}

var _ grammar.Checker = (*Checker)(nil)

// NewChecker returns a Checker using the configured model; nil when no API key is configured.
func NewChecker(ctx context.Context, conf *core.Config, logger core.Logger) (*Checker, error) {
	if !conf.Gemini.Enabled() {
		return nil, nil
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(conf.Gemini.APIKey))
	if err != nil {
		return nil, errors.Wrap(err, "creating gemini client")
	}
	model := client.GenerativeModel(conf.Gemini.Model)

	chk := newChecker(modelGenerator(model), conf.Gemini.Timeout, logger)
	chk.client = client
	logger.Info("gemini grammar checker enabled: " + conf.Gemini.Model)
	return chk, nil
}

func newChecker(generate generateFunc, timeout time.Duration, logger core.Logger) *Checker {
	return &Checker{
		generate: generate,
		timeout:  timeout,
		cb: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    breakerName,
			Timeout: breakerOpenTimeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= breakerMaxFailures
			},
			OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
				logger.Warn("circuit breaker '" + name + "' changed from " + from.String() + " to " + to.String())
			},
		}),
	}
}

func modelGenerator(model *genai.GenerativeModel) generateFunc {
	return func(ctx context.Context, prompt string) (string, error) {
		resp, err := model.GenerateContent(ctx, genai.Text(prompt))
		if err != nil {
			return "", err
		}
		var sb strings.Builder
		for _, cand := range resp.Candidates {
			if cand == nil || cand.Content == nil {
				continue
			}
			for _, part := range cand.Content.Parts {
				if txt, ok := part.(genai.Text); ok {
					sb.WriteString(string(txt))
				}
			}
			break // first candidate only
		}
		if sb.Len() == 0 {
			return "", ErrEmptyResponse
		}
		return sb.String(), nil
	}
}

// Check asks the model to check text. An unparsable answer counts as a failure of the breaker.
func (chk *Checker) Check(ctx context.Context, text string) (grammar.Result, error) {
	if chk.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, chk.timeout)
		defer cancel()
	}

	res, err := chk.cb.Execute(func() (interface{}, error) {
		raw, err := chk.generate(ctx, grammar.Prompt(text))
		if err != nil {
			return nil, errors.Wrap(err, "generating content")
		}
		return grammar.ParseResponse(raw)
	})
	if err != nil {
		return grammar.Result{}, err
	}
	return res.(grammar.Result), nil
}

// State returns the state of the circuit breaker.
func (chk *Checker) State() gobreaker.State {
	return chk.cb.State()
}

func (chk *Checker) Close() error {
	if chk.client == nil {
		return nil
	}
	return chk.client.Close()
}
