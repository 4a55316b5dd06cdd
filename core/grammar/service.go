package grammar

import (
	"context"

	"github.com/pkg/errors"

	"github.com/eduenglish/backend/core"
	"github.com/eduenglish/backend/core/user"
)

type (
	// Checker is an external grammar checker.
	Checker interface {
		Check(ctx context.Context, text string) (Result, error)
	}

	Repository interface {
		CreateCheck(ctx context.Context, check Check) (Check, error)
		// FilterChecks returns the last checks of userID, newest first.
		FilterChecks(ctx context.Context, userID string, limit int) ([]Check, error)
	}

	Service interface {
		// Check uses the AI checker when available, the rule catalogue otherwise, and saves the check to the caller's history.
		Check(ctx context.Context, text string, caller user.User) (Result, error)
		History(ctx context.Context, caller user.User, limit int) ([]Check, error)
	}

	service struct {
		repo   Repository
		ai     Checker
		logger core.Logger
	}
)

var _ Service = (*service)(nil)

// NewService returns the grammar Service; ai may be nil.
func NewService(repo Repository, ai Checker, logger core.Logger) Service {
	return &service{
		repo:   repo,
		ai:     ai,
		logger: logger,
	}
}

func (svc *service) Check(ctx context.Context, text string, caller user.User) (Result, error) {
	var (
		res Result
		err error
	)
	if svc.ai != nil {
		res, err = svc.ai.Check(ctx, text)
		if err != nil {
			svc.logger.Warn("AI grammar check failed, using rules: "+err.Error(), caller)
		}
	}
	if svc.ai == nil || err != nil {
		res = CheckRules(text)
	}

	if _, err = svc.repo.CreateCheck(ctx, newCheck(caller.ID, text, res, core.Now())); err != nil {
		return Result{}, errors.Wrap(err, "saving grammar check")
	}
	return res, nil
}

func (svc *service) History(ctx context.Context, caller user.User, limit int) ([]Check, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}
	checks, err := svc.repo.FilterChecks(ctx, caller.ID, limit)
	if err != nil {
		return nil, errors.Wrap(err, "filtering grammar checks")
	}
	if checks == nil {
		checks = []Check{}
	}
	return checks, nil
}
