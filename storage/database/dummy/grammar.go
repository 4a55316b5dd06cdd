package dummydb

import (
	"context"
	"sort"

	"github.com/eduenglish/backend/core/grammar"
)

type grammarCheckRepository struct {
	db *checkTable
}

var _ grammar.Repository = (*grammarCheckRepository)(nil)

func NewGrammarCheckRepository(db *DB) grammar.Repository {
	return &grammarCheckRepository{db: db.check}
}

func (repo *grammarCheckRepository) CreateCheck(_ context.Context, check grammar.Check) (grammar.Check, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	check.ID = newID()
	repo.db.table[check.ID] = &check
	return check, nil
}

func (repo *grammarCheckRepository) FilterChecks(_ context.Context, userID string, limit int) ([]grammar.Check, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	checks := make([]grammar.Check, 0)
	for _, c := range repo.db.table {
		if c.UserID == userID {
			checks = append(checks, *c)
		}
	}
	sort.Slice(checks, func(i, j int) bool {
		return newer(checks[i].CreatedAt, checks[i].ID, checks[j].CreatedAt, checks[j].ID)
	})
	if limit > 0 && len(checks) > limit {
		checks = checks[:limit]
	}
	return checks, nil
}
