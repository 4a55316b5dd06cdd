package dummydb

import (
	"context"
	"sort"
	"time"

	"github.com/eduenglish/backend/core"
	"github.com/eduenglish/backend/core/result"
)

type resultRepository struct {
	db *resultTable
}

var _ result.Repository = (*resultRepository)(nil)

func NewResultRepository(db *DB) result.Repository {
	return &resultRepository{db: db.result}
}

func (repo *resultRepository) query(filter result.QueryFilter) []result.Result {
	results := make([]result.Result, 0, len(repo.db.table))
	for _, r := range repo.db.table {
		if filter.Match(*r) {
			results = append(results, *r)
		}
	}
	return results
}

func (repo *resultRepository) CreateResult(_ context.Context, r result.Result) (result.Result, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, existing := range repo.db.table {
		if existing.UserID == r.UserID && existing.CourseID == r.CourseID {
			return result.Result{}, result.ErrExists
		}
	}
	r.ID = newID()
	repo.db.table[r.ID] = &r
	return r, nil
}

func (repo *resultRepository) GetResult(_ context.Context, userID, courseID string) (result.Result, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, r := range repo.db.table {
		if r.UserID == userID && r.CourseID == courseID {
			return *r, nil
		}
	}
	return result.Result{}, result.ErrNotFound
}

func (repo *resultRepository) FilterResults(_ context.Context, filter result.QueryFilter, ord *core.DBOrdering, page *core.Pagination) ([]result.Result, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	results := repo.query(filter)
	if ord == nil {
		ord = &core.DBOrdering{Field: result.OrderLastUpdated}
	}
	sort.SliceStable(results, func(i, j int) bool {
		ri, rj := results[i], results[j]
		switch ord.Field {
		case result.OrderOverall:
			pi, pj := ri.Progress.Overall.Percentage, rj.Progress.Overall.Percentage
			if pi != pj {
				if ord.Ascending {
					return pi < pj
				}
				return pi > pj
			}
		case result.OrderCompletedAt:
			ti, tj := timeOrZero(ri.CompletedAt), timeOrZero(rj.CompletedAt)
			if !ti.Equal(tj) {
				if ord.Ascending {
					return ti.Before(tj)
				}
				return ti.After(tj)
			}
		default:
			if !ri.LastUpdated.Equal(rj.LastUpdated) {
				if ord.Ascending {
					return ri.LastUpdated.Before(rj.LastUpdated)
				}
				return ri.LastUpdated.After(rj.LastUpdated)
			}
		}
		return ri.ID < rj.ID
	})

	start, end := paginate(len(results), page)
	return results[start:end], nil
}

func (repo *resultRepository) CountResults(_ context.Context, filter result.QueryFilter) (int64, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return int64(len(repo.query(filter))), nil
}

func (repo *resultRepository) CountExamAttempts(_ context.Context, filter result.QueryFilter) (int64, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return int64(result.TotalExamAttempts(repo.query(filter))), nil
}

func (repo *resultRepository) UpdateResult(_ context.Context, r result.Result) (result.Result, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[r.ID]; !ok {
		return result.Result{}, result.ErrNotFound
	}
	for _, existing := range repo.db.table {
		if existing.ID != r.ID && existing.UserID == r.UserID && existing.CourseID == r.CourseID {
			return result.Result{}, result.ErrExists
		}
	}
	repo.db.table[r.ID] = &r
	return r, nil
}

func (repo *resultRepository) DeleteResultsByID(_ context.Context, ids ...string) error {
	repo.db.Lock()
	defer repo.db.Unlock()
	for _, id := range ids {
		delete(repo.db.table, id)
	}
	return nil
}

func timeOrZero(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}
