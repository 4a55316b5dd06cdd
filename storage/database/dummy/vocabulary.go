package dummydb

import (
	"context"
	"sort"

	"github.com/eduenglish/backend/core/vocabulary"
)

type vocabularyRepository struct {
	db *vocabularyTable
}

var _ vocabulary.Repository = (*vocabularyRepository)(nil)

func NewVocabularyRepository(db *DB) vocabulary.Repository {
	return &vocabularyRepository{db: db.vocabulary}
}

func (repo *vocabularyRepository) CreateVocabularies(_ context.Context, vocabs ...vocabulary.Vocabulary) ([]vocabulary.Vocabulary, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	created := make([]vocabulary.Vocabulary, 0, len(vocabs))
	for _, v := range vocabs {
		v := v
		v.ID = newID()
		repo.db.table[v.ID] = &v
		created = append(created, v)
	}
	return created, nil
}

func (repo *vocabularyRepository) GetVocabularyByID(_ context.Context, id string) (vocabulary.Vocabulary, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if v, ok := repo.db.table[id]; ok {
		return *v, nil
	}
	return vocabulary.Vocabulary{}, vocabulary.ErrNotFound
}

func (repo *vocabularyRepository) GetVocabulariesByID(_ context.Context, ids ...string) ([]vocabulary.Vocabulary, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	vocabs := make([]vocabulary.Vocabulary, 0, len(ids))
	for _, id := range ids {
		if v, ok := repo.db.table[id]; ok {
			vocabs = append(vocabs, *v)
		}
	}
	return vocabs, nil
}

func (repo *vocabularyRepository) FilterVocabularies(_ context.Context, filter vocabulary.QueryFilter) ([]vocabulary.Vocabulary, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	vocabs := make([]vocabulary.Vocabulary, 0)
	for _, v := range repo.db.table {
		if filter.Match(*v) {
			vocabs = append(vocabs, *v)
		}
	}
	sort.Slice(vocabs, func(i, j int) bool {
		return newer(vocabs[i].CreatedAt, vocabs[i].ID, vocabs[j].CreatedAt, vocabs[j].ID)
	})
	return vocabs, nil
}

func (repo *vocabularyRepository) UpdateVocabulary(_ context.Context, v vocabulary.Vocabulary) (vocabulary.Vocabulary, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[v.ID]; !ok {
		return vocabulary.Vocabulary{}, vocabulary.ErrNotFound
	}
	repo.db.table[v.ID] = &v
	return v, nil
}

func (repo *vocabularyRepository) DeleteVocabulariesByID(_ context.Context, ids ...string) error {
	repo.db.Lock()
	defer repo.db.Unlock()
	for _, id := range ids {
		delete(repo.db.table, id)
	}
	return nil
}
