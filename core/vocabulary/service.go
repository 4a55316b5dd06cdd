package vocabulary

import (
	"context"

	"github.com/pkg/errors"

	"github.com/eduenglish/backend/core"
	"github.com/eduenglish/backend/core/user"
)

var (
	// errors
	ErrNotFound  = core.NewNotFoundError("Vocabulary not found")
	ErrForbidden = core.NewPermissionError("Not authorized to modify this vocabulary")
)

type (
	Repository interface {
		CreateVocabularies(ctx context.Context, vocabs ...Vocabulary) ([]Vocabulary, error)
		GetVocabularyByID(ctx context.Context, id string) (Vocabulary, error)
		// GetVocabulariesByID returns the found vocabularies in the order of ids.
		GetVocabulariesByID(ctx context.Context, ids ...string) ([]Vocabulary, error)
		// FilterVocabularies returns the matching vocabularies, newest first.
		FilterVocabularies(ctx context.Context, filter QueryFilter) ([]Vocabulary, error)
		UpdateVocabulary(ctx context.Context, v Vocabulary) (Vocabulary, error)
		DeleteVocabulariesByID(ctx context.Context, ids ...string) error
	}

	Service interface {
		Query(ctx context.Context, filter QueryFilter) ([]Vocabulary, error)
		// Favourites lists favourite vocabularies of filter.UserID, defaulting to the caller's.
		Favourites(ctx context.Context, filter QueryFilter, caller *user.User) ([]Vocabulary, error)
		GetByID(ctx context.Context, id string) (Vocabulary, error)
		Create(ctx context.Context, nv NewVocabulary, caller user.User) (Vocabulary, error)
		Update(ctx context.Context, id string, uv UpdateVocabulary, caller user.User) (Vocabulary, error)
		ToggleFavourite(ctx context.Context, id string, caller user.User) (Vocabulary, error)
		Delete(ctx context.Context, id string, caller user.User) error
	}

	service struct {
		repo Repository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (svc *service) Query(ctx context.Context, filter QueryFilter) ([]Vocabulary, error) {
	filter.Clean()
	vocabs, err := svc.repo.FilterVocabularies(ctx, filter)
	if err != nil {
		return nil, errors.Wrap(err, "filtering vocabularies")
	}
	if vocabs == nil {
		vocabs = []Vocabulary{}
	}
	return vocabs, nil
}

func (svc *service) Favourites(ctx context.Context, filter QueryFilter, caller *user.User) ([]Vocabulary, error) {
	filter.Favourite = true
	if core.CleanString(filter.UserID) == "" && caller != nil {
		filter.UserID = caller.ID
	}
	return svc.Query(ctx, filter)
}

func (svc *service) GetByID(ctx context.Context, id string) (Vocabulary, error) {
	if !core.IsValidID(id) {
		return Vocabulary{}, ErrNotFound
	}
	return svc.repo.GetVocabularyByID(ctx, id)
}

func (svc *service) Create(ctx context.Context, nv NewVocabulary, caller user.User) (Vocabulary, error) {
	if nv.UserID == "" {
		nv.UserID = caller.ID
	}
	vocabs, err := svc.repo.CreateVocabularies(ctx, nv.Vocabulary(core.Now()))
	if err != nil {
		return Vocabulary{}, errors.Wrap(err, "creating vocabulary")
	}
	return vocabs[0], nil
}

func (svc *service) Update(ctx context.Context, id string, uv UpdateVocabulary, caller user.User) (Vocabulary, error) {
	v, err := svc.GetByID(ctx, id)
	if err != nil {
		return Vocabulary{}, err
	}
	if !canModify(v, caller) {
		return Vocabulary{}, ErrForbidden
	}
	uv.apply(&v)
	v.UpdatedAt = core.Now()
	return svc.repo.UpdateVocabulary(ctx, v)
}

func (svc *service) ToggleFavourite(ctx context.Context, id string, caller user.User) (Vocabulary, error) {
	v, err := svc.GetByID(ctx, id)
	if err != nil {
		return Vocabulary{}, err
	}
	if v.UserID == "" {
		v.UserID = caller.ID // claim
	} else if !canModify(v, caller) {
		return Vocabulary{}, ErrForbidden
	}
	v.Favourite = !v.Favourite
	v.UpdatedAt = core.Now()
	return svc.repo.UpdateVocabulary(ctx, v)
}

func (svc *service) Delete(ctx context.Context, id string, caller user.User) error {
	v, err := svc.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !canModify(v, caller) {
		return ErrForbidden
	}
	return svc.repo.DeleteVocabulariesByID(ctx, v.ID)
}

// canModify: admins may modify anything, users only what they own.
func canModify(v Vocabulary, caller user.User) bool {
	return caller.IsAdmin() || v.IsOwnedBy(caller.ID)
}
