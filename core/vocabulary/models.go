package vocabulary

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/eduenglish/backend/core"
)

var PartsOfSpeech = []string{"noun", "verb", "adjective", "adverb", "preposition", "conjunction", "pronoun", "interjection"}

type Vocabulary struct {
	ID            string    `json:"_id"`
	Word          string    `json:"word"`
	Meaning       string    `json:"meaning"`
	Example       string    `json:"example"`
	Pronunciation string    `json:"pronunciation"`
	PartOfSpeech  string    `json:"partOfSpeech"`
	Favourite     bool      `json:"favourite"`
	UserID        string    `json:"userId,omitempty"`
	CreatedAt     time.Time `json:"createdAt"` // UTC
	UpdatedAt     time.Time `json:"updatedAt"` // UTC
}

// IsOwnedBy reports whether the vocabulary belongs to the user with the given ID.
func (v Vocabulary) IsOwnedBy(userID string) bool {
	return v.UserID != "" && v.UserID == userID
}

// NewVocabulary contains information needed to create a new Vocabulary.
type NewVocabulary struct {
	Word          string `json:"word" validate:"required,notblank"`
	Meaning       string `json:"meaning" validate:"required,notblank"`
	Example       string `json:"example"`
	Pronunciation string `json:"pronunciation"`
	PartOfSpeech  string `json:"partOfSpeech" validate:"omitempty,pos"`
	Favourite     bool   `json:"favourite"`
	UserID        string `json:"userId" validate:"omitempty,objectid"`
}

func (nv *NewVocabulary) Clean() {
	nv.Word = core.CleanString(nv.Word)
	nv.Meaning = core.CleanString(nv.Meaning)
	nv.Example = core.CleanString(nv.Example)
	nv.Pronunciation = core.CleanString(nv.Pronunciation)
	nv.PartOfSpeech = core.CleanString(nv.PartOfSpeech, true /* lower */)
}

func (nv *NewVocabulary) Validate(validate *validator.Validate) error {
	nv.Clean()
	return validate.Struct(nv)
}

// IsComplete reports whether the required fields are set; course content drops incomplete items.
func (nv NewVocabulary) IsComplete() bool {
	return strings.TrimSpace(nv.Word) != "" && strings.TrimSpace(nv.Meaning) != ""
}

// Vocabulary builds the Vocabulary to insert. An unknown part of speech is dropped.
func (nv NewVocabulary) Vocabulary(now time.Time) Vocabulary {
	nv.Clean()
	if !core.StringsContain(PartsOfSpeech, nv.PartOfSpeech) {
		nv.PartOfSpeech = ""
	}
	return Vocabulary{
		Word:          nv.Word,
		Meaning:       nv.Meaning,
		Example:       nv.Example,
		Pronunciation: nv.Pronunciation,
		PartOfSpeech:  nv.PartOfSpeech,
		Favourite:     nv.Favourite,
		UserID:        nv.UserID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// UpdateVocabulary defines what information may be provided to modify an existing Vocabulary.
type UpdateVocabulary struct {
	Word          *string `json:"word" validate:"omitempty,notblank"`
	Meaning       *string `json:"meaning" validate:"omitempty,notblank"`
	Example       *string `json:"example"`
	Pronunciation *string `json:"pronunciation"`
	PartOfSpeech  *string `json:"partOfSpeech" validate:"omitempty,pos"`
	Favourite     *bool   `json:"favourite"`
}

func (uv *UpdateVocabulary) Validate(validate *validator.Validate) error {
	clean := func(s *string, lower ...bool) {
		if s != nil {
			*s = core.CleanString(*s, lower...)
		}
	}
	clean(uv.Word)
	clean(uv.Meaning)
	clean(uv.Example)
	clean(uv.Pronunciation)
	clean(uv.PartOfSpeech, true /* lower */)
	return validate.Struct(uv)
}

func (uv UpdateVocabulary) apply(v *Vocabulary) {
	if uv.Word != nil {
		v.Word = *uv.Word
	}
	if uv.Meaning != nil {
		v.Meaning = *uv.Meaning
	}
	if uv.Example != nil {
		v.Example = *uv.Example
	}
	if uv.Pronunciation != nil {
		v.Pronunciation = *uv.Pronunciation
	}
	if uv.PartOfSpeech != nil {
		v.PartOfSpeech = *uv.PartOfSpeech
	}
	if uv.Favourite != nil {
		v.Favourite = *uv.Favourite
	}
}

type QueryFilter struct {
	Search       string `query:"search"` // case-insensitive match on Word or Meaning
	PartOfSpeech string `query:"partOfSpeech"`
	Favourite    bool   `query:"favourite"`
	UserID       string `query:"userId"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.PartOfSpeech = core.CleanString(qf.PartOfSpeech, true /* lower */)
	qf.UserID = core.CleanString(qf.UserID)
}

// Match reports whether v satisfies the filter.
func (qf QueryFilter) Match(v Vocabulary) bool {
	if qf.Search != "" {
		search := strings.ToLower(qf.Search)
		if !(strings.Contains(strings.ToLower(v.Word), search) || strings.Contains(strings.ToLower(v.Meaning), search)) {
			return false
		}
	}
	if qf.PartOfSpeech != "" && v.PartOfSpeech != qf.PartOfSpeech {
		return false
	}
	if qf.Favourite && !v.Favourite {
		return false
	}
	if qf.UserID != "" && v.UserID != qf.UserID {
		return false
	}
	return true
}
