package vocabulary

import (
	"strings"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/eduenglish/backend/core"
)

var (
	posTag  = "pos"
	posText = "{0} must be one of: " + strings.Join(PartsOfSpeech, ", ")
)

// InitValidators registers the vocabulary validations on validate.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(posTag, posValidation)
	core.RegisterCustomTranslation(validate, translator, posTag, posText)
}

// posValidation accepts a known part of speech or nothing.
func posValidation(fl validator.FieldLevel) bool {
	pos := fl.Field().String()
	return pos == "" || core.StringsContain(PartsOfSpeech, pos)
}
