package course

import (
	"strings"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/eduenglish/backend/core"
)

var (
	levelTag = "level"

	courseImageTag  = "courseimage"
	courseImageText = "{0} must be a valid URL or base64 image data"
)

// InitValidators registers the course validations on validate.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	core.RegisterOneOf(validate, translator, levelTag, Levels)

	_ = validate.RegisterValidation(courseImageTag, courseImageValidation)
	core.RegisterCustomTranslation(validate, translator, courseImageTag, courseImageText)
}

func courseImageValidation(fl validator.FieldLevel) bool {
	img := fl.Field().String()
	return strings.HasPrefix(img, "http") || strings.HasPrefix(img, "data:image/")
}
