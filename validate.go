package typroxy

import (
	"mime"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Registration only fails for empty tags or nil functions.
	_ = v.RegisterValidation("notblank", validators.NotBlank)
	_ = v.RegisterValidation("mediatype", isMediaType)
	return v
}

func isMediaType(fl validator.FieldLevel) bool {
	_, _, err := mime.ParseMediaType(fl.Field().String())
	return err == nil
}
