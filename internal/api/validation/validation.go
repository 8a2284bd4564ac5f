package validation

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/badoux/checkmail"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/youlead/youlead-backend/internal/models"
)

var once sync.Once

// Register installs the custom tags on gin's validator engine and makes
// field errors report json names. Safe to call more than once.
func Register() {
	once.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		_ = v.RegisterValidation("deliverable", deliverable)
	})
}

// deliverable accepts addresses checkmail considers well formed.
func deliverable(fl validator.FieldLevel) bool {
	return checkmail.ValidateFormat(strings.TrimSpace(fl.Field().String())) == nil
}

// FieldErrors converts a binding failure into per-field messages.
// Errors that are not validation failures (malformed JSON) become a
// single entry with an empty field.
func FieldErrors(err error) []models.FieldError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []models.FieldError{{Field: "", Message: "malformed request body"}}
	}

	out := make([]models.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		field := fe.Field()
		param := fe.Param()

		var msg string
		switch fe.Tag() {
		case "required":
			msg = field + " is required"
		case "min":
			msg = field + " must be at least " + param
		case "max":
			msg = field + " must be at most " + param
		case "email", "deliverable":
			msg = field + " must be a valid email"
		case "oneof":
			msg = field + " must be one of: " + strings.ReplaceAll(param, " ", ", ")
		case "e164":
			msg = field + " must be an E.164 phone number"
		case "uuid":
			msg = field + " must be a uuid"
		case "url":
			msg = field + " must be a URL"
		default:
			msg = field + " is invalid"
		}
		out = append(out, models.FieldError{Field: field, Message: msg})
	}
	return out
}
