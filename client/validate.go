package client

import (
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

var (
	validate   = newValidator()
	translator = newTranslator(validate)
)

// newValidator reports fields under their json names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		return strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	})

	return v
}

// newTranslator returns the English translator used for tags without a
// message of their own.
func newTranslator(v *validator.Validate) ut.Translator {
	trans, ok := ut.New(en.New(), en.New()).GetTranslator("en")
	if !ok {
		panic("client: failed to get 'en' translator")
	}
	if err := en_translations.RegisterDefaultTranslations(v, trans); err != nil {
		panic(err)
	}

	return trans
}

// descriptor is the part of a Request checked when it is created.
type descriptor struct {
	Method    Method `json:"method" validate:"required,oneof=GET POST PUT DELETE HEAD OPTIONS TRACE CONNECT"`
	URL       string `json:"url" validate:"required"`
	Encoding  string `json:"encoding" validate:"required"`
	Threshold int64  `json:"threshold" validate:"gte=0"`
}

// check validates val against its declared tags.
func check(val any) error {
	if err := validate.Struct(val); err != nil {
		verrors, ok := err.(validator.ValidationErrors)
		if !ok {
			return err
		}

		var fields FieldErrors
		for _, verror := range verrors {
			field := FieldError{
				Field: verror.Field(),
				Err:   fieldMessage(verror),
			}
			fields = append(fields, field)
		}
		return fields
	}

	return nil
}

// FieldError represents a single validation error for a specific field.
type FieldError struct {
	Field string `json:"field"`
	Err   string `json:"error"`
}

// FieldErrors represents a collection of field errors. It wraps
// ErrInvalidConfig.
type FieldErrors []FieldError

// Error implements the error interface, returning a human-readable
// summary of all field errors.
func (fe FieldErrors) Error() string {
	parts := make([]string, len(fe))
	for i, f := range fe {
		parts[i] = f.Field + ": " + f.Err
	}
	return ErrInvalidConfig.Error() + ": " + strings.Join(parts, "; ")
}

func (fe FieldErrors) Unwrap() error {
	return ErrInvalidConfig
}

// Fields returns the errors keyed by field name.
func (fe FieldErrors) Fields() map[string]string {
	m := make(map[string]string, len(fe))
	for _, f := range fe {
		m[f.Field] = f.Err
	}
	return m
}

func fieldMessage(verror validator.FieldError) string {
	switch verror.Tag() {
	case "required":
		return "must not be empty"
	case "oneof":
		return "must be one of " + verror.Param()
	default:
		return verror.Translate(translator)
	}
}
