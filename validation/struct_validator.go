package validation

import (
	stderrors "errors"
	"reflect"
	"strings"
	"sync"
	"unicode"

	"github.com/go-playground/validator/v10"

	"github.com/halo-dev/halo/errors"
)

// FieldError is one entry of the "fields" detail on a validation AppError.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

var instance = sync.OnceValue(func() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(keyName)
	_ = v.RegisterValidation("pathsegment", isPathSegment)
	return v
})

// keyName names a field the way configuration refers to it: the
// mapstructure tag, then the json tag, then the snake_cased Go name.
func keyName(fld reflect.StructField) string {
	for _, tag := range [...]string{"mapstructure", "json"} {
		name, _, _ := strings.Cut(fld.Tag.Get(tag), ",")
		switch name {
		case "-":
			return ""
		case "":
			continue
		default:
			return name
		}
	}
	return snake(fld.Name)
}

// Validate checks s against its `validate` tags. Failures come back as a
// single INVALID_INPUT AppError listing every field.
func Validate(s any) error {
	err := instance().Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !stderrors.As(err, &verrs) {
		return errors.Validation("validation failed").WithCause(err)
	}

	fields := make([]FieldError, len(verrs))
	parts := make([]string, len(verrs))
	for i, fe := range verrs {
		// Drop the root struct name: "Properties.admin-path" -> "admin-path".
		_, path, ok := strings.Cut(fe.Namespace(), ".")
		if !ok {
			path = fe.Namespace()
		}
		fields[i] = FieldError{Field: path, Message: describe(fe)}
		parts[i] = path + ": " + fields[i].Message
	}
	return errors.Validation(strings.Join(parts, "; ")).WithDetail("fields", fields)
}

var tagMessages = map[string]string{
	"required":      "is required",
	"required_if":   "is required",
	"min":           "must be at least ",
	"max":           "must be at most ",
	"gt":            "must be greater than ",
	"gte":           "must be greater than or equal to ",
	"lte":           "must be less than or equal to ",
	"oneof":         "must be one of: ",
	"pathsegment":   "must be a single URL path segment",
	"hostname_port": "must be a host:port pair",
}

func describe(fe validator.FieldError) string {
	msg, ok := tagMessages[fe.Tag()]
	if !ok {
		return "is invalid"
	}
	if strings.HasSuffix(msg, " ") {
		return msg + fe.Param()
	}
	return msg
}

// isPathSegment accepts one URL path segment: not empty, not a dot segment,
// and free of separators and whitespace.
func isPathSegment(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	switch s {
	case "", ".", "..":
		return false
	}
	return !strings.ContainsFunc(s, func(r rune) bool {
		return strings.ContainsRune(`/\?#`, r) || unicode.IsSpace(r)
	})
}

func snake(name string) string {
	var b strings.Builder
	for i, r := range name {
		if unicode.IsUpper(r) && i > 0 {
			b.WriteByte('_')
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}
