package validation

import (
	"encoding/json"
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// New returns a validator whose field errors carry the form (or JSON) name
// the browser submitted rather than the Go field name.
func New() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(fieldName)
	return v
}

func fieldName(fld reflect.StructField) string {
	for _, tag := range []string{"form", "json"} {
		name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name != "" {
			return name
		}
	}
	return fld.Name
}

// FieldError is the first failing field of a validated struct.
type FieldError struct {
	Field   string
	Message string
}

// First returns the first failing field in struct declaration order, or nil
// when err carries no field errors.
func First(err error) *FieldError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return nil
	}
	fe := verrs[0]
	return &FieldError{Field: fe.Field(), Message: Message(fe)}
}

// ToDetails converts validation/binding errors into a map[field]message suitable for API error.details.
func ToDetails(err error) map[string]string {
	if err == nil {
		return nil
	}

	var se *json.SyntaxError
	var ute *json.UnmarshalTypeError
	if errors.As(err, &se) || errors.As(err, &ute) {
		return map[string]string{"payload": "invalid json"}
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		out := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			out[fe.Field()] = Message(fe)
		}
		return out
	}

	return map[string]string{"payload": "invalid payload"}
}

// Message renders a form-ready sentence for one field error.
func Message(fe validator.FieldError) string {
	label := Label(fe.Field())
	param := fe.Param()

	switch fe.Tag() {
	case "required":
		return label + " is required."
	case "email":
		return "Invalid email address."
	case "eqfield":
		return label + " must match " + strings.ToLower(Label(toSnake(param))) + "."
	case "min":
		if fe.Kind() == reflect.String {
			return label + " must be at least " + param + " characters long."
		}
		return label + " must be at least " + param + "."
	case "max":
		if fe.Kind() == reflect.String {
			return label + " must be at most " + param + " characters long."
		}
		return label + " must be at most " + param + "."
	case "len":
		return label + " must be exactly " + param + " characters long."
	case "oneof":
		return label + " must be one of: " + strings.ReplaceAll(param, " ", ", ") + "."
	default:
		return label + " is invalid."
	}
}

// Label turns a field name like "confirm_password" into "Confirm password".
func Label(field string) string {
	s := strings.ReplaceAll(field, "_", " ")
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// toSnake maps a Go field name used as a tag param ("Password") to its form name.
func toSnake(s string) string {
	var b strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}
