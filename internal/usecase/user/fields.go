package user

import (
	"errors"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	pkgerrors "user-directory-service/pkg/errors"
)

// Field names accepted in user payloads, in response order.
const (
	FieldFirstName = "firstName"
	FieldLastName  = "lastName"
	FieldEmail     = "email"
	FieldPassword  = "password"
)

var userFieldNames = []string{FieldFirstName, FieldLastName, FieldEmail, FieldPassword}

// userFields is the typed, trimmed form of a user payload.
// Nil means the field was not sent.
type userFields struct {
	FirstName *string `json:"firstName" validate:"omitempty,max=100"`
	LastName  *string `json:"lastName" validate:"omitempty,max=100"`
	Email     *string `json:"email" validate:"omitempty,max=254,email"`
	Password  *string `json:"password" validate:"omitempty,maxbytes=72"`
}

func newValidator() *validator.Validate {
	v := validator.New()
	// bcrypt reads at most 72 bytes; max counts runes.
	_ = v.RegisterValidation("maxbytes", func(fl validator.FieldLevel) bool {
		limit, err := strconv.Atoi(fl.Param())
		return err == nil && len(fl.Field().String()) <= limit
	})
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// parseFields applies the payload rules shared by create and update:
// unknown keys, non-string values and blank values are rejected.
// With requireAll every known field must be present; otherwise at least one must be.
func parseFields(body map[string]any, requireAll bool) (userFields, *pkgerrors.ValidationError) {
	verr := pkgerrors.NewValidationError()

	var extra, notString, blank []string
	values := make(map[string]string, len(body))
	for key, raw := range body {
		if !isUserField(key) {
			extra = append(extra, key)
			continue
		}
		s, ok := raw.(string)
		if !ok {
			notString = append(notString, key)
			continue
		}
		s = strings.TrimSpace(s)
		if s == "" {
			blank = append(blank, key)
			continue
		}
		values[key] = s
	}

	var missing []string
	for _, name := range userFieldNames {
		if _, sent := body[name]; !sent && requireAll {
			missing = append(missing, name)
		}
	}

	sort.Strings(extra)
	sort.Strings(notString)
	sort.Strings(blank)
	verr.Add("Unexpected field", extra...)
	verr.Add("Field required but missing", missing...)
	verr.Add("Value must be a string", notString...)
	verr.Add("Value required for field", blank...)
	if !requireAll && len(body) == 0 {
		verr.Add("Nothing to update", userFieldNames...)
	}
	if verr.HasErrors() {
		return userFields{}, verr
	}

	var f userFields
	if v, ok := values[FieldFirstName]; ok {
		f.FirstName = &v
	}
	if v, ok := values[FieldLastName]; ok {
		f.LastName = &v
	}
	if v, ok := values[FieldEmail]; ok {
		f.Email = &v
	}
	if v, ok := values[FieldPassword]; ok {
		f.Password = &v
	}
	return f, nil
}

func isUserField(name string) bool {
	for _, known := range userFieldNames {
		if name == known {
			return true
		}
	}
	return false
}

// formatValidationError converts validator.ValidationErrors into grouped field errors.
func formatValidationError(err error) error {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err
	}

	grouped := make(map[string][]string)
	var order []string
	for _, e := range validationErrors {
		var message string
		switch e.Tag() {
		case "email":
			message = "Invalid email address"
		case "max", "maxbytes":
			message = "Value too long"
		default:
			message = "Invalid value"
		}
		if _, seen := grouped[message]; !seen {
			order = append(order, message)
		}
		grouped[message] = append(grouped[message], e.Field())
	}

	verr := pkgerrors.NewValidationError()
	for _, message := range order {
		verr.Add(message, grouped[message]...)
	}
	return verr
}
