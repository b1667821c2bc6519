// Package validation wraps go-playground/validator with the field rules of
// the service: username and slug formats, and conversion of validator
// failures into common.FieldErrors.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/dmitrijs2005/yamdb/internal/common"
	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

var (
	usernamePattern = regexp.MustCompile(`^[\p{L}\p{N}\p{Mn}_.@+\-]+$`)
	slugPattern     = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)
)

// Messages shown to API clients.
const (
	MsgUsernameReserved = `username "me" is reserved`
	MsgUsernamePattern  = "enter a valid username: letters, digits and @/./+/-/_ only"
	MsgEmailInvalid     = "enter a valid email address"
	MsgRequired         = "this field is required"
)

// GetValidator returns the process-wide validator with the custom tags
// registered. Field names in errors come from json tags.
func GetValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())

		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				return fld.Name
			}
			return name
		})

		_ = validate.RegisterValidation("username", func(fl validator.FieldLevel) bool {
			return usernameProblem(fl.Field().String()) == ""
		})
		_ = validate.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
			return slugPattern.MatchString(fl.Field().String())
		})
	})
	return validate
}

// Struct validates s and returns *common.FieldErrors describing every
// failing field, or nil.
func Struct(s any) error {
	err := GetValidator().Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	fe := &common.FieldErrors{}
	for _, v := range verrs {
		fe.Add(v.Field(), message(v))
	}
	return fe
}

func message(v validator.FieldError) string {
	switch v.Tag() {
	case "required":
		return MsgRequired
	case "email":
		return MsgEmailInvalid
	case "username":
		if p := usernameProblem(fmt.Sprint(v.Value())); p != "" {
			return p
		}
		return MsgUsernamePattern
	case "slug":
		return "enter a valid slug: letters, digits, hyphens and underscores"
	case "max":
		return fmt.Sprintf("ensure this field has no more than %s characters", v.Param())
	case "min":
		return fmt.Sprintf("ensure this value is greater than or equal to %s", v.Param())
	case "lte":
		return fmt.Sprintf("ensure this value is less than or equal to %s", v.Param())
	case "gte":
		return fmt.Sprintf("ensure this value is greater than or equal to %s", v.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", v.Param())
	default:
		return fmt.Sprintf("failed on %q", v.Tag())
	}
}

func usernameProblem(username string) string {
	if strings.EqualFold(username, common.MeUsername) {
		return MsgUsernameReserved
	}
	if !usernamePattern.MatchString(username) {
		return MsgUsernamePattern
	}
	return ""
}

// Username checks the username format, the reserved name and the length
// limit counted in characters.
func Username(username string, maxLen int) error {
	if username == "" {
		return common.NewValidationError("username", MsgRequired)
	}
	if p := usernameProblem(username); p != "" {
		return common.NewValidationError("username", p)
	}
	if maxLen > 0 && utf8.RuneCountInString(username) > maxLen {
		return common.NewValidationError("username", fmt.Sprintf("ensure this field has no more than %d characters", maxLen))
	}
	return nil
}

// Email checks the email format and length.
func Email(email string, maxLen int) error {
	if email == "" {
		return common.NewValidationError("email", MsgRequired)
	}
	if maxLen > 0 && utf8.RuneCountInString(email) > maxLen {
		return common.NewValidationError("email", fmt.Sprintf("ensure this field has no more than %d characters", maxLen))
	}
	if err := GetValidator().Var(email, "email"); err != nil {
		return common.NewValidationError("email", MsgEmailInvalid)
	}
	return nil
}
