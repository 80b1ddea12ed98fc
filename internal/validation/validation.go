package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/noteduco342/groupmeet-backend/internal/apperr"
)

const (
	MaxGroupNameLength   = 100
	MaxDescriptionLength = 2000
	MaxTitleLength       = 200
	MaxMessageLength     = 5000
	MaxCommentLength     = 2000

	// EventDateLayout is the only accepted event timestamp shape.
	EventDateLayout = "2006-01-02 15:04"
)

var (
	usernameRe  = regexp.MustCompile(`^[a-zA-Z0-9_]{3,32}$`)
	eventDateRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2} \d{2}:\d{2}$`)

	validate = newValidator()
)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report fields by the name clients send.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	_ = v.RegisterValidation("access", func(fl validator.FieldLevel) bool {
		s := strings.ToLower(strings.TrimSpace(fl.Field().String()))
		return s == "public" || s == "private"
	})
	return v
}

// Struct runs the validate tags on s and converts the first failure into a
// validation error whose message can be shown to the user as is.
func Struct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return apperr.Validation("invalid_input", "Invalid input")
	}
	fe := verrs[0]
	return apperr.Validation("invalid_"+fe.Field(), fieldMessage(fe))
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "notblank":
		return fmt.Sprintf("%s is required", fe.Field())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", fe.Field(), fe.Param())
	case "email":
		return "Invalid email address"
	case "access":
		return fmt.Sprintf("%s must be Public or Private", fe.Field())
	case "eqfield":
		return fmt.Sprintf("%s does not match %s", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}

// ParseEventDate accepts exactly "YYYY-MM-DD HH:MM" on a 24-hour clock and
// interprets it in loc.
func ParseEventDate(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if !eventDateRe.MatchString(s) {
		return time.Time{}, apperr.Validation("invalid_event_date", "Event date must use the format YYYY-MM-DD HH:MM")
	}
	if loc == nil {
		loc = time.UTC
	}
	t, err := time.ParseInLocation(EventDateLayout, s, loc)
	if err != nil {
		return time.Time{}, apperr.Validation("invalid_event_date", "Event date is not a valid date or time")
	}
	return t, nil
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func NormalizeUsername(username string) string {
	return strings.TrimSpace(username)
}

func ValidateUsername(username string) bool {
	username = NormalizeUsername(username)
	return usernameRe.MatchString(username)
}

func ValidatePassword(password string, minLength int) bool {
	if minLength < 8 {
		minLength = 8
	}
	return len(password) >= minLength
}
