package validator

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"pms/constants"
	"pms/errors"
	"pms/models"
	"pms/types"

	"github.com/gin-gonic/gin/binding"
	playground "github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var (
	currencyRegex = regexp.MustCompile(`^[A-Z]{3}$`)
	registerOnce  sync.Once
	registerErr   error
)

// RegisterBindings adds the `currency` and `ooo_kind` tags to gin's validator.
func RegisterBindings() error {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*playground.Validate)
		if !ok {
			registerErr = fmt.Errorf("unexpected validator engine %T", binding.Validator.Engine())
			return
		}
		if err := v.RegisterValidation("currency", func(fl playground.FieldLevel) bool {
			return currencyRegex.MatchString(fl.Field().String())
		}); err != nil {
			registerErr = err
			return
		}
		registerErr = v.RegisterValidation("ooo_kind", func(fl playground.FieldLevel) bool {
			return models.OOOKind(strings.ToUpper(fl.Field().String())).Valid()
		})
	})
	return registerErr
}

// BindingError converts a gin binding failure into a validation AppError.
func BindingError(err error) error {
	verrs, ok := err.(playground.ValidationErrors)
	if !ok || len(verrs) == 0 {
		return errors.NewAppError(errors.ErrCodeInvalidFormat, "malformed request", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fieldMessage(fe))
	}
	return errors.NewAppError(errors.ErrCodeValidation, strings.Join(msgs, "; "), err)
}

func fieldMessage(fe playground.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "datetime":
		return fmt.Sprintf("%s must be YYYY-MM-DD", fe.Field())
	case "currency":
		return fmt.Sprintf("%s must be a 3-letter currency code", fe.Field())
	case "ooo_kind":
		return fmt.Sprintf("%s must be OOS or OOI", fe.Field())
	}
	return fmt.Sprintf("%s is invalid (%s)", fe.Field(), fe.Tag())
}

// ParseDate parses a YYYY-MM-DD value for the named field.
func ParseDate(field, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.NewAppError(errors.ErrCodeRequiredField, field+" is required", nil)
	}
	t, err := time.Parse(constants.DateLayout, value)
	if err != nil {
		return time.Time{}, errors.NewAppError(errors.ErrCodeInvalidFormat, field+" must be YYYY-MM-DD", err)
	}
	return t, nil
}

// ParseOptionalDate returns nil for an empty value.
func ParseOptionalDate(field, value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := ParseDate(field, value)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// ParseDateRange parses both ends and requires to >= from, or to > from when strict.
func ParseDateRange(from, to string, strict bool) (time.Time, time.Time, error) {
	f, err := ParseDate("from", from)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	t, err := ParseDate("to", to)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if t.Before(f) || (strict && t.Equal(f)) {
		return time.Time{}, time.Time{}, errors.Validation("to date must be after from date")
	}
	if types.DaysBetween(f, t) > constants.MaxDateWindowDays {
		return time.Time{}, time.Time{}, errors.Validation(fmt.Sprintf("date range must not exceed %d days", constants.MaxDateWindowDays))
	}
	return f, t, nil
}

func ParseRoomNo(value string) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		return 0, errors.NewAppError(errors.ErrCodeInvalidFormat, "room number must be a positive integer", err)
	}
	return n, nil
}

// ParseAmount parses a decimal amount; empty means zero.
func ParseAmount(field, value string) (decimal.Decimal, error) {
	if value == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, errors.NewAppError(errors.ErrCodeInvalidFormat, field+" must be a number", err)
	}
	return d, nil
}

// ValidateOOOKind normalises a kind string.
func ValidateOOOKind(value string) (models.OOOKind, error) {
	kind := models.OOOKind(strings.ToUpper(value))
	if !kind.Valid() {
		return "", errors.Validation("kind must be OOS or OOI")
	}
	return kind, nil
}

func ValidateFolioType(value string) (models.FolioType, error) {
	if value == "" {
		return "", nil
	}
	t := models.FolioType(strings.ToLower(value))
	if !t.Valid() {
		return "", errors.Validation("folio type must be master, sharer or additional")
	}
	return t, nil
}
