package validator

import (
	"fmt"
	"strings"

	"github.com/schollz/closestmatch"
	"github.com/texttheater/golang-levenshtein/levenshtein"

	"payportal/constants"
	apperrors "payportal/errors"
)

// ValidateYearMonth bounds the period parameters.
func ValidateYearMonth(year, month int) error {
	if year < 2000 || year > 2100 {
		return apperrors.NewAppError(apperrors.ErrCodeValidation, "year out of range", nil)
	}
	if month < 1 || month > 12 {
		return apperrors.NewAppError(apperrors.ErrCodeValidation, "month out of range", nil)
	}
	return nil
}

// RowValidator checks submitted row fields against the configured field set
// and suggests the nearest known key for typos.
type RowValidator struct {
	known   map[string]bool
	matcher *closestmatch.ClosestMatch
}

// NewRowValidator builds a validator for a company's known field keys.
func NewRowValidator(knownKeys []string) *RowValidator {
	known := make(map[string]bool, len(knownKeys))
	for _, k := range knownKeys {
		known[k] = true
	}
	return &RowValidator{
		known:   known,
		matcher: closestmatch.New(knownKeys, []int{2, 3}),
	}
}

func editDistance(a, b string) int {
	return levenshtein.DistanceForStrings([]rune(a), []rune(b), levenshtein.DefaultOptions)
}

// suggest returns the nearest known key when it is plausibly a typo.
func (v *RowValidator) suggest(key string) string {
	candidate := v.matcher.Closest(key)
	if candidate == "" {
		return ""
	}
	if editDistance(key, candidate) > 2 {
		return ""
	}
	return candidate
}

// ValidateRow rejects unknown field keys and client-supplied deduction
// outputs. Typos carry a suggestion in the message.
func (v *RowValidator) ValidateRow(fields map[string]interface{}) error {
	if len(fields) == 0 {
		return apperrors.NewAppError(apperrors.ErrCodeRequiredField, "row has no fields", nil)
	}
	var unknown []string
	for key := range fields {
		if strings.TrimSpace(key) == "" {
			return apperrors.NewAppError(apperrors.ErrCodeValidation, "empty field key", nil)
		}
		if v.known[key] || constants.DeductionFields[key] {
			continue
		}
		msg := key
		if hint := v.suggest(key); hint != "" {
			msg = fmt.Sprintf("%s (did you mean %q?)", key, hint)
		}
		unknown = append(unknown, msg)
	}
	if len(unknown) > 0 {
		return apperrors.NewAppError(apperrors.ErrCodeValidation,
			"unknown fields: "+strings.Join(unknown, ", "), nil)
	}
	return nil
}
