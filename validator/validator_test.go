package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"payportal/constants"
	apperrors "payportal/errors"
)

func TestValidateYearMonth(t *testing.T) {
	require.NoError(t, ValidateYearMonth(2025, 1))
	require.NoError(t, ValidateYearMonth(2025, 12))
	assert.Error(t, ValidateYearMonth(2025, 0))
	assert.Error(t, ValidateYearMonth(2025, 13))
	assert.Error(t, ValidateYearMonth(1999, 6))
	assert.Error(t, ValidateYearMonth(2101, 6))
}

func knownFieldKeys() []string {
	return []string{
		constants.FieldEmployeeCode,
		constants.FieldEmployeeName,
		constants.FieldBaseSalary,
		constants.FieldMealAllowance,
		constants.FieldCarAllowance,
	}
}

func TestValidateRowAcceptsKnownFields(t *testing.T) {
	v := NewRowValidator(knownFieldKeys())
	err := v.ValidateRow(map[string]interface{}{
		constants.FieldEmployeeCode:  "E001",
		constants.FieldBaseSalary:    int64(3_000_000),
		constants.FieldMealAllowance: int64(200_000),
	})
	require.NoError(t, err)
}

func TestValidateRowAcceptsDeductionKeys(t *testing.T) {
	// Client-echoed deduction outputs are not unknown fields; the service
	// strips them rather than rejecting the row.
	v := NewRowValidator(knownFieldKeys())
	err := v.ValidateRow(map[string]interface{}{
		constants.FieldBaseSalary:      int64(3_000_000),
		constants.FieldNationalPension: int64(135_000),
	})
	require.NoError(t, err)
}

func TestValidateRowRejectsUnknownWithSuggestion(t *testing.T) {
	v := NewRowValidator([]string{"base_salary", "meal_allowance"})
	err := v.ValidateRow(map[string]interface{}{
		"base_salry": int64(1),
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeValidation))
	assert.Contains(t, err.Error(), "base_salry")
	assert.Contains(t, err.Error(), "base_salary")
}

func TestValidateRowRejectsEmptyRow(t *testing.T) {
	v := NewRowValidator(knownFieldKeys())
	err := v.ValidateRow(map[string]interface{}{})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeRequiredField))
}

func TestValidateRowRejectsEmptyKey(t *testing.T) {
	v := NewRowValidator(knownFieldKeys())
	err := v.ValidateRow(map[string]interface{}{" ": int64(1)})
	require.Error(t, err)
}
