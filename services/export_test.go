package services

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"payportal/constants"
	apperrors "payportal/errors"
)

func TestExportColumnsLayout(t *testing.T) {
	rules := []FieldRule{
		{Key: constants.FieldBaseSalary},
		{Key: constants.FieldMealAllowance},
		{Key: constants.FieldEmployeeCode},
	}
	cols := exportColumns(rules)

	// Identity first, then configured fields without duplicated identity
	// keys, then the derived deduction columns.
	assert.Equal(t, constants.FieldEmployeeCode, cols[0])
	assert.Equal(t, constants.FieldEmployeeName, cols[1])
	assert.Equal(t, constants.FieldResidentID, cols[2])
	assert.Equal(t, constants.FieldBaseSalary, cols[3])
	assert.Equal(t, constants.FieldMealAllowance, cols[4])
	assert.Equal(t, constants.FieldLocalIncomeTax, cols[len(cols)-1])
	assert.Len(t, cols, 3+2+6)
}

func TestExportSignatureRoundTrip(t *testing.T) {
	t.Setenv("EXPORT_HMAC_SECRET", "topsecret")

	path := "/api/exports/acme/2025"
	exp := time.Now().Add(10 * time.Minute).Unix()
	sig := SignExportPath(path, exp, 7)
	require.NotEmpty(t, sig)

	require.NoError(t, VerifyExportSignature(path, exp, 7, sig))

	// Any mutated element invalidates the link.
	err := VerifyExportSignature("/api/exports/other/2025", exp, 7, sig)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeForbidden))
	err = VerifyExportSignature(path, exp+1, 7, sig)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeForbidden))
	err = VerifyExportSignature(path, exp, 8, sig)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeForbidden))
	err = VerifyExportSignature(path, exp, 7, sig+"00")
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeForbidden))
}

func TestExportSignatureExpiry(t *testing.T) {
	t.Setenv("EXPORT_HMAC_SECRET", "topsecret")

	path := "/api/exports/acme/2025"
	exp := time.Now().Add(-time.Minute).Unix()
	sig := SignExportPath(path, exp, 7)
	err := VerifyExportSignature(path, exp, 7, sig)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeForbidden))
}

func TestExportSignatureDisabledWithoutSecret(t *testing.T) {
	t.Setenv("EXPORT_HMAC_SECRET", "")
	assert.Empty(t, SignExportPath("/api/exports/acme/2025", 1, 7))
	assert.NoError(t, VerifyExportSignature("/api/exports/acme/2025", 1, 7, "anything"))
}

func TestSignExportPathDeterministic(t *testing.T) {
	t.Setenv("EXPORT_HMAC_SECRET", "topsecret")
	exp := time.Now().Unix()
	for companyID := uint(1); companyID < 4; companyID++ {
		path := fmt.Sprintf("/api/exports/c%d/2025", companyID)
		assert.Equal(t, SignExportPath(path, exp, companyID), SignExportPath(path, exp, companyID))
	}
}
