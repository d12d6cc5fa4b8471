package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"payportal/constants"
	"payportal/models"
)

func testCompany() *models.Company {
	return &models.Company{
		ID:       7,
		Name:     "Acme",
		Slug:     "acme",
		TokenKey: "k-original",
	}
}

func TestCompanyTokenRoundTrip(t *testing.T) {
	company := testCompany()
	token, err := GenerateCompanyToken(company, []string{constants.RolePayrollManager}, time.Hour)
	require.NoError(t, err)

	claims, err := ParseCompanyToken(token, company)
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.CompanyID)
	assert.Equal(t, "acme", claims.Slug)
	assert.Equal(t, []string{constants.RolePayrollManager}, claims.Roles)
}

func TestCompanyTokenRejectedAfterKeyRotation(t *testing.T) {
	company := testCompany()
	token, err := GenerateCompanyToken(company, []string{constants.RolePayrollManager}, time.Hour)
	require.NoError(t, err)

	company.TokenKey = "k-rotated"
	_, err = ParseCompanyToken(token, company)
	require.Error(t, err)
}

func TestCompanyTokenRejectedForOtherWorkspace(t *testing.T) {
	company := testCompany()
	token, err := GenerateCompanyToken(company, nil, time.Hour)
	require.NoError(t, err)

	// Same signing key, different workspace id.
	other := &models.Company{ID: 8, Slug: "other", TokenKey: company.TokenKey}
	_, err = ParseCompanyToken(token, other)
	require.Error(t, err)
}

func TestCompanyTokenExpiry(t *testing.T) {
	company := testCompany()
	token, err := GenerateCompanyToken(company, nil, -time.Minute)
	require.NoError(t, err)
	_, err = ParseCompanyToken(token, company)
	require.Error(t, err)
}

func TestAdminTokenRoundTrip(t *testing.T) {
	t.Setenv("SECRET_KEY", "console-secret")

	token, err := GenerateAdminToken("accountant@example.com", time.Hour)
	require.NoError(t, err)

	claims, err := ParseAdminToken(token)
	require.NoError(t, err)
	assert.Equal(t, "accountant@example.com", claims.Subject)
	assert.Equal(t, []string{constants.RoleAdmin}, claims.Roles)

	// An admin token never verifies as a portal token.
	_, err = ParseCompanyToken(token, testCompany())
	require.Error(t, err)
}
