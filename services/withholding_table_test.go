package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "payportal/errors"
	"payportal/models"
)

func sampleCells() []models.WithholdingCell {
	return []models.WithholdingCell{
		{Year: 2025, Dependents: 1, Wage: 1_000_000, IncomeTax: 10_000, LocalIncomeTax: 1_000},
		{Year: 2025, Dependents: 1, Wage: 2_000_000, IncomeTax: 30_000, LocalIncomeTax: 3_000},
		{Year: 2025, Dependents: 1, Wage: 3_000_000, IncomeTax: 84_850, LocalIncomeTax: 8_480},
		{Year: 2025, Dependents: 2, Wage: 1_000_000, IncomeTax: 8_000, LocalIncomeTax: 800},
		{Year: 2025, Dependents: 2, Wage: 3_000_000, IncomeTax: 67_350, LocalIncomeTax: 6_730},
		// Another year never leaks into 2025.
		{Year: 2024, Dependents: 1, Wage: 1_000_000, IncomeTax: 99_999, LocalIncomeTax: 9_999},
	}
}

func TestWithholdingTableBracketLookup(t *testing.T) {
	table := NewWithholdingTable(2025, sampleCells())

	income, local, err := table.Lookup(2025, 1, 3_000_000)
	require.NoError(t, err)
	assert.Equal(t, int64(84_850), income)
	assert.Equal(t, int64(8_480), local)

	// Between brackets the lower bracket applies.
	income, _, err = table.Lookup(2025, 1, 2_999_999)
	require.NoError(t, err)
	assert.Equal(t, int64(30_000), income)

	// Below the lowest bracket the lowest bracket applies.
	income, local, err = table.Lookup(2025, 1, 999_999)
	require.NoError(t, err)
	assert.Equal(t, int64(10_000), income)
	assert.Equal(t, int64(1_000), local)

	// Above the highest bracket the top bracket applies.
	income, _, err = table.Lookup(2025, 1, 50_000_000)
	require.NoError(t, err)
	assert.Equal(t, int64(84_850), income)
}

func TestWithholdingTableDependentClamp(t *testing.T) {
	table := NewWithholdingTable(2025, sampleCells())

	// Below the lowest column clamps up.
	income, _, err := table.Lookup(2025, 0, 3_000_000)
	require.NoError(t, err)
	assert.Equal(t, int64(84_850), income)

	// Above the highest column clamps down.
	income, _, err = table.Lookup(2025, 11, 3_000_000)
	require.NoError(t, err)
	assert.Equal(t, int64(67_350), income)
}

func TestWithholdingTableEmptyYear(t *testing.T) {
	table := NewWithholdingTable(2026, sampleCells()[:0])
	_, _, err := table.Lookup(2026, 1, 1_000_000)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeNoWithholding))

	// A table loaded for one year rejects lookups for another.
	table = NewWithholdingTable(2025, sampleCells())
	_, _, err = table.Lookup(2024, 1, 1_000_000)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeNoWithholding))
}

func TestWithholdingTableIgnoresOtherYears(t *testing.T) {
	table := NewWithholdingTable(2025, sampleCells())
	income, _, err := table.Lookup(2025, 1, 1_500_000)
	require.NoError(t, err)
	assert.Equal(t, int64(10_000), income)
}
