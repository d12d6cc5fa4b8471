package services

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"payportal/constants"
)

func basePolicy() EffectivePolicy {
	return EffectivePolicy{
		Pension:      CategoryPolicy{Rate: 0.045, RoundTo: 10, Rounding: constants.RoundingNearest},
		Health:       CategoryPolicy{Rate: 0.03545, RoundTo: 10, Rounding: constants.RoundingNearest},
		Employment:   CategoryPolicy{Rate: 0.009, RoundTo: 10, Rounding: constants.RoundingNearest},
		LongTermCare: LongTermCarePolicy{Rate: 0.1295},
	}
}

type tableStub struct {
	income int64
	local  int64
	calls  int
}

func (s *tableStub) Lookup(year, dependents int, wage int64) (int64, int64, error) {
	s.calls++
	return s.income, s.local, nil
}

func TestNumericValue(t *testing.T) {
	assert.Equal(t, int64(3000000), NumericValue("3,000,000"))
	assert.Equal(t, int64(1234), NumericValue(" 1234 "))
	assert.Equal(t, int64(1500), NumericValue(1500.9))
	assert.Equal(t, int64(-200), NumericValue("-200"))
	assert.Equal(t, int64(0), NumericValue("n/a"))
	assert.Equal(t, int64(0), NumericValue(nil))
	assert.Equal(t, int64(0), NumericValue([]string{"x"}))
}

func TestRoundAmountModes(t *testing.T) {
	for _, unit := range []int64{1, 10, 100} {
		for _, v := range []int64{0, 1, unit - 1, unit, 1_000_000, 135_004} {
			d := decimal.NewFromInt(v)

			floor := roundAmount(d, unit, constants.RoundingFloor)
			ceil := roundAmount(d, unit, constants.RoundingCeil)
			near := roundAmount(d, unit, constants.RoundingNearest)

			assert.Zero(t, floor%unit)
			assert.Zero(t, ceil%unit)
			assert.Zero(t, near%unit)
			assert.LessOrEqual(t, floor, v)
			assert.GreaterOrEqual(t, ceil, v)
			assert.LessOrEqual(t, floor, near)
			assert.LessOrEqual(t, near, ceil)
		}
	}

	// Half rounds away from zero.
	assert.Equal(t, int64(10), roundAmount(decimal.NewFromInt(5), 10, constants.RoundingNearest))
	// Floor and ceil are mathematical for negatives.
	assert.Equal(t, int64(-10), roundAmount(decimal.NewFromInt(-5), 10, constants.RoundingFloor))
	assert.Equal(t, int64(0), roundAmount(decimal.NewFromInt(-5), 10, constants.RoundingCeil))
}

func TestExemptAmount(t *testing.T) {
	assert.Equal(t, int64(150_000), exemptAmount(150_000, 200_000))
	assert.Equal(t, int64(200_000), exemptAmount(350_000, 200_000))
	assert.Equal(t, int64(0), exemptAmount(-50_000, 200_000))
}

func TestComputeDeductionsStatutoryScenario(t *testing.T) {
	fields := map[string]interface{}{
		constants.FieldBaseSalary:    int64(3_000_000),
		constants.FieldMealAllowance: int64(200_000),
	}
	table := &tableStub{income: 84_850, local: 8_480}

	amounts, detail, err := ComputeDeductions(fields, 2025, basePolicy(), nil, table)
	require.NoError(t, err)

	// Meal allowance is fully exempt at the default ceiling, so every base
	// is the base salary alone.
	assert.Equal(t, int64(3_000_000), detail.PensionBase)
	assert.Equal(t, int64(3_000_000), detail.TaxableWage)
	assert.Equal(t, 1, detail.Dependents)

	assert.Equal(t, int64(135_000), amounts.NationalPension)
	assert.Equal(t, int64(106_350), amounts.HealthInsurance)
	assert.Equal(t, int64(27_000), amounts.EmploymentInsurance)
	// 106,350 * 0.1295 = 13,772.3, rounded to the health unit.
	assert.Equal(t, int64(13_770), amounts.LongTermCare)
	assert.Equal(t, int64(84_850), amounts.IncomeTax)
	assert.Equal(t, int64(8_480), amounts.LocalIncomeTax)
}

func TestComputeDeductionsDeterministic(t *testing.T) {
	fields := map[string]interface{}{
		constants.FieldBaseSalary:        "2,500,000",
		constants.FieldOvertimeAllowance: int64(300_000),
		constants.FieldCarAllowance:      int64(250_000),
	}
	table := &tableStub{income: 41_630, local: 4_160}

	first, _, err := ComputeDeductions(fields, 2025, basePolicy(), nil, table)
	require.NoError(t, err)
	for i := 0; i < 20; i++ {
		again, _, err := ComputeDeductions(fields, 2025, basePolicy(), nil, table)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestComputeDeductionsStandardMonthlyBaseWinsForPension(t *testing.T) {
	fields := map[string]interface{}{
		constants.FieldBaseSalary:          int64(3_000_000),
		constants.FieldStandardMonthlyBase: int64(2_600_000),
	}
	amounts, detail, err := ComputeDeductions(fields, 2025, basePolicy(), nil, &tableStub{})
	require.NoError(t, err)
	assert.Equal(t, int64(2_600_000), detail.PensionBase)
	assert.Equal(t, int64(117_000), amounts.NationalPension)
	// Health still uses the earnings base.
	assert.Equal(t, int64(3_000_000), detail.HealthBase)
}

func TestComputeDeductionsBaseClamp(t *testing.T) {
	policy := basePolicy()
	min := int64(370_000)
	max := int64(5_900_000)
	policy.Pension.MinBase = &min
	policy.Pension.MaxBase = &max

	low := map[string]interface{}{constants.FieldBaseSalary: int64(100_000)}
	_, detail, err := ComputeDeductions(low, 2025, policy, nil, &tableStub{})
	require.NoError(t, err)
	assert.Equal(t, min, detail.PensionBase)

	high := map[string]interface{}{constants.FieldBaseSalary: int64(9_000_000)}
	_, detail, err = ComputeDeductions(high, 2025, policy, nil, &tableStub{})
	require.NoError(t, err)
	assert.Equal(t, max, detail.PensionBase)
}

func TestComputeDeductionsNegativeEarningsFlowThrough(t *testing.T) {
	fields := map[string]interface{}{
		constants.FieldBaseSalary:     int64(2_000_000),
		constants.FieldExtraAllowance: int64(-2_500_000),
	}
	table := &tableStub{income: 99_999, local: 9_999}
	amounts, detail, err := ComputeDeductions(fields, 2025, basePolicy(), nil, table)
	require.NoError(t, err)

	assert.Equal(t, int64(-500_000), detail.TaxableWage)
	// Non-positive wage never hits the table.
	assert.Equal(t, 0, table.calls)
	assert.Equal(t, int64(0), amounts.IncomeTax)
	assert.Equal(t, int64(0), amounts.LocalIncomeTax)
	assert.Equal(t, int64(-22_500), amounts.NationalPension)
}

func TestComputeDeductionsZeroWageSkipsLookup(t *testing.T) {
	table := &tableStub{income: 50_000, local: 5_000}
	amounts, _, err := ComputeDeductions(map[string]interface{}{}, 2025, basePolicy(), nil, table)
	require.NoError(t, err)
	assert.Equal(t, 0, table.calls)
	assert.Equal(t, DeductionAmounts{}, amounts)
}

func TestComputeDeductionsSelectedCategoryBase(t *testing.T) {
	rules := []FieldRule{
		{Key: constants.FieldBaseSalary, IncludeEmployment: true},
		{Key: constants.FieldBonus},
	}
	fields := map[string]interface{}{
		constants.FieldBaseSalary: int64(2_000_000),
		constants.FieldBonus:      int64(1_000_000),
	}
	_, detail, err := ComputeDeductions(fields, 2025, basePolicy(), rules, &tableStub{})
	require.NoError(t, err)

	// Employment selects only the base salary; categories without any
	// selection fall back to the full earnings base.
	assert.Equal(t, int64(2_000_000), detail.EmploymentBase)
	assert.Equal(t, int64(3_000_000), detail.HealthBase)
	assert.Equal(t, int64(3_000_000), detail.TaxableWage)
}

func TestComputeDeductionsSelectedFieldAbsentYieldsZero(t *testing.T) {
	rules := []FieldRule{
		{Key: constants.FieldBonus, IncludePension: true},
	}
	fields := map[string]interface{}{
		constants.FieldBaseSalary: int64(3_000_000),
	}
	amounts, detail, err := ComputeDeductions(fields, 2025, basePolicy(), rules, &tableStub{})
	require.NoError(t, err)
	assert.Equal(t, int64(0), detail.PensionBase)
	assert.Equal(t, int64(0), amounts.NationalPension)
}

func TestComputeDeductionsClientDeductionsIgnored(t *testing.T) {
	fields := map[string]interface{}{
		constants.FieldBaseSalary:      int64(1_000_000),
		constants.FieldNationalPension: int64(999_999),
	}
	_, detail, err := ComputeDeductions(fields, 2025, basePolicy(), nil, &tableStub{income: 1, local: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(1_000_000), detail.TaxableWage)
}

func TestComputeDeductionsDependentsFromFields(t *testing.T) {
	fields := map[string]interface{}{
		constants.FieldBaseSalary: int64(3_000_000),
		constants.FieldDependents: "3",
	}
	_, detail, err := ComputeDeductions(fields, 2025, basePolicy(), nil, &tableStub{})
	require.NoError(t, err)
	assert.Equal(t, 3, detail.Dependents)
}
