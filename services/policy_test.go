package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"payportal/constants"
)

func f64(v float64) *float64 { return &v }
func i64(v int64) *int64     { return &v }
func str(v string) *string   { return &v }

func TestDefaultPolicy(t *testing.T) {
	p := DefaultPolicy()
	assert.Equal(t, constants.DefaultPensionRate, p.Pension.Rate)
	assert.Equal(t, constants.DefaultHealthRate, p.Health.Rate)
	assert.Equal(t, constants.DefaultEmploymentRate, p.Employment.Rate)
	assert.Equal(t, constants.DefaultLongTermCareRate, p.LongTermCare.Rate)
	assert.Equal(t, int64(constants.DefaultRoundingUnit), p.Pension.RoundTo)
	assert.Equal(t, constants.RoundingNearest, p.Pension.Rounding)
	assert.Nil(t, p.Pension.MinBase)
	assert.Nil(t, p.Pension.MaxBase)
}

func TestDefaultPolicyEnvOverride(t *testing.T) {
	t.Setenv("INS_NPS_RATE", "0.05")
	t.Setenv("INS_EI_ROUNDING", constants.RoundingFloor)
	p := DefaultPolicy()
	assert.Equal(t, 0.05, p.Pension.Rate)
	assert.Equal(t, constants.RoundingFloor, p.Employment.Rounding)
	// Untouched categories keep their builtin values.
	assert.Equal(t, constants.DefaultHealthRate, p.Health.Rate)
}

func TestApplyOverrideFieldByField(t *testing.T) {
	base := DefaultPolicy()
	merged := ApplyOverride(base, PolicyOverride{
		Pension: &CategoryOverride{
			Rate:    f64(0.046),
			MaxBase: i64(5_900_000),
		},
		LongTermCare: &LongTermCareOverride{
			Rounding: str(constants.RoundingFloor),
		},
	})

	assert.Equal(t, 0.046, merged.Pension.Rate)
	assert.Equal(t, int64(5_900_000), *merged.Pension.MaxBase)
	// Fields absent from the fragment fall through.
	assert.Equal(t, base.Pension.RoundTo, merged.Pension.RoundTo)
	assert.Equal(t, base.Health, merged.Health)
	assert.Equal(t, base.LongTermCare.Rate, merged.LongTermCare.Rate)
	assert.Equal(t, constants.RoundingFloor, merged.LongTermCare.Rounding)
}

func TestApplyOverrideLayering(t *testing.T) {
	base := DefaultPolicy()

	global := PolicyOverride{
		Health: &CategoryOverride{Rate: f64(0.036)},
	}
	scoped := PolicyOverride{
		Health: &CategoryOverride{RoundTo: i64(100)},
	}

	merged := ApplyOverride(ApplyOverride(base, global), scoped)
	// Both layers survive: the rate from the global layer, the unit from
	// the company layer.
	assert.Equal(t, 0.036, merged.Health.Rate)
	assert.Equal(t, int64(100), merged.Health.RoundTo)
}

func TestApplyOverrideEmptyIsIdentity(t *testing.T) {
	base := DefaultPolicy()
	assert.Equal(t, base, ApplyOverride(base, PolicyOverride{}))
}
