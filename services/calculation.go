package services

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"payportal/constants"
)

// FieldRule is the calculation-facing view of a field configuration: which
// fields count toward each contribution base and which carry a partial
// statutory exemption.
type FieldRule struct {
	Key               string
	Type              string
	Group             string
	ExemptEnabled     bool
	ExemptCeiling     int64
	IncludePension    bool
	IncludeHealth     bool
	IncludeEmployment bool
}

// WithholdingLookup resolves the simplified income tax for a wage bracket.
type WithholdingLookup interface {
	Lookup(year, dependents int, wage int64) (incomeTax, localTax int64, err error)
}

// DeductionAmounts is the computed statutory deduction set for one row, in won.
type DeductionAmounts struct {
	NationalPension     int64 `json:"national_pension"`
	HealthInsurance     int64 `json:"health_insurance"`
	LongTermCare        int64 `json:"long_term_care"`
	EmploymentInsurance int64 `json:"employment_insurance"`
	IncomeTax           int64 `json:"income_tax"`
	LocalIncomeTax      int64 `json:"local_income_tax"`
}

// CalculationDetail exposes the intermediate bases for auditing and the
// preview endpoint.
type CalculationDetail struct {
	PensionBase    int64 `json:"pension_base"`
	HealthBase     int64 `json:"health_base"`
	EmploymentBase int64 `json:"employment_base"`
	TaxableWage    int64 `json:"taxable_wage"`
	Dependents     int   `json:"dependents"`
}

// NumericValue normalizes a raw submitted cell into won. Strings may carry
// thousands separators and surrounding space. Anything non-numeric is zero.
func NumericValue(v interface{}) int64 {
	switch n := v.(type) {
	case nil:
		return 0
	case int64:
		return n
	case int:
		return int64(n)
	case float64:
		return int64(n)
	case string:
		s := strings.TrimSpace(strings.ReplaceAll(n, ",", ""))
		if s == "" {
			return 0
		}
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return i
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return int64(f)
		}
		return 0
	default:
		return 0
	}
}

// exemptAmount is the portion of an earnings value excluded from a base.
// Negative values get no exemption; the clamp keeps the exemption itself
// non-negative so negative earnings flow into the base unreduced.
func exemptAmount(value, ceiling int64) int64 {
	e := value
	if e > ceiling {
		e = ceiling
	}
	if e < 0 {
		e = 0
	}
	return e
}

// ruleIndex precomputes the per-category inclusion sets and exemption
// ceilings from the field rules, falling back to the builtin ceilings when
// no rules are configured.
type ruleIndex struct {
	exemptions map[string]int64
	selected   map[string]map[string]bool
	hasRules   bool
}

func indexRules(rules []FieldRule) ruleIndex {
	idx := ruleIndex{
		exemptions: map[string]int64{},
		selected: map[string]map[string]bool{
			constants.CategoryPension:    {},
			constants.CategoryHealth:     {},
			constants.CategoryEmployment: {},
		},
		hasRules: len(rules) > 0,
	}
	if !idx.hasRules {
		for k, v := range constants.DefaultExemptionCeilings {
			idx.exemptions[k] = v
		}
		return idx
	}
	for _, r := range rules {
		if r.ExemptEnabled {
			idx.exemptions[r.Key] = r.ExemptCeiling
		}
		if r.IncludePension {
			idx.selected[constants.CategoryPension][r.Key] = true
		}
		if r.IncludeHealth {
			idx.selected[constants.CategoryHealth][r.Key] = true
		}
		if r.IncludeEmployment {
			idx.selected[constants.CategoryEmployment][r.Key] = true
		}
	}
	return idx
}

// contributableValue is the value of one field after its exemption.
func contributableValue(key string, value int64, idx ruleIndex) int64 {
	ceiling, ok := idx.exemptions[key]
	if !ok {
		return value
	}
	return value - exemptAmount(value, ceiling)
}

// defaultBase sums every earnings field after exemptions. Reserved deduction
// outputs and non-monetary identity fields never count.
func defaultBase(fields map[string]interface{}, idx ruleIndex) int64 {
	var base int64
	for key, raw := range fields {
		if constants.DeductionFields[key] {
			continue
		}
		switch key {
		case constants.FieldEmployeeCode, constants.FieldEmployeeName,
			constants.FieldResidentID, constants.FieldDependents,
			constants.FieldStandardMonthlyBase:
			continue
		}
		base += contributableValue(key, NumericValue(raw), idx)
	}
	return base
}

// categoryBase is the contribution base for one category: the explicitly
// selected fields when any rule selects fields for it, otherwise the default
// base.
func categoryBase(fields map[string]interface{}, category string, idx ruleIndex, fallback int64) int64 {
	sel := idx.selected[category]
	if len(sel) == 0 {
		return fallback
	}
	var base int64
	for key := range sel {
		raw, ok := fields[key]
		if !ok {
			continue
		}
		base += contributableValue(key, NumericValue(raw), idx)
	}
	return base
}

func clampBase(base int64, p CategoryPolicy) int64 {
	if p.MinBase != nil && base < *p.MinBase {
		base = *p.MinBase
	}
	if p.MaxBase != nil && base > *p.MaxBase {
		base = *p.MaxBase
	}
	return base
}

// roundAmount rounds value to a multiple of unit using the given mode.
// "round" is half away from zero; floor and ceil are mathematical, toward
// negative and positive infinity respectively.
func roundAmount(value decimal.Decimal, unit int64, mode string) int64 {
	if unit <= 0 {
		unit = 1
	}
	u := decimal.NewFromInt(unit)
	q := value.Div(u)
	switch mode {
	case constants.RoundingFloor:
		q = q.Floor()
	case constants.RoundingCeil:
		q = q.Ceil()
	default:
		q = q.Round(0)
	}
	return q.Mul(u).IntPart()
}

func categoryAmount(base int64, p CategoryPolicy) int64 {
	raw := decimal.NewFromInt(base).Mul(decimal.NewFromFloat(p.Rate))
	return roundAmount(raw, p.RoundTo, p.Rounding)
}

// ComputeDeductions derives the full statutory deduction set for one row.
// The function is pure: fields, policy, rules and the withholding table in,
// amounts out. A missing withholding table surfaces as the lookup's error;
// everything else always produces a result.
func ComputeDeductions(fields map[string]interface{}, year int, policy EffectivePolicy, rules []FieldRule, lookup WithholdingLookup) (DeductionAmounts, CalculationDetail, error) {
	idx := indexRules(rules)
	fallback := defaultBase(fields, idx)

	pensionBase := categoryBase(fields, constants.CategoryPension, idx, fallback)
	// Reported standard monthly income takes precedence for pension.
	if raw, ok := fields[constants.FieldStandardMonthlyBase]; ok {
		if std := NumericValue(raw); std != 0 {
			pensionBase = std
		}
	}
	pensionBase = clampBase(pensionBase, policy.Pension)

	healthBase := clampBase(categoryBase(fields, constants.CategoryHealth, idx, fallback), policy.Health)
	employmentBase := clampBase(categoryBase(fields, constants.CategoryEmployment, idx, fallback), policy.Employment)

	amounts := DeductionAmounts{
		NationalPension:     categoryAmount(pensionBase, policy.Pension),
		HealthInsurance:     categoryAmount(healthBase, policy.Health),
		EmploymentInsurance: categoryAmount(employmentBase, policy.Employment),
	}

	ltcUnit := policy.LongTermCare.RoundTo
	if ltcUnit == 0 {
		ltcUnit = policy.Health.RoundTo
	}
	ltcMode := policy.LongTermCare.Rounding
	if ltcMode == "" {
		ltcMode = policy.Health.Rounding
	}
	ltcRaw := decimal.NewFromInt(amounts.HealthInsurance).Mul(decimal.NewFromFloat(policy.LongTermCare.Rate))
	amounts.LongTermCare = roundAmount(ltcRaw, ltcUnit, ltcMode)

	detail := CalculationDetail{
		PensionBase:    pensionBase,
		HealthBase:     healthBase,
		EmploymentBase: employmentBase,
		TaxableWage:    fallback,
		Dependents:     1,
	}
	if raw, ok := fields[constants.FieldDependents]; ok {
		if d := NumericValue(raw); d > 0 {
			detail.Dependents = int(d)
		}
	}

	// Income tax always keys off the full taxable wage, never a category
	// selection. A non-positive wage withholds nothing.
	if detail.TaxableWage <= 0 || lookup == nil {
		return amounts, detail, nil
	}
	income, local, err := lookup.Lookup(year, detail.Dependents, detail.TaxableWage)
	if err != nil {
		return amounts, detail, err
	}
	amounts.IncomeTax = income
	amounts.LocalIncomeTax = local
	return amounts, detail, nil
}
