package constants

// Monthly closing status
const (
	MonthStatusOpen       = "open"
	MonthStatusInProgress = "in_progress"
	MonthStatusClosed     = "closed"
)

// Contribution categories
const (
	CategoryPension    = "nps"
	CategoryHealth     = "nhis"
	CategoryEmployment = "ei"
)

// Rounding modes
const (
	RoundingNearest = "round"
	RoundingFloor   = "floor"
	RoundingCeil    = "ceil"
)

// Well-known row field keys. Field names follow the statutory Korean payroll
// vocabulary the portal's clients submit.
const (
	FieldEmployeeCode        = "사원코드"
	FieldEmployeeName        = "사원명"
	FieldResidentID          = "주민등록번호"
	FieldBaseSalary          = "기본급"
	FieldMealAllowance       = "식대"
	FieldCarAllowance        = "자가운전보조금"
	FieldOvertimeAllowance   = "연장근로수당"
	FieldBonus               = "상여"
	FieldExtraAllowance      = "기타수당"
	FieldStandardMonthlyBase = "기준보수월액"
	FieldDependents          = "부양가족수"

	FieldNationalPension     = "국민연금"
	FieldHealthInsurance     = "건강보험"
	FieldLongTermCare        = "장기요양보험"
	FieldEmploymentInsurance = "고용보험"
	FieldIncomeTax           = "소득세"
	FieldLocalIncomeTax      = "지방소득세"
)

// DeductionFields is the reserved set of deduction output names. These are
// never treated as earnings when a contribution base is assembled.
var DeductionFields = map[string]bool{
	FieldNationalPension:     true,
	FieldHealthInsurance:     true,
	FieldLongTermCare:        true,
	FieldEmploymentInsurance: true,
	FieldIncomeTax:           true,
	FieldLocalIncomeTax:      true,
}

// Built-in default policy values. Year- or company-scoped PolicySetting
// records override these field by field.
const (
	DefaultPensionRate      = 0.045
	DefaultHealthRate       = 0.03545
	DefaultEmploymentRate   = 0.009
	DefaultLongTermCareRate = 0.1295
	DefaultRoundingUnit     = 10
)

// DefaultExemptionCeilings holds the statutory monthly exemption ceilings for
// earnings fields that are partially excluded from contribution bases.
var DefaultExemptionCeilings = map[string]int64{
	FieldMealAllowance: 200_000,
	FieldCarAllowance:  200_000,
}
