package models

import (
	"encoding/json"
	"time"
)

// MonthlyPayroll is the month header for one (company, year, month). The
// closing status lives here, scoped to the month rather than to a row.
type MonthlyPayroll struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CompanyID uint      `gorm:"not null;uniqueIndex:uq_company_month,priority:1" json:"companyId"`
	Year      int       `gorm:"not null;uniqueIndex:uq_company_month,priority:2" json:"year"`
	Month     int       `gorm:"not null;uniqueIndex:uq_company_month,priority:3" json:"month"`
	Status    string    `gorm:"size:20;default:open" json:"status"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`

	Company Company `gorm:"foreignKey:CompanyID" json:"-"`
}

// PayrollRow is one employee row within a month. Earnings and text fields are
// kept in FieldsJSON as submitted (after normalization); deduction outputs are
// denormalized into columns so summaries and exports never re-parse JSON.
// Deduction columns are always derived server-side, never taken from the
// client.
type PayrollRow struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	PayrollID     uint            `gorm:"not null;uniqueIndex:uq_payroll_row,priority:1" json:"payrollId"`
	RowIdentifier string          `gorm:"size:80;not null;uniqueIndex:uq_payroll_row,priority:2" json:"rowIdentifier"`
	CompanyID     uint            `gorm:"not null;index" json:"companyId"`
	Year          int             `gorm:"not null" json:"year"`
	Month         int             `gorm:"not null" json:"month"`
	EmployeeCode  string          `gorm:"size:80" json:"employeeCode"`
	EmployeeName  string          `gorm:"size:120" json:"employeeName"`
	ResidentID    string          `gorm:"size:512" json:"-"`
	FieldsJSON    json.RawMessage `gorm:"type:jsonb;not null" json:"fields"`

	NationalPension     int64 `json:"nationalPension"`
	HealthInsurance     int64 `json:"healthInsurance"`
	LongTermCare        int64 `json:"longTermCare"`
	EmploymentInsurance int64 `json:"employmentInsurance"`
	IncomeTax           int64 `json:"incomeTax"`
	LocalIncomeTax      int64 `json:"localIncomeTax"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`

	Payroll MonthlyPayroll `gorm:"foreignKey:PayrollID" json:"-"`
}
