package models

// WithholdingCell is one bracket entry of the statutory income-tax
// withholding table: for a year, a dependent-count column and a wage lower
// bound map to the withheld income tax and local income tax amounts. The
// table is authoritative for both amounts.
type WithholdingCell struct {
	ID             uint  `gorm:"primaryKey" json:"id"`
	Year           int   `gorm:"not null;uniqueIndex:uq_withholding_key,priority:1" json:"year"`
	Dependents     int   `gorm:"not null;uniqueIndex:uq_withholding_key,priority:2" json:"dependents"`
	Wage           int64 `gorm:"not null;uniqueIndex:uq_withholding_key,priority:3" json:"wage"`
	IncomeTax      int64 `gorm:"not null" json:"incomeTax"`
	LocalIncomeTax int64 `gorm:"not null" json:"localIncomeTax"`
}
