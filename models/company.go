package models

import "time"

// Company is a tenant workspace created by an accountant. The slug is
// immutable once issued; the token key may be rotated, which invalidates
// previously issued portal tokens.
type Company struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
	Name       string    `gorm:"size:200;not null" json:"name"`
	Slug       string    `gorm:"size:80;uniqueIndex;not null" json:"slug"`
	AccessHash string    `gorm:"size:255;not null" json:"-"`
	TokenKey   string    `gorm:"size:128;not null" json:"-"`

	Payrolls []MonthlyPayroll `gorm:"foreignKey:CompanyID" json:"payrolls,omitempty"`
}
