package models

import "time"

// FieldConfig maps a stable field key to its metadata for one company:
// display label, type, earnings/deduction grouping, exemption ceiling and
// per-category inclusion flags. The calculation path resolves this mapping
// once per request instead of matching labels per field per row.
type FieldConfig struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CompanyID uint      `gorm:"not null;uniqueIndex:uq_company_field,priority:1" json:"companyId"`
	FieldKey  string    `gorm:"size:200;not null;uniqueIndex:uq_company_field,priority:2" json:"fieldKey"`
	Label     string    `gorm:"size:200;not null" json:"label"`
	Type      string    `gorm:"size:20;default:number" json:"type"`
	Group     string    `gorm:"size:20;default:none" json:"group"`
	Position  int       `gorm:"default:0" json:"position"`

	ExemptEnabled bool  `gorm:"default:false" json:"exemptEnabled"`
	ExemptCeiling int64 `gorm:"default:0" json:"exemptCeiling"`

	IncludePension    bool `gorm:"default:false" json:"includePension"`
	IncludeHealth     bool `gorm:"default:false" json:"includeHealth"`
	IncludeEmployment bool `gorm:"default:false" json:"includeEmployment"`

	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}
