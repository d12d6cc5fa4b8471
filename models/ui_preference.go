package models

import (
	"encoding/json"
	"time"
)

// UIPreference is a key-value preference store scoped per (company,
// principal): column widths, density, compact mode and other presentation
// state persisted by the client.
type UIPreference struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	CompanyID uint            `gorm:"not null;uniqueIndex:uq_ui_pref,priority:1" json:"companyId"`
	Principal string          `gorm:"size:120;not null;uniqueIndex:uq_ui_pref,priority:2" json:"principal"`
	PrefKey   string          `gorm:"size:120;not null;uniqueIndex:uq_ui_pref,priority:3" json:"prefKey"`
	Value     json.RawMessage `gorm:"type:jsonb;not null" json:"value"`
	UpdatedAt time.Time       `gorm:"autoUpdateTime" json:"updatedAt"`
}
