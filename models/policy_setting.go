package models

import (
	"encoding/json"
	"time"
)

// PolicySetting stores a partial policy override for one year, either for a
// single company or globally (CompanyID null). Unspecified fields fall
// through to the next resolution layer.
type PolicySetting struct {
	ID         uint            `gorm:"primaryKey" json:"id"`
	CompanyID  *uint           `gorm:"uniqueIndex:uq_policy_scope,priority:1" json:"companyId"`
	Year       int             `gorm:"not null;uniqueIndex:uq_policy_scope,priority:2" json:"year"`
	PolicyJSON json.RawMessage `gorm:"type:jsonb;not null" json:"policy"`
	UpdatedBy  string          `gorm:"size:120" json:"updatedBy"`
	CreatedAt  time.Time       `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt  time.Time       `gorm:"autoUpdateTime" json:"updatedAt"`
}
