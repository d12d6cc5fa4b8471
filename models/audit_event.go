package models

import (
	"encoding/json"
	"time"
)

// AuditEvent is an append-only record of administrative actions: policy
// writes, month close/reopen, withholding uploads and exports.
type AuditEvent struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	Actor     string          `gorm:"size:120;not null" json:"actor"`
	CompanyID *uint           `gorm:"index" json:"companyId"`
	Action    string          `gorm:"size:80;not null;index" json:"action"`
	Detail    json.RawMessage `gorm:"type:jsonb" json:"detail"`
	CreatedAt time.Time       `gorm:"autoCreateTime;index" json:"createdAt"`
}
