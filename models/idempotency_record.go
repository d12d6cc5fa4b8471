package models

import "time"

// IdempotencyRecord stores the response of a completed write keyed by the
// client-supplied Idempotency-Key. The unique index on (method, path, key)
// is what makes the dedup check-and-insert atomic.
type IdempotencyRecord struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Method       string    `gorm:"size:10;not null;uniqueIndex:uq_idem_key,priority:1" json:"method"`
	Path         string    `gorm:"size:300;not null;uniqueIndex:uq_idem_key,priority:2" json:"path"`
	Key          string    `gorm:"size:200;not null;uniqueIndex:uq_idem_key,priority:3" json:"key"`
	BodyHash     string    `gorm:"size:64;not null" json:"bodyHash"`
	CompanyID    *uint     `gorm:"index" json:"companyId"`
	StatusCode   int       `gorm:"not null" json:"statusCode"`
	ResponseJSON string    `gorm:"type:text;not null" json:"responseJson"`
	ExpiresAt    time.Time `gorm:"index;not null" json:"expiresAt"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"createdAt"`
}
