package services

import (
	"context"
	"encoding/json"

	"gorm.io/gorm"

	apperrors "payportal/errors"
	"payportal/models"
	"payportal/services/logger"
	"payportal/utils"
)

// Audit action names.
const (
	AuditPolicyUpdated      = "policy.updated"
	AuditWithholdingUpload  = "withholding.uploaded"
	AuditMonthClosed        = "month.closed"
	AuditMonthReopened      = "month.reopened"
	AuditExportRequested    = "export.requested"
	AuditCompanyCreated     = "company.created"
	AuditAccessCodeRotated  = "company.access_code_rotated"
	AuditTokenKeyRotated    = "company.token_key_rotated"
	AuditFieldConfigUpdated = "fields.updated"
)

// AuditService appends administrative events. Recording never fails a
// request: errors are logged and swallowed.
type AuditService struct {
	db     *gorm.DB
	logger logger.Logger
}

// AuditServiceOptions configures an AuditService.
type AuditServiceOptions struct {
	DB     *gorm.DB
	Logger logger.Logger
}

func NewAuditService(opts AuditServiceOptions) *AuditService {
	return &AuditService{
		db:     opts.DB,
		logger: opts.Logger,
	}
}

// Record appends one event.
func (s *AuditService) Record(ctx context.Context, actor string, companyID *uint, action string, detail interface{}) {
	var raw json.RawMessage
	if detail != nil {
		if b, err := json.Marshal(detail); err == nil {
			raw = b
		}
	}
	event := models.AuditEvent{
		Actor:     actor,
		CompanyID: companyID,
		Action:    action,
		Detail:    raw,
	}
	if err := s.db.WithContext(ctx).Create(&event).Error; err != nil && s.logger != nil {
		s.logger.Error("audit append failed: action=%s err=%v", action, err)
	}
}

// List pages through events newest first, optionally filtered by company or
// action.
func (s *AuditService) List(ctx context.Context, companyID uint, action, cursor string, limit int) ([]models.AuditEvent, string, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	q := s.db.WithContext(ctx).Model(&models.AuditEvent{}).Order("id desc").Limit(limit + 1)
	if companyID != 0 {
		q = q.Where("company_id = ?", companyID)
	}
	if action != "" {
		q = q.Where("action = ?", action)
	}
	if cursor != "" {
		payload, err := utils.DecodeCursor(cursor)
		if err != nil {
			return nil, "", err
		}
		q = q.Where("id < ?", payload["id"])
	}

	var events []models.AuditEvent
	if err := q.Find(&events).Error; err != nil {
		return nil, "", apperrors.NewAppError(apperrors.ErrCodeDBError, "failed to list audit events", err)
	}
	next := ""
	if len(events) > limit {
		events = events[:limit]
		next = utils.EncodeCursor(map[string]int64{"id": int64(events[len(events)-1].ID)})
	}
	return events, next, nil
}
