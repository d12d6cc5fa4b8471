package services

import (
	"context"
	"encoding/json"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperrors "payportal/errors"
	"payportal/models"
)

// PrefsService persists per-principal UI presentation state.
type PrefsService struct {
	db *gorm.DB
}

func NewPrefsService(db *gorm.DB) *PrefsService {
	return &PrefsService{db: db}
}

// Get returns every preference for a principal as a key-value map.
func (s *PrefsService) Get(ctx context.Context, companyID uint, principal string) (map[string]json.RawMessage, error) {
	var prefs []models.UIPreference
	err := s.db.WithContext(ctx).
		Where("company_id = ? AND principal = ?", companyID, principal).
		Find(&prefs).Error
	if err != nil {
		return nil, apperrors.NewAppError(apperrors.ErrCodeDBError, "failed to load preferences", err)
	}
	out := make(map[string]json.RawMessage, len(prefs))
	for _, p := range prefs {
		out[p.PrefKey] = p.Value
	}
	return out, nil
}

// Set upserts one preference key. Last write wins.
func (s *PrefsService) Set(ctx context.Context, companyID uint, principal, key string, value json.RawMessage) error {
	if !json.Valid(value) {
		return apperrors.NewAppError(apperrors.ErrCodeInvalidFormat, "preference value must be valid JSON", nil)
	}
	pref := models.UIPreference{
		CompanyID: companyID,
		Principal: principal,
		PrefKey:   key,
		Value:     value,
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "company_id"}, {Name: "principal"}, {Name: "pref_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&pref).Error
	if err != nil {
		return apperrors.NewAppError(apperrors.ErrCodeDBError, "failed to save preference", err)
	}
	return nil
}

// Delete removes one preference key. Deleting a missing key is a no-op.
func (s *PrefsService) Delete(ctx context.Context, companyID uint, principal, key string) error {
	err := s.db.WithContext(ctx).
		Where("company_id = ? AND principal = ? AND pref_key = ?", companyID, principal, key).
		Delete(&models.UIPreference{}).Error
	if err != nil {
		return apperrors.NewAppError(apperrors.ErrCodeDBError, "failed to delete preference", err)
	}
	return nil
}
