package services

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"payportal/constants"
	apperrors "payportal/errors"
	"payportal/models"
	"payportal/services/logger"
)

// FieldService manages the per-company field configuration that drives both
// the input form layout and the contribution bases.
type FieldService struct {
	db     *gorm.DB
	logger logger.Logger
}

// FieldServiceOptions configures a FieldService.
type FieldServiceOptions struct {
	DB     *gorm.DB
	Logger logger.Logger
}

func NewFieldService(opts FieldServiceOptions) *FieldService {
	return &FieldService{
		db:     opts.DB,
		logger: opts.Logger,
	}
}

// defaultConfigs is the field set every new workspace starts with. Keys are
// the statutory Korean labels; exemptions carry the builtin ceilings.
func defaultConfigs(companyID uint) []models.FieldConfig {
	earning := func(pos int, key string) models.FieldConfig {
		return models.FieldConfig{
			CompanyID: companyID,
			FieldKey:  key,
			Label:     key,
			Type:      "number",
			Group:     "earning",
			Position:  pos,
		}
	}
	info := func(pos int, key, typ string) models.FieldConfig {
		return models.FieldConfig{
			CompanyID: companyID,
			FieldKey:  key,
			Label:     key,
			Type:      typ,
			Group:     "info",
			Position:  pos,
		}
	}

	configs := []models.FieldConfig{
		info(0, constants.FieldEmployeeCode, "text"),
		info(1, constants.FieldEmployeeName, "text"),
		info(2, constants.FieldResidentID, "text"),
		info(3, constants.FieldDependents, "number"),
		earning(4, constants.FieldBaseSalary),
		earning(5, constants.FieldOvertimeAllowance),
		earning(6, constants.FieldBonus),
		earning(7, constants.FieldMealAllowance),
		earning(8, constants.FieldCarAllowance),
		earning(9, constants.FieldExtraAllowance),
		info(10, constants.FieldStandardMonthlyBase, "number"),
	}
	for i := range configs {
		if ceiling, ok := constants.DefaultExemptionCeilings[configs[i].FieldKey]; ok {
			configs[i].ExemptEnabled = true
			configs[i].ExemptCeiling = ceiling
		}
	}
	return configs
}

// EnsureDefaults seeds the default field set for a new workspace. Existing
// keys are left untouched so re-running is safe.
func (s *FieldService) EnsureDefaults(ctx context.Context, companyID uint) error {
	configs := defaultConfigs(companyID)
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&configs).Error
	if err != nil {
		return apperrors.NewAppError(apperrors.ErrCodeDBError, "failed to seed field configuration", err)
	}
	return nil
}

// List returns the configured fields in display order.
func (s *FieldService) List(ctx context.Context, companyID uint) ([]models.FieldConfig, error) {
	var configs []models.FieldConfig
	err := s.db.WithContext(ctx).
		Where("company_id = ?", companyID).
		Order("position asc, id asc").
		Find(&configs).Error
	if err != nil {
		return nil, apperrors.NewAppError(apperrors.ErrCodeDBError, "failed to load field configuration", err)
	}
	return configs, nil
}

// LoadFieldRules converts the stored configuration into calculation rules.
// Reserved deduction output names never become rules.
func (s *FieldService) LoadFieldRules(ctx context.Context, companyID uint) ([]FieldRule, error) {
	configs, err := s.List(ctx, companyID)
	if err != nil {
		return nil, err
	}
	rules := make([]FieldRule, 0, len(configs))
	for _, c := range configs {
		if constants.DeductionFields[c.FieldKey] {
			continue
		}
		rules = append(rules, FieldRule{
			Key:               c.FieldKey,
			Type:              c.Type,
			Group:             c.Group,
			ExemptEnabled:     c.ExemptEnabled,
			ExemptCeiling:     c.ExemptCeiling,
			IncludePension:    c.IncludePension,
			IncludeHealth:     c.IncludeHealth,
			IncludeEmployment: c.IncludeEmployment,
		})
	}
	return rules, nil
}

// FieldUpsert is one field definition in a configuration update.
type FieldUpsert struct {
	FieldKey          string `json:"fieldKey" binding:"required,max=200"`
	Label             string `json:"label" binding:"required,max=200"`
	Type              string `json:"type" binding:"omitempty,oneof=number text"`
	Group             string `json:"group" binding:"omitempty,oneof=earning info none"`
	Position          int    `json:"position"`
	ExemptEnabled     bool   `json:"exemptEnabled"`
	ExemptCeiling     int64  `json:"exemptCeiling" binding:"min=0"`
	IncludePension    bool   `json:"includePension"`
	IncludeHealth     bool   `json:"includeHealth"`
	IncludeEmployment bool   `json:"includeEmployment"`
}

// Replace swaps the whole configuration for a company in one transaction.
// Reserved deduction names are rejected: their values are always derived.
func (s *FieldService) Replace(ctx context.Context, companyID uint, fields []FieldUpsert) ([]models.FieldConfig, error) {
	if len(fields) == 0 {
		return nil, apperrors.NewAppError(apperrors.ErrCodeValidation, "field configuration cannot be empty", nil)
	}
	seen := map[string]bool{}
	configs := make([]models.FieldConfig, 0, len(fields))
	for _, f := range fields {
		if constants.DeductionFields[f.FieldKey] {
			return nil, apperrors.NewAppError(apperrors.ErrCodeValidation,
				"deduction outputs cannot be configured as input fields", nil)
		}
		if seen[f.FieldKey] {
			return nil, apperrors.NewAppError(apperrors.ErrCodeValidation, "duplicate field key in configuration", nil)
		}
		seen[f.FieldKey] = true
		typ := f.Type
		if typ == "" {
			typ = "number"
		}
		group := f.Group
		if group == "" {
			group = "none"
		}
		configs = append(configs, models.FieldConfig{
			CompanyID:         companyID,
			FieldKey:          f.FieldKey,
			Label:             f.Label,
			Type:              typ,
			Group:             group,
			Position:          f.Position,
			ExemptEnabled:     f.ExemptEnabled,
			ExemptCeiling:     f.ExemptCeiling,
			IncludePension:    f.IncludePension,
			IncludeHealth:     f.IncludeHealth,
			IncludeEmployment: f.IncludeEmployment,
		})
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("company_id = ?", companyID).Delete(&models.FieldConfig{}).Error; err != nil {
			return err
		}
		return tx.Create(&configs).Error
	})
	if err != nil {
		return nil, apperrors.NewAppError(apperrors.ErrCodeDBError, "failed to replace field configuration", err)
	}
	if s.logger != nil {
		s.logger.Info("field configuration replaced: company=%d fields=%d", companyID, len(configs))
	}
	return configs, nil
}

// KnownKeys returns the configured field keys plus the reserved deduction
// names, for unknown-field validation.
func (s *FieldService) KnownKeys(ctx context.Context, companyID uint) ([]string, error) {
	configs, err := s.List(ctx, companyID)
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(configs)+len(constants.DeductionFields))
	for _, c := range configs {
		keys = append(keys, c.FieldKey)
	}
	for k := range constants.DeductionFields {
		keys = append(keys, k)
	}
	return keys, nil
}
