package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"payportal/config"
	"payportal/constants"
	apperrors "payportal/errors"
	"payportal/models"
	"payportal/services/logger"
)

// CategoryPolicy is the fully resolved configuration for one contribution
// category.
type CategoryPolicy struct {
	Rate     float64 `json:"rate"`
	MinBase  *int64  `json:"min_base,omitempty"`
	MaxBase  *int64  `json:"max_base,omitempty"`
	RoundTo  int64   `json:"round_to"`
	Rounding string  `json:"rounding"`
}

// LongTermCarePolicy derives the long-term-care amount from the health
// contribution. Zero RoundTo / empty Rounding fall back to the health
// category's values at calculation time.
type LongTermCarePolicy struct {
	Rate     float64 `json:"rate"`
	RoundTo  int64   `json:"round_to,omitempty"`
	Rounding string  `json:"rounding,omitempty"`
}

// EffectivePolicy is the merged rate/rounding/base configuration for one
// (company, year). Treated as immutable for the duration of one calculation.
type EffectivePolicy struct {
	Pension      CategoryPolicy     `json:"nps"`
	Health       CategoryPolicy     `json:"nhis"`
	Employment   CategoryPolicy     `json:"ei"`
	LongTermCare LongTermCarePolicy `json:"ltc"`
}

// CategoryOverride is a partial category policy; nil fields fall through to
// the next resolution layer.
type CategoryOverride struct {
	Rate     *float64 `json:"rate,omitempty"`
	MinBase  *int64   `json:"min_base,omitempty"`
	MaxBase  *int64   `json:"max_base,omitempty"`
	RoundTo  *int64   `json:"round_to,omitempty"`
	Rounding *string  `json:"rounding,omitempty"`
}

// LongTermCareOverride is the partial long-term-care fragment.
type LongTermCareOverride struct {
	Rate     *float64 `json:"rate,omitempty"`
	RoundTo  *int64   `json:"round_to,omitempty"`
	Rounding *string  `json:"rounding,omitempty"`
}

// PolicyOverride is the JSON fragment stored in a PolicySetting record.
type PolicyOverride struct {
	Pension      *CategoryOverride     `json:"nps,omitempty"`
	Health       *CategoryOverride     `json:"nhis,omitempty"`
	Employment   *CategoryOverride     `json:"ei,omitempty"`
	LongTermCare *LongTermCareOverride `json:"ltc,omitempty"`
}

// DefaultPolicy builds the built-in bottom layer, optionally tuned by env.
func DefaultPolicy() EffectivePolicy {
	return EffectivePolicy{
		Pension: CategoryPolicy{
			Rate:     config.GetEnvFloat("INS_NPS_RATE", constants.DefaultPensionRate),
			RoundTo:  config.GetEnvInt("INS_NPS_ROUND_TO", constants.DefaultRoundingUnit),
			Rounding: config.GetEnvDefault("INS_NPS_ROUNDING", constants.RoundingNearest),
		},
		Health: CategoryPolicy{
			Rate:     config.GetEnvFloat("INS_NHIS_RATE", constants.DefaultHealthRate),
			RoundTo:  config.GetEnvInt("INS_NHIS_ROUND_TO", constants.DefaultRoundingUnit),
			Rounding: config.GetEnvDefault("INS_NHIS_ROUNDING", constants.RoundingNearest),
		},
		Employment: CategoryPolicy{
			Rate:     config.GetEnvFloat("INS_EI_RATE", constants.DefaultEmploymentRate),
			RoundTo:  config.GetEnvInt("INS_EI_ROUND_TO", constants.DefaultRoundingUnit),
			Rounding: config.GetEnvDefault("INS_EI_ROUNDING", constants.RoundingNearest),
		},
		LongTermCare: LongTermCarePolicy{
			Rate: config.GetEnvFloat("INS_LTC_RATE", constants.DefaultLongTermCareRate),
		},
	}
}

func applyCategory(base CategoryPolicy, o *CategoryOverride) CategoryPolicy {
	if o == nil {
		return base
	}
	if o.Rate != nil {
		base.Rate = *o.Rate
	}
	if o.MinBase != nil {
		base.MinBase = o.MinBase
	}
	if o.MaxBase != nil {
		base.MaxBase = o.MaxBase
	}
	if o.RoundTo != nil {
		base.RoundTo = *o.RoundTo
	}
	if o.Rounding != nil {
		base.Rounding = *o.Rounding
	}
	return base
}

// ApplyOverride merges one override layer onto a policy, field by field.
func ApplyOverride(base EffectivePolicy, o PolicyOverride) EffectivePolicy {
	base.Pension = applyCategory(base.Pension, o.Pension)
	base.Health = applyCategory(base.Health, o.Health)
	base.Employment = applyCategory(base.Employment, o.Employment)
	if o.LongTermCare != nil {
		if o.LongTermCare.Rate != nil {
			base.LongTermCare.Rate = *o.LongTermCare.Rate
		}
		if o.LongTermCare.RoundTo != nil {
			base.LongTermCare.RoundTo = *o.LongTermCare.RoundTo
		}
		if o.LongTermCare.Rounding != nil {
			base.LongTermCare.Rounding = *o.LongTermCare.Rounding
		}
	}
	return base
}

// PolicyService resolves effective policies and owns their redis cache.
type PolicyService struct {
	db     *gorm.DB
	rdb    *redis.Client
	logger logger.Logger
}

// PolicyServiceOptions configures a PolicyService.
type PolicyServiceOptions struct {
	DB     *gorm.DB
	Redis  *redis.Client
	Logger logger.Logger
}

func NewPolicyService(opts PolicyServiceOptions) *PolicyService {
	return &PolicyService{
		db:     opts.DB,
		rdb:    opts.Redis,
		logger: opts.Logger,
	}
}

// Resolve merges builtin defaults, the global year override and the
// company+year override into one snapshot. It never errors: a missing layer
// simply falls through, which is logged as a resolution gap for
// observability only.
func (s *PolicyService) Resolve(ctx context.Context, companyID uint, year int) EffectivePolicy {
	cacheKey := PolicyCacheKey(companyID, year)
	if s.rdb != nil {
		var cached EffectivePolicy
		if found, err := GetFromRedis(ctx, s.rdb, cacheKey, &cached); err == nil && found {
			return cached
		}
	}

	policy := DefaultPolicy()
	layers := 0

	var global models.PolicySetting
	err := s.db.WithContext(ctx).
		Where("company_id IS NULL AND year = ?", year).
		Order("id desc").
		First(&global).Error
	if err == nil {
		policy = s.applyFragment(policy, global.PolicyJSON)
		layers++
	}

	var scoped models.PolicySetting
	err = s.db.WithContext(ctx).
		Where("company_id = ? AND year = ?", companyID, year).
		Order("id desc").
		First(&scoped).Error
	if err == nil {
		policy = s.applyFragment(policy, scoped.PolicyJSON)
		layers++
	}

	if layers == 0 && s.logger != nil {
		s.logger.Debug("policy resolution gap: company=%d year=%d, using builtin defaults", companyID, year)
	}

	if s.rdb != nil {
		if err := SetToRedis(ctx, s.rdb, cacheKey, policy, 12*time.Hour); err != nil && s.logger != nil {
			s.logger.Warn("policy cache set failed: %v", err)
		}
	}
	return policy
}

func (s *PolicyService) applyFragment(policy EffectivePolicy, fragment json.RawMessage) EffectivePolicy {
	var o PolicyOverride
	if err := json.Unmarshal(fragment, &o); err != nil {
		if s.logger != nil {
			s.logger.Warn("malformed policy fragment ignored: %v", err)
		}
		return policy
	}
	return ApplyOverride(policy, o)
}

// Upsert writes one override record and synchronously invalidates the cache
// so the very next calculation sees the change.
func (s *PolicyService) Upsert(ctx context.Context, companyID *uint, year int, fragment json.RawMessage, updatedBy string) (*models.PolicySetting, error) {
	var o PolicyOverride
	if err := json.Unmarshal(fragment, &o); err != nil {
		return nil, apperrors.NewAppError(apperrors.ErrCodeValidation, "malformed policy fragment", err)
	}

	var setting models.PolicySetting
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx.Where("year = ?", year)
		if companyID == nil {
			q = q.Where("company_id IS NULL")
		} else {
			q = q.Where("company_id = ?", *companyID)
		}
		err := q.First(&setting).Error
		switch {
		case err == nil:
			setting.PolicyJSON = fragment
			setting.UpdatedBy = updatedBy
			return tx.Save(&setting).Error
		case err == gorm.ErrRecordNotFound:
			setting = models.PolicySetting{
				CompanyID:  companyID,
				Year:       year,
				PolicyJSON: fragment,
				UpdatedBy:  updatedBy,
			}
			return tx.Create(&setting).Error
		default:
			return err
		}
	})
	if err != nil {
		return nil, apperrors.NewAppError(apperrors.ErrCodeDBError, "failed to save policy", err)
	}

	if err := s.invalidate(ctx, companyID, year); err != nil && s.logger != nil {
		s.logger.Error("policy cache invalidation failed: %v", err)
	}
	return &setting, nil
}

func (s *PolicyService) invalidate(ctx context.Context, companyID *uint, year int) error {
	if s.rdb == nil {
		return nil
	}
	if companyID != nil {
		return DeleteFromRedis(ctx, s.rdb, PolicyCacheKey(*companyID, year))
	}
	return DeleteByPattern(ctx, s.rdb, PolicyCachePattern(year))
}

// List returns the override records for a year, global first.
func (s *PolicyService) List(ctx context.Context, year int) ([]models.PolicySetting, error) {
	var settings []models.PolicySetting
	err := s.db.WithContext(ctx).
		Where("year = ?", year).
		Order("company_id asc nulls first").
		Find(&settings).Error
	if err != nil {
		return nil, apperrors.NewAppError(apperrors.ErrCodeDBError, "failed to list policies", err)
	}
	return settings, nil
}
