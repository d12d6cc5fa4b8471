package services

import (
	"context"
	"time"

	"golang.org/x/crypto/bcrypt"

	"payportal/constants"
	apperrors "payportal/errors"
	"payportal/models"
	"payportal/services/logger"
)

// AuthService handles portal logins and session issuance.
type AuthService struct {
	companies *CompanyService
	logger    logger.Logger
	tokenTTL  time.Duration
}

// AuthServiceOptions configures an AuthService.
type AuthServiceOptions struct {
	Companies *CompanyService
	Logger    logger.Logger
	TokenTTL  time.Duration
}

func NewAuthService(opts AuthServiceOptions) *AuthService {
	ttl := opts.TokenTTL
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &AuthService{
		companies: opts.Companies,
		logger:    opts.Logger,
		tokenTTL:  ttl,
	}
}

// LoginResult is a successful portal login.
type LoginResult struct {
	Token     string          `json:"token"`
	ExpiresAt time.Time       `json:"expiresAt"`
	Company   *models.Company `json:"company"`
	Roles     []string        `json:"roles"`
}

// Login verifies a workspace access code and issues a session token. An
// unknown slug and a wrong code return the same error so slugs cannot be
// probed.
func (s *AuthService) Login(ctx context.Context, slug, accessCode string) (*LoginResult, error) {
	invalid := apperrors.NewAppError(apperrors.ErrCodeInvalidCode, "invalid workspace or access code", nil)

	company, err := s.companies.BySlug(ctx, slug)
	if err != nil {
		if apperrors.IsCode(err, apperrors.ErrCodeCompanyNotFound) {
			return nil, invalid
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(company.AccessHash), []byte(accessCode)); err != nil {
		if s.logger != nil {
			s.logger.Warn("failed login: slug=%s", slug)
		}
		return nil, invalid
	}

	roles := []string{constants.RolePayrollManager}
	token, err := GenerateCompanyToken(company, roles, s.tokenTTL)
	if err != nil {
		return nil, apperrors.NewAppError(apperrors.ErrCodeDBError, "failed to issue token", err)
	}
	return &LoginResult{
		Token:     token,
		ExpiresAt: time.Now().Add(s.tokenTTL),
		Company:   company,
		Roles:     roles,
	}, nil
}
