package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/fiam/gounidecode/unidecode"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	apperrors "payportal/errors"
	"payportal/models"
	"payportal/services/logger"
)

var slugCleaner = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify turns a workspace name into a url-safe identifier. Non-latin names
// transliterate first so Korean company names still produce readable slugs.
func Slugify(name string) string {
	s := unidecode.Unidecode(name)
	s = strings.ToLower(strings.TrimSpace(s))
	s = slugCleaner.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if len(s) > 60 {
		s = strings.Trim(s[:60], "-")
	}
	if s == "" {
		s = "workspace"
	}
	return s
}

// CompanyService manages workspaces: creation, credentials, key rotation.
type CompanyService struct {
	db      *gorm.DB
	logger  logger.Logger
	fields  *FieldService
}

// CompanyServiceOptions configures a CompanyService.
type CompanyServiceOptions struct {
	DB     *gorm.DB
	Logger logger.Logger
	Fields *FieldService
}

func NewCompanyService(opts CompanyServiceOptions) *CompanyService {
	return &CompanyService{
		db:     opts.DB,
		logger: opts.Logger,
		fields: opts.Fields,
	}
}

func randomToken(bytes int) (string, error) {
	buf := make([]byte, bytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// NewAccessCode generates a fresh portal access code.
func NewAccessCode() (string, error) {
	return randomToken(8)
}

// Create provisions a workspace: unique slug, hashed access code, a fresh
// token key, and the default field configuration. The plaintext access code
// is returned exactly once.
func (s *CompanyService) Create(ctx context.Context, name string) (*models.Company, string, error) {
	if strings.TrimSpace(name) == "" {
		return nil, "", apperrors.NewAppError(apperrors.ErrCodeValidation, "company name is required", nil)
	}

	accessCode, err := NewAccessCode()
	if err != nil {
		return nil, "", apperrors.NewAppError(apperrors.ErrCodeDBError, "failed to generate access code", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(accessCode), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", apperrors.NewAppError(apperrors.ErrCodeDBError, "failed to hash access code", err)
	}
	tokenKey, err := randomToken(32)
	if err != nil {
		return nil, "", apperrors.NewAppError(apperrors.ErrCodeDBError, "failed to generate token key", err)
	}

	base := Slugify(name)
	company := models.Company{
		Name:       name,
		Slug:       base,
		AccessHash: string(hash),
		TokenKey:   tokenKey,
	}

	// Slug collisions get a numeric suffix, racing inserts retry on the
	// unique index.
	for attempt := 0; attempt < 10; attempt++ {
		if attempt > 0 {
			company.Slug = fmt.Sprintf("%s-%d", base, attempt+1)
		}
		err = s.db.WithContext(ctx).Create(&company).Error
		if err == nil {
			break
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, "", apperrors.NewAppError(apperrors.ErrCodeDBError, "failed to create company", err)
		}
	}
	if err != nil {
		return nil, "", apperrors.NewAppError(apperrors.ErrCodeDBDuplicate, "could not allocate a unique slug", err)
	}

	if err := s.fields.EnsureDefaults(ctx, company.ID); err != nil {
		return nil, "", err
	}
	if s.logger != nil {
		s.logger.Info("company created: id=%d slug=%s", company.ID, company.Slug)
	}
	return &company, accessCode, nil
}

// BySlug loads one workspace.
func (s *CompanyService) BySlug(ctx context.Context, slug string) (*models.Company, error) {
	var company models.Company
	err := s.db.WithContext(ctx).Where("slug = ?", slug).First(&company).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NewAppError(apperrors.ErrCodeCompanyNotFound, "company not found", apperrors.ErrCompanyNotFound)
	}
	if err != nil {
		return nil, apperrors.NewAppError(apperrors.ErrCodeDBError, "failed to load company", err)
	}
	return &company, nil
}

// List pages through workspaces for the accountant console.
func (s *CompanyService) List(ctx context.Context, limit int) ([]models.Company, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var companies []models.Company
	err := s.db.WithContext(ctx).Order("id asc").Limit(limit).Find(&companies).Error
	if err != nil {
		return nil, apperrors.NewAppError(apperrors.ErrCodeDBError, "failed to list companies", err)
	}
	return companies, nil
}

// RotateAccessCode replaces the portal access code. The new plaintext code
// is returned exactly once.
func (s *CompanyService) RotateAccessCode(ctx context.Context, slug string) (string, error) {
	company, err := s.BySlug(ctx, slug)
	if err != nil {
		return "", err
	}
	accessCode, err := NewAccessCode()
	if err != nil {
		return "", apperrors.NewAppError(apperrors.ErrCodeDBError, "failed to generate access code", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(accessCode), bcrypt.DefaultCost)
	if err != nil {
		return "", apperrors.NewAppError(apperrors.ErrCodeDBError, "failed to hash access code", err)
	}
	if err := s.db.WithContext(ctx).Model(company).Update("access_hash", string(hash)).Error; err != nil {
		return "", apperrors.NewAppError(apperrors.ErrCodeDBError, "failed to rotate access code", err)
	}
	return accessCode, nil
}

// RotateTokenKey replaces the signing key, invalidating every outstanding
// session token for this workspace.
func (s *CompanyService) RotateTokenKey(ctx context.Context, slug string) error {
	company, err := s.BySlug(ctx, slug)
	if err != nil {
		return err
	}
	tokenKey, err := randomToken(32)
	if err != nil {
		return apperrors.NewAppError(apperrors.ErrCodeDBError, "failed to generate token key", err)
	}
	if err := s.db.WithContext(ctx).Model(company).Update("token_key", tokenKey).Error; err != nil {
		return apperrors.NewAppError(apperrors.ErrCodeDBError, "failed to rotate token key", err)
	}
	if s.logger != nil {
		s.logger.Info("token key rotated: company=%d", company.ID)
	}
	return nil
}
