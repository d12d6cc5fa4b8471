package services

import (
	"time"

	"github.com/dgrijalva/jwt-go"

	"payportal/config"
	"payportal/constants"
	apperrors "payportal/errors"
	"payportal/models"
)

// CompanyClaims is the JWT payload for a portal session. Tokens are signed
// with the company's own key so rotating that key invalidates every
// outstanding session for that workspace only.
type CompanyClaims struct {
	CompanyID uint     `json:"company_id"`
	Slug      string   `json:"slug"`
	Roles     []string `json:"roles"`
	jwt.StandardClaims
}

// GenerateCompanyToken issues a portal session token for a workspace.
func GenerateCompanyToken(company *models.Company, roles []string, ttl time.Duration) (string, error) {
	if ttl == 0 {
		ttl = 12 * time.Hour
	}
	claims := CompanyClaims{
		CompanyID: company.ID,
		Slug:      company.Slug,
		Roles:     roles,
		StandardClaims: jwt.StandardClaims{
			ExpiresAt: time.Now().Add(ttl).Unix(),
			IssuedAt:  time.Now().Unix(),
			Subject:   company.Slug,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(company.TokenKey))
}

// ParseCompanyToken validates a portal token against the company's key.
func ParseCompanyToken(tokenString string, company *models.Company) (*CompanyClaims, error) {
	claims := &CompanyClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, apperrors.NewAppError(apperrors.ErrCodeInvalidToken, "unexpected signing method", nil)
		}
		return []byte(company.TokenKey), nil
	})
	if err != nil || !token.Valid {
		return nil, apperrors.NewAppError(apperrors.ErrCodeInvalidToken, "invalid or expired token", err)
	}
	if claims.CompanyID != company.ID {
		return nil, apperrors.NewAppError(apperrors.ErrCodeInvalidToken, "token does not match workspace", nil)
	}
	return claims, nil
}

// GenerateAdminToken issues an accountant token signed with the global
// secret. Admin tokens are not bound to a workspace.
func GenerateAdminToken(subject string, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	claims := CompanyClaims{
		Roles: []string{constants.RoleAdmin},
		StandardClaims: jwt.StandardClaims{
			ExpiresAt: time.Now().Add(ttl).Unix(),
			IssuedAt:  time.Now().Unix(),
			Subject:   subject,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(config.GetEnv("SECRET_KEY")))
}

// ParseAdminToken validates an accountant token against the global secret.
func ParseAdminToken(tokenString string) (*CompanyClaims, error) {
	claims := &CompanyClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, apperrors.NewAppError(apperrors.ErrCodeInvalidToken, "unexpected signing method", nil)
		}
		return []byte(config.GetEnv("SECRET_KEY")), nil
	})
	if err != nil || !token.Valid {
		return nil, apperrors.NewAppError(apperrors.ErrCodeInvalidToken, "invalid or expired token", err)
	}
	return claims, nil
}
