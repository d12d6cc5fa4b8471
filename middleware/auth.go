package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"payportal/config"
	"payportal/constants"
	"payportal/models"
	"payportal/response"
	"payportal/services"
)

// Context keys set by the auth middleware.
const (
	CtxCompany = "company"
	CtxClaims  = "claims"
	CtxActor   = "actor"
)

func bearerToken(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	if !strings.HasPrefix(h, "Bearer ") {
		return ""
	}
	return strings.TrimPrefix(h, "Bearer ")
}

func hasRole(roles []string, allowed []string) bool {
	for _, r := range roles {
		if r == constants.RoleAdmin {
			return true
		}
		for _, a := range allowed {
			if r == a {
				return true
			}
		}
	}
	return false
}

// AuthMiddleware authenticates requests on workspace routes. Portal tokens
// verify against the company's own key; accountant tokens verify against the
// global secret and pass for any workspace. The company is loaded from the
// :slug route param and placed in the context.
func AuthMiddleware(allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := bearerToken(c)
		if tokenString == "" {
			response.Unauthorized(c)
			c.Abort()
			return
		}

		slug := c.Param("slug")
		var company models.Company
		err := config.DB.Where("slug = ?", slug).First(&company).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFound(c, "company not found")
			c.Abort()
			return
		}
		if err != nil {
			response.ServerError(c)
			c.Abort()
			return
		}

		claims, err := services.ParseCompanyToken(tokenString, &company)
		if err != nil {
			claims, err = services.ParseAdminToken(tokenString)
			if err != nil {
				response.Unauthorized(c)
				c.Abort()
				return
			}
		}
		if len(allowedRoles) > 0 && !hasRole(claims.Roles, allowedRoles) {
			response.Forbidden(c, "insufficient role")
			c.Abort()
			return
		}

		c.Set(CtxCompany, &company)
		c.Set(CtxClaims, claims)
		c.Set(CtxActor, claims.Subject)
		c.Next()
	}
}

// AdminMiddleware authenticates accountant console routes that are not
// scoped to a workspace.
func AdminMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := bearerToken(c)
		if tokenString == "" {
			response.Unauthorized(c)
			c.Abort()
			return
		}
		claims, err := services.ParseAdminToken(tokenString)
		if err != nil {
			response.Unauthorized(c)
			c.Abort()
			return
		}
		if !hasRole(claims.Roles, []string{constants.RoleAdmin}) {
			response.Forbidden(c, "admin role required")
			c.Abort()
			return
		}
		c.Set(CtxClaims, claims)
		c.Set(CtxActor, claims.Subject)
		c.Next()
	}
}

// CompanyFromContext returns the workspace resolved by AuthMiddleware.
func CompanyFromContext(c *gin.Context) *models.Company {
	v, ok := c.Get(CtxCompany)
	if !ok {
		return nil
	}
	company, _ := v.(*models.Company)
	return company
}

// ClaimsFromContext returns the verified token claims.
func ClaimsFromContext(c *gin.Context) *services.CompanyClaims {
	v, ok := c.Get(CtxClaims)
	if !ok {
		return nil
	}
	claims, _ := v.(*services.CompanyClaims)
	return claims
}

// ActorFromContext returns the principal for audit entries.
func ActorFromContext(c *gin.Context) string {
	return c.GetString(CtxActor)
}
