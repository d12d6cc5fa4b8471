package controllers

import (
	"encoding/json"

	"github.com/gin-gonic/gin"

	"payportal/middleware"
	"payportal/response"
	"payportal/services"
)

// GetEffectivePolicy returns the fully merged policy the calculator will use
// for this workspace and year.
func GetEffectivePolicy(c *gin.Context) {
	company := middleware.CompanyFromContext(c)
	year, ok := yearParam(c)
	if !ok {
		return
	}
	policy := svc.Policy.Resolve(c.Request.Context(), company.ID, year)
	response.Success(c, policy)
}

func policyBody(c *gin.Context) (json.RawMessage, bool) {
	body, err := c.GetRawData()
	if err != nil || len(body) == 0 {
		response.BadRequest(c, "policy fragment body is required")
		return nil, false
	}
	if !json.Valid(body) {
		response.BadRequest(c, "policy fragment must be valid JSON")
		return nil, false
	}
	return body, true
}

// UpsertGlobalPolicy writes the year-wide override layer.
func UpsertGlobalPolicy(c *gin.Context) {
	year, ok := yearParam(c)
	if !ok {
		return
	}
	body, ok := policyBody(c)
	if !ok {
		return
	}
	actor := middleware.ActorFromContext(c)
	setting, err := svc.Policy.Upsert(c.Request.Context(), nil, year, body, actor)
	if err != nil {
		response.AppError(c, err)
		return
	}
	svc.Audit.Record(c.Request.Context(), actor, nil, services.AuditPolicyUpdated,
		gin.H{"year": year, "scope": "global"})
	response.Success(c, setting)
}

// UpsertCompanyPolicy writes the per-workspace override layer.
func UpsertCompanyPolicy(c *gin.Context) {
	year, ok := yearParam(c)
	if !ok {
		return
	}
	body, ok := policyBody(c)
	if !ok {
		return
	}
	company, err := svc.Companies.BySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		response.AppError(c, err)
		return
	}
	actor := middleware.ActorFromContext(c)
	setting, err := svc.Policy.Upsert(c.Request.Context(), &company.ID, year, body, actor)
	if err != nil {
		response.AppError(c, err)
		return
	}
	svc.Audit.Record(c.Request.Context(), actor, &company.ID, services.AuditPolicyUpdated,
		gin.H{"year": year, "scope": "company"})
	response.Success(c, setting)
}

// ListPolicies lists the stored override records for a year.
func ListPolicies(c *gin.Context) {
	year, ok := yearParam(c)
	if !ok {
		return
	}
	settings, err := svc.Policy.List(c.Request.Context(), year)
	if err != nil {
		response.AppError(c, err)
		return
	}
	response.Success(c, settings)
}
