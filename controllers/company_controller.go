package controllers

import (
	"github.com/gin-gonic/gin"

	"payportal/dto"
	"payportal/middleware"
	"payportal/response"
	"payportal/services"
)

// CreateCompany godoc
// @Summary Provision a workspace and return its one-time access code
// @Tags companies
// @Security BearerAuth
// @Param body body dto.CreateCompanyRequest true "workspace name"
// @Success 201 {object} response.Response
// @Router /api/admin/companies [post]
func CreateCompany(c *gin.Context) {
	var input dto.CreateCompanyRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	company, accessCode, err := svc.Companies.Create(c.Request.Context(), input.Name)
	if err != nil {
		response.AppError(c, err)
		return
	}
	svc.Audit.Record(c.Request.Context(), middleware.ActorFromContext(c), &company.ID,
		services.AuditCompanyCreated, gin.H{"slug": company.Slug})
	response.Created(c, dto.CompanyCreatedResponse{
		ID:         company.ID,
		Name:       company.Name,
		Slug:       company.Slug,
		AccessCode: accessCode,
	})
}

// ListCompanies lists workspaces for the console.
func ListCompanies(c *gin.Context) {
	companies, err := svc.Companies.List(c.Request.Context(), queryInt(c, "limit", 100))
	if err != nil {
		response.AppError(c, err)
		return
	}
	response.Success(c, companies)
}

// RotateAccessCode replaces a workspace access code and returns the new one
// exactly once.
func RotateAccessCode(c *gin.Context) {
	slug := c.Param("slug")
	accessCode, err := svc.Companies.RotateAccessCode(c.Request.Context(), slug)
	if err != nil {
		response.AppError(c, err)
		return
	}
	company := middleware.CompanyFromContext(c)
	var companyID *uint
	if company != nil {
		companyID = &company.ID
	}
	svc.Audit.Record(c.Request.Context(), middleware.ActorFromContext(c), companyID,
		services.AuditAccessCodeRotated, gin.H{"slug": slug})
	response.Success(c, dto.AccessCodeResponse{Slug: slug, AccessCode: accessCode})
}

// RotateTokenKey invalidates every outstanding session for a workspace.
func RotateTokenKey(c *gin.Context) {
	slug := c.Param("slug")
	if err := svc.Companies.RotateTokenKey(c.Request.Context(), slug); err != nil {
		response.AppError(c, err)
		return
	}
	company := middleware.CompanyFromContext(c)
	var companyID *uint
	if company != nil {
		companyID = &company.ID
	}
	svc.Audit.Record(c.Request.Context(), middleware.ActorFromContext(c), companyID,
		services.AuditTokenKeyRotated, gin.H{"slug": slug})
	response.Success(c, gin.H{"slug": slug, "rotated": true})
}
