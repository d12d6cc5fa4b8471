package controllers

import (
	"github.com/gin-gonic/gin"

	"payportal/dto"
	"payportal/middleware"
	"payportal/response"
	"payportal/services"
)

// ListFields returns the workspace field configuration in display order.
func ListFields(c *gin.Context) {
	company := middleware.CompanyFromContext(c)
	configs, err := svc.Fields.List(c.Request.Context(), company.ID)
	if err != nil {
		response.AppError(c, err)
		return
	}
	response.Success(c, configs)
}

// ReplaceFields swaps the whole field configuration for a workspace.
func ReplaceFields(c *gin.Context) {
	company := middleware.CompanyFromContext(c)
	var input dto.FieldReplaceRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	configs, err := svc.Fields.Replace(c.Request.Context(), company.ID, input.Fields)
	if err != nil {
		response.AppError(c, err)
		return
	}
	svc.Audit.Record(c.Request.Context(), middleware.ActorFromContext(c), &company.ID,
		services.AuditFieldConfigUpdated, gin.H{"fields": len(configs)})
	response.Success(c, configs)
}
