package controllers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"payportal/dto"
	"payportal/middleware"
	"payportal/response"
	"payportal/services"
)

// UploadWithholding replaces one year's withholding table atomically.
func UploadWithholding(c *gin.Context) {
	year, ok := yearParam(c)
	if !ok {
		return
	}
	var input dto.WithholdingUploadRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	count, err := svc.Withholding.ReplaceYear(c.Request.Context(), year, input.Cells)
	if err != nil {
		response.AppError(c, err)
		return
	}
	svc.Audit.Record(c.Request.Context(), middleware.ActorFromContext(c), nil,
		services.AuditWithholdingUpload, gin.H{"year": year, "cells": count})
	response.Success(c, gin.H{"year": year, "cells": count})
}

// WithholdingYears lists the years with a loaded table.
func WithholdingYears(c *gin.Context) {
	years, err := svc.Withholding.Years(c.Request.Context())
	if err != nil {
		response.AppError(c, err)
		return
	}
	response.Success(c, years)
}

// LookupWithholding resolves one bracket, mainly for verifying an upload.
func LookupWithholding(c *gin.Context) {
	year, ok := yearParam(c)
	if !ok {
		return
	}
	dependents := queryInt(c, "dependents", 1)
	wage, err := strconv.ParseInt(c.Query("wage"), 10, 64)
	if err != nil {
		response.BadRequest(c, "wage must be numeric")
		return
	}
	table, err := svc.Withholding.TableFor(c.Request.Context(), year)
	if err != nil {
		response.AppError(c, err)
		return
	}
	income, local, err := table.Lookup(year, dependents, wage)
	if err != nil {
		response.AppError(c, err)
		return
	}
	response.Success(c, gin.H{
		"year":           year,
		"dependents":     dependents,
		"wage":           wage,
		"incomeTax":      income,
		"localIncomeTax": local,
	})
}
