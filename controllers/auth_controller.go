package controllers

import (
	"crypto/subtle"
	"time"

	"github.com/gin-gonic/gin"

	"payportal/config"
	"payportal/dto"
	"payportal/response"
	"payportal/services"
)

// Login godoc
// @Summary Portal login with a workspace access code
// @Tags auth
// @Param slug path string true "workspace slug"
// @Param body body dto.LoginRequest true "access code"
// @Success 200 {object} response.Response
// @Router /api/companies/{slug}/login [post]
func Login(c *gin.Context) {
	var input dto.LoginRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	result, err := svc.Auth.Login(c.Request.Context(), c.Param("slug"), input.AccessCode)
	if err != nil {
		response.AppError(c, err)
		return
	}
	response.Success(c, gin.H{
		"token":     result.Token,
		"expiresAt": result.ExpiresAt,
		"company": gin.H{
			"id":   result.Company.ID,
			"name": result.Company.Name,
			"slug": result.Company.Slug,
		},
		"roles": result.Roles,
	})
}

// AdminLogin issues an accountant console token. The console access code
// comes from ADMIN_ACCESS_CODE.
func AdminLogin(c *gin.Context) {
	var input dto.AdminLoginRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	want := config.GetEnv("ADMIN_ACCESS_CODE")
	if want == "" || subtle.ConstantTimeCompare([]byte(want), []byte(input.AccessCode)) != 1 {
		response.Unauthorized(c)
		return
	}
	token, err := services.GenerateAdminToken(input.Name, 12*time.Hour)
	if err != nil {
		response.ServerError(c)
		return
	}
	response.Success(c, gin.H{
		"token":     token,
		"expiresAt": time.Now().Add(12 * time.Hour),
	})
}
