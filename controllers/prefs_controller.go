package controllers

import (
	"github.com/gin-gonic/gin"

	"payportal/dto"
	"payportal/middleware"
	"payportal/response"
)

// GetPrefs returns every UI preference for the current principal.
func GetPrefs(c *gin.Context) {
	company := middleware.CompanyFromContext(c)
	prefs, err := svc.Prefs.Get(c.Request.Context(), company.ID, middleware.ActorFromContext(c))
	if err != nil {
		response.AppError(c, err)
		return
	}
	response.Success(c, prefs)
}

// SetPref upserts one preference key, last write wins.
func SetPref(c *gin.Context) {
	company := middleware.CompanyFromContext(c)
	var input dto.PrefSetRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	key := c.Param("key")
	if err := svc.Prefs.Set(c.Request.Context(), company.ID, middleware.ActorFromContext(c), key, input.Value); err != nil {
		response.AppError(c, err)
		return
	}
	response.Success(c, gin.H{"key": key})
}

// DeletePref removes one preference key.
func DeletePref(c *gin.Context) {
	company := middleware.CompanyFromContext(c)
	key := c.Param("key")
	if err := svc.Prefs.Delete(c.Request.Context(), company.ID, middleware.ActorFromContext(c), key); err != nil {
		response.AppError(c, err)
		return
	}
	response.Success(c, gin.H{"key": key, "deleted": true})
}
