package controllers

import (
	"github.com/gin-gonic/gin"

	"payportal/constants"
	"payportal/dto"
	"payportal/response"
)

// Meta describes the service and its fixed vocabularies for clients.
func Meta(c *gin.Context) {
	response.Success(c, dto.MetaResponse{
		Service: "payportal",
		Version: "1.0.0",
		Categories: []string{
			constants.CategoryPension,
			constants.CategoryHealth,
			constants.CategoryEmployment,
		},
		Rounding: []string{
			constants.RoundingNearest,
			constants.RoundingFloor,
			constants.RoundingCeil,
		},
	})
}
