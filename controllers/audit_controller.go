package controllers

import (
	"github.com/gin-gonic/gin"

	"payportal/response"
)

// ListAudit pages through administrative events, newest first.
func ListAudit(c *gin.Context) {
	limit := queryInt(c, "limit", 50)
	events, next, err := svc.Audit.List(c.Request.Context(),
		uint(queryInt(c, "companyId", 0)), c.Query("action"), c.Query("cursor"), limit)
	if err != nil {
		response.AppError(c, err)
		return
	}
	response.SuccessWithCursor(c, events, next, limit)
}
