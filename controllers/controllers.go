package controllers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"payportal/response"
	"payportal/services"
	"payportal/validator"
)

// Services wires the controller layer. Populated once at startup.
type Services struct {
	Auth        *services.AuthService
	Companies   *services.CompanyService
	Payroll     *services.PayrollService
	Policy      *services.PolicyService
	Withholding *services.WithholdingService
	Fields      *services.FieldService
	Export      *services.ExportService
	Idempotency *services.IdempotencyService
	Audit       *services.AuditService
	Prefs       *services.PrefsService
	Reporting   *services.ReportingService
}

var svc Services

// Setup installs the service wiring for all handlers.
func Setup(s Services) {
	svc = s
}

func yearMonthParams(c *gin.Context) (int, int, bool) {
	year, err1 := strconv.Atoi(c.Param("year"))
	month, err2 := strconv.Atoi(c.Param("month"))
	if err1 != nil || err2 != nil {
		response.BadRequest(c, "year and month must be numeric")
		return 0, 0, false
	}
	if err := validator.ValidateYearMonth(year, month); err != nil {
		response.AppError(c, err)
		return 0, 0, false
	}
	return year, month, true
}

func yearParam(c *gin.Context) (int, bool) {
	year, err := strconv.Atoi(c.Param("year"))
	if err != nil || year < 2000 || year > 2100 {
		response.BadRequest(c, "year must be a valid numeric year")
		return 0, false
	}
	return year, true
}

func queryInt(c *gin.Context, key string, fallback int) int {
	v := c.Query(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
