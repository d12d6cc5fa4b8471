package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"payportal/dto"
	"payportal/middleware"
	"payportal/response"
	"payportal/services"
	"payportal/validator"
)

func rowValidator(c *gin.Context, companyID uint) (*validator.RowValidator, bool) {
	known, err := svc.Fields.KnownKeys(c.Request.Context(), companyID)
	if err != nil {
		response.AppError(c, err)
		return nil, false
	}
	return validator.NewRowValidator(known), true
}

// SaveRows godoc
// @Summary Replace a month's rows
// @Tags payroll
// @Security BearerAuth
// @Param slug path string true "workspace slug"
// @Param year path int true "year"
// @Param month path int true "month"
// @Param Idempotency-Key header string false "dedup key for retries"
// @Param body body dto.BulkSaveRequest true "rows"
// @Success 200 {object} response.Response
// @Router /api/companies/{slug}/payrolls/{year}/{month}/rows [put]
func SaveRows(c *gin.Context) {
	company := middleware.CompanyFromContext(c)
	year, month, ok := yearMonthParams(c)
	if !ok {
		return
	}

	body, err := c.GetRawData()
	if err != nil {
		response.BadRequest(c, "unreadable request body")
		return
	}
	var input dto.BulkSaveRequest
	if err := json.Unmarshal(body, &input); err != nil {
		response.BadRequest(c, "malformed JSON body")
		return
	}

	rv, ok := rowValidator(c, company.ID)
	if !ok {
		return
	}
	for _, row := range input.Rows {
		if err := rv.ValidateRow(row); err != nil {
			response.AppError(c, err)
			return
		}
	}

	result, err := svc.Idempotency.ExecuteOnce(
		c.Request.Context(),
		c.Request.Method,
		c.Request.URL.Path,
		c.GetHeader("Idempotency-Key"),
		&company.ID,
		body,
		func() (int, interface{}, error) {
			views, err := svc.Payroll.BulkSave(c.Request.Context(), company.ID, year, month, input.Rows)
			if err != nil {
				return 0, nil, err
			}
			return http.StatusOK, response.Response{Code: "OK", Mess: "success", Data: views}, nil
		},
	)
	if err != nil {
		response.AppError(c, err)
		return
	}
	if result.Replayed {
		c.Header("Idempotency-Replayed", "true")
	}
	c.Data(result.StatusCode, "application/json; charset=utf-8", result.Body)
}

// SaveRow upserts a single row identified by rowId. The Idempotency-Key
// contract is the same as on the bulk path.
func SaveRow(c *gin.Context) {
	company := middleware.CompanyFromContext(c)
	year, month, ok := yearMonthParams(c)
	if !ok {
		return
	}
	rowID := c.Param("rowId")
	if rowID == "" {
		response.BadRequest(c, "rowId is required")
		return
	}

	body, err := c.GetRawData()
	if err != nil {
		response.BadRequest(c, "unreadable request body")
		return
	}
	var input dto.RowRequest
	if err := json.Unmarshal(body, &input); err != nil {
		response.BadRequest(c, "malformed JSON body")
		return
	}
	rv, ok := rowValidator(c, company.ID)
	if !ok {
		return
	}
	if err := rv.ValidateRow(input.Fields); err != nil {
		response.AppError(c, err)
		return
	}

	result, err := svc.Idempotency.ExecuteOnce(
		c.Request.Context(),
		c.Request.Method,
		c.Request.URL.Path,
		c.GetHeader("Idempotency-Key"),
		&company.ID,
		body,
		func() (int, interface{}, error) {
			view, err := svc.Payroll.UpsertRow(c.Request.Context(), company.ID, year, month, rowID, input.Fields)
			if err != nil {
				return 0, nil, err
			}
			return http.StatusOK, response.Response{Code: "OK", Mess: "success", Data: view}, nil
		},
	)
	if err != nil {
		response.AppError(c, err)
		return
	}
	if result.Replayed {
		c.Header("Idempotency-Replayed", "true")
	}
	c.Data(result.StatusCode, "application/json; charset=utf-8", result.Body)
}

// ListRows pages through a month's rows.
func ListRows(c *gin.Context) {
	company := middleware.CompanyFromContext(c)
	year, month, ok := yearMonthParams(c)
	if !ok {
		return
	}
	limit := queryInt(c, "limit", 100)
	views, next, err := svc.Payroll.ListRows(c.Request.Context(), company.ID, year, month, c.Query("cursor"), limit)
	if err != nil {
		response.AppError(c, err)
		return
	}
	response.SuccessWithCursor(c, views, next, limit)
}

// GetMonth reports the month header status.
func GetMonth(c *gin.Context) {
	company := middleware.CompanyFromContext(c)
	year, month, ok := yearMonthParams(c)
	if !ok {
		return
	}
	header, err := svc.Payroll.Month(c.Request.Context(), company.ID, year, month)
	if err != nil {
		response.AppError(c, err)
		return
	}
	response.Success(c, dto.MonthStatusResponse{Year: year, Month: month, Status: header.Status})
}

// CloseMonth finalizes a month. Closing twice is a no-op success.
func CloseMonth(c *gin.Context) {
	company := middleware.CompanyFromContext(c)
	year, month, ok := yearMonthParams(c)
	if !ok {
		return
	}
	header, err := svc.Payroll.Close(c.Request.Context(), company.ID, year, month)
	if err != nil {
		response.AppError(c, err)
		return
	}
	svc.Audit.Record(c.Request.Context(), middleware.ActorFromContext(c), &company.ID,
		services.AuditMonthClosed, gin.H{"year": year, "month": month})
	response.Success(c, dto.MonthStatusResponse{Year: year, Month: month, Status: header.Status})
}

// ReopenMonth reverts a closed month so corrections can land.
func ReopenMonth(c *gin.Context) {
	company := middleware.CompanyFromContext(c)
	year, month, ok := yearMonthParams(c)
	if !ok {
		return
	}
	header, err := svc.Payroll.Reopen(c.Request.Context(), company.ID, year, month)
	if err != nil {
		response.AppError(c, err)
		return
	}
	svc.Audit.Record(c.Request.Context(), middleware.ActorFromContext(c), &company.ID,
		services.AuditMonthReopened, gin.H{"year": year, "month": month})
	response.Success(c, dto.MonthStatusResponse{Year: year, Month: month, Status: header.Status})
}

// PreviewRow computes deductions for a draft row without saving it.
func PreviewRow(c *gin.Context) {
	company := middleware.CompanyFromContext(c)
	year, ok := yearParam(c)
	if !ok {
		return
	}
	var input dto.RowRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	amounts, detail, err := svc.Payroll.Preview(c.Request.Context(), company.ID, year, input.Fields)
	if err != nil {
		response.AppError(c, err)
		return
	}
	response.Success(c, gin.H{"deductions": amounts, "detail": detail})
}

// MonthSummary aggregates one month's totals.
func MonthSummary(c *gin.Context) {
	company := middleware.CompanyFromContext(c)
	year, month, ok := yearMonthParams(c)
	if !ok {
		return
	}
	summary, err := svc.Reporting.MonthSummary(c.Request.Context(), company.ID, year, month)
	if err != nil {
		response.AppError(c, err)
		return
	}
	response.Success(c, summary)
}

// YearSummary aggregates every month of a year.
func YearSummary(c *gin.Context) {
	company := middleware.CompanyFromContext(c)
	year, ok := yearParam(c)
	if !ok {
		return
	}
	summaries, err := svc.Reporting.YearSummary(c.Request.Context(), company.ID, year)
	if err != nil {
		response.AppError(c, err)
		return
	}
	response.Success(c, summaries)
}

// ListClosings is the console view over month headers across companies.
func ListClosings(c *gin.Context) {
	limit := queryInt(c, "limit", 50)
	months, next, err := svc.Payroll.ListMonths(c.Request.Context(),
		uint(queryInt(c, "companyId", 0)), c.Query("status"), c.Query("cursor"), limit)
	if err != nil {
		response.AppError(c, err)
		return
	}
	response.SuccessWithCursor(c, months, next, limit)
}
