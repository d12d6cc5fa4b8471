package controllers

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"payportal/config"
	"payportal/dto"
	"payportal/middleware"
	"payportal/response"
	"payportal/services"
	"payportal/validator"
)

const exportLinkTTL = 10 * time.Minute

func monthsQuery(c *gin.Context) ([]int, bool) {
	raw := c.Query("months")
	if raw == "" {
		response.BadRequest(c, "months query parameter is required")
		return nil, false
	}
	parts := strings.Split(raw, ",")
	seen := map[int]bool{}
	months := make([]int, 0, len(parts))
	for _, p := range parts {
		m, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || m < 1 || m > 12 {
			response.BadRequest(c, "months must be a comma-separated list of 1-12")
			return nil, false
		}
		// A repeated month would open a second stream writer on the same
		// sheet, so duplicates collapse to the first occurrence.
		if seen[m] {
			continue
		}
		seen[m] = true
		months = append(months, m)
	}
	return months, true
}

func streamExport(c *gin.Context, slug string, year int, months []int, requester string) {
	company, err := svc.Companies.BySlug(c.Request.Context(), slug)
	if err != nil {
		response.AppError(c, err)
		return
	}

	filename := fmt.Sprintf("%s-%d.xlsx", company.Slug, year)
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")

	svc.Audit.Record(c.Request.Context(), requester, &company.ID,
		services.AuditExportRequested, gin.H{"year": year, "months": months})

	if err := svc.Export.Export(c.Request.Context(), company, year, months, requester, c.Writer); err != nil {
		// Headers may already be out; abort the stream instead of writing
		// a JSON error into the workbook.
		c.Abort()
		return
	}
}

// DownloadExport streams the workbook on an authenticated portal session.
func DownloadExport(c *gin.Context) {
	year, ok := yearParam(c)
	if !ok {
		return
	}
	months, ok := monthsQuery(c)
	if !ok {
		return
	}
	streamExport(c, c.Param("slug"), year, months, middleware.ActorFromContext(c))
}

// CreateExportLink issues a short-lived signed download URL so the file can
// be fetched without an Authorization header.
func CreateExportLink(c *gin.Context) {
	company := middleware.CompanyFromContext(c)
	year, ok := yearParam(c)
	if !ok {
		return
	}
	months, ok := monthsQuery(c)
	if !ok {
		return
	}
	if config.GetEnv("EXPORT_HMAC_SECRET") == "" {
		response.BadRequest(c, "signed export links are not enabled")
		return
	}

	path := fmt.Sprintf("/api/exports/%s/%d", company.Slug, year)
	exp := time.Now().Add(exportLinkTTL).Unix()
	sig := services.SignExportPath(path, exp, company.ID)

	monthsArg := make([]string, len(months))
	for i, m := range months {
		monthsArg[i] = strconv.Itoa(m)
	}
	url := fmt.Sprintf("%s?months=%s&exp=%d&sig=%s", path, strings.Join(monthsArg, ","), exp, sig)
	response.Success(c, dto.ExportLinkResponse{URL: url, ExpiresAt: exp})
}

// DownloadSignedExport serves a signed link issued by CreateExportLink. The
// signature alone authorizes the download.
func DownloadSignedExport(c *gin.Context) {
	if config.GetEnv("EXPORT_HMAC_SECRET") == "" {
		response.Forbidden(c, "signed export links are not enabled")
		return
	}
	year, ok := yearParam(c)
	if !ok {
		return
	}
	months, ok := monthsQuery(c)
	if !ok {
		return
	}
	for _, m := range months {
		if err := validator.ValidateYearMonth(year, m); err != nil {
			response.AppError(c, err)
			return
		}
	}

	company, err := svc.Companies.BySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		response.AppError(c, err)
		return
	}
	exp, err := strconv.ParseInt(c.Query("exp"), 10, 64)
	if err != nil {
		response.BadRequest(c, "exp must be a unix timestamp")
		return
	}
	if err := services.VerifyExportSignature(c.Request.URL.Path, exp, company.ID, c.Query("sig")); err != nil {
		response.AppError(c, err)
		return
	}
	streamExport(c, company.Slug, year, months, "signed-link")
}
