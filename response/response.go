package response

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	apperrors "payportal/errors"
)

// Response is the default envelope for all JSON endpoints.
type Response struct {
	Code string      `json:"code"`
	Mess string      `json:"mess"`
	Data interface{} `json:"data,omitempty"`
}

// Problem is the RFC 7807 problem-details shape, emitted when the caller
// prefers application/problem+json.
type Problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

// PageMeta carries seek-pagination state: the opaque cursor for the next
// page, empty when the listing is exhausted.
type PageMeta struct {
	NextCursor string `json:"nextCursor,omitempty"`
	Limit      int    `json:"limit"`
}

type pagedResponse struct {
	Code string      `json:"code"`
	Mess string      `json:"mess"`
	Data interface{} `json:"data,omitempty"`
	Page *PageMeta   `json:"page,omitempty"`
}

func wantsProblem(c *gin.Context) bool {
	return strings.Contains(c.GetHeader("Accept"), "application/problem+json")
}

func writeError(c *gin.Context, status int, code, message string) {
	if wantsProblem(c) {
		c.Header("Content-Type", "application/problem+json")
		c.JSON(status, Problem{
			Type:   "about:blank",
			Title:  code,
			Status: status,
			Detail: message,
		})
		return
	}
	c.JSON(status, Response{Code: code, Mess: message})
}

// Success writes a 200 envelope.
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{Code: "OK", Mess: "success", Data: data})
}

// Created writes a 201 envelope.
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{Code: "OK", Mess: "created", Data: data})
}

// SuccessWithCursor writes a 200 envelope with seek-pagination metadata.
func SuccessWithCursor(c *gin.Context, data interface{}, nextCursor string, limit int) {
	c.JSON(http.StatusOK, pagedResponse{
		Code: "OK",
		Mess: "success",
		Data: data,
		Page: &PageMeta{NextCursor: nextCursor, Limit: limit},
	})
}

// ServerError writes a 500 without internal detail.
func ServerError(c *gin.Context) {
	writeError(c, http.StatusInternalServerError, string(apperrors.ErrCodeDBError), "internal server error")
}

// Unauthorized writes a 401.
func Unauthorized(c *gin.Context) {
	writeError(c, http.StatusUnauthorized, string(apperrors.ErrCodeUnauthorized), "authentication required")
}

// Forbidden writes a 403.
func Forbidden(c *gin.Context, message string) {
	if message == "" {
		message = "access denied"
	}
	writeError(c, http.StatusForbidden, string(apperrors.ErrCodeForbidden), message)
}

// NotFound writes a 404.
func NotFound(c *gin.Context, message string) {
	if message == "" {
		message = "not found"
	}
	writeError(c, http.StatusNotFound, string(apperrors.ErrCodeNotFound), message)
}

// Conflict writes a 409.
func Conflict(c *gin.Context, message string) {
	if message == "" {
		message = "conflict"
	}
	writeError(c, http.StatusConflict, string(apperrors.ErrCodeConflict), message)
}

// ValidationError writes a 400 with field-level detail in the message.
func ValidationError(c *gin.Context, message string) {
	writeError(c, http.StatusBadRequest, string(apperrors.ErrCodeValidation), message)
}

// BadRequest writes a 400.
func BadRequest(c *gin.Context, message string) {
	writeError(c, http.StatusBadRequest, string(apperrors.ErrCodeInvalidFormat), message)
}

// AppError maps an application error onto the right status code. Unknown
// errors become a 500 with no internal detail.
func AppError(c *gin.Context, err error) {
	appErr := apperrors.GetAppError(err)
	if appErr == nil {
		ServerError(c)
		return
	}
	status := statusForCode(appErr.Code)
	writeError(c, status, string(appErr.Code), appErr.Message)
}

func statusForCode(code apperrors.ErrorCode) int {
	switch code {
	case apperrors.ErrCodeUnauthorized, apperrors.ErrCodeInvalidToken:
		return http.StatusUnauthorized
	case apperrors.ErrCodeForbidden:
		return http.StatusForbidden
	case apperrors.ErrCodeNotFound, apperrors.ErrCodeCompanyNotFound, apperrors.ErrCodeNoWithholding:
		return http.StatusNotFound
	case apperrors.ErrCodeConflict, apperrors.ErrCodeMonthClosed, apperrors.ErrCodeIdempotencyKey, apperrors.ErrCodeDBDuplicate:
		return http.StatusConflict
	case apperrors.ErrCodeValidation, apperrors.ErrCodeRequiredField, apperrors.ErrCodeInvalidFormat,
		apperrors.ErrCodeInvalidCursor, apperrors.ErrCodeInvalidCode:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
