package dto

import (
	"encoding/json"

	"payportal/services"
)

// LoginRequest is a portal login body. The workspace comes from the path.
type LoginRequest struct {
	AccessCode string `json:"accessCode" binding:"required"`
}

// AdminLoginRequest authenticates an accountant against the console access
// code.
type AdminLoginRequest struct {
	Name       string `json:"name" binding:"required,max=120"`
	AccessCode string `json:"accessCode" binding:"required"`
}

// CreateCompanyRequest provisions a workspace.
type CreateCompanyRequest struct {
	Name string `json:"name" binding:"required,max=200"`
}

// RowRequest carries one row's fields for a single-row save or a preview.
type RowRequest struct {
	Fields map[string]interface{} `json:"fields" binding:"required"`
}

// BulkSaveRequest replaces a month's rows.
type BulkSaveRequest struct {
	Rows []map[string]interface{} `json:"rows" binding:"required"`
}

// WithholdingUploadRequest replaces one year's withholding table.
type WithholdingUploadRequest struct {
	Cells []services.CellUpload `json:"cells" binding:"required,dive"`
}

// FieldReplaceRequest swaps a workspace's field configuration.
type FieldReplaceRequest struct {
	Fields []services.FieldUpsert `json:"fields" binding:"required,dive"`
}

// PrefSetRequest stores one UI preference value.
type PrefSetRequest struct {
	Value json.RawMessage `json:"value" binding:"required"`
}
