package services

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"payportal/constants"
	apperrors "payportal/errors"
	"payportal/models"
	"payportal/services/logger"
	"payportal/utils"
)

// PayrollService owns month headers and rows: upserts, closing, listing.
type PayrollService struct {
	db          *gorm.DB
	logger      logger.Logger
	policy      *PolicyService
	withholding *WithholdingService
	fields      *FieldService
	keyring     *Keyring
}

// PayrollServiceOptions configures a PayrollService.
type PayrollServiceOptions struct {
	DB          *gorm.DB
	Logger      logger.Logger
	Policy      *PolicyService
	Withholding *WithholdingService
	Fields      *FieldService
	Keyring     *Keyring
}

func NewPayrollService(opts PayrollServiceOptions) *PayrollService {
	return &PayrollService{
		db:          opts.DB,
		logger:      opts.Logger,
		policy:      opts.Policy,
		withholding: opts.Withholding,
		fields:      opts.Fields,
		keyring:     opts.Keyring,
	}
}

// PayrollRowView is the client-facing shape of one row. The resident id is
// always masked; deduction amounts come from the stored columns.
type PayrollRowView struct {
	ID            uint                   `json:"id"`
	RowIdentifier string                 `json:"rowIdentifier"`
	EmployeeCode  string                 `json:"employeeCode"`
	EmployeeName  string                 `json:"employeeName"`
	ResidentID    string                 `json:"residentId,omitempty"`
	Fields        map[string]interface{} `json:"fields"`
	Deductions    DeductionAmounts       `json:"deductions"`
	UpdatedAt     time.Time              `json:"updatedAt"`
}

// rowIdentity is what sanitizeFields extracts from a submitted row.
type rowIdentity struct {
	fields       map[string]interface{}
	residentID   string
	employeeCode string
	employeeName string
}

// sanitizeFields copies the submitted map, stripping the resident id into
// its encrypted column and dropping any client-sent deduction outputs, which
// are always derived server-side.
func sanitizeFields(raw map[string]interface{}) rowIdentity {
	out := rowIdentity{fields: make(map[string]interface{}, len(raw))}
	for k, v := range raw {
		switch {
		case k == constants.FieldResidentID:
			if s, ok := v.(string); ok {
				out.residentID = s
			}
		case constants.DeductionFields[k]:
		default:
			out.fields[k] = v
		}
	}
	if s, ok := out.fields[constants.FieldEmployeeCode].(string); ok {
		out.employeeCode = s
	}
	if s, ok := out.fields[constants.FieldEmployeeName].(string); ok {
		out.employeeName = s
	}
	return out
}

// monthLock applies a row lock where the dialect has one. sqlite runs with a
// single writer, so its transactions already serialize without a lock clause.
func monthLock(tx *gorm.DB, strength string) *gorm.DB {
	if tx.Dialector.Name() != "postgres" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: strength})
}

// lockMonth loads the month header under a row lock. SHARE lets independent
// row upserts proceed in parallel while blocking a concurrent close; close
// and reopen take UPDATE. With create set, a missing header is created open,
// reconciling the insert race via the unique (company, year, month) index.
func (s *PayrollService) lockMonth(tx *gorm.DB, companyID uint, year, month int, strength string, create bool) (*models.MonthlyPayroll, error) {
	var header models.MonthlyPayroll
	err := monthLock(tx, strength).
		Where("company_id = ? AND year = ? AND month = ?", companyID, year, month).
		First(&header).Error
	if err == nil {
		return &header, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NewAppError(apperrors.ErrCodeDBError, "failed to lock month", err)
	}
	if !create {
		return nil, apperrors.NewAppError(apperrors.ErrCodeNotFound, "month not found", apperrors.ErrMonthNotFound)
	}

	header = models.MonthlyPayroll{
		CompanyID: companyID,
		Year:      year,
		Month:     month,
		Status:    constants.MonthStatusOpen,
	}
	if err := tx.Create(&header).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			err = monthLock(tx, strength).
				Where("company_id = ? AND year = ? AND month = ?", companyID, year, month).
				First(&header).Error
			if err == nil {
				return &header, nil
			}
		}
		return nil, apperrors.NewAppError(apperrors.ErrCodeDBError, "failed to create month", err)
	}
	return &header, nil
}

// upsertRowTx computes deductions and writes one row inside tx. The caller
// holds the month lock.
func (s *PayrollService) upsertRowTx(ctx context.Context, tx *gorm.DB, header *models.MonthlyPayroll, rowID string, raw map[string]interface{}, rules []FieldRule, policy EffectivePolicy, lookup WithholdingLookup) (*models.PayrollRow, error) {
	identity := sanitizeFields(raw)

	amounts, _, err := ComputeDeductions(identity.fields, header.Year, policy, rules, lookup)
	if err != nil {
		if apperrors.IsCode(err, apperrors.ErrCodeNoWithholding) {
			// Data entry is never blocked by a missing tax table; taxes
			// stay zero until the table is uploaded and the row re-saved.
			if s.logger != nil {
				s.logger.Warn("no withholding table for year %d, taxes left zero", header.Year)
			}
		} else {
			return nil, err
		}
	}

	storedResident := ""
	if identity.residentID != "" {
		storedResident, err = s.keyring.Encrypt(identity.residentID)
		if err != nil {
			return nil, apperrors.NewAppError(apperrors.ErrCodeDBError, "failed to protect resident id", err)
		}
	}

	fieldsJSON, err := json.Marshal(identity.fields)
	if err != nil {
		return nil, apperrors.NewAppError(apperrors.ErrCodeInvalidFormat, "row fields are not serializable", err)
	}

	row := models.PayrollRow{
		PayrollID:           header.ID,
		RowIdentifier:       rowID,
		CompanyID:           header.CompanyID,
		Year:                header.Year,
		Month:               header.Month,
		EmployeeCode:        identity.employeeCode,
		EmployeeName:        identity.employeeName,
		ResidentID:          storedResident,
		FieldsJSON:          fieldsJSON,
		NationalPension:     amounts.NationalPension,
		HealthInsurance:     amounts.HealthInsurance,
		LongTermCare:        amounts.LongTermCare,
		EmploymentInsurance: amounts.EmploymentInsurance,
		IncomeTax:           amounts.IncomeTax,
		LocalIncomeTax:      amounts.LocalIncomeTax,
	}

	err = tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "payroll_id"}, {Name: "row_identifier"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"employee_code", "employee_name", "resident_id", "fields_json",
			"national_pension", "health_insurance", "long_term_care",
			"employment_insurance", "income_tax", "local_income_tax",
			"updated_at",
		}),
	}).Create(&row).Error
	if err != nil {
		return nil, apperrors.NewAppError(apperrors.ErrCodeDBError, "failed to save row", err)
	}
	return &row, nil
}

func (s *PayrollService) tableOrNil(ctx context.Context, year int) WithholdingLookup {
	table, err := s.withholding.TableFor(ctx, year)
	if err != nil {
		return nil
	}
	return table
}

// UpsertRow saves a single row. The month header is created open on first
// write and moves to in_progress; a closed month rejects the write.
func (s *PayrollService) UpsertRow(ctx context.Context, companyID uint, year, month int, rowID string, raw map[string]interface{}) (*PayrollRowView, error) {
	rules, err := s.fields.LoadFieldRules(ctx, companyID)
	if err != nil {
		return nil, err
	}
	policy := s.policy.Resolve(ctx, companyID, year)
	lookup := s.tableOrNil(ctx, year)

	var saved *models.PayrollRow
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		header, err := s.lockMonth(tx, companyID, year, month, "SHARE", true)
		if err != nil {
			return err
		}
		if header.Status == constants.MonthStatusClosed {
			return apperrors.NewAppError(apperrors.ErrCodeMonthClosed, "month is closed", apperrors.ErrMonthClosed)
		}
		saved, err = s.upsertRowTx(ctx, tx, header, rowID, raw, rules, policy, lookup)
		if err != nil {
			return err
		}
		if header.Status == constants.MonthStatusOpen {
			return tx.Model(header).Update("status", constants.MonthStatusInProgress).Error
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	view := s.rowView(saved)
	return &view, nil
}

// BulkSave replaces a month's rows with the submitted set: every row is
// upserted and rows absent from the payload are deleted. The whole month is
// locked for the duration so a concurrent close cannot interleave.
func (s *PayrollService) BulkSave(ctx context.Context, companyID uint, year, month int, rows []map[string]interface{}) ([]PayrollRowView, error) {
	rules, err := s.fields.LoadFieldRules(ctx, companyID)
	if err != nil {
		return nil, err
	}
	policy := s.policy.Resolve(ctx, companyID, year)
	lookup := s.tableOrNil(ctx, year)

	var views []PayrollRowView
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		header, err := s.lockMonth(tx, companyID, year, month, "UPDATE", true)
		if err != nil {
			return err
		}
		if header.Status == constants.MonthStatusClosed {
			return apperrors.NewAppError(apperrors.ErrCodeMonthClosed, "month is closed", apperrors.ErrMonthClosed)
		}

		kept := make([]string, 0, len(rows))
		views = make([]PayrollRowView, 0, len(rows))
		for _, raw := range rows {
			rowID := RowIdentifier(raw)
			saved, err := s.upsertRowTx(ctx, tx, header, rowID, raw, rules, policy, lookup)
			if err != nil {
				return err
			}
			kept = append(kept, rowID)
			views = append(views, s.rowView(saved))
		}

		del := tx.Where("payroll_id = ?", header.ID)
		if len(kept) > 0 {
			del = del.Where("row_identifier NOT IN ?", kept)
		}
		if err := del.Delete(&models.PayrollRow{}).Error; err != nil {
			return apperrors.NewAppError(apperrors.ErrCodeDBError, "failed to remove dropped rows", err)
		}

		status := constants.MonthStatusInProgress
		if len(rows) == 0 {
			status = constants.MonthStatusOpen
		}
		return tx.Model(header).Update("status", status).Error
	})
	if err != nil {
		return nil, err
	}
	if s.logger != nil {
		s.logger.Info("bulk save: company=%d %d-%02d rows=%d", companyID, year, month, len(rows))
	}
	return views, nil
}

// RowIdentifier derives the stable row key for a submitted row: the employee
// code when present, otherwise a fresh uuid.
func RowIdentifier(raw map[string]interface{}) string {
	if code, ok := raw[constants.FieldEmployeeCode].(string); ok && code != "" {
		return code
	}
	return uuid.NewString()
}

// Close finalizes a month. Closing is idempotent; a month with no rows
// cannot be closed.
func (s *PayrollService) Close(ctx context.Context, companyID uint, year, month int) (*models.MonthlyPayroll, error) {
	var header *models.MonthlyPayroll
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		header, err = s.lockMonth(tx, companyID, year, month, "UPDATE", false)
		if err != nil {
			return err
		}
		if header.Status == constants.MonthStatusClosed {
			return nil
		}
		var rowCount int64
		if err := tx.Model(&models.PayrollRow{}).Where("payroll_id = ?", header.ID).Count(&rowCount).Error; err != nil {
			return apperrors.NewAppError(apperrors.ErrCodeDBError, "failed to count rows", err)
		}
		if rowCount == 0 {
			return apperrors.NewAppError(apperrors.ErrCodeConflict, "cannot close a month with no rows", nil)
		}
		header.Status = constants.MonthStatusClosed
		return tx.Model(header).Update("status", constants.MonthStatusClosed).Error
	})
	if err != nil {
		return nil, err
	}
	if s.logger != nil {
		s.logger.Info("month closed: company=%d %d-%02d", companyID, year, month)
	}
	return header, nil
}

// Reopen reverts a closed month to in_progress so corrections can land.
func (s *PayrollService) Reopen(ctx context.Context, companyID uint, year, month int) (*models.MonthlyPayroll, error) {
	var header *models.MonthlyPayroll
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		header, err = s.lockMonth(tx, companyID, year, month, "UPDATE", false)
		if err != nil {
			return err
		}
		if header.Status != constants.MonthStatusClosed {
			return nil
		}
		header.Status = constants.MonthStatusInProgress
		return tx.Model(header).Update("status", constants.MonthStatusInProgress).Error
	})
	if err != nil {
		return nil, err
	}
	if s.logger != nil {
		s.logger.Info("month reopened: company=%d %d-%02d", companyID, year, month)
	}
	return header, nil
}

// Month loads the month header without locking. A missing month is reported
// as open with no rows, matching what the portal shows before first save.
func (s *PayrollService) Month(ctx context.Context, companyID uint, year, month int) (*models.MonthlyPayroll, error) {
	var header models.MonthlyPayroll
	err := s.db.WithContext(ctx).
		Where("company_id = ? AND year = ? AND month = ?", companyID, year, month).
		First(&header).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &models.MonthlyPayroll{
			CompanyID: companyID,
			Year:      year,
			Month:     month,
			Status:    constants.MonthStatusOpen,
		}, nil
	}
	if err != nil {
		return nil, apperrors.NewAppError(apperrors.ErrCodeDBError, "failed to load month", err)
	}
	return &header, nil
}

// ListRows pages through a month's rows in insertion order using an opaque
// seek cursor.
func (s *PayrollService) ListRows(ctx context.Context, companyID uint, year, month int, cursor string, limit int) ([]PayrollRowView, string, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var afterID int64
	if cursor != "" {
		payload, err := utils.DecodeCursor(cursor)
		if err != nil {
			return nil, "", err
		}
		afterID = payload["id"]
	}

	var rows []models.PayrollRow
	q := s.db.WithContext(ctx).
		Where("company_id = ? AND year = ? AND month = ?", companyID, year, month).
		Where("id > ?", afterID).
		Order("id asc").
		Limit(limit + 1)
	if err := q.Find(&rows).Error; err != nil {
		return nil, "", apperrors.NewAppError(apperrors.ErrCodeDBError, "failed to list rows", err)
	}

	next := ""
	if len(rows) > limit {
		rows = rows[:limit]
		next = utils.EncodeCursor(map[string]int64{"id": int64(rows[len(rows)-1].ID)})
	}
	views := make([]PayrollRowView, 0, len(rows))
	for i := range rows {
		views = append(views, s.rowView(&rows[i]))
	}
	return views, next, nil
}

// RowsForExport streams a month's rows in pages, invoking fn per page.
// Pages are keyed by id so a concurrent insert never repeats a row.
func (s *PayrollService) RowsForExport(ctx context.Context, payrollID uint, pageSize int, fn func(rows []models.PayrollRow) error) error {
	if pageSize <= 0 {
		pageSize = 500
	}
	var afterID uint
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		var rows []models.PayrollRow
		err := s.db.WithContext(ctx).
			Where("payroll_id = ? AND id > ?", payrollID, afterID).
			Order("id asc").
			Limit(pageSize).
			Find(&rows).Error
		if err != nil {
			return apperrors.NewAppError(apperrors.ErrCodeDBError, "failed to page rows", err)
		}
		if len(rows) == 0 {
			return nil
		}
		if err := fn(rows); err != nil {
			return err
		}
		afterID = rows[len(rows)-1].ID
	}
}

// ListMonths pages through month headers, newest first. A zero companyID
// lists across all companies for the admin closings view.
func (s *PayrollService) ListMonths(ctx context.Context, companyID uint, status string, cursor string, limit int) ([]models.MonthlyPayroll, string, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	q := s.db.WithContext(ctx).Model(&models.MonthlyPayroll{}).Order("id desc").Limit(limit + 1)
	if companyID != 0 {
		q = q.Where("company_id = ?", companyID)
	}
	if status != "" {
		q = q.Where("status = ?", status)
	}
	if cursor != "" {
		payload, err := utils.DecodeCursor(cursor)
		if err != nil {
			return nil, "", err
		}
		q = q.Where("id < ?", payload["id"])
	}

	var months []models.MonthlyPayroll
	if err := q.Find(&months).Error; err != nil {
		return nil, "", apperrors.NewAppError(apperrors.ErrCodeDBError, "failed to list months", err)
	}
	next := ""
	if len(months) > limit {
		months = months[:limit]
		next = utils.EncodeCursor(map[string]int64{"id": int64(months[len(months)-1].ID)})
	}
	return months, next, nil
}

// Preview computes deductions for a draft row without persisting anything.
func (s *PayrollService) Preview(ctx context.Context, companyID uint, year int, raw map[string]interface{}) (DeductionAmounts, CalculationDetail, error) {
	rules, err := s.fields.LoadFieldRules(ctx, companyID)
	if err != nil {
		return DeductionAmounts{}, CalculationDetail{}, err
	}
	policy := s.policy.Resolve(ctx, companyID, year)
	identity := sanitizeFields(raw)
	return ComputeDeductions(identity.fields, year, policy, rules, s.tableOrNil(ctx, year))
}

func (s *PayrollService) rowView(row *models.PayrollRow) PayrollRowView {
	var fields map[string]interface{}
	if err := json.Unmarshal(row.FieldsJSON, &fields); err != nil {
		fields = map[string]interface{}{}
	}
	return PayrollRowView{
		ID:            row.ID,
		RowIdentifier: row.RowIdentifier,
		EmployeeCode:  row.EmployeeCode,
		EmployeeName:  row.EmployeeName,
		ResidentID:    s.keyring.MaskStored(row.ResidentID),
		Fields:        fields,
		Deductions: DeductionAmounts{
			NationalPension:     row.NationalPension,
			HealthInsurance:     row.HealthInsurance,
			LongTermCare:        row.LongTermCare,
			EmploymentInsurance: row.EmploymentInsurance,
			IncomeTax:           row.IncomeTax,
			LocalIncomeTax:      row.LocalIncomeTax,
		},
		UpdatedAt: row.UpdatedAt,
	}
}
