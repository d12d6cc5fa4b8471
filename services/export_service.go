package services

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"payportal/config"
	"payportal/constants"
	apperrors "payportal/errors"
	"payportal/models"
	"payportal/services/logger"
)

const exportPageSize = 500

// ExportService renders workspace payroll data as a streamed xlsx workbook,
// one sheet per month plus a meta sheet. Resident ids are always masked.
type ExportService struct {
	payroll     *PayrollService
	fields      *FieldService
	policy      *PolicyService
	withholding *WithholdingService
	keyring     *Keyring
	logger      logger.Logger
}

// ExportServiceOptions configures an ExportService.
type ExportServiceOptions struct {
	Payroll     *PayrollService
	Fields      *FieldService
	Policy      *PolicyService
	Withholding *WithholdingService
	Keyring     *Keyring
	Logger      logger.Logger
}

func NewExportService(opts ExportServiceOptions) *ExportService {
	return &ExportService{
		payroll:     opts.Payroll,
		fields:      opts.Fields,
		policy:      opts.Policy,
		withholding: opts.Withholding,
		keyring:     opts.Keyring,
		logger:      opts.Logger,
	}
}

var deductionColumns = []string{
	constants.FieldNationalPension,
	constants.FieldHealthInsurance,
	constants.FieldLongTermCare,
	constants.FieldEmploymentInsurance,
	constants.FieldIncomeTax,
	constants.FieldLocalIncomeTax,
}

// exportColumns is the sheet layout: identity columns, the configured input
// fields in display order, then the derived deduction columns.
func exportColumns(rules []FieldRule) []string {
	cols := []string{
		constants.FieldEmployeeCode,
		constants.FieldEmployeeName,
		constants.FieldResidentID,
	}
	for _, r := range rules {
		switch r.Key {
		case constants.FieldEmployeeCode, constants.FieldEmployeeName, constants.FieldResidentID:
			continue
		}
		cols = append(cols, r.Key)
	}
	return append(cols, deductionColumns...)
}

// Export writes the workbook for the requested months to w. Months with no
// rows render as an empty sheet unless EXPORT_SKIP_EMPTY is set.
func (s *ExportService) Export(ctx context.Context, company *models.Company, year int, months []int, requester string, w io.Writer) error {
	if len(months) == 0 {
		return apperrors.NewAppError(apperrors.ErrCodeValidation, "no months requested", nil)
	}

	rules, err := s.fields.LoadFieldRules(ctx, company.ID)
	if err != nil {
		return err
	}
	policy := s.policy.Resolve(ctx, company.ID, year)
	var lookup WithholdingLookup
	if table, err := s.withholding.TableFor(ctx, year); err == nil {
		lookup = table
	} else if s.logger != nil {
		s.logger.Warn("export without withholding table: year=%d", year)
	}
	cols := exportColumns(rules)
	skipEmpty := config.GetEnvBool("EXPORT_SKIP_EMPTY")

	f := excelize.NewFile()
	defer f.Close()

	wroteSheet := false
	for _, month := range months {
		if err := ctx.Err(); err != nil {
			return err
		}
		header, err := s.payroll.Month(ctx, company.ID, year, month)
		if err != nil {
			return err
		}
		empty := header.ID == 0
		if !empty {
			var count int64
			// Cheap existence check so empty months never open a stream.
			err = s.payroll.db.WithContext(ctx).
				Model(&models.PayrollRow{}).
				Where("payroll_id = ?", header.ID).
				Count(&count).Error
			if err != nil {
				return apperrors.NewAppError(apperrors.ErrCodeDBError, "failed to check month rows", err)
			}
			empty = count == 0
		}
		if empty && skipEmpty {
			continue
		}

		sheet := fmt.Sprintf("%d-%02d", year, month)
		if _, err := f.NewSheet(sheet); err != nil {
			return apperrors.NewAppError(apperrors.ErrCodeDBError, "failed to create sheet", err)
		}
		wroteSheet = true
		if err := s.writeMonthSheet(ctx, f, sheet, header, cols, rules, policy, lookup, empty); err != nil {
			return err
		}
	}

	if !wroteSheet {
		// Every month skipped: keep the workbook valid with one empty sheet.
		sheet := fmt.Sprintf("%d", year)
		if _, err := f.NewSheet(sheet); err != nil {
			return apperrors.NewAppError(apperrors.ErrCodeDBError, "failed to create sheet", err)
		}
	}

	if err := s.writeMetaSheet(f, company, requester); err != nil {
		return err
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return apperrors.NewAppError(apperrors.ErrCodeDBError, "failed to finalize workbook", err)
	}
	if err := f.Write(w); err != nil {
		return apperrors.NewAppError(apperrors.ErrCodeDBError, "failed to write workbook", err)
	}
	if s.logger != nil {
		s.logger.Info("export written: company=%d year=%d months=%d", company.ID, year, len(months))
	}
	return nil
}

func (s *ExportService) writeMonthSheet(ctx context.Context, f *excelize.File, sheet string, header *models.MonthlyPayroll, cols []string, rules []FieldRule, policy EffectivePolicy, lookup WithholdingLookup, empty bool) error {
	sw, err := f.NewStreamWriter(sheet)
	if err != nil {
		return apperrors.NewAppError(apperrors.ErrCodeDBError, "failed to open stream writer", err)
	}

	headerRow := make([]interface{}, len(cols))
	for i, c := range cols {
		headerRow[i] = c
	}
	if err := sw.SetRow("A1", headerRow); err != nil {
		return apperrors.NewAppError(apperrors.ErrCodeDBError, "failed to write header row", err)
	}

	totals := make(map[string]int64, len(deductionColumns))
	rowNum := 2
	if !empty {
		err = s.payroll.RowsForExport(ctx, header.ID, exportPageSize, func(rows []models.PayrollRow) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			for i := range rows {
				cells, err := s.exportRow(&rows[i], header.Year, cols, rules, policy, lookup, totals)
				if err != nil {
					return err
				}
				cell, _ := excelize.CoordinatesToCellName(1, rowNum)
				if err := sw.SetRow(cell, cells); err != nil {
					return apperrors.NewAppError(apperrors.ErrCodeDBError, "failed to write row", err)
				}
				rowNum++
			}
			return nil
		})
		if err != nil {
			return err
		}

		totalRow := make([]interface{}, len(cols))
		totalRow[0] = "합계"
		for i, c := range cols {
			if v, ok := totals[c]; ok {
				totalRow[i] = v
			}
		}
		cell, _ := excelize.CoordinatesToCellName(1, rowNum)
		if err := sw.SetRow(cell, totalRow); err != nil {
			return apperrors.NewAppError(apperrors.ErrCodeDBError, "failed to write totals row", err)
		}
	}

	if err := sw.Flush(); err != nil {
		return apperrors.NewAppError(apperrors.ErrCodeDBError, "failed to flush sheet", err)
	}
	return nil
}

// exportRow renders one row's cells in column order, recomputing deductions
// against the current policy. A missing withholding table falls back to the
// stored amounts.
func (s *ExportService) exportRow(row *models.PayrollRow, year int, cols []string, rules []FieldRule, policy EffectivePolicy, lookup WithholdingLookup, totals map[string]int64) ([]interface{}, error) {
	var fields map[string]interface{}
	if err := json.Unmarshal(row.FieldsJSON, &fields); err != nil {
		fields = map[string]interface{}{}
	}

	amounts, _, err := ComputeDeductions(fields, year, policy, rules, lookup)
	if err != nil {
		if !apperrors.IsCode(err, apperrors.ErrCodeNoWithholding) {
			return nil, err
		}
		amounts.IncomeTax = row.IncomeTax
		amounts.LocalIncomeTax = row.LocalIncomeTax
	}
	byName := map[string]int64{
		constants.FieldNationalPension:     amounts.NationalPension,
		constants.FieldHealthInsurance:     amounts.HealthInsurance,
		constants.FieldLongTermCare:        amounts.LongTermCare,
		constants.FieldEmploymentInsurance: amounts.EmploymentInsurance,
		constants.FieldIncomeTax:           amounts.IncomeTax,
		constants.FieldLocalIncomeTax:      amounts.LocalIncomeTax,
	}

	cells := make([]interface{}, len(cols))
	for i, c := range cols {
		switch c {
		case constants.FieldEmployeeCode:
			cells[i] = row.EmployeeCode
		case constants.FieldEmployeeName:
			cells[i] = row.EmployeeName
		case constants.FieldResidentID:
			cells[i] = s.keyring.MaskStored(row.ResidentID)
		default:
			if v, ok := byName[c]; ok {
				cells[i] = v
				totals[c] += v
				continue
			}
			raw, ok := fields[c]
			if !ok {
				continue
			}
			if str, isStr := raw.(string); isStr {
				cells[i] = str
				continue
			}
			n := NumericValue(raw)
			cells[i] = n
			totals[c] += n
		}
	}
	return cells, nil
}

func (s *ExportService) writeMetaSheet(f *excelize.File, company *models.Company, requester string) error {
	const sheet = "meta"
	if _, err := f.NewSheet(sheet); err != nil {
		return apperrors.NewAppError(apperrors.ErrCodeDBError, "failed to create meta sheet", err)
	}
	sw, err := f.NewStreamWriter(sheet)
	if err != nil {
		return apperrors.NewAppError(apperrors.ErrCodeDBError, "failed to open meta writer", err)
	}
	rows := [][]interface{}{
		{"workspace", company.Name},
		{"generated_at", time.Now().Format(time.RFC3339)},
		{"requested_by", requester},
		{"request_id", uuid.NewString()},
		{"notice", "주민등록번호는 마스킹되어 출력됩니다"},
	}
	for i, r := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := sw.SetRow(cell, r); err != nil {
			return apperrors.NewAppError(apperrors.ErrCodeDBError, "failed to write meta row", err)
		}
	}
	if err := sw.Flush(); err != nil {
		return apperrors.NewAppError(apperrors.ErrCodeDBError, "failed to flush meta sheet", err)
	}
	return nil
}

// SignExportPath computes the download signature for a path, expiry and
// workspace. Signing is enabled by setting EXPORT_HMAC_SECRET.
func SignExportPath(path string, exp int64, companyID uint) string {
	secret := config.GetEnv("EXPORT_HMAC_SECRET")
	if secret == "" {
		return ""
	}
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%s|%d|%d", path, exp, companyID)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyExportSignature checks a signed download link. With no secret
// configured, signing is disabled and every link passes.
func VerifyExportSignature(path string, exp int64, companyID uint, sig string) error {
	if config.GetEnv("EXPORT_HMAC_SECRET") == "" {
		return nil
	}
	if exp < time.Now().Unix() {
		return apperrors.NewAppError(apperrors.ErrCodeForbidden, "download link expired", nil)
	}
	want := SignExportPath(path, exp, companyID)
	if want == "" || !hmac.Equal([]byte(want), []byte(sig)) {
		return apperrors.NewAppError(apperrors.ErrCodeForbidden, "invalid download signature", nil)
	}
	return nil
}
