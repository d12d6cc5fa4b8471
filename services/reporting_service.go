package services

import (
	"context"

	"gorm.io/gorm"

	apperrors "payportal/errors"
	"payportal/models"
)

// MonthSummary aggregates one month's deduction totals from the stored
// columns, never re-parsing row JSON.
type MonthSummary struct {
	Year                int    `json:"year"`
	Month               int    `json:"month"`
	Status              string `json:"status"`
	RowCount            int64  `json:"rowCount"`
	NationalPension     int64  `json:"nationalPension"`
	HealthInsurance     int64  `json:"healthInsurance"`
	LongTermCare        int64  `json:"longTermCare"`
	EmploymentInsurance int64  `json:"employmentInsurance"`
	IncomeTax           int64  `json:"incomeTax"`
	LocalIncomeTax      int64  `json:"localIncomeTax"`
}

// ReportingService computes aggregates for the portal summary views.
type ReportingService struct {
	db *gorm.DB
}

func NewReportingService(db *gorm.DB) *ReportingService {
	return &ReportingService{db: db}
}

// MonthSummary totals one month. A month with no rows returns zeros with the
// header status, or open when the header does not exist yet.
func (s *ReportingService) MonthSummary(ctx context.Context, companyID uint, year, month int) (*MonthSummary, error) {
	summary := MonthSummary{Year: year, Month: month, Status: "open"}

	var header models.MonthlyPayroll
	err := s.db.WithContext(ctx).
		Where("company_id = ? AND year = ? AND month = ?", companyID, year, month).
		First(&header).Error
	if err == nil {
		summary.Status = header.Status
	} else if err != gorm.ErrRecordNotFound {
		return nil, apperrors.NewAppError(apperrors.ErrCodeDBError, "failed to load month", err)
	}

	row := struct {
		RowCount            int64
		NationalPension     int64
		HealthInsurance     int64
		LongTermCare        int64
		EmploymentInsurance int64
		IncomeTax           int64
		LocalIncomeTax      int64
	}{}
	err = s.db.WithContext(ctx).
		Model(&models.PayrollRow{}).
		Select(`count(*) as row_count,
			coalesce(sum(national_pension), 0) as national_pension,
			coalesce(sum(health_insurance), 0) as health_insurance,
			coalesce(sum(long_term_care), 0) as long_term_care,
			coalesce(sum(employment_insurance), 0) as employment_insurance,
			coalesce(sum(income_tax), 0) as income_tax,
			coalesce(sum(local_income_tax), 0) as local_income_tax`).
		Where("company_id = ? AND year = ? AND month = ?", companyID, year, month).
		Scan(&row).Error
	if err != nil {
		return nil, apperrors.NewAppError(apperrors.ErrCodeDBError, "failed to aggregate month", err)
	}

	summary.RowCount = row.RowCount
	summary.NationalPension = row.NationalPension
	summary.HealthInsurance = row.HealthInsurance
	summary.LongTermCare = row.LongTermCare
	summary.EmploymentInsurance = row.EmploymentInsurance
	summary.IncomeTax = row.IncomeTax
	summary.LocalIncomeTax = row.LocalIncomeTax
	return &summary, nil
}

// YearSummary totals every month of a year for one company, ordered by
// month.
func (s *ReportingService) YearSummary(ctx context.Context, companyID uint, year int) ([]MonthSummary, error) {
	var months []models.MonthlyPayroll
	err := s.db.WithContext(ctx).
		Where("company_id = ? AND year = ?", companyID, year).
		Order("month asc").
		Find(&months).Error
	if err != nil {
		return nil, apperrors.NewAppError(apperrors.ErrCodeDBError, "failed to list months", err)
	}

	summaries := make([]MonthSummary, 0, len(months))
	for _, m := range months {
		s2, err := s.MonthSummary(ctx, companyID, year, m.Month)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, *s2)
	}
	return summaries, nil
}
