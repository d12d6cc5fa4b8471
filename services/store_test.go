package services

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"payportal/models"
)

// openTestDB opens an isolated in-memory database per test. The pool is
// pinned to one connection so every statement sees the same memory database.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.Company{},
		&models.MonthlyPayroll{},
		&models.PayrollRow{},
		&models.PolicySetting{},
		&models.WithholdingCell{},
		&models.IdempotencyRecord{},
		&models.FieldConfig{},
	))
	return db
}

func newTestPayrollService(t *testing.T) (*PayrollService, *gorm.DB) {
	t.Helper()
	db := openTestDB(t)
	svc := NewPayrollService(PayrollServiceOptions{
		DB:          db,
		Policy:      NewPolicyService(PolicyServiceOptions{DB: db}),
		Withholding: NewWithholdingService(WithholdingServiceOptions{DB: db}),
		Fields:      NewFieldService(FieldServiceOptions{DB: db}),
		Keyring:     &Keyring{},
	})
	return svc, db
}
