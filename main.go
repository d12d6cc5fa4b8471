package main

import (
	"log"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"payportal/config"
	"payportal/controllers"
	"payportal/jobs"
	"payportal/models"
	"payportal/routes"
	"payportal/services"
	"payportal/services/logger"
)

func migrateTables() {
	err := config.DB.AutoMigrate(
		&models.Company{},
		&models.MonthlyPayroll{},
		&models.PayrollRow{},
		&models.PolicySetting{},
		&models.WithholdingCell{},
		&models.IdempotencyRecord{},
		&models.FieldConfig{},
		&models.UIPreference{},
		&models.AuditEvent{},
	)
	if err != nil {
		log.Fatalf("Failed to migrate tables: %v", err)
	}
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env not loaded, using ambient environment: %v", err)
	}

	router, c, err := config.InitApp()
	if err != nil {
		log.Fatalf("Failed to initialize app: %v", err)
	}

	migrateTables()

	appLogger := logger.NewDefaultLogger(logger.InfoLevel)
	keyring, err := services.KeyringFromEnv()
	if err != nil {
		log.Fatalf("Failed to load pii keys: %v", err)
	}

	policyService := services.NewPolicyService(services.PolicyServiceOptions{
		DB:     config.DB,
		Redis:  config.RedisClient,
		Logger: appLogger,
	})
	withholdingService := services.NewWithholdingService(services.WithholdingServiceOptions{
		DB:     config.DB,
		Redis:  config.RedisClient,
		Logger: appLogger,
	})
	fieldService := services.NewFieldService(services.FieldServiceOptions{
		DB:     config.DB,
		Logger: appLogger,
	})
	companyService := services.NewCompanyService(services.CompanyServiceOptions{
		DB:     config.DB,
		Logger: appLogger,
		Fields: fieldService,
	})
	payrollService := services.NewPayrollService(services.PayrollServiceOptions{
		DB:          config.DB,
		Logger:      appLogger,
		Policy:      policyService,
		Withholding: withholdingService,
		Fields:      fieldService,
		Keyring:     keyring,
	})
	exportService := services.NewExportService(services.ExportServiceOptions{
		Payroll:     payrollService,
		Fields:      fieldService,
		Policy:      policyService,
		Withholding: withholdingService,
		Keyring:     keyring,
		Logger:      appLogger,
	})
	idempotencyService := services.NewIdempotencyService(services.IdempotencyServiceOptions{
		DB:     config.DB,
		Logger: appLogger,
	})
	auditService := services.NewAuditService(services.AuditServiceOptions{
		DB:     config.DB,
		Logger: appLogger,
	})
	authService := services.NewAuthService(services.AuthServiceOptions{
		Companies: companyService,
		Logger:    appLogger,
	})

	controllers.Setup(controllers.Services{
		Auth:        authService,
		Companies:   companyService,
		Payroll:     payrollService,
		Policy:      policyService,
		Withholding: withholdingService,
		Fields:      fieldService,
		Export:      exportService,
		Idempotency: idempotencyService,
		Audit:       auditService,
		Prefs:       services.NewPrefsService(config.DB),
		Reporting:   services.NewReportingService(config.DB),
	})

	jobs.SetIdempotencyPruner(idempotencyService)
	if err := jobs.InitCronJobs(c); err != nil {
		log.Fatalf("Failed to initialize cron jobs: %v", err)
	}

	routes.SetupRoutes(router)

	router.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
