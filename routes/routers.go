package routes

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"payportal/constants"
	"payportal/controllers"
	"payportal/middleware"
)

// SetupRoutes registers the full HTTP surface.
func SetupRoutes(r *gin.Engine) {
	r.Use(middleware.RequestID())

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := r.Group("/api")
	{
		api.GET("/meta", controllers.Meta)
		api.POST("/admin/login", controllers.AdminLogin)

		// Signed export links authorize themselves via the signature.
		api.GET("/exports/:slug/:year", controllers.DownloadSignedExport)
	}

	portal := api.Group("/companies/:slug")
	{
		portal.POST("/login", controllers.Login)

		read := portal.Group("", middleware.AuthMiddleware(constants.ReadRoles...))
		{
			read.GET("/fields", controllers.ListFields)
			read.GET("/policies/:year/effective", controllers.GetEffectivePolicy)
			read.GET("/payrolls/:year/:month", controllers.GetMonth)
			read.GET("/payrolls/:year/:month/rows", controllers.ListRows)
			read.GET("/payrolls/:year/:month/summary", controllers.MonthSummary)
			read.GET("/summaries/:year", controllers.YearSummary)
			read.GET("/exports/:year", controllers.DownloadExport)
			read.GET("/prefs", controllers.GetPrefs)
		}

		write := portal.Group("", middleware.AuthMiddleware(constants.WriteRoles...))
		{
			write.PUT("/fields", controllers.ReplaceFields)
			write.POST("/previews/:year", controllers.PreviewRow)
			write.PUT("/payrolls/:year/:month/rows", controllers.SaveRows)
			write.PUT("/payrolls/:year/:month/rows/:rowId", controllers.SaveRow)
			write.POST("/exports/:year/links", controllers.CreateExportLink)
			write.PUT("/prefs/:key", controllers.SetPref)
			write.DELETE("/prefs/:key", controllers.DeletePref)
		}

		closing := portal.Group("", middleware.AuthMiddleware(constants.ClosingRoles...))
		{
			closing.POST("/payrolls/:year/:month/close", controllers.CloseMonth)
		}

		adminOnly := portal.Group("", middleware.AuthMiddleware(constants.RoleAdmin))
		{
			adminOnly.POST("/payrolls/:year/:month/reopen", controllers.ReopenMonth)
		}
	}

	admin := api.Group("/admin", middleware.AdminMiddleware())
	{
		admin.POST("/companies", controllers.CreateCompany)
		admin.GET("/companies", controllers.ListCompanies)
		admin.POST("/companies/:slug/rotate-access-code", controllers.RotateAccessCode)
		admin.POST("/companies/:slug/rotate-token-key", controllers.RotateTokenKey)
		admin.PUT("/companies/:slug/policies/:year", controllers.UpsertCompanyPolicy)

		admin.GET("/policies/:year", controllers.ListPolicies)
		admin.PUT("/policies/:year", controllers.UpsertGlobalPolicy)

		admin.PUT("/withholding/:year", controllers.UploadWithholding)
		admin.GET("/withholding-years", controllers.WithholdingYears)
		admin.GET("/withholding/:year/lookup", controllers.LookupWithholding)

		admin.GET("/closings", controllers.ListClosings)
		admin.GET("/audit", controllers.ListAudit)
	}
}
