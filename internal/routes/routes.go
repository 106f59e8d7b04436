package routes

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"payment-matching-backend/internal/config"
	handler "payment-matching-backend/internal/handlers"
	"payment-matching-backend/internal/repository"
	service "payment-matching-backend/internal/services/reconciliation"
)

// NewService wires the gorm repositories into a reconciliation service.
func NewService(db *gorm.DB, cfg config.AutoMatchConfig, logger *slog.Logger) *service.ReconciliationService {
	return service.NewReconciliationService(
		repository.NewBankTransactionRepository(db),
		repository.NewInvoiceRepository(db),
		repository.NewContactRepository(db),
		service.Options{BatchLimit: cfg.BatchLimit, Workers: cfg.Workers},
		logger,
	)
}

func RegisterRoutes(r *gin.Engine, reconService *service.ReconciliationService, logger *slog.Logger) {
	reconHandler := handler.NewReconciliationHandler(reconService, logger)

	api := r.Group("/api")

	// Health check
	api.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	company := api.Group("/companies/:companyId")
	company.POST("/auto-match", reconHandler.RunAutoMatch)
	company.GET("/auto-match/last", reconHandler.GetLastRun)

	// Transaction-level review routes
	tx := company.Group("/transactions")
	tx.GET("/:id/candidates", reconHandler.GetCandidates)
	tx.POST("/:id/match", reconHandler.ManualMatchTransaction)
	tx.POST("/:id/unmatch", reconHandler.UnmatchTransaction)
	tx.GET("/:id/audit", reconHandler.GetAuditTrail)
}
