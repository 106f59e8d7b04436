package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"payment-matching-backend/internal/models"
	"payment-matching-backend/internal/services/matching"
	service "payment-matching-backend/internal/services/reconciliation"
)

// Matcher is the reconciliation surface the handlers drive.
type Matcher interface {
	RunAutoMatching(ctx context.Context, companyID uuid.UUID, userID string, bankAccountID *uuid.UUID) (*service.RunSummary, error)
	LastRun(companyID uuid.UUID) (*service.RunSummary, bool)
	SuggestMatches(ctx context.Context, companyID, txID uuid.UUID) (*matching.MatchResult, error)
	ManualMatch(ctx context.Context, companyID, txID, invoiceID uuid.UUID, userID string) (*models.BankTransaction, error)
	Unmatch(ctx context.Context, companyID, txID uuid.UUID, userID, reason string) (*models.BankTransaction, error)
	AuditTrail(ctx context.Context, companyID, txID uuid.UUID) ([]models.MatchAuditLog, error)
}

type ReconciliationHandler struct {
	service Matcher
	logger  *slog.Logger
}

func NewReconciliationHandler(s Matcher, logger *slog.Logger) *ReconciliationHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReconciliationHandler{service: s, logger: logger.With("system", "http")}
}

func (h *ReconciliationHandler) RunAutoMatch(c *gin.Context) {
	companyID, ok := parseID(c, "companyId", "invalid company ID")
	if !ok {
		return
	}

	var payload struct {
		UserID        string `json:"user_id" binding:"required"`
		BankAccountID string `json:"bank_account_id"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	var bankAccountID *uuid.UUID
	if payload.BankAccountID != "" {
		id, err := uuid.Parse(payload.BankAccountID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid bank account ID"})
			return
		}
		bankAccountID = &id
	}

	summary, err := h.service.RunAutoMatching(c.Request.Context(), companyID, payload.UserID, bankAccountID)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

func (h *ReconciliationHandler) GetLastRun(c *gin.Context) {
	companyID, ok := parseID(c, "companyId", "invalid company ID")
	if !ok {
		return
	}

	summary, found := h.service.LastRun(companyID)
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "no auto-match run recorded"})
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *ReconciliationHandler) GetCandidates(c *gin.Context) {
	companyID, ok := parseID(c, "companyId", "invalid company ID")
	if !ok {
		return
	}
	txID, ok := parseID(c, "id", "invalid transaction ID")
	if !ok {
		return
	}

	result, err := h.service.SuggestMatches(c.Request.Context(), companyID, txID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *ReconciliationHandler) ManualMatchTransaction(c *gin.Context) {
	companyID, ok := parseID(c, "companyId", "invalid company ID")
	if !ok {
		return
	}
	txID, ok := parseID(c, "id", "invalid transaction ID")
	if !ok {
		return
	}

	var payload struct {
		InvoiceID string `json:"invoice_id" binding:"required"`
		UserID    string `json:"user_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	invoiceID, err := uuid.Parse(payload.InvoiceID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid invoice ID"})
		return
	}

	tx, err := h.service.ManualMatch(c.Request.Context(), companyID, txID, invoiceID, payload.UserID)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "transaction manually matched", "transaction": tx})
}

func (h *ReconciliationHandler) UnmatchTransaction(c *gin.Context) {
	companyID, ok := parseID(c, "companyId", "invalid company ID")
	if !ok {
		return
	}
	txID, ok := parseID(c, "id", "invalid transaction ID")
	if !ok {
		return
	}

	var payload struct {
		UserID string `json:"user_id" binding:"required"`
		Reason string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	tx, err := h.service.Unmatch(c.Request.Context(), companyID, txID, payload.UserID, payload.Reason)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "transaction unmatched", "transaction": tx})
}

func (h *ReconciliationHandler) GetAuditTrail(c *gin.Context) {
	companyID, ok := parseID(c, "companyId", "invalid company ID")
	if !ok {
		return
	}
	txID, ok := parseID(c, "id", "invalid transaction ID")
	if !ok {
		return
	}

	trail, err := h.service.AuditTrail(c.Request.Context(), companyID, txID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": trail})
}

func parseID(c *gin.Context, param, msg string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return uuid.Nil, false
	}
	return id, true
}

func (h *ReconciliationHandler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrTransactionNotFound), errors.Is(err, service.ErrInvoiceNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrTransactionNotEligible),
		errors.Is(err, service.ErrInvoiceNotEligible),
		errors.Is(err, service.ErrNotMatched),
		errors.Is(err, service.ErrRunInProgress):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidRecord):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	default:
		h.logger.Error("Request failed", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
