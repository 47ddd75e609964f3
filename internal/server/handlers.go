package server

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mparedes/fraudscore/internal/account"
	"github.com/mparedes/fraudscore/internal/admission"
	"github.com/mparedes/fraudscore/internal/audit"
	"github.com/mparedes/fraudscore/internal/auth"
	"github.com/mparedes/fraudscore/internal/logging"
	"github.com/mparedes/fraudscore/internal/metrics"
	"github.com/mparedes/fraudscore/internal/pagination"
	"github.com/mparedes/fraudscore/internal/quota"
	"github.com/mparedes/fraudscore/internal/scoring"
	"github.com/mparedes/fraudscore/internal/traces"
	"github.com/mparedes/fraudscore/internal/validation"
)

// scoreHandler handles POST /v1/score.
//
// The body is parsed and validated before admission: a malformed
// transaction is rejected without consuming quota or counting against the
// caller's rate window.
func (s *Server) scoreHandler(c *gin.Context) {
	ctx := c.Request.Context()

	var tx scoring.Transaction
	if err := c.ShouldBindJSON(&tx); err != nil {
		metrics.AdmissionRejectionsTotal.WithLabelValues(metrics.ReasonValidation).Inc()
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation_error",
			"message": "Request body must be valid JSON",
		})
		return
	}

	if errs := validation.Transaction(&tx); len(errs) > 0 {
		metrics.AdmissionRejectionsTotal.WithLabelValues(metrics.ReasonValidation).Inc()
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation_error",
			"message": errs.Error(),
			"details": errs,
		})
		return
	}

	acct, err := s.gate.Admit(ctx, auth.ExtractKey(c))
	if err != nil {
		s.rejectAdmission(c, err)
		return
	}

	ctx, span := traces.StartSpan(ctx, "score",
		traces.AccountID(acct.ID),
		traces.Plan(string(acct.Plan)),
		traces.TransactionID(tx.TransactionID),
	)
	defer span.End()

	reasons := s.evaluator.Evaluate(tx)
	result := scoring.NewResult(reasons, time.Now())

	span.SetAttributes(traces.Score(result.FraudScore), traces.Risk(string(result.Risk)))
	metrics.ScoresTotal.WithLabelValues(string(result.Risk)).Inc()

	// Best-effort: a failed audit write never fails the response.
	s.recorder.Record(ctx, acct.ID, &tx, &result)

	logging.L(ctx).Info("transaction scored",
		"account_id", acct.ID,
		"transaction_id", tx.TransactionID,
		"fraud_score", result.FraudScore,
		"risk", string(result.Risk),
	)

	c.JSON(http.StatusOK, result)
}

// rejectAdmission maps admission failures to stable error codes.
func (s *Server) rejectAdmission(c *gin.Context, err error) {
	switch {
	case errors.Is(err, auth.ErrUnauthorized):
		metrics.AdmissionRejectionsTotal.WithLabelValues(metrics.ReasonUnauthorized).Inc()
		c.JSON(http.StatusUnauthorized, gin.H{
			"error":   "unauthorized",
			"message": "Provide a valid API key via X-API-Key or Authorization: Bearer",
		})
	case errors.Is(err, admission.ErrRateLimited):
		metrics.AdmissionRejectionsTotal.WithLabelValues(metrics.ReasonRateLimited).Inc()
		c.Header("Retry-After", "60")
		c.JSON(http.StatusTooManyRequests, gin.H{
			"error":   "rate_limit_exceeded",
			"message": "Too many requests this minute, slow down",
		})
	case errors.Is(err, quota.ErrQuotaExceeded):
		metrics.AdmissionRejectionsTotal.WithLabelValues(metrics.ReasonQuota).Inc()
		c.JSON(http.StatusTooManyRequests, gin.H{
			"error":   "monthly_quota_exceeded",
			"message": "Monthly quota exhausted, upgrade your plan or wait for the month to roll over",
		})
	default:
		logging.L(c.Request.Context()).Error("admission failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "An unexpected error occurred",
		})
	}
}

// usageHandler handles GET /v1/usage. Reads never consume quota or count
// against the rate window.
func (s *Server) usageHandler(c *gin.Context) {
	ctx := c.Request.Context()

	acct, err := s.authMgr.Resolve(ctx, auth.ExtractKey(c))
	if err != nil {
		s.rejectAdmission(c, err)
		return
	}

	used, limit, month, err := s.tracker.Usage(ctx, acct.ID)
	if err != nil {
		logging.L(ctx).Error("failed to read usage", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "Failed to read usage",
		})
		return
	}

	// Recent scoring activity rides along; an audit read failure degrades
	// to an empty list rather than failing the usage read.
	recent, err := s.auditStore.ListByAccount(ctx, acct.ID, 10, nil)
	if err != nil {
		logging.L(ctx).Warn("failed to list recent events", "error", err)
		recent = nil
	}

	c.JSON(http.StatusOK, gin.H{
		"plan":            acct.Plan,
		"monthly_quota":   limit,
		"used_this_month": used,
		"remaining":       limit - used,
		"usage_month":     month.Format("2006-01"),
		"recent_events":   recent,
	})
}

// createAccountHandler handles POST /v1/admin/accounts
func (s *Server) createAccountHandler(c *gin.Context) {
	ctx := c.Request.Context()

	var req struct {
		Email string `json:"email" binding:"required"`
		Plan  string `json:"plan"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation_error",
			"message": "Invalid request body",
		})
		return
	}

	if !validation.IsValidEmail(req.Email) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation_error",
			"message": "email must be a valid address",
		})
		return
	}

	plan := account.Plan(req.Plan)
	if req.Plan == "" {
		plan = account.PlanFree
	}

	acct, rawKey, err := s.authMgr.CreateAccount(ctx, req.Email, plan)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidPlan):
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "validation_error",
				"message": "plan must be one of free, starter, pro, business",
			})
		case errors.Is(err, account.ErrEmailTaken):
			c.JSON(http.StatusConflict, gin.H{
				"error":   "email_taken",
				"message": "An account with this email already exists",
			})
		default:
			logging.L(ctx).Error("failed to create account", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":   "internal_error",
				"message": "Failed to create account",
			})
		}
		return
	}

	metrics.AccountsCreatedTotal.WithLabelValues(string(acct.Plan)).Inc()
	logging.L(ctx).Info("account created",
		"account_id", acct.ID,
		"plan", string(acct.Plan),
	)

	c.JSON(http.StatusCreated, gin.H{
		"account": acct,
		"api_key": rawKey,
		"warning": "Store this API key securely. It will not be shown again.",
	})
}

// getAccountHandler handles GET /v1/admin/accounts/:id
func (s *Server) getAccountHandler(c *gin.Context) {
	acct, err := s.accounts.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error":   "not_found",
				"message": "No account with this id",
			})
			return
		}
		logging.L(c.Request.Context()).Error("failed to get account", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "Failed to get account",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"account": acct})
}

// listEventsHandler handles GET /v1/admin/accounts/:id/events
func (s *Server) listEventsHandler(c *gin.Context) {
	ctx := c.Request.Context()
	accountID := c.Param("id")

	limit := 50
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}

	cursor, err := pagination.Decode(c.Query("cursor"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation_error",
			"message": "invalid cursor",
		})
		return
	}

	// Fetch one extra row to detect whether another page exists.
	events, err := s.auditStore.ListByAccount(ctx, accountID, limit+1, cursor)
	if err != nil {
		logging.L(ctx).Error("failed to list events", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "Failed to list events",
		})
		return
	}

	events, nextCursor, hasMore := pagination.ComputePage(events, limit, func(e *audit.Event) (time.Time, string) {
		return e.CreatedAt, e.ID
	})

	total, err := s.auditStore.CountByAccount(ctx, accountID)
	if err != nil {
		logging.L(ctx).Error("failed to count events", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "Failed to list events",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"events":      events,
		"count":       len(events),
		"total":       total,
		"next_cursor": nextCursor,
		"has_more":    hasMore,
	})
}
