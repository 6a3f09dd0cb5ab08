package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/dvloznov/spending-patterns/internal/analysis"
	"github.com/dvloznov/spending-patterns/internal/api/middleware"
	"github.com/dvloznov/spending-patterns/internal/domain"
	"github.com/dvloznov/spending-patterns/internal/notify"
	"github.com/dvloznov/spending-patterns/internal/personality"
	"github.com/dvloznov/spending-patterns/internal/saving"
)

// SavingService composes savings opportunities.
type SavingService interface {
	Opportunities(ctx context.Context, p analysis.DateParams) ([]saving.Opportunity, error)
}

// PersonalityService classifies the spending personality.
type PersonalityService interface {
	Analyze(ctx context.Context, r analysis.DateRange) personality.Result
}

// InsightsHandler handles savings, personality and inquiry endpoints.
type InsightsHandler struct {
	savings     SavingService
	personality PersonalityService
	notifier    domain.Notifier
	log         zerolog.Logger
}

// NewInsightsHandler creates a new insights handler.
func NewInsightsHandler(savings SavingService, personality PersonalityService, notifier domain.Notifier, log zerolog.Logger) *InsightsHandler {
	return &InsightsHandler{savings: savings, personality: personality, notifier: notifier, log: log}
}

// SavingOpportunities handles GET /saving/opportunities
func (h *InsightsHandler) SavingOpportunities(w http.ResponseWriter, r *http.Request) {
	p, err := dateParams(r.URL.Query())
	if err != nil {
		middleware.WriteDomainError(w, r, h.log, err)
		return
	}

	opportunities, err := h.savings.Opportunities(r.Context(), p)
	if err != nil {
		middleware.WriteDomainError(w, r, h.log, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"count":         len(opportunities),
		"opportunities": opportunities,
	})
}

// Personality handles GET /user/personality
func (h *InsightsHandler) Personality(w http.ResponseWriter, r *http.Request) {
	p, err := dateParams(r.URL.Query())
	if err != nil {
		middleware.WriteDomainError(w, r, h.log, err)
		return
	}
	dr, err := analysis.ResolveDateRange(p)
	if err != nil {
		middleware.WriteDomainError(w, r, h.log, err)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, h.personality.Analyze(r.Context(), dr))
}

// Inquiry handles POST /inquiry
func (h *InsightsHandler) Inquiry(w http.ResponseWriter, r *http.Request) {
	var inq notify.Inquiry
	if err := decodeBody(r, &inq); err != nil {
		middleware.WriteDomainError(w, r, h.log, err)
		return
	}
	inq.Subject = strings.TrimSpace(inq.Subject)
	inq.Body = strings.TrimSpace(inq.Body)
	inq.Email = strings.TrimSpace(inq.Email)
	if err := domain.Validate(inq); err != nil {
		middleware.WriteDomainError(w, r, h.log, err)
		return
	}

	if err := h.notifier.Notify(r.Context(), inq.Subject, inq.Body, inq.Email); err != nil {
		middleware.WriteDomainError(w, r, h.log, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]string{
		"status":  "success",
		"message": "Inquiry sent",
	})
}
