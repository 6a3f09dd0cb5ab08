package handlers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/dvloznov/spending-patterns/internal/api/middleware"
	"github.com/dvloznov/spending-patterns/internal/domain"
)

// RuleService manages the overspending rules.
type RuleService interface {
	List(ctx context.Context, includeDisabled bool) ([]domain.OverspendingRule, error)
	ReplaceAll(ctx context.Context, rules []domain.OverspendingRule) error
	Create(ctx context.Context, rule domain.OverspendingRule) (domain.OverspendingRule, error)
	Update(ctx context.Context, id int64, rule domain.OverspendingRule) (domain.OverspendingRule, error)
	Delete(ctx context.Context, id int64) error
}

// RulesHandler handles the /rule endpoints.
type RulesHandler struct {
	svc RuleService
	log zerolog.Logger
}

// NewRulesHandler creates a new rules handler.
func NewRulesHandler(svc RuleService, log zerolog.Logger) *RulesHandler {
	return &RulesHandler{svc: svc, log: log}
}

// List handles GET /rule
func (h *RulesHandler) List(w http.ResponseWriter, r *http.Request) {
	includeDisabled, err := boolParam(r.URL.Query(), "include_disabled")
	if err != nil {
		middleware.WriteDomainError(w, r, h.log, err)
		return
	}

	rules, err := h.svc.List(r.Context(), includeDisabled)
	if err != nil {
		middleware.WriteDomainError(w, r, h.log, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{"rules": rules})
}

// Create handles POST /rule
func (h *RulesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var rule domain.OverspendingRule
	if err := decodeBody(r, &rule); err != nil {
		middleware.WriteDomainError(w, r, h.log, err)
		return
	}

	created, err := h.svc.Create(r.Context(), rule)
	if err != nil {
		middleware.WriteDomainError(w, r, h.log, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Rule created",
		"rule":    created,
	})
}

// ReplaceAll handles PUT /rule
func (h *RulesHandler) ReplaceAll(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Rules []domain.OverspendingRule `json:"rules"`
	}
	if err := decodeBody(r, &req); err != nil {
		middleware.WriteDomainError(w, r, h.log, err)
		return
	}
	if req.Rules == nil {
		middleware.WriteDomainError(w, r, h.log, domain.NewValidationError("rules", "is required"))
		return
	}

	if err := h.svc.ReplaceAll(r.Context(), req.Rules); err != nil {
		middleware.WriteDomainError(w, r, h.log, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Rules saved",
		"count":   len(req.Rules),
	})
}

// Update handles PUT /rule/{id}
func (h *RulesHandler) Update(w http.ResponseWriter, r *http.Request, id int64) {
	var rule domain.OverspendingRule
	if err := decodeBody(r, &rule); err != nil {
		middleware.WriteDomainError(w, r, h.log, err)
		return
	}

	updated, err := h.svc.Update(r.Context(), id, rule)
	if err != nil {
		middleware.WriteDomainError(w, r, h.log, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Rule updated",
		"rule":    updated,
	})
}

// Delete handles DELETE /rule/{id}
func (h *RulesHandler) Delete(w http.ResponseWriter, r *http.Request, id int64) {
	if err := h.svc.Delete(r.Context(), id); err != nil {
		middleware.WriteDomainError(w, r, h.log, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Rule %d deleted", id),
	})
}
