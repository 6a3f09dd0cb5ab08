package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/dvloznov/spending-patterns/internal/analysis"
	"github.com/dvloznov/spending-patterns/internal/api/middleware"
	"github.com/dvloznov/spending-patterns/internal/domain"
)

// AnalysisService runs the pattern detectors.
type AnalysisService interface {
	Overspending(ctx context.Context, p analysis.DateParams) ([]analysis.OverspendingPattern, error)
	Recurring(ctx context.Context, p analysis.DateParams, minCount int) ([]analysis.RecurringPattern, error)
	TimeBased(ctx context.Context, p analysis.DateParams) ([]analysis.TimeBasedPattern, error)
	MonthlyStats(ctx context.Context, year, month int) (analysis.MonthlyStats, error)
}

// AnalysisHandler handles the /analysis endpoints.
type AnalysisHandler struct {
	svc AnalysisService
	log zerolog.Logger
}

// NewAnalysisHandler creates a new analysis handler.
func NewAnalysisHandler(svc AnalysisService, log zerolog.Logger) *AnalysisHandler {
	return &AnalysisHandler{svc: svc, log: log}
}

// Overspending handles GET /analysis/overspending
func (h *AnalysisHandler) Overspending(w http.ResponseWriter, r *http.Request) {
	p, err := dateParams(r.URL.Query())
	if err != nil {
		middleware.WriteDomainError(w, r, h.log, err)
		return
	}

	patterns, err := h.svc.Overspending(r.Context(), p)
	if err != nil {
		middleware.WriteDomainError(w, r, h.log, err)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"count":    len(patterns),
		"patterns": patterns,
	})
}

// Recurring handles GET /analysis/recurring
func (h *AnalysisHandler) Recurring(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	p, err := dateParams(query)
	if err != nil {
		middleware.WriteDomainError(w, r, h.log, err)
		return
	}
	minCount, err := intParam(query, "min_count", analysis.DefaultMinCount)
	if err != nil {
		middleware.WriteDomainError(w, r, h.log, err)
		return
	}

	patterns, err := h.svc.Recurring(r.Context(), analysis.DateParams{Year: p.Year, Month: p.Month}, minCount)
	if err != nil {
		middleware.WriteDomainError(w, r, h.log, err)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"count":    len(patterns),
		"patterns": patterns,
	})
}

// TimeBased handles GET /analysis/time-based
func (h *AnalysisHandler) TimeBased(w http.ResponseWriter, r *http.Request) {
	p, err := dateParams(r.URL.Query())
	if err != nil {
		middleware.WriteDomainError(w, r, h.log, err)
		return
	}

	patterns, err := h.svc.TimeBased(r.Context(), analysis.DateParams{Year: p.Year, Month: p.Month})
	if err != nil {
		middleware.WriteDomainError(w, r, h.log, err)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"count":    len(patterns),
		"patterns": patterns,
	})
}

// MonthlyStats handles GET /analysis/statistic/monthly
func (h *AnalysisHandler) MonthlyStats(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	year, err := requiredIntParam(query, "year")
	if err != nil {
		middleware.WriteDomainError(w, r, h.log, err)
		return
	}
	month, err := requiredIntParam(query, "month")
	if err != nil {
		middleware.WriteDomainError(w, r, h.log, err)
		return
	}

	stats, err := h.svc.MonthlyStats(r.Context(), year, month)
	if err != nil {
		middleware.WriteDomainError(w, r, h.log, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, stats)
}

// dateParams reads year, month, start_date and end_date.
func dateParams(query url.Values) (analysis.DateParams, error) {
	year, err := intParam(query, "year", 0)
	if err != nil {
		return analysis.DateParams{}, err
	}
	month, err := intParam(query, "month", 0)
	if err != nil {
		return analysis.DateParams{}, err
	}
	return analysis.DateParams{
		Year:      year,
		Month:     month,
		StartDate: strings.TrimSpace(query.Get("start_date")),
		EndDate:   strings.TrimSpace(query.Get("end_date")),
	}, nil
}

func intParam(query url.Values, name string, def int) (int, error) {
	raw := strings.TrimSpace(query.Get(name))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &domain.ValidationError{Field: name, Message: "must be an integer", Err: err}
	}
	return v, nil
}

func requiredIntParam(query url.Values, name string) (int, error) {
	if strings.TrimSpace(query.Get(name)) == "" {
		return 0, domain.NewValidationError(name, "is required")
	}
	return intParam(query, name, 0)
}

func boolParam(query url.Values, name string) (bool, error) {
	raw := strings.TrimSpace(query.Get(name))
	if raw == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, &domain.ValidationError{Field: name, Message: "must be true or false", Err: err}
	}
	return v, nil
}

func idFromPath(path, prefix, resource string) (int64, error) {
	raw := strings.Trim(strings.TrimPrefix(path, prefix), "/")
	if raw == "" {
		return 0, domain.NewValidationError(resource+"_id", "is required")
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, &domain.ValidationError{Field: resource + "_id", Message: "must be an integer", Err: err}
	}
	return id, nil
}

func decodeBody(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return &domain.ValidationError{Field: "body", Message: "invalid request body", Err: err}
	}
	return nil
}
