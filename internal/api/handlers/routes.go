package handlers

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/dvloznov/spending-patterns/internal/api/middleware"
	"github.com/dvloznov/spending-patterns/internal/domain"
)

// Services bundles what the router dispatches to.
type Services struct {
	Analysis     AnalysisService
	Rules        RuleService
	Transactions TransactionService
	Ingest       IngestService
	Savings      SavingService
	Personality  PersonalityService
	Notifier     domain.Notifier
}

func methodNotAllowed(w http.ResponseWriter) {
	middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
}

// NewRouter registers every endpoint on a fresh ServeMux.
func NewRouter(s Services, log zerolog.Logger) *http.ServeMux {
	analysisHandler := NewAnalysisHandler(s.Analysis, log)
	rulesHandler := NewRulesHandler(s.Rules, log)
	transactionsHandler := NewTransactionsHandler(s.Transactions, s.Ingest, log)
	insightsHandler := NewInsightsHandler(s.Savings, s.Personality, s.Notifier, log)

	mux := http.NewServeMux()

	// Upload endpoint
	mux.HandleFunc("/upload/excel", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			transactionsHandler.Upload(w, r)
		} else {
			methodNotAllowed(w)
		}
	})

	// Transactions endpoints
	mux.HandleFunc("/transaction", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			transactionsHandler.List(w, r)
		} else {
			methodNotAllowed(w)
		}
	})

	mux.HandleFunc("/transaction/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/transaction/" && r.Method == http.MethodGet {
			transactionsHandler.List(w, r)
			return
		}
		if r.Method != http.MethodPut {
			methodNotAllowed(w)
			return
		}
		id, err := idFromPath(r.URL.Path, "/transaction/", "transaction")
		if err != nil {
			middleware.WriteDomainError(w, r, log, err)
			return
		}
		transactionsHandler.Update(w, r, id)
	})

	// Analysis endpoints
	mux.HandleFunc("/analysis/overspending", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			analysisHandler.Overspending(w, r)
		} else {
			methodNotAllowed(w)
		}
	})

	mux.HandleFunc("/analysis/recurring", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			analysisHandler.Recurring(w, r)
		} else {
			methodNotAllowed(w)
		}
	})

	mux.HandleFunc("/analysis/time-based", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			analysisHandler.TimeBased(w, r)
		} else {
			methodNotAllowed(w)
		}
	})

	mux.HandleFunc("/analysis/statistic/monthly", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			analysisHandler.MonthlyStats(w, r)
		} else {
			methodNotAllowed(w)
		}
	})

	// Rules endpoints
	mux.HandleFunc("/rule", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			rulesHandler.List(w, r)
		case http.MethodPost:
			rulesHandler.Create(w, r)
		case http.MethodPut:
			rulesHandler.ReplaceAll(w, r)
		default:
			methodNotAllowed(w)
		}
	})

	mux.HandleFunc("/rule/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut && r.Method != http.MethodDelete {
			methodNotAllowed(w)
			return
		}
		id, err := idFromPath(r.URL.Path, "/rule/", "rule")
		if err != nil {
			middleware.WriteDomainError(w, r, log, err)
			return
		}
		if r.Method == http.MethodPut {
			rulesHandler.Update(w, r, id)
		} else {
			rulesHandler.Delete(w, r, id)
		}
	})

	// Savings and personality endpoints
	mux.HandleFunc("/saving/opportunities", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			insightsHandler.SavingOpportunities(w, r)
		} else {
			methodNotAllowed(w)
		}
	})

	mux.HandleFunc("/user/personality", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			insightsHandler.Personality(w, r)
		} else {
			methodNotAllowed(w)
		}
	})

	mux.HandleFunc("/inquiry", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			insightsHandler.Inquiry(w, r)
		} else {
			methodNotAllowed(w)
		}
	})

	// Health check endpoint
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	})

	return mux
}
