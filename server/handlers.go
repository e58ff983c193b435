package server

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/etnz/tradebook"
	"github.com/etnz/tradebook/date"
	"github.com/etnz/tradebook/normalize"
	"github.com/etnz/tradebook/store"
	"github.com/shopspring/decimal"
)

// maxUpload bounds the size of uploaded reports.
const maxUpload = 32 << 20

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			log.Printf("cannot encode response: %v", err)
		}
	}
}

func respondError(w http.ResponseWriter, status int, message string, details any) {
	respondJSON(w, status, ErrorResponse{Error: message, Details: details})
}

// statusOf maps calculation errors to HTTP status codes.
func statusOf(err error) int {
	switch {
	case errors.Is(err, tradebook.ErrUnknownMethod),
		errors.Is(err, tradebook.ErrUnknownResidency),
		errors.Is(err, tradebook.ErrUnknownTolerance),
		errors.Is(err, tradebook.ErrMixedCurrency):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status string `json:"status"`
	Store  string `json:"store"`
	Error  string `json:"error,omitempty"`
}

// Health checks that the store is reachable.
//
// Endpoint: GET /api/system/health
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	if _, err := s.store.Get(r.Context(), "health"); err != nil && !errors.Is(err, store.ErrNotFound) {
		respondJSON(w, http.StatusServiceUnavailable, HealthResponse{Status: "unhealthy", Store: "disconnected", Error: err.Error()})
		return
	}
	respondJSON(w, http.StatusOK, HealthResponse{Status: "healthy", Store: "connected"})
}

// RefreshHandler refreshes the rates and prices snapshot.
//
// Endpoint: POST /api/system/refresh
func (s *Server) RefreshHandler(w http.ResponseWriter, r *http.Request) {
	if err := s.Refresh(r.Context()); err != nil {
		respondError(w, http.StatusBadGateway, "refresh failed", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, s.currentRates())
}

// CalculateRequest is the body of POST /api/calculate.
type CalculateRequest struct {
	Records tradebook.Records `json:"records"`
	// Method defaults to the saved preferences.
	Method string `json:"method,omitempty"`
	// Tax enables the tax part of the calculation.
	Tax *tradebook.TaxSettings `json:"tax,omitempty"`
	// AsOf is the valuation date, today by default.
	AsOf string `json:"asOf,omitempty"`
	// Prices override the market prices.
	Prices map[string]decimal.Decimal `json:"prices,omitempty"`
}

// Calculate runs a calculation on JSON records.
//
// Endpoint: POST /api/calculate
// Response: 200 OK with tradebook.CalculationResult
func (s *Server) Calculate(w http.ResponseWriter, r *http.Request) {
	var req CalculateRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxUpload))
	if err := dec.Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	res, err := s.calculate(r, req.Records, req.Method, req.Tax, req.AsOf, req.Prices)
	if err != nil {
		respondError(w, statusOf(err), "calculation failed", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, res)
}

// CSVResponse is the response of POST /api/calculate/csv.
type CSVResponse struct {
	Result *tradebook.CalculationResult `json:"result"`
	Report normalize.Report             `json:"report"`
}

// CalculateCSV runs a calculation on uploaded broker reports.
//
// Endpoint: POST /api/calculate/csv (multipart form)
// Files: any number of "files" parts (trades, fees or positions reports).
// Fields: method, residency, currency, year, tolerance, asOf, tax ("true" enables taxes).
func (s *Server) CalculateCSV(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUpload)
	if err := r.ParseMultipartForm(maxUpload); err != nil {
		respondError(w, http.StatusBadRequest, "invalid multipart form", err.Error())
		return
	}
	var records tradebook.Records
	var report normalize.Report
	for _, fh := range r.MultipartForm.File["files"] {
		f, err := fh.Open()
		if err != nil {
			respondError(w, http.StatusBadRequest, "cannot open upload", err.Error())
			return
		}
		rows, err := normalize.ReadCSV(f)
		f.Close()
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid csv "+fh.Filename, err.Error())
			return
		}
		rec, rep := normalize.Normalize(rows, normalize.WithCurrency(r.FormValue("currency")))
		records.Append(rec)
		report.Merge(rep)
	}
	for _, skip := range report.Skipped {
		log.Printf("skipped row %d: %s", skip.Row, skip.Reason)
	}

	var settings *tradebook.TaxSettings
	if v, _ := strconv.ParseBool(r.FormValue("tax")); v {
		prefs, err := store.LoadPreferences(r.Context(), s.store)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "cannot read preferences", err.Error())
			return
		}
		ts := prefs.TaxSettings()
		if v := r.FormValue("residency"); v != "" {
			ts.Residency = strings.ToUpper(v)
		}
		if v := r.FormValue("currency"); v != "" {
			ts.Currency = strings.ToUpper(v)
		}
		if v := r.FormValue("year"); v != "" {
			year, err := strconv.Atoi(v)
			if err != nil {
				respondError(w, http.StatusBadRequest, "invalid year", err.Error())
				return
			}
			ts.Year = year
		}
		if v := r.FormValue("tolerance"); v != "" {
			tol, err := tradebook.ParseRiskTolerance(v)
			if err != nil {
				respondError(w, http.StatusBadRequest, "invalid tolerance", err.Error())
				return
			}
			ts.Tolerance = tol
		}
		settings = &ts
	}

	res, err := s.calculate(r, records, r.FormValue("method"), settings, r.FormValue("asOf"), nil)
	if err != nil {
		respondError(w, statusOf(err), "calculation failed", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, CSVResponse{Result: res, Report: report})
}

// calculate runs the calculator with the server rates and prices.
func (s *Server) calculate(r *http.Request, records tradebook.Records, method string, settings *tradebook.TaxSettings, asOf string, prices map[string]decimal.Decimal) (*tradebook.CalculationResult, error) {
	ctx := r.Context()
	prefs, err := store.LoadPreferences(ctx, s.store)
	if err != nil {
		return nil, err
	}
	m := prefs.Method
	if method != "" {
		if m, err = tradebook.ParseCostBasisMethod(method); err != nil {
			return nil, err
		}
	}
	on := date.ParseOrToday(asOf)
	tickers := records.Tickers()
	res, err := tradebook.NewCalculator(records,
		tradebook.AsOf(on),
		tradebook.WithRates(s.currentRates()),
		tradebook.WithPrices(s.pricesFor(ctx, tickers, prices)),
	).Calculate(m, settings)
	if err != nil {
		return nil, err
	}
	if err := store.AddHistory(ctx, s.store, tickers...); err != nil {
		log.Printf("cannot record history: %v", err)
	}
	return res, nil
}

// GetPreferences returns the saved preferences.
//
// Endpoint: GET /api/prefs
func (s *Server) GetPreferences(w http.ResponseWriter, r *http.Request) {
	p, err := store.LoadPreferences(r.Context(), s.store)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "cannot read preferences", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, p)
}

// PutPreferences saves the preferences.
//
// Endpoint: PUT /api/prefs
func (s *Server) PutPreferences(w http.ResponseWriter, r *http.Request) {
	p := store.DefaultPreferences()
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&p); err != nil {
		respondError(w, http.StatusBadRequest, "invalid preferences", err.Error())
		return
	}
	if _, err := tradebook.ScheduleOf(p.Residency); err != nil {
		respondError(w, http.StatusBadRequest, "invalid preferences", err.Error())
		return
	}
	if err := store.SavePreferences(r.Context(), s.store, p); err != nil {
		respondError(w, http.StatusInternalServerError, "cannot save preferences", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, p)
}

// GetHistory returns the recently calculated tickers.
//
// Endpoint: GET /api/history
func (s *Server) GetHistory(w http.ResponseWriter, r *http.Request) {
	h, err := store.History(r.Context(), s.store)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "cannot read history", err.Error())
		return
	}
	if h == nil {
		h = []string{}
	}
	respondJSON(w, http.StatusOK, h)
}

// Residencies lists the supported tax residencies.
//
// Endpoint: GET /api/residencies
func (s *Server) Residencies(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, tradebook.Residencies())
}
