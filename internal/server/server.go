// Package server exposes the pricing engines over HTTP: an HTML form for
// interactive use and a JSON API for programmatic callers. It holds no
// pricing logic of its own; it collects numeric inputs, calls the engines
// and renders the result or a translated error.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"

	"github.com/contactkeval/option-pricer/internal/config"
	"github.com/contactkeval/option-pricer/internal/logger"
	"github.com/contactkeval/option-pricer/internal/payoff"
	"github.com/contactkeval/option-pricer/internal/pricing"
)

// Server routes pricing requests to the engines using defaults from config.
type Server struct {
	cfg      config.Config
	validate *validator.Validate
}

// New builds a Server around the given configuration.
func New(cfg config.Config) *Server {
	return &Server{cfg: cfg, validate: validator.New()}
}

// Router returns the HTTP handler tree.
func (s *Server) Router() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/", s.handleForm).Methods(http.MethodGet, http.MethodPost)
	r.HandleFunc("/api/price", s.handleMonteCarlo).Methods(http.MethodPost)
	r.HandleFunc("/api/binomial", s.handleBinomial).Methods(http.MethodPost)
	r.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}).Methods(http.MethodGet)
	return r
}

// monteCarloRequest is the JSON payload for /api/price. Pointer fields are
// optional; omitted values fall back to the configured defaults, mirroring
// the web form's behavior.
type monteCarloRequest struct {
	Spot       *float64 `json:"spot"`
	Rate       *float64 `json:"rate"`
	Volatility *float64 `json:"volatility"`
	Maturity   *float64 `json:"maturity"`
	Dividend   *float64 `json:"dividend"`
	Paths      *int     `json:"paths"`
	Payoff     string   `json:"payoff"`
	Seed       uint64   `json:"seed,omitempty"`
}

// monteCarloInput is the defaulted, validated form of a request.
type monteCarloInput struct {
	Spot       float64 `validate:"gt=0"`
	Rate       float64
	Volatility float64 `validate:"gte=0"`
	Maturity   float64 `validate:"gt=0"`
	Dividend   float64
	Paths      int    `validate:"min=1"`
	Payoff     string `validate:"required"`
	Seed       uint64
}

func (s *Server) resolveMonteCarlo(req monteCarloRequest) monteCarloInput {
	d := s.cfg.Defaults
	in := monteCarloInput{
		Spot:       orDefault(req.Spot, d.Spot),
		Rate:       orDefault(req.Rate, d.Rate),
		Volatility: orDefault(req.Volatility, d.Volatility),
		Maturity:   orDefault(req.Maturity, d.Maturity),
		Dividend:   orDefault(req.Dividend, d.Dividend),
		Paths:      d.Paths,
		Payoff:     req.Payoff,
		Seed:       req.Seed,
	}
	if req.Paths != nil {
		in.Paths = *req.Paths
	}
	if in.Payoff == "" {
		in.Payoff = d.Payoff
	}
	return in
}

func (s *Server) handleMonteCarlo(w http.ResponseWriter, r *http.Request) {
	var req monteCarloRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON body: %v", err))
		return
	}

	in := s.resolveMonteCarlo(req)
	if err := s.validate.Struct(in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := pricing.PriceMonteCarlo(
		in.Spot, in.Rate, in.Volatility, in.Maturity, in.Dividend,
		in.Paths, in.Payoff, in.Seed,
	)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}

	logger.Infof("event=api_price estimate=%.6f stderr=%.6f paths=%d", res.Estimate, res.StdError, res.Paths)
	writeJSON(w, http.StatusOK, map[string]any{
		"price":          res.Estimate,
		"standard_error": res.StdError,
	})
}

// binomialRequest is the JSON payload for /api/binomial. All numeric fields
// are required; option_type defaults to "call".
type binomialRequest struct {
	Spot       float64 `json:"spot" validate:"gt=0"`
	Strike     float64 `json:"strike" validate:"gt=0"`
	Rate       float64 `json:"rate"`
	Up         float64 `json:"up" validate:"gt=0"`
	Down       float64 `json:"down" validate:"gt=0"`
	Periods    int     `json:"periods" validate:"min=1"`
	Maturity   float64 `json:"maturity" validate:"gt=0"`
	OptionType string  `json:"option_type"`
	American   bool    `json:"american"`
}

func (s *Server) handleBinomial(w http.ResponseWriter, r *http.Request) {
	var req binomialRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON body: %v", err))
		return
	}
	if req.OptionType == "" {
		req.OptionType = string(pricing.Call)
	}
	if err := s.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	price, err := pricing.PriceBinomial(
		req.Spot, req.Strike, req.Rate, req.Up, req.Down,
		req.Periods, req.Maturity, pricing.OptionType(req.OptionType), req.American,
	)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}

	logger.Infof("event=api_binomial price=%.6f periods=%d american=%t", price, req.Periods, req.American)
	writeJSON(w, http.StatusOK, map[string]any{"price": price})
}

// statusFor maps engine errors onto HTTP statuses: validation and expression
// failures are the caller's fault, everything else is ours.
func statusFor(err error) int {
	var parseErr *payoff.ParseError
	var evalErr *payoff.EvalError
	switch {
	case errors.Is(err, pricing.ErrInvalidParameter),
		errors.As(err, &parseErr),
		errors.As(err, &evalErr):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	logger.Errorf("event=request_failed status=%d err=%s", status, msg)
	writeJSON(w, status, map[string]string{"error": msg})
}

func orDefault(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}
