package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	"github.com/danielpatrickdp/clinical-support/go-engine/internal/orchestrator"
	"github.com/danielpatrickdp/clinical-support/go-engine/internal/report"
)

// ExtractionFailedDetail is the error body for requests whose text could
// not be turned into a symptom profile.
const ExtractionFailedDetail = "Failed to parse input with AI."

// #region types

// Analyzer runs one analysis request.
type Analyzer interface {
	Analyze(ctx context.Context, req orchestrator.Request) (report.Report, error)
}

// AnalyzeRequest is the POST /analyze body.
type AnalyzeRequest struct {
	SymptomsText string         `json:"symptoms_text" validate:"notblank"`
	LabReports   map[string]any `json:"lab_reports,omitempty"`
	PatientInfo  map[string]any `json:"patient_info,omitempty"`
}

type errorBody struct {
	Detail string `json:"detail"`
}

// #endregion types

// #region handler

// Handler serves the analysis endpoints.
type Handler struct {
	analyzer Analyzer
	validate *validator.Validate
}

// NewHandler builds a Handler over analyzer.
func NewHandler(analyzer Analyzer) *Handler {
	v := validator.New()
	v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	return &Handler{analyzer: analyzer, validate: v}
}

// Routes returns the router with request logging and panic recovery.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", h.Health)
	r.Post("/analyze", h.Analyze)
	return r
}

// Health reports liveness.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Analyze decodes, validates and runs an analysis request.
func (h *Handler) Analyze(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Detail: "Invalid request body"})
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Detail: "symptoms_text is required"})
		return
	}

	rpt, err := h.analyzer.Analyze(r.Context(), orchestrator.Request{
		SymptomsText: req.SymptomsText,
		LabReports:   req.LabReports,
		PatientInfo:  req.PatientInfo,
	})
	if err != nil {
		log.Printf("[API] analyze failed: %v", err)
		if errors.Is(err, orchestrator.ErrExtraction) {
			writeJSON(w, http.StatusInternalServerError, errorBody{Detail: ExtractionFailedDetail})
			return
		}
		writeJSON(w, http.StatusInternalServerError, errorBody{Detail: "Internal error"})
		return
	}
	writeJSON(w, http.StatusOK, rpt)
}

// #endregion handler

// #region helpers
func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("[API] write response: %v", err)
	}
}

// #endregion helpers
