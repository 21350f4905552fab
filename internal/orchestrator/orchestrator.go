package orchestrator

// #region imports
import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/danielpatrickdp/clinical-support/go-engine/internal/gate"
	"github.com/danielpatrickdp/clinical-support/go-engine/internal/logging"
	"github.com/danielpatrickdp/clinical-support/go-engine/internal/report"
	"github.com/danielpatrickdp/clinical-support/go-engine/internal/retrieval"
	"github.com/danielpatrickdp/clinical-support/go-engine/internal/treatment"
)

// #endregion

// #region orchestrator-struct

// Orchestrator runs one request through extraction, scoring, gating and
// the medicine search, then writes a decision log row.
type Orchestrator struct {
	extractor Extractor
	scorer    *retrieval.Scorer
	gate      *gate.Gate
	treatment *treatment.Service
	db        *sql.DB // nil disables the decision log
}

// #endregion

// #region constructor

// NewOrchestrator wires the pipeline stages.
func NewOrchestrator(extractor Extractor, scorer *retrieval.Scorer, g *gate.Gate, svc *treatment.Service, db *sql.DB) *Orchestrator {
	return &Orchestrator{
		extractor: extractor,
		scorer:    scorer,
		gate:      g,
		treatment: svc,
		db:        db,
	}
}

// #endregion

// #region analyze

// Analyze produces the report for req. The only error is a wrapped
// ErrExtraction.
func (o *Orchestrator) Analyze(ctx context.Context, req Request) (report.Report, error) {
	requestID := uuid.NewString()

	profile, err := o.extractor.ExtractProfile(ctx, req.SymptomsText, extractionInfo(req))
	if err != nil {
		log.Printf("[ORCH] %s extraction failed: %v", requestID, err)
		o.record(logging.DecisionEntry{RequestID: requestID, Status: StatusError, Reason: err.Error()}, logging.DecisionRecord{})
		return report.Report{}, fmt.Errorf("%w: %v", ErrExtraction, err)
	}

	rec := logging.DecisionRecord{Symptoms: profile.Symptoms}
	entry := logging.DecisionEntry{RequestID: requestID}

	if len(profile.Symptoms) == 0 {
		entry.Status = string(gate.StatusNoMatch)
		entry.Reason = "no symptoms extracted"
		o.record(entry, rec)
		return report.NoMatch(), nil
	}

	candidates, err := o.scorer.Score(ctx, profile.Symptoms)
	for _, c := range candidates {
		rec.Candidates = append(rec.Candidates, logging.CandidateRecord{DiseaseID: c.DiseaseID, Score: c.Score, Hits: c.Hits})
	}
	if err != nil {
		log.Printf("[ORCH] %s scoring failed: %v", requestID, err)
		rec.IndexError = err.Error()
		entry.Status = string(gate.StatusNoMatch)
		entry.Reason = "scoring failed"
		if errors.Is(err, retrieval.ErrIndexUnavailable) {
			entry.Reason = "index unavailable"
		}
		o.record(entry, rec)
		return report.NoMatch(), nil
	}

	decision := o.gate.Classify(ctx, profile.Symptoms, candidates)
	entry.Status = string(decision.Status)
	entry.Tier = decision.Tier
	entry.Reason = decision.Reason
	log.Printf("[ORCH] %s decision=%s tier=%d", requestID, decision.Status, decision.Tier)

	var out report.Report
	switch decision.Status {
	case gate.StatusNeedsData:
		rec.RequiredTests = decision.RequiredTests
		out = report.Inconclusive(decision.RequiredTests)

	case gate.StatusConfirmed:
		entry.DiagnosisID = decision.Disease.ID
		entry.Score = decision.Score

		found := o.treatment.FindSafe(ctx, decision.Disease.ID, profile, profile.Symptoms)
		rec.MedicineStatus = string(found.Status)
		rec.MedicineCandidates = found.Candidates
		rec.SelectedMedicine = found.Drug.ID
		rec.FirstRejection = found.FirstRejection
		rec.Judged = found.Judged
		rec.Skipped = found.Skipped

		out = o.treatment.Report(ctx, decision.Disease, decision.DiseaseName(), decision.Score, found, req.PatientInfo)

	default:
		out = report.NoMatch()
	}

	o.record(entry, rec)
	return out, nil
}

// #endregion

// #region helpers

// extractionInfo merges lab reports into a copy of the patient info.
func extractionInfo(req Request) map[string]any {
	info := make(map[string]any, len(req.PatientInfo)+1)
	for k, v := range req.PatientInfo {
		info[k] = v
	}
	if len(req.LabReports) > 0 {
		info["lab_reports"] = req.LabReports
	}
	return info
}

// record appends the decision log row. Failures are logged only.
func (o *Orchestrator) record(entry logging.DecisionEntry, rec logging.DecisionRecord) {
	if o.db == nil {
		return
	}
	signals, _ := json.Marshal(rec)
	entry.SignalsJSON = string(signals)
	if err := logging.LogDecision(o.db, entry); err != nil {
		log.Printf("[ORCH] decision log write failed: %v", err)
	}
}

// #endregion
