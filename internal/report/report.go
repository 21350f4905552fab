package report

import (
	"fmt"

	"github.com/danielpatrickdp/clinical-support/go-engine/internal/codec"
)

// #region fixed-text
const (
	DiagnosisInconclusive = "Inconclusive"
	DiagnosisNoMatch      = "No match found"

	NoMatchAdvice      = "Symptoms do not match known conditions in the database. Please consult a doctor."
	GeneralSideEffects = "If you experience severe swelling, irritation, or nausea, stop taking all medication and consult a doctor immediately."
	PlanFailedWarning  = "Failed to generate detailed plan."

	notAvailable = "N/A"
	seeDoctor    = "See doctor"
)

// #endregion fixed-text

// #region types
// Prescription is one prescribed medicine.
type Prescription struct {
	MedicineName string `json:"medicine_name"`
	Dosage       string `json:"dosage"`
	Frequency    string `json:"frequency"`
	Duration     string `json:"duration"`
}

// Report is the externally visible diagnosis and treatment result.
type Report struct {
	Diagnosis               string        `json:"diagnosis"`
	ConfidenceScore         float64       `json:"confidence_score"`
	FollowUpTestsRequired   []string      `json:"follow_up_tests_required,omitempty"`
	Prescription            *Prescription `json:"prescription,omitempty"`
	ContraindicationWarning string        `json:"contraindication_warning,omitempty"`
	AlternativePrescription *Prescription `json:"alternative_prescription,omitempty"`
	AdverseEffectWarning    string        `json:"adverse_effect_warning,omitempty"`
	LifestyleAndDiet        []string      `json:"lifestyle_and_diet,omitempty"`
	SupportiveMedicine      []string      `json:"supportive_medicine,omitempty"`
	GeneralSideEffectNote   string        `json:"general_side_effect_note,omitempty"`
	FollowUpInstructions    string        `json:"follow_up_instructions,omitempty"`
}

// #endregion types

// #region variants
// Inconclusive reports that more tests are needed before diagnosing.
func Inconclusive(tests []string) Report {
	return Report{Diagnosis: DiagnosisInconclusive, FollowUpTestsRequired: tests}
}

// NoMatch reports that the symptoms matched nothing in the corpus.
func NoMatch() Report {
	return Report{Diagnosis: DiagnosisNoMatch, FollowUpTestsRequired: []string{NoMatchAdvice}}
}

// NoMedicine reports a confirmed diagnosis with no medicine on record.
func NoMedicine(diagnosis string, score float64) Report {
	return Report{
		Diagnosis:               diagnosis,
		ConfidenceScore:         score,
		ContraindicationWarning: fmt.Sprintf("No suitable medicine found in the local database for %s.", diagnosis),
	}
}

// AllContraindicated reports that every candidate medicine was judged unsafe.
func AllContraindicated(diagnosis string, score float64, firstReason string) Report {
	return Report{
		Diagnosis:       diagnosis,
		ConfidenceScore: score,
		ContraindicationWarning: fmt.Sprintf(
			"All available treatments are contraindicated. Reason for first drug checked: %s", firstReason),
	}
}

// Treated reports a full plan for the accepted medicine. When firstRejection
// is set an earlier candidate was refused, so the prescription is reported
// as the alternative with a warning and no primary prescription.
func Treated(diagnosis string, score float64, genericName string, plan codec.Plan, firstRejection string) Report {
	rx := fromPlan(plan.Prescription)
	if rx == nil {
		rx = bare(genericName, seeDoctor)
	}

	r := Report{
		Diagnosis:             diagnosis,
		ConfidenceScore:       score,
		AdverseEffectWarning:  plan.AdverseEffectWarning,
		LifestyleAndDiet:      plan.LifestyleAndDiet,
		SupportiveMedicine:    plan.SupportiveMedicine,
		GeneralSideEffectNote: GeneralSideEffects,
		FollowUpInstructions:  plan.FollowUpInstructions,
	}
	place(&r, rx, firstRejection, "")
	return r
}

// PlanFailed reports the accepted medicine by generic name only, because
// the plan could not be generated. The alternative rule of Treated applies.
func PlanFailed(diagnosis string, score float64, genericName string, firstRejection string) Report {
	r := Report{
		Diagnosis:             diagnosis,
		ConfidenceScore:       score,
		GeneralSideEffectNote: GeneralSideEffects,
	}
	place(&r, bare(genericName, notAvailable), firstRejection, PlanFailedWarning)
	return r
}

// #endregion variants

// #region helpers
// AlternativeWarning is the note attached when the first-line drug was refused.
func AlternativeWarning(reason string) string {
	return fmt.Sprintf("Note: First-line drug was contraindicated (%s). Prescribing alternative.", reason)
}

func place(r *Report, rx *Prescription, firstRejection, extra string) {
	if firstRejection == "" {
		r.Prescription = rx
		r.ContraindicationWarning = extra
		return
	}
	r.AlternativePrescription = rx
	r.ContraindicationWarning = AlternativeWarning(firstRejection)
	if extra != "" {
		r.ContraindicationWarning += " " + extra
	}
}

func fromPlan(p *codec.Prescription) *Prescription {
	if p == nil {
		return nil
	}
	return &Prescription{
		MedicineName: p.MedicineName,
		Dosage:       p.Dosage,
		Frequency:    p.Frequency,
		Duration:     p.Duration,
	}
}

func bare(genericName, filler string) *Prescription {
	if genericName == "" {
		genericName = notAvailable
	}
	return &Prescription{MedicineName: genericName, Dosage: filler, Frequency: filler, Duration: filler}
}

// #endregion helpers
