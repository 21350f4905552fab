package codec

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"google.golang.org/grpc"
)

const (
	methodExtractProfile = "/clinical.v1.ReasoningService/ExtractProfile"
	methodSelectTests    = "/clinical.v1.ReasoningService/SelectTests"
	methodJudgeSafety    = "/clinical.v1.ReasoningService/JudgeSafety"
	methodGeneratePlan   = "/clinical.v1.ReasoningService/GeneratePlan"
)

// #region client-struct
// ReasonerClient wraps the text-reasoning service. Every method returns an
// error for transport failures and for replies that do not fit the contract.
type ReasonerClient struct {
	conn    grpc.ClientConnInterface
	closer  func() error
	timeout time.Duration
}

// NewReasonerClient connects to the reasoning gRPC server.
func NewReasonerClient(addr string) (*ReasonerClient, error) {
	conn, err := dial(addr)
	if err != nil {
		return nil, err
	}
	return &ReasonerClient{conn: conn, closer: conn.Close}, nil
}

// NewReasonerClientWithConn creates a ReasonerClient over an injected connection.
func NewReasonerClientWithConn(conn grpc.ClientConnInterface) *ReasonerClient {
	return &ReasonerClient{conn: conn}
}

// WithTimeout sets the deadline applied to each call. Zero disables it.
func (c *ReasonerClient) WithTimeout(d time.Duration) *ReasonerClient {
	c.timeout = d
	return c
}

// Close shuts down the gRPC connection.
func (c *ReasonerClient) Close() error {
	if c.closer == nil {
		return nil
	}
	return c.closer()
}

// #endregion client-struct

// #region extract-profile
// ExtractProfile parses free-text symptoms plus structured info into a Profile.
func (c *ReasonerClient) ExtractProfile(ctx context.Context, text string, info map[string]any) (Profile, error) {
	if info == nil {
		info = map[string]any{}
	}
	var out Profile
	if err := call(ctx, c.conn, c.timeout, methodExtractProfile, map[string]any{
		"text": text,
		"info": info,
	}, &out); err != nil {
		return Profile{}, err
	}
	return out, nil
}

// #endregion extract-profile

// #region select-tests
// SelectTests asks for a prioritized list of tests that separates the
// candidate diseases. Duplicates are dropped, first occurrence wins.
func (c *ReasonerClient) SelectTests(ctx context.Context, symptoms []string, options []TestOption) ([]string, error) {
	opts := make([]any, len(options))
	for i, o := range options {
		opts[i] = map[string]any{"disease": o.Disease, "tests": stringList(o.Tests)}
	}
	var out struct {
		Tests *[]string `json:"tests"`
	}
	if err := call(ctx, c.conn, c.timeout, methodSelectTests, map[string]any{
		"symptoms": stringList(symptoms),
		"options":  opts,
	}, &out); err != nil {
		return nil, err
	}
	if out.Tests == nil {
		return nil, fmt.Errorf("select tests: %w: missing tests", ErrMalformed)
	}

	seen := make(map[string]bool)
	var tests []string
	for _, t := range *out.Tests {
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		tests = append(tests, t)
	}
	return tests, nil
}

// #endregion select-tests

// #region judge-safety
// JudgeSafety checks one full medicine record against the patient profile
// and the symptoms they currently report. A reply without is_safe counts as unsafe.
func (c *ReasonerClient) JudgeSafety(ctx context.Context, profile Profile, drug json.RawMessage, symptoms []string) (Verdict, error) {
	drugDoc, err := document(drug)
	if err != nil {
		return Verdict{}, fmt.Errorf("judge safety: %w", err)
	}
	var out struct {
		IsSafe         *bool   `json:"is_safe"`
		ConflictReason *string `json:"conflict_reason"`
	}
	if err := call(ctx, c.conn, c.timeout, methodJudgeSafety, map[string]any{
		"profile": map[string]any{
			"symptoms":                stringList(profile.Symptoms),
			"pre_existing_conditions": stringList(profile.PreExistingConditions),
			"current_medications":     stringList(profile.CurrentMedications),
		},
		"drug":     drugDoc,
		"symptoms": stringList(symptoms),
	}, &out); err != nil {
		return Verdict{}, err
	}

	v := Verdict{}
	if out.IsSafe != nil {
		v.IsSafe = *out.IsSafe
	}
	if out.ConflictReason != nil {
		v.ConflictReason = *out.ConflictReason
	}
	return v, nil
}

// #endregion judge-safety

// #region generate-plan
// GeneratePlan produces the prescription and care advice for a confirmed
// disease and the drug that passed the safety check.
func (c *ReasonerClient) GeneratePlan(ctx context.Context, disease, drug json.RawMessage, patientInfo map[string]any) (Plan, error) {
	diseaseDoc, err := document(disease)
	if err != nil {
		return Plan{}, fmt.Errorf("generate plan: %w", err)
	}
	drugDoc, err := document(drug)
	if err != nil {
		return Plan{}, fmt.Errorf("generate plan: %w", err)
	}
	if patientInfo == nil {
		patientInfo = map[string]any{}
	}

	var out struct {
		Prescription         json.RawMessage `json:"prescription"`
		LifestyleAndDiet     []string        `json:"lifestyle_and_diet"`
		SupportiveMedicine   []string        `json:"supportive_medicine"`
		FollowUpInstructions string          `json:"follow_up_instructions"`
		AdverseEffectWarning string          `json:"adverse_effect_warning"`
	}
	if err := call(ctx, c.conn, c.timeout, methodGeneratePlan, map[string]any{
		"disease":      diseaseDoc,
		"drug":         drugDoc,
		"patient_info": patientInfo,
	}, &out); err != nil {
		return Plan{}, err
	}

	return Plan{
		Prescription:         decodePrescription(out.Prescription),
		LifestyleAndDiet:     out.LifestyleAndDiet,
		SupportiveMedicine:   out.SupportiveMedicine,
		FollowUpInstructions: out.FollowUpInstructions,
		AdverseEffectWarning: out.AdverseEffectWarning,
	}, nil
}

// decodePrescription returns nil unless all four prescription fields are strings.
func decodePrescription(raw json.RawMessage) *Prescription {
	if len(raw) == 0 {
		return nil
	}
	var p struct {
		MedicineName *string `json:"medicine_name"`
		Dosage       *string `json:"dosage"`
		Frequency    *string `json:"frequency"`
		Duration     *string `json:"duration"`
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil
	}
	if p.MedicineName == nil || p.Dosage == nil || p.Frequency == nil || p.Duration == nil {
		return nil
	}
	return &Prescription{
		MedicineName: *p.MedicineName,
		Dosage:       *p.Dosage,
		Frequency:    *p.Frequency,
		Duration:     *p.Duration,
	}
}

// #endregion generate-plan
