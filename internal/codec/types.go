package codec

import "errors"

// ErrMalformed marks a collaborator reply that decoded but is missing
// required fields or carries the wrong types.
var ErrMalformed = errors.New("malformed reply")

// #region index-types
// Hit is one fragment returned by a similarity search.
type Hit struct {
	ID       string  `json:"id"`
	Text     string  `json:"text"`
	OwnerID  string  `json:"owner_id"`
	Distance float64 `json:"distance"`
}

// Score converts the hit distance into a similarity score (higher is better).
func (h Hit) Score() float64 {
	return 1 - h.Distance
}

// Fragment is a short text snippet pushed into an index collection.
type Fragment struct {
	Collection string
	ID         string
	Text       string
	OwnerID    string
	Metadata   map[string]string
}

// #endregion index-types

// #region reasoning-types
// Profile is the structured view of the patient extracted from free text.
type Profile struct {
	Symptoms              []string `json:"symptoms"`
	PreExistingConditions []string `json:"pre_existing_conditions"`
	CurrentMedications    []string `json:"current_medications"`
}

// TestOption lists the diagnostic tests recorded for one candidate disease.
type TestOption struct {
	Disease string   `json:"disease"`
	Tests   []string `json:"tests"`
}

// Verdict is the safety judgment for one medication candidate.
type Verdict struct {
	IsSafe         bool   `json:"is_safe"`
	ConflictReason string `json:"conflict_reason"`
}

// Prescription as returned by plan generation.
type Prescription struct {
	MedicineName string `json:"medicine_name"`
	Dosage       string `json:"dosage"`
	Frequency    string `json:"frequency"`
	Duration     string `json:"duration"`
}

// Plan holds the generated treatment plan. Prescription is nil when the
// service returned no usable prescription object.
type Plan struct {
	Prescription         *Prescription `json:"prescription,omitempty"`
	LifestyleAndDiet     []string      `json:"lifestyle_and_diet,omitempty"`
	SupportiveMedicine   []string      `json:"supportive_medicine,omitempty"`
	FollowUpInstructions string        `json:"follow_up_instructions,omitempty"`
	AdverseEffectWarning string        `json:"adverse_effect_warning,omitempty"`
}

// #endregion reasoning-types
