package catalog

import (
	"fmt"

	"github.com/danielpatrickdp/clinical-support/go-engine/internal/codec"
)

// Index collection names.
const (
	DiseaseCollection  = "diseases"
	MedicineCollection = "medicines"
)

// #region fragments
// SymptomFragments returns one searchable fragment per symptom, owned by the disease.
func (d DiseaseRecord) SymptomFragments() []codec.Fragment {
	out := make([]codec.Fragment, 0, len(d.Symptoms))
	for i, s := range d.Symptoms {
		out = append(out, codec.Fragment{
			Collection: DiseaseCollection,
			ID:         fmt.Sprintf("%s_symptom_%d", d.ID, i),
			Text:       fmt.Sprintf("Symptom: %s - %s. Disease: %s", s.Name, s.Details, d.Name),
			OwnerID:    d.ID,
			Metadata:   map[string]string{"disease_id": d.ID},
		})
	}
	return out
}

// IndicationFragments returns one fragment per indicated disease id, owned by the medicine.
func (m MedicineRecord) IndicationFragments() []codec.Fragment {
	out := make([]codec.Fragment, 0, len(m.Indications))
	for i, diseaseID := range m.Indications {
		out = append(out, codec.Fragment{
			Collection: MedicineCollection,
			ID:         fmt.Sprintf("%s_indication_%d", m.ID, i),
			Text:       "Treats disease with ID: " + diseaseID,
			OwnerID:    m.ID,
			Metadata:   map[string]string{"medicine_id": m.ID, "disease_id": diseaseID},
		})
	}
	return out
}

// #endregion fragments
