package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"sort"

	"github.com/danielpatrickdp/clinical-support/go-engine/internal/catalog"
	"github.com/danielpatrickdp/clinical-support/go-engine/internal/logging"
)

// #region main

func main() {
	dbPath := flag.String("db", "", "path to clinical.db")
	last := flag.Int("last", 20, "show N most recent decisions")
	request := flag.String("request", "", "show single request detail")
	jsonOut := flag.Bool("json", false, "output as JSON instead of table")
	flag.Parse()

	if *dbPath == "" {
		fmt.Fprintln(os.Stderr, "usage: inspect --db path/to/clinical.db [--last N] [--request id] [--json]")
		os.Exit(2)
	}

	store, err := catalog.NewStore(*dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open db: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	if *request != "" {
		err = runDetailMode(store, *request, *jsonOut)
	} else {
		err = runListMode(store, *last, *jsonOut)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// #endregion main

// #region list-mode

type listRow struct {
	RequestID   string  `json:"request_id"`
	Status      string  `json:"status"`
	DiagnosisID string  `json:"diagnosis_id,omitempty"`
	Score       float64 `json:"score"`
	Tier        int     `json:"tier"`
	Medicine    string  `json:"medicine,omitempty"`
	CreatedAt   string  `json:"created_at"`
}

func runListMode(store *catalog.Store, last int, jsonOut bool) error {
	entries, err := logging.ListRecent(store.DB(), last)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(os.Stderr, "no decisions found")
		return nil
	}

	// Log returns DESC, reverse for chronological
	rows := make([]listRow, len(entries))
	counts := map[string]int{}
	for i, e := range entries {
		rows[len(entries)-1-i] = listRow{
			RequestID:   e.RequestID,
			Status:      e.Status,
			DiagnosisID: e.DiagnosisID,
			Score:       e.Score,
			Tier:        e.Tier,
			Medicine:    parseRecord(e.SignalsJSON).SelectedMedicine,
			CreatedAt:   e.CreatedAt.Format("2006-01-02T15:04:05Z"),
		}
		counts[e.Status]++
	}

	if jsonOut {
		return printJSON(rows)
	}

	fmt.Printf("%-10s  %-12s  %-10s  %6s  %4s  %-10s  %s\n",
		"Request", "Status", "Diagnosis", "Score", "Tier", "Medicine", "Time")
	fmt.Printf("%-10s+-%-12s+-%-10s+-%6s+-%4s+-%-10s+-%s\n",
		"----------", "------------", "----------", "------", "----", "----------", "--------------------")
	for _, r := range rows {
		fmt.Printf("%-10s  %-12s  %-10s  %6.2f  %4d  %-10s  %s\n",
			shortID(r.RequestID), r.Status, dash(r.DiagnosisID), r.Score, r.Tier, dash(r.Medicine), r.CreatedAt)
	}

	statuses := make([]string, 0, len(counts))
	for s := range counts {
		statuses = append(statuses, s)
	}
	sort.Strings(statuses)
	fmt.Printf("\nStatus counts:\n")
	for _, s := range statuses {
		fmt.Printf("  %-12s %d\n", s, counts[s])
	}
	return nil
}

// #endregion list-mode

// #region detail-mode

type detailOutput struct {
	RequestID   string                 `json:"request_id"`
	Status      string                 `json:"status"`
	DiagnosisID string                 `json:"diagnosis_id,omitempty"`
	Score       float64                `json:"score"`
	Tier        int                    `json:"tier"`
	Reason      string                 `json:"reason"`
	CreatedAt   string                 `json:"created_at"`
	Record      logging.DecisionRecord `json:"record"`
}

func runDetailMode(store *catalog.Store, requestID string, jsonOut bool) error {
	e, err := logging.FindByRequest(store.DB(), requestID)
	if err != nil {
		return err
	}

	out := detailOutput{
		RequestID:   e.RequestID,
		Status:      e.Status,
		DiagnosisID: e.DiagnosisID,
		Score:       e.Score,
		Tier:        e.Tier,
		Reason:      e.Reason,
		CreatedAt:   e.CreatedAt.Format("2006-01-02T15:04:05Z"),
		Record:      parseRecord(e.SignalsJSON),
	}
	if jsonOut {
		return printJSON(out)
	}

	fmt.Printf("Request:    %s\n", out.RequestID)
	fmt.Printf("Created:    %s\n", out.CreatedAt)
	fmt.Printf("Status:     %s\n", out.Status)
	fmt.Printf("Diagnosis:  %s\n", dash(out.DiagnosisID))
	fmt.Printf("Score:      %.4f (tier %d)\n", out.Score, out.Tier)
	fmt.Printf("Reason:     %s\n", out.Reason)
	fmt.Printf("Symptoms:   %v\n", out.Record.Symptoms)

	if len(out.Record.Candidates) > 0 {
		fmt.Printf("\nCandidates:\n")
		for _, c := range out.Record.Candidates {
			fmt.Printf("  %-12s %.4f (%d hits)\n", c.DiseaseID, c.Score, c.Hits)
		}
	}
	if out.Record.IndexError != "" {
		fmt.Printf("\nIndex error: %s\n", out.Record.IndexError)
	}
	if len(out.Record.RequiredTests) > 0 {
		fmt.Printf("\nRequired tests: %v\n", out.Record.RequiredTests)
	}
	if out.Record.MedicineStatus != "" {
		fmt.Printf("\nMedicine search:\n")
		fmt.Printf("  Status:      %s\n", out.Record.MedicineStatus)
		fmt.Printf("  Candidates:  %v\n", out.Record.MedicineCandidates)
		fmt.Printf("  Selected:    %s\n", dash(out.Record.SelectedMedicine))
		fmt.Printf("  Judged:      %d (skipped %d)\n", out.Record.Judged, out.Record.Skipped)
		if out.Record.FirstRejection != "" {
			fmt.Printf("  First reject: %s\n", out.Record.FirstRejection)
		}
	}
	return nil
}

// #endregion detail-mode

// #region output

func parseRecord(signalsJSON string) logging.DecisionRecord {
	var rec logging.DecisionRecord
	if signalsJSON != "" {
		json.Unmarshal([]byte(signalsJSON), &rec)
	}
	return rec
}

func printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// #endregion output
