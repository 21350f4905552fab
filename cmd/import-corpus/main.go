package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/danielpatrickdp/clinical-support/go-engine/internal/catalog"
	"github.com/danielpatrickdp/clinical-support/go-engine/internal/codec"
	"github.com/danielpatrickdp/clinical-support/go-engine/internal/config"
)

// #region main
func main() {
	cfg := config.Load()

	dbPath := flag.String("db", cfg.DBPath, "path to the catalog database")
	diseaseDir := flag.String("diseases", "data/diseases", "directory of disease JSON records")
	medicineDir := flag.String("medicines", "data/medicines", "directory of medicine JSON records")
	indexAddr := flag.String("index", "", "index service address; empty skips fragment indexing")
	flag.Parse()

	fmt.Println("=== Corpus Import ===")
	fmt.Printf("  DB: %s | Diseases: %s | Medicines: %s\n", *dbPath, *diseaseDir, *medicineDir)

	store, err := catalog.NewStore(*dbPath)
	if err != nil {
		log.Fatalf("failed to open store: %v", err)
	}
	defer store.Close()

	ctx := context.Background()

	// Phase 1: catalog records
	fmt.Println("\n--- Phase 1: Catalog ---")
	diseases, err := store.ImportDiseases(ctx, *diseaseDir)
	if err != nil {
		log.Fatalf("import diseases: %v", err)
	}
	medicines, err := store.ImportMedicines(ctx, *medicineDir)
	if err != nil {
		log.Fatalf("import medicines: %v", err)
	}
	fmt.Printf("  Diseases: %d | Medicines: %d\n", len(diseases), len(medicines))

	if *indexAddr == "" {
		fmt.Println("\nNo index address given, skipping fragment indexing. Done.")
		return
	}

	// Phase 2: index fragments
	fmt.Println("\n--- Phase 2: Index Fragments ---")
	index, err := codec.NewIndexClient(*indexAddr)
	if err != nil {
		log.Fatalf("failed to connect to index service at %s: %v", *indexAddr, err)
	}
	defer index.Close()
	index.WithTimeout(cfg.CodecTimeout)

	var fragments []codec.Fragment
	for _, d := range diseases {
		fragments = append(fragments, d.SymptomFragments()...)
	}
	symptomCount := len(fragments)
	for _, m := range medicines {
		fragments = append(fragments, m.IndicationFragments()...)
	}

	stored, failed := 0, 0
	start := time.Now()
	for i, f := range fragments {
		if _, err := index.StoreFragment(ctx, f); err != nil {
			log.Printf("store fragment %s: %v", f.ID, err)
			failed++
			continue
		}
		stored++
		if (i+1)%50 == 0 || i+1 == len(fragments) {
			fmt.Printf("  [%d/%d] processed\n", i+1, len(fragments))
		}
	}

	fmt.Printf("\n=== Import Complete (%s) ===\n", time.Since(start).Round(time.Millisecond))
	fmt.Printf("  Symptom fragments: %d\n", symptomCount)
	fmt.Printf("  Indication fragments: %d\n", len(fragments)-symptomCount)
	fmt.Printf("  Stored: %d | Failed: %d\n", stored, failed)
	if failed > 0 {
		os.Exit(1)
	}
}

// #endregion main
