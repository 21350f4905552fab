package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/danielpatrickdp/clinical-support/go-engine/internal/api"
	"github.com/danielpatrickdp/clinical-support/go-engine/internal/catalog"
	"github.com/danielpatrickdp/clinical-support/go-engine/internal/codec"
	"github.com/danielpatrickdp/clinical-support/go-engine/internal/config"
	"github.com/danielpatrickdp/clinical-support/go-engine/internal/gate"
	"github.com/danielpatrickdp/clinical-support/go-engine/internal/orchestrator"
	"github.com/danielpatrickdp/clinical-support/go-engine/internal/retrieval"
	"github.com/danielpatrickdp/clinical-support/go-engine/internal/treatment"
)

// #region main
func main() {
	cfg := config.Load()

	// Catalog and decision log
	store, err := catalog.NewStore(cfg.DBPath)
	if err != nil {
		log.Fatalf("failed to open store: %v", err)
	}
	defer store.Close()

	diseases, medicines, err := store.Counts(context.Background())
	if err != nil {
		log.Fatalf("failed to read catalog: %v", err)
	}
	if diseases == 0 {
		log.Println("[SERVER] catalog is empty, run import-corpus first")
	}

	// Index and reasoning services
	index, err := codec.NewIndexClient(cfg.IndexAddr)
	if err != nil {
		log.Fatalf("failed to connect to index service at %s: %v", cfg.IndexAddr, err)
	}
	defer index.Close()
	index.WithTimeout(cfg.CodecTimeout)

	reasoner, err := codec.NewReasonerClient(cfg.ReasonerAddr)
	if err != nil {
		log.Fatalf("failed to connect to reasoning service at %s: %v", cfg.ReasonerAddr, err)
	}
	defer reasoner.Close()
	reasoner.WithTimeout(cfg.CodecTimeout)

	scorerCfg := retrieval.DefaultConfig()
	scorerCfg.TopK = cfg.DiseaseTopK
	treatmentCfg := treatment.DefaultConfig()
	treatmentCfg.TopK = cfg.MedicineTopK

	orch := orchestrator.NewOrchestrator(
		reasoner,
		retrieval.NewScorer(index, scorerCfg),
		gate.NewGate(gate.DefaultConfig(), store, reasoner),
		treatment.NewService(treatmentCfg, index, store, reasoner, reasoner),
		store.DB(),
	)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           api.NewHandler(orch).Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("[SERVER] listening on :%s | DB: %s (%d diseases, %d medicines) | index: %s | reasoner: %s",
			cfg.Port, cfg.DBPath, diseases, medicines, cfg.IndexAddr, cfg.ReasonerAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("[SERVER] shutdown: %v", err)
	}
}

// #endregion main
