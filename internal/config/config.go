package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// #region types

// Config holds process settings for the engine and its tools.
type Config struct {
	DBPath       string
	IndexAddr    string
	ReasonerAddr string
	Port         string
	CodecTimeout time.Duration
	DiseaseTopK  int
	MedicineTopK int
}

// #endregion types

// #region defaults

// DefaultConfig returns the settings used when no environment is present.
func DefaultConfig() Config {
	return Config{
		DBPath:       "clinical.db",
		IndexAddr:    "localhost:50051",
		ReasonerAddr: "localhost:50051",
		Port:         "8080",
		CodecTimeout: 30 * time.Second,
		DiseaseTopK:  5,
		MedicineTopK: 10,
	}
}

// #endregion defaults

// #region load

// Load reads an optional .env file and then the environment.
// Reads from env vars: CLINICAL_DB, INDEX_ADDR, REASONER_ADDR, PORT,
// CODEC_TIMEOUT (seconds), DISEASE_TOP_K, MEDICINE_TOP_K.
// Invalid values keep their defaults.
func Load() Config {
	if err := godotenv.Load(); err == nil {
		log.Println("[CONFIG] loaded .env")
	}
	return FromEnv()
}

// FromEnv builds a Config from the current environment only.
func FromEnv() Config {
	cfg := DefaultConfig()
	cfg.DBPath = envOr("CLINICAL_DB", cfg.DBPath)
	cfg.IndexAddr = envOr("INDEX_ADDR", cfg.IndexAddr)
	cfg.ReasonerAddr = envOr("REASONER_ADDR", cfg.ReasonerAddr)
	cfg.Port = envOr("PORT", cfg.Port)

	if v := os.Getenv("CODEC_TIMEOUT"); v != "" {
		if sec, err := strconv.Atoi(v); err == nil && sec > 0 {
			cfg.CodecTimeout = time.Duration(sec) * time.Second
		}
	}
	cfg.DiseaseTopK = positiveInt("DISEASE_TOP_K", cfg.DiseaseTopK)
	cfg.MedicineTopK = positiveInt("MEDICINE_TOP_K", cfg.MedicineTopK)
	return cfg
}

// #endregion load

// #region helpers
func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func positiveInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

// #endregion helpers
