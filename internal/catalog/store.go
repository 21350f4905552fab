package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS diseases (
	disease_id    TEXT PRIMARY KEY,
	disease_name  TEXT NOT NULL,
	document      TEXT NOT NULL,
	updated_at    TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS medicines (
	drug_id       TEXT PRIMARY KEY,
	generic_name  TEXT NOT NULL,
	document      TEXT NOT NULL,
	updated_at    TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS decision_log (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	request_id    TEXT NOT NULL,
	status        TEXT NOT NULL,
	diagnosis_id  TEXT,
	score         REAL NOT NULL DEFAULT 0,
	tier          INTEGER NOT NULL DEFAULT 0,
	reason        TEXT,
	signals_json  TEXT,
	created_at    TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_decision_log_created ON decision_log(created_at);
`

// #endregion schema

// #region store-struct
// Store holds disease and medicine documents in SQLite. It is read-only from
// the engine's side once the corpus has been imported.
type Store struct {
	db *sql.DB
}

// NewStore opens a SQLite database and runs migrations.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for use by other packages (e.g. logging).
func (s *Store) DB() *sql.DB {
	return s.db
}

// #endregion store-struct

// #region put
// PutDisease parses and upserts a disease document.
func (s *Store) PutDisease(ctx context.Context, raw []byte) (DiseaseRecord, error) {
	rec, err := ParseDisease(raw)
	if err != nil {
		return DiseaseRecord{}, err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO diseases (disease_id, disease_name, document, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(disease_id) DO UPDATE SET
			disease_name = excluded.disease_name,
			document = excluded.document,
			updated_at = excluded.updated_at`,
		rec.ID, rec.Name, string(rec.Raw), time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return DiseaseRecord{}, fmt.Errorf("put disease %s: %w", rec.ID, err)
	}
	return rec, nil
}

// PutMedicine parses and upserts a medicine document.
func (s *Store) PutMedicine(ctx context.Context, raw []byte) (MedicineRecord, error) {
	rec, err := ParseMedicine(raw)
	if err != nil {
		return MedicineRecord{}, err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO medicines (drug_id, generic_name, document, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(drug_id) DO UPDATE SET
			generic_name = excluded.generic_name,
			document = excluded.document,
			updated_at = excluded.updated_at`,
		rec.ID, rec.GenericName, string(rec.Raw), time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return MedicineRecord{}, fmt.Errorf("put medicine %s: %w", rec.ID, err)
	}
	return rec, nil
}

// #endregion put

// #region get
// Disease reads the disease document for id. Returns ErrNotFound when absent.
func (s *Store) Disease(ctx context.Context, id string) (DiseaseRecord, error) {
	var doc string
	err := s.db.QueryRowContext(ctx, `SELECT document FROM diseases WHERE disease_id = ?`, id).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return DiseaseRecord{}, fmt.Errorf("disease %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return DiseaseRecord{}, fmt.Errorf("get disease %s: %w", id, err)
	}
	return ParseDisease([]byte(doc))
}

// Medicine reads the medicine document for id. Returns ErrNotFound when absent.
func (s *Store) Medicine(ctx context.Context, id string) (MedicineRecord, error) {
	var doc string
	err := s.db.QueryRowContext(ctx, `SELECT document FROM medicines WHERE drug_id = ?`, id).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return MedicineRecord{}, fmt.Errorf("medicine %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return MedicineRecord{}, fmt.Errorf("get medicine %s: %w", id, err)
	}
	return ParseMedicine([]byte(doc))
}

// Counts returns the number of stored diseases and medicines.
func (s *Store) Counts(ctx context.Context) (diseases, medicines int, err error) {
	if err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM diseases`).Scan(&diseases); err != nil {
		return 0, 0, fmt.Errorf("count diseases: %w", err)
	}
	if err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM medicines`).Scan(&medicines); err != nil {
		return 0, 0, fmt.Errorf("count medicines: %w", err)
	}
	return diseases, medicines, nil
}

// #endregion get

// #region import
// ImportDiseases loads every *.json file in dir as a disease document.
// Files are read in name order; a bad file aborts the import.
func (s *Store) ImportDiseases(ctx context.Context, dir string) ([]DiseaseRecord, error) {
	var out []DiseaseRecord
	err := eachJSON(dir, func(path string, raw []byte) error {
		rec, err := s.PutDisease(ctx, raw)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		out = append(out, rec)
		return nil
	})
	return out, err
}

// ImportMedicines loads every *.json file in dir as a medicine document.
func (s *Store) ImportMedicines(ctx context.Context, dir string) ([]MedicineRecord, error) {
	var out []MedicineRecord
	err := eachJSON(dir, func(path string, raw []byte) error {
		rec, err := s.PutMedicine(ctx, raw)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		out = append(out, rec)
		return nil
	})
	return out, err
}

func eachJSON(dir string, fn func(path string, raw []byte) error) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read dir %s: %w", dir, err)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".json") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	for _, name := range names {
		path := filepath.Join(dir, name)
		raw, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		if err := fn(path, raw); err != nil {
			return err
		}
	}
	return nil
}

// #endregion import
