// Package snapshot reads a point-in-time export of source-system records
// into typed in-memory collections. A snapshot is immutable for the
// duration of a migration run; source order is preserved for diagnostics.
package snapshot

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"hospicrm-migrator/internal/domain"
)

// ErrUnreadable wraps every load failure: the run must fail fast before
// any writes when the snapshot cannot be parsed.
var ErrUnreadable = errors.New("snapshot unreadable")

// Snapshot holds one ordered collection per entity type.
type Snapshot struct {
	Departments  []*domain.DepartmentRecord  `json:"departments"`
	Doctors      []*domain.DoctorRecord      `json:"doctors"`
	Patients     []*domain.PatientRecord     `json:"patients"`
	Beds         []*domain.BedRecord         `json:"beds"`
	Transactions []*domain.TransactionRecord `json:"transactions"`

	// Source describes where the snapshot was loaded from (path or URL).
	Source string `json:"-"`
}

// Records returns the collection for the entity type in source order.
func (s *Snapshot) Records(entity domain.EntityType) []domain.Record {
	switch entity {
	case domain.EntityDepartment:
		out := make([]domain.Record, len(s.Departments))
		for i, r := range s.Departments {
			out[i] = r
		}
		return out
	case domain.EntityDoctor:
		out := make([]domain.Record, len(s.Doctors))
		for i, r := range s.Doctors {
			out[i] = r
		}
		return out
	case domain.EntityPatient:
		out := make([]domain.Record, len(s.Patients))
		for i, r := range s.Patients {
			out[i] = r
		}
		return out
	case domain.EntityBed:
		out := make([]domain.Record, len(s.Beds))
		for i, r := range s.Beds {
			out[i] = r
		}
		return out
	case domain.EntityTransaction:
		out := make([]domain.Record, len(s.Transactions))
		for i, r := range s.Transactions {
			out[i] = r
		}
		return out
	default:
		return nil
	}
}

// Count returns the source count for the entity type.
func (s *Snapshot) Count(entity domain.EntityType) int {
	return len(s.Records(entity))
}

// Store loads snapshot artifacts. JSON is the native export format; Excel
// workbooks are accepted for operator-prepared exports.
type Store struct {
	logger *zap.Logger
}

func NewStore(logger *zap.Logger) *Store {
	return &Store{logger: logger}
}

// Load dispatches on the source: http(s) URLs are fetched, .xlsx paths are
// read as workbooks, everything else is read as a JSON file.
func (s *Store) Load(source string) (*Snapshot, error) {
	switch {
	case strings.HasPrefix(source, "http://"), strings.HasPrefix(source, "https://"):
		return s.LoadURL(source)
	case strings.HasSuffix(strings.ToLower(source), ".xlsx"):
		return s.LoadWorkbook(source)
	default:
		return s.LoadFile(source)
	}
}

// LoadFile reads a JSON snapshot artifact from disk.
func (s *Store) LoadFile(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrUnreadable, path, err)
	}
	snap, err := decodeJSON(data)
	if err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", ErrUnreadable, path, err)
	}
	snap.Source = path
	s.logLoaded(snap)
	return snap, nil
}

// LoadWorkbook reads an Excel snapshot from disk.
func (s *Store) LoadWorkbook(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrUnreadable, path, err)
	}
	snap, err := decodeWorkbook(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", ErrUnreadable, path, err)
	}
	snap.Source = path
	s.logLoaded(snap)
	return snap, nil
}

func decodeJSON(data []byte) (*Snapshot, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	var snap Snapshot
	if err := dec.Decode(&snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

func (s *Store) logLoaded(snap *Snapshot) {
	s.logger.Info("Snapshot loaded",
		zap.String("source", snap.Source),
		zap.Int("departments", len(snap.Departments)),
		zap.Int("doctors", len(snap.Doctors)),
		zap.Int("patients", len(snap.Patients)),
		zap.Int("beds", len(snap.Beds)),
		zap.Int("transactions", len(snap.Transactions)),
	)
}
