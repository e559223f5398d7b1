// Package storage persists simulation runs: their metadata and the
// per-tick record stream.
package storage

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/san-kum/evtwin/internal/powertrain"
)

var ErrNotFound = errors.New("storage: run not found")

type RunMetadata struct {
	ID           string             `json:"id"`
	Name         string             `json:"name"`
	Timestamp    time.Time          `json:"timestamp"`
	DtMin        float64            `json:"dt_min"`
	DurationMin  float64            `json:"duration_min"`
	AvgSpeedKmph float64            `json:"avg_speed_kmph"`
	MotorVariant string             `json:"motor_variant"`
	MassKg       float64            `json:"mass_kg"`
	CapacityKWh  float64            `json:"capacity_kwh"`
	Ticks        int                `json:"ticks"`
	StarvedTicks int                `json:"starved_ticks"`
	Metrics      map[string]float64 `json:"metrics"`
	Summary      powertrain.Summary `json:"summary"`
}

// Backend is a run store.
type Backend interface {
	Init() error
	// Save assigns an ID when meta.ID is empty and returns it.
	Save(meta RunMetadata, records []powertrain.Record) (string, error)
	// List returns every run, oldest first.
	List() ([]RunMetadata, error)
	Load(runID string) (*RunMetadata, error)
	LoadRecords(runID string) ([]powertrain.Record, error)
	Close() error
}

// NewRunID returns "<name>_<8 hex chars>".
func NewRunID(name string) string {
	if name == "" {
		name = "run"
	}
	name = strings.ReplaceAll(strings.TrimSpace(name), " ", "-")
	return fmt.Sprintf("%s_%s", name, uuid.New().String()[:8])
}

const (
	KindFile   = "file"
	KindSQLite = "sqlite"
)

// Open returns an initialised backend of the given kind.
func Open(kind, dir, sqlitePath string) (Backend, error) {
	var b Backend
	switch kind {
	case "", KindFile:
		b = NewFileStore(dir)
	case KindSQLite:
		s, err := NewSQLiteStore(sqlitePath)
		if err != nil {
			return nil, err
		}
		b = s
	default:
		return nil, fmt.Errorf("storage: unknown backend %q", kind)
	}
	if err := b.Init(); err != nil {
		b.Close()
		return nil, err
	}
	return b, nil
}

func prepare(meta *RunMetadata, records []powertrain.Record) {
	if meta.ID == "" {
		meta.ID = NewRunID(meta.Name)
	}
	if meta.Timestamp.IsZero() {
		meta.Timestamp = time.Now()
	}
	meta.Ticks = len(records)
}

func sortRuns(runs []RunMetadata) {
	sort.SliceStable(runs, func(i, j int) bool {
		return runs[i].Timestamp.Before(runs[j].Timestamp)
	})
}
