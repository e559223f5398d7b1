package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/san-kum/evtwin/internal/powertrain"
)

type runRow struct {
	ID           string    `gorm:"primaryKey"`
	Name         string    `gorm:"index"`
	Timestamp    time.Time `gorm:"index"`
	DtMin        float64
	DurationMin  float64
	AvgSpeedKmph float64
	MotorVariant string
	MassKg       float64
	CapacityKWh  float64
	Ticks        int
	StarvedTicks int
	Metrics      string // JSON
	Summary      string // JSON
}

func (runRow) TableName() string { return "runs" }

type recordRow struct {
	ID    uint   `gorm:"primaryKey"`
	RunID string `gorm:"index:idx_run_seq,priority:1"`
	Seq   int    `gorm:"index:idx_run_seq,priority:2"`

	powertrain.Record `gorm:"embedded"`
}

func (recordRow) TableName() string { return "run_records" }

// SQLiteStore keeps runs in a SQLite database through gorm.
type SQLiteStore struct {
	db *gorm.DB
}

// recordBatchSize keeps a batched insert of record rows under SQLite's
// bound-parameter limit.
const recordBatchSize = 500

// NewSQLiteStore opens path, or a private in-memory database when path is
// empty.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	dsn := path
	if dsn == "" {
		dsn = fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		PrepareStmt:            true,
		SkipDefaultTransaction: true,
		CreateBatchSize:        recordBatchSize,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("storage: open sqlite: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Init() error {
	if err := s.db.AutoMigrate(&runRow{}, &recordRow{}); err != nil {
		return fmt.Errorf("storage: migrate: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *SQLiteStore) Save(meta RunMetadata, records []powertrain.Record) (string, error) {
	prepare(&meta, records)

	run, err := toRunRow(meta)
	if err != nil {
		return "", err
	}

	rows := make([]recordRow, len(records))
	for i, r := range records {
		rows[i] = recordRow{RunID: meta.ID, Seq: i, Record: r}
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&run).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.Create(&rows).Error
	})
	if err != nil {
		return "", fmt.Errorf("storage: save %s: %w", meta.ID, err)
	}
	return meta.ID, nil
}

func (s *SQLiteStore) List() ([]RunMetadata, error) {
	var rows []runRow
	if err := s.db.Order("timestamp asc").Find(&rows).Error; err != nil {
		return nil, err
	}

	runs := make([]RunMetadata, 0, len(rows))
	for _, row := range rows {
		meta, err := fromRunRow(row)
		if err != nil {
			return nil, err
		}
		runs = append(runs, meta)
	}
	return runs, nil
}

func (s *SQLiteStore) Load(runID string) (*RunMetadata, error) {
	var row runRow
	err := s.db.Where("id = ?", runID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, runID)
	}
	if err != nil {
		return nil, err
	}

	meta, err := fromRunRow(row)
	if err != nil {
		return nil, err
	}
	return &meta, nil
}

func (s *SQLiteStore) LoadRecords(runID string) ([]powertrain.Record, error) {
	if _, err := s.Load(runID); err != nil {
		return nil, err
	}

	var rows []recordRow
	if err := s.db.Where("run_id = ?", runID).Order("seq asc").Find(&rows).Error; err != nil {
		return nil, err
	}

	records := make([]powertrain.Record, len(rows))
	for i, row := range rows {
		records[i] = row.Record
	}
	return records, nil
}

func toRunRow(meta RunMetadata) (runRow, error) {
	metrics, err := json.Marshal(meta.Metrics)
	if err != nil {
		return runRow{}, err
	}
	summary, err := json.Marshal(meta.Summary)
	if err != nil {
		return runRow{}, err
	}
	return runRow{
		ID:           meta.ID,
		Name:         meta.Name,
		Timestamp:    meta.Timestamp,
		DtMin:        meta.DtMin,
		DurationMin:  meta.DurationMin,
		AvgSpeedKmph: meta.AvgSpeedKmph,
		MotorVariant: meta.MotorVariant,
		MassKg:       meta.MassKg,
		CapacityKWh:  meta.CapacityKWh,
		Ticks:        meta.Ticks,
		StarvedTicks: meta.StarvedTicks,
		Metrics:      string(metrics),
		Summary:      string(summary),
	}, nil
}

func fromRunRow(row runRow) (RunMetadata, error) {
	meta := RunMetadata{
		ID:           row.ID,
		Name:         row.Name,
		Timestamp:    row.Timestamp,
		DtMin:        row.DtMin,
		DurationMin:  row.DurationMin,
		AvgSpeedKmph: row.AvgSpeedKmph,
		MotorVariant: row.MotorVariant,
		MassKg:       row.MassKg,
		CapacityKWh:  row.CapacityKWh,
		Ticks:        row.Ticks,
		StarvedTicks: row.StarvedTicks,
	}
	if err := json.Unmarshal([]byte(row.Metrics), &meta.Metrics); err != nil {
		return RunMetadata{}, fmt.Errorf("decode metrics of %s: %w", row.ID, err)
	}
	if err := json.Unmarshal([]byte(row.Summary), &meta.Summary); err != nil {
		return RunMetadata{}, fmt.Errorf("decode summary of %s: %w", row.ID, err)
	}
	return meta, nil
}
