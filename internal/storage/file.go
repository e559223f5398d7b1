package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/san-kum/evtwin/internal/powertrain"
)

const (
	metadataFile = "metadata.json"
	recordsFile  = "records.csv"
)

// FileStore keeps one directory per run under baseDir holding
// metadata.json and records.csv.
type FileStore struct {
	baseDir string
}

func NewFileStore(baseDir string) *FileStore {
	return &FileStore{baseDir: baseDir}
}

func (s *FileStore) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

func (s *FileStore) Close() error { return nil }

// Save writes metadata.json and records.csv. On failure the files written
// so far are removed, and the run directory too when Save created it.
func (s *FileStore) Save(meta RunMetadata, records []powertrain.Record) (id string, err error) {
	prepare(&meta, records)
	runDir := filepath.Join(s.baseDir, meta.ID)

	_, statErr := os.Stat(runDir)
	created := os.IsNotExist(statErr)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	metaPath := filepath.Join(runDir, metadataFile)
	csvPath := filepath.Join(runDir, recordsFile)
	defer func() {
		if err == nil {
			return
		}
		if created {
			os.RemoveAll(runDir)
			return
		}
		os.Remove(metaPath)
		os.Remove(csvPath)
	}()

	err = writeFile(metaPath, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(meta)
	})
	if err != nil {
		return "", fmt.Errorf("write metadata: %w", err)
	}

	if err = writeFile(csvPath, func(w io.Writer) error { return WriteCSV(w, records) }); err != nil {
		return "", fmt.Errorf("write records: %w", err)
	}

	return meta.ID, nil
}

// writeFile creates path, runs write and reports the Close error too.
func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func (s *FileStore) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sortRuns(runs)
	return runs, nil
}

func (s *FileStore) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, runID)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("decode %s: %w", runID, err)
	}

	return &meta, nil
}

func (s *FileStore) LoadRecords(runID string) ([]powertrain.Record, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, recordsFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, runID)
		}
		return nil, err
	}
	defer file.Close()

	return ReadCSV(file)
}
