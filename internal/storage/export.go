package storage

import (
	"encoding/json"
	"io"
	"os"

	"github.com/san-kum/evtwin/internal/powertrain"
)

type ExportData struct {
	Run     RunMetadata         `json:"run"`
	Steps   int                 `json:"steps"`
	Records []powertrain.Record `json:"records"`
}

func ExportJSON(path string, meta RunMetadata, records []powertrain.Record) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return EncodeJSON(file, meta, records)
}

func EncodeJSON(w io.Writer, meta RunMetadata, records []powertrain.Record) error {
	data := ExportData{
		Run:     meta,
		Steps:   len(records),
		Records: records,
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

func ExportCSV(path string, records []powertrain.Record) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return WriteCSV(file, records)
}
