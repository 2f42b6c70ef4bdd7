package export

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/couchcryptid/divi-occupancy-etl/internal/domain"
	"github.com/google/renameio/v2"
)

// jsonIndent matches the layout of the published JSON files.
const jsonIndent = " "

// WriteIndex writes the district index: gemeindeschluessel to records, keys
// sorted.
func WriteIndex(path string, districts domain.DistrictSeries) error {
	return writeJSON(path, map[string][]domain.DailyRecord(districts))
}

// WriteStates writes the region file: state code (and DE-total) to records.
func WriteStates(path string, regions map[string][]domain.DailyRecord) error {
	return writeJSON(path, regions)
}

// ReadIndex reads a file written by WriteIndex or WriteStates.
func ReadIndex(path string) (map[string][]domain.DailyRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var out map[string][]domain.DailyRecord
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return out, nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", jsonIndent)
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return writeAtomic(path, data)
}

func writeAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create directory for %s: %w", path, err)
	}
	if err := renameio.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
