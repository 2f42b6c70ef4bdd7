package divi

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/couchcryptid/divi-occupancy-etl/internal/domain"
)

// ReportDir enumerates the cached daily reports. It implements
// pipeline.ReportSource.
type ReportDir struct {
	dir string
}

// NewReportDir creates a ReportDir over dir.
func NewReportDir(dir string) *ReportDir {
	return &ReportDir{dir: dir}
}

// List returns every *.csv file in the directory sorted by file name, which
// for ISO-dated names is chronological.
func (d *ReportDir) List() ([]domain.ReportFile, error) {
	entries, err := os.ReadDir(d.dir)
	if err != nil {
		return nil, fmt.Errorf("read report directory %s: %w", d.dir, err)
	}

	var files []domain.ReportFile
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.EqualFold(filepath.Ext(name), ".csv") {
			continue
		}
		files = append(files, domain.ReportFile{
			Date: strings.TrimSuffix(name, filepath.Ext(name)),
			Path: filepath.Join(d.dir, name),
		})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Date < files[j].Date })
	return files, nil
}

// Open opens a report for reading.
func (d *ReportDir) Open(f domain.ReportFile) (io.ReadCloser, error) {
	fh, err := os.Open(f.Path)
	if err != nil {
		return nil, fmt.Errorf("open report %s: %w", f.Date, err)
	}
	return fh, nil
}
