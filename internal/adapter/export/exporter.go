// Package export writes the aggregated series to the published file formats:
// the district JSON index, the region JSON file, one TSV per district and an
// optional XLSX workbook of the regions.
package export

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/divi-occupancy-etl/internal/domain"
)

// Options names the output files. An empty XLSXPath disables the workbook.
type Options struct {
	IndexFile  string
	StatesFile string
	TSVDir     string
	XLSXPath   string
}

// Exporter writes all file outputs of one run. It implements pipeline.Loader.
type Exporter struct {
	opts   Options
	tsv    *TSVExporter
	logger *slog.Logger
}

// NewExporter creates an Exporter.
func NewExporter(opts Options, logger *slog.Logger) *Exporter {
	return &Exporter{opts: opts, tsv: NewTSVExporter(opts.TSVDir), logger: logger}
}

// Name identifies the loader in logs.
func (e *Exporter) Name() string { return "files" }

// Load writes the index, the states file, the district TSVs and, when
// configured, the workbook.
func (e *Exporter) Load(ctx context.Context, agg domain.Aggregate) error {
	if err := WriteIndex(e.opts.IndexFile, agg.Districts); err != nil {
		return err
	}
	if err := WriteStates(e.opts.StatesFile, agg.Regions); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := e.tsv.Export(agg.Districts); err != nil {
		return err
	}
	if e.opts.XLSXPath != "" {
		if err := WriteWorkbook(e.opts.XLSXPath, agg.Regions); err != nil {
			return err
		}
	}
	e.logger.Info("files written",
		"index", e.opts.IndexFile,
		"states", e.opts.StatesFile,
		"districts", len(agg.Districts),
		"workbook", e.opts.XLSXPath,
	)
	return nil
}
