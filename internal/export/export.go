// Package export writes aggregated armor sets to JSON, CSV and XLSX files.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/ramonehamilton/palico-bot/internal/mhw/armor"
)

// Format represents the export format.
type Format string

const (
	// FormatCSV writes set totals as CSV.
	FormatCSV Format = "csv"
	// FormatJSON writes the set index as a JSON object keyed by set name.
	FormatJSON Format = "json"
	// FormatXLSX writes a workbook with a totals sheet and a pieces sheet.
	FormatXLSX Format = "xlsx"
)

// ParseFormat parses a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case FormatCSV, FormatJSON, FormatXLSX:
		return f, nil
	}
	return "", fmt.Errorf("unsupported export format: %s", s)
}

// Options holds configuration for export operations.
type Options struct {
	Format     Format
	FilePath   string
	PrettyJSON bool
	Overwrite  bool
}

// Exporter writes a set index to a file.
type Exporter struct {
	opts Options
}

// NewExporter creates a new Exporter with the given options.
func NewExporter(opts Options) *Exporter {
	return &Exporter{opts: opts}
}

// Export writes idx to the configured file.
func (e *Exporter) Export(idx *armor.SetIndex) (err error) {
	if idx == nil {
		return fmt.Errorf("no sets to export")
	}

	file, err := e.createFile()
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	return ExportToWriter(file, e.opts.Format, idx, e.opts.PrettyJSON)
}

// createFile creates the output file, handling overwrite settings.
func (e *Exporter) createFile() (*os.File, error) {
	if e.opts.FilePath == "" {
		return nil, fmt.Errorf("file path is required")
	}

	dir := filepath.Dir(e.opts.FilePath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	if _, err := os.Stat(e.opts.FilePath); err == nil && !e.opts.Overwrite {
		return nil, fmt.Errorf("file already exists: %s (use overwrite option to replace)", e.opts.FilePath)
	}

	file, err := os.Create(e.opts.FilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}

	return file, nil
}

// ExportToWriter writes idx to w in format.
func ExportToWriter(w io.Writer, format Format, idx *armor.SetIndex, prettyJSON bool) error {
	switch format {
	case FormatJSON:
		return WriteJSON(w, idx, prettyJSON)
	case FormatCSV:
		return WriteCSV(w, idx)
	case FormatXLSX:
		return WriteXLSX(w, idx)
	default:
		return fmt.Errorf("unsupported export format: %s", format)
	}
}

// WriteJSON writes idx as an object keyed by set name in index order.
func WriteJSON(w io.Writer, idx *armor.SetIndex, pretty bool) error {
	encoder := json.NewEncoder(w)
	if pretty {
		encoder.SetIndent("", "  ")
	}
	if err := encoder.Encode(idx); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

// WriteCSV writes one row of totals per set.
func WriteCSV(w io.Writer, idx *armor.SetIndex) error {
	sets, _ := Rows(idx)
	if len(sets) == 0 {
		return fmt.Errorf("no data to export")
	}

	writer := csv.NewWriter(w)
	if err := writer.Write(setHeaders); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for i, row := range sets {
		if err := writer.Write(stringCells(row.cells())); err != nil {
			return fmt.Errorf("failed to write CSV row %d: %w", i, err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// GenerateFilename generates a default filename based on the export type and format.
func GenerateFilename(exportType string, format Format) string {
	timestamp := time.Now().Format("20060102_150405")
	return fmt.Sprintf("%s_%s.%s", exportType, timestamp, format)
}
