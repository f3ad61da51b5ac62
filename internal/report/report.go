// Package report renders import and batch results into the machine-readable
// report document and writes it to its target sink. Rendering is a pure
// transform; writing is all-or-nothing.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/Spoje-NET/pohoda-abo-importer/internal/batch"
	"github.com/Spoje-NET/pohoda-abo-importer/internal/importer"
)

// Artifacts lists the rendered outcome lines. Lists absent from the result
// are omitted from the document rather than emitted empty.
type Artifacts struct {
	ImportedTransactions []string `json:"imported_transactions,omitempty"`
	FailedTransactions   []string `json:"failed_transactions,omitempty"`
	SkippedTransactions  []string `json:"skipped_transactions,omitempty"`
	ProcessedFiles       []string `json:"processed_files,omitempty"`
	FailedFiles          []string `json:"failed_files,omitempty"`
}

// Metrics is the documented metrics block. The file counters appear only in
// batch reports.
type Metrics struct {
	TotalTransactions     int     `json:"total_transactions"`
	ImportedCount         int     `json:"imported_count"`
	ErrorCount            int     `json:"error_count"`
	SkippedCount          int     `json:"skipped_count"`
	ProcessingTimeSeconds float64 `json:"processing_time_seconds"`
	TotalFiles            *int    `json:"total_files,omitempty"`
	ProcessedFiles        *int    `json:"processed_files,omitempty"`
	FailedFiles           *int    `json:"failed_files,omitempty"`
}

// Document is the external report schema.
type Document struct {
	Status    string    `json:"status"`
	Timestamp string    `json:"timestamp"`
	Message   string    `json:"message"`
	Artifacts Artifacts `json:"artifacts"`
	Metrics   Metrics   `json:"metrics"`
}

// FromImportResult renders a single-file result.
func FromImportResult(res *importer.Result) *Document {
	return &Document{
		Status:    string(res.Status),
		Timestamp: res.Timestamp.Format(time.RFC3339),
		Message:   res.Message,
		Artifacts: Artifacts{
			ImportedTransactions: importedLines(res.Imported),
			FailedTransactions:   failedLines(res.Failed),
			SkippedTransactions:  skippedLines(res.Skipped),
		},
		Metrics: Metrics{
			TotalTransactions:     res.Metrics.TotalTransactions,
			ImportedCount:         res.Metrics.ImportedCount,
			ErrorCount:            res.Metrics.ErrorCount,
			SkippedCount:          res.Metrics.SkippedCount,
			ProcessingTimeSeconds: res.Metrics.ProcessingTimeSeconds,
		},
	}
}

// FromBatchResult renders a consolidated batch result, including the per-file
// artifact lists and file counters.
func FromBatchResult(res *batch.Result) *Document {
	return &Document{
		Status:    string(res.Status),
		Timestamp: res.Timestamp.Format(time.RFC3339),
		Message:   res.Message,
		Artifacts: Artifacts{
			ImportedTransactions: importedLines(res.Imported),
			FailedTransactions:   failedLines(res.Failed),
			SkippedTransactions:  skippedLines(res.Skipped),
			ProcessedFiles:       processedFileLines(res.ProcessedFiles),
			FailedFiles:          failedFileLines(res.FailedFiles),
		},
		Metrics: Metrics{
			TotalTransactions:     res.Metrics.TotalTransactions,
			ImportedCount:         res.Metrics.ImportedCount,
			ErrorCount:            res.Metrics.ErrorCount,
			SkippedCount:          res.Metrics.SkippedCount,
			ProcessingTimeSeconds: res.Metrics.ProcessingTimeSeconds,
			TotalFiles:            intPtr(res.Metrics.TotalFiles),
			ProcessedFiles:        intPtr(res.Metrics.ProcessedFiles),
			FailedFiles:           intPtr(res.Metrics.FailedFiles),
		},
	}
}

// Write serializes the document and writes it whole to dest: a file path, or
// stdout when dest is "-". File writes go through a temp file and rename so a
// failure never leaves a partial report behind.
func Write(doc *Document, dest string) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	data = append(data, '\n')

	if dest == "-" {
		if _, err := os.Stdout.Write(data); err != nil {
			return fmt.Errorf("write report to stdout: %w", err)
		}
		return nil
	}

	tmp, err := os.CreateTemp(filepath.Dir(dest), ".report-*")
	if err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write report: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write report: %w", err)
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

// WriteTo serializes the document to an arbitrary writer.
func WriteTo(doc *Document, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return nil
}

func importedLines(outs []importer.Outcome) []string {
	var lines []string
	for _, out := range outs {
		lines = append(lines, fmt.Sprintf("Transaction %s: %s on %s",
			out.DocumentNumber, out.Amount.StringFixed(2), out.Date.Format("2006-01-02")))
	}
	return lines
}

func failedLines(outs []importer.Outcome) []string {
	var lines []string
	for _, out := range outs {
		lines = append(lines, fmt.Sprintf("Failed %s: %s", out.DocumentNumber, out.Reason))
	}
	return lines
}

func skippedLines(outs []importer.Outcome) []string {
	var lines []string
	for _, out := range outs {
		lines = append(lines, fmt.Sprintf("Skipped %s: %s on %s - %s",
			out.DocumentNumber, out.Amount.StringFixed(2), out.Date.Format("2006-01-02"), out.Reason))
	}
	return lines
}

func processedFileLines(files []batch.FileSummary) []string {
	var lines []string
	for _, f := range files {
		lines = append(lines, fmt.Sprintf("Processed %s: %d transactions (%s)",
			f.File, f.Transactions, f.Status))
	}
	return lines
}

func failedFileLines(files []batch.FileSummary) []string {
	var lines []string
	for _, f := range files {
		lines = append(lines, fmt.Sprintf("Failed %s: %s", f.File, f.Error))
	}
	return lines
}

func intPtr(v int) *int {
	return &v
}
