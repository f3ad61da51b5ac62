// Package batch drives the import engine over multiple statement files and
// consolidates their results. Files are processed strictly in the order the
// paths were supplied; outcome lists merge file-major, preserving transaction
// order within each file.
package batch

import (
	"context"
	"fmt"
	"time"

	"github.com/Spoje-NET/pohoda-abo-importer/internal/importer"
	"github.com/Spoje-NET/pohoda-abo-importer/internal/logger"
)

// Importer is the per-file engine the batch drives.
type Importer interface {
	ImportFile(ctx context.Context, path string) *importer.Result
}

// FileSummary describes how one file of the batch went.
type FileSummary struct {
	File         string
	Transactions int
	Status       importer.Status
	// Error carries the file's failure message when Status is error.
	Error string
}

// Metrics extends the per-file counters with file counts. The additive
// transaction counters are the element-wise sums over all files.
type Metrics struct {
	importer.Metrics
	TotalFiles     int
	ProcessedFiles int
	FailedFiles    int
}

// Result consolidates a whole batch.
type Result struct {
	Status         importer.Status
	Message        string
	Timestamp      time.Time
	Metrics        Metrics
	Imported       []importer.Outcome
	Failed         []importer.Outcome
	Skipped        []importer.Outcome
	ProcessedFiles []FileSummary
	FailedFiles    []FileSummary
}

// Run imports every path in the supplied order and consolidates the results.
// A file whose import blows up entirely is recorded as a failed file; the
// batch never aborts because one input is unreadable.
func Run(ctx context.Context, imp Importer, paths []string) *Result {
	log := logger.FromContext(ctx)

	res := &Result{}
	res.Metrics.TotalFiles = len(paths)

	for _, path := range paths {
		fileRes := importFile(ctx, imp, path)

		res.Imported = append(res.Imported, fileRes.Imported...)
		res.Failed = append(res.Failed, fileRes.Failed...)
		res.Skipped = append(res.Skipped, fileRes.Skipped...)
		res.Metrics.Add(fileRes.Metrics)

		summary := FileSummary{
			File:         path,
			Transactions: fileRes.Metrics.TotalTransactions,
			Status:       fileRes.Status,
		}
		if fileRes.Status == importer.StatusError {
			summary.Error = fileRes.Message
			res.FailedFiles = append(res.FailedFiles, summary)
			res.Metrics.FailedFiles++
			log.Warn().Str("file", path).Str("error", fileRes.Message).Msg("File failed")
		} else {
			// A warning still counts as processed.
			res.ProcessedFiles = append(res.ProcessedFiles, summary)
			res.Metrics.ProcessedFiles++
		}
	}

	// Processing time is accumulated by Metrics.Add so every additive metric,
	// elapsed time included, is the element-wise sum over the files.
	res.Status = statusFor(res.Metrics)
	res.Message = summaryMessage(res.Metrics)
	res.Timestamp = time.Now()

	log.Info().
		Str("status", string(res.Status)).
		Int("files", res.Metrics.TotalFiles).
		Int("failed_files", res.Metrics.FailedFiles).
		Int("imported", res.Metrics.ImportedCount).
		Msg("Batch finished")

	return res
}

// importFile shields the batch from anything escaping the engine for a single
// file, converting it into an error result.
func importFile(ctx context.Context, imp Importer, path string) (res *importer.Result) {
	defer func() {
		if r := recover(); r != nil {
			res = &importer.Result{
				Status:    importer.StatusError,
				Message:   fmt.Sprintf("import aborted: %v", r),
				Timestamp: time.Now(),
				File:      path,
			}
		}
	}()
	return imp.ImportFile(ctx, path)
}

// statusFor classifies the batch: error when every file failed, warning when
// some did, success otherwise. An empty batch is a success.
func statusFor(m Metrics) importer.Status {
	switch {
	case m.TotalFiles > 0 && m.FailedFiles == m.TotalFiles:
		return importer.StatusError
	case m.FailedFiles > 0:
		return importer.StatusWarning
	default:
		return importer.StatusSuccess
	}
}

func summaryMessage(m Metrics) string {
	return fmt.Sprintf("Processed %d of %d files: imported %d transactions, skipped %d, failed %d",
		m.ProcessedFiles, m.TotalFiles, m.ImportedCount, m.SkippedCount, m.ErrorCount)
}
