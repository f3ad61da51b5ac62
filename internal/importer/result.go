package importer

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Status classifies a finished import.
type Status string

const (
	// StatusSuccess means every transaction was imported or accounted for as
	// a duplicate.
	StatusSuccess Status = "success"
	// StatusWarning means some transactions failed but at least one was
	// imported.
	StatusWarning Status = "warning"
	// StatusError means the file could not be processed, or transactions
	// failed and none were imported.
	StatusError Status = "error"
)

// Outcome records how a single transaction was handled. Immutable once
// recorded.
type Outcome struct {
	Identity       string
	DocumentNumber string
	Amount         decimal.Decimal
	Date           time.Time
	// Reason explains a failed or skipped outcome; empty for imports.
	Reason string
}

// Metrics are the additive counters of one import. Batch metrics are the
// element-wise sum of their constituent file metrics.
type Metrics struct {
	TotalTransactions     int
	ImportedCount         int
	ErrorCount            int
	SkippedCount          int
	ProcessingTimeSeconds float64
}

// Add accumulates another file's counters.
func (m *Metrics) Add(other Metrics) {
	m.TotalTransactions += other.TotalTransactions
	m.ImportedCount += other.ImportedCount
	m.ErrorCount += other.ErrorCount
	m.SkippedCount += other.SkippedCount
	m.ProcessingTimeSeconds += other.ProcessingTimeSeconds
}

// Result is the outcome of importing one statement file. It is owned by a
// single ImportFile invocation and returned to the caller when finished.
type Result struct {
	Status    Status
	Message   string
	Timestamp time.Time
	File      string
	Metrics   Metrics
	Imported  []Outcome
	Failed    []Outcome
	Skipped   []Outcome
}

// statusFor derives the file status from the final counters: error when
// transactions failed and nothing was imported, warning when failures were
// offset by at least one import, success otherwise.
func statusFor(m Metrics) Status {
	switch {
	case m.ErrorCount > 0 && m.ImportedCount == 0:
		return StatusError
	case m.ErrorCount > 0:
		return StatusWarning
	default:
		return StatusSuccess
	}
}

// summaryMessage renders the human-readable import summary embedding the
// three counters.
func summaryMessage(m Metrics) string {
	return fmt.Sprintf("Imported %d transactions, skipped %d, failed %d",
		m.ImportedCount, m.SkippedCount, m.ErrorCount)
}
