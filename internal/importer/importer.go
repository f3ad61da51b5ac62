// Package importer runs the idempotent import of one statement file: for
// every parsed transaction it derives the identity, checks the ledger for a
// prior import, maps the transaction to a movement and submits it, then
// classifies the file from the accumulated counters.
//
// Processing is strictly sequential. The duplicate check followed by the
// submit is a check-then-act sequence, so at-most-once semantics hold only
// for a single writer; concurrent invocations against the same ledger would
// need identity-keyed mutual exclusion.
package importer

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/Spoje-NET/pohoda-abo-importer/internal/abo"
	"github.com/Spoje-NET/pohoda-abo-importer/internal/dedup"
	"github.com/Spoje-NET/pohoda-abo-importer/internal/identity"
	"github.com/Spoje-NET/pohoda-abo-importer/internal/ledger"
	"github.com/Spoje-NET/pohoda-abo-importer/internal/logger"
	"github.com/Spoje-NET/pohoda-abo-importer/internal/mapper"
)

// ReasonDuplicate marks transactions skipped because the ledger already
// carries their identity.
const ReasonDuplicate = "duplicate"

// ReasonCommitFailed marks transactions whose submit or confirmation did not
// go through.
const ReasonCommitFailed = "failed to commit"

// Parser is the statement parser collaborator.
type Parser interface {
	ParseFile(path string) ([]abo.Transaction, error)
}

// Engine imports statement files into the ledger.
type Engine struct {
	parser  Parser
	client  ledger.Client
	checker *dedup.Checker
	mapper  *mapper.Mapper
	now     func() time.Time
}

// NewEngine creates an import engine. The checker must hold its own isolated
// ledger client; client is the one movements are submitted through.
func NewEngine(parser Parser, client ledger.Client, checker *dedup.Checker, m *mapper.Mapper) *Engine {
	return NewEngineWithClock(parser, client, checker, m, time.Now)
}

// NewEngineWithClock creates an import engine with an injected clock for
// timestamps and elapsed-time metrics.
func NewEngineWithClock(parser Parser, client ledger.Client, checker *dedup.Checker, m *mapper.Mapper, now func() time.Time) *Engine {
	return &Engine{parser: parser, client: client, checker: checker, mapper: m, now: now}
}

// ImportFile processes one statement file to completion and returns its
// result. Transactions are handled strictly in statement order; a failing
// transaction is recorded and never aborts the rest of the file.
func (e *Engine) ImportFile(ctx context.Context, path string) *Result {
	log := logger.FromContext(ctx)
	start := e.now()
	res := &Result{File: path}

	if _, err := os.Stat(path); err != nil {
		log.Error().Err(err).Str("file", path).Msg("Input file not found")
		return e.finalize(res, start, StatusError, fmt.Sprintf("input file not found: %s", path))
	}

	txs, err := e.parser.ParseFile(path)
	if err != nil {
		log.Error().Err(err).Str("file", path).Msg("Statement parse failed")
		return e.finalize(res, start, StatusError, fmt.Sprintf("statement parse failed: %v", err))
	}

	log.Info().Str("file", path).Int("transactions", len(txs)).Msg("Importing statement")
	res.Metrics.TotalTransactions = len(txs)

	for _, tx := range txs {
		out, disp := e.processTransaction(ctx, tx)
		switch disp {
		case dispositionImported:
			res.Imported = append(res.Imported, out)
			res.Metrics.ImportedCount++
			log.Debug().Str("identity", out.Identity).Msg("Transaction imported")
		case dispositionSkipped:
			res.Skipped = append(res.Skipped, out)
			res.Metrics.SkippedCount++
			log.Debug().Str("identity", out.Identity).Msg("Transaction skipped as duplicate")
		case dispositionFailed:
			res.Failed = append(res.Failed, out)
			res.Metrics.ErrorCount++
			log.Warn().Str("identity", out.Identity).Str("reason", out.Reason).Msg("Transaction failed")
		}
	}

	status := statusFor(res.Metrics)
	log.Info().
		Str("file", path).
		Str("status", string(status)).
		Int("imported", res.Metrics.ImportedCount).
		Int("skipped", res.Metrics.SkippedCount).
		Int("failed", res.Metrics.ErrorCount).
		Msg("Statement import finished")

	return e.finalize(res, start, status, summaryMessage(res.Metrics))
}

type disposition int

const (
	dispositionImported disposition = iota
	dispositionSkipped
	dispositionFailed
)

// processTransaction runs the identity check, mapping and two-phase submit
// for one transaction. Any panic escaping a collaborator is converted into a
// failed outcome so one bad transaction cannot abort the file.
func (e *Engine) processTransaction(ctx context.Context, tx abo.Transaction) (out Outcome, disp disposition) {
	log := logger.FromContext(ctx)

	out = Outcome{
		Identity:       identity.ForTransaction(tx.DocumentNumber, tx.AccountNumber),
		DocumentNumber: tx.DocumentNumber,
		Amount:         tx.Amount,
		Date:           transactionDate(tx),
	}

	defer func() {
		if r := recover(); r != nil {
			out.Reason = fmt.Sprintf("%v", r)
			disp = dispositionFailed
		}
	}()

	exists, err := e.checker.Exists(ctx, out.Identity)
	if err != nil {
		// An unreachable check fails this transaction only; the rest of the
		// file keeps importing.
		out.Reason = fmt.Sprintf("duplicate check failed: %v", err)
		return out, dispositionFailed
	}
	if exists {
		out.Reason = ReasonDuplicate
		return out, dispositionSkipped
	}

	movement := e.mapper.Map(tx)
	out.Date = movement.PaymentDate

	if _, err := e.client.Submit(ctx, movement); err != nil {
		log.Warn().Err(err).Str("identity", out.Identity).Msg("Movement submit failed")
		out.Reason = ReasonCommitFailed
		return out, dispositionFailed
	}
	if err := e.client.Confirm(ctx); err != nil {
		log.Warn().Err(err).Str("identity", out.Identity).Msg("Movement confirmation failed")
		out.Reason = ReasonCommitFailed
		return out, dispositionFailed
	}

	return out, dispositionImported
}

// finalize stamps status, message, timestamp and elapsed time at the very end
// of processing.
func (e *Engine) finalize(res *Result, start time.Time, status Status, message string) *Result {
	res.Status = status
	res.Message = message
	res.Timestamp = e.now()
	res.Metrics.ProcessingTimeSeconds = res.Timestamp.Sub(start).Seconds()
	return res
}

// transactionDate picks the statement-supplied date for reporting: valuation
// date when present, due date otherwise. Stays zero when both are absent; the
// mapped movement date is used for imported transactions instead.
func transactionDate(tx abo.Transaction) time.Time {
	if !tx.ValuationDate.IsZero() {
		return tx.ValuationDate
	}
	return tx.DueDate
}
