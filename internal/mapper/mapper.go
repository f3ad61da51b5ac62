// Package mapper translates parsed statement transactions into the ledger's
// movement schema. The mapping is pure and total: every valid transaction
// maps to a fresh Movement value, with the transaction identity wrapped into
// the movement's internal note for duplicate detection.
package mapper

import (
	"fmt"
	"strings"
	"time"

	"github.com/Spoje-NET/pohoda-abo-importer/internal/abo"
	"github.com/Spoje-NET/pohoda-abo-importer/internal/identity"
	"github.com/Spoje-NET/pohoda-abo-importer/internal/ledger"
)

// DescriptionFallback is used when a transaction carries no describable
// fields at all. Reports reference movement descriptions, so the fallback is
// part of the external contract.
const DescriptionFallback = "Bank statement transaction"

// Config carries the provenance and ledger defaults stamped onto every
// movement.
type Config struct {
	ApplicationName    string
	ApplicationVersion string
	// JobID is the externally supplied correlation identifier, "n/a" when
	// the importer runs outside a job scheduler.
	JobID string
	// DefaultBankCode is used for the counter-party when the statement does
	// not carry one.
	DefaultBankCode string
	// AccountCode selects the target bank account in the ledger; empty means
	// the field is omitted from movements, never fabricated.
	AccountCode string
}

// Mapper builds ledger movements from statement transactions.
type Mapper struct {
	cfg Config
	now func() time.Time
}

// New creates a mapper using the wall clock for the missing-dates fallback.
func New(cfg Config) *Mapper {
	return NewWithClock(cfg, time.Now)
}

// NewWithClock creates a mapper with an injected clock. When a transaction
// carries neither a valuation nor a due date, the movement is dated with the
// current date from this clock.
func NewWithClock(cfg Config, now func() time.Time) *Mapper {
	if cfg.JobID == "" {
		cfg.JobID = "n/a"
	}
	return &Mapper{cfg: cfg, now: now}
}

// Map converts one transaction into a movement. The movement amount is always
// the absolute value; the movement type alone encodes the sign, with zero
// classifying as an expense.
func (m *Mapper) Map(tx abo.Transaction) ledger.Movement {
	movementType := ledger.MovementExpense
	if tx.Amount.IsPositive() {
		movementType = ledger.MovementReceipt
	}

	date := m.movementDate(tx)
	id := identity.ForTransaction(tx.DocumentNumber, tx.AccountNumber)

	mov := ledger.Movement{
		Type:           movementType,
		PaymentDate:    date,
		StatementDate:  date,
		Description:    m.description(tx),
		IntNote:        m.intNote(id),
		Amount:         tx.Amount.Abs(),
		VariableSymbol: tx.VariableSymbol,
		ConstantSymbol: tx.ConstantSymbol,
		SpecificSymbol: tx.SpecificSymbol,
		AccountCode:    m.cfg.AccountCode,
	}

	if tx.CounterAccount != "" {
		cp := &ledger.CounterParty{
			Account:  tx.CounterAccount,
			BankCode: tx.CounterBankCode,
		}
		if cp.BankCode == "" {
			cp.BankCode = m.cfg.DefaultBankCode
		}
		if tx.AdditionalInfo != "" {
			cp.Name = tx.AdditionalInfo
		}
		mov.CounterParty = cp
	}

	return mov
}

// movementDate picks the payment/statement date: valuation date when present,
// due date otherwise, and the current date when the statement carries neither.
func (m *Mapper) movementDate(tx abo.Transaction) time.Time {
	switch {
	case !tx.ValuationDate.IsZero():
		return tx.ValuationDate
	case !tx.DueDate.IsZero():
		return tx.DueDate
	default:
		return m.now()
	}
}

// description concatenates the describable fields in contract order. The
// ordering and " | " separator are referenced by reports and must not change.
func (m *Mapper) description(tx abo.Transaction) string {
	var parts []string
	if tx.AdditionalInfo != "" {
		parts = append(parts, tx.AdditionalInfo)
	}
	if tx.CounterAccount != "" {
		parts = append(parts, "Counter account: "+tx.CounterAccount)
	}
	if tx.DataType != "" {
		parts = append(parts, "Type: "+tx.DataType)
	}
	if len(parts) == 0 {
		return DescriptionFallback
	}
	return strings.Join(parts, " | ")
}

// intNote renders the fixed-format provenance note carrying the wrapped
// identity.
func (m *Mapper) intNote(id string) string {
	return fmt.Sprintf("%s %s job:%s %s",
		m.cfg.ApplicationName, m.cfg.ApplicationVersion, m.cfg.JobID, identity.Wrap(id))
}
