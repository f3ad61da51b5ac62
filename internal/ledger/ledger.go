// Package ledger defines the contract of the accounting system that receives
// mapped bank movements, plus a file-backed reference driver. The mServer
// network protocol itself is a deployment concern; everything in this module
// talks to the ledger through the Client interface.
package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// MovementType distinguishes inbound from outbound movements.
type MovementType string

const (
	// MovementReceipt is an inbound movement (money received).
	MovementReceipt MovementType = "receipt"
	// MovementExpense is an outbound movement (money paid out).
	MovementExpense MovementType = "expense"
)

// CounterParty describes the other side of a movement.
type CounterParty struct {
	Account  string `json:"account"`
	BankCode string `json:"bankCode"`
	Name     string `json:"name,omitempty"`
}

// Movement is one accounting entry submitted to the ledger. A fresh value is
// constructed for every transaction; nothing is reused across submissions.
type Movement struct {
	Type          MovementType `json:"movementType"`
	PaymentDate   time.Time    `json:"paymentDate"`
	StatementDate time.Time    `json:"statementDate"`
	Description   string       `json:"description"`
	// IntNote carries job provenance and the wrapped transaction identity.
	// It is the sole persisted carrier of idempotency state and must survive
	// the round trip through the ledger unmodified.
	IntNote        string          `json:"intNote"`
	Amount         decimal.Decimal `json:"amount"` // absolute value; Type encodes the sign
	CounterParty   *CounterParty   `json:"counterParty,omitempty"`
	VariableSymbol string          `json:"variableSymbol,omitempty"`
	ConstantSymbol string          `json:"constantSymbol,omitempty"`
	SpecificSymbol string          `json:"specificSymbol,omitempty"`
	AccountCode    string          `json:"accountCode,omitempty"` // target bank account in the ledger
}

// Record is a movement as stored by the ledger.
type Record struct {
	ID       string   `json:"id"`
	Movement Movement `json:"movement"`
}

// Query is a handle for a prepared record lookup.
type Query struct {
	Filter string
	Label  string
}

var (
	// ErrNoPendingSubmit is returned by Confirm when no submit is staged.
	ErrNoPendingSubmit = errors.New("ledger: no pending submit to confirm")
	// ErrReadOnly is returned by mutating calls on a read-only client.
	ErrReadOnly = errors.New("ledger: client is read-only")
)

// Client is the ledger collaborator contract. List reports lookup failures as
// errors, which callers must never conflate with an empty result. Writes are
// two-phase: Submit stages a movement and Confirm finalizes it.
type Client interface {
	// Query prepares a record lookup. Filter is a LIKE-style expression of
	// the form "field like 'pattern'" with % wildcards; label tags the query
	// for diagnostics.
	Query(ctx context.Context, filter, label string) (*Query, error)

	// List executes a prepared lookup and returns the matching records. An
	// error signals a transport or query failure, distinct from an empty but
	// successful result.
	List(ctx context.Context, q *Query) ([]Record, error)

	// Submit stages a movement for writing and returns its record ID.
	Submit(ctx context.Context, m Movement) (string, error)

	// Confirm finalizes the movement staged by the preceding Submit.
	Confirm(ctx context.Context) error
}
