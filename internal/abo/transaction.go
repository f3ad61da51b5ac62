package abo

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is one statement item parsed from an ABO (GPC) bank statement.
// It is a plain value produced by the parser and never mutated afterwards.
type Transaction struct {
	DocumentNumber  string
	AccountNumber   string
	CounterAccount  string
	CounterBankCode string          // bank code of the counter account, may be empty
	Amount          decimal.Decimal // signed; positive = inbound
	ValuationDate   time.Time       // zero when the statement omits it
	DueDate         time.Time       // fallback date, zero when omitted
	VariableSymbol  string
	ConstantSymbol  string
	SpecificSymbol  string
	AdditionalInfo  string
	DataType        string
}
