// Package abo reads bank statements in the ABO (GPC) fixed-layout text
// format: 128-character records, type 074 for the statement header and
// type 075 for individual transaction items.
package abo

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	recordLength = 128

	recordTypeHeader      = "074"
	recordTypeTransaction = "075"

	// Accounting codes from position 61 of a transaction record.
	codeDebit        = '1'
	codeCredit       = '2'
	codeDebitStorno  = '4'
	codeCreditStorno = '5'
)

// Parser reads ABO statement files into Transaction values.
type Parser struct{}

// NewParser returns a parser for ABO (GPC) statement files.
func NewParser() *Parser {
	return &Parser{}
}

// ParseFile reads and parses the statement at path. Transactions are returned
// in statement order.
func (p *Parser) ParseFile(path string) ([]Transaction, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open statement: %w", err)
	}
	defer f.Close()

	txs, err := p.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return txs, nil
}

// Parse reads ABO records from r. Header and balance records are skipped;
// only type 075 transaction items are returned.
func (p *Parser) Parse(r io.Reader) ([]Transaction, error) {
	var txs []Transaction

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		if !strings.HasPrefix(line, recordTypeTransaction) {
			continue
		}

		tx, err := parseTransactionRecord(line)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", lineNo, err)
		}
		txs = append(txs, tx)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read statement: %w", err)
	}

	return txs, nil
}

// parseTransactionRecord decodes a single type 075 record. Positions are
// 1-based inclusive per the GPC layout.
func parseTransactionRecord(line string) (Transaction, error) {
	if len(line) < recordLength {
		return Transaction{}, fmt.Errorf("transaction record too short: %d chars", len(line))
	}

	amount, err := parseAmount(field(line, 49, 60), line[60])
	if err != nil {
		return Transaction{}, err
	}

	valuation, err := parseDate(field(line, 92, 97))
	if err != nil {
		return Transaction{}, fmt.Errorf("valuation date: %w", err)
	}
	due, err := parseDate(field(line, 123, 128))
	if err != nil {
		return Transaction{}, fmt.Errorf("due date: %w", err)
	}

	return Transaction{
		AccountNumber:   trimNumeric(field(line, 4, 19)),
		CounterAccount:  trimNumeric(field(line, 20, 35)),
		DocumentNumber:  trimNumeric(field(line, 36, 48)),
		Amount:          amount,
		VariableSymbol:  trimNumeric(field(line, 62, 71)),
		CounterBankCode: bankCode(field(line, 72, 75)),
		ConstantSymbol:  trimNumeric(field(line, 76, 81)),
		SpecificSymbol:  trimNumeric(field(line, 82, 91)),
		ValuationDate:   valuation,
		AdditionalInfo:  strings.TrimSpace(field(line, 98, 117)),
		DataType:        strings.TrimSpace(field(line, 119, 122)),
		DueDate:         due,
	}, nil
}

// field returns the record slice between 1-based inclusive positions.
func field(line string, from, to int) string {
	return line[from-1 : to]
}

// parseAmount decodes the amount field (haléře, smallest currency unit) and
// applies the sign implied by the accounting code: credits and debit stornos
// are inbound, debits and credit stornos outbound.
func parseAmount(raw string, code byte) (decimal.Decimal, error) {
	digits := strings.TrimSpace(raw)
	value, err := decimal.NewFromString(digits)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("amount %q: %w", raw, err)
	}
	amount := value.Shift(-2)

	switch code {
	case codeCredit, codeDebitStorno:
		return amount, nil
	case codeDebit, codeCreditStorno:
		return amount.Neg(), nil
	default:
		return decimal.Decimal{}, fmt.Errorf("unknown accounting code %q", string(code))
	}
}

// parseDate decodes a DDMMYY field. All-zero or blank fields mean the date is
// absent and parse to the zero time.
func parseDate(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if s == "" || s == "000000" {
		return time.Time{}, nil
	}
	t, err := time.Parse("020106", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("date %q: %w", raw, err)
	}
	return t, nil
}

// trimNumeric strips blank padding and leading zeros from numeric fields.
// An all-zero field is treated as absent.
func trimNumeric(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.TrimLeft(s, "0")
	return s
}

// bankCode keeps the four-digit bank code verbatim since leading zeros are
// significant ("0100", "0300"). An all-zero field is treated as absent.
func bankCode(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.Trim(s, "0") == "" {
		return ""
	}
	return s
}
