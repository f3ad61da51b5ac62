package mapper

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Spoje-NET/pohoda-abo-importer/internal/abo"
	"github.com/Spoje-NET/pohoda-abo-importer/internal/ledger"
)

var fixedNow = time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)

func testMapper() *Mapper {
	return NewWithClock(Config{
		ApplicationName:    "pohoda-abo-importer",
		ApplicationVersion: "1.0.0",
		JobID:              "job-42",
		DefaultBankCode:    "0100",
	}, func() time.Time { return fixedNow })
}

func baseTransaction() abo.Transaction {
	return abo.Transaction{
		DocumentNumber: "123",
		AccountNumber:  "4567890",
		Amount:         decimal.RequireFromString("1000.50"),
		ValuationDate:  time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC),
	}
}

func TestMap_SignMapping(t *testing.T) {
	tests := []struct {
		name       string
		amount     string
		wantType   ledger.MovementType
		wantAmount string
	}{
		{"positive is receipt", "1000.50", ledger.MovementReceipt, "1000.50"},
		{"negative is expense with absolute magnitude", "-250.00", ledger.MovementExpense, "250.00"},
		{"zero is expense", "0", ledger.MovementExpense, "0.00"},
	}

	m := testMapper()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := baseTransaction()
			tx.Amount = decimal.RequireFromString(tt.amount)

			mov := m.Map(tx)
			if mov.Type != tt.wantType {
				t.Errorf("Type = %s, want %s", mov.Type, tt.wantType)
			}
			if got := mov.Amount.StringFixed(2); got != tt.wantAmount {
				t.Errorf("Amount = %s, want %s", got, tt.wantAmount)
			}
		})
	}
}

func TestMap_DateFallbacks(t *testing.T) {
	valuation := time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC)
	due := time.Date(2024, time.January, 20, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		valuation time.Time
		due       time.Time
		want      time.Time
	}{
		{"valuation date wins", valuation, due, valuation},
		{"due date when valuation absent", time.Time{}, due, due},
		{"current date when both absent", time.Time{}, time.Time{}, fixedNow},
	}

	m := testMapper()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := baseTransaction()
			tx.ValuationDate = tt.valuation
			tx.DueDate = tt.due

			mov := m.Map(tx)
			if !mov.PaymentDate.Equal(tt.want) {
				t.Errorf("PaymentDate = %s, want %s", mov.PaymentDate, tt.want)
			}
			if !mov.StatementDate.Equal(tt.want) {
				t.Errorf("StatementDate = %s, want %s", mov.StatementDate, tt.want)
			}
		})
	}
}

func TestMap_Description(t *testing.T) {
	tests := []struct {
		name           string
		info           string
		counterAccount string
		dataType       string
		want           string
	}{
		{
			name:           "all fields in contract order",
			info:           "PAYMENT",
			counterAccount: "19283746",
			dataType:       "11",
			want:           "PAYMENT | Counter account: 19283746 | Type: 11",
		},
		{
			name: "info only",
			info: "PAYMENT",
			want: "PAYMENT",
		},
		{
			name:           "counter account and type",
			counterAccount: "19283746",
			dataType:       "11",
			want:           "Counter account: 19283746 | Type: 11",
		},
		{
			name: "fallback when nothing present",
			want: DescriptionFallback,
		},
	}

	m := testMapper()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := baseTransaction()
			tx.AdditionalInfo = tt.info
			tx.CounterAccount = tt.counterAccount
			tx.DataType = tt.dataType

			if got := m.Map(tx).Description; got != tt.want {
				t.Errorf("Description = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMap_IntNoteCarriesWrappedIdentity(t *testing.T) {
	m := testMapper()
	mov := m.Map(baseTransaction())

	want := "pohoda-abo-importer 1.0.0 job:job-42 #ABO_123_4567890#"
	if mov.IntNote != want {
		t.Errorf("IntNote = %q, want %q", mov.IntNote, want)
	}
}

func TestMap_JobIDDefaultsToNA(t *testing.T) {
	m := NewWithClock(Config{
		ApplicationName:    "pohoda-abo-importer",
		ApplicationVersion: "1.0.0",
	}, func() time.Time { return fixedNow })

	mov := m.Map(baseTransaction())
	want := "pohoda-abo-importer 1.0.0 job:n/a #ABO_123_4567890#"
	if mov.IntNote != want {
		t.Errorf("IntNote = %q, want %q", mov.IntNote, want)
	}
}

func TestMap_CounterParty(t *testing.T) {
	m := testMapper()

	t.Run("omitted without counter account", func(t *testing.T) {
		mov := m.Map(baseTransaction())
		if mov.CounterParty != nil {
			t.Errorf("CounterParty = %+v, want nil", mov.CounterParty)
		}
	})

	t.Run("statement bank code preferred", func(t *testing.T) {
		tx := baseTransaction()
		tx.CounterAccount = "19283746"
		tx.CounterBankCode = "0300"

		mov := m.Map(tx)
		if mov.CounterParty == nil {
			t.Fatal("CounterParty missing")
		}
		if mov.CounterParty.Account != "19283746" || mov.CounterParty.BankCode != "0300" {
			t.Errorf("CounterParty = %+v", mov.CounterParty)
		}
		if mov.CounterParty.Name != "" {
			t.Errorf("Name = %q, want empty without additional info", mov.CounterParty.Name)
		}
	})

	t.Run("default bank code fallback and name from info", func(t *testing.T) {
		tx := baseTransaction()
		tx.CounterAccount = "19283746"
		tx.AdditionalInfo = "ACME SRO"

		mov := m.Map(tx)
		if mov.CounterParty.BankCode != "0100" {
			t.Errorf("BankCode = %q, want default 0100", mov.CounterParty.BankCode)
		}
		if mov.CounterParty.Name != "ACME SRO" {
			t.Errorf("Name = %q", mov.CounterParty.Name)
		}
	})
}

func TestMap_OptionalFields(t *testing.T) {
	m := testMapper()

	tx := baseTransaction()
	mov := m.Map(tx)
	if mov.VariableSymbol != "" || mov.ConstantSymbol != "" || mov.SpecificSymbol != "" {
		t.Errorf("absent symbols must stay empty: %+v", mov)
	}
	if mov.AccountCode != "" {
		t.Errorf("AccountCode = %q, want empty when not configured", mov.AccountCode)
	}

	tx.VariableSymbol = "1234"
	tx.ConstantSymbol = "308"
	tx.SpecificSymbol = "55"
	mov = m.Map(tx)
	if mov.VariableSymbol != "1234" || mov.ConstantSymbol != "308" || mov.SpecificSymbol != "55" {
		t.Errorf("symbols not carried over: %+v", mov)
	}

	withAccount := NewWithClock(Config{AccountCode: "KB"}, func() time.Time { return fixedNow })
	if got := withAccount.Map(tx).AccountCode; got != "KB" {
		t.Errorf("AccountCode = %q, want KB", got)
	}
}

func TestMap_FreshMovementPerCall(t *testing.T) {
	m := testMapper()

	tx := baseTransaction()
	tx.CounterAccount = "19283746"
	first := m.Map(tx)

	plain := baseTransaction()
	second := m.Map(plain)
	if second.CounterParty != nil {
		t.Error("counter-party state leaked into a later movement")
	}
	if first.CounterParty == nil {
		t.Error("first movement lost its counter-party")
	}
}
