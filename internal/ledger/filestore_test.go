package ledger

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func testMovement(note string) Movement {
	return Movement{
		Type:          MovementReceipt,
		PaymentDate:   time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC),
		StatementDate: time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC),
		Description:   "test movement",
		IntNote:       note,
		Amount:        decimal.RequireFromString("1000.50"),
	}
}

func mustConfirm(t *testing.T, s Client, m Movement) string {
	t.Helper()
	ctx := context.Background()
	id, err := s.Submit(ctx, m)
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if err := s.Confirm(ctx); err != nil {
		t.Fatalf("Confirm failed: %v", err)
	}
	return id
}

func TestFileStore_SubmitConfirm(t *testing.T) {
	ctx := context.Background()
	s, err := NewFileStore("")
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}

	// A staged but unconfirmed movement must be invisible to lookups.
	if _, err := s.Submit(ctx, testMovement("#ABO_1_2#")); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	q, err := s.Query(ctx, "intNote like '%#ABO_1_2#%'", "pending check")
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	recs, err := s.List(ctx, q)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(recs) != 0 {
		t.Errorf("unconfirmed movement visible to List: %d records", len(recs))
	}

	if err := s.Confirm(ctx); err != nil {
		t.Fatalf("Confirm failed: %v", err)
	}
	recs, err = s.List(ctx, q)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("got %d records after confirm, want 1", len(recs))
	}
	if recs[0].Movement.IntNote != "#ABO_1_2#" {
		t.Errorf("IntNote = %q", recs[0].Movement.IntNote)
	}
}

func TestFileStore_ConfirmWithoutSubmit(t *testing.T) {
	s, _ := NewFileStore("")
	if err := s.Confirm(context.Background()); !errors.Is(err, ErrNoPendingSubmit) {
		t.Errorf("Confirm without Submit = %v, want ErrNoPendingSubmit", err)
	}
}

func TestFileStore_LikeFilterExactWrapping(t *testing.T) {
	ctx := context.Background()
	s, _ := NewFileStore("")
	mustConfirm(t, s, testMovement("job:n/a #ABO_11_2#"))

	// "#ABO_1_2#" must not match the stored "#ABO_11_2#".
	q, err := s.Query(ctx, "intNote like '%#ABO_1_2#%'", "dedup")
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	recs, err := s.List(ctx, q)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(recs) != 0 {
		t.Errorf("wrapped identity #ABO_1_2# matched stored #ABO_11_2#")
	}

	q, _ = s.Query(ctx, "intNote like '%#ABO_11_2#%'", "dedup")
	recs, err = s.List(ctx, q)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(recs) != 1 {
		t.Errorf("got %d records for exact identity, want 1", len(recs))
	}
}

func TestFileStore_QueryRejectsBadFilter(t *testing.T) {
	s, _ := NewFileStore("")
	if _, err := s.Query(context.Background(), "drop table movements", "bad"); err == nil {
		t.Error("expected error for unsupported filter expression")
	}

	q := &Query{Filter: "unknownField like '%x%'"}
	if _, err := s.List(context.Background(), q); err == nil {
		t.Error("expected error for unknown filter field")
	}
}

func TestFileStore_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "ledger.json")

	s, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}
	mustConfirm(t, s, testMovement("#ABO_7_123#"))

	reopened, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	q, _ := reopened.Query(ctx, "intNote like '%#ABO_7_123#%'", "reopen check")
	recs, err := reopened.List(ctx, q)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("got %d records after reopen, want 1", len(recs))
	}
	if !recs[0].Movement.Amount.Equal(decimal.RequireFromString("1000.50")) {
		t.Errorf("Amount after reopen = %s", recs[0].Movement.Amount)
	}

	// IDs keep advancing past reloaded records.
	id := mustConfirm(t, reopened, testMovement("#ABO_8_123#"))
	if id != "mov-2" {
		t.Errorf("next record ID = %q, want mov-2", id)
	}
}

func TestFileStore_ReadOnlyRejectsWrites(t *testing.T) {
	ctx := context.Background()
	s, _ := NewFileStore("")
	mustConfirm(t, s, testMovement("#ABO_1_1#"))

	ro := s.ReadOnly()
	if _, err := ro.Submit(ctx, testMovement("#ABO_2_1#")); !errors.Is(err, ErrReadOnly) {
		t.Errorf("Submit on read-only client = %v, want ErrReadOnly", err)
	}
	if err := ro.Confirm(ctx); !errors.Is(err, ErrReadOnly) {
		t.Errorf("Confirm on read-only client = %v, want ErrReadOnly", err)
	}

	q, err := ro.Query(ctx, "intNote like '%#ABO_1_1#%'", "ro lookup")
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	recs, err := ro.List(ctx, q)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(recs) != 1 {
		t.Errorf("read-only lookup got %d records, want 1", len(recs))
	}
}
