// Package dedup decides whether a transaction identity is already recorded in
// the ledger. A lookup failure is always surfaced as an error, never as "not
// found" — treating an unreachable ledger as safe to import would defeat the
// idempotency guarantee.
package dedup

import (
	"context"
	"fmt"

	"github.com/Spoje-NET/pohoda-abo-importer/internal/identity"
	"github.com/Spoje-NET/pohoda-abo-importer/internal/ledger"
)

// Checker queries the ledger for movements carrying a wrapped identity.
// It must be given an isolated (typically read-only) client so a lookup can
// never touch state being staged for a pending write.
type Checker struct {
	client ledger.Client
}

// NewChecker creates a checker over the given isolated ledger client.
func NewChecker(client ledger.Client) *Checker {
	return &Checker{client: client}
}

// Exists reports whether any ledger record's internal note contains the
// wrapped identity. The '#' wrapping makes the substring match exact:
// "ABO_1_2" cannot match a stored "ABO_11_2".
func (c *Checker) Exists(ctx context.Context, id string) (bool, error) {
	filter := fmt.Sprintf("intNote like '%%%s%%'", identity.Wrap(id))

	q, err := c.client.Query(ctx, filter, "duplicate check "+id)
	if err != nil {
		return false, fmt.Errorf("duplicate check query for %s: %w", id, err)
	}

	records, err := c.client.List(ctx, q)
	if err != nil {
		return false, fmt.Errorf("duplicate check lookup for %s: %w", id, err)
	}
	return len(records) > 0, nil
}
