// Package identity derives the idempotency key embedded in every movement
// written to the ledger. The key travels inside the movement's internal note,
// wrapped between '#' markers so it can be recovered later by pattern
// extraction and matched without partial-identity collisions.
package identity

import (
	"fmt"
	"regexp"
)

// Prefix marks identities produced by this importer.
const Prefix = "ABO"

var wrappedPattern = regexp.MustCompile(`#(` + Prefix + `_[^#]*)#`)

// ForTransaction derives the identity for a statement transaction. The result
// is a pure function of the document and account numbers; absent fields yield
// a degenerate but still deterministic identity (e.g. "ABO__").
func ForTransaction(documentNumber, accountNumber string) string {
	return fmt.Sprintf("%s_%s_%s", Prefix, documentNumber, accountNumber)
}

// Wrap encloses an identity in '#' markers for persistence inside a free-text
// note field.
func Wrap(id string) string {
	return "#" + id + "#"
}

// Extract recovers the first wrapped identity from arbitrary note text.
// Returns the empty string when the note carries none.
func Extract(note string) string {
	m := wrappedPattern.FindStringSubmatch(note)
	if m == nil {
		return ""
	}
	return m[1]
}
