package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
)

// FileStore is a ledger driver backed by a single JSON file. It implements
// the full Client contract including LIKE-pattern filtering and two-phase
// submit/confirm, and doubles as the offline backend for dry runs and tests.
// An empty path keeps all records in memory only.
type FileStore struct {
	path string

	mu      sync.Mutex
	records []Record
	pending *Record
	nextID  int
}

// NewFileStore opens the store at path, loading any previously confirmed
// records. Pass an empty path for a memory-only store.
func NewFileStore(path string) (*FileStore, error) {
	s := &FileStore{path: path, nextID: 1}
	if path == "" {
		return s, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open ledger store: %w", err)
	}

	if err := json.Unmarshal(data, &s.records); err != nil {
		return nil, fmt.Errorf("decode ledger store %s: %w", path, err)
	}
	s.nextID = len(s.records) + 1
	return s, nil
}

// Query validates and prepares a lookup.
func (s *FileStore) Query(ctx context.Context, filter, label string) (*Query, error) {
	if _, _, err := parseFilter(filter); err != nil {
		return nil, err
	}
	return &Query{Filter: filter, Label: label}, nil
}

// List executes a prepared lookup over confirmed records. Staged but
// unconfirmed movements are never visible to lookups.
func (s *FileStore) List(ctx context.Context, q *Query) ([]Record, error) {
	field, pattern, err := parseFilter(q.Filter)
	if err != nil {
		return nil, err
	}
	match, err := compileLike(pattern)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Record
	for _, rec := range s.records {
		value, err := fieldValue(rec, field)
		if err != nil {
			return nil, err
		}
		if match(value) {
			out = append(out, rec)
		}
	}
	return out, nil
}

// Submit stages a movement. A second Submit before Confirm replaces the
// staged movement; only Confirm makes it durable.
func (s *FileStore) Submit(ctx context.Context, m Movement) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := fmt.Sprintf("mov-%d", s.nextID)
	s.nextID++
	s.pending = &Record{ID: id, Movement: m}
	return id, nil
}

// Confirm finalizes the staged movement and persists the store.
func (s *FileStore) Confirm(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pending == nil {
		return ErrNoPendingSubmit
	}
	s.records = append(s.records, *s.pending)
	s.pending = nil

	if err := s.persistLocked(); err != nil {
		// Roll back so a retried Submit/Confirm pair stays consistent.
		s.records = s.records[:len(s.records)-1]
		return err
	}
	return nil
}

// ReadOnly returns a view of the store that can look records up but rejects
// writes. The duplicate checker uses it so lookups can never touch a staged
// movement.
func (s *FileStore) ReadOnly() Client {
	return readOnlyClient{s}
}

// persistLocked writes the record set to disk atomically. Callers hold mu.
func (s *FileStore) persistLocked() error {
	if s.path == "" {
		return nil
	}

	data, err := json.MarshalIndent(s.records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode ledger store: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".ledger-store-*")
	if err != nil {
		return fmt.Errorf("persist ledger store: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("persist ledger store: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("persist ledger store: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("persist ledger store: %w", err)
	}
	return nil
}

type readOnlyClient struct {
	s *FileStore
}

func (r readOnlyClient) Query(ctx context.Context, filter, label string) (*Query, error) {
	return r.s.Query(ctx, filter, label)
}

func (r readOnlyClient) List(ctx context.Context, q *Query) ([]Record, error) {
	return r.s.List(ctx, q)
}

func (r readOnlyClient) Submit(ctx context.Context, m Movement) (string, error) {
	return "", ErrReadOnly
}

func (r readOnlyClient) Confirm(ctx context.Context) error {
	return ErrReadOnly
}

var filterPattern = regexp.MustCompile(`^(\w+)\s+like\s+'([^']*)'$`)

// parseFilter splits a "field like 'pattern'" expression.
func parseFilter(filter string) (field, pattern string, err error) {
	m := filterPattern.FindStringSubmatch(strings.TrimSpace(filter))
	if m == nil {
		return "", "", fmt.Errorf("ledger: unsupported filter expression %q", filter)
	}
	return m[1], m[2], nil
}

// compileLike turns a LIKE pattern with % wildcards into a matcher.
func compileLike(pattern string) (func(string) bool, error) {
	var sb strings.Builder
	sb.WriteString("^")
	for i, part := range strings.Split(pattern, "%") {
		if i > 0 {
			sb.WriteString(".*")
		}
		sb.WriteString(regexp.QuoteMeta(part))
	}
	sb.WriteString("$")

	re, err := regexp.Compile(sb.String())
	if err != nil {
		return nil, fmt.Errorf("ledger: invalid LIKE pattern %q: %w", pattern, err)
	}
	return re.MatchString, nil
}

// fieldValue resolves the filterable fields of a record.
func fieldValue(rec Record, field string) (string, error) {
	switch field {
	case "intNote":
		return rec.Movement.IntNote, nil
	case "description":
		return rec.Movement.Description, nil
	default:
		return "", fmt.Errorf("ledger: unknown filter field %q", field)
	}
}
