// Package idgen produces surrogate keys for fact rows.
package idgen

import (
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"datalake/internal/table"
)

// Generator hands out strictly increasing ids. Implementations are safe for
// concurrent use.
type Generator interface {
	Next() (any, error)
	// Type is the column type of the produced values.
	Type() table.Type
}

// Sequence yields 1, 2, 3, ... so reruns over the same input produce the
// same ids.
type Sequence struct {
	mu   sync.Mutex
	next int64
}

// NewSequence starts at start.
func NewSequence(start int64) *Sequence { return &Sequence{next: start} }

func (s *Sequence) Next() (any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := s.next
	s.next++
	return v, nil
}

func (*Sequence) Type() table.Type { return table.Int }

// UUIDv7 yields time-ordered UUIDs; the library guarantees monotonicity
// within a process.
type UUIDv7 struct{}

func (UUIDv7) Next() (any, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("idgen: %w", err)
	}
	return id.String(), nil
}

func (UUIDv7) Type() table.Type { return table.Text }

// New selects a generator by name: "sequence" (default) or "uuidv7".
func New(kind string) (Generator, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "", "sequence", "seq":
		return NewSequence(1), nil
	case "uuidv7", "uuid":
		return UUIDv7{}, nil
	default:
		return nil, fmt.Errorf("idgen: unknown generator %q", kind)
	}
}
