package store

import (
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
)

// IDProvider mints entity identifiers such as "LOAN-…".
type IDProvider interface {
	NewID(prefix string) string
}

// UUIDProvider appends a random UUID to the prefix.
type UUIDProvider struct{}

func (UUIDProvider) NewID(prefix string) string {
	return prefix + "-" + uuid.NewString()
}

// SequenceProvider appends a process-wide monotonic counter. It keeps ids
// deterministic in tests.
type SequenceProvider struct {
	n atomic.Uint64
}

func (p *SequenceProvider) NewID(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, p.n.Add(1))
}
