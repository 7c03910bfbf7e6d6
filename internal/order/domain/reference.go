package domain

import (
	"crypto/rand"
	"io"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// ReferenceGenerator issues ULID order references. Monotonic entropy keeps
// references sortable within the same millisecond.
type ReferenceGenerator struct {
	mu      sync.Mutex
	entropy io.Reader
}

func NewReferenceGenerator() *ReferenceGenerator {
	return &ReferenceGenerator{entropy: ulid.Monotonic(rand.Reader, 0)}
}

func (g *ReferenceGenerator) Next(at time.Time) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(at), g.entropy).String()
}
