package testutil

import (
	"fmt"
	"sync"
)

// SequentialKeys generates "<prefix>-0001", "<prefix>-0002", ...
//
// It stands in for UUIDv7 keys so stored rows and golden traces are
// byte-identical across runs. Generate implements grid.KeyGenerator, and the
// method value fits store.WithKeyFunc.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type SequentialKeys struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewSequentialKeys creates a generator. An empty prefix means "key".
func NewSequentialKeys(prefix string) *SequentialKeys {
	if prefix == "" {
		prefix = "key"
	}
	return &SequentialKeys{prefix: prefix}
}

// Generate returns the next key.
func (g *SequentialKeys) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%04d", g.prefix, g.n)
}

// Reset restarts the sequence.
func (g *SequentialKeys) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n = 0
}
