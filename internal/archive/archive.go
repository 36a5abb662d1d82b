package archive

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/zeebo/blake3"
)

// ErrNotFound is returned when no layer holds the requested record.
var ErrNotFound = errors.New("record not found")

// ErrCorruptRecord is returned when a record's digest does not match its
// decompressed contents.
var ErrCorruptRecord = errors.New("record digest mismatch")

// Reader is a read-only archive layer.
type Reader interface {
	// Get returns the record stored under path, or an error wrapping
	// ErrNotFound.
	Get(ctx context.Context, path string) ([]byte, error)

	// List returns every record path in lexical order.
	List(ctx context.Context) ([]string, error)
}

// Writer is an archive layer that accepts records.
type Writer interface {
	Reader

	// Put stores data under path, replacing any existing record.
	Put(ctx context.Context, path string, data []byte) error
}

// CleanPath normalizes a record path: forward slashes, no leading slash.
func CleanPath(path string) string {
	path = strings.ReplaceAll(path, `\`, "/")
	return strings.TrimLeft(path, "/")
}

// Digest returns the blake3 digest stored next to every record.
func Digest(data []byte) []byte {
	sum := blake3.Sum256(data)
	return sum[:]
}

// Memory is an in-process archive. It backs baked content and tests.
type Memory struct {
	mu      sync.RWMutex
	records map[string][]byte
}

// NewMemory returns an empty in-memory archive.
func NewMemory() *Memory {
	return &Memory{records: make(map[string][]byte)}
}

func (m *Memory) Get(_ context.Context, path string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.records[CleanPath(path)]
	if !ok {
		return nil, fmt.Errorf("%s: %w", path, ErrNotFound)
	}
	return append([]byte(nil), data...), nil
}

func (m *Memory) Put(_ context.Context, path string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.records[CleanPath(path)] = append([]byte(nil), data...)
	return nil
}

func (m *Memory) List(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	paths := make([]string, 0, len(m.records))
	for p := range m.records {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths, nil
}
