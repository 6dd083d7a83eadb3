package record

import (
	"fmt"
	"sync"
	"time"
)

// Entry is one image written to disk.
type Entry struct {
	Identity  string    `json:"identity"`
	Checksum  string    `json:"checksum"`
	Path      string    `json:"path"`
	URL       string    `json:"url"`
	TombID    string    `json:"tomb_id"`
	Section   string    `json:"section"`
	Size      int64     `json:"size"`
	WrittenAt time.Time `json:"written_at"`
}

// Record is the set of images already written. It only grows; callers add
// an entry after the file is on disk, never before.
type Record interface {
	// Has reports whether identity was already written or aliased
	Has(identity string) bool
	// HasChecksum returns the identity that first wrote content with sum
	HasChecksum(sum string) (string, bool)
	// PathOwner returns the identity that claimed path
	PathOwner(path string) (string, bool)
	// Add records a written file
	Add(e Entry) error
	// Alias records identity as a duplicate of content already written
	Alias(identity, checksum string) error
	// Entries returns the files written through this record, in order
	Entries() []Entry
	// Len is the number of known identities
	Len() int
	Close() error
}

// Memory is a per-run Record. All access goes through one lock so a
// concurrent caller still observes identity-after-write.
type Memory struct {
	mu         sync.RWMutex
	identities map[string]bool
	checksums  map[string]string
	paths      map[string]string
	entries    []Entry
}

// NewMemory returns an empty record.
func NewMemory() *Memory {
	return &Memory{
		identities: make(map[string]bool),
		checksums:  make(map[string]string),
		paths:      make(map[string]string),
	}
}

func (m *Memory) Has(identity string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.identities[identity]
}

func (m *Memory) HasChecksum(sum string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.checksums[sum]
	return id, ok
}

func (m *Memory) PathOwner(path string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.paths[path]
	return id, ok
}

func (m *Memory) Add(e Entry) error {
	if e.Identity == "" {
		return fmt.Errorf("record entry without identity")
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.remember(e)
	m.entries = append(m.entries, e)
	return nil
}

func (m *Memory) Alias(identity, checksum string) error {
	if identity == "" {
		return fmt.Errorf("record alias without identity")
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.identities[identity] = true
	if _, ok := m.checksums[checksum]; !ok && checksum != "" {
		m.checksums[checksum] = identity
	}
	return nil
}

// remember indexes e without listing it as written in this run.
// Callers hold the write lock.
func (m *Memory) remember(e Entry) {
	m.identities[e.Identity] = true
	if e.Checksum != "" {
		if _, ok := m.checksums[e.Checksum]; !ok {
			m.checksums[e.Checksum] = e.Identity
		}
	}
	if e.Path != "" {
		m.paths[e.Path] = e.Identity
	}
}

func (m *Memory) Entries() []Entry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Entry, len(m.entries))
	copy(out, m.entries)
	return out
}

func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.identities)
}

func (m *Memory) Close() error { return nil }
