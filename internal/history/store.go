package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// ErrCorrupt is returned by a Store when the persisted value cannot be
// decoded.
var ErrCorrupt = errors.New("history: stored value is corrupt")

// Store persists the full ordered history sequence under StorageKey.
//
// Implementations:
//   - FileStore: JSON key/value file on disk (default)
//   - BadgerStore: embedded BadgerDB
//   - MemoryStore: in-process, for tests
type Store interface {
	// Load returns the stored sequence, or nil if nothing has been saved.
	Load(ctx context.Context) ([]Record, error)

	// Save replaces the stored sequence.
	Save(ctx context.Context, records []Record) error
}

func encodeRecords(records []Record) ([]byte, error) {
	if records == nil {
		records = []Record{}
	}
	return json.Marshal(records)
}

func decodeRecords(data []byte) ([]Record, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return records, nil
}

// MemoryStore keeps the encoded sequence in memory.
type MemoryStore struct {
	mu   sync.Mutex
	data []byte
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Load decodes the stored value.
func (s *MemoryStore) Load(_ context.Context) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return decodeRecords(s.data)
}

// Save encodes and stores records.
func (s *MemoryStore) Save(_ context.Context, records []Record) error {
	data, err := encodeRecords(records)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = data
	return nil
}

// SetRaw overwrites the stored bytes verbatim.
func (s *MemoryStore) SetRaw(data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = append([]byte(nil), data...)
}

// Persister keeps a Log and a Store in sync: it loads once, then writes
// the full sequence back after every mutation.
type Persister struct {
	store  Store
	log    *Log
	logger *slog.Logger

	mu      sync.Mutex
	lastErr error
}

// Attach loads the stored history into log and subscribes to its changes.
// A load failure is logged and treated as an empty history; it never
// prevents the caller from starting.
func Attach(ctx context.Context, store Store, log *Log, logger *slog.Logger) *Persister {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Persister{store: store, log: log, logger: logger}

	records, err := store.Load(ctx)
	if err != nil {
		logger.Warn("failed to load history, starting empty", "error", err)
		records = nil
	}
	log.Replace(records)
	log.OnChange(p.save)

	logger.Debug("history loaded", "records", log.Len())
	return p
}

func (p *Persister) save(records []Record) {
	err := p.store.Save(context.Background(), records)
	if err != nil {
		p.logger.Error("failed to save history", "error", err)
	}
	p.mu.Lock()
	p.lastErr = err
	p.mu.Unlock()
}

// LastError returns the result of the most recent save.
func (p *Persister) LastError() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastErr
}
