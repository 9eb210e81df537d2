package history

import "sync"

// Log is an ordered, capped history of calculations, most recent first.
// Inserting past the limit evicts the oldest records.
//
// Log is safe for concurrent use; getters return copies.
type Log struct {
	mu       sync.RWMutex
	records  []Record
	limit    int
	onChange func([]Record)

	// notifyMu is held from a mutation through its onChange call, so
	// callbacks observe snapshots in mutation order.
	notifyMu sync.Mutex
}

// NewLog creates an empty log retaining at most limit records.
// A non-positive limit falls back to DefaultLimit.
func NewLog(limit int) *Log {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Log{
		records: make([]Record, 0, limit),
		limit:   limit,
	}
}

// OnChange registers fn to be called with a snapshot of the records after
// every mutation. Only one callback is kept. Calls are serialized in
// mutation order; fn must not mutate the log.
func (l *Log) OnChange(fn func([]Record)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onChange = fn
}

// Add inserts rec at the front of the log.
func (l *Log) Add(rec Record) {
	l.notifyMu.Lock()
	defer l.notifyMu.Unlock()

	l.mu.Lock()
	next := make([]Record, 0, l.limit)
	next = append(next, rec)
	next = append(next, l.records...)
	if len(next) > l.limit {
		next = next[:l.limit]
	}
	l.records = next
	snap, fn := l.snapshotLocked(), l.onChange
	l.mu.Unlock()

	if fn != nil {
		fn(snap)
	}
}

// Replace swaps in records wholesale, e.g. after loading from a Store.
// The input is copied and truncated to the limit.
func (l *Log) Replace(records []Record) {
	l.notifyMu.Lock()
	defer l.notifyMu.Unlock()

	l.mu.Lock()
	n := len(records)
	if n > l.limit {
		n = l.limit
	}
	l.records = make([]Record, n, l.limit)
	copy(l.records, records[:n])
	snap, fn := l.snapshotLocked(), l.onChange
	l.mu.Unlock()

	if fn != nil {
		fn(snap)
	}
}

// Clear removes every record.
func (l *Log) Clear() {
	l.Replace(nil)
}

// Records returns the records, most recent first.
func (l *Log) Records() []Record {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.snapshotLocked()
}

// Len returns the number of records.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.records)
}

// Get returns the record at index i (0 is most recent).
func (l *Log) Get(i int) (Record, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if i < 0 || i >= len(l.records) {
		return Record{}, false
	}
	return l.records[i], true
}

func (l *Log) snapshotLocked() []Record {
	out := make([]Record, len(l.records))
	copy(out, l.records)
	return out
}
