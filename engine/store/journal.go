package store

import "time"

// JournalRecord is the persisted, append-only log record backing a Store,
// per spec.md section 6: (pattern_id, quantization_tag, payload,
// metadata_json, timestamp).
type JournalRecord struct {
	PatternID      string
	QuantizationTag string // "full", "q8", "q4"
	Payload        []byte // encoded vector or quantized codes
	MetadataJSON   string
	TimestampNs    int64
}

// Journal is the append-only persistence backend for a Store. Append/Remove
// calls here are best-effort durability, not a transactional guarantee
// (spec.md's non-goals exclude cross-store transactions).
type Journal interface {
	Append(rec JournalRecord) error
	Remove(patternID string) error
	// Compact rewrites the log to drop removed/tombstoned records. Returns
	// the number of records retained.
	Compact() (int, error)
	// Load replays the full current log, used to rebuild a Store on
	// startup.
	Load() ([]JournalRecord, error)
	Close() error
}

// MemoryJournal is the default, in-memory Journal: a map keyed by pattern
// id. It provides the Journal contract without any on-disk durability,
// matching the teacher's preference for a zero-dependency default backend
// with pluggable, heavier alternatives registered separately (see
// NewSQLiteJournalFunc).
type MemoryJournal struct {
	records map[string]JournalRecord
	order   []string
}

// NewMemoryJournal constructs an empty MemoryJournal.
func NewMemoryJournal() *MemoryJournal {
	return &MemoryJournal{records: make(map[string]JournalRecord)}
}

func (j *MemoryJournal) Append(rec JournalRecord) error {
	if rec.TimestampNs == 0 {
		rec.TimestampNs = time.Now().UnixNano()
	}
	if _, exists := j.records[rec.PatternID]; !exists {
		j.order = append(j.order, rec.PatternID)
	}
	j.records[rec.PatternID] = rec
	return nil
}

func (j *MemoryJournal) Remove(patternID string) error {
	delete(j.records, patternID)
	return nil
}

func (j *MemoryJournal) Compact() (int, error) {
	kept := j.order[:0]
	for _, id := range j.order {
		if _, ok := j.records[id]; ok {
			kept = append(kept, id)
		}
	}
	j.order = kept
	return len(j.order), nil
}

func (j *MemoryJournal) Load() ([]JournalRecord, error) {
	out := make([]JournalRecord, 0, len(j.order))
	for _, id := range j.order {
		if rec, ok := j.records[id]; ok {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (j *MemoryJournal) Close() error { return nil }

// NewSQLiteJournalFunc is set by engine/store/sqlitejournal's init() when
// that package is imported (for its side effect) anywhere in the program.
// It stays nil otherwise, so importing the sqlite-backed journal is
// strictly opt-in — the default path never links modernc.org/sqlite.
var NewSQLiteJournalFunc func(path string) (Journal, error)
