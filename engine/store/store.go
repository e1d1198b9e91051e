// Package store implements the vector store (C4): insertion, retrieval,
// eviction, and observability over StoreEntry records, transparently
// dequantizing on read regardless of how an entry is physically stored.
package store

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/vectorstream/patternengine/engine"
	"github.com/vectorstream/patternengine/engine/quantize"
)

// journalBackoff holds the delays applied between journal-append retries,
// per spec.md section 7's Transient error handling (1/5/25 ms backoff, up
// to 3 retries beyond the initial attempt).
var journalBackoff = []time.Duration{time.Millisecond, 5 * time.Millisecond, 25 * time.Millisecond}

// Config configures a Store's fixed dimension and eviction policy.
type Config struct {
	Dim        int
	MaxEntries int           // 0 = unbounded
	TTL        time.Duration // 0 = no TTL eviction
	Journal    Journal       // nil = no persistence (journal writes skipped)
}

// Stats reports store-wide observability counters, per spec.md section
// 4.4.
type Stats struct {
	Count          int
	BytesFull      int
	BytesQ8        int
	BytesQ4        int
	DroppedInserts int64
	SearchOnlyMode bool
}

// Store holds a fixed-dimension set of StoreEntry records with an
// access-ordered index for LRU eviction. Store does no locking of its own
// and is not safe for concurrent use; engine.Orchestrator calls Insert
// without holding any lock around the store.
type Store struct {
	cfg Config

	entries map[engine.PatternId]*engine.StoreEntry
	// lru is a doubly linked list of pattern ids ordered by last access,
	// most-recent at the front, for O(1) tail eviction.
	lru *accessList

	droppedInserts int64
	refuseAfter    int // backpressure: 0 = never refuse

	// searchOnly is set once journal persistence exhausts its retry budget;
	// further inserts are refused until the store is reconstructed with a
	// healthy journal, but reads and searches keep working.
	searchOnly bool
}

// New constructs a Store for fixed-dimension vectors.
func New(cfg Config) *Store {
	return &Store{
		cfg:     cfg,
		entries: make(map[engine.PatternId]*engine.StoreEntry),
		lru:     newAccessList(),
	}
}

// SetAdmissionLimit configures backpressure: once the store holds limit
// live entries, further inserts are refused (spec.md section 4.6's
// "orchestrator drops inserts first" policy operationalized at the store).
// A limit of 0 disables the refusal (the default).
func (s *Store) SetAdmissionLimit(limit int) { s.refuseAfter = limit }

// Insert adds vector under id (generating one if empty) at the given
// quantization level, returning the assigned id. If an admission limit is
// set and the store is at or above it, Insert returns (id, false, nil):
// the id is still computed but nothing is stored, and DroppedInserts
// increments.
func (s *Store) Insert(id engine.PatternId, vector []float64, bits engine.QuantizationBits, meta engine.SequenceMetadata, nowNs int64) (engine.PatternId, bool, error) {
	if len(vector) != s.cfg.Dim {
		return "", false, fmt.Errorf("store: vector dim %d != store dim %d: %w", len(vector), s.cfg.Dim, engine.ErrDimensionMismatch)
	}
	if id == "" {
		if len(vector) == 0 {
			// No samples to hash against (a zero-dimension store, or a
			// metadata-only insert once one exists): fall back to a random
			// id rather than collapsing every such insert at a given
			// timestamp onto the same hash.
			id = engine.GenerateFallbackPatternId()
		} else {
			id = engine.GeneratePatternId(nowNs, vector)
		}
	}

	if s.refuseAfter > 0 && len(s.entries) >= s.refuseAfter {
		s.droppedInserts++
		return id, false, nil
	}
	if s.searchOnly {
		s.droppedInserts++
		return id, false, fmt.Errorf("store: in search-only mode after persistent journal failures: %w", engine.ErrTransient)
	}

	entry := &engine.StoreEntry{
		ID:               id,
		Metadata:         meta,
		InsertionTimeNs:  nowNs,
		LastAccessTimeNs: nowNs,
	}

	switch bits {
	case engine.Full:
		entry.Vector = append([]float64(nil), vector...)
		entry.Quantized = engine.QuantizedVector{Bits: engine.Full, Dim: s.cfg.Dim}
	case engine.Bits8:
		q, err := quantize.Quantize8(vector)
		if err != nil {
			return "", false, err
		}
		entry.Quantized = q
	case engine.Bits4:
		q, err := quantize.Quantize4(vector)
		if err != nil {
			return "", false, err
		}
		entry.Quantized = q
	default:
		return "", false, engine.InvalidInputf("store: unknown quantization bits %d", bits)
	}

	s.entries[id] = entry
	s.lru.pushFront(id)
	if s.cfg.MaxEntries > 0 && len(s.entries) > s.cfg.MaxEntries {
		s.EvictTail(len(s.entries) - s.cfg.MaxEntries)
	}

	if s.cfg.Journal != nil {
		if err := s.appendJournalWithRetry(entry); err != nil {
			logrus.Errorf("store: journal append for %s failed after retries, degrading to search-only mode: %v", id, err)
			s.searchOnly = true
		}
	}

	return id, true, nil
}

// SearchOnly reports whether the store has degraded to search-only mode
// after exhausting the journal-append retry budget.
func (s *Store) SearchOnly() bool { return s.searchOnly }

// Get returns the entry for id, dequantizing transparently, and updates
// its last-access time.
func (s *Store) Get(id engine.PatternId, nowNs int64) (*engine.StoreEntry, []float64, error) {
	entry, ok := s.entries[id]
	if !ok || entry.Tombstoned {
		return nil, nil, fmt.Errorf("store: %s: %w", id, engine.ErrNotFound)
	}
	entry.LastAccessTimeNs = nowNs
	s.lru.moveToFront(id)

	vec, err := s.vectorOf(entry)
	if err != nil {
		return nil, nil, err
	}
	return entry, vec, nil
}

// vectorOf returns the full-precision vector for an entry, dequantizing if
// necessary.
func (s *Store) vectorOf(entry *engine.StoreEntry) ([]float64, error) {
	switch entry.Quantized.Bits {
	case engine.Full:
		return entry.Vector, nil
	case engine.Bits8:
		return quantize.Dequantize8(entry.Quantized)
	case engine.Bits4:
		return quantize.Dequantize4(entry.Quantized)
	default:
		return nil, engine.InvalidInputf("store: entry %s has unknown quantization", entry.ID)
	}
}

// Remove deletes id from the store.
func (s *Store) Remove(id engine.PatternId) error {
	if _, ok := s.entries[id]; !ok {
		return fmt.Errorf("store: %s: %w", id, engine.ErrNotFound)
	}
	delete(s.entries, id)
	s.lru.remove(id)
	if s.cfg.Journal != nil {
		_ = s.cfg.Journal.Remove(string(id))
	}
	return nil
}

// EvictTail evicts the n least-recently-accessed entries, returning their
// ids.
func (s *Store) EvictTail(n int) []engine.PatternId {
	evicted := make([]engine.PatternId, 0, n)
	for i := 0; i < n; i++ {
		id, ok := s.lru.popBack()
		if !ok {
			break
		}
		delete(s.entries, id)
		if s.cfg.Journal != nil {
			_ = s.cfg.Journal.Remove(string(id))
		}
		evicted = append(evicted, id)
	}
	return evicted
}

// EvictExpired evicts entries whose TTL (measured from InsertionTimeNs) has
// elapsed as of now. A zero-valued Config.TTL disables TTL eviction.
func (s *Store) EvictExpired(now time.Time) []engine.PatternId {
	if s.cfg.TTL <= 0 {
		return nil
	}
	cutoff := now.Add(-s.cfg.TTL).UnixNano()
	var evicted []engine.PatternId
	for id, entry := range s.entries {
		if entry.InsertionTimeNs < cutoff {
			delete(s.entries, id)
			s.lru.remove(id)
			if s.cfg.Journal != nil {
				_ = s.cfg.Journal.Remove(string(id))
			}
			evicted = append(evicted, id)
		}
	}
	sort.Slice(evicted, func(i, j int) bool { return evicted[i] < evicted[j] })
	return evicted
}

// Len returns the number of live entries.
func (s *Store) Len() int { return len(s.entries) }

// Dim returns the store's fixed dimension.
func (s *Store) Dim() int { return s.cfg.Dim }

// Stats reports observability counters across all stored entries.
func (s *Store) Stats() Stats {
	stats := Stats{Count: len(s.entries), DroppedInserts: s.droppedInserts, SearchOnlyMode: s.searchOnly}
	for _, e := range s.entries {
		switch e.Quantized.Bits {
		case engine.Full:
			stats.BytesFull += len(e.Vector) * 8
		case engine.Bits8:
			stats.BytesQ8 += len(e.Quantized.Codes)
		case engine.Bits4:
			stats.BytesQ4 += len(e.Quantized.Codes)
		}
	}
	return stats
}

// All returns every live entry's id and dequantized vector, used by
// exhaustive (non-indexed) callers such as HNSW bulk rebuild.
func (s *Store) All() (map[engine.PatternId][]float64, error) {
	out := make(map[engine.PatternId][]float64, len(s.entries))
	for id, entry := range s.entries {
		vec, err := s.vectorOf(entry)
		if err != nil {
			return nil, err
		}
		out[id] = vec
	}
	return out, nil
}

// appendJournalWithRetry calls appendJournal, retrying up to
// len(journalBackoff) times with the configured backoff between attempts.
// Each failed attempt is logged; the final error (if any) is returned
// wrapped in engine.ErrTransient for the caller to degrade on.
func (s *Store) appendJournalWithRetry(entry *engine.StoreEntry) error {
	var err error
	for attempt := 0; ; attempt++ {
		err = s.appendJournal(entry)
		if err == nil {
			return nil
		}
		if attempt >= len(journalBackoff) {
			break
		}
		logrus.Warnf("store: journal append attempt %d for %s failed: %v", attempt+1, entry.ID, err)
		time.Sleep(journalBackoff[attempt])
	}
	return fmt.Errorf("store: journal append failed after %d attempts: %w: %v", len(journalBackoff)+1, engine.ErrTransient, err)
}

func (s *Store) appendJournal(entry *engine.StoreEntry) error {
	tag := "full"
	var payload []byte
	var err error
	switch entry.Quantized.Bits {
	case engine.Full:
		payload, err = json.Marshal(entry.Vector)
	case engine.Bits8:
		tag = "q8"
		payload, err = json.Marshal(entry.Quantized)
	case engine.Bits4:
		tag = "q4"
		payload, err = json.Marshal(entry.Quantized)
	}
	if err != nil {
		return err
	}
	metaJSON, err := json.Marshal(entry.Metadata)
	if err != nil {
		return err
	}
	return s.cfg.Journal.Append(JournalRecord{
		PatternID:       string(entry.ID),
		QuantizationTag: tag,
		Payload:         payload,
		MetadataJSON:    string(metaJSON),
		TimestampNs:     entry.InsertionTimeNs,
	})
}
