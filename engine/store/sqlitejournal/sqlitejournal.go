// Package sqlitejournal provides an on-disk, SQLite-backed implementation
// of engine/store.Journal. Importing this package for its side effect
// registers it as engine/store's opt-in durable backend; nothing else in
// the module imports it, so a default build of the pattern engine never
// links modernc.org/sqlite.
package sqlitejournal

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/vectorstream/patternengine/engine/store"
)

func init() {
	store.NewSQLiteJournalFunc = Open
}

// Journal is a store.Journal backed by a single SQLite table.
type Journal struct {
	db *sql.DB
}

// Open opens (creating if absent) a SQLite database at path and ensures
// its schema exists.
func Open(path string) (store.Journal, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlitejournal: open %s: %w", path, err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlitejournal: set WAL mode: %w", err)
	}
	j := &Journal{db: db}
	if err := j.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return j, nil
}

func (j *Journal) migrate() error {
	_, err := j.db.Exec(`CREATE TABLE IF NOT EXISTS journal_records (
		pattern_id       TEXT PRIMARY KEY,
		quantization_tag TEXT NOT NULL,
		payload          BLOB NOT NULL,
		metadata_json    TEXT NOT NULL,
		timestamp_ns     INTEGER NOT NULL,
		seq              INTEGER
	)`)
	if err != nil {
		return fmt.Errorf("sqlitejournal: create table: %w", err)
	}
	return nil
}

func (j *Journal) Append(rec store.JournalRecord) error {
	_, err := j.db.Exec(`INSERT INTO journal_records
		(pattern_id, quantization_tag, payload, metadata_json, timestamp_ns, seq)
		VALUES (?, ?, ?, ?, ?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM journal_records))
		ON CONFLICT(pattern_id) DO UPDATE SET
			quantization_tag = excluded.quantization_tag,
			payload = excluded.payload,
			metadata_json = excluded.metadata_json,
			timestamp_ns = excluded.timestamp_ns`,
		rec.PatternID, rec.QuantizationTag, rec.Payload, rec.MetadataJSON, rec.TimestampNs)
	if err != nil {
		return fmt.Errorf("sqlitejournal: append %s: %w", rec.PatternID, err)
	}
	return nil
}

func (j *Journal) Remove(patternID string) error {
	if _, err := j.db.Exec(`DELETE FROM journal_records WHERE pattern_id = ?`, patternID); err != nil {
		return fmt.Errorf("sqlitejournal: remove %s: %w", patternID, err)
	}
	return nil
}

// Compact is a no-op for sqlitejournal: rows are deleted eagerly by
// Remove, so there is nothing to reclaim beyond what VACUUM would do,
// which is out of scope here.
func (j *Journal) Compact() (int, error) {
	var n int
	if err := j.db.QueryRow(`SELECT COUNT(*) FROM journal_records`).Scan(&n); err != nil {
		return 0, fmt.Errorf("sqlitejournal: count: %w", err)
	}
	return n, nil
}

func (j *Journal) Load() ([]store.JournalRecord, error) {
	rows, err := j.db.Query(`SELECT pattern_id, quantization_tag, payload, metadata_json, timestamp_ns
		FROM journal_records ORDER BY seq ASC`)
	if err != nil {
		return nil, fmt.Errorf("sqlitejournal: load: %w", err)
	}
	defer rows.Close()

	var out []store.JournalRecord
	for rows.Next() {
		var rec store.JournalRecord
		if err := rows.Scan(&rec.PatternID, &rec.QuantizationTag, &rec.Payload, &rec.MetadataJSON, &rec.TimestampNs); err != nil {
			return nil, fmt.Errorf("sqlitejournal: scan: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlitejournal: rows: %w", err)
	}
	return out, nil
}

func (j *Journal) Close() error {
	return j.db.Close()
}
