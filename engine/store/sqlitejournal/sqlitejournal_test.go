package sqlitejournal

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vectorstream/patternengine/engine/store"
)

func TestSQLiteJournal_RegistersFactory(t *testing.T) {
	assert.NotNil(t, store.NewSQLiteJournalFunc)
}

func TestSQLiteJournal_AppendLoadRemoveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	j, err := Open(path)
	require.NoError(t, err)
	defer j.Close()

	rec := store.JournalRecord{
		PatternID:       "p1",
		QuantizationTag: "full",
		Payload:         []byte("[1,2,3]"),
		MetadataJSON:    `{"source":"test"}`,
		TimestampNs:     123,
	}
	require.NoError(t, j.Append(rec))

	records, err := j.Load()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, rec.PatternID, records[0].PatternID)
	assert.Equal(t, rec.Payload, records[0].Payload)

	require.NoError(t, j.Remove("p1"))
	records, err = j.Load()
	require.NoError(t, err)
	assert.Len(t, records, 0)
}

func TestSQLiteJournal_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	j, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, j.Append(store.JournalRecord{PatternID: "p1", QuantizationTag: "q8", Payload: []byte("x"), MetadataJSON: "{}", TimestampNs: 1}))
	require.NoError(t, j.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	records, err := reopened.Load()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "p1", records[0].PatternID)
}
