package journal_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xSpaceShard/starknet-devnet-go/journal"
)

func setTimeEvent(seconds uint64) journal.DumpEvent {
	return journal.DumpEvent{Kind: journal.EventSetTime, Seconds: seconds}
}

func TestExitWriterOnlyTouchesDiskOnFlush(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dump.json")
	w := journal.NewExitWriter(path)
	w.Append(setTimeEvent(1))
	w.Append(setTimeEvent(2))

	require.NoFileExists(t, path)
	require.NoError(t, w.Flush())
	require.FileExists(t, path)

	var events []json.RawMessage
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &events))
	assert.Len(t, events, 2)
}

func TestTransactionWriterAppendsIncrementally(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.json")
	w, err := journal.OpenTransactionWriter(path)
	require.NoError(t, err)
	defer w.Close()

	w.Append(setTimeEvent(1))
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var events []json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &events))
	assert.Len(t, events, 1)

	w.Append(setTimeEvent(2))
	raw, err = os.ReadFile(path)
	require.NoError(t, err)
	events = nil
	require.NoError(t, json.Unmarshal(raw, &events))
	assert.Len(t, events, 2)
}

func TestOpenTransactionWriterReopensExistingJournal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.json")
	w1, err := journal.OpenTransactionWriter(path)
	require.NoError(t, err)
	w1.Append(setTimeEvent(1))
	require.NoError(t, w1.Close())

	w2, err := journal.OpenTransactionWriter(path)
	require.NoError(t, err)
	defer w2.Close()
	w2.Append(setTimeEvent(2))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var events []json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &events))
	assert.Len(t, events, 2)
}

func TestTransactionWriterDeleteRemovesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.json")
	w, err := journal.OpenTransactionWriter(path)
	require.NoError(t, err)
	require.NoError(t, w.Delete(path))
	assert.NoFileExists(t, path)
}
