package journal_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xSpaceShard/starknet-devnet-go/core"
	"github.com/0xSpaceShard/starknet-devnet-go/journal"
)

type recordingReplayer struct {
	replayed []*core.Transaction
	err      error
}

func (r *recordingReplayer) Replay(tx *core.Transaction) error {
	if r.err != nil {
		return r.err
	}
	r.replayed = append(r.replayed, tx)
	return nil
}

func TestLoadMissingFileReturnsFileNotFound(t *testing.T) {
	err := journal.Load(filepath.Join(t.TempDir(), "missing.json"), &recordingReplayer{})
	assert.ErrorIs(t, err, core.ErrFileNotFound)
}

func TestLoadMalformedJSONReturnsFormatError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dump.json")
	writeFile(t, path, `not an array`)

	err := journal.Load(path, &recordingReplayer{})
	assert.ErrorIs(t, err, core.ErrFormatError)
}

func TestLoadReplaysEventsInOrderSkippingNonTransactionEvents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dump.json")
	w := journal.NewExitWriter(path)
	w.Append(journal.DumpEvent{
		Kind: journal.EventInvoke,
		Transaction: &core.Transaction{
			Kind: core.TransactionInvoke,
			Invoke: &core.InvokeTransaction{
				Hash: core.MustParseFelt("0x1"),
			},
		},
	})
	w.Append(journal.DumpEvent{Kind: journal.EventSetTime, Seconds: 100})
	w.Append(journal.DumpEvent{
		Kind: journal.EventInvoke,
		Transaction: &core.Transaction{
			Kind: core.TransactionInvoke,
			Invoke: &core.InvokeTransaction{
				Hash: core.MustParseFelt("0x2"),
			},
		},
	})
	require.NoError(t, w.Flush())

	replayer := &recordingReplayer{}
	require.NoError(t, journal.Load(path, replayer))
	require.Len(t, replayer.replayed, 2)
	assert.Equal(t, core.MustParseFelt("0x1"), replayer.replayed[0].Invoke.Hash)
	assert.Equal(t, core.MustParseFelt("0x2"), replayer.replayed[1].Invoke.Hash)
}

func TestLoadStopsOnReplayError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dump.json")
	w := journal.NewExitWriter(path)
	w.Append(journal.DumpEvent{
		Kind: journal.EventInvoke,
		Transaction: &core.Transaction{
			Kind:   core.TransactionInvoke,
			Invoke: &core.InvokeTransaction{Hash: core.MustParseFelt("0x1")},
		},
	})
	require.NoError(t, w.Flush())

	boom := assert.AnError
	err := journal.Load(path, &recordingReplayer{err: boom})
	assert.ErrorIs(t, err, boom)
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}
