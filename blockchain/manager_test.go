package blockchain_test

import (
	"testing"

	"github.com/NethermindEth/juno/core/felt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xSpaceShard/starknet-devnet-go/blockchain"
	"github.com/0xSpaceShard/starknet-devnet-go/core"
	"github.com/0xSpaceShard/starknet-devnet-go/state"
)

type fakeNotifier struct {
	newHeads []*core.Block
	reorgs   [][2]uint64
	rejected []*felt.Felt
}

func (f *fakeNotifier) PublishNewHead(b *core.Block) { f.newHeads = append(f.newHeads, b) }
func (f *fakeNotifier) PublishReorg(start, end uint64) {
	f.reorgs = append(f.reorgs, [2]uint64{start, end})
}
func (f *fakeNotifier) PublishTxStatusRejected(hash *felt.Felt) {
	f.rejected = append(f.rejected, hash)
}

func newManager(t *testing.T, archive state.Archive, notify *fakeNotifier) (*blockchain.Manager, *state.Store) {
	t.Helper()
	store := state.New(archive)
	mgr := blockchain.New(store, notify, blockchain.Config{
		Mode:            blockchain.Transaction(),
		ChainID:         core.DefaultChainID,
		StarknetVersion: "0.13.1",
	})
	return mgr, store
}

func TestCreateBlockSealsEmptyGenesis(t *testing.T) {
	notify := &fakeNotifier{}
	mgr, _ := newManager(t, state.ArchiveNone, notify)

	hash, err := mgr.CreateBlock(0, nil)
	require.NoError(t, err)
	require.NotNil(t, hash)

	num, ok := mgr.Latest()
	require.True(t, ok)
	assert.Equal(t, uint64(0), num)
	require.Len(t, notify.newHeads, 1)
	assert.Equal(t, hash, notify.newHeads[0].Hash)
	assert.Equal(t, &felt.Zero, notify.newHeads[0].ParentHash)
}

func TestEnqueueAndCreateBlockLinksParentHash(t *testing.T) {
	notify := &fakeNotifier{}
	mgr, _ := newManager(t, state.ArchiveNone, notify)

	first, err := mgr.CreateBlock(1, nil)
	require.NoError(t, err)

	mgr.Enqueue(core.MustParseFelt("0x1"))
	assert.Equal(t, []*felt.Felt{core.MustParseFelt("0x1")}, mgr.PendingTransactionHashes())

	second, err := mgr.CreateBlock(2, nil)
	require.NoError(t, err)

	block, err := mgr.GetBlock(state.ByHash(second))
	require.NoError(t, err)
	assert.Equal(t, first, block.ParentHash)
	assert.Equal(t, []*felt.Felt{core.MustParseFelt("0x1")}, block.TransactionHashes)
	assert.Empty(t, mgr.PendingTransactionHashes(), "buffer should reset after seal")
}

func TestGetBlockPreConfirmedReturnsNil(t *testing.T) {
	mgr, _ := newManager(t, state.ArchiveNone, &fakeNotifier{})
	b, err := mgr.GetBlock(state.PreConfirmed)
	require.NoError(t, err)
	assert.Nil(t, b)
}

func TestGetBlockUnknownNumberOrHash(t *testing.T) {
	mgr, _ := newManager(t, state.ArchiveNone, &fakeNotifier{})
	_, err := mgr.GetBlock(state.ByNumber(5))
	assert.ErrorIs(t, err, core.ErrBlockNotFound)

	_, err = mgr.GetBlock(state.ByHash(core.MustParseFelt("0xdead")))
	assert.ErrorIs(t, err, core.ErrBlockNotFound)

	_, err = mgr.GetBlock(state.Latest)
	assert.ErrorIs(t, err, core.ErrNoBlock)
}

func TestRecordAndLookupReceipt(t *testing.T) {
	mgr, _ := newManager(t, state.ArchiveNone, &fakeNotifier{})
	hash := core.MustParseFelt("0x1")
	mgr.RecordReceipt(&core.Receipt{TransactionHash: hash})

	r, ok := mgr.Receipt(hash)
	require.True(t, ok)
	assert.Equal(t, hash, r.TransactionHash)

	_, ok = mgr.Receipt(core.MustParseFelt("0x2"))
	assert.False(t, ok)
}

func TestMarkAcceptedOnL1IsIdempotentAndNotifies(t *testing.T) {
	notify := &fakeNotifier{}
	mgr, _ := newManager(t, state.ArchiveNone, notify)
	_, err := mgr.CreateBlock(0, nil)
	require.NoError(t, err)
	_, err = mgr.CreateBlock(1, nil)
	require.NoError(t, err)

	require.NoError(t, mgr.MarkAcceptedOnL1(1))
	assert.Len(t, notify.newHeads, 4, "2 seals + 2 promotions")

	require.NoError(t, mgr.MarkAcceptedOnL1(1))
	assert.Len(t, notify.newHeads, 4, "already-promoted blocks should not renotify")
}

func TestMarkAcceptedOnL1UnknownBlock(t *testing.T) {
	mgr, _ := newManager(t, state.ArchiveNone, &fakeNotifier{})
	err := mgr.MarkAcceptedOnL1(0)
	assert.ErrorIs(t, err, core.ErrBlockNotFound)
}

func TestAbortBlocksRejectsGenesis(t *testing.T) {
	notify := &fakeNotifier{}
	mgr, _ := newManager(t, state.ArchiveFull, notify)
	genesis, err := mgr.CreateBlock(0, nil)
	require.NoError(t, err)

	err = mgr.AbortBlocks(genesis)
	assert.ErrorIs(t, err, core.ErrCannotAbort)
}

func TestAbortBlocksRejectsAlreadyAcceptedOnL1(t *testing.T) {
	notify := &fakeNotifier{}
	mgr, _ := newManager(t, state.ArchiveFull, notify)
	_, err := mgr.CreateBlock(0, nil)
	require.NoError(t, err)
	second, err := mgr.CreateBlock(1, nil)
	require.NoError(t, err)

	require.NoError(t, mgr.MarkAcceptedOnL1(1))
	err = mgr.AbortBlocks(second)
	assert.ErrorIs(t, err, core.ErrCannotAbort)
}

func TestAbortBlocksTruncatesAndNotifies(t *testing.T) {
	notify := &fakeNotifier{}
	mgr, _ := newManager(t, state.ArchiveFull, notify)
	_, err := mgr.CreateBlock(0, nil)
	require.NoError(t, err)

	mgr.Enqueue(core.MustParseFelt("0x1"))
	second, err := mgr.CreateBlock(1, nil)
	require.NoError(t, err)

	mgr.Enqueue(core.MustParseFelt("0x2"))
	_, err = mgr.CreateBlock(2, nil)
	require.NoError(t, err)

	require.NoError(t, mgr.AbortBlocks(second))

	num, ok := mgr.Latest()
	require.True(t, ok)
	assert.Equal(t, uint64(0), num)

	require.Len(t, notify.reorgs, 1)
	assert.Equal(t, [2]uint64{1, 2}, notify.reorgs[0])
	require.Len(t, notify.rejected, 2)

	_, err = mgr.GetBlock(state.ByHash(second))
	assert.ErrorIs(t, err, core.ErrBlockNotFound)
}

func TestAbortBlocksUnknownHash(t *testing.T) {
	mgr, _ := newManager(t, state.ArchiveFull, &fakeNotifier{})
	err := mgr.AbortBlocks(core.MustParseFelt("0xdead"))
	assert.ErrorIs(t, err, core.ErrBlockNotFound)
}
