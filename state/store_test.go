package state_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xSpaceShard/starknet-devnet-go/core"
	"github.com/0xSpaceShard/starknet-devnet-go/state"
)

func addr(hex string) core.ContractAddress {
	return core.NewContractAddress(core.MustParseFelt(hex))
}

func key(hex string) core.StorageKey {
	return core.StorageKey{Felt: *core.MustParseFelt(hex)}
}

func TestGetStorageDefaultsToZero(t *testing.T) {
	s := state.New(state.ArchiveNone)
	v, err := s.GetStorage(state.Latest, addr("0x1"), key("0x1"))
	require.NoError(t, err)
	assert.True(t, v.IsZero())
}

func TestSetStorageVisibleOnlyInPreConfirmedUntilCommit(t *testing.T) {
	s := state.New(state.ArchiveNone)
	a, k := addr("0x1"), key("0x2")
	require.NoError(t, s.SetStorage(a, k, core.MustParseFelt("0x42")))

	live, err := s.GetStorage(state.PreConfirmed, a, k)
	require.NoError(t, err)
	assert.Equal(t, core.MustParseFelt("0x42"), live)

	sealed, err := s.GetStorage(state.Latest, a, k)
	require.NoError(t, err)
	assert.True(t, sealed.IsZero(), "Latest should not see uncommitted writes")

	s.Commit(0, core.MustParseFelt("0xb0"))

	sealed, err = s.GetStorage(state.Latest, a, k)
	require.NoError(t, err)
	assert.Equal(t, core.MustParseFelt("0x42"), sealed)
}

func TestSetStorageRejectsZeroAddress(t *testing.T) {
	s := state.New(state.ArchiveNone)
	err := s.SetStorage(core.ContractAddress{}, key("0x1"), core.MustParseFelt("0x1"))
	assert.ErrorIs(t, err, core.ErrOutOfRange)
}

func TestIncrementNonce(t *testing.T) {
	s := state.New(state.ArchiveNone)
	a := addr("0x1")

	require.NoError(t, s.IncrementNonce(a))
	require.NoError(t, s.IncrementNonce(a))

	n, err := s.GetNonce(state.PreConfirmed, a)
	require.NoError(t, err)
	assert.Equal(t, core.MustParseFelt("0x2"), n)
}

func TestDeployRequiresDeclaredClass(t *testing.T) {
	s := state.New(state.ArchiveNone)
	a := addr("0x1")
	ch := core.ClassHash{Felt: *core.MustParseFelt("0xc1a55")}

	err := s.Deploy(a, ch)
	assert.ErrorIs(t, err, core.ErrClassHashNotFound)

	require.NoError(t, s.DeclareClass(ch, core.CompiledClassHash{}, &core.ContractClass{}))
	assert.True(t, s.IsDeclared(ch))
	require.NoError(t, s.Deploy(a, ch))

	got, err := s.GetClassHashAt(state.PreConfirmed, a)
	require.NoError(t, err)
	assert.Equal(t, &ch.Felt, got)
}

func TestViewByNumberDisabledWithoutArchiveFull(t *testing.T) {
	s := state.New(state.ArchiveNone)
	_, err := s.GetStorage(state.ByNumber(0), addr("0x1"), key("0x1"))
	assert.ErrorIs(t, err, core.ErrStateHistoryDisabled)
}

func TestArchiveFullRetainsHistoricalSnapshot(t *testing.T) {
	s := state.New(state.ArchiveFull)
	a, k := addr("0x1"), key("0x2")

	require.NoError(t, s.SetStorage(a, k, core.MustParseFelt("0x1")))
	blockHash0 := core.MustParseFelt("0xb0")
	s.Commit(0, blockHash0)

	require.NoError(t, s.SetStorage(a, k, core.MustParseFelt("0x2")))
	s.Commit(1, core.MustParseFelt("0xb1"))

	v0, err := s.GetStorage(state.ByNumber(0), a, k)
	require.NoError(t, err)
	assert.Equal(t, core.MustParseFelt("0x1"), v0)

	vHash, err := s.GetStorage(state.ByHash(blockHash0), a, k)
	require.NoError(t, err)
	assert.Equal(t, core.MustParseFelt("0x1"), vHash)

	vLatest, err := s.GetStorage(state.Latest, a, k)
	require.NoError(t, err)
	assert.Equal(t, core.MustParseFelt("0x2"), vLatest)
}

func TestRevertRestoresSealedAndDropsLaterHistory(t *testing.T) {
	s := state.New(state.ArchiveFull)
	a, k := addr("0x1"), key("0x2")

	require.NoError(t, s.SetStorage(a, k, core.MustParseFelt("0x1")))
	s.Commit(0, core.MustParseFelt("0xb0"))

	require.NoError(t, s.SetStorage(a, k, core.MustParseFelt("0x2")))
	s.Commit(1, core.MustParseFelt("0xb1"))

	require.NoError(t, s.Revert(0, true))

	v, err := s.GetStorage(state.Latest, a, k)
	require.NoError(t, err)
	assert.Equal(t, core.MustParseFelt("0x1"), v)

	_, err = s.GetStorage(state.ByNumber(1), a, k)
	assert.ErrorIs(t, err, core.ErrNoStateAtBlock)
}

func TestRevertWithoutArchiveFullFails(t *testing.T) {
	s := state.New(state.ArchiveNone)
	err := s.Revert(0, true)
	assert.ErrorIs(t, err, core.ErrCannotAbort)
}
