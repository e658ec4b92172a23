package predeploy_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xSpaceShard/starknet-devnet-go/core"
	"github.com/0xSpaceShard/starknet-devnet-go/predeploy"
)

func accountClassHash() core.ClassHash {
	return core.ClassHash{Felt: *core.MustParseFelt("0xac0c1a55")}
}

func TestDeriveAccountsIsSeedDeterministic(t *testing.T) {
	a, err := predeploy.DeriveAccounts(42, 3, accountClassHash())
	require.NoError(t, err)
	b, err := predeploy.DeriveAccounts(42, 3, accountClassHash())
	require.NoError(t, err)

	require.Len(t, a, 3)
	for i := range a {
		assert.Equal(t, a[i].PrivateKey, b[i].PrivateKey)
		assert.Equal(t, a[i].Address, b[i].Address)
	}
}

func TestDeriveAccountsDifferentSeedsDiverge(t *testing.T) {
	a, err := predeploy.DeriveAccounts(1, 1, accountClassHash())
	require.NoError(t, err)
	b, err := predeploy.DeriveAccounts(2, 1, accountClassHash())
	require.NoError(t, err)

	assert.NotEqual(t, a[0].PrivateKey, b[0].PrivateKey)
	assert.NotEqual(t, a[0].Address, b[0].Address)
}

func TestDeriveFromPrivateKeyMatchesDeriveAccounts(t *testing.T) {
	accs, err := predeploy.DeriveAccounts(7, 1, accountClassHash())
	require.NoError(t, err)

	replayed, err := predeploy.DeriveFromPrivateKey(accs[0].PrivateKey, accountClassHash())
	require.NoError(t, err)

	assert.Equal(t, accs[0].Address, replayed.Address)
	assert.Equal(t, accs[0].PublicKey, replayed.PublicKey)
}
