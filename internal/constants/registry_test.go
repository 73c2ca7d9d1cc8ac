package constants

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syntropynet/globaldb/pkg/globaldb"
)

func TestRegistry_Publish(t *testing.T) {
	r := NewRegistry(WellKnown())

	eth, ok := r.Get(ETH)
	require.True(t, ok)
	require.NotNil(t, eth.Name)
	assert.Equal(t, "Ethereum", *eth.Name)

	before := eth
	renamed := eth
	renamed.Name = ptr("Ether")
	r.Publish([]globaldb.AssetData{renamed})

	got, ok := r.Get(ETH)
	require.True(t, ok)
	assert.Equal(t, "Ether", *got.Name)
	assert.Equal(t, "Ethereum", *before.Name, "previously handed out descriptors must not change")

	_, ok = r.Get(BTC)
	assert.False(t, ok)
}

func TestRegistry_Identifiers(t *testing.T) {
	r := NewRegistry(WellKnown())
	ids := r.Identifiers()
	assert.Len(t, ids, len(WellKnown()))
	assert.IsIncreasing(t, ids)

	all := r.All()
	require.Len(t, all, len(ids))
	for i, d := range all {
		assert.Equal(t, ids[i], d.Identifier)
	}
}

func TestWellKnown_TokenAddresses(t *testing.T) {
	for _, d := range WellKnown() {
		if d.Type != globaldb.AssetTypeEthereumToken {
			assert.Nil(t, d.EthereumAddress, d.Identifier)
			continue
		}
		require.NotNil(t, d.EthereumAddress, d.Identifier)
		checksummed, err := globaldb.ChecksumAddress(*d.EthereumAddress)
		require.NoError(t, err)
		assert.Equal(t, checksummed, *d.EthereumAddress)
		assert.Equal(t, globaldb.DefaultIdentifierMapper.Identifier(checksummed), d.Identifier)
	}
}
