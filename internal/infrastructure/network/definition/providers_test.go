package networkdefinition

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wallet_connector/internal/domain/entity"
	"wallet_connector/internal/pkg/logger"
)

func TestNetworkDefinitionProvider_Builtins(t *testing.T) {
	p := NewNetworkDefinitionProvider(logger.NewNopAdapter(), nil)

	bnb, err := p.Describe("bnb")
	require.NoError(t, err)
	assert.Equal(t, uint64(97), bnb.ChainID)
	assert.Equal(t, "https://data-seed-prebsc-1-s1.binance.org:8545", bnb.PrimaryRPCURL)
	assert.Equal(t, "https://testnet.bscscan.com/", bnb.BlockExplorerURL)
	assert.Equal(t, "BNB", bnb.NativeSymbol)
	assert.Equal(t, int32(18), bnb.Decimals)

	eth, err := p.Describe("eth")
	require.NoError(t, err)
	assert.Equal(t, uint64(3), eth.ChainID)

	_, err = p.Describe("polygon")
	assert.ErrorIs(t, err, entity.ErrUnknownNetwork)

	all := p.All()
	require.Len(t, all, 2)
	assert.Equal(t, "bnb", all[0].Identifier)
	all[0].Name = "mutated"
	assert.Equal(t, "BSC Testnet", p.All()[0].Name)
}

func TestNetworkDefinitionProvider_Extra(t *testing.T) {
	p := NewNetworkDefinitionProvider(logger.NewNopAdapter(), []entity.NetworkDefinition{
		{ChainID: 137, Name: "Polygon", Identifier: " Polygon ", NativeSymbol: "MATIC"},
		{ChainID: 56, Name: "Shadow BNB", Identifier: "bnb"},
		{Name: "No chain", Identifier: "nochain"},
		{ChainID: 10, Name: "Bad tag", Identifier: "op_main"},
	})

	all := p.All()
	require.Len(t, all, 3)

	polygon, err := p.Describe("polygon")
	require.NoError(t, err)
	assert.Equal(t, int32(18), polygon.Decimals)

	bnb, err := p.Describe("bnb")
	require.NoError(t, err)
	assert.Equal(t, uint64(97), bnb.ChainID)

	def, ok := p.GetNetworkDefinitionByChainID(137)
	assert.True(t, ok)
	assert.Equal(t, "polygon", def.Identifier)
	_, ok = p.GetNetworkDefinitionByChainID(10)
	assert.False(t, ok)
}

func TestNetworkDefinitionProvider_Nil(t *testing.T) {
	var p *NetworkDefinitionProvider
	_, err := p.Describe("bnb")
	assert.ErrorIs(t, err, entity.ErrUnknownNetwork)
	assert.Empty(t, p.All())
}
