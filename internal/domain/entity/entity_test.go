package entity

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProviderKey(t *testing.T) {
	key := NewProviderKey(WalletInjected, "bnb")
	assert.Equal(t, ProviderKeyInjectedBNB, key)
	assert.True(t, key.Supported())
	assert.True(t, key.IsInjected())
	assert.Equal(t, "MetaMask", key.WalletLabel())
	assert.Equal(t, "BNB Chain", key.NetworkLabel())

	kind, network, err := ProviderKeyWalletConnectBNB.Split()
	require.NoError(t, err)
	assert.Equal(t, WalletRemotePairing, kind)
	assert.Equal(t, "bnb", network)
	assert.Equal(t, "WalletConnect", ProviderKeyWalletConnectBNB.WalletLabel())

	assert.False(t, NewProviderKey(WalletInjected, "eth").Supported())
	assert.False(t, NewProviderKey(WalletLegacyBSC, "bnb").Supported())

	_, _, err = ProviderKey("garbage").Split()
	assert.Error(t, err)
	_, _, err = ProviderKey("ledger_bnb").Split()
	assert.ErrorIs(t, err, ErrUnsupportedWalletKind)
}

func TestParseWalletKind(t *testing.T) {
	kind, err := ParseWalletKind(" Injected ")
	require.NoError(t, err)
	assert.Equal(t, WalletInjected, kind)

	kind, err = ParseWalletKind("bsc")
	require.NoError(t, err)
	assert.Equal(t, WalletLegacyBSC, kind)
	assert.Empty(t, kind.Label())

	_, err = ParseWalletKind("trezor")
	assert.ErrorIs(t, err, ErrUnsupportedWalletKind)
}

func TestProviderError_EffectiveCode(t *testing.T) {
	tests := []struct {
		name string
		err  ProviderError
		want int
	}{
		{"top level", ProviderError{Code: 4902}, 4902},
		{"original error", ProviderError{Code: -32603, Data: map[string]any{"originalError": map[string]any{"code": float64(4902)}}}, 4902},
		{"data code", ProviderError{Code: -32603, Data: map[string]any{"code": 4001}}, 4001},
		{"missing", ProviderError{Code: -32603, Data: "opaque"}, -32603},
		{"zero with data", ProviderError{Data: map[string]any{"code": int64(5000)}}, 5000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.EffectiveCode())
		})
	}
}

func TestConnectError(t *testing.T) {
	cerr := &ConnectError{Reason: ReasonTimeout, Message: MessageTimeout, Err: ErrTimeout}
	assert.Equal(t, "Connection timed out. Please try again.", cerr.Error())
	assert.True(t, errors.Is(cerr, ErrTimeout))

	chainErr := &UnsupportedChainError{ChainID: 56, Supported: []uint64{97, 3}}
	assert.Equal(t, "Unsupported chain id: 56. Supported chain ids are: 97, 3.", chainErr.Error())
	assert.ErrorIs(t, chainErr, ErrUnsupportedChain)
}

func TestNetworkDefinition(t *testing.T) {
	n := NetworkDefinition{ChainID: 97, PrimaryRPCURL: "https://a", FallbackRPCURLs: []string{"https://b"}}
	assert.Equal(t, "0x61", n.HexChainID())
	assert.Equal(t, []string{"https://a", "https://b"}, n.RPCURLs())
}

func TestFormatAddress(t *testing.T) {
	assert.Equal(t, "0xAbCd…7890", FormatAddress("0xAbCdEf0000000000000000000000000000007890"))
	assert.Equal(t, "0x12", FormatAddress("0x12"))

	st := ConnectionState{Phase: PhaseConnected, Account: "0x1"}
	assert.True(t, st.Connected())
	assert.False(t, ConnectionState{Phase: PhaseFailed}.Connected())
}
