package connector

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wallet_connector/internal/app/port"
	"wallet_connector/internal/domain/entity"
)

// bareConnector has neither Off nor RemoveListener.
type bareConnector struct{}

func (bareConnector) Kind() entity.WalletKind { return entity.WalletLegacyBSC }
func (bareConnector) Network() entity.NetworkDefinition { return testBNB }
func (bareConnector) Activate(context.Context) (entity.Activation, error) { return entity.Activation{}, nil }
func (bareConnector) Deactivate() error { return nil }
func (bareConnector) Account() string { return "" }
func (bareConnector) ChainID() uint64 { return 0 }
func (bareConnector) Provider() port.EthereumProvider { return nil }
func (bareConnector) On(entity.ConnectorEventName, *port.Listener) {}

func newTestFactory() *Factory {
	registry := staticRegistry{
		"bnb": testBNB,
		"eth": {ChainID: 3, Name: "Ropsten", Identifier: "eth"},
	}
	f := NewFactory(registry, nopLogger{})
	f.Register(entity.WalletInjected, NewInjectedBuilder(&stubEnv{}, 0, nopLogger{}))
	f.Register(entity.WalletRemotePairing, NewPairingBuilder(PairingConfig{ProjectID: "p"}, nil, nopLogger{}))
	return f
}

func TestFactory_BuildCachesPerKind(t *testing.T) {
	f := newTestFactory()

	first, err := f.Build(entity.WalletInjected, "bnb")
	require.NoError(t, err)
	second, err := f.Build(entity.WalletInjected, "bnb")
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, uint64(97), first.Network().ChainID)

	// A different network reconfigures implicitly.
	onEth, err := f.Build(entity.WalletInjected, "eth")
	require.NoError(t, err)
	assert.NotSame(t, first, onEth)
	assert.Equal(t, uint64(3), onEth.Network().ChainID)
}

func TestFactory_ConfigureDropsInstances(t *testing.T) {
	f := newTestFactory()

	first, err := f.Build(entity.WalletRemotePairing, "bnb")
	require.NoError(t, err)
	require.NoError(t, f.Configure("bnb"))
	second, err := f.Build(entity.WalletRemotePairing, "bnb")
	require.NoError(t, err)
	assert.NotSame(t, first, second)

	require.ErrorIs(t, f.Configure("solana"), entity.ErrUnknownNetwork)
}

func TestFactory_UnsupportedKind(t *testing.T) {
	f := newTestFactory()

	_, err := f.Build(entity.WalletLegacyBSC, "bnb")
	require.ErrorIs(t, err, entity.ErrUnsupportedWalletKind)
}

func TestFactory_OffShim(t *testing.T) {
	f := newTestFactory()

	injected, err := f.Build(entity.WalletInjected, "bnb")
	require.NoError(t, err)
	_, native := injected.(*InjectedConnector)
	assert.True(t, native, "injected connector implements Off itself")

	paired, err := f.Build(entity.WalletRemotePairing, "bnb")
	require.NoError(t, err)
	shim, ok := paired.(*offShim)
	require.True(t, ok, "pairing connector is wrapped")

	sink := &eventSink{}
	l := sink.listener()
	paired.On(entity.ConnectorChainChanged, l)
	inner := shim.Base.(*PairingConnector)
	assert.Equal(t, 1, inner.listenerCount(entity.ConnectorChainChanged))

	paired.Off(entity.ConnectorChainChanged, l)
	assert.Zero(t, inner.listenerCount(entity.ConnectorChainChanged))

	f.Register(entity.WalletLegacyBSC, func(entity.NetworkDefinition) (Base, error) { return bareConnector{}, nil })
	_, err = f.Build(entity.WalletLegacyBSC, "bnb")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "neither Off nor RemoveListener")
}

func TestEmitter_DetachDuringEmit(t *testing.T) {
	var e emitter
	var calls int
	var self *port.Listener
	self = port.NewListener(func(entity.ConnectorEvent) {
		calls++
		e.RemoveListener(entity.ConnectorError, self)
	})
	e.On(entity.ConnectorError, self)

	e.emit(entity.ConnectorEvent{Name: entity.ConnectorError})
	e.emit(entity.ConnectorEvent{Name: entity.ConnectorError})
	assert.Equal(t, 1, calls)

	e.On(entity.ConnectorDisconnect, port.NewListener(func(entity.ConnectorEvent) {}))
	e.removeAllListeners()
	assert.Zero(t, e.listenerCount(entity.ConnectorDisconnect))
}
