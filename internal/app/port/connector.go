package port

import (
	"context"

	"wallet_connector/internal/domain/entity"
)

// Listener is an explicit handler reference so listeners can be detached without comparing funcs.
type Listener struct {
	fn func(entity.ConnectorEvent)
}

// NewListener wraps fn into a detachable listener.
func NewListener(fn func(entity.ConnectorEvent)) *Listener {
	return &Listener{fn: fn}
}

// Handle delivers the event to the wrapped func.
func (l *Listener) Handle(ev entity.ConnectorEvent) {
	if l != nil && l.fn != nil {
		l.fn(ev)
	}
}

// Connector is a live handle bound to exactly one (wallet kind, network) pair.
type Connector interface {
	Kind() entity.WalletKind
	Network() entity.NetworkDefinition

	// Activate performs the handshake with the wallet. It blocks until the wallet answers or ctx is done.
	Activate(ctx context.Context) (entity.Activation, error)
	Deactivate() error

	Account() string
	ChainID() uint64
	Provider() EthereumProvider

	On(event entity.ConnectorEventName, l *Listener)
	// Off is the canonical detach operation. The factory guarantees it exists on every handle.
	Off(event entity.ConnectorEventName, l *Listener)
}

// ConnectorFactory builds and holds one connector per wallet kind for the configured network.
// It does not track liveness: callers deactivate handles before the factory discards them.
type ConnectorFactory interface {
	// Configure rebuilds all connectors for networkTag, discarding prior instances.
	Configure(networkTag string) error

	// Build returns the connector for kind on networkTag, or entity.ErrUnsupportedWalletKind.
	Build(kind entity.WalletKind, networkTag string) (Connector, error)
}

// PairingDisplay receives the pairing URI (and its QR rendering) of a remote-pairing handshake.
type PairingDisplay interface {
	ShowPairingURI(uri string, qrPNG []byte)
}

// PairingDisplayFunc adapts a func to PairingDisplay.
type PairingDisplayFunc func(uri string, qrPNG []byte)

func (f PairingDisplayFunc) ShowPairingURI(uri string, qrPNG []byte) {
	f(uri, qrPNG)
}
