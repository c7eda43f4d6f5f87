package connector

import (
	"context"
	"fmt"
	"sync"

	"wallet_connector/internal/app/port"
	"wallet_connector/internal/domain/entity"
)

// Base is what a builder must return: a connector that may or may not implement Off.
type Base interface {
	Kind() entity.WalletKind
	Network() entity.NetworkDefinition
	Activate(ctx context.Context) (entity.Activation, error)
	Deactivate() error
	Account() string
	ChainID() uint64
	Provider() port.EthereumProvider
	On(event entity.ConnectorEventName, l *port.Listener)
}

type listenerRemover interface {
	RemoveListener(event entity.ConnectorEventName, l *port.Listener)
}

// Builder creates a connector bound to network.
type Builder func(network entity.NetworkDefinition) (Base, error)

// offShim adds Off to connectors that only know RemoveListener.
type offShim struct {
	Base
	remover listenerRemover
}

func (s *offShim) Off(event entity.ConnectorEventName, l *port.Listener) {
	s.remover.RemoveListener(event, l)
}

// Factory implements port.ConnectorFactory. It holds one instance per wallet kind for the configured network.
type Factory struct {
	registry port.NetworkRegistry
	logger   port.Logger

	mu         sync.Mutex
	builders   map[entity.WalletKind]Builder
	network    entity.NetworkDefinition
	configured bool
	instances  map[entity.WalletKind]port.Connector
}

// NewFactory creates an empty factory. Builders are added with Register.
func NewFactory(registry port.NetworkRegistry, logger port.Logger) *Factory {
	return &Factory{
		registry:  registry,
		logger:    logger,
		builders:  make(map[entity.WalletKind]Builder),
		instances: make(map[entity.WalletKind]port.Connector),
	}
}

// Register installs the builder for kind.
func (f *Factory) Register(kind entity.WalletKind, b Builder) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.builders[kind] = b
}

// Configure switches the factory to networkTag and drops prior instances.
// Live handles must be deactivated by the caller beforehand.
func (f *Factory) Configure(networkTag string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.configureLocked(networkTag)
}

func (f *Factory) configureLocked(networkTag string) error {
	def, err := f.registry.Describe(networkTag)
	if err != nil {
		return err
	}
	f.network = def
	f.configured = true
	f.instances = make(map[entity.WalletKind]port.Connector)
	f.logger.Debug("Connector factory configured", "network", def.Identifier, "chain_id", def.ChainID)
	return nil
}

// Build returns the connector for kind on networkTag, creating it on first use.
func (f *Factory) Build(kind entity.WalletKind, networkTag string) (port.Connector, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.configured || f.network.Identifier != networkTag {
		if err := f.configureLocked(networkTag); err != nil {
			return nil, err
		}
	}
	if c, ok := f.instances[kind]; ok {
		return c, nil
	}

	b, ok := f.builders[kind]
	if !ok {
		return nil, fmt.Errorf("%w: no connector registered for %q", entity.ErrUnsupportedWalletKind, kind)
	}
	raw, err := b(f.network)
	if err != nil {
		return nil, fmt.Errorf("build %s connector for %s: %w", kind, f.network.Identifier, err)
	}
	c, err := withOff(raw)
	if err != nil {
		return nil, err
	}
	f.instances[kind] = c
	f.logger.Debug("Connector built", "kind", kind, "network", f.network.Identifier)
	return c, nil
}

func withOff(raw Base) (port.Connector, error) {
	if c, ok := raw.(port.Connector); ok {
		return c, nil
	}
	if r, ok := raw.(listenerRemover); ok {
		return &offShim{Base: raw, remover: r}, nil
	}
	return nil, fmt.Errorf("connector %q exposes neither Off nor RemoveListener", raw.Kind())
}
