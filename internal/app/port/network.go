package port

import (
	"context"

	"wallet_connector/internal/domain/entity"
)

// NetworkRegistry provides the static table of supported networks.
type NetworkRegistry interface {
	// Describe returns the definition registered under the network tag, or entity.ErrUnknownNetwork.
	Describe(networkTag string) (entity.NetworkDefinition, error)

	// All returns every registered network in registration order.
	All() []entity.NetworkDefinition
}

// EthereumProvider is an EIP-1193 style request surface.
type EthereumProvider interface {
	// Request sends method with params and decodes the response into result (which may be nil).
	// Wallet-side failures are reported as *entity.ProviderError.
	Request(ctx context.Context, result any, method string, params ...any) error
}

// InjectedEnvironment exposes the injected provider of the execution environment, if any.
type InjectedEnvironment interface {
	// Present reports whether the environment exposes an injected provider.
	Present() bool

	// Provider returns the injected provider or entity.ErrNoProvider.
	Provider(ctx context.Context) (EthereumProvider, error)
}
