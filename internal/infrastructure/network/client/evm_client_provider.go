package client

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"wallet_connector/internal/app/port"
	"wallet_connector/internal/domain/entity"
)

const (
	defaultProviderConnectionTimeout = 10 * time.Second
)

// InjectedEnvironment implements port.InjectedEnvironment. The injected provider is present when an
// endpoint is configured; it is dialed lazily and cached.
type InjectedEnvironment struct {
	endpoint          string
	provider          *EVMProvider
	mu                sync.Mutex
	loggerInfo        func(msg string, args ...any)
	loggerError       func(msg string, args ...any)
	connectionTimeout time.Duration
	rpcCallTimeout    time.Duration
}

// NewInjectedEnvironment creates the injected provider locator for endpoint.
func NewInjectedEnvironment(
	endpoint string,
	rpcCallTimeout time.Duration,
	loggerInfo func(msg string, args ...any),
	loggerError func(msg string, args ...any),
) *InjectedEnvironment {
	return &InjectedEnvironment{
		endpoint:          strings.TrimSpace(endpoint),
		loggerInfo:        loggerInfo,
		loggerError:       loggerError,
		connectionTimeout: defaultProviderConnectionTimeout,
		rpcCallTimeout:    rpcCallTimeout,
	}
}

// Present reports whether an injected provider endpoint is configured.
func (e *InjectedEnvironment) Present() bool {
	return e.endpoint != ""
}

// Provider returns the cached provider, dialing it on first use.
func (e *InjectedEnvironment) Provider(ctx context.Context) (port.EthereumProvider, error) {
	if !e.Present() {
		return nil, entity.ErrNoProvider
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.provider != nil {
		return e.provider, nil
	}

	e.loggerInfo("Connecting to injected wallet provider", "endpoint", e.endpoint)
	dialCtx, cancel := context.WithTimeout(ctx, e.connectionTimeout)
	defer cancel()

	p, err := DialEVMProvider(dialCtx, e.endpoint, e.rpcCallTimeout)
	if err != nil {
		e.loggerError("Failed to connect to injected wallet provider", "endpoint", e.endpoint, "error", err)
		return nil, fmt.Errorf("%w: %v", entity.ErrNoProvider, err)
	}
	e.provider = p
	return p, nil
}

// Close releases the cached provider.
func (e *InjectedEnvironment) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.provider != nil {
		e.provider.Close()
		e.provider = nil
	}
}
