package connector

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"wallet_connector/internal/app/port"
	"wallet_connector/internal/domain/entity"
)

// DefaultPollInterval is how often a connected injected wallet is checked for account and chain changes.
const DefaultPollInterval = 12 * time.Second

var errNoAccounts = errors.New("wallet returned no accounts")

// InjectedConnector talks to the provider exposed by the local environment.
type InjectedConnector struct {
	emitter

	env          port.InjectedEnvironment
	network      entity.NetworkDefinition
	pollInterval time.Duration
	logger       port.Logger

	mu       sync.Mutex
	provider port.EthereumProvider
	account  string
	chainID  uint64
	stopPoll context.CancelFunc
}

// NewInjectedBuilder returns a Builder for injected connectors.
func NewInjectedBuilder(env port.InjectedEnvironment, pollInterval time.Duration, logger port.Logger) Builder {
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}
	return func(network entity.NetworkDefinition) (Base, error) {
		return &InjectedConnector{
			env:          env,
			network:      network,
			pollInterval: pollInterval,
			logger:       logger,
		}, nil
	}
}

func (c *InjectedConnector) Kind() entity.WalletKind { return entity.WalletInjected }

func (c *InjectedConnector) Network() entity.NetworkDefinition { return c.network }

// Off detaches a listener.
func (c *InjectedConnector) Off(event entity.ConnectorEventName, l *port.Listener) {
	c.RemoveListener(event, l)
}

// Activate requests account access and checks the wallet's chain against the configured network.
func (c *InjectedConnector) Activate(ctx context.Context) (entity.Activation, error) {
	if c.env == nil || !c.env.Present() {
		return entity.Activation{}, entity.ErrNoProvider
	}
	provider, err := c.env.Provider(ctx)
	if err != nil {
		return entity.Activation{}, err
	}

	var accounts []string
	if err := provider.Request(ctx, &accounts, "eth_requestAccounts"); err != nil {
		return entity.Activation{}, wrapProviderError("eth_requestAccounts", err)
	}
	if len(accounts) == 0 {
		return entity.Activation{}, errNoAccounts
	}
	if !common.IsHexAddress(accounts[0]) {
		return entity.Activation{}, fmt.Errorf("wallet returned malformed account %q", accounts[0])
	}

	chainID, err := requestChainID(ctx, provider)
	if err != nil {
		return entity.Activation{}, wrapProviderError("eth_chainId", err)
	}
	if chainID != c.network.ChainID {
		return entity.Activation{}, &entity.UnsupportedChainError{ChainID: chainID, Supported: []uint64{c.network.ChainID}}
	}

	pollCtx, cancel := context.WithCancel(context.Background())
	c.mu.Lock()
	if c.stopPoll != nil {
		c.stopPoll()
	}
	c.provider = provider
	c.account = accounts[0]
	c.chainID = chainID
	c.stopPoll = cancel
	c.mu.Unlock()

	go c.poll(pollCtx, provider, accounts[0], chainID)

	return entity.Activation{Account: accounts[0], ChainID: chainID}, nil
}

// Deactivate stops watching the wallet. It never blocks on the watcher.
func (c *InjectedConnector) Deactivate() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopPoll != nil {
		c.stopPoll()
		c.stopPoll = nil
	}
	c.account = ""
	c.chainID = 0
	return nil
}

func (c *InjectedConnector) Account() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.account
}

func (c *InjectedConnector) ChainID() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.chainID
}

func (c *InjectedConnector) Provider() port.EthereumProvider {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.provider
}

func (c *InjectedConnector) poll(ctx context.Context, provider port.EthereumProvider, account string, chainID uint64) {
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		callCtx, cancel := context.WithTimeout(ctx, c.pollInterval)
		var accounts []string
		err := provider.Request(callCtx, &accounts, "eth_accounts")
		var current uint64
		if err == nil {
			current, err = requestChainID(callCtx, provider)
		}
		cancel()

		if ctx.Err() != nil {
			return
		}
		if err != nil {
			c.logger.Warn("Injected wallet poll failed", "network", c.network.Identifier, "error", err)
			c.emit(entity.ConnectorEvent{Name: entity.ConnectorError, Err: err})
			continue
		}

		next := ""
		if len(accounts) > 0 {
			next = accounts[0]
		}
		if !strings.EqualFold(next, account) {
			account = next
			c.mu.Lock()
			c.account = account
			c.mu.Unlock()
			c.emit(entity.ConnectorEvent{Name: entity.ConnectorAccountsChanged, Accounts: accounts})
		}
		if current != chainID {
			chainID = current
			c.mu.Lock()
			c.chainID = current
			c.mu.Unlock()
			c.emit(entity.ConnectorEvent{Name: entity.ConnectorChainChanged, ChainID: current})
		}
	}
}

func requestChainID(ctx context.Context, provider port.EthereumProvider) (uint64, error) {
	var chainID hexutil.Uint64
	if err := provider.Request(ctx, &chainID, "eth_chainId"); err != nil {
		return 0, err
	}
	return uint64(chainID), nil
}

// wrapProviderError tags user rejections so the state machine can classify them.
func wrapProviderError(method string, err error) error {
	var pe *entity.ProviderError
	if errors.As(err, &pe) && pe.EffectiveCode() == entity.CodeUserRejected {
		return fmt.Errorf("%s: %w: %w", method, entity.ErrUserRejected, err)
	}
	return fmt.Errorf("%s: %w", method, err)
}
