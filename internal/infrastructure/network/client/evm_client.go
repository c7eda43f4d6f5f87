package client

import (
	"context"
	"errors"
	"fmt"
	"time"

	"wallet_connector/internal/domain/entity"

	"github.com/ethereum/go-ethereum/rpc"
)

// EVMProvider implements port.EthereumProvider on top of a JSON-RPC endpoint exposed by a wallet
// (browser extension bridge, wallet daemon, dev node with unlocked accounts).
type EVMProvider struct {
	rpcClient      *rpc.Client
	endpoint       string
	rpcCallTimeout time.Duration
}

// DialEVMProvider connects to the wallet endpoint.
func DialEVMProvider(ctx context.Context, endpoint string, rpcCallTimeout time.Duration) (*EVMProvider, error) {
	c, err := rpc.DialContext(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to wallet endpoint %s: %w", endpoint, err)
	}
	return NewEVMProvider(c, endpoint, rpcCallTimeout), nil
}

// NewEVMProvider wraps an existing rpc client.
func NewEVMProvider(c *rpc.Client, endpoint string, rpcCallTimeout time.Duration) *EVMProvider {
	return &EVMProvider{rpcClient: c, endpoint: endpoint, rpcCallTimeout: rpcCallTimeout}
}

// approvalMethods wait for the user in the wallet UI. Only the caller's context bounds them.
var approvalMethods = map[string]struct{}{ //nolint:gochecknoglobals
	"eth_requestAccounts":        {},
	"wallet_requestPermissions":  {},
	"wallet_switchEthereumChain": {},
	"wallet_addEthereumChain":    {},
	"wallet_watchAsset":          {},
	"personal_sign":              {},
	"eth_sign":                   {},
	"eth_signTypedData_v4":       {},
	"eth_sendTransaction":        {},
}

// NeedsApproval reports whether method waits for the user to confirm it in the wallet.
func NeedsApproval(method string) bool {
	_, ok := approvalMethods[method]
	return ok
}

// Request performs a single JSON-RPC call. Wallet errors come back as *entity.ProviderError.
// rpcCallTimeout applies to read calls only, approval calls run until ctx is done.
func (p *EVMProvider) Request(ctx context.Context, result any, method string, params ...any) error {
	if p.rpcCallTimeout > 0 && !NeedsApproval(method) {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.rpcCallTimeout)
		defer cancel()
	}
	if err := p.rpcClient.CallContext(ctx, result, method, params...); err != nil {
		return toProviderError(err)
	}
	return nil
}

// Endpoint returns the URL the provider is connected to.
func (p *EVMProvider) Endpoint() string {
	return p.endpoint
}

// Close closes the underlying rpc client.
func (p *EVMProvider) Close() {
	p.rpcClient.Close()
}

// toProviderError converts JSON-RPC level errors, keeping transport errors untouched.
func toProviderError(err error) error {
	var rpcErr rpc.Error
	if !errors.As(err, &rpcErr) {
		return err
	}
	pe := &entity.ProviderError{Code: rpcErr.ErrorCode(), Message: rpcErr.Error()}
	var dataErr rpc.DataError
	if errors.As(err, &dataErr) {
		pe.Data = dataErr.ErrorData()
	}
	return pe
}
