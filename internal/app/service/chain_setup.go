package service

import (
	"context"
	"errors"

	"wallet_connector/internal/app/port"
	"wallet_connector/internal/domain/entity"
)

const (
	methodSwitchChain = "wallet_switchEthereumChain"
	methodAddChain    = "wallet_addEthereumChain"
)

type switchChainParams struct {
	ChainID string `json:"chainId"`
}

type nativeCurrency struct {
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Decimals int32  `json:"decimals"`
}

type addChainParams struct {
	ChainID           string         `json:"chainId"`
	ChainName         string         `json:"chainName"`
	RPCURLs           []string       `json:"rpcUrls"`
	NativeCurrency    nativeCurrency `json:"nativeCurrency"`
	BlockExplorerURLs []string       `json:"blockExplorerUrls,omitempty"`
}

// ChainSetupHelper asks the injected wallet to switch to (and if needed register) a network.
type ChainSetupHelper struct {
	env     port.InjectedEnvironment
	logger  port.Logger
	metrics port.ConnectionMetrics
}

// NewChainSetupHelper creates a new ChainSetupHelper.
func NewChainSetupHelper(env port.InjectedEnvironment, logger port.Logger, metrics port.ConnectionMetrics) *ChainSetupHelper {
	if metrics == nil {
		metrics = noopMetrics{}
	}
	return &ChainSetupHelper{env: env, logger: logger, metrics: metrics}
}

// EnsureChain switches the injected wallet to target, registering the chain first when the wallet
// does not know it. Failures are reported through the result only.
func (h *ChainSetupHelper) EnsureChain(ctx context.Context, target entity.NetworkDefinition) bool {
	if h.env == nil || !h.env.Present() {
		h.logger.Error("Can't set up the network on the injected wallet: no injected provider", "network", target.Identifier)
		h.metrics.ChainSetup("no_provider")
		return false
	}
	provider, err := h.env.Provider(ctx)
	if err != nil {
		h.logger.Error("Failed to obtain injected provider for chain setup", "network", target.Identifier, "error", err)
		h.metrics.ChainSetup("no_provider")
		return false
	}

	err = h.switchChain(ctx, provider, target)
	if err == nil {
		h.logger.Info("Injected wallet switched network", "network", target.Identifier, "chain_id", target.ChainID)
		h.metrics.ChainSetup("switched")
		return true
	}

	var providerErr *entity.ProviderError
	if !errors.As(err, &providerErr) || providerErr.EffectiveCode() != entity.CodeUnrecognizedChain {
		h.logger.Warn("Injected wallet refused to switch network", "network", target.Identifier, "error", err)
		h.metrics.ChainSetup("failed")
		return false
	}

	h.logger.Info("Injected wallet does not know the chain, registering it", "network", target.Identifier, "chain_id", target.ChainID)
	params := addChainParams{
		ChainID:   target.HexChainID(),
		ChainName: target.Name,
		RPCURLs:   target.RPCURLs(),
		NativeCurrency: nativeCurrency{
			Name:     target.NativeSymbol,
			Symbol:   target.NativeSymbol,
			Decimals: target.Decimals,
		},
	}
	if target.BlockExplorerURL != "" {
		params.BlockExplorerURLs = []string{target.BlockExplorerURL}
	}
	if err := provider.Request(ctx, nil, methodAddChain, params); err != nil {
		h.logger.Warn("Injected wallet refused to add network", "network", target.Identifier, "error", err)
		h.metrics.ChainSetup("failed")
		return false
	}
	if err := h.switchChain(ctx, provider, target); err != nil {
		h.logger.Warn("Switch after adding network failed", "network", target.Identifier, "error", err)
		h.metrics.ChainSetup("failed")
		return false
	}

	h.metrics.ChainSetup("added")
	return true
}

func (h *ChainSetupHelper) switchChain(ctx context.Context, provider port.EthereumProvider, target entity.NetworkDefinition) error {
	return provider.Request(ctx, nil, methodSwitchChain, switchChainParams{ChainID: target.HexChainID()})
}
