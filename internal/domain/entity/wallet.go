package entity

import (
	"fmt"
	"strings"
)

// WalletKind identifies how the application reaches the user's wallet.
type WalletKind string

const (
	// WalletInjected is a provider exposed directly by the local environment (browser extension bridge, wallet daemon).
	WalletInjected WalletKind = "injected"
	// WalletRemotePairing is a remote signer reached through a pairing relay.
	WalletRemotePairing WalletKind = "walletconnect"
	// WalletLegacyBSC is reserved. It parses, but no connector is registered for it.
	WalletLegacyBSC WalletKind = "bsc"
)

// ParseWalletKind validates a wallet tag coming from the presentation layer or the session store.
func ParseWalletKind(tag string) (WalletKind, error) {
	switch k := WalletKind(strings.ToLower(strings.TrimSpace(tag))); k {
	case WalletInjected, WalletRemotePairing, WalletLegacyBSC:
		return k, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedWalletKind, tag)
	}
}

// Label returns the human readable wallet name.
func (k WalletKind) Label() string {
	switch k {
	case WalletInjected:
		return "MetaMask"
	case WalletRemotePairing:
		return "WalletConnect"
	default:
		return ""
	}
}

// ProviderKey is the persisted "<walletTag>_<networkTag>" identifier of a wallet/network combination.
type ProviderKey string

// Supported combinations. Anything else is rejected before a connection attempt starts.
const (
	ProviderKeyInjectedBNB      ProviderKey = "injected_bnb"
	ProviderKeyWalletConnectBNB ProviderKey = "walletconnect_bnb"
)

var supportedProviderKeys = map[ProviderKey]struct{}{ //nolint:gochecknoglobals
	ProviderKeyInjectedBNB:      {},
	ProviderKeyWalletConnectBNB: {},
}

// NewProviderKey joins a wallet kind and a network tag.
func NewProviderKey(kind WalletKind, networkTag string) ProviderKey {
	return ProviderKey(string(kind) + "_" + networkTag)
}

// Supported reports whether the key belongs to the statically known combinations.
func (p ProviderKey) Supported() bool {
	_, ok := supportedProviderKeys[p]
	return ok
}

// Split returns the wallet and network parts of the key.
func (p ProviderKey) Split() (WalletKind, string, error) {
	wallet, network, found := strings.Cut(string(p), "_")
	if !found || wallet == "" || network == "" {
		return "", "", fmt.Errorf("malformed provider key %q", string(p))
	}
	kind, err := ParseWalletKind(wallet)
	if err != nil {
		return "", "", err
	}
	return kind, network, nil
}

// IsInjected reports whether the key designates the injected wallet kind.
func (p ProviderKey) IsInjected() bool {
	return strings.HasPrefix(string(p), string(WalletInjected)+"_")
}

// WalletLabel is the display name of the wallet part of the key.
func (p ProviderKey) WalletLabel() string {
	switch {
	case strings.HasPrefix(string(p), string(WalletInjected)+"_"):
		return WalletInjected.Label()
	case strings.HasPrefix(string(p), string(WalletRemotePairing)+"_"):
		return WalletRemotePairing.Label()
	default:
		return ""
	}
}

// NetworkLabel is the display name of the network part of the key.
func (p ProviderKey) NetworkLabel() string {
	if strings.HasSuffix(string(p), "_bnb") {
		return "BNB Chain"
	}
	return ""
}
