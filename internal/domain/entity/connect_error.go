package entity

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// FailureReason is the taxonomy tag attached to every failed selection or connection attempt.
type FailureReason string

const (
	ReasonUnknownNetwork          FailureReason = "UnknownNetwork"
	ReasonUnsupportedWalletKind   FailureReason = "UnsupportedWalletKind"
	ReasonUnsupportedCombination  FailureReason = "UnsupportedCombination"
	ReasonInjectedProviderMissing FailureReason = "InjectedProviderMissing"
	ReasonNoProvider              FailureReason = "NoProvider"
	ReasonRejected                FailureReason = "UserRejected"
	ReasonUnsupportedChain        FailureReason = "UnsupportedChain"
	ReasonTimeout                 FailureReason = "Timeout"
	ReasonUnknown                 FailureReason = "Unknown"
)

// Display messages surfaced to the user.
const (
	MessageTimeout                 = "Connection timed out. Please try again."
	MessageNoProvider              = "No injected wallet found. Please install MetaMask."
	MessageRejected                = "Connection request rejected."
	MessageUnsupportedCombination  = "Unsupported wallet/network selection."
	MessageInjectedProviderMissing = "MetaMask not detected. Install the extension, then click Connect again."
	MessageFallback                = "Failed to connect wallet."
)

// InstallURL is offered to the user when the injected provider is missing.
const InstallURL = "https://metamask.io/download/"

var (
	ErrUnknownNetwork          = errors.New("unknown network")
	ErrUnsupportedWalletKind   = errors.New("unsupported wallet kind")
	ErrUnsupportedCombination  = errors.New("unsupported wallet/network combination")
	ErrInjectedProviderMissing = errors.New("injected provider missing")
	ErrNoProvider              = errors.New("no injected provider")
	ErrUserRejected            = errors.New("user rejected the request")
	ErrUnsupportedChain        = errors.New("unsupported chain")
	ErrTimeout                 = errors.New("connection timed out")

	// Selection errors returned to the presentation layer; they never change the connection phase.
	ErrConnectInFlight     = errors.New("connection attempt in flight")
	ErrNetworkNotSelected  = errors.New("network not selected")
	ErrSelectionIncomplete = errors.New("network and wallet must both be selected")
)

// ConnectError carries the taxonomy tag, the display message and the underlying cause.
type ConnectError struct {
	Reason  FailureReason `json:"reason"`
	Message string        `json:"message"`
	Err     error         `json:"-"`
}

func (e *ConnectError) Error() string {
	return e.Message
}

func (e *ConnectError) Unwrap() error {
	return e.Err
}

// UnsupportedChainError is reported by a connector when the wallet sits on a chain other than the configured one.
type UnsupportedChainError struct {
	ChainID   uint64
	Supported []uint64
}

func (e *UnsupportedChainError) Error() string {
	ids := make([]string, len(e.Supported))
	for i, id := range e.Supported {
		ids[i] = strconv.FormatUint(id, 10)
	}
	return fmt.Sprintf("Unsupported chain id: %d. Supported chain ids are: %s.", e.ChainID, strings.Join(ids, ", "))
}

func (e *UnsupportedChainError) Is(target error) bool {
	return target == ErrUnsupportedChain
}
