package entity

// ConnectionPhase is the observable phase of the wallet connection flow.
type ConnectionPhase string

const (
	PhaseIdle                   ConnectionPhase = "Idle"
	PhaseNetworkChosen          ConnectionPhase = "NetworkChosen"
	PhaseReadyToConnect         ConnectionPhase = "ReadyToConnect"
	PhaseAwaitingWalletApproval ConnectionPhase = "AwaitingWalletApproval"
	PhaseConnected              ConnectionPhase = "Connected"
	PhaseFailed                 ConnectionPhase = "Failed"
)

// Activation is what a connector resolves with once the wallet approved the connection.
type Activation struct {
	Account string `json:"account"`
	ChainID uint64 `json:"chainId"`
}

// ConnectionState is a snapshot of the state machine published to the presentation layer.
type ConnectionState struct {
	Phase           ConnectionPhase `json:"phase"`
	DialogOpen      bool            `json:"dialogOpen"`
	SelectedNetwork string          `json:"selectedNetwork,omitempty"`
	SelectedWallet  WalletKind      `json:"selectedWallet,omitempty"`
	ProviderKey     ProviderKey     `json:"providerKey,omitempty"`
	Account         string          `json:"account,omitempty"`
	ChainID         uint64          `json:"chainId,omitempty"`
	FailureReason   FailureReason   `json:"failureReason,omitempty"`
	ErrorMessage    string          `json:"error,omitempty"`
}

// Connected reports whether an account is attached.
func (s ConnectionState) Connected() bool {
	return s.Phase == PhaseConnected && s.Account != ""
}

// ShortAccount formats the account as 0x1234…abcd for display.
func (s ConnectionState) ShortAccount() string {
	return FormatAddress(s.Account)
}

// FormatAddress shortens long addresses to their first 6 and last 4 characters.
func FormatAddress(address string) string {
	if len(address) <= 12 {
		return address
	}
	return address[:6] + "…" + address[len(address)-4:]
}

// ConnectionEventType names events published by the state machine.
type ConnectionEventType string

const (
	EventStateChanged  ConnectionEventType = "stateChanged"
	EventCloseDialog   ConnectionEventType = "closeDialog"
	EventInstallPrompt ConnectionEventType = "installPrompt"
	EventPairingURI    ConnectionEventType = "pairingUri"
)

// ConnectionEvent is delivered to subscribers of the state machine.
type ConnectionEvent struct {
	Type       ConnectionEventType `json:"type"`
	State      ConnectionState     `json:"state"`
	InstallURL string              `json:"installUrl,omitempty"`
	PairingURI string              `json:"pairingUri,omitempty"`
}

// ConnectorEventName names notifications emitted by a live connector.
type ConnectorEventName string

const (
	ConnectorChainChanged    ConnectorEventName = "chainChanged"
	ConnectorAccountsChanged ConnectorEventName = "accountsChanged"
	ConnectorDisconnect      ConnectorEventName = "disconnect"
	ConnectorError           ConnectorEventName = "error"
)

// ConnectorEvent is the payload of a connector notification.
type ConnectorEvent struct {
	Name     ConnectorEventName
	ChainID  uint64
	Accounts []string
	Err      error
}
