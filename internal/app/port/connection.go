package port

import (
	"context"
	"time"

	"wallet_connector/internal/domain/entity"
)

// ConnectionService is the wallet connection state machine as seen by the presentation layer.
type ConnectionService interface {
	OpenDialog()
	CloseDialog()
	Reset()

	SelectNetwork(networkTag string) error
	SelectWallet(walletTag string) error

	// Connect starts a connection attempt and returns once it is in flight or rejected synchronously.
	Connect(ctx context.Context) error
	Disconnect() error

	// Restore attempts a silent reconnect from the persisted session.
	Restore(ctx context.Context) error

	State() entity.ConnectionState
	Subscribe(fn func(entity.ConnectionEvent)) (unsubscribe func())

	// LatestPairing returns the pairing URI and QR code of the current remote-pairing attempt.
	LatestPairing() (uri string, qrPNG []byte, ok bool)
	Networks() []entity.NetworkDefinition
}

// ConnectionMetrics records connection attempts. Implementations must be safe for concurrent use.
type ConnectionMetrics interface {
	AttemptStarted(key entity.ProviderKey, interactive bool)
	AttemptSettled(key entity.ProviderKey, outcome string, elapsed time.Duration)
	ChainSetup(result string)
}
