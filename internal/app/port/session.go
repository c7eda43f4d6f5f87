package port

import "wallet_connector/internal/domain/entity"

// Session store keys.
const (
	SessionKeyWallet    = "wallet"
	SessionKeyConnected = "connected"
)

// SessionStore is a thin durable key-value wrapper. It performs no validation.
type SessionStore interface {
	Save(key entity.ProviderKey) error
	Load() (entity.ProviderKey, bool, error)

	MarkConnected() error
	IsMarkedConnected() (bool, error)
	// ClearConnected removes only the connected marker.
	ClearConnected() error

	// Clear removes both the provider key and the connected marker.
	Clear() error
}
