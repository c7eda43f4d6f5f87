package entity

import "fmt"

// EIP-1193 / wallet provider error codes the connection flow reacts to.
const (
	CodeUserRejected      = 4001
	CodeUnrecognizedChain = 4902
	// CodePairingRejected is what remote signers send when the user declines a session proposal.
	CodePairingRejected = 5000
)

// ProviderError is an error returned by a wallet provider request.
// The code may come from the top level of the error or from nested data, depending on the wallet.
type ProviderError struct {
	Code    int
	Message string
	Data    any
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider error %d: %s", e.Code, e.Message)
}

// EffectiveCode resolves the code wallets put in different places:
// code, data.originalError.code, data.code.
func (e *ProviderError) EffectiveCode() int {
	if e.Code != 0 && e.Code != -32603 {
		return e.Code
	}
	if data, ok := e.Data.(map[string]any); ok {
		if orig, ok := data["originalError"].(map[string]any); ok {
			if code, ok := numericCode(orig["code"]); ok {
				return code
			}
		}
		if code, ok := numericCode(data["code"]); ok {
			return code
		}
	}
	return e.Code
}

func numericCode(v any) (int, bool) {
	switch c := v.(type) {
	case int:
		return c, true
	case int64:
		return int(c), true
	case float64:
		return int(c), true
	default:
		return 0, false
	}
}
