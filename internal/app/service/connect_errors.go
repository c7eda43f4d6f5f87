package service

import (
	"errors"
	"strings"

	"wallet_connector/internal/domain/entity"
)

// classifyConnectError maps a failed activation onto the failure taxonomy and a display message.
func classifyConnectError(err error) *entity.ConnectError {
	var cerr *entity.ConnectError
	if errors.As(err, &cerr) {
		return cerr
	}

	var chainErr *entity.UnsupportedChainError
	var providerErr *entity.ProviderError
	switch {
	case errors.Is(err, entity.ErrTimeout):
		return &entity.ConnectError{Reason: entity.ReasonTimeout, Message: entity.MessageTimeout, Err: err}
	case errors.As(err, &chainErr):
		return &entity.ConnectError{Reason: entity.ReasonUnsupportedChain, Message: chainErr.Error(), Err: err}
	case errors.Is(err, entity.ErrUnsupportedChain):
		return &entity.ConnectError{Reason: entity.ReasonUnsupportedChain, Message: describeError(err), Err: err}
	case errors.Is(err, entity.ErrNoProvider):
		return &entity.ConnectError{Reason: entity.ReasonNoProvider, Message: entity.MessageNoProvider, Err: err}
	case errors.Is(err, entity.ErrUserRejected):
		return &entity.ConnectError{Reason: entity.ReasonRejected, Message: entity.MessageRejected, Err: err}
	case errors.As(err, &providerErr) && providerErr.EffectiveCode() == entity.CodeUserRejected:
		return &entity.ConnectError{Reason: entity.ReasonRejected, Message: entity.MessageRejected, Err: err}
	default:
		return &entity.ConnectError{Reason: entity.ReasonUnknown, Message: describeError(err), Err: err}
	}
}

// describeError returns a best-effort human readable message.
func describeError(err error) string {
	if err == nil {
		return entity.MessageFallback
	}
	var providerErr *entity.ProviderError
	if errors.As(err, &providerErr) && strings.TrimSpace(providerErr.Message) != "" {
		return providerErr.Message
	}
	if msg := strings.TrimSpace(err.Error()); msg != "" {
		return msg
	}
	return entity.MessageFallback
}
