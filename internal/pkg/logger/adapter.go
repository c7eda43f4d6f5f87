package logger

import "wallet_connector/internal/app/port"

// slogAdapter реализует интерфейс port.Logger, используя глобальные функции пакета logger.
// Это позволяет передавать конкретную реализацию логгера в сервисы, ожидающие port.Logger.
type slogAdapter struct {
	args []any
}

// NewSlogAdapter создает новый экземпляр slogAdapter.
func NewSlogAdapter() port.Logger {
	return &slogAdapter{}
}

// NewComponentAdapter returns an adapter that tags every record with the component name.
func NewComponentAdapter(component string) port.Logger {
	return &slogAdapter{args: []any{"component", component}}
}

func (a *slogAdapter) with(args []any) []any {
	if len(a.args) == 0 {
		return args
	}
	return append(append(make([]any, 0, len(a.args)+len(args)), a.args...), args...)
}

func (a *slogAdapter) Info(msg string, args ...any) {
	Info(msg, a.with(args)...)
}

func (a *slogAdapter) Debug(msg string, args ...any) {
	Debug(msg, a.with(args)...)
}

func (a *slogAdapter) Warn(msg string, args ...any) {
	Warn(msg, a.with(args)...)
}

func (a *slogAdapter) Error(msg string, args ...any) {
	Error(msg, a.with(args)...)
}

type nopAdapter struct{}

// NewNopAdapter returns a port.Logger that discards everything. Handy in tests.
func NewNopAdapter() port.Logger {
	return nopAdapter{}
}

func (nopAdapter) Info(string, ...any)  {}
func (nopAdapter) Debug(string, ...any) {}
func (nopAdapter) Warn(string, ...any)  {}
func (nopAdapter) Error(string, ...any) {}
