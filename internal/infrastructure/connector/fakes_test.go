package connector

import (
	"context"
	"sync"

	"wallet_connector/internal/app/port"
	"wallet_connector/internal/domain/entity"
)

var testBNB = entity.NetworkDefinition{ //nolint:gochecknoglobals
	ChainID:       97,
	Name:          "BSC Testnet",
	Identifier:    "bnb",
	NativeSymbol:  "BNB",
	Decimals:      18,
	PrimaryRPCURL: "https://data-seed-prebsc-1-s1.binance.org:8545",
}

type nopLogger struct{}

func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

type staticRegistry map[string]entity.NetworkDefinition

func (r staticRegistry) Describe(tag string) (entity.NetworkDefinition, error) {
	def, ok := r[tag]
	if !ok {
		return entity.NetworkDefinition{}, entity.ErrUnknownNetwork
	}
	return def, nil
}

func (r staticRegistry) All() []entity.NetworkDefinition {
	out := make([]entity.NetworkDefinition, 0, len(r))
	for _, d := range r {
		out = append(out, d)
	}
	return out
}

// scriptedProvider answers requests through a func so tests can change wallet state between calls.
type scriptedProvider struct {
	mu     sync.Mutex
	answer func(method string) (any, error)
	calls  []string
}

func (p *scriptedProvider) Request(_ context.Context, result any, method string, _ ...any) error {
	p.mu.Lock()
	p.calls = append(p.calls, method)
	answer := p.answer
	p.mu.Unlock()

	v, err := answer(method)
	if err != nil {
		return err
	}
	return assign(result, v)
}

func (p *scriptedProvider) setAnswer(fn func(method string) (any, error)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.answer = fn
}

type stubEnv struct {
	provider port.EthereumProvider
}

func (e *stubEnv) Present() bool { return e.provider != nil }

func (e *stubEnv) Provider(context.Context) (port.EthereumProvider, error) {
	if e.provider == nil {
		return nil, entity.ErrNoProvider
	}
	return e.provider, nil
}

type eventSink struct {
	mu     sync.Mutex
	events []entity.ConnectorEvent
}

func (s *eventSink) listener() *port.Listener {
	return port.NewListener(func(ev entity.ConnectorEvent) {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.events = append(s.events, ev)
	})
}

func (s *eventSink) byName(name entity.ConnectorEventName) []entity.ConnectorEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []entity.ConnectorEvent
	for _, ev := range s.events {
		if ev.Name == name {
			out = append(out, ev)
		}
	}
	return out
}

type recordingDisplay struct {
	mu  sync.Mutex
	uri string
	png []byte
}

func (d *recordingDisplay) ShowPairingURI(uri string, png []byte) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.uri, d.png = uri, png
}

func (d *recordingDisplay) shown() (string, []byte) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.uri, d.png
}
