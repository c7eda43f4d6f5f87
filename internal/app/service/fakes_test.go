package service

import (
	"context"
	"fmt"
	"sync"

	"wallet_connector/internal/app/port"
	"wallet_connector/internal/domain/entity"
)

var (
	testBNB = entity.NetworkDefinition{
		ChainID:          97,
		Name:             "BSC Testnet",
		Identifier:       "bnb",
		NativeSymbol:     "BNB",
		Decimals:         18,
		PrimaryRPCURL:    "https://data-seed-prebsc-1-s1.binance.org:8545",
		BlockExplorerURL: "https://testnet.bscscan.com/",
	}
	testETH = entity.NetworkDefinition{
		ChainID:      3,
		Name:         "Ropsten",
		Identifier:   "eth",
		NativeSymbol: "ETH",
		Decimals:     18,
	}
)

const testAccount = "0x1234567890abcdef1234567890abcdef12345678"

type nopLogger struct{}

func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

type fakeRegistry struct {
	networks []entity.NetworkDefinition
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{networks: []entity.NetworkDefinition{testBNB, testETH}}
}

func (r *fakeRegistry) Describe(tag string) (entity.NetworkDefinition, error) {
	for _, n := range r.networks {
		if n.Identifier == tag {
			return n, nil
		}
	}
	return entity.NetworkDefinition{}, fmt.Errorf("%w: %q", entity.ErrUnknownNetwork, tag)
}

func (r *fakeRegistry) All() []entity.NetworkDefinition {
	return r.networks
}

type fakeConnector struct {
	kind    entity.WalletKind
	network entity.NetworkDefinition

	mu          sync.Mutex
	activate    func(ctx context.Context, call int) (entity.Activation, error)
	calls       int
	deactivated int
	listeners   map[entity.ConnectorEventName][]*port.Listener
}

func newFakeConnector(kind entity.WalletKind, network entity.NetworkDefinition) *fakeConnector {
	return &fakeConnector{
		kind:      kind,
		network:   network,
		listeners: make(map[entity.ConnectorEventName][]*port.Listener),
		activate: func(context.Context, int) (entity.Activation, error) {
			return entity.Activation{Account: testAccount, ChainID: network.ChainID}, nil
		},
	}
}

func (c *fakeConnector) Kind() entity.WalletKind            { return c.kind }
func (c *fakeConnector) Network() entity.NetworkDefinition { return c.network }
func (c *fakeConnector) Account() string                   { return testAccount }
func (c *fakeConnector) ChainID() uint64                   { return c.network.ChainID }
func (c *fakeConnector) Provider() port.EthereumProvider   { return nil }

func (c *fakeConnector) Activate(ctx context.Context) (entity.Activation, error) {
	c.mu.Lock()
	c.calls++
	call := c.calls
	fn := c.activate
	c.mu.Unlock()
	return fn(ctx, call)
}

func (c *fakeConnector) Deactivate() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deactivated++
	return nil
}

func (c *fakeConnector) On(event entity.ConnectorEventName, l *port.Listener) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners[event] = append(c.listeners[event], l)
}

func (c *fakeConnector) Off(event entity.ConnectorEventName, l *port.Listener) {
	c.mu.Lock()
	defer c.mu.Unlock()
	kept := c.listeners[event][:0]
	for _, existing := range c.listeners[event] {
		if existing != l {
			kept = append(kept, existing)
		}
	}
	c.listeners[event] = kept
}

func (c *fakeConnector) emit(ev entity.ConnectorEvent) {
	c.mu.Lock()
	ls := append([]*port.Listener(nil), c.listeners[ev.Name]...)
	c.mu.Unlock()
	for _, l := range ls {
		l.Handle(ev)
	}
}

func (c *fakeConnector) listenerCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, ls := range c.listeners {
		n += len(ls)
	}
	return n
}

func (c *fakeConnector) activations() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

func (c *fakeConnector) deactivations() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.deactivated
}

type fakeFactory struct {
	mu         sync.Mutex
	connectors map[entity.WalletKind]*fakeConnector
	configured []string
	builds     int
}

func newFakeFactory(conns ...*fakeConnector) *fakeFactory {
	f := &fakeFactory{connectors: make(map[entity.WalletKind]*fakeConnector)}
	for _, c := range conns {
		f.connectors[c.kind] = c
	}
	return f
}

func (f *fakeFactory) Configure(tag string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.configured = append(f.configured, tag)
	return nil
}

func (f *fakeFactory) Build(kind entity.WalletKind, _ string) (port.Connector, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.builds++
	c, ok := f.connectors[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %s", entity.ErrUnsupportedWalletKind, kind)
	}
	return c, nil
}

func (f *fakeFactory) buildCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.builds
}

type memStore struct {
	mu        sync.Mutex
	key       entity.ProviderKey
	hasKey    bool
	connected bool
	saves     int
}

func (m *memStore) Save(key entity.ProviderKey) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.key, m.hasKey = key, true
	m.saves++
	return nil
}

func (m *memStore) Load() (entity.ProviderKey, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.key, m.hasKey, nil
}

func (m *memStore) MarkConnected() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connected = true
	return nil
}

func (m *memStore) IsMarkedConnected() (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connected, nil
}

func (m *memStore) ClearConnected() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connected = false
	return nil
}

func (m *memStore) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.key, m.hasKey, m.connected = "", false, false
	return nil
}

func (m *memStore) snapshot() (entity.ProviderKey, bool, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.key, m.hasKey, m.connected
}

type providerCall struct {
	method string
	params []any
}

type fakeProvider struct {
	mu        sync.Mutex
	calls     []providerCall
	responses map[string][]error
}

func (p *fakeProvider) Request(_ context.Context, _ any, method string, params ...any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, providerCall{method: method, params: params})
	queue := p.responses[method]
	if len(queue) == 0 {
		return nil
	}
	err := queue[0]
	p.responses[method] = queue[1:]
	return err
}

func (p *fakeProvider) methods() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.calls))
	for i, c := range p.calls {
		out[i] = c.method
	}
	return out
}

type fakeEnv struct {
	present  bool
	provider *fakeProvider
}

func (e *fakeEnv) Present() bool { return e.present }

func (e *fakeEnv) Provider(context.Context) (port.EthereumProvider, error) {
	if !e.present {
		return nil, entity.ErrNoProvider
	}
	return e.provider, nil
}

type eventRecorder struct {
	mu     sync.Mutex
	events []entity.ConnectionEvent
}

func (r *eventRecorder) record(ev entity.ConnectionEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *eventRecorder) count(t entity.ConnectionEventType) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, ev := range r.events {
		if ev.Type == t {
			n++
		}
	}
	return n
}

func (r *eventRecorder) last(t entity.ConnectionEventType) (entity.ConnectionEvent, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.events) - 1; i >= 0; i-- {
		if r.events[i].Type == t {
			return r.events[i], true
		}
	}
	return entity.ConnectionEvent{}, false
}
