package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"wallet_connector/internal/app/port"
	"wallet_connector/internal/domain/entity"
)

// ConnectTimeout bounds the wait for wallet approval of a single attempt.
const ConnectTimeout = 90 * time.Second

// Attempt outcomes reported to metrics.
const (
	outcomeConnected = "connected"
	outcomeFailed    = "failed"
	outcomeTimeout   = "timeout"
	outcomeAbandoned = "abandoned"
)

var connectorEvents = []entity.ConnectorEventName{ //nolint:gochecknoglobals
	entity.ConnectorChainChanged,
	entity.ConnectorAccountsChanged,
	entity.ConnectorDisconnect,
	entity.ConnectorError,
}

// Option configures ConnectionServiceImpl.
type Option func(*ConnectionServiceImpl)

// WithConnectTimeout overrides ConnectTimeout. Used by tests.
func WithConnectTimeout(d time.Duration) Option {
	return func(s *ConnectionServiceImpl) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithMetrics attaches a metrics recorder.
func WithMetrics(m port.ConnectionMetrics) Option {
	return func(s *ConnectionServiceImpl) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithSupportedKeys replaces the check of wallet/network combinations allowed to connect.
func WithSupportedKeys(supported func(entity.ProviderKey) bool) Option {
	return func(s *ConnectionServiceImpl) {
		if supported != nil {
			s.supported = supported
		}
	}
}

// WithChainSetup replaces the default chain setup helper.
func WithChainSetup(h *ChainSetupHelper) Option {
	return func(s *ConnectionServiceImpl) {
		if h != nil {
			s.chainSetup = h
		}
	}
}

// sessionContext owns the network and the connector handle currently in use.
type sessionContext struct {
	network    entity.NetworkDefinition
	configured bool
	handle     port.Connector
	listener   *port.Listener
	key        entity.ProviderKey
}

type attempt struct {
	id          uint64
	key         entity.ProviderKey
	interactive bool
	cancel      context.CancelFunc
	timer       *time.Timer
	startedAt   time.Time
}

type pairingInfo struct {
	uri string
	qr  []byte
}

// ConnectionServiceImpl implements port.ConnectionService.
type ConnectionServiceImpl struct {
	registry   port.NetworkRegistry
	factory    port.ConnectorFactory
	store      port.SessionStore
	env        port.InjectedEnvironment
	chainSetup *ChainSetupHelper
	metrics    port.ConnectionMetrics
	logger     port.Logger
	timeout    time.Duration
	supported  func(entity.ProviderKey) bool

	mu              sync.Mutex
	dialogOpen      bool
	selectedNetwork string
	selectedWallet  entity.WalletKind
	account         string
	chainID         uint64
	failed          bool
	failure         *entity.ConnectError
	nextAttemptID   uint64
	current         *attempt
	session         sessionContext
	pairing         *pairingInfo

	subsMu    sync.Mutex
	subs      map[uint64]func(entity.ConnectionEvent)
	nextSubID uint64

	// outbox keeps events in the order their state was produced under mu.
	outMu    sync.Mutex
	outbox   []entity.ConnectionEvent
	flushing bool
}

// NewConnectionService creates a new instance of ConnectionServiceImpl.
func NewConnectionService(
	registry port.NetworkRegistry,
	factory port.ConnectorFactory,
	store port.SessionStore,
	env port.InjectedEnvironment,
	l port.Logger,
	opts ...Option,
) *ConnectionServiceImpl {
	s := &ConnectionServiceImpl{
		registry:  registry,
		factory:   factory,
		store:     store,
		env:       env,
		logger:    l,
		metrics:   noopMetrics{},
		timeout:   ConnectTimeout,
		supported: entity.ProviderKey.Supported,
		subs:      make(map[uint64]func(entity.ConnectionEvent)),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.chainSetup == nil {
		s.chainSetup = NewChainSetupHelper(env, l, s.metrics)
	}
	return s
}

// OpenDialog marks the connection dialog as shown.
func (s *ConnectionServiceImpl) OpenDialog() {
	s.mu.Lock()
	s.dialogOpen = true
	ev := s.stateEventLocked()
	s.unlockAndPublish(ev)
}

// CloseDialog hides the dialog and drops the user's selection together with any attempt in flight.
func (s *ConnectionServiceImpl) CloseDialog() {
	s.mu.Lock()
	s.dialogOpen = false
	s.resetIntentLocked()
	ev := s.stateEventLocked()
	s.unlockAndPublish(ev)
}

// Reset drops the selection, the error and any attempt in flight. The dialog stays as it is.
func (s *ConnectionServiceImpl) Reset() {
	s.mu.Lock()
	s.resetIntentLocked()
	ev := s.stateEventLocked()
	s.unlockAndPublish(ev)
}

// SelectNetwork selects networkTag, or clears the selection when it is already selected.
func (s *ConnectionServiceImpl) SelectNetwork(networkTag string) error {
	if _, err := s.registry.Describe(networkTag); err != nil {
		return err
	}

	s.mu.Lock()
	if s.current != nil {
		s.mu.Unlock()
		return entity.ErrConnectInFlight
	}
	if s.selectedNetwork == networkTag {
		s.selectedNetwork = ""
	} else {
		s.selectedNetwork = networkTag
	}
	s.selectedWallet = ""
	s.clearFailureLocked()
	ev := s.stateEventLocked()
	s.unlockAndPublish(ev)
	return nil
}

// SelectWallet selects the wallet kind for the chosen network.
func (s *ConnectionServiceImpl) SelectWallet(walletTag string) error {
	kind, err := entity.ParseWalletKind(walletTag)
	if err != nil {
		return err
	}

	s.mu.Lock()
	if s.current != nil {
		s.mu.Unlock()
		return entity.ErrConnectInFlight
	}
	if s.selectedNetwork == "" {
		s.mu.Unlock()
		return entity.ErrNetworkNotSelected
	}
	s.selectedWallet = kind
	s.clearFailureLocked()
	ev := s.stateEventLocked()
	s.unlockAndPublish(ev)
	return nil
}

// Connect starts an interactive connection attempt for the current selection.
// It returns once the attempt is in flight; the outcome is published to subscribers.
func (s *ConnectionServiceImpl) Connect(ctx context.Context) error {
	s.mu.Lock()
	if s.current != nil || s.account != "" {
		s.mu.Unlock()
		s.logger.Debug("Connect ignored: attempt in flight or wallet already connected")
		return nil
	}
	if s.selectedNetwork == "" || s.selectedWallet == "" {
		s.mu.Unlock()
		return entity.ErrSelectionIncomplete
	}

	key := entity.NewProviderKey(s.selectedWallet, s.selectedNetwork)
	s.clearFailureLocked()

	if !s.supported(key) {
		cerr := s.rejectUnsupportedLocked(key)
		ev := s.stateEventLocked()
		s.unlockAndPublish(ev)
		return cerr
	}

	if s.selectedWallet == entity.WalletInjected && (s.env == nil || !s.env.Present()) {
		cerr := &entity.ConnectError{
			Reason:  entity.ReasonInjectedProviderMissing,
			Message: entity.MessageInjectedProviderMissing,
			Err:     entity.ErrInjectedProviderMissing,
		}
		s.failure = cerr
		events := []entity.ConnectionEvent{
			s.stateEventLocked(),
			{Type: entity.EventInstallPrompt, State: s.stateLocked(), InstallURL: entity.InstallURL},
		}
		s.logger.Warn("Injected wallet requested but no injected provider is available", "provider_key", key)
		s.unlockAndPublish(events...)
		return cerr
	}

	events := s.beginAttemptLocked(ctx, key, true)
	s.unlockAndPublish(events...)
	return nil
}

// Disconnect deactivates the live handle, clears the persisted session and returns to Idle.
func (s *ConnectionServiceImpl) Disconnect() error {
	s.mu.Lock()
	s.abandonAttemptLocked()
	err := s.releaseHandleLocked()
	s.account = ""
	s.chainID = 0
	s.session.key = ""
	s.selectedNetwork = ""
	s.selectedWallet = ""
	s.clearFailureLocked()
	s.clearSessionLocked()
	ev := s.stateEventLocked()
	s.unlockAndPublish(ev)
	if err != nil {
		return fmt.Errorf("deactivate connector: %w", err)
	}
	return nil
}

// Restore silently reconnects the persisted provider when the previous run left a connected marker.
func (s *ConnectionServiceImpl) Restore(ctx context.Context) error {
	marked, err := s.store.IsMarkedConnected()
	if err != nil {
		return fmt.Errorf("read session marker: %w", err)
	}
	if !marked {
		s.logger.Debug("No connected session to restore")
		return nil
	}

	key, ok, err := s.store.Load()
	if err != nil {
		return fmt.Errorf("read session provider: %w", err)
	}
	if !ok || key == "" {
		s.logger.Warn("Connected marker without provider key, clearing it")
		if err := s.store.ClearConnected(); err != nil {
			s.logger.Error("Failed to clear connected marker", "error", err)
		}
		return nil
	}

	if key.IsInjected() && (s.env == nil || !s.env.Present()) {
		s.logger.Warn("Persisted injected session but no injected provider, clearing session", "provider_key", key)
		if err := s.store.Clear(); err != nil {
			s.logger.Error("Failed to clear session", "error", err)
		}
		return nil
	}

	s.mu.Lock()
	if s.current != nil || s.account != "" {
		s.mu.Unlock()
		return nil
	}
	if !s.supported(key) {
		cerr := s.rejectUnsupportedLocked(key)
		ev := s.stateEventLocked()
		s.unlockAndPublish(ev)
		return cerr
	}
	s.logger.Info("Restoring wallet session", "provider_key", key)
	events := s.beginAttemptLocked(ctx, key, false)
	s.unlockAndPublish(events...)
	return nil
}

// State returns the current snapshot.
func (s *ConnectionServiceImpl) State() entity.ConnectionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

// Networks lists the networks the registry knows about.
func (s *ConnectionServiceImpl) Networks() []entity.NetworkDefinition {
	return s.registry.All()
}

// Subscribe registers fn for every published event. Callbacks run outside the state lock.
func (s *ConnectionServiceImpl) Subscribe(fn func(entity.ConnectionEvent)) func() {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	id := s.nextSubID
	s.nextSubID++
	s.subs[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			s.subsMu.Lock()
			delete(s.subs, id)
			s.subsMu.Unlock()
		})
	}
}

// ShowPairingURI implements port.PairingDisplay for the remote-pairing connector.
func (s *ConnectionServiceImpl) ShowPairingURI(uri string, qrPNG []byte) {
	s.mu.Lock()
	s.pairing = &pairingInfo{uri: uri, qr: qrPNG}
	ev := entity.ConnectionEvent{Type: entity.EventPairingURI, State: s.stateLocked(), PairingURI: uri}
	s.unlockAndPublish(ev)
}

// LatestPairing returns the pairing URI shown for the attempt in flight.
func (s *ConnectionServiceImpl) LatestPairing() (string, []byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pairing == nil {
		return "", nil, false
	}
	return s.pairing.uri, s.pairing.qr, true
}

func (s *ConnectionServiceImpl) beginAttemptLocked(parent context.Context, key entity.ProviderKey, interactive bool) []entity.ConnectionEvent {
	kind, networkTag, err := key.Split()
	if err != nil {
		s.failLocked(&entity.ConnectError{Reason: entity.ReasonUnsupportedCombination, Message: entity.MessageUnsupportedCombination, Err: err})
		return []entity.ConnectionEvent{s.stateEventLocked()}
	}
	network, err := s.registry.Describe(networkTag)
	if err != nil {
		s.failLocked(&entity.ConnectError{Reason: entity.ReasonUnknownNetwork, Message: describeError(err), Err: err})
		return []entity.ConnectionEvent{s.stateEventLocked()}
	}

	// Persisted before any asynchronous work so a restart mid-handshake can restore.
	if err := s.store.Save(key); err != nil {
		s.logger.Error("Failed to persist provider key", "provider_key", key, "error", err)
	}
	if err := s.store.MarkConnected(); err != nil {
		s.logger.Error("Failed to persist connected marker", "error", err)
	}

	handle, err := s.prepareHandleLocked(kind, network)
	if err != nil {
		s.logger.Error("Failed to build connector", "provider_key", key, "error", err)
		s.failLocked(classifyConnectError(err))
		return []entity.ConnectionEvent{s.stateEventLocked()}
	}

	s.nextAttemptID++
	id := s.nextAttemptID
	ctx, cancel := context.WithCancel(context.WithoutCancel(parent))
	a := &attempt{
		id:          id,
		key:         key,
		interactive: interactive,
		cancel:      cancel,
		startedAt:   time.Now(),
	}
	a.timer = time.AfterFunc(s.timeout, func() { s.expire(id) })
	s.current = a
	s.pairing = nil
	s.clearFailureLocked()
	s.metrics.AttemptStarted(key, interactive)
	s.logger.Info("Connection attempt started", "attempt", id, "provider_key", key, "interactive", interactive)

	go s.runAttempt(ctx, id, handle, network)

	return []entity.ConnectionEvent{s.stateEventLocked()}
}

func (s *ConnectionServiceImpl) runAttempt(ctx context.Context, id uint64, handle port.Connector, network entity.NetworkDefinition) {
	activation, err := handle.Activate(ctx)

	var chainErr *entity.UnsupportedChainError
	if err != nil && errors.As(err, &chainErr) && handle.Kind() == entity.WalletInjected {
		if s.chainSetup.EnsureChain(ctx, network) {
			activation, err = handle.Activate(ctx)
		} else {
			s.logger.Error("Wallet is on an unsupported chain", "attempt", id, "error", err)
		}
	}

	s.settle(id, handle, activation, err)
}

// settle applies an activation result if attempt id is still the live one.
func (s *ConnectionServiceImpl) settle(id uint64, handle port.Connector, activation entity.Activation, err error) {
	s.mu.Lock()
	a := s.current
	if a == nil || a.id != id {
		s.logger.Warn("Ignoring stale connection result", "attempt", id, "error", err)
		// A late success leaves the connector active. Another attempt may already be using the same handle.
		inUse := s.session.handle == handle && (s.current != nil || s.account != "")
		if err == nil && !inUse {
			if derr := handle.Deactivate(); derr != nil {
				s.logger.Warn("Failed to deactivate connector of stale attempt", "attempt", id, "error", derr)
			}
		}
		s.mu.Unlock()
		return
	}
	a.timer.Stop()
	a.cancel()
	s.current = nil
	elapsed := time.Since(a.startedAt)

	var events []entity.ConnectionEvent
	if err != nil {
		cerr := classifyConnectError(err)
		s.logger.Warn("Connection attempt failed", "attempt", id, "provider_key", a.key, "reason", cerr.Reason, "error", err)
		s.failLocked(cerr)
		s.metrics.AttemptSettled(a.key, outcomeFailed, elapsed)
		events = append(events, s.stateEventLocked())
		s.unlockAndPublish(events...)
		return
	}

	s.account = activation.Account
	s.chainID = activation.ChainID
	s.session.key = a.key
	s.clearFailureLocked()
	s.attachListenerLocked()
	s.metrics.AttemptSettled(a.key, outcomeConnected, elapsed)
	s.logger.Info("Wallet connected", "attempt", id, "provider_key", a.key, "account", entity.FormatAddress(activation.Account), "chain_id", activation.ChainID)

	closeDialog := a.interactive && s.dialogOpen
	if closeDialog {
		s.dialogOpen = false
		s.selectedNetwork = ""
		s.selectedWallet = ""
	}
	events = append(events, s.stateEventLocked())
	if closeDialog {
		events = append(events, entity.ConnectionEvent{Type: entity.EventCloseDialog, State: s.stateLocked()})
	}
	s.unlockAndPublish(events...)
}

func (s *ConnectionServiceImpl) expire(id uint64) {
	s.mu.Lock()
	a := s.current
	if a == nil || a.id != id {
		s.mu.Unlock()
		return
	}
	a.cancel()
	s.current = nil
	s.logger.Warn("Connection attempt timed out", "attempt", id, "provider_key", a.key, "timeout", s.timeout)
	s.failLocked(&entity.ConnectError{Reason: entity.ReasonTimeout, Message: entity.MessageTimeout, Err: entity.ErrTimeout})
	s.metrics.AttemptSettled(a.key, outcomeTimeout, time.Since(a.startedAt))
	ev := s.stateEventLocked()
	s.unlockAndPublish(ev)
}

func (s *ConnectionServiceImpl) onConnectorEvent(handle port.Connector, ev entity.ConnectorEvent) {
	s.mu.Lock()
	if s.session.handle != handle || s.account == "" || s.current != nil {
		s.mu.Unlock()
		return
	}

	switch ev.Name {
	case entity.ConnectorAccountsChanged:
		if len(ev.Accounts) == 0 {
			s.logger.Info("Wallet removed all accounts, disconnecting")
			s.dropConnectionLocked()
			s.clearSessionLocked()
			break
		}
		s.account = ev.Accounts[0]
		s.logger.Debug("Wallet account changed", "account", entity.FormatAddress(s.account))
	case entity.ConnectorChainChanged:
		if ev.ChainID == s.session.network.ChainID {
			s.chainID = ev.ChainID
			break
		}
		chainErr := &entity.UnsupportedChainError{ChainID: ev.ChainID, Supported: []uint64{s.session.network.ChainID}}
		s.logger.Warn("Wallet switched to an unsupported chain", "chain_id", ev.ChainID, "expected", s.session.network.ChainID)
		s.failOutOfBandLocked(&entity.ConnectError{Reason: entity.ReasonUnsupportedChain, Message: chainErr.Error(), Err: chainErr})
	case entity.ConnectorError:
		cerr := classifyConnectError(ev.Err)
		if ev.Err == nil {
			cerr = &entity.ConnectError{Reason: entity.ReasonUnknown, Message: entity.MessageFallback}
		}
		s.logger.Error("Connector reported an error", "error", ev.Err)
		s.failOutOfBandLocked(cerr)
	case entity.ConnectorDisconnect:
		s.logger.Info("Wallet disconnected")
		s.dropConnectionLocked()
		s.clearSessionLocked()
	default:
		s.mu.Unlock()
		return
	}
	out := s.stateEventLocked()
	s.unlockAndPublish(out)
}

func (s *ConnectionServiceImpl) prepareHandleLocked(kind entity.WalletKind, network entity.NetworkDefinition) (port.Connector, error) {
	if s.session.configured && s.session.network.Identifier != network.Identifier {
		if err := s.releaseHandleLocked(); err != nil {
			s.logger.Warn("Failed to deactivate connector before network change", "error", err)
		}
		s.session.configured = false
	}
	if !s.session.configured {
		if err := s.factory.Configure(network.Identifier); err != nil {
			return nil, fmt.Errorf("configure connectors for %s: %w", network.Identifier, err)
		}
		s.session.network = network
		s.session.configured = true
	}
	if s.session.handle != nil && s.session.handle.Kind() != kind {
		if err := s.releaseHandleLocked(); err != nil {
			s.logger.Warn("Failed to deactivate previous connector", "error", err)
		}
	}

	handle, err := s.factory.Build(kind, network.Identifier)
	if err != nil {
		return nil, err
	}
	s.session.handle = handle
	return handle, nil
}

func (s *ConnectionServiceImpl) attachListenerLocked() {
	h := s.session.handle
	if h == nil {
		return
	}
	if s.session.listener != nil {
		for _, name := range connectorEvents {
			h.Off(name, s.session.listener)
		}
	}
	l := port.NewListener(func(ev entity.ConnectorEvent) { s.onConnectorEvent(h, ev) })
	for _, name := range connectorEvents {
		h.On(name, l)
	}
	s.session.listener = l
}

func (s *ConnectionServiceImpl) releaseHandleLocked() error {
	h := s.session.handle
	if h == nil {
		return nil
	}
	if s.session.listener != nil {
		for _, name := range connectorEvents {
			h.Off(name, s.session.listener)
		}
	}
	s.session.handle = nil
	s.session.listener = nil
	return h.Deactivate()
}

// dropConnectionLocked forgets the connected account and the handle.
func (s *ConnectionServiceImpl) dropConnectionLocked() {
	if err := s.releaseHandleLocked(); err != nil {
		s.logger.Warn("Failed to deactivate connector", "error", err)
	}
	s.account = ""
	s.chainID = 0
	s.session.key = ""
}

func (s *ConnectionServiceImpl) failOutOfBandLocked(cerr *entity.ConnectError) {
	s.dropConnectionLocked()
	s.failure = cerr
	s.failed = true
	if err := s.store.ClearConnected(); err != nil {
		s.logger.Error("Failed to clear connected marker", "error", err)
	}
}

func (s *ConnectionServiceImpl) failLocked(cerr *entity.ConnectError) {
	s.failure = cerr
	s.failed = true
	s.clearSessionLocked()
}

func (s *ConnectionServiceImpl) rejectUnsupportedLocked(key entity.ProviderKey) *entity.ConnectError {
	s.logger.Warn("Unsupported wallet/network combination", "provider_key", key)
	s.clearSessionLocked()
	s.failure = &entity.ConnectError{
		Reason:  entity.ReasonUnsupportedCombination,
		Message: entity.MessageUnsupportedCombination,
		Err:     fmt.Errorf("%w: %s", entity.ErrUnsupportedCombination, key),
	}
	s.failed = false
	return s.failure
}

func (s *ConnectionServiceImpl) clearSessionLocked() {
	if err := s.store.Clear(); err != nil {
		s.logger.Error("Failed to clear persisted session", "error", err)
	}
}

func (s *ConnectionServiceImpl) clearFailureLocked() {
	s.failure = nil
	s.failed = false
}

// abandonAttemptLocked invalidates the attempt in flight so its late result is ignored.
func (s *ConnectionServiceImpl) abandonAttemptLocked() bool {
	a := s.current
	if a == nil {
		return false
	}
	a.timer.Stop()
	a.cancel()
	s.current = nil
	s.nextAttemptID++
	s.pairing = nil
	s.metrics.AttemptSettled(a.key, outcomeAbandoned, time.Since(a.startedAt))
	s.logger.Info("Connection attempt abandoned", "attempt", a.id, "provider_key", a.key)
	return true
}

func (s *ConnectionServiceImpl) resetIntentLocked() {
	if s.abandonAttemptLocked() {
		if err := s.store.ClearConnected(); err != nil {
			s.logger.Error("Failed to clear connected marker", "error", err)
		}
	}
	s.selectedNetwork = ""
	s.selectedWallet = ""
	s.clearFailureLocked()
}

func (s *ConnectionServiceImpl) phaseLocked() entity.ConnectionPhase {
	switch {
	case s.current != nil:
		return entity.PhaseAwaitingWalletApproval
	case s.account != "":
		return entity.PhaseConnected
	case s.failed:
		return entity.PhaseFailed
	case s.selectedNetwork == "":
		return entity.PhaseIdle
	case s.selectedWallet == "":
		return entity.PhaseNetworkChosen
	default:
		return entity.PhaseReadyToConnect
	}
}

func (s *ConnectionServiceImpl) stateLocked() entity.ConnectionState {
	st := entity.ConnectionState{
		Phase:           s.phaseLocked(),
		DialogOpen:      s.dialogOpen,
		SelectedNetwork: s.selectedNetwork,
		SelectedWallet:  s.selectedWallet,
		Account:         s.account,
		ChainID:         s.chainID,
	}
	switch {
	case s.current != nil:
		st.ProviderKey = s.current.key
	case s.account != "":
		st.ProviderKey = s.session.key
	case s.selectedNetwork != "" && s.selectedWallet != "":
		st.ProviderKey = entity.NewProviderKey(s.selectedWallet, s.selectedNetwork)
	}
	if s.failure != nil {
		st.FailureReason = s.failure.Reason
		st.ErrorMessage = s.failure.Message
	}
	return st
}

func (s *ConnectionServiceImpl) stateEventLocked() entity.ConnectionEvent {
	return entity.ConnectionEvent{Type: entity.EventStateChanged, State: s.stateLocked()}
}

// unlockAndPublish queues events while mu is still held, releases mu and delivers the queue.
func (s *ConnectionServiceImpl) unlockAndPublish(events ...entity.ConnectionEvent) {
	s.outMu.Lock()
	s.outbox = append(s.outbox, events...)
	s.outMu.Unlock()
	s.mu.Unlock()
	s.flush()
}

// flush delivers queued events one at a time. Only one goroutine delivers at a time, others
// leave their events to it, so subscribers see events in the order they were queued.
func (s *ConnectionServiceImpl) flush() {
	s.outMu.Lock()
	if s.flushing {
		s.outMu.Unlock()
		return
	}
	s.flushing = true
	for len(s.outbox) > 0 {
		ev := s.outbox[0]
		s.outbox[0] = entity.ConnectionEvent{}
		s.outbox = s.outbox[1:]
		s.outMu.Unlock()

		s.deliver(ev)

		s.outMu.Lock()
	}
	s.outbox = nil
	s.flushing = false
	s.outMu.Unlock()
}

func (s *ConnectionServiceImpl) deliver(ev entity.ConnectionEvent) {
	s.subsMu.Lock()
	subs := make([]func(entity.ConnectionEvent), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.subsMu.Unlock()

	for _, fn := range subs {
		fn(ev)
	}
}

type noopMetrics struct{}

func (noopMetrics) AttemptStarted(entity.ProviderKey, bool) {}

func (noopMetrics) AttemptSettled(entity.ProviderKey, string, time.Duration) {}

func (noopMetrics) ChainSetup(string) {}
