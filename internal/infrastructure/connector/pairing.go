package connector

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/skip2/go-qrcode"
	"github.com/valyala/fasthttp"

	"wallet_connector/internal/app/port"
	"wallet_connector/internal/domain/entity"
)

const (
	DefaultRelayURL      = "wss://relay.walletconnect.com"
	defaultQRSize        = 256
	defaultRPCTimeout    = 15 * time.Second
	relayWriteTimeout    = 5 * time.Second
	codeMethodNotAllowed = 4200
)

var errMissingProjectID = errors.New("missing pairing project id")

var proposalMethods = []string{ //nolint:gochecknoglobals
	"eth_sendTransaction",
	"eth_signTransaction",
	"eth_sign",
	"personal_sign",
	"eth_signTypedData",
}

// PairingConfig configures the remote-pairing connector.
type PairingConfig struct {
	ProjectID  string
	RelayURL   string
	Metadata   PeerMetadata
	QRSize     int
	RPCTimeout time.Duration
}

// pairingSession is one live relay connection.
type pairingSession struct {
	conn    *websocket.Conn
	topic   string
	writeMu sync.Mutex
}

func (s *pairingSession) send(msg relayMessage) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	_ = s.conn.SetWriteDeadline(time.Now().Add(relayWriteTimeout))
	if err := s.conn.WriteMessage(websocket.TextMessage, msg.Marshal()); err != nil {
		return fmt.Errorf("write pairing relay message: %w", err)
	}
	return nil
}

func (s *pairingSession) publish(v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal pairing payload: %w", err)
	}
	return s.send(relayMessage{Topic: s.topic, Type: relayPub, Payload: string(payload), Silent: true})
}

// readRPC returns the next JSON-RPC message published on the session topic.
func (s *pairingSession) readRPC() (*rpcMessage, error) {
	for {
		msgType, data, err := s.conn.ReadMessage()
		if err != nil {
			return nil, err
		}
		if msgType != websocket.TextMessage {
			continue
		}
		var msg relayMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}
		if msg.Type != relayPub || msg.Topic != s.topic {
			continue
		}
		if err := s.send(relayMessage{Topic: s.topic, Type: relayAck, Silent: true}); err != nil {
			return nil, err
		}
		var rpc rpcMessage
		if err := json.Unmarshal([]byte(msg.Payload), &rpc); err != nil {
			continue
		}
		return &rpc, nil
	}
}

func (s *pairingSession) close() {
	_ = s.conn.Close()
}

// PairingConnector reaches a remote signer through the pairing relay. It exposes RemoveListener
// rather than Off, the factory adapts it.
type PairingConnector struct {
	emitter

	cfg     PairingConfig
	network entity.NetworkDefinition
	display port.PairingDisplay
	logger  port.Logger
	dialer  *websocket.Dialer
	client  *fasthttp.Client

	mu      sync.Mutex
	session *pairingSession
	account string
	chainID uint64
}

// NewPairingBuilder returns a Builder for remote-pairing connectors.
func NewPairingBuilder(cfg PairingConfig, display port.PairingDisplay, logger port.Logger) Builder {
	if cfg.RelayURL == "" {
		cfg.RelayURL = DefaultRelayURL
	}
	if cfg.QRSize <= 0 {
		cfg.QRSize = defaultQRSize
	}
	if cfg.RPCTimeout <= 0 {
		cfg.RPCTimeout = defaultRPCTimeout
	}
	return func(network entity.NetworkDefinition) (Base, error) {
		return &PairingConnector{
			cfg:     cfg,
			network: network,
			display: display,
			logger:  logger,
			dialer:  &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
			client:  &fasthttp.Client{},
		}, nil
	}
}

func (c *PairingConnector) Kind() entity.WalletKind { return entity.WalletRemotePairing }

func (c *PairingConnector) Network() entity.NetworkDefinition { return c.network }

func (c *PairingConnector) Account() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.account
}

func (c *PairingConnector) ChainID() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.chainID
}

// PairingURI formats the URI a wallet scans to join topic.
func PairingURI(topic string, symKey []byte) string {
	return fmt.Sprintf("wc:%s@2?relay-protocol=irn&symKey=%s", topic, hex.EncodeToString(symKey))
}

func (c *PairingConnector) relayURL() (string, error) {
	u, err := url.Parse(c.cfg.RelayURL)
	if err != nil {
		return "", fmt.Errorf("parse relay url: %w", err)
	}
	q := u.Query()
	q.Set("projectId", c.cfg.ProjectID)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Activate runs the pairing handshake: show the URI, propose a session and wait for the wallet to settle it.
func (c *PairingConnector) Activate(ctx context.Context) (entity.Activation, error) {
	if strings.TrimSpace(c.cfg.ProjectID) == "" {
		return entity.Activation{}, errMissingProjectID
	}
	c.closeSession()

	topic := uuid.NewString()
	symKey := make([]byte, 32)
	if _, err := rand.Read(symKey); err != nil {
		return entity.Activation{}, fmt.Errorf("generate pairing key: %w", err)
	}
	uri := PairingURI(topic, symKey)
	png, err := qrcode.Encode(uri, qrcode.Medium, c.cfg.QRSize)
	if err != nil {
		return entity.Activation{}, fmt.Errorf("encode pairing qr code: %w", err)
	}
	c.logger.Debug("Pairing URI generated", "topic", topic)
	if c.display != nil {
		c.display.ShowPairingURI(uri, png)
	}

	relayURL, err := c.relayURL()
	if err != nil {
		return entity.Activation{}, err
	}
	conn, _, err := c.dialer.DialContext(ctx, relayURL, nil)
	if err != nil {
		return entity.Activation{}, fmt.Errorf("dial pairing relay: %w", err)
	}
	sess := &pairingSession{conn: conn, topic: topic}
	stop := context.AfterFunc(ctx, sess.close)
	defer stop()

	activation, err := c.handshake(sess)
	if err != nil {
		sess.close()
		if ctx.Err() != nil {
			return entity.Activation{}, ctx.Err()
		}
		return entity.Activation{}, err
	}
	if !stop() {
		// ctx ended while the settle was being processed, the socket is already gone.
		return entity.Activation{}, ctx.Err()
	}

	c.mu.Lock()
	c.session = sess
	c.account = activation.Account
	c.chainID = activation.ChainID
	c.mu.Unlock()

	go c.watch(sess)
	return activation, nil
}

func (c *PairingConnector) handshake(sess *pairingSession) (entity.Activation, error) {
	if err := sess.send(relayMessage{Topic: sess.topic, Type: relaySub, Silent: true}); err != nil {
		return entity.Activation{}, err
	}

	chain := caipChain(c.network.ChainID)
	proposal := newRPCRequest(methodSessionPropose, sessionProposal{
		RequiredNamespaces: map[string]namespace{
			"eip155": {
				Chains:  []string{chain},
				Methods: proposalMethods,
				Events:  []string{string(entity.ConnectorChainChanged), string(entity.ConnectorAccountsChanged)},
			},
		},
		RPCMap:    map[string]string{strconv.FormatUint(c.network.ChainID, 10): c.network.PrimaryRPCURL},
		Proposer:  proposer{PublicKey: uuid.NewString(), Metadata: c.cfg.Metadata},
		ProjectID: c.cfg.ProjectID,
	})
	if err := sess.publish(proposal); err != nil {
		return entity.Activation{}, err
	}

	for {
		msg, err := sess.readRPC()
		if err != nil {
			return entity.Activation{}, fmt.Errorf("read pairing relay: %w", err)
		}

		switch {
		case msg.Method == methodSessionSettle:
			activation, err := c.parseSettle(msg.Params)
			if err != nil {
				return entity.Activation{}, err
			}
			if err := sess.publish(rpcResponse{ID: msg.ID, JSONRPC: "2.0", Result: true}); err != nil {
				return entity.Activation{}, err
			}
			if activation.ChainID != c.network.ChainID {
				return entity.Activation{}, &entity.UnsupportedChainError{ChainID: activation.ChainID, Supported: []uint64{c.network.ChainID}}
			}
			return activation, nil
		case msg.Method == methodSessionDelete:
			return entity.Activation{}, fmt.Errorf("%w: wallet deleted the session proposal", entity.ErrUserRejected)
		case msg.Method == "" && msg.ID == proposal.ID && msg.Error != nil:
			pe := &entity.ProviderError{Code: msg.Error.Code, Message: msg.Error.Message, Data: msg.Error.Data}
			switch pe.EffectiveCode() {
			case entity.CodePairingRejected, entity.CodeUserRejected:
				return entity.Activation{}, fmt.Errorf("%w: %w", entity.ErrUserRejected, pe)
			default:
				return entity.Activation{}, pe
			}
		default:
			c.logger.Debug("Ignoring pairing message during handshake", "method", msg.Method, "id", msg.ID)
		}
	}
}

func (c *PairingConnector) parseSettle(raw []byte) (entity.Activation, error) {
	var params []sessionSettle
	if err := json.Unmarshal(raw, &params); err != nil || len(params) == 0 {
		var single sessionSettle
		if err2 := json.Unmarshal(raw, &single); err2 != nil {
			return entity.Activation{}, fmt.Errorf("decode session settle: %w", err2)
		}
		params = []sessionSettle{single}
	}
	settle := params[0]

	ns, ok := settle.Namespaces["eip155"]
	if !ok || len(ns.Accounts) == 0 {
		return entity.Activation{}, errNoAccounts
	}
	address, chainID, hasChain := parseCAIPAccount(ns.Accounts[0])
	if settle.ChainID != nil {
		id, err := coerceChainID(settle.ChainID)
		if err != nil {
			return entity.Activation{}, fmt.Errorf("decode settled chain id: %w", err)
		}
		chainID, hasChain = id, true
	}
	if !hasChain {
		chainID = c.network.ChainID
	}
	return entity.Activation{Account: address, ChainID: chainID}, nil
}

// watch turns relay traffic of a settled session into connector events.
func (c *PairingConnector) watch(sess *pairingSession) {
	for {
		msg, err := sess.readRPC()
		if err != nil {
			if c.dropSession(sess) {
				c.logger.Warn("Pairing relay connection lost", "topic", sess.topic, "error", err)
				c.emit(entity.ConnectorEvent{Name: entity.ConnectorDisconnect, Err: err})
			}
			return
		}

		switch msg.Method {
		case methodSessionEvent:
			c.handleSessionEvent(msg.Params)
		case methodSessionDelete:
			if c.dropSession(sess) {
				sess.close()
				c.logger.Info("Wallet deleted the pairing session", "topic", sess.topic)
				c.emit(entity.ConnectorEvent{Name: entity.ConnectorDisconnect})
			}
			return
		}
	}
}

func (c *PairingConnector) handleSessionEvent(raw []byte) {
	var params []sessionEvent
	if err := json.Unmarshal(raw, &params); err != nil || len(params) == 0 {
		var single sessionEvent
		if err := json.Unmarshal(raw, &single); err != nil {
			c.logger.Warn("Malformed pairing session event", "error", err)
			return
		}
		params = []sessionEvent{single}
	}
	ev := params[0]

	switch entity.ConnectorEventName(ev.Event.Name) {
	case entity.ConnectorChainChanged:
		id, err := coerceChainID(ev.Event.Data)
		if err != nil {
			c.logger.Warn("Malformed chainChanged data", "data", ev.Event.Data, "error", err)
			return
		}
		c.mu.Lock()
		c.chainID = id
		c.mu.Unlock()
		c.emit(entity.ConnectorEvent{Name: entity.ConnectorChainChanged, ChainID: id})
	case entity.ConnectorAccountsChanged:
		list, _ := ev.Event.Data.([]any)
		accounts := make([]string, 0, len(list))
		for _, item := range list {
			if s, ok := item.(string); ok {
				addr, _, _ := parseCAIPAccount(s)
				accounts = append(accounts, addr)
			}
		}
		c.mu.Lock()
		if len(accounts) > 0 {
			c.account = accounts[0]
		} else {
			c.account = ""
		}
		c.mu.Unlock()
		c.emit(entity.ConnectorEvent{Name: entity.ConnectorAccountsChanged, Accounts: accounts})
	default:
		c.logger.Debug("Ignoring pairing session event", "name", ev.Event.Name)
	}
}

// dropSession forgets sess if it is still the live one.
func (c *PairingConnector) dropSession(sess *pairingSession) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session != sess {
		return false
	}
	c.session = nil
	c.account = ""
	c.chainID = 0
	return true
}

func (c *PairingConnector) closeSession() {
	c.mu.Lock()
	sess := c.session
	c.session = nil
	c.account = ""
	c.chainID = 0
	c.mu.Unlock()
	if sess != nil {
		sess.close()
	}
}

// Deactivate detaches listeners, tells the wallet the session is over and closes the socket.
func (c *PairingConnector) Deactivate() error {
	c.removeAllListeners()

	c.mu.Lock()
	sess := c.session
	c.session = nil
	c.account = ""
	c.chainID = 0
	c.mu.Unlock()
	if sess == nil {
		return nil
	}
	defer sess.close()

	err := sess.publish(newRPCRequest(methodSessionDelete, map[string]any{
		"code":    6000,
		"message": "User disconnected.",
	}))
	if err != nil {
		return fmt.Errorf("notify wallet of session delete: %w", err)
	}
	return nil
}

// Provider answers account queries locally and forwards read calls to the network RPC.
func (c *PairingConnector) Provider() port.EthereumProvider {
	return &pairingProvider{c: c}
}

type pairingProvider struct {
	c *PairingConnector
}

func (p *pairingProvider) Request(ctx context.Context, result any, method string, params ...any) error {
	switch method {
	case "eth_accounts", "eth_requestAccounts":
		accounts := []string{}
		if acc := p.c.Account(); acc != "" {
			accounts = append(accounts, acc)
		}
		return assign(result, accounts)
	case "eth_chainId":
		return assign(result, hexutil.Uint64(p.c.ChainID()))
	}
	for _, m := range proposalMethods {
		if strings.HasPrefix(method, m) {
			return &entity.ProviderError{Code: codeMethodNotAllowed, Message: fmt.Sprintf("method %s is not available through the read passthrough", method)}
		}
	}
	return p.forward(ctx, result, method, params)
}

func (p *pairingProvider) forward(ctx context.Context, result any, method string, params []any) error {
	rpcURL := p.c.network.PrimaryRPCURL
	if rpcURL == "" {
		return fmt.Errorf("network %s has no rpc url", p.c.network.Identifier)
	}
	if params == nil {
		params = []any{}
	}
	body, err := json.Marshal(rpcRequest{ID: nextPayloadID(), JSONRPC: "2.0", Method: method, Params: params})
	if err != nil {
		return fmt.Errorf("marshal rpc request: %w", err)
	}

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	req.SetRequestURI(rpcURL)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.SetBody(body)

	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	if deadline, ok := ctx.Deadline(); ok {
		err = p.c.client.DoDeadline(req, resp, deadline)
	} else {
		err = p.c.client.DoTimeout(req, resp, p.c.cfg.RPCTimeout)
	}
	if err != nil {
		return fmt.Errorf("rpc request %s to %s failed: %w", method, rpcURL, err)
	}
	if resp.StatusCode() != fasthttp.StatusOK {
		return fmt.Errorf("rpc request %s returned status %d: %s", method, resp.StatusCode(), string(resp.Body()))
	}

	var msg rpcMessage
	if err := json.Unmarshal(resp.Body(), &msg); err != nil {
		return fmt.Errorf("decode rpc response: %w", err)
	}
	if msg.Error != nil {
		return &entity.ProviderError{Code: msg.Error.Code, Message: msg.Error.Message, Data: msg.Error.Data}
	}
	if result == nil || len(msg.Result) == 0 {
		return nil
	}
	if err := json.Unmarshal(msg.Result, result); err != nil {
		return fmt.Errorf("decode rpc result: %w", err)
	}
	return nil
}

func assign(result, v any) error {
	if result == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, result)
}
