package connector

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Relay message types.
const (
	relaySub = "sub"
	relayPub = "pub"
	relayAck = "ack"
)

// Pairing JSON-RPC methods.
const (
	methodSessionPropose = "wc_sessionPropose"
	methodSessionSettle  = "wc_sessionSettle"
	methodSessionEvent   = "wc_sessionEvent"
	methodSessionDelete  = "wc_sessionDelete"
)

// PeerMetadata describes this application to the remote wallet.
type PeerMetadata struct {
	Name        string   `json:"name" yaml:"name"`
	Description string   `json:"description" yaml:"description"`
	URL         string   `json:"url" yaml:"url"`
	Icons       []string `json:"icons" yaml:"icons"`
}

// relayMessage is the envelope exchanged with the relay.
type relayMessage struct {
	Topic string `json:"topic"`
	// pub sub ack
	Type    string `json:"type"`
	Payload string `json:"payload"`
	Silent  bool   `json:"silent"`
}

func (m *relayMessage) Marshal() []byte {
	b, _ := json.Marshal(m)
	return b
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// rpcMessage covers requests and responses travelling inside relay payloads.
type rpcMessage struct {
	ID      int64               `json:"id"`
	JSONRPC string              `json:"jsonrpc"`
	Method  string              `json:"method,omitempty"`
	Params  jsoniter.RawMessage `json:"params,omitempty"`
	Result  jsoniter.RawMessage `json:"result,omitempty"`
	Error   *rpcError           `json:"error,omitempty"`
}

type rpcRequest struct {
	ID      int64  `json:"id"`
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

func newRPCRequest(method string, params ...any) *rpcRequest {
	r := &rpcRequest{
		ID:      nextPayloadID(),
		JSONRPC: "2.0",
		Method:  method,
		Params:  []any{},
	}
	if len(params) > 0 {
		r.Params = params
	}
	return r
}

type rpcResponse struct {
	ID      int64  `json:"id"`
	JSONRPC string `json:"jsonrpc"`
	Result  any    `json:"result"`
}

var lastPayloadID atomic.Int64 //nolint:gochecknoglobals

// nextPayloadID returns a time based id, strictly increasing within the process.
func nextPayloadID() int64 {
	for {
		last := lastPayloadID.Load()
		id := time.Now().UnixNano() / 1000
		if id <= last {
			id = last + 1
		}
		if lastPayloadID.CompareAndSwap(last, id) {
			return id
		}
	}
}

type namespace struct {
	Chains  []string `json:"chains"`
	Methods []string `json:"methods"`
	Events  []string `json:"events"`
}

type proposer struct {
	PublicKey string       `json:"publicKey"`
	Metadata  PeerMetadata `json:"metadata"`
}

type sessionProposal struct {
	RequiredNamespaces map[string]namespace `json:"requiredNamespaces"`
	RPCMap             map[string]string    `json:"rpcMap"`
	Proposer           proposer             `json:"proposer"`
	ProjectID          string               `json:"projectId"`
}

type settledNamespace struct {
	Accounts []string `json:"accounts"`
}

type sessionSettle struct {
	Namespaces map[string]settledNamespace `json:"namespaces"`
	ChainID    any                         `json:"chainId,omitempty"`
}

type sessionEvent struct {
	ChainID any `json:"chainId,omitempty"`
	Event   struct {
		Name string `json:"name"`
		Data any    `json:"data"`
	} `json:"event"`
}

// caipChain formats a chain id in the eip155 namespace.
func caipChain(chainID uint64) string {
	return "eip155:" + strconv.FormatUint(chainID, 10)
}

// parseCAIPAccount splits "eip155:<chain>:<address>". Plain addresses are accepted without a chain.
func parseCAIPAccount(account string) (address string, chainID uint64, hasChain bool) {
	parts := strings.Split(account, ":")
	if len(parts) == 3 {
		id, err := coerceChainID(parts[0] + ":" + parts[1])
		if err == nil {
			return parts[2], id, true
		}
		return parts[2], 0, false
	}
	return account, 0, false
}

// coerceChainID accepts numbers, hex strings, decimal strings and CAIP-2 strings ("eip155:97").
func coerceChainID(v any) (uint64, error) {
	switch c := v.(type) {
	case float64:
		if c < 0 || c != math.Trunc(c) {
			return 0, fmt.Errorf("invalid chain id %v", c)
		}
		return uint64(c), nil
	case int:
		if c < 0 {
			return 0, fmt.Errorf("invalid chain id %d", c)
		}
		return uint64(c), nil
	case int64:
		if c < 0 {
			return 0, fmt.Errorf("invalid chain id %d", c)
		}
		return uint64(c), nil
	case uint64:
		return c, nil
	case string:
		s := strings.TrimSpace(c)
		if ns, ref, found := strings.Cut(s, ":"); found {
			if ns != "eip155" {
				return 0, fmt.Errorf("unsupported chain namespace %q", ns)
			}
			s = ref
		}
		if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
			return strconv.ParseUint(s[2:], 16, 64)
		}
		return strconv.ParseUint(s, 10, 64)
	default:
		return 0, fmt.Errorf("unsupported chain id type %T", v)
	}
}
