package connector

import (
	"context"
	stdjson "encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wallet_connector/internal/domain/entity"
	clientprovider "wallet_connector/internal/infrastructure/network/client"
)

const testAccount = "0x71C7656EC7ab88b098defB751B7401B5f6d8976F"

func walletOn(chainID uint64, accounts ...string) func(string) (any, error) {
	return func(method string) (any, error) {
		switch method {
		case "eth_requestAccounts", "eth_accounts":
			return accounts, nil
		case "eth_chainId":
			return hexutil.Uint64(chainID), nil
		}
		return nil, errors.New("unexpected method " + method)
	}
}

func newInjected(t *testing.T, provider *scriptedProvider, poll time.Duration) *InjectedConnector {
	t.Helper()
	env := &stubEnv{}
	if provider != nil {
		env.provider = provider
	}
	raw, err := NewInjectedBuilder(env, poll, nopLogger{})(testBNB)
	require.NoError(t, err)
	c := raw.(*InjectedConnector)
	t.Cleanup(func() { _ = c.Deactivate() })
	return c
}

func TestInjectedConnector_Activate(t *testing.T) {
	provider := &scriptedProvider{answer: walletOn(97, testAccount)}
	c := newInjected(t, provider, time.Hour)

	activation, err := c.Activate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, entity.Activation{Account: testAccount, ChainID: 97}, activation)
	assert.Equal(t, testAccount, c.Account())
	assert.Equal(t, uint64(97), c.ChainID())
	assert.Same(t, provider, c.Provider())
	assert.Equal(t, []string{"eth_requestAccounts", "eth_chainId"}, provider.calls)
}

func TestInjectedConnector_ApprovalOutlastsCallTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID     stdjson.RawMessage `json:"id"`
			Method string             `json:"method"`
		}
		if err := stdjson.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		resp := map[string]any{"jsonrpc": "2.0", "id": req.ID}
		switch req.Method {
		case "eth_requestAccounts":
			time.Sleep(300 * time.Millisecond)
			resp["result"] = []string{testAccount}
		case "eth_chainId":
			resp["result"] = "0x61"
		default:
			resp["error"] = map[string]any{"code": -32601, "message": "method not found"}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = stdjson.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)

	env := clientprovider.NewInjectedEnvironment(srv.URL, 100*time.Millisecond, func(string, ...any) {}, func(string, ...any) {})
	t.Cleanup(env.Close)

	raw, err := NewInjectedBuilder(env, time.Hour, nopLogger{})(testBNB)
	require.NoError(t, err)
	c := raw.(*InjectedConnector)
	t.Cleanup(func() { _ = c.Deactivate() })

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	activation, err := c.Activate(ctx)
	require.NoError(t, err)
	assert.Equal(t, entity.Activation{Account: testAccount, ChainID: 97}, activation)
}

func TestInjectedConnector_ActivateFailures(t *testing.T) {
	t.Run("no provider", func(t *testing.T) {
		c := newInjected(t, nil, time.Hour)
		_, err := c.Activate(context.Background())
		require.ErrorIs(t, err, entity.ErrNoProvider)
	})

	t.Run("user rejected", func(t *testing.T) {
		provider := &scriptedProvider{answer: func(string) (any, error) {
			return nil, &entity.ProviderError{Code: entity.CodeUserRejected, Message: "User rejected the request."}
		}}
		c := newInjected(t, provider, time.Hour)

		_, err := c.Activate(context.Background())
		require.ErrorIs(t, err, entity.ErrUserRejected)
		var pe *entity.ProviderError
		require.ErrorAs(t, err, &pe)
		assert.Equal(t, "User rejected the request.", pe.Message)
	})

	t.Run("other provider error is not a rejection", func(t *testing.T) {
		provider := &scriptedProvider{answer: func(string) (any, error) {
			return nil, &entity.ProviderError{Code: -32603, Message: "internal"}
		}}
		c := newInjected(t, provider, time.Hour)

		_, err := c.Activate(context.Background())
		require.Error(t, err)
		assert.NotErrorIs(t, err, entity.ErrUserRejected)
	})

	t.Run("no accounts", func(t *testing.T) {
		c := newInjected(t, &scriptedProvider{answer: walletOn(97)}, time.Hour)
		_, err := c.Activate(context.Background())
		require.ErrorIs(t, err, errNoAccounts)
	})

	t.Run("malformed account", func(t *testing.T) {
		c := newInjected(t, &scriptedProvider{answer: walletOn(97, "not-an-address")}, time.Hour)
		_, err := c.Activate(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "malformed account")
	})

	t.Run("wrong chain", func(t *testing.T) {
		c := newInjected(t, &scriptedProvider{answer: walletOn(1, testAccount)}, time.Hour)

		_, err := c.Activate(context.Background())
		var uce *entity.UnsupportedChainError
		require.ErrorAs(t, err, &uce)
		assert.Equal(t, uint64(1), uce.ChainID)
		assert.Equal(t, []uint64{97}, uce.Supported)
		assert.Empty(t, c.Account())
	})
}

func TestInjectedConnector_PollEmitsChanges(t *testing.T) {
	provider := &scriptedProvider{answer: walletOn(97, testAccount)}
	c := newInjected(t, provider, 10*time.Millisecond)

	sink := &eventSink{}
	c.On(entity.ConnectorAccountsChanged, sink.listener())
	c.On(entity.ConnectorChainChanged, sink.listener())
	c.On(entity.ConnectorError, sink.listener())

	_, err := c.Activate(context.Background())
	require.NoError(t, err)

	other := "0x0000000000000000000000000000000000000001"
	provider.setAnswer(walletOn(56, other))

	require.Eventually(t, func() bool {
		return len(sink.byName(entity.ConnectorAccountsChanged)) == 1 && len(sink.byName(entity.ConnectorChainChanged)) == 1
	}, time.Second, 5*time.Millisecond)

	assert.Equal(t, []string{other}, sink.byName(entity.ConnectorAccountsChanged)[0].Accounts)
	assert.Equal(t, uint64(56), sink.byName(entity.ConnectorChainChanged)[0].ChainID)
	assert.Equal(t, other, c.Account())

	// Unchanged state emits nothing further.
	time.Sleep(50 * time.Millisecond)
	assert.Len(t, sink.byName(entity.ConnectorAccountsChanged), 1)
	assert.Len(t, sink.byName(entity.ConnectorChainChanged), 1)

	provider.setAnswer(func(string) (any, error) { return nil, errors.New("rpc down") })
	require.Eventually(t, func() bool {
		return len(sink.byName(entity.ConnectorError)) > 0
	}, time.Second, 5*time.Millisecond)
}

func TestInjectedConnector_DeactivateStopsPolling(t *testing.T) {
	provider := &scriptedProvider{answer: walletOn(97, testAccount)}
	c := newInjected(t, provider, 10*time.Millisecond)

	sink := &eventSink{}
	c.On(entity.ConnectorAccountsChanged, sink.listener())

	_, err := c.Activate(context.Background())
	require.NoError(t, err)
	require.NoError(t, c.Deactivate())
	assert.Empty(t, c.Account())
	assert.Zero(t, c.ChainID())

	// Let a ticker that already fired finish before the wallet state changes.
	time.Sleep(30 * time.Millisecond)
	provider.setAnswer(walletOn(97))
	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, sink.byName(entity.ConnectorAccountsChanged))
}

func TestWrapProviderError(t *testing.T) {
	rejected := wrapProviderError("eth_requestAccounts", &entity.ProviderError{Code: 4001})
	assert.ErrorIs(t, rejected, entity.ErrUserRejected)
	assert.Contains(t, rejected.Error(), "eth_requestAccounts")

	nested := wrapProviderError("eth_requestAccounts", &entity.ProviderError{Code: -32603, Data: map[string]any{"originalError": map[string]any{"code": 4001}}})
	assert.ErrorIs(t, nested, entity.ErrUserRejected)

	plain := wrapProviderError("eth_chainId", errors.New("boom"))
	assert.NotErrorIs(t, plain, entity.ErrUserRejected)
}
