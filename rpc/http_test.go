package rpc

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"reservenet/native/converter"
	"reservenet/native/router"
	"reservenet/native/tokenledger"
	"reservenet/state"
	"reservenet/storage"
)

const testToken = "secret-token"

func newTestServer(t *testing.T) (*Server, storage.Database) {
	t.Helper()
	db := storage.NewMemDB()
	kv := state.NewKV(db)
	registry := converter.NewRegistry(converter.NewStore(kv), "admin")
	require.NoError(t, registry.SetSettings("admin", true, 300))

	hub, err := router.NewHub(router.Config{
		Account: "bancor.hub",
		DB:      db,
		Ledger:  func(s converter.Storage) converter.TokenLedger { return tokenledger.NewLedger(s) },
		Log:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	require.NoError(t, err)

	server := NewServer(registry, hub)
	server.SetAuthToken(testToken)
	return server, db
}

func rpcCall(t *testing.T, handler http.Handler, token string, body string) (*httptest.ResponseRecorder, RPCResponse) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/rpc", bytes.NewBufferString(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	var resp RPCResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return rec, resp
}

func TestRequireAuth(t *testing.T) {
	server, _ := newTestServer(t)
	handler := server.Handler()
	body := `{"jsonrpc":"2.0","id":1,"method":"converter_setSettings","params":{"caller":"admin","enabled":true,"maxFee":100}}`

	rec, resp := rpcCall(t, handler, "", body)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.NotNil(t, resp.Error)
	require.Equal(t, codeUnauthorized, resp.Error.Code)

	rec, resp = rpcCall(t, handler, "wrong-token", body)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, codeUnauthorized, resp.Error.Code)

	rec, resp = rpcCall(t, handler, testToken, body)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Nil(t, resp.Error)
}

func TestRequireAuthUnconfigured(t *testing.T) {
	server, _ := newTestServer(t)
	server.SetAuthToken("")
	body := `{"jsonrpc":"2.0","id":1,"method":"converter_setSettings","params":{"caller":"admin","enabled":true,"maxFee":100}}`

	rec, resp := rpcCall(t, server.Handler(), testToken, body)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, codeUnauthorized, resp.Error.Code)
}

func TestConverterCreateAndGet(t *testing.T) {
	server, _ := newTestServer(t)
	handler := server.Handler()

	create := `{"jsonrpc":"2.0","id":1,"method":"converter_create","params":{
		"caller":"alice","owner":"alice","account":"cnv.alpha","tokenContract":"smart.a",
		"currency":{"code":"ALPHA","precision":4},"smartEnabled":true,"fee":30}}`
	rec, resp := rpcCall(t, handler, testToken, create)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Nil(t, resp.Error)

	setReserve := `{"jsonrpc":"2.0","id":2,"method":"converter_setReserve","params":{
		"caller":"admin","converter":"ALPHA","contract":"token.a",
		"currency":{"code":"ACOIN","precision":4},"ratio":500,"purchaseEnabled":true}}`
	rec, resp = rpcCall(t, handler, testToken, setReserve)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Nil(t, resp.Error)

	rec, resp = rpcCall(t, handler, "", `{"jsonrpc":"2.0","id":3,"method":"converter_get","params":{"code":"ALPHA"}}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Nil(t, resp.Error)

	var result converterResult
	raw, err := json.Marshal(resp.Result)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &result))
	require.Equal(t, "ALPHA", result.Code)
	require.Equal(t, "cnv.alpha", result.Account)
	require.Equal(t, uint16(30), result.Fee)
	require.Len(t, result.Reserves, 1)
	require.Equal(t, "ACOIN", result.Reserves[0].Code)
	require.Equal(t, uint64(500), result.Reserves[0].Ratio)
}

func TestConverterGetNotFound(t *testing.T) {
	server, _ := newTestServer(t)
	rec, resp := rpcCall(t, server.Handler(), "", `{"jsonrpc":"2.0","id":1,"method":"converter_get","params":{"code":"GHOST"}}`)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.NotNil(t, resp.Error)
}

func TestConverterSettings(t *testing.T) {
	server, _ := newTestServer(t)
	rec, resp := rpcCall(t, server.Handler(), "", `{"jsonrpc":"2.0","id":1,"method":"converter_settings"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Nil(t, resp.Error)

	var result settingsResult
	raw, err := json.Marshal(resp.Result)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &result))
	require.True(t, result.Enabled)
	require.Equal(t, uint16(300), result.MaxFee)
}

func TestConverterSimulate(t *testing.T) {
	server, db := newTestServer(t)
	store := converter.NewStore(state.NewKV(db))
	require.NoError(t, store.Put(&converter.Converter{
		Currency:      converter.Symbol{Code: "ALPHA", Precision: 4},
		Account:       "cnv.alpha",
		TokenContract: "smart.a",
		Owner:         "alice",
		Enabled:       true,
		SmartEnabled:  true,
		Reserves: []converter.Reserve{
			{Contract: "token.a", Currency: converter.Symbol{Code: "ACOIN", Precision: 4}, Ratio: 500, PurchaseEnabled: true, Balance: 10000000},
			{Contract: "token.b", Currency: converter.Symbol{Code: "BCOIN", Precision: 4}, Ratio: 500, PurchaseEnabled: true, Balance: 10000000},
		},
	}))

	body := `{"jsonrpc":"2.0","id":1,"method":"converter_simulate","params":{
		"amount":1000000,"currency":{"code":"ACOIN","precision":4},"memo":"1,cnv.alpha BCOIN,0,bob"}}`
	rec, resp := rpcCall(t, server.Handler(), "", body)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Nil(t, resp.Error)

	var result tradeResult
	raw, err := json.Marshal(resp.Result)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &result))
	require.Equal(t, int64(909090), result.Amount)
	require.Equal(t, "bob", result.Recipient)
	require.Equal(t, 1, result.Hops)
	require.NotEmpty(t, result.TradeID)
}

func TestHandleRejectsBadEnvelopes(t *testing.T) {
	server, _ := newTestServer(t)
	handler := server.Handler()

	rec, resp := rpcCall(t, handler, "", `{"jsonrpc":"2.0","id":1,"method":"no_such_method"}`)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, codeMethodNotFound, resp.Error.Code)

	rec, resp = rpcCall(t, handler, "", `{not json`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, codeParseError, resp.Error.Code)

	rec, resp = rpcCall(t, handler, "", `{"jsonrpc":"1.0","id":1,"method":"converter_settings"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, codeInvalidRequest, resp.Error.Code)

	rec, resp = rpcCall(t, handler, "", `{"jsonrpc":"2.0","id":1}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, codeInvalidRequest, resp.Error.Code)
}

func TestHealthz(t *testing.T) {
	server, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "ok", rec.Body.String())
}
