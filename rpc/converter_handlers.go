package rpc

import (
	"encoding/json"
	"errors"
	"net/http"

	"reservenet/native/converter"
	"reservenet/native/router"
)

type symbolParam struct {
	Code      string `json:"code"`
	Precision uint8  `json:"precision"`
}

func (p symbolParam) symbol() converter.Symbol {
	return converter.Symbol{Code: p.Code, Precision: p.Precision}
}

type createConverterParams struct {
	Caller         string      `json:"caller"`
	Owner          string      `json:"owner"`
	Account        string      `json:"account"`
	TokenContract  string      `json:"tokenContract"`
	Currency       symbolParam `json:"currency"`
	SmartEnabled   bool        `json:"smartEnabled"`
	RequireBalance bool        `json:"requireBalance"`
	Fee            uint16      `json:"fee"`
}

type updateConverterParams struct {
	Caller         string `json:"caller"`
	Code           string `json:"code"`
	Enabled        bool   `json:"enabled"`
	SmartEnabled   bool   `json:"smartEnabled"`
	RequireBalance bool   `json:"requireBalance"`
	Fee            uint16 `json:"fee"`
}

type setReserveParams struct {
	Caller          string      `json:"caller"`
	Converter       string      `json:"converter"`
	Contract        string      `json:"contract"`
	Currency        symbolParam `json:"currency"`
	Ratio           uint64      `json:"ratio"`
	PurchaseEnabled bool        `json:"purchaseEnabled"`
}

type setSettingsParams struct {
	Caller  string `json:"caller"`
	Enabled bool   `json:"enabled"`
	MaxFee  uint16 `json:"maxFee"`
}

type converterQueryParams struct {
	Code string `json:"code"`
}

type reserveResult struct {
	Contract        string `json:"contract"`
	Code            string `json:"code"`
	Precision       uint8  `json:"precision"`
	Ratio           uint64 `json:"ratio"`
	PurchaseEnabled bool   `json:"purchaseEnabled"`
	Balance         int64  `json:"balance"`
}

type converterResult struct {
	Code           string          `json:"code"`
	Precision      uint8           `json:"precision"`
	Account        string          `json:"account"`
	TokenContract  string          `json:"tokenContract"`
	Owner          string          `json:"owner"`
	Fee            uint16          `json:"fee"`
	Enabled        bool            `json:"enabled"`
	SmartEnabled   bool            `json:"smartEnabled"`
	RequireBalance bool            `json:"requireBalance"`
	Reserves       []reserveResult `json:"reserves"`
}

type settingsResult struct {
	Enabled bool   `json:"enabled"`
	MaxFee  uint16 `json:"maxFee"`
}

type transferParams struct {
	From      string      `json:"from"`
	To        string      `json:"to"`
	Amount    int64       `json:"amount"`
	Currency  symbolParam `json:"currency"`
	Memo      string      `json:"memo"`
	Simulated bool        `json:"simulated"`
}

type tradeResult struct {
	TradeID   string `json:"tradeId"`
	Output    string `json:"output"`
	Amount    int64  `json:"amount"`
	Recipient string `json:"recipient"`
	Hops      int    `json:"hops"`
}

func decodeParams(w http.ResponseWriter, req *RPCRequest, out interface{}) bool {
	if len(req.Params) == 0 {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "params required", nil)
		return false
	}
	if err := json.Unmarshal(req.Params, out); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid params", err.Error())
		return false
	}
	return true
}

func writeDomainError(w http.ResponseWriter, id interface{}, err error) {
	switch {
	case errors.Is(err, converter.ErrUnauthorized):
		writeError(w, http.StatusForbidden, id, codeUnauthorized, err.Error(), nil)
	case errors.Is(err, converter.ErrConverterNotFound), errors.Is(err, converter.ErrReserveNotFound):
		writeError(w, http.StatusNotFound, id, codeInvalidParams, err.Error(), nil)
	case errors.Is(err, converter.ErrDuplicateConverter),
		errors.Is(err, converter.ErrFeeTooHigh),
		errors.Is(err, converter.ErrInvalidRatio),
		errors.Is(err, converter.ErrRatioExceeded),
		errors.Is(err, converter.ErrReserveContract),
		errors.Is(err, converter.ErrInvalidQuantity),
		errors.Is(err, converter.ErrSameCurrency),
		errors.Is(err, router.ErrMalformedPath),
		errors.Is(err, router.ErrMemoVersion),
		errors.Is(err, router.ErrBelowMinimumReturn):
		writeError(w, http.StatusBadRequest, id, codeInvalidParams, err.Error(), nil)
	default:
		writeError(w, http.StatusInternalServerError, id, codeServerError, err.Error(), nil)
	}
}

func (s *Server) handleConverterCreate(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params createConverterParams
	if !decodeParams(w, req, &params) {
		return
	}
	err := s.registry.CreateConverter(
		params.Caller, params.Owner, params.Account, params.TokenContract,
		params.Currency.symbol(), params.SmartEnabled, params.RequireBalance, params.Fee,
	)
	if err != nil {
		writeDomainError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, true)
}

func (s *Server) handleConverterUpdate(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params updateConverterParams
	if !decodeParams(w, req, &params) {
		return
	}
	err := s.registry.UpdateConverter(
		params.Caller, params.Code, params.Enabled, params.SmartEnabled, params.RequireBalance, params.Fee,
	)
	if err != nil {
		writeDomainError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, true)
}

func (s *Server) handleConverterSetReserve(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params setReserveParams
	if !decodeParams(w, req, &params) {
		return
	}
	err := s.registry.SetReserve(
		params.Caller, params.Converter, params.Contract,
		params.Currency.symbol(), params.Ratio, params.PurchaseEnabled,
	)
	if err != nil {
		writeDomainError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, true)
}

func (s *Server) handleConverterSetSettings(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params setSettingsParams
	if !decodeParams(w, req, &params) {
		return
	}
	if err := s.registry.SetSettings(params.Caller, params.Enabled, params.MaxFee); err != nil {
		writeDomainError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, true)
}

func (s *Server) handleConverterGet(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params converterQueryParams
	if !decodeParams(w, req, &params) {
		return
	}
	c, ok, err := s.registry.Store().Get(params.Code)
	if err != nil {
		writeError(w, http.StatusInternalServerError, req.ID, codeServerError, err.Error(), nil)
		return
	}
	if !ok {
		writeDomainError(w, req.ID, converter.ErrConverterNotFound)
		return
	}
	result := converterResult{
		Code:           c.Currency.Code,
		Precision:      c.Currency.Precision,
		Account:        c.Account,
		TokenContract:  c.TokenContract,
		Owner:          c.Owner,
		Fee:            c.Fee,
		Enabled:        c.Enabled,
		SmartEnabled:   c.SmartEnabled,
		RequireBalance: c.RequireBalance,
	}
	for _, r := range c.Reserves {
		result.Reserves = append(result.Reserves, reserveResult{
			Contract:        r.Contract,
			Code:            r.Currency.Code,
			Precision:       r.Currency.Precision,
			Ratio:           r.Ratio,
			PurchaseEnabled: r.PurchaseEnabled,
			Balance:         r.Balance,
		})
	}
	writeResult(w, req.ID, result)
}

func (s *Server) handleConverterSettings(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	settings, err := s.registry.Store().Settings()
	if err != nil {
		writeError(w, http.StatusInternalServerError, req.ID, codeServerError, err.Error(), nil)
		return
	}
	writeResult(w, req.ID, settingsResult{Enabled: settings.Enabled, MaxFee: settings.MaxFee})
}

func (s *Server) handleConverterSimulate(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params transferParams
	if !decodeParams(w, req, &params) {
		return
	}
	quantity := converter.Asset{Amount: params.Amount, Symbol: params.Currency.symbol()}
	result, err := s.hub.Simulate(quantity, params.Memo)
	if err != nil {
		writeDomainError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, tradeResult{
		TradeID:   result.TradeID,
		Output:    result.Output.String(),
		Amount:    result.Output.Amount,
		Recipient: result.Recipient,
		Hops:      result.Hops,
	})
}

func (s *Server) handleNetworkTransfer(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params transferParams
	if !decodeParams(w, req, &params) {
		return
	}
	quantity := converter.Asset{Amount: params.Amount, Symbol: params.Currency.symbol()}
	if err := s.hub.OnIncomingTransfer(params.From, params.To, quantity, params.Memo); err != nil {
		writeDomainError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, true)
}
