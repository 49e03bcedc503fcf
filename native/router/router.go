package router

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"reservenet/native/converter"
	"reservenet/observability/metrics"
	"reservenet/state"
	"reservenet/storage"
)

// DefaultMaxHops bounds the converter chain length of a single trade.
const DefaultMaxHops = 8

var (
	// ErrWrongConverter indicates a hop delivered to a converter the path did not name.
	ErrWrongConverter = errors.New("router: wrong converter")
	// ErrPathTooLong indicates a conversion path beyond the maximum hop count.
	ErrPathTooLong = errors.New("router: conversion path too long")
	// ErrBelowMinimumReturn indicates a final output below the caller's threshold.
	ErrBelowMinimumReturn = errors.New("router: below min return")
)

// Config wires a hub instance.
type Config struct {
	// Account is the hub's settlement identity; transfers addressed to any
	// other account are ignored.
	Account string
	// DB is the committed node state. Each trade runs against a fresh
	// overlay and commits only when the whole hop chain succeeds.
	DB storage.Database
	// Ledger builds the settlement adapter bound to a trade's state view.
	Ledger func(converter.Storage) converter.TokenLedger
	// MaxHops bounds the chain length; DefaultMaxHops when zero.
	MaxHops int
	Log     *slog.Logger
	Metrics *metrics.ConverterMetrics
}

// Hub receives incoming transfer notifications and walks the conversion path
// across converters. One trade is one atomic unit of work: every pricing
// decision, tracked-balance mutation and settlement instruction of the chain
// lands in a state overlay that commits only after the final hop settles.
type Hub struct {
	account  string
	db       storage.Database
	ledgerFn func(converter.Storage) converter.TokenLedger
	maxHops  int
	log      *slog.Logger
	metrics  *metrics.ConverterMetrics
}

// NewHub constructs a hub from the supplied configuration.
func NewHub(cfg Config) (*Hub, error) {
	account := strings.TrimSpace(cfg.Account)
	if account == "" {
		return nil, fmt.Errorf("router: hub account required")
	}
	if cfg.DB == nil {
		return nil, fmt.Errorf("router: state database required")
	}
	if cfg.Ledger == nil {
		return nil, fmt.Errorf("router: settlement ledger required")
	}
	maxHops := cfg.MaxHops
	if maxHops <= 0 {
		maxHops = DefaultMaxHops
	}
	log := cfg.Log
	if log == nil {
		log = slog.Default()
	}
	return &Hub{
		account:  account,
		db:       cfg.DB,
		ledgerFn: cfg.Ledger,
		maxHops:  maxHops,
		log:      log,
		metrics:  cfg.Metrics,
	}, nil
}

// Account returns the hub's settlement identity.
func (h *Hub) Account() string { return h.account }

// Result summarises a completed trade.
type Result struct {
	TradeID   string
	Output    converter.Asset
	Recipient string
	Hops      int
}

// OnIncomingTransfer is the trade entry point. It is a no-op unless the
// transfer is addressed to the hub; otherwise the attached instruction is
// parsed and the full hop chain executes and commits.
func (h *Hub) OnIncomingTransfer(from, to string, quantity converter.Asset, instruction string) error {
	if strings.TrimSpace(to) != h.account {
		return nil
	}
	_, err := h.execute(from, quantity, instruction, true)
	return err
}

// Simulate prices a full conversion path without committing any state or
// settlement effect.
func (h *Hub) Simulate(quantity converter.Asset, instruction string) (*Result, error) {
	return h.execute(h.account, quantity, instruction, false)
}

type session struct {
	overlay *state.Overlay
	store   *converter.Store
	ledger  converter.TokenLedger
	// settle is false for simulations: pricing, tracked-balance deltas and
	// the final checks all run, but no value moves on the token ledger.
	settle bool
}

func (h *Hub) execute(from string, quantity converter.Asset, instruction string, commit bool) (*Result, error) {
	result := &Result{TradeID: uuid.NewString()}
	res, err := h.run(result, quantity, instruction, commit)
	if err != nil {
		if h.metrics != nil {
			h.metrics.ObserveFailure(failureReason(err))
		}
		h.log.Warn("conversion rejected",
			"trade", result.TradeID,
			"from", from,
			"quantity", quantity.String(),
			"err", err,
		)
		return nil, err
	}
	return res, nil
}

func (h *Hub) run(result *Result, quantity converter.Asset, instruction string, commit bool) (*Result, error) {
	if !quantity.Valid() {
		return nil, converter.ErrInvalidQuantity
	}
	memo, err := ParseMemo(instruction)
	if err != nil {
		return nil, err
	}
	if len(memo.Path) < 2 {
		return nil, ErrMalformedPath
	}

	overlay := state.NewOverlay(h.db)
	kv := state.NewKV(overlay)
	sess := &session{
		overlay: overlay,
		store:   converter.NewStore(kv),
		ledger:  h.ledgerFn(kv),
		settle:  commit,
	}

	settings, err := sess.store.Settings()
	if err != nil {
		return nil, err
	}
	if !settings.Enabled {
		return nil, converter.ErrConversionsDisabled
	}

	current := quantity
	for hop := 0; !memo.Final(); hop++ {
		if hop >= h.maxHops {
			return nil, ErrPathTooLong
		}
		next := memo.Path[0]
		memo, current, err = h.convertAt(sess, next, result.TradeID, current, memo)
		if err != nil {
			return nil, err
		}
		result.Hops++
	}

	result.Output = current
	result.Recipient = memo.Recipient
	if commit {
		if err := overlay.Commit(); err != nil {
			return nil, fmt.Errorf("router: commit trade state: %w", err)
		}
	}
	if h.metrics != nil {
		h.metrics.ObserveTrade(result.Hops)
	}
	return result, nil
}

// convertAt executes one hop at the converter settled through account. It
// prices the trade, applies the tracked-balance deltas, and settles the
// output either onward to the hub or to the final recipient.
func (h *Hub) convertAt(sess *session, account, tradeID string, current converter.Asset, memo Memo) (Memo, converter.Asset, error) {
	if len(memo.Path) < 2 {
		return Memo{}, converter.Asset{}, ErrMalformedPath
	}
	if memo.Path[0] != account {
		return Memo{}, converter.Asset{}, ErrWrongConverter
	}

	conv, ok, err := sess.store.GetByAccount(account)
	if err != nil {
		return Memo{}, converter.Asset{}, err
	}
	if !ok {
		return Memo{}, converter.Asset{}, converter.ErrConverterNotFound
	}

	fromRef, err := converter.LookupReserve(conv, current.Symbol.Code)
	if err != nil {
		return Memo{}, converter.Asset{}, err
	}
	toCode := memo.Path[1]
	toRef, err := converter.LookupReserve(conv, toCode)
	if err != nil {
		return Memo{}, converter.Asset{}, err
	}

	// The hub forwards the in-flight funds to the converter's settlement
	// account under the same instruction before the hop is priced.
	if sess.settle {
		if err := sess.ledger.Transfer(fromRef.Contract(), h.account, conv.Account, current, memo.Encode()); err != nil {
			return Memo{}, converter.Asset{}, err
		}
	}

	supply, err := sess.ledger.OutstandingSupply(conv.TokenContract, conv.Currency.Code)
	if err != nil {
		return Memo{}, converter.Asset{}, err
	}

	quote, err := converter.PriceHop(conv, fromRef, toRef, current, supply)
	if err != nil {
		return Memo{}, converter.Asset{}, err
	}
	if quote.ToAmount.Amount <= 0 {
		return Memo{}, converter.Asset{}, converter.ErrInvalidQuantity
	}

	if quote.IncomingSmart {
		if sess.settle {
			if err := sess.ledger.Retire(conv.TokenContract, conv.Account, current, "destroy on conversion"); err != nil {
				return Memo{}, converter.Asset{}, err
			}
		}
	} else {
		if err := conv.AdjustReserveBalance(current.Symbol.Code, current.Amount); err != nil {
			return Memo{}, converter.Asset{}, err
		}
	}
	if !quote.OutgoingSmart {
		if err := conv.AdjustReserveBalance(toCode, -quote.ToAmount.Amount); err != nil {
			return Memo{}, converter.Asset{}, err
		}
	}
	if err := sess.store.Put(conv); err != nil {
		return Memo{}, converter.Asset{}, err
	}

	next, err := memo.Truncate()
	if err != nil {
		return Memo{}, converter.Asset{}, err
	}
	if quote.OutgoingSmart && !next.Final() {
		return Memo{}, converter.Asset{}, converter.ErrSmartNotFinal
	}

	dest := h.account
	outNote := next.Encode()
	if next.Final() {
		dest = next.Recipient
		if err := checkMinReturn(next.MinReturn, quote.ToAmount); err != nil {
			return Memo{}, converter.Asset{}, err
		}
		if conv.RequireBalance {
			okEntry, err := sess.ledger.HasEntry(toRef.Contract(), dest, toCode)
			if err != nil {
				return Memo{}, converter.Asset{}, err
			}
			if !okEntry {
				return Memo{}, converter.Asset{}, converter.ErrNoAccountEntry
			}
		}
		outNote = next.Note
	}

	if sess.settle {
		if quote.OutgoingSmart {
			err = sess.ledger.Issue(conv.TokenContract, dest, quote.ToAmount, outNote)
		} else {
			err = sess.ledger.Transfer(toRef.Contract(), conv.Account, dest, quote.ToAmount, outNote)
		}
		if err != nil {
			return Memo{}, converter.Asset{}, err
		}
	}

	h.emitEvents(tradeID, conv, fromRef, toRef, quote)
	if h.metrics != nil {
		h.metrics.ObserveConversion(string(quote.Branch), quote.Fee.Real())
	}
	return next, quote.ToAmount, nil
}

func (h *Hub) emitEvents(tradeID string, conv *converter.Converter, from, to converter.ReserveRef, quote *converter.Quote) {
	h.log.Info("conversion",
		"trade", tradeID,
		"converter", conv.Currency.Code,
		"from_contract", from.Contract(),
		"from_symbol", from.Currency().Code,
		"to_contract", to.Contract(),
		"to_symbol", to.Currency().Code,
		"amount", quote.FromAmount.String(),
		"return", quote.ToAmount.String(),
		"conversion_fee", quote.Fee.String(),
		"branch", string(quote.Branch),
	)
	if quote.IncomingSmart || !quote.OutgoingSmart {
		balance, _ := converter.LookupReserve(conv, to.Currency().Code)
		h.logPriceData(tradeID, conv, to, balance.Balance(), quote.SmartSupply)
	}
	if quote.OutgoingSmart || !quote.IncomingSmart {
		balance, _ := converter.LookupReserve(conv, from.Currency().Code)
		h.logPriceData(tradeID, conv, from, balance.Balance(), quote.SmartSupply)
	}
}

func (h *Hub) logPriceData(tradeID string, conv *converter.Converter, side converter.ReserveRef, balance int64, supply float64) {
	if side.IsSmart() {
		return
	}
	h.log.Info("price_data",
		"trade", tradeID,
		"smart_supply", supply,
		"reserve_contract", side.Contract(),
		"reserve_symbol", side.Currency().Code,
		"reserve_balance", balance,
		"reserve_ratio", float64(side.Ratio())/converter.MaxRatio,
	)
}

func checkMinReturn(minReturn string, output converter.Asset) error {
	trimmed := strings.TrimSpace(minReturn)
	if trimmed == "" {
		return nil
	}
	threshold, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return fmt.Errorf("%w: bad minimum return %q", ErrMalformedPath, minReturn)
	}
	if output.Amount < converter.RealToAmount(threshold, output.Symbol.Precision) {
		return ErrBelowMinimumReturn
	}
	return nil
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, ErrMalformedPath), errors.Is(err, ErrMemoVersion):
		return "malformed_path"
	case errors.Is(err, ErrWrongConverter):
		return "wrong_converter"
	case errors.Is(err, ErrPathTooLong):
		return "path_too_long"
	case errors.Is(err, ErrBelowMinimumReturn):
		return "below_min_return"
	case errors.Is(err, converter.ErrConversionsDisabled), errors.Is(err, converter.ErrConverterDisabled):
		return "disabled"
	case errors.Is(err, converter.ErrConverterNotFound), errors.Is(err, converter.ErrReserveNotFound):
		return "not_found"
	case errors.Is(err, converter.ErrInvalidQuantity), errors.Is(err, converter.ErrSameCurrency):
		return "invalid_quantity"
	default:
		return "ledger"
	}
}
