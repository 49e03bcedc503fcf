// Package tokenledger is a storage-backed token ledger implementing the
// settlement interface consumed by the converter network: balances and
// outstanding supply per token contract, with issue, retire and transfer.
package tokenledger

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"reservenet/native/converter"
)

var (
	// ErrInvalidQuantity indicates a non-positive or malformed quantity.
	ErrInvalidQuantity = errors.New("tokenledger: invalid quantity")
	// ErrInsufficientFunds indicates the sender balance cannot cover the movement.
	ErrInsufficientFunds = errors.New("tokenledger: insufficient funds")
	// ErrPrecisionMismatch indicates a quantity precision differing from the token's.
	ErrPrecisionMismatch = errors.New("tokenledger: symbol precision mismatch")
	// ErrSelfTransfer indicates sender and recipient are the same account.
	ErrSelfTransfer = errors.New("tokenledger: cannot transfer to self")
)

var (
	statPrefix    = []byte("token/stat/")
	accountPrefix = []byte("token/acct/")
)

func statKey(contract, code string) []byte {
	return []byte(string(statPrefix) + contract + "/" + code)
}

func balanceKey(contract, owner, code string) []byte {
	return []byte(string(accountPrefix) + contract + "/" + owner + "/" + code)
}

type storedStat struct {
	Supply    string
	Precision uint8
}

type storedBalance struct {
	Amount string
}

// Ledger moves token value within the shared key-value state.
type Ledger struct {
	store converter.Storage
}

// NewLedger constructs a ledger bound to the provided storage backend.
func NewLedger(store converter.Storage) *Ledger {
	return &Ledger{store: store}
}

func parseAmount(s string) (int64, error) {
	amount, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("tokenledger: decode amount: %w", err)
	}
	return amount, nil
}

func (l *Ledger) stat(contract, code string) (int64, uint8, bool, error) {
	var stored storedStat
	ok, err := l.store.KVGet(statKey(contract, code), &stored)
	if err != nil || !ok {
		return 0, 0, false, err
	}
	supply, err := parseAmount(stored.Supply)
	if err != nil {
		return 0, 0, false, err
	}
	return supply, stored.Precision, true, nil
}

func (l *Ledger) putStat(contract, code string, supply int64, precision uint8) error {
	return l.store.KVPut(statKey(contract, code), storedStat{
		Supply:    strconv.FormatInt(supply, 10),
		Precision: precision,
	})
}

func (l *Ledger) balance(contract, owner, code string) (int64, bool, error) {
	var stored storedBalance
	ok, err := l.store.KVGet(balanceKey(contract, owner, code), &stored)
	if err != nil || !ok {
		return 0, false, err
	}
	amount, err := parseAmount(stored.Amount)
	if err != nil {
		return 0, false, err
	}
	return amount, true, nil
}

func (l *Ledger) putBalance(contract, owner, code string, amount int64) error {
	return l.store.KVPut(balanceKey(contract, owner, code), storedBalance{
		Amount: strconv.FormatInt(amount, 10),
	})
}

func checkQuantity(quantity converter.Asset) error {
	if !quantity.Valid() {
		return ErrInvalidQuantity
	}
	return nil
}

// Issue mints quantity to the recipient, growing outstanding supply. The
// token's stat record is created on first issuance and fixes the precision.
func (l *Ledger) Issue(contract, to string, quantity converter.Asset, note string) error {
	if err := checkQuantity(quantity); err != nil {
		return err
	}
	code := quantity.Symbol.Code
	supply, precision, ok, err := l.stat(contract, code)
	if err != nil {
		return err
	}
	if ok && precision != quantity.Symbol.Precision {
		return ErrPrecisionMismatch
	}
	if !ok {
		precision = quantity.Symbol.Precision
	}
	if err := l.putStat(contract, code, supply+quantity.Amount, precision); err != nil {
		return err
	}
	return l.credit(contract, to, code, quantity.Amount)
}

// Retire burns quantity held by from, shrinking outstanding supply.
func (l *Ledger) Retire(contract, from string, quantity converter.Asset, note string) error {
	if err := checkQuantity(quantity); err != nil {
		return err
	}
	code := quantity.Symbol.Code
	supply, precision, ok, err := l.stat(contract, code)
	if err != nil {
		return err
	}
	if !ok || supply < quantity.Amount {
		return ErrInsufficientFunds
	}
	if precision != quantity.Symbol.Precision {
		return ErrPrecisionMismatch
	}
	if err := l.debit(contract, from, code, quantity.Amount); err != nil {
		return err
	}
	return l.putStat(contract, code, supply-quantity.Amount, precision)
}

// Transfer moves quantity between two accounts of the same token contract.
func (l *Ledger) Transfer(contract, from, to string, quantity converter.Asset, note string) error {
	if err := checkQuantity(quantity); err != nil {
		return err
	}
	from = strings.TrimSpace(from)
	to = strings.TrimSpace(to)
	if from == to {
		return ErrSelfTransfer
	}
	code := quantity.Symbol.Code
	if err := l.debit(contract, from, code, quantity.Amount); err != nil {
		return err
	}
	return l.credit(contract, to, code, quantity.Amount)
}

func (l *Ledger) credit(contract, owner, code string, amount int64) error {
	balance, _, err := l.balance(contract, owner, code)
	if err != nil {
		return err
	}
	return l.putBalance(contract, owner, code, balance+amount)
}

func (l *Ledger) debit(contract, owner, code string, amount int64) error {
	balance, ok, err := l.balance(contract, owner, code)
	if err != nil {
		return err
	}
	if !ok || balance < amount {
		return ErrInsufficientFunds
	}
	return l.putBalance(contract, owner, code, balance-amount)
}

// BalanceOf reports the balance held by owner, zero when no entry exists.
func (l *Ledger) BalanceOf(contract, owner, code string) (int64, error) {
	balance, _, err := l.balance(contract, owner, code)
	return balance, err
}

// OutstandingSupply reports the issued supply of the token, zero when the
// token has never been issued.
func (l *Ledger) OutstandingSupply(contract, code string) (int64, error) {
	supply, _, _, err := l.stat(contract, code)
	return supply, err
}

// HasEntry reports whether owner holds a balance entry for the token.
func (l *Ledger) HasEntry(contract, owner, code string) (bool, error) {
	_, ok, err := l.balance(contract, owner, code)
	return ok, err
}
