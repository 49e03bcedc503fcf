// Package converter implements the reserve ledger, converter registry and
// bonding-curve conversion engine of the network. Converters govern a smart
// token backed by one or more weighted reserves; the engine prices trades
// between any two of those currencies against the tracked reserve balances.
package converter

import (
	"fmt"
	"math"
	"strings"
)

// MaxRatio bounds reserve ratios and the summed ratio of a converter, in
// parts-per-thousand.
const MaxRatio = 1000

// MaxFee bounds conversion fees, in parts-per-thousand.
const MaxFee = 1000

// Symbol identifies a currency code together with its decimal precision.
type Symbol struct {
	Code      string
	Precision uint8
}

// Valid reports whether the symbol carries a usable currency code.
func (s Symbol) Valid() bool {
	code := strings.TrimSpace(s.Code)
	if code == "" || code != s.Code {
		return false
	}
	for _, r := range code {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}

// Asset is an integer amount denominated in a symbol. Amount is expressed in
// minimal units, 10^-precision of one whole token.
type Asset struct {
	Amount int64
	Symbol Symbol
}

// Valid reports whether the asset has a valid symbol and a positive amount.
func (a Asset) Valid() bool {
	return a.Symbol.Valid() && a.Amount > 0
}

// Real returns the amount as a real-valued token quantity.
func (a Asset) Real() float64 {
	return float64(a.Amount) / math.Pow10(int(a.Symbol.Precision))
}

// String renders the asset in "123.4500 CODE" form.
func (a Asset) String() string {
	p := int(a.Symbol.Precision)
	scale := int64(math.Pow10(p))
	if scale == 0 {
		scale = 1
	}
	whole := a.Amount / scale
	frac := a.Amount % scale
	if frac < 0 {
		frac = -frac
	}
	if p == 0 {
		return fmt.Sprintf("%d %s", whole, a.Symbol.Code)
	}
	return fmt.Sprintf("%d.%0*d %s", whole, p, frac, a.Symbol.Code)
}

// RealToAmount converts a real-valued token quantity back to minimal units,
// truncating toward zero. Precision loss at this stage is an accepted source
// of rounding in the pricing pipeline.
func RealToAmount(v float64, precision uint8) int64 {
	return int64(v * math.Pow10(int(precision)))
}

// Reserve is one weighted balance backing a converter's bonding curve.
// Balance is the tracked (virtual) balance used for pricing; it is accounted
// independently of the live balance reported by the backing token contract.
type Reserve struct {
	Contract        string
	Currency        Symbol
	Ratio           uint64
	PurchaseEnabled bool
	Balance         int64
}

// Converter governs a smart token and owns an ordered list of reserves.
// Converters are keyed by the governed currency code; Account is the
// settlement identity that holds the reserve funds.
type Converter struct {
	Currency       Symbol
	Account        string
	TokenContract  string
	Owner          string
	Fee            uint16
	Enabled        bool
	SmartEnabled   bool
	RequireBalance bool
	Reserves       []Reserve
}

// Clone returns a deep copy so callers cannot alias the reserve slice.
func (c *Converter) Clone() *Converter {
	if c == nil {
		return nil
	}
	clone := *c
	clone.Reserves = append([]Reserve(nil), c.Reserves...)
	return &clone
}

// TotalRatio sums the ratios of all reserves.
func (c *Converter) TotalRatio() uint64 {
	var total uint64
	for _, r := range c.Reserves {
		total += r.Ratio
	}
	return total
}

// Settings carries the network-wide converter configuration.
type Settings struct {
	Enabled bool
	MaxFee  uint16
}

// Storage abstracts the subset of state manager functionality required by the
// converter registry.
type Storage interface {
	KVGet(key []byte, out interface{}) (bool, error)
	KVPut(key []byte, value interface{}) error
}

// TokenLedger is the settlement adapter: the external token ledger that moves
// value on the registry's behalf. Implementations must either apply the
// requested movement fully or return an error with no partial effect.
type TokenLedger interface {
	Transfer(contract, from, to string, quantity Asset, note string) error
	Issue(contract, to string, quantity Asset, note string) error
	Retire(contract, from string, quantity Asset, note string) error
	BalanceOf(contract, owner, code string) (int64, error)
	OutstandingSupply(contract, code string) (int64, error)
	HasEntry(contract, owner, code string) (bool, error)
}
