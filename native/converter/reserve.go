package converter

// ReserveRef resolves a currency code within a converter to either a real
// reserve entry or the implicit governed pseudo-reserve. The two cases are
// kept distinct rather than synthesising a sentinel Reserve record: the
// pseudo-reserve has no tracked balance and must never be aliased into the
// reserve list.
type ReserveRef struct {
	smart   bool
	reserve Reserve
}

// IsSmart reports whether the reference names the converter's own governed token.
func (r ReserveRef) IsSmart() bool { return r.smart }

// Contract returns the token contract backing the referenced currency.
func (r ReserveRef) Contract() string { return r.reserve.Contract }

// Currency returns the referenced currency symbol.
func (r ReserveRef) Currency() Symbol { return r.reserve.Currency }

// Ratio returns the curve ratio; zero for the governed pseudo-reserve.
func (r ReserveRef) Ratio() uint64 { return r.reserve.Ratio }

// PurchaseEnabled reports whether conversions may target the referenced
// currency. For the governed pseudo-reserve this mirrors the converter's
// smart-enabled flag.
func (r ReserveRef) PurchaseEnabled() bool { return r.reserve.PurchaseEnabled }

// Balance returns the tracked reserve balance. The governed pseudo-reserve
// carries no tracked balance; its effective supply is ledger reported.
func (r ReserveRef) Balance() int64 { return r.reserve.Balance }

// LookupReserve resolves code within the converter. Resolving the converter's
// own governed currency returns the implicit pseudo-reserve with ratio zero
// and purchase availability tied to the smart-enabled flag.
func LookupReserve(c *Converter, code string) (ReserveRef, error) {
	if c.Currency.Code == code {
		return ReserveRef{
			smart: true,
			reserve: Reserve{
				Contract:        c.TokenContract,
				Currency:        c.Currency,
				Ratio:           0,
				PurchaseEnabled: c.SmartEnabled,
			},
		}, nil
	}
	for _, r := range c.Reserves {
		if r.Currency.Code == code {
			return ReserveRef{reserve: r}, nil
		}
	}
	return ReserveRef{}, ErrReserveNotFound
}

// UpsertReserve appends a new reserve or updates the ratio and purchase flag
// of an existing one. The backing contract of an existing reserve is fixed:
// re-pointing it at a different token contract is rejected. New reserves
// start with a zero tracked balance. The summed ratio bound is enforced after
// the update.
func (c *Converter) UpsertReserve(contract string, currency Symbol, ratio uint64, purchaseEnabled bool) error {
	if ratio == 0 || ratio > MaxRatio {
		return ErrInvalidRatio
	}
	updated := false
	for i := range c.Reserves {
		if c.Reserves[i].Currency.Code != currency.Code {
			continue
		}
		if c.Reserves[i].Contract != contract {
			return ErrReserveContract
		}
		c.Reserves[i].Ratio = ratio
		c.Reserves[i].PurchaseEnabled = purchaseEnabled
		updated = true
		break
	}
	if !updated {
		c.Reserves = append(c.Reserves, Reserve{
			Contract:        contract,
			Currency:        currency,
			Ratio:           ratio,
			PurchaseEnabled: purchaseEnabled,
		})
	}
	if c.TotalRatio() > MaxRatio {
		return ErrRatioExceeded
	}
	return nil
}

// AdjustReserveBalance applies a signed delta to the tracked balance of the
// named reserve. The governed pseudo-reserve has no tracked balance and is
// not addressable here. A delta that drives the balance negative indicates an
// accounting fault upstream and is rejected.
func (c *Converter) AdjustReserveBalance(code string, delta int64) error {
	for i := range c.Reserves {
		if c.Reserves[i].Currency.Code != code {
			continue
		}
		next := c.Reserves[i].Balance + delta
		if next < 0 {
			return ErrNegativeBalance
		}
		c.Reserves[i].Balance = next
		return nil
	}
	return ErrReserveNotFound
}
