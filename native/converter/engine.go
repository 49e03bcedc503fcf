package converter

import "math"

// Branch identifies which pricing rule produced a quote.
type Branch string

const (
	// BranchBurn prices an incoming governed token: a 1:1 burn with no purchase fee.
	BranchBurn Branch = "burn"
	// BranchQuick prices a reserve-to-reserve trade through the closed-form shortcut.
	BranchQuick Branch = "quick"
	// BranchStandard prices through the purchase and, when needed, sale legs of the curve.
	BranchStandard Branch = "standard"
)

// Quote is the outcome of pricing one hop. Fee is denominated in the
// destination currency, truncated the same way the output amount is.
type Quote struct {
	Branch        Branch
	FromAmount    Asset
	ToAmount      Asset
	Fee           Asset
	IncomingSmart bool
	OutgoingSmart bool
	// SmartSupply is the governed supply after the priced trade, as a real
	// quantity, for price reporting.
	SmartSupply float64
}

// PriceHop prices a single conversion of quantity into the currency named by
// to, against the converter's tracked reserve balances and the supplied
// outstanding governed supply. It selects exactly one pricing branch:
//
//  1. an incoming governed token is burned 1:1 with no purchase fee;
//  2. reserve to reserve with equal ratios and a zero fee uses the quick path;
//  3. otherwise the purchase leg mints governed units and the fee is applied
//     once, then either the governed amount is the output (issue) or the fee
//     is applied a second time and the sale leg prices the destination
//     reserve.
//
// The second fee application on two-leg reserve-to-reserve trades mirrors the
// reference pricing exactly.
//
// PriceHop never mutates state; the caller applies the resulting tracked
// balance deltas and settlement instructions.
func PriceHop(c *Converter, from, to ReserveRef, quantity Asset, smartSupply int64) (*Quote, error) {
	if quantity.Amount <= 0 || !quantity.Symbol.Valid() {
		return nil, ErrInvalidQuantity
	}
	if !c.Enabled {
		return nil, ErrConverterDisabled
	}
	if from.Currency().Code == to.Currency().Code {
		return nil, ErrSameCurrency
	}
	if !to.PurchaseEnabled() {
		return nil, ErrPurchasesDisabled
	}

	smartPrecision := int(c.Currency.Precision)
	toPrecision := int(to.Currency().Precision)

	fromAmount := quantity.Real()
	fromBalance := float64(from.Balance()) / math.Pow10(int(from.Currency().Precision))
	toBalance := float64(to.Balance()) / math.Pow10(toPrecision)
	supply := float64(smartSupply) / math.Pow10(smartPrecision)

	quote := &Quote{
		FromAmount:    quantity,
		IncomingSmart: from.IsSmart(),
		OutgoingSmart: to.IsSmart(),
	}

	var smartTokens, toTokens, totalFee float64
	switch {
	case quote.IncomingSmart:
		if fromAmount > supply {
			return nil, ErrInsufficientSupply
		}
		smartTokens = fromAmount
		supply -= smartTokens
		quote.Branch = BranchBurn
	case !quote.OutgoingSmart && from.Ratio() == to.Ratio() && c.Fee == 0:
		if fromBalance <= 0 {
			return nil, ErrDepletedReserve
		}
		toTokens = QuickConvert(fromBalance, fromAmount, toBalance)
		quote.Branch = BranchQuick
	default:
		if fromBalance <= 0 {
			return nil, ErrDepletedReserve
		}
		smartTokens = PurchaseReturn(fromBalance, fromAmount, supply, from.Ratio())
		supply += smartTokens
		var fee float64
		smartTokens, fee = ApplyFee(smartTokens, c.Fee)
		totalFee += fee
		quote.Branch = BranchStandard
	}

	if quote.OutgoingSmart {
		toTokens = smartTokens
	} else if quote.Branch != BranchQuick {
		var fee float64
		smartTokens, fee = ApplyFee(smartTokens, c.Fee)
		totalFee += fee
		if smartTokens >= supply {
			return nil, ErrInsufficientSupply
		}
		toTokens = SaleReturn(toBalance, smartTokens, supply, to.Ratio())
	}

	quote.ToAmount = Asset{Amount: RealToAmount(toTokens, to.Currency().Precision), Symbol: to.Currency()}
	quote.Fee = Asset{Amount: RealToAmount(totalFee, to.Currency().Precision), Symbol: to.Currency()}
	quote.SmartSupply = supply
	return quote, nil
}
