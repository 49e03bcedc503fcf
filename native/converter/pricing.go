package converter

import "math"

// The pricing stage operates on real-valued quantities: integer ledger
// amounts divided by 10^precision on the way in and truncated toward zero on
// the way out. Rounding is bounded by double precision representation.

// PurchaseReturn computes the governed-token amount minted for depositing
// deposit units of a reserve holding balance, given the outstanding governed
// supply and the reserve ratio in parts-per-thousand.
func PurchaseReturn(balance, deposit, supply float64, ratio uint64) float64 {
	return supply * (math.Pow(1+deposit/(balance+deposit), float64(ratio)/MaxRatio) - 1)
}

// SaleReturn computes the reserve-token amount released for burning sell
// units of the governed token, given the outstanding governed supply and the
// destination reserve ratio in parts-per-thousand.
func SaleReturn(balance, sell, supply float64, ratio uint64) float64 {
	return balance * (math.Pow(1+sell/(supply-sell), MaxRatio/float64(ratio)) - 1)
}

// QuickConvert prices a direct reserve-to-reserve trade. It is a closed-form
// simplification of a purchase followed by a sale and is valid only when both
// reserves share the same ratio and the conversion fee is zero.
func QuickConvert(balance, in, toBalance float64) float64 {
	return in / (balance + in) * toBalance
}

// ApplyFee splits amount into the net remainder and the fee portion for a fee
// expressed in parts-per-thousand. A zero fee is a no-op.
func ApplyFee(amount float64, fee uint16) (net, charged float64) {
	if fee == 0 {
		return amount, 0
	}
	charged = amount * float64(fee) / MaxFee
	if charged <= 0 {
		return amount, 0
	}
	return amount - charged, charged
}
