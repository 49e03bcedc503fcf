package converter

import "errors"

var (
	// ErrFeeTooHigh indicates a converter fee above the configured maximum.
	ErrFeeTooHigh = errors.New("converter: fee must be lower or equal to the maximum fee")
	// ErrDuplicateConverter indicates a converter already exists for the currency code.
	ErrDuplicateConverter = errors.New("converter: converter for the given currency code already exists")
	// ErrConverterNotFound indicates no converter is registered for the lookup key.
	ErrConverterNotFound = errors.New("converter: converter does not exist")
	// ErrReserveNotFound indicates the currency code does not name a reserve of the converter.
	ErrReserveNotFound = errors.New("converter: reserve not found")
	// ErrInvalidRatio indicates a reserve ratio outside the (0, 1000] range.
	ErrInvalidRatio = errors.New("converter: ratio must be between 1 and 1000")
	// ErrRatioExceeded indicates the summed reserve ratios exceed 1000.
	ErrRatioExceeded = errors.New("converter: total ratio cannot exceed 1000")
	// ErrReserveContract indicates an attempt to re-point an existing reserve at a different token contract.
	ErrReserveContract = errors.New("converter: cannot update the reserve contract")
	// ErrConversionsDisabled indicates conversions are disabled network wide.
	ErrConversionsDisabled = errors.New("converter: conversions are disabled")
	// ErrConverterDisabled indicates the converter has conversions disabled.
	ErrConverterDisabled = errors.New("converter: conversions are disabled for this converter")
	// ErrPurchasesDisabled indicates the destination side does not allow purchases.
	ErrPurchasesDisabled = errors.New("converter: 'to' token purchases disabled")
	// ErrSameCurrency indicates source and destination currency are identical.
	ErrSameCurrency = errors.New("converter: cannot convert to self")
	// ErrInvalidQuantity indicates a zero, negative or malformed trade quantity.
	ErrInvalidQuantity = errors.New("converter: invalid quantity")
	// ErrDepletedReserve indicates the source reserve balance cannot support pricing.
	ErrDepletedReserve = errors.New("converter: source reserve depleted")
	// ErrInsufficientSupply indicates a governed-token burn at or above outstanding supply.
	ErrInsufficientSupply = errors.New("converter: burn amount exceeds outstanding supply")
	// ErrSmartNotFinal indicates a governed-token output on a non-final hop.
	ErrSmartNotFinal = errors.New("converter: smart token must be final currency")
	// ErrUnauthorized indicates the caller lacks the required authority.
	ErrUnauthorized = errors.New("converter: unauthorized")
	// ErrNoAccountEntry indicates the recipient has no ledger entry for the destination token.
	ErrNoAccountEntry = errors.New("converter: recipient must have an entry for the destination token")
	// ErrNegativeBalance indicates a tracked reserve balance dropped below zero.
	ErrNegativeBalance = errors.New("converter: tracked reserve balance is negative")
)
