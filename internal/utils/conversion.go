/*
This file contains common utility functions for fixed-point amounts: powers of ten, rounding
division and display conversions used by logs, metrics and the read API.
*/

package utils

import (
	"errors"
	"fmt"
	"math"

	sdkmath "cosmossdk.io/math"
)

// Error definitions for zero-tolerance error handling
var (
	ErrInvalidPrecision = errors.New("precision is invalid")
	ErrAmountNil        = errors.New("amount is nil")
	ErrAmountNegative   = errors.New("amount is negative")
	ErrNotFinite        = errors.New("value is not finite")
	ErrConversionFailed = errors.New("conversion failed")
	ErrDivisionByZero   = errors.New("division by zero")
)

// MaxPrecision is the largest number of decimals supported by the conversions below.
const MaxPrecision = 18

// Pow10 returns 10^decimals as an SDK Int.
func Pow10(decimals uint32) sdkmath.Int {
	return sdkmath.NewIntWithDecimal(1, int(decimals))
}

// CeilDiv returns the smallest integer q with q*denominator >= numerator.
// Both operands must be non-negative.
func CeilDiv(numerator, denominator sdkmath.Int) (sdkmath.Int, error) {
	if numerator.IsNil() || denominator.IsNil() {
		return sdkmath.ZeroInt(), ErrAmountNil
	}
	if numerator.IsNegative() || denominator.IsNegative() {
		return sdkmath.ZeroInt(), ErrAmountNegative
	}
	if denominator.IsZero() {
		return sdkmath.ZeroInt(), ErrDivisionByZero
	}
	quotient := numerator.Quo(denominator)
	if !numerator.Mod(denominator).IsZero() {
		quotient = quotient.AddRaw(1)
	}
	return quotient, nil
}

// SDKIntToFloat64 converts an SDK Int to float64 with proper precision handling
func SDKIntToFloat64(amount sdkmath.Int, precision int) (float64, error) {
	if precision < 0 || precision > MaxPrecision {
		return 0, fmt.Errorf("%w: %d (must be between 0 and %d)", ErrInvalidPrecision, precision, MaxPrecision)
	}
	if amount.IsNil() {
		return 0, ErrAmountNil
	}
	if amount.IsNegative() {
		return 0, ErrAmountNegative
	}

	result := sdkmath.LegacyNewDecFromInt(amount).Quo(sdkmath.LegacyNewDecFromInt(Pow10(uint32(precision))))
	resultFloat, err := result.Float64()
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrConversionFailed, err)
	}

	if math.IsNaN(resultFloat) || math.IsInf(resultFloat, 0) {
		return 0, fmt.Errorf("%w: result is %f", ErrNotFinite, resultFloat)
	}

	return resultFloat, nil
}

// FormatAmount renders a fixed-point amount as a decimal string, e.g. 150000000 with 8 decimals is "1.5".
func FormatAmount(amount sdkmath.Int, precision int) (string, error) {
	if precision < 0 || precision > MaxPrecision {
		return "", fmt.Errorf("%w: %d (must be between 0 and %d)", ErrInvalidPrecision, precision, MaxPrecision)
	}
	if amount.IsNil() {
		return "", ErrAmountNil
	}
	dec := sdkmath.LegacyNewDecFromIntWithPrec(amount, int64(precision))
	text := dec.String()
	// LegacyDec always prints 18 decimals; trim the zero tail.
	for len(text) > 0 && text[len(text)-1] == '0' {
		text = text[:len(text)-1]
	}
	if len(text) > 0 && text[len(text)-1] == '.' {
		text = text[:len(text)-1]
	}
	return text, nil
}
