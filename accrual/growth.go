package accrual

import (
	"errors"
	"math/big"
	"time"
)

// Precision is the fixed-point scale for rates and growth factors (1e18).
var Precision = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

// maxValue caps every intermediate and result at 2^256-1, the widest value
// the ledger's NUMERIC(78,0) columns can hold.
var maxValue = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

// ErrOverflow indicates a growth-factor or balance computation exceeded the
// representable range.
var ErrOverflow = errors.New("accrual arithmetic overflow")

// GrowthFactor returns the fixed-point multiplier accumulated over elapsed
// seconds at the given per-second rate: Precision + elapsed*rate.
// Growth is linear, not compounding. A zero rate or zero elapsed time
// collapses to Precision (no growth).
func GrowthFactor(rate *big.Int, elapsedSeconds int64) (*big.Int, error) {
	if rate == nil || rate.Sign() < 0 {
		return nil, errors.New("rate must be non-negative")
	}
	if rate.Sign() == 0 || elapsedSeconds <= 0 {
		return new(big.Int).Set(Precision), nil
	}

	factor := new(big.Int).Mul(rate, big.NewInt(elapsedSeconds))
	factor.Add(factor, Precision)
	if factor.Cmp(maxValue) > 0 {
		return nil, ErrOverflow
	}
	return factor, nil
}

// DisplayedBalance returns principal * GrowthFactor(rate, elapsed) / Precision,
// the balance an observer sees with unsettled interest included. It is a pure
// function of its inputs; callers supply "now" however they measure it.
func DisplayedBalance(principal, rate *big.Int, elapsedSeconds int64) (*big.Int, error) {
	if principal == nil || principal.Sign() < 0 {
		return nil, errors.New("principal must be non-negative")
	}
	if principal.Sign() == 0 {
		return new(big.Int), nil
	}

	factor, err := GrowthFactor(rate, elapsedSeconds)
	if err != nil {
		return nil, err
	}

	displayed := new(big.Int).Mul(principal, factor)
	displayed.Quo(displayed, Precision)
	if displayed.Cmp(maxValue) > 0 {
		return nil, ErrOverflow
	}
	return displayed, nil
}

// CheckRange reports ErrOverflow when v exceeds the widest value the ledger
// can store.
func CheckRange(v *big.Int) error {
	if v.Cmp(maxValue) > 0 {
		return ErrOverflow
	}
	return nil
}

// Elapsed returns the whole seconds between lastSettled and now, clamped at
// zero so a clock that reads behind a stored timestamp never produces
// negative growth.
func Elapsed(lastSettled, now time.Time) int64 {
	elapsed := now.Unix() - lastSettled.Unix()
	if elapsed < 0 {
		return 0
	}
	return elapsed
}
