package models

import (
	"fmt"
	"math/big"
)

// Amount is an explicit exact-or-everything transfer amount. Using a variant
// instead of a sentinel integer value removes the class of bugs where a
// maximum-representable number is accidentally treated as a real amount.
type Amount struct {
	all   bool
	value *big.Int
}

// Exact returns an Amount for a specific value.
func Exact(value *big.Int) Amount {
	return Amount{value: value}
}

// All returns an Amount meaning "the caller's entire current balance",
// resolved against the settled balance at execution time.
func All() Amount {
	return Amount{all: true}
}

// IsAll reports whether the amount is the entire-balance variant.
func (a Amount) IsAll() bool {
	return a.all
}

// Resolve returns the concrete value to move given the available settled
// balance. Exact amounts must be positive; All resolves to the full balance,
// which may be zero.
func (a Amount) Resolve(available *big.Int) (*big.Int, error) {
	if a.all {
		return new(big.Int).Set(available), nil
	}
	if a.value == nil || a.value.Sign() <= 0 {
		return nil, fmt.Errorf("amount must be positive")
	}
	return new(big.Int).Set(a.value), nil
}

func (a Amount) String() string {
	if a.all {
		return "all"
	}
	if a.value == nil {
		return "0"
	}
	return a.value.String()
}
