package service

import (
	"errors"

	"accrue/accrual"
)

var (
	// ErrRateIncreaseRejected is returned when a caller attempts to raise the
	// global accrual rate. The rate may only ever be lowered.
	ErrRateIncreaseRejected = errors.New("global rate can only be lowered")

	// ErrInsufficientBalance is returned when a burn or transfer requests more
	// than the account's settled principal.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrUnauthorized is returned when the caller lacks the required
	// privileged role or delegated-transfer allowance.
	ErrUnauthorized = errors.New("caller not authorized")

	// ErrSettlementTransferFailed is returned by redemption front-ends when
	// the external settlement-asset transfer fails after a burn. The ledger
	// never raises it itself; it is part of the shared error surface so
	// callers can match it with errors.Is.
	ErrSettlementTransferFailed = errors.New("settlement asset transfer failed")

	// ErrOverflow is returned when growth-factor or principal arithmetic
	// exceeds the representable range.
	ErrOverflow = accrual.ErrOverflow
)
