// Package validation holds the pure transaction rules. Nothing here touches
// storage, and every function is total over already-parsed integers: textual
// input that fails to parse never reaches this package, the terminal rejects
// it first.
package validation

import (
	"errors"
	"regexp"
)

var (
	// ErrNotMultiple rejects amounts that are not positive multiples of 20.
	// The 50/100/150/300 quick picks on the withdrawal menu all satisfy it,
	// so divisibility by 20 is the only format rule the machine enforces.
	ErrNotMultiple = errors.New("amount must be a positive multiple of 20")

	// ErrInsufficientFunds rejects withdrawals larger than the balance.
	ErrInsufficientFunds = errors.New("insufficient balance")

	// ErrBadPINFormat rejects replacement PINs that are not 4 decimal digits.
	ErrBadPINFormat = errors.New("PIN must be exactly 4 digits")
)

var pinPattern = regexp.MustCompile(`^[0-9]{4}$`)

// Amount enforces the cash format rule shared by deposits and withdrawals.
func Amount(amount int64) error {
	if amount <= 0 || amount%20 != 0 {
		return ErrNotMultiple
	}
	return nil
}

// Deposit reports whether amount may be credited to an account.
func Deposit(amount int64) error {
	return Amount(amount)
}

// Withdrawal reports whether amount may be debited from balance. The format
// check runs first: an amount that is both malformed and larger than the
// balance reports ErrNotMultiple, never ErrInsufficientFunds.
func Withdrawal(amount, balance int64) error {
	if err := Amount(amount); err != nil {
		return err
	}
	if amount > balance {
		return ErrInsufficientFunds
	}
	return nil
}

// PIN reports whether a replacement PIN is acceptable.
func PIN(pin string) error {
	if !pinPattern.MatchString(pin) {
		return ErrBadPINFormat
	}
	return nil
}
