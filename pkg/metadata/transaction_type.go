package metadata

import (
	"fmt"
	"strings"
)

type TransactionType string

const (
	TransactionIn  TransactionType = "in"
	TransactionOut TransactionType = "out"
)

func NewTransactionType(value string) (TransactionType, error) {
	t := TransactionType(strings.ToLower(strings.TrimSpace(value)))
	if !t.IsValid() {
		return t, fmt.Errorf("value not valid, only valid values are: %s, %s", TransactionIn, TransactionOut)
	}

	return t, nil
}

func (t TransactionType) IsValid() bool {
	return t == TransactionIn || t == TransactionOut
}

// Apply returns the stock that results from applying quantity in this direction.
func (t TransactionType) Apply(current, quantity int) int {
	if t == TransactionOut {
		return current - quantity
	}
	return current + quantity
}

// Reverse returns the stock that results from undoing a previously applied quantity.
func (t TransactionType) Reverse(current, quantity int) int {
	if t == TransactionOut {
		return current + quantity
	}
	return current - quantity
}

func (t TransactionType) String() string {
	return string(t)
}
