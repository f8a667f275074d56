package service

import (
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/punchamoorthee/hederaops/internal/domain"
)

var (
	tinybarsPerHbar = decimal.New(1, 8)
	maxInt64        = decimal.NewFromInt(math.MaxInt64)
)

// parseAmount accepts a positive integer amount in the smallest unit.
func parseAmount(raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, fmt.Errorf("%w: amount is required", domain.ErrValidation)
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: amount %q is not numeric", domain.ErrValidation, raw)
	}
	if !d.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: amount must be positive", domain.ErrValidation)
	}
	if !d.IsInteger() {
		return decimal.Zero, fmt.Errorf("%w: amount must be a whole number of tinybars", domain.ErrValidation)
	}
	if d.GreaterThan(maxInt64) {
		return decimal.Zero, fmt.Errorf("%w: amount %s is out of range", domain.ErrValidation, raw)
	}
	return d, nil
}

// tinybarsToHbar converts the smallest unit into HBAR.
func tinybarsToHbar(tinybars int64) decimal.Decimal {
	return decimal.NewFromInt(tinybars).Div(tinybarsPerHbar)
}

func formatHbar(tinybars int64) string {
	return tinybarsToHbar(tinybars).String() + " ℏ"
}

// coerceBalance reads a balance rendered by the ledger in tinybars. Plain
// numbers are tinybars; "ℏ" and "tℏ" suffixes are honoured.
func coerceBalance(raw string) (decimal.Decimal, error) {
	s := strings.TrimSpace(raw)
	scale := decimal.NewFromInt(1)
	switch {
	case strings.HasSuffix(s, "tℏ"):
		s = strings.TrimSpace(strings.TrimSuffix(s, "tℏ"))
	case strings.HasSuffix(s, "ℏ"):
		s = strings.TrimSpace(strings.TrimSuffix(s, "ℏ"))
		scale = tinybarsPerHbar
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("balance %q is not numeric: %w", raw, err)
	}
	return d.Mul(scale), nil
}
