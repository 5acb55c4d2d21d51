package chain

import (
	"math/big"
	"strings"
)

// ParseDecimalAmount converts a human decimal string into base units.
// "1.5" with 6 decimals returns 1500000. Amounts with more fractional digits
// than decimalPlaces are rejected rather than truncated, so the value that
// reaches the chain is always exactly the value the user typed.
//
//nolint:gocognit,gocyclo // Decimal parsing requires sequential validation steps
func ParseDecimalAmount(amount string, decimalPlaces int, invalidAmountErr error) (*big.Int, error) {
	if amount == "" || strings.HasPrefix(amount, "-") || strings.HasPrefix(amount, "+") {
		return nil, invalidAmountErr
	}

	whole, frac, hasPoint := strings.Cut(amount, ".")
	if hasPoint && strings.Contains(frac, ".") {
		return nil, invalidAmountErr
	}
	if whole == "" && frac == "" {
		return nil, invalidAmountErr
	}
	if len(frac) > decimalPlaces {
		return nil, invalidAmountErr
	}
	if !isDigits(whole) || !isDigits(frac) {
		return nil, invalidAmountErr
	}

	digits := whole + frac + strings.Repeat("0", decimalPlaces-len(frac))
	digits = strings.TrimLeft(digits, "0")
	if digits == "" {
		return new(big.Int), nil
	}

	result, ok := new(big.Int).SetString(digits, 10)
	if !ok {
		return nil, invalidAmountErr
	}
	return result, nil
}

func isDigits(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// FormatDecimalAmount renders base units as a decimal string, trimming
// trailing fractional zeros. 1500000 with 6 decimals returns "1.5".
func FormatDecimalAmount(amount *big.Int, decimalPlaces int) string {
	if amount == nil {
		return "0"
	}
	if amount.Sign() < 0 {
		return "-" + FormatDecimalAmount(new(big.Int).Abs(amount), decimalPlaces)
	}

	str := amount.String()
	if decimalPlaces <= 0 {
		return str
	}
	if len(str) <= decimalPlaces {
		str = strings.Repeat("0", decimalPlaces-len(str)+1) + str
	}

	point := len(str) - decimalPlaces
	frac := strings.TrimRight(str[point:], "0")
	if frac == "" {
		return str[:point]
	}
	return str[:point] + "." + frac
}

// DivideAmount splits total evenly across n recipients and returns the
// per-recipient share along with the undistributed remainder.
// A zero or negative recipient count yields a zero share.
func DivideAmount(total *big.Int, n int) (share, remainder *big.Int) {
	if total == nil || n <= 0 {
		return new(big.Int), new(big.Int)
	}
	share, remainder = new(big.Int).QuoRem(total, big.NewInt(int64(n)), new(big.Int))
	return share, remainder
}
