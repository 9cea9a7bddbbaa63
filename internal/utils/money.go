package utils

import (
	"fmt"
	"math"
	"strconv"
)

// RoundMoney rounds to 2 decimals using the exact binary value of amount and
// ties-to-even, matching Python's round(x, 2).
func RoundMoney(amount float64) float64 {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return amount
	}
	out, err := strconv.ParseFloat(strconv.FormatFloat(amount, 'f', 2, 64), 64)
	if err != nil {
		return amount
	}
	return out
}

// FormatMoney keeps consistent decimal formatting for currency fields.
func FormatMoney(amount float64) string {
	return fmt.Sprintf("%.2f", amount)
}

// ToMinorUnits converts a currency amount to cents for the payment gateway.
func ToMinorUnits(amount float64) int64 {
	return int64(math.Round(RoundMoney(amount) * 100))
}
