package utils

import (
	"fmt"
	"strings"
)

// FormatMinor renders an amount held in minor units (cents) with thousands separators.
// Example: 1089050 -> "10,890.50"
func FormatMinor(amount int64) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}

	integerPart := fmt.Sprintf("%d", amount/100)
	decimalPart := fmt.Sprintf("%02d", amount%100)

	var groups []string
	for i := len(integerPart); i > 0; i -= 3 {
		start := i - 3
		if start < 0 {
			start = 0
		}
		groups = append([]string{integerPart[start:i]}, groups...)
	}

	return sign + strings.Join(groups, ",") + "." + decimalPart
}
