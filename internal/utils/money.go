package utils

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// RoundMoney rounds to whole kopiykas.
func RoundMoney(amount float64) float64 {
	return math.Round(amount*100) / 100
}

// FormatHryvnia renders an amount as "1 234 грн", with kopiykas only when present.
func FormatHryvnia(amount float64) string {
	amount = RoundMoney(amount)
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	whole := int64(amount)
	frac := int64(math.Round((amount - float64(whole)) * 100))
	out := sign + formatThousand(whole)
	if frac > 0 {
		out += fmt.Sprintf(",%02d", frac)
	}
	return out + " грн"
}

func formatThousand(n int64) string {
	if n == 0 {
		return "0"
	}
	str := strconv.FormatInt(n, 10)
	var out strings.Builder
	for i, c := range str {
		if i != 0 && (len(str)-i)%3 == 0 {
			out.WriteByte(' ')
		}
		out.WriteRune(c)
	}
	return out.String()
}
