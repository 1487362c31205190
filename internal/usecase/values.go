package usecase

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

var errBlank = errors.New("blank value")

// parseDecimal accepts "1234.5", "1234,5", "1.234,50", "1,234.50" and a
// leading currency sign. Blank input returns errBlank.
func parseDecimal(raw string) (decimal.Decimal, error) {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "€")
	s = strings.Map(func(r rune) rune {
		if r == ' ' || r == '\u00a0' {
			return -1
		}
		return r
	}, s)
	if s == "" {
		return decimal.Zero, errBlank
	}

	comma := strings.LastIndex(s, ",")
	dot := strings.LastIndex(s, ".")
	switch {
	case comma >= 0 && dot >= 0 && comma > dot:
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	case comma >= 0 && dot >= 0:
		s = strings.ReplaceAll(s, ",", "")
	case comma >= 0 && strings.Count(s, ",") == 1:
		s = strings.Replace(s, ",", ".", 1)
	}
	return decimal.NewFromString(s)
}

// parseWeek returns the week number when raw is a positive whole number.
func parseWeek(raw string) (int, bool) {
	d, err := parseDecimal(raw)
	if err != nil || !d.IsInteger() || !d.IsPositive() {
		return 0, false
	}
	return int(d.IntPart()), true
}
