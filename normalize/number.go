package normalize

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ParseNumber parses a number as written in broker exports.
//
// It accepts both decimal separators ("1,234.56" and "1.234,56"), spaces and apostrophes as
// thousands separators, currency symbols, and accounting negatives like "(12.50)".
func ParseNumber(s string) (decimal.Decimal, error) {
	raw := s
	s = strings.TrimSpace(s)
	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}
	s = strings.Map(func(r rune) rune {
		switch {
		case r >= '0' && r <= '9', r == '.', r == ',', r == '-', r == '+', r == 'e', r == 'E':
			return r
		default:
			// currency symbols, spaces, non breaking spaces, apostrophes.
			return -1
		}
	}, s)
	if strings.HasSuffix(s, "-") && !strings.HasPrefix(s, "-") {
		negative = true
		s = strings.TrimSuffix(s, "-")
	}
	if s == "" || s == "-" {
		return decimal.Zero, fmt.Errorf("invalid number %q", raw)
	}

	dot, comma := strings.Count(s, "."), strings.Count(s, ",")
	switch {
	case dot > 0 && comma > 0:
		// the last separator is the decimal one.
		if strings.LastIndex(s, ",") > strings.LastIndex(s, ".") {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case comma > 1:
		s = strings.ReplaceAll(s, ",", "")
	case comma == 1:
		intPart, frac, _ := strings.Cut(s, ",")
		// "1,234" is a thousand, "0,234" and "1,5" are decimals.
		if len(frac) == 3 && strings.TrimLeft(intPart, "+-0") != "" {
			s = intPart + frac
		} else {
			s = intPart + "." + frac
		}
	case dot > 1:
		s = strings.ReplaceAll(s, ".", "")
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid number %q: %w", raw, err)
	}
	if negative {
		d = d.Neg()
	}
	return d, nil
}

// number parses s, empty values are zero.
func number(s string) (decimal.Decimal, error) {
	if strings.TrimSpace(s) == "" {
		return decimal.Zero, nil
	}
	return ParseNumber(s)
}
