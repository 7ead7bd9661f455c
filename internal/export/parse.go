package export

import (
	"math"
	"strconv"
	"strings"

	"github.com/sells-group/trip-export/internal/sheet"
)

// ParseTruthy reports whether s is an affirmative value: true, 1, yes, y or
// да, compared trimmed and case-insensitively. Anything else is false.
func ParseTruthy(s string) bool {
	switch sheet.FoldString(s) {
	case "true", "1", "yes", "y", "да":
		return true
	}
	return false
}

var amountReplacer = strings.NewReplacer(
	" ", "",
	"\u00a0", "",
	"\u202f", "",
	"%", "",
	"\u20bd", "",
	"$", "",
	"\u20ac", "",
)

// parseAmount reads a human-entered number such as "1 500,50", "1.500,50",
// "1,500.50" or "30%". ok is false when s is blank, unparseable or not
// finite.
func parseAmount(s string) (float64, bool) {
	s = normalizeSeparators(amountReplacer.Replace(strings.TrimSpace(s)))
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// normalizeSeparators rewrites s so the decimal separator is "." and group
// separators are gone. With both "," and "." present the later one is the
// decimal separator. A lone separator kind is grouping when it repeats or
// when exactly three digits follow it after a non-zero integer part;
// otherwise it is the decimal separator.
func normalizeSeparators(s string) string {
	comma, dot := strings.LastIndex(s, ","), strings.LastIndex(s, ".")
	switch {
	case comma >= 0 && dot >= 0:
		if comma > dot {
			return strings.ReplaceAll(strings.ReplaceAll(s, ".", ""), ",", ".")
		}
		return strings.ReplaceAll(s, ",", "")
	case comma >= 0:
		return resolveSeparator(s, ",")
	case dot >= 0:
		return resolveSeparator(s, ".")
	}
	return s
}

func resolveSeparator(s, sep string) string {
	if strings.Count(s, sep) > 1 {
		return strings.ReplaceAll(s, sep, "")
	}
	i := strings.Index(s, sep)
	intPart := strings.TrimLeft(s[:i], "+-")
	if len(s)-i-1 == 3 && intPart != "" && strings.Trim(intPart, "0") != "" {
		return strings.Replace(s, sep, "", 1)
	}
	return strings.Replace(s, sep, ".", 1)
}
