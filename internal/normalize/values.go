package normalize

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// maxIdentifierExponent bounds expansion; no EAN, UPC or GTIN needs more digits.
const maxIdentifierExponent = 30

var (
	scientificPattern = regexp.MustCompile(`^\d+(?:\.\d+)?[eE]\+?(\d+)$`)
	nullLiterals      = map[string]bool{"nan": true, "none": true, "null": true, "undefined": true}
)

// FixScientificNotation restores identifiers that spreadsheet software
// rendered in exponent form ("8.40E+11") to their integer digits
// ("840000000000"). Anything else is returned trimmed and unchanged, including
// negative exponents and exponents above maxIdentifierExponent; null literals
// such as "nan" become "".
func FixScientificNotation(value string) string {
	v := strings.TrimSpace(value)
	if nullLiterals[strings.ToLower(v)] {
		return ""
	}
	m := scientificPattern.FindStringSubmatch(v)
	if m == nil {
		return v
	}
	if exp, err := strconv.Atoi(m[1]); err != nil || exp > maxIdentifierExponent {
		return v
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return v
	}
	return d.Truncate(0).String()
}

// NormalizeEAN applies FixScientificNotation and removes embedded spaces.
func NormalizeEAN(value string) string {
	return strings.ReplaceAll(FixScientificNotation(value), " ", "")
}

// ParseCost parses a supplier cost cell. A leading "$" is accepted silently.
// Any other character besides digits, "." and "-" is stripped and reported
// through ambiguous, which callers treat as a currency problem for the whole
// batch. Unparseable or empty input yields zero.
func ParseCost(raw string) (cost decimal.Decimal, ambiguous bool) {
	s := strings.TrimSpace(raw)
	s = strings.TrimSpace(strings.TrimPrefix(s, "$"))
	if s == "" {
		return decimal.Zero, false
	}

	var b strings.Builder
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '.' || r == '-' {
			b.WriteRune(r)
			continue
		}
		ambiguous = true
	}

	d, err := decimal.NewFromString(b.String())
	if err != nil {
		return decimal.Zero, ambiguous
	}
	return d, ambiguous
}

// ParsePrice parses a catalog price, tolerating common currency symbols and
// thousands separators. Catalog prices are not gated on currency.
func ParsePrice(raw string) (decimal.Decimal, bool) {
	s := strings.TrimSpace(raw)
	s = strings.NewReplacer("$", "", "£", "", "€", "", ",", "", " ", "").Replace(s)
	if s == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// ParseInt reads whole numbers written as "12", "12.0" or "1,200".
func ParseInt(raw string) (int, bool) {
	s := strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	if s == "" {
		return 0, false
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return int(f), true
}
