package report

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Sanitize maps text onto the Latin-1 range the core PDF fonts can encode.
// Runes outside that range become '?', so real-world product names and emails
// never abort rendering. Idempotent: sanitizing sanitized text is a no-op.
func Sanitize(s string) string {
	clean := true
	for _, r := range s {
		if r > 0xFF {
			clean = false
			break
		}
	}
	if clean {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r > 0xFF {
			b.WriteRune('?')
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// FormatCurrency renders an amount in pt-BR notation: "R$ 1.234,56" for BRL,
// "<code> 1.234,56" otherwise.
func FormatCurrency(currency string, v decimal.Decimal) string {
	s := v.StringFixed(2)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	intPart, frac, _ := strings.Cut(s, ".")
	var groups []string
	for len(intPart) > 3 {
		groups = append([]string{intPart[len(intPart)-3:]}, groups...)
		intPart = intPart[:len(intPart)-3]
	}
	groups = append([]string{intPart}, groups...)
	out := strings.Join(groups, ".") + "," + frac
	if neg {
		out = "-" + out
	}
	if currency == "" || currency == defaultCurrency {
		return "R$ " + out
	}
	return currency + " " + out
}

const defaultCurrency = "BRL"

// FormatTimestamp converts an upstream ISO-8601 timestamp (Z or explicit
// offset; a bare timestamp is read as UTC) to "2006-01-02 15:04" in the
// display timezone. Unparsable input is shown raw rather than failing the
// report.
func FormatTimestamp(raw string, loc *time.Location) string {
	if raw == "" {
		return "N/A"
	}
	if loc == nil {
		loc = time.UTC
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.In(loc).Format("2006-01-02 15:04")
		}
	}
	return raw
}
