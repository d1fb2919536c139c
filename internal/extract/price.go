package extract

import (
	"regexp"
	"strconv"
	"strings"
)

// priceDigits matches the first numeric run in a price string, after
// thousands separators are stripped: "₹1,299.00" -> "1299.00".
var priceDigits = regexp.MustCompile(`\d+\.?\d*`)

// ParsePrice extracts a numeric price from display text.
// It returns nil when the text carries no parseable number, which callers
// record as an absent price rather than zero.
func ParsePrice(text string) *float64 {
	cleaned := strings.ReplaceAll(strings.TrimSpace(text), ",", "")
	if cleaned == "" {
		return nil
	}

	match := priceDigits.FindString(cleaned)
	if match == "" {
		return nil
	}

	v, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return nil
	}
	return &v
}
