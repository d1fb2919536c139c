package extract

import (
	"regexp"
	"strings"
)

// knownSpecKeys are the attribute names mined from description text.
// Product descriptions on the target site embed their specification sheet
// as "Key : Value" runs in plain text, so extraction is keyed on the
// attribute vocabulary the site actually uses.
var knownSpecKeys = []string{
	"Material", "Brand", "Colour", "Color", "Product Dimensions",
	"Dimensions", "Exterior Finish", "Finish", "Handle Type",
	"Shape", "Special Feature", "Included Components", "Lock Type",
	"Type", "Size", "Weight", "Warranty", "Model", "Power",
	"Voltage", "Wattage", "Capacity", "Country of Origin",
}

// maxSpecValueLen rejects runaway matches where the pattern swallowed a
// paragraph instead of an attribute value.
const maxSpecValueLen = 100

// specPatterns precompiles one pattern per known key. Each matches
// "Key : value" and stops at the next known key or end of text.
var specPatterns = buildSpecPatterns()

func buildSpecPatterns() map[string]*regexp.Regexp {
	quoted := make([]string, len(knownSpecKeys))
	for i, k := range knownSpecKeys {
		quoted[i] = regexp.QuoteMeta(k)
	}
	stop := strings.Join(quoted, "|")

	patterns := make(map[string]*regexp.Regexp, len(knownSpecKeys))
	for _, key := range knownSpecKeys {
		expr := `(?i)` + regexp.QuoteMeta(key) + `\s*:\s*(.+?)(?:(?:` + stop + `)\s*:|$)`
		patterns[key] = regexp.MustCompile(expr)
	}
	return patterns
}

// MineSpecifications extracts Key: Value attribute pairs from description
// text. It returns nil when nothing matched.
func MineSpecifications(description string) map[string]string {
	if description == "" {
		return nil
	}

	specs := make(map[string]string)
	for _, key := range knownSpecKeys {
		m := specPatterns[key].FindStringSubmatch(description)
		if m == nil {
			continue
		}
		value := strings.TrimSpace(m[1])
		if value == "" || len(value) >= maxSpecValueLen {
			continue
		}
		specs[key] = value
	}

	if len(specs) == 0 {
		return nil
	}
	return specs
}
