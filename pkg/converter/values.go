// pkg/converter/values.go
package converter

import (
	"math"
	"strconv"
	"strings"

	"github.com/spf13/cast"
)

// defaultNullTokens are the cell values read as missing, matching what
// common dataframe readers treat as NA
var defaultNullTokens = []string{
	"", "#N/A", "#N/A N/A", "#NA", "-1.#IND", "-1.#QNAN", "-NaN", "-nan",
	"1.#IND", "1.#QNAN", "<NA>", "N/A", "NA", "NULL", "NaN", "None",
	"n/a", "nan", "null",
}

// IsNull determines if a cell should be treated as missing
func (c *Converter) IsNull(value string) bool {
	trimmed := strings.TrimSpace(value)
	for _, token := range c.config.NullTokens {
		if trimmed == token {
			return true
		}
	}
	return trimmed == ""
}

// NormalizeString trims surrounding whitespace. The second result is false
// when the value is missing.
func (c *Converter) NormalizeString(value string) (string, bool) {
	if c.IsNull(value) {
		return "", false
	}
	return strings.TrimSpace(value), true
}

// ParseDecimal coerces a cell to a finite float. Garbage is missing, not an error.
func (c *Converter) ParseDecimal(value string) (float64, bool) {
	trimmed, ok := c.NormalizeString(value)
	if !ok {
		return 0, false
	}

	f, err := cast.ToFloat64E(trimmed)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// ParseInteger coerces a cell to an integer. Whole-valued decimals such as
// "2.0" are accepted; fractional values are missing.
func (c *Converter) ParseInteger(value string) (int64, bool) {
	trimmed, ok := c.NormalizeString(value)
	if !ok {
		return 0, false
	}
	// Plain integer text is parsed exactly; float64 loses precision above 2^53.
	if i, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
		return i, true
	}

	f, ok := c.ParseDecimal(trimmed)
	if !ok {
		return 0, false
	}
	if f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, false
	}
	return int64(f), true
}

// FormatInt renders an integer cell
func FormatInt(i int64) string {
	return strconv.FormatInt(i, 10)
}
