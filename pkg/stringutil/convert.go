package stringutil

import (
	"strconv"
)

// StringToFloat64Default converts a string to a float64, returning a default value on
// conversion error.
func StringToFloat64Default(numericString string, defaultValue float64) float64 {
	value, errParseFloat := strconv.ParseFloat(numericString, 64)
	if errParseFloat != nil {
		return defaultValue
	}

	return value
}

// StringToIntOrZero converts a string to an integer within 32bit bounds.
// Returns 0 on an invalid or out of bounds value.
func StringToIntOrZero(desired string) int {
	parsed, err := strconv.ParseInt(desired, 10, 32)
	if err != nil {
		return 0
	}

	return int(parsed)
}
