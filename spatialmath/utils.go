package spatialmath

import (
	"math"
	"strconv"
	"strings"
)

// Float64AlmostEqual compares two float64s and returns if the difference between them is less than epsilon.
func Float64AlmostEqual(a, b, epsilon float64) bool {
	return math.Abs(a-b) <= epsilon
}

// SpaceDelimitedStringToSlice is a helper method to split up space-delimited fields in URDFs, such as xyz or rpy
// attributes. Unparseable fields become NaN so that callers can reject them with a useful message.
func SpaceDelimitedStringToSlice(s string) []float64 {
	var converted []float64
	for _, field := range strings.Fields(s) {
		value, err := strconv.ParseFloat(field, 64)
		if err != nil {
			value = math.NaN()
		}
		converted = append(converted, value)
	}
	return converted
}
