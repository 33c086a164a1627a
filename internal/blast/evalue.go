// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package blast

import (
	"strconv"
	"strings"
)

// SplitEvalue splits an E-value on "e" into mantissa and exponent. A value
// without an exponent gets "0"; an empty mantissa, which BLAST prints for
// very strong hits, becomes "1".
func SplitEvalue(evalue string) (mant, exp string) {
	parts := splitTrimTrailing(evalue, "e")
	exp = "0"
	if len(parts) == 2 {
		exp = parts[1]
	}
	if len(parts) > 0 {
		mant = parts[0]
	}
	if mant == "" {
		mant = "1"
	}
	return mant, exp
}

// splitTrimTrailing splits s on sep and drops trailing empty pieces.
func splitTrimTrailing(s, sep string) []string {
	parts := strings.Split(s, sep)
	for len(parts) > 0 && parts[len(parts)-1] == "" {
		parts = parts[:len(parts)-1]
	}
	return parts
}

func parseScore(s string) (float32, error) {
	v, err := strconv.ParseFloat(s, 32)
	if err != nil {
		return 0, err
	}
	return float32(v), nil
}
