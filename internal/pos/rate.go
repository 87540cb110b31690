package pos

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

// GctExemptSentinel is the catalog wire value marking a product as outside
// the consumption tax.
const GctExemptSentinel = "exempt"

// RateToBps converts a fractional tax rate (0.15) into basis points (1500).
// Negative rates are rejected here so the calculators downstream can stay
// permissive.
func RateToBps(rate float64) (int, error) {
	if rate < 0 {
		return 0, fmt.Errorf("negative tax rate %v", rate)
	}
	return int(math.Round(rate * 10000)), nil
}

// BpsToRate converts basis points back to the fractional form used on wire
// payloads and receipts.
func BpsToRate(bps int) float64 {
	return float64(bps) / 10000
}

// ParseGctRate interprets the catalog gctRate field, which carries either a
// fractional rate or the "exempt" sentinel. It returns the exemption flag and
// the rate in basis points (zero when exempt).
func ParseGctRate(raw json.RawMessage) (exempt bool, bps int, err error) {
	if len(raw) == 0 || string(raw) == "null" {
		return false, 0, nil
	}
	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		if strings.EqualFold(strings.TrimSpace(asString), GctExemptSentinel) {
			return true, 0, nil
		}
		return false, 0, fmt.Errorf("unexpected gctRate value %q", asString)
	}
	var asNumber float64
	if err := json.Unmarshal(raw, &asNumber); err != nil {
		return false, 0, fmt.Errorf("parse gctRate: %w", err)
	}
	bps, err = RateToBps(asNumber)
	if err != nil {
		return false, 0, err
	}
	return false, bps, nil
}
