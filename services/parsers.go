package services

import (
	"math"
	"strconv"
	"strings"

	"realestate-summary/models"
)

const (
	priceOnRequest = "Price on Request"
	crore          = 1e7
	lakh           = 1e5
)

var areaUnitStripper = strings.NewReplacer("sq.ft.", "", "sqft", "")

// ParsePrice converts a listing price such as "₹1.5 Cr", "85 L" or
// "4,500,000" into base currency units. For a range ("1.2 - 1.5 Cr") only the
// part before the dash is used, so a unit written after the range is lost.
// It returns false for "Price on Request", empty input, or any text that does
// not leave a single number once non-numeric characters are removed.
func ParsePrice(raw string) (float64, bool) {
	if raw == "" || strings.Contains(raw, priceOnRequest) {
		return 0, false
	}

	raw, _, _ = strings.Cut(raw, "-")
	raw = strings.TrimSpace(raw)

	multiplier := 1.0
	switch {
	case strings.Contains(raw, "Cr"):
		multiplier = crore
	case strings.Contains(raw, "L"):
		multiplier = lakh
	}

	n, ok := parseNumber(digitsOnly(raw))
	if !ok {
		return 0, false
	}
	return n * multiplier, true
}

// ParseArea converts an area such as "1,200 sqft", "950 sq.ft." or
// "1000-1200" into a number; a range yields the mean of its endpoints.
func ParseArea(raw string) (float64, bool) {
	raw = strings.TrimSpace(areaUnitStripper.Replace(raw))

	if strings.Contains(raw, "-") {
		parts := strings.Split(raw, "-")
		lo, ok := parseNumber(strings.TrimSpace(parts[0]))
		if !ok {
			return 0, false
		}
		hi, ok := parseNumber(strings.TrimSpace(parts[1]))
		if !ok {
			return 0, false
		}
		return (lo + hi) / 2, true
	}

	return parseNumber(strings.TrimSpace(strings.ReplaceAll(raw, ",", "")))
}

// PriceOf applies ParsePrice to a table cell. Numeric cells carry no unit and
// are read as base units.
func PriceOf(v models.Value) (float64, bool) {
	if v.IsNull() {
		return 0, false
	}
	return ParsePrice(v.String())
}

// AreaOf applies ParseArea to a table cell.
func AreaOf(v models.Value) (float64, bool) {
	if v.IsNull() {
		return 0, false
	}
	return ParseArea(v.String())
}

func digitsOnly(s string) string {
	return strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '.' {
			return r
		}
		return -1
	}, s)
}

// parseNumber accepts finite decimal numbers only.
func parseNumber(s string) (float64, bool) {
	if s == "" {
		return 0, false
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	return n, true
}
