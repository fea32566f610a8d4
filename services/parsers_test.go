package services

import (
	"math"
	"strconv"
	"testing"

	"realestate-summary/models"
)

func almostEqual(a, b float64) bool {
	if a == b {
		return true
	}
	return math.Abs(a-b) <= 1e-9*math.Max(math.Abs(a), math.Abs(b))
}

func TestParsePrice(t *testing.T) {
	tests := []struct {
		raw    string
		want   float64
		wantOK bool
	}{
		{"₹1.5 Cr", 15000000, true},
		{"₹85 L", 8500000, true},
		{"₹1.2 - 1.5 Cr", 1.2, true},
		{"1.2 Cr - 1.5 Cr", 12000000, true},
		{"4,500,000", 4500000, true},
		{"  72.5 Lac ", 7250000, true},
		{"Price on Request", 0, false},
		{"₹ Price on Request", 0, false},
		{"", 0, false},
		{"Cr", 0, false},
		{"1.2.3 L", 0, false},
		{"-", 0, false},
	}

	for _, tt := range tests {
		got, ok := ParsePrice(tt.raw)
		if ok != tt.wantOK || (ok && !almostEqual(got, tt.want)) {
			t.Errorf("ParsePrice(%q) = %v, %v; want %v, %v", tt.raw, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestParsePriceRoundTrip(t *testing.T) {
	units := []struct {
		suffix     string
		multiplier float64
	}{
		{"", 1},
		{" L", 1e5},
		{" Cr", 1e7},
	}
	values := []float64{0, 1, 1.5, 42.75, 999.999, 12345.6789, 0.05}

	for _, u := range units {
		for _, v := range values {
			text := strconv.FormatFloat(v, 'f', -1, 64) + u.suffix
			got, ok := ParsePrice(text)
			if !ok {
				t.Errorf("ParsePrice(%q) failed", text)
				continue
			}
			if !almostEqual(got/u.multiplier, v) {
				t.Errorf("ParsePrice(%q) = %v; want %v", text, got, v*u.multiplier)
			}
		}
	}
}

func TestParseArea(t *testing.T) {
	tests := []struct {
		raw    string
		want   float64
		wantOK bool
	}{
		{"1000-1200 sqft", 1100, true},
		{"950 sq.ft.", 950, true},
		{"1,250", 1250, true},
		{" 800 ", 800, true},
		{"1000 - 1100", 1050, true},
		{"1200.5", 1200.5, true},
		{"invalid", 0, false},
		{"", 0, false},
		{"1,000-1,200", 0, false},
		{"-500", 0, false},
		{"NaN", 0, false},
		{"950 SQFT", 0, false},
	}

	for _, tt := range tests {
		got, ok := ParseArea(tt.raw)
		if ok != tt.wantOK || (ok && !almostEqual(got, tt.want)) {
			t.Errorf("ParseArea(%q) = %v, %v; want %v, %v", tt.raw, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestCellParsers(t *testing.T) {
	if _, ok := PriceOf(models.Null()); ok {
		t.Error("PriceOf(null) should be undefined")
	}
	if _, ok := AreaOf(models.Null()); ok {
		t.Error("AreaOf(null) should be undefined")
	}
	if got, ok := PriceOf(models.Int(2500000)); !ok || got != 2500000 {
		t.Errorf("PriceOf(int) = %v, %v; want 2500000, true", got, ok)
	}
	if got, ok := AreaOf(models.Float(1100.5)); !ok || got != 1100.5 {
		t.Errorf("AreaOf(float) = %v, %v; want 1100.5, true", got, ok)
	}
	if got, ok := AreaOf(models.Text("1000-1100")); !ok || got != 1050 {
		t.Errorf("AreaOf(text range) = %v, %v; want 1050, true", got, ok)
	}
}
