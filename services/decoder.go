package services

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"realestate-summary/models"
)

const (
	DecoderKeyField   = "id"
	DecoderValueField = "label"
)

// DecoderSpec binds a coded listing column to the lookup table that labels it.
type DecoderSpec struct {
	Column     string
	Table      string
	KeyField   string
	ValueField string
}

// DecoderSpecs lists the coded columns in the order they are decoded.
var DecoderSpecs = []DecoderSpec{
	{models.ColFacing, "facing_direction", DecoderKeyField, DecoderValueField},
	{models.ColAge, "age", DecoderKeyField, DecoderValueField},
	{models.ColPropertyType, "property_type", DecoderKeyField, DecoderValueField},
	{models.ColBathroomNum, "bathroom_num", DecoderKeyField, DecoderValueField},
	{models.ColBedroomNum, "bedroom_num", DecoderKeyField, DecoderValueField},
	{models.ColFloorNum, "floor_num", DecoderKeyField, DecoderValueField},
	{models.ColTotalFloor, "total_floor", DecoderKeyField, DecoderValueField},
	{models.ColOwnType, "ownership_type", DecoderKeyField, DecoderValueField},
}

// DecodeStatus is the outcome of one Decode call.
type DecodeStatus string

const (
	DecodeApplied DecodeStatus = "applied"
	DecodeSkipped DecodeStatus = "skipped"
	DecodeFailed  DecodeStatus = "failed"
)

// DecodeOutcome reports what Decode did to a column.
type DecodeOutcome struct {
	Column    string
	Status    DecodeStatus
	Matched   int
	Unmatched int
	Err       *PipelineError
}

// Decode replaces every value of targetColumn with its label from decoder.
//
// Values with no matching key become null, except values that already are one
// of the decoder's labels, which are kept; decoding a decoded column changes
// nothing. BEDROOM_NUM values are zero-padded to three digits before lookup so
// that 1 matches the key "001". When targetColumn is absent the input table is
// returned as is with a DecodeSkipped outcome. The input table is never
// modified.
func Decode(records, decoder *models.Table, keyField, valueField, targetColumn string) (*models.Table, DecodeOutcome) {
	outcome := DecodeOutcome{Column: targetColumn}

	target := records.Column(targetColumn)
	if target == nil {
		outcome.Status = DecodeSkipped
		outcome.Err = missingColumn(targetColumn,
			fmt.Sprintf("column %s not found in city dataset", targetColumn))
		return records, outcome
	}

	lookup, labels, err := buildLookup(decoder, keyField, valueField)
	if err != nil {
		outcome.Status = DecodeFailed
		outcome.Err = decodeLookupFailure(targetColumn, "", err)
		return records, outcome
	}

	pad := targetColumn == models.ColBedroomNum
	decoded := make([]models.Value, len(target.Values))
	for i, v := range target.Values {
		if v.IsNull() {
			continue
		}
		if pad {
			v = padCode(v)
		}
		key, _ := v.Key()
		if label, ok := lookup[key]; ok {
			decoded[i] = label
			outcome.Matched++
			continue
		}
		if s, ok := v.Text(); ok {
			if _, isLabel := labels[s]; isLabel {
				decoded[i] = v
				continue
			}
		}
		outcome.Unmatched++
	}

	out := records.Clone()
	if err := out.SetColumn(targetColumn, decoded); err != nil {
		outcome.Status = DecodeFailed
		outcome.Err = decodeLookupFailure(targetColumn, "", err)
		return records, outcome
	}
	outcome.Status = DecodeApplied
	return out, outcome
}

// buildLookup maps decoder keys to labels; for repeated keys the last row wins.
func buildLookup(decoder *models.Table, keyField, valueField string) (map[string]models.Value, map[string]struct{}, error) {
	if decoder == nil {
		return nil, nil, fmt.Errorf("decoder table is nil")
	}
	keys := decoder.Column(keyField)
	if keys == nil {
		return nil, nil, fmt.Errorf("decoder table has no %q column", keyField)
	}
	values := decoder.Column(valueField)
	if values == nil {
		return nil, nil, fmt.Errorf("decoder table has no %q column", valueField)
	}

	lookup := make(map[string]models.Value, decoder.Len())
	labels := make(map[string]struct{}, decoder.Len())
	for i, k := range keys.Values {
		key, ok := k.Key()
		if !ok {
			continue
		}
		label := values.Values[i]
		lookup[key] = label
		if s, ok := label.Text(); ok {
			labels[s] = struct{}{}
		}
	}
	return lookup, labels, nil
}

// padCode turns a bedroom count into its three-digit key (2 → "002").
// Values that are not whole numbers are returned unchanged.
func padCode(v models.Value) models.Value {
	var n float64
	if f, ok := v.Number(); ok {
		n = f
	} else {
		s, _ := v.Text()
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return v
		}
		n = f
	}
	if math.IsInf(n, 0) || math.IsNaN(n) {
		return v
	}
	return models.Text(fmt.Sprintf("%03d", int64(n)))
}
