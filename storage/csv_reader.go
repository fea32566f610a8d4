package storage

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"realestate-summary/models"
)

var (
	intLiteral   = regexp.MustCompile(`^[+-]?\d+$`)
	floatLiteral = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?$`)
)

// nullMarkers are cell contents read as missing values.
var nullMarkers = map[string]struct{}{
	"": {}, "#N/A": {}, "#NA": {}, "<NA>": {}, "N/A": {}, "n/a": {}, "NA": {},
	"NULL": {}, "null": {}, "NaN": {}, "nan": {}, "-NaN": {}, "-nan": {}, "None": {},
}

// ParseWarning is a non-fatal issue found while reading a CSV file.
type ParseWarning struct {
	Row     int
	Message string
}

// ReadTableCSV reads a delimited file into a Table. See DecodeTableCSV.
func ReadTableCSV(path string) (*models.Table, []ParseWarning, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("csv: read %q: %w", path, err)
	}
	table, warnings, err := DecodeTableCSV(data)
	if err != nil {
		return nil, warnings, fmt.Errorf("csv: %q: %w", path, err)
	}
	return table, warnings, nil
}

// DecodeTableCSV parses CSV bytes into a typed Table.
//
// A byte-order mark selects UTF-8 or UTF-16; input that is not valid UTF-8 is
// read as Latin-1. Rows with too few cells are padded, rows with too many are
// truncated. Each column is typed as a whole: int when every non-null cell is
// an integer without leading zeros, float when every non-null cell is a number,
// text otherwise. Zero-padded codes such as "001" therefore stay text.
func DecodeTableCSV(data []byte) (*models.Table, []ParseWarning, error) {
	decoded, err := toUTF8(data)
	if err != nil {
		return nil, nil, err
	}

	reader := csv.NewReader(bytes.NewReader(decoded))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	headers, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil, fmt.Errorf("empty file: no header row found")
		}
		return nil, nil, fmt.Errorf("read header row: %w", err)
	}
	seen := make(map[string]int, len(headers))
	for i, h := range headers {
		h = strings.TrimSpace(h)
		if h == "" {
			h = fmt.Sprintf("Unnamed: %d", i)
		}
		if k := seen[h]; k > 0 {
			seen[h]++
			h = fmt.Sprintf("%s.%d", h, k)
		} else {
			seen[h] = 1
		}
		headers[i] = h
	}

	n := len(headers)
	raw := make([][]string, n)
	var warnings []ParseWarning
	rowNum := 1

	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		rowNum++
		if err != nil {
			warnings = append(warnings, ParseWarning{Row: rowNum, Message: fmt.Sprintf("parse error: %v", err)})
			continue
		}
		if len(row) != n {
			warnings = append(warnings, ParseWarning{
				Row:     rowNum,
				Message: fmt.Sprintf("row has %d columns, expected %d", len(row), n),
			})
			if len(row) < n {
				padded := make([]string, n)
				copy(padded, row)
				row = padded
			} else {
				row = row[:n]
			}
		}
		for i, cell := range row {
			raw[i] = append(raw[i], cell)
		}
	}

	table := models.NewTable()
	for i, h := range headers {
		if err := table.SetColumn(h, typeColumn(raw[i])); err != nil {
			return nil, warnings, err
		}
	}
	return table, warnings, nil
}

func toUTF8(data []byte) ([]byte, error) {
	decoded, _, err := transform.Bytes(unicode.BOMOverride(transform.Nop), data)
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if utf8.Valid(decoded) {
		return decoded, nil
	}
	latin, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
	if err != nil {
		return nil, fmt.Errorf("decode latin-1: %w", err)
	}
	return latin, nil
}

func isNull(cell string) bool {
	_, ok := nullMarkers[strings.TrimSpace(cell)]
	return ok
}

func hasLeadingZero(s string) bool {
	s = strings.TrimLeft(s, "+-")
	return len(s) > 1 && s[0] == '0'
}

func typeColumn(cells []string) []models.Value {
	kind := models.KindInt
	for _, c := range cells {
		if isNull(c) {
			continue
		}
		c = strings.TrimSpace(c)
		if intLiteral.MatchString(c) {
			if hasLeadingZero(c) {
				kind = models.KindText
				break
			}
			continue
		}
		if floatLiteral.MatchString(c) {
			kind = models.KindFloat
			continue
		}
		kind = models.KindText
		break
	}

	out := make([]models.Value, len(cells))
	for i, c := range cells {
		if isNull(c) {
			continue
		}
		switch kind {
		case models.KindInt:
			n, err := strconv.ParseInt(strings.TrimSpace(c), 10, 64)
			if err != nil {
				// out of int64 range
				f, _ := strconv.ParseFloat(strings.TrimSpace(c), 64)
				out[i] = models.Float(f)
				continue
			}
			out[i] = models.Int(n)
		case models.KindFloat:
			f, _ := strconv.ParseFloat(strings.TrimSpace(c), 64)
			out[i] = models.Float(f)
		default:
			out[i] = models.Text(c)
		}
	}
	return out
}
