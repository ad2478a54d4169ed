package ingest

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"aura-backend/internal/state"
)

// Decode parses an uploaded document into a raw DataFrame. The extension of
// name selects the format; unknown extensions are tried as CSV.
func Decode(name string, raw []byte) (*state.DataFrame, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, fail(name, ErrEmptyFile)
	}

	lower := strings.ToLower(name)
	var (
		df  *state.DataFrame
		err error
	)
	switch {
	case strings.HasSuffix(lower, ".json"):
		df, err = decodeJSON(raw)
	case strings.HasSuffix(lower, ".csv"), strings.HasSuffix(lower, ".tsv"):
		df, err = decodeCSV(raw)
	default:
		df, err = decodeCSV(raw)
		if err != nil {
			return nil, fail(name, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err))
		}
	}
	if err != nil {
		return nil, fail(name, err)
	}
	df.Source = name
	return df, nil
}

// LoadSample reads and decodes the bundled sample dataset
func LoadSample(path string) (*state.DataFrame, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrSampleNotFound, path)
		}
		return nil, fail(path, err)
	}
	df, err := Decode(filepath.Base(path), raw)
	if err != nil {
		return nil, err
	}
	df.Source = path
	return df, nil
}

func decodeCSV(raw []byte) (*state.DataFrame, error) {
	reader := csv.NewReader(bytes.NewReader(raw))
	reader.Comma = sniffDelimiter(raw)
	reader.FieldsPerRecord = -1 // Allow variable fields
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	headers, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrNoColumns
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	headers[0] = strings.TrimPrefix(headers[0], "\ufeff")
	if len(headers) == 1 && strings.TrimSpace(headers[0]) == "" {
		return nil, ErrNoColumns
	}

	rows := []state.Row{}
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", len(rows)+1, err)
		}
		row := make(state.Row, len(headers))
		for i, h := range headers {
			if i >= len(record) || record[i] == "" {
				row[h] = nil
				continue
			}
			row[h] = record[i]
		}
		rows = append(rows, row)
	}

	return &state.DataFrame{Headers: headers, Rows: rows}, nil
}

// sniffDelimiter picks the most frequent of ',', ';' and tab in the header line.
func sniffDelimiter(raw []byte) rune {
	line := raw
	if i := bytes.IndexByte(raw, '\n'); i >= 0 {
		line = raw[:i]
	}
	best, bestCount := ',', bytes.Count(line, []byte{','})
	for _, d := range []rune{';', '\t'} {
		if n := bytes.Count(line, []byte(string(d))); n > bestCount {
			best, bestCount = d, n
		}
	}
	return best
}

func decodeJSON(raw []byte) (*state.DataFrame, error) {
	trimmed := bytes.TrimSpace(raw)
	switch trimmed[0] {
	case '[':
		return decodeRecords(trimmed)
	case '{':
		return decodeColumns(trimmed)
	default:
		return nil, fmt.Errorf("%w: expected a JSON array of records or an object of columns", ErrUnsupportedFormat)
	}
}

// decodeRecords handles [{"col": v, ...}, ...]; columns keep first-seen order.
func decodeRecords(raw []byte) (*state.DataFrame, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("parse json: %w", err)
	}

	var headers []string
	seen := make(map[string]bool)
	rows := make([]state.Row, 0, len(items))
	for i, item := range items {
		keys, values, err := orderedObject(item)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		row := make(state.Row, len(keys))
		for j, k := range keys {
			if !seen[k] {
				seen[k] = true
				headers = append(headers, k)
			}
			row[k] = values[j]
		}
		rows = append(rows, row)
	}
	if len(headers) == 0 {
		return nil, ErrNoColumns
	}
	for _, row := range rows {
		for _, h := range headers {
			if _, ok := row[h]; !ok {
				row[h] = nil
			}
		}
	}
	return &state.DataFrame{Headers: headers, Rows: rows}, nil
}

// decodeColumns handles {"col": {"0": v, ...}} and {"col": [v, ...]}.
func decodeColumns(raw []byte) (*state.DataFrame, error) {
	headers, columns, err := orderedObject(raw)
	if err != nil {
		return nil, fmt.Errorf("parse json: %w", err)
	}
	if len(headers) == 0 {
		return nil, ErrNoColumns
	}

	indexOf := make(map[string]int)
	var index []string
	cells := make(map[string]map[string]any, len(headers))
	for i, h := range headers {
		cells[h] = make(map[string]any)
		switch col := columns[i].(type) {
		case []any:
			for j, v := range col {
				key := strconv.Itoa(j)
				if _, ok := indexOf[key]; !ok {
					indexOf[key] = len(index)
					index = append(index, key)
				}
				cells[h][key] = v
			}
		case map[string]any:
			for key, v := range col {
				if _, ok := indexOf[key]; !ok {
					indexOf[key] = len(index)
					index = append(index, key)
				}
				cells[h][key] = v
			}
		default:
			return nil, fmt.Errorf("%w: column %q is neither an array nor an object", ErrUnsupportedFormat, h)
		}
	}
	sortIndex(index)

	rows := make([]state.Row, len(index))
	for r, key := range index {
		row := make(state.Row, len(headers))
		for _, h := range headers {
			row[h] = cells[h][key]
		}
		rows[r] = row
	}
	return &state.DataFrame{Headers: headers, Rows: rows}, nil
}

// sortIndex orders row labels numerically when every label is an integer.
func sortIndex(index []string) {
	nums := make(map[string]int, len(index))
	for _, k := range index {
		n, err := strconv.Atoi(k)
		if err != nil {
			sort.Strings(index)
			return
		}
		nums[k] = n
	}
	sort.SliceStable(index, func(i, j int) bool { return nums[index[i]] < nums[index[j]] })
}

// orderedObject decodes a JSON object keeping its key order
func orderedObject(raw []byte) ([]string, []any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return nil, nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, nil, fmt.Errorf("expected object, got %v", tok)
	}

	var (
		keys   []string
		values []any
	)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, nil, fmt.Errorf("expected key, got %v", tok)
		}
		var v any
		if err := dec.Decode(&v); err != nil {
			return nil, nil, fmt.Errorf("value of %q: %w", key, err)
		}
		keys = append(keys, key)
		values = append(values, v)
	}
	if _, err := dec.Token(); err != nil {
		return nil, nil, err
	}
	return keys, values, nil
}
