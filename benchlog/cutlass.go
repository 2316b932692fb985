// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package benchlog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"
)

// CutlassColumns are the leading columns of a CUTLASS table, in order.
// Any other fields found in the entries follow them.
var CutlassColumns = []string{
	"name", "data_type", "layout",
	"alpha", "beta", "batch", "m", "k", "n",
	"status",
	"real_time", "cpu_time",
	"total_runtime_ms", "avg_runtime_ms",
	"avg_tflops", "avg_throughput",
	"best_bandwidth", "best_runtime_ms", "best_tflop",
}

// An Entry is one benchmark object from a CUTLASS JSON log. Numbers
// are json.Number so that their source text is preserved.
type Entry map[string]interface{}

var (
	// renamed maps Google Benchmark counter names to column names.
	renamed = map[string]string{
		"l":     "batch",
		"label": "layout",
	}

	// intColumns are filled with 0 when missing and truncated to
	// integers.
	intColumns = []string{"alpha", "beta", "m", "k", "n", "batch"}

	// droppedColumns are Google Benchmark bookkeeping fields.
	droppedColumns = map[string]bool{
		"family_index":              true,
		"per_family_instance_index": true,
		"run_name":                  true,
		"run_type":                  true,
		"repetitions":               true,
		"repetition_index":          true,
		"threads":                   true,
		"iterations":                true,
		"error_occurred":            true,
		"error_message":             true,
	}

	// dedupColumns identify a measurement; later rows with the same
	// values are dropped.
	dedupColumns = []string{"name", "alpha", "beta", "m", "k", "n", "batch", "data_type", "layout"}
)

// ParseCutlass reads a CUTLASS JSON log from r and normalizes it.
func ParseCutlass(r io.Reader, fileName string) (*Table, error) {
	if fileName == "" {
		fileName = "<unknown>"
	}
	entries, err := DecodeEntries(r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", fileName, err)
	}
	t, err := Normalize(entries)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", fileName, err)
	}
	return t, nil
}

// DecodeEntries decodes benchmark entries from either a JSON array of
// entries or a Google Benchmark document with a "benchmarks" array.
func DecodeEntries(r io.Reader) ([]Entry, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var doc interface{}
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("parsing JSON: %w", err)
	}
	var list []interface{}
	switch doc := doc.(type) {
	case []interface{}:
		list = doc
	case map[string]interface{}:
		bs, ok := doc["benchmarks"]
		if !ok {
			return nil, fmt.Errorf("JSON document has no \"benchmarks\" array")
		}
		if list, ok = bs.([]interface{}); !ok {
			return nil, fmt.Errorf("\"benchmarks\" is %T, want array", bs)
		}
	default:
		return nil, fmt.Errorf("JSON document is %T, want array or object", doc)
	}
	entries := make([]Entry, len(list))
	for i, x := range list {
		obj, ok := x.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("benchmark %d is %T, want object", i, x)
		}
		entries[i] = obj
	}
	return entries, nil
}

// Normalize turns benchmark entries into a CUTLASS table.
//
// Nested objects are flattened into dotted column names. Each row gets
// a data_type (the second "/" segment of its name) and a status
// ("Passed", or "Failed (<error_message>)" when error_occurred is set).
// The l and label fields become batch and layout; alpha, beta, m, k, n
// and batch default to 0 and are truncated to integers. Bookkeeping
// fields are removed, and rows repeating an earlier row's name, data
// type, layout and dimensions are dropped.
func Normalize(entries []Entry) (*Table, error) {
	rows := make([]map[string]interface{}, 0, len(entries))
	var extra []string
	seenCol := make(map[string]bool)
	for _, c := range CutlassColumns {
		seenCol[c] = true
	}

	for i, e := range entries {
		row := make(map[string]interface{}, len(e)+2)
		flatten("", e, row)

		name, ok := row["name"].(string)
		if !ok {
			return nil, fmt.Errorf("benchmark %d: missing name", i)
		}
		parts := strings.Split(name, "/")
		if len(parts) < 2 {
			return nil, fmt.Errorf("benchmark %d: name %q has no data type segment", i, name)
		}
		row["data_type"] = parts[1]

		if v, ok := row["error_occurred"]; ok && v != nil {
			row["status"] = "Failed (" + formatCell(row["error_message"]) + ")"
		} else {
			row["status"] = "Passed"
		}

		for from, to := range renamed {
			if v, ok := row[from]; ok {
				delete(row, from)
				row[to] = v
			}
		}

		for _, col := range intColumns {
			n, err := toInt(row[col])
			if err != nil {
				return nil, fmt.Errorf("benchmark %d (%s): %s: %w", i, name, col, err)
			}
			row[col] = n
		}

		for col := range droppedColumns {
			delete(row, col)
		}

		// Extra columns appear in the order entries introduce
		// them, sorted within an entry.
		for _, col := range flatKeys("", e) {
			if to, ok := renamed[col]; ok {
				col = to
			}
			if seenCol[col] || droppedColumns[col] {
				continue
			}
			seenCol[col] = true
			extra = append(extra, col)
		}

		rows = append(rows, row)
	}

	t := &Table{Columns: append(append([]string(nil), CutlassColumns...), extra...)}
	for _, row := range rows {
		cells := make([]string, len(t.Columns))
		for i, col := range t.Columns {
			cells[i] = formatCell(row[col])
		}
		t.Rows = append(t.Rows, cells)
	}
	keyCols := make([]int, len(dedupColumns))
	for i, col := range dedupColumns {
		keyCols[i] = t.ColumnIndex(col)
	}
	t.Rows = dedupRows(t.Rows, keyCols)
	return t, nil
}

// flatten copies the fields of obj into out, joining the keys of
// nested objects with ".". Arrays are stored as their JSON text.
func flatten(prefix string, obj map[string]interface{}, out map[string]interface{}) {
	for k, v := range obj {
		switch v := v.(type) {
		case map[string]interface{}:
			flatten(prefix+k+".", v, out)
		case []interface{}:
			text, _ := json.Marshal(v)
			out[prefix+k] = string(text)
		default:
			out[prefix+k] = v
		}
	}
}

// flatKeys returns the flattened keys of obj in sorted order.
func flatKeys(prefix string, obj map[string]interface{}) []string {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var out []string
	for _, k := range keys {
		if sub, ok := obj[k].(map[string]interface{}); ok {
			out = append(out, flatKeys(prefix+k+".", sub)...)
			continue
		}
		out = append(out, prefix+k)
	}
	return out
}

// toInt converts a cell to an integer the way a numeric cast would:
// missing is 0, fractions are truncated toward zero.
func toInt(v interface{}) (int64, error) {
	switch v := v.(type) {
	case nil:
		return 0, nil
	case int64:
		return v, nil
	case bool:
		if v {
			return 1, nil
		}
		return 0, nil
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return n, nil
		}
		return floatToInt(string(v))
	case string:
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n, nil
		}
		return floatToInt(v)
	}
	return 0, fmt.Errorf("cannot convert %T to integer", v)
}

func floatToInt(s string) (int64, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f >= math.MaxInt64 || f <= math.MinInt64 {
		return 0, fmt.Errorf("%s out of integer range", s)
	}
	return int64(f), nil
}

// formatCell renders a cell for CSV output. Missing values are empty.
func formatCell(v interface{}) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number:
		return v.String()
	case int64:
		return strconv.FormatInt(v, 10)
	case bool:
		return strconv.FormatBool(v)
	}
	return fmt.Sprint(v)
}
