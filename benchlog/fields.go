// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package benchlog

import "regexp"

// Names of the two workgroup swizzle variants each XeTLA test runs.
const (
	NFirst = "wg_swizzle_n_first"
	MFirst = "wg_swizzle_m_first"
)

// Field names recorded for a variant.
const (
	FieldM      = "M"
	FieldK      = "K"
	FieldN      = "N"
	FieldBatch  = "batch"
	FieldTFlops = "tflops"
	FieldHBM    = "hbm"
	FieldStatus = "status"
)

// Fields maps a field name to its value exactly as it appeared in the
// log.
type Fields map[string]string

// MethodFields maps a variant name to the fields reported for it
// within one block.
type MethodFields map[string]Fields

var (
	methodLine  = regexp.MustCompile(`(wg_swizzle_[mn]_first)`)
	problemLine = regexp.MustCompile(`Problem size MKN:(\d+)x(\d+)x(\d+)`)
	batchLine   = regexp.MustCompile(`Running on test iter: (\d+)`)
	tflopsLine  = regexp.MustCompile(`Tflops\s*\[.*average:\s+(.*)\]`)
	hbmLine     = regexp.MustCompile(`HBM\(GBs\)\s*\[.*average:\s+(.*)\]`)
	statusLine  = regexp.MustCompile(`(PASSED|FAILED)`)
)

// fieldMatchers are tried in order after the method line check; the
// first that matches a line claims it.
var fieldMatchers = []struct {
	re     *regexp.Regexp
	fields []string // one per submatch
}{
	{problemLine, []string{FieldM, FieldK, FieldN}},
	{batchLine, []string{FieldBatch}},
	{tflopsLine, []string{FieldTFlops}},
	{hbmLine, []string{FieldHBM}},
	{statusLine, []string{FieldStatus}},
}

// ParseBlock extracts the fields reported for each variant in b.
//
// A variant name line selects the variant that following field lines
// belong to, starting it over with no fields if it was seen before.
// A later value for a field replaces an earlier one. A field line that
// precedes every variant name line is an error.
func ParseBlock(b Block) (MethodFields, error) {
	methods := make(MethodFields)
	var cur Fields
	for _, line := range b.Lines {
		if m := methodLine.FindStringSubmatch(line.Text); m != nil {
			cur = make(Fields)
			methods[m[1]] = cur
			continue
		}
		for _, fm := range fieldMatchers {
			m := fm.re.FindStringSubmatch(line.Text)
			if m == nil {
				continue
			}
			if cur == nil {
				return nil, &SyntaxError{b.FileName, line.Num, fm.fields[0] + " reported before any test method"}
			}
			for i, name := range fm.fields {
				cur[name] = m[i+1]
			}
			break
		}
	}
	return methods, nil
}
