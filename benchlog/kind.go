// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package benchlog parses the output of GPU kernel benchmark tools and
// normalizes it into a canonical table ready for storage.
//
// Two log formats are supported. CUTLASS benchmarks write a JSON
// document in the Google Benchmark format; each entry becomes one row
// after normalization. XeTLA benchmarks write free text in the gtest
// style, where each "[ RUN ]" ... "[ OK ]" block reports two workgroup
// swizzle variants of the same test and only the faster one is kept.
//
// Both parsers produce a *Table, which a Writer emits as CSV prefixed
// with run context columns (platform, reference, compiler and so on).
package benchlog

import (
	"fmt"
	"io"
	"strings"
)

// A Kind identifies the benchmark tool that produced a log.
type Kind int

const (
	// Cutlass logs are Google Benchmark JSON documents.
	Cutlass Kind = iota
	// Xetla logs are free-text gtest output.
	Xetla
)

var kindNames = [...]string{
	Cutlass: "cutlass",
	Xetla:   "xetla",
}

// ParseKind returns the Kind named by s.
func ParseKind(s string) (Kind, error) {
	for k, name := range kindNames {
		if strings.EqualFold(s, name) {
			return Kind(k), nil
		}
	}
	return 0, fmt.Errorf("unknown benchmark type %q (want one of %s)", s, strings.Join(kindNames[:], ", "))
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// Set implements flag.Value.
func (k *Kind) Set(s string) error {
	kind, err := ParseKind(s)
	if err != nil {
		return err
	}
	*k = kind
	return nil
}

// Columns returns the fixed leading columns of tables of kind k.
// Cutlass tables may carry further configuration columns after these.
func (k Kind) Columns() []string {
	switch k {
	case Xetla:
		return append([]string(nil), XetlaColumns...)
	default:
		return append([]string(nil), CutlassColumns...)
	}
}

// ThroughputColumn returns the column that holds the headline
// throughput measurement of tables of kind k.
func (k Kind) ThroughputColumn() string {
	if k == Xetla {
		return "tflops"
	}
	return "avg_tflops"
}

// Parse reads a complete log of the given kind from r and returns its
// canonical table. fileName is used in error messages only.
func Parse(kind Kind, r io.Reader, fileName string) (*Table, error) {
	switch kind {
	case Cutlass:
		return ParseCutlass(r, fileName)
	case Xetla:
		return ParseXetla(r, fileName)
	}
	return nil, fmt.Errorf("unknown benchmark type %v", kind)
}

// A SyntaxError represents a malformed construct on a particular line
// of a benchmark log.
type SyntaxError struct {
	FileName string
	Line     int
	Msg      string
}

func (e *SyntaxError) Pos() (fileName string, line int) {
	return e.FileName, e.Line
}

func (e *SyntaxError) Error() string {
	if e.FileName == "" {
		return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
	}
	if e.Line == 0 {
		return fmt.Sprintf("%s: %s", e.FileName, e.Msg)
	}
	return fmt.Sprintf("%s:%d: %s", e.FileName, e.Line, e.Msg)
}
