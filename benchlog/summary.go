// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package benchlog

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/aclements/go-moremath/stats"
)

// A Summary describes a parsed table at a glance.
type Summary struct {
	Kind   Kind
	Rows   int
	Status map[string]int // rows per status value

	// Throughput statistics over the rows with a numeric value in
	// Kind.ThroughputColumn. N is zero if there were none.
	N                   int
	Min, Max, Mean, Geo float64
}

// Summarize computes a Summary of t, which must be a table of kind.
func Summarize(kind Kind, t *Table) Summary {
	s := Summary{Kind: kind, Rows: t.Len(), Status: make(map[string]int)}
	for _, st := range t.Column("status") {
		s.Status[st]++
	}
	var xs []float64
	for _, cell := range t.Column(kind.ThroughputColumn()) {
		x, err := strconv.ParseFloat(cell, 64)
		if err != nil || x <= 0 {
			continue
		}
		xs = append(xs, x)
	}
	if len(xs) == 0 {
		return s
	}
	s.N = len(xs)
	s.Min, s.Max = stats.Bounds(xs)
	s.Mean = stats.Mean(xs)
	s.Geo = stats.GeoMean(xs)
	return s
}

func (s Summary) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %d rows", s.Kind, s.Rows)
	statuses := make([]string, 0, len(s.Status))
	for st := range s.Status {
		statuses = append(statuses, st)
	}
	sort.Strings(statuses)
	for _, st := range statuses {
		fmt.Fprintf(&b, ", %d %s", s.Status[st], st)
	}
	if s.N > 0 {
		fmt.Fprintf(&b, "; %s over %d: min %.4g max %.4g mean %.4g geomean %.4g",
			s.Kind.ThroughputColumn(), s.N, s.Min, s.Max, s.Mean, s.Geo)
	}
	return b.String()
}
