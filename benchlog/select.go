// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package benchlog

import (
	"fmt"
	"strconv"
	"strings"
)

// XetlaColumns are the columns of a XeTLA table, in order.
var XetlaColumns = []string{"batch", "m", "k", "n", "tflops", "hbm", "status"}

// An XetlaResult is the record kept for one XeTLA test block.
type XetlaResult struct {
	Batch, M, K, N string
	TFlops, HBM    string
	Status         string
}

// Row returns r's cells in XetlaColumns order.
func (r XetlaResult) Row() []string {
	return []string{r.Batch, r.M, r.K, r.N, r.TFlops, r.HBM, r.Status}
}

// SelectBest picks the variant with the higher throughput and returns
// its fields.
//
// NFirst wins unless both variants report tflops and MFirst's value is
// strictly greater. Values are compared with surrounding spaces
// ignored and reported as logged. If MFirst is missing, or either variant lacks
// tflops, the result is NFirst's with TFlops and HBM left empty, even
// when NFirst reported them.
func SelectBest(mf MethodFields) (XetlaResult, error) {
	n, ok := mf[NFirst]
	if !ok {
		return XetlaResult{}, fmt.Errorf("no %s results in test block", NFirst)
	}
	best, blank := n, false
	m, mok := mf[MFirst]
	nt, ntok := n[FieldTFlops]
	mt, mtok := m[FieldTFlops]
	if mok && ntok && mtok {
		nv, err := strconv.ParseFloat(strings.TrimSpace(nt), 64)
		if err != nil {
			return XetlaResult{}, fmt.Errorf("%s tflops: %w", NFirst, err)
		}
		mv, err := strconv.ParseFloat(strings.TrimSpace(mt), 64)
		if err != nil {
			return XetlaResult{}, fmt.Errorf("%s tflops: %w", MFirst, err)
		}
		if nv < mv {
			best = m
		}
	} else {
		// TODO: confirm with the benchmark owners whether NFirst's own
		// numbers should be kept here; they are discarded today.
		blank = true
	}

	var res XetlaResult
	for _, f := range []struct {
		name string
		dst  *string
	}{
		{FieldBatch, &res.Batch},
		{FieldM, &res.M},
		{FieldK, &res.K},
		{FieldN, &res.N},
		{FieldStatus, &res.Status},
	} {
		v, ok := best[f.name]
		if !ok {
			return XetlaResult{}, fmt.Errorf("test block reports no %s", f.name)
		}
		*f.dst = v
	}
	if !blank {
		// A variant without an hbm line reports it as empty.
		res.TFlops = best[FieldTFlops]
		res.HBM = best[FieldHBM]
	}
	return res, nil
}
