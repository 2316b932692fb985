// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package db

import (
	"database/sql"

	"golang.org/x/net/context"
)

// A Run is the run context a set of benchmark rows belongs to.
type Run struct {
	ID       int64
	RunType  string
	SHA      string
	Branch   string
	Platform string
	DataType string
	Workflow string

	// ComponentSet and ComponentsVersion are the JSON configurations
	// of the compiler and driver in use.
	ComponentSet      string
	ComponentsVersion string
}

// A XetlaBenchmark is one stored XeTLA result.
type XetlaBenchmark struct {
	RunID          int64
	Batch, M, K, N int64
	TFlops, HBM    sql.NullFloat64
	Status         sql.NullString
}

// A CutlassBenchmark is one stored CUTLASS result.
type CutlassBenchmark struct {
	RunID      int64
	Layout     string
	Parameters string // test configuration JSON
	Tag        string
	Name       string

	RealTime, CPUTime            sql.NullFloat64
	TotalRuntimeMs, AvgRuntimeMs sql.NullFloat64
	AvgTFlops, AvgThroughput     sql.NullFloat64
	BestBandwidth, BestRuntimeMs sql.NullFloat64
	BestTFlop                    sql.NullFloat64
	Status                       sql.NullString
}

// Runs returns every stored run, ordered by ID.
func (db *DB) Runs(ctx context.Context) ([]Run, error) {
	rows, err := db.sql.QueryContext(ctx, `
SELECT r.RunID, t.Type, r.SHA, f.Branch, p.Name, d.Type, r.Workflow, cs.Configuration, cv.Configuration
FROM Runs r
JOIN RunTypes t ON t.RunTypeID = r.RunTypeID
JOIN Refs f ON f.SHA = r.SHA
JOIN Platforms p ON p.PlatformID = r.PlatformID
JOIN DataTypes d ON d.DataTypeID = r.DataTypeID
JOIN ComponentSets cs ON cs.ComponentSetID = r.ComponentSetID
JOIN ComponentsVersions cv ON cv.ComponentsVersionID = r.ComponentsVersionID
ORDER BY r.RunID`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var runs []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.RunType, &r.SHA, &r.Branch, &r.Platform, &r.DataType, &r.Workflow, &r.ComponentSet, &r.ComponentsVersion); err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// XetlaBenchmarks returns every stored XeTLA result, ordered by run and
// problem size.
func (db *DB) XetlaBenchmarks(ctx context.Context) ([]XetlaBenchmark, error) {
	rows, err := db.sql.QueryContext(ctx, `
SELECT RunID, Batch, M, K, N, TFlops, HBM, Status
FROM XetlaBenchmarks
ORDER BY RunID, Batch, M, K, N`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []XetlaBenchmark
	for rows.Next() {
		var b XetlaBenchmark
		if err := rows.Scan(&b.RunID, &b.Batch, &b.M, &b.K, &b.N, &b.TFlops, &b.HBM, &b.Status); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// CutlassBenchmarks returns every stored CUTLASS result, ordered by ID.
func (db *DB) CutlassBenchmarks(ctx context.Context) ([]CutlassBenchmark, error) {
	rows, err := db.sql.QueryContext(ctx, `
SELECT b.RunID, l.Name, c.Parameters, g.Tag, b.Name,
	b.RealTime, b.CPUTime, b.TotalRuntimeMs, b.AvgRuntimeMs, b.AvgTFlops,
	b.AvgThroughput, b.BestBandwidth, b.BestRuntimeMs, b.BestTFlop, b.Status
FROM CutlassBenchmarks b
JOIN Layouts l ON l.LayoutID = b.LayoutID
JOIN TestConfigurations c ON c.TestConfigurationID = b.TestConfigurationID
JOIN TestGroups g ON g.TestGroupID = b.TestGroupID
ORDER BY b.TestID`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []CutlassBenchmark
	for rows.Next() {
		var b CutlassBenchmark
		err := rows.Scan(&b.RunID, &b.Layout, &b.Parameters, &b.Tag, &b.Name,
			&b.RealTime, &b.CPUTime, &b.TotalRuntimeMs, &b.AvgRuntimeMs, &b.AvgTFlops,
			&b.AvgThroughput, &b.BestBandwidth, &b.BestRuntimeMs, &b.BestTFlop, &b.Status)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}
