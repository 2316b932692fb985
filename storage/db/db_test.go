// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package db_test

import (
	"context"
	"database/sql"
	"sort"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/sycl-bench/benchpipe/benchlog"
	. "github.com/sycl-bench/benchpipe/storage/db"
	"github.com/sycl-bench/benchpipe/storage/db/dbtest"
)

func TestRebind(t *testing.T) {
	for _, test := range []struct {
		driver, q, want string
	}{
		{"sqlite3", "SELECT a FROM T WHERE b = ? AND c = ?", "SELECT a FROM T WHERE b = ? AND c = ?"},
		{"mysql", "INSERT INTO T (a) VALUES (?)", "INSERT INTO T (a) VALUES (?)"},
		{"postgres", "SELECT a FROM T WHERE b = ? AND c = ?", "SELECT a FROM T WHERE b = $1 AND c = $2"},
		{"postgres", "UPDATE T SET a = ?, b = ?, c = ? WHERE id = ?", "UPDATE T SET a = $1, b = $2, c = $3 WHERE id = $4"},
	} {
		if got := Rebind(test.driver, test.q); got != test.want {
			t.Errorf("rebind(%s, %q) = %q, want %q", test.driver, test.q, got, test.want)
		}
	}
}

func TestResultValue(t *testing.T) {
	for _, test := range []struct {
		cell    string
		numeric bool
		want    interface{}
	}{
		{"", true, nil},
		{"", false, nil},
		{"Passed", false, "Passed"},
		{"1.5", true, 1.5},
		{"-1", true, 0.0},
		{"-1.0", true, 0.0},
		{"-2", true, -2.0},
		{"12.0 ", true, 12.0},
	} {
		got, err := ResultValue(test.cell, test.numeric)
		if err != nil {
			t.Errorf("resultValue(%q, %v): %v", test.cell, test.numeric, err)
			continue
		}
		if got != test.want {
			t.Errorf("resultValue(%q, %v) = %#v, want %#v", test.cell, test.numeric, got, test.want)
		}
	}
	if _, err := ResultValue("fast", true); err == nil {
		t.Errorf("resultValue(%q, true) succeeded, want error", "fast")
	}
}

const runHeader = "run_type,sha,branch,platform,workflow,compiler,driver,c_compiler_version,cxx_compiler_version,driver_version"

func runCells(sha string) string {
	return "nightly," + sha + ",main,pvc,ci,icpx,lts,2024.1,2024.1.1,803.29"
}

func csvData(header string, rows ...string) string {
	return header + "\n" + strings.Join(rows, "\n") + "\n"
}

func xetlaCSV(sha string, tflops string) string {
	return csvData(runHeader+",data_type,batch,m,k,n,tflops,hbm,status",
		runCells(sha)+",bf16,1,4096,4096,4096,"+tflops+",310.0,PASSED",
		runCells(sha)+",bf16,4,8,8,8,12.0,,FAILED",
		runCells(sha)+",bf16,1,4096,4096,4096,1.0,1.0,PASSED",
	)
}

func TestImportXetla(t *testing.T) {
	ctx := context.Background()
	db, cleanup := dbtest.NewDB(t)
	defer cleanup()

	stats, err := db.ImportCSV(ctx, benchlog.Xetla, strings.NewReader(xetlaCSV("abc123", "88.75")))
	if err != nil {
		t.Fatalf("ImportCSV: %v", err)
	}
	if want := (ImportStats{Runs: 1, Inserted: 2}); stats != want {
		t.Errorf("first import stats = %+v, want %+v", stats, want)
	}

	// Importing again updates the existing rows.
	stats, err = db.ImportCSV(ctx, benchlog.Xetla, strings.NewReader(xetlaCSV("abc123", "90.5")))
	if err != nil {
		t.Fatalf("ImportCSV: %v", err)
	}
	if want := (ImportStats{Runs: 1, Updated: 2}); stats != want {
		t.Errorf("second import stats = %+v, want %+v", stats, want)
	}

	if n, err := db.CountRuns(ctx); err != nil || n != 1 {
		t.Errorf("CountRuns = %d, %v, want 1, nil", n, err)
	}

	got, err := db.XetlaBenchmarks(ctx)
	if err != nil {
		t.Fatal(err)
	}
	runID := got[0].RunID
	want := []XetlaBenchmark{
		{
			RunID: runID, Batch: 1, M: 4096, K: 4096, N: 4096,
			TFlops: sql.NullFloat64{Float64: 90.5, Valid: true},
			HBM:    sql.NullFloat64{Float64: 310, Valid: true},
			Status: sql.NullString{String: "PASSED", Valid: true},
		},
		{
			RunID: runID, Batch: 4, M: 8, K: 8, N: 8,
			TFlops: sql.NullFloat64{Float64: 12, Valid: true},
			Status: sql.NullString{String: "FAILED", Valid: true},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("XetlaBenchmarks mismatch (-want +got):\n%s", diff)
	}

	runs, err := db.Runs(ctx)
	if err != nil {
		t.Fatal(err)
	}
	wantRuns := []Run{{
		ID:                runID,
		RunType:           "nightly",
		SHA:               "abc123",
		Branch:            "main",
		Platform:          "pvc",
		DataType:          "bf16",
		Workflow:          "ci",
		ComponentSet:      `{"compiler":"icpx","driver":"lts"}`,
		ComponentsVersion: `{"c_compiler_version":"2024.1","cxx_compiler_version":"2024.1.1","driver_version":"803.29"}`,
	}}
	if diff := cmp.Diff(wantRuns, runs); diff != "" {
		t.Errorf("Runs mismatch (-want +got):\n%s", diff)
	}
}

func TestImportRunGrouping(t *testing.T) {
	ctx := context.Background()
	db, cleanup := dbtest.NewDB(t)
	defer cleanup()

	data := csvData(runHeader+",data_type,batch,m,k,n,tflops,hbm,status",
		runCells("abc123")+",bf16,1,8,8,8,1.0,2.0,PASSED",
		runCells("def456")+",bf16,1,8,8,8,3.0,4.0,PASSED",
		runCells("abc123")+",fp16,1,8,8,8,5.0,6.0,PASSED",
	)
	stats, err := db.ImportCSV(ctx, benchlog.Xetla, strings.NewReader(data))
	if err != nil {
		t.Fatalf("ImportCSV: %v", err)
	}
	if want := (ImportStats{Runs: 3, Inserted: 3}); stats != want {
		t.Errorf("stats = %+v, want %+v", stats, want)
	}
	if n, err := db.CountRuns(ctx); err != nil || n != 3 {
		t.Errorf("CountRuns = %d, %v, want 3, nil", n, err)
	}
}

func cutlassCSV(avgTFlops string) string {
	return csvData(runHeader+",tag,name,data_type,layout,alpha,beta,batch,m,k,n,status,avg_tflops,best_tflop,time_unit",
		runCells("abc123")+",perf,gemm/bf16/RRR,bf16,RowRow,1,0,1,4096,4096,4096,Passed,"+avgTFlops+",-1,ms",
		runCells("abc123")+",perf,gemm/bf16/CRR,bf16,ColRow,1,-1,1,8,8,8,Failed (oom),,2.5,ms",
	)
}

func TestImportCutlass(t *testing.T) {
	ctx := context.Background()
	db, cleanup := dbtest.NewDB(t)
	defer cleanup()

	stats, err := db.ImportCSV(ctx, benchlog.Cutlass, strings.NewReader(cutlassCSV("120.5")))
	if err != nil {
		t.Fatalf("ImportCSV: %v", err)
	}
	if want := (ImportStats{Runs: 1, Inserted: 2}); stats != want {
		t.Errorf("first import stats = %+v, want %+v", stats, want)
	}
	stats, err = db.ImportCSV(ctx, benchlog.Cutlass, strings.NewReader(cutlassCSV("121")))
	if err != nil {
		t.Fatalf("ImportCSV: %v", err)
	}
	if want := (ImportStats{Runs: 1, Updated: 2}); stats != want {
		t.Errorf("second import stats = %+v, want %+v", stats, want)
	}

	got, err := db.CutlassBenchmarks(ctx)
	if err != nil {
		t.Fatal(err)
	}
	sort.Slice(got, func(i, j int) bool { return got[i].Name < got[j].Name })
	if len(got) != 2 {
		t.Fatalf("got %d benchmarks, want 2", len(got))
	}
	runID := got[0].RunID
	want := []CutlassBenchmark{
		{
			RunID:      runID,
			Layout:     "ColRow",
			Parameters: `{"alpha":1,"batch":1,"k":8,"m":8,"n":8,"time_unit":"ms"}`,
			Tag:        "perf",
			Name:       "gemm/bf16/CRR",
			BestTFlop:  sql.NullFloat64{Float64: 2.5, Valid: true},
			Status:     sql.NullString{String: "Failed (oom)", Valid: true},
		},
		{
			RunID:      runID,
			Layout:     "RowRow",
			Parameters: `{"alpha":1,"batch":1,"beta":0,"k":4096,"m":4096,"n":4096,"time_unit":"ms"}`,
			Tag:        "perf",
			Name:       "gemm/bf16/RRR",
			AvgTFlops:  sql.NullFloat64{Float64: 121, Valid: true},
			BestTFlop:  sql.NullFloat64{Float64: 0, Valid: true},
			Status:     sql.NullString{String: "Passed", Valid: true},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("CutlassBenchmarks mismatch (-want +got):\n%s", diff)
	}
}

func TestImportErrors(t *testing.T) {
	ctx := context.Background()
	db, cleanup := dbtest.NewDB(t)
	defer cleanup()

	for _, test := range []struct {
		name string
		kind benchlog.Kind
		data string
		want string
	}{
		{
			"missing run columns",
			benchlog.Xetla,
			csvData("sha,batch,m,k,n,tflops,hbm,status", "abc,1,8,8,8,1,1,PASSED"),
			"missing run columns: run_type, branch",
		},
		{
			"bad dimension",
			benchlog.Xetla,
			csvData(runHeader+",data_type,batch,m,k,n,tflops,hbm,status", runCells("abc")+",bf16,one,8,8,8,1,1,PASSED"),
			"batch",
		},
		{
			"bad result",
			benchlog.Cutlass,
			csvData(runHeader+",data_type,name,layout,status,avg_tflops", runCells("abc")+",bf16,gemm/bf16/x,RowRow,Passed,fast"),
			"avg_tflops",
		},
	} {
		t.Run(test.name, func(t *testing.T) {
			_, err := db.ImportCSV(ctx, test.kind, strings.NewReader(test.data))
			if err == nil || !strings.Contains(err.Error(), test.want) {
				t.Errorf("ImportCSV error = %v, want containing %q", err, test.want)
			}
		})
	}

	// Failed imports leave nothing behind.
	if n, err := db.CountRuns(ctx); err != nil || n != 0 {
		t.Errorf("CountRuns = %d, %v, want 0, nil", n, err)
	}
}

func TestImportEmpty(t *testing.T) {
	db, cleanup := dbtest.NewDB(t)
	defer cleanup()

	stats, err := db.ImportCSV(context.Background(), benchlog.Xetla, strings.NewReader(runHeader+"\n"))
	if err != nil {
		t.Fatalf("ImportCSV: %v", err)
	}
	if stats != (ImportStats{}) {
		t.Errorf("stats = %+v, want zero", stats)
	}
}
