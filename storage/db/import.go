// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package db

import (
	"database/sql"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/aclements/go-gg/table"
	"github.com/sycl-bench/benchpipe/benchlog"
	"golang.org/x/net/context"
)

// RunColumns are the CSV columns that identify a run. Every one of
// them must be present in an imported table.
var RunColumns = []string{
	"run_type",
	"sha",
	"branch",
	"platform",
	"data_type",
	"workflow",
	"compiler",
	"driver",
	"c_compiler_version",
	"cxx_compiler_version",
	"driver_version",
}

// cutlassResults are the CSV columns stored on a CUTLASS benchmark row.
// The other columns, apart from run columns, layout and tag, describe
// the test configuration.
var cutlassResults = []struct {
	col, field string
	numeric    bool
}{
	{"name", "Name", false},
	{"real_time", "RealTime", true},
	{"cpu_time", "CPUTime", true},
	{"total_runtime_ms", "TotalRuntimeMs", true},
	{"avg_runtime_ms", "AvgRuntimeMs", true},
	{"avg_tflops", "AvgTFlops", true},
	{"avg_throughput", "AvgThroughput", true},
	{"best_bandwidth", "BestBandwidth", true},
	{"best_runtime_ms", "BestRuntimeMs", true},
	{"best_tflop", "BestTFlop", true},
	{"status", "Status", false},
}

// ImportStats reports what an import changed.
type ImportStats struct {
	Runs     int // distinct run contexts
	Inserted int // benchmark rows inserted
	Updated  int // benchmark rows updated in place
}

// ReadCSV reads CSV data written by benchlog.Writer into a table of
// string columns.
func ReadCSV(r io.Reader) (*table.Table, error) {
	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading CSV: %v", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("reading CSV: no header")
	}
	return table.TableFromStrings(records[0], records[1:], false), nil
}

// ImportCSV reads CSV data of the given kind from r and imports it.
func (db *DB) ImportCSV(ctx context.Context, kind benchlog.Kind, r io.Reader) (ImportStats, error) {
	t, err := ReadCSV(r)
	if err != nil {
		return ImportStats{}, err
	}
	return db.Import(ctx, kind, t, nil)
}

// Import stores the rows of t, a table of the given kind, in a single
// transaction. If step is non-nil, it is called after each row is
// stored.
func (db *DB) Import(ctx context.Context, kind benchlog.Kind, t *table.Table, step func()) (stats ImportStats, err error) {
	if t.Len() == 0 {
		return stats, nil
	}
	var missing []string
	for _, col := range RunColumns {
		if t.Column(col) == nil {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return stats, fmt.Errorf("missing run columns: %s", strings.Join(missing, ", "))
	}

	tx, err := db.sql.BeginTx(ctx, nil)
	if err != nil {
		return stats, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()
	im := &importer{db: db, tx: tx, ctx: ctx, stats: &stats, step: step}

	runs := table.GroupBy(t, RunColumns...)
	for _, gid := range runs.Tables() {
		group := runs.Table(gid)
		runID, err := im.run(group)
		if err != nil {
			return stats, err
		}
		stats.Runs++
		switch kind {
		case benchlog.Cutlass:
			err = im.cutlass(runID, group)
		case benchlog.Xetla:
			err = im.xetla(runID, group)
		default:
			err = fmt.Errorf("unknown benchmark type %v", kind)
		}
		if err != nil {
			return stats, err
		}
	}
	return stats, nil
}

type importer struct {
	db    *DB
	tx    *sql.Tx
	ctx   context.Context
	stats *ImportStats
	step  func()
}

// column returns the cells of column name of t, or nil.
func column(t *table.Table, name string) []string {
	if cv, ok := t.Const(name); ok {
		out := make([]string, t.Len())
		for i := range out {
			out[i] = cv.(string)
		}
		return out
	}
	c, _ := t.Column(name).([]string)
	return c
}

// first returns the first cell of column name of t, or "".
func first(t *table.Table, name string) string {
	if cv, ok := t.Const(name); ok {
		return cv.(string)
	}
	if c := column(t, name); len(c) > 0 {
		return c[0]
	}
	return ""
}

// run resolves the run that the rows of group belong to.
func (im *importer) run(group *table.Table) (int64, error) {
	v := func(col string) string { return first(group, col) }

	sha := v("sha")
	var have string
	err := im.tx.QueryRowContext(im.ctx, im.db.rebind("SELECT SHA FROM Refs WHERE SHA = ?"), sha).Scan(&have)
	if err == sql.ErrNoRows {
		_, err = im.tx.ExecContext(im.ctx, im.db.rebind("INSERT INTO Refs (SHA, Branch) VALUES (?, ?)"), sha, v("branch"))
	}
	if err != nil {
		return 0, fmt.Errorf("ref %s: %v", sha, err)
	}

	componentSet, err := json.Marshal(map[string]string{
		"compiler": v("compiler"),
		"driver":   v("driver"),
	})
	if err != nil {
		return 0, err
	}
	componentsVersion, err := json.Marshal(map[string]string{
		"c_compiler_version":   v("c_compiler_version"),
		"cxx_compiler_version": v("cxx_compiler_version"),
		"driver_version":       v("driver_version"),
	})
	if err != nil {
		return 0, err
	}

	ids := make(map[string]int64)
	for _, lookup := range []struct {
		table, id, col, val string
	}{
		{"RunTypes", "RunTypeID", "Type", v("run_type")},
		{"Platforms", "PlatformID", "Name", v("platform")},
		{"DataTypes", "DataTypeID", "Type", v("data_type")},
		{"ComponentSets", "ComponentSetID", "Configuration", string(componentSet)},
		{"ComponentsVersions", "ComponentsVersionID", "Configuration", string(componentsVersion)},
	} {
		id, err := im.getOrCreate(lookup.table, lookup.id, []string{lookup.col}, []interface{}{lookup.val})
		if err != nil {
			return 0, err
		}
		ids[lookup.id] = id
	}

	return im.getOrCreate("Runs", "RunID",
		[]string{"RunTypeID", "SHA", "PlatformID", "DataTypeID", "Workflow", "ComponentSetID", "ComponentsVersionID"},
		[]interface{}{ids["RunTypeID"], sha, ids["PlatformID"], ids["DataTypeID"], v("workflow"), ids["ComponentSetID"], ids["ComponentsVersionID"]})
}

// cutlass stores the CUTLASS benchmark rows of one run.
func (im *importer) cutlass(runID int64, group *table.Table) error {
	for _, col := range []string{"name", "layout"} {
		if column(group, col) == nil {
			return fmt.Errorf("missing column %s", col)
		}
	}
	groupID, err := im.getOrCreate("TestGroups", "TestGroupID", []string{"Tag"}, []interface{}{first(group, "tag")})
	if err != nil {
		return err
	}

	skip := map[string]bool{"layout": true, "tag": true}
	for _, col := range RunColumns {
		skip[col] = true
	}
	for _, r := range cutlassResults {
		skip[r.col] = true
	}
	var configCols []string
	for _, col := range group.Columns() {
		if !skip[col] {
			configCols = append(configCols, col)
		}
	}

	layouts := table.GroupBy(group, "layout")
	for _, gid := range layouts.Tables() {
		lt := layouts.Table(gid)
		layoutID, err := im.getOrCreate("Layouts", "LayoutID", []string{"Name"}, []interface{}{first(lt, "layout")})
		if err != nil {
			return err
		}
		config := make([][]string, len(configCols))
		for i, col := range configCols {
			config[i] = column(lt, col)
		}
		results := make([][]string, len(cutlassResults))
		for i, r := range cutlassResults {
			results[i] = column(lt, r.col)
		}

		for row := 0; row < lt.Len(); row++ {
			params := make(map[string]interface{})
			for i, col := range configCols {
				val := typed(config[i][row])
				if val == nil || isMinusOne(val) {
					continue
				}
				params[col] = val
			}
			paramsJSON, err := json.Marshal(params)
			if err != nil {
				return err
			}
			configID, err := im.getOrCreate("TestConfigurations", "TestConfigurationID", []string{"Parameters"}, []interface{}{string(paramsJSON)})
			if err != nil {
				return err
			}

			var name string
			var fields []string
			var vals []interface{}
			for i, r := range cutlassResults {
				var cell string
				if results[i] != nil {
					cell = results[i][row]
				}
				if r.col == "name" {
					name = cell
					continue
				}
				val, err := resultValue(cell, r.numeric)
				if err != nil {
					return fmt.Errorf("%s: %s: %v", name, r.col, err)
				}
				fields = append(fields, r.field)
				vals = append(vals, val)
			}
			err = im.upsert("CutlassBenchmarks", "TestID",
				[]string{"RunID", "LayoutID", "TestConfigurationID", "TestGroupID", "Name"},
				[]interface{}{runID, layoutID, configID, groupID, name},
				fields, vals)
			if err != nil {
				return err
			}
		}
	}
	return nil
}

// xetla stores the XeTLA benchmark rows of one run. Rows repeating an
// earlier row's batch and dimensions are skipped.
func (im *importer) xetla(runID int64, group *table.Table) error {
	cols := make(map[string][]string)
	for _, col := range benchlog.XetlaColumns {
		cols[col] = column(group, col)
		if cols[col] == nil {
			return fmt.Errorf("missing column %s", col)
		}
	}
	seen := make(map[[4]int64]bool)
	for row := 0; row < group.Len(); row++ {
		var key [4]int64
		for i, col := range []string{"batch", "m", "k", "n"} {
			n, err := strconv.ParseInt(cols[col][row], 10, 64)
			if err != nil {
				return fmt.Errorf("row %d: %s: %v", row+1, col, err)
			}
			key[i] = n
		}
		if seen[key] {
			if im.step != nil {
				im.step()
			}
			continue
		}
		seen[key] = true
		tflops, err := resultValue(cols["tflops"][row], true)
		if err != nil {
			return fmt.Errorf("row %d: tflops: %v", row+1, err)
		}
		hbm, err := resultValue(cols["hbm"][row], true)
		if err != nil {
			return fmt.Errorf("row %d: hbm: %v", row+1, err)
		}
		var status interface{}
		if st := cols["status"][row]; st != "" {
			status = st
		}
		err = im.upsert("XetlaBenchmarks", "TestID",
			[]string{"RunID", "Batch", "M", "K", "N"},
			[]interface{}{runID, key[0], key[1], key[2], key[3]},
			[]string{"TFlops", "HBM", "Status"},
			[]interface{}{tflops, hbm, status})
		if err != nil {
			return err
		}
	}
	return nil
}

// typed returns the JSON value of a configuration cell: a number if it
// parses as one, nil if it is empty, and the string otherwise.
func typed(cell string) interface{} {
	if cell == "" {
		return nil
	}
	if n, err := strconv.ParseInt(cell, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(cell, 64); err == nil {
		return f
	}
	return cell
}

func isMinusOne(v interface{}) bool {
	switch v := v.(type) {
	case int64:
		return v == -1
	case float64:
		return v == -1
	}
	return false
}

// resultValue converts a result cell to a column value. Empty cells
// are NULL, numbers may carry surrounding spaces, and a numeric -1, the benchmarks' "not measured" marker, is
// stored as 0.
func resultValue(cell string, numeric bool) (interface{}, error) {
	if cell == "" {
		return nil, nil
	}
	if !numeric {
		return cell, nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
	if err != nil {
		return nil, err
	}
	if f == -1 {
		f = 0
	}
	return f, nil
}

// getOrCreate returns the ID of the row of tab whose cols equal vals,
// inserting such a row if there is none.
func (im *importer) getOrCreate(tab, idCol string, cols []string, vals []interface{}) (int64, error) {
	id, err := im.lookup(tab, idCol, cols, vals)
	if err == sql.ErrNoRows {
		id, err = im.insert(tab, idCol, cols, vals)
	}
	if err != nil {
		return 0, fmt.Errorf("%s: %v", tab, err)
	}
	return id, nil
}

// upsert updates the fields of the row of tab identified by the unique
// columns keys, inserting the row if there is none.
func (im *importer) upsert(tab, idCol string, keys []string, keyVals []interface{}, fields []string, vals []interface{}) error {
	id, err := im.lookup(tab, idCol, keys, keyVals)
	switch err {
	case nil:
		set := make([]string, len(fields))
		for i, f := range fields {
			set[i] = f + " = ?"
		}
		q := fmt.Sprintf("UPDATE %s SET %s WHERE %s = ?", tab, strings.Join(set, ", "), idCol)
		if _, err = im.tx.ExecContext(im.ctx, im.db.rebind(q), append(append([]interface{}(nil), vals...), id)...); err == nil {
			im.stats.Updated++
		}
	case sql.ErrNoRows:
		if _, err = im.insert(tab, idCol, append(append([]string(nil), keys...), fields...), append(append([]interface{}(nil), keyVals...), vals...)); err == nil {
			im.stats.Inserted++
		}
	}
	if err != nil {
		return fmt.Errorf("%s: %v", tab, err)
	}
	if im.step != nil {
		im.step()
	}
	return nil
}

func (im *importer) lookup(tab, idCol string, cols []string, vals []interface{}) (int64, error) {
	where := make([]string, len(cols))
	for i, c := range cols {
		where[i] = c + " = ?"
	}
	q := fmt.Sprintf("SELECT %s FROM %s WHERE %s", idCol, tab, strings.Join(where, " AND "))
	var id int64
	err := im.tx.QueryRowContext(im.ctx, im.db.rebind(q), vals...).Scan(&id)
	return id, err
}

// insert inserts a row into tab and returns its generated ID.
func (im *importer) insert(tab, idCol string, cols []string, vals []interface{}) (int64, error) {
	q := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", tab, strings.Join(cols, ", "), strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", "))
	if im.db.driver == "postgres" {
		var id int64
		err := im.tx.QueryRowContext(im.ctx, im.db.rebind(q+" RETURNING "+idCol), vals...).Scan(&id)
		return id, err
	}
	res, err := im.tx.ExecContext(im.ctx, q, vals...)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}
