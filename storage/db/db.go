// Copyright 2016 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package db stores parsed benchmark tables in a relational database.
//
// Every table row belongs to a run: the platform, git reference,
// workflow, compiler and driver versions a benchmark session ran with.
// Importing a table resolves (or creates) one run per distinct run
// context and then inserts or updates one benchmark row per table row.
// Importing the same data again updates rows in place and never
// duplicates them.
package db

import (
	"bytes"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"text/template"

	"golang.org/x/net/context"
)

// DB is a high-level interface to a benchmark results database.
// It's safe for concurrent use by multiple goroutines.
type DB struct {
	sql    *sql.DB // underlying database connection
	driver string
}

// OpenSQL creates a DB backed by a SQL database. The parameters are
// the same as the parameters for sql.Open. The sqlite3, mysql and
// postgres drivers are supported; the caller must import the driver.
func OpenSQL(driverName, dataSourceName string) (*DB, error) {
	db, err := sql.Open(driverName, dataSourceName)
	if err != nil {
		return nil, err
	}
	if hook := openHooks[driverName]; hook != nil {
		if err := hook(db); err != nil {
			db.Close()
			return nil, err
		}
	}
	d := &DB{sql: db, driver: driverName}
	if err := d.createTables(); err != nil {
		db.Close()
		return nil, err
	}
	return d, nil
}

var openHooks = make(map[string]func(*sql.DB) error)

// RegisterOpenHook registers a hook to be called after opening a connection to driverName.
// This is used by the sqlite3 package to register a ConnectHook.
// It must be called from an init function.
func RegisterOpenHook(driverName string, hook func(*sql.DB) error) {
	openHooks[driverName] = hook
}

// createTmpl is the template used to prepare the CREATE statements
// for the database. It is evaluated with . as a map containing one
// entry whose key is the driver name.
var createTmpl = template.Must(template.New("create").Parse(`
{{define "id"}}{{if .sqlite3}}INTEGER PRIMARY KEY AUTOINCREMENT{{else if .postgres}}BIGSERIAL PRIMARY KEY{{else}}SERIAL PRIMARY KEY AUTO_INCREMENT{{end}}{{end}}
{{define "ref"}}{{if .mysql}}BIGINT UNSIGNED{{else}}BIGINT{{end}}{{end}}
CREATE TABLE IF NOT EXISTS Platforms (
	PlatformID {{template "id" .}},
	Name VARCHAR(255) NOT NULL UNIQUE
);
CREATE TABLE IF NOT EXISTS Refs (
	SHA VARCHAR(255) PRIMARY KEY,
	Branch VARCHAR(255) NOT NULL
);
CREATE TABLE IF NOT EXISTS RunTypes (
	RunTypeID {{template "id" .}},
	Type VARCHAR(255) NOT NULL UNIQUE
);
CREATE TABLE IF NOT EXISTS DataTypes (
	DataTypeID {{template "id" .}},
	Type VARCHAR(255) NOT NULL UNIQUE
);
CREATE TABLE IF NOT EXISTS ComponentSets (
	ComponentSetID {{template "id" .}},
	Configuration VARCHAR(255) NOT NULL UNIQUE
);
CREATE TABLE IF NOT EXISTS ComponentsVersions (
	ComponentsVersionID {{template "id" .}},
	Configuration VARCHAR(255) NOT NULL UNIQUE
);
CREATE TABLE IF NOT EXISTS Runs (
	RunID {{template "id" .}},
	RunTypeID {{template "ref" .}} NOT NULL,
	SHA VARCHAR(255) NOT NULL,
	PlatformID {{template "ref" .}} NOT NULL,
	DataTypeID {{template "ref" .}} NOT NULL,
	Workflow VARCHAR(255) NOT NULL,
	ComponentSetID {{template "ref" .}} NOT NULL,
	ComponentsVersionID {{template "ref" .}} NOT NULL,
	UNIQUE (PlatformID, SHA, RunTypeID, DataTypeID, Workflow, ComponentSetID, ComponentsVersionID),
	FOREIGN KEY (RunTypeID) REFERENCES RunTypes(RunTypeID),
	FOREIGN KEY (SHA) REFERENCES Refs(SHA),
	FOREIGN KEY (PlatformID) REFERENCES Platforms(PlatformID),
	FOREIGN KEY (DataTypeID) REFERENCES DataTypes(DataTypeID),
	FOREIGN KEY (ComponentSetID) REFERENCES ComponentSets(ComponentSetID),
	FOREIGN KEY (ComponentsVersionID) REFERENCES ComponentsVersions(ComponentsVersionID)
);
CREATE TABLE IF NOT EXISTS Layouts (
	LayoutID {{template "id" .}},
	Name VARCHAR(255) NOT NULL UNIQUE
);
CREATE TABLE IF NOT EXISTS TestGroups (
	TestGroupID {{template "id" .}},
	Tag VARCHAR(255) NOT NULL UNIQUE
);
CREATE TABLE IF NOT EXISTS TestConfigurations (
	TestConfigurationID {{template "id" .}},
	Parameters VARCHAR(255) NOT NULL UNIQUE
);
CREATE TABLE IF NOT EXISTS CutlassBenchmarks (
	TestID {{template "id" .}},
	RunID {{template "ref" .}} NOT NULL,
	LayoutID {{template "ref" .}} NOT NULL,
	TestConfigurationID {{template "ref" .}} NOT NULL,
	TestGroupID {{template "ref" .}} NOT NULL,
	Name VARCHAR(255) NOT NULL,
	RealTime DOUBLE PRECISION,
	CPUTime DOUBLE PRECISION,
	TotalRuntimeMs DOUBLE PRECISION,
	AvgRuntimeMs DOUBLE PRECISION,
	AvgTFlops DOUBLE PRECISION,
	AvgThroughput DOUBLE PRECISION,
	BestBandwidth DOUBLE PRECISION,
	BestRuntimeMs DOUBLE PRECISION,
	BestTFlop DOUBLE PRECISION,
	Status VARCHAR(255),
	UNIQUE (RunID, LayoutID, TestConfigurationID, TestGroupID, Name),
	FOREIGN KEY (RunID) REFERENCES Runs(RunID) ON DELETE CASCADE,
	FOREIGN KEY (LayoutID) REFERENCES Layouts(LayoutID),
	FOREIGN KEY (TestConfigurationID) REFERENCES TestConfigurations(TestConfigurationID),
	FOREIGN KEY (TestGroupID) REFERENCES TestGroups(TestGroupID)
);
CREATE TABLE IF NOT EXISTS XetlaBenchmarks (
	TestID {{template "id" .}},
	RunID {{template "ref" .}} NOT NULL,
	Batch BIGINT NOT NULL,
	M BIGINT NOT NULL,
	K BIGINT NOT NULL,
	N BIGINT NOT NULL,
	TFlops DOUBLE PRECISION,
	HBM DOUBLE PRECISION,
	Status VARCHAR(255),
	UNIQUE (RunID, Batch, M, K, N),
	FOREIGN KEY (RunID) REFERENCES Runs(RunID) ON DELETE CASCADE
);
`))

// createTables creates any missing tables on the connection in
// db.sql. The driver name selects the correct syntax.
func (db *DB) createTables() error {
	var buf bytes.Buffer
	if err := createTmpl.Execute(&buf, map[string]bool{db.driver: true}); err != nil {
		return err
	}
	for _, q := range strings.Split(buf.String(), ";") {
		if strings.TrimSpace(q) == "" {
			continue
		}
		if _, err := db.sql.Exec(q); err != nil {
			return fmt.Errorf("create table: %v", err)
		}
	}
	return nil
}

// rebind rewrites the ? placeholders in q for the database's driver.
func (db *DB) rebind(q string) string {
	if db.driver != "postgres" {
		return q
	}
	var b strings.Builder
	n := 0
	for _, r := range q {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// CountRuns returns the number of runs in the database.
func (db *DB) CountRuns(ctx context.Context) (int, error) {
	var n int
	err := db.sql.QueryRowContext(ctx, "SELECT COUNT(*) FROM Runs").Scan(&n)
	return n, err
}

// Close closes the database connections, releasing any open resources.
func (db *DB) Close() error {
	return db.sql.Close()
}
