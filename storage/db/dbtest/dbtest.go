// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package dbtest opens throwaway benchmark results databases for tests.
//
// By default each database is a private in-memory SQLite database.
// With -cloud, tests instead run against a freshly created MySQL
// database on a Cloud SQL instance, which is dropped afterwards.
package dbtest

import (
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"flag"
	"fmt"
	"testing"

	_ "github.com/GoogleCloudPlatform/cloudsql-proxy/proxy/dialers/mysql"
	"github.com/sycl-bench/benchpipe/storage/db"
	_ "github.com/sycl-bench/benchpipe/storage/db/sqlite3"
	"golang.org/x/net/context"
)

var (
	cloud    = flag.Bool("cloud", false, "run storage tests against MySQL on Cloud SQL instead of in-memory SQLite")
	cloudsql = flag.String("cloudsql", "sycl-bench:us-central1:benchmarks", "Cloud SQL `instance` for -cloud")
)

// mysqlDatabase creates a uniquely named MySQL database on the Cloud SQL
// instance and returns its DSN and a function that drops it.
func mysqlDatabase(t *testing.T) (dsn string, drop func()) {
	buf := make([]byte, 6)
	if _, err := rand.Read(buf); err != nil {
		t.Fatal(err)
	}
	name := "benchpipe-test-" + base64.RawURLEncoding.EncodeToString(buf)
	server := fmt.Sprintf("root:@cloudsql(%s)/", *cloudsql)

	admin, err := sql.Open("mysql", server)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := admin.Exec(fmt.Sprintf("CREATE DATABASE `%s`", name)); err != nil {
		admin.Close()
		t.Fatal(err)
	}
	t.Logf("benchmark results in MySQL database %q", name)

	return server + name, func() {
		if _, err := admin.Exec(fmt.Sprintf("DROP DATABASE `%s`", name)); err != nil {
			t.Error(err)
		}
		admin.Close()
	}
}

// NewDB opens an empty results database with the schema in place.
// The returned cleanup closes it (and drops it under -cloud); call it
// instead of Close.
func NewDB(t *testing.T) (d *db.DB, cleanup func()) {
	driver, dsn := "sqlite3", ":memory:"
	drop := func() {}
	if *cloud {
		driver = "mysql"
		dsn, drop = mysqlDatabase(t)
	}
	d, err := db.OpenSQL(driver, dsn)
	if err != nil {
		drop()
		t.Fatalf("open %s results database: %v", driver, err)
	}
	cleanup = func() {
		d.Close()
		drop()
	}

	// A leftover run would make every import count wrong.
	runs, err := d.CountRuns(context.Background())
	if err != nil {
		cleanup()
		t.Fatal(err)
	}
	if runs != 0 {
		cleanup()
		t.Fatalf("new results database already has %d run(s)", runs)
	}
	return d, cleanup
}
