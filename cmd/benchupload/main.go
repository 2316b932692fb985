// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// benchupload stores a CSV file written by benchparse in the
// benchmark results database.
//
// Usage:
//
//	benchupload -benchmark-type {cutlass|xetla} -csv-data-file path [-driver name] [-dsn dsn]
//
// By default it connects to PostgreSQL using the connection string in
// the DB_CONNECTION_STRING environment variable.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/cheggaaa/pb/v3"
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	"github.com/sycl-bench/benchpipe/benchlog"
	"github.com/sycl-bench/benchpipe/storage/db"
	_ "github.com/sycl-bench/benchpipe/storage/db/sqlite3"
)

func usage() {
	fmt.Fprintf(flag.CommandLine.Output(), `Usage: benchupload -benchmark-type {cutlass|xetla} -csv-data-file path [-driver name] [-dsn dsn]

benchupload stores benchmark results from a CSV file in the results
database. Importing the same file again updates the stored rows.
`)
	flag.PrintDefaults()
}

var (
	kind     benchlog.Kind
	csvFile  = flag.String("csv-data-file", "", "read results from the CSV file at `path`")
	driver   = flag.String("driver", "postgres", "database driver: postgres, mysql or sqlite3")
	dsn      = flag.String("dsn", "", "database `connection string` (default postgresql://$DB_CONNECTION_STRING)")
	progress = flag.Bool("progress", true, "show a progress bar")
)

func init() {
	flag.Var(&kind, "benchmark-type", "results format: cutlass or xetla")
}

func main() {
	log.SetPrefix("benchupload: ")
	log.SetFlags(0)

	flag.Usage = usage
	flag.Parse()

	kindSet := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "benchmark-type" {
			kindSet = true
		}
	})
	if !kindSet || *csvFile == "" || flag.NArg() != 0 {
		usage()
		os.Exit(2)
	}

	source, err := dataSource(*dsn, os.Getenv("DB_CONNECTION_STRING"))
	if err != nil {
		log.Fatal(err)
	}
	d, err := db.OpenSQL(*driver, source)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	stats, err := upload(context.Background(), d, kind, *csvFile, *progress)
	d.Close()
	if err != nil {
		log.Fatalf("%s: %v", *csvFile, err)
	}
	log.Printf("%s: %d runs, %d rows inserted, %d rows updated", *csvFile, stats.Runs, stats.Inserted, stats.Updated)
}

// dataSource returns the DSN to connect with: dsn if set, otherwise a
// PostgreSQL URL built from the connection string in env.
func dataSource(dsn, env string) (string, error) {
	if dsn != "" {
		return dsn, nil
	}
	if env == "" {
		return "", fmt.Errorf("no -dsn given and DB_CONNECTION_STRING is not set")
	}
	return "postgresql://" + env, nil
}

// upload imports the CSV file at path into d.
func upload(ctx context.Context, d *db.DB, kind benchlog.Kind, path string, progress bool) (db.ImportStats, error) {
	f, err := os.Open(path)
	if err != nil {
		return db.ImportStats{}, err
	}
	t, err := db.ReadCSV(f)
	f.Close()
	if err != nil {
		return db.ImportStats{}, err
	}

	var step func()
	if progress {
		bar := pb.StartNew(t.Len())
		defer bar.Finish()
		step = func() { bar.Increment() }
	}
	return d.Import(ctx, kind, t, step)
}
