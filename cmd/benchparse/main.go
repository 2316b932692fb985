// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// benchparse parses a CUTLASS or XeTLA benchmark log and writes the
// normalized results as CSV next to the log, with the run context
// given by -run-info prepended to every row.
//
// Usage:
//
//	benchparse -benchmark-type {cutlass|xetla} -log-file path [-run-info k=v [k=v ...]]
//
// The output for dir/name.log is dir/name.csv.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/sycl-bench/benchpipe/benchlog"
)

func usage() {
	fmt.Fprintf(flag.CommandLine.Output(), `Usage: benchparse -benchmark-type {cutlass|xetla} -log-file path [-run-info k=v [k=v ...]]

benchparse parses a benchmark log and writes its normalized results as
CSV next to the log, with the run context prepended to every row.
`)
	flag.PrintDefaults()
}

// pairsFlag collects repeated key=value flag values.
type pairsFlag []string

func (p *pairsFlag) String() string { return strings.Join(*p, " ") }

func (p *pairsFlag) Set(s string) error {
	*p = append(*p, s)
	return nil
}

var (
	kind     benchlog.Kind
	logFile  = flag.String("log-file", "", "read the benchmark log from `path`")
	summary  = flag.Bool("summary", false, "log a one-line summary of the parsed results")
	runPairs pairsFlag
)

func init() {
	flag.Var(&kind, "benchmark-type", "log format: cutlass or xetla")
	flag.Var(&runPairs, "run-info", "run context `key=value`; may be repeated, and further key=value arguments follow it")
}

// runInfo combines the -run-info values with trailing key=value
// arguments. With neither, the CSV carries only benchmark columns.
func runInfo(flagPairs, args []string) (benchlog.RunInfo, error) {
	pairs := append(append([]string(nil), flagPairs...), args...)
	return benchlog.ParseRunInfo(pairs)
}

func main() {
	log.SetPrefix("benchparse: ")
	log.SetFlags(0)

	flag.Usage = usage
	flag.Parse()

	kindSet := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "benchmark-type" {
			kindSet = true
		}
	})
	if !kindSet || *logFile == "" {
		usage()
		os.Exit(2)
	}

	info, err := runInfo(runPairs, flag.Args())
	if err != nil {
		log.Fatal(err)
	}

	f, err := os.Open(*logFile)
	if err != nil {
		log.Fatal(err)
	}
	t, err := benchlog.Parse(kind, f, *logFile)
	f.Close()
	if err != nil {
		log.Fatal(err)
	}
	if *summary {
		log.Print(benchlog.Summarize(kind, t))
	}

	path, err := benchlog.WriteFile(*logFile, info, t)
	if err != nil {
		log.Fatal(err)
	}
	if path != "" {
		log.Printf("wrote %d rows to %s", t.Len(), path)
	}
}
