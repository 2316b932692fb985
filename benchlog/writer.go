// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package benchlog

import (
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
)

// Logf reports warnings from this package. Tests replace it.
var Logf = log.Printf

// A Writer writes tables as CSV, prefixing each row with run context.
type Writer struct {
	w       io.Writer
	runInfo RunInfo
}

// NewWriter returns a writer that writes CSV to w with the run context
// columns of runInfo first.
func NewWriter(w io.Writer, runInfo RunInfo) *Writer {
	return &Writer{w: w, runInfo: runInfo}
}

// Write writes t's header and rows. It is an error for a run context
// key to name one of t's columns.
func (w *Writer) Write(t *Table) error {
	for _, key := range w.runInfo.Keys() {
		if t.ColumnIndex(key) >= 0 {
			return fmt.Errorf("run info key %q is already a benchmark column", key)
		}
	}
	prefix := make([]string, len(w.runInfo))
	for i, f := range w.runInfo {
		prefix[i] = f.Value
	}

	cw := csv.NewWriter(w.w)
	header := append(w.runInfo.Keys(), t.Columns...)
	if err := cw.Write(header); err != nil {
		return err
	}
	record := make([]string, 0, len(header))
	for _, row := range t.Rows {
		record = append(append(record[:0], prefix...), row...)
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// OutputPath returns the CSV path for a log: the log's base name with
// its extension replaced by ".csv", in the log's directory.
func OutputPath(logPath string) string {
	base := filepath.Base(logPath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(filepath.Dir(logPath), stem+".csv")
}

// WriteFile writes t as CSV next to the log it was parsed from and
// returns the path written. The file appears only once it is complete.
// If t has no rows, WriteFile logs a warning and writes nothing.
func WriteFile(logPath string, runInfo RunInfo, t *Table) (path string, err error) {
	if t.Len() == 0 {
		Logf("warning: no test runs found in %s", logPath)
		return "", nil
	}
	path = OutputPath(logPath)
	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return "", err
	}
	defer func() {
		if err != nil {
			f.Close()
			os.Remove(f.Name())
		}
	}()
	if err = f.Chmod(0o644); err != nil {
		return "", err
	}
	if err = NewWriter(f, runInfo).Write(t); err != nil {
		return "", err
	}
	if err = f.Close(); err != nil {
		return "", err
	}
	if err = os.Rename(f.Name(), path); err != nil {
		return "", err
	}
	return path, nil
}
