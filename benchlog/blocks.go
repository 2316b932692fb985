// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package benchlog

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
)

// A Line is one line of a free-text log, without its line terminator.
type Line struct {
	Num  int // 1-based
	Text string
}

// A Block is the run of lines making up one executed test, from its
// "[ RUN ]" marker line through its "[ OK ]" or "[ FAILED ]" marker
// line inclusive.
type Block struct {
	FileName string // may be empty
	Lines    []Line
}

var (
	blockStart = regexp.MustCompile(`\[\s+RUN\s+\]`)
	blockEnd   = regexp.MustCompile(`\[\s+(OK|FAILED)\s+\]`)
)

// A splitter is the block state machine shared by ExtractBlocks and
// BlockReader.
type splitter struct {
	inside bool
	cur    []Line
}

// step feeds line to s and returns the lines of the block it completes,
// if any.
func (s *splitter) step(line Line) ([]Line, bool) {
	if blockStart.MatchString(line.Text) {
		s.inside = true
		s.cur = nil
	}
	if s.inside {
		s.cur = append(s.cur, line)
	}
	if !blockEnd.MatchString(line.Text) || !s.inside {
		return nil, false
	}
	done := s.cur
	s.inside, s.cur = false, nil
	return done, true
}

// ExtractBlocks slices lines into test blocks.
//
// A start marker begins a new block, discarding any block still being
// collected. An end marker completes the current block; outside a
// block it is ignored. A block that is still open when lines run out
// is dropped.
func ExtractBlocks(lines []Line) []Block {
	var blocks []Block
	var s splitter
	for _, line := range lines {
		if done, ok := s.step(line); ok {
			blocks = append(blocks, Block{Lines: done})
		}
	}
	return blocks
}

// A BlockReader reads test blocks from a free-text log.
//
// Its API is modeled on bufio.Scanner. Unlike ExtractBlocks, it never
// holds more than the current block in memory.
type BlockReader struct {
	s        *bufio.Scanner
	fileName string
	line     int
	err      error

	split splitter
	block Block
}

// NewBlockReader returns a reader of the test blocks in r.
// fileName is used in error messages; it is purely diagnostic.
func NewBlockReader(r io.Reader, fileName string) *BlockReader {
	if fileName == "" {
		fileName = "<unknown>"
	}
	s := bufio.NewScanner(r)
	// gtest output can carry very long lines of kernel arguments.
	s.Buffer(make([]byte, 64*1024), 16*1024*1024)
	return &BlockReader{s: s, fileName: fileName}
}

// Scan advances to the next complete block and reports whether there
// was one. When Scan returns false, Err reports any I/O error.
func (r *BlockReader) Scan() bool {
	if r.err != nil {
		return false
	}
	for r.s.Scan() {
		r.line++
		if done, ok := r.split.step(Line{r.line, r.s.Text()}); ok {
			r.block = Block{FileName: r.fileName, Lines: done}
			return true
		}
	}
	if err := r.s.Err(); err != nil {
		r.err = fmt.Errorf("%s:%d: %w", r.fileName, r.line, err)
	}
	r.block = Block{}
	return false
}

// Block returns the block read by the last successful call to Scan.
// The caller owns the returned block.
func (r *BlockReader) Block() Block {
	return r.block
}

// Err returns the first non-EOF I/O error encountered by r.
func (r *BlockReader) Err() error {
	return r.err
}

// ReadLines reads all of r as numbered lines.
func ReadLines(r io.Reader) ([]Line, error) {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 64*1024), 16*1024*1024)
	var lines []Line
	for s.Scan() {
		lines = append(lines, Line{len(lines) + 1, s.Text()})
	}
	return lines, s.Err()
}
