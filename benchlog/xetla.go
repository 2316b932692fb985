// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package benchlog

import (
	"fmt"
	"io"
)

// ParseXetla reads a XeTLA free-text log from r and returns one row per
// test block, holding the better of the block's two variants. Rows
// identical to an earlier row are dropped.
func ParseXetla(r io.Reader, fileName string) (*Table, error) {
	t := &Table{Columns: append([]string(nil), XetlaColumns...)}
	br := NewBlockReader(r, fileName)
	for br.Scan() {
		block := br.Block()
		methods, err := ParseBlock(block)
		if err != nil {
			return nil, err
		}
		res, err := SelectBest(methods)
		if err != nil {
			return nil, &SyntaxError{block.FileName, block.Lines[0].Num, err.Error()}
		}
		t.Rows = append(t.Rows, res.Row())
	}
	if err := br.Err(); err != nil {
		return nil, fmt.Errorf("reading xetla log: %w", err)
	}
	t.Rows = dedupRows(t.Rows, nil)
	return t, nil
}
