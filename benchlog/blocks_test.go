// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package benchlog

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// lines numbers the lines of s.
func lines(s string) []Line {
	var out []Line
	for i, text := range strings.Split(strings.TrimSuffix(s, "\n"), "\n") {
		out = append(out, Line{i + 1, text})
	}
	return out
}

// blockNums returns the line numbers of each block.
func blockNums(blocks []Block) [][]int {
	var out [][]int
	for _, b := range blocks {
		var nums []int
		for _, l := range b.Lines {
			nums = append(nums, l.Num)
		}
		out = append(out, nums)
	}
	return out
}

var blockTests = []struct {
	name  string
	input string
	want  [][]int
}{
	{
		"basic",
		`[ RUN      ] A
x
[       OK ] A
[ RUN      ] B
[  FAILED  ] B
`,
		[][]int{{1, 2, 3}, {4, 5}},
	},
	{
		"no markers",
		"hello\nworld\n",
		nil,
	},
	{
		"stray end",
		`[       OK ] A
[ RUN ] B
y
[ OK ] B
[ FAILED ] C
`,
		[][]int{{2, 3, 4}},
	},
	{
		"dangling start",
		`[ RUN ] A
x
[ OK ] A
[ RUN ] B
y
`,
		[][]int{{1, 2, 3}},
	},
	{
		"restart",
		`[ RUN ] A
x
[ RUN ] B
y
[ OK ] B
`,
		[][]int{{3, 4, 5}},
	},
	{
		"no inner whitespace",
		`[RUN] A
[OK] A
`,
		nil,
	},
	{
		"repeated end",
		`[ RUN ] A
[ OK ] A
[ OK ] A
[ RUN ] B
z
[ FAILED ] B
`,
		[][]int{{1, 2}, {4, 5, 6}},
	},
	{
		"tabs",
		"[\tRUN\t] A\n[\tOK\t] A\n",
		[][]int{{1, 2}},
	},
}

func TestExtractBlocks(t *testing.T) {
	for _, test := range blockTests {
		t.Run(test.name, func(t *testing.T) {
			got := blockNums(ExtractBlocks(lines(test.input)))
			if diff := cmp.Diff(test.want, got); diff != "" {
				t.Errorf("wrong blocks (-want +got):\n%s", diff)
			}
		})
	}
}

func TestBlockReader(t *testing.T) {
	for _, test := range blockTests {
		t.Run(test.name, func(t *testing.T) {
			r := NewBlockReader(strings.NewReader(test.input), "test")
			var blocks []Block
			for r.Scan() {
				b := r.Block()
				if b.FileName != "test" {
					t.Errorf("FileName = %q, want %q", b.FileName, "test")
				}
				blocks = append(blocks, b)
			}
			if err := r.Err(); err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(test.want, blockNums(blocks)); diff != "" {
				t.Errorf("wrong blocks (-want +got):\n%s", diff)
			}
		})
	}
}

// TestBlockBounds checks that every block opens with a start marker,
// closes with an end marker, and has no marker in between.
func TestBlockBounds(t *testing.T) {
	for _, test := range blockTests {
		for _, b := range ExtractBlocks(lines(test.input)) {
			n := len(b.Lines)
			if !blockStart.MatchString(b.Lines[0].Text) {
				t.Errorf("%s: block starts with %q", test.name, b.Lines[0].Text)
			}
			if !blockEnd.MatchString(b.Lines[n-1].Text) {
				t.Errorf("%s: block ends with %q", test.name, b.Lines[n-1].Text)
			}
			for _, l := range b.Lines[1 : n-1] {
				if blockStart.MatchString(l.Text) || blockEnd.MatchString(l.Text) {
					t.Errorf("%s: marker %q inside block", test.name, l.Text)
				}
			}
		}
	}
}

func TestReadLines(t *testing.T) {
	got, err := ReadLines(strings.NewReader("a\r\nb\n\nc"))
	if err != nil {
		t.Fatal(err)
	}
	want := []Line{{1, "a"}, {2, "b"}, {3, ""}, {4, "c"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ReadLines (-want +got):\n%s", diff)
	}
}
