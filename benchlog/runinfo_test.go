// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package benchlog

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseRunInfo(t *testing.T) {
	got, err := ParseRunInfo([]string{"platform=bmg", "sha=abc", "compiler=icpx=2025.0", "platform=pvc", "driver="})
	if err != nil {
		t.Fatal(err)
	}
	want := RunInfo{{"platform", "pvc"}, {"sha", "abc"}, {"compiler", "icpx=2025.0"}, {"driver", ""}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ParseRunInfo (-want +got):\n%s", diff)
	}
	if v, ok := got.Get("compiler"); !ok || v != "icpx=2025.0" {
		t.Errorf("Get(compiler) = %q, %v", v, ok)
	}
	if _, ok := got.Get("branch"); ok {
		t.Errorf("Get(branch) found a value")
	}
	if s, want := got.String(), "platform=pvc sha=abc compiler=icpx=2025.0 driver="; s != want {
		t.Errorf("String() = %q, want %q", s, want)
	}
}

func TestParseRunInfoErrors(t *testing.T) {
	for _, in := range []string{"platform", "=bmg"} {
		if _, err := ParseRunInfo([]string{in}); err == nil {
			t.Errorf("ParseRunInfo(%q) succeeded, want error", in)
		}
	}
}
