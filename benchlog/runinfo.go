// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package benchlog

import (
	"fmt"
	"strings"
)

// A RunField is one key/value pair of run context.
type RunField struct {
	Key, Value string
}

// RunInfo is the run context of a log: the platform, git reference,
// compiler and driver versions and so on that identify one benchmark
// session. Order is significant; it is the column order of the output.
type RunInfo []RunField

// ParseRunInfo parses "key=value" pairs. The value is everything after
// the first "=". A repeated key keeps its first position and takes its
// last value.
func ParseRunInfo(pairs []string) (RunInfo, error) {
	var info RunInfo
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("run info %q: want key=value", pair)
		}
		if key == "" {
			return nil, fmt.Errorf("run info %q: empty key", pair)
		}
		info = info.With(key, value)
	}
	return info, nil
}

// With returns info with key set to value.
func (info RunInfo) With(key, value string) RunInfo {
	for i := range info {
		if info[i].Key == key {
			info[i].Value = value
			return info
		}
	}
	return append(info, RunField{key, value})
}

// Get returns the value of key and whether it is present.
func (info RunInfo) Get(key string) (string, bool) {
	for _, f := range info {
		if f.Key == key {
			return f.Value, true
		}
	}
	return "", false
}

// Keys returns the keys of info in order.
func (info RunInfo) Keys() []string {
	keys := make([]string, len(info))
	for i, f := range info {
		keys[i] = f.Key
	}
	return keys
}

func (info RunInfo) String() string {
	parts := make([]string, len(info))
	for i, f := range info {
		parts[i] = f.Key + "=" + f.Value
	}
	return strings.Join(parts, " ")
}
