// Copyright (c) 2024 John Millikin <john@john-millikin.com>
//
// Permission to use, copy, modify, and/or distribute this software for any
// purpose with or without fee is hereby granted.
//
// THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES WITH
// REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF MERCHANTABILITY
// AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR ANY SPECIAL, DIRECT,
// INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES WHATSOEVER RESULTING FROM
// LOSS OF USE, DATA OR PROFITS, WHETHER IN AN ACTION OF CONTRACT, NEGLIGENCE OR
// OTHER TORTIOUS ACTION, ARISING OUT OF OR IN CONNECTION WITH THE USE OR
// PERFORMANCE OF THIS SOFTWARE.
//
// SPDX-License-Identifier: 0BSD

package testutil

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/bmatcuk/doublestar/v4"
)

// RefreshEnv names the environment variable holding a glob of golden files
// to rewrite instead of compare.
const RefreshEnv = "PROTOTS_REFRESH_GOLDEN"

// A Golden runs one test per input file matching Pattern and compares the
// result against the file of the same name with Extension appended.
type Golden struct {
	// Pattern is a doublestar glob relative to the test's package directory,
	// such as "testdata/encode/*.proto".
	Pattern string

	Extension string

	Test func(t *testing.T, path string, src []byte) string
}

func (g Golden) Run(t *testing.T) {
	t.Helper()
	paths, err := doublestar.FilepathGlob(g.Pattern)
	AssertNoError(t, err)
	if len(paths) == 0 {
		t.Fatalf("no test inputs match %q", g.Pattern)
	}

	refresh := os.Getenv(RefreshEnv)
	if refresh != "" && !doublestar.ValidatePattern(refresh) {
		t.Fatalf("invalid %s glob %q", RefreshEnv, refresh)
	}

	for _, path := range paths {
		t.Run(filepath.ToSlash(path), func(t *testing.T) {
			src, err := os.ReadFile(path)
			AssertNoError(t, err)

			got := g.Test(t, path, src)
			goldenPath := path + "." + g.Extension

			if refresh != "" {
				if match, _ := doublestar.Match(refresh, filepath.ToSlash(path)); match {
					AssertNoError(t, os.WriteFile(goldenPath, []byte(got), 0o644))
					t.Logf("refreshed %s", goldenPath)
					return
				}
			}

			want, err := os.ReadFile(goldenPath)
			if err != nil && !errors.Is(err, os.ErrNotExist) {
				t.Fatal(err)
			}
			ExpectNoDiff(t, string(want), got)
		})
	}
}
