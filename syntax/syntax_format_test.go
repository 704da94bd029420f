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

package syntax_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"go.protots.org/protots/internal/testutil"
	"go.protots.org/protots/syntax"
)

func TestFormatRoundTrip(t *testing.T) {
	t.Parallel()

	srcs := []string{
		demoSrc,
		"",
		`package a; message M { .a.M self = 1; bytes b = 2 [json_name = "q\"\\\n"]; }`,
		strings.Repeat("message M { ", 10) + strings.Repeat("} ", 10),
	}
	for _, src := range srcs {
		pkg := testutil.MustParse(t, src)
		formatted := syntax.Format(pkg)
		reparsed, err := syntax.Parse([]byte(formatted))
		require.NoError(t, err, "formatted source:\n%s", formatted)
		testutil.ExpectDeepEq(t, pkg, reparsed, ignoreSpans)

		// Formatting is idempotent.
		testutil.ExpectNoDiff(t, formatted, syntax.Format(reparsed))
	}
}

func TestFormatGolden(t *testing.T) {
	testutil.Golden{
		Pattern:   "testdata/format/*.proto",
		Extension: "golden",
		Test: func(t *testing.T, path string, src []byte) string {
			pkg, err := syntax.Parse(src)
			require.NoError(t, err)
			return syntax.Format(pkg)
		},
	}.Run(t)
}
