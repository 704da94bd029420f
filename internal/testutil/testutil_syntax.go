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
	"slices"
	"testing"

	"go.protots.org/protots/syntax"
)

// MustParse parses src, failing the test on any syntax error.
func MustParse(t *testing.T, src string) *syntax.Package {
	t.Helper()
	pkg, err := syntax.Parse([]byte(src))
	if err != nil {
		t.Fatalf("syntax.Parse: %v", err)
	}
	return pkg
}

// ExpectSyntaxError checks that err is a *syntax.Error with the given code
// and that its span covers the first occurrence of spanText in src.
func ExpectSyntaxError(t *testing.T, src string, err error, code uint32, spanText string) {
	t.Helper()
	var parseErr *syntax.Error
	if !errors.As(err, &parseErr) {
		t.Fatalf("Expected *syntax.Error, got: %v", err)
	}
	ExpectEq(t, code, parseErr.Code())
	span := parseErr.Span()
	if int(span.End()) > len(src) {
		t.Fatalf("error span [%d, %d) exceeds source length %d", span.Start(), span.End(), len(src))
	}
	ExpectEq(t, spanText, src[span.Start():span.End()])
}

// A Diagnostic is a compiler error or warning.
type Diagnostic interface {
	Code() uint32
	Message() string
}

// ExpectCodes compares the codes of diagnostics, ignoring order.
func ExpectCodes[D Diagnostic](t *testing.T, want []uint32, got []D) {
	t.Helper()
	gotCodes := make([]uint32, 0, len(got))
	for _, d := range got {
		gotCodes = append(gotCodes, d.Code())
	}
	want = slices.Clone(want)
	slices.Sort(want)
	slices.Sort(gotCodes)
	if !slices.Equal(want, gotCodes) {
		for _, d := range got {
			t.Logf("diagnostic %d: %s", d.Code(), d.Message())
		}
		t.Errorf("Expected codes %v, got: %v", want, gotCodes)
	}
}
