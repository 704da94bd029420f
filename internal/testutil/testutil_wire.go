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
	"bytes"
	"testing"

	"github.com/protocolbuffers/protoscope"
)

// Protoscope assembles protoscope text into wire-format bytes.
func Protoscope(t *testing.T, text string) []byte {
	t.Helper()
	out, err := protoscope.NewScanner(text).Exec()
	if err != nil {
		t.Fatalf("protoscope %q: %v", text, err)
	}
	return out
}

// ExpectWire compares encoded messages, showing a protoscope disassembly of
// both sides on mismatch.
func ExpectWire(t *testing.T, want, got []byte) {
	t.Helper()
	if bytes.Equal(want, got) {
		return
	}
	t.Errorf("Wire bytes differ\nwant: % x\ngot:  % x\n%s",
		want, got,
		unifiedDiff(
			protoscope.Write(want, protoscope.WriterOptions{}),
			protoscope.Write(got, protoscope.WriterOptions{}),
		))
}
