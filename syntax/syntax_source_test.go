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
	"testing"

	"github.com/stretchr/testify/assert"

	"go.protots.org/protots/syntax"
)

func TestLineIndex(t *testing.T) {
	t.Parallel()

	src := []byte("ab\r\ncd\n日本x\n")
	idx := syntax.NewLineIndex(src)

	tests := []struct {
		offset uint32
		want   syntax.Position
	}{
		{0, syntax.Position{Line: 1, Column: 1}},
		{1, syntax.Position{Line: 1, Column: 2}},
		{4, syntax.Position{Line: 2, Column: 1}},
		{5, syntax.Position{Line: 2, Column: 2}},
		{7, syntax.Position{Line: 3, Column: 1}},
		{13, syntax.Position{Line: 3, Column: 5}},
		{15, syntax.Position{Line: 4, Column: 1}},
		{99, syntax.Position{Line: 4, Column: 1}},
	}
	for _, test := range tests {
		assert.Equal(t, test.want, idx.Position(test.offset), "offset %d", test.offset)
	}

	assert.Equal(t, "ab", idx.Line(1))
	assert.Equal(t, "cd", idx.Line(2))
	assert.Equal(t, "日本x", idx.Line(3))
	assert.Equal(t, "", idx.Line(4))
	assert.Equal(t, "", idx.Line(5))
	assert.Equal(t, "3:5", idx.Position(13).String())
}
