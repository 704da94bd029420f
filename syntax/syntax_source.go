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

package syntax

import (
	"fmt"
	"sort"

	"github.com/rivo/uniseg"
)

// A Position is a 1-based line and column. Columns count terminal cells, so
// wide characters before the position count twice.
type Position struct {
	Line   int
	Column int
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// A LineIndex maps byte offsets within a source file to positions.
type LineIndex struct {
	src        []byte
	lineStarts []uint32
}

func NewLineIndex(src []byte) *LineIndex {
	lineStarts := []uint32{0}
	for ii, c := range src {
		if c == '\n' {
			lineStarts = append(lineStarts, uint32(ii+1))
		}
	}
	return &LineIndex{
		src:        src,
		lineStarts: lineStarts,
	}
}

func (idx *LineIndex) Position(offset uint32) Position {
	if int(offset) > len(idx.src) {
		offset = uint32(len(idx.src))
	}
	line := sort.Search(len(idx.lineStarts), func(ii int) bool {
		return idx.lineStarts[ii] > offset
	}) - 1
	prefix := idx.src[idx.lineStarts[line]:offset]
	return Position{
		Line:   line + 1,
		Column: uniseg.StringWidth(string(prefix)) + 1,
	}
}

// Line returns the text of the 1-based line n, without its line terminator.
func (idx *LineIndex) Line(n int) string {
	if n < 1 || n > len(idx.lineStarts) {
		return ""
	}
	start := idx.lineStarts[n-1]
	end := uint32(len(idx.src))
	if n < len(idx.lineStarts) {
		end = idx.lineStarts[n] - 1
	}
	line := idx.src[start:end]
	if len(line) > 0 && line[len(line)-1] == '\r' {
		line = line[:len(line)-1]
	}
	return string(line)
}
