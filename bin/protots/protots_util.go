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

package main

import (
	"fmt"
	"io"
	"path/filepath"
	"slices"
	"strings"

	"go.protots.org/protots/syntax"
)

func splitPath(path string) []string {
	var out []string
	for {
		dir, file := filepath.Split(path)
		if dir == "" {
			out = append(out, file)
			slices.Reverse(out)
			return out
		}
		out = append(out, file)
		path = dir[:len(dir)-1]
	}
}

// importName is the name other files use to import path: its slash-separated
// location below the first import path containing it.
func importName(importPaths []string, path string) string {
	path = filepath.Clean(path)
	for _, dir := range importPaths {
		rel, err := filepath.Rel(dir, path)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			continue
		}
		return strings.Join(splitPath(rel), "/")
	}
	return strings.Join(splitPath(path), "/")
}

type diagnostic interface {
	Code() uint32
	Message() string
	Span() syntax.Span
}

// report prints a diagnostic as "path:line:col: E3100: message". Diagnostics
// without a span are printed without a position.
func report(w io.Writer, file *sourceFile, severity byte, d diagnostic) {
	span := d.Span()
	if span.Start() == 0 && span.Len() == 0 {
		fmt.Fprintf(w, "%s: %c%d: %s\n", file.path, severity, d.Code(), d.Message())
		return
	}
	pos := file.lines.Position(span.Start())
	fmt.Fprintf(w, "%s:%s: %c%d: %s\n", file.path, pos, severity, d.Code(), d.Message())
}
