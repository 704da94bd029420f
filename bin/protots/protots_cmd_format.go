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
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"go.protots.org/protots/syntax"
)

type cmdFormat struct {
	g *globals

	write bool
}

func (*cmdFormat) help() *commandHelp {
	return &commandHelp{
		usage:   "format [FILE...]",
		summary: "Print proto files in canonical form",
	}
}

func (cmd *cmdFormat) flags(flags *pflag.FlagSet) {
	flags.BoolVarP(&cmd.write, "write", "w", false, "Rewrite files in place instead of printing them")
}

func (cmd *cmdFormat) run(ctx context.Context, argv []string) int {
	g := cmd.g
	paths, err := g.expandInputs(argv)
	if err != nil {
		fmt.Fprintln(g.stderr, err)
		return 1
	}

	rc := 0
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			fmt.Fprintln(g.stderr, err)
			return 1
		}
		if !cmd.formatFile(path) {
			rc = 1
		}
	}
	return rc
}

func (cmd *cmdFormat) formatFile(path string) bool {
	g := cmd.g
	file := &sourceFile{path: path}
	src, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintln(g.stderr, err)
		return false
	}
	file.lines = syntax.NewLineIndex(src)
	pkg, err := syntax.Parse(src)
	if err != nil {
		var syntaxErr *syntax.Error
		if errors.As(err, &syntaxErr) {
			report(g.stderr, file, 'E', syntaxErr)
		} else {
			fmt.Fprintf(g.stderr, "%s: %v\n", path, err)
		}
		return false
	}

	formatted := []byte(syntax.Format(pkg))
	if !cmd.write {
		_, err = g.stdout.Write(formatted)
	} else if !bytes.Equal(src, formatted) {
		g.logger.Debug("formatting file", "path", path)
		err = os.WriteFile(path, formatted, 0o644)
	}
	if err != nil {
		fmt.Fprintln(g.stderr, err)
		return false
	}
	return true
}
