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

package emit

import (
	"fmt"
	"strings"
)

// Dump renders a function as an indented listing, one statement per line.
func Dump(fn *Func) string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "func %s(", fn.Name)
	for ii, param := range fn.Params {
		if ii > 0 {
			buf.WriteString(", ")
		}
		buf.WriteString(param.Name)
		if param.Optional {
			buf.WriteByte('?')
		}
		buf.WriteString(": ")
		buf.WriteString(param.Type)
	}
	fmt.Fprintf(&buf, "): %s\n", fn.Returns)
	dumpStmts(&buf, fn.Body, 1)
	return buf.String()
}

func dumpStmts(buf *strings.Builder, stmts []Stmt, depth int) {
	for _, stmt := range stmts {
		buf.WriteString(strings.Repeat("  ", depth))
		switch stmt := stmt.(type) {
		case WriteTag:
			fmt.Fprintf(buf, "tag %d:%s (0x%02x)\n", stmt.Field, wireTypeName(stmt.Wire), stmt.Prefix())
		case WriteValue:
			fmt.Fprintf(buf, "%s %s", stmt.Kind, DumpExpr(stmt.Value))
			if stmt.Enum != "" {
				fmt.Fprintf(buf, " (enum %s)", stmt.Enum)
			}
			buf.WriteByte('\n')
		case Fork:
			buf.WriteString("fork\n")
		case Ldelim:
			buf.WriteString("ldelim\n")
		case If:
			fmt.Fprintf(buf, "if %s\n", DumpCond(stmt.Cond))
			dumpStmts(buf, stmt.Then, depth+1)
		case ForEach:
			fmt.Fprintf(buf, "for %s in %s\n", stmt.Var, DumpExpr(stmt.Over))
			dumpStmts(buf, stmt.Body, depth+1)
		case ForEachEntry:
			fmt.Fprintf(buf, "for %s, %s in %s\n", stmt.Key, stmt.Value, DumpExpr(stmt.Over))
			dumpStmts(buf, stmt.Body, depth+1)
		case EncodeMessage:
			fmt.Fprintf(buf, "encode %s(%s)\n", stmt.Message, DumpExpr(stmt.Value))
		default:
			panic(fmt.Sprintf("emit.Dump: unknown statement %T", stmt))
		}
	}
}

func DumpExpr(expr Expr) string {
	switch expr := expr.(type) {
	case Field:
		return MessageParam + "." + expr.Name
	case Var:
		return expr.Name
	default:
		panic(fmt.Sprintf("emit.DumpExpr: unknown expression %T", expr))
	}
}

func DumpCond(cond Cond) string {
	switch cond := cond.(type) {
	case Present:
		return "present(" + DumpExpr(cond.Value) + ")"
	case NonEmpty:
		return "nonempty(" + DumpExpr(cond.Value) + ")"
	default:
		panic(fmt.Sprintf("emit.DumpCond: unknown condition %T", cond))
	}
}
