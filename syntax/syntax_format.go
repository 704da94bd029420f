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
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"
)

// Format renders a package as canonical .proto source. Parsing the output
// yields a package equal to pkg, apart from source spans.
func Format(pkg *Package) string {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "syntax = %s;\n", quote(pkg.Syntax.String()))
	if len(pkg.Path) > 0 {
		fmt.Fprintf(&buf, "\npackage %s;\n", pkg.Name())
	}
	if len(pkg.Imports) > 0 {
		buf.WriteByte('\n')
		for _, path := range pkg.Imports {
			fmt.Fprintf(&buf, "import %s;\n", quote(path))
		}
	}
	for _, decl := range pkg.Declarations {
		buf.WriteByte('\n')
		switch decl := decl.(type) {
		case *MessageDeclaration:
			formatMessage(&buf, decl, 0)
		case *EnumDeclaration:
			formatEnum(&buf, decl, 0)
		}
	}
	return buf.String()
}

func indent(buf *bytes.Buffer, depth int) {
	for range depth {
		buf.WriteString("  ")
	}
}

func formatMessage(buf *bytes.Buffer, msg *MessageDeclaration, depth int) {
	indent(buf, depth)
	fmt.Fprintf(buf, "message %s {\n", msg.Name)
	formatEntries(buf, msg.Entries, depth+1)
	indent(buf, depth)
	buf.WriteString("}\n")
}

func formatEntries(buf *bytes.Buffer, entries []MessageEntry, depth int) {
	for _, entry := range entries {
		switch entry := entry.(type) {
		case *FieldDeclaration:
			formatField(buf, entry, depth)
		case *MessageDeclaration:
			formatMessage(buf, entry, depth)
		case *EnumDeclaration:
			formatEnum(buf, entry, depth)
		case *OneOfDeclaration:
			indent(buf, depth)
			fmt.Fprintf(buf, "oneof %s {\n", entry.Name)
			for _, field := range entry.Options {
				formatField(buf, field, depth+1)
			}
			indent(buf, depth)
			buf.WriteString("}\n")
		}
	}
}

func formatField(buf *bytes.Buffer, field *FieldDeclaration, depth int) {
	indent(buf, depth)
	fmt.Fprintf(buf, "%s %s = %d", field.Type, field.Name, field.Tag)
	if field.Attributes != nil {
		buf.WriteString(" [")
		for ii, attr := range field.Attributes {
			if ii > 0 {
				buf.WriteString(", ")
			}
			fmt.Fprintf(buf, "%s = %s", attr.Key, quote(attr.Value))
		}
		buf.WriteString("]")
	}
	buf.WriteString(";\n")
}

func formatEnum(buf *bytes.Buffer, enum *EnumDeclaration, depth int) {
	indent(buf, depth)
	fmt.Fprintf(buf, "enum %s {\n", enum.Name)
	for _, entry := range enum.Entries {
		indent(buf, depth+1)
		fmt.Fprintf(buf, "%s = %d;\n", entry.Name, entry.Value)
	}
	indent(buf, depth)
	buf.WriteString("}\n")
}

// quote renders s as a double-quoted string literal using only the escapes
// the lexer accepts.
func quote(s string) string {
	escapeHigh := !utf8.ValidString(s)
	var buf strings.Builder
	buf.WriteByte('"')
	for ii := 0; ii < len(s); ii++ {
		switch c := s[ii]; c {
		case '"':
			buf.WriteString(`\"`)
		case '\\':
			buf.WriteString(`\\`)
		case '\n':
			buf.WriteString(`\n`)
		case '\r':
			buf.WriteString(`\r`)
		case '\t':
			buf.WriteString(`\t`)
		default:
			if c < 0x20 || c == 0x7F || (escapeHigh && c >= 0x80) {
				fmt.Fprintf(&buf, `\x%02x`, c)
			} else {
				buf.WriteByte(c)
			}
		}
	}
	buf.WriteByte('"')
	return buf.String()
}
