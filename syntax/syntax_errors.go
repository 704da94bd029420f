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
	"math"
	"unicode/utf8"
)

// An Error is a syntax error in a .proto source file. Codes 1000-1999 are
// raised by the lexer and codes 2000-2999 by the parser.
type Error struct {
	code    uint32
	message string
	span    Span
}

var _ error = (*Error)(nil)

func (err *Error) Error() string {
	return fmt.Sprintf("E%d: %s", err.code, err.message)
}

func (err *Error) Code() uint32 {
	return err.code
}

func (err *Error) Message() string {
	return err.message
}

func (err *Error) Span() Span {
	return err.span
}

// An InternalError reports that the parser's task and value stacks fell out
// of agreement. It is raised with panic and is never the result of malformed
// input.
type InternalError struct {
	Message string

	// State is a dump of both stacks and the upcoming tokens.
	State string
}

func (err *InternalError) Error() string {
	return fmt.Sprintf("internal parser error: %s\n%s", err.Message, err.State)
}

func errSourceTooLong(srcLen int) error {
	lenUint32 := uint32(math.MaxUint32)
	if uint64(srcLen) < math.MaxUint32 {
		lenUint32 = uint32(srcLen)
	}
	return &Error{
		code: 1000,
		message: fmt.Sprintf(
			"Source file size (%d bytes) exceeds maximum (%d bytes)",
			srcLen, maxSrcLen,
		),
		span: Span{0, lenUint32},
	}
}

func errInvalidUtf8(src []byte) error {
	var off uint32
	for len(src) > 0 {
		r, size := utf8.DecodeRune(src)
		if r == utf8.RuneError && size <= 1 {
			break
		}
		off += uint32(size)
		src = src[size:]
	}
	return &Error{
		code:    1001,
		message: "Source file contains invalid UTF-8",
		span:    Span{off, 1},
	}
}

func errUnexpectedCharacter(start uint32, r rune) error {
	return &Error{
		code:    1002,
		message: fmt.Sprintf("Unexpected character '%s' (U+%04X)", string(r), r),
		span:    Span{start, uint32(utf8.RuneLen(r))},
	}
}

func errForbiddenControlCharacter(start uint32, c byte) error {
	return &Error{
		code:    1003,
		message: fmt.Sprintf("Forbidden control character U+%04X", c),
		span:    Span{start, 1},
	}
}

func errIntLitInvalid(start uint32, token []byte) error {
	return &Error{
		code:    1005,
		message: fmt.Sprintf("Invalid integer literal %q", token),
		span:    Span{start, uint32(len(token))},
	}
}

func errTextLitUnterminated(start, tokenLen uint32) error {
	return &Error{
		code:    1006,
		message: "Unterminated string literal",
		span:    Span{start, tokenLen},
	}
}

func errTextLitContainsNewline(start, newlineLen uint32) error {
	return &Error{
		code:    1007,
		message: "String literals may not contain newlines",
		span:    Span{start, newlineLen},
	}
}

func errTextLitInvalidEscape(start uint32, escape []byte) error {
	return &Error{
		code:    1008,
		message: fmt.Sprintf("Invalid escape sequence %q in string literal", escape),
		span:    Span{start, uint32(len(escape))},
	}
}

func errCommentUnterminated(start, tokenLen uint32) error {
	return &Error{
		code:    1009,
		message: "Unterminated block comment",
		span:    Span{start, tokenLen},
	}
}

func errIntLitOutOfRange(start uint32, token []byte) error {
	return &Error{
		code:    1010,
		message: fmt.Sprintf("Integer literal %s does not fit in 64 bits", token),
		span:    Span{start, uint32(len(token))},
	}
}

func errExpectedSigil(want TokenKind, got Token) error {
	var code uint32
	switch want {
	case T_SEMI:
		code = 2000
	case T_EQ:
		code = 2001
	case T_DOT:
		code = 2002
	case T_COMMA:
		code = 2003
	case T_LESS:
		code = 2004
	case T_GREATER:
		code = 2005
	case T_OPEN_CURL:
		code = 2006
	case T_CLOSE_CURL:
		code = 2007
	case T_OPEN_SQUARE:
		code = 2008
	case T_CLOSE_SQUARE:
		code = 2009
	default:
		panic(fmt.Sprintf("errExpectedSigil(%v)", want))
	}
	return &Error{
		code:    code,
		message: fmt.Sprintf("Expected %s, got %s", want.describe(), got.describe()),
		span:    got.Span,
	}
}

func errExpectedIntLit(got Token) error {
	return &Error{
		code:    2010,
		message: fmt.Sprintf("Expected integer literal, got %s", got.describe()),
		span:    got.Span,
	}
}

func errExpectedTextLit(got Token) error {
	return &Error{
		code:    2011,
		message: fmt.Sprintf("Expected string literal, got %s", got.describe()),
		span:    got.Span,
	}
}

func errExpectedIdent(got Token) error {
	return &Error{
		code:    2012,
		message: fmt.Sprintf("Expected identifier, got %s", got.describe()),
		span:    got.Span,
	}
}

func errExpectedKeyword(keyword string, got Token) error {
	return &Error{
		code:    2013,
		message: fmt.Sprintf("Expected keyword %q, got %s", keyword, got.describe()),
		span:    got.Span,
	}
}

func errExpectedTypeName(got Token) error {
	return &Error{
		code:    2014,
		message: fmt.Sprintf("Expected field type, got %s", got.describe()),
		span:    got.Span,
	}
}

func errUnexpectedToken(got Token) error {
	return &Error{
		code:    2015,
		message: fmt.Sprintf("Unexpected %s at top level", got.describe()),
		span:    got.Span,
	}
}

func errUnexpectedIdent(got Token) error {
	return &Error{
		code:    2016,
		message: fmt.Sprintf("Unexpected identifier: %s", got.Text),
		span:    got.Span,
	}
}

func errUnexpectedEnd(production string, eof Token) error {
	return &Error{
		code:    2017,
		message: fmt.Sprintf("Unexpected end of input in %s", production),
		span:    eof.Span,
	}
}

func errInvalidSyntaxStatement(got Token) error {
	return &Error{
		code:    2020,
		message: fmt.Sprintf("Invalid syntax statement: unexpected %s", got.describe()),
		span:    got.Span,
	}
}

func errUnsupportedSyntax(got Token) error {
	return &Error{
		code: 2021,
		message: fmt.Sprintf(
			"Invalid syntax statement: unsupported syntax %q (expected \"proto2\" or \"proto3\")",
			got.Text,
		),
		span: got.Span,
	}
}

func errInvalidImportStatement(got Token) error {
	return &Error{
		code:    2022,
		message: fmt.Sprintf("Invalid import statement: unexpected %s", got.describe()),
		span:    got.Span,
	}
}

func errOneofNonField(oneof string, entry MessageEntry, span Span) error {
	return &Error{
		code: 2023,
		message: fmt.Sprintf(
			"oneof %q can contain only field declarations, found %s",
			oneof, describeEntry(entry),
		),
		span: span,
	}
}

func errNestedCollection(got Token) error {
	return &Error{
		code:    2024,
		message: fmt.Sprintf("%q cannot be used as the element type of a repeated or map field", got.Text),
		span:    got.Span,
	}
}

func errExpectedMessageEntry(got Token) error {
	return &Error{
		code:    2025,
		message: fmt.Sprintf("Expected message entry or '}', got %s", got.describe()),
		span:    got.Span,
	}
}

func errExpectedEnumEntry(got Token) error {
	return &Error{
		code:    2026,
		message: fmt.Sprintf("Expected enum entry or '}', got %s", got.describe()),
		span:    got.Span,
	}
}

func errNestingTooDeep(limit int, got Token) error {
	return &Error{
		code:    2027,
		message: fmt.Sprintf("Declarations nested too deeply (limit %d pending tasks)", limit),
		span:    got.Span,
	}
}

func describeEntry(entry MessageEntry) string {
	switch entry := entry.(type) {
	case *FieldDeclaration:
		return fmt.Sprintf("field %q", entry.Name)
	case *MessageDeclaration:
		return fmt.Sprintf("message %q", entry.Name)
	case *EnumDeclaration:
		return fmt.Sprintf("enum %q", entry.Name)
	case *OneOfDeclaration:
		return fmt.Sprintf("oneof %q", entry.Name)
	default:
		return fmt.Sprintf("%T", entry)
	}
}
