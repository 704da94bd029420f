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
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"
)

const maxSrcLen = 0x7FFFFFFF // (2**31)-1

// A Token is one lexeme of a .proto source file.
type Token struct {
	Kind TokenKind
	Span Span

	// Text is the identifier name for T_IDENT, the decoded contents for
	// T_TEXT_LIT, and the raw source text for every other kind.
	Text string

	// Int is the value of a T_INT_LIT.
	Int int64
}

func (t Token) describe() string {
	switch t.Kind {
	case T_IDENT:
		return fmt.Sprintf("identifier %q", t.Text)
	case T_INT_LIT:
		return fmt.Sprintf("integer %d", t.Int)
	case T_TEXT_LIT:
		return fmt.Sprintf("string %q", t.Text)
	default:
		return t.Kind.describe()
	}
}

type TokenKind uint8

const (
	T_EOF TokenKind = iota

	T_SPACE
	T_NEWLINE
	T_COMMENT

	T_SEMI
	T_EQ
	T_DOT
	T_COMMA
	T_LESS
	T_GREATER

	T_OPEN_CURL
	T_CLOSE_CURL
	T_OPEN_SQUARE
	T_CLOSE_SQUARE

	T_INT_LIT
	T_TEXT_LIT

	T_IDENT
)

func (k TokenKind) String() string {
	switch k {
	case T_EOF:
		return "EOF"
	case T_SPACE:
		return "SPACE"
	case T_NEWLINE:
		return "NEWLINE"
	case T_COMMENT:
		return "COMMENT"
	case T_SEMI:
		return "SEMI"
	case T_EQ:
		return "EQ"
	case T_DOT:
		return "DOT"
	case T_COMMA:
		return "COMMA"
	case T_LESS:
		return "LESS"
	case T_GREATER:
		return "GREATER"
	case T_OPEN_CURL:
		return "OPEN_CURL"
	case T_CLOSE_CURL:
		return "CLOSE_CURL"
	case T_OPEN_SQUARE:
		return "OPEN_SQUARE"
	case T_CLOSE_SQUARE:
		return "CLOSE_SQUARE"
	case T_INT_LIT:
		return "INT_LIT"
	case T_TEXT_LIT:
		return "TEXT_LIT"
	case T_IDENT:
		return "IDENT"
	default:
		return fmt.Sprintf("TokenKind(%d)", uint8(k))
	}
}

// describe returns the form of a token kind used in error messages.
func (k TokenKind) describe() string {
	switch k {
	case T_EOF:
		return "end of input"
	case T_SEMI:
		return "';'"
	case T_EQ:
		return "'='"
	case T_DOT:
		return "'.'"
	case T_COMMA:
		return "','"
	case T_LESS:
		return "'<'"
	case T_GREATER:
		return "'>'"
	case T_OPEN_CURL:
		return "'{'"
	case T_CLOSE_CURL:
		return "'}'"
	case T_OPEN_SQUARE:
		return "'['"
	case T_CLOSE_SQUARE:
		return "']'"
	case T_INT_LIT:
		return "integer literal"
	case T_TEXT_LIT:
		return "string literal"
	case T_IDENT:
		return "identifier"
	default:
		return k.String()
	}
}

// Tokenize splits src into its significant tokens. Whitespace and comments
// are dropped, and the returned slice always ends with a T_EOF token.
func Tokenize(src []byte) ([]Token, error) {
	tokens, err := NewTokens(src)
	if err != nil {
		return nil, err
	}
	var out []Token
	for {
		var token Token
		if err := tokens.Next(&token); err != nil {
			return nil, err
		}
		switch token.Kind {
		case T_SPACE, T_NEWLINE, T_COMMENT:
			continue
		}
		out = append(out, token)
		if token.Kind == T_EOF {
			return out, nil
		}
	}
}

type Tokens struct {
	src    []byte
	offset uint32
}

func NewTokens(src []byte) (*Tokens, error) {
	if len(src) > maxSrcLen {
		return nil, errSourceTooLong(len(src))
	}
	if !utf8.Valid(src) {
		return nil, errInvalidUtf8(src)
	}
	return &Tokens{
		src: src,
	}, nil
}

func (t *Tokens) Next(token *Token) error {
	if len(t.src) == 0 {
		*token = Token{
			Kind: T_EOF,
			Span: Span{t.offset, 0},
		}
		return nil
	}

	c := t.src[0]
	var kind TokenKind
	switch c {
	case '\t', ' ', '\f', '\v':
		return t.nextSpace(token)
	case '\n':
		kind = T_NEWLINE
		goto len1
	case ';':
		kind = T_SEMI
		goto len1
	case '=':
		kind = T_EQ
		goto len1
	case '.':
		kind = T_DOT
		goto len1
	case ',':
		kind = T_COMMA
		goto len1
	case '<':
		kind = T_LESS
		goto len1
	case '>':
		kind = T_GREATER
		goto len1
	case '{':
		kind = T_OPEN_CURL
		goto len1
	case '}':
		kind = T_CLOSE_CURL
		goto len1
	case '[':
		kind = T_OPEN_SQUARE
		goto len1
	case ']':
		kind = T_CLOSE_SQUARE
		goto len1
	case '/':
		return t.nextComment(token)
	case '"', '\'':
		return t.nextTextLit(token)
	case '\r':
		if len(t.src) > 1 && t.src[1] == '\n' {
			t.emit(token, T_NEWLINE, 2)
			return nil
		}
		kind = T_NEWLINE
		goto len1
	default:
		goto big
	}

len1:
	t.emit(token, kind, 1)
	return nil

big:
	if (c >= '0' && c <= '9') || c == '-' {
		return t.nextIntLit(token)
	}

	if c == '_' || (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') {
		return t.nextIdent(token)
	}

	r, _ := utf8.DecodeRune(t.src)
	if r < 0x20 || r == 0x7F {
		return errForbiddenControlCharacter(t.offset, c)
	}
	return errUnexpectedCharacter(t.offset, r)
}

func (t *Tokens) emit(token *Token, kind TokenKind, tokenLen int) {
	*token = Token{
		Kind: kind,
		Span: Span{t.offset, uint32(tokenLen)},
		Text: string(t.src[:tokenLen]),
	}
	t.offset += uint32(tokenLen)
	t.src = t.src[tokenLen:]
}

func (t *Tokens) nextSpace(token *Token) error {
	tokenLen := len(t.src)
	for ii, c := range t.src {
		if c != ' ' && c != '\t' && c != '\f' && c != '\v' {
			tokenLen = ii
			break
		}
	}
	t.emit(token, T_SPACE, tokenLen)
	return nil
}

func (t *Tokens) nextComment(token *Token) error {
	if len(t.src) < 2 || (t.src[1] != '/' && t.src[1] != '*') {
		return errUnexpectedCharacter(t.offset, '/')
	}

	if t.src[1] == '/' {
		tokenLen := len(t.src)
		for ii, c := range t.src {
			if c == '\n' || c == '\r' {
				tokenLen = ii
				break
			}
		}
		t.emit(token, T_COMMENT, tokenLen)
		return nil
	}

	end := strings.Index(string(t.src[2:]), "*/")
	if end < 0 {
		return errCommentUnterminated(t.offset, uint32(len(t.src)))
	}
	t.emit(token, T_COMMENT, end+4)
	return nil
}

func (t *Tokens) nextIntLit(token *Token) error {
	src := t.src
	tokenLen := 0
	neg := src[0] == '-'
	if neg {
		tokenLen = 1
	}
	digitsStart := tokenLen
	for tokenLen < len(src) && isIdentByte(src[tokenLen]) {
		tokenLen++
	}
	if tokenLen == digitsStart {
		return errIntLitInvalid(t.offset, src[:tokenLen])
	}

	value, err := parseIntLit(string(src[digitsStart:tokenLen]), neg)
	if err != nil {
		if errors.Is(err, strconv.ErrRange) {
			return errIntLitOutOfRange(t.offset, src[:tokenLen])
		}
		return errIntLitInvalid(t.offset, src[:tokenLen])
	}

	t.emit(token, T_INT_LIT, tokenLen)
	token.Int = value
	return nil
}

// parseIntLit accepts decimal, hexadecimal ("0x") and octal (leading "0")
// digit sequences. Underscores are not permitted.
func parseIntLit(digits string, neg bool) (int64, error) {
	base := 10
	switch {
	case len(digits) > 1 && (digits[:2] == "0x" || digits[:2] == "0X"):
		base = 16
		digits = digits[2:]
	case len(digits) > 1 && digits[0] == '0':
		base = 8
		digits = digits[1:]
	}
	if digits == "" {
		return 0, strconv.ErrSyntax
	}
	u, err := strconv.ParseUint(digits, base, 64)
	if err != nil {
		return 0, err
	}
	if neg {
		if u > 1<<63 {
			return 0, strconv.ErrRange
		}
		return int64(-u), nil
	}
	if u > math.MaxInt64 {
		return 0, strconv.ErrRange
	}
	return int64(u), nil
}

func (t *Tokens) nextTextLit(token *Token) error {
	quote := t.src[0]
	var buf strings.Builder
	ii := 1
	for {
		if ii >= len(t.src) {
			return errTextLitUnterminated(t.offset, uint32(len(t.src)))
		}
		c := t.src[ii]
		if c == quote {
			ii++
			break
		}
		if c == '\n' || c == '\r' {
			return errTextLitContainsNewline(t.offset+uint32(ii), 1)
		}
		if (c < 0x20 && c != '\t') || c == 0x7F {
			return errForbiddenControlCharacter(t.offset+uint32(ii), c)
		}
		if c != '\\' {
			buf.WriteByte(c)
			ii++
			continue
		}
		escLen, err := decodeEscape(&buf, t.src[ii:])
		if err != nil {
			return errTextLitInvalidEscape(t.offset+uint32(ii), t.src[ii:ii+escLen])
		}
		ii += escLen
	}

	t.emit(token, T_TEXT_LIT, ii)
	token.Text = buf.String()
	return nil
}

// decodeEscape decodes the escape sequence at the start of src, which begins
// with a backslash. It returns the number of source bytes consumed.
func decodeEscape(buf *strings.Builder, src []byte) (int, error) {
	if len(src) < 2 {
		return len(src), strconv.ErrSyntax
	}
	switch c := src[1]; c {
	case 'a':
		buf.WriteByte('\a')
	case 'b':
		buf.WriteByte('\b')
	case 'f':
		buf.WriteByte('\f')
	case 'n':
		buf.WriteByte('\n')
	case 'r':
		buf.WriteByte('\r')
	case 't':
		buf.WriteByte('\t')
	case 'v':
		buf.WriteByte('\v')
	case '\\', '\'', '"', '?':
		buf.WriteByte(c)
	case 'x', 'X':
		n := 2
		for n < len(src) && n < 4 && isHexByte(src[n]) {
			n++
		}
		if n == 2 {
			return n, strconv.ErrSyntax
		}
		v, _ := strconv.ParseUint(string(src[2:n]), 16, 8)
		buf.WriteByte(byte(v))
		return n, nil
	case 'u', 'U':
		width := 4
		if c == 'U' {
			width = 8
		}
		if len(src) < 2+width {
			return len(src), strconv.ErrSyntax
		}
		v, err := strconv.ParseUint(string(src[2:2+width]), 16, 32)
		if err != nil || !utf8.ValidRune(rune(v)) {
			return 2 + width, strconv.ErrSyntax
		}
		buf.WriteRune(rune(v))
		return 2 + width, nil
	default:
		if c < '0' || c > '7' {
			return 2, strconv.ErrSyntax
		}
		n := 2
		for n < len(src) && n < 4 && src[n] >= '0' && src[n] <= '7' {
			n++
		}
		v, _ := strconv.ParseUint(string(src[1:n]), 8, 16)
		if v > 0xFF {
			return n, strconv.ErrSyntax
		}
		buf.WriteByte(byte(v))
		return n, nil
	}
	return 2, nil
}

func (t *Tokens) nextIdent(token *Token) error {
	tokenLen := len(t.src)
	for ii, c := range t.src {
		if !isIdentByte(c) {
			tokenLen = ii
			break
		}
	}
	t.emit(token, T_IDENT, tokenLen)
	return nil
}

func isIdentByte(c byte) bool {
	return c == '_' || (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9')
}

func isHexByte(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'A' && c <= 'F') || (c >= 'a' && c <= 'f')
}
