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
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.protots.org/protots/internal/testutil"
	"go.protots.org/protots/syntax"
)

type strToken struct {
	kind syntax.TokenKind
	text string
}

func tokenize(t *testing.T, src string) []strToken {
	t.Helper()
	tokens, err := syntax.Tokenize([]byte(src))
	require.NoError(t, err)
	var out []strToken
	for _, tok := range tokens {
		out = append(out, strToken{tok.Kind, tok.Text})
	}
	return out
}

func TestTokenize(t *testing.T) {
	t.Parallel()

	got := tokenize(t, "message Foo {\n\tmap<string, int32> m = 1 [a = 'b'];\n}")
	want := []strToken{
		{syntax.T_IDENT, "message"},
		{syntax.T_IDENT, "Foo"},
		{syntax.T_OPEN_CURL, "{"},
		{syntax.T_IDENT, "map"},
		{syntax.T_LESS, "<"},
		{syntax.T_IDENT, "string"},
		{syntax.T_COMMA, ","},
		{syntax.T_IDENT, "int32"},
		{syntax.T_GREATER, ">"},
		{syntax.T_IDENT, "m"},
		{syntax.T_EQ, "="},
		{syntax.T_INT_LIT, "1"},
		{syntax.T_OPEN_SQUARE, "["},
		{syntax.T_IDENT, "a"},
		{syntax.T_EQ, "="},
		{syntax.T_TEXT_LIT, "b"},
		{syntax.T_CLOSE_SQUARE, "]"},
		{syntax.T_SEMI, ";"},
		{syntax.T_CLOSE_CURL, "}"},
		{syntax.T_EOF, ""},
	}
	assert.Equal(t, want, got)
}

func TestTokenizeComments(t *testing.T) {
	t.Parallel()

	got := tokenize(t, "// line\r\n/* block\n * comment */ a.b // trailing")
	assert.Equal(t, []strToken{
		{syntax.T_IDENT, "a"},
		{syntax.T_DOT, "."},
		{syntax.T_IDENT, "b"},
		{syntax.T_EOF, ""},
	}, got)
}

func TestTokenSpans(t *testing.T) {
	t.Parallel()

	src := "enum  E {}"
	tokens, err := syntax.Tokenize([]byte(src))
	require.NoError(t, err)
	require.Len(t, tokens, 5)
	for _, tok := range tokens[:4] {
		span := tok.Span
		assert.Equal(t, tok.Text, src[span.Start():span.End()])
	}
	eof := tokens[4].Span
	assert.Equal(t, uint32(len(src)), eof.Start())
	assert.Equal(t, uint32(0), eof.Len())
}

func TestIntLiterals(t *testing.T) {
	t.Parallel()

	tests := []struct {
		src  string
		want int64
	}{
		{"0", 0},
		{"150", 150},
		{"-1", -1},
		{"0x1F", 31},
		{"0X10", 16},
		{"-0x10", -16},
		{"017", 15},
		{"9223372036854775807", math.MaxInt64},
		{"-9223372036854775808", math.MinInt64},
	}
	for _, test := range tests {
		t.Run(test.src, func(t *testing.T) {
			tokens, err := syntax.Tokenize([]byte(test.src))
			require.NoError(t, err)
			require.Equal(t, syntax.T_INT_LIT, tokens[0].Kind)
			assert.Equal(t, test.want, tokens[0].Int)
		})
	}
}

func TestTextLiteralEscapes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		src  string
		want string
	}{
		{`"plain"`, "plain"},
		{`'single "quoted"'`, `single "quoted"`},
		{`"a\nb\tc"`, "a\nb\tc"},
		{`"\x41\101\"\\"`, `AA"\`},
		{`"é"`, "é"},
		{`"日本"`, "日本"},
	}
	for _, test := range tests {
		t.Run(test.src, func(t *testing.T) {
			tokens, err := syntax.Tokenize([]byte(test.src))
			require.NoError(t, err)
			require.Equal(t, syntax.T_TEXT_LIT, tokens[0].Kind)
			assert.Equal(t, test.want, tokens[0].Text)
		})
	}
}

func TestTokenizeErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		src      string
		code     uint32
		spanText string
	}{
		{"unexpected character", "message @", 1002, "@"},
		{"lone slash", "a / b", 1002, "/"},
		{"control character", "a \x01", 1003, "\x01"},
		{"invalid int", "x = 12ab;", 1005, "12ab"},
		{"empty hex", "x = 0x;", 1005, "0x"},
		{"lone minus", "x = - 1;", 1005, "-"},
		{"bad octal", "x = 09;", 1005, "09"},
		{"int out of range", "x = 9223372036854775808;", 1010, "9223372036854775808"},
		{"unterminated text", `import "abc`, 1006, `"abc`},
		{"newline in text", "import \"ab\ncd\";", 1007, "\n"},
		{"invalid escape", `import "a\qb";`, 1008, `\q`},
		{"unterminated comment", "a /* b", 1009, "/* b"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := syntax.Tokenize([]byte(test.src))
			testutil.ExpectSyntaxError(t, test.src, err, test.code, test.spanText)
		})
	}
}

func TestTokenizeInvalidUtf8(t *testing.T) {
	t.Parallel()

	_, err := syntax.Tokenize([]byte("abc\xff"))
	var parseErr *syntax.Error
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, uint32(1001), parseErr.Code())
	assert.Equal(t, uint32(3), parseErr.Span().Start())
}
