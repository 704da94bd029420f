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
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.protots.org/protots/internal/testutil"
	"go.protots.org/protots/syntax"
)

var ignoreSpans = cmpopts.IgnoreTypes(syntax.Span{})

const demoSrc = `
syntax = "proto3";
package demo.v1;
import "other.proto";

message Outer {
  int32 id = 1;
  repeated string names = 2 [packed = "false", json_name = "nm"];
  map<string, Inner> index = 3;
  oneof choice {
    bool flag = 4;
    other.Thing thing = 5;
  }
  message Inner {
    sint64 value = 1;
  }
  enum Kind {
    UNKNOWN = 0;
    BIG = 1;
  }
}

enum Top { A = 0; B = -1; }
`

func demoPackage() *syntax.Package {
	return &syntax.Package{
		Syntax:  syntax.Proto3,
		Path:    []string{"demo", "v1"},
		Imports: []string{"other.proto"},
		Declarations: []syntax.Declaration{
			&syntax.MessageDeclaration{
				Name: "Outer",
				Entries: []syntax.MessageEntry{
					&syntax.FieldDeclaration{Name: "id", Tag: 1, Type: syntax.Int32},
					&syntax.FieldDeclaration{
						Name: "names",
						Tag:  2,
						Type: syntax.Repeated{Elem: syntax.String},
						Attributes: []syntax.Attribute{
							{Key: "packed", Value: "false"},
							{Key: "json_name", Value: "nm"},
						},
					},
					&syntax.FieldDeclaration{
						Name: "index",
						Tag:  3,
						Type: syntax.Map{Key: syntax.String, Value: syntax.IdPath{"Inner"}},
					},
					&syntax.OneOfDeclaration{
						Name: "choice",
						Options: []*syntax.FieldDeclaration{
							{Name: "flag", Tag: 4, Type: syntax.Bool},
							{Name: "thing", Tag: 5, Type: syntax.IdPath{"other", "Thing"}},
						},
					},
					&syntax.MessageDeclaration{
						Name: "Inner",
						Entries: []syntax.MessageEntry{
							&syntax.FieldDeclaration{Name: "value", Tag: 1, Type: syntax.Sint64},
						},
					},
					&syntax.EnumDeclaration{
						Name: "Kind",
						Entries: []syntax.EnumEntry{
							{Name: "UNKNOWN", Value: 0},
							{Name: "BIG", Value: 1},
						},
					},
				},
			},
			&syntax.EnumDeclaration{
				Name: "Top",
				Entries: []syntax.EnumEntry{
					{Name: "A", Value: 0},
					{Name: "B", Value: -1},
				},
			},
		},
	}
}

func TestParse(t *testing.T) {
	t.Parallel()

	pkg := testutil.MustParse(t, demoSrc)
	testutil.ExpectDeepEq(t, demoPackage(), pkg, ignoreSpans)
}

func TestParseEmpty(t *testing.T) {
	t.Parallel()

	for _, src := range []string{"", "  // nothing\n", ";;"} {
		pkg := testutil.MustParse(t, src)
		testutil.ExpectDeepEq(t, &syntax.Package{}, pkg, ignoreSpans)
	}
}

func TestParseSyntaxDefault(t *testing.T) {
	t.Parallel()

	pkg := testutil.MustParse(t, `message M {}`)
	testutil.ExpectEq(t, syntax.Proto2, pkg.Syntax)

	pkg = testutil.MustParse(t, `syntax = 'proto2'; message M {}`)
	testutil.ExpectEq(t, syntax.Proto2, pkg.Syntax)
}

func TestParseStatementOrder(t *testing.T) {
	t.Parallel()

	pkg := testutil.MustParse(t, `
		package a.b;
		import "x.proto";
		message M {}
		package c;
		import "y.proto";
		enum E {}
	`)
	assert.Equal(t, []string{"c"}, pkg.Path)
	assert.Equal(t, []string{"x.proto", "y.proto"}, pkg.Imports)
	require.Len(t, pkg.Declarations, 2)
	assert.Equal(t, "M", pkg.Declarations[0].DeclName())
	assert.Equal(t, "E", pkg.Declarations[1].DeclName())
}

func TestParseFieldTypes(t *testing.T) {
	t.Parallel()

	pkg := testutil.MustParse(t, `
		message M {
			double a = 1;
			a.b.C b = 2;
			repeated .x.Y c = 3;
			map<int64, bytes> d = 4;
			map e = 5;
			repeated map f = 6;
		}
	`)
	msg := pkg.Declarations[0].(*syntax.MessageDeclaration)
	var got []string
	for field := range msg.Fields() {
		got = append(got, field.Type.String())
	}
	assert.Equal(t, []string{
		"double",
		"a.b.C",
		"repeated .x.Y",
		"map<int64, bytes>",
		"map",
		"repeated map",
	}, got)
}

func TestParseAttributes(t *testing.T) {
	t.Parallel()

	pkg := testutil.MustParse(t, `
		message M {
			repeated int32 a = 1 [packed = "true", packed = "false"];
			int32 b = 2 [];
			int32 c = 3;
		}
	`)
	msg := pkg.Declarations[0].(*syntax.MessageDeclaration)
	a := msg.Entries[0].(*syntax.FieldDeclaration)
	packed, ok := a.Attribute("packed")
	assert.True(t, ok)
	assert.Equal(t, "false", packed)
	assert.Len(t, a.Attributes, 2)

	b := msg.Entries[1].(*syntax.FieldDeclaration)
	assert.Empty(t, b.Attributes)
	_, ok = b.Attribute("packed")
	assert.False(t, ok)
}

func TestParseNestedMessages(t *testing.T) {
	t.Parallel()

	depth := 50
	src := strings.Repeat("message M { ", depth) + strings.Repeat("} ", depth)
	pkg := testutil.MustParse(t, src)

	var count int
	for range pkg.Messages() {
		count++
	}
	assert.Equal(t, depth, count)
}

func TestParseMaxDepth(t *testing.T) {
	t.Parallel()

	src := strings.Repeat("message M { ", 100) + strings.Repeat("} ", 100)
	_, err := syntax.Parse([]byte(src), syntax.WithMaxDepth(32))
	var parseErr *syntax.Error
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, uint32(2027), parseErr.Code())

	_, err = syntax.Parse([]byte(src), syntax.WithMaxDepth(1000))
	assert.NoError(t, err)
}

func TestParseTokens(t *testing.T) {
	t.Parallel()

	tokens, err := syntax.Tokenize([]byte(`syntax = "proto3"; message M { int32 x = 1; }`))
	require.NoError(t, err)

	withEOF, err := syntax.ParseTokens(tokens)
	require.NoError(t, err)

	// A sequence missing its trailing EOF is still accepted.
	withoutEOF, err := syntax.ParseTokens(tokens[:len(tokens)-1])
	require.NoError(t, err)

	testutil.ExpectDeepEq(t, withEOF, withoutEOF, ignoreSpans)
	assert.Len(t, tokens, 14)
}

func TestParseTrace(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	_, err := syntax.Parse([]byte(`message M { int32 x = 1; }`), syntax.WithTrace(logger))
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "task=ParseStatements")
	assert.Contains(t, buf.String(), "task=BuildField")
}

func TestParseDeclarationSpans(t *testing.T) {
	t.Parallel()

	src := `message Outer { int32 field_name = 1; }`
	pkg := testutil.MustParse(t, src)
	msg := pkg.Declarations[0].(*syntax.MessageDeclaration)
	span := msg.Span
	assert.Equal(t, "Outer", src[span.Start():span.End()])
	field := msg.Entries[0].(*syntax.FieldDeclaration)
	span = field.Span
	assert.Equal(t, "field_name", src[span.Start():span.End()])
}

func TestParseErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		src      string
		code     uint32
		spanText string
	}{
		{"unsupported syntax", `syntax = "proto4";`, 2021, `"proto4"`},
		{"unquoted syntax", `syntax = proto3;`, 2020, `proto3`},
		{"syntax missing semicolon", `syntax = "proto3" message`, 2020, `message`},
		{"truncated syntax", `syntax =`, 2017, ``},
		{"truncated import", `import`, 2017, ``},
		{"unquoted import", `import foo;`, 2022, `foo`},
		{"unknown statement", `service Foo {}`, 2016, `service`},
		{"stray token", `= 1;`, 2015, `=`},
		{"empty package", `package ;`, 2012, `;`},
		{"package trailing dot", `package a.;`, 2012, `;`},
		{"package missing semicolon", `package a b;`, 2000, `b`},
		{"field missing semicolon", `message M { int32 x = 1 }`, 2000, `}`},
		{"field missing tag", `message M { int32 x = ; }`, 2010, `;`},
		{"field missing name", `message M { int32 = 1; }`, 2012, `=`},
		{"field missing equals", `message M { int32 x 1; }`, 2001, `1`},
		{"unterminated message", `message M {`, 2025, ``},
		{"message missing name", `message { }`, 2012, `{`},
		{"message missing brace", `message M int32 x = 1; }`, 2006, `int32`},
		{"bad message entry", `message M { 1 }`, 2025, `1`},
		{"nested repeated", `message M { repeated repeated int32 x = 1; }`, 2024, `repeated`},
		{"map element map", `message M { map<string, map<string, int32>> x = 1; }`, 2024, `map`},
		{"repeated map", `message M { repeated map<string, int32> x = 1; }`, 2024, `map`},
		{"map missing comma", `message M { map<string int32> x = 1; }`, 2003, `int32`},
		{"map missing close", `message M { map<string, int32 x = 1; }`, 2005, `x`},
		{"missing field type", `message M { repeated = 1; }`, 2014, `=`},
		{"attribute missing close", `message M { int32 x = 1 [a = "b"; }`, 2009, `;`},
		{"attribute not text", `message M { int32 x = 1 [a = 1]; }`, 2011, `1`},
		{"attribute missing key", `message M { int32 x = 1 [= "b"]; }`, 2012, `=`},
		{"oneof with message", `message M { oneof o { message Inner {} } }`, 2023, `}`},
		{"oneof with enum", `message M { oneof o { int32 x = 1; enum E {} } }`, 2023, `}`},
		{"oneof missing name", `message M { oneof { } }`, 2012, `{`},
		{"enum missing semicolon", `enum E { A = 1 }`, 2000, `}`},
		{"enum missing value", `enum E { A = B; }`, 2010, `B`},
		{"enum missing equals", `enum E { A 1; }`, 2001, `1`},
		{"truncated enum entry", `enum E { A }`, 2017, ``},
		{"bad enum entry", `enum E { "A" = 1; }`, 2026, `"A"`},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			pkg, err := syntax.Parse([]byte(test.src))
			assert.Nil(t, pkg)
			testutil.ExpectSyntaxError(t, test.src, err, test.code, test.spanText)
		})
	}
}
