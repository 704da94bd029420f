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

package compiler_test

import (
	"bytes"
	"fmt"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.protots.org/protots/compiler"
	"go.protots.org/protots/emit"
	"go.protots.org/protots/internal/testutil"
	"go.protots.org/protots/syntax"
)

func compile(t *testing.T, src string, opts ...compiler.CompileOption) compiler.CompileResult {
	t.Helper()
	return compiler.Compile(testutil.MustParse(t, src), opts...)
}

func dumpFuncs(funcs []*emit.Func) string {
	dumps := make([]string, 0, len(funcs))
	for _, fn := range funcs {
		dumps = append(dumps, emit.Dump(fn))
	}
	return strings.Join(dumps, "\n")
}

func TestCompileGolden(t *testing.T) {
	testutil.Golden{
		Pattern:   "testdata/encode/*.proto",
		Extension: "dump",
		Test: func(t *testing.T, path string, src []byte) string {
			pkg, err := syntax.Parse(src)
			require.NoError(t, err)
			result := compiler.Compile(pkg)
			require.Empty(t, result.Errors)
			require.Empty(t, result.Warnings)
			return dumpFuncs(result.Funcs)
		},
	}.Run(t)
}

func TestCompileFieldOrder(t *testing.T) {
	t.Parallel()

	result := compile(t, `
		message M {
			int32 c = 30;
			oneof pick {
				int32 b = 20;
				int32 d = 40;
			}
			int32 a = 10;
		}
	`)
	require.Empty(t, result.Errors)
	require.Len(t, result.Funcs, 1)

	var tags []int64
	for _, stmt := range result.Funcs[0].Body {
		tag := stmt.(emit.If).Then[0].(emit.WriteTag)
		tags = append(tags, tag.Field)
	}
	assert.Equal(t, []int64{10, 20, 30, 40}, tags)
}

func TestCompileNestedOrder(t *testing.T) {
	t.Parallel()

	result := compile(t, `
		package p;
		message A {
			message B {
				message C {}
			}
			enum K { X = 0; }
			message D {}
		}
		message E {}
	`)
	var names []string
	for _, fn := range result.Funcs {
		names = append(names, fn.Name)
	}
	assert.Equal(t, []string{"p.A", "p.A.B", "p.A.B.C", "p.A.D", "p.E"}, names)

	fn := result.Func("p.A.B.C")
	require.NotNil(t, fn)
	assert.Equal(t, []string{"p"}, fn.Package)
	assert.Equal(t, []string{"A", "B", "C"}, fn.Path)
	assert.Equal(t, "IC", fn.InputType)
	assert.Nil(t, result.Func("p.K"))
}

func TestCompilePacking(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		src  string
		want string
	}{
		{
			name: "proto3 default",
			src:  `syntax = "proto3"; message M { repeated sint32 xs = 1; }`,
			want: `func M(message: IM, writer?: Writer): Writer
  if nonempty(message.xs)
    tag 1:len (0x0a)
    fork
    for v in message.xs
      sint32 v
    ldelim
`,
		},
		{
			name: "proto2 default",
			src:  `message M { repeated float xs = 1; }`,
			want: `func M(message: IM, writer?: Writer): Writer
  if nonempty(message.xs)
    tag 1:len (0x0a)
    fork
    for v in message.xs
      float v
    ldelim
`,
		},
		{
			name: "packed false",
			src:  `message M { repeated uint64 xs = 1 [packed = "false"]; }`,
			want: `func M(message: IM, writer?: Writer): Writer
  if nonempty(message.xs)
    for v in message.xs
      tag 1:varint (0x08)
      uint64 v
`,
		},
		{
			name: "last packed attribute wins",
			src:  `message M { repeated bool xs = 1 [packed = "false", packed = "true"]; }`,
			want: `func M(message: IM, writer?: Writer): Writer
  if nonempty(message.xs)
    tag 1:len (0x0a)
    fork
    for v in message.xs
      bool v
    ldelim
`,
		},
		{
			name: "bytes never packed",
			src:  `message M { repeated bytes xs = 1; }`,
			want: `func M(message: IM, writer?: Writer): Writer
  if nonempty(message.xs)
    for v in message.xs
      tag 1:len (0x0a)
      bytes v
`,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			result := compile(t, test.src)
			require.Empty(t, result.Errors)
			testutil.ExpectNoDiff(t, test.want, dumpFuncs(result.Funcs))
		})
	}
}

func TestCompileJSONName(t *testing.T) {
	t.Parallel()

	result := compile(t, `
		message M {
			int32 foo_bar_baz = 1;
			int32 already = 2;
			int32 renamed = 3 [json_name = "custom_name"];
			int32 x_2y = 4;
		}
	`)
	var names []string
	for _, stmt := range result.Funcs[0].Body {
		field := stmt.(emit.If).Cond.(emit.Present).Value.(emit.Field)
		names = append(names, field.Name)
	}
	assert.Equal(t, []string{"fooBarBaz", "already", "custom_name", "x2y"}, names)
}

func TestCompileImports(t *testing.T) {
	t.Parallel()

	common := testutil.MustParse(t, `
		syntax = "proto3";
		package common;
		message Money { int64 units = 1; }
		enum Currency { USD = 0; EUR = 1; }
	`)
	result := compile(t, `
		syntax = "proto3";
		import "common.proto";
		package shop;
		message Order {
			common.Money total = 1;
			.common.Currency currency = 2;
		}
	`, compiler.WithDependencies(map[string]*syntax.Package{
		"common.proto": common,
	}))
	require.Empty(t, result.Errors)

	dump := dumpFuncs(result.Funcs)
	assert.Contains(t, dump, "encode common.Money(message.total)")
	assert.Contains(t, dump, "int32 message.currency (enum common.Currency)")

	// Imported messages are not compiled, but their enums are visible.
	assert.Nil(t, result.Func("common.Money"))
	assert.Equal(t, map[string]int64{"USD": 0, "EUR": 1}, result.Enums["common.Currency"])
}

func TestCompileEnumTables(t *testing.T) {
	t.Parallel()

	result := compile(t, `
		package p;
		enum Top { A = 0; B = -1; }
		message M {
			enum Inner { X = 5; Y = 5; }
			message N { enum Deep { Z = 0; } }
		}
	`)
	assert.Equal(t, map[string]map[string]int64{
		"p.Top":      {"A": 0, "B": -1},
		"p.M.Inner":  {"X": 5, "Y": 5},
		"p.M.N.Deep": {"Z": 0},
	}, result.Enums)
}

func TestCompileErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		src   string
		codes []uint32
	}{
		{"type not found", `message M { Missing x = 1; }`, []uint32{3100}},
		{"nested type not found", `message M { M.Missing x = 1; }`, []uint32{3100}},
		{"absolute path not found", `package p; message M { .M x = 1; }`, []uint32{3100}},
		{"package is not a type", `package a.b; message M { a.b x = 1; }`, []uint32{3101}},
		{"enum has no members", `enum E { A = 0; } message M { E.A x = 1; }`, []uint32{3102}},
		{"missing import", `import "x.proto"; message M {}`, []uint32{3001}},
		{"duplicate declaration", `message M {} enum M { A = 0; }`, []uint32{3002}},
		{"repeated element", `message M { repeated Missing xs = 1; }`, []uint32{3100}},
		{"map value", `message M { map<string, Missing> xs = 1; }`, []uint32{3100}},
		{"each field reported", `message M { A a = 1; B b = 2; }`, []uint32{3100, 3100}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			result := compile(t, test.src)
			testutil.ExpectCodes(t, test.codes, result.Errors)
		})
	}
}

func TestCompileErrorSkipsField(t *testing.T) {
	t.Parallel()

	src := `message M { Missing x = 1; int32 y = 2; }`
	result := compile(t, src)
	require.Len(t, result.Errors, 1)

	err := result.Errors[0]
	assert.Equal(t, `E3100: Type "Missing" not found: no declaration named 'Missing' is visible`, err.Error())
	span := err.Span()
	assert.Equal(t, "x", src[span.Start():span.End()])

	testutil.ExpectNoDiff(t, `func M(message: IM, writer?: Writer): Writer
  if present(message.y)
    tag 2:varint (0x10)
    int32 message.y
`, dumpFuncs(result.Funcs))
}

func TestCompileDeclConflictsWithPackage(t *testing.T) {
	t.Parallel()

	dep := testutil.MustParse(t, `package a.b; message X {}`)
	result := compile(t, `import "dep.proto"; package a; message b {}`,
		compiler.WithDependencies(map[string]*syntax.Package{"dep.proto": dep}))
	testutil.ExpectCodes(t, []uint32{3003}, result.Errors)
}

func TestCompileWarnings(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		src   string
		codes []uint32
	}{
		{"valid", `message M { int32 a = 1; repeated int32 b = 2 [packed = "true"]; }`, nil},
		{"tag zero", `message M { int32 a = 0; }`, []uint32{4001}},
		{"tag too large", `message M { int32 a = 536870912; }`, []uint32{4001}},
		{"largest tag", `message M { int32 a = 536870911; }`, nil},
		{"reserved tag", `message M { int32 a = 19000; }`, []uint32{4002}},
		{"duplicate tag", `message M { int32 a = 1; oneof o { int32 b = 1; } }`, []uint32{4003}},
		{"duplicate enum value", `enum E { A = 0; B = 0; }`, []uint32{4004}},
		{"proto3 enum first value", `syntax = "proto3"; enum E { A = 1; }`, []uint32{4005}},
		{"proto2 enum first value", `enum E { A = 1; }`, nil},
		{"packed string", `message M { repeated string a = 1 [packed = "true"]; }`, []uint32{4006}},
		{"packed singular", `message M { int32 a = 1 [packed = "true"]; }`, []uint32{4006}},
		{"packed message", `message M { repeated M a = 1 [packed = "true"]; }`, []uint32{4006}},
		{"packed map", `message M { map<int32, int32> a = 1 [packed = "true"]; }`, []uint32{4006}},
		{"duplicate attribute", `message M { int32 a = 1 [json_name = "x", json_name = "y"]; }`, []uint32{4007}},
		{"invalid packed value", `message M { repeated int32 a = 1 [packed = "yes"]; }`, []uint32{4008}},
		{"double map key", `message M { map<double, int32> a = 1; }`, []uint32{4100}},
		{"bytes map key", `message M { map<bytes, int32> a = 1; }`, []uint32{4100}},
		{"enum map key", `enum E { A = 0; } message M { map<E, int32> a = 1; }`, []uint32{4100}},
		{"nested message", `message M { message N { int32 a = 0; } }`, []uint32{4001}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			result := compile(t, test.src)
			require.Empty(t, result.Errors)
			testutil.ExpectCodes(t, test.codes, result.Warnings)
		})
	}
}

func TestCompileUnsupportedFieldSkipped(t *testing.T) {
	t.Parallel()

	result := compile(t, `message M { map<float, string> a = 1; int32 b = 2; int32 c = 0; }`)
	testutil.ExpectCodes(t, []uint32{4100, 4001}, result.Warnings)
	require.Len(t, result.Funcs[0].Body, 1)
	assert.Equal(t, int64(2), result.Funcs[0].Body[0].(emit.If).Then[0].(emit.WriteTag).Field)

	for _, w := range result.Warnings {
		if w.Code() == 4100 {
			assert.Equal(t, "W4100: Field M.a is not supported and will not be encoded: float cannot be used as a map key", w.String())
		}
	}
}

func TestCompileLogsWarnings(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	compile(t, `package p; message M { int32 a = 1; int32 b = 1; }`, compiler.WithLogger(logger))

	logs := buf.String()
	assert.Contains(t, logs, "level=WARN")
	assert.Contains(t, logs, "code=4003")
	assert.Contains(t, logs, "package=p")
	assert.Contains(t, logs, `msg="compiled package"`)
}

func TestCompileParallel(t *testing.T) {
	t.Parallel()

	var src strings.Builder
	src.WriteString("package p;\n")
	for ii := range 40 {
		fmt.Fprintf(&src, "message M%d { M%d next = 1; repeated int32 xs = 2; message N { int32 v = %d; } }\n",
			ii, (ii+1)%40, ii+1)
	}
	pkg := testutil.MustParse(t, src.String())

	serial := compiler.Compile(pkg, compiler.WithParallelism(1))
	parallel := compiler.Compile(pkg, compiler.WithParallelism(8))
	require.Empty(t, serial.Errors)
	require.Len(t, serial.Funcs, 80)
	assert.Equal(t, "p.M0", serial.Funcs[0].Name)
	assert.Equal(t, "p.M0.N", serial.Funcs[1].Name)
	assert.Equal(t, "p.M39.N", serial.Funcs[79].Name)
	testutil.ExpectNoDiff(t, dumpFuncs(serial.Funcs), dumpFuncs(parallel.Funcs))
}
