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

package tscodegen_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/descriptorpb"
	"google.golang.org/protobuf/types/pluginpb"

	"go.protots.org/protots/codegen/tscodegen"
	"go.protots.org/protots/compiler"
	"go.protots.org/protots/emit"
	"go.protots.org/protots/internal/testutil"
	"go.protots.org/protots/syntax"
)

func joinFiles(files []tscodegen.File) string {
	var buf strings.Builder
	for ii, file := range files {
		if ii > 0 {
			buf.WriteString("\n")
		}
		buf.WriteString("==> " + file.Path + " <==\n")
		buf.Write(file.Content)
	}
	return buf.String()
}

func TestGenerateGolden(t *testing.T) {
	testutil.Golden{
		Pattern:   "testdata/*.proto",
		Extension: "ts",
		Test: func(t *testing.T, path string, src []byte) string {
			pkg, err := syntax.Parse(src)
			require.NoError(t, err)
			result := compiler.Compile(pkg)
			require.Empty(t, result.Errors)
			files, err := tscodegen.Generate(result.Funcs, tscodegen.WithSource(filepath.Base(path)))
			require.NoError(t, err)
			return joinFiles(files)
		},
	}.Run(t)
}

func fileContent(t *testing.T, files []tscodegen.File, path string) string {
	t.Helper()
	for _, file := range files {
		if file.Path == path {
			return string(file.Content)
		}
	}
	t.Fatalf("no generated file %q", path)
	return ""
}

func TestGenerateDependencies(t *testing.T) {
	t.Parallel()

	money := testutil.MustParse(t, `package common; message Money { int64 units = 1; }`)
	order := testutil.MustParse(t, `
		import "common.proto";
		package shop;
		message Order { common.Money total = 1; }
	`)
	deps := map[string]*syntax.Package{"common.proto": money}
	moneyResult := compiler.Compile(money)
	orderResult := compiler.Compile(order, compiler.WithDependencies(deps))
	require.Empty(t, orderResult.Errors)

	_, err := tscodegen.Generate(orderResult.Funcs)
	assert.EqualError(t, err, `tscodegen: shop.Order refers to message "common.Money", which has no encoder`)

	files, err := tscodegen.Generate(orderResult.Funcs,
		tscodegen.WithDependencies(moneyResult.Funcs),
		tscodegen.WithRuntime("protobufjs"),
	)
	require.NoError(t, err)
	require.Len(t, files, 2)

	encode := fileContent(t, files, "shop/Order/encode.ts")
	assert.Contains(t, encode, `import { Writer } from "protobufjs";`)
	assert.Contains(t, encode, `import { encode as encodeMoney } from "../../common/Money/encode";`)
	assert.Contains(t, encode, "encodeMoney(message.total, writer.uint32(10).fork()).ldelim();")

	types := fileContent(t, files, "shop/Order/types.ts")
	assert.Contains(t, types, `import type { IMoney } from "../../common/Money/types";`)
	assert.Contains(t, types, "total?: IMoney | null;")
}

func TestGenerateNameCollisions(t *testing.T) {
	t.Parallel()

	result := compiler.Compile(testutil.MustParse(t, `
		message A {
			B b = 1;
			C.B cb = 2;
			message B {}
		}
		message C {
			message B {}
		}
	`))
	require.Empty(t, result.Errors)
	files, err := tscodegen.Generate(result.Funcs)
	require.NoError(t, err)

	encode := fileContent(t, files, "A/encode.ts")
	assert.Contains(t, encode, `import { encode as encodeB } from "./B/encode";`)
	assert.Contains(t, encode, `import { encode as encodeB2 } from "../C/B/encode";`)
	assert.Contains(t, encode, "encodeB2(message.cb, writer.uint32(18).fork()).ldelim();")

	types := fileContent(t, files, "A/types.ts")
	assert.Contains(t, types, `import type { IB as IB2 } from "../C/B/types";`)
	assert.Contains(t, types, "cb?: IB2 | null;")

	assert.Contains(t, fileContent(t, files, "A/B/types.ts"), "export interface IB {}")
}

func TestGenerateUnknownStatement(t *testing.T) {
	t.Parallel()

	fn := emit.NewFunc([]string{"p"}, []string{"M"})
	fn.Append(emit.Fork{})
	_, err := tscodegen.Generate([]*emit.Func{fn})
	assert.EqualError(t, err, "tscodegen: p.M: unexpected emit.Fork outside a field guard")
}

func shopRequest(t *testing.T, param string) *pluginpb.CodeGeneratorRequest {
	t.Helper()
	src, err := os.ReadFile("testdata/shop.proto")
	require.NoError(t, err)
	pkg, err := syntax.Parse(src)
	require.NoError(t, err)
	fdp, errs := compiler.FileDescriptor("shop.proto", pkg)
	require.Empty(t, errs)
	return &pluginpb.CodeGeneratorRequest{
		FileToGenerate: []string{"shop.proto"},
		Parameter:      proto.String(param),
		ProtoFile:      []*descriptorpb.FileDescriptorProto{fdp},
	}
}

func TestGenerateResponse(t *testing.T) {
	t.Parallel()

	resp := tscodegen.GenerateResponse(shopRequest(t, ""))
	require.Empty(t, resp.GetError())
	assert.Equal(t, uint64(pluginpb.CodeGeneratorResponse_FEATURE_PROTO3_OPTIONAL), resp.GetSupportedFeatures())

	files := make([]tscodegen.File, 0, len(resp.GetFile()))
	for _, file := range resp.GetFile() {
		files = append(files, tscodegen.File{Path: file.GetName(), Content: []byte(file.GetContent())})
	}
	want, err := os.ReadFile("testdata/shop.proto.ts")
	require.NoError(t, err)
	testutil.ExpectNoDiff(t, string(want), joinFiles(files))
}

func TestGenerateResponseErrors(t *testing.T) {
	t.Parallel()

	resp := tscodegen.GenerateResponse(shopRequest(t, "runtime=@protobufjs/minimal,flavor=x"))
	assert.Equal(t, `unknown plugin parameter "flavor"`, resp.GetError())
	assert.Empty(t, resp.GetFile())

	req := shopRequest(t, "")
	req.FileToGenerate = []string{"missing.proto"}
	resp = tscodegen.GenerateResponse(req)
	assert.Equal(t, `file to generate "missing.proto" is missing from the request`, resp.GetError())
}
