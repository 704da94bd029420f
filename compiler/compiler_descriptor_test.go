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
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"

	"go.protots.org/protots/compiler"
	"go.protots.org/protots/internal/testutil"
	"go.protots.org/protots/syntax"
)

func TestFileDescriptor(t *testing.T) {
	t.Parallel()

	src, err := os.ReadFile("testdata/encode/collections.proto")
	require.NoError(t, err)
	pkg, err := syntax.Parse(src)
	require.NoError(t, err)

	fdp, errs := compiler.FileDescriptor("collections.proto", pkg)
	require.Empty(t, errs)
	assert.Equal(t, "demo.v1", fdp.GetPackage())
	assert.Equal(t, "proto3", fdp.GetSyntax())

	fd, err := protodesc.NewFile(fdp, new(protoregistry.Files))
	require.NoError(t, err)

	item := fd.Messages().ByName("Item")
	require.NotNil(t, item)
	assert.Equal(t, protoreflect.FullName("demo.v1.Item"), item.FullName())

	ids := item.Fields().ByName("ids")
	assert.True(t, ids.IsList())
	assert.True(t, ids.IsPacked())

	colors := item.Fields().ByName("colors")
	assert.Equal(t, protoreflect.EnumKind, colors.Kind())
	assert.False(t, colors.IsPacked())

	byID := item.Fields().ByName("by_id")
	require.True(t, byID.IsMap())
	assert.Equal(t, "byId", byID.JSONName())
	assert.Equal(t, protoreflect.Int32Kind, byID.MapKey().Kind())
	assert.Equal(t, protoreflect.FullName("demo.v1.Item"), byID.MapValue().Message().FullName())
	assert.Equal(t, protoreflect.FullName("demo.v1.Item.ByIdEntry"), byID.Message().FullName())

	assert.Equal(t, "up", item.Fields().ByName("parent").JSONName())

	choice := item.Oneofs().ByName("choice")
	require.NotNil(t, choice)
	assert.Equal(t, 2, choice.Fields().Len())
	assert.Equal(t, protoreflect.FullName("demo.v1.Item.Inner"), item.Fields().ByName("inner").Message().FullName())

	inner := item.Messages().ByName("Inner")
	require.NotNil(t, inner)
	assert.Equal(t, protoreflect.FullName("demo.v1.Color"), inner.Fields().ByName("color").Enum().FullName())
}

func TestFileDescriptorImports(t *testing.T) {
	t.Parallel()

	common := testutil.MustParse(t, `
		package common;
		message Money { int64 units = 1; }
		enum Currency { USD = 0; EUR = 1; EURO = 1; }
	`)
	shop := testutil.MustParse(t, `
		import "common.proto";
		package shop;
		message Order {
			common.Money total = 1;
			repeated common.Currency currencies = 2 [packed = "true"];
			map<string, common.Money> lines = 3;
		}
	`)

	files := new(protoregistry.Files)
	commonFdp, errs := compiler.FileDescriptor("common.proto", common)
	require.Empty(t, errs)
	assert.True(t, commonFdp.GetEnumType()[0].GetOptions().GetAllowAlias())
	commonFd, err := protodesc.NewFile(commonFdp, files)
	require.NoError(t, err)
	require.NoError(t, files.RegisterFile(commonFd))

	shopFdp, errs := compiler.FileDescriptor("shop.proto", shop, compiler.WithDependencies(
		map[string]*syntax.Package{"common.proto": common},
	))
	require.Empty(t, errs)
	assert.Equal(t, []string{"common.proto"}, shopFdp.GetDependency())
	shopFd, err := protodesc.NewFile(shopFdp, files)
	require.NoError(t, err)

	order := shopFd.Messages().ByName("Order")
	assert.Equal(t, protoreflect.FullName("common.Money"), order.Fields().ByName("total").Message().FullName())
	currencies := order.Fields().ByName("currencies")
	assert.True(t, currencies.IsPacked())
	assert.Equal(t, protoreflect.FullName("common.Currency"), currencies.Enum().FullName())
	assert.True(t, order.Fields().ByName("lines").IsMap())
}

func TestFileDescriptorErrors(t *testing.T) {
	t.Parallel()

	pkg := testutil.MustParse(t, `message M { Missing a = 1; int32 b = 2; map<float, int32> c = 3; }`)
	fdp, errs := compiler.FileDescriptor("m.proto", pkg)
	testutil.ExpectCodes(t, []uint32{3100}, errs)

	fields := fdp.GetMessageType()[0].GetField()
	require.Len(t, fields, 1)
	assert.Equal(t, "b", fields[0].GetName())
}
