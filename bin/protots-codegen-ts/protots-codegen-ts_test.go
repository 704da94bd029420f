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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/descriptorpb"
	"google.golang.org/protobuf/types/pluginpb"

	"go.protots.org/protots/compiler"
	"go.protots.org/protots/internal/testutil"
)

func TestRun(t *testing.T) {
	pkg := testutil.MustParse(t, `package demo; message Ping { string text = 1; }`)
	fdp, errs := compiler.FileDescriptor("ping.proto", pkg)
	require.Empty(t, errs)
	requestBuf, err := proto.Marshal(&pluginpb.CodeGeneratorRequest{
		FileToGenerate: []string{"ping.proto"},
		ProtoFile:      []*descriptorpb.FileDescriptorProto{fdp},
	})
	require.NoError(t, err)

	var stdout bytes.Buffer
	require.NoError(t, run(bytes.NewReader(requestBuf), &stdout))

	response := &pluginpb.CodeGeneratorResponse{}
	require.NoError(t, proto.Unmarshal(stdout.Bytes(), response))
	require.Empty(t, response.GetError())

	var names []string
	for _, file := range response.GetFile() {
		names = append(names, file.GetName())
	}
	assert.Equal(t, []string{"demo/Ping/types.ts", "demo/Ping/encode.ts"}, names)
	assert.Contains(t, response.GetFile()[1].GetContent(), "writer.uint32(10).string(message.text);")
}

func TestRunBadRequest(t *testing.T) {
	var stdout bytes.Buffer
	err := run(bytes.NewReader([]byte{0xff}), &stdout)
	assert.Error(t, err)
	assert.Zero(t, stdout.Len())
}
