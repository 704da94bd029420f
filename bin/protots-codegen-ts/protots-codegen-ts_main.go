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

// protots-codegen-ts generates TypeScript encoders. It speaks the protoc
// plugin protocol on stdin and stdout, and when built for wasip1 it also
// exports the entry points used by "protots codegen --plugin".
package main

import (
	"io"
	"log"
	"os"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/pluginpb"

	"go.protots.org/protots/codegen/tscodegen"
)

func main() {
	if err := run(os.Stdin, os.Stdout); err != nil {
		log.Fatal(err)
	}
}

func run(stdin io.Reader, stdout io.Writer) error {
	requestBuf, err := io.ReadAll(stdin)
	if err != nil {
		return err
	}
	responseBuf, err := generate(requestBuf)
	if err != nil {
		return err
	}
	_, err = stdout.Write(responseBuf)
	return err
}

func generate(requestBuf []byte) ([]byte, error) {
	request := &pluginpb.CodeGeneratorRequest{}
	if err := proto.Unmarshal(requestBuf, request); err != nil {
		return nil, err
	}
	return proto.Marshal(tscodegen.GenerateResponse(request))
}
