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
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/pflag"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/encoding/prototext"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/descriptorpb"

	"go.protots.org/protots/emit"
)

type cmdCompile struct {
	g *globals

	outPath        string
	format         string
	dump           bool
	includeImports bool
}

func (*cmdCompile) help() *commandHelp {
	return &commandHelp{
		usage:   "compile [FILE...]",
		summary: "Check proto files and write their descriptors",
	}
}

func (cmd *cmdCompile) flags(flags *pflag.FlagSet) {
	flags.StringVarP(&cmd.outPath, "output", "o", "", "Write a FileDescriptorSet to this path ('-' for stdout)")
	flags.StringVarP(&cmd.format, "format", "f", "", "Descriptor set format: 'binary', 'text', or 'json' (default: from the output extension)")
	flags.BoolVar(&cmd.dump, "dump", false, "Print the generated encoders")
	flags.BoolVar(&cmd.includeImports, "include-imports", false, "Include imported files in the descriptor set")
}

func (cmd *cmdCompile) run(ctx context.Context, argv []string) int {
	g := cmd.g
	format, err := descriptorFormat(cmd.format, cmd.outPath)
	if err != nil {
		fmt.Fprintln(g.stderr, err)
		return 1
	}

	ws, ok := g.load(ctx, argv)
	if !ok {
		return 1
	}
	results, ok := ws.compile()
	if !ok {
		return 1
	}

	if cmd.dump {
		for _, file := range ws.inputs {
			for _, fn := range results[file.name].Funcs {
				fmt.Fprintln(g.stdout, emit.Dump(fn))
			}
		}
	}
	if cmd.outPath == "" {
		return 0
	}

	set := &descriptorpb.FileDescriptorSet{File: ws.descriptors(cmd.includeImports)}
	output, err := marshalDescriptorSet(set, format)
	if err != nil {
		fmt.Fprintln(g.stderr, err)
		return 1
	}
	if err := writeOutput(g.stdout, cmd.outPath, output); err != nil {
		fmt.Fprintln(g.stderr, err)
		return 1
	}
	return 0
}

// descriptorFormat picks the output format, guessing it from the extension
// of the output path when it is not given.
func descriptorFormat(format, outPath string) (string, error) {
	switch format {
	case "text", "json", "binary":
		return format, nil
	case "txtpb", "textproto":
		return "text", nil
	case "bin", "binpb":
		return "binary", nil
	case "":
	default:
		return "", fmt.Errorf("Unsupported output format %q", format)
	}
	if outPath == "" || outPath == "-" {
		return "binary", nil
	}
	switch filepath.Ext(outPath) {
	case ".txt", ".txtpb", ".textproto":
		return "text", nil
	case ".json":
		return "json", nil
	case ".pb", ".binpb", ".bin", ".desc":
		return "binary", nil
	}
	return "", fmt.Errorf("No format selected for %q (choose 'binary', 'text', or 'json')", outPath)
}

func marshalDescriptorSet(set *descriptorpb.FileDescriptorSet, format string) ([]byte, error) {
	switch format {
	case "text":
		return prototext.MarshalOptions{Multiline: true, Indent: "  "}.Marshal(set)
	case "json":
		return protojson.MarshalOptions{Multiline: true, Indent: "  "}.Marshal(set)
	}
	return proto.MarshalOptions{Deterministic: true}.Marshal(set)
}

func writeOutput(stdout io.Writer, outPath string, output []byte) error {
	if outPath == "-" {
		_, err := stdout.Write(output)
		return err
	}
	openFlags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	fp, err := os.OpenFile(outPath, openFlags, 0o666)
	if err != nil {
		return err
	}
	_, writeErr := fp.Write(output)
	closeErr := fp.Close()
	if writeErr != nil {
		return writeErr
	}
	return closeErr
}
