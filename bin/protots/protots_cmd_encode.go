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

	"github.com/protocolbuffers/protoscope"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"go.protots.org/protots/emit"
	"go.protots.org/protots/encoding/protobin"
)

type cmdEncode struct {
	g *globals

	message    string
	valuesPath string
	raw        bool
}

func (*cmdEncode) help() *commandHelp {
	return &commandHelp{
		usage:   "encode FILE --message=NAME",
		summary: "Encode a YAML or JSON value with a generated encoder",
	}
}

func (cmd *cmdEncode) flags(flags *pflag.FlagSet) {
	flags.StringVarP(&cmd.message, "message", "m", "", "Message to encode, fully qualified or relative to the file's package")
	flags.StringVar(&cmd.valuesPath, "values", "-", "YAML or JSON file holding the value ('-' for stdin)")
	flags.BoolVar(&cmd.raw, "raw", false, "Write wire-format bytes instead of protoscope text")
}

func (cmd *cmdEncode) run(ctx context.Context, argv []string) int {
	g := cmd.g
	if len(argv) != 1 {
		fmt.Fprintln(g.stderr, "usage: protots encode FILE --message=NAME")
		return 1
	}
	if cmd.message == "" {
		fmt.Fprintln(g.stderr, "No message selected (set --message=)")
		return 1
	}

	value, err := cmd.readValue()
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

	var funcs []*emit.Func
	enums := make(map[string]map[string]int64)
	for _, file := range ws.order {
		result := results[file.name]
		funcs = append(funcs, result.Funcs...)
		for name, values := range result.Enums {
			enums[name] = values
		}
	}
	program := protobin.NewProgram(funcs, enums)

	message := cmd.message
	if pkg := ws.inputs[0].pkg; !program.Has(message) && program.Has(pkg.Name()+"."+message) {
		message = pkg.Name() + "." + message
	}
	encoded, err := program.Encode(message, value)
	if err != nil {
		fmt.Fprintln(g.stderr, err)
		return 1
	}

	if cmd.raw {
		_, err = g.stdout.Write(encoded)
	} else {
		_, err = io.WriteString(g.stdout, protoscope.Write(encoded, protoscope.WriterOptions{}))
	}
	if err != nil {
		fmt.Fprintln(g.stderr, err)
		return 1
	}
	return 0
}

// readValue decodes the value to encode. JSON documents are valid YAML.
func (cmd *cmdEncode) readValue() (map[string]any, error) {
	var buf []byte
	var err error
	if cmd.valuesPath == "-" {
		buf, err = io.ReadAll(cmd.g.stdin)
	} else {
		buf, err = os.ReadFile(cmd.valuesPath)
	}
	if err != nil {
		return nil, err
	}
	value := make(map[string]any)
	if err := yaml.Unmarshal(buf, &value); err != nil {
		return nil, fmt.Errorf("%s: %w", cmd.valuesPath, err)
	}
	return value, nil
}
