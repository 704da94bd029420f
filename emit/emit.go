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

// Package emit holds the target-neutral form of a generated encoder: one
// [Func] per message, made of wire-write statements.
package emit

import (
	"fmt"
	"slices"
	"strings"

	"google.golang.org/protobuf/encoding/protowire"

	"go.protots.org/protots/syntax"
)

// A Func encodes one message. The writer parameter is optional; when it is
// absent a new writer is created. The writer is always returned, so nested
// encoders can be chained onto a forked parent.
type Func struct {
	// Name is the fully-qualified message name, e.g. "demo.v1.Outer.Inner".
	Name string

	// Package is the package path and Path the message nesting path, so
	// that Name is their concatenation.
	Package []string
	Path    []string

	// Message is the simple message name.
	Message string

	// InputType names the structural type accepted by the encoder.
	InputType string

	Params  []Param
	Returns string
	Body    []Stmt
}

type Param struct {
	Name     string
	Type     string
	Optional bool
}

const (
	MessageParam = "message"
	WriterParam  = "writer"
	WriterType   = "Writer"
)

// NewFunc returns an encoder with the standard (message, writer?) signature
// and an empty body.
func NewFunc(pkg, path []string) *Func {
	message := path[len(path)-1]
	inputType := "I" + message
	return &Func{
		Name:      joinName(pkg, path),
		Package:   pkg,
		Path:      path,
		Message:   message,
		InputType: inputType,
		Params: []Param{
			{Name: MessageParam, Type: inputType},
			{Name: WriterParam, Type: WriterType, Optional: true},
		},
		Returns: WriterType,
	}
}

func joinName(pkg, path []string) string {
	return strings.Join(append(slices.Clone(pkg), path...), ".")
}

func (fn *Func) Append(stmts ...Stmt) {
	fn.Body = append(fn.Body, stmts...)
}

// WireTypeOf returns the wire type used to encode a scalar.
func WireTypeOf(s syntax.Scalar) protowire.Type {
	switch s {
	case syntax.Int32, syntax.Int64, syntax.Uint32, syntax.Uint64,
		syntax.Sint32, syntax.Sint64, syntax.Bool:
		return protowire.VarintType
	case syntax.Fixed64, syntax.Sfixed64, syntax.Double:
		return protowire.Fixed64Type
	case syntax.String, syntax.Bytes:
		return protowire.BytesType
	case syntax.Fixed32, syntax.Sfixed32, syntax.Float:
		return protowire.Fixed32Type
	default:
		panic(fmt.Sprintf("emit.WireTypeOf(%v)", s))
	}
}

// Packable reports whether repeated values of s may use the packed form.
func Packable(s syntax.Scalar) bool {
	return WireTypeOf(s) != protowire.BytesType
}

func wireTypeName(wt protowire.Type) string {
	switch wt {
	case protowire.VarintType:
		return "varint"
	case protowire.Fixed64Type:
		return "i64"
	case protowire.BytesType:
		return "len"
	case protowire.Fixed32Type:
		return "i32"
	default:
		return fmt.Sprintf("wire%d", wt)
	}
}
