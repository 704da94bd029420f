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

package emit

import (
	"google.golang.org/protobuf/encoding/protowire"

	"go.protots.org/protots/syntax"
)

// A Stmt is one of WriteTag, WriteValue, Fork, Ldelim, If, ForEach,
// ForEachEntry, or EncodeMessage.
type Stmt interface {
	stmt()
}

// WriteTag writes a field key as a uint32 varint.
type WriteTag struct {
	Field int64
	Wire  protowire.Type
}

// Prefix is the encoded key, (field << 3) | wire type.
func (t WriteTag) Prefix() uint64 {
	return uint64(t.Field)<<3 | uint64(t.Wire)
}

// WriteValue writes a scalar without a key. Enum values are written as
// int32 and carry the enum's full name so that runtimes may accept value
// names.
type WriteValue struct {
	Kind  syntax.Scalar
	Value Expr
	Enum  string
}

// Fork starts a length-delimited section.
type Fork struct{}

// Ldelim ends the innermost forked section, prefixing it with its length.
type Ldelim struct{}

type If struct {
	Cond Cond
	Then []Stmt
}

// ForEach runs Body once per element of the list Over, binding the element
// to the variable Var.
type ForEach struct {
	Var  string
	Over Expr
	Body []Stmt
}

// ForEachEntry runs Body once per entry of the map Over, binding the key and
// value to the variables Key and Value.
type ForEachEntry struct {
	Key   string
	Value string
	Over  Expr
	Body  []Stmt
}

// EncodeMessage calls the encoder of the named message, passing the current
// writer.
type EncodeMessage struct {
	Message string
	Value   Expr
}

func (WriteTag) stmt()      {}
func (WriteValue) stmt()    {}
func (Fork) stmt()          {}
func (Ldelim) stmt()        {}
func (If) stmt()            {}
func (ForEach) stmt()       {}
func (ForEachEntry) stmt()  {}
func (EncodeMessage) stmt() {}

// An Expr is a Field or a Var.
type Expr interface {
	expr()
}

// Field is a property of the message parameter.
type Field struct {
	Name string
}

// Var is a loop variable bound by ForEach or ForEachEntry.
type Var struct {
	Name string
}

func (Field) expr() {}
func (Var) expr()   {}

// A Cond is Present or NonEmpty.
type Cond interface {
	cond()
}

// Present holds when the value is neither null nor undefined.
type Present struct {
	Value Expr
}

// NonEmpty holds when the value is present and has at least one element or
// entry.
type NonEmpty struct {
	Value Expr
}

func (Present) cond()  {}
func (NonEmpty) cond() {}
