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

package syntax

import (
	"fmt"
	"iter"
	"strings"
)

type Span struct {
	start, len uint32
}

func NewSpan(start, len uint32) Span {
	return Span{start, len}
}

func (s Span) Start() uint32 {
	return s.start
}

func (s Span) End() uint32 {
	return s.start + s.len
}

func (s Span) Len() uint32 {
	return s.len
}

type SyntaxVersion uint8

const (
	Proto2 SyntaxVersion = iota
	Proto3
)

func (v SyntaxVersion) String() string {
	switch v {
	case Proto2:
		return "proto2"
	case Proto3:
		return "proto3"
	default:
		return fmt.Sprintf("SyntaxVersion(%d)", uint8(v))
	}
}

// A Package is the parsed form of one .proto file.
type Package struct {
	// Syntax defaults to Proto2 when the file has no syntax statement.
	Syntax SyntaxVersion

	// Path is the dotted package name split into segments. It is empty
	// when the file has no package statement.
	Path []string

	Imports      []string
	Declarations []Declaration
}

func (p *Package) Name() string {
	return strings.Join(p.Path, ".")
}

// Messages yields every message declared in the package, outer messages
// before the messages nested inside them.
func (p *Package) Messages() iter.Seq[*MessageDeclaration] {
	return func(yield func(*MessageDeclaration) bool) {
		for _, decl := range p.Declarations {
			if msg, ok := decl.(*MessageDeclaration); ok {
				if !msg.walk(yield) {
					return
				}
			}
		}
	}
}

// A Declaration is a top-level package member.
type Declaration interface {
	DeclName() string
	declaration()
}

// A MessageEntry is a member of a message or oneof body.
type MessageEntry interface {
	EntryName() string
	messageEntry()
}

type MessageDeclaration struct {
	Name    string
	Entries []MessageEntry
	Span    Span
}

func (m *MessageDeclaration) DeclName() string  { return m.Name }
func (m *MessageDeclaration) EntryName() string { return m.Name }
func (*MessageDeclaration) declaration()        {}
func (*MessageDeclaration) messageEntry()       {}

// Fields yields the fields declared directly in the message body, followed by
// the options of each oneof. The oneof containing a field is nil for plain
// fields.
func (m *MessageDeclaration) Fields() iter.Seq2[*FieldDeclaration, *OneOfDeclaration] {
	return func(yield func(*FieldDeclaration, *OneOfDeclaration) bool) {
		for _, entry := range m.Entries {
			switch entry := entry.(type) {
			case *FieldDeclaration:
				if !yield(entry, nil) {
					return
				}
			case *OneOfDeclaration:
				for _, field := range entry.Options {
					if !yield(field, entry) {
						return
					}
				}
			}
		}
	}
}

// Nested returns the message or enum named name declared directly inside m.
func (m *MessageDeclaration) Nested(name string) Declaration {
	for _, entry := range m.Entries {
		switch entry := entry.(type) {
		case *MessageDeclaration:
			if entry.Name == name {
				return entry
			}
		case *EnumDeclaration:
			if entry.Name == name {
				return entry
			}
		}
	}
	return nil
}

func (m *MessageDeclaration) walk(yield func(*MessageDeclaration) bool) bool {
	if !yield(m) {
		return false
	}
	for _, entry := range m.Entries {
		if nested, ok := entry.(*MessageDeclaration); ok {
			if !nested.walk(yield) {
				return false
			}
		}
	}
	return true
}

type EnumDeclaration struct {
	Name    string
	Entries []EnumEntry
	Span    Span
}

func (e *EnumDeclaration) DeclName() string  { return e.Name }
func (e *EnumDeclaration) EntryName() string { return e.Name }
func (*EnumDeclaration) declaration()        {}
func (*EnumDeclaration) messageEntry()       {}

type EnumEntry struct {
	Name  string
	Value int64
	Span  Span
}

type OneOfDeclaration struct {
	Name    string
	Options []*FieldDeclaration
	Span    Span
}

func (o *OneOfDeclaration) EntryName() string { return o.Name }
func (*OneOfDeclaration) messageEntry()       {}

type FieldDeclaration struct {
	Name       string
	Tag        int64
	Type       FieldType
	Attributes []Attribute
	Span       Span
}

func (f *FieldDeclaration) EntryName() string { return f.Name }
func (*FieldDeclaration) messageEntry()       {}

// Attribute returns the value of the last attribute named key.
func (f *FieldDeclaration) Attribute(key string) (string, bool) {
	for ii := len(f.Attributes) - 1; ii >= 0; ii-- {
		if f.Attributes[ii].Key == key {
			return f.Attributes[ii].Value, true
		}
	}
	return "", false
}

type Attribute struct {
	Key   string
	Value string
}

// A FieldType is one of Scalar, IdPath, Repeated, or Map.
type FieldType interface {
	String() string
	fieldType()
}

// Scalar is a built-in protobuf value type.
type Scalar uint8

const (
	Double Scalar = iota + 1
	Float
	Int32
	Int64
	Uint32
	Uint64
	Sint32
	Sint64
	Fixed32
	Fixed64
	Sfixed32
	Sfixed64
	Bool
	String
	Bytes
)

var scalarNames = [...]string{
	Double:   "double",
	Float:    "float",
	Int32:    "int32",
	Int64:    "int64",
	Uint32:   "uint32",
	Uint64:   "uint64",
	Sint32:   "sint32",
	Sint64:   "sint64",
	Fixed32:  "fixed32",
	Fixed64:  "fixed64",
	Sfixed32: "sfixed32",
	Sfixed64: "sfixed64",
	Bool:     "bool",
	String:   "string",
	Bytes:    "bytes",
}

var scalarByName = func() map[string]Scalar {
	m := make(map[string]Scalar, len(scalarNames))
	for ii, name := range scalarNames {
		if name != "" {
			m[name] = Scalar(ii)
		}
	}
	return m
}()

// LookupScalar returns the scalar named by a single-segment type name.
func LookupScalar(name string) (Scalar, bool) {
	s, ok := scalarByName[name]
	return s, ok
}

func (s Scalar) String() string {
	if int(s) < len(scalarNames) && scalarNames[s] != "" {
		return scalarNames[s]
	}
	return fmt.Sprintf("Scalar(%d)", uint8(s))
}

func (Scalar) fieldType() {}

// An IdPath names a message or enum, possibly qualified by the names of
// enclosing packages or messages. A fully-qualified path has an empty
// first segment.
type IdPath []string

// Absolute reports whether the path was written with a leading dot.
func (p IdPath) Absolute() bool {
	return len(p) > 0 && p[0] == ""
}

func (p IdPath) String() string {
	return strings.Join(p, ".")
}

func (IdPath) fieldType() {}

type Repeated struct {
	Elem FieldType
}

func (r Repeated) String() string {
	return "repeated " + r.Elem.String()
}

func (Repeated) fieldType() {}

type Map struct {
	Key   FieldType
	Value FieldType
}

func (m Map) String() string {
	return fmt.Sprintf("map<%s, %s>", m.Key, m.Value)
}

func (Map) fieldType() {}
