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

package compiler

import (
	"fmt"
	"slices"
	"strings"

	"github.com/tidwall/btree"
	"google.golang.org/protobuf/encoding/protowire"

	"go.protots.org/protots/emit"
	"go.protots.org/protots/syntax"
)

type generator struct {
	pkg      *syntax.Package
	funcs    []*emit.Func
	errors   []*Error
	warnings []*Warning
}

func (g *generator) err(err error, span syntax.Span) {
	g.errors = append(g.errors, err.(*Error).withSpan(span))
}

func (g *generator) warn(warning *Warning) {
	g.warnings = append(g.warnings, warning)
}

// generateMessage appends the encoder of msg, then the encoders of the
// messages nested in it.
func (g *generator) generateMessage(scope *Scope, msg *syntax.MessageDeclaration, parent []string) {
	path := append(slices.Clone(parent), msg.Name)
	inner := scope.Nested(msg)
	msgName := inner.FullName()

	fn := emit.NewFunc(g.pkg.Path, path)
	for _, ref := range fieldsByTag(msg) {
		if stmt := g.generateField(inner, msgName, ref.field); stmt != nil {
			fn.Append(stmt)
		}
	}
	g.funcs = append(g.funcs, fn)

	for _, entry := range msg.Entries {
		if nested, ok := entry.(*syntax.MessageDeclaration); ok {
			g.generateMessage(inner, nested, path)
		}
	}
}

type fieldRef struct {
	field *syntax.FieldDeclaration
	oneof *syntax.OneOfDeclaration
}

// fieldsByTag returns the fields of msg, including oneof members, in
// ascending tag order. Fields sharing a tag keep their declaration order.
func fieldsByTag(msg *syntax.MessageDeclaration) []fieldRef {
	var index btree.Map[int64, []fieldRef]
	count := 0
	for field, oneof := range msg.Fields() {
		refs, _ := index.Get(field.Tag)
		index.Set(field.Tag, append(refs, fieldRef{field, oneof}))
		count++
	}
	out := make([]fieldRef, 0, count)
	index.Scan(func(_ int64, refs []fieldRef) bool {
		out = append(out, refs...)
		return true
	})
	return out
}

func (g *generator) generateField(scope *Scope, msgName string, field *syntax.FieldDeclaration) emit.Stmt {
	if !validTag(field.Tag) {
		return nil
	}
	value := emit.Field{Name: jsonName(field)}
	switch t := field.Type.(type) {
	case syntax.Repeated:
		elem, ok := g.resolveElem(scope, field, t.Elem)
		if !ok {
			return nil
		}
		return g.repeatedField(msgName, field, elem, value)
	case syntax.Map:
		return g.mapField(scope, msgName, field, t, value)
	default:
		elem, ok := g.resolveElem(scope, field, t)
		if !ok {
			return nil
		}
		g.packedEncoding(msgName, field, false)
		return emit.If{
			Cond: emit.Present{Value: value},
			Then: elem.write(field.Tag, value),
		}
	}
}

func (g *generator) repeatedField(msgName string, field *syntax.FieldDeclaration, elem elemType, value emit.Expr) emit.Stmt {
	v := emit.Var{Name: "v"}
	var body []emit.Stmt
	if g.packedEncoding(msgName, field, elem.packable()) {
		body = []emit.Stmt{
			emit.WriteTag{Field: field.Tag, Wire: protowire.BytesType},
			emit.Fork{},
			emit.ForEach{Var: v.Name, Over: value, Body: []emit.Stmt{elem.writeValue(v)}},
			emit.Ldelim{},
		}
	} else {
		body = []emit.Stmt{
			emit.ForEach{Var: v.Name, Over: value, Body: elem.write(field.Tag, v)},
		}
	}
	return emit.If{Cond: emit.NonEmpty{Value: value}, Then: body}
}

func (g *generator) mapField(scope *Scope, msgName string, field *syntax.FieldDeclaration, t syntax.Map, value emit.Expr) emit.Stmt {
	g.packedEncoding(msgName, field, false)
	key, ok := t.Key.(syntax.Scalar)
	if !ok || !validMapKey(key) {
		g.warn(warnUnsupportedField(msgName, field, fmt.Sprintf("%s cannot be used as a map key", t.Key)))
		return nil
	}
	val, ok := g.resolveElem(scope, field, t.Value)
	if !ok {
		return nil
	}

	k, v := emit.Var{Name: "k"}, emit.Var{Name: "v"}
	body := []emit.Stmt{
		emit.WriteTag{Field: field.Tag, Wire: protowire.BytesType},
		emit.Fork{},
	}
	body = append(body, elemType{scalar: key}.write(1, k)...)
	body = append(body, val.write(2, v)...)
	body = append(body, emit.Ldelim{})
	return emit.If{
		Cond: emit.NonEmpty{Value: value},
		Then: []emit.Stmt{
			emit.ForEachEntry{Key: k.Name, Value: v.Name, Over: value, Body: body},
		},
	}
}

// packedEncoding applies the packed attribute of a field whose elements may
// or may not be packed.
func (g *generator) packedEncoding(msgName string, field *syntax.FieldDeclaration, canPack bool) bool {
	attr, ok := field.Attribute("packed")
	if !ok {
		return canPack
	}
	switch attr {
	case "true":
		if !canPack {
			g.warn(warnPackedNotPackable(msgName, field))
		}
		return canPack
	case "false":
		return false
	default:
		g.warn(warnInvalidAttributeValue(msgName, field, "packed", attr))
		return canPack
	}
}

// An elemType is a resolved value type: a scalar, an enum (written as
// int32), or a message.
type elemType struct {
	scalar  syntax.Scalar
	enum    string
	message string
}

func (g *generator) resolveElem(scope *Scope, field *syntax.FieldDeclaration, t syntax.FieldType) (elemType, bool) {
	switch t := t.(type) {
	case syntax.Scalar:
		return elemType{scalar: t}, true
	case syntax.IdPath:
		resolved, err := ResolvePath(scope, t)
		if err != nil {
			g.err(err, field.Span)
			return elemType{}, false
		}
		switch resolved.Kind {
		case ResolvedEnum:
			return elemType{scalar: syntax.Int32, enum: resolved.Name()}, true
		case ResolvedMessage:
			return elemType{message: resolved.Name()}, true
		default:
			g.err(errNotAType(t), field.Span)
			return elemType{}, false
		}
	}
	panic(fmt.Sprintf("field %s has unexpected element type %s", field.Name, t))
}

func (e elemType) packable() bool {
	return e.message == "" && emit.Packable(e.scalar)
}

func (e elemType) writeValue(value emit.Expr) emit.Stmt {
	return emit.WriteValue{Kind: e.scalar, Value: value, Enum: e.enum}
}

// write returns the statements encoding value as field number field.
func (e elemType) write(field int64, value emit.Expr) []emit.Stmt {
	if e.message != "" {
		return []emit.Stmt{
			emit.WriteTag{Field: field, Wire: protowire.BytesType},
			emit.Fork{},
			emit.EncodeMessage{Message: e.message, Value: value},
			emit.Ldelim{},
		}
	}
	return []emit.Stmt{
		emit.WriteTag{Field: field, Wire: emit.WireTypeOf(e.scalar)},
		e.writeValue(value),
	}
}

func validMapKey(s syntax.Scalar) bool {
	switch s {
	case syntax.Double, syntax.Float, syntax.Bytes:
		return false
	}
	return true
}

// jsonName is the property holding a field's value: the json_name attribute
// if set, otherwise the lowerCamelCase form of the field name.
func jsonName(field *syntax.FieldDeclaration) string {
	if name, ok := field.Attribute("json_name"); ok {
		return name
	}
	return camelCase(field.Name, false)
}

func mapEntryName(fieldName string) string {
	return camelCase(fieldName, true) + "Entry"
}

func camelCase(name string, upperFirst bool) string {
	var buf strings.Builder
	upper := upperFirst
	for _, c := range name {
		if c == '_' {
			upper = true
			continue
		}
		if upper && 'a' <= c && c <= 'z' {
			c -= 'a' - 'A'
		}
		upper = false
		buf.WriteRune(c)
	}
	return buf.String()
}
