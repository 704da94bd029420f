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

package tscodegen

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"go.protots.org/protots/emit"
	"go.protots.org/protots/syntax"
)

var identifierRe = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*$`)

// propertyKey is the key of a property in an interface declaration.
func propertyKey(name string) string {
	if identifierRe.MatchString(name) {
		return name
	}
	return strconv.Quote(name)
}

// propertyAccess reads property name of obj.
func propertyAccess(obj, name string) string {
	if identifierRe.MatchString(name) {
		return obj + "." + name
	}
	return obj + "[" + strconv.Quote(name) + "]"
}

func scalarType(s syntax.Scalar) string {
	switch s {
	case syntax.Int64, syntax.Uint64, syntax.Sint64, syntax.Fixed64, syntax.Sfixed64:
		return "number | string"
	case syntax.Bool:
		return "boolean"
	case syntax.String:
		return "string"
	case syntax.Bytes:
		return "Uint8Array"
	default:
		return "number"
	}
}

func arrayOf(elem string) string {
	if strings.Contains(elem, " ") {
		return "(" + elem + ")[]"
	}
	return elem + "[]"
}

func (m *module) renderTypes() ([]byte, error) {
	m.reset(m.fn.InputType)

	var body printer
	if len(m.fn.Body) == 0 {
		body.line("export interface %s {}", m.fn.InputType)
	} else {
		body.open("export interface %s", m.fn.InputType)
		for _, stmt := range m.fn.Body {
			name, typ, err := m.fieldType(stmt)
			if err != nil {
				return nil, err
			}
			body.line("%s?: %s | null;", propertyKey(name), typ)
		}
		body.close()
	}

	var p printer
	m.header(&p)
	p.buf.WriteString(body.buf.String())
	return p.bytes(), nil
}

// fieldType recovers the property name and TypeScript type of the field
// written by one top-level statement of an encoder.
func (m *module) fieldType(stmt emit.Stmt) (string, string, error) {
	guard, ok := stmt.(emit.If)
	if !ok {
		return "", "", fmt.Errorf("tscodegen: %s: unexpected %T outside a field guard", m.fn.Name, stmt)
	}
	var value emit.Expr
	switch cond := guard.Cond.(type) {
	case emit.Present:
		value = cond.Value
	case emit.NonEmpty:
		value = cond.Value
	}
	field, ok := value.(emit.Field)
	if !ok {
		return "", "", fmt.Errorf("tscodegen: %s: field guard does not test a field", m.fn.Name)
	}

	if _, ok := guard.Cond.(emit.Present); ok {
		typ, err := m.valueType(guard.Then, field)
		return field.Name, typ, err
	}
	if entries, ok := findEntries(guard.Then); ok {
		typ, err := m.valueType(entries.Body, emit.Var{Name: entries.Value})
		return field.Name, "{ [key: string]: " + typ + " }", err
	}
	if loop, ok := findLoop(guard.Then); ok {
		typ, err := m.valueType(loop.Body, emit.Var{Name: loop.Var})
		return field.Name, arrayOf(typ), err
	}
	return "", "", fmt.Errorf("tscodegen: %s: field %s has no loop", m.fn.Name, field.Name)
}

// valueType finds the statement writing value and returns the type it
// accepts.
func (m *module) valueType(stmts []emit.Stmt, value emit.Expr) (string, error) {
	for _, stmt := range stmts {
		switch stmt := stmt.(type) {
		case emit.WriteValue:
			if stmt.Value != value {
				continue
			}
			if stmt.Enum != "" {
				return "number", nil
			}
			return scalarType(stmt.Kind), nil
		case emit.EncodeMessage:
			if stmt.Value != value {
				continue
			}
			if stmt.Message == m.fn.Name {
				return m.fn.InputType, nil
			}
			target, err := m.lookup(stmt.Message)
			if err != nil {
				return "", err
			}
			return m.importFrom(true, target.InputType, m.relImport(target, "types"), target.InputType), nil
		}
	}
	return "", fmt.Errorf("tscodegen: %s: no statement writes %v", m.fn.Name, value)
}

func findEntries(stmts []emit.Stmt) (emit.ForEachEntry, bool) {
	for _, stmt := range stmts {
		if entries, ok := stmt.(emit.ForEachEntry); ok {
			return entries, true
		}
	}
	return emit.ForEachEntry{}, false
}

func findLoop(stmts []emit.Stmt) (emit.ForEach, bool) {
	for _, stmt := range stmts {
		if loop, ok := stmt.(emit.ForEach); ok {
			return loop, true
		}
	}
	return emit.ForEach{}, false
}
