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
	"strings"

	"go.protots.org/protots/emit"
	"go.protots.org/protots/syntax"
)

type encodeRenderer struct {
	*module
	writer string

	// keys holds the kind of each variable bound to a map key. Object keys
	// are always strings in JavaScript.
	keys map[string]syntax.Scalar
}

func (m *module) renderEncode() ([]byte, error) {
	m.reset("encode", emit.MessageParam, emit.WriterParam)
	r := &encodeRenderer{
		module: m,
		writer: m.importFrom(false, "Writer", m.opts.runtime, "Writer"),
		keys:   make(map[string]syntax.Scalar),
	}
	input := m.importFrom(true, m.fn.InputType, "./types", m.fn.InputType)

	params := make([]string, 0, len(m.fn.Params))
	for _, param := range m.fn.Params {
		name := param.Name
		if param.Optional {
			name += "?"
		}
		params = append(params, name+": "+r.typeName(param.Type, input))
	}

	var body printer
	body.open("export function encode(%s): %s", strings.Join(params, ", "), r.typeName(m.fn.Returns, input))
	body.open("if (!%s)", emit.WriterParam)
	body.line("%s = %s.create();", emit.WriterParam, r.writer)
	body.close()
	if err := r.stmts(&body, m.fn.Body); err != nil {
		return nil, err
	}
	body.line("return %s;", emit.WriterParam)
	body.close()

	var p printer
	m.header(&p)
	p.buf.WriteString(body.buf.String())
	return p.bytes(), nil
}

func (r *encodeRenderer) typeName(name, input string) string {
	switch name {
	case emit.WriterType:
		return r.writer
	case r.fn.InputType:
		return input
	}
	return name
}

// stmts renders a statement list. Consecutive writer operations are chained
// into one expression statement.
func (r *encodeRenderer) stmts(p *printer, stmts []emit.Stmt) error {
	var chain string
	on := func() string {
		if chain == "" {
			return emit.WriterParam
		}
		return chain
	}
	flush := func() {
		if chain != "" {
			p.line("%s;", chain)
			chain = ""
		}
	}

	for _, stmt := range stmts {
		switch stmt := stmt.(type) {
		case emit.WriteTag:
			chain = fmt.Sprintf("%s.uint32(%d)", on(), stmt.Prefix())
		case emit.WriteValue:
			chain = fmt.Sprintf("%s.%s(%s)", on(), stmt.Kind, r.writeArg(stmt))
		case emit.Fork:
			chain = on() + ".fork()"
		case emit.Ldelim:
			chain = on() + ".ldelim()"
		case emit.EncodeMessage:
			encoder, err := r.encoder(stmt.Message)
			if err != nil {
				return err
			}
			chain = fmt.Sprintf("%s(%s, %s)", encoder, r.expr(stmt.Value), on())
		case emit.If:
			flush()
			p.open("if (%s)", r.cond(stmt))
			if err := r.stmts(p, stmt.Then); err != nil {
				return err
			}
			p.close()
		case emit.ForEach:
			flush()
			p.open("for (const %s of %s)", stmt.Var, r.expr(stmt.Over))
			if err := r.stmts(p, stmt.Body); err != nil {
				return err
			}
			p.close()
		case emit.ForEachEntry:
			flush()
			if err := r.entries(p, stmt); err != nil {
				return err
			}
		default:
			return fmt.Errorf("tscodegen: %s: unknown statement %T", r.fn.Name, stmt)
		}
	}
	flush()
	return nil
}

func (r *encodeRenderer) entries(p *printer, stmt emit.ForEachEntry) error {
	kind := keyKind(stmt.Body)
	over := r.expr(stmt.Over)
	p.open("for (const %s of Object.keys(%s).sort(%s))", stmt.Key, over, keyOrder(kind))
	p.line("const %s = %s[%s];", stmt.Value, over, stmt.Key)
	r.keys[stmt.Key] = kind
	defer delete(r.keys, stmt.Key)
	if err := r.stmts(p, stmt.Body); err != nil {
		return err
	}
	p.close()
	return nil
}

// keyKind is the kind of the first value written by a map entry body, which
// is always the key.
func keyKind(body []emit.Stmt) syntax.Scalar {
	for _, stmt := range body {
		if value, ok := stmt.(emit.WriteValue); ok {
			return value.Kind
		}
	}
	return syntax.String
}

func keyOrder(kind syntax.Scalar) string {
	switch kind {
	case syntax.String, syntax.Bool:
		return ""
	}
	return "(a, b) => Number(a) - Number(b)"
}

func (r *encodeRenderer) writeArg(stmt emit.WriteValue) string {
	arg := r.expr(stmt.Value)
	v, ok := stmt.Value.(emit.Var)
	if !ok {
		return arg
	}
	kind, isKey := r.keys[v.Name]
	if !isKey {
		return arg
	}
	switch kind {
	case syntax.String, syntax.Int64, syntax.Uint64, syntax.Sint64, syntax.Fixed64, syntax.Sfixed64:
		return arg
	case syntax.Bool:
		return arg + ` === "true"`
	}
	return "Number(" + arg + ")"
}

func (r *encodeRenderer) expr(expr emit.Expr) string {
	switch expr := expr.(type) {
	case emit.Field:
		return propertyAccess(emit.MessageParam, expr.Name)
	case emit.Var:
		return expr.Name
	}
	panic(fmt.Sprintf("tscodegen: unknown expression %T", expr))
}

func (r *encodeRenderer) cond(stmt emit.If) string {
	switch cond := stmt.Cond.(type) {
	case emit.Present:
		return r.expr(cond.Value) + " != null"
	case emit.NonEmpty:
		value := r.expr(cond.Value)
		if _, ok := findEntries(stmt.Then); ok {
			return fmt.Sprintf("%s != null && Object.keys(%s).length > 0", value, value)
		}
		return fmt.Sprintf("%s != null && %s.length > 0", value, value)
	}
	panic(fmt.Sprintf("tscodegen: unknown condition %T", stmt.Cond))
}

// encoder returns the local name of the encoder of message.
func (r *encodeRenderer) encoder(message string) (string, error) {
	if message == r.fn.Name {
		return "encode", nil
	}
	target, err := r.lookup(message)
	if err != nil {
		return "", err
	}
	return r.importFrom(false, "encode", r.relImport(target, "encode"), "encode"+target.Message), nil
}
