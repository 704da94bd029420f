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

package protobin

import (
	"fmt"
	"math"
	"slices"

	"go.protots.org/protots/emit"
	"go.protots.org/protots/syntax"
)

// MaxDepth limits how deeply messages may nest within one encoded value.
const MaxDepth = 100

// A Program runs compiled encoders over dynamic values.
type Program struct {
	funcs map[string]*emit.Func
	enums map[string]map[string]int64
}

// NewProgram indexes funcs by message name. Enum tables map the full name of
// an enum to its values, so that enum fields may be given by value name.
func NewProgram(funcs []*emit.Func, enums map[string]map[string]int64) *Program {
	p := &Program{
		funcs: make(map[string]*emit.Func, len(funcs)),
		enums: enums,
	}
	for _, fn := range funcs {
		p.funcs[fn.Name] = fn
	}
	return p
}

// Has reports whether the program can encode the named message.
func (p *Program) Has(message string) bool {
	_, ok := p.funcs[message]
	return ok
}

// Encode encodes value as the named message.
func (p *Program) Encode(message string, value map[string]any) ([]byte, error) {
	w := NewWriter()
	if err := p.EncodeTo(w, message, value); err != nil {
		return nil, err
	}
	return w.Finish(), nil
}

// EncodeTo appends the encoding of value to w. On error, w holds a partial
// message and should be reset.
func (p *Program) EncodeTo(w *Writer, message string, value map[string]any) error {
	fn, ok := p.funcs[message]
	if !ok {
		return errUnknownMessage(nil, message)
	}
	return p.run(w, fn, value, []string{fn.Message}, 0)
}

type env struct {
	message map[string]any
	vars    map[string]any
	depth   int

	// path locates message within the top-level value, and varPaths
	// locate each loop variable relative to message.
	path     []string
	varPaths map[string]string
}

func (e *env) eval(expr emit.Expr) any {
	switch expr := expr.(type) {
	case emit.Field:
		return e.message[expr.Name]
	case emit.Var:
		return e.vars[expr.Name]
	}
	panic(fmt.Sprintf("protobin: unknown expression %T", expr))
}

// at returns the path of the value named by expr, for error messages.
func (e *env) at(expr emit.Expr) []string {
	switch expr := expr.(type) {
	case emit.Field:
		return append(slices.Clone(e.path), "."+expr.Name)
	case emit.Var:
		if suffix, ok := e.varPaths[expr.Name]; ok {
			return append(slices.Clone(e.path), suffix)
		}
	}
	return e.path
}

func (p *Program) run(w *Writer, fn *emit.Func, message map[string]any, path []string, depth int) error {
	if depth >= MaxDepth {
		return errTooDeep(path, MaxDepth)
	}
	e := &env{
		message:  message,
		vars:     make(map[string]any),
		depth:    depth,
		path:     path,
		varPaths: make(map[string]string),
	}
	return p.exec(w, fn.Body, e)
}

func (p *Program) exec(w *Writer, stmts []emit.Stmt, e *env) error {
	for _, stmt := range stmts {
		if err := p.execStmt(w, stmt, e); err != nil {
			return err
		}
	}
	return nil
}

func (p *Program) execStmt(w *Writer, stmt emit.Stmt, e *env) error {
	switch stmt := stmt.(type) {
	case emit.WriteTag:
		w.Uint32(uint32(stmt.Prefix()))
	case emit.WriteValue:
		return p.writeValue(w, stmt, e.eval(stmt.Value), e.at(stmt.Value))
	case emit.Fork:
		w.Fork()
	case emit.Ldelim:
		w.Ldelim()
	case emit.If:
		if checkCond(stmt.Cond, e) {
			return p.exec(w, stmt.Then, e)
		}
	case emit.ForEach:
		elems, ok := listElems(e.eval(stmt.Over))
		if !ok {
			return errWrongType(e.at(stmt.Over), "list", e.eval(stmt.Over))
		}
		listPath := e.at(stmt.Over)
		for ii, elem := range elems {
			e.vars[stmt.Var] = elem
			e.varPaths[stmt.Var] = fmt.Sprintf("%s[%d]", lastSegment(listPath), ii)
			if err := p.exec(w, stmt.Body, e); err != nil {
				return err
			}
		}
	case emit.ForEachEntry:
		return p.execEntries(w, stmt, e)
	case emit.EncodeMessage:
		return p.encodeMessage(w, stmt, e)
	default:
		panic(fmt.Sprintf("protobin: unknown statement %T", stmt))
	}
	return nil
}

func (p *Program) execEntries(w *Writer, stmt emit.ForEachEntry, e *env) error {
	over := e.eval(stmt.Over)
	mapPath := e.at(stmt.Over)
	entries, err := mapEntries(over, mapKeyKind(stmt.Body))
	if err != nil {
		return &Error{Path: mapPath, Message: err.Error()}
	}
	for _, entry := range entries {
		e.vars[stmt.Key] = entry.key
		e.vars[stmt.Value] = entry.value
		suffix := fmt.Sprintf("%s[%q]", lastSegment(mapPath), fmt.Sprint(entry.key))
		e.varPaths[stmt.Key] = suffix
		e.varPaths[stmt.Value] = suffix
		if err := p.exec(w, stmt.Body, e); err != nil {
			return err
		}
	}
	return nil
}

// mapKeyKind finds the kind of the key written by a map entry body, which
// is always the first value written.
func mapKeyKind(body []emit.Stmt) syntax.Scalar {
	for _, stmt := range body {
		if value, ok := stmt.(emit.WriteValue); ok {
			return value.Kind
		}
	}
	return syntax.String
}

func (p *Program) encodeMessage(w *Writer, stmt emit.EncodeMessage, e *env) error {
	value := e.eval(stmt.Value)
	path := e.at(stmt.Value)
	fn, ok := p.funcs[stmt.Message]
	if !ok {
		return errUnknownMessage(path, stmt.Message)
	}
	message, ok := getMessage(value)
	if !ok {
		return errWrongType(path, "message "+stmt.Message, value)
	}
	return p.run(w, fn, message, path, e.depth+1)
}

func checkCond(cond emit.Cond, e *env) bool {
	switch cond := cond.(type) {
	case emit.Present:
		return present(e.eval(cond.Value))
	case emit.NonEmpty:
		return nonEmpty(e.eval(cond.Value))
	}
	panic(fmt.Sprintf("protobin: unknown condition %T", cond))
}

func lastSegment(path []string) string {
	if len(path) == 0 {
		return ""
	}
	return path[len(path)-1]
}

func (p *Program) writeValue(w *Writer, stmt emit.WriteValue, v any, path []string) error {
	switch stmt.Kind {
	case syntax.Int32, syntax.Sint32, syntax.Sfixed32:
		n, err := p.signed(stmt, v, path)
		if err != nil {
			return err
		}
		if n < math.MinInt32 || n > math.MaxInt32 {
			return errOutOfRange(path, stmt.Kind.String(), v)
		}
		switch stmt.Kind {
		case syntax.Int32:
			w.Int32(int32(n))
		case syntax.Sint32:
			w.Sint32(int32(n))
		default:
			w.Sfixed32(int32(n))
		}
	case syntax.Int64, syntax.Sint64, syntax.Sfixed64:
		n, err := p.signed(stmt, v, path)
		if err != nil {
			return err
		}
		switch stmt.Kind {
		case syntax.Int64:
			w.Int64(n)
		case syntax.Sint64:
			w.Sint64(n)
		default:
			w.Sfixed64(n)
		}
	case syntax.Uint32, syntax.Fixed32:
		n, ok := getUint64(v)
		if !ok {
			return errWrongType(path, stmt.Kind.String(), v)
		}
		if n > math.MaxUint32 {
			return errOutOfRange(path, stmt.Kind.String(), v)
		}
		if stmt.Kind == syntax.Uint32 {
			w.Uint32(uint32(n))
		} else {
			w.Fixed32(uint32(n))
		}
	case syntax.Uint64, syntax.Fixed64:
		n, ok := getUint64(v)
		if !ok {
			return errWrongType(path, stmt.Kind.String(), v)
		}
		if stmt.Kind == syntax.Uint64 {
			w.Uint64(n)
		} else {
			w.Fixed64(n)
		}
	case syntax.Bool:
		b, ok := v.(bool)
		if !ok {
			if b, ok = getBoolKey(v); !ok {
				return errWrongType(path, "bool", v)
			}
		}
		w.Bool(b)
	case syntax.Float:
		f, ok := getFloat64(v)
		if !ok {
			return errWrongType(path, "float", v)
		}
		w.Float(float32(f))
	case syntax.Double:
		f, ok := getFloat64(v)
		if !ok {
			return errWrongType(path, "double", v)
		}
		w.Double(f)
	case syntax.String:
		s, ok := v.(string)
		if !ok {
			return errWrongType(path, "string", v)
		}
		w.String(s)
	case syntax.Bytes:
		b, ok := getBytes(v)
		if !ok {
			return errWrongType(path, "bytes", v)
		}
		w.Bytes(b)
	default:
		panic(fmt.Sprintf("protobin: unknown scalar %v", stmt.Kind))
	}
	return nil
}

// signed reads an integer, resolving value names of enum fields.
func (p *Program) signed(stmt emit.WriteValue, v any, path []string) (int64, error) {
	if name, ok := v.(string); ok && stmt.Enum != "" {
		if n, ok := getInt64(name); ok {
			return n, nil
		}
		n, ok := p.enums[stmt.Enum][name]
		if !ok {
			return 0, errUnknownEnumValue(path, stmt.Enum, name)
		}
		return n, nil
	}
	n, ok := getInt64(v)
	if !ok {
		return 0, errWrongType(path, stmt.Kind.String(), v)
	}
	return n, nil
}
