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

// Package tscodegen renders compiled encoders as TypeScript modules written
// against the protobufjs Writer.
//
// Each message gets a directory named after its package and nesting path
// holding two files: types.ts declares the I<Message> interface accepted by
// the encoder, and encode.ts exports the encode function.
package tscodegen

import (
	"fmt"
	"slices"
	"strings"

	"go.protots.org/protots/emit"
)

// DefaultRuntime is the module providing Writer.
const DefaultRuntime = "protobufjs/minimal"

// A File is one generated source file. Path is slash-separated and relative
// to the output directory.
type File struct {
	Path    string
	Content []byte
}

type GenerateOption interface {
	apply(*GenerateOptions)
}

type generateOption func(*GenerateOptions)

func (f generateOption) apply(opts *GenerateOptions) { f(opts) }

type GenerateOptions struct {
	runtime string
	deps    map[string]*emit.Func
	source  string
}

// WithRuntime sets the module that Writer is imported from.
func WithRuntime(module string) GenerateOption {
	return generateOption(func(opts *GenerateOptions) {
		opts.runtime = module
	})
}

// WithDependencies supplies encoders of imported messages. They are
// referenced by generated code but not generated themselves.
func WithDependencies(funcs []*emit.Func) GenerateOption {
	return generateOption(func(opts *GenerateOptions) {
		for _, fn := range funcs {
			opts.deps[fn.Name] = fn
		}
	})
}

// WithSource names the .proto file in the header of generated files.
func WithSource(path string) GenerateOption {
	return generateOption(func(opts *GenerateOptions) {
		opts.source = path
	})
}

func Generate(funcs []*emit.Func, opts ...GenerateOption) ([]File, error) {
	return NewGenerateOptions(opts...).Generate(funcs)
}

func NewGenerateOptions(opts ...GenerateOption) *GenerateOptions {
	generateOptions := &GenerateOptions{
		runtime: DefaultRuntime,
		deps:    make(map[string]*emit.Func),
	}
	for _, opt := range opts {
		opt.apply(generateOptions)
	}
	return generateOptions
}

func (opts *GenerateOptions) Generate(funcs []*emit.Func) ([]File, error) {
	index := make(map[string]*emit.Func, len(opts.deps)+len(funcs))
	for name, fn := range opts.deps {
		index[name] = fn
	}
	for _, fn := range funcs {
		index[fn.Name] = fn
	}

	files := make([]File, 0, 2*len(funcs))
	for _, fn := range funcs {
		m := &module{opts: opts, index: index, fn: fn}
		types, err := m.renderTypes()
		if err != nil {
			return nil, err
		}
		encode, err := m.renderEncode()
		if err != nil {
			return nil, err
		}
		dir := strings.Join(funcDir(fn), "/")
		files = append(files,
			File{Path: dir + "/types.ts", Content: types},
			File{Path: dir + "/encode.ts", Content: encode},
		)
	}
	return files, nil
}

func funcDir(fn *emit.Func) []string {
	return append(slices.Clone(fn.Package), fn.Path...)
}

// A module is the generation state of one message directory.
type module struct {
	opts  *GenerateOptions
	index map[string]*emit.Func
	fn    *emit.Func

	imports []importDecl
	locals  map[string]string
	used    map[string]bool
}

type importDecl struct {
	typeOnly bool
	name     string
	alias    string
	from     string
}

func (m *module) reset(reserved ...string) {
	m.imports = nil
	m.locals = make(map[string]string)
	m.used = make(map[string]bool)
	for _, name := range reserved {
		m.used[name] = true
	}
}

// importFrom binds name, exported by the module at from, to a local
// identifier distinct from every other binding in the file.
func (m *module) importFrom(typeOnly bool, name, from, preferred string) string {
	key := from + "#" + name
	if local, ok := m.locals[key]; ok {
		return local
	}
	local := preferred
	for n := 2; m.used[local]; n++ {
		local = fmt.Sprintf("%s%d", preferred, n)
	}
	m.used[local] = true
	m.locals[key] = local
	decl := importDecl{typeOnly: typeOnly, name: name, from: from}
	if local != name {
		decl.alias = local
	}
	m.imports = append(m.imports, decl)
	return local
}

func (m *module) lookup(message string) (*emit.Func, error) {
	fn, ok := m.index[message]
	if !ok {
		return nil, fmt.Errorf("tscodegen: %s refers to message %q, which has no encoder", m.fn.Name, message)
	}
	return fn, nil
}

// relImport returns the module specifier of file within the directory of
// target, relative to the directory of the current message.
func (m *module) relImport(target *emit.Func, file string) string {
	from, to := funcDir(m.fn), funcDir(target)
	common := 0
	for common < len(from) && common < len(to) && from[common] == to[common] {
		common++
	}
	var parts []string
	for range from[common:] {
		parts = append(parts, "..")
	}
	parts = append(parts, to[common:]...)
	parts = append(parts, file)
	if parts[0] != ".." {
		return "./" + strings.Join(parts, "/")
	}
	return strings.Join(parts, "/")
}

func (m *module) header(p *printer) {
	p.line("// Code generated by protots. DO NOT EDIT.")
	if m.opts.source != "" {
		p.line("// source: %s", m.opts.source)
	}
	p.line("")
	slices.SortStableFunc(m.imports, func(a, b importDecl) int {
		return strings.Compare(importRank(a.from), importRank(b.from))
	})
	for _, imp := range m.imports {
		spec := imp.name
		if imp.alias != "" {
			spec += " as " + imp.alias
		}
		if imp.typeOnly {
			p.line("import type { %s } from %q;", spec, imp.from)
		} else {
			p.line("import { %s } from %q;", spec, imp.from)
		}
	}
	if len(m.imports) > 0 {
		p.line("")
	}
}

// importRank orders package imports before relative ones.
func importRank(from string) string {
	if strings.HasPrefix(from, ".") {
		return "1" + from
	}
	return "0" + from
}

type printer struct {
	buf    strings.Builder
	indent int
}

func (p *printer) line(format string, args ...any) {
	if format == "" {
		p.buf.WriteByte('\n')
		return
	}
	p.buf.WriteString(strings.Repeat("  ", p.indent))
	if len(args) == 0 {
		p.buf.WriteString(format)
	} else {
		fmt.Fprintf(&p.buf, format, args...)
	}
	p.buf.WriteByte('\n')
}

func (p *printer) open(format string, args ...any) {
	p.line(format+" {", args...)
	p.indent++
}

func (p *printer) close() {
	p.indent--
	p.line("}")
}

func (p *printer) bytes() []byte {
	return []byte(p.buf.String())
}
