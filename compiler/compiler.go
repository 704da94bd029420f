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

// Package compiler resolves the type names of a parsed package and generates
// a wire-format encoder for each of its messages.
package compiler

import (
	"context"
	"log/slog"
	"runtime"

	"golang.org/x/sync/errgroup"

	"go.protots.org/protots/emit"
	"go.protots.org/protots/syntax"
)

type CompileOption interface {
	apply(*CompileOptions)
}

type compileOption func(*CompileOptions)

func (f compileOption) apply(opts *CompileOptions) { f(opts) }

type CompileOptions struct {
	deps        map[string]*syntax.Package
	logger      *slog.Logger
	parallelism int
}

// WithDependencies supplies the parsed packages that may be imported, keyed
// by import path.
func WithDependencies(deps map[string]*syntax.Package) CompileOption {
	return compileOption(func(opts *CompileOptions) {
		opts.deps = deps
	})
}

// WithLogger sets the logger that receives warnings. A nil logger disables
// logging.
func WithLogger(logger *slog.Logger) CompileOption {
	return compileOption(func(opts *CompileOptions) {
		if logger == nil {
			logger = slog.New(slog.DiscardHandler)
		}
		opts.logger = logger
	})
}

// WithParallelism limits how many top-level messages are generated
// concurrently. The default is GOMAXPROCS.
func WithParallelism(n int) CompileOption {
	return compileOption(func(opts *CompileOptions) {
		opts.parallelism = max(n, 1)
	})
}

type CompileResult struct {
	// Funcs holds one encoder per message, outer messages before the
	// messages nested in them, in declaration order.
	Funcs []*emit.Func

	// Enums maps the full name of every visible enum to its values.
	Enums map[string]map[string]int64

	Errors   []*Error
	Warnings []*Warning
}

// Func returns the encoder of the message with the given full name.
func (r *CompileResult) Func(name string) *emit.Func {
	for _, fn := range r.Funcs {
		if fn.Name == name {
			return fn
		}
	}
	return nil
}

func Compile(pkg *syntax.Package, opts ...CompileOption) CompileResult {
	return NewCompileOptions(opts...).Compile(pkg)
}

func NewCompileOptions(opts ...CompileOption) *CompileOptions {
	compileOptions := &CompileOptions{
		logger:      slog.New(slog.DiscardHandler),
		parallelism: runtime.GOMAXPROCS(0),
	}
	for _, opt := range opts {
		opt.apply(compileOptions)
	}
	return compileOptions
}

func (opts *CompileOptions) Compile(pkg *syntax.Package) CompileResult {
	scope, errs := NewScope(pkg, opts.deps)
	result := CompileResult{
		Enums:    enumTables(scope),
		Errors:   errs,
		Warnings: checkPackage(pkg),
	}

	var messages []*syntax.MessageDeclaration
	for _, decl := range pkg.Declarations {
		if msg, ok := decl.(*syntax.MessageDeclaration); ok {
			messages = append(messages, msg)
		}
	}

	// Each tree gets its own generator so workers share nothing mutable.
	generators := make([]generator, len(messages))
	var group errgroup.Group
	group.SetLimit(opts.parallelism)
	for ii, msg := range messages {
		generators[ii].pkg = pkg
		group.Go(func() error {
			generators[ii].generateMessage(scope, msg, nil)
			return nil
		})
	}
	_ = group.Wait()

	for _, g := range generators {
		result.Funcs = append(result.Funcs, g.funcs...)
		result.Errors = append(result.Errors, g.errors...)
		result.Warnings = append(result.Warnings, g.warnings...)
	}

	if opts.logger.Enabled(context.Background(), slog.LevelWarn) {
		for _, w := range result.Warnings {
			opts.logger.Warn(w.Message(), "code", w.Code(), "package", pkg.Name())
		}
	}
	opts.logger.Debug("compiled package",
		"package", pkg.Name(),
		"funcs", len(result.Funcs),
		"errors", len(result.Errors),
		"warnings", len(result.Warnings),
	)
	return result
}

func enumTables(scope *Scope) map[string]map[string]int64 {
	tables := make(map[string]map[string]int64)
	scope.root().ns.enums(func(name string, enum *syntax.EnumDeclaration) {
		values := make(map[string]int64, len(enum.Entries))
		for _, entry := range enum.Entries {
			if _, dup := values[entry.Name]; !dup {
				values[entry.Name] = entry.Value
			}
		}
		tables[name] = values
	})
	return tables
}
