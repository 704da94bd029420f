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
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/sync/errgroup"
	"google.golang.org/protobuf/types/descriptorpb"

	"go.protots.org/protots/compiler"
	"go.protots.org/protots/syntax"
)

type sourceFile struct {
	// path locates the file on disk and name is its import name.
	path string
	name string

	src   []byte
	pkg   *syntax.Package
	lines *syntax.LineIndex
	err   error
}

// A workspace holds the input files of a command and every file they
// import, parsed.
type workspace struct {
	g      *globals
	inputs []*sourceFile
	files  map[string]*sourceFile
	all    []*sourceFile

	// order lists every file after the files it imports.
	order []*sourceFile
}

// expandInputs resolves the file arguments of a command, falling back to the
// inputs of the config file.
func (g *globals) expandInputs(args []string) ([]string, error) {
	patterns := args
	if len(patterns) == 0 {
		patterns = g.config.Inputs
	}
	if len(patterns) == 0 {
		return nil, errors.New("No input files (pass them as arguments or set 'inputs' in protots.yaml)")
	}
	var paths []string
	for _, pattern := range patterns {
		if !strings.ContainsAny(pattern, "*?[{") {
			paths = append(paths, pattern)
			continue
		}
		matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("Invalid input pattern %q: %w", pattern, err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("Input pattern %q matches no files", pattern)
		}
		paths = append(paths, matches...)
	}
	return paths, nil
}

// load parses the inputs and, round by round, the files they import. Files
// are parsed concurrently; compilation starts only after every round has
// finished. Problems are reported to stderr.
func (g *globals) load(ctx context.Context, args []string) (*workspace, bool) {
	paths, err := g.expandInputs(args)
	if err != nil {
		fmt.Fprintln(g.stderr, err)
		return nil, false
	}

	ws := &workspace{g: g, files: make(map[string]*sourceFile)}
	var pending []*sourceFile
	for _, path := range paths {
		name := importName(g.config.ImportPaths, path)
		if _, dup := ws.files[name]; dup {
			continue
		}
		file := &sourceFile{path: path, name: name}
		ws.files[name] = file
		ws.all = append(ws.all, file)
		ws.inputs = append(ws.inputs, file)
		pending = append(pending, file)
	}

	missing := make(map[string]bool)
	for len(pending) > 0 {
		if err := g.parseAll(ctx, pending); err != nil {
			fmt.Fprintln(g.stderr, err)
			return nil, false
		}
		var next []*sourceFile
		for _, file := range pending {
			if file.pkg == nil {
				continue
			}
			for _, imp := range file.pkg.Imports {
				if _, ok := ws.files[imp]; ok || missing[imp] {
					continue
				}
				path, ok := g.locateImport(imp)
				if !ok {
					// Reported by the compiler with the importing file.
					missing[imp] = true
					continue
				}
				dep := &sourceFile{path: path, name: imp}
				ws.files[imp] = dep
				ws.all = append(ws.all, dep)
				next = append(next, dep)
			}
		}
		pending = next
	}

	ok := true
	for _, file := range ws.all {
		if file.err == nil {
			continue
		}
		ok = false
		var syntaxErr *syntax.Error
		if errors.As(file.err, &syntaxErr) {
			report(g.stderr, file, 'E', syntaxErr)
		} else {
			fmt.Fprintf(g.stderr, "%s: %v\n", file.path, file.err)
		}
	}
	if !ok {
		return nil, false
	}
	ws.sort()
	return ws, true
}

func (g *globals) parseAll(ctx context.Context, files []*sourceFile) error {
	var parseOpts []syntax.ParseOption
	if g.trace {
		parseOpts = append(parseOpts, syntax.WithTrace(g.logger))
	}
	group, ctx := errgroup.WithContext(ctx)
	if g.config.Parallelism > 0 {
		group.SetLimit(g.config.Parallelism)
	}
	for _, file := range files {
		group.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			src, err := os.ReadFile(file.path)
			if err != nil {
				file.err = err
				return nil
			}
			file.src = src
			file.lines = syntax.NewLineIndex(src)
			file.pkg, file.err = syntax.Parse(src, parseOpts...)
			g.logger.Debug("parsed file", "path", file.path, "name", file.name, "ok", file.err == nil)
			return nil
		})
	}
	return group.Wait()
}

func (g *globals) locateImport(name string) (string, bool) {
	for _, dir := range g.config.ImportPaths {
		path := filepath.Join(dir, filepath.FromSlash(name))
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, true
		}
	}
	return "", false
}

func (ws *workspace) sort() {
	visited := make(map[string]bool, len(ws.files))
	var visit func(file *sourceFile)
	visit = func(file *sourceFile) {
		if visited[file.name] {
			return
		}
		visited[file.name] = true
		for _, imp := range file.pkg.Imports {
			if dep, ok := ws.files[imp]; ok {
				visit(dep)
			}
		}
		ws.order = append(ws.order, file)
	}
	for _, file := range ws.inputs {
		visit(file)
	}
}

func (ws *workspace) packages() map[string]*syntax.Package {
	pkgs := make(map[string]*syntax.Package, len(ws.files))
	for name, file := range ws.files {
		pkgs[name] = file.pkg
	}
	return pkgs
}

func (ws *workspace) compileOptions() []compiler.CompileOption {
	opts := []compiler.CompileOption{compiler.WithDependencies(ws.packages())}
	if ws.g.config.Parallelism > 0 {
		opts = append(opts, compiler.WithParallelism(ws.g.config.Parallelism))
	}
	if ws.g.verbose {
		opts = append(opts, compiler.WithLogger(ws.g.logger))
	}
	return opts
}

func (ws *workspace) isInput(file *sourceFile) bool {
	for _, input := range ws.inputs {
		if input == file {
			return true
		}
	}
	return false
}

// compile compiles every file, reporting errors in any file and warnings
// in the input files.
func (ws *workspace) compile() (map[string]compiler.CompileResult, bool) {
	opts := compiler.NewCompileOptions(ws.compileOptions()...)
	results := make(map[string]compiler.CompileResult, len(ws.order))
	ok := true
	for _, file := range ws.order {
		result := opts.Compile(file.pkg)
		results[file.name] = result
		if ws.isInput(file) {
			for _, warning := range result.Warnings {
				report(ws.g.stderr, file, 'W', warning)
			}
		}
		for _, err := range result.Errors {
			report(ws.g.stderr, file, 'E', err)
			ok = false
		}
	}
	return results, ok
}

// descriptors describes the input files, preceded by the files they import
// when includeImports is set.
func (ws *workspace) descriptors(includeImports bool) []*descriptorpb.FileDescriptorProto {
	opts := compiler.NewCompileOptions(ws.compileOptions()...)
	var fdps []*descriptorpb.FileDescriptorProto
	for _, file := range ws.order {
		if !includeImports && !ws.isInput(file) {
			continue
		}
		fdp, _ := opts.FileDescriptor(file.name, file.pkg)
		fdps = append(fdps, fdp)
	}
	return fdps
}
