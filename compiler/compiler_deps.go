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
	"slices"
	"strings"

	"go.protots.org/protots/syntax"
)

// A namespace is one segment of the dotted package hierarchy. Packages that
// share a prefix share the namespaces of that prefix, so "a.b" and "a.c" are
// both children of "a".
type namespace struct {
	path     []string
	children map[string]*namespace
	decls    map[string]*mergedDecl
}

type mergedDecl struct {
	decl syntax.Declaration

	// local is set for declarations of the package being compiled.
	local bool
}

func newNamespace(path []string) *namespace {
	return &namespace{
		path:     path,
		children: make(map[string]*namespace),
		decls:    make(map[string]*mergedDecl),
	}
}

func (ns *namespace) child(name string) *namespace {
	if child, ok := ns.children[name]; ok {
		return child
	}
	child := newNamespace(append(slices.Clone(ns.path), name))
	ns.children[name] = child
	return child
}

func (ns *namespace) find(path []string) *namespace {
	for _, name := range path {
		child, ok := ns.children[name]
		if !ok {
			return nil
		}
		ns = child
	}
	return ns
}

func (ns *namespace) fullName(name string) []string {
	return append(slices.Clone(ns.path), name)
}

func (ns *namespace) lookup(name string) (*Resolved, bool) {
	if merged, ok := ns.decls[name]; ok {
		return resolvedDecl(merged.decl, ns.fullName(name)), true
	}
	if child, ok := ns.children[name]; ok {
		return &Resolved{
			Kind:     ResolvedPackage,
			FullName: child.path,
			ns:       child,
		}, true
	}
	return nil, false
}

// addPackage merges the top-level declarations of pkg into the namespace
// named by its package path. Conflicts are reported only for local
// declarations, whose spans refer to the file being compiled.
func (ns *namespace) addPackage(pkg *syntax.Package, local bool) []*Error {
	target := ns
	for _, name := range pkg.Path {
		target = target.child(name)
	}
	var errs []*Error
	for _, decl := range pkg.Declarations {
		name := decl.DeclName()
		if prev, ok := target.decls[name]; ok {
			if prev.decl != decl && local {
				errs = append(errs, errDeclNameConflict(
					strings.Join(target.fullName(name), "."),
					declSpan(decl),
				))
			}
			continue
		}
		target.decls[name] = &mergedDecl{decl: decl, local: local}
	}
	if local {
		for _, decl := range pkg.Declarations {
			name := decl.DeclName()
			if _, ok := target.children[name]; ok {
				errs = append(errs, errDeclConflictsWithPackage(
					strings.Join(target.fullName(name), "."),
					declSpan(decl),
				))
			}
		}
	}
	return errs
}

// enums yields the full name of every enum reachable from ns, including
// enums nested inside messages.
func (ns *namespace) enums(yield func(string, *syntax.EnumDeclaration)) {
	for name, merged := range ns.decls {
		walkEnums(ns.fullName(name), merged.decl, yield)
	}
	for _, child := range ns.children {
		child.enums(yield)
	}
}

func walkEnums(fullName []string, decl syntax.Declaration, yield func(string, *syntax.EnumDeclaration)) {
	switch decl := decl.(type) {
	case *syntax.EnumDeclaration:
		yield(strings.Join(fullName, "."), decl)
	case *syntax.MessageDeclaration:
		for _, entry := range decl.Entries {
			if nested, ok := entry.(syntax.Declaration); ok {
				walkEnums(append(slices.Clone(fullName), nested.DeclName()), nested, yield)
			}
		}
	}
}

func declSpan(decl syntax.Declaration) syntax.Span {
	switch decl := decl.(type) {
	case *syntax.MessageDeclaration:
		return decl.Span
	case *syntax.EnumDeclaration:
		return decl.Span
	}
	return syntax.Span{}
}
