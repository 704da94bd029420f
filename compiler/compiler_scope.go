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

	"go.protots.org/protots/syntax"
)

// A Scope is one level of the lexical scope chain used to resolve type
// names. Message scopes enclose their nested declarations; package scopes
// cover one namespace of the package path, out to the unnamed root.
type Scope struct {
	parent  *Scope
	ns      *namespace
	message *syntax.MessageDeclaration
	name    []string
}

// NewScope returns the innermost package scope of pkg. Its namespaces hold
// the declarations of pkg and of each directly imported package, looked up
// in deps by import path.
func NewScope(pkg *syntax.Package, deps map[string]*syntax.Package) (*Scope, []*Error) {
	root := newNamespace(nil)
	var errs []*Error
	for _, path := range pkg.Imports {
		dep, ok := deps[path]
		if !ok {
			errs = append(errs, errImportNotFound(path))
			continue
		}
		errs = append(errs, root.addPackage(dep, false)...)
	}
	errs = append(errs, root.addPackage(pkg, true)...)

	scope := &Scope{ns: root}
	for ii := range pkg.Path {
		path := pkg.Path[:ii+1]
		scope = &Scope{
			parent: scope,
			ns:     root.find(path),
			name:   slices.Clone(path),
		}
	}
	return scope, errs
}

// Nested returns the scope of a message declared in s.
func (s *Scope) Nested(msg *syntax.MessageDeclaration) *Scope {
	return &Scope{
		parent:  s,
		message: msg,
		name:    append(slices.Clone(s.name), msg.Name),
	}
}

// FullName is the dotted name of the package or message the scope covers.
func (s *Scope) FullName() string {
	return strings.Join(s.name, ".")
}

func (s *Scope) root() *Scope {
	for s.parent != nil {
		s = s.parent
	}
	return s
}

func (s *Scope) lookup(name string) (*Resolved, bool) {
	if s.message != nil {
		decl := s.message.Nested(name)
		if decl == nil {
			return nil, false
		}
		return resolvedDecl(decl, append(slices.Clone(s.name), name)), true
	}
	return s.ns.lookup(name)
}

type ResolvedKind uint8

const (
	ResolvedMessage ResolvedKind = iota + 1
	ResolvedEnum
	ResolvedPackage
)

func (k ResolvedKind) String() string {
	switch k {
	case ResolvedMessage:
		return "message"
	case ResolvedEnum:
		return "enum"
	case ResolvedPackage:
		return "package"
	}
	return fmt.Sprintf("ResolvedKind(%d)", uint8(k))
}

// Resolved is the target of a type path. Message or Enum is set according
// to Kind.
type Resolved struct {
	Kind     ResolvedKind
	FullName []string
	Message  *syntax.MessageDeclaration
	Enum     *syntax.EnumDeclaration

	ns *namespace
}

func (r *Resolved) Name() string {
	return strings.Join(r.FullName, ".")
}

func resolvedDecl(decl syntax.Declaration, fullName []string) *Resolved {
	switch decl := decl.(type) {
	case *syntax.MessageDeclaration:
		return &Resolved{Kind: ResolvedMessage, FullName: fullName, Message: decl}
	case *syntax.EnumDeclaration:
		return &Resolved{Kind: ResolvedEnum, FullName: fullName, Enum: decl}
	}
	panic(fmt.Sprintf("unexpected declaration type %T", decl))
}

func (r *Resolved) member(path []string, name string) (*Resolved, error) {
	switch r.Kind {
	case ResolvedMessage:
		if decl := r.Message.Nested(name); decl != nil {
			return resolvedDecl(decl, append(slices.Clone(r.FullName), name)), nil
		}
	case ResolvedEnum:
		return nil, errEnumHasNoMembers(path, r.Name(), name)
	case ResolvedPackage:
		if found, ok := r.ns.lookup(name); ok {
			return found, nil
		}
	}
	return nil, errTypeNotFound(path, name)
}

// ResolvePath finds the declaration named by path. The first segment is
// looked up in the nearest enclosing scope that declares it, and each later
// segment names a member of the previous one. A path with an empty first
// segment is fully qualified and starts at the root namespace.
func ResolvePath(scope *Scope, path []string) (*Resolved, error) {
	if len(path) == 0 {
		panic("compiler.ResolvePath: empty path")
	}
	var found *Resolved
	if path[0] == "" {
		root := scope.root().ns
		found = &Resolved{Kind: ResolvedPackage, ns: root}
	} else {
		for s := scope; s != nil && found == nil; s = s.parent {
			found, _ = s.lookup(path[0])
		}
		if found == nil {
			return nil, errTypeNotFound(path, path[0])
		}
	}
	for _, name := range path[1:] {
		next, err := found.member(path, name)
		if err != nil {
			return nil, err
		}
		found = next
	}
	return found, nil
}
