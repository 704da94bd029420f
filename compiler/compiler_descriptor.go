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

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/descriptorpb"

	"go.protots.org/protots/syntax"
)

var scalarTypes = map[syntax.Scalar]descriptorpb.FieldDescriptorProto_Type{
	syntax.Double:   descriptorpb.FieldDescriptorProto_TYPE_DOUBLE,
	syntax.Float:    descriptorpb.FieldDescriptorProto_TYPE_FLOAT,
	syntax.Int32:    descriptorpb.FieldDescriptorProto_TYPE_INT32,
	syntax.Int64:    descriptorpb.FieldDescriptorProto_TYPE_INT64,
	syntax.Uint32:   descriptorpb.FieldDescriptorProto_TYPE_UINT32,
	syntax.Uint64:   descriptorpb.FieldDescriptorProto_TYPE_UINT64,
	syntax.Sint32:   descriptorpb.FieldDescriptorProto_TYPE_SINT32,
	syntax.Sint64:   descriptorpb.FieldDescriptorProto_TYPE_SINT64,
	syntax.Fixed32:  descriptorpb.FieldDescriptorProto_TYPE_FIXED32,
	syntax.Fixed64:  descriptorpb.FieldDescriptorProto_TYPE_FIXED64,
	syntax.Sfixed32: descriptorpb.FieldDescriptorProto_TYPE_SFIXED32,
	syntax.Sfixed64: descriptorpb.FieldDescriptorProto_TYPE_SFIXED64,
	syntax.Bool:     descriptorpb.FieldDescriptorProto_TYPE_BOOL,
	syntax.String:   descriptorpb.FieldDescriptorProto_TYPE_STRING,
	syntax.Bytes:    descriptorpb.FieldDescriptorProto_TYPE_BYTES,
}

// FileDescriptor describes pkg as a FileDescriptorProto named path, so that
// other protobuf tooling can decode the messages its encoders write. Type
// names are resolved the same way Compile resolves them; fields that Compile
// would skip are left out.
func FileDescriptor(path string, pkg *syntax.Package, opts ...CompileOption) (*descriptorpb.FileDescriptorProto, []*Error) {
	return NewCompileOptions(opts...).FileDescriptor(path, pkg)
}

func (opts *CompileOptions) FileDescriptor(path string, pkg *syntax.Package) (*descriptorpb.FileDescriptorProto, []*Error) {
	scope, errs := NewScope(pkg, opts.deps)
	b := descBuilder{syntax: pkg.Syntax, errors: errs}
	fdp := &descriptorpb.FileDescriptorProto{
		Name:       proto.String(path),
		Dependency: slices.Clone(pkg.Imports),
		Syntax:     proto.String(pkg.Syntax.String()),
	}
	if len(pkg.Path) > 0 {
		fdp.Package = proto.String(pkg.Name())
	}
	for _, decl := range pkg.Declarations {
		switch decl := decl.(type) {
		case *syntax.MessageDeclaration:
			fdp.MessageType = append(fdp.MessageType, b.message(scope, decl))
		case *syntax.EnumDeclaration:
			fdp.EnumType = append(fdp.EnumType, enumDescriptor(decl))
		}
	}
	return fdp, b.errors
}

type descBuilder struct {
	syntax syntax.SyntaxVersion
	errors []*Error
}

func (b *descBuilder) message(scope *Scope, msg *syntax.MessageDeclaration) *descriptorpb.DescriptorProto {
	inner := scope.Nested(msg)
	dp := &descriptorpb.DescriptorProto{Name: proto.String(msg.Name)}
	for _, entry := range msg.Entries {
		switch entry := entry.(type) {
		case *syntax.FieldDeclaration:
			if fd := b.field(inner, dp, entry); fd != nil {
				dp.Field = append(dp.Field, fd)
			}
		case *syntax.OneOfDeclaration:
			index := int32(len(dp.OneofDecl))
			dp.OneofDecl = append(dp.OneofDecl, &descriptorpb.OneofDescriptorProto{
				Name: proto.String(entry.Name),
			})
			for _, option := range entry.Options {
				if fd := b.field(inner, dp, option); fd != nil {
					fd.OneofIndex = proto.Int32(index)
					dp.Field = append(dp.Field, fd)
				}
			}
		case *syntax.MessageDeclaration:
			dp.NestedType = append(dp.NestedType, b.message(inner, entry))
		case *syntax.EnumDeclaration:
			dp.EnumType = append(dp.EnumType, enumDescriptor(entry))
		}
	}
	return dp
}

func (b *descBuilder) field(
	scope *Scope,
	parent *descriptorpb.DescriptorProto,
	field *syntax.FieldDeclaration,
) *descriptorpb.FieldDescriptorProto {
	if !validTag(field.Tag) {
		return nil
	}
	fd := newFieldDescriptor(field.Name, int32(field.Tag), jsonName(field))

	fieldType := field.Type
	switch t := fieldType.(type) {
	case syntax.Repeated:
		fd.Label = descriptorpb.FieldDescriptorProto_LABEL_REPEATED.Enum()
		fieldType = t.Elem
	case syntax.Map:
		key, ok := t.Key.(syntax.Scalar)
		if !ok || !validMapKey(key) {
			return nil
		}
		keyFd := newFieldDescriptor("key", 1, "key")
		keyFd.Type = scalarTypes[key].Enum()
		valueFd := newFieldDescriptor("value", 2, "value")
		if !b.setType(scope, valueFd, t.Value, field) {
			return nil
		}
		entryName := mapEntryName(field.Name)
		parent.NestedType = append(parent.NestedType, &descriptorpb.DescriptorProto{
			Name:    proto.String(entryName),
			Field:   []*descriptorpb.FieldDescriptorProto{keyFd, valueFd},
			Options: &descriptorpb.MessageOptions{MapEntry: proto.Bool(true)},
		})
		fd.Label = descriptorpb.FieldDescriptorProto_LABEL_REPEATED.Enum()
		fd.Type = descriptorpb.FieldDescriptorProto_TYPE_MESSAGE.Enum()
		fd.TypeName = proto.String(typeName(append(slices.Clone(scope.name), entryName)))
		return fd
	}
	if !b.setType(scope, fd, fieldType, field) {
		return nil
	}

	if fd.GetLabel() != descriptorpb.FieldDescriptorProto_LABEL_REPEATED {
		return fd
	}
	scalar, isScalar := fieldType.(syntax.Scalar)
	packable := !isScalar || validPackedType(scalar)
	if fd.GetType() == descriptorpb.FieldDescriptorProto_TYPE_MESSAGE {
		packable = false
	}
	if !packable {
		return fd
	}
	packed, ok := field.Attribute("packed")
	switch {
	case ok && (packed == "true" || packed == "false"):
		fd.Options = &descriptorpb.FieldOptions{Packed: proto.Bool(packed == "true")}
	case b.syntax == syntax.Proto2:
		// Encoders pack repeated scalars by default in proto2 as well.
		fd.Options = &descriptorpb.FieldOptions{Packed: proto.Bool(true)}
	}
	return fd
}

func validPackedType(s syntax.Scalar) bool {
	return s != syntax.String && s != syntax.Bytes
}

func (b *descBuilder) setType(
	scope *Scope,
	fd *descriptorpb.FieldDescriptorProto,
	t syntax.FieldType,
	field *syntax.FieldDeclaration,
) bool {
	switch t := t.(type) {
	case syntax.Scalar:
		fd.Type = scalarTypes[t].Enum()
		return true
	case syntax.IdPath:
		resolved, err := ResolvePath(scope, t)
		if err != nil {
			b.errors = append(b.errors, err.(*Error).withSpan(field.Span))
			return false
		}
		switch resolved.Kind {
		case ResolvedMessage:
			fd.Type = descriptorpb.FieldDescriptorProto_TYPE_MESSAGE.Enum()
		case ResolvedEnum:
			fd.Type = descriptorpb.FieldDescriptorProto_TYPE_ENUM.Enum()
		default:
			b.errors = append(b.errors, errNotAType(t).withSpan(field.Span))
			return false
		}
		fd.TypeName = proto.String(typeName(resolved.FullName))
		return true
	}
	panic(fmt.Sprintf("field %s has unexpected element type %s", field.Name, t))
}

func newFieldDescriptor(name string, number int32, json string) *descriptorpb.FieldDescriptorProto {
	return &descriptorpb.FieldDescriptorProto{
		Name:     proto.String(name),
		Number:   proto.Int32(number),
		Label:    descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL.Enum(),
		JsonName: proto.String(json),
	}
}

func typeName(fullName []string) string {
	return "." + strings.Join(fullName, ".")
}

func enumDescriptor(enum *syntax.EnumDeclaration) *descriptorpb.EnumDescriptorProto {
	ed := &descriptorpb.EnumDescriptorProto{Name: proto.String(enum.Name)}
	seen := make(map[int64]bool, len(enum.Entries))
	for _, entry := range enum.Entries {
		if seen[entry.Value] {
			ed.Options = &descriptorpb.EnumOptions{AllowAlias: proto.Bool(true)}
		}
		seen[entry.Value] = true
		ed.Value = append(ed.Value, &descriptorpb.EnumValueDescriptorProto{
			Name:   proto.String(entry.Name),
			Number: proto.Int32(int32(entry.Value)),
		})
	}
	return ed
}
