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
	"strings"

	"google.golang.org/protobuf/types/descriptorpb"

	"go.protots.org/protots/syntax"
)

var scalarsByType = func() map[descriptorpb.FieldDescriptorProto_Type]syntax.Scalar {
	m := make(map[descriptorpb.FieldDescriptorProto_Type]syntax.Scalar, len(scalarTypes))
	for scalar, t := range scalarTypes {
		m[t] = scalar
	}
	return m
}()

// PackageFromDescriptor converts a file descriptor, such as one received by
// a protoc plugin, into the declaration model. Type references become
// absolute paths. Map entry messages become map fields and synthetic oneofs
// of proto3 optional fields are dropped.
func PackageFromDescriptor(fdp *descriptorpb.FileDescriptorProto) (*syntax.Package, error) {
	pkg := &syntax.Package{
		Imports: fdp.GetDependency(),
	}
	switch fdp.GetSyntax() {
	case "", "proto2":
		pkg.Syntax = syntax.Proto2
	case "proto3":
		pkg.Syntax = syntax.Proto3
	default:
		return nil, errUnsupportedDescriptor(fdp.GetName(), "syntax", fmt.Sprintf("%q", fdp.GetSyntax()))
	}
	if name := fdp.GetPackage(); name != "" {
		pkg.Path = strings.Split(name, ".")
	}

	c := descConverter{file: fdp.GetName(), syntax: pkg.Syntax}
	for _, dp := range fdp.GetMessageType() {
		msg, err := c.message(dp)
		if err != nil {
			return nil, err
		}
		pkg.Declarations = append(pkg.Declarations, msg)
	}
	for _, ed := range fdp.GetEnumType() {
		pkg.Declarations = append(pkg.Declarations, enumFromDescriptor(ed))
	}
	return pkg, nil
}

type descConverter struct {
	file   string
	syntax syntax.SyntaxVersion
}

func (c descConverter) message(dp *descriptorpb.DescriptorProto) (*syntax.MessageDeclaration, error) {
	msg := &syntax.MessageDeclaration{Name: dp.GetName()}
	entries := make(map[string]*descriptorpb.DescriptorProto)
	for _, nested := range dp.GetNestedType() {
		if nested.GetOptions().GetMapEntry() {
			entries[nested.GetName()] = nested
		}
	}

	oneofs := make(map[int32]*syntax.OneOfDeclaration)
	for _, fd := range dp.GetField() {
		field, err := c.field(dp, fd, entries)
		if err != nil {
			return nil, err
		}
		if fd.OneofIndex == nil || fd.GetProto3Optional() {
			msg.Entries = append(msg.Entries, field)
			continue
		}
		index := fd.GetOneofIndex()
		oneof, ok := oneofs[index]
		if !ok {
			if int(index) >= len(dp.GetOneofDecl()) {
				return nil, errUnsupportedDescriptor(c.file, "field "+fd.GetName(), "oneof index out of range")
			}
			oneof = &syntax.OneOfDeclaration{Name: dp.GetOneofDecl()[index].GetName()}
			oneofs[index] = oneof
			msg.Entries = append(msg.Entries, oneof)
		}
		oneof.Options = append(oneof.Options, field)
	}

	for _, nested := range dp.GetNestedType() {
		if nested.GetOptions().GetMapEntry() {
			continue
		}
		nestedMsg, err := c.message(nested)
		if err != nil {
			return nil, err
		}
		msg.Entries = append(msg.Entries, nestedMsg)
	}
	for _, ed := range dp.GetEnumType() {
		msg.Entries = append(msg.Entries, enumFromDescriptor(ed))
	}
	return msg, nil
}

func (c descConverter) field(
	parent *descriptorpb.DescriptorProto,
	fd *descriptorpb.FieldDescriptorProto,
	entries map[string]*descriptorpb.DescriptorProto,
) (*syntax.FieldDeclaration, error) {
	field := &syntax.FieldDeclaration{
		Name: fd.GetName(),
		Tag:  int64(fd.GetNumber()),
	}
	if fd.JsonName != nil && fd.GetJsonName() != camelCase(field.Name, false) {
		field.Attributes = append(field.Attributes, syntax.Attribute{Key: "json_name", Value: fd.GetJsonName()})
	}

	elem, err := c.fieldType(fd)
	if err != nil {
		return nil, err
	}
	if fd.GetLabel() != descriptorpb.FieldDescriptorProto_LABEL_REPEATED {
		field.Type = elem
		return field, nil
	}

	// Map entries are nested in the message declaring the map field.
	if path, ok := elem.(syntax.IdPath); ok {
		prefix := "." + parent.GetName() + "."
		if entry, ok := entries[path[len(path)-1]]; ok && strings.HasSuffix(fd.GetTypeName(), prefix+entry.GetName()) {
			return c.mapField(field, entry)
		}
	}

	field.Type = syntax.Repeated{Elem: elem}
	if _, isScalar := elem.(syntax.Scalar); isScalar || fd.GetType() == descriptorpb.FieldDescriptorProto_TYPE_ENUM {
		switch opts := fd.GetOptions(); {
		case opts != nil && opts.Packed != nil:
			field.Attributes = append(field.Attributes, syntax.Attribute{
				Key:   "packed",
				Value: fmt.Sprint(opts.GetPacked()),
			})
		case c.syntax == syntax.Proto2 && fd.GetType() != descriptorpb.FieldDescriptorProto_TYPE_STRING &&
			fd.GetType() != descriptorpb.FieldDescriptorProto_TYPE_BYTES:
			field.Attributes = append(field.Attributes, syntax.Attribute{Key: "packed", Value: "false"})
		}
	}
	return field, nil
}

func (c descConverter) mapField(field *syntax.FieldDeclaration, entry *descriptorpb.DescriptorProto) (*syntax.FieldDeclaration, error) {
	var key, value syntax.FieldType
	for _, fd := range entry.GetField() {
		t, err := c.fieldType(fd)
		if err != nil {
			return nil, err
		}
		switch fd.GetNumber() {
		case 1:
			key = t
		case 2:
			value = t
		}
	}
	if key == nil || value == nil {
		return nil, errUnsupportedDescriptor(c.file, "map entry "+entry.GetName(), "missing key or value field")
	}
	field.Type = syntax.Map{Key: key, Value: value}
	return field, nil
}

func (c descConverter) fieldType(fd *descriptorpb.FieldDescriptorProto) (syntax.FieldType, error) {
	switch fd.GetType() {
	case descriptorpb.FieldDescriptorProto_TYPE_MESSAGE, descriptorpb.FieldDescriptorProto_TYPE_ENUM:
		name := fd.GetTypeName()
		if name == "" {
			return nil, errUnsupportedDescriptor(c.file, "field "+fd.GetName(), "missing type name")
		}
		return syntax.IdPath(strings.Split(name, ".")), nil
	case descriptorpb.FieldDescriptorProto_TYPE_GROUP:
		return nil, errUnsupportedDescriptor(c.file, "field "+fd.GetName(), "groups")
	}
	scalar, ok := scalarsByType[fd.GetType()]
	if !ok {
		return nil, errUnsupportedDescriptor(c.file, "field "+fd.GetName(), fd.GetType().String())
	}
	return scalar, nil
}

func enumFromDescriptor(ed *descriptorpb.EnumDescriptorProto) *syntax.EnumDeclaration {
	enum := &syntax.EnumDeclaration{Name: ed.GetName()}
	for _, vd := range ed.GetValue() {
		enum.Entries = append(enum.Entries, syntax.EnumEntry{
			Name:  vd.GetName(),
			Value: int64(vd.GetNumber()),
		})
	}
	return enum
}
