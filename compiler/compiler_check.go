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

	"google.golang.org/protobuf/encoding/protowire"

	"go.protots.org/protots/syntax"
)

const maxFieldNumber = int64(protowire.MaxValidNumber)

func validTag(tag int64) bool {
	return tag >= 1 && tag <= maxFieldNumber
}

func reservedTag(tag int64) bool {
	return tag >= int64(protowire.FirstReservedNumber) && tag <= int64(protowire.LastReservedNumber)
}

type checker struct {
	syntax   syntax.SyntaxVersion
	warnings []*Warning
}

// checkPackage reports declarations that are accepted by the grammar but
// rejected or discouraged by protobuf itself.
func checkPackage(pkg *syntax.Package) []*Warning {
	c := checker{syntax: pkg.Syntax}
	for _, decl := range pkg.Declarations {
		c.checkDecl(decl, pkg.Path)
	}
	return c.warnings
}

func (c *checker) checkDecl(decl syntax.Declaration, prefix []string) {
	name := append(slices.Clone(prefix), decl.DeclName())
	switch decl := decl.(type) {
	case *syntax.MessageDeclaration:
		c.checkMessage(decl, name)
	case *syntax.EnumDeclaration:
		c.checkEnum(decl, name)
	}
}

func (c *checker) checkMessage(msg *syntax.MessageDeclaration, name []string) {
	fullName := strings.Join(name, ".")
	tags := make(map[int64]*syntax.FieldDeclaration)
	for field := range msg.Fields() {
		if !validTag(field.Tag) {
			c.warnings = append(c.warnings, warnTagOutOfRange(fullName, field))
		} else if reservedTag(field.Tag) {
			c.warnings = append(c.warnings, warnTagReserved(fullName, field))
		}
		if prev, ok := tags[field.Tag]; ok {
			c.warnings = append(c.warnings, warnDuplicateTag(fullName, field, prev))
		} else {
			tags[field.Tag] = field
		}

		seen := make(map[string]int, len(field.Attributes))
		for _, attr := range field.Attributes {
			seen[attr.Key]++
			if seen[attr.Key] == 2 {
				c.warnings = append(c.warnings, warnDuplicateAttribute(fullName, field, attr.Key))
			}
		}
	}
	for _, entry := range msg.Entries {
		if decl, ok := entry.(syntax.Declaration); ok {
			c.checkDecl(decl, name)
		}
	}
}

func (c *checker) checkEnum(enum *syntax.EnumDeclaration, name []string) {
	fullName := strings.Join(name, ".")
	if c.syntax == syntax.Proto3 && len(enum.Entries) > 0 && enum.Entries[0].Value != 0 {
		c.warnings = append(c.warnings, warnEnumFirstValueNotZero(enum, fullName))
	}
	values := make(map[int64]syntax.EnumEntry, len(enum.Entries))
	for _, entry := range enum.Entries {
		if prev, ok := values[entry.Value]; ok {
			c.warnings = append(c.warnings, warnDuplicateEnumValue(fullName, entry, prev))
			continue
		}
		values[entry.Value] = entry
	}
}
