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

	"go.protots.org/protots/syntax"
)

// A Warning reports a construct that compiles but is probably wrong, or a
// field the generator cannot encode and therefore skips.
type Warning struct {
	code    uint32
	message string
	span    syntax.Span
}

func (w *Warning) String() string {
	return fmt.Sprintf("W%d: %s", w.code, w.message)
}

func (w *Warning) Code() uint32 {
	return w.code
}

func (w *Warning) Message() string {
	return w.message
}

func (w *Warning) Span() syntax.Span {
	return w.span
}

func warnTagOutOfRange(msg string, field *syntax.FieldDeclaration) *Warning {
	return &Warning{
		code: 4001,
		message: fmt.Sprintf(
			"Field %s.%s has tag %d outside the valid range [1, %d] and will not be encoded",
			msg, field.Name, field.Tag, maxFieldNumber,
		),
		span: field.Span,
	}
}

func warnTagReserved(msg string, field *syntax.FieldDeclaration) *Warning {
	return &Warning{
		code: 4002,
		message: fmt.Sprintf(
			"Field %s.%s has tag %d, which is reserved for the protobuf implementation",
			msg, field.Name, field.Tag,
		),
		span: field.Span,
	}
}

func warnDuplicateTag(msg string, field, prev *syntax.FieldDeclaration) *Warning {
	return &Warning{
		code: 4003,
		message: fmt.Sprintf(
			"Field %s.%s reuses tag %d of field '%s'",
			msg, field.Name, field.Tag, prev.Name,
		),
		span: field.Span,
	}
}

func warnDuplicateEnumValue(enum string, entry, prev syntax.EnumEntry) *Warning {
	return &Warning{
		code: 4004,
		message: fmt.Sprintf(
			"Enum value %s.%s reuses number %d of '%s'",
			enum, entry.Name, entry.Value, prev.Name,
		),
		span: entry.Span,
	}
}

func warnEnumFirstValueNotZero(enum *syntax.EnumDeclaration, fullName string) *Warning {
	return &Warning{
		code:    4005,
		message: fmt.Sprintf("The first value of proto3 enum %s must be zero", fullName),
		span:    enum.Span,
	}
}

func warnPackedNotPackable(msg string, field *syntax.FieldDeclaration) *Warning {
	return &Warning{
		code: 4006,
		message: fmt.Sprintf(
			"Field %s.%s of type %s cannot use packed encoding",
			msg, field.Name, field.Type,
		),
		span: field.Span,
	}
}

func warnDuplicateAttribute(msg string, field *syntax.FieldDeclaration, key string) *Warning {
	return &Warning{
		code: 4007,
		message: fmt.Sprintf(
			"Field %s.%s sets attribute '%s' more than once; the last value is used",
			msg, field.Name, key,
		),
		span: field.Span,
	}
}

func warnInvalidAttributeValue(msg string, field *syntax.FieldDeclaration, key, value string) *Warning {
	return &Warning{
		code: 4008,
		message: fmt.Sprintf(
			"Field %s.%s has invalid value %q for attribute '%s'",
			msg, field.Name, value, key,
		),
		span: field.Span,
	}
}

func warnUnsupportedField(msg string, field *syntax.FieldDeclaration, reason string) *Warning {
	return &Warning{
		code: 4100,
		message: fmt.Sprintf(
			"Field %s.%s is not supported and will not be encoded: %s",
			msg, field.Name, reason,
		),
		span: field.Span,
	}
}
