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

	"go.protots.org/protots/syntax"
)

// An Error is a semantic error found while compiling a parsed package. The
// field or declaration that raised it is skipped.
type Error struct {
	code    uint32
	message string
	span    syntax.Span
}

var _ error = (*Error)(nil)

func (err *Error) Error() string {
	return fmt.Sprintf("E%d: %s", err.code, err.message)
}

func (err *Error) Code() uint32 {
	return err.code
}

func (err *Error) Message() string {
	return err.message
}

func (err *Error) Span() syntax.Span {
	return err.span
}

func (err *Error) withSpan(span syntax.Span) *Error {
	err.span = span
	return err
}

func errImportNotFound(path string) *Error {
	return &Error{
		code:    3001,
		message: fmt.Sprintf("Import %q not found in dependencies", path),
	}
}

func errDeclNameConflict(fullName string, span syntax.Span) *Error {
	return &Error{
		code:    3002,
		message: fmt.Sprintf("%q is declared more than once", fullName),
		span:    span,
	}
}

func errDeclConflictsWithPackage(fullName string, span syntax.Span) *Error {
	return &Error{
		code:    3003,
		message: fmt.Sprintf("Declaration %q conflicts with a package of the same name", fullName),
		span:    span,
	}
}

func errTypeNotFound(path []string, segment string) *Error {
	return &Error{
		code: 3100,
		message: fmt.Sprintf(
			"Type %q not found: no declaration named '%s' is visible",
			strings.Join(path, "."), segment,
		),
	}
}

func errNotAType(path []string) *Error {
	return &Error{
		code:    3101,
		message: fmt.Sprintf("%q names a package, not a message or enum", strings.Join(path, ".")),
	}
}

func errEnumHasNoMembers(path []string, enum string, segment string) *Error {
	return &Error{
		code: 3102,
		message: fmt.Sprintf(
			"Type %q not found: enum %q has no nested declaration '%s'",
			strings.Join(path, "."), enum, segment,
		),
	}
}

func errUnsupportedDescriptor(file, element, reason string) *Error {
	return &Error{
		code:    3200,
		message: fmt.Sprintf("%s: %s is not supported: %s", file, element, reason),
	}
}
