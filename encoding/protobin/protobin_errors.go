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

package protobin

import (
	"fmt"
	"strings"
)

// An Error reports a value that cannot be encoded as the type its encoder
// expects. Path locates the value within the top-level message.
type Error struct {
	Path    []string
	Message string
}

func (err *Error) Error() string {
	if len(err.Path) == 0 {
		return "protobin: " + err.Message
	}
	return fmt.Sprintf("protobin: %s: %s", strings.Join(err.Path, ""), err.Message)
}

func errUnknownMessage(path []string, name string) error {
	return &Error{Path: path, Message: fmt.Sprintf("no encoder for message %q", name)}
}

func errWrongType(path []string, want string, got any) error {
	return &Error{Path: path, Message: fmt.Sprintf("expected %s, got %T", want, got)}
}

func errOutOfRange(path []string, kind string, got any) error {
	return &Error{Path: path, Message: fmt.Sprintf("value %v out of range for %s", got, kind)}
}

func errUnknownEnumValue(path []string, enum string, name string) error {
	return &Error{Path: path, Message: fmt.Sprintf("enum %s has no value named %q", enum, name)}
}

func errTooDeep(path []string, limit int) error {
	return &Error{Path: path, Message: fmt.Sprintf("messages nested deeper than %d", limit)}
}
