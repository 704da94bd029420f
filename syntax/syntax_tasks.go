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

package syntax

import (
	"fmt"
	"strings"
)

type taskOp uint8

const (
	opParseStatements taskOp = iota
	opParseStatement
	opParseSyntax
	opParseImport
	opParsePackage
	opParseMessage
	opParseMessageEntries
	opParseMessageEntry
	opParseOneOf
	opParseEnum
	opParseEnumEntries
	opParseEnumEntry
	opParseField
	opParseFieldType
	opParseElementType
	opParseIdPath
	opParseOptionalAttributes
	opParseAttributes
	opParseAttributesTail
	opParseAttribute
	opParseId
	opParseInt
	opParseString
	opExpect
	opExpectKeyword
	opPush

	// Assemblers pop the values produced by earlier tasks.
	opAppendDeclaration
	opBuildMessage
	opBuildOneOf
	opBuildEnum
	opBuildField
	opBuildAttribute
	opWrapEntry
	opAppendEntry
	opWrapFieldType
	opWrapRepeated
	opWrapMap
)

var taskOpNames = [...]string{
	opParseStatements:         "ParseStatements",
	opParseStatement:          "ParseStatement",
	opParseSyntax:             "ParseSyntax",
	opParseImport:             "ParseImport",
	opParsePackage:            "ParsePackage",
	opParseMessage:            "ParseMessage",
	opParseMessageEntries:     "ParseMessageEntries",
	opParseMessageEntry:       "ParseMessageEntry",
	opParseOneOf:              "ParseOneOf",
	opParseEnum:               "ParseEnum",
	opParseEnumEntries:        "ParseEnumEntries",
	opParseEnumEntry:          "ParseEnumEntry",
	opParseField:              "ParseField",
	opParseFieldType:          "ParseFieldType",
	opParseElementType:        "ParseElementType",
	opParseIdPath:             "ParseIdPath",
	opParseOptionalAttributes: "ParseOptionalAttributes",
	opParseAttributes:         "ParseAttributes",
	opParseAttributesTail:     "ParseAttributesTail",
	opParseAttribute:          "ParseAttribute",
	opParseId:                 "ParseId",
	opParseInt:                "ParseInt",
	opParseString:             "ParseString",
	opExpect:                  "Expect",
	opExpectKeyword:           "ExpectKeyword",
	opPush:                    "Push",
	opAppendDeclaration:       "AppendDeclaration",
	opBuildMessage:            "BuildMessage",
	opBuildOneOf:              "BuildOneOf",
	opBuildEnum:               "BuildEnum",
	opBuildField:              "BuildField",
	opBuildAttribute:          "BuildAttribute",
	opWrapEntry:               "WrapEntry",
	opAppendEntry:             "AppendEntry",
	opWrapFieldType:           "WrapFieldType",
	opWrapRepeated:            "WrapRepeated",
	opWrapMap:                 "WrapMap",
}

func (op taskOp) String() string {
	if int(op) < len(taskOpNames) {
		return taskOpNames[op]
	}
	return fmt.Sprintf("taskOp(%d)", uint8(op))
}

type task struct {
	op      taskOp
	kind    TokenKind // opExpect
	keyword string    // opExpectKeyword
	value   value     // opPush
}

func expect(kind TokenKind) task {
	return task{op: opExpect, kind: kind}
}

func expectKeyword(keyword string) task {
	return task{op: opExpectKeyword, keyword: keyword}
}

func pushValue(v value) task {
	return task{op: opPush, value: v}
}

func (t task) String() string {
	switch t.op {
	case opExpect:
		return fmt.Sprintf("Expect(%s)", t.kind)
	case opExpectKeyword:
		return fmt.Sprintf("ExpectKeyword(%q)", t.keyword)
	case opPush:
		return fmt.Sprintf("Push(%s)", t.value.kind())
	default:
		return t.op.String()
	}
}

// A value is an intermediate result held on the parser's value stack.
type value interface {
	kind() string
}

type identValue struct {
	text string
	span Span
}

type pathValue struct {
	segments []string
	span     Span
}

type intValue struct {
	value int64
	span  Span
}

type textValue struct {
	text string
	span Span
}

type fieldTypeValue struct {
	fieldType FieldType
}

type attrsValue struct {
	attrs   []Attribute
	present bool
}

type entriesValue struct {
	entries []MessageEntry
}

type enumEntriesValue struct {
	entries []EnumEntry
}

type entryValue struct {
	entry MessageEntry
}

type messageValue struct {
	message *MessageDeclaration
}

type enumValue struct {
	enum *EnumDeclaration
}

type oneofValue struct {
	oneof *OneOfDeclaration
}

func (identValue) kind() string       { return "Ident" }
func (pathValue) kind() string        { return "IdPath" }
func (intValue) kind() string         { return "Int" }
func (textValue) kind() string        { return "String" }
func (fieldTypeValue) kind() string   { return "FieldType" }
func (attrsValue) kind() string       { return "Attributes" }
func (entriesValue) kind() string     { return "MessageEntries" }
func (enumEntriesValue) kind() string { return "EnumEntries" }
func (entryValue) kind() string       { return "MessageEntry" }
func (messageValue) kind() string     { return "Message" }
func (enumValue) kind() string        { return "Enum" }
func (oneofValue) kind() string       { return "OneOf" }

// pop removes the top of the value stack, which must have type V.
func pop[V value](p *parser) V {
	var want V
	if len(p.values) == 0 {
		p.internalError("pop %s from empty value stack", want.kind())
	}
	got, ok := p.values[len(p.values)-1].(V)
	if !ok {
		p.internalError(
			"expected %s on value stack, found %s",
			want.kind(), p.values[len(p.values)-1].kind(),
		)
	}
	p.values = p.values[:len(p.values)-1]
	return got
}

func (p *parser) popAny() value {
	if len(p.values) == 0 {
		p.internalError("pop from empty value stack")
	}
	v := p.values[len(p.values)-1]
	p.values = p.values[:len(p.values)-1]
	return v
}

func (p *parser) internalError(format string, args ...any) {
	panic(&InternalError{
		Message: fmt.Sprintf(format, args...),
		State:   p.dumpState(),
	})
}

// dumpState renders both stacks (top first) and the next few tokens.
func (p *parser) dumpState() string {
	var buf strings.Builder
	buf.WriteString("values:\n")
	for ii := len(p.values) - 1; ii >= 0; ii-- {
		fmt.Fprintf(&buf, "  %s\n", p.values[ii].kind())
	}
	buf.WriteString("tasks:\n")
	for ii := len(p.tasks) - 1; ii >= 0; ii-- {
		fmt.Fprintf(&buf, "  %s\n", p.tasks[ii])
	}
	buf.WriteString("tokens:\n")
	for ii := p.pos; ii < len(p.tokens) && ii < p.pos+10; ii++ {
		fmt.Fprintf(&buf, "  %s\n", p.tokens[ii].describe())
	}
	return buf.String()
}
