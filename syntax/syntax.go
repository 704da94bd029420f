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
	"context"
	"log/slog"
	"math"
)

type ParseOption interface {
	apply(*ParseOptions)
}

type parseOption func(*ParseOptions)

func (f parseOption) apply(opts *ParseOptions) { f(opts) }

// WithMaxDepth bounds the number of pending parser tasks. Input that nests
// declarations deeply enough to exceed the bound fails with a syntax error
// instead of growing the task stack without limit.
func WithMaxDepth(maxTasks int) ParseOption {
	return parseOption(func(opts *ParseOptions) {
		opts.maxTasks = maxTasks
	})
}

// WithTrace logs every executed parser task at debug level.
func WithTrace(logger *slog.Logger) ParseOption {
	return parseOption(func(opts *ParseOptions) {
		opts.trace = logger
	})
}

// Parse tokenizes and parses the contents of a .proto file.
func Parse(src []byte, opts ...ParseOption) (*Package, error) {
	return NewParseOptions(opts...).Parse(src)
}

// ParseTokens parses a token sequence produced by Tokenize.
func ParseTokens(tokens []Token, opts ...ParseOption) (*Package, error) {
	return NewParseOptions(opts...).ParseTokens(tokens)
}

type ParseOptions struct {
	maxTasks int
	trace    *slog.Logger
}

func NewParseOptions(opts ...ParseOption) *ParseOptions {
	parseOpts := &ParseOptions{
		maxTasks: math.MaxInt,
	}
	for _, opt := range opts {
		opt.apply(parseOpts)
	}
	return parseOpts
}

func (opts *ParseOptions) Parse(src []byte) (*Package, error) {
	tokens, err := Tokenize(src)
	if err != nil {
		return nil, err
	}
	return opts.ParseTokens(tokens)
}

func (opts *ParseOptions) ParseTokens(tokens []Token) (*Package, error) {
	if len(tokens) == 0 || tokens[len(tokens)-1].Kind != T_EOF {
		var end uint32
		if len(tokens) > 0 {
			end = tokens[len(tokens)-1].Span.End()
		}
		tokens = append(tokens[:len(tokens):len(tokens)], Token{
			Kind: T_EOF,
			Span: Span{end, 0},
		})
	}
	p := &parser{
		opts:   opts,
		tokens: tokens,
		pkg:    &Package{},
	}
	if opts.trace != nil && opts.trace.Enabled(context.Background(), slog.LevelDebug) {
		p.trace = opts.trace
	}
	if err := p.run(); err != nil {
		return nil, err
	}
	return p.pkg, nil
}

type parser struct {
	opts   *ParseOptions
	trace  *slog.Logger
	tokens []Token
	pos    int
	tasks  []task
	values []value
	pkg    *Package
}

// run executes tasks until the statement loop observes end of input. The
// task stack is seeded with a single ParseStatements task; every composite
// task replaces itself with its subtasks, so the machine finishes exactly
// when that loop stops rescheduling itself.
func (p *parser) run() error {
	p.tasks = append(p.tasks, task{op: opParseStatements})
	for len(p.tasks) > 0 {
		if len(p.tasks) > p.opts.maxTasks {
			return errNestingTooDeep(p.opts.maxTasks, p.token())
		}
		t := p.tasks[len(p.tasks)-1]
		p.tasks = p.tasks[:len(p.tasks)-1]
		if p.trace != nil {
			p.trace.Debug("parser task",
				"task", t.String(),
				"token", p.token().describe(),
				"tasks", len(p.tasks),
				"values", len(p.values))
		}
		if err := p.exec(t); err != nil {
			return err
		}
	}
	if len(p.values) != 0 {
		p.internalError("value stack not empty at end of input")
	}
	return nil
}

// schedule pushes tasks so that they execute in argument order.
func (p *parser) schedule(tasks ...task) {
	for ii := len(tasks) - 1; ii >= 0; ii-- {
		p.tasks = append(p.tasks, tasks[ii])
	}
}

func (p *parser) push(v value) {
	p.values = append(p.values, v)
}

// token returns the current token. The parser never advances past the
// trailing EOF, so the result is always valid.
func (p *parser) token() Token {
	return p.tokens[p.pos]
}

// peek returns the token n positions ahead of the current one, or the
// trailing EOF if the input is shorter.
func (p *parser) peek(n int) Token {
	if p.pos+n >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[p.pos+n]
}

func (p *parser) advance() {
	if p.pos < len(p.tokens)-1 {
		p.pos++
	}
}

// require checks that n tokens, counting the current one, are available
// before any of them are inspected.
func (p *parser) require(n int, production string) error {
	if p.pos+n > len(p.tokens) {
		return errUnexpectedEnd(production, p.tokens[len(p.tokens)-1])
	}
	return nil
}

func (p *parser) isKeyword(tok Token, keyword string) bool {
	return tok.Kind == T_IDENT && tok.Text == keyword
}

func (p *parser) exec(t task) error {
	switch t.op {
	case opParseStatements:
		return p.parseStatements()
	case opParseStatement:
		return p.parseStatement()
	case opParseSyntax:
		return p.parseSyntax()
	case opParseImport:
		return p.parseImport()
	case opParsePackage:
		return p.parsePackage()
	case opParseMessage:
		p.schedule(
			expectKeyword("message"),
			task{op: opParseId},
			expect(T_OPEN_CURL),
			pushValue(entriesValue{}),
			task{op: opParseMessageEntries},
			expect(T_CLOSE_CURL),
			task{op: opBuildMessage},
		)
		return nil
	case opParseMessageEntries:
		return p.parseMessageEntries()
	case opParseMessageEntry:
		return p.parseMessageEntry()
	case opParseOneOf:
		p.schedule(
			expectKeyword("oneof"),
			task{op: opParseId},
			expect(T_OPEN_CURL),
			pushValue(entriesValue{}),
			task{op: opParseMessageEntries},
			expect(T_CLOSE_CURL),
			task{op: opBuildOneOf},
		)
		return nil
	case opParseEnum:
		p.schedule(
			expectKeyword("enum"),
			task{op: opParseId},
			expect(T_OPEN_CURL),
			pushValue(enumEntriesValue{}),
			task{op: opParseEnumEntries},
			expect(T_CLOSE_CURL),
			task{op: opBuildEnum},
		)
		return nil
	case opParseEnumEntries:
		return p.parseEnumEntries()
	case opParseEnumEntry:
		return p.parseEnumEntry()
	case opParseField:
		p.schedule(
			task{op: opParseFieldType},
			task{op: opParseId},
			expect(T_EQ),
			task{op: opParseInt},
			task{op: opParseOptionalAttributes},
			expect(T_SEMI),
			task{op: opBuildField},
		)
		return nil
	case opParseFieldType:
		return p.parseFieldType()
	case opParseElementType:
		return p.parseElementType()
	case opParseIdPath:
		return p.parseIdPath()
	case opParseOptionalAttributes:
		return p.parseOptionalAttributes()
	case opParseAttributes:
		return p.parseAttributes(true)
	case opParseAttributesTail:
		return p.parseAttributes(false)
	case opParseAttribute:
		p.schedule(
			task{op: opParseId},
			expect(T_EQ),
			task{op: opParseString},
			task{op: opBuildAttribute},
		)
		return nil
	case opParseId:
		tok := p.token()
		if tok.Kind != T_IDENT {
			return errExpectedIdent(tok)
		}
		p.push(identValue{tok.Text, tok.Span})
		p.advance()
		return nil
	case opParseInt:
		tok := p.token()
		if tok.Kind != T_INT_LIT {
			return errExpectedIntLit(tok)
		}
		p.push(intValue{tok.Int, tok.Span})
		p.advance()
		return nil
	case opParseString:
		tok := p.token()
		if tok.Kind != T_TEXT_LIT {
			return errExpectedTextLit(tok)
		}
		p.push(textValue{tok.Text, tok.Span})
		p.advance()
		return nil
	case opExpect:
		tok := p.token()
		if tok.Kind != t.kind {
			return errExpectedSigil(t.kind, tok)
		}
		p.advance()
		return nil
	case opExpectKeyword:
		tok := p.token()
		if !p.isKeyword(tok, t.keyword) {
			return errExpectedKeyword(t.keyword, tok)
		}
		p.advance()
		return nil
	case opPush:
		p.push(t.value)
		return nil
	case opAppendDeclaration:
		p.appendDeclaration()
		return nil
	case opBuildMessage:
		p.buildMessage()
		return nil
	case opBuildOneOf:
		return p.buildOneOf()
	case opBuildEnum:
		p.buildEnum()
		return nil
	case opBuildField:
		p.buildField()
		return nil
	case opBuildAttribute:
		attrValue := pop[textValue](p)
		key := pop[identValue](p)
		attrs := pop[attrsValue](p)
		attrs.attrs = append(attrs.attrs, Attribute{Key: key.text, Value: attrValue.text})
		p.push(attrs)
		return nil
	case opWrapEntry:
		p.wrapEntry()
		return nil
	case opAppendEntry:
		entry := pop[entryValue](p)
		entries := pop[entriesValue](p)
		entries.entries = append(entries.entries, entry.entry)
		p.push(entries)
		return nil
	case opWrapFieldType:
		path := pop[pathValue](p)
		var fieldType FieldType = IdPath(path.segments)
		if len(path.segments) == 1 {
			if scalar, ok := LookupScalar(path.segments[0]); ok {
				fieldType = scalar
			}
		}
		p.push(fieldTypeValue{fieldType})
		return nil
	case opWrapRepeated:
		elem := pop[fieldTypeValue](p)
		p.push(fieldTypeValue{Repeated{Elem: elem.fieldType}})
		return nil
	case opWrapMap:
		mapValue := pop[fieldTypeValue](p)
		mapKey := pop[fieldTypeValue](p)
		p.push(fieldTypeValue{Map{Key: mapKey.fieldType, Value: mapValue.fieldType}})
		return nil
	default:
		p.internalError("unknown task %s", t)
		return nil
	}
}

func (p *parser) parseStatements() error {
	if p.token().Kind == T_EOF {
		return nil
	}
	p.schedule(task{op: opParseStatement}, task{op: opParseStatements})
	return nil
}

func (p *parser) parseStatement() error {
	tok := p.token()
	switch tok.Kind {
	case T_SEMI:
		p.advance()
		return nil
	case T_IDENT:
	default:
		return errUnexpectedToken(tok)
	}
	switch tok.Text {
	case "syntax":
		p.schedule(task{op: opParseSyntax})
	case "import":
		p.schedule(task{op: opParseImport})
	case "package":
		p.schedule(task{op: opParsePackage})
	case "message":
		p.schedule(task{op: opParseMessage}, task{op: opAppendDeclaration})
	case "enum":
		p.schedule(task{op: opParseEnum}, task{op: opAppendDeclaration})
	default:
		return errUnexpectedIdent(tok)
	}
	return nil
}

// parseSyntax matches `syntax = "proto2" ;` or `syntax = "proto3" ;`.
func (p *parser) parseSyntax() error {
	if err := p.require(4, "syntax statement"); err != nil {
		return err
	}
	if tok := p.peek(1); tok.Kind != T_EQ {
		return errInvalidSyntaxStatement(tok)
	}
	version := p.peek(2)
	if version.Kind != T_TEXT_LIT {
		return errInvalidSyntaxStatement(version)
	}
	if tok := p.peek(3); tok.Kind != T_SEMI {
		return errInvalidSyntaxStatement(tok)
	}
	switch version.Text {
	case "proto2":
		p.pkg.Syntax = Proto2
	case "proto3":
		p.pkg.Syntax = Proto3
	default:
		return errUnsupportedSyntax(version)
	}
	p.pos += 4
	return nil
}

// parseImport matches `import "path" ;`.
func (p *parser) parseImport() error {
	if err := p.require(3, "import statement"); err != nil {
		return err
	}
	path := p.peek(1)
	if path.Kind != T_TEXT_LIT {
		return errInvalidImportStatement(path)
	}
	if tok := p.peek(2); tok.Kind != T_SEMI {
		return errInvalidImportStatement(tok)
	}
	p.pkg.Imports = append(p.pkg.Imports, path.Text)
	p.pos += 3
	return nil
}

// parsePackage matches `package a.b.c ;`. A later package statement
// replaces the path set by an earlier one.
func (p *parser) parsePackage() error {
	if err := p.require(3, "package statement"); err != nil {
		return err
	}
	p.advance()
	var path []string
	for {
		tok := p.token()
		if tok.Kind != T_IDENT {
			return errExpectedIdent(tok)
		}
		path = append(path, tok.Text)
		p.advance()
		switch tok := p.token(); tok.Kind {
		case T_DOT:
			p.advance()
		case T_SEMI:
			p.advance()
			p.pkg.Path = path
			return nil
		default:
			return errExpectedSigil(T_SEMI, tok)
		}
	}
}

func (p *parser) parseMessageEntries() error {
	tok := p.token()
	switch tok.Kind {
	case T_CLOSE_CURL:
		return nil
	case T_SEMI:
		p.advance()
		p.schedule(task{op: opParseMessageEntries})
		return nil
	case T_IDENT, T_DOT:
		p.schedule(task{op: opParseMessageEntry}, task{op: opParseMessageEntries})
		return nil
	default:
		return errExpectedMessageEntry(tok)
	}
}

func (p *parser) parseMessageEntry() error {
	switch p.token().Text {
	case "message":
		p.schedule(task{op: opParseMessage}, task{op: opWrapEntry}, task{op: opAppendEntry})
	case "enum":
		p.schedule(task{op: opParseEnum}, task{op: opWrapEntry}, task{op: opAppendEntry})
	case "oneof":
		p.schedule(task{op: opParseOneOf}, task{op: opWrapEntry}, task{op: opAppendEntry})
	default:
		p.schedule(task{op: opParseField})
	}
	return nil
}

func (p *parser) parseEnumEntries() error {
	tok := p.token()
	switch tok.Kind {
	case T_CLOSE_CURL:
		return nil
	case T_SEMI:
		p.advance()
		p.schedule(task{op: opParseEnumEntries})
		return nil
	case T_IDENT:
		p.schedule(task{op: opParseEnumEntry}, task{op: opParseEnumEntries})
		return nil
	default:
		return errExpectedEnumEntry(tok)
	}
}

// parseEnumEntry matches `NAME = 0 ;`.
func (p *parser) parseEnumEntry() error {
	if err := p.require(4, "enum entry"); err != nil {
		return err
	}
	name := p.peek(0)
	if tok := p.peek(1); tok.Kind != T_EQ {
		return errExpectedSigil(T_EQ, tok)
	}
	number := p.peek(2)
	if number.Kind != T_INT_LIT {
		return errExpectedIntLit(number)
	}
	if tok := p.peek(3); tok.Kind != T_SEMI {
		return errExpectedSigil(T_SEMI, tok)
	}
	entries := pop[enumEntriesValue](p)
	entries.entries = append(entries.entries, EnumEntry{
		Name:  name.Text,
		Value: number.Int,
		Span:  name.Span,
	})
	p.push(entries)
	p.pos += 4
	return nil
}

func (p *parser) parseFieldType() error {
	tok := p.token()
	switch {
	case p.isKeyword(tok, "repeated"):
		p.advance()
		p.schedule(task{op: opParseElementType}, task{op: opWrapRepeated})
	case p.isKeyword(tok, "map") && p.peek(1).Kind == T_LESS:
		p.advance()
		p.schedule(
			expect(T_LESS),
			task{op: opParseElementType},
			expect(T_COMMA),
			task{op: opParseElementType},
			expect(T_GREATER),
			task{op: opWrapMap},
		)
	default:
		p.schedule(task{op: opParseElementType})
	}
	return nil
}

// parseElementType parses a type name that may not itself be repeated or a
// map. This rejects `repeated repeated T` and `map<K, map<...>>`.
func (p *parser) parseElementType() error {
	tok := p.token()
	if tok.Kind == T_DOT {
		p.schedule(task{op: opParseIdPath}, task{op: opWrapFieldType})
		return nil
	}
	if tok.Kind != T_IDENT {
		return errExpectedTypeName(tok)
	}
	if tok.Text == "repeated" || (tok.Text == "map" && p.peek(1).Kind == T_LESS) {
		return errNestedCollection(tok)
	}
	p.schedule(task{op: opParseIdPath}, task{op: opWrapFieldType})
	return nil
}

// parseIdPath parses a dotted type name. A fully-qualified name such as
// ".pkg.Msg" is stored with an empty first segment.
func (p *parser) parseIdPath() error {
	var segments []string
	first := p.token()
	span := first.Span
	if first.Kind == T_DOT {
		segments = append(segments, "")
		p.advance()
		first = p.token()
	}
	if first.Kind != T_IDENT {
		return errExpectedIdent(first)
	}
	segments = append(segments, first.Text)
	span = Span{span.start, first.Span.End() - span.start}
	p.advance()
	for p.token().Kind == T_DOT {
		p.advance()
		tok := p.token()
		if tok.Kind != T_IDENT {
			return errExpectedIdent(tok)
		}
		segments = append(segments, tok.Text)
		span = Span{span.start, tok.Span.End() - span.start}
		p.advance()
	}
	p.push(pathValue{segments, span})
	return nil
}

func (p *parser) parseOptionalAttributes() error {
	if p.token().Kind != T_OPEN_SQUARE {
		p.push(attrsValue{})
		return nil
	}
	p.advance()
	p.push(attrsValue{present: true})
	p.schedule(task{op: opParseAttributes})
	return nil
}

func (p *parser) parseAttributes(first bool) error {
	tok := p.token()
	switch {
	case tok.Kind == T_CLOSE_SQUARE:
		p.advance()
	case first:
		p.schedule(task{op: opParseAttribute}, task{op: opParseAttributesTail})
	case tok.Kind == T_COMMA:
		p.advance()
		p.schedule(task{op: opParseAttribute}, task{op: opParseAttributesTail})
	default:
		return errExpectedSigil(T_CLOSE_SQUARE, tok)
	}
	return nil
}

func (p *parser) appendDeclaration() {
	switch v := p.popAny().(type) {
	case messageValue:
		p.pkg.Declarations = append(p.pkg.Declarations, v.message)
	case enumValue:
		p.pkg.Declarations = append(p.pkg.Declarations, v.enum)
	default:
		p.internalError("expected declaration on value stack, found %s", v.kind())
	}
}

func (p *parser) buildMessage() {
	entries := pop[entriesValue](p)
	name := pop[identValue](p)
	p.push(messageValue{&MessageDeclaration{
		Name:    name.text,
		Entries: entries.entries,
		Span:    name.span,
	}})
}

func (p *parser) buildOneOf() error {
	entries := pop[entriesValue](p)
	name := pop[identValue](p)
	oneof := &OneOfDeclaration{
		Name: name.text,
		Span: name.span,
	}
	closing := p.tokens[p.pos-1].Span
	for _, entry := range entries.entries {
		field, ok := entry.(*FieldDeclaration)
		if !ok {
			return errOneofNonField(name.text, entry, closing)
		}
		oneof.Options = append(oneof.Options, field)
	}
	p.push(oneofValue{oneof})
	return nil
}

func (p *parser) buildEnum() {
	entries := pop[enumEntriesValue](p)
	name := pop[identValue](p)
	p.push(enumValue{&EnumDeclaration{
		Name:    name.text,
		Entries: entries.entries,
		Span:    name.span,
	}})
}

func (p *parser) buildField() {
	attrs := pop[attrsValue](p)
	tag := pop[intValue](p)
	name := pop[identValue](p)
	fieldType := pop[fieldTypeValue](p)
	entries := pop[entriesValue](p)
	entries.entries = append(entries.entries, &FieldDeclaration{
		Name:       name.text,
		Tag:        tag.value,
		Type:       fieldType.fieldType,
		Attributes: attrs.attrs,
		Span:       name.span,
	})
	p.push(entries)
}

func (p *parser) wrapEntry() {
	switch v := p.popAny().(type) {
	case messageValue:
		p.push(entryValue{v.message})
	case enumValue:
		p.push(entryValue{v.enum})
	case oneofValue:
		p.push(entryValue{v.oneof})
	default:
		p.internalError("expected message entry on value stack, found %s", v.kind())
	}
}
