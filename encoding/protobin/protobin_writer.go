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

// Package protobin writes protobuf wire-format messages, either by hand
// through a [Writer] or by running compiled encoders over dynamic values.
package protobin

import (
	"math"
	"slices"

	"google.golang.org/protobuf/encoding/protowire"
)

// A Writer appends wire-format values to a buffer. Its methods return the
// writer so calls can be chained. Length-delimited sections are written by
// calling Fork, writing the section's contents, then calling Ldelim.
type Writer struct {
	buf   []byte
	forks []int
}

func NewWriter() *Writer {
	return &Writer{}
}

func (w *Writer) Uint32(v uint32) *Writer {
	w.buf = protowire.AppendVarint(w.buf, uint64(v))
	return w
}

// Int32 writes v sign-extended to 64 bits, so negative values take ten
// bytes.
func (w *Writer) Int32(v int32) *Writer {
	w.buf = protowire.AppendVarint(w.buf, uint64(int64(v)))
	return w
}

func (w *Writer) Sint32(v int32) *Writer {
	w.buf = protowire.AppendVarint(w.buf, protowire.EncodeZigZag(int64(v)))
	return w
}

func (w *Writer) Uint64(v uint64) *Writer {
	w.buf = protowire.AppendVarint(w.buf, v)
	return w
}

func (w *Writer) Int64(v int64) *Writer {
	w.buf = protowire.AppendVarint(w.buf, uint64(v))
	return w
}

func (w *Writer) Sint64(v int64) *Writer {
	w.buf = protowire.AppendVarint(w.buf, protowire.EncodeZigZag(v))
	return w
}

func (w *Writer) Bool(v bool) *Writer {
	w.buf = protowire.AppendVarint(w.buf, protowire.EncodeBool(v))
	return w
}

func (w *Writer) Fixed32(v uint32) *Writer {
	w.buf = protowire.AppendFixed32(w.buf, v)
	return w
}

func (w *Writer) Sfixed32(v int32) *Writer {
	w.buf = protowire.AppendFixed32(w.buf, uint32(v))
	return w
}

func (w *Writer) Fixed64(v uint64) *Writer {
	w.buf = protowire.AppendFixed64(w.buf, v)
	return w
}

func (w *Writer) Sfixed64(v int64) *Writer {
	w.buf = protowire.AppendFixed64(w.buf, uint64(v))
	return w
}

func (w *Writer) Float(v float32) *Writer {
	w.buf = protowire.AppendFixed32(w.buf, math.Float32bits(v))
	return w
}

func (w *Writer) Double(v float64) *Writer {
	w.buf = protowire.AppendFixed64(w.buf, math.Float64bits(v))
	return w
}

// String writes a length-prefixed string.
func (w *Writer) String(v string) *Writer {
	w.buf = protowire.AppendString(w.buf, v)
	return w
}

// Bytes writes a length-prefixed byte slice.
func (w *Writer) Bytes(v []byte) *Writer {
	w.buf = protowire.AppendBytes(w.buf, v)
	return w
}

// Fork starts a length-delimited section.
func (w *Writer) Fork() *Writer {
	w.forks = append(w.forks, len(w.buf))
	return w
}

// Ldelim ends the innermost section started by Fork, prefixing its
// contents with their length.
func (w *Writer) Ldelim() *Writer {
	if len(w.forks) == 0 {
		panic("protobin.Writer: Ldelim without matching Fork")
	}
	start := w.forks[len(w.forks)-1]
	w.forks = w.forks[:len(w.forks)-1]
	size := len(w.buf) - start
	w.buf = slices.Insert(w.buf, start, protowire.AppendVarint(nil, uint64(size))...)
	return w
}

// Len is the number of bytes written so far.
func (w *Writer) Len() int {
	return len(w.buf)
}

// Finish returns the encoded bytes and resets the writer.
func (w *Writer) Finish() []byte {
	if len(w.forks) != 0 {
		panic("protobin.Writer: Finish with unterminated Fork")
	}
	out := w.buf
	w.Reset()
	return out
}

func (w *Writer) Reset() *Writer {
	w.buf = nil
	w.forks = w.forks[:0]
	return w
}
