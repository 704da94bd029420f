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
	"cmp"
	"encoding/base64"
	"fmt"
	"math"
	"reflect"
	"slices"
	"strconv"

	"go.protots.org/protots/syntax"
)

// Values are dynamic: messages are maps with string keys, repeated fields
// are slices, map fields are maps. Integers may be any Go integer type, an
// integral float64 (as decoded from JSON or YAML), or a decimal string.

func getInt64(v any) (int64, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := rv.Uint()
		if u > math.MaxInt64 {
			return 0, false
		}
		return int64(u), true
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		if f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 {
			return 0, false
		}
		return int64(f), true
	case reflect.String:
		n, err := strconv.ParseInt(rv.String(), 10, 64)
		return n, err == nil
	}
	return 0, false
}

func getUint64(v any) (uint64, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return rv.Uint(), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n := rv.Int()
		if n < 0 {
			return 0, false
		}
		return uint64(n), true
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		if f != math.Trunc(f) || f < 0 || f >= math.MaxUint64 {
			return 0, false
		}
		return uint64(f), true
	case reflect.String:
		n, err := strconv.ParseUint(rv.String(), 10, 64)
		return n, err == nil
	}
	return 0, false
}

func getFloat64(v any) (float64, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return float64(rv.Uint()), true
	case reflect.String:
		switch s := rv.String(); s {
		case "NaN":
			return math.NaN(), true
		case "Infinity":
			return math.Inf(1), true
		case "-Infinity":
			return math.Inf(-1), true
		}
	}
	return 0, false
}

// getBytes accepts a byte slice or a base64 string, as in the protobuf JSON
// mapping.
func getBytes(v any) ([]byte, bool) {
	switch v := v.(type) {
	case []byte:
		return v, true
	case string:
		if b, err := base64.StdEncoding.DecodeString(v); err == nil {
			return b, true
		}
		b, err := base64.URLEncoding.DecodeString(v)
		return b, err == nil
	}
	return nil, false
}

func getMessage(v any) (map[string]any, bool) {
	switch v := v.(type) {
	case map[string]any:
		return v, true
	case map[any]any:
		msg := make(map[string]any, len(v))
		for key, value := range v {
			name, ok := key.(string)
			if !ok {
				return nil, false
			}
			msg[name] = value
		}
		return msg, true
	}
	return nil, false
}

// present reports whether v holds a value. Nil pointers, slices and maps
// count as absent.
func present(v any) bool {
	if v == nil {
		return false
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice:
		return !rv.IsNil()
	}
	return true
}

func nonEmpty(v any) bool {
	if !present(v) {
		return false
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map, reflect.Slice, reflect.Array, reflect.String:
		return rv.Len() > 0
	}
	return true
}

func listElems(v any) ([]any, bool) {
	if elems, ok := v.([]any); ok {
		return elems, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	elems := make([]any, rv.Len())
	for ii := range elems {
		elems[ii] = rv.Index(ii).Interface()
	}
	return elems, true
}

type mapEntry struct {
	key   any
	value any
}

// mapEntries returns the entries of a map value sorted by key, so that
// encoding is deterministic.
func mapEntries(v any, keyKind syntax.Scalar) ([]mapEntry, error) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Map {
		return nil, fmt.Errorf("expected map, got %T", v)
	}
	entries := make([]mapEntry, 0, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		entries = append(entries, mapEntry{
			key:   iter.Key().Interface(),
			value: iter.Value().Interface(),
		})
	}
	var sortErr error
	slices.SortFunc(entries, func(a, b mapEntry) int {
		c, err := compareKeys(keyKind, a.key, b.key)
		if err != nil && sortErr == nil {
			sortErr = err
		}
		return c
	})
	return entries, sortErr
}

func compareKeys(kind syntax.Scalar, a, b any) (int, error) {
	switch kind {
	case syntax.String:
		as, aok := a.(string)
		bs, bok := b.(string)
		if !aok || !bok {
			return 0, fmt.Errorf("map key %v is not a string", pick(aok, b, a))
		}
		return cmp.Compare(as, bs), nil
	case syntax.Bool:
		ab, aok := getBoolKey(a)
		bb, bok := getBoolKey(b)
		if !aok || !bok {
			return 0, fmt.Errorf("map key %v is not a bool", pick(aok, b, a))
		}
		return cmp.Compare(boolOrder(ab), boolOrder(bb)), nil
	case syntax.Uint32, syntax.Uint64, syntax.Fixed32, syntax.Fixed64:
		an, aok := getUint64(a)
		bn, bok := getUint64(b)
		if !aok || !bok {
			return 0, fmt.Errorf("map key %v is not an unsigned integer", pick(aok, b, a))
		}
		return cmp.Compare(an, bn), nil
	default:
		an, aok := getInt64(a)
		bn, bok := getInt64(b)
		if !aok || !bok {
			return 0, fmt.Errorf("map key %v is not an integer", pick(aok, b, a))
		}
		return cmp.Compare(an, bn), nil
	}
}

func pick(aok bool, b, a any) any {
	if aok {
		return b
	}
	return a
}

// getBoolKey also accepts "true" and "false", since JSON object keys are
// always strings.
func getBoolKey(v any) (bool, bool) {
	switch v := v.(type) {
	case bool:
		return v, true
	case string:
		b, err := strconv.ParseBool(v)
		return b, err == nil && (v == "true" || v == "false")
	}
	return false, false
}

func boolOrder(b bool) int {
	if b {
		return 1
	}
	return 0
}
