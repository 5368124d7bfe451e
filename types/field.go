/*
 * MIT License
 *
 * Copyright (c) 2024 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

package types

import "strings"

// Field is a (name, value, kind) triple backed by the connection pool;
// name is matched ASCII case-insensitively.
type Field struct {
	Name  string
	Value string
	Kind  FieldKind
}

// FieldList is an ordered collection of Field entries, preserving
// insertion order the way wire headers must be observable in order.
type FieldList struct {
	items []Field
}

func (fl *FieldList) Add(name, value string, kind FieldKind) {
	fl.items = append(fl.items, Field{Name: name, Value: value, Kind: kind})
}

func (fl *FieldList) Get(name string, kind FieldKind) (string, bool) {
	for _, f := range fl.items {
		if f.Kind == kind && strings.EqualFold(f.Name, name) {
			return f.Value, true
		}
	}
	return "", false
}

func (fl *FieldList) GetAll(name string, kind FieldKind) []string {
	var out []string
	for _, f := range fl.items {
		if f.Kind == kind && strings.EqualFold(f.Name, name) {
			out = append(out, f.Value)
		}
	}
	return out
}

func (fl *FieldList) Count(name string, kind FieldKind) int {
	n := 0
	for _, f := range fl.items {
		if f.Kind == kind && strings.EqualFold(f.Name, name) {
			n++
		}
	}
	return n
}

func (fl *FieldList) All() []Field {
	return fl.items
}

func (fl *FieldList) OfKind(kind FieldKind) []Field {
	var out []Field
	for _, f := range fl.items {
		if f.Kind == kind {
			out = append(out, f)
		}
	}
	return out
}

func (fl *FieldList) Reset() {
	fl.items = fl.items[:0]
}

// Handle is a small integer identity into an arena, replacing raw
// intrusive pointers for the doubly-linked lists described in the
// design notes (all/process_ready/by_timeout/upgr_cleanup). Zero is
// reserved as the "no handle" sentinel; real handles start at 1.
type Handle uint32

const NoHandle Handle = 0
