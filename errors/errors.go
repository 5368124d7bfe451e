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

// Package errors provides a small parent-chaining error taxonomy shared by
// every gomhd package. Each package reserves a contiguous CodeError range
// via the Min* constants in modules.go and registers a message function
// with RegisterIdFctMessage.
package errors

import (
	"fmt"
	"strings"
)

// CodeError is a namespaced numeric error code. Packages build their own
// const block starting at their reserved Min* value.
type CodeError uint16

const UNK_ERROR CodeError = 0

// Error is a chainable error that can carry zero or more parent errors.
type Error interface {
	error
	Code() CodeError
	IsCode(code CodeError) bool
	Add(parent ...error)
	AddParent(parent ...error)
	HasParent() bool
	GetParent() []Error
}

type ers struct {
	c CodeError
	e string
	p []Error
}

var registry = make(map[CodeError]func(CodeError) string)

// RegisterIdFctMessage registers the message function for every code in
// the contiguous block starting at id; the caller's own getMessage switch
// is consulted lazily for the code actually raised.
func RegisterIdFctMessage(id CodeError, fct func(CodeError) string) {
	registry[id] = fct
}

// ExistInMapMessage reports whether a message function has already been
// registered for the block starting at id (used to detect duplicate
// package-level init registration).
func ExistInMapMessage(id CodeError) bool {
	_, ok := registry[id]
	return ok
}

func message(code CodeError) string {
	for _, fct := range registry {
		if m := fct(code); m != "" {
			return m
		}
	}
	return ""
}

// New creates a new Error for the given code, optionally wrapping parents.
func New(code CodeError, parent ...error) Error {
	e := &ers{c: code, e: message(code)}
	e.Add(parent...)
	return e
}

func (e *ers) Error() string {
	if e == nil {
		return ""
	}

	var sb strings.Builder
	if e.e != "" {
		sb.WriteString(e.e)
	} else {
		sb.WriteString(fmt.Sprintf("error #%d", e.c))
	}

	for _, p := range e.p {
		if p == nil {
			continue
		}
		sb.WriteString(": ")
		sb.WriteString(p.Error())
	}

	return sb.String()
}

func (e *ers) Code() CodeError {
	if e == nil {
		return UNK_ERROR
	}
	return e.c
}

func (e *ers) IsCode(code CodeError) bool {
	if e == nil {
		return false
	}
	if e.c == code {
		return true
	}
	for _, p := range e.p {
		if p.IsCode(code) {
			return true
		}
	}
	return false
}

func (e *ers) Add(parent ...error) {
	e.AddParent(parent...)
}

func (e *ers) AddParent(parent ...error) {
	for _, p := range parent {
		if p == nil {
			continue
		}
		if er, ok := p.(Error); ok {
			e.p = append(e.p, er)
		} else {
			e.p = append(e.p, &ers{e: p.Error()})
		}
	}
}

func (e *ers) HasParent() bool {
	return e != nil && len(e.p) > 0
}

func (e *ers) GetParent() []Error {
	if e == nil {
		return nil
	}
	return e.p
}

// Is reports whether target carries the same code as e, following the
// standard errors.Is contract closely enough for errors.Is(e, target) to
// work when target is also an Error built from the same code.
func (e *ers) Is(target error) bool {
	if target == nil {
		return false
	}
	if t, ok := target.(Error); ok {
		return e.Code() != UNK_ERROR && e.Code() == t.Code()
	}
	return false
}

// Code extracts the CodeError carried by err, or UNK_ERROR if err is nil
// or not an Error.
func Code(err error) CodeError {
	if er, ok := err.(Error); ok {
		return er.Code()
	}
	return UNK_ERROR
}
