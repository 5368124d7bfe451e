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

// Package atomic provides a small generic wrapper over sync/atomic.Value
// used throughout gomhd to share state between the application's calling
// goroutine and the daemon's worker goroutines without a mutex.
package atomic

import (
	"sync/atomic"
)

// Value is a type-safe, lock-free container for a single value of type T.
type Value[T any] interface {
	Load() T
	Store(val T)
	Swap(new T) (old T)
	CompareAndSwap(old, new T) bool
}

type val[T any] struct {
	av atomic.Value
}

// NewValue returns a new, empty Value[T]. Load returns the zero value of
// T until the first Store.
func NewValue[T any]() Value[T] {
	return &val[T]{}
}

type box[T any] struct {
	v T
}

func (o *val[T]) Load() (out T) {
	if i := o.av.Load(); i == nil {
		return out
	} else if b, ok := i.(box[T]); ok {
		return b.v
	}
	return out
}

func (o *val[T]) Store(v T) {
	o.av.Store(box[T]{v: v})
}

func (o *val[T]) Swap(newVal T) (old T) {
	if i := o.av.Swap(box[T]{v: newVal}); i != nil {
		if b, ok := i.(box[T]); ok {
			old = b.v
		}
	}
	return old
}

// CompareAndSwap requires T to be comparable (as sync/atomic.Value
// itself does); callers that only ever store comparable types (bools,
// strings, pointers, small structs of such) are safe, which covers
// every use of Value[T] in this module.
func (o *val[T]) CompareAndSwap(oldVal, newVal T) bool {
	if o.av.Load() == nil {
		return o.av.CompareAndSwap(nil, box[T]{v: newVal})
	}
	return o.av.CompareAndSwap(box[T]{v: oldVal}, box[T]{v: newVal})
}
