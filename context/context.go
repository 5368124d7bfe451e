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

// Package context wraps a lazily-resolved parent context.Context together
// with a small keyed value store, so the daemon and its connections can be
// created before the application decides what parent context to cancel
// them with.
package context

import (
	"context"
	"sync"
	"time"
)

// Config is a generic keyed store of values of type T, usable as a
// context.Context itself.
type Config[T comparable] interface {
	context.Context

	Load(key T) (any, bool)
	Store(key T, val any)
	Delete(key T)

	// SetParent replaces the function used to resolve the parent
	// context lazily (the one New was given); while no function is set,
	// the parent is context.Background().
	SetParent(f func() context.Context)
}

type ccx[T comparable] struct {
	mu sync.RWMutex
	m  map[T]any
	pf func() context.Context
}

// New returns a Config[T] whose parent context is resolved by calling f
// (which may be nil, deferring to context.Background()).
func New[T comparable](f func() context.Context) Config[T] {
	return &ccx[T]{m: make(map[T]any), pf: f}
}

func (c *ccx[T]) parent() context.Context {
	c.mu.RLock()
	f := c.pf
	c.mu.RUnlock()

	if f == nil {
		return context.Background()
	}
	if x := f(); x != nil {
		return x
	}
	return context.Background()
}

func (c *ccx[T]) SetParent(f func() context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pf = f
}

func (c *ccx[T]) Load(key T) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.m[key]
	return v, ok
}

func (c *ccx[T]) Store(key T, val any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[key] = val
}

func (c *ccx[T]) Delete(key T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.m, key)
}

func (c *ccx[T]) Deadline() (deadline time.Time, ok bool) {
	return c.parent().Deadline()
}

func (c *ccx[T]) Done() <-chan struct{} {
	return c.parent().Done()
}

func (c *ccx[T]) Err() error {
	return c.parent().Err()
}

func (c *ccx[T]) Value(key any) any {
	if k, ok := key.(T); ok {
		if v, found := c.Load(k); found {
			return v
		}
	}
	return c.parent().Value(key)
}
