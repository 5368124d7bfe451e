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

package gomhd

import (
	"context"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/nabbar/gomhd/errors"
)

// FieldType selects which Daemon field Group.List/Filter matches
// against and returns.
type FieldType uint8

const (
	FieldName FieldType = iota
	FieldBind
)

// MapGroupFunc is applied to every daemon currently in a Group by
// Group.MapRun.
type MapGroupFunc func(d Daemon)

// Group manages a set of independently startable/stoppable daemons
// keyed by their bind address, so an application embedding more than
// one listener (plain + TLS, multiple ports) can drive them together.
type Group interface {
	Add(d ...Daemon) error
	Get(bindable string) Daemon
	Del(bindable string)
	Has(bindable string) bool
	Len() int

	MapRun(f MapGroupFunc)

	List(field FieldType, pattern string) []string
	Filter(field FieldType, pattern string) Group

	// IsRunning reports true if every daemon is running, unless
	// atLeast is set, in which case one running daemon is enough.
	IsRunning(atLeast bool) bool

	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Restart(ctx context.Context) error
	WaitNotify(ctx context.Context)
}

type group struct {
	mu sync.RWMutex
	ds []Daemon
}

// NewGroup returns a Group seeded with d.
func NewGroup(d ...Daemon) Group {
	g := &group{}
	_ = g.Add(d...)
	return g
}

func (g *group) Add(d ...Daemon) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	for _, n := range d {
		for _, e := range g.ds {
			if e.Bindable() == n.Bindable() {
				return errors.New(ErrGroupDuplicate)
			}
		}
		g.ds = append(g.ds, n)
	}
	return nil
}

func (g *group) Get(bindable string) Daemon {
	g.mu.RLock()
	defer g.mu.RUnlock()

	for _, d := range g.ds {
		if d.Bindable() == bindable {
			return d
		}
	}
	return nil
}

func (g *group) Del(bindable string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	out := g.ds[:0]
	for _, d := range g.ds {
		if d.Bindable() != bindable {
			out = append(out, d)
		}
	}
	g.ds = out
}

func (g *group) Has(bindable string) bool {
	return g.Get(bindable) != nil
}

func (g *group) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.ds)
}

func (g *group) snapshot() []Daemon {
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := make([]Daemon, len(g.ds))
	copy(out, g.ds)
	return out
}

func (g *group) MapRun(f MapGroupFunc) {
	for _, d := range g.snapshot() {
		f(d)
	}
}

func fieldValue(d Daemon, field FieldType) string {
	if field == FieldBind {
		return d.Bindable()
	}
	return d.Name()
}

func (g *group) List(field FieldType, pattern string) []string {
	pattern = strings.ToLower(pattern)

	out := make([]string, 0, g.Len())
	for _, d := range g.snapshot() {
		v := fieldValue(d, field)
		if pattern == "" || strings.Contains(strings.ToLower(v), pattern) {
			out = append(out, v)
		}
	}
	return out
}

func (g *group) Filter(field FieldType, pattern string) Group {
	pattern = strings.ToLower(pattern)

	out := &group{}
	for _, d := range g.snapshot() {
		v := fieldValue(d, field)
		if pattern == "" || strings.Contains(strings.ToLower(v), pattern) {
			out.ds = append(out.ds, d)
		}
	}
	return out
}

func (g *group) IsRunning(atLeast bool) bool {
	ds := g.snapshot()
	if len(ds) == 0 {
		return false
	}

	running := false
	for _, d := range ds {
		if d.IsRunning() {
			running = true
			if atLeast {
				return true
			}
			continue
		}
		if !atLeast {
			return false
		}
	}
	return running
}

// Start starts every daemon in the group concurrently, returning the
// first error any of them reports; the rest keep running regardless.
func (g *group) Start(ctx context.Context) error {
	var eg errgroup.Group
	for _, d := range g.snapshot() {
		d := d
		eg.Go(func() error { return d.Start(ctx) })
	}
	return eg.Wait()
}

func (g *group) Stop(ctx context.Context) error {
	eg, gctx := errgroup.WithContext(ctx)
	for _, d := range g.snapshot() {
		d := d
		eg.Go(func() error { return d.Stop(gctx) })
	}
	return eg.Wait()
}

func (g *group) Restart(ctx context.Context) error {
	var eg errgroup.Group
	for _, d := range g.snapshot() {
		d := d
		eg.Go(func() error { return d.Restart(ctx) })
	}
	return eg.Wait()
}

// WaitNotify blocks until every daemon in the group has returned from
// its own WaitNotify (signal caught, or ctx done).
func (g *group) WaitNotify(ctx context.Context) {
	var wg sync.WaitGroup
	for _, d := range g.snapshot() {
		d := d
		wg.Add(1)
		go func() {
			defer wg.Done()
			d.WaitNotify(ctx)
		}()
	}
	wg.Wait()
}
