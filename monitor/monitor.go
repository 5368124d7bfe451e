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

// Package monitor exposes a pull-based health snapshot of a running
// daemon, queried by the application rather than pushed to a metrics
// backend.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	uuid "github.com/hashicorp/go-uuid"
)

const DefaultName = "gomhd daemon"

var errNotRunning = errors.New("daemon is not running")

// Snapshot is a point-in-time view of daemon health.
type Snapshot struct {
	// ID distinguishes this snapshot from any other taken before or
	// after it, so a series of snapshots pushed to an external system
	// can be correlated back to the exact Snapshot() call that produced
	// each one.
	ID            string
	Name          string
	Bind          string
	Uptime        time.Duration
	ConnCount     int
	AcceptPending bool
	LastError     error
}

// Source supplies the live values a Monitor reads on demand; the daemon
// implements it directly rather than pushing updates.
type Source interface {
	IsRunning() bool
	Uptime() time.Duration
	GetError() error
	Bindable() string
	ConnCount() int
	AcceptPending() bool
}

// Monitor wraps a Source with naming and a HealthCheck suitable for
// wiring into an external health-check endpoint.
type Monitor interface {
	Name() string
	Snapshot() Snapshot
	HealthCheck(ctx context.Context) error
}

type mon struct {
	mu   sync.RWMutex
	name string
	src  Source
}

// New returns a Monitor reading from src, named name (DefaultName if
// empty).
func New(name string, src Source) Monitor {
	if name == "" {
		name = DefaultName
	}
	return &mon{name: name, src: src}
}

func (o *mon) Name() string {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if o.src == nil {
		return o.name
	}
	return fmt.Sprintf("%s [%s]", o.name, o.src.Bindable())
}

func (o *mon) Snapshot() Snapshot {
	o.mu.RLock()
	src := o.src
	name := o.name
	o.mu.RUnlock()

	id, _ := uuid.GenerateUUID()

	if src == nil {
		return Snapshot{ID: id, Name: name}
	}

	return Snapshot{
		ID:            id,
		Name:          name,
		Bind:          src.Bindable(),
		Uptime:        src.Uptime(),
		ConnCount:     src.ConnCount(),
		AcceptPending: src.AcceptPending(),
		LastError:     src.GetError(),
	}
}

func (o *mon) HealthCheck(ctx context.Context) error {
	o.mu.RLock()
	src := o.src
	o.mu.RUnlock()

	if src == nil || !src.IsRunning() {
		return errNotRunning
	}
	if err := src.GetError(); err != nil {
		return err
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}
