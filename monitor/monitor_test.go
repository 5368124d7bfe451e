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

package monitor

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeSource struct {
	running bool
	uptime  time.Duration
	err     error
	bind    string
	conns   int
	pending bool
}

func (f *fakeSource) IsRunning() bool       { return f.running }
func (f *fakeSource) Uptime() time.Duration { return f.uptime }
func (f *fakeSource) GetError() error       { return f.err }
func (f *fakeSource) Bindable() string      { return f.bind }
func (f *fakeSource) ConnCount() int        { return f.conns }
func (f *fakeSource) AcceptPending() bool   { return f.pending }

func TestSnapshotStampsDistinctIDs(t *testing.T) {
	m := New("test", &fakeSource{running: true, bind: ":8080", conns: 3})

	a := m.Snapshot()
	b := m.Snapshot()

	if a.ID == "" || b.ID == "" {
		t.Fatal("expected Snapshot to stamp a non-empty ID")
	}
	if a.ID == b.ID {
		t.Fatalf("expected distinct snapshot IDs, got %q twice", a.ID)
	}
	if a.Bind != ":8080" || a.ConnCount != 3 {
		t.Fatalf("expected the snapshot to still carry source values, got %+v", a)
	}
}

func TestSnapshotWithoutSourceStillStampsID(t *testing.T) {
	m := New("", nil)
	s := m.Snapshot()

	if s.ID == "" {
		t.Fatal("expected Snapshot to stamp an ID even with no source attached")
	}
	if s.Name != DefaultName {
		t.Fatalf("expected the default name, got %q", s.Name)
	}
}

func TestHealthCheckReportsSourceError(t *testing.T) {
	want := errors.New("backend down")
	m := New("test", &fakeSource{running: true, err: want})

	if err := m.HealthCheck(context.Background()); err != want {
		t.Fatalf("expected %v, got %v", want, err)
	}
}

func TestHealthCheckReportsNotRunning(t *testing.T) {
	m := New("test", &fakeSource{running: false})

	if err := m.HealthCheck(context.Background()); err != errNotRunning {
		t.Fatalf("expected errNotRunning, got %v", err)
	}
}
