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

package ready

import (
	"testing"
	"time"

	"github.com/nabbar/gomhd/types"
)

func TestPushBackAndContains(t *testing.T) {
	l := NewList()

	if !l.PushBack(1) {
		t.Fatal("PushBack(1) should succeed on empty list")
	}
	if l.PushBack(1) {
		t.Fatal("PushBack(1) again should report already-present")
	}
	if !l.Contains(1) {
		t.Fatal("Contains(1) should be true")
	}
}

func TestRemoveMaintainsInvariant(t *testing.T) {
	l := NewList()
	l.PushBack(1)
	l.PushBack(2)
	l.PushBack(3)

	l.Remove(2)

	if l.Contains(2) {
		t.Fatal("Contains(2) should be false after Remove")
	}
	if l.Next(1) != 3 {
		t.Fatalf("Next(1) = %d, want 3", l.Next(1))
	}
}

func TestWalkAllowsSelfRemoval(t *testing.T) {
	l := NewList()
	l.PushBack(1)
	l.PushBack(2)
	l.PushBack(3)

	var visited []types.Handle
	l.Walk(func(h types.Handle) {
		visited = append(visited, h)
		if h == 2 {
			l.Remove(2)
		}
	})

	if len(visited) != 3 {
		t.Fatalf("visited %v, want 3 entries", visited)
	}
	if l.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", l.Len())
	}
}

func TestProcessReadyUpdate(t *testing.T) {
	p := NewProcessReady()

	p.Update(1, SockRecvReady, WaitRecv, false, false)
	if !p.Contains(1) {
		t.Fatal("connection should be marked ready on matching recv bits")
	}

	p.Update(1, 0, WaitRecv, false, false)
	if p.Contains(1) {
		t.Fatal("connection should be marked unready with no matching bits")
	}

	p.Update(1, 0, WaitRecv, false, true)
	if !p.Contains(1) {
		t.Fatal("buffered TLS bytes should force readiness")
	}
}

func TestNextWaitMax(t *testing.T) {
	tl := NewTimeoutList()
	now := time.Unix(1000, 0)

	if _, ok := tl.NextWaitMax(now, false, false); ok {
		t.Fatal("empty timeout list with no pending work should be indefinite")
	}

	tl.Touch(1, now, 5*time.Second)
	tl.Touch(2, now, 2*time.Second)

	d, ok := tl.NextWaitMax(now.Add(time.Second), false, false)
	if !ok {
		t.Fatal("expected a bounded wait-max")
	}
	if d != time.Second {
		t.Fatalf("NextWaitMax = %v, want 1s", d)
	}

	d, ok = tl.NextWaitMax(now, true, false)
	if !ok || d != 0 {
		t.Fatalf("anyProcessReady should force a zero wait-max, got %v, %v", d, ok)
	}
}
