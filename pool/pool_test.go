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

package pool

import "testing"

func TestAllocateAndFree(t *testing.T) {
	p := New(1024)

	if got := p.GetFree(); got != 1024 {
		t.Fatalf("GetFree() = %d, want 1024", got)
	}

	ptr, ok := p.Allocate(100, false)
	if !ok {
		t.Fatal("Allocate(100) failed")
	}
	if ptr != 0 {
		t.Fatalf("first head allocation ptr = %d, want 0", ptr)
	}
	if got := p.GetFree(); got != 924 {
		t.Fatalf("GetFree() after alloc = %d, want 924", got)
	}
}

func TestAllocateFailsWhenExhausted(t *testing.T) {
	p := New(64)

	if _, ok := p.Allocate(100, false); ok {
		t.Fatal("Allocate(100) on a 64-byte pool should fail")
	}

	ptr, ok, short := p.TryAllocate(100, false)
	if ok {
		t.Fatal("TryAllocate(100) should fail")
	}
	if ptr != 0 {
		t.Fatalf("TryAllocate failure ptr = %d, want 0", ptr)
	}
	if short != 36 {
		t.Fatalf("shortfall = %d, want 36", short)
	}
}

func TestReallocateInPlaceGrowAndShrink(t *testing.T) {
	p := New(256)

	ptr, ok := p.Allocate(32, false)
	if !ok {
		t.Fatal("Allocate failed")
	}
	if !p.IsResizableInPlace(ptr, 32) {
		t.Fatal("last head allocation should be resizable in place")
	}

	ptr2, ok := p.Reallocate(ptr, 32, 64)
	if !ok || ptr2 != ptr {
		t.Fatalf("grow-in-place failed: ok=%v ptr2=%d", ok, ptr2)
	}
	if got := p.GetFree(); got != 192 {
		t.Fatalf("GetFree() after grow = %d, want 192", got)
	}

	ptr3, ok := p.Reallocate(ptr, 64, 16)
	if !ok || ptr3 != ptr {
		t.Fatalf("shrink-in-place failed: ok=%v", ok)
	}
	if got := p.GetFree(); got != 240 {
		t.Fatalf("GetFree() after shrink = %d, want 240", got)
	}
}

func TestReallocateNotLastAllocationFails(t *testing.T) {
	p := New(256)

	ptr1, _ := p.Allocate(16, false)
	_, _ = p.Allocate(16, false)

	if _, ok := p.Reallocate(ptr1, 16, 32); ok {
		t.Fatal("Reallocate on a non-last allocation must fail")
	}
}

func TestAllocateFromEndAndMiddleMeeting(t *testing.T) {
	p := New(100)

	_, ok := p.Allocate(40, false)
	if !ok {
		t.Fatal("head allocate failed")
	}
	_, ok = p.Allocate(40, true)
	if !ok {
		t.Fatal("tail allocate failed")
	}

	if got := p.GetFree(); got != 20 {
		t.Fatalf("GetFree() = %d, want 20", got)
	}

	if _, ok := p.Allocate(21, false); ok {
		t.Fatal("allocation beyond remaining free space must fail")
	}
}

func TestDeallocateTrailingHead(t *testing.T) {
	p := New(128)

	ptr, _ := p.Allocate(20, false)
	p.Deallocate(ptr, 20)

	if got := p.GetFree(); got != 128 {
		t.Fatalf("GetFree() after dealloc = %d, want 128", got)
	}
}

func TestResetToWatermark(t *testing.T) {
	p := New(128)

	mark := p.HeadWatermark()
	_, _ = p.Allocate(50, false)
	p.ResetToWatermark(mark)

	if got := p.GetFree(); got != 128 {
		t.Fatalf("GetFree() after ResetToWatermark = %d, want 128", got)
	}
}
