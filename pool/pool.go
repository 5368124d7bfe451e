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

// Package pool implements the per-connection bump+shrink memory arena:
// a single byte buffer split into a head region that grows forward and
// a tail region that grows backward, with the last head allocation kept
// resizable in place. It is deliberately not thread-safe - only the
// worker goroutine currently owning a connection ever touches its pool.
package pool

import (
	"github.com/nabbar/gomhd/errors"
)

const (
	codeInvalidSize errors.CodeError = errors.MinPkgPool + iota
	codeNotLastAlloc
	codeOutOfRange
)

func init() {
	errors.RegisterIdFctMessage(errors.MinPkgPool, getMessage)
}

func getMessage(code errors.CodeError) string {
	switch code {
	case codeInvalidSize:
		return "pool: invalid allocation size"
	case codeNotLastAlloc:
		return "pool: block is not the last head allocation"
	case codeOutOfRange:
		return "pool: pointer out of pool range"
	default:
		return ""
	}
}

// Ptr is an offset into the pool's backing buffer; Slice resolves it to
// the live byte slice. Zero is a valid offset (the very first byte), so
// callers must not treat Ptr(0) as "no allocation" - use a size of 0 for
// that instead.
type Ptr uint32

// Pool is a bump+shrink arena: Allocate(n, false) grows the head region
// forward, Allocate(n, true) grows the tail region backward, and the two
// meet in
// the middle when the pool is exhausted.
type Pool struct {
	buf []byte

	headUsed uint32 // bytes allocated from the front
	tailUsed uint32 // bytes allocated from the back

	lastHeadPtr  Ptr
	lastHeadSize uint32
	hasLastHead  bool
}

// New allocates a pool backed by a buffer of exactly size bytes.
func New(size uint32) *Pool {
	return &Pool{buf: make([]byte, size)}
}

// Total returns the pool's fixed capacity.
func (p *Pool) Total() uint32 {
	return uint32(len(p.buf))
}

// GetFree returns the number of bytes available for a new allocation
// from either end.
func (p *Pool) GetFree() uint32 {
	return p.Total() - p.headUsed - p.tailUsed
}

// Allocate reserves n bytes from the head (fromEnd=false) or tail
// (fromEnd=true) region and returns a Ptr to it, or ok=false if the pool
// does not have n free bytes.
func (p *Pool) Allocate(n uint32, fromEnd bool) (ptr Ptr, ok bool) {
	if n == 0 {
		return 0, true
	}
	if n > p.GetFree() {
		return 0, false
	}

	if fromEnd {
		p.tailUsed += n
		ptr = Ptr(p.Total() - p.tailUsed)
		p.hasLastHead = false // a tail alloc breaks "last alloc" tracking
		return ptr, true
	}

	ptr = Ptr(p.headUsed)
	p.headUsed += n
	p.lastHeadPtr = ptr
	p.lastHeadSize = n
	p.hasLastHead = true
	return ptr, true
}

// TryAllocate behaves like Allocate but on failure also reports how
// many additional free bytes would be required to satisfy the request.
func (p *Pool) TryAllocate(n uint32, fromEnd bool) (ptr Ptr, ok bool, shortfall uint32) {
	free := p.GetFree()
	if n <= free {
		ptr, ok = p.Allocate(n, fromEnd)
		return ptr, ok, 0
	}
	return 0, false, n - free
}

// IsResizableInPlace reports whether the block at ptr/size is the most
// recent head allocation, and therefore may be grown or shrunk via
// Reallocate without copying.
func (p *Pool) IsResizableInPlace(ptr Ptr, size uint32) bool {
	return p.hasLastHead && ptr == p.lastHeadPtr && size == p.lastHeadSize
}

// Reallocate resizes the block at ptr from oldSize to newSize in place.
// It succeeds only when the block is the last head allocation; growing
// is capped by current free space, shrinking always succeeds.
func (p *Pool) Reallocate(ptr Ptr, oldSize, newSize uint32) (Ptr, bool) {
	if !p.IsResizableInPlace(ptr, oldSize) {
		return 0, false
	}

	if newSize <= oldSize {
		shrink := oldSize - newSize
		p.headUsed -= shrink
		p.lastHeadSize = newSize
		return ptr, true
	}

	grow := newSize - oldSize
	if grow > p.GetFree() {
		return 0, false
	}

	p.headUsed += grow
	p.lastHeadSize = newSize
	return ptr, true
}

// Deallocate releases a trailing allocation - the most recent head
// allocation, or the most recent tail allocation - identified by ptr and
// size. Releasing anything else is a caller error and is a no-op here;
// callers that need to free an interior block must track reachability
// themselves (the engine never does, by construction of how buffers are
// carved - see §4.1 and §4.6 of the design).
func (p *Pool) Deallocate(ptr Ptr, size uint32) {
	if size == 0 {
		return
	}
	if p.hasLastHead && ptr == p.lastHeadPtr && size == p.lastHeadSize {
		p.headUsed -= size
		p.hasLastHead = false
		return
	}
	if uint32(ptr) == p.Total()-p.tailUsed && size <= p.tailUsed {
		p.tailUsed -= size
	}
}

// Slice resolves ptr/size to the live backing bytes.
func (p *Pool) Slice(ptr Ptr, size uint32) []byte {
	return p.buf[ptr : uint32(ptr)+size]
}

// Reset releases every allocation, returning the pool to its initial
// empty state without reallocating the backing buffer - used when a
// keep-alive connection reinitializes for its next request.
func (p *Pool) Reset() {
	p.headUsed = 0
	p.tailUsed = 0
	p.hasLastHead = false
}

// ResetToWatermark releases head allocations back down to headMark,
// used by keep-alive reinitialization that wants to retain a previously
// carved buffer instead of discarding it (see §3 "Lifecycles").
func (p *Pool) ResetToWatermark(headMark uint32) {
	if headMark > p.headUsed {
		return
	}
	p.headUsed = headMark
	p.hasLastHead = false
}

// HeadWatermark returns the current head cursor, for callers that want
// to record a watermark via ResetToWatermark later.
func (p *Pool) HeadWatermark() uint32 {
	return p.headUsed
}
