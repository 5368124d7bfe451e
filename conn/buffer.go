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

package conn

// MinGrowIncrement is the floored minimum grow step (§4.6): 1.5 KiB.
const MinGrowIncrement = 1536

// EnsureReadBuffer allocates the read buffer on first need (half the
// pool's free space) or grows it per §4.6: one-eighth of remaining free
// space, floored at MinGrowIncrement unless that would leave the pool
// too tight, in which case a smaller mandatory increment is used
// instead. Growth only succeeds if the buffer is still the pool's last
// head allocation; otherwise it fails and the caller must apply the
// out-of-buffer status selection (§4.8).
func (c *Connection) EnsureReadBuffer() bool {
	if c.Read.Size == 0 {
		free := c.Pool.GetFree()
		if free == 0 {
			return false
		}
		want := free / 2
		if want == 0 {
			want = free
		}
		ptr, ok := c.Pool.Allocate(want, false)
		if !ok {
			return false
		}
		c.Read.Ptr = ptr
		c.Read.Size = want
		return true
	}

	return c.growReadBuffer()
}

func (c *Connection) growReadBuffer() bool {
	if !c.Pool.IsResizableInPlace(c.Read.Ptr, c.Read.Size) {
		return false
	}

	free := c.Pool.GetFree()
	if free == 0 {
		return false
	}

	inc := free / 8
	if inc < MinGrowIncrement {
		if free/2 < MinGrowIncrement {
			// pool too tight for the full floor: take half of what's
			// left instead of failing outright.
			inc = free / 2
			if inc == 0 {
				return false
			}
		} else {
			inc = MinGrowIncrement
		}
	}

	newSize := c.Read.Size + inc
	ptr, ok := c.Pool.Reallocate(c.Read.Ptr, c.Read.Size, newSize)
	if !ok {
		return false
	}
	c.Read.Ptr = ptr
	c.Read.Size = newSize
	return true
}

// CompactReadBuffer shifts unconsumed bytes (Offset..Append) to the
// front of the buffer and releases the freed tail back to the pool,
// making the rest of the pool available again - used once headers are
// fully received and the read-ahead is small (§4.6).
func (c *Connection) CompactReadBuffer() {
	if c.Read.Offset == 0 || c.Read.Size == 0 {
		return
	}

	buf := c.Pool.Slice(c.Read.Ptr, c.Read.Size)
	remaining := c.Read.Append - c.Read.Offset
	copy(buf[:remaining], buf[c.Read.Offset:c.Read.Append])

	c.Read.Append = remaining
	c.Read.Offset = 0
}

// EnsureWriteBuffer makes the write buffer at least minSize bytes. On
// first use it is a head allocation of exactly minSize, placed after
// whatever the pool already holds (normally the read buffer); after that
// it is grown in place to exactly minSize, which only succeeds while it
// is still resizable in place.
func (c *Connection) EnsureWriteBuffer(minSize uint32) bool {
	if c.Write.Size >= minSize {
		return true
	}

	if c.Write.Size == 0 {
		ptr, ok := c.Pool.Allocate(minSize, false)
		if !ok {
			return false
		}
		c.Write.Ptr = ptr
		c.Write.Size = minSize
		return true
	}

	if !c.Pool.IsResizableInPlace(c.Write.Ptr, c.Write.Size) {
		return false
	}

	ptr, ok := c.Pool.Reallocate(c.Write.Ptr, c.Write.Size, minSize)
	if !ok {
		return false
	}
	c.Write.Ptr = ptr
	c.Write.Size = minSize
	return true
}

// MaxUsefulReadSize bounds the read buffer's useful size during body
// processing: remaining declared content length for fixed-length
// bodies, or the current chunk size plus its 2-byte CRLF terminator for
// chunked bodies (§4.6).
func MaxUsefulReadSize(remainingContentLength uint64, inChunked bool, currentChunkRemaining uint64) uint32 {
	if inChunked {
		v := currentChunkRemaining + 2
		if v > 1<<32-1 {
			return 1<<32 - 1
		}
		return uint32(v)
	}
	if remainingContentLength > 1<<32-1 {
		return 1<<32 - 1
	}
	return uint32(remainingContentLength)
}
