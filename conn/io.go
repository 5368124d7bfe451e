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

import (
	"io"

	"github.com/nabbar/gomhd/sockerr"
)

// RecvResult is what one non-blocking recv attempt produced.
type RecvResult struct {
	N         uint32
	ShutWr    bool // peer performed an orderly half-close (recv returned 0)
	Err       sockerr.SockErr
	HasErr    bool
}

// Recv reads directly into Read[Append..Size), the same discipline as
// §4.5: a zero-byte success sets RmtShutWr; an error is classified and,
// if it isn't simply "try again", stored for the caller to raise
// err-ready.
func (c *Connection) Recv() RecvResult {
	if c.Read.Append >= c.Read.Size {
		return RecvResult{}
	}

	buf := c.Pool.Slice(c.Read.Ptr, c.Read.Size)[c.Read.Append:c.Read.Size]

	n, err := c.Transport.Read(buf)
	if n > 0 {
		c.Read.Append += uint32(n)
		c.Touch()
	}

	if err != nil {
		if err == io.EOF {
			c.RmtShutWr = true
			return RecvResult{N: uint32(n), ShutWr: true}
		}

		se := sockerr.Classify(err)
		if se.Recoverable() {
			return RecvResult{N: uint32(n), Err: se}
		}

		c.SockErr = se
		return RecvResult{N: uint32(n), Err: se, HasErr: true}
	}

	if n == 0 {
		c.RmtShutWr = true
		return RecvResult{ShutWr: true}
	}

	return RecvResult{N: uint32(n)}
}

// SendResult is what one non-blocking send attempt produced.
type SendResult struct {
	N      uint32
	Err    sockerr.SockErr
	HasErr bool
}

// Send writes Write[Offset..Append) from the write buffer. push hints
// that the transport should flush/uncork after this write (e.g. end of
// a response); transports that refuse cork changes mid-stream simply
// ignore the hint (§4.5 - advisory only).
func (c *Connection) Send(push bool) SendResult {
	if c.Write.Offset >= c.Write.Append {
		return SendResult{}
	}

	buf := c.Pool.Slice(c.Write.Ptr, c.Write.Size)[c.Write.Offset:c.Write.Append]

	n, err := c.Transport.Write(buf)
	if n > 0 {
		c.Write.Offset += uint32(n)
		c.Touch()
	}

	if err != nil {
		se := sockerr.Classify(err)
		if se.Recoverable() {
			return SendResult{N: uint32(n), Err: se}
		}
		if se == sockerr.OpNotSupp && push {
			// advisory cork/push toggle rejected by the transport;
			// treat it as a successful plain write instead of an error.
			return SendResult{N: uint32(n)}
		}
		c.SockErr = se
		return SendResult{N: uint32(n), Err: se, HasErr: true}
	}

	return SendResult{N: uint32(n)}
}

// ResetWriteWindow rewinds the write buffer for a fresh response,
// without releasing the underlying pool allocation (still the pool's
// trailing block, reused by Reallocate as needed).
func (c *Connection) ResetWriteWindow() {
	c.Write.Offset = 0
	c.Write.Append = 0
}

// AppendWrite copies data into the write buffer at Append, growing it
// first via EnsureWriteBuffer if needed. Returns false if there was not
// enough room and growth failed.
func (c *Connection) AppendWrite(data []byte) bool {
	needed := c.Write.Append + uint32(len(data))
	if needed > c.Write.Size {
		if !c.EnsureWriteBuffer(needed) {
			return false
		}
	}
	buf := c.Pool.Slice(c.Write.Ptr, c.Write.Size)
	copy(buf[c.Write.Append:needed], data)
	c.Write.Append = needed
	return true
}
