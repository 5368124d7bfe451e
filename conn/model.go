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

// Package conn models the per-client Connection (§3 "Connection"): the
// socket, its memory pool, read/write buffers carved from that pool,
// and the bookkeeping (timeouts, flags, reuse mode, FSM state) the
// worker loop and the request/response packages drive.
package conn

import (
	"time"

	uuid "github.com/hashicorp/go-uuid"

	"github.com/nabbar/gomhd/certtls"
	"github.com/nabbar/gomhd/pool"
	"github.com/nabbar/gomhd/ready"
	"github.com/nabbar/gomhd/sockerr"
	"github.com/nabbar/gomhd/types"
)

// Buffer is a pool-carved region: ptr/size is the allocation, offset is
// how much of it has been consumed (read buffer) or appended (write
// buffer). Because each is the pool's trailing allocation, Grow can
// resize it in place (§4.6).
type Buffer struct {
	Ptr    pool.Ptr
	Size   uint32
	Offset uint32 // bytes consumed (read) or bytes sent (write)
	Append uint32 // bytes filled so far (read: valid data end; write: queued data end)
}

// Connection is one accepted client.
type Connection struct {
	Handle types.Handle

	// TraceID identifies this connection across log lines and
	// NotifyConn callbacks with a value an operator can grep for, as
	// opposed to Handle, which is only unique within one daemon's
	// lifetime (§3 "Connection").
	TraceID string

	Transport certtls.SecureTransport
	Fd        int

	Pool *pool.Pool
	Read Buffer
	Write Buffer

	Request any // *request.Request; opaque to avoid an import cycle
	Reply   any // *response.Reply

	LastActivity time.Time
	IdleTimeout  time.Duration

	Wait     ready.WaitFlags
	SockBits ready.SockBits

	SockErr sockerr.SockErr

	State       types.ConnState
	CloseReason types.CloseReason
	Reuse       types.ReuseMode

	Suspended      bool
	Resuming       bool
	RmtShutWr      bool
	StopWithError  bool
	DiscardRequest bool
	AppAware       bool

	Nonblocking SockTriState
	Corked      SockTriState
	NoDelay     SockTriState
}

// SockTriState mirrors a socket attribute that may be unknown,
// deliberately set, or deliberately unset - some transports refuse to
// report or change it (§4.5's cork note).
type SockTriState uint8

const (
	TriUnknown SockTriState = iota
	TriOn
	TriOff
)

// New wires a freshly-accepted transport into a Connection with a fresh
// pool of poolSize bytes; the caller assigns Handle once it has inserted
// the connection into the daemon's "all" list.
func New(transport certtls.SecureTransport, fd int, poolSize uint32, idleTimeout time.Duration) *Connection {
	id, _ := uuid.GenerateUUID()
	return &Connection{
		TraceID:      id,
		Transport:    transport,
		Fd:           fd,
		Pool:         pool.New(poolSize),
		IdleTimeout:  idleTimeout,
		LastActivity: time.Now(),
		Wait:         ready.WaitRecv,
	}
}

// Touch records I/O activity now, used by every successful recv/send.
func (c *Connection) Touch() {
	c.LastActivity = time.Now()
}
