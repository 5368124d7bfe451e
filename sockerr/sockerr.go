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

// Package sockerr maps OS-level socket errors onto the abstract taxonomy
// the connection I/O and readiness backends dispatch on, so the rest of
// the engine never inspects a syscall.Errno directly.
package sockerr

import (
	"errors"
	"io"
	"net"
	"syscall"
)

// SockErr is the abstract classification of a socket-layer failure.
type SockErr uint8

const (
	// Again is a recoverable EAGAIN/EWOULDBLOCK: retry after the next
	// readiness notification.
	Again SockErr = iota
	// Intr is a recoverable EINTR: retry immediately.
	Intr
	// ConnReset is ECONNRESET: the peer tore down the connection.
	ConnReset
	// Pipe is EPIPE: write to a connection the peer already closed.
	Pipe
	// NotConn is ENOTCONN: socket is not connected.
	NotConn
	// ConnBroken covers ECONNABORTED/ETIMEDOUT and similar: the
	// connection is dead but not from an explicit reset.
	ConnBroken
	// NoMem is ENOBUFS/ENOMEM: kernel resource exhaustion.
	NoMem
	// BadFd is EBADF: programming error, the fd is no longer valid.
	BadFd
	// Inval is EINVAL: programming error, bad argument to a syscall.
	Inval
	// OpNotSupp is EOPNOTSUPP: the operation is not supported on this
	// socket (e.g. cork toggling on a transport that forbids it).
	OpNotSupp
	// NotSocket is ENOTSOCK: the fd is not a socket.
	NotSocket
	// Closed signals a clean remote half-close (recv returned 0).
	Closed
	// Other is any error that does not map to a known errno.
	Other
)

func (s SockErr) String() string {
	switch s {
	case Again:
		return "again"
	case Intr:
		return "interrupted"
	case ConnReset:
		return "connection-reset"
	case Pipe:
		return "broken-pipe"
	case NotConn:
		return "not-connected"
	case ConnBroken:
		return "connection-broken"
	case NoMem:
		return "no-memory"
	case BadFd:
		return "bad-descriptor"
	case Inval:
		return "invalid-argument"
	case OpNotSupp:
		return "op-not-supported"
	case NotSocket:
		return "not-a-socket"
	case Closed:
		return "closed"
	default:
		return "other"
	}
}

// Recoverable reports whether the classified error simply means "try
// again", as opposed to a terminal condition for the connection.
func (s SockErr) Recoverable() bool {
	return s == Again || s == Intr
}

// Fatal reports whether the classified error is a programming/resource
// error the daemon should surface rather than silently close the
// connection over.
func (s SockErr) Fatal() bool {
	switch s {
	case BadFd, Inval, NotSocket, NoMem:
		return true
	default:
		return false
	}
}

// Classify maps err onto the abstract SockErr taxonomy. A nil err (a
// successful zero-byte recv) and io.EOF both classify as Closed.
func Classify(err error) SockErr {
	if err == nil || errors.Is(err, io.EOF) {
		return Closed
	}

	var errno syscall.Errno
	if errors.As(err, &errno) {
		return classifyErrno(errno)
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Err != nil {
		return Classify(opErr.Err)
	}

	return Other
}

func classifyErrno(errno syscall.Errno) SockErr {
	switch errno {
	case syscall.EAGAIN:
		// EWOULDBLOCK is the same value as EAGAIN on every platform
		// gomhd targets.
		return Again
	case syscall.EINTR:
		return Intr
	case syscall.ECONNRESET:
		return ConnReset
	case syscall.EPIPE:
		return Pipe
	case syscall.ENOTCONN:
		return NotConn
	case syscall.ECONNABORTED, syscall.ETIMEDOUT, syscall.ESHUTDOWN:
		return ConnBroken
	case syscall.ENOMEM, syscall.ENOBUFS:
		return NoMem
	case syscall.EBADF:
		return BadFd
	case syscall.EINVAL:
		return Inval
	case syscall.EOPNOTSUPP:
		return OpNotSupp
	case syscall.ENOTSOCK:
		return NotSocket
	default:
		return Other
	}
}
