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

// Package pollfd implements the poll(2)-based readiness backend: a
// parallel array of unix.PollFd plus a "relation" array tagging each
// slot as ITC, listen, or a specific connection (§4.2).
package pollfd

import (
	"time"

	"golang.org/x/sys/unix"

	"github.com/nabbar/gomhd/backend"
	"github.com/nabbar/gomhd/ready"
	"github.com/nabbar/gomhd/types"
)

type slot struct {
	kind   backend.TargetKind
	handle types.Handle
}

// Backend implements backend.Backend over unix.Poll.
type Backend struct {
	fds   []unix.PollFd
	rel   []slot
	index map[types.Handle]int

	listenIdx int
	itcIdx    int

	listenBlocked bool
}

func New() *Backend {
	return &Backend{index: make(map[types.Handle]int), listenIdx: -1, itcIdx: -1}
}

func (b *Backend) Register(t backend.Target) error {
	events := int16(0)
	switch t.Kind {
	case backend.KindITC:
		events = unix.POLLIN
	case backend.KindListen:
		events = unix.POLLIN
	default:
		if t.Wait&ready.WaitRecv != 0 {
			events |= unix.POLLIN
		}
		if t.Wait&ready.WaitSend != 0 {
			events |= unix.POLLOUT
		}
	}

	b.fds = append(b.fds, unix.PollFd{Fd: int32(t.Fd), Events: events})
	b.rel = append(b.rel, slot{kind: t.Kind, handle: t.Handle})
	idx := len(b.fds) - 1

	switch t.Kind {
	case backend.KindITC:
		b.itcIdx = idx
	case backend.KindListen:
		b.listenIdx = idx
	default:
		b.index[t.Handle] = idx
	}
	return nil
}

func (b *Backend) Unregister(h types.Handle) error {
	idx, ok := b.index[h]
	if !ok {
		return nil
	}
	b.removeAt(idx)
	return nil
}

func (b *Backend) removeAt(idx int) {
	last := len(b.fds) - 1
	removed := b.rel[idx]
	movedHandle := b.rel[last].handle
	movedKind := b.rel[last].kind

	// clean stale entry for whichever handle occupied idx before the
	// swap, if it was a connection slot
	if removed.kind == backend.KindConnection {
		delete(b.index, removed.handle)
	}

	b.fds[idx] = b.fds[last]
	b.rel[idx] = b.rel[last]
	b.fds = b.fds[:last]
	b.rel = b.rel[:last]

	switch movedKind {
	case backend.KindITC:
		b.itcIdx = idx
	case backend.KindListen:
		b.listenIdx = idx
	default:
		if idx < len(b.fds) {
			b.index[movedHandle] = idx
		}
	}
}

func (b *Backend) UpdateWait(h types.Handle, wait ready.WaitFlags) error {
	idx, ok := b.index[h]
	if !ok {
		return nil
	}
	events := int16(0)
	if wait&ready.WaitRecv != 0 {
		events |= unix.POLLIN
	}
	if wait&ready.WaitSend != 0 {
		events |= unix.POLLOUT
	}
	b.fds[idx].Events = events
	return nil
}

// SetAcceptBlocked controls whether the listen slot requests POLLIN;
// when accepting is paced off (connection limit reached) the daemon
// stops requesting listen readiness entirely rather than busy-polling
// a socket it won't act on.
func (b *Backend) SetAcceptBlocked(blocked bool) {
	b.listenBlocked = blocked
}

func (b *Backend) WaitAndUpdate(timeout time.Duration) (backend.Result, error) {
	if b.listenIdx >= 0 {
		if b.listenBlocked {
			b.fds[b.listenIdx].Events = 0
		} else {
			b.fds[b.listenIdx].Events = unix.POLLIN
		}
	}

	ms := -1
	if timeout >= 0 {
		ms = int(timeout / time.Millisecond)
	}

	res := backend.Result{Bits: make(map[types.Handle]ready.SockBits)}

	n, err := unix.Poll(b.fds, ms)
	if err != nil {
		if err == unix.EINTR {
			return res, nil
		}
		return res, err
	}
	if n == 0 {
		return res, nil
	}

	for i, pfd := range b.fds {
		if pfd.Revents == 0 {
			continue
		}
		s := b.rel[i]

		switch s.kind {
		case backend.KindITC:
			if pfd.Revents&(unix.POLLERR|unix.POLLNVAL) != 0 {
				return res, errITCBroken
			}
			res.ITCFired = true
		case backend.KindListen:
			if pfd.Revents&(unix.POLLERR|unix.POLLNVAL) != 0 {
				res.ListenBroken = true
				continue
			}
			if pfd.Revents&unix.POLLIN != 0 {
				res.AcceptPending = true
			}
		default:
			var bits ready.SockBits
			if pfd.Revents&unix.POLLIN != 0 {
				bits |= ready.SockRecvReady
			}
			if pfd.Revents&unix.POLLOUT != 0 {
				bits |= ready.SockSendReady
			}
			if pfd.Revents&unix.POLLHUP != 0 {
				// POLLHUP may mean remote-SHUT_WR or full close; treat
				// as forced recv-readiness so the next recv surfaces
				// the real condition (§4.2).
				bits |= ready.SockRecvReady
			}
			if pfd.Revents&(unix.POLLERR|unix.POLLNVAL) != 0 {
				bits |= ready.SockErrReady
			}
			// Unrequested priority/band bits would otherwise cause the
			// kernel to keep reporting readiness with nothing for the
			// connection to act on, busy-spinning the worker; treat
			// them as an error instead.
			if pfd.Revents&(unix.POLLPRI) != 0 && pfd.Events&unix.POLLPRI == 0 {
				bits |= ready.SockErrReady
			}
			res.Bits[s.handle] = bits
		}
	}

	return res, nil
}

func (b *Backend) Close() error {
	return nil
}
