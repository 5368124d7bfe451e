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

// Package external implements the application-driven readiness backend:
// the application is the event loop (its own epoll/kqueue/IOCP/whatever)
// and feeds per-fd readiness into this backend through Feed, after the
// daemon has asked it through a RegisterFunc callback to watch each
// descriptor; the daemon's worker loop collects what was fed on each
// WaitAndUpdate call rather than blocking in a wait syscall itself.
package external

import (
	"time"

	"github.com/nabbar/gomhd/backend"
	"github.com/nabbar/gomhd/ready"
	"github.com/nabbar/gomhd/types"
)

// RegisterFunc is how the daemon asks the application to watch (or stop
// watching) a descriptor; the application calls Feed to report
// readiness whenever its own event loop observes it.
type RegisterFunc func(fd int, wait ready.WaitFlags, register bool) error

// Backend implements backend.Backend by accumulating Feed reports
// between WaitAndUpdate calls instead of performing an OS wait itself;
// WaitAndUpdate returns immediately with whatever was fed since the
// last call, ignoring timeout entirely (the application's loop owns
// timing, see §5 "External events").
type Backend struct {
	register RegisterFunc

	fdOf map[types.Handle]int
	kind map[int]backend.TargetKind
	hOf  map[int]types.Handle

	pending map[types.Handle]ready.SockBits
	itcFd   int
	itcFired    bool
	listenFd    int
	acceptPend  bool
	listenBroken bool
}

func New(register RegisterFunc) *Backend {
	return &Backend{
		register: register,
		fdOf:     make(map[types.Handle]int),
		kind:     make(map[int]backend.TargetKind),
		hOf:      make(map[int]types.Handle),
		pending:  make(map[types.Handle]ready.SockBits),
		itcFd:    -1,
		listenFd: -1,
	}
}

func (b *Backend) Register(t backend.Target) error {
	b.kind[t.Fd] = t.Kind

	switch t.Kind {
	case backend.KindITC:
		b.itcFd = t.Fd
	case backend.KindListen:
		b.listenFd = t.Fd
	default:
		b.fdOf[t.Handle] = t.Fd
		b.hOf[t.Fd] = t.Handle
	}

	if b.register != nil {
		return b.register(t.Fd, t.Wait, true)
	}
	return nil
}

func (b *Backend) Unregister(h types.Handle) error {
	fd, ok := b.fdOf[h]
	if !ok {
		return nil
	}
	delete(b.fdOf, h)
	delete(b.hOf, fd)
	delete(b.kind, fd)
	delete(b.pending, h)

	if b.register != nil {
		return b.register(fd, 0, false)
	}
	return nil
}

func (b *Backend) UpdateWait(h types.Handle, wait ready.WaitFlags) error {
	fd, ok := b.fdOf[h]
	if !ok || b.register == nil {
		return nil
	}
	return b.register(fd, wait, true)
}

// Feed reports observed readiness for fd, to be called by the
// application from its own event loop. Feed takes no handle: it tells
// the ITC and listen fds apart from connection fds by the fd alone.
func (b *Backend) Feed(fd int, bits ready.SockBits) {
	switch fd {
	case b.itcFd:
		b.itcFired = true
		return
	case b.listenFd:
		if bits&ready.SockErrReady != 0 {
			b.listenBroken = true
		} else if bits&ready.SockRecvReady != 0 {
			b.acceptPend = true
		}
		return
	}

	if h, ok := b.hOf[fd]; ok {
		b.pending[h] |= bits
	}
}

// WaitAndUpdate drains whatever was fed since the previous call; it
// never blocks, since the application's own loop is what waits.
func (b *Backend) WaitAndUpdate(_ time.Duration) (backend.Result, error) {
	res := backend.Result{
		Bits:          b.pending,
		AcceptPending: b.acceptPend,
		ITCFired:      b.itcFired,
		ListenBroken:  b.listenBroken,
	}

	b.pending = make(map[types.Handle]ready.SockBits)
	b.acceptPend = false
	b.itcFired = false
	b.listenBroken = false

	return res, nil
}

func (b *Backend) Close() error {
	return nil
}
