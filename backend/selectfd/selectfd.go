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

// Package selectfd implements the select(2)-based readiness backend:
// the same three-bit semantics as pollfd, built on separate read/write/
// except fd sets instead of a single PollFd array. select's fixed set
// size means the daemon must cap the connection limit at config time to
// whatever FD_SETSIZE allows on this platform - see MaxFD.
package selectfd

import (
	"errors"
	"time"

	"golang.org/x/sys/unix"

	"github.com/nabbar/gomhd/backend"
	"github.com/nabbar/gomhd/ready"
	"github.com/nabbar/gomhd/types"
)

// MaxFD is the largest fd value select can watch on this build - FD_SETSIZE.
const MaxFD = unix.FD_SETSIZE

var errFDTooLarge = errors.New("selectfd: descriptor exceeds FD_SETSIZE")

type entry struct {
	kind backend.TargetKind
	fd   int
	wait ready.WaitFlags
}

// Backend implements backend.Backend over unix.Select.
type Backend struct {
	entries map[types.Handle]*entry
	listen  *entry
	itc     *entry

	listenBlocked bool
}

func New() *Backend {
	return &Backend{entries: make(map[types.Handle]*entry)}
}

func (b *Backend) Register(t backend.Target) error {
	if t.Fd >= MaxFD {
		return errFDTooLarge
	}

	e := &entry{kind: t.Kind, fd: t.Fd, wait: t.Wait}
	switch t.Kind {
	case backend.KindITC:
		b.itc = e
	case backend.KindListen:
		b.listen = e
	default:
		b.entries[t.Handle] = e
	}
	return nil
}

func (b *Backend) Unregister(h types.Handle) error {
	delete(b.entries, h)
	return nil
}

func (b *Backend) UpdateWait(h types.Handle, wait ready.WaitFlags) error {
	if e, ok := b.entries[h]; ok {
		e.wait = wait
	}
	return nil
}

func (b *Backend) SetAcceptBlocked(blocked bool) {
	b.listenBlocked = blocked
}

func (b *Backend) WaitAndUpdate(timeout time.Duration) (backend.Result, error) {
	var rfds, wfds, efds unix.FdSet
	maxFd := 0

	add := func(set *unix.FdSet, fd int) {
		set.Bits[fd/64] |= 1 << (uint(fd) % 64)
		if fd > maxFd {
			maxFd = fd
		}
	}

	if b.itc != nil {
		add(&rfds, b.itc.fd)
		add(&efds, b.itc.fd)
	}
	if b.listen != nil && !b.listenBlocked {
		add(&rfds, b.listen.fd)
		add(&efds, b.listen.fd)
	}
	for _, e := range b.entries {
		if e.wait&ready.WaitRecv != 0 {
			add(&rfds, e.fd)
		}
		if e.wait&ready.WaitSend != 0 {
			add(&wfds, e.fd)
		}
		add(&efds, e.fd)
	}

	var tv *unix.Timeval
	if timeout >= 0 {
		t := unix.NsecToTimeval(timeout.Nanoseconds())
		tv = &t
	}

	res := backend.Result{Bits: make(map[types.Handle]ready.SockBits)}

	n, err := unix.Select(maxFd+1, &rfds, &wfds, &efds, tv)
	if err != nil {
		if err == unix.EINTR {
			return res, nil
		}
		return res, err
	}
	if n == 0 {
		return res, nil
	}

	isSet := func(set *unix.FdSet, fd int) bool {
		return set.Bits[fd/64]&(1<<(uint(fd)%64)) != 0
	}

	if b.itc != nil {
		if isSet(&efds, b.itc.fd) {
			return res, errITCBroken
		}
		if isSet(&rfds, b.itc.fd) {
			res.ITCFired = true
		}
	}

	if b.listen != nil {
		if isSet(&efds, b.listen.fd) {
			res.ListenBroken = true
		} else if isSet(&rfds, b.listen.fd) {
			res.AcceptPending = true
		}
	}

	for h, e := range b.entries {
		var bits ready.SockBits
		if isSet(&rfds, e.fd) {
			bits |= ready.SockRecvReady
		}
		if isSet(&wfds, e.fd) {
			bits |= ready.SockSendReady
		}
		if isSet(&efds, e.fd) {
			bits |= ready.SockErrReady
		}
		if bits != 0 {
			res.Bits[h] = bits
		}
	}

	return res, nil
}

func (b *Backend) Close() error {
	return nil
}

var errITCBroken = errors.New("selectfd: itc descriptor broken")
