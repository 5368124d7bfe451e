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

//go:build linux

// Package epoll implements the epoll(7)-based readiness backend,
// level-triggered, with a tagged entry (ITC marker / listen marker /
// connection handle) carried per registration instead of a raw pointer
// (§4.2, §9).
package epoll

import (
	"errors"
	"time"

	"golang.org/x/sys/unix"

	"github.com/nabbar/gomhd/backend"
	"github.com/nabbar/gomhd/ready"
	"github.com/nabbar/gomhd/types"
)

var errITCBroken = errors.New("epoll: itc descriptor broken")

type tag struct {
	kind backend.TargetKind
	h    types.Handle
	fd   int
}

// Backend implements backend.Backend over epoll_create1/epoll_ctl/epoll_wait.
type Backend struct {
	epfd int
	tags map[int]*tag // by fd

	listenFd      int
	listenBlocked bool
}

func New() (*Backend, error) {
	fd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, err
	}
	return &Backend{epfd: fd, tags: make(map[int]*tag), listenFd: -1}, nil
}

func eventsFor(kind backend.TargetKind, wait ready.WaitFlags) uint32 {
	switch kind {
	case backend.KindITC, backend.KindListen:
		return unix.EPOLLIN
	default:
		var ev uint32
		if wait&ready.WaitRecv != 0 {
			ev |= unix.EPOLLIN
		}
		if wait&ready.WaitSend != 0 {
			ev |= unix.EPOLLOUT
		}
		return ev
	}
}

func (b *Backend) Register(t backend.Target) error {
	tg := &tag{kind: t.Kind, h: t.Handle, fd: t.Fd}
	b.tags[t.Fd] = tg

	if t.Kind == backend.KindListen {
		b.listenFd = t.Fd
	}

	ev := unix.EpollEvent{Events: eventsFor(t.Kind, t.Wait), Fd: int32(t.Fd)}
	return unix.EpollCtl(b.epfd, unix.EPOLL_CTL_ADD, t.Fd, &ev)
}

func (b *Backend) Unregister(h types.Handle) error {
	for fd, tg := range b.tags {
		if tg.h == h && tg.kind == backend.KindConnection {
			_ = unix.EpollCtl(b.epfd, unix.EPOLL_CTL_DEL, fd, nil)
			delete(b.tags, fd)
			return nil
		}
	}
	return nil
}

func (b *Backend) UpdateWait(h types.Handle, wait ready.WaitFlags) error {
	for fd, tg := range b.tags {
		if tg.h == h && tg.kind == backend.KindConnection {
			ev := unix.EpollEvent{Events: eventsFor(backend.KindConnection, wait), Fd: int32(fd)}
			return unix.EpollCtl(b.epfd, unix.EPOLL_CTL_MOD, fd, &ev)
		}
	}
	return nil
}

func (b *Backend) SetAcceptBlocked(blocked bool) error {
	b.listenBlocked = blocked
	if b.listenFd < 0 {
		return nil
	}

	events := uint32(unix.EPOLLIN)
	if blocked {
		events = 0
	}
	ev := unix.EpollEvent{Events: events, Fd: int32(b.listenFd)}
	return unix.EpollCtl(b.epfd, unix.EPOLL_CTL_MOD, b.listenFd, &ev)
}

func (b *Backend) WaitAndUpdate(timeout time.Duration) (backend.Result, error) {
	ms := -1
	if timeout >= 0 {
		ms = int(timeout / time.Millisecond)
	}

	events := make([]unix.EpollEvent, 128)
	res := backend.Result{Bits: make(map[types.Handle]ready.SockBits)}

	n, err := unix.EpollWait(b.epfd, events, ms)
	if err != nil {
		if err == unix.EINTR {
			return res, nil
		}
		return res, err
	}

	for i := 0; i < n; i++ {
		e := events[i]
		tg, ok := b.tags[int(e.Fd)]
		if !ok {
			continue
		}

		switch tg.kind {
		case backend.KindITC:
			if e.Events&(unix.EPOLLERR|unix.EPOLLHUP) != 0 {
				return res, errITCBroken
			}
			res.ITCFired = true
		case backend.KindListen:
			if e.Events&unix.EPOLLERR != 0 {
				res.ListenBroken = true
				continue
			}
			if e.Events&unix.EPOLLIN != 0 {
				res.AcceptPending = true
			}
		default:
			var bits ready.SockBits
			if e.Events&unix.EPOLLIN != 0 {
				bits |= ready.SockRecvReady
			}
			if e.Events&unix.EPOLLOUT != 0 {
				bits |= ready.SockSendReady
			}
			if e.Events&(unix.EPOLLHUP|unix.EPOLLERR) != 0 {
				// §4.2: EPOLLHUP|EPOLLERR implies both directions so the
				// next I/O call surfaces the real error.
				bits |= ready.SockRecvReady | ready.SockSendReady
			}
			res.Bits[tg.h] = bits
		}
	}

	return res, nil
}

func (b *Backend) Close() error {
	return unix.Close(b.epfd)
}
