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

//go:build !linux

package itc

import (
	"sync"
	"sync/atomic"

	"golang.org/x/sys/unix"
)

// pipeSignal is the portable ITC fallback: a self-pipe, non-blocking on
// both ends, coalesced by a pending flag so repeated Activate calls
// before the next Clear only ever leave one byte to drain.
type pipeSignal struct {
	mu      sync.Mutex
	r, w    int
	pending atomic.Bool
}

func New() (Signal, error) {
	fds := make([]int, 2)
	if err := unix.Pipe2(fds, unix.O_NONBLOCK|unix.O_CLOEXEC); err != nil {
		return nil, err
	}
	return &pipeSignal{r: fds[0], w: fds[1]}, nil
}

func (s *pipeSignal) Fd() int {
	return s.r
}

func (s *pipeSignal) Activate() error {
	if !s.pending.CompareAndSwap(false, true) {
		return nil
	}
	_, err := unix.Write(s.w, []byte{1})
	if err == unix.EAGAIN {
		return nil
	}
	return err
}

func (s *pipeSignal) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	buf := make([]byte, 64)
	for {
		_, err := unix.Read(s.r, buf)
		if err == unix.EAGAIN {
			break
		}
		if err != nil {
			s.pending.Store(false)
			return err
		}
	}
	s.pending.Store(false)
	return nil
}

func (s *pipeSignal) Close() error {
	_ = unix.Close(s.w)
	return unix.Close(s.r)
}
