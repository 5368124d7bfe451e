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

package ready

import "github.com/nabbar/gomhd/types"

// WaitFlags is the set of I/O directions a connection is currently
// waiting on, requested to the readiness backend.
type WaitFlags uint8

const (
	WaitRecv WaitFlags = 1 << iota
	WaitSend
)

// SockBits is what the readiness backend observed for one connection
// after a wait returns.
type SockBits uint8

const (
	SockRecvReady SockBits = 1 << iota
	SockSendReady
	SockErrReady
)

// ProcessReady is the daemon's single "process_ready" list plus the
// in_proc_ready bit it mirrors via Contains, per the invariant in §4.3:
// a connection is in the list iff its bit is set - here, iff Contains
// reports true, so there is no separate bit to get out of sync.
type ProcessReady struct {
	*List
}

func NewProcessReady() *ProcessReady {
	return &ProcessReady{List: NewList()}
}

// MarkReady inserts h at the tail iff not already present.
func (p *ProcessReady) MarkReady(h types.Handle) {
	p.PushBack(h)
}

// MarkUnready removes h.
func (p *ProcessReady) MarkUnready(h types.Handle) {
	p.Remove(h)
}

// Update implements §4.3's update(c, force_ready): marks h ready iff
// forceReady, or the observed bits intersect the requested wait flags,
// or hasBufferedReadBytes (TLS record buffering may hold a full next
// request the kernel socket itself no longer reports as readable).
func (p *ProcessReady) Update(h types.Handle, observed SockBits, wait WaitFlags, forceReady, hasBufferedReadBytes bool) {
	ready := forceReady || hasBufferedReadBytes

	if !ready {
		if observed&SockRecvReady != 0 && wait&WaitRecv != 0 {
			ready = true
		}
		if observed&SockSendReady != 0 && wait&WaitSend != 0 {
			ready = true
		}
	}

	if ready {
		p.MarkReady(h)
	} else {
		p.MarkUnready(h)
	}
}
