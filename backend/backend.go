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

// Package backend defines the readiness-backend contract (§4.2): one of
// {poll, select, epoll, external} turns each connection's wait-flags
// into an OS wait and reports back per-connection recv/send/err bits
// plus a daemon-wide accept_pending flag. Concrete backends live in the
// pollfd, selectfd, epoll and external subpackages; the daemon picks one
// at startup and holds it behind this interface only - "sealed variant"
// in spirit, ordinary Go interface in practice, since Go has no sum
// types.
package backend

import (
	"time"

	"github.com/nabbar/gomhd/ready"
	"github.com/nabbar/gomhd/types"
)

// Target is what the backend needs to register or update a watched fd:
// which connection (by handle) it belongs to, or the sentinel kinds for
// the listener and the ITC wakeup.
type Target struct {
	Handle types.Handle
	Fd     int
	Wait   ready.WaitFlags
	Kind   TargetKind
}

type TargetKind uint8

const (
	KindConnection TargetKind = iota
	KindListen
	KindITC
)

// Result is what one WaitAndUpdate pass produced.
type Result struct {
	// Bits holds the observed readiness per connection handle that had
	// any activity; handles absent from the map had none.
	Bits map[types.Handle]ready.SockBits

	AcceptPending bool
	ITCFired      bool

	// ListenBroken means the listen socket reported an unrecoverable
	// error; the daemon should stop accepting but need not treat this
	// as a fatal error for already-open connections.
	ListenBroken bool
}

// Backend is the single operation every readiness implementation
// exposes: register/unregister the fds it watches, then block for up to
// timeout (zero meaning don't block, negative meaning indefinitely) and
// report what became ready.
type Backend interface {
	Register(t Target) error
	Unregister(h types.Handle) error
	// UpdateWait changes the wait-flags for an already-registered
	// connection (e.g. a queued write starts requesting SEND too).
	UpdateWait(h types.Handle, wait ready.WaitFlags) error

	WaitAndUpdate(timeout time.Duration) (Result, error)

	Close() error
}

// NoTimeout signals an indefinite wait to WaitAndUpdate.
const NoTimeout time.Duration = -1
