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
	"time"

	"github.com/nabbar/gomhd/ready"
	"github.com/nabbar/gomhd/types"
)

// Suspend marks the connection so the worker loop stops polling it for
// readiness - used while an application callback holds the request
// (e.g. a long-running upload handler) and will call Resume later
// (§4.10).
func (c *Connection) Suspend() {
	c.Suspended = true
}

// Resume requests that the next worker-loop turn clear Suspended, touch
// activity, and mark the connection ready again. It does not itself
// clear Suspended - that happens in ApplyResume, which the worker loop
// calls once per turn across all connections, matching the design note
// that resume is observed, not immediate (§4.10).
func (c *Connection) Resume() {
	c.Resuming = true
}

// ApplyResume is called by the worker loop once per turn for every
// connection; it returns true if the connection was resumed this turn,
// in which case the caller should push it onto the ready list.
func (c *Connection) ApplyResume() bool {
	if !c.Resuming {
		return false
	}
	c.Resuming = false
	c.Suspended = false
	c.Touch()
	return true
}

// IsExpired reports whether the connection has been idle longer than
// its configured timeout; a zero IdleTimeout means no timeout applies.
func (c *Connection) IsExpired(now time.Time) bool {
	if c.IdleTimeout <= 0 {
		return false
	}
	return now.Sub(c.LastActivity) >= c.IdleTimeout
}

// UnregisterFunc removes a connection's descriptor from whichever
// readiness backend is in use; PreClose calls it so the backend never
// sees a stale handle after close.
type UnregisterFunc func(h types.Handle) error

// UpgradeCleanup is run during PreClose for a connection that left the
// HTTP state machine via an upgrade (WebSocket, CONNECT tunnel, ...):
// the daemon no longer owns the transport once this returns.
type UpgradeCleanup func(c *Connection)

// PreClose performs the non-destructive half of connection teardown
// (§4.11): remove the connection from the ready list, unregister its
// descriptor, and either drop the read/write buffer bookkeeping (the
// bytes go with the pool at FinalClose) or - if the connection was
// handed off via upgrade - run the upgrade cleanup hook instead. The transport itself is not closed here;
// FinalClose does that once every other bookkeeping pass has observed
// the Closed state.
func (c *Connection) PreClose(reason types.CloseReason, list *ready.List, unregister UnregisterFunc, upgradeCleanup UpgradeCleanup) {
	if c.State == types.Closed {
		return
	}

	c.CloseReason = reason
	c.State = types.Closed

	if list != nil {
		list.Remove(c.Handle)
	}
	if unregister != nil {
		_ = unregister(c.Handle)
	}

	if reason == types.CloseUpgradeHandedOff {
		if upgradeCleanup != nil {
			upgradeCleanup(c)
		}
		return
	}

	c.releaseBuffers()
}

// releaseBuffers drops the read/write buffer bookkeeping back to
// nothing; the bytes themselves are reclaimed when the pool is reset at
// FinalClose (a connection's pool is not shared, so there is nothing
// else to preserve).
func (c *Connection) releaseBuffers() {
	c.Read = Buffer{}
	c.Write = Buffer{}
}

// FinalClose is the destructive half of teardown: close the transport
// and drop the pool. The caller is responsible for removing the
// connection from the daemon's "all" collection after this returns.
func (c *Connection) FinalClose() error {
	var err error
	if c.Transport != nil {
		err = c.Transport.Close()
	}
	c.Pool = nil
	return err
}
