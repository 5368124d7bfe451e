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

import (
	"time"

	"github.com/nabbar/gomhd/types"
)

// TimeoutList tracks per-connection (lastActivity, idleTimeout) pairs to
// answer the daemon's "next wait-max" question (§4.10): zero if any
// connection is already process-ready or an accept is pending, else the
// smallest remaining idle timeout across every tracked connection.
type TimeoutList struct {
	entries map[types.Handle]timeoutEntry
}

type timeoutEntry struct {
	lastActivity time.Time
	idle         time.Duration
}

func NewTimeoutList() *TimeoutList {
	return &TimeoutList{entries: make(map[types.Handle]timeoutEntry)}
}

// Touch records activity on h now, with idle as its configured timeout
// (zero meaning no timeout).
func (t *TimeoutList) Touch(h types.Handle, now time.Time, idle time.Duration) {
	t.entries[h] = timeoutEntry{lastActivity: now, idle: idle}
}

func (t *TimeoutList) Remove(h types.Handle) {
	delete(t.entries, h)
}

// Expired returns every handle whose idle timeout has elapsed as of now.
func (t *TimeoutList) Expired(now time.Time) []types.Handle {
	var out []types.Handle
	for h, e := range t.entries {
		if e.idle <= 0 {
			continue
		}
		if now.Sub(e.lastActivity) >= e.idle {
			out = append(out, h)
		}
	}
	return out
}

// NextWaitMax computes the daemon's next readiness-wait timeout: zero
// when anyProcessReady or acceptPending (don't block at all, there is
// work now), else the smallest remaining time-to-expiry across tracked
// connections, or indefinite (ok=false) if nothing has a timeout.
func (t *TimeoutList) NextWaitMax(now time.Time, anyProcessReady, acceptPending bool) (d time.Duration, ok bool) {
	if anyProcessReady || acceptPending {
		return 0, true
	}

	ok = false
	for _, e := range t.entries {
		if e.idle <= 0 {
			continue
		}
		remaining := e.idle - now.Sub(e.lastActivity)
		if remaining < 0 {
			remaining = 0
		}
		if !ok || remaining < d {
			d = remaining
			ok = true
		}
	}
	return d, ok
}
