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

// Package itc is the inter-thread wakeup primitive: a one-shot-readable
// signal any goroutine can activate, and only the worker that owns it
// clears, so a blocked readiness wait (poll/select/epoll) returns
// promptly when the application calls Resume or Stop from elsewhere.
package itc

// Signal is a level-triggered wakeup: once Activate is called, Fd stays
// readable until Clear is called, however many times Activate fired in
// between (coalesced, like an eventfd in semaphore-less mode).
type Signal interface {
	// Fd is the descriptor to register with the readiness backend.
	Fd() int
	// Activate marks the signal readable; safe to call from any
	// goroutine, any number of times.
	Activate() error
	// Clear consumes the pending wakeup; must only be called by the
	// worker goroutine that owns the readiness wait.
	Clear() error
	Close() error
}
