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

// Package runner gives the daemon's worker loop a Start/Stop/Restart
// lifecycle plus a blocking WaitNotify, independent of how the loop
// itself is implemented.
package runner

import (
	"context"
	"time"

	liblog "github.com/nabbar/gomhd/logger"
)

// Loop is the function the runner drives: it must block until ctx is
// done or the loop decides to return on its own (a fatal error), and
// must return promptly once ctx is cancelled.
type Loop func(ctx context.Context) error

// Runner is the lifecycle contract a daemon exposes around its worker
// loop.
type Runner interface {
	// Start launches the loop in its own goroutine and returns
	// immediately; it is an error to Start an already-running Runner.
	Start(ctx context.Context) error
	// Stop cancels the running loop and blocks until it returns or ctx
	// expires.
	Stop(ctx context.Context) error
	Restart(ctx context.Context) error
	IsRunning() bool
	Uptime() time.Duration
	GetError() error

	// WaitNotify blocks until SIGINT/SIGTERM/SIGQUIT, ctx is done, the
	// context the runner was started with ends, or StopWaitNotify is
	// called; in every case but the last it then stops the runner if
	// still running.
	WaitNotify(ctx context.Context)
	StopWaitNotify()
}

// New returns a Runner driving loop, logging through log (which may be
// nil, falling back to a fresh default logger).
func New(loop Loop, log liblog.FuncLog) Runner {
	return &runner{loop: loop, log: log}
}
