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

package gomhd

import (
	liblog "github.com/nabbar/gomhd/logger"
	"github.com/nabbar/gomhd/monitor"
	"github.com/nabbar/gomhd/runner"
	"github.com/nabbar/gomhd/types"
)

// Info provides read-only access to daemon identification.
type Info interface {
	Name() string
	Bindable() string
}

// Daemon is a started or startable gomhd server, embedding the
// lifecycle contract every gomhd package drives through (runner.Runner:
// Start/Stop/Restart/IsRunning/Uptime/GetError/WaitNotify).
type Daemon interface {
	runner.Runner
	Info

	// Handler replaces the request callback; safe to call at any time,
	// takes effect on the next request processed.
	Handler(h FuncHandler)

	// Merge copies src's configuration and handler into this daemon;
	// both daemons must be stopped.
	Merge(src Daemon, log liblog.FuncLog) error

	// GetConfig returns the daemon's current configuration.
	GetConfig() Config

	// SetConfig replaces the configuration; the daemon must be stopped.
	SetConfig(cfg Config, log liblog.FuncLog) error

	// Monitor returns a health snapshot source for this daemon.
	Monitor() monitor.Monitor

	// Quiesce stops accepting new connections while letting
	// already-open ones finish (§6 "daemon_quiesce(d)").
	Quiesce()

	// Resume moves a connection previously returned by the application
	// via types.SuspendAction out of the suspended set (§6
	// "daemon_resume(conn)"). h is the library-issued handle the
	// application received with the suspend decision.
	Resume(h types.Handle)
}
