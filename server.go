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
	"context"
	"crypto/tls"
	"net"
	"runtime"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/nabbar/gomhd/backend"
	"github.com/nabbar/gomhd/backend/epoll"
	"github.com/nabbar/gomhd/backend/external"
	"github.com/nabbar/gomhd/backend/pollfd"
	"github.com/nabbar/gomhd/backend/selectfd"
	"github.com/nabbar/gomhd/certtls"
	"github.com/nabbar/gomhd/conn"
	"github.com/nabbar/gomhd/errors"
	"github.com/nabbar/gomhd/itc"
	liblog "github.com/nabbar/gomhd/logger"
	"github.com/nabbar/gomhd/monitor"
	"github.com/nabbar/gomhd/ready"
	"github.com/nabbar/gomhd/runner"
	"github.com/nabbar/gomhd/types"
)

// daemon is the concrete Daemon: one listener, one readiness backend,
// and the connection bookkeeping (§4 "Daemon") the worker loop drives
// once per turn. A daemon is built once by New and may be Start/Stop/
// Restart many times; every field below is only touched from within
// the worker-loop goroutine except where a lock or atomic says
// otherwise, matching the single-writer discipline the design notes
// describe for the connection lists.
type daemon struct {
	mu  sync.RWMutex
	cfg Config
	log liblog.FuncLog
	fn  FuncHandler

	run runner.Runner

	ln     net.Listener
	itcSig itc.Signal
	be     backend.Backend

	conns      map[types.Handle]*conn.Connection
	nextHandle types.Handle

	// uploadSpecs holds the upload delivery spec for any connection whose
	// handler dispatched an ActionUpload, keyed for the lifetime of that
	// one body transfer; uploadBuf accumulates a whole-body buffer for
	// FullCB-style delivery; chunkTerm marks a connection momentarily
	// expecting the CRLF that follows a chunk's data bytes.
	uploadSpecs map[types.Handle]types.UploadSpec
	uploadBuf   map[types.Handle][]byte
	chunkTerm   map[types.Handle]bool

	// reqStart records when the in-flight request on a handle began,
	// for URILog's elapsed-time argument; only populated when URILog
	// is configured.
	reqStart map[types.Handle]time.Time

	procReady *ready.ProcessReady
	timeouts  *ready.TimeoutList
	all       *ready.List

	connCount     atomic.Int64
	acceptPending atomic.Bool
	quiescing     atomic.Bool

	lastErr atomic.Value // error
}

// New validates cfg and returns a Daemon ready to Start; it does not
// open the listen socket itself, that happens in Start so that
// repeated Start/Stop/Restart cycles reuse the same daemon value
// (§6 "daemon_start"/"daemon_stop" are a single daemon's lifecycle,
// not a fresh object each time).
func New(cfg Config, log liblog.FuncLog) (Daemon, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	d := &daemon{
		cfg:         cfg.Clone(),
		log:         log,
		fn:          cfg.RequestHandler,
		conns:       make(map[types.Handle]*conn.Connection),
		uploadSpecs: make(map[types.Handle]types.UploadSpec),
		procReady:   ready.NewProcessReady(),
		timeouts:    ready.NewTimeoutList(),
		all:         ready.NewList(),
	}
	d.run = runner.New(d.loop, log)
	return d, nil
}

func (d *daemon) Name() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.cfg.Name
}

func (d *daemon) Bindable() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.ln != nil {
		return d.ln.Addr().String()
	}
	return d.cfg.bindable()
}

func (d *daemon) Handler(h FuncHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.fn = h
}

func (d *daemon) handler() FuncHandler {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.fn
}

func (d *daemon) GetConfig() Config {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.cfg.Clone()
}

func (d *daemon) SetConfig(cfg Config, log liblog.FuncLog) error {
	if d.run.IsRunning() {
		return errors.New(ErrMergeWhileRunning)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.cfg = cfg.Clone()
	d.fn = cfg.RequestHandler
	if log != nil {
		d.log = log
	}
	return nil
}

// Merge copies src's configuration and handler into d; both daemons
// must be stopped, since swapping configuration out from under a
// running worker loop would race every field the loop reads without a
// lock for speed.
func (d *daemon) Merge(src Daemon, log liblog.FuncLog) error {
	other, ok := src.(*daemon)
	if !ok {
		return errors.New(ErrConfigInvalid)
	}
	if d.run.IsRunning() || other.run.IsRunning() {
		return errors.New(ErrMergeWhileRunning)
	}
	return d.SetConfig(other.GetConfig(), log)
}

func (d *daemon) Monitor() monitor.Monitor {
	return monitor.New(d.cfg.Name, d)
}

func (d *daemon) IsRunning() bool       { return d.run.IsRunning() }
func (d *daemon) Uptime() time.Duration { return d.run.Uptime() }
func (d *daemon) GetError() error       { return d.run.GetError() }

func (d *daemon) ConnCount() int { return int(d.connCount.Load()) }

func (d *daemon) AcceptPending() bool { return d.acceptPending.Load() }

func (d *daemon) Start(ctx context.Context) error {
	return d.run.Start(ctx)
}

func (d *daemon) Stop(ctx context.Context) error {
	return d.run.Stop(ctx)
}

func (d *daemon) Restart(ctx context.Context) error {
	return d.run.Restart(ctx)
}

func (d *daemon) WaitNotify(ctx context.Context) { d.run.WaitNotify(ctx) }
func (d *daemon) StopWaitNotify()                { d.run.StopWaitNotify() }

// Quiesce stops accepting new connections while already-open ones keep
// running to completion (§6 "daemon_quiesce"); Start/Restart clears it.
func (d *daemon) Quiesce() {
	d.quiescing.Store(true)
}

// Resume clears a connection's suspended flag from the outside (§6
// "daemon_resume"), waking the worker loop via the ITC signal so a
// blocked readiness wait returns promptly even if nothing else is
// happening on the wire.
func (d *daemon) Resume(h types.Handle) {
	d.mu.RLock()
	c, ok := d.conns[h]
	sig := d.itcSig
	d.mu.RUnlock()

	if !ok {
		return
	}
	c.Resume()
	if sig != nil {
		_ = sig.Activate()
	}
}

func (d *daemon) logger() liblog.Logger {
	if d.log != nil {
		if l := d.log(); l != nil {
			return l
		}
	}
	return liblog.New()
}

func (d *daemon) entry(lvl liblog.Level, msg string) *liblog.Entry {
	return d.logger().Entry(lvl, msg)
}

// openListener binds cfg.Listen unless the application already handed
// us a pre-bound net.Listener (§6 "listen socket (optional, pre-bound)").
func (d *daemon) openListener() error {
	if d.cfg.Listener != nil {
		d.ln = d.cfg.Listener
		return nil
	}

	network := "tcp"
	addr := d.cfg.Listen
	ln, err := net.Listen(network, addr)
	if err != nil {
		return errors.New(ErrListenFailed, err)
	}
	d.ln = ln

	if d.cfg.TCPFastOpen {
		if sc, ok := ln.(syscall.Conn); ok {
			if fd, ferr := rawFD(sc); ferr == nil {
				_ = applyFastOpen(fd)
			}
		}
	}
	return nil
}

// selectBackend picks one of {epoll, poll, select, external} per §4.2:
// an application-supplied ExternalRegister always wins (it opted into
// driving readiness itself); otherwise epoll is preferred on Linux,
// falling back to poll, and select everywhere else. This picks the
// best backend available rather than exposing a separate knob the
// caller would otherwise have to get right for their own platform.
func (d *daemon) selectBackend() (backend.Backend, error) {
	if d.cfg.ExternalRegister != nil {
		return external.New(d.cfg.ExternalRegister), nil
	}

	if runtime.GOOS == "linux" {
		if b, err := epoll.New(); err == nil {
			return b, nil
		}
		return pollfd.New(), nil
	}

	return selectfd.New(), nil
}

// prepare opens the listener, picks and wires the readiness backend and
// the ITC wakeup, and resets the quiesce flag. Called once at the top
// of loop's first turn (idempotent across Restart).
func (d *daemon) prepare() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.ln == nil {
		if err := d.openListener(); err != nil {
			return err
		}
	}

	sig, err := itc.New()
	if err != nil {
		return err
	}
	d.itcSig = sig

	be, err := d.selectBackend()
	if err != nil {
		return errors.New(ErrBackendUnsupported, err)
	}
	d.be = be

	sc, ok := d.ln.(syscall.Conn)
	if !ok {
		return errors.New(ErrListenFailed, errNotSyscallConn)
	}
	lnFd, err := rawFD(sc)
	if err != nil {
		return err
	}

	if err := d.be.Register(backend.Target{Kind: backend.KindListen, Fd: lnFd}); err != nil {
		return err
	}
	if err := d.be.Register(backend.Target{Kind: backend.KindITC, Fd: d.itcSig.Fd()}); err != nil {
		return err
	}

	d.quiescing.Store(false)
	d.acceptPending.Store(false)
	return nil
}

// teardown closes every open connection, the backend, the ITC signal
// and the listener - the inverse of prepare, run once the worker loop
// returns (§6 "daemon_stop" drains and closes everything).
func (d *daemon) teardown() {
	d.mu.Lock()
	conns := make([]*conn.Connection, 0, len(d.conns))
	for _, c := range d.conns {
		conns = append(conns, c)
	}
	d.conns = make(map[types.Handle]*conn.Connection)
	d.mu.Unlock()

	for _, c := range conns {
		d.closeConnection(c, types.CloseDaemonShutdown)
	}

	if d.be != nil {
		_ = d.be.Close()
		d.be = nil
	}
	if d.itcSig != nil {
		_ = d.itcSig.Close()
		d.itcSig = nil
	}
	if d.ln != nil && d.cfg.Listener == nil {
		_ = d.ln.Close()
	}
	d.ln = nil
}

// wrapTransport upgrades an accepted net.Conn to TLS when cfg.TLS is
// set, otherwise leaves it plain (§1's scope note: gomhd programs
// against certtls.SecureTransport and never manages certificates
// itself).
func (d *daemon) wrapTransport(c net.Conn) certtls.SecureTransport {
	if d.cfg.TLS != nil {
		return certtls.WrapTLS(tls.Server(c, d.cfg.TLS))
	}
	return certtls.WrapPlain(c)
}
