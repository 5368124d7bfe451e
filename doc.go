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

// Package gomhd is an embeddable HTTP/1.x server library modeled on the
// daemon/connection/request-state-machine/readiness-backend
// architecture of GNU libmicrohttpd.
//
// # Overview
//
// An application links the module, builds a Config, supplies a
// FuncHandler, and calls New then Start. From there gomhd owns the
// listening socket, the readiness backend (epoll/poll/select, or an
// application-supplied external one), every accepted connection's
// state machine, and connection lifecycle: request-line and header
// parsing, keep-alive reuse, idle timeouts, graceful shutdown
// (Quiesce), and cooperative suspend/resume for handlers that need to
// park a connection mid-request. There is no per-connection goroutine:
// one worker-loop goroutine drives every connection a daemon owns, one
// readiness pass at a time.
//
// # Design Philosophy
//
// The engine is split into small, independently testable packages
// (pool, itc, ready, backend, conn, request, response, errresp) that
// the root package wires together. Each one owns exactly one piece of
// the daemon-loop's state: a pooled arena for per-connection buffers,
// a wakeup signal for the application to interrupt a blocked readiness
// wait, the ready/timeout bookkeeping, the backend abstraction over
// the OS readiness mechanism, the connection struct and its socket
// I/O, request-line/header/chunked-body parsing, and response
// formatting/pumping. None of them know about net/http; this is not a
// wrapper around it.
//
// # Basic Usage
//
//	cfg := gomhd.Config{
//		Name:           "api",
//		Listen:         ":8080",
//		ConnLimit:      1024,
//		PoolSize:       32 * 1024,
//		RequestHandler: handle,
//	}
//	d, err := gomhd.New(cfg, nil)
//	if err != nil {
//		log.Fatal(err)
//	}
//	if err := d.Start(context.Background()); err != nil {
//		log.Fatal(err)
//	}
//	d.WaitNotify(context.Background())
//
// # Handler Contract
//
// A FuncHandler receives a RequestContext once headers are fully
// parsed and returns a types.Action: queue a response
// (types.NewResponseAction), take over body delivery
// (types.NewUploadAction), suspend the connection until a later
// Resume (types.SuspendAction), or abort it outright
// (types.AbortAction). The handler runs on the worker-loop goroutine
// that owns the connection; a handler that blocks stalls every other
// connection that same daemon drives, which is why Upload/Suspend
// exist instead of requiring every handler to do its own I/O inline.
//
// # Lifecycle Management
//
// Daemon embeds runner.Runner (Start/Stop/Restart/IsRunning/Uptime/
// GetError/WaitNotify/StopWaitNotify). Repeated Start/Stop/Restart
// cycles reuse the same Daemon value rather than requiring a fresh
// one each time. Quiesce stops accepting new connections while
// letting already-open ones finish; Group (tools.go) coordinates the
// same lifecycle across more than one daemon, for an application that
// embeds both a plain and a TLS listener.
//
// # Monitoring
//
// Daemon.Monitor returns a monitor.Monitor backed by the daemon
// itself (the daemon value behind the Daemon interface implements
// monitor.Source; the interface does not): connection count,
// uptime, last error, and whether an accept is currently pending,
// available as an on-demand snapshot rather than pushed to any metrics
// registry.
//
// # Non-goals
//
// gomhd never speaks HTTP/2 or parses a TLS handshake itself (see
// certtls for how transports are wrapped); it has no cookie jar, no
// router, and no persistent storage of its own. Certificate management,
// routing, and request-body semantics beyond framing are left to the
// embedding application.
package gomhd
