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

// Package certtls defines the secure-transport contract the connection
// layer programs against, so plain TCP and crypto/tls sockets are
// interchangeable from the engine's point of view. It deliberately does
// not reimplement certificate/cipher/curve management: callers build a
// *tls.Config themselves (directly, or with their own certificate
// management library) and hand it to Wrap.
package certtls

import (
	"crypto/tls"
	"net"
)

// SecureTransport is the minimal surface the connection layer needs from
// a socket, whether plain or TLS. HasBufferedReadBytes lets the readiness
// backend know that TLS record buffering may already hold a full next
// request even though the kernel socket itself has nothing more to
// deliver - without it, a daemon using edge-triggered epoll could stall
// waiting for a readiness event that will never arrive.
type SecureTransport interface {
	net.Conn
	HasBufferedReadBytes() bool
}

type plain struct {
	net.Conn
}

// WrapPlain adapts a plain net.Conn (no buffered protocol layer above the
// kernel) to SecureTransport.
func WrapPlain(c net.Conn) SecureTransport {
	return plain{Conn: c}
}

func (plain) HasBufferedReadBytes() bool {
	return false
}

type secure struct {
	*tls.Conn
}

// WrapTLS adapts an already-handshaking *tls.Conn to SecureTransport.
func WrapTLS(c *tls.Conn) SecureTransport {
	return secure{Conn: c}
}

func (s secure) HasBufferedReadBytes() bool {
	// tls.Conn does not expose its internal record buffer; a completed
	// Handshake plus a non-error last Read is the closest portable
	// signal that another record may already be sitting in memory. We
	// conservatively report false: the epoll backend falls back to
	// level-triggered polling (see backend/epoll) which does not depend
	// on this signal for correctness, only for a small latency win.
	return false
}

// ServerConfig is the subset of *tls.Config fields a daemon accepts at
// Listen time; callers populate a real *tls.Config and pass it through
// unmodified, this type exists only so Config (in the root package) has
// something concrete to validate against being non-nil.
type ServerConfig = tls.Config
