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
	"syscall"

	"golang.org/x/sys/unix"

	"github.com/nabbar/gomhd/errors"
)

var errNotSyscallConn = errors.New(ErrNotSyscallConn)

// rawFD extracts the integer file descriptor backing c (a net.Conn or a
// net.Listener - both *net.TCPConn/*net.TCPListener and their Unix
// equivalents implement syscall.Conn), so it can be registered with one
// of the poll/select/epoll readiness backends; the descriptor remains
// owned by the Go runtime's own poller the whole time, ordinary
// net.Conn.Read/Write still go through it (§4.2, §4.5).
func rawFD(c syscall.Conn) (int, error) {
	if c == nil {
		return -1, errNotSyscallConn
	}

	rc, err := c.SyscallConn()
	if err != nil {
		return -1, err
	}

	var fd int
	ctrlErr := rc.Control(func(ufd uintptr) {
		fd = int(ufd)
	})
	if ctrlErr != nil {
		return -1, ctrlErr
	}
	return fd, nil
}

// applyNoDelay toggles TCP_NODELAY, portable across every GOOS the unix
// package supports (§4.5's socket-tuning hints); a transport that
// refuses the option is not treated as an error (conn.SockTriState
// already models "unknown/on/off" for exactly this reason).
func applyNoDelay(fd int, on bool) error {
	v := 0
	if on {
		v = 1
	}
	return unix.SetsockoptInt(fd, unix.IPPROTO_TCP, unix.TCP_NODELAY, v)
}
