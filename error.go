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

import "github.com/nabbar/gomhd/errors"

const (
	ErrConfigInvalid errors.CodeError = errors.MinPkgRoot + iota
	ErrAlreadyRunning
	ErrNotRunning
	ErrListenFailed
	ErrBackendUnsupported
	ErrUnimplemented
	ErrDaemonSysDataBroken
	ErrMergeWhileRunning
	ErrNotSyscallConn
	ErrGroupDuplicate
)

func init() {
	errors.RegisterIdFctMessage(errors.MinPkgRoot, getMessage)
}

func getMessage(code errors.CodeError) string {
	switch code {
	case ErrConfigInvalid:
		return "gomhd: configuration is not valid"
	case ErrAlreadyRunning:
		return "gomhd: daemon is already running"
	case ErrNotRunning:
		return "gomhd: daemon is not running"
	case ErrListenFailed:
		return "gomhd: failed to open listen socket"
	case ErrBackendUnsupported:
		return "gomhd: no readiness backend available for this work mode"
	case ErrUnimplemented:
		return "gomhd: post-process actions are not implemented in this build"
	case ErrDaemonSysDataBroken:
		return "gomhd: daemon lost its listener or ITC signal and is unusable"
	case ErrMergeWhileRunning:
		return "gomhd: config can only be replaced while the daemon is stopped"
	case ErrNotSyscallConn:
		return "gomhd: accepted connection does not expose a raw file descriptor"
	case ErrGroupDuplicate:
		return "gomhd: a daemon with this bind address is already in the group"
	default:
		return ""
	}
}
