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
	"time"

	"github.com/nabbar/gomhd/types"
)

// RequestContext is what the application's callback sees once headers
// are fully processed (§6 "request_cb(app_ctx, &request, &path, method,
// content_len) → Action"): the library keeps the rest of the request
// state hidden, exposing just what a handler needs to decide the action.
type RequestContext struct {
	Method        types.Method
	MethodRaw     string
	Target        string
	Version       types.HTTPVersion
	ContentLength uint64
	Chunked       bool
	RemoteAddr    string

	// Fields exposes the parsed headers, cookies, and GET arguments;
	// callers must not retain it beyond the callback, it is only valid
	// while the connection's pool backs it.
	Fields *types.FieldList
}

// FuncHandler is the application's per-request callback. It must return
// promptly - it runs on the worker goroutine owning the connection, and
// blocking it stalls every other connection that worker drives (§5).
type FuncHandler func(ctx RequestContext) types.Action

// ConnEvent tags a connection lifecycle event reported to NotifyConnFunc.
type ConnEvent uint8

const (
	ConnAccepted ConnEvent = iota
	ConnClosed
)

func (e ConnEvent) String() string {
	if e == ConnAccepted {
		return "accepted"
	}
	return "closed"
}

// NotifyConnFunc is called once per accept and once per close.
type NotifyConnFunc func(event ConnEvent, remoteAddr string)

// URILogFunc is called once per completed request.
type URILogFunc func(method, uri string, code int, elapsed time.Duration)
