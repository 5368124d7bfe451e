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

// Package response implements the reply pipeline (§4.9): an
// application-constructed Response object (buffer / file / producer
// callback / protocol-upgrade variant), formatted through a Reply that
// tracks per-connection write progress, plus the refcounting that lets
// one Response be queued on several connections at once (§9 "Response
// refcounting").
package response

import (
	"errors"
	"strings"
	"sync"
)

// BodyKind tags which of the four body variants a Response carries.
type BodyKind uint8

const (
	BodyBuffer BodyKind = iota
	BodyFile
	BodyCallback
	BodyUpgrade
)

// Producer fills buf with up to len(buf) bytes of body content.
// A negative return ends the stream; zero means "nothing ready yet",
// which puts the connection into suspend semantics until the next
// worker-loop turn (§4.9 "Callback").
type Producer func(buf []byte) int

// UpgradeHandler takes ownership of the underlying transport once the
// response headers have fully drained, receiving any client bytes the
// daemon had already buffered past the request (§4.9 "Upgrade").
type UpgradeHandler func(preBuffered []byte)

// Response is an application-built reply, reference-counted so the same
// value may be queued on more than one connection (e.g. a shared "404"
// singleton).
type Response struct {
	mu  sync.Mutex
	ref int

	Status int
	Kind   BodyKind

	// BodyBuffer
	Buffer []byte

	// BodyFile
	File       ReaderAt
	FileOffset int64
	FileSize   int64

	// BodyCallback
	Produce Producer

	// BodyUpgrade
	Upgrade UpgradeHandler

	headers []headerLine
}

// ReaderAt is the minimal file-body contract (satisfied by *os.File);
// kept as an interface so tests can substitute an in-memory fake.
type ReaderAt interface {
	ReadAt(p []byte, off int64) (int, error)
}

type headerLine struct {
	name  string
	value string
}

var errEmbeddedControlChar = errors.New("response: header value contains CR, LF, or TAB")

// NewBuffer builds a fixed in-memory body response.
func NewBuffer(status int, body []byte) *Response {
	return &Response{ref: 1, Status: status, Kind: BodyBuffer, Buffer: body}
}

// NewFile builds a file-body response reading size bytes starting at
// offset.
func NewFile(status int, f ReaderAt, offset, size int64) *Response {
	return &Response{ref: 1, Status: status, Kind: BodyFile, File: f, FileOffset: offset, FileSize: size}
}

// NewCallback builds a producer-driven body response.
func NewCallback(status int, produce Producer) *Response {
	return &Response{ref: 1, Status: status, Kind: BodyCallback, Produce: produce}
}

// NewUpgrade builds a protocol-upgrade response; status is normally 101.
func NewUpgrade(status int, handler UpgradeHandler) *Response {
	return &Response{ref: 1, Status: status, Kind: BodyUpgrade, Upgrade: handler}
}

// AddHeader appends a (name, value) response header/footer line,
// rejecting any embedded CR/LF/TAB per §6 ("response headers are added
// as (name, value) strings rejecting any embedded CR/LF/TAB").
func (r *Response) AddHeader(name, value string) error {
	if strings.ContainsAny(name, "\r\n\t") || strings.ContainsAny(value, "\r\n\t") {
		return errEmbeddedControlChar
	}
	r.headers = append(r.headers, headerLine{name: name, value: value})
	return nil
}

// Headers returns the added header/footer lines in insertion order.
func (r *Response) Headers() []headerLine {
	return r.headers
}

// Acquire increments the refcount; call once per connection the
// response is queued onto beyond its creator.
func (r *Response) Acquire() {
	r.mu.Lock()
	r.ref++
	r.mu.Unlock()
}

// Release decrements the refcount; the caller has no further use for
// the value once this returns true (the last holder dropped it).
func (r *Response) Release() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ref--
	return r.ref <= 0
}

// RefCount reports the current reference count (for tests/diagnostics).
func (r *Response) RefCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ref
}
