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

// Package request implements the HTTP/1.x request state machine (§4.7):
// request-line parsing, header-line parsing with the single-integer
// strictness ladder, fixed-length and chunked body accounting, and the
// out-of-buffer status selection (§4.8). It operates directly on the
// byte slice the connection's read buffer exposes, so the only
// allocations it performs are into the caller-supplied types.FieldList.
package request

import (
	"github.com/nabbar/gomhd/errors"
	"github.com/nabbar/gomhd/types"
)

const (
	codeMalformedLine errors.CodeError = errors.MinPkgRequest + iota
	codeUnsupportedVersion
	codeDuplicateHost
	codeBadContentLength
	codeBadTransferEncoding
	codeSmuggling
	codeBadChunkFraming
)

func init() {
	errors.RegisterIdFctMessage(errors.MinPkgRequest, getMessage)
}

func getMessage(code errors.CodeError) string {
	switch code {
	case codeMalformedLine:
		return "request: malformed line"
	case codeUnsupportedVersion:
		return "request: unsupported HTTP version"
	case codeDuplicateHost:
		return "request: duplicate Host header"
	case codeBadContentLength:
		return "request: invalid Content-Length"
	case codeBadTransferEncoding:
		return "request: unsupported Transfer-Encoding"
	case codeSmuggling:
		return "request: Content-Length and Transfer-Encoding both present"
	case codeBadChunkFraming:
		return "request: invalid chunk framing"
	default:
		return ""
	}
}

// SubState tracks progress within the current ConnState while a
// request-line or header line is only partially buffered.
type SubState uint8

const (
	SubNone SubState = iota
	SubRequestLinePartial
	SubHeaderLinePartial
	SubChunkSizePartial
	SubChunkDataPartial
	SubTrailerPartial
)

// Request is the per-connection parse state, re-initialized on every
// keep-alive turn (§3 "Request").
type Request struct {
	Strictness types.Strictness

	Method    types.Method
	MethodRaw string
	Target    string // decoded path, percent-escapes resolved
	RawTarget string // as received, before decoding
	Version   types.HTTPVersion

	Fields types.FieldList

	// ContentLength is the declared fixed body size; HaveChunked means the
	// size is UNKNOWN until the terminating chunk (§3 "Request").
	ContentLength uint64
	HaveChunked   bool
	MustClose     bool
	DuplicateHost bool

	RecvSize      uint64 // bytes of body delivered to the application so far
	ProcessedSize uint64 // bytes consumed out of the read buffer for the body

	ChunkRemaining uint64 // bytes left in the chunk currently being read
	InTrailers     bool

	ExpectContinue   bool
	ContinueSent     bool

	Sub SubState

	// FieldLineSize accumulates the byte length of the header lines
	// parsed so far, for the §4.8 header/URI size comparison.
	// FieldLineStart is not set by the parser and stays zero.
	FieldLineStart uint32
	FieldLineSize  uint32
	URISize        uint32

	// RedirectTarget is set when the request line's target carried raw
	// whitespace under LenientWhitespaceInURI without
	// LenientKeepURIWhitespace: the caller should send a 301 to this
	// percent-encoded equivalent instead of processing the request
	// further (§4.7).
	RedirectTarget string
}

// New returns a Request ready to parse its first request line at the
// given strictness level.
func New(strictness types.Strictness) *Request {
	return &Request{Strictness: strictness}
}

// Reset reinitializes the request for the next keep-alive turn,
// preserving the configured strictness level.
func (r *Request) Reset() {
	strict := r.Strictness
	*r = Request{Strictness: strict}
}

// BodyDeclared reports whether the request carries any body at all -
// either a non-zero fixed length or a chunked transfer-encoding.
func (r *Request) BodyDeclared() bool {
	return r.HaveChunked || r.ContentLength > 0
}

// BodyRemaining reports how many more bytes of a fixed-length body are
// still expected; meaningless (returns 0) for chunked bodies.
func (r *Request) BodyRemaining() uint64 {
	if r.HaveChunked || r.ProcessedSize >= r.ContentLength {
		return 0
	}
	return r.ContentLength - r.ProcessedSize
}

// HeaderSizeForOutOfBuffer returns the header block size accumulated so
// far, less the Host line, for OutOfBufferStatus's header/URI
// comparison (§4.8): a legitimately long Host value should not by
// itself tip the verdict toward 431 when the buffer was actually
// exhausted by some other oversized header.
func (r *Request) HeaderSizeForOutOfBuffer() uint32 {
	size := r.FieldLineSize
	if host, ok := r.Fields.Get("Host", types.FieldHeader); ok {
		hostLine := uint32(len("Host: ") + len(host) + 2)
		if size >= hostLine {
			size -= hostLine
		}
	}
	return size
}
