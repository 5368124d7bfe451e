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

package request

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/nabbar/gomhd/errors"
	"github.com/nabbar/gomhd/types"
)

// ChunkSizeLine is one parsed "hex-size[;ext...]" chunk header.
type ChunkSizeLine struct {
	Size         uint64
	HasExtension bool
	ExtensionLen int // length of the ";ext..." suffix, for §4.8's cutoff rule
}

// ParseChunkSizeLine parses the chunk-size line at the start of buf.
// Extensions after ';' are recognized but not interpreted, per §4.7.
// Lenient levels tolerate stray whitespace before the line terminator
// (folded into the same whitespace ladder as header lines).
func (r *Request) ParseChunkSizeLine(buf []byte) (line ChunkSizeLine, consumed int, needMore bool, err error) {
	lr := findLine(buf, r.Strictness)
	if lr.NeedMore {
		return ChunkSizeLine{}, 0, true, nil
	}
	if lr.Malformed {
		return ChunkSizeLine{}, 0, false, errors.New(codeBadChunkFraming)
	}

	content := string(lr.Content)
	hexPart := content
	extLen := 0
	if i := strings.IndexByte(content, ';'); i >= 0 {
		hexPart = content[:i]
		extLen = len(content) - i
	}

	if r.Strictness.Allows(types.LenientTabVTFFAsSpace) {
		hexPart = strings.TrimRight(hexPart, " \t")
	}

	size, perr := strconv.ParseUint(hexPart, 16, 64)
	if perr != nil {
		return ChunkSizeLine{}, 0, false, errors.New(codeBadChunkFraming)
	}

	return ChunkSizeLine{Size: size, HasExtension: extLen > 0, ExtensionLen: extLen}, lr.Consumed, false, nil
}

// PartialChunkExtension scans a chunk-size line that has no terminator
// yet for a ';' introducing an extension, so OutOfBufferStatus can
// still apply its extension-cutoff rule (§4.8) when the line itself
// never arrives in full.
func PartialChunkExtension(buf []byte) ChunkSizeLine {
	if i := bytes.IndexByte(buf, ';'); i >= 0 {
		return ChunkSizeLine{HasExtension: true, ExtensionLen: len(buf) - i}
	}
	return ChunkSizeLine{}
}

// StartChunk transitions into reading size bytes of chunk data (plus
// its trailing CRLF); size==0 signals the terminating chunk, after
// which trailer lines (or an immediate blank line) follow.
func (r *Request) StartChunk(size uint64) {
	r.ChunkRemaining = size
	if size == 0 {
		r.InTrailers = true
	}
}

// ConsumeChunkBytes records n bytes of chunk payload as delivered,
// decrementing the remaining count for the chunk in progress.
func (r *Request) ConsumeChunkBytes(n uint64) {
	if n > r.ChunkRemaining {
		n = r.ChunkRemaining
	}
	r.ChunkRemaining -= n
	r.RecvSize += n
	r.ProcessedSize += n
}

// ConsumeFixedBytes records n bytes of a fixed-length body as delivered.
func (r *Request) ConsumeFixedBytes(n uint64) {
	r.RecvSize += n
	r.ProcessedSize += n
}

// BodyComplete reports whether the full body (fixed-length or chunked)
// has been received.
func (r *Request) BodyComplete() bool {
	if r.HaveChunked {
		return r.InTrailers && r.ChunkRemaining == 0
	}
	return r.ProcessedSize >= r.ContentLength
}

// ShouldBuffer decides whether the body should be buffered whole and
// delivered via FullUploadCB, versus delivered incrementally via
// IncrementalUploadCB (§4.7 "Body handling"): only fixed-length bodies
// no larger than spec.MaxBuffered, with spec.FullCB set, are buffered.
func ShouldBuffer(spec types.UploadSpec, contentLength uint64, chunked bool) bool {
	if chunked || spec.FullCB == nil {
		return false
	}
	return contentLength <= spec.MaxBuffered
}
