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

import "strings"

var knownMethods = [...]string{
	"GET", "HEAD", "POST", "PUT", "DELETE", "CONNECT", "OPTIONS", "TRACE", "*",
}

// LooksLikeMethod reports whether the leading token of buf (up to the
// first space, or the whole of buf if no space has arrived yet) is
// consistent with one of the fixed method tokens - including a token
// too short to be told apart from a longer method name because the
// buffer ran out before reaching it. Used by OutOfBufferStatus's
// PhaseURI case to decide whether any HTTP response is meaningful at
// all (§4.8).
func LooksLikeMethod(buf []byte) bool {
	end := len(buf)
	for i, b := range buf {
		if b == ' ' {
			end = i
			break
		}
	}
	tok := string(buf[:end])
	for _, m := range knownMethods {
		if strings.HasPrefix(m, tok) {
			return true
		}
	}
	return false
}

// OutOfBufferPhase tags which part of the request was being received
// when the read buffer could not be grown any further.
type OutOfBufferPhase uint8

const (
	PhaseURI OutOfBufferPhase = iota
	PhaseChunkSizeLine
	PhaseHeaders
	PhaseOther
)

// OutOfBufferStatus implements §4.8's decision tree for which HTTP
// status to send when the read buffer is exhausted and cannot grow
// in-place. method indicates whether the request line's method token
// looked like one of the fixed set (as opposed to garbage that makes no
// HTTP response meaningful). headerSize is the header block size so
// far minus the Host line; uriSize is the URI size so far; smallBuffer
// signals the pool itself is small enough to use the relaxed
// small-buffer thresholds.
//
// abort==true means no HTTP error can be meaningfully sent at all (the
// caller should simply close the connection).
func OutOfBufferStatus(phase OutOfBufferPhase, looksLikeMethod bool, headerSize, uriSize uint32, chunkLine ChunkSizeLine, smallBuffer bool) (status int, abort bool) {
	switch phase {
	case PhaseURI:
		if looksLikeMethod {
			return 414, false
		}
		return 0, true

	case PhaseChunkSizeLine:
		// If the hex digits plus CRLF alone - extension stripped - would
		// fit, the extension was the problem: 413. If even that doesn't
		// fit, 431.
		if chunkLine.HasExtension {
			withoutExt := int(headerSize) - chunkLine.ExtensionLen
			if withoutExt <= int(uriSize) || withoutExt <= 0 {
				return 413, false
			}
		}
		return 431, false
	}

	threshold := uint32(1)
	if smallBuffer {
		threshold = 4
	}

	switch {
	case headerSize > uriSize*threshold:
		return 431, false
	case uriSize > headerSize*threshold:
		return 414, false
	default:
		return 501, false
	}
}
