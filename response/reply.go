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

package response

// Reply is the per-connection view of an in-flight Response: write
// progress through the headers and body, re-initialized whenever a new
// Response is queued (§3 "Reply").
type Reply struct {
	Resp *Response

	HeadersFormatted bool
	BodySent         uint64

	FilePos int64

	ChunkedHeaderSent bool
	ChunkedDone       bool
}

// NewReply wraps resp for a single connection's write progress. The
// caller is responsible for calling resp.Acquire() first if resp is
// already queued elsewhere.
func NewReply(resp *Response) *Reply {
	return &Reply{Resp: resp, FilePos: resp.FileOffset}
}

// Done reports whether the entire response (headers and body) has been
// written out.
func (rp *Reply) Done() bool {
	if !rp.HeadersFormatted {
		return false
	}
	switch rp.Resp.Kind {
	case BodyBuffer:
		return rp.BodySent >= uint64(len(rp.Resp.Buffer))
	case BodyFile:
		return rp.BodySent >= uint64(rp.Resp.FileSize)
	case BodyCallback:
		return rp.ChunkedDone
	case BodyUpgrade:
		return true
	default:
		return true
	}
}
