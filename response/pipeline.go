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

import "fmt"

// BodyStepResult reports what one pump of the body pipeline produced.
type BodyStepResult struct {
	// WouldBlock means a callback producer returned "try again later"
	// (zero bytes); the caller should leave the connection for the next
	// worker-loop turn rather than treating it as done or as an error.
	WouldBlock bool
}

// PumpBody writes up to maxChunk bytes of the next body segment into w,
// dispatching on the response's body kind (§4.9 "Body modes"). The
// caller drives this repeatedly until Reply.Done() is true.
func (rp *Reply) PumpBody(w BufferWriter, maxChunk int) (BodyStepResult, error) {
	switch rp.Resp.Kind {
	case BodyBuffer:
		return rp.pumpBuffer(w, maxChunk)
	case BodyFile:
		return rp.pumpFile(w, maxChunk)
	case BodyCallback:
		return rp.pumpCallback(w, maxChunk)
	case BodyUpgrade:
		rp.ChunkedDone = true
		return BodyStepResult{}, nil
	default:
		return BodyStepResult{}, fmt.Errorf("response: unknown body kind %d", rp.Resp.Kind)
	}
}

func (rp *Reply) pumpBuffer(w BufferWriter, maxChunk int) (BodyStepResult, error) {
	remaining := rp.Resp.Buffer[rp.BodySent:]
	if len(remaining) > maxChunk {
		remaining = remaining[:maxChunk]
	}
	if len(remaining) == 0 {
		return BodyStepResult{}, nil
	}
	if !w.AppendWrite(remaining) {
		return BodyStepResult{}, fmt.Errorf("response: write buffer exhausted")
	}
	rp.BodySent += uint64(len(remaining))
	return BodyStepResult{}, nil
}

func (rp *Reply) pumpFile(w BufferWriter, maxChunk int) (BodyStepResult, error) {
	remaining := rp.Resp.FileSize - int64(rp.BodySent)
	if remaining <= 0 {
		return BodyStepResult{}, nil
	}
	if int64(maxChunk) > remaining {
		maxChunk = int(remaining)
	}

	buf := make([]byte, maxChunk)
	n, err := rp.Resp.File.ReadAt(buf, rp.FilePos)
	if n > 0 {
		if !w.AppendWrite(buf[:n]) {
			return BodyStepResult{}, fmt.Errorf("response: write buffer exhausted")
		}
		rp.FilePos += int64(n)
		rp.BodySent += uint64(n)
	}
	if err != nil && n == 0 {
		// EOF (or any other read error) short-circuits the remaining
		// declared content length (§4.9 "File").
		rp.BodySent = uint64(rp.Resp.FileSize)
	}
	return BodyStepResult{}, nil
}

func (rp *Reply) pumpCallback(w BufferWriter, maxChunk int) (BodyStepResult, error) {
	if rp.ChunkedDone {
		return BodyStepResult{}, nil
	}

	buf := make([]byte, maxChunk)
	n := rp.Resp.Produce(buf)

	switch {
	case n < 0:
		if !w.AppendWrite(chunkTerminator()) {
			return BodyStepResult{}, fmt.Errorf("response: write buffer exhausted")
		}
		rp.ChunkedDone = true
		return BodyStepResult{}, nil
	case n == 0:
		return BodyStepResult{WouldBlock: true}, nil
	default:
		if !w.AppendWrite(wrapChunk(buf[:n])) {
			return BodyStepResult{}, fmt.Errorf("response: write buffer exhausted")
		}
		rp.BodySent += uint64(n)
		return BodyStepResult{}, nil
	}
}

// wrapChunk formats one chunked-transfer segment: hex size, CRLF, the
// bytes themselves, CRLF (§4.9 "Chunked").
func wrapChunk(data []byte) []byte {
	header := fmt.Sprintf("%x\r\n", len(data))
	out := make([]byte, 0, len(header)+len(data)+2)
	out = append(out, header...)
	out = append(out, data...)
	out = append(out, '\r', '\n')
	return out
}

// chunkTerminator formats the terminating "0\r\n\r\n" with no trailers.
func chunkTerminator() []byte {
	return []byte("0\r\n\r\n")
}

// KeepAlive decides whether the connection may be reused for another
// request, per §4.9: the reuse mode allows it, the body transfer
// completed cleanly, the request was not marked discard, and the daemon
// is not stopping.
func KeepAlive(mustClose, bodyCompleted, discardRequest, daemonStopping bool) bool {
	return !mustClose && bodyCompleted && !discardRequest && !daemonStopping
}
