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
	"strconv"
	"strings"

	"github.com/nabbar/gomhd/errors"
	"github.com/nabbar/gomhd/types"
)

// ParseHeaderLine consumes one logical header (or trailer) line from
// buf, transparently joining folded continuation lines into a single
// value with a space in place of the CRLF (§4.7). The rules are
// identical for headers and trailers; kind tags which field-list bucket
// the result lands in. done reports the blank line that terminates the
// section.
func (r *Request) ParseHeaderLine(buf []byte, kind types.FieldKind) (consumed int, done bool, needMore bool, err error) {
	lr := findLine(buf, r.Strictness)
	if lr.NeedMore {
		return 0, false, true, nil
	}
	if lr.Malformed {
		return 0, false, false, errors.New(codeMalformedLine)
	}
	if len(lr.Content) == 0 {
		return lr.Consumed, true, false, nil
	}

	total := lr.Consumed
	var value strings.Builder
	value.Write(lr.Content)

	// Fold continuation lines: the line following this one begins with
	// SP/HTAB (LenientFoldedHeaders), replacing the CRLF with a space.
	for r.Strictness.Allows(types.LenientFoldedHeaders) {
		rest := buf[total:]
		if len(rest) == 0 {
			return 0, false, true, nil
		}
		if rest[0] != ' ' && rest[0] != '\t' {
			break
		}

		next := findLine(rest, r.Strictness)
		if next.NeedMore {
			return 0, false, true, nil
		}
		if next.Malformed {
			return 0, false, false, errors.New(codeMalformedLine)
		}

		value.WriteByte(' ')
		value.Write(trimLeadingWS(next.Content))
		total += next.Consumed
	}

	name, val, ok := splitHeaderLine(value.String(), r.Strictness)
	if !ok {
		return 0, false, false, errors.New(codeMalformedLine)
	}

	r.Fields.Add(name, val, kind)
	if kind == types.FieldHeader {
		r.FieldLineSize += uint32(total)
	}
	return total, false, false, nil
}

func trimLeadingWS(b []byte) []byte {
	i := 0
	for i < len(b) && (b[i] == ' ' || b[i] == '\t') {
		i++
	}
	return b[i:]
}

// splitHeaderLine splits "Name: value" at the first colon, applying the
// strictness-gated leniencies around whitespace, missing colon, and
// empty names (§4.7).
func splitHeaderLine(line string, strict types.Strictness) (name, value string, ok bool) {
	if strings.HasPrefix(line, " ") || strings.HasPrefix(line, "\t") {
		if !strict.Allows(types.LenientLeadingWSFirstHdr) {
			return "", "", false
		}
		line = strings.TrimLeft(line, " \t")
	}

	idx := strings.IndexByte(line, ':')
	if idx < 0 {
		if !strict.Allows(types.LenientMissingColon) {
			return "", "", false
		}
		return strings.TrimSpace(line), "", true
	}

	name = line[:idx]
	value = strings.TrimSpace(line[idx+1:])

	if strings.HasSuffix(name, " ") || strings.HasSuffix(name, "\t") {
		if !strict.Allows(types.LenientWSBeforeColon) {
			return "", "", false
		}
		name = strings.TrimRight(name, " \t")
	}

	if strings.ContainsAny(name, " \t") {
		if !strict.Allows(types.LenientWSInHeaderName) {
			return "", "", false
		}
	}

	if name == "" && !strict.Allows(types.LenientEmptyHeaderName) {
		return "", "", false
	}

	return name, value, true
}

// FinalizeHeaders applies the second-pass semantic rules once the
// header block has ended (§4.7): Host duplication, Content-Length
// parsing, Transfer-Encoding validation, the Content-Length vs chunked
// smuggling rule, and Connection handling.
func (r *Request) FinalizeHeaders() error {
	hosts := r.Fields.GetAll("Host", types.FieldHeader)
	if r.Version == types.Version11 && len(hosts) != 1 {
		if len(hosts) > 1 {
			if !r.Strictness.Allows(types.LenientDuplicateHost) {
				return errors.New(codeDuplicateHost)
			}
			r.DuplicateHost = true
		}
	}

	clValues := r.Fields.GetAll("Content-Length", types.FieldHeader)
	teValue, hasTE := r.Fields.Get("Transfer-Encoding", types.FieldHeader)

	var contentLength uint64
	hasCL := len(clValues) > 0
	if hasCL {
		first := clValues[0]
		for _, v := range clValues[1:] {
			if v != first {
				return errors.New(codeBadContentLength)
			}
		}
		n, err := strconv.ParseUint(first, 10, 64)
		if err != nil {
			return errors.New(codeBadContentLength)
		}
		contentLength = n
	}

	if hasTE {
		if !strings.EqualFold(strings.TrimSpace(teValue), "chunked") {
			return errors.New(codeBadTransferEncoding)
		}
		r.HaveChunked = true
	}

	if hasCL && hasTE {
		if !r.Strictness.Allows(types.LenientBothLengthAndChunk) {
			return errors.New(codeSmuggling)
		}
		// lenient: Content-Length is ignored, chunked framing wins, and
		// the connection cannot be reused (anti-smuggling, §4.7).
		r.MustClose = true
	} else if hasCL {
		r.ContentLength = contentLength
	}

	if conn, ok := r.Fields.Get("Connection", types.FieldHeader); ok {
		switch strings.ToLower(strings.TrimSpace(conn)) {
		case "close":
			r.MustClose = true
		case "keep-alive":
			if r.Version == types.Version10 {
				// the only way to enable reuse on 1.0 (§4.7)
				r.MustClose = false
			}
		}
	} else if r.Version == types.Version10 {
		r.MustClose = true
	}

	if expect, ok := r.Fields.Get("Expect", types.FieldHeader); ok {
		if strings.EqualFold(strings.TrimSpace(expect), "100-continue") && r.Version == types.Version11 {
			r.ExpectContinue = true
		}
	}

	r.parseCookies()

	return nil
}
