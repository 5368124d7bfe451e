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
	"strings"

	"github.com/nabbar/gomhd/errors"
	"github.com/nabbar/gomhd/types"
)

// LineResult is the outcome of trying to split one line out of a
// buffer: either more bytes are needed, or the line content and the
// number of bytes to advance the buffer by are returned.
type LineResult struct {
	Content   []byte
	Consumed  int
	NeedMore  bool
	Malformed bool
}

// findLine locates the next line terminator in buf. A strict parser
// only accepts CRLF; a lenient one (LenientBareLF) also accepts a bare
// LF, provided - for header continuation - that the following byte is
// not SP/HTAB (folding is handled by the caller, not here).
func findLine(buf []byte, strict types.Strictness) LineResult {
	for i := 0; i < len(buf); i++ {
		if buf[i] == '\n' {
			if i > 0 && buf[i-1] == '\r' {
				return LineResult{Content: buf[:i-1], Consumed: i + 1}
			}
			if strict.Allows(types.LenientBareLF) {
				return LineResult{Content: buf[:i], Consumed: i + 1}
			}
			return LineResult{Malformed: true}
		}
	}
	return LineResult{NeedMore: true}
}

// skipEmptyLeadingLines advances past blank CRLF/LF lines preceding the
// request line, permitted only under LenientEmptyLineSkip (§4.7).
func skipEmptyLeadingLines(buf []byte, strict types.Strictness) int {
	if !strict.Allows(types.LenientEmptyLineSkip) {
		return 0
	}
	skipped := 0
	for {
		lr := findLine(buf[skipped:], strict)
		if lr.NeedMore || lr.Malformed || len(lr.Content) != 0 {
			return skipped
		}
		skipped += lr.Consumed
	}
}

// ParseRequestLine attempts to parse "METHOD SP target SP HTTP/d.d" out
// of buf, which is the unconsumed portion of the connection's read
// buffer. It returns the number of bytes to advance the buffer by on
// success. needMore means the caller must read more bytes and retry
// once a further recv has appended to the buffer.
func (r *Request) ParseRequestLine(buf []byte) (consumed int, needMore bool, err error) {
	lead := skipEmptyLeadingLines(buf, r.Strictness)

	lr := findLine(buf[lead:], r.Strictness)
	if lr.NeedMore {
		return 0, true, nil
	}
	if lr.Malformed {
		return 0, false, errors.New(codeMalformedLine)
	}

	line := string(lr.Content)
	method, target, version, ok := splitRequestLine(line, r.Strictness)
	if !ok {
		return 0, false, errors.New(codeMalformedLine)
	}

	v, ok := parseVersion(version)
	if !ok || v == types.Version2Plus || v == types.VersionUnknown {
		return 0, false, errors.New(codeUnsupportedVersion)
	}

	r.MethodRaw = method
	r.Method = types.ParseMethod(method)
	r.Version = v
	r.RawTarget = target

	if strings.ContainsAny(target, " \t") && !r.Strictness.Allows(types.LenientKeepURIWhitespace) {
		r.RedirectTarget = percentEncode(target)
		return lead + lr.Consumed, false, nil
	}

	path, query := splitQuery(target)
	decodedPath, decOK := percentDecode(path, r.Strictness)
	if !decOK {
		return 0, false, errors.New(codeMalformedLine)
	}
	r.Target = decodedPath
	r.URISize = uint32(len(target))

	if query != "" {
		parseQueryString(query, &r.Fields, r.Strictness)
	}

	return lead + lr.Consumed, false, nil
}

// splitRequestLine splits "METHOD SP target SP HTTP/d.d" on single
// spaces, applying the coalesced-whitespace leniency when enabled. A
// target containing raw whitespace produces more than 3 fields; under
// LenientWhitespaceInURI the extra fields are rejoined into the target
// rather than rejected outright (§4.7).
func splitRequestLine(line string, strict types.Strictness) (method, target, version string, ok bool) {
	fields := splitOnSpace(line, strict)
	switch {
	case len(fields) == 3:
		return fields[0], fields[1], fields[2], true
	case len(fields) > 3 && strict.Allows(types.LenientWhitespaceInURI):
		return fields[0], strings.Join(fields[1:len(fields)-1], " "), fields[len(fields)-1], true
	default:
		return "", "", "", false
	}
}

func splitOnSpace(line string, strict types.Strictness) []string {
	if !strict.Allows(types.LenientCoalescedWhitespace) {
		return strings.Split(line, " ")
	}
	return strings.Fields(line)
}

// parseVersion parses the literal "HTTP/" prefix (case-sensitive, as
// required by §4.7) followed by a single-digit major.minor pair.
func parseVersion(s string) (types.HTTPVersion, bool) {
	const prefix = "HTTP/"
	if !strings.HasPrefix(s, prefix) {
		return types.VersionUnknown, false
	}
	rest := s[len(prefix):]
	switch rest {
	case "1.0":
		return types.Version10, true
	case "1.1":
		return types.Version11, true
	case "2", "2.0", "3":
		return types.Version2Plus, true
	default:
		return types.VersionUnknown, false
	}
}

// splitQuery splits a request target at the first '?' into path and
// query string (query is "" if absent).
func splitQuery(target string) (path, query string) {
	if i := strings.IndexByte(target, '?'); i >= 0 {
		return target[:i], target[i+1:]
	}
	return target, ""
}

// parseQueryString decodes "key=value&key2=value2" pairs into fl with
// kind=FieldGetArg, percent-decoding both key and value.
func parseQueryString(query string, fl *types.FieldList, strict types.Strictness) {
	for _, pair := range strings.Split(query, "&") {
		if pair == "" {
			continue
		}
		k, v, hasV := strings.Cut(pair, "=")
		dk, _ := percentDecode(k, strict)
		dv := ""
		if hasV {
			dv, _ = percentDecode(v, strict)
		}
		fl.Add(dk, dv, types.FieldGetArg)
	}
}
