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

	"github.com/nabbar/gomhd/types"
)

// parseCookies splits every "Cookie" header value into name=value pairs
// per RFC 6265 §5.4, with a lax mode (LenientCookies) that tolerates
// stray whitespace around the separators that the strict grammar
// rejects.
func (r *Request) parseCookies() {
	for _, line := range r.Fields.GetAll("Cookie", types.FieldHeader) {
		r.parseCookieLine(line)
	}
}

func (r *Request) parseCookieLine(line string) {
	lax := r.Strictness.Allows(types.LenientCookies)

	for _, pair := range strings.Split(line, ";") {
		if lax {
			pair = strings.TrimSpace(pair)
		} else {
			// strict: only the single SP that follows a ";" separator
			pair = strings.TrimPrefix(pair, " ")
			if strings.ContainsAny(pair, " \t") {
				continue
			}
		}
		if pair == "" {
			continue
		}

		name, value, hasEq := strings.Cut(pair, "=")
		if !hasEq {
			if !lax {
				continue
			}
			r.Fields.Add(strings.TrimSpace(name), "", types.FieldCookie)
			continue
		}

		if lax {
			name = strings.TrimSpace(name)
			value = strings.TrimSpace(value)
		}
		if name == "" {
			continue
		}
		value = strings.Trim(value, "\"")
		r.Fields.Add(name, value, types.FieldCookie)
	}
}
