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

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/nabbar/gomhd/types"
)

// BufferWriter is the minimal write-buffer contract the response
// pipeline needs from a connection; *conn.Connection satisfies it via
// AppendWrite, without the response package importing conn.
type BufferWriter interface {
	AppendWrite(data []byte) bool
}

var statusText = map[int]string{
	100: "Continue",
	101: "Switching Protocols",
	200: "OK",
	204: "No Content",
	206: "Partial Content",
	301: "Moved Permanently",
	304: "Not Modified",
	400: "Bad Request",
	404: "Not Found",
	408: "Request Timeout",
	413: "Content Too Large",
	414: "URI Too Long",
	431: "Request Header Fields Too Large",
	500: "Internal Server Error",
	501: "Not Implemented",
}

// StatusText returns the reason phrase for code, or "Unknown" if code
// is not one the engine emits.
func StatusText(code int) string {
	if s, ok := statusText[code]; ok {
		return s
	}
	return "Unknown"
}

// FormatHeaders writes the status line and headers into w, adding Date,
// Content-Length/Transfer-Encoding, Connection, and a default
// Content-Type when the application didn't set one (§4.9). now is
// injected so tests don't depend on wall-clock time.
func (rp *Reply) FormatHeaders(w BufferWriter, version types.HTTPVersion, mustClose bool, now time.Time) bool {
	var sb strings.Builder

	sb.WriteString(version.String())
	sb.WriteByte(' ')
	sb.WriteString(strconv.Itoa(rp.Resp.Status))
	sb.WriteByte(' ')
	sb.WriteString(StatusText(rp.Resp.Status))
	sb.WriteString("\r\n")

	hasContentType, hasConnection, hasDate := false, false, false
	for _, h := range rp.Resp.Headers() {
		switch strings.ToLower(h.name) {
		case "content-type":
			hasContentType = true
		case "connection":
			hasConnection = true
		case "date":
			hasDate = true
		}
		sb.WriteString(h.name)
		sb.WriteString(": ")
		sb.WriteString(h.value)
		sb.WriteString("\r\n")
	}

	if !hasDate {
		sb.WriteString("Date: ")
		sb.WriteString(now.UTC().Format(time.RFC1123))
		sb.WriteString("\r\n")
	}

	switch rp.Resp.Kind {
	case BodyBuffer:
		fmt.Fprintf(&sb, "Content-Length: %d\r\n", len(rp.Resp.Buffer))
	case BodyFile:
		fmt.Fprintf(&sb, "Content-Length: %d\r\n", rp.Resp.FileSize)
	case BodyCallback:
		sb.WriteString("Transfer-Encoding: chunked\r\n")
	}

	if !hasContentType && rp.Resp.Kind != BodyUpgrade {
		sb.WriteString("Content-Type: text/html; charset=utf-8\r\n")
	}

	if !hasConnection {
		if mustClose {
			sb.WriteString("Connection: close\r\n")
		} else {
			sb.WriteString("Connection: keep-alive\r\n")
		}
	}

	sb.WriteString("\r\n")

	if !w.AppendWrite([]byte(sb.String())) {
		return false
	}
	rp.HeadersFormatted = true
	return true
}
