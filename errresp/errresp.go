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

// Package errresp constructs the canned HTML error responses the
// engine sends on a request-syntax or resource error (§4.8, §7): it
// discards whatever request state had been accumulated and moves the
// connection directly to the reply stage, forcing the connection to
// close once the reply drains (§7 "the connection MUST be closed after
// the reply is drained so that the client does not race the next
// request into the still-draining error").
package errresp

import (
	"fmt"

	"github.com/nabbar/gomhd/conn"
	"github.com/nabbar/gomhd/response"
	"github.com/nabbar/gomhd/types"
)

// IncludeBody toggles whether canned error responses carry an HTML
// body, for applications that disable auto-bodies (§7 "content body
// elided if auto-bodies are disabled").
var IncludeBody = true

const bodyTemplate = "<html><head><title>%d %s</title></head>" +
	"<body><h1>%d %s</h1></body></html>"

// Build constructs the canned Response for status, with or without a
// body depending on IncludeBody.
func Build(status int) *response.Response {
	if !IncludeBody {
		return response.NewBuffer(status, nil)
	}
	text := response.StatusText(status)
	body := fmt.Sprintf(bodyTemplate, status, text, status, text)
	return response.NewBuffer(status, []byte(body))
}

// Apply discards c's in-flight request, queues the canned error
// response for status, forces the connection closed after the reply
// drains, and transitions it to StartReply.
func Apply(c *conn.Connection, status int) {
	c.DiscardRequest = true
	c.Reuse = types.MustClose
	c.Request = nil
	c.Reply = response.NewReply(Build(status))
	c.State = types.StartReply
}
