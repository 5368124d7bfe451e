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

package types

// ConnState is the per-connection request/reply state machine position,
// in the fixed progression the engine drives it through.
type ConnState uint8

const (
	Init ConnState = iota
	ReqLineReceiving
	ReqLineReceived
	ReqHeadersReceiving
	HeadersReceived
	HeadersProcessed
	ContinueSending
	BodyReceiving
	BodyReceived
	FootersReceiving
	FootersReceived
	FullReqReceived
	ReqRecvFinished
	StartReply
	HeadersSending
	HeadersSent
	BodyUnready
	BodyReady
	ChunkedBodySent
	FootersSending
	FullReplySent
	Upgraded
	Closed
)

func (s ConnState) String() string {
	names := [...]string{
		"Init", "ReqLineReceiving", "ReqLineReceived", "ReqHeadersReceiving",
		"HeadersReceived", "HeadersProcessed", "ContinueSending", "BodyReceiving",
		"BodyReceived", "FootersReceiving", "FootersReceived", "FullReqReceived",
		"ReqRecvFinished", "StartReply", "HeadersSending", "HeadersSent",
		"BodyUnready", "BodyReady", "ChunkedBodySent", "FootersSending",
		"FullReplySent", "Upgraded", "Closed",
	}
	if int(s) < len(names) {
		return names[s]
	}
	return "Unknown"
}

// CloseReason records why a connection was torn down, for logging and
// for the notify-connection callback.
type CloseReason uint8

const (
	CloseNone CloseReason = iota
	CloseClientShutdown
	CloseTimeout
	CloseSocketError
	CloseRequestError
	CloseDaemonShutdown
	CloseApplicationAbort
	CloseUpgradeHandedOff
)

func (r CloseReason) String() string {
	switch r {
	case CloseClientShutdown:
		return "client-shutdown"
	case CloseTimeout:
		return "timeout"
	case CloseSocketError:
		return "socket-error"
	case CloseRequestError:
		return "request-error"
	case CloseDaemonShutdown:
		return "daemon-shutdown"
	case CloseApplicationAbort:
		return "application-abort"
	case CloseUpgradeHandedOff:
		return "upgrade-handed-off"
	default:
		return "none"
	}
}

// ReuseMode is the connection's keep-alive disposition, decided as soon
// as enough of the request is known to tell.
type ReuseMode uint8

const (
	ReuseUnknown ReuseMode = iota
	MustClose
	KeepAlivePossible
	MustUpgrade
)

// FieldKind tags a field-list entry by where it came from.
type FieldKind uint8

const (
	FieldHeader FieldKind = iota
	FieldFooter
	FieldCookie
	FieldGetArg
	FieldPostArg
)

func (k FieldKind) String() string {
	switch k {
	case FieldHeader:
		return "header"
	case FieldFooter:
		return "footer"
	case FieldCookie:
		return "cookie"
	case FieldGetArg:
		return "get-arg"
	case FieldPostArg:
		return "post-arg"
	default:
		return "unknown"
	}
}
