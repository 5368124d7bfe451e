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

// ActionKind tags the variant carried by Action. The application never
// constructs a Action by hand; it only ever receives one from a
// constructor the engine exposes (ResponseAction, UploadAction,
// PostProcessAction, SuspendAction, AbortAction), which is the "library
// issued handle" that lets the engine trust its own tag instead of
// re-validating the payload.
type ActionKind uint8

const (
	ActionResponse ActionKind = iota
	ActionUpload
	ActionPostProcess
	ActionSuspend
	ActionAbort
)

// Action is the request-callback's decision for what happens next with
// a request once headers are processed.
type Action struct {
	kind ActionKind

	// Response holds the queued reply when Kind==ActionResponse; its
	// concrete type is defined by the response package, referenced here
	// as an opaque value to avoid an import cycle.
	Response any

	Upload      UploadSpec
	PostProcess PostProcessSpec
}

func (a Action) Kind() ActionKind { return a.kind }

// UploadSpec configures how a request body is delivered to the
// application.
type UploadSpec struct {
	FullCB        FullUploadCB
	IncrementalCB IncrementalUploadCB
	MaxBuffered   uint64
}

// PostProcessSpec configures application/x-www-form-urlencoded and
// multipart/form-data incremental decoding; left for a future decoder,
// see DESIGN.md.
type PostProcessSpec struct {
	FieldCB func(key, value string) bool
}

// FullUploadCB receives the entire request body in one call, used when
// the body is fixed-length and fits within UploadSpec.MaxBuffered.
type FullUploadCB func(size uint64, data []byte) UploadAction

// IncrementalUploadCB receives the body as it arrives, one chunk per
// call, followed by exactly one final call with size==0, data==nil.
type IncrementalUploadCB func(chunkSize uint64, chunk []byte) UploadAction

// NewResponseAction is the only legal way to build a response-carrying
// Action; resp is an opaque *response.Response handle.
func NewResponseAction(resp any) Action {
	return Action{kind: ActionResponse, Response: resp}
}

// NewUploadAction constructs the upload-delivery action.
func NewUploadAction(spec UploadSpec) Action {
	return Action{kind: ActionUpload, Upload: spec}
}

// NewPostProcessAction constructs the POST-decoding action; the
// daemon's action dispatch answers this kind with a canned 501 Not
// Implemented reply rather than silently treating it as ActionUpload.
func NewPostProcessAction(spec PostProcessSpec) Action {
	return Action{kind: ActionPostProcess, PostProcess: spec}
}

// SuspendAction parks the connection until the application calls
// Resume.
var SuspendAction = Action{kind: ActionSuspend}

// AbortAction transitions the connection directly to pre-close.
var AbortAction = Action{kind: ActionAbort}

// UploadActionKind tags the variant returned from an upload callback.
type UploadActionKind uint8

const (
	UploadContinue UploadActionKind = iota
	UploadRespond
	UploadSuspend
	UploadAbort_
)

// UploadAction is the upload callback's decision after seeing a chunk
// (or the final zero-size call).
type UploadAction struct {
	kind UploadActionKind
	// Response holds the queued reply when Kind==UploadRespond; opaque
	// *response.Response, as in Action.Response.
	Response any
}

func (u UploadAction) Kind() UploadActionKind { return u.kind }

var ContinueUpload = UploadAction{kind: UploadContinue}
var SuspendUpload = UploadAction{kind: UploadSuspend}
var AbortUpload = UploadAction{kind: UploadAbort_}

func RespondUpload(resp any) UploadAction {
	return UploadAction{kind: UploadRespond, Response: resp}
}
