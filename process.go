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

package gomhd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/nabbar/gomhd/backend"
	"github.com/nabbar/gomhd/conn"
	"github.com/nabbar/gomhd/errresp"
	liblog "github.com/nabbar/gomhd/logger"
	"github.com/nabbar/gomhd/ready"
	"github.com/nabbar/gomhd/request"
	"github.com/nabbar/gomhd/response"
	"github.com/nabbar/gomhd/types"
)

// maxWriteChunk bounds a single PumpBody call so one very large buffered
// or file body does not starve other ready connections within a turn.
const maxWriteChunk = 64 * 1024

// smallPoolCeiling is the PoolSize below which OutOfBufferStatus uses
// its relaxed small-buffer thresholds (§4.8): a pool this tight makes
// even an ordinary request line or header look oversized relative to
// the other side of the comparison.
const smallPoolCeiling = 8192

// loop is the worker-loop goroutine runner.New drives: one pass over
// the readiness backend, accept pacing, resume application, and the
// per-connection state-machine dispatch, repeated until ctx is done.
func (d *daemon) loop(ctx context.Context) error {
	if err := d.prepare(); err != nil {
		return err
	}
	defer d.teardown()

	errresp.IncludeBody = d.cfg.IncludeErrorBody

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		now := time.Now()
		timeout, ok := d.timeouts.NextWaitMax(now, d.procReady.Len() > 0, d.acceptPending.Load())
		if !ok {
			timeout = backend.NoTimeout
		}

		res, err := d.be.WaitAndUpdate(timeout)
		if err != nil {
			return err
		}

		d.applyResumes()

		if res.ITCFired {
			if d.itcSig != nil {
				_ = d.itcSig.Clear()
			}
		}

		now = time.Now()
		d.updateReadiness(res, now)

		if res.AcceptPending {
			d.acceptPending.Store(true)
		}
		if !d.quiescing.Load() && (res.AcceptPending || d.acceptPending.Load()) {
			d.acceptConnections()
		}

		d.procReady.Walk(func(h types.Handle) {
			d.mu.RLock()
			c, ok := d.conns[h]
			d.mu.RUnlock()
			if !ok {
				return
			}
			d.processConnection(c)
		})

		d.expireIdle(time.Now())

		if res.ListenBroken {
			d.quiescing.Store(true)
		}
	}
}

// applyResumes clears the pending-resume flag on every connection,
// pushing any that resumed this turn onto the ready list (§4.10).
func (d *daemon) applyResumes() {
	d.mu.RLock()
	conns := make([]*conn.Connection, 0, len(d.conns))
	for _, c := range d.conns {
		conns = append(conns, c)
	}
	d.mu.RUnlock()

	for _, c := range conns {
		if c.ApplyResume() {
			d.procReady.MarkReady(c.Handle)
		}
	}
}

// updateReadiness folds the backend's observed bits into each tracked
// connection and recomputes its membership in the process-ready list.
func (d *daemon) updateReadiness(res backend.Result, now time.Time) {
	for h, bits := range res.Bits {
		d.mu.RLock()
		c, ok := d.conns[h]
		d.mu.RUnlock()
		if !ok {
			continue
		}

		c.SockBits = bits
		if c.Suspended {
			continue
		}

		forceReady := c.State >= types.StartReply && c.State < types.FullReplySent
		buffered := c.Transport != nil && c.Transport.HasBufferedReadBytes()
		d.procReady.Update(h, bits, c.Wait, forceReady, buffered)
		d.timeouts.Touch(h, now, c.IdleTimeout)
	}
}

// expireIdle closes every connection whose idle timeout has elapsed.
func (d *daemon) expireIdle(now time.Time) {
	for _, h := range d.timeouts.Expired(now) {
		d.mu.RLock()
		c, ok := d.conns[h]
		d.mu.RUnlock()
		if !ok {
			continue
		}
		d.closeConnection(c, types.CloseTimeout)
	}
}

// raisePanic reports an invariant the worker loop cannot safely
// recover from - a colliding handle assignment, which would otherwise
// silently merge two unrelated connections' state under one map entry
// (§4.3's process_ready list and §4.1's per-connection pool both key
// off the handle): it logs the error at fatal, then hands it to the
// application's PanicHandler if one is configured, or exits otherwise.
func (d *daemon) raisePanic(msg string, err error) {
	d.entry(liblog.FatalLevel, msg).ErrorAdd(err).Check(liblog.NilLevel)
	if d.cfg.PanicHandler != nil {
		d.cfg.PanicHandler(err)
		return
	}
	os.Exit(1)
}

// acceptConnections pulls as many pending connections off the listener
// as AcceptBurst allows for the configured work mode, wiring each one
// into the connection table and the readiness backend.
func (d *daemon) acceptConnections() {
	d.mu.RLock()
	n := len(d.conns)
	d.mu.RUnlock()

	burst := conn.AcceptBurst(d.cfg.WorkMode, n, d.cfg.ConnLimit, d.cfg.Workers)

	for i := 0; i < burst; i++ {
		nc, err := d.ln.Accept()
		if err != nil {
			d.acceptPending.Store(false)
			return
		}

		fd, err := rawFD(nc)
		if err != nil {
			_ = nc.Close()
			continue
		}
		if d.cfg.TCPNoDelay {
			_ = applyNoDelay(fd, true)
		}
		if d.cfg.TCPCork {
			_ = applyCork(fd, true)
		}

		transport := d.wrapTransport(nc)
		c := conn.New(transport, fd, d.cfg.PoolSize, d.cfg.IdleTimeout)

		if d.cfg.TCPNoDelay {
			c.NoDelay = conn.TriOn
		}
		if d.cfg.TCPCork {
			c.Corked = conn.TriOn
		}

		d.mu.Lock()
		d.nextHandle++
		h := d.nextHandle
		if _, collided := d.conns[h]; collided {
			d.mu.Unlock()
			d.raisePanic("handle assignment collided with a live connection", fmt.Errorf("handle %d still in use", h))
			_ = nc.Close()
			continue
		}
		c.Handle = h
		d.conns[h] = c
		d.mu.Unlock()

		d.all.PushBack(h)
		d.timeouts.Touch(h, time.Now(), c.IdleTimeout)

		if err := d.be.Register(backend.Target{Kind: backend.KindConnection, Handle: h, Fd: fd, Wait: ready.WaitRecv}); err != nil {
			d.closeConnection(c, types.CloseSocketError)
			continue
		}

		c.State = types.ReqLineReceiving
		if fn := d.cfg.NotifyConn; fn != nil {
			fn(ConnAccepted, nc.RemoteAddr().String())
		}
	}
}

// unregister removes h from the active readiness backend, satisfying
// conn.UnregisterFunc.
func (d *daemon) unregister(h types.Handle) error {
	if d.be == nil {
		return nil
	}
	return d.be.Unregister(h)
}

// closeConnection runs PreClose/FinalClose, drops the connection from
// every list the daemon keeps, and reports it to NotifyConn.
func (d *daemon) closeConnection(c *conn.Connection, reason types.CloseReason) {
	remote := ""
	if c.Transport != nil {
		remote = c.Transport.RemoteAddr().String()
	}

	c.PreClose(reason, d.all, d.unregister, nil)
	_ = c.FinalClose()

	d.procReady.MarkUnready(c.Handle)
	d.timeouts.Remove(c.Handle)
	delete(d.uploadSpecs, c.Handle)
	delete(d.uploadBuf, c.Handle)
	delete(d.chunkTerm, c.Handle)
	delete(d.reqStart, c.Handle)

	d.mu.Lock()
	delete(d.conns, c.Handle)
	d.mu.Unlock()

	if fn := d.cfg.NotifyConn; fn != nil {
		fn(ConnClosed, remote)
	}
}

// processConnection advances c through exactly one useful step of the
// request/reply state machine; it is called once per turn for every
// connection the readiness backend reported progress on.
func (d *daemon) processConnection(c *conn.Connection) {
	switch {
	case c.State < types.StartReply:
		d.processRequest(c)
	case c.State < types.FullReplySent:
		d.processReply(c)
	}
}

func (d *daemon) req(c *conn.Connection) *request.Request {
	r, _ := c.Request.(*request.Request)
	if r == nil {
		r = request.New(d.cfg.Strictness)
		c.Request = r
	}
	return r
}

// logURI reports a completed request to the application's URILog
// callback, if one is configured, and clears the start-time marker
// processRequest recorded for it.
func (d *daemon) logURI(c *conn.Connection, req *request.Request, status int) {
	if d.cfg.URILog == nil {
		return
	}
	start, ok := d.reqStart[c.Handle]
	delete(d.reqStart, c.Handle)
	if !ok {
		return
	}
	d.cfg.URILog(req.MethodRaw, req.RawTarget, status, time.Since(start))
}

// processRequest drives request-line/header/body parsing and, once
// headers are fully processed, invokes the application's handler.
func (d *daemon) processRequest(c *conn.Connection) {
	if c.SockBits&ready.SockErrReady != 0 {
		d.closeConnection(c, types.CloseSocketError)
		return
	}

	if !c.EnsureReadBuffer() && c.Read.Size == 0 {
		d.sendError(c, 500)
		return
	}

	rr := c.Recv()
	if rr.HasErr {
		d.closeConnection(c, types.CloseSocketError)
		return
	}
	if rr.ShutWr && c.Read.Append == c.Read.Offset {
		d.closeConnection(c, types.CloseClientShutdown)
		return
	}

	r := d.req(c)

	if d.cfg.URILog != nil {
		if _, ok := d.reqStart[c.Handle]; !ok {
			if d.reqStart == nil {
				d.reqStart = make(map[types.Handle]time.Time)
			}
			d.reqStart[c.Handle] = time.Now()
		}
	}

	for {
		buf := c.Pool.Slice(c.Read.Ptr, c.Read.Size)[c.Read.Offset:c.Read.Append]

		switch {
		case c.State == types.ReqLineReceiving || c.State == types.Init:
			c.State = types.ReqLineReceiving
			consumed, needMore, err := r.ParseRequestLine(buf)
			if err != nil {
				d.sendError(c, 400)
				return
			}
			if needMore {
				d.growOrReject(c, r, request.PhaseURI, buf)
				return
			}
			c.Read.Offset += uint32(consumed)
			if r.RedirectTarget != "" {
				d.sendRedirect(c, r)
				return
			}
			c.State = types.ReqHeadersReceiving

		case c.State == types.ReqHeadersReceiving:
			consumed, done, needMore, err := r.ParseHeaderLine(buf, types.FieldHeader)
			if err != nil {
				d.sendError(c, 400)
				return
			}
			if needMore {
				d.growOrReject(c, r, request.PhaseHeaders, buf)
				return
			}
			c.Read.Offset += uint32(consumed)
			if done {
				if err := r.FinalizeHeaders(); err != nil {
					d.sendError(c, 400)
					return
				}
				c.CompactReadBuffer()
				d.dispatchToHandler(c, r)
				return
			}

		case c.State == types.BodyReceiving:
			// the bytes just received belong to an upload the handler
			// asked for; processReply pumps them before its reply.
			d.processReply(c)
			return

		default:
			return
		}
	}
}

// growOrReject tries to grow the read buffer when a parse step needs
// more bytes than are currently buffered; if growth fails, the status
// OutOfBufferStatus selects for phase is sent instead of a blanket 413,
// so an oversized request line comes back as 414 rather than being
// indistinguishable from an oversized header block (§4.8).
func (d *daemon) growOrReject(c *conn.Connection, r *request.Request, phase request.OutOfBufferPhase, buf []byte) bool {
	if c.Read.Append < c.Read.Size {
		// buffer has room, just needs another recv next turn
		return true
	}
	if c.EnsureReadBuffer() {
		return true
	}

	status, abort := request.OutOfBufferStatus(
		phase,
		request.LooksLikeMethod(buf),
		r.HeaderSizeForOutOfBuffer(),
		r.URISize,
		request.ChunkSizeLine{},
		d.cfg.PoolSize <= smallPoolCeiling,
	)
	if abort {
		d.closeConnection(c, types.CloseRequestError)
		return false
	}
	d.sendError(c, status)
	return false
}

// dispatchToHandler builds the RequestContext, invokes the
// application's FuncHandler, and dispatches the returned Action.
func (d *daemon) dispatchToHandler(c *conn.Connection, r *request.Request) {
	fn := d.handler()
	if fn == nil {
		d.sendError(c, 500)
		return
	}

	remote := ""
	if c.Transport != nil {
		remote = c.Transport.RemoteAddr().String()
	}

	ctx := RequestContext{
		Method:        r.Method,
		MethodRaw:     r.MethodRaw,
		Target:        r.Target,
		Version:       r.Version,
		ContentLength: r.ContentLength,
		Chunked:       r.HaveChunked,
		RemoteAddr:    remote,
		Fields:        &r.Fields,
	}

	act := fn(ctx)
	if act.Kind() == types.ActionUpload && r.ExpectContinue && !r.ContinueSent {
		// The client is holding the body back until it sees this (§4.7);
		// it has to go out before any body bytes are pumped, and before
		// the final reply, so it bypasses the reply queue entirely.
		d.sendContinue(c)
		r.ContinueSent = true
	}

	d.dispatchAction(c, act)
}

// sendContinue writes the "100 Continue" interim response directly to
// the transport. Best effort: on a fresh connection the write buffer is
// empty and 25 bytes never partially writes in practice, and a client
// that never sees it simply sends the body unprompted instead (§4.7
// leaves the interim response advisory, not a precondition for reading
// the body).
func (d *daemon) sendContinue(c *conn.Connection) {
	buf := []byte("HTTP/1.1 100 Continue\r\n\r\n")
	for len(buf) > 0 {
		n, err := c.Transport.Write(buf)
		if n > 0 {
			buf = buf[n:]
		}
		if err != nil {
			return
		}
	}
}

// dispatchAction applies the application's chosen Action to c.
func (d *daemon) dispatchAction(c *conn.Connection, act types.Action) {
	switch act.Kind() {
	case types.ActionResponse:
		d.queueResponse(c, act.Response)

	case types.ActionUpload:
		d.uploadSpecs[c.Handle] = act.Upload
		c.State = types.BodyReceiving
		d.procReady.MarkReady(c.Handle)

	case types.ActionPostProcess:
		d.sendError(c, 501)

	case types.ActionSuspend:
		c.Suspend()

	case types.ActionAbort:
		d.closeConnection(c, types.CloseApplicationAbort)

	default:
		d.sendError(c, 500)
	}
}

// queueResponse wires resp as c's reply. If the request carries an
// undrained body (no upload was ever requested for it), the connection
// is marked discard - response.KeepAlive then forces it closed once the
// reply has drained rather than requiring the body to be read first.
func (d *daemon) queueResponse(c *conn.Connection, resp any) {
	r, _ := resp.(*response.Response)
	if r == nil {
		d.sendError(c, 500)
		return
	}

	if req := d.req(c); req.BodyDeclared() && !req.BodyComplete() {
		c.DiscardRequest = true
	}

	c.ResetWriteWindow()
	c.Reply = response.NewReply(r)
	c.State = types.StartReply
	d.watchSend(c)
	d.procReady.MarkReady(c.Handle)
}

// watchSend registers c's readiness interest for writability, so the
// backend wakes the worker loop once the socket can take more of the
// reply even if the connection never again reports anything to read.
func (d *daemon) watchSend(c *conn.Connection) {
	c.Wait = ready.WaitSend
	if d.be != nil {
		_ = d.be.UpdateWait(c.Handle, c.Wait)
	}
}

// watchRecv reverts c's readiness interest to read-only, for a
// connection that just finished a reply and is back to waiting on its
// next request.
func (d *daemon) watchRecv(c *conn.Connection) {
	c.Wait = ready.WaitRecv
	if d.be != nil {
		_ = d.be.UpdateWait(c.Handle, c.Wait)
	}
}

// sendError queues a canned error reply for c and registers it for
// write-readiness, so the backend wakes the worker loop for it the same
// way a normal application response would.
func (d *daemon) sendError(c *conn.Connection, status int) {
	// errresp.Apply discards whatever request was in flight, so the
	// access-log line for an error reply has to be captured here, with
	// the real method/target still attached, rather than left to
	// processReply's completion path.
	d.logURI(c, d.req(c), status)
	errresp.Apply(c, status)
	d.watchSend(c)
	d.procReady.MarkReady(c.Handle)
}

// sendRedirect queues a 301 to r.RedirectTarget, the policy response to
// a request line whose target carried raw whitespace under
// LenientWhitespaceInURI without LenientKeepURIWhitespace (§4.7). The
// rest of the request (headers, any body) is never read; the
// connection is forced closed once the redirect drains, the same as a
// canned error reply.
func (d *daemon) sendRedirect(c *conn.Connection, r *request.Request) {
	d.logURI(c, r, 301)

	resp := response.NewBuffer(301, nil)
	_ = resp.AddHeader("Location", r.RedirectTarget)

	c.DiscardRequest = true
	c.Reuse = types.MustClose
	c.Request = nil
	c.Reply = response.NewReply(resp)
	c.State = types.StartReply

	d.watchSend(c)
	d.procReady.MarkReady(c.Handle)
}

// processReply drains an in-flight request body when the application
// opted into upload delivery, then formats and pumps the queued reply.
func (d *daemon) processReply(c *conn.Connection) {
	if c.State < types.StartReply && c.State != types.BodyReceiving {
		return
	}

	if c.State == types.BodyReceiving {
		if !d.pumpUpload(c) {
			return
		}
	}

	rp, _ := c.Reply.(*response.Reply)
	if rp == nil {
		d.closeConnection(c, types.CloseRequestError)
		return
	}

	req := d.req(c)
	mustClose := req.MustClose || c.Reuse == types.MustClose

	if !rp.HeadersFormatted {
		if !rp.FormatHeaders(c, req.Version, mustClose, time.Now()) {
			d.procReady.MarkReady(c.Handle)
			return
		}
	}

	for !rp.Done() {
		step, err := rp.PumpBody(c, maxWriteChunk)
		if err != nil {
			d.closeConnection(c, types.CloseSocketError)
			return
		}
		if step.WouldBlock {
			c.Suspend()
			return
		}
		if c.Write.Append-c.Write.Offset > 0 {
			break
		}
	}

	sr := c.Send(rp.Done())
	if sr.HasErr {
		d.closeConnection(c, types.CloseSocketError)
		return
	}

	if c.Write.Offset < c.Write.Append {
		d.procReady.MarkReady(c.Handle)
		return
	}
	c.ResetWriteWindow()

	if !rp.Done() {
		d.procReady.MarkReady(c.Handle)
		return
	}

	bodyCompleted := !req.BodyDeclared() || req.BodyComplete()
	keepAlive := response.KeepAlive(mustClose, bodyCompleted, c.DiscardRequest, d.quiescing.Load())

	d.logURI(c, req, rp.Resp.Status)

	if !keepAlive {
		d.closeConnection(c, types.CloseNone)
		return
	}

	c.Reply = nil
	c.Request = nil
	c.CompactReadBuffer()
	c.State = types.ReqLineReceiving
	d.watchRecv(c)
	d.procReady.MarkReady(c.Handle)
}

// applyUploadAction applies the decision an upload callback returned
// after seeing a chunk (or the terminal zero-size call): UploadContinue
// lets pumpUpload keep going, UploadRespond/UploadAbort end the transfer
// right there (queuing the given reply, or aborting the connection),
// and UploadSuspend parks the connection without discarding the upload
// spec, since a later Resume should pick the delivery back up where it
// left off.
func (d *daemon) applyUploadAction(c *conn.Connection, act types.UploadAction) bool {
	switch act.Kind() {
	case types.UploadRespond:
		delete(d.uploadSpecs, c.Handle)
		delete(d.uploadBuf, c.Handle)
		d.queueResponse(c, act.Response)
		return false
	case types.UploadAbort_:
		delete(d.uploadSpecs, c.Handle)
		delete(d.uploadBuf, c.Handle)
		d.closeConnection(c, types.CloseApplicationAbort)
		return false
	case types.UploadSuspend:
		c.Suspend()
		return false
	default:
		return true
	}
}

// pumpUpload feeds buffered and newly-received body bytes to whichever
// upload callback the application registered, returning true once the
// body is fully delivered and c is ready to move on to its reply. A
// fixed-length body within spec.MaxBuffered and delivered via FullCB is
// accumulated whole rather than handed to IncrementalCB piecemeal.
func (d *daemon) pumpUpload(c *conn.Connection) bool {
	req := d.req(c)
	spec := d.uploadSpecs[c.Handle]
	buffering := request.ShouldBuffer(spec, req.ContentLength, req.HaveChunked)

	buf := c.Pool.Slice(c.Read.Ptr, c.Read.Size)

	for c.Read.Offset < c.Read.Append && !req.BodyComplete() {
		avail := buf[c.Read.Offset:c.Read.Append]

		if req.HaveChunked {
			cont := d.pumpChunkedStep(c, req, spec, &avail)
			if c.State != types.BodyReceiving {
				return false
			}
			if !cont {
				break
			}
			continue
		}

		remaining := req.BodyRemaining()
		n := uint32(len(avail))
		if uint64(n) > remaining {
			n = uint32(remaining)
		}
		if n == 0 {
			break
		}

		if buffering {
			if d.uploadBuf == nil {
				d.uploadBuf = make(map[types.Handle][]byte)
			}
			d.uploadBuf[c.Handle] = append(d.uploadBuf[c.Handle], avail[:n]...)
		} else if spec.IncrementalCB != nil {
			if !d.applyUploadAction(c, spec.IncrementalCB(uint64(n), avail[:n])) {
				return false
			}
		}
		req.ConsumeFixedBytes(uint64(n))
		c.Read.Offset += n
	}

	if !req.BodyComplete() {
		c.CompactReadBuffer()
		if !c.EnsureReadBuffer() {
			d.rejectBodyOverflow(c, req)
		}
		return false
	}

	if buffering {
		data := d.uploadBuf[c.Handle]
		delete(d.uploadBuf, c.Handle)
		if spec.FullCB != nil {
			if !d.applyUploadAction(c, spec.FullCB(uint64(len(data)), data)) {
				return false
			}
		}
	} else if spec.IncrementalCB != nil {
		if !d.applyUploadAction(c, spec.IncrementalCB(0, nil)) {
			return false
		}
	}

	c.State = types.StartReply
	delete(d.uploadSpecs, c.Handle)
	return true
}

// rejectBodyOverflow picks the out-of-buffer status for a body that
// still cannot complete once the pool refuses to grow further. A
// framing element caught mid-assembly - a chunk-size line or a trailer
// line - goes through the same phase/size decision as a stalled header
// line (§4.8); plain body bytes that simply do not fit the pool are
// unambiguously 413, since there is no URI-vs-header distinction left
// to make about them.
func (d *daemon) rejectBodyOverflow(c *conn.Connection, req *request.Request) {
	if !req.HaveChunked {
		d.sendError(c, 413)
		return
	}

	avail := c.Pool.Slice(c.Read.Ptr, c.Read.Size)[c.Read.Offset:c.Read.Append]
	smallBuffer := d.cfg.PoolSize <= smallPoolCeiling

	var status int
	var abort bool
	switch {
	case req.InTrailers:
		status, abort = request.OutOfBufferStatus(request.PhaseHeaders, true, req.HeaderSizeForOutOfBuffer(), req.URISize, request.ChunkSizeLine{}, smallBuffer)
	case req.ChunkRemaining == 0 && !d.chunkTerm[c.Handle]:
		status, abort = request.OutOfBufferStatus(request.PhaseChunkSizeLine, true, uint32(len(avail)), req.URISize, request.PartialChunkExtension(avail), smallBuffer)
	default:
		d.sendError(c, 413)
		return
	}

	if abort {
		d.closeConnection(c, types.CloseRequestError)
		return
	}
	d.sendError(c, status)
}

// pumpChunkedStep advances chunked-body parsing by exactly one chunk
// framing element (data-trailing CRLF, size line, data, or trailers); it
// reports false when the current buffer has no more complete elements
// to consume.
func (d *daemon) pumpChunkedStep(c *conn.Connection, req *request.Request, spec types.UploadSpec, avail *[]byte) bool {
	if req.InTrailers {
		consumed, done, needMore, err := req.ParseHeaderLine(*avail, types.FieldFooter)
		if err != nil {
			d.sendError(c, 400)
			return false
		}
		if needMore {
			return false
		}
		c.Read.Offset += uint32(consumed)
		*avail = (*avail)[consumed:]
		return !done
	}

	if d.chunkTerm[c.Handle] {
		n, ok := consumeLineTerminator(*avail)
		if !ok {
			return false
		}
		c.Read.Offset += n
		*avail = (*avail)[n:]
		delete(d.chunkTerm, c.Handle)
		return true
	}

	if req.ChunkRemaining == 0 {
		line, consumed, needMore, err := req.ParseChunkSizeLine(*avail)
		if err != nil {
			d.sendError(c, 400)
			return false
		}
		if needMore {
			return false
		}
		c.Read.Offset += uint32(consumed)
		*avail = (*avail)[consumed:]
		req.StartChunk(line.Size)
		return true
	}

	n := uint32(len(*avail))
	if uint64(n) > req.ChunkRemaining {
		n = uint32(req.ChunkRemaining)
	}
	if n == 0 {
		return false
	}

	if spec.IncrementalCB != nil {
		if !d.applyUploadAction(c, spec.IncrementalCB(uint64(n), (*avail)[:n])) {
			return false
		}
	}
	req.ConsumeChunkBytes(uint64(n))
	c.Read.Offset += n
	*avail = (*avail)[n:]

	if req.ChunkRemaining == 0 {
		// every non-terminating chunk's data is followed by a CRLF the
		// size/remaining accounting doesn't model as payload.
		if d.chunkTerm == nil {
			d.chunkTerm = make(map[types.Handle]bool)
		}
		d.chunkTerm[c.Handle] = true
	}
	return true
}

// consumeLineTerminator strips a leading CRLF (or bare LF) from buf,
// reporting how many bytes it took; ok is false if buf does not yet
// hold a full terminator.
func consumeLineTerminator(buf []byte) (n uint32, ok bool) {
	if len(buf) == 0 {
		return 0, false
	}
	if buf[0] == '\r' {
		if len(buf) < 2 {
			return 0, false
		}
		if buf[1] == '\n' {
			return 2, true
		}
		return 1, true
	}
	if buf[0] == '\n' {
		return 1, true
	}
	return 0, true
}
