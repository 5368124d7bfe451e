package gomhd

import (
	"errors"
	"net"
	"testing"
	"time"

	"github.com/nabbar/gomhd/certtls"
	"github.com/nabbar/gomhd/conn"
	"github.com/nabbar/gomhd/ready"
	"github.com/nabbar/gomhd/request"
	"github.com/nabbar/gomhd/response"
	"github.com/nabbar/gomhd/types"
)

type fakeAddr struct{}

func (fakeAddr) Network() string { return "tcp" }
func (fakeAddr) String() string  { return "127.0.0.1:0" }

type fakeConn struct {
	net.Conn
	readData []byte
	written  []byte
}

func (f *fakeConn) Read(p []byte) (int, error) {
	if len(f.readData) == 0 {
		return 0, nil
	}
	n := copy(p, f.readData)
	f.readData = f.readData[n:]
	return n, nil
}

func (f *fakeConn) Write(p []byte) (int, error) {
	f.written = append(f.written, p...)
	return len(p), nil
}

func (f *fakeConn) Close() error         { return nil }
func (f *fakeConn) RemoteAddr() net.Addr { return fakeAddr{} }
func (f *fakeConn) LocalAddr() net.Addr  { return fakeAddr{} }

func newTestDaemon() *daemon {
	return &daemon{
		cfg:         Config{Strictness: types.StrictDefault, IncludeErrorBody: true},
		conns:       make(map[types.Handle]*conn.Connection),
		uploadSpecs: make(map[types.Handle]types.UploadSpec),
		procReady:   ready.NewProcessReady(),
		timeouts:    ready.NewTimeoutList(),
		all:         ready.NewList(),
	}
}

func newTestConn(t *testing.T, d *daemon, data []byte, h types.Handle) (*conn.Connection, *fakeConn) {
	t.Helper()
	fc := &fakeConn{readData: data}
	tr := certtls.WrapPlain(fc)
	c := conn.New(tr, 3, 4096, time.Minute)
	c.Handle = h
	d.conns[h] = c
	d.all.PushBack(h)
	return c, fc
}

func TestConsumeLineTerminator(t *testing.T) {
	cases := []struct {
		in     string
		wantN  uint32
		wantOK bool
	}{
		{"\r\n rest", 2, true},
		{"\n rest", 1, true},
		{"\r", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		n, ok := consumeLineTerminator([]byte(tc.in))
		if n != tc.wantN || ok != tc.wantOK {
			t.Fatalf("consumeLineTerminator(%q) = (%d, %v), want (%d, %v)", tc.in, n, ok, tc.wantN, tc.wantOK)
		}
	}
}

func TestSendErrorMarksReadyAndQueuesReply(t *testing.T) {
	d := newTestDaemon()
	c, _ := newTestConn(t, d, nil, 1)

	d.sendError(c, 404)

	if c.State != types.StartReply {
		t.Fatalf("expected StartReply, got %v", c.State)
	}
	if c.Wait != ready.WaitSend {
		t.Fatalf("expected WaitSend after sendError, got %v", c.Wait)
	}
	if !d.procReady.Contains(c.Handle) {
		t.Fatal("expected handle to be marked process-ready")
	}
	if c.Reuse != types.MustClose {
		t.Fatal("expected error reply to force MustClose")
	}
}

func TestSendErrorReportsURILogOnceWithOriginalRequest(t *testing.T) {
	d := newTestDaemon()
	c, _ := newTestConn(t, d, nil, 1)

	req := request.New(types.StrictDefault)
	req.MethodRaw = "GET"
	req.RawTarget = "/broken"
	c.Request = req
	d.reqStart = map[types.Handle]time.Time{c.Handle: time.Now()}

	var gotMethod, gotURI string
	var gotCode int
	var calls int
	d.cfg.URILog = func(method, uri string, code int, elapsed time.Duration) {
		calls++
		gotMethod, gotURI, gotCode = method, uri, code
	}

	d.sendError(c, 400)

	if calls != 1 {
		t.Fatalf("expected exactly one URILog call, got %d", calls)
	}
	if gotMethod != "GET" || gotURI != "/broken" || gotCode != 400 {
		t.Fatalf("expected (GET, /broken, 400), got (%s, %s, %d)", gotMethod, gotURI, gotCode)
	}
	if _, ok := d.reqStart[c.Handle]; ok {
		t.Fatal("expected the reqStart marker to be consumed")
	}

	// processReply would otherwise try to log the same completed
	// exchange again; logURI must be a no-op the second time.
	d.logURI(c, d.req(c), 400)
	if calls != 1 {
		t.Fatalf("expected logURI to be a no-op once reqStart is consumed, got %d calls", calls)
	}
}

func TestApplyUploadActionRespondQueuesReplyAndClearsSpec(t *testing.T) {
	d := newTestDaemon()
	c, _ := newTestConn(t, d, nil, 1)
	d.uploadSpecs[c.Handle] = types.UploadSpec{}

	resp := response.NewBuffer(200, []byte("ok"))
	cont := d.applyUploadAction(c, types.RespondUpload(resp))

	if cont {
		t.Fatal("expected RespondUpload to stop the pump")
	}
	if _, ok := d.uploadSpecs[c.Handle]; ok {
		t.Fatal("expected upload spec to be cleared on respond")
	}
	if c.State != types.StartReply {
		t.Fatalf("expected StartReply, got %v", c.State)
	}
}

func TestApplyUploadActionSuspendKeepsSpec(t *testing.T) {
	d := newTestDaemon()
	c, _ := newTestConn(t, d, nil, 1)
	d.uploadSpecs[c.Handle] = types.UploadSpec{}

	cont := d.applyUploadAction(c, types.SuspendUpload)

	if cont {
		t.Fatal("expected SuspendUpload to stop the pump")
	}
	if _, ok := d.uploadSpecs[c.Handle]; !ok {
		t.Fatal("expected upload spec to survive a suspend, for a later Resume")
	}
	if !c.Suspended {
		t.Fatal("expected connection to be marked suspended")
	}
}

func TestApplyUploadActionContinue(t *testing.T) {
	d := newTestDaemon()
	c, _ := newTestConn(t, d, nil, 1)

	if !d.applyUploadAction(c, types.ContinueUpload) {
		t.Fatal("expected ContinueUpload to let the pump proceed")
	}
}

func TestPumpUploadIncrementalDelivery(t *testing.T) {
	d := newTestDaemon()
	c, _ := newTestConn(t, d, []byte("hello"), 1)

	if !c.EnsureReadBuffer() {
		t.Fatal("EnsureReadBuffer failed")
	}
	rr := c.Recv()
	if rr.HasErr {
		t.Fatalf("unexpected recv error: %v", rr.Err)
	}

	req := request.New(types.StrictDefault)
	req.ContentLength = 5
	c.Request = req

	var got []byte
	var finalCalls int
	spec := types.UploadSpec{
		IncrementalCB: func(size uint64, chunk []byte) types.UploadAction {
			if size == 0 {
				finalCalls++
				return types.ContinueUpload
			}
			got = append(got, chunk...)
			return types.ContinueUpload
		},
	}
	d.uploadSpecs[c.Handle] = spec

	if !d.pumpUpload(c) {
		t.Fatal("expected pumpUpload to report completion")
	}
	if string(got) != "hello" {
		t.Fatalf("expected %q delivered incrementally, got %q", "hello", got)
	}
	if finalCalls != 1 {
		t.Fatalf("expected exactly one terminal call, got %d", finalCalls)
	}
	if c.State != types.StartReply {
		t.Fatalf("expected StartReply, got %v", c.State)
	}
	if _, ok := d.uploadSpecs[c.Handle]; ok {
		t.Fatal("expected upload spec to be cleared once delivered")
	}
}

func TestPumpUploadBuffersWholeBodyForFullCB(t *testing.T) {
	d := newTestDaemon()
	c, _ := newTestConn(t, d, []byte("buffered"), 1)

	if !c.EnsureReadBuffer() {
		t.Fatal("EnsureReadBuffer failed")
	}
	rr := c.Recv()
	if rr.HasErr {
		t.Fatalf("unexpected recv error: %v", rr.Err)
	}

	req := request.New(types.StrictDefault)
	req.ContentLength = 8
	c.Request = req

	var gotSize uint64
	var gotData []byte
	spec := types.UploadSpec{
		MaxBuffered: 64,
		FullCB: func(size uint64, data []byte) types.UploadAction {
			gotSize = size
			gotData = append([]byte(nil), data...)
			return types.ContinueUpload
		},
	}
	d.uploadSpecs[c.Handle] = spec

	if !d.pumpUpload(c) {
		t.Fatal("expected pumpUpload to report completion")
	}
	if gotSize != 8 || string(gotData) != "buffered" {
		t.Fatalf("expected whole body %q (size 8), got %q (size %d)", "buffered", gotData, gotSize)
	}
	if _, ok := d.uploadBuf[c.Handle]; ok {
		t.Fatal("expected the accumulation buffer to be dropped once delivered")
	}
}

func TestPumpChunkedStepConsumesTrailingCRLF(t *testing.T) {
	d := newTestDaemon()
	c, _ := newTestConn(t, d, nil, 1)

	req := request.New(types.StrictDefault)
	req.HaveChunked = true
	req.StartChunk(5)

	avail := []byte("hello\r\n0\r\n\r\n")
	spec := types.UploadSpec{}

	if !d.pumpChunkedStep(c, req, spec, &avail) {
		t.Fatal("expected chunk-data step to consume the 5 declared bytes")
	}
	if !d.chunkTerm[c.Handle] {
		t.Fatal("expected the trailing CRLF to be flagged as pending")
	}
	if string(avail) != "\r\n0\r\n\r\n" {
		t.Fatalf("expected data bytes consumed, terminator left pending, got %q", avail)
	}

	if !d.pumpChunkedStep(c, req, spec, &avail) {
		t.Fatal("expected the terminator step to succeed")
	}
	if d.chunkTerm[c.Handle] {
		t.Fatal("expected the pending-terminator flag to clear")
	}
	if string(avail) != "0\r\n\r\n" {
		t.Fatalf("expected only the CRLF consumed, got %q", avail)
	}
}

func TestGrowOrRejectSendsURITooLongForOversizedRequestLine(t *testing.T) {
	d := newTestDaemon()
	d.cfg.PoolSize = 1

	fc := &fakeConn{readData: []byte("G")}
	tr := certtls.WrapPlain(fc)
	c := conn.New(tr, 3, 1, time.Minute)
	c.Handle = 1
	d.conns[c.Handle] = c
	d.all.PushBack(c.Handle)

	d.processRequest(c)

	if c.State != types.StartReply {
		t.Fatalf("expected StartReply, got %v", c.State)
	}
	reply, ok := c.Reply.(*response.Reply)
	if !ok || reply == nil {
		t.Fatalf("expected a queued reply, got %#v", c.Reply)
	}
	if reply.Resp.Status != 414 {
		t.Fatalf("expected 414 URI Too Long, got %d", reply.Resp.Status)
	}
}

func TestGrowOrRejectSendsGenericFallthroughForOversizedHeaderLine(t *testing.T) {
	d := newTestDaemon()
	d.cfg.PoolSize = 1

	fc := &fakeConn{}
	tr := certtls.WrapPlain(fc)
	c := conn.New(tr, 3, 1, time.Minute)
	c.Handle = 1
	d.conns[c.Handle] = c
	d.all.PushBack(c.Handle)

	if !c.EnsureReadBuffer() {
		t.Fatal("expected the initial 1-byte allocation to succeed")
	}
	c.Read.Append = c.Read.Size

	r := d.req(c)
	r.URISize = 10
	r.FieldLineSize = 10

	buf := c.Pool.Slice(c.Read.Ptr, c.Read.Size)[c.Read.Offset:c.Read.Append]
	if d.growOrReject(c, r, request.PhaseHeaders, buf) {
		t.Fatal("expected growOrReject to fail to grow a fully-used 1-byte pool")
	}
	if c.State != types.StartReply {
		t.Fatalf("expected StartReply, got %v", c.State)
	}
	reply, ok := c.Reply.(*response.Reply)
	if !ok || reply == nil {
		t.Fatalf("expected a queued reply, got %#v", c.Reply)
	}
	if reply.Resp.Status != 501 {
		t.Fatalf("expected the generic header/URI threshold fallthrough (501), got %d", reply.Resp.Status)
	}
}

func TestProcessRequestRedirectsWhitespaceInTarget(t *testing.T) {
	d := newTestDaemon()
	d.cfg.Strictness = types.LenientWhitespaceInURI
	c, _ := newTestConn(t, d, []byte("GET /foo bar HTTP/1.1\r\n\r\n"), 1)

	d.processRequest(c)

	if c.State != types.StartReply {
		t.Fatalf("expected StartReply, got %v", c.State)
	}
	if c.Reuse != types.MustClose {
		t.Fatal("expected the connection forced closed after a redirect")
	}
	reply, ok := c.Reply.(*response.Reply)
	if !ok || reply == nil {
		t.Fatalf("expected a queued reply, got %#v", c.Reply)
	}
	if reply.Resp.Status != 301 {
		t.Fatalf("expected 301, got %d", reply.Resp.Status)
	}
	if len(reply.Resp.Headers()) != 1 {
		t.Fatalf("expected exactly one response header (Location), got %d", len(reply.Resp.Headers()))
	}
}

func TestDispatchToHandlerSends100ContinueBeforeUpload(t *testing.T) {
	d := newTestDaemon()
	c, fc := newTestConn(t, d, nil, 1)

	d.fn = func(ctx RequestContext) types.Action {
		return types.NewUploadAction(types.UploadSpec{
			IncrementalCB: func(size uint64, chunk []byte) types.UploadAction {
				return types.ContinueUpload
			},
		})
	}

	r := request.New(types.StrictDefault)
	r.Version = types.Version11
	r.ExpectContinue = true
	r.ContentLength = 4

	d.dispatchToHandler(c, r)

	if !r.ContinueSent {
		t.Fatal("expected ContinueSent to be set once the interim response is written")
	}
	if string(fc.written) != "HTTP/1.1 100 Continue\r\n\r\n" {
		t.Fatalf("expected the interim response on the wire, got %q", fc.written)
	}
	if c.State != types.BodyReceiving {
		t.Fatalf("expected BodyReceiving, got %v", c.State)
	}
}

func TestDispatchToHandlerSkipsContinueWithoutExpectHeader(t *testing.T) {
	d := newTestDaemon()
	c, fc := newTestConn(t, d, nil, 1)

	d.fn = func(ctx RequestContext) types.Action {
		return types.NewUploadAction(types.UploadSpec{
			IncrementalCB: func(size uint64, chunk []byte) types.UploadAction {
				return types.ContinueUpload
			},
		})
	}

	r := request.New(types.StrictDefault)
	r.Version = types.Version11
	r.ContentLength = 4

	d.dispatchToHandler(c, r)

	if r.ContinueSent {
		t.Fatal("expected ContinueSent to stay false without Expect: 100-continue")
	}
	if len(fc.written) != 0 {
		t.Fatalf("expected nothing written to the wire, got %q", fc.written)
	}
}

func TestRaisePanicDefersToConfiguredHandler(t *testing.T) {
	d := newTestDaemon()

	var got error
	d.cfg.PanicHandler = func(err error) { got = err }

	want := errors.New("handle 7 still in use")
	d.raisePanic("handle assignment collided with a live connection", want)

	if got != want {
		t.Fatalf("expected the configured PanicHandler to receive %v, got %v", want, got)
	}
}
