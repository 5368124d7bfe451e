package conn

import (
	"net"
	"syscall"
	"testing"
	"time"

	"github.com/nabbar/gomhd/certtls"
	"github.com/nabbar/gomhd/ready"
	"github.com/nabbar/gomhd/types"
)

type fakeConn struct {
	net.Conn
	readData  []byte
	readErr   error
	writeErr  error
	written   []byte
}

func (f *fakeConn) Read(p []byte) (int, error) {
	if len(f.readData) == 0 {
		if f.readErr != nil {
			return 0, f.readErr
		}
		return 0, nil
	}
	n := copy(p, f.readData)
	f.readData = f.readData[n:]
	return n, nil
}

func (f *fakeConn) Write(p []byte) (int, error) {
	if f.writeErr != nil {
		return 0, f.writeErr
	}
	f.written = append(f.written, p...)
	return len(p), nil
}

func (f *fakeConn) Close() error { return nil }

func newTestConn(t *testing.T, data []byte) (*Connection, *fakeConn) {
	t.Helper()
	fc := &fakeConn{readData: data}
	tr := certtls.WrapPlain(fc)
	c := New(tr, 3, 4096, time.Minute)
	c.Handle = 1
	return c, fc
}

func TestNewStampsDistinctTraceIDs(t *testing.T) {
	a, _ := newTestConn(t, nil)
	b, _ := newTestConn(t, nil)

	if a.TraceID == "" || b.TraceID == "" {
		t.Fatal("expected New to stamp a non-empty TraceID")
	}
	if a.TraceID == b.TraceID {
		t.Fatalf("expected distinct TraceIDs, got %q twice", a.TraceID)
	}
}

func TestRecvFillsBufferAndTouches(t *testing.T) {
	c, _ := newTestConn(t, []byte("hello"))
	if !c.EnsureReadBuffer() {
		t.Fatal("EnsureReadBuffer failed")
	}
	before := c.LastActivity
	time.Sleep(time.Millisecond)

	res := c.Recv()
	if res.HasErr {
		t.Fatalf("unexpected error: %v", res.Err)
	}
	if res.N != 5 {
		t.Fatalf("expected 5 bytes, got %d", res.N)
	}
	if !c.LastActivity.After(before) {
		t.Fatal("LastActivity not updated")
	}
}

func TestRecvZeroBytesSetsShutWr(t *testing.T) {
	c, _ := newTestConn(t, nil)
	c.EnsureReadBuffer()

	res := c.Recv()
	if !res.ShutWr || !c.RmtShutWr {
		t.Fatal("expected RmtShutWr to be set on zero-byte recv")
	}
	if res.HasErr {
		t.Fatal("zero-byte recv should not be an error")
	}
}

func TestSendWritesFromOffset(t *testing.T) {
	c, fc := newTestConn(t, nil)
	if !c.AppendWrite([]byte("world")) {
		t.Fatal("AppendWrite failed")
	}

	res := c.Send(true)
	if res.HasErr {
		t.Fatalf("unexpected error: %v", res.Err)
	}
	if string(fc.written) != "world" {
		t.Fatalf("unexpected write: %q", fc.written)
	}
	if c.Write.Offset != c.Write.Append {
		t.Fatal("expected write window fully drained")
	}
}

func TestSendOpNotSupportedOnPushIsNotAnError(t *testing.T) {
	c, fc := newTestConn(t, nil)
	c.AppendWrite([]byte("x"))
	fc.writeErr = syscall.EOPNOTSUPP

	res := c.Send(true)
	if res.HasErr {
		t.Fatal("push-hinted ENOTSUP should not surface as an error")
	}
}

func TestResetWriteWindow(t *testing.T) {
	c, _ := newTestConn(t, nil)
	c.AppendWrite([]byte("abc"))
	c.ResetWriteWindow()
	if c.Write.Offset != 0 || c.Write.Append != 0 {
		t.Fatal("expected write window reset")
	}
}

func TestAcceptBurstBlockingListenIsAlwaysOne(t *testing.T) {
	if got := AcceptBurst(WorkBlockingListen, 0, 1000, 1); got != 1 {
		t.Fatalf("expected 1, got %d", got)
	}
	if got := AcceptBurst(WorkBlockingListen, 999, 1000, 64); got != 1 {
		t.Fatalf("expected 1, got %d", got)
	}
}

func TestAcceptBurstStandaloneCapped(t *testing.T) {
	got := AcceptBurst(WorkStandalone, 0, 100000, 1)
	if got != pointerSizedStandaloneCap {
		t.Fatalf("expected capped burst %d, got %d", pointerSizedStandaloneCap, got)
	}

	got = AcceptBurst(WorkStandalone, 0, 8, 1)
	if got < 1 {
		t.Fatal("expected at least 1")
	}
}

func TestAcceptBurstThreadPoolNeverLessThanOne(t *testing.T) {
	got := AcceptBurst(WorkThreadPool, 999, 1000, 8)
	if got < 1 {
		t.Fatalf("expected at least 1, got %d", got)
	}
}

func TestSuspendResumeAppliesOncePerTurn(t *testing.T) {
	c, _ := newTestConn(t, nil)
	c.Suspend()
	if !c.Suspended {
		t.Fatal("expected suspended")
	}

	c.Resume()
	if !c.ApplyResume() {
		t.Fatal("expected ApplyResume to report a resume")
	}
	if c.Suspended || c.Resuming {
		t.Fatal("expected flags cleared after ApplyResume")
	}
	if c.ApplyResume() {
		t.Fatal("expected ApplyResume to be a no-op the second time")
	}
}

func TestIsExpired(t *testing.T) {
	c, _ := newTestConn(t, nil)
	c.IdleTimeout = time.Millisecond
	c.LastActivity = time.Now().Add(-time.Second)

	if !c.IsExpired(time.Now()) {
		t.Fatal("expected expired connection")
	}

	c.IdleTimeout = 0
	if c.IsExpired(time.Now()) {
		t.Fatal("zero timeout should never expire")
	}
}

func TestPreCloseRemovesFromListAndUnregisters(t *testing.T) {
	c, _ := newTestConn(t, nil)
	list := ready.NewList()
	list.PushBack(c.Handle)

	var unregistered types.Handle
	c.PreClose(types.CloseClientShutdown, list, func(h types.Handle) error {
		unregistered = h
		return nil
	}, nil)

	if list.Contains(c.Handle) {
		t.Fatal("expected connection removed from ready list")
	}
	if unregistered != c.Handle {
		t.Fatal("expected unregister called with connection handle")
	}
	if c.State != types.Closed {
		t.Fatalf("expected Closed state, got %v", c.State)
	}
	if c.CloseReason != types.CloseClientShutdown {
		t.Fatalf("unexpected close reason: %v", c.CloseReason)
	}
}

func TestPreCloseUpgradeRunsCleanupInsteadOfReleasingBuffers(t *testing.T) {
	c, _ := newTestConn(t, nil)
	c.EnsureReadBuffer()

	var cleaned bool
	c.PreClose(types.CloseUpgradeHandedOff, nil, nil, func(conn *Connection) {
		cleaned = true
	})

	if !cleaned {
		t.Fatal("expected upgrade cleanup hook to run")
	}
	if c.Read.Size == 0 {
		t.Fatal("expected the read buffer to be left in place on the upgrade path")
	}
}

func TestPreCloseIsIdempotent(t *testing.T) {
	c, _ := newTestConn(t, nil)
	c.PreClose(types.CloseTimeout, nil, nil, nil)
	c.PreClose(types.CloseSocketError, nil, nil, nil)

	if c.CloseReason != types.CloseTimeout {
		t.Fatal("expected second PreClose to be a no-op")
	}
}

func TestFinalCloseClosesTransportAndDropsPool(t *testing.T) {
	c, _ := newTestConn(t, nil)
	if err := c.FinalClose(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Pool != nil {
		t.Fatal("expected pool dropped")
	}
}
