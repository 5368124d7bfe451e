package response

import (
	"io"
	"strings"
	"testing"
	"time"

	"github.com/nabbar/gomhd/types"
)

type fakeWriter struct {
	buf []byte
}

func (f *fakeWriter) AppendWrite(data []byte) bool {
	f.buf = append(f.buf, data...)
	return true
}

type fakeFile struct {
	data []byte
}

func (f *fakeFile) ReadAt(p []byte, off int64) (int, error) {
	if off >= int64(len(f.data)) {
		return 0, io.EOF
	}
	n := copy(p, f.data[off:])
	return n, nil
}

func TestAddHeaderRejectsControlChars(t *testing.T) {
	r := NewBuffer(200, []byte("hi"))
	if err := r.AddHeader("X-Bad", "line1\r\nline2"); err == nil {
		t.Fatal("expected embedded CRLF to be rejected")
	}
	if err := r.AddHeader("X-Good", "ok"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRefcountAcquireRelease(t *testing.T) {
	r := NewBuffer(200, []byte("hi"))
	r.Acquire()
	if r.RefCount() != 2 {
		t.Fatalf("expected refcount 2, got %d", r.RefCount())
	}
	if r.Release() {
		t.Fatal("expected Release to report still-held after first decrement")
	}
	if !r.Release() {
		t.Fatal("expected Release to report destruction on last decrement")
	}
}

func TestFormatHeadersSimpleGet(t *testing.T) {
	r := NewBuffer(200, []byte("hello"))
	rp := NewReply(r)
	w := &fakeWriter{}

	now := time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC)
	if !rp.FormatHeaders(w, types.Version11, false, now) {
		t.Fatal("FormatHeaders failed")
	}

	out := string(w.buf)
	if !strings.HasPrefix(out, "HTTP/1.1 200 OK\r\n") {
		t.Fatalf("unexpected status line: %q", out)
	}
	if !strings.Contains(out, "Content-Length: 5\r\n") {
		t.Fatalf("expected Content-Length: 5, got %q", out)
	}
	if !strings.Contains(out, "Connection: keep-alive\r\n") {
		t.Fatalf("expected keep-alive, got %q", out)
	}
}

func TestFormatHeadersMustClose(t *testing.T) {
	r := NewBuffer(200, nil)
	rp := NewReply(r)
	w := &fakeWriter{}

	rp.FormatHeaders(w, types.Version11, true, time.Now())
	if !strings.Contains(string(w.buf), "Connection: close\r\n") {
		t.Fatal("expected Connection: close")
	}
}

func TestPumpBufferBody(t *testing.T) {
	r := NewBuffer(200, []byte("hello world"))
	rp := NewReply(r)
	rp.HeadersFormatted = true
	w := &fakeWriter{}

	for !rp.Done() {
		if _, err := rp.PumpBody(w, 4); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if string(w.buf) != "hello world" {
		t.Fatalf("unexpected body: %q", w.buf)
	}
}

func TestPumpFileBodyShortCircuitsOnEOF(t *testing.T) {
	r := NewFile(200, &fakeFile{data: []byte("abcdef")}, 0, 100)
	rp := NewReply(r)
	rp.HeadersFormatted = true
	w := &fakeWriter{}

	for i := 0; i < 10 && !rp.Done(); i++ {
		if _, err := rp.PumpBody(w, 4); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if !rp.Done() {
		t.Fatal("expected EOF to short-circuit the declared content length")
	}
	if string(w.buf) != "abcdef" {
		t.Fatalf("unexpected body: %q", w.buf)
	}
}

func TestPumpCallbackBodyChunked(t *testing.T) {
	pieces := [][]byte{[]byte("hello"), []byte(" world"), nil}
	idx := 0
	produce := func(buf []byte) int {
		if idx >= len(pieces) {
			return -1
		}
		if pieces[idx] == nil {
			idx++
			return -1
		}
		n := copy(buf, pieces[idx])
		idx++
		return n
	}

	r := NewCallback(200, produce)
	rp := NewReply(r)
	rp.HeadersFormatted = true
	w := &fakeWriter{}

	for !rp.Done() {
		res, err := rp.PumpBody(w, 64)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if res.WouldBlock {
			t.Fatal("unexpected WouldBlock in fully-synchronous test producer")
		}
	}

	out := string(w.buf)
	if !strings.Contains(out, "5\r\nhello\r\n") {
		t.Fatalf("expected wrapped first chunk, got %q", out)
	}
	if !strings.HasSuffix(out, "0\r\n\r\n") {
		t.Fatalf("expected terminating chunk, got %q", out)
	}
}

func TestPumpCallbackBodyWouldBlock(t *testing.T) {
	calls := 0
	produce := func(buf []byte) int {
		calls++
		if calls == 1 {
			return 0
		}
		if calls == 2 {
			n := copy(buf, "x")
			return n
		}
		return -1
	}

	r := NewCallback(200, produce)
	rp := NewReply(r)
	rp.HeadersFormatted = true
	w := &fakeWriter{}

	res, err := rp.PumpBody(w, 16)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.WouldBlock {
		t.Fatal("expected WouldBlock on first zero-byte produce")
	}
}

func TestKeepAliveDecision(t *testing.T) {
	if !KeepAlive(false, true, false, false) {
		t.Fatal("expected keep-alive to be allowed")
	}
	if KeepAlive(true, true, false, false) {
		t.Fatal("must-close should prevent reuse")
	}
	if KeepAlive(false, false, false, false) {
		t.Fatal("incomplete body transfer should prevent reuse")
	}
	if KeepAlive(false, true, true, false) {
		t.Fatal("discard_request should prevent reuse")
	}
	if KeepAlive(false, true, false, true) {
		t.Fatal("daemon stopping should prevent reuse")
	}
}
