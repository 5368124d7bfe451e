package request

import (
	"strings"
	"testing"

	"github.com/nabbar/gomhd/types"
)

func TestParseRequestLineSimpleGet(t *testing.T) {
	r := New(types.StrictDefault)
	buf := []byte("GET /hello HTTP/1.1\r\nHost: x\r\n\r\n")

	n, needMore, err := r.ParseRequestLine(buf)
	if err != nil || needMore {
		t.Fatalf("unexpected: n=%d needMore=%v err=%v", n, needMore, err)
	}
	if r.Method != types.MethodGet {
		t.Fatalf("expected GET, got %v", r.Method)
	}
	if r.Target != "/hello" {
		t.Fatalf("expected /hello, got %q", r.Target)
	}
	if r.Version != types.Version11 {
		t.Fatalf("expected HTTP/1.1, got %v", r.Version)
	}
}

func TestParseRequestLineNeedsMore(t *testing.T) {
	r := New(types.StrictDefault)
	_, needMore, err := r.ParseRequestLine([]byte("GET /hello HTTP/1.1"))
	if err != nil || !needMore {
		t.Fatalf("expected needMore, got err=%v needMore=%v", err, needMore)
	}
}

func TestParseRequestLineRejectsHTTP2(t *testing.T) {
	r := New(types.StrictDefault)
	_, _, err := r.ParseRequestLine([]byte("GET / HTTP/2\r\n"))
	if err == nil {
		t.Fatal("expected unsupported-version error for HTTP/2")
	}
}

func TestParseRequestLineQueryString(t *testing.T) {
	r := New(types.StrictDefault)
	_, _, err := r.ParseRequestLine([]byte("GET /s?a=1&b=hello%20world HTTP/1.1\r\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v, ok := r.Fields.Get("a", types.FieldGetArg); !ok || v != "1" {
		t.Fatalf("expected a=1, got %q ok=%v", v, ok)
	}
	if v, ok := r.Fields.Get("b", types.FieldGetArg); !ok || v != "hello world" {
		t.Fatalf("expected decoded b, got %q ok=%v", v, ok)
	}
}

func TestBareLFRejectedAtStrictAcceptedAtLenient(t *testing.T) {
	line := []byte("GET / HTTP/1.1\n")

	strict := New(types.StrictDefault)
	if _, _, err := strict.ParseRequestLine(line); err == nil {
		t.Fatal("expected bare LF rejected at strict level")
	}

	lenient := New(types.LenientBareLF)
	if _, _, err := lenient.ParseRequestLine(line); err != nil {
		t.Fatalf("expected bare LF accepted at lenient level, got %v", err)
	}
}

func TestParseHeaderLineFolding(t *testing.T) {
	r := New(types.LenientFoldedHeaders)
	buf := []byte("X-Long: first\r\n second\r\n\r\n")

	n, done, needMore, err := r.ParseHeaderLine(buf, types.FieldHeader)
	if err != nil || done || needMore {
		t.Fatalf("unexpected: n=%d done=%v needMore=%v err=%v", n, done, needMore, err)
	}
	v, ok := r.Fields.Get("X-Long", types.FieldHeader)
	if !ok || v != "first second" {
		t.Fatalf("expected folded value, got %q ok=%v", v, ok)
	}
}

func TestParseHeaderLineBlankLineEndsHeaders(t *testing.T) {
	r := New(types.StrictDefault)
	_, done, _, err := r.ParseHeaderLine([]byte("\r\nbody"), types.FieldHeader)
	if err != nil || !done {
		t.Fatalf("expected done on blank line, got done=%v err=%v", done, err)
	}
}

func TestFinalizeHeadersContentLengthOverflow(t *testing.T) {
	r := New(types.StrictDefault)
	r.Version = types.Version11
	r.Fields.Add("Host", "x", types.FieldHeader)
	r.Fields.Add("Content-Length", "18446744073709551615999", types.FieldHeader)

	if err := r.FinalizeHeaders(); err == nil {
		t.Fatal("expected overflow Content-Length to error")
	}
}

func TestFinalizeHeadersSmugglingStrictRejects(t *testing.T) {
	r := New(types.StrictDefault)
	r.Version = types.Version11
	r.Fields.Add("Host", "x", types.FieldHeader)
	r.Fields.Add("Content-Length", "10", types.FieldHeader)
	r.Fields.Add("Transfer-Encoding", "chunked", types.FieldHeader)

	if err := r.FinalizeHeaders(); err == nil {
		t.Fatal("expected smuggling combo rejected at strict level")
	}
}

func TestFinalizeHeadersSmugglingLenientIgnoresContentLength(t *testing.T) {
	r := New(types.LenientBothLengthAndChunk)
	r.Version = types.Version11
	r.Fields.Add("Host", "x", types.FieldHeader)
	r.Fields.Add("Content-Length", "10", types.FieldHeader)
	r.Fields.Add("Transfer-Encoding", "chunked", types.FieldHeader)

	if err := r.FinalizeHeaders(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !r.HaveChunked || !r.MustClose {
		t.Fatal("expected chunked framing and must-close at lenient level")
	}
	if r.ContentLength != 0 {
		t.Fatal("expected Content-Length ignored")
	}
}

func TestFinalizeHeadersDuplicateHostStrictRejects(t *testing.T) {
	r := New(types.StrictDefault)
	r.Version = types.Version11
	r.Fields.Add("Host", "a", types.FieldHeader)
	r.Fields.Add("Host", "b", types.FieldHeader)

	if err := r.FinalizeHeaders(); err == nil {
		t.Fatal("expected duplicate Host rejected at strict level")
	}
}

func TestFinalizeHeadersExpectContinue(t *testing.T) {
	r := New(types.StrictDefault)
	r.Version = types.Version11
	r.Fields.Add("Host", "x", types.FieldHeader)
	r.Fields.Add("Content-Length", "3", types.FieldHeader)
	r.Fields.Add("Expect", "100-continue", types.FieldHeader)

	if err := r.FinalizeHeaders(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !r.ExpectContinue {
		t.Fatal("expected ExpectContinue set")
	}
}

func TestParseCookiesLax(t *testing.T) {
	r := New(types.LenientCookies)
	r.Fields.Add("Cookie", " a=1 ; b = 2 ", types.FieldHeader)
	r.parseCookies()

	if v, ok := r.Fields.Get("a", types.FieldCookie); !ok || v != "1" {
		t.Fatalf("expected a=1, got %q ok=%v", v, ok)
	}
	if v, ok := r.Fields.Get("b", types.FieldCookie); !ok || v != "2" {
		t.Fatalf("expected b=2, got %q ok=%v", v, ok)
	}
}

func TestChunkedBodyZeroLength(t *testing.T) {
	r := New(types.StrictDefault)
	r.HaveChunked = true

	line, consumed, needMore, err := r.ParseChunkSizeLine([]byte("0\r\n\r\n"))
	if err != nil || needMore {
		t.Fatalf("unexpected: consumed=%d needMore=%v err=%v", consumed, needMore, err)
	}
	r.StartChunk(line.Size)

	if !r.InTrailers {
		t.Fatal("expected trailers phase entered")
	}
	if r.RecvSize != 0 {
		t.Fatalf("expected recv_size=0, got %d", r.RecvSize)
	}
}

func TestChunkedBodyIncrementalDeliveries(t *testing.T) {
	r := New(types.StrictDefault)
	r.HaveChunked = true

	body := "5\r\nhello\r\n6\r\n world\r\n0\r\n\r\n"
	var delivered []string
	buf := []byte(body)
	pos := 0

	for {
		line, consumed, needMore, err := r.ParseChunkSizeLine(buf[pos:])
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if needMore {
			t.Fatal("unexpected needMore in fully-buffered test input")
		}
		pos += consumed
		r.StartChunk(line.Size)
		if line.Size == 0 {
			delivered = append(delivered, "")
			break
		}
		chunk := buf[pos : pos+int(line.Size)]
		delivered = append(delivered, string(chunk))
		r.ConsumeChunkBytes(line.Size)
		pos += int(line.Size) + 2 // trailing CRLF after chunk data
	}

	want := []string{"hello", " world", ""}
	if len(delivered) != len(want) {
		t.Fatalf("expected %v, got %v", want, delivered)
	}
	for i := range want {
		if delivered[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, delivered)
		}
	}
	if r.RecvSize != 11 {
		t.Fatalf("expected recv_size=11, got %d", r.RecvSize)
	}
}

func TestOutOfBufferStatusOversizeURI(t *testing.T) {
	status, abort := OutOfBufferStatus(PhaseURI, true, 0, 10000, ChunkSizeLine{}, false)
	if abort || status != 414 {
		t.Fatalf("expected 414, got status=%d abort=%v", status, abort)
	}
}

func TestOutOfBufferStatusGarbageMethodAborts(t *testing.T) {
	_, abort := OutOfBufferStatus(PhaseURI, false, 0, 10000, ChunkSizeLine{}, false)
	if !abort {
		t.Fatal("expected abort for unparseable method")
	}
}

func TestOutOfBufferStatusHeadersDominate(t *testing.T) {
	status, abort := OutOfBufferStatus(PhaseOther, true, 20000, 10, ChunkSizeLine{}, false)
	if abort || status != 431 {
		t.Fatalf("expected 431, got status=%d abort=%v", status, abort)
	}
}

func TestRequestResetPreservesStrictness(t *testing.T) {
	r := New(types.LenientBareLF)
	r.Method = types.MethodPost
	r.Reset()

	if r.Strictness != types.LenientBareLF {
		t.Fatal("expected strictness preserved across reset")
	}
	if r.Method != types.MethodGet {
		t.Fatal("expected fields zeroed after reset")
	}
}

func TestPercentDecodeRoundTrip(t *testing.T) {
	raw := "a b/c?d#e"
	enc := percentEncode(raw)
	dec, ok := percentDecode(enc, types.StrictDefault)
	if !ok {
		t.Fatal("decode failed")
	}
	if dec != raw {
		t.Fatalf("round-trip mismatch: got %q want %q", dec, raw)
	}
}

func TestParseRequestLineStrictRejectsWhitespaceInTarget(t *testing.T) {
	r := New(types.StrictDefault)
	_, _, err := r.ParseRequestLine([]byte("GET /foo bar HTTP/1.1\r\n"))
	if err == nil {
		t.Fatal("expected a strict parser to reject whitespace inside the target")
	}
}

func TestParseRequestLineKeepsWhitespaceWhenConfigured(t *testing.T) {
	r := New(types.LenientKeepURIWhitespace)
	_, needMore, err := r.ParseRequestLine([]byte("GET /foo bar HTTP/1.1\r\n"))
	if err != nil || needMore {
		t.Fatalf("unexpected: needMore=%v err=%v", needMore, err)
	}
	if r.RedirectTarget != "" {
		t.Fatalf("expected no redirect when whitespace is kept, got %q", r.RedirectTarget)
	}
	if r.Target != "/foo bar" {
		t.Fatalf("expected the literal whitespace preserved, got %q", r.Target)
	}
}

func TestParseRequestLineRedirectsWhitespaceByDefaultAtLenientLevel(t *testing.T) {
	r := New(types.LenientWhitespaceInURI)
	_, needMore, err := r.ParseRequestLine([]byte("GET /foo bar HTTP/1.1\r\n"))
	if err != nil || needMore {
		t.Fatalf("unexpected: needMore=%v err=%v", needMore, err)
	}
	if r.Target != "" {
		t.Fatalf("expected Target left unset pending the redirect, got %q", r.Target)
	}
	if r.RedirectTarget != percentEncode("/foo bar") {
		t.Fatalf("expected the percent-encoded equivalent, got %q", r.RedirectTarget)
	}
}

func TestSplitOnSpaceCoalesced(t *testing.T) {
	fields := splitOnSpace("GET   /x   HTTP/1.1", types.LenientCoalescedWhitespace)
	if strings.Join(fields, "|") != "GET|/x|HTTP/1.1" {
		t.Fatalf("unexpected split: %v", fields)
	}
}
