package errresp

import (
	"net"
	"strings"
	"testing"
	"time"

	"github.com/nabbar/gomhd/certtls"
	"github.com/nabbar/gomhd/conn"
	"github.com/nabbar/gomhd/response"
	"github.com/nabbar/gomhd/types"
)

type fakeConn struct {
	net.Conn
}

func (fakeConn) Read(p []byte) (int, error)  { return 0, nil }
func (fakeConn) Write(p []byte) (int, error) { return len(p), nil }
func (fakeConn) Close() error                { return nil }

func newTestConnection() *conn.Connection {
	tr := certtls.WrapPlain(fakeConn{})
	return conn.New(tr, 3, 4096, time.Minute)
}

func TestBuildIncludesBodyByDefault(t *testing.T) {
	IncludeBody = true
	resp := Build(404)
	if len(resp.Buffer) == 0 {
		t.Fatal("expected non-empty canned body")
	}
	if !strings.Contains(string(resp.Buffer), "Not Found") {
		t.Fatalf("expected reason phrase in body, got %q", resp.Buffer)
	}
}

func TestBuildOmitsBodyWhenDisabled(t *testing.T) {
	IncludeBody = false
	defer func() { IncludeBody = true }()

	resp := Build(500)
	if len(resp.Buffer) != 0 {
		t.Fatalf("expected empty body, got %q", resp.Buffer)
	}
}

func TestApplyDiscardsRequestAndForcesClose(t *testing.T) {
	c := newTestConnection()
	c.Request = "anything"

	Apply(c, 400)

	if !c.DiscardRequest {
		t.Fatal("expected DiscardRequest set")
	}
	if c.Reuse != types.MustClose {
		t.Fatal("expected MustClose reuse mode")
	}
	if c.Request != nil {
		t.Fatal("expected request state discarded")
	}
	if c.State != types.StartReply {
		t.Fatalf("expected StartReply state, got %v", c.State)
	}

	rp, ok := c.Reply.(*response.Reply)
	if !ok {
		t.Fatal("expected c.Reply to hold a *response.Reply")
	}
	if rp.Resp.Status != 400 {
		t.Fatalf("expected status 400, got %d", rp.Resp.Status)
	}
}
