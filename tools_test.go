package gomhd

import (
	"context"
	"errors"
	"testing"
	"time"

	liblog "github.com/nabbar/gomhd/logger"
	"github.com/nabbar/gomhd/monitor"
	"github.com/nabbar/gomhd/types"
)

// fakeDaemon is a minimal Daemon stand-in for exercising Group without a
// real listening socket.
type fakeDaemon struct {
	name     string
	bindable string
	running  bool
	startErr error
}

func (f *fakeDaemon) Start(ctx context.Context) error {
	if f.startErr != nil {
		return f.startErr
	}
	f.running = true
	return nil
}
func (f *fakeDaemon) Stop(ctx context.Context) error    { f.running = false; return nil }
func (f *fakeDaemon) Restart(ctx context.Context) error { f.running = true; return nil }
func (f *fakeDaemon) IsRunning() bool                   { return f.running }
func (f *fakeDaemon) Uptime() time.Duration             { return 0 }
func (f *fakeDaemon) GetError() error                   { return nil }
func (f *fakeDaemon) WaitNotify(ctx context.Context)    { <-ctx.Done() }
func (f *fakeDaemon) StopWaitNotify()                   {}

func (f *fakeDaemon) Name() string     { return f.name }
func (f *fakeDaemon) Bindable() string { return f.bindable }

func (f *fakeDaemon) Handler(h FuncHandler)                          {}
func (f *fakeDaemon) Merge(src Daemon, log liblog.FuncLog) error     { return nil }
func (f *fakeDaemon) GetConfig() Config                              { return Config{} }
func (f *fakeDaemon) SetConfig(cfg Config, log liblog.FuncLog) error { return nil }
func (f *fakeDaemon) Monitor() monitor.Monitor                       { return nil }
func (f *fakeDaemon) Quiesce()                                       {}
func (f *fakeDaemon) Resume(h types.Handle)                          {}

func TestGroupAddRejectsDuplicateBind(t *testing.T) {
	g := NewGroup(&fakeDaemon{name: "a", bindable: ":8080"})
	err := g.Add(&fakeDaemon{name: "b", bindable: ":8080"})
	if err == nil {
		t.Fatal("expected Add to reject a second daemon on the same bind address")
	}
	if g.Len() != 1 {
		t.Fatalf("expected the rejected daemon not to be added, len=%d", g.Len())
	}
}

func TestGroupGetDelHas(t *testing.T) {
	g := NewGroup(&fakeDaemon{name: "a", bindable: ":8080"}, &fakeDaemon{name: "b", bindable: ":9090"})

	if !g.Has(":8080") || !g.Has(":9090") {
		t.Fatal("expected both seeded daemons to be present")
	}
	if g.Get(":8080").(*fakeDaemon).name != "a" {
		t.Fatal("expected Get to return the daemon bound to that address")
	}

	g.Del(":8080")
	if g.Has(":8080") {
		t.Fatal("expected Del to remove the daemon")
	}
	if g.Len() != 1 {
		t.Fatalf("expected one daemon left, got %d", g.Len())
	}
}

func TestGroupListAndFilter(t *testing.T) {
	g := NewGroup(
		&fakeDaemon{name: "api", bindable: ":8080"},
		&fakeDaemon{name: "admin", bindable: ":9090"},
	)

	names := g.List(FieldName, "ad")
	if len(names) != 1 || names[0] != "admin" {
		t.Fatalf("expected List to match only \"admin\", got %v", names)
	}

	sub := g.Filter(FieldBind, "8080")
	if sub.Len() != 1 || sub.Get(":8080") == nil {
		t.Fatalf("expected Filter to keep only the :8080 daemon, len=%d", sub.Len())
	}
}

func TestGroupIsRunning(t *testing.T) {
	a := &fakeDaemon{name: "a", bindable: ":1", running: true}
	b := &fakeDaemon{name: "b", bindable: ":2", running: false}
	g := NewGroup(a, b)

	if g.IsRunning(false) {
		t.Fatal("expected IsRunning(false) to require every daemon running")
	}
	if !g.IsRunning(true) {
		t.Fatal("expected IsRunning(true) to be satisfied by at least one running daemon")
	}
}

func TestGroupStartStopFanOut(t *testing.T) {
	a := &fakeDaemon{name: "a", bindable: ":1"}
	b := &fakeDaemon{name: "b", bindable: ":2"}
	g := NewGroup(a, b)

	if err := g.Start(context.Background()); err != nil {
		t.Fatalf("unexpected Start error: %v", err)
	}
	if !a.running || !b.running {
		t.Fatal("expected Start to start every daemon in the group")
	}

	if err := g.Stop(context.Background()); err != nil {
		t.Fatalf("unexpected Stop error: %v", err)
	}
	if a.running || b.running {
		t.Fatal("expected Stop to stop every daemon in the group")
	}
}

func TestGroupStartReturnsFirstError(t *testing.T) {
	boom := errors.New("listen failed")
	a := &fakeDaemon{name: "a", bindable: ":1"}
	b := &fakeDaemon{name: "b", bindable: ":2", startErr: boom}
	g := NewGroup(a, b)

	err := g.Start(context.Background())
	if err == nil {
		t.Fatal("expected Start to surface the failing daemon's error")
	}
}

func TestGroupWaitNotifyReturnsOnContextDone(t *testing.T) {
	g := NewGroup(&fakeDaemon{name: "a", bindable: ":1"}, &fakeDaemon{name: "b", bindable: ":2"})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	done := make(chan struct{})
	go func() {
		g.WaitNotify(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("expected WaitNotify to return once every daemon's context is done")
	}
}
