package module

import (
	"testing"

	phttp "ocrjobs/internal/platform/net/http"
	"ocrjobs/internal/platform/testkit"
)

type depthPort interface{ Depth() int }

type queuePort struct{ n int }

func (q queuePort) Depth() int { return q.n }

type ports struct {
	Queue depthPort
	Name  string
	inner depthPort
}

type fakeModule struct{ ports any }

func (fakeModule) MountRoutes(phttp.Router) {}
func (m fakeModule) Ports() any             { return m.ports }
func (fakeModule) Name() string             { return "fake" }

func TestPortsOf(t *testing.T) {
	t.Parallel()

	m := fakeModule{ports: ports{Queue: queuePort{n: 4}, Name: "x"}}
	got, ok := PortsOf[depthPort](m)
	if !ok || got.Depth() != 4 {
		t.Fatalf("field lookup = %v, %v", got, ok)
	}

	if got, ok := PortsOf[depthPort](fakeModule{ports: queuePort{n: 1}}); !ok || got.Depth() != 1 {
		t.Fatal("direct lookup failed")
	}
	if _, ok := PortsOf[depthPort](fakeModule{ports: ports{inner: queuePort{}}}); ok {
		t.Fatal("unexported fields must be skipped")
	}
	if _, ok := PortsOf[depthPort](fakeModule{}); ok {
		t.Fatal("nil ports matched")
	}

	testkit.MustPanic(t, func() { MustPortsOf[depthPort](fakeModule{ports: "nothing"}) })
}

func TestRegistry(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	Register("ocrjobs", queuePort{n: 2})
	if p, ok := PortsAs[queuePort]("ocrjobs"); !ok || p.n != 2 {
		t.Fatalf("PortsAs = %v, %v", p, ok)
	}
	if _, ok := PortsAs[string]("ocrjobs"); ok {
		t.Fatal("wrong type matched")
	}
	if _, ok := PortsAs[queuePort]("meta"); ok {
		t.Fatal("missing name matched")
	}
}
