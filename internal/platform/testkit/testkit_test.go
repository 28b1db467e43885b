package testkit

import (
	"os"
	"sync/atomic"
	"testing"
	"time"
)

var clock = func() string { return "real" }

func TestSwap(t *testing.T) {
	t.Run("swapped", func(t *testing.T) {
		Swap(t, &clock, func() string { return "fake" })
		if clock() != "fake" {
			t.Fatal("not swapped")
		}
	})
	if clock() != "real" {
		t.Fatal("not restored")
	}
}

func TestTempFileAndMustNotExist(t *testing.T) {
	t.Parallel()

	p := TempFile(t, "scan.png", []byte("png"))
	b, err := os.ReadFile(p)
	if err != nil || string(b) != "png" {
		t.Fatalf("read back = %q, %v", b, err)
	}
	MustContain(t, p, "scan.png")
	_ = os.Remove(p)
	MustNotExist(t, p)
}

func TestEventually(t *testing.T) {
	t.Parallel()

	var n atomic.Int32
	go func() {
		time.Sleep(20 * time.Millisecond)
		n.Store(1)
	}()
	Eventually(t, time.Second, func() bool { return n.Load() == 1 })
}

func TestMustPanic(t *testing.T) {
	t.Parallel()
	MustPanic(t, func() { panic("boom") })
}
