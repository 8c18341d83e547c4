package guard_test

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/petasbytes/aichat/internal/guard"
)

func TestTryAcquire_RejectsWhileHeld(t *testing.T) {
	g := guard.New()
	if !g.TryAcquire("g1") {
		t.Fatal("first acquire must succeed")
	}
	if g.TryAcquire("g1") {
		t.Fatal("second acquire must fail while held")
	}
	if !g.TryAcquire("g2") {
		t.Fatal("other ids are independent")
	}
	if !g.Busy("g1") || g.Len() != 2 {
		t.Fatalf("busy=%v len=%d", g.Busy("g1"), g.Len())
	}

	g.Release("g1")
	if g.Busy("g1") {
		t.Fatal("g1 still busy after release")
	}
	if !g.TryAcquire("g1") {
		t.Fatal("acquire after release must succeed")
	}
}

func TestRelease_Idempotent(t *testing.T) {
	g := guard.New()
	g.Release("never")
	g.TryAcquire("g1")
	g.Release("g1")
	g.Release("g1")
	if g.Len() != 0 {
		t.Fatalf("len=%d want 0", g.Len())
	}
}

func TestTryAcquire_SingleWinnerUnderContention(t *testing.T) {
	g := guard.New()
	var wins atomic.Int32
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if g.TryAcquire("hot") {
				wins.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()
	if wins.Load() != 1 {
		t.Fatalf("wins=%d want exactly 1", wins.Load())
	}
}
