package resource

import (
	stderrors "errors"
	"math/rand"
	"sync"
	"testing"

	"github.com/wippyai/wasm-playhost/errors"
)

func TestRegistry_Basic(t *testing.T) {
	r := New[string](WithName("buffer"))

	h := r.Allocate("test value")
	if h == 0 {
		t.Fatal("expected non-zero handle")
	}

	v, err := r.Resolve(h)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if v != "test value" {
		t.Fatalf("expected 'test value', got %v", v)
	}

	v, err = r.Release(h)
	if err != nil {
		t.Fatalf("Release failed: %v", err)
	}
	if v != "test value" {
		t.Fatalf("expected 'test value', got %v", v)
	}

	if _, err := r.Resolve(h); !stderrors.Is(err, errors.ErrInvalidHandle) {
		t.Fatalf("expected InvalidHandle after release, got %v", err)
	}
}

func TestRegistry_ZeroHandle(t *testing.T) {
	r := New[int]()
	for i := 0; i < 10; i++ {
		if h := r.Allocate(i); h == 0 {
			t.Fatal("handle 0 must never be issued")
		}
	}

	if _, err := r.Resolve(0); !stderrors.Is(err, errors.ErrInvalidHandle) {
		t.Errorf("Resolve(0) = %v, want InvalidHandle", err)
	}
	if _, err := r.Release(0); !stderrors.Is(err, errors.ErrInvalidHandle) {
		t.Errorf("Release(0) = %v, want InvalidHandle", err)
	}

	v, err := r.Lookup(0)
	if err != nil || v != 0 {
		t.Errorf("Lookup(0) = %v, %v; want zero value and no error", v, err)
	}
	if _, err := r.Lookup(999); err == nil {
		t.Error("Lookup of unknown handle should fail")
	}
}

func TestRegistry_ReusePolicyIsLIFO(t *testing.T) {
	r := New[string]()

	h1 := r.Allocate("a")
	h2 := r.Allocate("b")
	h3 := r.Allocate("c")

	_, _ = r.Release(h1)
	_, _ = r.Release(h3)

	if got := r.Allocate("d"); got != h3 {
		t.Errorf("expected most recently released %d, got %d", h3, got)
	}
	if got := r.Allocate("e"); got != h1 {
		t.Errorf("expected %d, got %d", h1, got)
	}
	if got := r.Allocate("f"); got != h3+1 {
		t.Errorf("expected fresh id %d, got %d", h3+1, got)
	}
	if v, _ := r.Resolve(h2); v != "b" {
		t.Errorf("untouched handle changed: %v", v)
	}
}

func TestRegistry_RetirePolicy(t *testing.T) {
	r := New[string](WithPolicy(Retire), WithName("node"))

	h1 := r.Allocate("a")
	_, _ = r.Release(h1)
	h2 := r.Allocate("b")

	if h2 == h1 {
		t.Fatalf("retired id %d was reissued", h1)
	}
	if _, err := r.Resolve(h1); err == nil {
		t.Error("retired handle must stay invalid")
	}
	if r.Policy() != Retire {
		t.Errorf("Policy() = %v", r.Policy())
	}
}

func TestRegistry_Reserved(t *testing.T) {
	r := New[int](WithReserved(3), WithPolicy(Retire))

	if h := r.Allocate(1); h != 4 {
		t.Fatalf("first handle = %d, want 4", h)
	}
	for h := Handle(1); h <= 3; h++ {
		if _, err := r.Resolve(h); err == nil {
			t.Errorf("reserved handle %d resolved", h)
		}
	}
}

func TestRegistry_DoubleRelease(t *testing.T) {
	r := New[string]()
	h := r.Allocate("x")
	if _, err := r.Release(h); err != nil {
		t.Fatal(err)
	}
	if _, err := r.Release(h); !stderrors.Is(err, errors.ErrInvalidHandle) {
		t.Errorf("second Release = %v, want InvalidHandle", err)
	}

	// the id went on the free list once, not twice
	a := r.Allocate("y")
	b := r.Allocate("z")
	if a == b {
		t.Fatal("double release must not duplicate free-list entries")
	}
}

func TestRegistry_AllocateMany(t *testing.T) {
	r := New[int]()
	next := 0
	hs := r.AllocateMany(5, func() int { next++; return next })

	if len(hs) != 5 {
		t.Fatalf("got %d handles", len(hs))
	}
	for i := 1; i < len(hs); i++ {
		if hs[i] <= hs[i-1] {
			t.Errorf("handles not ascending: %v", hs)
		}
	}
	for i, h := range hs {
		if v, _ := r.Resolve(h); v != i+1 {
			t.Errorf("handle %d -> %d, want %d", h, v, i+1)
		}
	}
}

func TestRegistry_AllocateManyReusesAscending(t *testing.T) {
	r := New[int]()
	hs := r.AllocateMany(6, func() int { return 0 })
	for _, h := range []Handle{hs[1], hs[4], hs[3]} {
		if _, err := r.Release(h); err != nil {
			t.Fatal(err)
		}
	}

	got := r.AllocateMany(2, func() int { return 1 })
	if len(got) != 2 || got[0] != hs[1] || got[1] != hs[3] {
		t.Fatalf("AllocateMany = %v, want [%d %d]", got, hs[1], hs[3])
	}

	// the remaining free id is still reused before a fresh one
	got = r.AllocateMany(2, func() int { return 2 })
	if len(got) != 2 || got[0] != hs[4] || got[1] != hs[5]+1 {
		t.Fatalf("AllocateMany = %v, want [%d %d]", got, hs[4], hs[5]+1)
	}
	if r.Len() != 7 {
		t.Errorf("Len() = %d, want 7", r.Len())
	}
}

func TestRegistry_CategoriesAreIndependent(t *testing.T) {
	textures := New[string](WithName("texture"))
	buffers := New[string](WithName("buffer"))

	ht := textures.Allocate("tex")
	hb := buffers.Allocate("buf")
	if ht != hb {
		t.Fatalf("fresh registries should both start at the same id")
	}

	_, _ = textures.Release(ht)
	if v, err := buffers.Resolve(hb); err != nil || v != "buf" {
		t.Errorf("release in one category affected another: %v, %v", v, err)
	}
}

func TestRegistry_InvalidHandleNamesCategory(t *testing.T) {
	r := New[int](WithName("program"))
	_, err := r.Resolve(42)
	var e *errors.Error
	if !stderrors.As(err, &e) {
		t.Fatalf("expected *errors.Error, got %T", err)
	}
	if e.Category != "program" || e.Value != uint32(42) {
		t.Errorf("got %+v", e)
	}
}

type dropCounter struct{ n *int }

func (d dropCounter) Drop() { *d.n++ }

func TestRegistry_DropperAndClose(t *testing.T) {
	var dropped int
	r := New[dropCounter]()
	h := r.Allocate(dropCounter{&dropped})
	r.Allocate(dropCounter{&dropped})
	r.Allocate(dropCounter{&dropped})

	_, _ = r.Release(h)
	if dropped != 1 {
		t.Fatalf("dropped = %d after Release", dropped)
	}

	if err := r.Close(); err != nil {
		t.Fatal(err)
	}
	if dropped != 3 {
		t.Errorf("dropped = %d after Close, want 3", dropped)
	}
	if r.Len() != 0 {
		t.Errorf("Len = %d after Close", r.Len())
	}
	if h := r.Allocate(dropCounter{&dropped}); h != 0 {
		t.Errorf("closed registry issued %d", h)
	}
}

func TestRegistry_Observers(t *testing.T) {
	r := New[string](WithName("shader"))

	var events []Event
	r.Subscribe(ObserverFunc(func(e Event) { events = append(events, e) }))

	h := r.Allocate("vs")
	_, _ = r.Release(h)
	_, _ = r.Release(h)

	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	if events[0].Type != EventCreated || events[1].Type != EventDropped {
		t.Errorf("event types = %v, %v", events[0].Type, events[1].Type)
	}
	if events[0].Category != "shader" || events[1].Handle != h {
		t.Errorf("events = %+v", events)
	}
}

func TestRegistry_EachAndLen(t *testing.T) {
	r := New[int]()
	for i := 0; i < 5; i++ {
		r.Allocate(i)
	}
	_, _ = r.Release(2)

	if r.Len() != 4 {
		t.Errorf("Len = %d", r.Len())
	}

	var seen []Handle
	r.Each(func(h Handle, _ int) bool {
		seen = append(seen, h)
		return true
	})
	want := []Handle{1, 3, 4, 5}
	if len(seen) != len(want) {
		t.Fatalf("seen %v", seen)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Errorf("seen %v, want %v", seen, want)
		}
	}

	count := 0
	r.Each(func(Handle, int) bool { count++; return count < 2 })
	if count != 2 {
		t.Errorf("Each did not stop early")
	}
}

// Randomized allocate/release sequences: no two live handles are equal,
// and every live handle resolves to the value stored with it.
func TestRegistry_LiveHandlesUnique(t *testing.T) {
	for _, policy := range []Policy{Reuse, Retire} {
		t.Run(policy.String(), func(t *testing.T) {
			rng := rand.New(rand.NewSource(7))
			r := New[int](WithPolicy(policy))
			live := map[Handle]int{}

			for i := 0; i < 2000; i++ {
				if len(live) > 0 && rng.Intn(3) == 0 {
					for h := range live {
						if _, err := r.Release(h); err != nil {
							t.Fatalf("Release(%d): %v", h, err)
						}
						delete(live, h)
						break
					}
					continue
				}
				h := r.Allocate(i)
				if _, dup := live[h]; dup {
					t.Fatalf("handle %d issued while live", h)
				}
				live[h] = i
			}

			for h, v := range live {
				got, err := r.Resolve(h)
				if err != nil || got != v {
					t.Fatalf("Resolve(%d) = %d, %v; want %d", h, got, err, v)
				}
			}
			if r.Len() != len(live) {
				t.Errorf("Len = %d, want %d", r.Len(), len(live))
			}
		})
	}
}

func TestRegistry_Concurrent(t *testing.T) {
	r := New[int]()
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				h := r.Allocate(i)
				if _, err := r.Resolve(h); err != nil {
					t.Errorf("Resolve: %v", err)
					return
				}
				if _, err := r.Release(h); err != nil {
					t.Errorf("Release: %v", err)
					return
				}
			}
		}()
	}
	wg.Wait()
	if r.Len() != 0 {
		t.Errorf("Len = %d", r.Len())
	}
}
