package server

import (
	"sync"
	"testing"
)

func TestRegistryBijection(t *testing.T) {
	r := NewRegistry()
	c := newTestConn(testConfig())
	id := r.NextIdentity()
	r.Register(c, id)

	if got, ok := r.IdentityOf(c); !ok || got != id {
		t.Fatalf("IdentityOf = %q,%v want %q", got, ok, id)
	}
	if got, ok := r.ConnectionOf(id); !ok || got != c {
		t.Fatalf("ConnectionOf mismatch")
	}

	got, ok := r.Unregister(c)
	if !ok || got != id {
		t.Fatalf("Unregister = %q,%v want %q", got, ok, id)
	}
	if _, ok := r.IdentityOf(c); ok {
		t.Fatalf("identity still bound after unregister")
	}
	if _, ok := r.ConnectionOf(id); ok {
		t.Fatalf("connection still bound after unregister")
	}
	if r.Count() != 0 {
		t.Fatalf("count = %d", r.Count())
	}
}

func TestRegistryUnregisterIsIdempotent(t *testing.T) {
	r := NewRegistry()
	c := newTestConn(testConfig())
	if id, ok := r.Unregister(c); ok || id != "" {
		t.Fatalf("unregister of unknown connection = %q,%v", id, ok)
	}
	r.Register(c, r.NextIdentity())
	r.Unregister(c)
	if _, ok := r.Unregister(c); ok {
		t.Fatalf("double unregister reported a binding")
	}
}

func TestRegistryIdentitiesAreMonotonicAndNotReused(t *testing.T) {
	r := NewRegistry()
	a := r.NextIdentity()
	c := newTestConn(testConfig())
	r.Register(c, a)
	r.Unregister(c)
	b := r.NextIdentity()
	if a != "player-1" || b != "player-2" {
		t.Fatalf("identities = %q, %q", a, b)
	}
}

func TestRegistryRebindKeepsOneIdentityPerConnection(t *testing.T) {
	r := NewRegistry()
	c1 := newTestConn(testConfig())
	c2 := newTestConn(testConfig())

	r.Register(c1, "player-1")
	r.Register(c1, "player-9")
	if _, ok := r.ConnectionOf("player-1"); ok {
		t.Fatalf("old identity still resolves")
	}
	if id, _ := r.IdentityOf(c1); id != "player-9" {
		t.Fatalf("identity = %q", id)
	}

	// 身份迁移到另一条连接，旧连接失去绑定
	r.Register(c2, "player-9")
	if _, ok := r.IdentityOf(c1); ok {
		t.Fatalf("c1 still bound")
	}
	if got, _ := r.ConnectionOf("player-9"); got != c2 {
		t.Fatalf("player-9 not bound to c2")
	}
	if r.Count() != 1 {
		t.Fatalf("count = %d, want 1", r.Count())
	}
}

func TestRegistryUnregisterAll(t *testing.T) {
	r := NewRegistry()
	conns := make([]*ClientConn, 3)
	for i := range conns {
		conns[i] = newTestConn(testConfig())
		r.Register(conns[i], r.NextIdentity())
	}
	removed := r.UnregisterAll()
	if len(removed) != 3 || r.Count() != 0 {
		t.Fatalf("removed %d, remaining %d", len(removed), r.Count())
	}
	for _, c := range conns {
		if _, ok := r.Unregister(c); ok {
			t.Fatalf("connection still registered")
		}
	}
}

func TestRegistryConcurrentAccess(t *testing.T) {
	r := NewRegistry()
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c := newTestConn(testConfig())
			id := r.NextIdentity()
			r.Register(c, id)
			_ = r.Bindings()
			if got, ok := r.IdentityOf(c); !ok || got != id {
				t.Errorf("lookup mismatch for %s", id)
			}
			r.Unregister(c)
		}()
	}
	wg.Wait()
	if r.Count() != 0 {
		t.Fatalf("count = %d", r.Count())
	}
}
