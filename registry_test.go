package storekit

import (
	"sync"
	"testing"
)

// Registry tests need no live server: pools are constructed lazily and
// never dial here.

func testRegistry() *Registry {
	return NewRegistry(Config{Host: "127.0.0.1", Port: 5432, User: "test"})
}

func TestRegistry_GetSameInstance(t *testing.T) {
	reg := testRegistry()
	defer reg.CloseAll()

	a, err := reg.Get("shopdb")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	b, err := reg.Get("shopdb")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}

	if a != b {
		t.Error("Expected the same pool instance for the same name")
	}
	if a.Config().Database != "shopdb" {
		t.Errorf("Expected pool database shopdb, got %s", a.Config().Database)
	}
}

func TestRegistry_DistinctDatabases(t *testing.T) {
	reg := testRegistry()
	defer reg.CloseAll()

	a, _ := reg.Get("first")
	b, _ := reg.Get("second")

	if a == b {
		t.Error("Expected distinct pools for distinct names")
	}
	if b.Config().Database != "second" {
		t.Errorf("Expected database second, got %s", b.Config().Database)
	}
}

func TestRegistry_EmptyName(t *testing.T) {
	reg := testRegistry()
	defer reg.CloseAll()

	if _, err := reg.Get(""); err == nil {
		t.Error("Expected error for empty database name")
	}
}

func TestRegistry_ConcurrentGet(t *testing.T) {
	reg := testRegistry()
	defer reg.CloseAll()

	const goroutines = 32
	pools := make([]*DB, goroutines)

	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			db, err := reg.Get("shared")
			if err != nil {
				t.Errorf("Get failed: %v", err)
				return
			}
			pools[i] = db
		}(i)
	}
	wg.Wait()

	for i := 1; i < goroutines; i++ {
		if pools[i] != pools[0] {
			t.Fatal("Expected every goroutine to receive the same pool")
		}
	}
}

func TestRegistry_Close(t *testing.T) {
	reg := testRegistry()

	a, _ := reg.Get("shopdb")
	if err := reg.Close("shopdb"); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	// Unknown name is a no-op.
	if err := reg.Close("never-opened"); err != nil {
		t.Errorf("Expected no error closing unknown name, got %v", err)
	}

	// A fresh pool is built after close.
	b, _ := reg.Get("shopdb")
	if a == b {
		t.Error("Expected a new pool after Close")
	}
	reg.CloseAll()
}

func TestRegistry_Names(t *testing.T) {
	reg := testRegistry()
	defer reg.CloseAll()

	reg.Get("beta")
	reg.Get("alpha")

	names := reg.Names()
	if len(names) != 2 || names[0] != "alpha" || names[1] != "beta" {
		t.Errorf("Expected sorted names [alpha beta], got %v", names)
	}
}
