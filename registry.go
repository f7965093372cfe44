package storekit

import (
	"sort"
	"sync"
)

// Registry maps logical database names to pooled connection factories.
// Each name gets exactly one *DB for the lifetime of the registry, built
// lazily on first request. A Registry is an owned object: construct it
// at process start, pass it to components that need database access, and
// CloseAll at shutdown.
type Registry struct {
	mu    sync.Mutex
	base  Config
	pools map[string]*DB
}

// NewRegistry creates a registry whose pools derive from the base
// configuration: same server, credentials, pool sizing and observability
// settings, with the database name substituted per Get.
func NewRegistry(base Config) *Registry {
	base.applyDefaults()
	return &Registry{
		base:  base,
		pools: make(map[string]*DB),
	}
}

// Get returns the pool for the named database, building it on first
// use. Concurrent first calls for the same name agree on a single pool;
// construction happens at most once per name. Building a pool opens no
// connections, so Get does not block on the network.
func (r *Registry) Get(name string) (*DB, error) {
	if name == "" {
		return nil, &Error{
			Code:    CodeConnectionFailed,
			Message: "database name is required",
			Op:      "Registry.Get",
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if db, ok := r.pools[name]; ok {
		return db, nil
	}

	db, err := Open(r.base.ForDatabase(name))
	if err != nil {
		return nil, err
	}
	r.pools[name] = db
	return db, nil
}

// Close drains and removes the pool for the named database. Closing an
// unknown name is a no-op.
func (r *Registry) Close(name string) error {
	r.mu.Lock()
	db, ok := r.pools[name]
	delete(r.pools, name)
	r.mu.Unlock()

	if !ok {
		return nil
	}
	if err := db.Close(); err != nil {
		return wrapError(err, "Registry.Close")
	}
	return nil
}

// CloseAll drains and removes every pool. The registry remains usable;
// subsequent Get calls build fresh pools.
func (r *Registry) CloseAll() error {
	r.mu.Lock()
	pools := r.pools
	r.pools = make(map[string]*DB)
	r.mu.Unlock()

	var firstErr error
	for name, db := range pools {
		if err := db.Close(); err != nil && firstErr == nil {
			firstErr = wrapError(err, "Registry.CloseAll("+name+")")
		}
	}
	return firstErr
}

// Names returns the names of all currently cached pools, sorted.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	names := make([]string, 0, len(r.pools))
	for name := range r.pools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
