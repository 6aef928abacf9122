// Package qreg is the process-wide registry of in-flight queries: it
// supports create-once registration, lookup and abort by UUID, and a
// periodic sweep that drops finished queries once they have aged out
// (spec.md §6).
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package qreg

import (
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/singnet/das-query-engine/cmn/cos"
	"github.com/singnet/das-query-engine/hk"
)

// Entry is whatever a caller registers under a query's UUID - a local
// Sink handle or a RemoteSink - reduced to what the registry needs:
// completion status and the ability to abort early.
type Entry interface {
	UUID() string
	Finished() bool
	Abort()
}

const (
	sweepIval = 30 * time.Second
	// idleGrace is how long a finished entry is kept around before the
	// sweep drops it, so a caller that calls Find shortly after an entry
	// finishes still finds it. Queries are never renewed the way
	// xreg's xactions are, so there is no "keep N most recent" count to
	// maintain - just a time grace per entry.
	idleGrace = 2 * time.Minute
)

type regResult struct {
	entry Entry
	isNew bool
}

type registry struct {
	mu     sync.RWMutex
	byUUID map[string]Entry
	finAt  map[string]time.Time
	sf     singleflight.Group
}

func newRegistry() *registry {
	return &registry{
		byUUID: make(map[string]Entry, 64),
		finAt:  make(map[string]time.Time, 64),
	}
}

var dreg = newRegistry()

// TestInit resets the default registry; used by tests to get a clean slate.
func TestInit() { dreg = newRegistry() }

// RegWithHK registers the registry's periodic sweep with hk.
func RegWithHK() {
	hk.DefaultHK.Reg("qreg-sweep", dreg.sweep, sweepIval)
}

// GenUUID returns a fresh, process-local query identifier.
func GenUUID() string { return cos.GenUUID() }

// Register adds entry under entry.UUID(), unless an entry is already
// registered under that UUID - in which case the existing entry is
// returned instead of overwriting it. This makes registration idempotent
// against a caller that retries a create request with the same UUID
// after, say, a dropped acknowledgement: the retry finds and reuses the
// original tree rather than starting a second one alongside it.
// singleflight collapses concurrent Register calls that race on the
// same UUID into a single winner, mirroring the mutual-exclusion
// xreg.registry.renewMtx gives xaction renewal.
func Register(entry Entry) (actual Entry, isNew bool) {
	v, _, _ := dreg.sf.Do(entry.UUID(), func() (any, error) {
		dreg.mu.Lock()
		defer dreg.mu.Unlock()
		if existing, ok := dreg.byUUID[entry.UUID()]; ok {
			return regResult{existing, false}, nil
		}
		dreg.byUUID[entry.UUID()] = entry
		return regResult{entry, true}, nil
	})
	r := v.(regResult)
	return r.entry, r.isNew
}

// Find looks up a registered query by UUID.
func Find(uuid string) (Entry, bool) {
	dreg.mu.RLock()
	defer dreg.mu.RUnlock()
	e, ok := dreg.byUUID[uuid]
	return e, ok
}

// List returns the UUIDs of every currently-registered query, sorted.
func List() []string {
	dreg.mu.RLock()
	defer dreg.mu.RUnlock()
	out := make([]string, 0, len(dreg.byUUID))
	for id := range dreg.byUUID {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Abort aborts a registered query by UUID.
func Abort(uuid string) error {
	dreg.mu.RLock()
	e, ok := dreg.byUUID[uuid]
	dreg.mu.RUnlock()
	if !ok {
		return cos.NewErrNotFound("query %q", uuid)
	}
	e.Abort()
	return nil
}

// sweep drops entries that have been Finished for at least idleGrace.
func (r *registry) sweep() time.Duration {
	now := time.Now()
	var toDel []string

	r.mu.Lock()
	for id, e := range r.byUUID {
		if !e.Finished() {
			delete(r.finAt, id)
			continue
		}
		at, tracked := r.finAt[id]
		if !tracked {
			r.finAt[id] = now
			continue
		}
		if now.Sub(at) >= idleGrace {
			toDel = append(toDel, id)
		}
	}
	for _, id := range toDel {
		delete(r.byUUID, id)
		delete(r.finAt, id)
	}
	r.mu.Unlock()

	return sweepIval
}
