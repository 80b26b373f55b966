// Package metrics provides per-session metrics collection.
//
// The Collector accumulates counters during a single client session. It is
// a leaf package with no internal dependencies. Request-layer counters are
// recorded live by the api client; cart counters by the store.
package metrics

import "sync"

// Snapshot is an immutable point-in-time view of all session metrics.
// Returned by Collector.Snapshot(). Safe to read concurrently after creation.
type Snapshot struct {
	// Request layer
	RequestsStarted   int64
	RequestsSucceeded int64
	RequestsFailed    int64
	Retries           int64
	SlowCalls         int64
	FailuresByKind    map[string]int64

	// Cart store
	Mutations      int64
	LocalFallbacks int64
	Merges         int64
	MergeFailures  int64

	// Snapshot adapter
	SnapshotSaves        int64
	SnapshotSaveFailures int64
	SnapshotCorruptions  int64

	// Dimensions (informational, set at construction)
	SessionID      string
	StorageBackend string
}

// Collector accumulates metrics during a single session.
// Thread-safe via sync.Mutex. All increment methods are nil-receiver safe.
type Collector struct {
	mu sync.Mutex

	requestsStarted   int64
	requestsSucceeded int64
	requestsFailed    int64
	retries           int64
	slowCalls         int64
	failuresByKind    map[string]int64

	mutations      int64
	localFallbacks int64
	merges         int64
	mergeFailures  int64

	snapshotSaves        int64
	snapshotSaveFailures int64
	snapshotCorruptions  int64

	sessionID      string
	storageBackend string
}

// NewCollector creates a Collector with dimension labels.
func NewCollector(sessionID, storageBackend string) *Collector {
	return &Collector{
		failuresByKind: make(map[string]int64),
		sessionID:      sessionID,
		storageBackend: storageBackend,
	}
}

// --- Request layer ---

// IncRequestStarted records an outbound request (one per logical call,
// not per attempt).
func (c *Collector) IncRequestStarted() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.requestsStarted++
	c.mu.Unlock()
}

// IncRequestSucceeded records a successful request outcome.
func (c *Collector) IncRequestSucceeded() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.requestsSucceeded++
	c.mu.Unlock()
}

// IncRequestFailed records a failed request outcome by error kind.
func (c *Collector) IncRequestFailed(kind string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.requestsFailed++
	c.failuresByKind[kind]++
	c.mu.Unlock()
}

// IncRetry records one retry attempt.
func (c *Collector) IncRetry() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.retries++
	c.mu.Unlock()
}

// IncSlowCall records an attempt exceeding the slow-call threshold.
func (c *Collector) IncSlowCall() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.slowCalls++
	c.mu.Unlock()
}

// --- Cart store ---

// IncMutation records a cart mutation (add, remove, update, clear).
func (c *Collector) IncMutation() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.mutations++
	c.mu.Unlock()
}

// IncLocalFallback records a degradation from remote to local mode.
func (c *Collector) IncLocalFallback() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.localFallbacks++
	c.mu.Unlock()
}

// IncMerge records a successful sign-in cart merge.
func (c *Collector) IncMerge() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.merges++
	c.mu.Unlock()
}

// IncMergeFailure records a failed sign-in cart merge.
func (c *Collector) IncMergeFailure() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.mergeFailures++
	c.mu.Unlock()
}

// --- Snapshot adapter ---

// IncSnapshotSave records a successful local snapshot save.
func (c *Collector) IncSnapshotSave() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.snapshotSaves++
	c.mu.Unlock()
}

// IncSnapshotSaveFailure records a swallowed snapshot save failure.
func (c *Collector) IncSnapshotSaveFailure() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.snapshotSaveFailures++
	c.mu.Unlock()
}

// IncSnapshotCorruption records a corrupted snapshot treated as absent.
func (c *Collector) IncSnapshotCorruption() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.snapshotCorruptions++
	c.mu.Unlock()
}

// --- Snapshot ---

// Snapshot returns an immutable point-in-time view of all metrics.
// The returned Snapshot is safe to read concurrently; the Collector can
// continue to be mutated independently.
func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	byKind := make(map[string]int64, len(c.failuresByKind))
	for k, v := range c.failuresByKind {
		byKind[k] = v
	}

	return Snapshot{
		RequestsStarted:   c.requestsStarted,
		RequestsSucceeded: c.requestsSucceeded,
		RequestsFailed:    c.requestsFailed,
		Retries:           c.retries,
		SlowCalls:         c.slowCalls,
		FailuresByKind:    byKind,

		Mutations:      c.mutations,
		LocalFallbacks: c.localFallbacks,
		Merges:         c.merges,
		MergeFailures:  c.mergeFailures,

		SnapshotSaves:        c.snapshotSaves,
		SnapshotSaveFailures: c.snapshotSaveFailures,
		SnapshotCorruptions:  c.snapshotCorruptions,

		SessionID:      c.sessionID,
		StorageBackend: c.storageBackend,
	}
}
