package snapshot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/pithecene-io/trolley/log"
	"github.com/pithecene-io/trolley/metrics"
	"github.com/pithecene-io/trolley/types"
)

// Key is the fixed, versioned storage slot for the cart snapshot.
// Bumping the format version changes the key so old clients never misread
// new snapshots.
const Key = "cart-snapshot-v2"

// formatVersion is embedded in each record; a mismatch is treated as
// corruption.
const formatVersion = 2

// record is the serialized snapshot envelope.
type record struct {
	Version int         `msgpack:"version"`
	SavedAt time.Time   `msgpack:"saved_at"`
	Lines   types.Lines `msgpack:"lines"`
}

// Adapter serializes the cart line list to a durable KV slot.
// Local persistence is a convenience cache, not the source of truth when
// authenticated: saves are best-effort and corruption reads as an empty cart.
type Adapter struct {
	kv      KV
	logger  *log.Logger
	metrics *metrics.Collector
}

// NewAdapter creates a snapshot adapter over the given KV backend.
// logger and collector may be nil.
func NewAdapter(kv KV, logger *log.Logger, collector *metrics.Collector) *Adapter {
	return &Adapter{
		kv:      kv,
		logger:  logger,
		metrics: collector,
	}
}

// Save persists the line list wholesale, overwriting any previous snapshot.
// Failures (storage full or disabled) are swallowed and logged, never
// surfaced to the caller.
func (a *Adapter) Save(ctx context.Context, lines types.Lines) {
	rec := record{
		Version: formatVersion,
		SavedAt: time.Now().UTC(),
		Lines:   lines,
	}
	data, err := msgpack.Marshal(&rec)
	if err != nil {
		a.warn("snapshot encode failed", err)
		a.metrics.IncSnapshotSaveFailure()
		return
	}
	if err := a.kv.Set(ctx, Key, data); err != nil {
		a.warn("snapshot save failed", err)
		a.metrics.IncSnapshotSaveFailure()
		return
	}
	a.metrics.IncSnapshotSave()
}

// Load reads the stored line list. An absent, malformed, or wrong-version
// snapshot is treated as "no snapshot": the corrupted slot is cleared and
// an empty list returned. Only a backend I/O failure is an error.
func (a *Adapter) Load(ctx context.Context) (types.Lines, error) {
	data, err := a.kv.Get(ctx, Key)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return types.Lines{}, nil
		}
		return nil, fmt.Errorf("snapshot load: %w", err)
	}

	var rec record
	if err := msgpack.Unmarshal(data, &rec); err != nil || rec.Version != formatVersion {
		a.warn("snapshot corrupted, clearing slot", err)
		a.metrics.IncSnapshotCorruption()
		if delErr := a.kv.Delete(ctx, Key); delErr != nil {
			a.warn("snapshot clear failed", delErr)
		}
		return types.Lines{}, nil
	}
	if rec.Lines == nil {
		return types.Lines{}, nil
	}
	return rec.Lines, nil
}

// Clear deletes the stored snapshot.
func (a *Adapter) Clear(ctx context.Context) error {
	if err := a.kv.Delete(ctx, Key); err != nil {
		return fmt.Errorf("snapshot clear: %w", err)
	}
	return nil
}

func (a *Adapter) warn(message string, err error) {
	if a.logger == nil {
		return
	}
	fields := map[string]any{"key": Key}
	if err != nil {
		fields["error"] = err.Error()
	}
	a.logger.Warn(message, fields)
}
