package snapshot

import (
	"testing"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/pithecene-io/trolley/metrics"
	"github.com/pithecene-io/trolley/types"
)

func testLines() types.Lines {
	return types.Lines{
		{
			ProductID: "p1",
			Quantity:  2,
			UnitPrice: 1299,
			Options:   map[string]string{"size": "m"},
			AddedAt:   time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
		},
		{ProductID: "p2", Quantity: 1, UnitPrice: 499, AddedAt: time.Date(2026, 8, 2, 9, 30, 0, 0, time.UTC)},
	}
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	kv := NewMemoryKV()
	a := NewAdapter(kv, nil, nil)

	a.Save(t.Context(), testLines())

	got, err := a.Load(t.Context())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	want := testLines()
	if len(got) != len(want) {
		t.Fatalf("expected %d lines, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i].ProductID != want[i].ProductID ||
			got[i].Quantity != want[i].Quantity ||
			got[i].UnitPrice != want[i].UnitPrice ||
			!got[i].AddedAt.Equal(want[i].AddedAt) {
			t.Errorf("line %d mismatch: got %+v, want %+v", i, got[i], want[i])
		}
	}
	if got[0].Options["size"] != "m" {
		t.Errorf("options lost in round trip: %+v", got[0].Options)
	}
}

func TestLoad_MissingSlotIsEmpty(t *testing.T) {
	a := NewAdapter(NewMemoryKV(), nil, nil)

	got, err := a.Load(t.Context())
	if err != nil {
		t.Fatalf("load on missing slot must not error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected empty lines, got %+v", got)
	}
}

func TestLoad_CorruptSlotClearedAndEmpty(t *testing.T) {
	kv := NewMemoryKV()
	collector := metrics.NewCollector("sess", "memory")
	a := NewAdapter(kv, nil, collector)

	kv.Corrupt(Key)

	got, err := a.Load(t.Context())
	if err != nil {
		t.Fatalf("load on corrupt slot must not error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected empty lines, got %+v", got)
	}
	if kv.Has(Key) {
		t.Error("corrupted slot was not cleared")
	}
	if collector.Snapshot().SnapshotCorruptions != 1 {
		t.Error("corruption not recorded")
	}
}

func TestLoad_WrongVersionTreatedAsCorrupt(t *testing.T) {
	kv := NewMemoryKV()
	a := NewAdapter(kv, nil, nil)

	// Simulate a record written by a hypothetical older client.
	data, err := msgpack.Marshal(&record{Version: 1, SavedAt: time.Now(), Lines: testLines()})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := kv.Set(t.Context(), Key, data); err != nil {
		t.Fatalf("set: %v", err)
	}

	got, err := a.Load(t.Context())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("wrong-version snapshot must read as empty, got %+v", got)
	}
}

func TestSave_FailureIsSwallowed(t *testing.T) {
	kv := NewMemoryKV()
	kv.FailSets = true
	collector := metrics.NewCollector("sess", "memory")
	a := NewAdapter(kv, nil, collector)

	// Must not panic or surface an error.
	a.Save(t.Context(), testLines())

	if collector.Snapshot().SnapshotSaveFailures != 1 {
		t.Error("save failure not recorded")
	}
}

func TestLoad_BackendFailureIsAnError(t *testing.T) {
	kv := NewMemoryKV()
	kv.FailGets = true
	a := NewAdapter(kv, nil, nil)

	if _, err := a.Load(t.Context()); err == nil {
		t.Fatal("expected error when the backend is unreachable")
	}
}

func TestClear_RemovesSlot(t *testing.T) {
	kv := NewMemoryKV()
	a := NewAdapter(kv, nil, nil)

	a.Save(t.Context(), testLines())
	if err := a.Clear(t.Context()); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if kv.Has(Key) {
		t.Error("slot still present after clear")
	}
}
