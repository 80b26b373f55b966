// Package types defines the cart data model shared across the engine.
//
// CartLine instances are owned by the store that holds them; callers
// receive copies, never aliases into live state.
package types

import "time"

// Quantity bounds for a single cart line. Values outside the range are
// clamped, not rejected.
const (
	MinQuantity = 1
	MaxQuantity = 999
)

// Source identifies which store is authoritative for the cart right now.
type Source string

const (
	// SourceLocal means the local snapshot is authoritative (guest mode
	// or degraded mode after a remote failure).
	SourceLocal Source = "local"
	// SourceRemote means the server cart is authoritative.
	SourceRemote Source = "remote"
)

// CartLine is one product's presence in the cart.
// Fields carry both json tags (API wire format) and msgpack tags
// (local snapshot format).
type CartLine struct {
	// ProductID is an opaque identifier, unique within a cart.
	ProductID string `json:"product_id" yaml:"product_id" msgpack:"product_id"`
	// Quantity is always within [MinQuantity, MaxQuantity].
	Quantity int `json:"quantity" yaml:"quantity" msgpack:"quantity"`
	// UnitPrice is the price snapshot in minor units (cents), captured
	// at add time and never re-derived from the catalog.
	UnitPrice int64 `json:"unit_price" yaml:"unit_price" msgpack:"unit_price"`
	// Options is an opaque bag of variant metadata.
	Options map[string]string `json:"options,omitempty" yaml:"options,omitempty" msgpack:"options,omitempty"`
	// AddedAt is monotonically non-decreasing per line across updates.
	AddedAt time.Time `json:"added_at" yaml:"added_at" msgpack:"added_at"`
}

// Clone returns a deep copy of the line.
func (l CartLine) Clone() CartLine {
	out := l
	if l.Options != nil {
		out.Options = make(map[string]string, len(l.Options))
		for k, v := range l.Options {
			out.Options[k] = v
		}
	}
	return out
}

// ClampQuantity forces q into [MinQuantity, MaxQuantity].
func ClampQuantity(q int) int {
	if q < MinQuantity {
		return MinQuantity
	}
	if q > MaxQuantity {
		return MaxQuantity
	}
	return q
}

// Lines is an ordered sequence of cart lines with unique product IDs.
// Insertion order is the add order; upserting an existing product updates
// that line in place rather than appending.
type Lines []CartLine

// Clone returns a deep copy of the line list.
func (ls Lines) Clone() Lines {
	if ls == nil {
		return nil
	}
	out := make(Lines, len(ls))
	for i, l := range ls {
		out[i] = l.Clone()
	}
	return out
}

// Find returns the index of the line for productID, or -1.
func (ls Lines) Find(productID string) int {
	for i := range ls {
		if ls[i].ProductID == productID {
			return i
		}
	}
	return -1
}

// Contains reports whether a line for productID exists.
func (ls Lines) Contains(productID string) bool {
	return ls.Find(productID) >= 0
}

// QuantityOf returns the stored quantity for productID, or 0 if absent.
func (ls Lines) QuantityOf(productID string) int {
	if i := ls.Find(productID); i >= 0 {
		return ls[i].Quantity
	}
	return 0
}

// ItemCount returns the total quantity across all lines.
func (ls Lines) ItemCount() int {
	var n int
	for i := range ls {
		n += ls[i].Quantity
	}
	return n
}

// Subtotal returns the total monetary value in minor units.
func (ls Lines) Subtotal() int64 {
	var total int64
	for i := range ls {
		total += int64(ls[i].Quantity) * ls[i].UnitPrice
	}
	return total
}

// Upsert applies an add-style mutation: an existing line for line.ProductID
// has its quantity incremented by line.Quantity (clamped) and its AddedAt
// refreshed; otherwise the line is appended with a clamped quantity.
// Returns the resulting list; the receiver may be mutated in place. The
// incoming line is copied, so the caller's Options map is never retained.
func (ls Lines) Upsert(line CartLine) Lines {
	line = line.Clone()
	line.Quantity = ClampQuantity(line.Quantity)
	if i := ls.Find(line.ProductID); i >= 0 {
		ls[i].Quantity = ClampQuantity(ls[i].Quantity + line.Quantity)
		if line.UnitPrice != 0 {
			ls[i].UnitPrice = line.UnitPrice
		}
		if line.Options != nil {
			ls[i].Options = line.Options
		}
		ls[i].AddedAt = laterOf(ls[i].AddedAt, line.AddedAt)
		return ls
	}
	return append(ls, line)
}

// SetQuantity applies a set-style mutation: the line's quantity becomes the
// clamped value and AddedAt is refreshed. A missing line is appended.
func (ls Lines) SetQuantity(productID string, quantity int, at time.Time) Lines {
	quantity = ClampQuantity(quantity)
	if i := ls.Find(productID); i >= 0 {
		ls[i].Quantity = quantity
		ls[i].AddedAt = laterOf(ls[i].AddedAt, at)
		return ls
	}
	return append(ls, CartLine{ProductID: productID, Quantity: quantity, AddedAt: at})
}

// Remove deletes the line for productID, preserving the order of the rest.
// Removing an absent line is a no-op.
func (ls Lines) Remove(productID string) Lines {
	i := ls.Find(productID)
	if i < 0 {
		return ls
	}
	return append(ls[:i], ls[i+1:]...)
}

// laterOf keeps AddedAt monotonically non-decreasing.
func laterOf(a, b time.Time) time.Time {
	if b.After(a) {
		return b
	}
	return a
}

// CartState is the aggregate owned exclusively by the cart store.
type CartState struct {
	// Lines is the ordered line list.
	Lines Lines `json:"lines" yaml:"lines"`
	// LastSyncedAt is the time of the last successful remote
	// reconciliation; nil if never synced.
	LastSyncedAt *time.Time `json:"last_synced_at,omitempty" yaml:"last_synced_at,omitempty"`
	// Source is the store that is authoritative right now.
	Source Source `json:"source" yaml:"source"`
}

// Clone returns a deep copy of the state.
func (s CartState) Clone() CartState {
	out := s
	out.Lines = s.Lines.Clone()
	if s.LastSyncedAt != nil {
		t := *s.LastSyncedAt
		out.LastSyncedAt = &t
	}
	return out
}
