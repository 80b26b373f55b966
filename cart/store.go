// Package cart implements the client-side cart synchronization engine.
//
// The Store owns the in-memory cart state and reconciles an optimistic
// local view with the authoritative remote cart. While authenticated the
// server's response is the source of truth for every mutation; as a guest,
// or after a remote failure, the in-memory state is authoritative and is
// mirrored to the local snapshot.
//
// The store favors availability over strict consistency: a mutation whose
// remote call fails keeps the optimistic in-memory state and degrades to
// local mode rather than dropping the user's action. A later Sync pushes
// the local lines back and restores remote mode.
package cart

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/pithecene-io/trolley/api"
	"github.com/pithecene-io/trolley/identity"
	"github.com/pithecene-io/trolley/log"
	"github.com/pithecene-io/trolley/metrics"
	"github.com/pithecene-io/trolley/snapshot"
	"github.com/pithecene-io/trolley/types"
)

// ErrInvalidInput indicates a mutation with a missing or unusable argument.
var ErrInvalidInput = errors.New("cart: invalid input")

// Backend is the slice of the request client the store depends on.
type Backend interface {
	Do(ctx context.Context, req api.Request, out any) error
}

// Verify the api client satisfies Backend.
var _ Backend = (*api.Client)(nil)

// Observer receives a copy of the cart state after every committed change.
type Observer func(types.CartState)

// cartPayload is the backend's cart representation. Every cart endpoint
// responds with the authoritative line list.
type cartPayload struct {
	Lines types.Lines `json:"lines"`
}

// addRequest is the POST /cart body.
type addRequest struct {
	ProductID string            `json:"product_id"`
	Quantity  int               `json:"quantity"`
	UnitPrice int64             `json:"unit_price"`
	Options   map[string]string `json:"options,omitempty"`
}

// quantityRequest is the PUT /cart/{productId} body.
type quantityRequest struct {
	Quantity int `json:"quantity"`
}

// Store owns the cart state for one session. Exactly one Store exists per
// session; no other component mutates the line list.
//
// Mutations commit to in-memory state in the order their network calls
// resolve, not the order they were issued. The store does not serialize
// operations internally; callers that need strict ordering await each
// operation before issuing the next.
type Store struct {
	client  Backend
	snaps   *snapshot.Adapter
	gate    *identity.Gate
	logger  *log.Logger
	metrics *metrics.Collector

	mu        sync.Mutex
	state     types.CartState
	observers []Observer
}

// New creates a cart store with injected dependencies and subscribes it to
// the identity gate: an anonymous-to-authenticated transition runs the
// merge engine exactly once; a transition back to anonymous resets the
// in-memory state.
func New(client Backend, snaps *snapshot.Adapter, gate *identity.Gate, logger *log.Logger, collector *metrics.Collector) *Store {
	s := &Store{
		client:  client,
		snaps:   snaps,
		gate:    gate,
		logger:  logger,
		metrics: collector,
		state:   types.CartState{Lines: types.Lines{}, Source: types.SourceLocal},
	}
	gate.Subscribe(s.onTransition)
	return s
}

// onTransition reacts to identity changes.
func (s *Store) onTransition(tr identity.Transition) {
	switch {
	case tr.From == identity.Anonymous && tr.To == identity.Authenticated:
		// Sign-in: merge the guest cart into the user's remote cart.
		// Bounded by the request client's per-attempt deadlines.
		s.mergeOnSignIn(context.Background())
	case tr.To == identity.Anonymous:
		// Logout or expiry: the remote cart belongs to the user, not the
		// device. Tear down the in-memory state.
		s.commitLocal(types.Lines{})
	}
}

// Load hydrates the cart: from the remote store when authenticated, from
// the local snapshot otherwise. A remote fetch failure falls back to the
// last-known local snapshot and continues in degraded local mode; Load
// only errors when no cart is obtainable at all.
func (s *Store) Load(ctx context.Context) error {
	if s.gate.Authenticated() {
		var payload cartPayload
		err := s.client.Do(ctx, api.Request{Method: http.MethodGet, Path: "/cart"}, &payload)
		if err == nil {
			s.commitRemote(payload.Lines)
			return nil
		}

		lines, snapErr := s.snaps.Load(ctx)
		if snapErr != nil {
			return fmt.Errorf("cart unavailable: %w", err)
		}
		s.logWarn("remote cart unavailable, continuing from local snapshot", err)
		s.metrics.IncLocalFallback()
		s.commitLocal(lines)
		return nil
	}

	lines, err := s.snaps.Load(ctx)
	if err != nil {
		return fmt.Errorf("cart unavailable: %w", err)
	}
	s.commitLocal(lines)
	return nil
}

// AddLine adds quantity of a product, capturing the unit price at add time.
// An existing line's quantity is incremented and clamped; a new line is
// appended. Quantities clamp to [1, 999].
func (s *Store) AddLine(ctx context.Context, productID string, quantity int, unitPrice int64, options map[string]string) error {
	if productID == "" {
		return fmt.Errorf("%w: product id is required", ErrInvalidInput)
	}
	quantity = types.ClampQuantity(quantity)
	s.metrics.IncMutation()

	line := types.CartLine{
		ProductID: productID,
		Quantity:  quantity,
		UnitPrice: unitPrice,
		Options:   options,
		AddedAt:   time.Now().UTC(),
	}

	if s.remoteMode() {
		var payload cartPayload
		err := s.client.Do(ctx, api.Request{
			Method: http.MethodPost,
			Path:   "/cart",
			Body: addRequest{
				ProductID: productID,
				Quantity:  quantity,
				UnitPrice: unitPrice,
				Options:   options,
			},
		}, &payload)
		if err == nil {
			s.commitRemote(payload.Lines)
			return nil
		}
		s.degrade(ctx, err, func(lines types.Lines) types.Lines {
			return lines.Upsert(line)
		})
		return err
	}

	s.commitLocalMutation(ctx, func(lines types.Lines) types.Lines {
		return lines.Upsert(line)
	})
	return nil
}

// RemoveLine removes the line for productID. Removing an absent line is a
// no-op success.
func (s *Store) RemoveLine(ctx context.Context, productID string) error {
	if productID == "" {
		return nil
	}
	s.metrics.IncMutation()

	if s.remoteMode() {
		var payload cartPayload
		err := s.client.Do(ctx, api.Request{
			Method: http.MethodDelete,
			Path:   "/cart/" + url.PathEscape(productID),
		}, &payload)
		if err == nil {
			s.commitRemote(payload.Lines)
			return nil
		}
		// The server never saw the line: same outcome as removing an
		// absent line locally.
		var reqErr *api.RequestError
		if errors.As(err, &reqErr) && reqErr.Status == http.StatusNotFound {
			s.applyRemote(func(lines types.Lines) types.Lines {
				return lines.Remove(productID)
			})
			return nil
		}
		s.degrade(ctx, err, func(lines types.Lines) types.Lines {
			return lines.Remove(productID)
		})
		return err
	}

	s.commitLocalMutation(ctx, func(lines types.Lines) types.Lines {
		return lines.Remove(productID)
	})
	return nil
}

// UpdateQuantity sets a line's quantity, clamped to [1, 999]. A quantity
// of zero or less removes the line. A missing line is upserted.
func (s *Store) UpdateQuantity(ctx context.Context, productID string, quantity int) error {
	if productID == "" {
		return fmt.Errorf("%w: product id is required", ErrInvalidInput)
	}
	if quantity <= 0 {
		return s.RemoveLine(ctx, productID)
	}
	quantity = types.ClampQuantity(quantity)
	s.metrics.IncMutation()

	now := time.Now().UTC()
	if s.remoteMode() {
		var payload cartPayload
		err := s.client.Do(ctx, api.Request{
			Method: http.MethodPut,
			Path:   "/cart/" + url.PathEscape(productID),
			Body:   quantityRequest{Quantity: quantity},
		}, &payload)
		if err == nil {
			s.commitRemote(payload.Lines)
			return nil
		}
		s.degrade(ctx, err, func(lines types.Lines) types.Lines {
			return lines.SetQuantity(productID, quantity, now)
		})
		return err
	}

	s.commitLocalMutation(ctx, func(lines types.Lines) types.Lines {
		return lines.SetQuantity(productID, quantity, now)
	})
	return nil
}

// Clear empties the cart. The local snapshot is always cleared so stale
// guest data cannot leak back in on a later merge; while remote is
// authoritative a clear request is also issued to the server. In degraded
// local mode the clear stays local and the next sync reconciles it.
func (s *Store) Clear(ctx context.Context) error {
	s.metrics.IncMutation()

	remote := s.remoteMode()
	var remoteErr error
	if remote {
		var payload cartPayload
		remoteErr = s.client.Do(ctx, api.Request{Method: http.MethodPost, Path: "/cart/clear"}, &payload)
	}

	if err := s.snaps.Clear(ctx); err != nil {
		s.logWarn("local snapshot clear failed", err)
	}

	if remoteErr != nil {
		// The in-memory cart still empties; the remote mirror catches up
		// on the next sync.
		s.degrade(ctx, remoteErr, func(types.Lines) types.Lines {
			return types.Lines{}
		})
		return remoteErr
	}

	// Only a server-confirmed clear may claim remote authority and stamp
	// the sync time.
	if remote {
		s.commitRemote(types.Lines{})
	} else {
		s.commitLocal(types.Lines{})
	}
	return nil
}

// Sync pushes the local line list wholesale to the server and restores
// remote mode. Used to reconcile after a degraded period.
func (s *Store) Sync(ctx context.Context) error {
	if !s.gate.Authenticated() {
		return fmt.Errorf("%w: sync requires authentication", ErrInvalidInput)
	}

	var payload cartPayload
	err := s.client.Do(ctx, api.Request{
		Method: http.MethodPost,
		Path:   "/cart/sync",
		Body:   cartPayload{Lines: s.Lines()},
	}, &payload)
	if err != nil {
		return err
	}

	s.commitRemote(payload.Lines)
	if clearErr := s.snaps.Clear(ctx); clearErr != nil {
		s.logWarn("local snapshot clear failed after sync", clearErr)
	}
	return nil
}

// Subscribe registers an observer called with a state copy after every
// committed change. Observers run synchronously in registration order.
func (s *Store) Subscribe(obs Observer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, obs)
}

// --- Derived queries (synchronous, never touch the network) ---

// State returns a copy of the current cart state.
func (s *Store) State() types.CartState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Lines returns a copy of the current line list.
func (s *Store) Lines() types.Lines {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Lines.Clone()
}

// ItemCount returns the total quantity across all lines.
func (s *Store) ItemCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Lines.ItemCount()
}

// Subtotal returns the cart's total monetary value in minor units.
func (s *Store) Subtotal() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Lines.Subtotal()
}

// QuantityOf returns the stored quantity for productID, or 0.
func (s *Store) QuantityOf(productID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Lines.QuantityOf(productID)
}

// Contains reports whether the cart holds a line for productID.
func (s *Store) Contains(productID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Lines.Contains(productID)
}

// Source returns which store is authoritative right now.
func (s *Store) Source() types.Source {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Source
}

// --- State commits ---

// remoteMode reports whether mutations should go to the server first.
func (s *Store) remoteMode() bool {
	return s.gate.Authenticated() && s.Source() == types.SourceRemote
}

// commitRemote replaces the line list with the server's authoritative
// response and stamps the sync time.
func (s *Store) commitRemote(lines types.Lines) {
	now := time.Now().UTC()
	s.mu.Lock()
	if lines == nil {
		lines = types.Lines{}
	}
	s.state.Lines = lines.Clone()
	s.state.Source = types.SourceRemote
	s.state.LastSyncedAt = &now
	snapshotState := s.state.Clone()
	obs := s.observersCopyLocked()
	s.mu.Unlock()

	s.notify(obs, snapshotState)
}

// commitLocal replaces the line list and marks local as authoritative.
func (s *Store) commitLocal(lines types.Lines) {
	s.mu.Lock()
	if lines == nil {
		lines = types.Lines{}
	}
	s.state.Lines = lines.Clone()
	s.state.Source = types.SourceLocal
	snapshotState := s.state.Clone()
	obs := s.observersCopyLocked()
	s.mu.Unlock()

	s.notify(obs, snapshotState)
}

// commitLocalMutation applies a mutation under the lock and persists the
// result to the local snapshot. The local write is the single
// authoritative write in local mode.
func (s *Store) commitLocalMutation(ctx context.Context, mutate func(types.Lines) types.Lines) {
	s.mu.Lock()
	s.state.Lines = mutate(s.state.Lines)
	s.state.Source = types.SourceLocal
	snapshotState := s.state.Clone()
	obs := s.observersCopyLocked()
	s.mu.Unlock()

	s.snaps.Save(ctx, snapshotState.Lines)
	s.notify(obs, snapshotState)
}

// applyRemote applies a mutation to in-memory state while keeping remote
// as the authoritative source (used when the server confirms the line is
// already gone).
func (s *Store) applyRemote(mutate func(types.Lines) types.Lines) {
	s.mu.Lock()
	s.state.Lines = mutate(s.state.Lines)
	snapshotState := s.state.Clone()
	obs := s.observersCopyLocked()
	s.mu.Unlock()

	s.notify(obs, snapshotState)
}

// degrade keeps the optimistic mutation, flips the authoritative source to
// local, and persists the snapshot. The user's action is never dropped; the
// remote mirror is temporarily stale.
func (s *Store) degrade(ctx context.Context, cause error, mutate func(types.Lines) types.Lines) {
	s.logWarn("remote cart write failed, degrading to local mode", cause)
	s.metrics.IncLocalFallback()
	s.commitLocalMutation(ctx, mutate)
}

func (s *Store) observersCopyLocked() []Observer {
	out := make([]Observer, len(s.observers))
	copy(out, s.observers)
	return out
}

func (s *Store) notify(obs []Observer, state types.CartState) {
	for _, fn := range obs {
		fn(state.Clone())
	}
}

func (s *Store) logWarn(message string, err error) {
	if s.logger == nil {
		return
	}
	fields := map[string]any{}
	if err != nil {
		fields["error"] = err.Error()
	}
	s.logger.Warn(message, fields)
}
