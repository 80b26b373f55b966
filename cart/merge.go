package cart

import (
	"context"
	"net/http"

	"github.com/pithecene-io/trolley/api"
	"github.com/pithecene-io/trolley/types"
)

// MergeLines combines a guest line list with the remote authoritative list.
//
// The remote lines are the base. A guest line matching a remote product
// sums the two quantities, clamped to the quantity bounds (excess above the
// cap is dropped, not carried over). A guest line with no remote match is
// appended unchanged. Per-product quantities are therefore commutative:
// merging {A:3} into {A:4} yields {A:7} either way.
func MergeLines(remote, guest types.Lines) types.Lines {
	merged := remote.Clone()
	for _, g := range guest {
		if i := merged.Find(g.ProductID); i >= 0 {
			merged[i].Quantity = types.ClampQuantity(merged[i].Quantity + g.Quantity)
			if g.AddedAt.After(merged[i].AddedAt) {
				merged[i].AddedAt = g.AddedAt
			}
			continue
		}
		merged = append(merged, g.Clone())
	}
	return merged
}

// mergeOnSignIn runs the merge engine once for an anonymous-to-authenticated
// transition: fetch the user's remote cart, fold the guest snapshot into it,
// and persist the result remotely.
//
// The guest snapshot is deleted only after the merge write succeeds. On any
// failure the snapshot is retained and the store stays in local mode, so a
// subsequent sign-in retries the merge with no data lost.
func (s *Store) mergeOnSignIn(ctx context.Context) {
	guest, err := s.snaps.Load(ctx)
	if err != nil {
		s.logWarn("guest snapshot unreadable, merging in-memory lines instead", err)
		guest = s.Lines()
	}

	var remote cartPayload
	if err := s.client.Do(ctx, api.Request{Method: http.MethodGet, Path: "/cart"}, &remote); err != nil {
		s.logWarn("cart merge aborted, remote cart unavailable", err)
		s.metrics.IncMergeFailure()
		s.metrics.IncLocalFallback()
		return
	}

	merged := MergeLines(remote.Lines, guest)

	var result cartPayload
	if err := s.client.Do(ctx, api.Request{
		Method: http.MethodPost,
		Path:   "/cart/merge",
		Body:   cartPayload{Lines: merged},
	}, &result); err != nil {
		s.logWarn("cart merge write failed, guest snapshot retained", err)
		s.metrics.IncMergeFailure()
		return
	}

	if result.Lines == nil {
		result.Lines = merged
	}
	s.commitRemote(result.Lines)

	// Only now is the guest data safe to discard.
	if err := s.snaps.Clear(ctx); err != nil {
		s.logWarn("guest snapshot clear failed after merge", err)
	}
	s.metrics.IncMerge()
}
