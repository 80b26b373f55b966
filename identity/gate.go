// Package identity tracks the session's identity state: anonymous, or
// authenticated with a user id and bearer token.
//
// The gate is the request client's token source and the cart store's
// transition feed: signing in fires an anonymous-to-authenticated
// transition that triggers the once-per-sign-in cart merge.
package identity

import "sync"

// State is the identity state of the session.
type State string

const (
	// Anonymous means no bearer token is present; cart operations route
	// through local persistence only.
	Anonymous State = "anonymous"
	// Authenticated means a bearer token is cached for a known user.
	Authenticated State = "authenticated"
)

// Reason explains why a transition fired.
type Reason string

const (
	// ReasonSignIn marks an explicit sign-in.
	ReasonSignIn Reason = "sign_in"
	// ReasonSignOut marks an explicit sign-out.
	ReasonSignOut Reason = "sign_out"
	// ReasonAuthExpired marks a server-side token rejection (401).
	ReasonAuthExpired Reason = "auth_expired"
)

// Transition describes one identity state change.
type Transition struct {
	From   State
	To     State
	UserID string // set when To == Authenticated
	Reason Reason
}

// Gate holds the current identity state and notifies subscribers on
// transitions. Safe for concurrent use.
type Gate struct {
	mu     sync.Mutex
	token  string
	userID string
	subs   []func(Transition)
}

// NewGate creates an anonymous gate.
func NewGate() *Gate {
	return &Gate{}
}

// NewGateWithToken creates a gate already authenticated with a cached
// token, e.g. restored from a prior session. No transition fires.
func NewGateWithToken(userID, token string) *Gate {
	return &Gate{token: token, userID: userID}
}

// Token implements the request client's token source.
func (g *Gate) Token() (string, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.token, g.token != ""
}

// Authenticated reports whether a token is currently cached.
func (g *Gate) Authenticated() bool {
	_, ok := g.Token()
	return ok
}

// UserID returns the authenticated user's id, if any.
func (g *Gate) UserID() (string, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.userID, g.userID != ""
}

// State returns the current identity state.
func (g *Gate) State() State {
	if g.Authenticated() {
		return Authenticated
	}
	return Anonymous
}

// Subscribe registers fn to be called on every transition.
// Subscribers run synchronously, outside the gate's lock, in
// registration order.
func (g *Gate) Subscribe(fn func(Transition)) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.subs = append(g.subs, fn)
}

// SignIn caches the user's token and fires a transition to Authenticated.
func (g *Gate) SignIn(userID, token string) {
	g.mu.Lock()
	from := g.stateLocked()
	g.token = token
	g.userID = userID
	subs := g.subsCopyLocked()
	g.mu.Unlock()

	notify(subs, Transition{From: from, To: Authenticated, UserID: userID, Reason: ReasonSignIn})
}

// SignOut clears the cached token and fires a transition to Anonymous.
func (g *Gate) SignOut() {
	g.clear(ReasonSignOut)
}

// Invalidate clears the cached token after the server rejected it.
// Called by the request client on a 401 response.
func (g *Gate) Invalidate() {
	g.clear(ReasonAuthExpired)
}

func (g *Gate) clear(reason Reason) {
	g.mu.Lock()
	from := g.stateLocked()
	g.token = ""
	g.userID = ""
	subs := g.subsCopyLocked()
	g.mu.Unlock()

	if from == Anonymous {
		// Nothing to observe; the session was already anonymous.
		return
	}
	notify(subs, Transition{From: from, To: Anonymous, Reason: reason})
}

func (g *Gate) stateLocked() State {
	if g.token != "" {
		return Authenticated
	}
	return Anonymous
}

func (g *Gate) subsCopyLocked() []func(Transition) {
	out := make([]func(Transition), len(g.subs))
	copy(out, g.subs)
	return out
}

func notify(subs []func(Transition), tr Transition) {
	for _, fn := range subs {
		fn(tr)
	}
}
