// Package authhook provides an optional, embedder-supplied hook for
// verifying the claimed origin of a remote WasmCall before it reaches the
// Time Machine. It exists to answer spec.md §9's open question: "local
// calls rewrite the 'user id' sentinel to the local PeerId before
// networking... remote peers therefore see the sender's id baked into the
// args... this is spoofable." The core remains trust-within-room by
// default (spec.md's Non-goals explicitly exclude cryptographic
// authentication); this package only gives an embedder a place to add it.
package authhook

import (
	"errors"

	"github.com/triptych/tangle/peerid"
)

// ErrUnauthorized is returned by a Validator that rejects a call.
var ErrUnauthorized = errors.New("authhook: unauthorized call origin")

// Validator checks whether a remote call claiming to originate from
// claimedOrigin, delivered over a datagram from wireOrigin, should be
// accepted. Implementations decide what "claimed" vs. "wire" origin
// mismatch means for their own transport's authentication guarantees.
type Validator interface {
	Validate(wireOrigin, claimedOrigin peerid.PeerID) error
}

// FuncValidator adapts a function into a Validator.
type FuncValidator func(wireOrigin, claimedOrigin peerid.PeerID) error

func (f FuncValidator) Validate(wireOrigin, claimedOrigin peerid.PeerID) error {
	return f(wireOrigin, claimedOrigin)
}

// TrustWireOrigin is the default, Non-goal-compliant policy: it ignores
// whatever player id the call claims and only trusts the transport-level
// sender, which is itself unauthenticated (trust-within-room).
var TrustWireOrigin Validator = FuncValidator(func(peerid.PeerID, peerid.PeerID) error { return nil })

// RequireMatch rejects a call whose claimed origin does not equal the
// datagram's wire origin. This does not make origin claims unspoofable —
// a malicious room member can still claim any id for its own wire
// origin — but it stops one peer from forging calls "as" another peer.
var RequireMatch Validator = FuncValidator(func(wireOrigin, claimedOrigin peerid.PeerID) error {
	if wireOrigin != claimedOrigin {
		return ErrUnauthorized
	}
	return nil
})
