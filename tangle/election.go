package tangle

import "github.com/triptych/tangle/peerid"

// successor is the pure election function spec §9 asks to be extracted
// and tested exhaustively: given the peers remaining after departed left,
// it picks the single peer "responsible" for invoking the module's
// peer_left export. The rule (spec §4.3) is the remaining peer whose id
// minus the departed id is the smallest positive value.
//
// If no remaining peer has a positive distance (the departed id was the
// highest in the room), responsibility wraps to the remaining peer with
// the smallest id, so exactly one peer is always elected regardless of
// id ordering (spec §8 property 4: "exactly one ... invokes").
func successor(remaining []peerid.PeerID, departed peerid.PeerID) (peerid.PeerID, bool) {
	if len(remaining) == 0 {
		return 0, false
	}

	var (
		best       peerid.PeerID
		bestDist   int64
		haveBest   bool
		lowest     peerid.PeerID
		haveLowest bool
	)

	for _, id := range remaining {
		if !haveLowest || id < lowest {
			lowest = id
			haveLowest = true
		}
		dist := id.Distance(departed)
		if dist > 0 && (!haveBest || dist < bestDist) {
			best, bestDist, haveBest = id, dist, true
		}
	}

	if haveBest {
		return best, true
	}
	return lowest, true
}

// isResponsibleForDeparture reports whether self is the peer elected to
// invoke peer_left(departed) given the peers remaining in the table
// after departed's record has been removed.
func isResponsibleForDeparture(remaining []peerid.PeerID, departed, self peerid.PeerID) bool {
	elected, ok := successor(remaining, departed)
	return ok && elected == self
}
