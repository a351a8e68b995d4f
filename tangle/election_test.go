package tangle

import (
	"testing"

	"github.com/triptych/tangle/peerid"
)

func ids(vs ...int64) []peerid.PeerID {
	out := make([]peerid.PeerID, len(vs))
	for i, v := range vs {
		out[i] = peerid.PeerID(v)
	}
	return out
}

func TestSuccessorScenarioS5(t *testing.T) {
	// peers {1,2,5}; 2 departs; remaining {1,5}; 5-2=3 wins over 1-2=-1.
	elected, ok := successor(ids(1, 5), peerid.PeerID(2))
	if !ok || elected != peerid.PeerID(5) {
		t.Fatalf("expected peer 5 elected, got %v ok=%v", elected, ok)
	}
}

func TestSuccessorPicksSmallestPositiveDistance(t *testing.T) {
	elected, ok := successor(ids(3, 7, 20), peerid.PeerID(2))
	if !ok || elected != peerid.PeerID(3) {
		t.Fatalf("expected peer 3 (distance 1), got %v", elected)
	}
}

func TestSuccessorWrapsWhenDepartedWasHighest(t *testing.T) {
	// every remaining id is below departed: no positive distance exists.
	elected, ok := successor(ids(1, 2, 3), peerid.PeerID(100))
	if !ok || elected != peerid.PeerID(1) {
		t.Fatalf("expected wraparound to smallest id 1, got %v", elected)
	}
}

func TestSuccessorSingleRemainingPeerAlwaysWins(t *testing.T) {
	elected, ok := successor(ids(42), peerid.PeerID(7))
	if !ok || elected != peerid.PeerID(42) {
		t.Fatalf("expected sole remaining peer elected, got %v", elected)
	}
}

func TestSuccessorEmptyRemainingIsNotElected(t *testing.T) {
	_, ok := successor(nil, peerid.PeerID(7))
	if ok {
		t.Fatalf("expected no election with no remaining peers")
	}
}

func TestIsResponsibleForDepartureExhaustive(t *testing.T) {
	remaining := ids(1, 5)
	departed := peerid.PeerID(2)
	responsibleCount := 0
	for _, self := range remaining {
		if isResponsibleForDeparture(remaining, departed, self) {
			responsibleCount++
		}
	}
	if responsibleCount != 1 {
		t.Fatalf("expected exactly one elected peer, got %d", responsibleCount)
	}
}
