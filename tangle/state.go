package tangle

// State is one of the lifecycle states of spec §4.7.
type State int

const (
	Disconnected State = iota
	RequestingHeap
	Connected
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case RequestingHeap:
		return "requesting_heap"
	case Connected:
		return "connected"
	default:
		return "unknown"
	}
}

// setState transitions the lifecycle state and fires the user callback
// exactly once per transition, matching spec §4.7's "any transition fires
// the state-change callback exactly once." A no-op transition (s == s)
// does not fire the callback.
func (tg *Tangle) setState(s State) {
	tg.mu.Lock()
	if tg.state == s {
		tg.mu.Unlock()
		return
	}
	tg.state = s
	if s == Connected {
		// Entry into Connected clears the pacing baseline, so the next
		// progress_time tick records a fresh one and returns instead of
		// measuring from whenever it was last set.
		tg.lastPerformanceNow = nil
	}
	tg.mu.Unlock()

	if tg.cfg.OnStateChange != nil {
		tg.cfg.OnStateChange(s)
	}
}
