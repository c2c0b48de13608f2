package dom

// Event is a dispatched custom event. Seq is the logical-clock stamp
// assigned at dispatch; within one window it is strictly increasing, so
// recorded events are totally ordered without wall-clock timestamps.
type Event struct {
	Type   string
	Detail any
	Seq    int64
}

// Listener receives dispatched events. Listeners run synchronously, in
// registration order, on the dispatching goroutine.
type Listener func(ev Event)
