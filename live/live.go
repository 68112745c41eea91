// Package live holds the value containers services expose to subscribers: a
// Cell wrapping one mutable value and a Table wrapping a keyed collection.
// Both wake registered waiters on writes and hand out conflating
// subscriptions as stream.Stream values.
//
// The two containers deliberately differ in when they fire. A Cell only
// notifies when the new value differs from the old one. A Table notifies its
// per-key and whole-table waiters on every write, even a write of an
// unchanged value; only its key-set waiters are conditioned on an actual
// existence change.
package live

// wake delivers a one-shot wakeup. Waiter channels are buffered with
// capacity one, so a wakeup that arrives while the subscriber is busy stays
// pending and the extra sends between two pulls collapse into one.
func wake(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}
