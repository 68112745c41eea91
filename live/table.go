package live

import (
	"sort"
	"sync"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/delaneyj/hostparty/stream"
)

// Entry is one pull from a per-key subscription: the value at the key and
// whether the key was present at all.
type Entry[V any] struct {
	Value   V
	Present bool
}

// Table is a string-keyed collection of values with three waiter
// populations: per-key waiters and whole-table waiters fire on every write
// to the table, while existence waiters fire only when a key is actually
// added or removed. All waiter sets are one-shot; a fired set is cleared
// and subscribers re-register on their next pull.
type Table[V any] struct {
	mu        sync.Mutex
	entries   map[string]V
	existence mapset.Set[chan struct{}]
	table     mapset.Set[chan struct{}]
	perKey    map[string]mapset.Set[chan struct{}]
}

func NewTable[V any]() *Table[V] {
	return &Table[V]{
		entries:   map[string]V{},
		existence: mapset.NewSet[chan struct{}](),
		table:     mapset.NewSet[chan struct{}](),
		perKey:    map[string]mapset.Set[chan struct{}]{},
	}
}

func (t *Table[V]) Get(key string) (V, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	v, ok := t.entries[key]
	return v, ok
}

func (t *Table[V]) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

// Keys returns the present keys in sorted order.
func (t *Table[V]) Keys() []string {
	t.mu.Lock()
	keys := make([]string, 0, len(t.entries))
	for key := range t.entries {
		keys = append(keys, key)
	}
	t.mu.Unlock()
	sort.Strings(keys)
	return keys
}

// Snapshot returns a copy of the whole table.
func (t *Table[V]) Snapshot() map[string]V {
	t.mu.Lock()
	defer t.mu.Unlock()
	snapshot := make(map[string]V, len(t.entries))
	for key, v := range t.entries {
		snapshot[key] = v
	}
	return snapshot
}

// Set inserts or overwrites the value at key. Per-key and table waiters are
// woken even if the stored value is unchanged.
func (t *Table[V]) Set(key string, v V) {
	t.write(key, v, true)
}

// Delete removes the key. Like Set, this wakes per-key and table waiters
// unconditionally; existence waiters fire only if the key was present.
func (t *Table[V]) Delete(key string) {
	var zero V
	t.write(key, zero, false)
}

func (t *Table[V]) write(key string, v V, present bool) {
	t.mu.Lock()
	_, existedBefore := t.entries[key]
	if present {
		t.entries[key] = v
	} else {
		delete(t.entries, key)
	}

	var woken []chan struct{}
	if existedBefore != present {
		woken = append(woken, t.existence.ToSlice()...)
		t.existence = mapset.NewSet[chan struct{}]()
	}
	if set, ok := t.perKey[key]; ok {
		woken = append(woken, set.ToSlice()...)
		delete(t.perKey, key)
	}
	woken = append(woken, t.table.ToSlice()...)
	t.table = mapset.NewSet[chan struct{}]()
	t.mu.Unlock()

	for _, ch := range woken {
		wake(ch)
	}
}

// SubscribeKey yields the entry at key each time the key is written,
// starting with its current state.
func (t *Table[V]) SubscribeKey(key string) stream.Stream[Entry[V]] {
	return newSubscription(
		func(ch chan struct{}) { t.addKeyWaiter(key, ch) },
		func(ch chan struct{}) { t.removeKeyWaiter(key, ch) },
		func() Entry[V] {
			v, ok := t.Get(key)
			return Entry[V]{Value: v, Present: ok}
		},
	)
}

// SubscribeKeys yields the sorted key set whenever a key is added or
// removed. Writes that only change a value do not fire it.
func (t *Table[V]) SubscribeKeys() stream.Stream[[]string] {
	return newSubscription(
		func(ch chan struct{}) {
			t.mu.Lock()
			t.existence.Add(ch)
			t.mu.Unlock()
		},
		func(ch chan struct{}) {
			t.mu.Lock()
			t.existence.Remove(ch)
			t.mu.Unlock()
		},
		t.Keys,
	)
}

// SubscribeTable yields a snapshot of the whole table on every write,
// including writes that leave the stored value unchanged.
func (t *Table[V]) SubscribeTable() stream.Stream[map[string]V] {
	return newSubscription(
		func(ch chan struct{}) {
			t.mu.Lock()
			t.table.Add(ch)
			t.mu.Unlock()
		},
		func(ch chan struct{}) {
			t.mu.Lock()
			t.table.Remove(ch)
			t.mu.Unlock()
		},
		t.Snapshot,
	)
}

// Per-key waiter sets exist only while someone is waiting: created lazily
// on registration, dropped when fired or emptied.
func (t *Table[V]) addKeyWaiter(key string, ch chan struct{}) {
	t.mu.Lock()
	defer t.mu.Unlock()
	set, ok := t.perKey[key]
	if !ok {
		set = mapset.NewSet[chan struct{}]()
		t.perKey[key] = set
	}
	set.Add(ch)
}

func (t *Table[V]) removeKeyWaiter(key string, ch chan struct{}) {
	t.mu.Lock()
	defer t.mu.Unlock()
	set, ok := t.perKey[key]
	if !ok {
		return
	}
	set.Remove(ch)
	if set.Cardinality() == 0 {
		delete(t.perKey, key)
	}
}
