package repository

import (
	"sort"
	"sync"
)

// table is a concurrency-safe row set keyed by a sequential id.
type table[T any] struct {
	mu   sync.RWMutex
	seq  int64
	rows map[int64]T
}

func newTable[T any]() *table[T] {
	return &table[T]{rows: make(map[int64]T)}
}

// upsert stores row under id, allocating the next id when id is zero.
// build receives the final id and returns the row to store.
func (t *table[T]) upsert(id int64, build func(id int64) T) T {
	t.mu.Lock()
	defer t.mu.Unlock()

	if id == 0 {
		t.seq++
		id = t.seq
	} else if id > t.seq {
		t.seq = id
	}
	row := build(id)
	t.rows[id] = row
	return row
}

func (t *table[T]) get(id int64) (T, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	row, ok := t.rows[id]
	return row, ok
}

func (t *table[T]) remove(id int64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.rows[id]; !ok {
		return false
	}
	delete(t.rows, id)
	return true
}

// scan returns the rows matching keep, ordered by id.
func (t *table[T]) scan(keep func(T) bool) []T {
	t.mu.RLock()
	defer t.mu.RUnlock()

	ids := make([]int64, 0, len(t.rows))
	for id, row := range t.rows {
		if keep(row) {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := make([]T, 0, len(ids))
	for _, id := range ids {
		out = append(out, t.rows[id])
	}
	return out
}
