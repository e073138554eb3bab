package ledger

import (
	"context"
	"sync"
	"time"
)

// memStore is an in-memory Store with the same locking contract as PgStore:
// exclusive per-pair row locks, bounded waits, all-or-nothing commit.
type memStore struct {
	lockTimeout time.Duration

	mu       sync.Mutex
	nextID   int64
	rows     map[pairKey]*Record
	locks    map[pairKey]chan struct{}
	products map[int64]*Product
	entries  []TransactionEntry
}

type pairKey struct {
	product   int64
	warehouse int64
}

func newMemStore(lockTimeout time.Duration) *memStore {
	return &memStore{
		lockTimeout: lockTimeout,
		rows:        make(map[pairKey]*Record),
		locks:       make(map[pairKey]chan struct{}),
		products:    make(map[int64]*Product),
	}
}

func (s *memStore) seedProduct(p Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[p.ID] = &p
}

func (s *memStore) seedRecord(productID, warehouseID int64, onHand, reserved int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	k := pairKey{productID, warehouseID}
	s.rows[k] = &Record{
		ID:            s.nextID,
		ProductID:     productID,
		WarehouseID:   warehouseID,
		OnHand:        onHand,
		Reserved:      reserved,
		LastUpdatedAt: time.Now().UTC(),
	}
}

func (s *memStore) record(productID, warehouseID int64) (Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rows[pairKey{productID, warehouseID}]
	if !ok {
		return Record{}, false
	}
	return *r, true
}

func (s *memStore) entryCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *memStore) allEntries() []TransactionEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]TransactionEntry, len(s.entries))
	copy(out, s.entries)
	return out
}

func (s *memStore) sem(k pairKey) chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch, ok := s.locks[k]
	if !ok {
		ch = make(chan struct{}, 1)
		s.locks[k] = ch
	}
	return ch
}

func (s *memStore) acquire(ctx context.Context, k pairKey) error {
	ch := s.sem(k)
	select {
	case ch <- struct{}{}:
		return nil
	case <-time.After(s.lockTimeout):
		return ErrLockTimeout
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *memStore) release(k pairKey) {
	<-s.sem(k)
}

type memUndo struct {
	key     pairKey
	created bool
	prev    Record
}

type memTx struct {
	store   *memStore
	held    []pairKey
	undo    []memUndo
	reorder []struct {
		productID int64
		prev      int
	}
	staged []TransactionEntry
}

func (s *memStore) Exec(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	tx := &memTx{store: s}
	err := fn(ctx, tx)
	s.mu.Lock()
	if err != nil {
		for i := len(tx.undo) - 1; i >= 0; i-- {
			u := tx.undo[i]
			if u.created {
				delete(s.rows, u.key)
			} else {
				prev := u.prev
				s.rows[u.key] = &prev
			}
		}
		for i := len(tx.reorder) - 1; i >= 0; i-- {
			s.products[tx.reorder[i].productID].ReorderPoint = tx.reorder[i].prev
		}
	} else {
		s.entries = append(s.entries, tx.staged...)
	}
	s.mu.Unlock()
	for i := len(tx.held) - 1; i >= 0; i-- {
		s.release(tx.held[i])
	}
	return err
}

func (t *memTx) lock(ctx context.Context, productID, warehouseID int64, create bool) (*Record, error) {
	k := pairKey{productID, warehouseID}
	if err := t.store.acquire(ctx, k); err != nil {
		return nil, err
	}
	t.held = append(t.held, k)

	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	row, ok := t.store.rows[k]
	if !ok {
		if !create {
			return nil, ErrRecordNotFound
		}
		t.store.nextID++
		row = &Record{
			ID:            t.store.nextID,
			ProductID:     productID,
			WarehouseID:   warehouseID,
			LastUpdatedAt: time.Now().UTC(),
		}
		t.store.rows[k] = row
		t.undo = append(t.undo, memUndo{key: k, created: true})
	} else {
		t.undo = append(t.undo, memUndo{key: k, prev: *row})
	}
	cp := *row
	return &cp, nil
}

func (t *memTx) LockRecord(ctx context.Context, productID, warehouseID int64) (*Record, error) {
	return t.lock(ctx, productID, warehouseID, false)
}

func (t *memTx) LockOrCreateRecord(ctx context.Context, productID, warehouseID int64) (*Record, error) {
	return t.lock(ctx, productID, warehouseID, true)
}

func (t *memTx) UpdateQuantities(_ context.Context, recordID int64, onHand, reserved int) (time.Time, error) {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	for _, row := range t.store.rows {
		if row.ID == recordID {
			row.OnHand = onHand
			row.Reserved = reserved
			row.LastUpdatedAt = time.Now().UTC()
			return row.LastUpdatedAt, nil
		}
	}
	return time.Time{}, ErrRecordNotFound
}

func (t *memTx) AppendEntry(_ context.Context, e TransactionEntry) error {
	t.staged = append(t.staged, e)
	return nil
}

func (t *memTx) GetProduct(_ context.Context, productID int64) (*Product, error) {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	p, ok := t.store.products[productID]
	if !ok {
		return nil, ErrProductNotFound
	}
	cp := *p
	return &cp, nil
}

func (t *memTx) SetReorderPoint(_ context.Context, productID int64, level int) error {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	p, ok := t.store.products[productID]
	if !ok {
		return ErrProductNotFound
	}
	t.reorder = append(t.reorder, struct {
		productID int64
		prev      int
	}{productID, p.ReorderPoint})
	p.ReorderPoint = level
	return nil
}
