package cart

import (
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"vermilion/models"
	"vermilion/utils"
)

// drawerCloseDelay is how long the cart drawer stays open after the last
// successful add.
const drawerCloseDelay = 3 * time.Second

// CapacityError reports a quantity that would exceed the stock ceiling known
// at add time. The store is left unchanged when it is returned.
type CapacityError struct {
	Name  string
	Limit int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("only %d of %q available", e.Limit, e.Name)
}

// Persister stores the item sequence durably. Writes are best-effort: the
// store never fails a mutation because a save failed. Clear drops the
// durable record entirely.
type Persister interface {
	Save(items []models.CartItem) error
	Load() ([]models.CartItem, error)
	Clear() error
}

// Store holds one session's cart. It is an explicit state object constructed
// once per session and passed by handle; all mutations go through its
// methods. The visibility flag is transient UI state and is never persisted.
type Store struct {
	mu         sync.Mutex
	items      []models.CartItem
	isOpen     bool
	closeTimer *time.Timer
	persister  Persister

	// latest snapshot awaiting persistence; written by exactly one
	// background goroutine at a time so saves never reorder
	pending    []models.CartItem
	hasPending bool
	saving     bool
}

func NewStore(p Persister) *Store {
	s := &Store{persister: p}
	if p != nil {
		items, err := p.Load()
		if err != nil {
			log.Println("cart: load failed, starting empty:", err)
		} else {
			s.items = items
		}
	}
	return s
}

// dedupKey identifies a line for merging. Customization keys are sorted so
// two semantically identical payloads always collide regardless of insertion
// order.
func dedupKey(productID, variantID string, customization map[string]string) string {
	var b strings.Builder
	b.WriteString(productID)
	b.WriteByte('|')
	b.WriteString(variantID)
	b.WriteByte('|')

	keys := make([]string, 0, len(customization))
	for k := range customization {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(customization[k])
	}
	return b.String()
}

// AddItem merges into an existing line with the same (product, variant,
// customization) identity, or appends a new line with a fresh id. A quantity
// that would exceed MaxQuantity aborts with CapacityError and no mutation.
func (s *Store) AddItem(item models.CartItem) (models.CartItem, error) {
	if item.Quantity < 1 {
		return models.CartItem{}, fmt.Errorf("quantity must be at least 1")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := dedupKey(item.ProductID, item.VariantID, item.Customization)
	for i := range s.items {
		existing := &s.items[i]
		if dedupKey(existing.ProductID, existing.VariantID, existing.Customization) != key {
			continue
		}
		if existing.Quantity+item.Quantity > existing.MaxQuantity {
			return models.CartItem{}, &CapacityError{Name: existing.Name, Limit: existing.MaxQuantity}
		}
		existing.Quantity += item.Quantity
		s.openDrawerLocked()
		s.persistLocked()
		return *existing, nil
	}

	if item.Quantity > item.MaxQuantity {
		return models.CartItem{}, &CapacityError{Name: item.Name, Limit: item.MaxQuantity}
	}

	item.ID = utils.GetUUID()
	item.AddedAt = time.Now()
	s.items = append(s.items, item)
	s.openDrawerLocked()
	s.persistLocked()
	return item, nil
}

// RemoveItem deletes the line with that id; absent ids are a no-op.
func (s *Store) RemoveItem(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.items {
		if s.items[i].ID == id {
			s.items = append(s.items[:i], s.items[i+1:]...)
			s.persistLocked()
			return
		}
	}
}

// UpdateQuantity replaces a line's quantity. Zero or negative delegates to
// RemoveItem.
func (s *Store) UpdateQuantity(id string, qty int) error {
	if qty <= 0 {
		s.RemoveItem(id)
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.items {
		if s.items[i].ID != id {
			continue
		}
		if qty > s.items[i].MaxQuantity {
			return &CapacityError{Name: s.items[i].Name, Limit: s.items[i].MaxQuantity}
		}
		s.items[i].Quantity = qty
		s.persistLocked()
		return nil
	}
	return nil
}

func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = nil
	s.persistLocked()
}

func (s *Store) ToggleDrawer() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.isOpen = !s.isOpen
}

func (s *Store) OpenDrawer() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.isOpen = true
}

func (s *Store) CloseDrawer() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.isOpen = false
}

func (s *Store) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isOpen
}

func (s *Store) TotalItems() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, it := range s.items {
		total += it.Quantity
	}
	return total
}

func (s *Store) TotalPrice() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0.0
	for _, it := range s.items {
		total += it.Price * float64(it.Quantity)
	}
	return total
}

func (s *Store) CountOf(productID, variantID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, it := range s.items {
		if it.ProductID == productID && it.VariantID == variantID {
			count += it.Quantity
		}
	}
	return count
}

func (s *Store) Contains(productID, variantID string) bool {
	return s.CountOf(productID, variantID) > 0
}

// Items returns a copy of the item sequence.
func (s *Store) Items() []models.CartItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.CartItem, len(s.items))
	copy(out, s.items)
	return out
}

// openDrawerLocked opens the drawer and (re)arms the auto-close timer.
// Cancelling the previous timer gives "close 3s after the last add"; a
// fire-and-forget timer would let rapid adds close and reopen the drawer.
func (s *Store) openDrawerLocked() {
	s.isOpen = true
	if s.closeTimer != nil {
		s.closeTimer.Stop()
	}
	s.closeTimer = time.AfterFunc(drawerCloseDelay, func() {
		s.mu.Lock()
		s.isOpen = false
		s.closeTimer = nil
		s.mu.Unlock()
	})
}

// persistLocked queues the current item sequence for the background writer.
// Only the newest snapshot is ever written, and one writer runs at a time,
// so an earlier mutation's save can never land after a later one. Failures
// are logged and swallowed.
func (s *Store) persistLocked() {
	if s.persister == nil {
		return
	}
	snapshot := make([]models.CartItem, len(s.items))
	copy(snapshot, s.items)
	s.pending = snapshot
	s.hasPending = true
	if s.saving {
		return
	}
	s.saving = true
	go s.flushPending()
}

func (s *Store) flushPending() {
	for {
		s.mu.Lock()
		if !s.hasPending {
			s.saving = false
			s.mu.Unlock()
			return
		}
		snapshot := s.pending
		s.hasPending = false
		s.mu.Unlock()

		var err error
		if len(snapshot) == 0 {
			err = s.persister.Clear()
		} else {
			err = s.persister.Save(snapshot)
		}
		if err != nil {
			log.Println("cart: save failed:", err)
		}
	}
}
