// Package cart holds the shopper's in-memory cart.
package cart

import (
	"fmt"
	"sync"

	"github.com/Skotchmaster/storefront/internal/apperr"
	"github.com/Skotchmaster/storefront/internal/models"
)

// Listener receives a copy of the cart after every mutation. It runs while
// the store is locked and must not call back into the Store.
type Listener func(items []models.CartItem)

// Store keeps line items in insertion order, at most one per product.
// Prices are snapshotted when a product is first added.
type Store struct {
	mu        sync.Mutex
	items     []models.CartItem
	index     map[string]int
	listeners []Listener
}

func NewStore() *Store {
	return &Store{index: make(map[string]int)}
}

func (s *Store) Subscribe(l Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, l)
}

func (s *Store) Add(p models.Product) error {
	if p.ID == "" {
		return fmt.Errorf("add to cart: product id required: %w", apperr.ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if i, ok := s.index[p.ID]; ok {
		s.items[i].Quantity++
	} else {
		s.index[p.ID] = len(s.items)
		s.items = append(s.items, models.CartItem{
			ProductID: p.ID,
			Name:      p.Name,
			Price:     p.Price,
			Image:     p.Image,
			Quantity:  1,
		})
	}
	s.notifyLocked()
	return nil
}

// UpdateQuantity sets the quantity of an existing line; quantity <= 0
// removes it. Unknown products are ignored.
func (s *Store) UpdateQuantity(productID string, quantity int) {
	if quantity <= 0 {
		s.Remove(productID)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.index[productID]
	if !ok {
		return
	}
	s.items[i].Quantity = quantity
	s.notifyLocked()
}

func (s *Store) Remove(productID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.index[productID]
	if !ok {
		return
	}
	s.items = append(s.items[:i], s.items[i+1:]...)
	s.reindexLocked()
	s.notifyLocked()
}

func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = nil
	clear(s.index)
	s.notifyLocked()
}

// Restore replaces the contents, dropping lines without a product id or
// with a non-positive quantity and merging duplicates.
func (s *Store) Restore(items []models.CartItem) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = nil
	clear(s.index)
	for _, it := range items {
		if it.ProductID == "" || it.Quantity < 1 {
			continue
		}
		if i, ok := s.index[it.ProductID]; ok {
			s.items[i].Quantity += it.Quantity
			continue
		}
		s.index[it.ProductID] = len(s.items)
		s.items = append(s.items, it)
	}
	s.notifyLocked()
}

func (s *Store) Items() []models.CartItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

func (s *Store) IsEmpty() bool { return s.Len() == 0 }

func (s *Store) TotalItems() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, it := range s.items {
		n += it.Quantity
	}
	return n
}

func (s *Store) TotalPrice() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return totalLocked(s.items)
}

type Snapshot struct {
	Items      []models.CartItem `json:"items"`
	TotalItems int               `json:"totalItems"`
	TotalPrice float64           `json:"totalPrice"`
}

// Snapshot returns items and aggregates read under a single lock.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{Items: s.snapshotLocked(), TotalPrice: totalLocked(s.items)}
	for _, it := range s.items {
		snap.TotalItems += it.Quantity
	}
	return snap
}

func totalLocked(items []models.CartItem) float64 {
	var sum float64
	for _, it := range items {
		sum += it.Subtotal()
	}
	return sum
}

func (s *Store) snapshotLocked() []models.CartItem {
	out := make([]models.CartItem, len(s.items))
	copy(out, s.items)
	return out
}

func (s *Store) reindexLocked() {
	clear(s.index)
	for i, it := range s.items {
		s.index[it.ProductID] = i
	}
}

func (s *Store) notifyLocked() {
	if len(s.listeners) == 0 {
		return
	}
	snap := s.snapshotLocked()
	for _, l := range s.listeners {
		l(snap)
	}
}
