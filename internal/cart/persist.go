package cart

import (
	"context"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/storage"
)

// Rehydrate loads a previously mirrored cart, if any.
func (s *Store) Rehydrate(ctx context.Context, p *storage.Persistence) {
	var items []models.CartItem
	if p.ReadJSON(ctx, storage.SlotCart, &items) {
		s.Restore(items)
	}
}

// MirrorTo writes the cart to the cart slot after every mutation. An empty
// cart removes the slot.
func (s *Store) MirrorTo(p *storage.Persistence) {
	s.Subscribe(func(items []models.CartItem) {
		if len(items) == 0 {
			p.Clear(context.Background(), storage.SlotCart)
			return
		}
		p.Write(context.Background(), storage.SlotCart, items)
	})
}
