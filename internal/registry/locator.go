package registry

import (
	"bookd/internal/book"

	"github.com/google/uuid"
)

// Locator resolves an order identifier to its owning shard by scanning the
// registry. The scan costs O(symbols) shard calls, which is acceptable only
// because the symbol set is small and fixed. Order identifiers are assumed
// unique across shards; the locator returns the first match and does not
// verify the assumption.
type Locator struct {
	registry *Registry
}

func NewLocator(registry *Registry) *Locator {
	return &Locator{registry: registry}
}

func (l *Locator) Find(id uuid.UUID) (string, *book.Order, bool) {
	for _, entry := range l.registry.All() {
		if order, ok := entry.Shard.GetOrder(id); ok {
			return entry.Symbol, order, true
		}
	}
	return "", nil, false
}

// Update attempts the mutation on each shard until one accepts it. A shard
// that does not own the order reports not-found and the scan moves on.
func (l *Locator) Update(update book.OrderUpdate) (*book.Order, error) {
	for _, entry := range l.registry.All() {
		order, err := entry.Shard.UpdateOrder(update)
		if err == nil {
			return order, nil
		}
	}
	return nil, book.ErrOrderNotFound
}

func (l *Locator) Cancel(id uuid.UUID) (*book.Order, bool) {
	for _, entry := range l.registry.All() {
		if order, ok := entry.Shard.CancelOrder(id); ok {
			return order, true
		}
	}
	return nil, false
}
