// Package cart holds the transient working set for one in-progress sale.
// A builder is never persisted; it exists only until checkout or abandon.
package cart

import "bentahub/backend/internal/domain"

type Item struct {
	Product  domain.Product `json:"product"`
	Quantity int            `json:"quantity"`
}

// Builder maps selected products to quantities. Quantities stay inside
// [1, product stock]; the only way out of the cart is Remove or checkout.
// Builder is not safe for concurrent use; callers serialize access.
type Builder struct {
	items []Item
}

func NewBuilder() *Builder {
	return &Builder{}
}

// Add puts one unit of the product into the cart, or increments an existing
// entry by one. It reports false when the product is out of stock or the
// entry is already at the stock cap. The product snapshot is refreshed on
// every add so the cap tracks current stock.
func (b *Builder) Add(product domain.Product) bool {
	if product.Stock <= 0 {
		return false
	}
	for i := range b.items {
		if b.items[i].Product.ID == product.ID {
			if b.items[i].Quantity >= product.Stock {
				return false
			}
			b.items[i].Product = product
			b.items[i].Quantity++
			return true
		}
	}
	b.items = append(b.items, Item{Product: product, Quantity: 1})
	return true
}

// AdjustQuantity applies a delta to an entry. A result outside [1, stock]
// leaves the entry unchanged and reports false; dropping to zero is not a
// removal path. Unknown product ids report false.
func (b *Builder) AdjustQuantity(productID string, delta int) bool {
	adjusted := false
	for i := range b.items {
		if b.items[i].Product.ID != productID {
			continue
		}
		next := b.items[i].Quantity + delta
		if next <= 0 || next > b.items[i].Product.Stock {
			break
		}
		b.items[i].Quantity = next
		adjusted = true
		break
	}
	b.prune()
	return adjusted
}

// Refresh replaces the stored product snapshot so the stock cap tracks the
// live catalog. A quantity above the new stock is clamped down; an entry for
// a product that sold out is pruned.
func (b *Builder) Refresh(product domain.Product) {
	for i := range b.items {
		if b.items[i].Product.ID != product.ID {
			continue
		}
		b.items[i].Product = product
		if b.items[i].Quantity > product.Stock {
			b.items[i].Quantity = product.Stock
		}
		break
	}
	b.prune()
}

// Remove deletes the entry regardless of quantity.
func (b *Builder) Remove(productID string) {
	kept := b.items[:0]
	for _, item := range b.items {
		if item.Product.ID != productID {
			kept = append(kept, item)
		}
	}
	b.items = kept
}

// prune drops entries whose quantity reached zero or below.
func (b *Builder) prune() {
	kept := b.items[:0]
	for _, item := range b.items {
		if item.Quantity > 0 {
			kept = append(kept, item)
		}
	}
	b.items = kept
}

// Items returns a copy of the working set in insertion order.
func (b *Builder) Items() []Item {
	out := make([]Item, len(b.items))
	copy(out, b.items)
	return out
}

// TotalCents recomputes the cart total on every call.
func (b *Builder) TotalCents() int64 {
	var total int64
	for _, item := range b.items {
		total += item.Product.PriceCents * int64(item.Quantity)
	}
	return total
}

func (b *Builder) Len() int {
	return len(b.items)
}

// Clear empties the builder after a completed sale.
func (b *Builder) Clear() {
	b.items = nil
}

// Lines converts the working set into frozen transaction lines.
func (b *Builder) Lines() []domain.TransactionLine {
	lines := make([]domain.TransactionLine, 0, len(b.items))
	for _, item := range b.items {
		lines = append(lines, domain.TransactionLine{
			ProductID:   item.Product.ID,
			ProductName: item.Product.Name,
			Quantity:    item.Quantity,
			PriceCents:  item.Product.PriceCents,
		})
	}
	return lines
}
