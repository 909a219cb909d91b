// Package cart implements the storefront shopping cart: an ordered
// collection of product lines with chosen add-ons, persisted as a single
// blob per cart key.
package cart

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/toledos-acai/api/internal/model"
)

// DefaultKey is the storage key the single-device storefront used before
// carts became per-device. Kept for clients that don't send a cart key.
const DefaultKey = "toledos-cart"

// Line is one cart entry: a product snapshot, a quantity and the selected
// add-on set. Two lines with the same product and add-ons are still distinct
// entries; every add creates a new line with its own ID.
type Line struct {
	ID       uuid.UUID     `json:"id"`
	Product  model.Product `json:"product"`
	Quantity int           `json:"quantity"`
	Addons   []model.Addon `json:"addons,omitempty"`
}

// UnitPrice is the product price plus the add-on surcharge.
func (l Line) UnitPrice() decimal.Decimal {
	price := l.Product.Price
	for _, a := range l.Addons {
		price = price.Add(a.Price)
	}
	return price
}

// Subtotal is UnitPrice times quantity.
func (l Line) Subtotal() decimal.Decimal {
	return l.UnitPrice().Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Cart owns the line collection for one key. It is a single-owner structure:
// all mutation happens on the goroutine handling the user action, so there
// is no internal locking.
type Cart struct {
	storage Storage
	key     string
	lines   []Line
}

// Load rehydrates the cart stored under key. A missing or corrupt blob
// yields an empty cart, never an error.
func Load(storage Storage, key string) *Cart {
	c := &Cart{storage: storage, key: key}
	data, err := storage.Get(key)
	if err != nil {
		return c
	}
	var lines []Line
	if err := json.Unmarshal(data, &lines); err != nil {
		return c
	}
	c.lines = lines
	return c
}

// Add appends a new line and persists. Quantities below 1 default to 1.
// Identical product/add-on combinations are not merged.
func (c *Cart) Add(p model.Product, quantity int, addons []model.Addon) Line {
	if quantity < 1 {
		quantity = 1
	}
	line := Line{
		ID:       uuid.New(),
		Product:  p,
		Quantity: quantity,
		Addons:   addons,
	}
	c.lines = append(c.lines, line)
	c.persist()
	return line
}

// Remove deletes the line with the given ID. Unknown IDs are a no-op.
func (c *Cart) Remove(lineID uuid.UUID) {
	for i, l := range c.lines {
		if l.ID == lineID {
			c.lines = append(c.lines[:i], c.lines[i+1:]...)
			c.persist()
			return
		}
	}
}

// SetQuantity replaces the line's quantity; zero or negative removes the
// line. Unknown IDs are a no-op.
func (c *Cart) SetQuantity(lineID uuid.UUID, quantity int) {
	if quantity <= 0 {
		c.Remove(lineID)
		return
	}
	for i := range c.lines {
		if c.lines[i].ID == lineID {
			c.lines[i].Quantity = quantity
			c.persist()
			return
		}
	}
}

// Clear empties the cart. Called after a successful checkout.
func (c *Cart) Clear() {
	c.lines = nil
	c.persist()
}

// Lines returns the current line collection in insertion order.
func (c *Cart) Lines() []Line {
	return c.lines
}

// Total sums (product price + add-on surcharge) × quantity across lines.
func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, l := range c.lines {
		total = total.Add(l.Subtotal())
	}
	return total
}

// Count is the sum of line quantities, used for the cart badge.
func (c *Cart) Count() int {
	n := 0
	for _, l := range c.lines {
		n += l.Quantity
	}
	return n
}

// persist writes the whole collection. Storage failures are non-fatal: the
// in-memory cart stays authoritative and the next mutation retries the write.
func (c *Cart) persist() {
	data, err := json.Marshal(c.lines)
	if err != nil {
		return
	}
	_ = c.storage.Set(c.key, data)
}
