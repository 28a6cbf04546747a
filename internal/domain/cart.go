package domain

import "github.com/shopspring/decimal"

// CartItem is one selected photo as remembered by the browsing session.
type CartItem struct {
	PhotoID    string
	DisplayKey string
	ListPrice  decimal.Decimal
	Original   Original
}

// Cart is an ordered selection of photos, unique by photo id.
// Order matters: it decides each item's progressive price.
type Cart struct {
	Items []CartItem
}

// Len returns the number of items in the cart.
func (c *Cart) Len() int {
	return len(c.Items)
}

// Contains reports whether the cart already holds photoID.
func (c *Cart) Contains(photoID string) bool {
	return c.indexOf(photoID) >= 0
}

// Add appends item unless an item with the same photo id is present.
// Returns true if the cart changed.
func (c *Cart) Add(item CartItem) bool {
	if c.Contains(item.PhotoID) {
		return false
	}
	c.Items = append(c.Items, item)
	return true
}

// Remove drops the item with photoID. Returns true if the cart changed.
func (c *Cart) Remove(photoID string) bool {
	i := c.indexOf(photoID)
	if i < 0 {
		return false
	}
	c.Items = append(c.Items[:i], c.Items[i+1:]...)
	return true
}

// Clear empties the cart.
func (c *Cart) Clear() {
	c.Items = nil
}

// PhotoIDs returns the photo ids in cart order.
func (c *Cart) PhotoIDs() []string {
	ids := make([]string, len(c.Items))
	for i, item := range c.Items {
		ids[i] = item.PhotoID
	}
	return ids
}

func (c *Cart) indexOf(photoID string) int {
	for i, item := range c.Items {
		if item.PhotoID == photoID {
			return i
		}
	}
	return -1
}
