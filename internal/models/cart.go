package models

import "time"

// CartItem is a line snapshot. Inside a cart a line is identified by
// (product_id, size, color); adding the same key again merges quantities.
type CartItem struct {
	ProductID string  `bson:"product_id" json:"product_id"`
	Name      string  `bson:"name" json:"name"`
	Price     float64 `bson:"price" json:"price"`
	Quantity  int     `bson:"quantity" json:"quantity"`
	Size      string  `bson:"size,omitempty" json:"size,omitempty"`
	Color     string  `bson:"color,omitempty" json:"color,omitempty"`
	Image     string  `bson:"image,omitempty" json:"image,omitempty"`
}

// SameLine reports whether another item targets the same cart line.
func (i CartItem) SameLine(productID, size, color string) bool {
	return i.ProductID == productID && i.Size == size && i.Color == color
}

// Cart belongs to a user when UserID is set, otherwise to an anonymous
// browser session identified by SessionID (cart_session cookie).
type Cart struct {
	CartID    string     `bson:"cart_id" json:"cart_id"`
	UserID    string     `bson:"user_id,omitempty" json:"user_id,omitempty"`
	SessionID string     `bson:"session_id,omitempty" json:"session_id,omitempty"`
	Items     []CartItem `bson:"items" json:"items"`
	UpdatedAt time.Time  `bson:"updated_at" json:"updated_at"`
}

// Subtotal sums price × quantity over the cart lines.
func (c Cart) Subtotal() float64 {
	var total float64
	for _, item := range c.Items {
		total += item.Price * float64(item.Quantity)
	}
	return total
}

// MergeItem adds an item, incrementing quantity when a line with the same
// (product_id, size, color) key already exists.
func (c *Cart) MergeItem(item CartItem) {
	for idx := range c.Items {
		if c.Items[idx].SameLine(item.ProductID, item.Size, item.Color) {
			c.Items[idx].Quantity += item.Quantity
			return
		}
	}
	c.Items = append(c.Items, item)
}
