// Package cart stores per-visitor shopping carts in Redis, keyed by a
// long-lived cart cookie. Prices and titles are resolved server-side
// from the catalog when an item is added; the client only names a plan
// and billing period.
package cart

// Item is a single cart line. ID is "<product>:<period>" so the same
// plan on two billing periods occupies two lines. Price is BRL cents
// per unit, captured at add time.
type Item struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Price    int64  `json:"price"`
	Image    string `json:"image,omitempty"`
	Quantity int    `json:"quantity"`
}

// Cart is the full cart with derived totals.
type Cart struct {
	Items      []Item `json:"items"`
	TotalItems int    `json:"total_items"`
	TotalPrice int64  `json:"total_price"`
}

// Totals recomputes the derived fields from the line items.
func (c *Cart) Totals() {
	c.TotalItems = 0
	c.TotalPrice = 0
	for _, item := range c.Items {
		c.TotalItems += item.Quantity
		c.TotalPrice += item.Price * int64(item.Quantity)
	}
}

// AddRequest names the plan and billing period to add.
type AddRequest struct {
	ProductID string `json:"product_id" form:"product_id"`
	Period    string `json:"period" form:"period"`
}

// QuantityRequest sets an absolute quantity for a cart line.
type QuantityRequest struct {
	Quantity int `json:"quantity" form:"quantity"`
}
