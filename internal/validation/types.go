package validation

// OrderLineInput is a single requested line: which door, how many.
// Pricing is never accepted from the caller; it is re-derived from inventory.
type OrderLineInput struct {
	ItemID   string `json:"itemId" validate:"required"`
	Quantity int    `json:"quantity" validate:"required,min=1"`
}

// CustomerInput identifies who the order is for.
type CustomerInput struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"required,email"`
	Phone string `json:"phone,omitempty"`
}

// ShippingInput is the delivery address.
type ShippingInput struct {
	Address    string `json:"address" validate:"required"`
	City       string `json:"city" validate:"required"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postalCode" validate:"required"`
	Country    string `json:"country" validate:"required"`
}

// CreateOrderRequest is the payload for POST /orders.
type CreateOrderRequest struct {
	Customer      CustomerInput    `json:"customer" validate:"required"`
	Shipping      ShippingInput    `json:"shipping" validate:"required"`
	PaymentMethod string           `json:"paymentMethod" validate:"required"`
	Items         []OrderLineInput `json:"items" validate:"required,min=1,dive"`
}

// UpdateStatusRequest is the payload for PATCH /orders/:id/status.
type UpdateStatusRequest struct {
	Status        string `json:"status" validate:"required"`
	PaymentStatus string `json:"paymentStatus,omitempty"`
}
