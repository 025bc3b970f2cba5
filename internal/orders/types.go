package orders

import "time"

// Order statuses as shown in the admin UI.
const (
	StatusPendingPayment = "Pending Payment"
	StatusProcessing     = "Processing"
	StatusShipped        = "Shipped"
	StatusDelivered      = "Delivered"
	StatusCancelled      = "Cancelled"
	StatusRefunded       = "Refunded"
)

// Payment statuses.
const (
	PaymentPending  = "Pending"
	PaymentPaid     = "Paid"
	PaymentRefunded = "Refunded"
)

// Shipment tracking statuses for the embedded shipment.
const (
	TrackingPending   = "Pending"
	TrackingInTransit = "In Transit"
	TrackingDelivered = "Delivered"
	TrackingCancelled = "Cancelled"
	TrackingException = "Exception"
)

// OrderLine is one entry in an order. Display fields are denormalized from
// inventory at creation time; unit price is the inventory price at that
// moment, never the caller's.
type OrderLine struct {
	ItemID    string  `dynamodbav:"item_id" json:"itemId"`
	Name      string  `dynamodbav:"name" json:"name"`
	SKU       string  `dynamodbav:"sku" json:"sku"`
	Quantity  int     `dynamodbav:"quantity" json:"quantity"`
	UnitPrice float64 `dynamodbav:"unit_price" json:"unitPrice"`
	ImageURL  string  `dynamodbav:"image_url,omitempty" json:"imageUrl,omitempty"`
}

// Customer is who the order is for.
type Customer struct {
	Name  string `dynamodbav:"name" json:"name"`
	Email string `dynamodbav:"email" json:"email"`
	Phone string `dynamodbav:"phone,omitempty" json:"phone,omitempty"`
}

// Shipping is the delivery address.
type Shipping struct {
	Address    string `dynamodbav:"address" json:"address"`
	City       string `dynamodbav:"city" json:"city"`
	State      string `dynamodbav:"state,omitempty" json:"state,omitempty"`
	PostalCode string `dynamodbav:"postal_code" json:"postalCode"`
	Country    string `dynamodbav:"country" json:"country"`
}

// Payment carries method and settlement state.
type Payment struct {
	Method string `dynamodbav:"method" json:"method"`
	Status string `dynamodbav:"status" json:"status"`
}

// HistoryEvent is one step in a shipment's history.
type HistoryEvent struct {
	Status string    `dynamodbav:"status" json:"status"`
	Note   string    `dynamodbav:"note,omitempty" json:"note,omitempty"`
	At     time.Time `dynamodbav:"at" json:"at"`
}

// Shipment is owned by its order and stored embedded in the order document.
// Earlier schema revisions kept it in a separate collection; the embedded
// form keeps the 1:1 link and lets status changes ride the order's own
// atomic update.
type Shipment struct {
	Carrier        string         `dynamodbav:"carrier,omitempty" json:"carrier,omitempty"`
	TrackingNumber string         `dynamodbav:"tracking_number,omitempty" json:"trackingNumber,omitempty"`
	Status         string         `dynamodbav:"status" json:"status"`
	History        []HistoryEvent `dynamodbav:"history,omitempty" json:"history,omitempty"`
	ActualDelivery *time.Time     `dynamodbav:"actual_delivery,omitempty" json:"actualDelivery,omitempty"`
}

// Order is the document stored in the orders table.
type Order struct {
	OrderID        string      `dynamodbav:"order_id" json:"id"` // PK
	Customer       Customer    `dynamodbav:"customer" json:"customer"`
	Shipping       Shipping    `dynamodbav:"shipping" json:"shipping"`
	Payment        Payment     `dynamodbav:"payment" json:"payment"`
	Items          []OrderLine `dynamodbav:"items" json:"items"`
	Status         string      `dynamodbav:"status" json:"status"`
	TotalAmount    float64     `dynamodbav:"total_amount" json:"totalAmount"`
	Shipment       Shipment    `dynamodbav:"shipment" json:"shipment"`
	IdempotencyKey string      `dynamodbav:"idempotency_key,omitempty" json:"-"`
	CreatedBy      string      `dynamodbav:"created_by" json:"createdBy"`
	CreatedAt      time.Time   `dynamodbav:"created_at" json:"createdAt"`
	UpdatedAt      time.Time   `dynamodbav:"updated_at" json:"updatedAt"`
	CancelledAt    *time.Time  `dynamodbav:"cancelled_at,omitempty" json:"cancelledAt,omitempty"`
	Attempts       int         `dynamodbav:"attempts,omitempty" json:"-"`
}

// TrackingStatusFor maps an order status to the shipment tracking status the
// admin UI displays alongside it. The empty string means no tracking change.
func TrackingStatusFor(orderStatus string) string {
	switch orderStatus {
	case StatusShipped:
		return TrackingInTransit
	case StatusDelivered:
		return TrackingDelivered
	case StatusCancelled:
		return TrackingCancelled
	default:
		return ""
	}
}
