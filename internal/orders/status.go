package orders

// validNext is the single place order status transitions are allowed.
// Call sites used to open-code which transitions they permitted; they all go
// through CanTransition now.
var validNext = map[string]map[string]bool{
	StatusPendingPayment: {StatusProcessing: true, StatusCancelled: true},
	StatusProcessing:     {StatusShipped: true, StatusCancelled: true},
	StatusShipped:        {StatusDelivered: true},
	StatusDelivered:      {},
	StatusCancelled:      {},
	StatusRefunded:       {},
}

// CanTransition reports whether an order may move from one status to another.
func CanTransition(from, to string) bool {
	return validNext[from][to]
}

// IsKnownStatus reports whether s is part of the status enumeration at all.
func IsKnownStatus(s string) bool {
	_, ok := validNext[s]
	return ok
}

var knownPaymentStatus = map[string]bool{
	PaymentPending:  true,
	PaymentPaid:     true,
	PaymentRefunded: true,
}

// IsKnownPaymentStatus reports whether s is part of the payment status
// enumeration.
func IsKnownPaymentStatus(s string) bool {
	return knownPaymentStatus[s]
}

// cancellable statuses: everything non-terminal that has not shipped.
var cancellable = map[string]bool{
	StatusPendingPayment: true,
	StatusProcessing:     true,
}

// Cancellable reports whether an order in the given status may be cancelled.
func Cancellable(status string) bool {
	return cancellable[status]
}

// earlyShipment statuses: an embedded shipment in one of these can still be
// flipped to Cancelled when its order is cancelled; anything further along is
// left untouched.
var earlyShipment = map[string]bool{
	TrackingPending:   true,
	TrackingInTransit: true,
}

func shipmentStillEarly(status string) bool {
	return earlyShipment[status]
}
