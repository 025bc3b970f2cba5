package orders

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"

	"github.com/RiteshRC96/WonderDoorAdmin-sub000/internal/auth"
	awsx "github.com/RiteshRC96/WonderDoorAdmin-sub000/internal/aws"
	"github.com/RiteshRC96/WonderDoorAdmin-sub000/internal/idempotency"
	"github.com/RiteshRC96/WonderDoorAdmin-sub000/internal/inventory"
	"github.com/RiteshRC96/WonderDoorAdmin-sub000/internal/validation"
)

// Result is what every workflow hands back to the presentation boundary.
type Result struct {
	Success bool                `json:"success"`
	Message string              `json:"message"`
	OrderID string              `json:"orderId,omitempty"`
	Errors  map[string][]string `json:"errors,omitempty"`

	// Code is the HTTP status the boundary should answer with; it also gets
	// stored alongside replayable idempotent responses.
	Code int `json:"-"`
}

// Revalidator marks rendered view paths stale after successful mutations.
type Revalidator interface {
	Revalidate(ctx context.Context, paths ...string)
}

// TrackingPublisher enqueues tracking-propagation messages for the worker.
type TrackingPublisher interface {
	Publish(ctx context.Context, payload interface{}, attributes map[string]string) error
}

// TrackingMessage is the payload sent to the propagation worker after a
// status change. The worker applies it idempotently; SQS redelivery is the
// retry mechanism.
type TrackingMessage struct {
	OrderID        string `json:"order_id"`
	TrackingStatus string `json:"tracking_status"`
	Note           string `json:"note,omitempty"`
	CorrelationID  string `json:"correlation_id,omitempty"`
}

// View paths invalidated after mutations.
const (
	ViewOrders    = "/orders"
	ViewInventory = "/inventory"
	ViewDashboard = "/dashboard"
)

// Service runs the order workflows: creation with stock reservation,
// cancellation with best-effort restock, and status propagation.
type Service struct {
	store     *Store
	inv       *inventory.Store
	idemp     *idempotency.Store
	publisher TrackingPublisher
	metrics   *awsx.MetricsRecorder
	reval     Revalidator
	newID     func() string
	nowFunc   func() time.Time
}

// NewService wires a Service. publisher, metrics and reval may be nil; the
// corresponding side effects are then skipped.
func NewService(store *Store, inv *inventory.Store, idemp *idempotency.Store, publisher TrackingPublisher, metrics *awsx.MetricsRecorder, reval Revalidator) *Service {
	return &Service{
		store:     store,
		inv:       inv,
		idemp:     idemp,
		publisher: publisher,
		metrics:   metrics,
		reval:     reval,
		newID:     uuid.NewString,
		nowFunc:   time.Now,
	}
}

const tryAgainMessage = "Something went wrong. Please try again."

// CreateOrder runs the creation workflow: stock checks, server-side pricing,
// and one all-or-nothing transaction covering the idempotency record, the
// order document and every stock decrement.
func (s *Service) CreateOrder(ctx context.Context, idempotencyKey string, req validation.CreateOrderRequest) Result {
	if idempotencyKey == "" {
		return Result{
			Message: "Missing Idempotency-Key.",
			Errors:  map[string][]string{"idempotencyKey": {"is required"}},
			Code:    http.StatusBadRequest,
		}
	}

	now := s.nowFunc()

	// Stock checks happen before any mutation is staged: a missing item or a
	// short stock fails the whole request with no writes.
	lines := make([]OrderLine, 0, len(req.Items))
	stockUpdates := make([]types.TransactWriteItem, 0, len(req.Items))
	var itemErrors []string
	var total float64
	for _, line := range req.Items {
		item, err := s.inv.Get(ctx, line.ItemID)
		if err != nil {
			slog.Error("inventory read failed", "item_id", line.ItemID, "err", err)
			return Result{Message: tryAgainMessage, Code: http.StatusInternalServerError}
		}
		if item == nil {
			itemErrors = append(itemErrors, fmt.Sprintf("item %s not found", line.ItemID))
			continue
		}
		if item.Stock < line.Quantity {
			itemErrors = append(itemErrors, fmt.Sprintf("insufficient stock for %s: requested %d, available %d", item.Name, line.Quantity, item.Stock))
			continue
		}
		lines = append(lines, OrderLine{
			ItemID:    item.ItemID,
			Name:      item.Name,
			SKU:       item.SKU,
			Quantity:  line.Quantity,
			UnitPrice: item.Price,
			ImageURL:  item.ImageURL,
		})
		total += float64(line.Quantity) * item.Price
		stockUpdates = append(stockUpdates, s.inv.AdjustStockUpdate(item.ItemID, -line.Quantity, now))
	}
	if len(itemErrors) > 0 {
		return Result{
			Message: "Some items cannot be ordered.",
			Errors:  map[string][]string{"items": itemErrors},
			Code:    http.StatusUnprocessableEntity,
		}
	}

	orderID := s.newID()
	order := Order{
		OrderID: orderID,
		Customer: Customer{
			Name:  req.Customer.Name,
			Email: req.Customer.Email,
			Phone: req.Customer.Phone,
		},
		Shipping: Shipping{
			Address:    req.Shipping.Address,
			City:       req.Shipping.City,
			State:      req.Shipping.State,
			PostalCode: req.Shipping.PostalCode,
			Country:    req.Shipping.Country,
		},
		Payment: Payment{
			Method: req.PaymentMethod,
			Status: PaymentPending,
		},
		Items:       lines,
		Status:      StatusProcessing,
		TotalAmount: roundCents(total),
		Shipment: Shipment{
			Status: TrackingPending,
			History: []HistoryEvent{
				{Status: TrackingPending, Note: "Order received", At: now},
			},
		},
		IdempotencyKey: idempotencyKey,
		CreatedBy:      auth.FromContext(ctx).UserID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	idempPut, err := s.idemp.PutTransactItem(s.idemp.NewRecord(idempotencyKey, orderID))
	if err != nil {
		slog.Error("build idempotency put failed", "err", err)
		return Result{Message: tryAgainMessage, Code: http.StatusInternalServerError}
	}

	if err := s.store.CreateWithStockReservation(ctx, order, idempPut, stockUpdates); err != nil {
		if errors.Is(err, ErrTransactionCanceled) {
			return s.resolveCanceledCreate(ctx, idempotencyKey, req)
		}
		slog.Error("create order transaction failed", "order_id", orderID, "err", err)
		return Result{Message: tryAgainMessage, Code: http.StatusInternalServerError}
	}

	result := Result{
		Success: true,
		Message: "Order created successfully.",
		OrderID: orderID,
		Code:    http.StatusCreated,
	}
	paths := []string{ViewOrders, ViewOrders + "/" + orderID, ViewInventory, ViewDashboard}
	for _, line := range lines {
		paths = append(paths, ViewInventory+"/"+line.ItemID)
	}
	s.finishCreate(ctx, idempotencyKey, result, paths)
	return result
}

// finishCreate records the replayable response and fires the post-commit
// side effects. All best-effort: the order is already committed.
func (s *Service) finishCreate(ctx context.Context, idempotencyKey string, result Result, paths []string) {
	if body, err := json.Marshal(result); err == nil {
		if err := s.idemp.MarkDone(ctx, idempotencyKey, string(body), result.Code); err != nil {
			slog.Warn("mark idempotency done failed", "key", idempotencyKey, "err", err)
		}
	}
	s.metrics.Count(ctx, awsx.MetricOrdersCreated)
	s.revalidate(ctx, paths...)
}

// resolveCanceledCreate disambiguates a canceled creation transaction:
// either the idempotency key was seen before (replay the original outcome)
// or a concurrent order won the remaining stock.
func (s *Service) resolveCanceledCreate(ctx context.Context, idempotencyKey string, req validation.CreateOrderRequest) Result {
	rec, err := s.idemp.Get(ctx, idempotencyKey)
	if err != nil {
		slog.Error("idempotency lookup failed", "key", idempotencyKey, "err", err)
		return Result{Message: tryAgainMessage, Code: http.StatusInternalServerError}
	}
	if rec != nil {
		switch rec.Status {
		case idempotency.StatusDone:
			var replay Result
			if rec.ResponseBody != "" {
				if err := json.Unmarshal([]byte(rec.ResponseBody), &replay); err == nil {
					replay.Code = rec.ResponseStatus
					return replay
				}
			}
			return Result{Success: true, Message: "Order already created.", OrderID: rec.OrderID, Code: http.StatusOK}
		case idempotency.StatusInProgress:
			return Result{Message: "A request with this Idempotency-Key is already in progress.", OrderID: rec.OrderID, Code: http.StatusAccepted}
		default:
			return Result{Message: "A previous attempt with this Idempotency-Key failed. Use a new key.", Code: http.StatusConflict}
		}
	}

	// No idempotency record: a concurrent order grabbed the stock between our
	// read and the transaction. Re-read to report which line ran out.
	s.metrics.Count(ctx, awsx.MetricStockConflicts)
	var itemErrors []string
	for _, line := range req.Items {
		item, err := s.inv.Get(ctx, line.ItemID)
		if err != nil {
			continue
		}
		if item == nil {
			itemErrors = append(itemErrors, fmt.Sprintf("item %s not found", line.ItemID))
		} else if item.Stock < line.Quantity {
			itemErrors = append(itemErrors, fmt.Sprintf("insufficient stock for %s: requested %d, available %d", item.Name, line.Quantity, item.Stock))
		}
	}
	if len(itemErrors) > 0 {
		// Pin the outcome to the key: a later retry with the same key gets
		// the stored failure instead of re-running the whole workflow.
		s.recordFailedAttempt(ctx, idempotencyKey, "stock conflict: "+strings.Join(itemErrors, "; "))
		return Result{
			Message: "Some items sold out while placing the order.",
			Errors:  map[string][]string{"items": itemErrors},
			Code:    http.StatusUnprocessableEntity,
		}
	}
	return Result{Message: tryAgainMessage, Code: http.StatusConflict}
}

// recordFailedAttempt stores a FAILED idempotency record for a key whose
// creation transaction lost the stock race. Best-effort: losing the record
// only means a retry re-runs the stock checks.
func (s *Service) recordFailedAttempt(ctx context.Context, idempotencyKey, note string) {
	created, err := s.idemp.CreateIfNotExists(ctx, idempotencyKey, "")
	if err != nil || !created {
		if err != nil {
			slog.Warn("record failed attempt", "key", idempotencyKey, "err", err)
		}
		return
	}
	if err := s.idemp.MarkFailed(ctx, idempotencyKey, note); err != nil {
		slog.Warn("mark idempotency failed", "key", idempotencyKey, "err", err)
	}
}

// CancelOrder flips an order to Cancelled, refunds the payment state and
// restocks every line whose inventory record still exists. Missing records
// are skipped and logged: best-effort restock, not strict atomicity across
// lines.
func (s *Service) CancelOrder(ctx context.Context, orderID string) Result {
	order, err := s.store.Get(ctx, orderID)
	if err != nil {
		slog.Error("order read failed", "order_id", orderID, "err", err)
		return Result{Message: tryAgainMessage, Code: http.StatusInternalServerError}
	}
	if order == nil {
		return Result{Message: "Order not found.", Code: http.StatusNotFound}
	}
	if order.Status == StatusCancelled {
		// cancelling twice is a no-op
		return Result{Success: true, Message: "Order is already cancelled.", OrderID: orderID, Code: http.StatusOK}
	}
	if !Cancellable(order.Status) {
		return Result{
			Message: fmt.Sprintf("Order in status %q cannot be cancelled.", order.Status),
			OrderID: orderID,
			Code:    http.StatusConflict,
		}
	}

	now := s.nowFunc()
	restocks := make([]types.TransactWriteItem, 0, len(order.Items))
	restockedIDs := make([]string, 0, len(order.Items))
	skipped := 0
	for _, line := range order.Items {
		item, err := s.inv.Get(ctx, line.ItemID)
		if err != nil {
			slog.Error("inventory read failed", "item_id", line.ItemID, "err", err)
			return Result{Message: tryAgainMessage, Code: http.StatusInternalServerError}
		}
		if item == nil {
			slog.Warn("skipping restock for missing inventory item", "order_id", orderID, "item_id", line.ItemID, "quantity", line.Quantity)
			skipped++
			continue
		}
		restocks = append(restocks, s.inv.AdjustStockUpdate(line.ItemID, line.Quantity, now))
		restockedIDs = append(restockedIDs, line.ItemID)
	}

	var shipmentFlip *HistoryEvent
	if shipmentStillEarly(order.Shipment.Status) {
		shipmentFlip = &HistoryEvent{
			Status: TrackingCancelled,
			Note:   fmt.Sprintf("Cancelled by %s", auth.FromContext(ctx).UserID),
			At:     now,
		}
	}

	if err := s.store.CancelWithRestock(ctx, orderID, order.Status, shipmentFlip, restocks); err != nil {
		if errors.Is(err, ErrTransactionCanceled) {
			return Result{Message: "Order changed while cancelling. Please retry.", OrderID: orderID, Code: http.StatusConflict}
		}
		slog.Error("cancel order transaction failed", "order_id", orderID, "err", err)
		return Result{Message: tryAgainMessage, Code: http.StatusInternalServerError}
	}

	s.metrics.Count(ctx, awsx.MetricOrdersCancelled)
	paths := []string{ViewOrders, ViewOrders + "/" + orderID, ViewInventory, ViewDashboard}
	for _, id := range restockedIDs {
		paths = append(paths, ViewInventory+"/"+id)
	}
	s.revalidate(ctx, paths...)

	msg := fmt.Sprintf("Order cancelled. Restocked %d of %d lines.", len(restockedIDs), len(restockedIDs)+skipped)
	if skipped > 0 {
		msg += fmt.Sprintf(" %d line(s) skipped: inventory record no longer exists.", skipped)
	}
	return Result{Success: true, Message: msg, OrderID: orderID, Code: http.StatusOK}
}

// UpdateStatus validates the transition against the central table, writes
// the new status with the denormalized tracking fields folded into the same
// update, then enqueues the history propagation for the worker.
func (s *Service) UpdateStatus(ctx context.Context, orderID string, req validation.UpdateStatusRequest) Result {
	if !IsKnownStatus(req.Status) {
		return Result{
			Message: "Unknown order status.",
			Errors:  map[string][]string{"status": {fmt.Sprintf("%q is not a valid status", req.Status)}},
			Code:    http.StatusBadRequest,
		}
	}
	if req.Status == StatusCancelled {
		// cancellation restocks inventory; it must go through CancelOrder
		return Result{
			Message: "Use the cancel operation to cancel an order.",
			Errors:  map[string][]string{"status": {"cannot be set to Cancelled directly"}},
			Code:    http.StatusBadRequest,
		}
	}
	if req.PaymentStatus != "" && !IsKnownPaymentStatus(req.PaymentStatus) {
		return Result{
			Message: "Unknown payment status.",
			Errors:  map[string][]string{"paymentStatus": {fmt.Sprintf("%q is not a valid payment status", req.PaymentStatus)}},
			Code:    http.StatusBadRequest,
		}
	}

	order, err := s.store.Get(ctx, orderID)
	if err != nil {
		slog.Error("order read failed", "order_id", orderID, "err", err)
		return Result{Message: tryAgainMessage, Code: http.StatusInternalServerError}
	}
	if order == nil {
		return Result{Message: "Order not found.", Code: http.StatusNotFound}
	}
	if order.Status == req.Status {
		return Result{Success: true, Message: "Order already in requested status.", OrderID: orderID, Code: http.StatusOK}
	}
	if !CanTransition(order.Status, req.Status) {
		return Result{
			Message: fmt.Sprintf("Cannot move order from %q to %q.", order.Status, req.Status),
			OrderID: orderID,
			Code:    http.StatusConflict,
		}
	}

	if err := s.store.UpdateStatus(ctx, orderID, order.Status, req.Status, req.PaymentStatus); err != nil {
		if errors.Is(err, ErrStatusMismatch) {
			return Result{Message: "Order changed while updating. Please retry.", OrderID: orderID, Code: http.StatusConflict}
		}
		slog.Error("status update failed", "order_id", orderID, "err", err)
		return Result{Message: tryAgainMessage, Code: http.StatusInternalServerError}
	}

	// The primary write is committed; the history propagation rides the queue
	// and is retried by redelivery, not by us.
	if tracking := TrackingStatusFor(req.Status); tracking != "" && s.publisher != nil {
		msg := TrackingMessage{
			OrderID:        orderID,
			TrackingStatus: tracking,
			Note:           fmt.Sprintf("Status set to %s by %s", req.Status, auth.FromContext(ctx).UserID),
		}
		attrs := map[string]string{"order_id": orderID, "tracking_status": tracking}
		if err := s.publisher.Publish(ctx, msg, attrs); err != nil {
			slog.Error("tracking propagation enqueue failed", "order_id", orderID, "err", err)
			s.metrics.Count(ctx, awsx.MetricTrackingPropagation)
		}
	}

	s.revalidate(ctx, ViewOrders, ViewOrders+"/"+orderID, ViewDashboard)
	return Result{Success: true, Message: fmt.Sprintf("Order status updated to %q.", req.Status), OrderID: orderID, Code: http.StatusOK}
}

func (s *Service) revalidate(ctx context.Context, paths ...string) {
	if s.reval != nil {
		s.reval.Revalidate(ctx, paths...)
	}
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
