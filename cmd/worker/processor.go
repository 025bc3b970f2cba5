package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-lambda-go/events"

	awsx "github.com/RiteshRC96/WonderDoorAdmin-sub000/internal/aws"
	"github.com/RiteshRC96/WonderDoorAdmin-sub000/internal/orders"
)

// Processor applies tracking-propagation messages to order documents.
// Messages are redelivered by SQS on failure, so every step here has to be
// safe to repeat: a history event already at the head of the shipment
// history is skipped, not appended twice.
type Processor struct {
	store   *orders.Store
	nowFunc func() time.Time
}

// NewProcessor creates a worker processor bound to the orders table.
func NewProcessor(client awsx.DynamoDBAPI, ordersTable string) *Processor {
	return &Processor{
		store:   orders.NewStore(client, ordersTable),
		nowFunc: time.Now,
	}
}

// Handle receives an SQS batch event and processes each message.
// Returning an error makes the Lambda runtime retry the batch; repeated
// failures land the message in the DLQ.
func (p *Processor) Handle(ctx context.Context, ev events.SQSEvent) error {
	for _, rec := range ev.Records {
		if err := p.processMessage(ctx, rec); err != nil {
			slog.Error("worker error", "err", err)
			return err
		}
	}
	return nil
}

func (p *Processor) processMessage(ctx context.Context, rec events.SQSMessage) error {
	var msg orders.TrackingMessage
	if err := json.Unmarshal([]byte(rec.Body), &msg); err != nil {
		return fmt.Errorf("invalid message body: %w", err)
	}

	slog.Info("tracking propagation received", "order_id", msg.OrderID, "tracking_status", msg.TrackingStatus, "corr", msg.CorrelationID)

	order, err := p.store.Get(ctx, msg.OrderID)
	if err != nil {
		return fmt.Errorf("fetch order: %w", err)
	}
	if order == nil {
		// Should never happen; let the message reach the DLQ.
		return fmt.Errorf("order not found: %s", msg.OrderID)
	}

	if alreadyApplied(order.Shipment, msg.TrackingStatus) {
		slog.Info("tracking event already applied", "order_id", msg.OrderID, "tracking_status", msg.TrackingStatus)
		return nil
	}

	if err := p.store.IncrementAttempts(ctx, msg.OrderID); err != nil {
		return fmt.Errorf("increment attempts: %w", err)
	}

	ev := orders.HistoryEvent{
		Status: msg.TrackingStatus,
		Note:   msg.Note,
		At:     p.nowFunc(),
	}
	if err := p.store.AppendTrackingEvent(ctx, msg.OrderID, ev); err != nil {
		return fmt.Errorf("append tracking event: %w", err)
	}

	slog.Info("tracking propagation applied", "order_id", msg.OrderID, "tracking_status", msg.TrackingStatus)
	return nil
}

// alreadyApplied reports whether the newest history entry is this status.
func alreadyApplied(sh orders.Shipment, trackingStatus string) bool {
	if len(sh.History) == 0 {
		return false
	}
	return sh.History[len(sh.History)-1].Status == trackingStatus
}
