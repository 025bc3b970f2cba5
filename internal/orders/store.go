package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	awsx "github.com/RiteshRC96/WonderDoorAdmin-sub000/internal/aws"
)

// Store encapsulates operations on the orders table.
type Store struct {
	client    awsx.DynamoDBAPI
	tableName string
	nowFunc   func() time.Time
}

// NewStore creates a new orders Store.
func NewStore(client awsx.DynamoDBAPI, tableName string) *Store {
	return &Store{
		client:    client,
		tableName: tableName,
		nowFunc:   time.Now,
	}
}

// ErrStatusMismatch is returned when a conditional status update found a
// different current status.
var ErrStatusMismatch = errors.New("status mismatch/conditional failed")

// ErrTransactionCanceled is returned when a TransactWriteItems call was
// aborted: either a condition failed (idempotency key reuse, insufficient
// stock) or a concurrent write conflicted.
var ErrTransactionCanceled = errors.New("transaction canceled")

// CreateWithStockReservation atomically inserts the order, the idempotency
// record, and applies the per-line stock decrements. Everything commits or
// nothing does: a stale stock read or a reused idempotency key cancels the
// whole transaction.
func (s *Store) CreateWithStockReservation(ctx context.Context, order Order, idempotencyPut types.TransactWriteItem, stockUpdates []types.TransactWriteItem) error {
	now := s.nowFunc()
	if order.CreatedAt.IsZero() {
		order.CreatedAt = now
	}
	order.UpdatedAt = now

	orderMap, err := attributevalue.MarshalMap(order)
	if err != nil {
		return fmt.Errorf("marshal order: %w", err)
	}

	transactItems := make([]types.TransactWriteItem, 0, len(stockUpdates)+2)
	transactItems = append(transactItems, idempotencyPut)
	transactItems = append(transactItems, types.TransactWriteItem{
		Put: &types.Put{
			TableName:           &s.tableName,
			Item:                orderMap,
			ConditionExpression: awsString("attribute_not_exists(order_id)"),
		},
	})
	transactItems = append(transactItems, stockUpdates...)

	_, err = s.client.TransactWriteItems(ctx, &dyn.TransactWriteItemsInput{
		TransactItems: transactItems,
	})
	if err != nil {
		var tce *types.TransactionCanceledException
		if errors.As(err, &tce) {
			return fmt.Errorf("%w: %s", ErrTransactionCanceled, err)
		}
		return fmt.Errorf("transact write: %w", err)
	}
	return nil
}

// CancelWithRestock atomically marks the order cancelled and applies the
// restock updates for lines whose inventory record still exists. Only the
// cancellation fields are written (status, refunded payment, cancelled_at,
// optional shipment flip with a history event), so concurrent edits to the
// rest of the document survive. The update is guarded on the status the
// caller read, so a racing status change aborts the whole unit.
func (s *Store) CancelWithRestock(ctx context.Context, orderID, expectedStatus string, shipmentFlip *HistoryEvent, restocks []types.TransactWriteItem) error {
	now := s.nowFunc()

	updateExpr := "SET #s = :new, payment.#ps = :ps, cancelled_at = :ca, updated_at = :ua"
	names := map[string]string{"#s": "status", "#ps": "status"}
	values := map[string]types.AttributeValue{
		":new":      &types.AttributeValueMemberS{Value: StatusCancelled},
		":ps":       &types.AttributeValueMemberS{Value: PaymentRefunded},
		":ca":       &types.AttributeValueMemberS{Value: now.Format(time.RFC3339Nano)},
		":ua":       &types.AttributeValueMemberS{Value: now.Format(time.RFC3339)},
		":expected": &types.AttributeValueMemberS{Value: expectedStatus},
	}
	if shipmentFlip != nil {
		evMap, err := attributevalue.MarshalMap(*shipmentFlip)
		if err != nil {
			return fmt.Errorf("marshal history event: %w", err)
		}
		updateExpr += ", shipment.#ts = :ts, shipment.history = list_append(if_not_exists(shipment.history, :empty), :ev)"
		names["#ts"] = "status"
		values[":ts"] = &types.AttributeValueMemberS{Value: shipmentFlip.Status}
		values[":ev"] = &types.AttributeValueMemberL{Value: []types.AttributeValue{&types.AttributeValueMemberM{Value: evMap}}}
		values[":empty"] = &types.AttributeValueMemberL{Value: []types.AttributeValue{}}
	}

	transactItems := make([]types.TransactWriteItem, 0, len(restocks)+1)
	transactItems = append(transactItems, types.TransactWriteItem{
		Update: &types.Update{
			TableName: &s.tableName,
			Key: map[string]types.AttributeValue{
				"order_id": &types.AttributeValueMemberS{Value: orderID},
			},
			UpdateExpression:          &updateExpr,
			ExpressionAttributeNames:  names,
			ExpressionAttributeValues: values,
			ConditionExpression:       awsString("attribute_exists(order_id) AND #s = :expected"),
		},
	})
	transactItems = append(transactItems, restocks...)

	if _, err := s.client.TransactWriteItems(ctx, &dyn.TransactWriteItemsInput{
		TransactItems: transactItems,
	}); err != nil {
		var tce *types.TransactionCanceledException
		if errors.As(err, &tce) {
			return fmt.Errorf("%w: %s", ErrTransactionCanceled, err)
		}
		return fmt.Errorf("transact write: %w", err)
	}
	return nil
}

// Get fetches an order by order_id. Returns (nil, nil) if not found.
func (s *Store) Get(ctx context.Context, orderID string) (*Order, error) {
	out, err := s.client.GetItem(ctx, &dyn.GetItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"order_id": &types.AttributeValueMemberS{Value: orderID},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}
	var o Order
	if err := attributevalue.UnmarshalMap(out.Item, &o); err != nil {
		return nil, fmt.Errorf("unmarshal order: %w", err)
	}
	return &o, nil
}

// UpdateStatus conditionally moves the order from expectedStatus to
// newStatus, folding the denormalized shipment tracking status (and the
// optional payment status) into the same write. Returns ErrStatusMismatch if
// the order was not in expectedStatus anymore.
func (s *Store) UpdateStatus(ctx context.Context, orderID, expectedStatus, newStatus, paymentStatus string) error {
	now := s.nowFunc()

	updateExpr := "SET #s = :new, updated_at = :ua"
	names := map[string]string{"#s": "status"}
	values := map[string]types.AttributeValue{
		":new":      &types.AttributeValueMemberS{Value: newStatus},
		":ua":       &types.AttributeValueMemberS{Value: now.Format(time.RFC3339)},
		":expected": &types.AttributeValueMemberS{Value: expectedStatus},
	}

	if tracking := TrackingStatusFor(newStatus); tracking != "" {
		updateExpr += ", shipment.#ts = :ts"
		names["#ts"] = "status"
		values[":ts"] = &types.AttributeValueMemberS{Value: tracking}
	}
	if newStatus == StatusDelivered {
		updateExpr += ", shipment.actual_delivery = :ad"
		values[":ad"] = &types.AttributeValueMemberS{Value: now.Format(time.RFC3339Nano)}
	}
	if paymentStatus != "" {
		updateExpr += ", payment.#ps = :ps"
		names["#ps"] = "status"
		values[":ps"] = &types.AttributeValueMemberS{Value: paymentStatus}
	}

	_, err := s.client.UpdateItem(ctx, &dyn.UpdateItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"order_id": &types.AttributeValueMemberS{Value: orderID},
		},
		UpdateExpression:          &updateExpr,
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
		ConditionExpression:       awsString("#s = :expected"),
	})
	if err != nil {
		var cc *types.ConditionalCheckFailedException
		if errors.As(err, &cc) {
			return ErrStatusMismatch
		}
		return fmt.Errorf("update item: %w", err)
	}
	return nil
}

// AppendTrackingEvent appends a history event to the embedded shipment and
// sets its tracking status. Used by the propagation worker; callers are
// responsible for the idempotence check (skip when the event is already the
// newest history entry).
func (s *Store) AppendTrackingEvent(ctx context.Context, orderID string, ev HistoryEvent) error {
	now := s.nowFunc()

	evMap, err := attributevalue.MarshalMap(ev)
	if err != nil {
		return fmt.Errorf("marshal history event: %w", err)
	}

	_, err = s.client.UpdateItem(ctx, &dyn.UpdateItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"order_id": &types.AttributeValueMemberS{Value: orderID},
		},
		UpdateExpression: awsString("SET shipment.#ts = :ts, shipment.history = list_append(if_not_exists(shipment.history, :empty), :ev), updated_at = :ua"),
		ExpressionAttributeNames: map[string]string{
			"#ts": "status",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":ts":    &types.AttributeValueMemberS{Value: ev.Status},
			":ev":    &types.AttributeValueMemberL{Value: []types.AttributeValue{&types.AttributeValueMemberM{Value: evMap}}},
			":empty": &types.AttributeValueMemberL{Value: []types.AttributeValue{}},
			":ua":    &types.AttributeValueMemberS{Value: now.Format(time.RFC3339)},
		},
		ConditionExpression: awsString("attribute_exists(order_id)"),
	})
	if err != nil {
		return fmt.Errorf("append tracking event: %w", err)
	}
	return nil
}

// IncrementAttempts increases the propagation attempts counter by 1.
func (s *Store) IncrementAttempts(ctx context.Context, orderID string) error {
	now := s.nowFunc()
	_, err := s.client.UpdateItem(ctx, &dyn.UpdateItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"order_id": &types.AttributeValueMemberS{Value: orderID},
		},
		UpdateExpression: awsString("SET attempts = if_not_exists(attempts, :zero) + :inc, updated_at = :ua"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":zero": &types.AttributeValueMemberN{Value: "0"},
			":inc":  &types.AttributeValueMemberN{Value: "1"},
			":ua":   &types.AttributeValueMemberS{Value: now.Format(time.RFC3339)},
		},
		ReturnValues: types.ReturnValueUpdatedNew,
	})
	if err != nil {
		return fmt.Errorf("increment attempts: %w", err)
	}
	return nil
}

func awsString(s string) *string { return &s }
