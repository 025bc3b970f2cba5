package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	awsx "github.com/RiteshRC96/WonderDoorAdmin-sub000/internal/aws"
)

// Store encapsulates operations on the inventory table.
type Store struct {
	client    awsx.DynamoDBAPI
	tableName string
	nowFunc   func() time.Time
}

// NewStore creates a new inventory Store.
func NewStore(client awsx.DynamoDBAPI, tableName string) *Store {
	return &Store{
		client:    client,
		tableName: tableName,
		nowFunc:   time.Now,
	}
}

// TableName exposes the table for cross-table transactions built elsewhere.
func (s *Store) TableName() string { return s.tableName }

// Get fetches an item by item_id. Returns (nil, nil) if not found.
func (s *Store) Get(ctx context.Context, itemID string) (*Item, error) {
	out, err := s.client.GetItem(ctx, &dyn.GetItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"item_id": &types.AttributeValueMemberS{Value: itemID},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}
	var it Item
	if err := attributevalue.UnmarshalMap(out.Item, &it); err != nil {
		return nil, fmt.Errorf("unmarshal inventory item: %w", err)
	}
	return &it, nil
}

// Put inserts or replaces an inventory item, stamping timestamps.
func (s *Store) Put(ctx context.Context, item Item) error {
	now := s.nowFunc()
	if item.CreatedAt.IsZero() {
		item.CreatedAt = now
	}
	item.UpdatedAt = now

	m, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("marshal inventory item: %w", err)
	}
	if _, err := s.client.PutItem(ctx, &dyn.PutItemInput{
		TableName: &s.tableName,
		Item:      m,
	}); err != nil {
		return fmt.Errorf("put item: %w", err)
	}
	return nil
}

// AdjustStockUpdate builds the transact Update that moves stock by delta
// for one item. A negative delta carries a stock >= quantity guard so a
// concurrent order for the same last units cancels the whole transaction
// instead of driving stock below zero.
func (s *Store) AdjustStockUpdate(itemID string, delta int, at time.Time) types.TransactWriteItem {
	update := types.Update{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"item_id": &types.AttributeValueMemberS{Value: itemID},
		},
		UpdateExpression: awsString("SET stock = stock + :d, updated_at = :ua"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":d":  &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", delta)},
			":ua": &types.AttributeValueMemberS{Value: at.Format(time.RFC3339)},
		},
	}
	if delta < 0 {
		update.ConditionExpression = awsString("attribute_exists(item_id) AND stock >= :q")
		update.ExpressionAttributeValues[":q"] = &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", -delta)}
	} else {
		update.ConditionExpression = awsString("attribute_exists(item_id)")
	}
	return types.TransactWriteItem{Update: &update}
}

func awsString(s string) *string { return &s }
