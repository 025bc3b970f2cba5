package orders

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"

	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// mockDynamo is an in-memory stand-in supporting exactly the condition and
// update expressions the stores emit. Items are stored per table:
// table -> pkValue -> item map.
type mockDynamo struct {
	mu            sync.Mutex
	tables        map[string]map[string]map[string]types.AttributeValue
	transactCalls int
}

func newMockDynamo() *mockDynamo {
	return &mockDynamo{
		tables: map[string]map[string]map[string]types.AttributeValue{},
	}
}

func (m *mockDynamo) ensureTable(tbl string) {
	if _, ok := m.tables[tbl]; !ok {
		m.tables[tbl] = map[string]map[string]types.AttributeValue{}
	}
}

// pkOf finds the primary key value in an item or key map. The key attribute
// depends on the table: items carry other tables' key attributes too (an
// order document holds idempotency_key, an idempotency record holds
// order_id), so the table decides which one is the PK.
func pkOf(table string, attrs map[string]types.AttributeValue) (string, error) {
	var names []string
	switch table {
	case ordersTable:
		names = []string{"order_id"}
	case inventoryTable:
		names = []string{"item_id"}
	case idempTable:
		names = []string{"idempotency_key"}
	default:
		names = []string{"order_id", "item_id", "idempotency_key"}
	}
	for _, name := range names {
		if v, ok := attrs[name]; ok {
			return v.(*types.AttributeValueMemberS).Value, nil
		}
	}
	return "", errors.New("no primary key attribute")
}

func numValue(av types.AttributeValue) int {
	n, _ := strconv.Atoi(av.(*types.AttributeValueMemberN).Value)
	return n
}

func stockOf(item map[string]types.AttributeValue) int {
	if v, ok := item["stock"]; ok {
		return numValue(v)
	}
	return 0
}

func setStock(item map[string]types.AttributeValue, stock int) {
	item["stock"] = &types.AttributeValueMemberN{Value: strconv.Itoa(stock)}
}

func (m *mockDynamo) checkPutCondition(table string, p *types.Put) error {
	if p.ConditionExpression == nil {
		return nil
	}
	pk, err := pkOf(table, p.Item)
	if err != nil {
		return err
	}
	cond := *p.ConditionExpression
	existing, exists := m.tables[table][pk]
	switch {
	case strings.HasPrefix(cond, "attribute_not_exists("):
		if exists {
			return &types.ConditionalCheckFailedException{}
		}
	case cond == "#s = :expected":
		if !exists {
			return &types.ConditionalCheckFailedException{}
		}
		curr, ok := existing["status"].(*types.AttributeValueMemberS)
		expected := p.ExpressionAttributeValues[":expected"].(*types.AttributeValueMemberS)
		if !ok || curr.Value != expected.Value {
			return &types.ConditionalCheckFailedException{}
		}
	default:
		return errors.New("unsupported put condition: " + cond)
	}
	return nil
}

func (m *mockDynamo) checkUpdateCondition(table string, u *types.Update) error {
	if u.ConditionExpression == nil {
		return nil
	}
	pk, err := pkOf(table, u.Key)
	if err != nil {
		return err
	}
	cond := *u.ConditionExpression
	existing, exists := m.tables[table][pk]
	if strings.Contains(cond, "attribute_exists(") && !exists {
		return &types.ConditionalCheckFailedException{}
	}
	if strings.Contains(cond, "stock >= :q") {
		q := numValue(u.ExpressionAttributeValues[":q"])
		if stockOf(existing) < q {
			return &types.ConditionalCheckFailedException{}
		}
	}
	if strings.Contains(cond, "#s = :expected") {
		curr, ok := existing["status"].(*types.AttributeValueMemberS)
		expected := u.ExpressionAttributeValues[":expected"].(*types.AttributeValueMemberS)
		if !ok || curr.Value != expected.Value {
			return &types.ConditionalCheckFailedException{}
		}
	}
	return nil
}

func (m *mockDynamo) applyTransactUpdate(table string, u *types.Update) {
	pk, _ := pkOf(table, u.Key)
	item := m.tables[table][pk]
	vals := u.ExpressionAttributeValues
	expr := ""
	if u.UpdateExpression != nil {
		expr = *u.UpdateExpression
	}

	if d, ok := vals[":d"]; ok {
		setStock(item, stockOf(item)+numValue(d))
	}
	if v, ok := vals[":new"]; ok {
		item["status"] = v
	}
	if v, ok := vals[":ca"]; ok {
		item["cancelled_at"] = v
	}
	if ua, ok := vals[":ua"]; ok {
		item["updated_at"] = ua
	}
	if pay, ok := item["payment"].(*types.AttributeValueMemberM); ok {
		if v, ok := vals[":ps"]; ok && strings.Contains(expr, "payment.#ps") {
			pay.Value["status"] = v
		}
	}
	if sh, ok := item["shipment"].(*types.AttributeValueMemberM); ok {
		if v, ok := vals[":ts"]; ok && strings.Contains(expr, "shipment.#ts") {
			sh.Value["status"] = v
		}
		if v, ok := vals[":ev"]; ok && strings.Contains(expr, "list_append") {
			history, _ := sh.Value["history"].(*types.AttributeValueMemberL)
			if history == nil {
				history = &types.AttributeValueMemberL{}
			}
			appended := append([]types.AttributeValue{}, history.Value...)
			appended = append(appended, v.(*types.AttributeValueMemberL).Value...)
			sh.Value["history"] = &types.AttributeValueMemberL{Value: appended}
		}
	}
}

func (m *mockDynamo) PutItem(ctx context.Context, params *dyn.PutItemInput, optFns ...func(*dyn.Options)) (*dyn.PutItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	table := *params.TableName
	m.ensureTable(table)
	put := &types.Put{
		TableName:                 params.TableName,
		Item:                      params.Item,
		ConditionExpression:       params.ConditionExpression,
		ExpressionAttributeNames:  params.ExpressionAttributeNames,
		ExpressionAttributeValues: params.ExpressionAttributeValues,
	}
	if err := m.checkPutCondition(table, put); err != nil {
		return nil, err
	}
	pk, err := pkOf(table, params.Item)
	if err != nil {
		return nil, err
	}
	m.tables[table][pk] = params.Item
	return &dyn.PutItemOutput{}, nil
}

func (m *mockDynamo) GetItem(ctx context.Context, params *dyn.GetItemInput, optFns ...func(*dyn.Options)) (*dyn.GetItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	table := *params.TableName
	m.ensureTable(table)
	pk, err := pkOf(table, params.Key)
	if err != nil {
		return nil, err
	}
	item, ok := m.tables[table][pk]
	if !ok {
		return &dyn.GetItemOutput{}, nil
	}
	return &dyn.GetItemOutput{Item: item}, nil
}

func (m *mockDynamo) UpdateItem(ctx context.Context, params *dyn.UpdateItemInput, optFns ...func(*dyn.Options)) (*dyn.UpdateItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	table := *params.TableName
	m.ensureTable(table)
	pk, err := pkOf(table, params.Key)
	if err != nil {
		return nil, err
	}
	item, exists := m.tables[table][pk]

	if params.ConditionExpression != nil {
		cond := *params.ConditionExpression
		switch {
		case cond == "#s = :expected":
			if !exists {
				return nil, &types.ConditionalCheckFailedException{}
			}
			curr, ok := item["status"].(*types.AttributeValueMemberS)
			expected := params.ExpressionAttributeValues[":expected"].(*types.AttributeValueMemberS)
			if !ok || curr.Value != expected.Value {
				return nil, &types.ConditionalCheckFailedException{}
			}
		case strings.Contains(cond, "attribute_exists("):
			if !exists {
				return nil, &types.ConditionalCheckFailedException{}
			}
		}
	}
	if !exists {
		return nil, errors.New("item not found")
	}

	vals := params.ExpressionAttributeValues
	expr := ""
	if params.UpdateExpression != nil {
		expr = *params.UpdateExpression
	}

	if v, ok := vals[":new"]; ok {
		item["status"] = v
	}
	if v, ok := vals[":done"]; ok {
		item["status"] = v
	}
	if v, ok := vals[":failed"]; ok {
		item["status"] = v
	}
	if v, ok := vals[":ua"]; ok {
		item["updated_at"] = v
	}
	if v, ok := vals[":rb"]; ok {
		item["response_body"] = v
	}
	if v, ok := vals[":rs"]; ok {
		item["response_status"] = v
	}
	if v, ok := vals[":n"]; ok {
		item["note"] = v
	}
	if strings.Contains(expr, "attempts") {
		curr := 0
		if v, ok := item["attempts"]; ok {
			curr = numValue(v)
		}
		item["attempts"] = &types.AttributeValueMemberN{Value: strconv.Itoa(curr + 1)}
	}

	// nested shipment fields
	if sh, ok := item["shipment"].(*types.AttributeValueMemberM); ok {
		if v, ok := vals[":ts"]; ok && strings.Contains(expr, "shipment.#ts") {
			sh.Value["status"] = v
		}
		if v, ok := vals[":ad"]; ok {
			sh.Value["actual_delivery"] = v
		}
		if v, ok := vals[":ev"]; ok && strings.Contains(expr, "list_append") {
			history, _ := sh.Value["history"].(*types.AttributeValueMemberL)
			if history == nil {
				history = &types.AttributeValueMemberL{}
			}
			appended := append([]types.AttributeValue{}, history.Value...)
			appended = append(appended, v.(*types.AttributeValueMemberL).Value...)
			sh.Value["history"] = &types.AttributeValueMemberL{Value: appended}
		}
	}
	if pay, ok := item["payment"].(*types.AttributeValueMemberM); ok {
		if v, ok := vals[":ps"]; ok && strings.Contains(expr, "payment.#ps") {
			pay.Value["status"] = v
		}
	}

	m.tables[table][pk] = item
	return &dyn.UpdateItemOutput{Attributes: item}, nil
}

func (m *mockDynamo) TransactWriteItems(ctx context.Context, params *dyn.TransactWriteItemsInput, optFns ...func(*dyn.Options)) (*dyn.TransactWriteItemsOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transactCalls++

	// first pass: every condition must hold or the whole unit cancels
	for _, it := range params.TransactItems {
		if p := it.Put; p != nil {
			m.ensureTable(*p.TableName)
			if err := m.checkPutCondition(*p.TableName, p); err != nil {
				return nil, &types.TransactionCanceledException{}
			}
		}
		if u := it.Update; u != nil {
			m.ensureTable(*u.TableName)
			if err := m.checkUpdateCondition(*u.TableName, u); err != nil {
				return nil, &types.TransactionCanceledException{}
			}
		}
	}
	// second pass: apply everything
	for _, it := range params.TransactItems {
		if p := it.Put; p != nil {
			pk, err := pkOf(*p.TableName, p.Item)
			if err != nil {
				return nil, err
			}
			m.tables[*p.TableName][pk] = p.Item
		}
		if u := it.Update; u != nil {
			m.applyTransactUpdate(*u.TableName, u)
		}
	}
	return &dyn.TransactWriteItemsOutput{}, nil
}
