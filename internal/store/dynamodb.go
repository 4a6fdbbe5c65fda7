package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
	"github.com/serroba/url-redirector/internal/redirect"
)

// DynamoAPI is the subset of the DynamoDB client the store uses.
type DynamoAPI interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
}

// dynamoItem holds the fixed attributes of an item. The key and caller
// attributes are added to the marshalled map separately.
type dynamoItem struct {
	OriginalURL  string `dynamodbav:"originalURL,omitempty"`
	TTLInSeconds int64  `dynamodbav:"ttlInSeconds"`
	TTL          int64  `dynamodbav:"ttl"`
}

// DynamoStore is a DynamoDB implementation of redirect.Repository.
// The table's TTL attribute is "ttl"; DynamoDB purges lazily, so expired
// items are filtered on read and may be overwritten by a conditional put.
type DynamoStore struct {
	client     DynamoAPI
	table      string
	primaryKey string
	now        redirect.Clock
}

// NewDynamoStore creates a new DynamoDB-backed record store.
func NewDynamoStore(client DynamoAPI, table, primaryKey string) *DynamoStore {
	return &DynamoStore{
		client:     client,
		table:      table,
		primaryKey: primaryKey,
		now:        time.Now,
	}
}

func (d *DynamoStore) PutIfAbsent(ctx context.Context, record *redirect.Record) (redirect.PutOutcome, error) {
	if err := redirect.CheckAttributes(record.Attributes, d.primaryKey); err != nil {
		return redirect.PutSchemaRejected, err
	}

	item, err := attributevalue.MarshalMap(dynamoItem{
		OriginalURL:  record.OriginalURL,
		TTLInSeconds: record.TTLInSeconds,
		TTL:          record.TTL,
	})
	if err != nil {
		return redirect.PutFailed, fmt.Errorf("marshal item: %w", err)
	}

	for name, value := range record.Attributes {
		item[name] = &types.AttributeValueMemberS{Value: value}
	}

	item[d.primaryKey] = &types.AttributeValueMemberS{Value: string(record.ID)}

	_, err = d.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(d.table),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(#id) OR #ttl <= :now"),
		ExpressionAttributeNames: map[string]string{
			"#id":  d.primaryKey,
			"#ttl": redirect.AttrTTL,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":now": &types.AttributeValueMemberN{Value: strconv.FormatInt(d.now().Unix(), 10)},
		},
	})
	if err != nil {
		return classifyPutError(err), err
	}

	return redirect.PutCreated, nil
}

func classifyPutError(err error) redirect.PutOutcome {
	var conditionFailed *types.ConditionalCheckFailedException
	if errors.As(err, &conditionFailed) {
		return redirect.PutConflict
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) &&
		apiErr.ErrorCode() == "ValidationException" &&
		strings.Contains(apiErr.ErrorMessage(), "reserved keyword") {
		return redirect.PutSchemaRejected
	}

	return redirect.PutFailed
}

func (d *DynamoStore) GetByID(ctx context.Context, id redirect.ID) (*redirect.Record, error) {
	out, err := d.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(d.table),
		Key: map[string]types.AttributeValue{
			d.primaryKey: &types.AttributeValueMemberS{Value: string(id)},
		},
	})
	if err != nil {
		return nil, err
	}

	if out.Item == nil {
		return nil, redirect.ErrNotFound
	}

	var item dynamoItem
	if err = attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, fmt.Errorf("unmarshal item %q: %w", id, err)
	}

	rec := &redirect.Record{
		ID:           id,
		OriginalURL:  item.OriginalURL,
		TTLInSeconds: item.TTLInSeconds,
		TTL:          item.TTL,
		Attributes:   d.extraAttributes(out.Item),
	}

	if rec.Expired(d.now()) {
		return nil, redirect.ErrNotFound
	}

	return rec, nil
}

// extraAttributes collects string attributes that are not part of the fixed item shape.
func (d *DynamoStore) extraAttributes(item map[string]types.AttributeValue) map[string]string {
	var attrs map[string]string

	for name, value := range item {
		switch name {
		case d.primaryKey, redirect.AttrOriginalURL, redirect.AttrTTLInSeconds, redirect.AttrTTL:
			continue
		}

		s, ok := value.(*types.AttributeValueMemberS)
		if !ok {
			continue
		}

		if attrs == nil {
			attrs = make(map[string]string)
		}

		attrs[name] = s.Value
	}

	return attrs
}

// Ping checks that the table is reachable.
func (d *DynamoStore) Ping(ctx context.Context) error {
	_, err := d.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(d.table),
	})

	return err
}

var _ redirect.Repository = (*DynamoStore)(nil)
