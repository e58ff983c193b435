package store

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// DefaultTable is the DynamoDB table used when none is configured.
const DefaultTable = "tradebook"

// DynamoAPI is the subset of the DynamoDB client used by Dynamo.
type DynamoAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

// Dynamo is a Store in a DynamoDB table with a string partition key named "key".
type Dynamo struct {
	client DynamoAPI
	table  string
}

type item struct {
	Key       string `dynamodbav:"key"`
	Value     []byte `dynamodbav:"value"`
	UpdatedAt string `dynamodbav:"updated_at"`
}

// NewDynamo returns a Dynamo store using the default AWS configuration of the environment.
func NewDynamo(ctx context.Context, table string) (*Dynamo, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("dynamo store: cannot load aws configuration: %w", err)
	}
	return NewDynamoWithClient(dynamodb.NewFromConfig(cfg), table), nil
}

// NewDynamoWithClient returns a Dynamo store on top of client.
func NewDynamoWithClient(client DynamoAPI, table string) *Dynamo {
	if table == "" {
		table = DefaultTable
	}
	return &Dynamo{client: client, table: table}
}

func (d *Dynamo) Get(ctx context.Context, key string) ([]byte, error) {
	out, err := d.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(d.table),
		Key: map[string]types.AttributeValue{
			"key": &types.AttributeValueMemberS{Value: key},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("dynamo store: cannot read %q: %w", key, err)
	}
	if len(out.Item) == 0 {
		return nil, ErrNotFound
	}
	var it item
	if err := attributevalue.UnmarshalMap(out.Item, &it); err != nil {
		return nil, fmt.Errorf("dynamo store: cannot decode %q: %w", key, err)
	}
	return it.Value, nil
}

func (d *Dynamo) Set(ctx context.Context, key string, value []byte) error {
	av, err := attributevalue.MarshalMap(item{Key: key, Value: value, UpdatedAt: time.Now().UTC().Format(time.RFC3339)})
	if err != nil {
		return fmt.Errorf("dynamo store: cannot encode %q: %w", key, err)
	}
	if _, err := d.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(d.table),
		Item:      av,
	}); err != nil {
		return fmt.Errorf("dynamo store: cannot write %q: %w", key, err)
	}
	return nil
}
