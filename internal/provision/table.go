// Package provision creates the expenses table and its indexes.
package provision

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/para-app/expenses-service/internal/dynamo"
)

const createWaitTimeout = 100 * time.Second

// DynamoDBClient defines the interface for table provisioning operations.
type DynamoDBClient interface {
	CreateTable(ctx context.Context, input *dynamodb.CreateTableInput, opts ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error)
	DescribeTable(ctx context.Context, input *dynamodb.DescribeTableInput, opts ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
}

// CreateTableInput describes the base table keyed on (user_uid, timestamp_utc)
// plus the two local secondary indexes, each a full projection.
func CreateTableInput(tableName string) *dynamodb.CreateTableInput {
	return &dynamodb.CreateTableInput{
		TableName: aws.String(tableName),
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String(dynamo.AttrUserUID), KeyType: types.KeyTypeHash},
			{AttributeName: aws.String(dynamo.AttrTimestampUTC), KeyType: types.KeyTypeRange},
		},
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String(dynamo.AttrUserUID), AttributeType: types.ScalarAttributeTypeS},
			{AttributeName: aws.String(dynamo.AttrTimestampUTC), AttributeType: types.ScalarAttributeTypeS},
			{AttributeName: aws.String(dynamo.AttrID), AttributeType: types.ScalarAttributeTypeS},
			{AttributeName: aws.String(dynamo.AttrTimestampUTCCreated), AttributeType: types.ScalarAttributeTypeS},
		},
		LocalSecondaryIndexes: []types.LocalSecondaryIndex{
			{
				IndexName: aws.String(dynamo.IndexIDRange),
				KeySchema: []types.KeySchemaElement{
					{AttributeName: aws.String(dynamo.AttrUserUID), KeyType: types.KeyTypeHash},
					{AttributeName: aws.String(dynamo.AttrID), KeyType: types.KeyTypeRange},
				},
				Projection: &types.Projection{ProjectionType: types.ProjectionTypeAll},
			},
			{
				IndexName: aws.String(dynamo.IndexCreatedRange),
				KeySchema: []types.KeySchemaElement{
					{AttributeName: aws.String(dynamo.AttrUserUID), KeyType: types.KeyTypeHash},
					{AttributeName: aws.String(dynamo.AttrTimestampUTCCreated), KeyType: types.KeyTypeRange},
				},
				Projection: &types.Projection{ProjectionType: types.ProjectionTypeAll},
			},
		},
		ProvisionedThroughput: &types.ProvisionedThroughput{
			ReadCapacityUnits:  aws.Int64(25),
			WriteCapacityUnits: aws.Int64(25),
		},
	}
}

// EnsureTable creates the expenses table and waits for it to become active.
// A pre-existing table is not an error.
func EnsureTable(ctx context.Context, client DynamoDBClient, tableName string) error {
	_, err := client.CreateTable(ctx, CreateTableInput(tableName))
	if err != nil {
		var inUse *types.ResourceInUseException
		if errors.As(err, &inUse) {
			return nil
		}
		return fmt.Errorf("failed to create table %s: %w", tableName, err)
	}

	waiter := dynamodb.NewTableExistsWaiter(client)
	if err := waiter.Wait(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(tableName),
	}, createWaitTimeout); err != nil {
		return fmt.Errorf("table %s did not become active: %w", tableName, err)
	}
	return nil
}
