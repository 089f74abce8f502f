package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/face-auth-api/internal/domain"
)

// FaceRepo provides typed DynamoDB operations for the face embeddings table.
// PK: user_id, SK: record_id. Records are append-only; PutItem on a fresh
// ULID key is atomic, so readers never observe a partial record.
type FaceRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewFaceRepo(client *dynamodb.Client, tableName string) *FaceRepo {
	return &FaceRepo{client: client, tableName: tableName}
}

func (r *FaceRepo) Put(ctx context.Context, rec *domain.FaceRecord) error {
	item, err := attributevalue.MarshalMap(rec)
	if err != nil {
		return fmt.Errorf("marshal face record: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

// ScanAll returns every stored face record. Recognition runs a full linear
// scan by design; the population is small and no index structure is kept.
func (r *FaceRepo) ScanAll(ctx context.Context) ([]domain.FaceRecord, error) {
	var records []domain.FaceRecord
	var startKey map[string]types.AttributeValue
	for {
		out, err := r.client.Scan(ctx, &dynamodb.ScanInput{
			TableName:         aws.String(r.tableName),
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return nil, err
		}
		var page []domain.FaceRecord
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &page); err != nil {
			return nil, err
		}
		records = append(records, page...)
		if out.LastEvaluatedKey == nil {
			break
		}
		startKey = out.LastEvaluatedKey
	}
	return records, nil
}

// ListByUser returns a user's face records in insertion order (ULID sort key).
func (r *FaceRepo) ListByUser(ctx context.Context, userID string) ([]domain.FaceRecord, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		KeyConditionExpression:    aws.String("user_id = :u"),
		ExpressionAttributeValues: map[string]types.AttributeValue{":u": &types.AttributeValueMemberS{Value: userID}},
	})
	if err != nil {
		return nil, err
	}
	var records []domain.FaceRecord
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &records); err != nil {
		return nil, err
	}
	return records, nil
}
