package dynamo

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/face-auth-api/internal/domain"
)

// RecoveryRepo manages password recovery codes. PK: email.
// PutItem on the email key atomically replaces any prior live request, so
// two concurrent issues cannot both survive and a concurrent verify sees
// either the old row or the new one, never a mix.
type RecoveryRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewRecoveryRepo(client *dynamodb.Client, tableName string) *RecoveryRepo {
	return &RecoveryRepo{client: client, tableName: tableName}
}

func (r *RecoveryRepo) Put(ctx context.Context, req *domain.RecoveryRequest) error {
	item, err := attributevalue.MarshalMap(req)
	if err != nil {
		return fmt.Errorf("marshal recovery request: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *RecoveryRepo) Get(ctx context.Context, email string) (*domain.RecoveryRequest, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("email", email),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("recovery request: %w", domain.ErrNotFound)
	}
	var req domain.RecoveryRequest
	if err := attributevalue.UnmarshalMap(out.Item, &req); err != nil {
		return nil, err
	}
	return &req, nil
}

// DeleteIfCodeMatches removes the row only while it still holds code.
// A verify that races a reissue fails the condition instead of consuming
// the superseded request. Returns domain.ErrNotFound when the condition
// fails or the row is already gone.
func (r *RecoveryRepo) DeleteIfCodeMatches(ctx context.Context, email, code string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey("email", email),
		ConditionExpression:       aws.String("#c = :c"),
		ExpressionAttributeNames:  map[string]string{"#c": "code"},
		ExpressionAttributeValues: map[string]types.AttributeValue{":c": &types.AttributeValueMemberS{Value: code}},
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return fmt.Errorf("recovery request superseded: %w", domain.ErrNotFound)
		}
		return err
	}
	return nil
}
