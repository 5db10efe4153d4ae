package dynamo

import (
	"context"
	"fmt"
	"time"

	"github.com/KenzoYff/evently-ux-platform-94/internal/domain"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// EmailQueueRepo provides typed DynamoDB operations for the email_queue table.
type EmailQueueRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewEmailQueueRepo(client *dynamodb.Client, tableName string) *EmailQueueRepo {
	return &EmailQueueRepo{client: client, tableName: tableName}
}

func (r *EmailQueueRepo) Put(ctx context.Context, m *domain.EmailMessage) error {
	item, err := attributevalue.MarshalMap(m)
	if err != nil {
		return fmt.Errorf("marshal email message: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

// ListByStatus returns up to limit messages in status, oldest first. When
// before is non-zero only messages created before it are returned.
func (r *EmailQueueRepo) ListByStatus(ctx context.Context, status string, before time.Time, limit int32) ([]domain.EmailMessage, error) {
	keyCond := "#s = :s"
	values := map[string]types.AttributeValue{
		":s": &types.AttributeValueMemberS{Value: status},
	}
	if !before.IsZero() {
		keyCond += " AND created_at < :b"
		av, err := attributevalue.Marshal(before.UTC())
		if err != nil {
			return nil, err
		}
		values[":b"] = av
	}
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String("status-created_at-index"),
		KeyConditionExpression:    aws.String(keyCond),
		ExpressionAttributeNames:  map[string]string{"#s": fieldStatus},
		ExpressionAttributeValues: values,
		ScanIndexForward:          aws.Bool(true),
		Limit:                     aws.Int32(limit),
	})
	if err != nil {
		return nil, err
	}
	var msgs []domain.EmailMessage
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

func (r *EmailQueueRepo) Update(ctx context.Context, messageID string, updates map[string]interface{}) error {
	ue, err := buildUpdateExpr(updates)
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey("message_id", messageID),
		UpdateExpression:          aws.String(ue.Expr),
		ConditionExpression:       existsCondition("message_id"),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	return notFoundOnConditionFail("email message", err)
}

func (r *EmailQueueRepo) Delete(ctx context.Context, messageID string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("message_id", messageID),
	})
	return err
}
