package dynamo

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/KenzoYff/evently-ux-platform-94/internal/domain"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// NotificationRepo provides typed DynamoDB operations for the notifications table.
type NotificationRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewNotificationRepo(client *dynamodb.Client, tableName string) *NotificationRepo {
	return &NotificationRepo{client: client, tableName: tableName}
}

func (r *NotificationRepo) Put(ctx context.Context, n *domain.Notification) error {
	item, err := attributevalue.MarshalMap(n)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *NotificationRepo) Get(ctx context.Context, notificationID string) (*domain.Notification, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("notification_id", notificationID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("notification not found: %w", domain.ErrNotFound)
	}
	var n domain.Notification
	if err := attributevalue.UnmarshalMap(out.Item, &n); err != nil {
		return nil, err
	}
	return &n, nil
}

// ListByUser queries the user_id-created_at GSI newest first. With
// unreadOnly set, read notifications are filtered out.
func (r *NotificationRepo) ListByUser(ctx context.Context, userID string, unreadOnly bool) ([]domain.Notification, error) {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String("user_id-created_at-index"),
		KeyConditionExpression: aws.String("user_id = :uid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":uid": &types.AttributeValueMemberS{Value: userID},
		},
		ScanIndexForward: aws.Bool(false),
	}
	if unreadOnly {
		input.FilterExpression = aws.String("#r = :f")
		input.ExpressionAttributeNames = map[string]string{"#r": fieldRead}
		input.ExpressionAttributeValues[":f"] = &types.AttributeValueMemberBOOL{Value: false}
	}
	var notifications []domain.Notification
	for {
		out, err := r.client.Query(ctx, input)
		if err != nil {
			return nil, err
		}
		var page []domain.Notification
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &page); err != nil {
			return nil, err
		}
		notifications = append(notifications, page...)
		if len(out.LastEvaluatedKey) == 0 {
			return notifications, nil
		}
		input.ExclusiveStartKey = out.LastEvaluatedKey
	}
}

func (r *NotificationRepo) MarkAsRead(ctx context.Context, notificationID string) error {
	ue, err := buildUpdateExpr(withUpdatedAt(map[string]interface{}{fieldRead: true}))
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey("notification_id", notificationID),
		UpdateExpression:          aws.String(ue.Expr),
		ConditionExpression:       existsCondition("notification_id"),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	return notFoundOnConditionFail("notification", err)
}

// MarkAllAsRead marks every unread notification of userID and returns how
// many were updated. Continues past individual failures and returns the first.
func (r *NotificationRepo) MarkAllAsRead(ctx context.Context, userID string) (int, error) {
	unread, err := r.ListByUser(ctx, userID, true)
	if err != nil {
		return 0, err
	}
	updated := 0
	var firstErr error
	for _, n := range unread {
		if err := r.MarkAsRead(ctx, n.NotificationID); err != nil {
			slog.Warn("failed to mark notification read", "notification_id", n.NotificationID, "user_id", userID, "err", err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		updated++
	}
	return updated, firstErr
}
