package dynamo

import (
	"context"
	"fmt"

	"github.com/KenzoYff/evently-ux-platform-94/internal/domain"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// EventRepo provides typed DynamoDB operations for the events table.
type EventRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewEventRepo(client *dynamodb.Client, tableName string) *EventRepo {
	return &EventRepo{client: client, tableName: tableName}
}

func (r *EventRepo) Put(ctx context.Context, e *domain.Event) error {
	item, err := attributevalue.MarshalMap(e)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *EventRepo) Get(ctx context.Context, eventID string) (*domain.Event, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("event_id", eventID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("event not found: %w", domain.ErrNotFound)
	}
	var e domain.Event
	if err := attributevalue.UnmarshalMap(out.Item, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

// ListForUser scans for events created by userID or listing userID as a
// team member. The table is small per tenant; a member GSI would need a
// fan-out row per member.
func (r *EventRepo) ListForUser(ctx context.Context, userID string) ([]domain.Event, error) {
	input := &dynamodb.ScanInput{
		TableName:        aws.String(r.tableName),
		FilterExpression: aws.String("created_by = :u OR contains(#tm, :u)"),
		ExpressionAttributeNames: map[string]string{
			"#tm": fieldTeamMembers,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":u": &types.AttributeValueMemberS{Value: userID},
		},
	}
	var events []domain.Event
	for {
		out, err := r.client.Scan(ctx, input)
		if err != nil {
			return nil, err
		}
		var page []domain.Event
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &page); err != nil {
			return nil, err
		}
		events = append(events, page...)
		if len(out.LastEvaluatedKey) == 0 {
			return events, nil
		}
		input.ExclusiveStartKey = out.LastEvaluatedKey
	}
}

func (r *EventRepo) Update(ctx context.Context, eventID string, updates map[string]interface{}) error {
	ue, err := buildUpdateExpr(withUpdatedAt(updates))
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey("event_id", eventID),
		UpdateExpression:          aws.String(ue.Expr),
		ConditionExpression:       existsCondition("event_id"),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	return notFoundOnConditionFail("event", err)
}

// SetMembers replaces the team member list.
func (r *EventRepo) SetMembers(ctx context.Context, eventID string, members []string) error {
	if members == nil {
		members = []string{}
	}
	return r.Update(ctx, eventID, map[string]interface{}{fieldTeamMembers: members})
}

func (r *EventRepo) Delete(ctx context.Context, eventID string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("event_id", eventID),
	})
	return err
}
