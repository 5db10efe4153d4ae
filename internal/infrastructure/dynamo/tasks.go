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

// TaskRepo provides typed DynamoDB operations for the tasks table.
type TaskRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewTaskRepo(client *dynamodb.Client, tableName string) *TaskRepo {
	return &TaskRepo{client: client, tableName: tableName}
}

func (r *TaskRepo) Put(ctx context.Context, t *domain.Task) error {
	item, err := attributevalue.MarshalMap(t)
	if err != nil {
		return fmt.Errorf("marshal task: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *TaskRepo) Get(ctx context.Context, taskID string) (*domain.Task, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("task_id", taskID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("task not found: %w", domain.ErrNotFound)
	}
	var t domain.Task
	if err := attributevalue.UnmarshalMap(out.Item, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TaskRepo) ListByEvent(ctx context.Context, eventID string) ([]domain.Task, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String("event_id-index"),
		KeyConditionExpression: aws.String("event_id = :e"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":e": &types.AttributeValueMemberS{Value: eventID},
		},
	})
	if err != nil {
		return nil, err
	}
	var tasks []domain.Task
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

func (r *TaskRepo) Update(ctx context.Context, taskID string, updates map[string]interface{}) error {
	ue, err := buildUpdateExpr(withUpdatedAt(updates))
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey("task_id", taskID),
		UpdateExpression:          aws.String(ue.Expr),
		ConditionExpression:       existsCondition("task_id"),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	return notFoundOnConditionFail("task", err)
}

func (r *TaskRepo) Delete(ctx context.Context, taskID string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("task_id", taskID),
	})
	return err
}
