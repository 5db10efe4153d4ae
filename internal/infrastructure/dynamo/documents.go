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

// DocumentRepo provides typed DynamoDB operations for the documents table.
type DocumentRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewDocumentRepo(client *dynamodb.Client, tableName string) *DocumentRepo {
	return &DocumentRepo{client: client, tableName: tableName}
}

func (r *DocumentRepo) Put(ctx context.Context, d *domain.Document) error {
	item, err := attributevalue.MarshalMap(d)
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *DocumentRepo) Get(ctx context.Context, documentID string) (*domain.Document, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("document_id", documentID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("document not found: %w", domain.ErrNotFound)
	}
	var d domain.Document
	if err := attributevalue.UnmarshalMap(out.Item, &d); err != nil {
		return nil, err
	}
	if !d.Enable {
		return nil, fmt.Errorf("document not found: %w", domain.ErrNotFound)
	}
	return &d, nil
}

// ListByEvent returns the enabled documents attached to eventID.
func (r *DocumentRepo) ListByEvent(ctx context.Context, eventID string) ([]domain.Document, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String("event_id-index"),
		KeyConditionExpression: aws.String("event_id = :e"),
		FilterExpression:       aws.String("#en = :t"),
		ExpressionAttributeNames: map[string]string{
			"#en": fieldEnable,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":e": &types.AttributeValueMemberS{Value: eventID},
			":t": &types.AttributeValueMemberBOOL{Value: true},
		},
	})
	if err != nil {
		return nil, err
	}
	var docs []domain.Document
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

func (r *DocumentRepo) SoftDelete(ctx context.Context, documentID string) error {
	ue, err := buildUpdateExpr(withUpdatedAt(map[string]interface{}{fieldEnable: false}))
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey("document_id", documentID),
		UpdateExpression:          aws.String(ue.Expr),
		ConditionExpression:       existsCondition("document_id"),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	return notFoundOnConditionFail("document", err)
}
