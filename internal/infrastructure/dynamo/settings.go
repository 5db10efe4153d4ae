package dynamo

import (
	"context"
	"fmt"
	"time"

	"github.com/KenzoYff/evently-ux-platform-94/internal/domain"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

// SettingsRepo provides typed DynamoDB operations for the user_settings table.
type SettingsRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewSettingsRepo(client *dynamodb.Client, tableName string) *SettingsRepo {
	return &SettingsRepo{client: client, tableName: tableName}
}

// Put writes the full settings row, replacing any previous one.
func (r *SettingsRepo) Put(ctx context.Context, s *domain.UserSettings) error {
	s.UpdatedAt = time.Now().UTC()
	item, err := attributevalue.MarshalMap(s)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *SettingsRepo) Get(ctx context.Context, userID string) (*domain.UserSettings, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("user_id", userID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("settings not found: %w", domain.ErrNotFound)
	}
	var s domain.UserSettings
	if err := attributevalue.UnmarshalMap(out.Item, &s); err != nil {
		return nil, err
	}
	return &s, nil
}
