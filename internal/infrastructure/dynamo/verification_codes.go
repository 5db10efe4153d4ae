package dynamo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/KenzoYff/evently-ux-platform-94/internal/domain"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// VerificationCodeRepo provides typed DynamoDB operations for the verification_codes table.
type VerificationCodeRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewVerificationCodeRepo(client *dynamodb.Client, tableName string) *VerificationCodeRepo {
	return &VerificationCodeRepo{client: client, tableName: tableName}
}

func (r *VerificationCodeRepo) Put(ctx context.Context, v *domain.VerificationCode) error {
	item, err := attributevalue.MarshalMap(v)
	if err != nil {
		return fmt.Errorf("marshal verification code: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

// FindUnused returns an unused record for subject+purpose whose code equals
// code. Expired records are returned too; the caller judges expiry.
func (r *VerificationCodeRepo) FindUnused(ctx context.Context, subjectID, purpose, code string) (*domain.VerificationCode, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String("subject_purpose-index"),
		KeyConditionExpression: aws.String("subject_purpose = :sp AND #c = :c"),
		FilterExpression:       aws.String("#u = :f"),
		ExpressionAttributeNames: map[string]string{
			"#c": "code",
			"#u": fieldUsed,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":sp": &types.AttributeValueMemberS{Value: domain.SubjectPurposeKey(subjectID, purpose)},
			":c":  &types.AttributeValueMemberS{Value: code},
			":f":  &types.AttributeValueMemberBOOL{Value: false},
		},
	})
	if err != nil {
		return nil, err
	}
	if len(out.Items) == 0 {
		return nil, fmt.Errorf("verification code not found: %w", domain.ErrNotFound)
	}
	var codes []domain.VerificationCode
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &codes); err != nil {
		return nil, err
	}
	return newestCode(codes), nil
}

// newestCode picks the most recently issued record. Two live codes of one
// subject and purpose may share a value; the newest one is consumed.
func newestCode(codes []domain.VerificationCode) *domain.VerificationCode {
	if len(codes) == 0 {
		return nil
	}
	best := &codes[0]
	for i := range codes[1:] {
		if codes[i+1].IssuedAt.After(best.IssuedAt) {
			best = &codes[i+1]
		}
	}
	return best
}

// MarkUsed flips used to true only if it is still false, so a code can be
// consumed once even under concurrent verification. Returns ErrConflict when
// the record was already used.
func (r *VerificationCodeRepo) MarkUsed(ctx context.Context, codeID string, usedAt time.Time) error {
	usedAtAV, err := attributevalue.Marshal(usedAt)
	if err != nil {
		return fmt.Errorf("marshal used_at: %w", err)
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(r.tableName),
		Key:                 strKey("code_id", codeID),
		UpdateExpression:    aws.String("SET #u = :t, #ua = :ua"),
		ConditionExpression: aws.String("attribute_exists(code_id) AND #u = :f"),
		ExpressionAttributeNames: map[string]string{
			"#u":  fieldUsed,
			"#ua": fieldUsedAt,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":t":  &types.AttributeValueMemberBOOL{Value: true},
			":f":  &types.AttributeValueMemberBOOL{Value: false},
			":ua": usedAtAV,
		},
	})
	return markUsedErr(err)
}

// markUsedErr maps a failed used = false condition to ErrConflict.
func markUsedErr(err error) error {
	var ccf *types.ConditionalCheckFailedException
	if errors.As(err, &ccf) {
		return fmt.Errorf("verification code already used: %w", domain.ErrConflict)
	}
	return err
}
