package dynamo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/KenzoYff/evently-ux-platform-94/internal/domain"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var codeIssuedAt = time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)

func TestNewestCode(t *testing.T) {
	assert.Nil(t, newestCode(nil))

	codes := []domain.VerificationCode{
		{CodeID: "old", IssuedAt: codeIssuedAt},
		{CodeID: "newest", IssuedAt: codeIssuedAt.Add(2 * time.Minute)},
		{CodeID: "middle", IssuedAt: codeIssuedAt.Add(time.Minute)},
	}
	assert.Equal(t, "newest", newestCode(codes).CodeID)
	assert.Equal(t, "only", newestCode([]domain.VerificationCode{{CodeID: "only"}}).CodeID)

	tie := []domain.VerificationCode{{CodeID: "a", IssuedAt: codeIssuedAt}, {CodeID: "b", IssuedAt: codeIssuedAt}}
	assert.Equal(t, "a", newestCode(tie).CodeID)
}

func TestMarkUsedErr(t *testing.T) {
	assert.NoError(t, markUsedErr(nil))

	ccf := fmt.Errorf("operation error DynamoDB: UpdateItem: %w", &types.ConditionalCheckFailedException{Message: aws.String("condition failed")})
	assert.ErrorIs(t, markUsedErr(ccf), domain.ErrConflict)

	other := errors.New("throttled")
	assert.Equal(t, other, markUsedErr(other))
	assert.NotErrorIs(t, markUsedErr(other), domain.ErrConflict)
}

// fakeDynamo answers DynamoDB JSON-protocol calls by X-Amz-Target.
func fakeDynamo(t *testing.T, handle func(target string, body map[string]interface{}) (int, string)) *VerificationCodeRepo {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		var body map[string]interface{}
		require.NoError(t, json.Unmarshal(raw, &body))
		target := r.Header.Get("X-Amz-Target")
		status, resp := handle(target[strings.LastIndex(target, ".")+1:], body)
		w.Header().Set("Content-Type", "application/x-amz-json-1.0")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, resp)
	}))
	t.Cleanup(srv.Close)

	client := NewClient(aws.Config{
		Region:           "us-east-1",
		Credentials:      aws.AnonymousCredentials{},
		RetryMaxAttempts: 1,
	}, srv.URL)
	return NewVerificationCodeRepo(client, "verification_codes")
}

func TestVerificationCodeRepo_MarkUsedConditional(t *testing.T) {
	var got map[string]interface{}
	repo := fakeDynamo(t, func(target string, body map[string]interface{}) (int, string) {
		got = body
		return http.StatusBadRequest, `{"__type":"com.amazonaws.dynamodb.v20120810#ConditionalCheckFailedException","message":"The conditional request failed"}`
	})

	err := repo.MarkUsed(context.Background(), "c1", codeIssuedAt)
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.Equal(t, "verification_codes", got["TableName"])
	assert.Equal(t, "attribute_exists(code_id) AND #u = :f", got["ConditionExpression"])
}

func TestVerificationCodeRepo_MarkUsedSuccess(t *testing.T) {
	repo := fakeDynamo(t, func(target string, _ map[string]interface{}) (int, string) {
		assert.Equal(t, "UpdateItem", target)
		return http.StatusOK, `{}`
	})
	assert.NoError(t, repo.MarkUsed(context.Background(), "c1", codeIssuedAt))
}

func TestVerificationCodeRepo_FindUnusedPrefersNewest(t *testing.T) {
	item := func(id string, at time.Time) string {
		return fmt.Sprintf(`{"code_id":{"S":%q},"subject_id":{"S":"u1"},"code":{"S":"123456"},"used":{"BOOL":false},"issued_at":{"S":%q},"expires_at":{"S":%q}}`,
			id, at.Format(time.RFC3339Nano), at.Add(domain.VerificationCodeTTL).Format(time.RFC3339Nano))
	}
	var got map[string]interface{}
	repo := fakeDynamo(t, func(target string, body map[string]interface{}) (int, string) {
		got = body
		return http.StatusOK, `{"Count":2,"Items":[` + item("first", codeIssuedAt) + `,` + item("second", codeIssuedAt.Add(time.Minute)) + `]}`
	})

	v, err := repo.FindUnused(context.Background(), "u1", domain.PurposeLogin2FA, "123456")
	require.NoError(t, err)
	assert.Equal(t, "second", v.CodeID)
	assert.Equal(t, codeIssuedAt.Add(time.Minute), v.IssuedAt)
	assert.Equal(t, "subject_purpose-index", got["IndexName"])
	assert.Equal(t, "#u = :f", got["FilterExpression"])
}

func TestVerificationCodeRepo_FindUnusedNone(t *testing.T) {
	repo := fakeDynamo(t, func(string, map[string]interface{}) (int, string) {
		return http.StatusOK, `{"Count":0,"Items":[]}`
	})
	_, err := repo.FindUnused(context.Background(), "u1", domain.PurposeLogin2FA, "000000")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
