package sns

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
)

// SMSSender sends SMS messages via AWS SNS.
type SMSSender interface {
	SendSMS(ctx context.Context, to, message string) error
}

// PushSender registers device tokens and delivers mobile/web push through SNS.
type PushSender interface {
	CreateEndpoint(ctx context.Context, token, userID string) (string, error)
	Push(ctx context.Context, endpointARN, title, body string) error
}

// Sender implements SMSSender and PushSender.
type Sender struct {
	client         *sns.Client
	platformAppARN string
}

// NewSender builds an SNS sender. platformAppARN may be empty, in which case
// push endpoints cannot be created.
func NewSender(awsCfg aws.Config, platformAppARN string) *Sender {
	return &Sender{client: sns.NewFromConfig(awsCfg), platformAppARN: platformAppARN}
}

func (s *Sender) SendSMS(ctx context.Context, to, message string) error {
	_, err := s.client.Publish(ctx, &sns.PublishInput{
		PhoneNumber: &to,
		Message:     &message,
	})
	if err != nil {
		return fmt.Errorf("sns publish sms: %w", err)
	}
	return nil
}

func (s *Sender) CreateEndpoint(ctx context.Context, token, userID string) (string, error) {
	if s.platformAppARN == "" {
		return "", fmt.Errorf("sns platform application not configured")
	}
	out, err := s.client.CreatePlatformEndpoint(ctx, &sns.CreatePlatformEndpointInput{
		PlatformApplicationArn: aws.String(s.platformAppARN),
		Token:                  aws.String(token),
		CustomUserData:         aws.String(userID),
	})
	if err != nil {
		return "", fmt.Errorf("sns create endpoint: %w", err)
	}
	return aws.ToString(out.EndpointArn), nil
}

func (s *Sender) Push(ctx context.Context, endpointARN, title, body string) error {
	msg, err := pushPayload(title, body)
	if err != nil {
		return err
	}
	_, err = s.client.Publish(ctx, &sns.PublishInput{
		TargetArn:        aws.String(endpointARN),
		Message:          aws.String(msg),
		MessageStructure: aws.String("json"),
	})
	if err != nil {
		return fmt.Errorf("sns publish push: %w", err)
	}
	return nil
}

// pushPayload builds the per-platform SNS message envelope.
func pushPayload(title, body string) (string, error) {
	gcm, err := json.Marshal(map[string]any{
		"notification": map[string]string{"title": title, "body": body},
	})
	if err != nil {
		return "", err
	}
	apns, err := json.Marshal(map[string]any{
		"aps": map[string]any{"alert": map[string]string{"title": title, "body": body}},
	})
	if err != nil {
		return "", err
	}
	out, err := json.Marshal(map[string]string{
		"default":      body,
		"GCM":          string(gcm),
		"APNS":         string(apns),
		"APNS_SANDBOX": string(apns),
	})
	if err != nil {
		return "", err
	}
	return string(out), nil
}
