package domain

import "time"

// Device is a registered push token. EndpointARN is the SNS platform endpoint
// created for the token, empty when push delivery is not configured.
type Device struct {
	DeviceID    string    `json:"id" dynamodbav:"device_id"`
	UserID      string    `json:"user_id" dynamodbav:"user_id"`
	Token       string    `json:"token" dynamodbav:"token"`
	Platform    string    `json:"platform" dynamodbav:"platform"`
	EndpointARN string    `json:"-" dynamodbav:"endpoint_arn"`
	Enable      bool      `json:"enable" dynamodbav:"enable"`
	CreatedAt   time.Time `json:"created" dynamodbav:"created_at"`
	UpdatedAt   time.Time `json:"updated" dynamodbav:"updated_at"`
}

type RegisterDeviceRequest struct {
	Token    string `json:"token" validate:"required"`
	Platform string `json:"platform" validate:"omitempty,oneof=web android ios"`
}
