package domain

import "time"

// Document is an event attachment stored in object storage.
type Document struct {
	DocumentID  string    `json:"id" dynamodbav:"document_id"`
	EventID     string    `json:"event_id" dynamodbav:"event_id"`
	Name        string    `json:"name" dynamodbav:"name"`
	Object      string    `json:"-" dynamodbav:"object"`
	ContentType string    `json:"content_type" dynamodbav:"content_type"`
	Size        int64     `json:"size" dynamodbav:"size"`
	Hash        string    `json:"hash" dynamodbav:"hash"` // hex SHA-256 of the content
	UploadedBy  string    `json:"uploaded_by" dynamodbav:"uploaded_by"`
	Enable      bool      `json:"enable" dynamodbav:"enable"`
	CreatedAt   time.Time `json:"created" dynamodbav:"created_at"`
	UpdatedAt   time.Time `json:"updated" dynamodbav:"updated_at"`
}
