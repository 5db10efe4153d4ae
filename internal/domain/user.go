package domain

import "time"

type User struct {
	UserID       string     `json:"id" dynamodbav:"user_id"`
	DisplayName  string     `json:"display_name" dynamodbav:"display_name"`
	Email        string     `json:"email" dynamodbav:"email"`
	Phone        string     `json:"phone,omitempty" dynamodbav:"phone"` // E.164, optional
	PasswordHash string     `json:"-" dynamodbav:"password_hash"`
	Role         string     `json:"role" dynamodbav:"role"`
	Department   string     `json:"department" dynamodbav:"department"`
	Position     string     `json:"position" dynamodbav:"position"`
	PhotoKey     string     `json:"photo_key,omitempty" dynamodbav:"photo_key"`
	Enable       int        `json:"enable" dynamodbav:"enable"`
	DeletedAt    *time.Time `json:"deleted_at,omitempty" dynamodbav:"deleted_at"`
	CreatedAt    time.Time  `json:"created" dynamodbav:"created_at"`
	UpdatedAt    time.Time  `json:"updated" dynamodbav:"updated_at"`
}

type CreateUserRequest struct {
	DisplayName string `json:"display_name" validate:"required"`
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=8,max=72"`
	Department  string `json:"department"`
	Position    string `json:"position"`
}

type UpdateUserRequest struct {
	DisplayName *string `json:"display_name"`
	Email       *string `json:"email" validate:"omitempty,email"`
	Phone       *string `json:"phone" validate:"omitempty,e164"`
	Department  *string `json:"department"`
	Position    *string `json:"position"`
	Role        *string `json:"role"`
	Enable      *int    `json:"enable"` // 1 = enabled, 0 = disabled
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8,max=72"`
}
