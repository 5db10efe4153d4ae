package domain

import "time"

type Task struct {
	TaskID      string    `json:"id" dynamodbav:"task_id"`
	EventID     string    `json:"event_id" dynamodbav:"event_id"`
	Title       string    `json:"title" dynamodbav:"title"`
	Description string    `json:"description" dynamodbav:"description"`
	Status      string    `json:"status" dynamodbav:"status"`
	Priority    string    `json:"priority" dynamodbav:"priority"`
	Assignee    string    `json:"assignee,omitempty" dynamodbav:"assignee"`
	CreatedBy   string    `json:"created_by" dynamodbav:"created_by"`
	CreatedAt   time.Time `json:"created" dynamodbav:"created_at"`
	UpdatedAt   time.Time `json:"updated" dynamodbav:"updated_at"`
}

func ValidTaskStatus(s string) bool   { return contains(TaskStatuses, s) }
func ValidTaskPriority(p string) bool { return contains(TaskPriorities, p) }

type CreateTaskRequest struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description"`
	Priority    string `json:"priority"`
	Assignee    string `json:"assignee"`
}

type UpdateTaskRequest struct {
	Title       *string `json:"title" validate:"omitempty,max=200"`
	Description *string `json:"description"`
	Priority    *string `json:"priority"`
	Assignee    *string `json:"assignee"`
	Status      *string `json:"status"`
}

type MoveTaskRequest struct {
	Status string `json:"status" validate:"required"`
}
