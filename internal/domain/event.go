package domain

import "time"

type Event struct {
	EventID     string     `json:"id" dynamodbav:"event_id"`
	Name        string     `json:"name" dynamodbav:"name"`
	Description string     `json:"description" dynamodbav:"description"`
	Notes       string     `json:"notes" dynamodbav:"notes"`
	Status      string     `json:"status" dynamodbav:"status"`
	EventDate   *time.Time `json:"event_date,omitempty" dynamodbav:"event_date"`
	Budget      float64    `json:"budget" dynamodbav:"budget"`
	BudgetUsed  float64    `json:"budget_used" dynamodbav:"budget_used"`
	CreatedBy   string     `json:"created_by" dynamodbav:"created_by"`
	TeamMembers []string   `json:"team_members" dynamodbav:"team_members"`
	CreatedAt   time.Time  `json:"created" dynamodbav:"created_at"`
	UpdatedAt   time.Time  `json:"updated" dynamodbav:"updated_at"`
}

// IsMember reports whether userID created the event or is on its team.
func (e *Event) IsMember(userID string) bool {
	return e.CreatedBy == userID || contains(e.TeamMembers, userID)
}

// CanManage reports whether the actor may edit the event or its membership.
func (e *Event) CanManage(userID, role string) bool {
	return role == RoleAdmin || e.CreatedBy == userID
}

// CanView reports whether the actor may read the event and its children.
func (e *Event) CanView(userID, role string) bool {
	return role == RoleAdmin || e.IsMember(userID)
}

// ValidEventStatus reports whether s is a known event status.
func ValidEventStatus(s string) bool { return contains(EventStatuses, s) }

type CreateEventRequest struct {
	Name        string   `json:"name" validate:"required,max=200"`
	Description string   `json:"description"`
	Notes       string   `json:"notes"`
	Status      string   `json:"status"`
	EventDate   string   `json:"event_date"` // expected format: YYYY-MM-DD
	Budget      float64  `json:"budget" validate:"gte=0"`
	TeamMembers []string `json:"team_members"`
}

type UpdateEventRequest struct {
	Name        *string  `json:"name" validate:"omitempty,max=200"`
	Description *string  `json:"description"`
	Notes       *string  `json:"notes"`
	Status      *string  `json:"status"`
	EventDate   *string  `json:"event_date"` // expected format: YYYY-MM-DD
	Budget      *float64 `json:"budget" validate:"omitempty,gte=0"`
	BudgetUsed  *float64 `json:"budget_used" validate:"omitempty,gte=0"`
}

type AddMemberRequest struct {
	Email string `json:"email" validate:"required,email"`
}
