package task

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/KenzoYff/evently-ux-platform-94/internal/domain"
	"github.com/KenzoYff/evently-ux-platform-94/internal/pkg/id"
)

// DynamoDB attribute names used in partial update maps.
const (
	fieldTitle       = "title"
	fieldDescription = "description"
	fieldStatus      = "status"
	fieldPriority    = "priority"
	fieldAssignee    = "assignee"
)

type Service interface {
	List(ctx context.Context, userID, role, eventID string) ([]domain.Task, error)
	Create(ctx context.Context, userID, role, eventID string, req domain.CreateTaskRequest) (*domain.Task, error)
	Update(ctx context.Context, userID, role, taskID string, req domain.UpdateTaskRequest) (*domain.Task, error)
	Move(ctx context.Context, userID, role, taskID, status string) (*domain.Task, error)
	Delete(ctx context.Context, userID, role, taskID string) error
}

type taskStore interface {
	Put(ctx context.Context, t *domain.Task) error
	Get(ctx context.Context, taskID string) (*domain.Task, error)
	ListByEvent(ctx context.Context, eventID string) ([]domain.Task, error)
	Update(ctx context.Context, taskID string, updates map[string]interface{}) error
	Delete(ctx context.Context, taskID string) error
}

type eventReader interface {
	Get(ctx context.Context, eventID string) (*domain.Event, error)
}

type service struct {
	repo   taskStore
	events eventReader
}

type ServiceDeps struct {
	TaskRepo  taskStore
	EventRepo eventReader
}

func NewService(deps ServiceDeps) Service {
	return &service{repo: deps.TaskRepo, events: deps.EventRepo}
}

func (s *service) authorize(ctx context.Context, userID, role, eventID string) error {
	e, err := s.events.Get(ctx, eventID)
	if err != nil {
		return err
	}
	if !e.CanView(userID, role) {
		return fmt.Errorf("not a member of this event: %w", domain.ErrForbidden)
	}
	return nil
}

// load fetches the task and checks the caller belongs to its event.
func (s *service) load(ctx context.Context, userID, role, taskID string) (*domain.Task, error) {
	t, err := s.repo.Get(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, userID, role, t.EventID); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *service) List(ctx context.Context, userID, role, eventID string) ([]domain.Task, error) {
	if err := s.authorize(ctx, userID, role, eventID); err != nil {
		return nil, err
	}
	tasks, err := s.repo.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].CreatedAt.Before(tasks[j].CreatedAt) })
	return tasks, nil
}

func (s *service) Create(ctx context.Context, userID, role, eventID string, req domain.CreateTaskRequest) (*domain.Task, error) {
	if err := s.authorize(ctx, userID, role, eventID); err != nil {
		return nil, err
	}
	priority := req.Priority
	if priority == "" {
		priority = domain.PriorityMedium
	}
	if !domain.ValidTaskPriority(priority) {
		return nil, fmt.Errorf("invalid priority %q: %w", priority, domain.ErrBadRequest)
	}
	now := time.Now().UTC()
	t := &domain.Task{
		TaskID:      id.New(),
		EventID:     eventID,
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		Status:      domain.TaskStatusTodo,
		Priority:    priority,
		Assignee:    req.Assignee,
		CreatedBy:   userID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Put(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *service) Update(ctx context.Context, userID, role, taskID string, req domain.UpdateTaskRequest) (*domain.Task, error) {
	if _, err := s.load(ctx, userID, role, taskID); err != nil {
		return nil, err
	}
	updates := map[string]interface{}{}
	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return nil, fmt.Errorf("title required: %w", domain.ErrBadRequest)
		}
		updates[fieldTitle] = title
	}
	if req.Description != nil {
		updates[fieldDescription] = *req.Description
	}
	if req.Priority != nil {
		if !domain.ValidTaskPriority(*req.Priority) {
			return nil, fmt.Errorf("invalid priority %q: %w", *req.Priority, domain.ErrBadRequest)
		}
		updates[fieldPriority] = *req.Priority
	}
	if req.Assignee != nil {
		updates[fieldAssignee] = *req.Assignee
	}
	if req.Status != nil {
		if !domain.ValidTaskStatus(*req.Status) {
			return nil, fmt.Errorf("invalid status %q: %w", *req.Status, domain.ErrBadRequest)
		}
		updates[fieldStatus] = *req.Status
	}
	if len(updates) > 0 {
		if err := s.repo.Update(ctx, taskID, updates); err != nil {
			return nil, err
		}
	}
	return s.repo.Get(ctx, taskID)
}

func (s *service) Move(ctx context.Context, userID, role, taskID, status string) (*domain.Task, error) {
	if !domain.ValidTaskStatus(status) {
		return nil, fmt.Errorf("invalid status %q: %w", status, domain.ErrBadRequest)
	}
	t, err := s.load(ctx, userID, role, taskID)
	if err != nil {
		return nil, err
	}
	if t.Status == status {
		return t, nil
	}
	if err := s.repo.Update(ctx, taskID, map[string]interface{}{fieldStatus: status}); err != nil {
		return nil, err
	}
	t.Status = status
	return t, nil
}

func (s *service) Delete(ctx context.Context, userID, role, taskID string) error {
	if _, err := s.load(ctx, userID, role, taskID); err != nil {
		return err
	}
	return s.repo.Delete(ctx, taskID)
}
