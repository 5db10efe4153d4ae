package event

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/KenzoYff/evently-ux-platform-94/internal/domain"
	"github.com/KenzoYff/evently-ux-platform-94/internal/pkg/id"
)

const dateLayout = "2006-01-02"

// DynamoDB attribute names used in partial update maps.
const (
	fieldName        = "name"
	fieldDescription = "description"
	fieldNotes       = "notes"
	fieldStatus      = "status"
	fieldEventDate   = "event_date"
	fieldBudget      = "budget"
	fieldBudgetUsed  = "budget_used"
)

// Member is the public view of a user on an event team.
type Member struct {
	UserID      string `json:"id"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
	Owner       bool   `json:"owner"`
}

type Service interface {
	List(ctx context.Context, userID string) ([]domain.Event, error)
	Create(ctx context.Context, userID string, req domain.CreateEventRequest) (*domain.Event, error)
	Get(ctx context.Context, userID, role, eventID string) (*domain.Event, error)
	Update(ctx context.Context, userID, role, eventID string, req domain.UpdateEventRequest) (*domain.Event, error)
	Delete(ctx context.Context, userID, role, eventID string) error
	Members(ctx context.Context, userID, role, eventID string) ([]Member, error)
	AddMember(ctx context.Context, userID, role, eventID, email string) (*Member, error)
	RemoveMember(ctx context.Context, userID, role, eventID, memberID string) error
}

type eventStore interface {
	Put(ctx context.Context, e *domain.Event) error
	Get(ctx context.Context, eventID string) (*domain.Event, error)
	ListForUser(ctx context.Context, userID string) ([]domain.Event, error)
	Update(ctx context.Context, eventID string, updates map[string]interface{}) error
	SetMembers(ctx context.Context, eventID string, members []string) error
	Delete(ctx context.Context, eventID string) error
}

type userLookup interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

type notifier interface {
	Create(ctx context.Context, req domain.CreateNotificationRequest) (*domain.Notification, error)
}

type service struct {
	repo     eventStore
	users    userLookup
	notifier notifier
}

type ServiceDeps struct {
	EventRepo eventStore
	Users     userLookup
	// Notifier is optional; when set, added members receive a notification.
	Notifier notifier
}

func NewService(deps ServiceDeps) Service {
	return &service{repo: deps.EventRepo, users: deps.Users, notifier: deps.Notifier}
}

func (s *service) List(ctx context.Context, userID string) ([]domain.Event, error) {
	events, err := s.repo.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	sort.Slice(events, func(i, j int) bool { return events[i].CreatedAt.After(events[j].CreatedAt) })
	return events, nil
}

func (s *service) Create(ctx context.Context, userID string, req domain.CreateEventRequest) (*domain.Event, error) {
	status := req.Status
	if status == "" {
		status = domain.EventStatusPlanning
	}
	if !domain.ValidEventStatus(status) {
		return nil, fmt.Errorf("invalid event status %q: %w", status, domain.ErrBadRequest)
	}
	date, err := parseDate(req.EventDate)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	e := &domain.Event{
		EventID:     id.New(),
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Notes:       req.Notes,
		Status:      status,
		EventDate:   date,
		Budget:      req.Budget,
		CreatedBy:   userID,
		TeamMembers: dedupe(req.TeamMembers, userID),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Put(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

func (s *service) Get(ctx context.Context, userID, role, eventID string) (*domain.Event, error) {
	e, err := s.repo.Get(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if !e.CanView(userID, role) {
		return nil, fmt.Errorf("not a member of this event: %w", domain.ErrForbidden)
	}
	return e, nil
}

func (s *service) manageable(ctx context.Context, userID, role, eventID string) (*domain.Event, error) {
	e, err := s.repo.Get(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if !e.CanManage(userID, role) {
		return nil, fmt.Errorf("only the creator can manage this event: %w", domain.ErrForbidden)
	}
	return e, nil
}

func (s *service) Update(ctx context.Context, userID, role, eventID string, req domain.UpdateEventRequest) (*domain.Event, error) {
	if _, err := s.manageable(ctx, userID, role, eventID); err != nil {
		return nil, err
	}
	updates := map[string]interface{}{}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, fmt.Errorf("name required: %w", domain.ErrBadRequest)
		}
		updates[fieldName] = name
	}
	if req.Description != nil {
		updates[fieldDescription] = *req.Description
	}
	if req.Notes != nil {
		updates[fieldNotes] = *req.Notes
	}
	if req.Status != nil {
		if !domain.ValidEventStatus(*req.Status) {
			return nil, fmt.Errorf("invalid event status %q: %w", *req.Status, domain.ErrBadRequest)
		}
		updates[fieldStatus] = *req.Status
	}
	if req.EventDate != nil {
		date, err := parseDate(*req.EventDate)
		if err != nil {
			return nil, err
		}
		updates[fieldEventDate] = date
	}
	if req.Budget != nil {
		updates[fieldBudget] = *req.Budget
	}
	if req.BudgetUsed != nil {
		updates[fieldBudgetUsed] = *req.BudgetUsed
	}
	if len(updates) > 0 {
		if err := s.repo.Update(ctx, eventID, updates); err != nil {
			return nil, err
		}
	}
	return s.repo.Get(ctx, eventID)
}

func (s *service) Delete(ctx context.Context, userID, role, eventID string) error {
	if _, err := s.manageable(ctx, userID, role, eventID); err != nil {
		return err
	}
	return s.repo.Delete(ctx, eventID)
}

func (s *service) Members(ctx context.Context, userID, role, eventID string) ([]Member, error) {
	e, err := s.Get(ctx, userID, role, eventID)
	if err != nil {
		return nil, err
	}
	members := make([]Member, 0, len(e.TeamMembers))
	for _, memberID := range e.TeamMembers {
		u, err := s.users.Get(ctx, memberID)
		if errors.Is(err, domain.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		members = append(members, toMember(u, e))
	}
	return members, nil
}

func (s *service) AddMember(ctx context.Context, userID, role, eventID, email string) (*Member, error) {
	e, err := s.manageable(ctx, userID, role, eventID)
	if err != nil {
		return nil, err
	}
	u, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, err
	}
	if contains(e.TeamMembers, u.UserID) {
		return nil, fmt.Errorf("user is already a member: %w", domain.ErrConflict)
	}
	if err := s.repo.SetMembers(ctx, eventID, append(e.TeamMembers, u.UserID)); err != nil {
		return nil, err
	}
	if s.notifier != nil {
		_, err := s.notifier.Create(ctx, domain.CreateNotificationRequest{
			UserID:  u.UserID,
			Title:   "Added to event",
			Message: fmt.Sprintf("You were added to the team of %q.", e.Name),
			Type:    domain.NotificationInfo,
		})
		if err != nil {
			slog.Warn("member notification failed", "event_id", eventID, "user_id", u.UserID, "err", err)
		}
	}
	m := toMember(u, e)
	return &m, nil
}

func (s *service) RemoveMember(ctx context.Context, userID, role, eventID, memberID string) error {
	e, err := s.manageable(ctx, userID, role, eventID)
	if err != nil {
		return err
	}
	if memberID == e.CreatedBy {
		return fmt.Errorf("cannot remove the event creator: %w", domain.ErrBadRequest)
	}
	if !contains(e.TeamMembers, memberID) {
		return fmt.Errorf("user is not a member: %w", domain.ErrNotFound)
	}
	remaining := make([]string, 0, len(e.TeamMembers)-1)
	for _, m := range e.TeamMembers {
		if m != memberID {
			remaining = append(remaining, m)
		}
	}
	return s.repo.SetMembers(ctx, eventID, remaining)
}

func toMember(u *domain.User, e *domain.Event) Member {
	return Member{UserID: u.UserID, DisplayName: u.DisplayName, Email: u.Email, Owner: u.UserID == e.CreatedBy}
}

func parseDate(v string) (*time.Time, error) {
	if v == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, v)
	if err != nil {
		return nil, fmt.Errorf("event_date must be YYYY-MM-DD: %w", domain.ErrBadRequest)
	}
	return &t, nil
}

// dedupe returns members with owner first and duplicates or blanks removed.
func dedupe(members []string, owner string) []string {
	out := []string{owner}
	for _, m := range members {
		m = strings.TrimSpace(m)
		if m != "" && !contains(out, m) {
			out = append(out, m)
		}
	}
	return out
}

func contains(values []string, v string) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}
