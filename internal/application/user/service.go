package user

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/KenzoYff/evently-ux-platform-94/internal/application/session"
	"github.com/KenzoYff/evently-ux-platform-94/internal/domain"
	s3infra "github.com/KenzoYff/evently-ux-platform-94/internal/infrastructure/s3"
	"github.com/KenzoYff/evently-ux-platform-94/internal/pkg/id"
	"golang.org/x/crypto/bcrypt"
)

// DynamoDB attribute names used in partial update maps.
const (
	fieldDisplayName  = "display_name"
	fieldEmail        = "email"
	fieldPhone        = "phone"
	fieldDepartment   = "department"
	fieldPosition     = "position"
	fieldRole         = "role"
	fieldEnable       = "enable"
	fieldPasswordHash = "password_hash"
	fieldPhotoKey     = "photo_key"
)

const avatarURLTTL = 15 * time.Minute

// Actor is the authenticated caller of a user operation.
type Actor struct {
	UserID string
	Role   string
}

func (a Actor) IsAdmin() bool { return a.Role == domain.RoleAdmin }

type AvatarInput struct {
	Reader      io.Reader
	Filename    string
	ContentType string
	Size        int64
}

type Service interface {
	Register(ctx context.Context, req domain.CreateUserRequest) (*domain.User, error)
	RegisterWithSession(ctx context.Context, req domain.CreateUserRequest) (*session.LoginResult, error)
	List(ctx context.Context, limit int, cursor string) ([]domain.User, string, error)
	Get(ctx context.Context, userID string) (*domain.User, error)
	Update(ctx context.Context, actor Actor, userID string, req domain.UpdateUserRequest) (*domain.User, error)
	Delete(ctx context.Context, userID string) error
	ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error
	UploadAvatar(ctx context.Context, actor Actor, userID string, in AvatarInput) (*domain.User, string, error)
	AvatarURL(ctx context.Context, userID string) (string, error)
}

type userStore interface {
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Put(ctx context.Context, u *domain.User) error
	QueryPage(ctx context.Context, limit int32, cursor string) ([]domain.User, string, error)
	Get(ctx context.Context, userID string) (*domain.User, error)
	Update(ctx context.Context, userID string, updates map[string]interface{}) error
	SoftDelete(ctx context.Context, userID string) error
}

type sessionStore interface {
	SoftDeleteByUser(ctx context.Context, userID string) error
}

type loginer interface {
	Login(ctx context.Context, req session.LoginRequest) (*session.LoginResult, error)
}

type subjectTimers interface {
	StopSubject(subjectID string) int
}

type objectStore interface {
	Upload(ctx context.Context, key string, r io.Reader, contentType string) (string, error)
	PresignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
	Delete(ctx context.Context, key string) error
}

type service struct {
	repo          userStore
	sessionRepo   sessionStore
	sessions      loginer
	objects       objectStore
	timers        subjectTimers
	maxAvatarSize int64
}

type ServiceDeps struct {
	UserRepo      userStore
	SessionRepo   sessionStore
	Sessions      loginer
	Objects       objectStore
	// Timers is optional; when set, a deleted user's idle timers are stopped.
	Timers        subjectTimers
	MaxAvatarSize int64
}

func NewService(deps ServiceDeps) Service {
	return &service{
		repo:          deps.UserRepo,
		sessionRepo:   deps.SessionRepo,
		sessions:      deps.Sessions,
		objects:       deps.Objects,
		timers:        deps.Timers,
		maxAvatarSize: deps.MaxAvatarSize,
	}
}

func (s *service) Register(ctx context.Context, req domain.CreateUserRequest) (*domain.User, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if err := s.emailAvailable(ctx, email, ""); err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	u := &domain.User{
		UserID:       id.New(),
		DisplayName:  strings.TrimSpace(req.DisplayName),
		Email:        email,
		PasswordHash: string(hash),
		Role:         domain.RoleUser,
		Department:   req.Department,
		Position:     req.Position,
		Enable:       1,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Put(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *service) RegisterWithSession(ctx context.Context, req domain.CreateUserRequest) (*session.LoginResult, error) {
	u, err := s.Register(ctx, req)
	if err != nil {
		return nil, err
	}
	return s.sessions.Login(ctx, session.LoginRequest{Email: u.Email, Password: req.Password})
}

func (s *service) emailAvailable(ctx context.Context, email, exceptUserID string) error {
	existing, err := s.repo.GetByEmail(ctx, email)
	if err == nil && existing.UserID != exceptUserID {
		return fmt.Errorf("email already registered: %w", domain.ErrConflict)
	}
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return err
	}
	return nil
}

func (s *service) List(ctx context.Context, limit int, cursor string) ([]domain.User, string, error) {
	if limit < 1 || limit > 100 {
		limit = 50
	}
	return s.repo.QueryPage(ctx, int32(limit), cursor)
}

func (s *service) Get(ctx context.Context, userID string) (*domain.User, error) {
	return s.repo.Get(ctx, userID)
}

func (s *service) Update(ctx context.Context, actor Actor, userID string, req domain.UpdateUserRequest) (*domain.User, error) {
	if actor.UserID != userID && !actor.IsAdmin() {
		return nil, fmt.Errorf("cannot edit another user: %w", domain.ErrForbidden)
	}
	updates := map[string]interface{}{}
	if req.DisplayName != nil {
		name := strings.TrimSpace(*req.DisplayName)
		if name == "" {
			return nil, fmt.Errorf("display name required: %w", domain.ErrBadRequest)
		}
		updates[fieldDisplayName] = name
	}
	if req.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*req.Email))
		if err := s.emailAvailable(ctx, email, userID); err != nil {
			return nil, err
		}
		updates[fieldEmail] = email
	}
	if req.Phone != nil {
		updates[fieldPhone] = strings.TrimSpace(*req.Phone)
	}
	if req.Department != nil {
		updates[fieldDepartment] = *req.Department
	}
	if req.Position != nil {
		updates[fieldPosition] = *req.Position
	}
	if req.Role != nil || req.Enable != nil {
		if !actor.IsAdmin() {
			return nil, fmt.Errorf("only admins can change role or status: %w", domain.ErrForbidden)
		}
		if req.Role != nil {
			if !domain.ValidRole(*req.Role) {
				return nil, fmt.Errorf("invalid role: %w", domain.ErrBadRequest)
			}
			updates[fieldRole] = *req.Role
		}
		if req.Enable != nil {
			if *req.Enable != 0 && *req.Enable != 1 {
				return nil, fmt.Errorf("enable must be 0 or 1: %w", domain.ErrBadRequest)
			}
			updates[fieldEnable] = *req.Enable
		}
	}
	if len(updates) == 0 {
		return s.repo.Get(ctx, userID)
	}
	if err := s.repo.Update(ctx, userID, updates); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, userID)
}

func (s *service) Delete(ctx context.Context, userID string) error {
	if err := s.repo.SoftDelete(ctx, userID); err != nil {
		return err
	}
	if err := s.sessionRepo.SoftDeleteByUser(ctx, userID); err != nil {
		return err
	}
	if s.timers != nil {
		s.timers.StopSubject(userID)
	}
	return nil
}

func (s *service) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	u, err := s.repo.Get(ctx, userID)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(currentPassword)); err != nil {
		return fmt.Errorf("current password is incorrect: %w", domain.ErrUnauthorized)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.repo.Update(ctx, userID, map[string]interface{}{fieldPasswordHash: string(hash)})
}

func (s *service) UploadAvatar(ctx context.Context, actor Actor, userID string, in AvatarInput) (*domain.User, string, error) {
	if actor.UserID != userID && !actor.IsAdmin() {
		return nil, "", fmt.Errorf("cannot edit another user: %w", domain.ErrForbidden)
	}
	if s.maxAvatarSize > 0 && in.Size > s.maxAvatarSize {
		return nil, "", fmt.Errorf("avatar exceeds %d bytes: %w", s.maxAvatarSize, domain.ErrBadRequest)
	}
	contentType := in.ContentType
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = s3infra.DetectContentType(in.Filename)
	}
	if !strings.HasPrefix(contentType, "image/") {
		return nil, "", fmt.Errorf("avatar must be an image: %w", domain.ErrBadRequest)
	}
	u, err := s.repo.Get(ctx, userID)
	if err != nil {
		return nil, "", err
	}

	key := s3infra.ObjectKey(fmt.Sprintf("users/%s/avatar", userID), in.Filename, time.Now())
	if _, err := s.objects.Upload(ctx, key, in.Reader, contentType); err != nil {
		return nil, "", err
	}
	if err := s.repo.Update(ctx, userID, map[string]interface{}{fieldPhotoKey: key}); err != nil {
		return nil, "", err
	}
	if u.PhotoKey != "" {
		if err := s.objects.Delete(ctx, u.PhotoKey); err != nil {
			slog.Warn("could not delete previous avatar", "user_id", userID, "key", u.PhotoKey, "err", err)
		}
	}
	u.PhotoKey = key
	url, err := s.objects.PresignedURL(ctx, key, avatarURLTTL)
	if err != nil {
		return nil, "", err
	}
	return u, url, nil
}

func (s *service) AvatarURL(ctx context.Context, userID string) (string, error) {
	u, err := s.repo.Get(ctx, userID)
	if err != nil {
		return "", err
	}
	if u.PhotoKey == "" {
		return "", fmt.Errorf("no avatar: %w", domain.ErrNotFound)
	}
	return s.objects.PresignedURL(ctx, u.PhotoKey, avatarURLTTL)
}
