package user

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/KenzoYff/evently-ux-platform-94/internal/application/idle"
	"github.com/KenzoYff/evently-ux-platform-94/internal/application/session"
	"github.com/KenzoYff/evently-ux-platform-94/internal/domain"
	"github.com/KenzoYff/evently-ux-platform-94/internal/pkg/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// --- mocks ---

type mockUserStore struct{ mock.Mock }

func (m *mockUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockUserStore) Put(ctx context.Context, u *domain.User) error {
	return m.Called(ctx, u).Error(0)
}
func (m *mockUserStore) QueryPage(ctx context.Context, limit int32, cursor string) ([]domain.User, string, error) {
	args := m.Called(ctx, limit, cursor)
	return args.Get(0).([]domain.User), args.String(1), args.Error(2)
}
func (m *mockUserStore) Get(ctx context.Context, userID string) (*domain.User, error) {
	args := m.Called(ctx, userID)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockUserStore) Update(ctx context.Context, userID string, updates map[string]interface{}) error {
	return m.Called(ctx, userID, updates).Error(0)
}
func (m *mockUserStore) SoftDelete(ctx context.Context, userID string) error {
	return m.Called(ctx, userID).Error(0)
}

type mockSessionStore struct{ mock.Mock }

func (m *mockSessionStore) SoftDeleteByUser(ctx context.Context, userID string) error {
	return m.Called(ctx, userID).Error(0)
}

type mockLoginer struct{ mock.Mock }

func (m *mockLoginer) Login(ctx context.Context, req session.LoginRequest) (*session.LoginResult, error) {
	args := m.Called(ctx, req)
	if r, _ := args.Get(0).(*session.LoginResult); r != nil {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockObjects struct{ mock.Mock }

func (m *mockObjects) Upload(ctx context.Context, key string, r io.Reader, contentType string) (string, error) {
	args := m.Called(ctx, key, r, contentType)
	return args.String(0), args.Error(1)
}
func (m *mockObjects) PresignedURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	args := m.Called(ctx, key, ttl)
	return args.String(0), args.Error(1)
}
func (m *mockObjects) Delete(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

type fixture struct {
	users    *mockUserStore
	sessions *mockSessionStore
	login    *mockLoginer
	objects  *mockObjects
	svc      Service
}

func newFixture() *fixture {
	f := &fixture{
		users:    &mockUserStore{},
		sessions: &mockSessionStore{},
		login:    &mockLoginer{},
		objects:  &mockObjects{},
	}
	f.svc = NewService(ServiceDeps{
		UserRepo:      f.users,
		SessionRepo:   f.sessions,
		Sessions:      f.login,
		Objects:       f.objects,
		MaxAvatarSize: 1024,
	})
	return f
}

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

// --- Register ---

func TestRegister_Success(t *testing.T) {
	f := newFixture()
	f.users.On("GetByEmail", mock.Anything, "ana@example.com").Return(nil, domain.ErrNotFound)
	f.users.On("Put", mock.Anything, mock.AnythingOfType("*domain.User")).Return(nil)

	u, err := f.svc.Register(context.Background(), domain.CreateUserRequest{
		DisplayName: " Ana ",
		Email:       "Ana@Example.com",
		Password:    "secret123",
	})

	require.NoError(t, err)
	assert.NotEmpty(t, u.UserID)
	assert.Equal(t, "Ana", u.DisplayName)
	assert.Equal(t, "ana@example.com", u.Email)
	assert.Equal(t, domain.RoleUser, u.Role)
	assert.Equal(t, 1, u.Enable)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("secret123")))
}

func TestRegister_EmailTaken(t *testing.T) {
	f := newFixture()
	f.users.On("GetByEmail", mock.Anything, "ana@example.com").Return(&domain.User{UserID: "u1"}, nil)

	_, err := f.svc.Register(context.Background(), domain.CreateUserRequest{
		DisplayName: "Ana", Email: "ana@example.com", Password: "secret123",
	})

	assert.ErrorIs(t, err, domain.ErrConflict)
	f.users.AssertNotCalled(t, "Put", mock.Anything, mock.Anything)
}

func TestRegister_LookupFailurePropagates(t *testing.T) {
	f := newFixture()
	dbErr := errors.New("dynamo down")
	f.users.On("GetByEmail", mock.Anything, "ana@example.com").Return(nil, dbErr)

	_, err := f.svc.Register(context.Background(), domain.CreateUserRequest{
		DisplayName: "Ana", Email: "ana@example.com", Password: "secret123",
	})

	assert.ErrorIs(t, err, dbErr)
}

func TestRegisterWithSession_LogsIn(t *testing.T) {
	f := newFixture()
	f.users.On("GetByEmail", mock.Anything, "ana@example.com").Return(nil, domain.ErrNotFound)
	f.users.On("Put", mock.Anything, mock.Anything).Return(nil)
	want := &session.LoginResult{Bearer: "tok"}
	f.login.On("Login", mock.Anything, session.LoginRequest{Email: "ana@example.com", Password: "secret123"}).Return(want, nil)

	got, err := f.svc.RegisterWithSession(context.Background(), domain.CreateUserRequest{
		DisplayName: "Ana", Email: "ana@example.com", Password: "secret123",
	})

	require.NoError(t, err)
	assert.Equal(t, want, got)
}

// --- List ---

func TestList_ClampsLimit(t *testing.T) {
	f := newFixture()
	f.users.On("QueryPage", mock.Anything, int32(50), "").Return([]domain.User{{UserID: "u1"}}, "next", nil)

	users, cursor, err := f.svc.List(context.Background(), 1000, "")

	require.NoError(t, err)
	assert.Len(t, users, 1)
	assert.Equal(t, "next", cursor)
}

// --- Update ---

func TestUpdate_SelfProfile(t *testing.T) {
	f := newFixture()
	f.users.On("Update", mock.Anything, "u1", map[string]interface{}{
		fieldDisplayName: "Ana B",
		fieldPosition:    "Lead",
	}).Return(nil)
	f.users.On("Get", mock.Anything, "u1").Return(&domain.User{UserID: "u1", DisplayName: "Ana B"}, nil)

	u, err := f.svc.Update(context.Background(), Actor{UserID: "u1", Role: domain.RoleUser}, "u1",
		domain.UpdateUserRequest{DisplayName: strPtr("Ana B"), Position: strPtr("Lead")})

	require.NoError(t, err)
	assert.Equal(t, "Ana B", u.DisplayName)
}

func TestUpdate_OtherUserForbidden(t *testing.T) {
	f := newFixture()

	_, err := f.svc.Update(context.Background(), Actor{UserID: "u1", Role: domain.RoleUser}, "u2",
		domain.UpdateUserRequest{DisplayName: strPtr("x")})

	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestUpdate_NonAdminCannotChangeRole(t *testing.T) {
	f := newFixture()

	_, err := f.svc.Update(context.Background(), Actor{UserID: "u1", Role: domain.RoleUser}, "u1",
		domain.UpdateUserRequest{Role: strPtr(domain.RoleAdmin)})

	assert.ErrorIs(t, err, domain.ErrForbidden)
	f.users.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdate_AdminChangesRoleAndStatus(t *testing.T) {
	f := newFixture()
	f.users.On("Update", mock.Anything, "u2", map[string]interface{}{
		fieldRole:   domain.RoleAdmin,
		fieldEnable: 0,
	}).Return(nil)
	f.users.On("Get", mock.Anything, "u2").Return(&domain.User{UserID: "u2", Role: domain.RoleAdmin}, nil)

	_, err := f.svc.Update(context.Background(), Actor{UserID: "admin", Role: domain.RoleAdmin}, "u2",
		domain.UpdateUserRequest{Role: strPtr(domain.RoleAdmin), Enable: intPtr(0)})

	require.NoError(t, err)
	f.users.AssertExpectations(t)
}

func TestUpdate_InvalidRole(t *testing.T) {
	f := newFixture()

	_, err := f.svc.Update(context.Background(), Actor{UserID: "admin", Role: domain.RoleAdmin}, "u2",
		domain.UpdateUserRequest{Role: strPtr("superuser")})

	assert.ErrorIs(t, err, domain.ErrBadRequest)
}

func TestUpdate_EmailTakenByOther(t *testing.T) {
	f := newFixture()
	f.users.On("GetByEmail", mock.Anything, "bob@example.com").Return(&domain.User{UserID: "u2"}, nil)

	_, err := f.svc.Update(context.Background(), Actor{UserID: "u1", Role: domain.RoleUser}, "u1",
		domain.UpdateUserRequest{Email: strPtr("bob@example.com")})

	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestUpdate_EmptyRequestReturnsCurrent(t *testing.T) {
	f := newFixture()
	f.users.On("Get", mock.Anything, "u1").Return(&domain.User{UserID: "u1"}, nil)

	u, err := f.svc.Update(context.Background(), Actor{UserID: "u1"}, "u1", domain.UpdateUserRequest{})

	require.NoError(t, err)
	assert.Equal(t, "u1", u.UserID)
	f.users.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
}

// --- Delete ---

func TestDelete_RevokesSessions(t *testing.T) {
	f := newFixture()
	f.users.On("SoftDelete", mock.Anything, "u1").Return(nil)
	f.sessions.On("SoftDeleteByUser", mock.Anything, "u1").Return(nil)

	require.NoError(t, f.svc.Delete(context.Background(), "u1"))
	f.sessions.AssertExpectations(t)
}

type expiryCounter struct{ expired int }

func (c *expiryCounter) Warning(context.Context, string, string, time.Duration) {}
func (c *expiryCounter) Expired(context.Context, string, string)                { c.expired++ }

func TestDelete_StopsIdleTimers(t *testing.T) {
	clk := clock.Fake(time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC))
	events := &expiryCounter{}
	reg := idle.NewRegistry(clk, events, nil)
	require.NoError(t, reg.Start("u1", "s1", 5*time.Minute))

	f := newFixture()
	f.svc = NewService(ServiceDeps{UserRepo: f.users, SessionRepo: f.sessions, Timers: reg})
	f.users.On("SoftDelete", mock.Anything, "u1").Return(nil)
	f.sessions.On("SoftDeleteByUser", mock.Anything, "u1").Return(nil)

	require.NoError(t, f.svc.Delete(context.Background(), "u1"))
	clk.Advance(6 * time.Minute)

	assert.Zero(t, events.expired)
	assert.Zero(t, reg.Len())
}

func TestDelete_NotFound(t *testing.T) {
	f := newFixture()
	f.users.On("SoftDelete", mock.Anything, "ghost").Return(domain.ErrNotFound)

	err := f.svc.Delete(context.Background(), "ghost")

	assert.ErrorIs(t, err, domain.ErrNotFound)
	f.sessions.AssertNotCalled(t, "SoftDeleteByUser", mock.Anything, mock.Anything)
}

// --- ChangePassword ---

func TestChangePassword(t *testing.T) {
	hash, _ := bcrypt.GenerateFromPassword([]byte("oldpass12"), bcrypt.MinCost)

	t.Run("wrong current password", func(t *testing.T) {
		f := newFixture()
		f.users.On("Get", mock.Anything, "u1").Return(&domain.User{UserID: "u1", PasswordHash: string(hash)}, nil)

		err := f.svc.ChangePassword(context.Background(), "u1", "nope", "newpass12")
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
	})

	t.Run("stores new hash", func(t *testing.T) {
		f := newFixture()
		f.users.On("Get", mock.Anything, "u1").Return(&domain.User{UserID: "u1", PasswordHash: string(hash)}, nil)
		f.users.On("Update", mock.Anything, "u1", mock.MatchedBy(func(m map[string]interface{}) bool {
			h, ok := m[fieldPasswordHash].(string)
			return ok && bcrypt.CompareHashAndPassword([]byte(h), []byte("newpass12")) == nil
		})).Return(nil)

		require.NoError(t, f.svc.ChangePassword(context.Background(), "u1", "oldpass12", "newpass12"))
		f.users.AssertExpectations(t)
	})
}

// --- Avatar ---

func TestUploadAvatar_ReplacesPrevious(t *testing.T) {
	f := newFixture()
	f.users.On("Get", mock.Anything, "u1").Return(&domain.User{UserID: "u1", PhotoKey: "users/u1/avatar/old.png"}, nil)
	f.objects.On("Upload", mock.Anything, mock.MatchedBy(func(k string) bool {
		return strings.HasPrefix(k, "users/u1/avatar/") && strings.HasSuffix(k, "_me.png")
	}), mock.Anything, "image/png").Return("s3://bucket/key", nil)
	f.users.On("Update", mock.Anything, "u1", mock.AnythingOfType("map[string]interface {}")).Return(nil)
	f.objects.On("Delete", mock.Anything, "users/u1/avatar/old.png").Return(nil)
	f.objects.On("PresignedURL", mock.Anything, mock.Anything, avatarURLTTL).Return("https://signed", nil)

	u, url, err := f.svc.UploadAvatar(context.Background(), Actor{UserID: "u1"}, "u1", AvatarInput{
		Reader: bytes.NewReader([]byte("png")), Filename: "me.png", Size: 3,
	})

	require.NoError(t, err)
	assert.Equal(t, "https://signed", url)
	assert.True(t, strings.HasPrefix(u.PhotoKey, "users/u1/avatar/"))
	f.objects.AssertExpectations(t)
}

func TestUploadAvatar_Rejections(t *testing.T) {
	tests := []struct {
		name  string
		actor Actor
		in    AvatarInput
		want  error
	}{
		{"other user", Actor{UserID: "u2"}, AvatarInput{Filename: "me.png", Size: 3}, domain.ErrForbidden},
		{"too large", Actor{UserID: "u1"}, AvatarInput{Filename: "me.png", Size: 4096}, domain.ErrBadRequest},
		{"not an image", Actor{UserID: "u1"}, AvatarInput{Filename: "notes.pdf", Size: 3}, domain.ErrBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			_, _, err := f.svc.UploadAvatar(context.Background(), tt.actor, "u1", tt.in)
			assert.ErrorIs(t, err, tt.want)
			f.objects.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestAvatarURL_NoPhoto(t *testing.T) {
	f := newFixture()
	f.users.On("Get", mock.Anything, "u1").Return(&domain.User{UserID: "u1"}, nil)

	_, err := f.svc.AvatarURL(context.Background(), "u1")

	assert.ErrorIs(t, err, domain.ErrNotFound)
}
