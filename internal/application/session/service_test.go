package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/KenzoYff/evently-ux-platform-94/internal/application/idle"
	"github.com/KenzoYff/evently-ux-platform-94/internal/domain"
	"github.com/KenzoYff/evently-ux-platform-94/internal/pkg/clock"
	pkgtoken "github.com/KenzoYff/evently-ux-platform-94/internal/pkg/token"
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
func (m *mockUserStore) Get(ctx context.Context, userID string) (*domain.User, error) {
	args := m.Called(ctx, userID)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockSessionStore struct{ mock.Mock }

func (m *mockSessionStore) Put(ctx context.Context, s *domain.Session) error {
	return m.Called(ctx, s).Error(0)
}
func (m *mockSessionStore) Get(ctx context.Context, sessionID string) (*domain.Session, error) {
	args := m.Called(ctx, sessionID)
	if s, _ := args.Get(0).(*domain.Session); s != nil {
		return s, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockSessionStore) Disable(ctx context.Context, sessionID string) error {
	return m.Called(ctx, sessionID).Error(0)
}
func (m *mockSessionStore) GetByRefreshToken(ctx context.Context, token string) (*domain.Session, error) {
	args := m.Called(ctx, token)
	if s, _ := args.Get(0).(*domain.Session); s != nil {
		return s, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockSessionStore) RotateRefreshToken(ctx context.Context, sessionID, newToken string, newExpiry int64) error {
	return m.Called(ctx, sessionID, newToken, newExpiry).Error(0)
}

type mockSettings struct{ mock.Mock }

func (m *mockSettings) Get(ctx context.Context, userID string) (*domain.UserSettings, error) {
	args := m.Called(ctx, userID)
	if s, _ := args.Get(0).(*domain.UserSettings); s != nil {
		return s, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockJWTSigner struct{ mock.Mock }

func (m *mockJWTSigner) Sign(userID, role, sessionID string, twoFactorPending bool) (string, error) {
	args := m.Called(userID, role, sessionID, twoFactorPending)
	return args.String(0), args.Error(1)
}

type mockTimers struct{ mock.Mock }

func (m *mockTimers) Start(subjectID, sessionID string, timeout time.Duration) error {
	return m.Called(subjectID, sessionID, timeout).Error(0)
}
func (m *mockTimers) Touch(sessionID string) error {
	return m.Called(sessionID).Error(0)
}
func (m *mockTimers) Stop(sessionID string) {
	m.Called(sessionID)
}
func (m *mockTimers) Snapshot(sessionID string) (idle.State, bool) {
	args := m.Called(sessionID)
	return args.Get(0).(idle.State), args.Bool(1)
}

type fixture struct {
	users    *mockUserStore
	sessions *mockSessionStore
	settings *mockSettings
	signer   *mockJWTSigner
	timers   *mockTimers
	svc      Service
}

func newFixture() *fixture {
	f := &fixture{
		users:    &mockUserStore{},
		sessions: &mockSessionStore{},
		settings: &mockSettings{},
		signer:   &mockJWTSigner{},
		timers:   &mockTimers{},
	}
	f.svc = NewService(ServiceDeps{
		SessionRepo:     f.sessions,
		UserRepo:        f.users,
		Settings:        f.settings,
		JWTProvider:     f.signer,
		Timers:          f.timers,
		RefreshTokenDur: 30 * 24 * time.Hour,
	})
	return f
}

func hashed(t *testing.T, pw string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.MinCost)
	require.NoError(t, err)
	return string(h)
}

// --- Login ---

func TestLogin_StartsIdleTimer(t *testing.T) {
	f := newFixture()
	u := &domain.User{UserID: "u1", Email: "ana@example.com", Role: domain.RoleUser, Enable: 1, PasswordHash: hashed(t, "secret123")}
	f.users.On("GetByEmail", mock.Anything, "ana@example.com").Return(u, nil)
	f.settings.On("Get", mock.Anything, "u1").Return(&domain.UserSettings{UserID: "u1", SessionTimeoutMinutes: 15}, nil)

	var stored *domain.Session
	f.sessions.On("Put", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		stored = args.Get(1).(*domain.Session)
	}).Return(nil)
	f.signer.On("Sign", "u1", domain.RoleUser, mock.Anything, false).Return("bearer", nil)
	f.timers.On("Start", "u1", mock.Anything, 15*time.Minute).Return(nil)

	res, err := f.svc.Login(context.Background(), LoginRequest{Email: "ana@example.com", Password: "secret123"})
	require.NoError(t, err)
	assert.Equal(t, "bearer", res.Bearer)
	assert.False(t, res.Session.TwoFactorPending)
	require.NotNil(t, stored)
	// Only the digest is persisted.
	assert.Equal(t, pkgtoken.Hash(res.RefreshToken), stored.RefreshToken)
	assert.NotEqual(t, res.RefreshToken, stored.RefreshToken)
	f.timers.AssertExpectations(t)
}

func TestLogin_TwoFactorPendingDefersTimer(t *testing.T) {
	f := newFixture()
	u := &domain.User{UserID: "u1", Role: domain.RoleUser, Enable: 1, PasswordHash: hashed(t, "secret123")}
	f.users.On("GetByEmail", mock.Anything, "ana@example.com").Return(u, nil)
	f.settings.On("Get", mock.Anything, "u1").Return(&domain.UserSettings{TwoFactorEnabled: true, SessionTimeoutMinutes: 30}, nil)
	f.sessions.On("Put", mock.Anything, mock.MatchedBy(func(s *domain.Session) bool { return s.TwoFactorPending })).Return(nil)
	f.signer.On("Sign", "u1", domain.RoleUser, mock.Anything, true).Return("pending-bearer", nil)

	res, err := f.svc.Login(context.Background(), LoginRequest{Email: "ana@example.com", Password: "secret123"})
	require.NoError(t, err)
	assert.True(t, res.Session.TwoFactorPending)
	f.timers.AssertNotCalled(t, "Start", mock.Anything, mock.Anything, mock.Anything)
}

func TestLogin_WrongPassword(t *testing.T) {
	f := newFixture()
	f.users.On("GetByEmail", mock.Anything, "ana@example.com").Return(&domain.User{UserID: "u1", Enable: 1, PasswordHash: hashed(t, "secret123")}, nil)

	_, err := f.svc.Login(context.Background(), LoginRequest{Email: "ana@example.com", Password: "nope"})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	f.sessions.AssertNotCalled(t, "Put", mock.Anything, mock.Anything)
}

func TestLogin_UnknownEmail(t *testing.T) {
	f := newFixture()
	f.users.On("GetByEmail", mock.Anything, "x@example.com").Return(nil, domain.ErrNotFound)

	_, err := f.svc.Login(context.Background(), LoginRequest{Email: "x@example.com", Password: "whatever1"})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestLogin_DisabledAccount(t *testing.T) {
	f := newFixture()
	f.users.On("GetByEmail", mock.Anything, "ana@example.com").Return(&domain.User{UserID: "u1", Enable: 0, PasswordHash: hashed(t, "secret123")}, nil)

	_, err := f.svc.Login(context.Background(), LoginRequest{Email: "ana@example.com", Password: "secret123"})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

// --- Logout ---

func TestLogout_StopsTimerAndDisables(t *testing.T) {
	f := newFixture()
	f.timers.On("Stop", "s1").Return()
	f.sessions.On("Disable", mock.Anything, "s1").Return(nil)

	require.NoError(t, f.svc.Logout(context.Background(), "s1"))
	f.timers.AssertExpectations(t)
	f.sessions.AssertExpectations(t)
}

// --- GetCurrent ---

func TestGetCurrent_Disabled(t *testing.T) {
	f := newFixture()
	f.sessions.On("Get", mock.Anything, "s1").Return(&domain.Session{SessionID: "s1", Enable: false}, nil)

	_, err := f.svc.GetCurrent(context.Background(), "s1")
	assert.ErrorIs(t, err, domain.ErrSessionExpired)
}

// --- Refresh ---

func TestRefresh_RotatesHashedToken(t *testing.T) {
	f := newFixture()
	sess := &domain.Session{SessionID: "s1", UserID: "u1", Enable: true, RefreshExpiresAt: time.Now().Add(time.Hour).Unix()}
	f.sessions.On("GetByRefreshToken", mock.Anything, pkgtoken.Hash("old")).Return(sess, nil)
	f.sessions.On("RotateRefreshToken", mock.Anything, "s1", mock.AnythingOfType("string"), mock.AnythingOfType("int64")).Return(nil)
	f.users.On("Get", mock.Anything, "u1").Return(&domain.User{UserID: "u1", Role: domain.RoleAdmin}, nil)
	f.signer.On("Sign", "u1", domain.RoleAdmin, "s1", false).Return("bearer2", nil)

	bearer, newTok, err := f.svc.Refresh(context.Background(), "old")
	require.NoError(t, err)
	assert.Equal(t, "bearer2", bearer)
	assert.Len(t, newTok, 64)

	rotated := f.sessions.Calls[1].Arguments.String(2)
	assert.Equal(t, pkgtoken.Hash(newTok), rotated)
}

func TestRefresh_Expired(t *testing.T) {
	f := newFixture()
	sess := &domain.Session{SessionID: "s1", Enable: true, RefreshExpiresAt: time.Now().Add(-time.Hour).Unix()}
	f.sessions.On("GetByRefreshToken", mock.Anything, mock.Anything).Return(sess, nil)

	_, _, err := f.svc.Refresh(context.Background(), "old")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestRefresh_UnknownToken(t *testing.T) {
	f := newFixture()
	f.sessions.On("GetByRefreshToken", mock.Anything, mock.Anything).Return(nil, domain.ErrNotFound)

	_, _, err := f.svc.Refresh(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestRefresh_DisabledSession(t *testing.T) {
	f := newFixture()
	sess := &domain.Session{SessionID: "s1", Enable: false, RefreshExpiresAt: time.Now().Add(time.Hour).Unix()}
	f.sessions.On("GetByRefreshToken", mock.Anything, mock.Anything).Return(sess, nil)

	_, _, err := f.svc.Refresh(context.Background(), "old")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

// --- RecordActivity ---

func TestRecordActivity_TouchesTimer(t *testing.T) {
	f := newFixture()
	f.timers.On("Touch", "s1").Return(nil)
	f.timers.On("Snapshot", "s1").Return(idle.State{SessionID: "s1", Status: idle.StatusActive}, true)

	st, err := f.svc.RecordActivity(context.Background(), "u1", "s1", "keypress")
	require.NoError(t, err)
	assert.Equal(t, idle.StatusActive, st.Status)
}

func TestRecordActivity_UntrackedSignal(t *testing.T) {
	f := newFixture()
	_, err := f.svc.RecordActivity(context.Background(), "u1", "s1", "focus")
	assert.ErrorIs(t, err, domain.ErrBadRequest)
	f.timers.AssertNotCalled(t, "Touch", mock.Anything)
}

func TestRecordActivity_ExpiredSession(t *testing.T) {
	f := newFixture()
	f.timers.On("Touch", "s1").Return(domain.ErrSessionExpired)

	_, err := f.svc.RecordActivity(context.Background(), "u1", "s1", "click")
	assert.ErrorIs(t, err, domain.ErrSessionExpired)
}

func TestRecordActivity_StartsMissingTimer(t *testing.T) {
	f := newFixture()
	f.timers.On("Touch", "s1").Return(domain.ErrNotFound)
	f.timers.On("Snapshot", "s1").Return(idle.State{}, false).Once()
	f.sessions.On("Get", mock.Anything, "s1").Return(&domain.Session{SessionID: "s1", Enable: true}, nil)
	f.settings.On("Get", mock.Anything, "u1").Return(&domain.UserSettings{SessionTimeoutMinutes: 10}, nil)
	f.timers.On("Start", "u1", "s1", 10*time.Minute).Return(nil)
	f.timers.On("Snapshot", "s1").Return(idle.State{SessionID: "s1", Status: idle.StatusActive}, true).Once()

	st, err := f.svc.RecordActivity(context.Background(), "u1", "s1", "scroll")
	require.NoError(t, err)
	assert.Equal(t, "s1", st.SessionID)
	f.timers.AssertExpectations(t)
}

func TestRecordActivity_MissingTimerOnEndedSession(t *testing.T) {
	f := newFixture()
	f.timers.On("Touch", "s1").Return(domain.ErrNotFound)
	f.timers.On("Snapshot", "s1").Return(idle.State{}, false)
	f.sessions.On("Get", mock.Anything, "s1").Return(&domain.Session{SessionID: "s1", Enable: false}, nil)

	_, err := f.svc.RecordActivity(context.Background(), "u1", "s1", "scroll")
	assert.ErrorIs(t, err, domain.ErrSessionExpired)
	f.timers.AssertNotCalled(t, "Start", mock.Anything, mock.Anything, mock.Anything)
}

// --- CheckActive ---

func TestCheckActive_ExpiredTimer(t *testing.T) {
	f := newFixture()
	f.timers.On("Snapshot", "s1").Return(idle.State{Status: idle.StatusExpired}, true)

	assert.ErrorIs(t, f.svc.CheckActive(context.Background(), "s1"), domain.ErrSessionExpired)
	f.sessions.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
}

func TestCheckActive_LiveSession(t *testing.T) {
	f := newFixture()
	f.timers.On("Snapshot", "s1").Return(idle.State{Status: idle.StatusWarningIssued}, true)
	f.sessions.On("Get", mock.Anything, "s1").Return(&domain.Session{SessionID: "s1", Enable: true}, nil)

	assert.NoError(t, f.svc.CheckActive(context.Background(), "s1"))
}

func TestCheckActive_PendingSecondFactorWindow(t *testing.T) {
	created := time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)
	clk := clock.Fake(created)
	sessions := &mockSessionStore{}
	timers := &mockTimers{}
	svc := NewService(ServiceDeps{SessionRepo: sessions, Timers: timers, Clock: clk})
	timers.On("Snapshot", "s1").Return(idle.State{}, false)
	sessions.On("Get", mock.Anything, "s1").
		Return(&domain.Session{SessionID: "s1", Enable: true, TwoFactorPending: true, CreatedAt: created}, nil)

	clk.Advance(domain.TwoFactorPendingTTL)
	assert.NoError(t, svc.CheckActive(context.Background(), "s1"))

	clk.Advance(time.Second)
	assert.ErrorIs(t, svc.CheckActive(context.Background(), "s1"), domain.ErrSessionExpired)
}

func TestCheckActive_StoreError(t *testing.T) {
	f := newFixture()
	f.timers.On("Snapshot", "s1").Return(idle.State{}, false)
	f.sessions.On("Get", mock.Anything, "s1").Return(nil, errors.New("down"))

	err := f.svc.CheckActive(context.Background(), "s1")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrSessionExpired)
}
