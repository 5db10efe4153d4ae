package notification

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/KenzoYff/evently-ux-platform-94/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockNotificationStore struct{ mock.Mock }

func (m *mockNotificationStore) Put(ctx context.Context, n *domain.Notification) error {
	return m.Called(ctx, n).Error(0)
}
func (m *mockNotificationStore) Get(ctx context.Context, notificationID string) (*domain.Notification, error) {
	args := m.Called(ctx, notificationID)
	if n, _ := args.Get(0).(*domain.Notification); n != nil {
		return n, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockNotificationStore) ListByUser(ctx context.Context, userID string, unreadOnly bool) ([]domain.Notification, error) {
	args := m.Called(ctx, userID, unreadOnly)
	ns, _ := args.Get(0).([]domain.Notification)
	return ns, args.Error(1)
}
func (m *mockNotificationStore) MarkAsRead(ctx context.Context, notificationID string) error {
	return m.Called(ctx, notificationID).Error(0)
}
func (m *mockNotificationStore) MarkAllAsRead(ctx context.Context, userID string) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

type mockSettings struct{ mock.Mock }

func (m *mockSettings) Get(ctx context.Context, userID string) (*domain.UserSettings, error) {
	args := m.Called(ctx, userID)
	if s, _ := args.Get(0).(*domain.UserSettings); s != nil {
		return s, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockPusher struct{ mock.Mock }

func (m *mockPusher) Push(ctx context.Context, userID, title, body string) (int, error) {
	args := m.Called(ctx, userID, title, body)
	return args.Int(0), args.Error(1)
}

// --- MarkAsRead ---

func TestMarkAsRead_OtherUser(t *testing.T) {
	st := &mockNotificationStore{}
	st.On("Get", mock.Anything, "n1").Return(&domain.Notification{NotificationID: "n1", UserID: "u2"}, nil)

	_, err := NewService(ServiceDeps{NotificationRepo: st}).MarkAsRead(context.Background(), "n1", "u1")
	assert.ErrorIs(t, err, domain.ErrForbidden)
	st.AssertNotCalled(t, "MarkAsRead", mock.Anything, mock.Anything)
}

func TestMarkAsRead_Own(t *testing.T) {
	st := &mockNotificationStore{}
	st.On("Get", mock.Anything, "n1").Return(&domain.Notification{NotificationID: "n1", UserID: "u1"}, nil).Once()
	st.On("MarkAsRead", mock.Anything, "n1").Return(nil)
	st.On("Get", mock.Anything, "n1").Return(&domain.Notification{NotificationID: "n1", UserID: "u1", Read: true}, nil).Once()

	n, err := NewService(ServiceDeps{NotificationRepo: st}).MarkAsRead(context.Background(), "n1", "u1")
	require.NoError(t, err)
	assert.True(t, n.Read)
}

func TestMarkAsRead_AlreadyReadIsNoop(t *testing.T) {
	st := &mockNotificationStore{}
	st.On("Get", mock.Anything, "n1").Return(&domain.Notification{NotificationID: "n1", UserID: "u1", Read: true}, nil)

	_, err := NewService(ServiceDeps{NotificationRepo: st}).MarkAsRead(context.Background(), "n1", "u1")
	require.NoError(t, err)
	st.AssertNotCalled(t, "MarkAsRead", mock.Anything, mock.Anything)
}

// --- UnreadCount ---

func TestUnreadCount(t *testing.T) {
	st := &mockNotificationStore{}
	st.On("ListByUser", mock.Anything, "u1", true).Return([]domain.Notification{{}, {}, {}}, nil)

	n, err := NewService(ServiceDeps{NotificationRepo: st}).UnreadCount(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

// --- Create ---

func TestCreate_DefaultsTypeAndPushes(t *testing.T) {
	st := &mockNotificationStore{}
	set := &mockSettings{}
	p := &mockPusher{}
	st.On("Put", mock.Anything, mock.MatchedBy(func(n *domain.Notification) bool {
		return n.UserID == "u1" && n.Type == domain.NotificationInfo && !n.Read && n.NotificationID != ""
	})).Return(nil)
	set.On("Get", mock.Anything, "u1").Return(&domain.UserSettings{UserID: "u1", PushNotifications: true}, nil)
	p.On("Push", mock.Anything, "u1", "Task assigned", "You have a new task").Return(1, nil)

	svc := NewService(ServiceDeps{NotificationRepo: st, Settings: set, Pusher: p})
	_, err := svc.Create(context.Background(), domain.CreateNotificationRequest{UserID: "u1", Title: "Task assigned", Message: "You have a new task"})
	require.NoError(t, err)
	p.AssertExpectations(t)
}

func TestCreate_PushDisabledInSettings(t *testing.T) {
	st := &mockNotificationStore{}
	set := &mockSettings{}
	p := &mockPusher{}
	st.On("Put", mock.Anything, mock.Anything).Return(nil)
	set.On("Get", mock.Anything, "u1").Return(&domain.UserSettings{UserID: "u1", PushNotifications: false}, nil)

	svc := NewService(ServiceDeps{NotificationRepo: st, Settings: set, Pusher: p})
	_, err := svc.Create(context.Background(), domain.CreateNotificationRequest{UserID: "u1", Title: "t", Message: "m", Type: domain.NotificationSuccess})
	require.NoError(t, err)
	p.AssertNotCalled(t, "Push", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCreate_PushFailureIgnored(t *testing.T) {
	st := &mockNotificationStore{}
	set := &mockSettings{}
	p := &mockPusher{}
	st.On("Put", mock.Anything, mock.Anything).Return(nil)
	set.On("Get", mock.Anything, "u1").Return(&domain.UserSettings{PushNotifications: true}, nil)
	p.On("Push", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(0, errors.New("sns down"))

	svc := NewService(ServiceDeps{NotificationRepo: st, Settings: set, Pusher: p})
	_, err := svc.Create(context.Background(), domain.CreateNotificationRequest{UserID: "u1", Title: "t", Message: "m"})
	assert.NoError(t, err)
}

func TestCreate_InvalidType(t *testing.T) {
	st := &mockNotificationStore{}
	_, err := NewService(ServiceDeps{NotificationRepo: st}).Create(context.Background(),
		domain.CreateNotificationRequest{UserID: "u1", Title: "t", Message: "m", Type: "urgent"})
	assert.ErrorIs(t, err, domain.ErrBadRequest)
	st.AssertNotCalled(t, "Put", mock.Anything, mock.Anything)
}

// --- SessionAlerts ---

func TestSessionAlerts_Warning(t *testing.T) {
	st := &mockNotificationStore{}
	st.On("Put", mock.Anything, mock.MatchedBy(func(n *domain.Notification) bool {
		return n.UserID == "u1" && n.Type == domain.NotificationWarning &&
			n.Message == "Your session will expire in 2 minutes due to inactivity."
	})).Return(nil)

	NewSessionAlerts(NewService(ServiceDeps{NotificationRepo: st})).Warning(context.Background(), "u1", "s1", 2*time.Minute)
	st.AssertExpectations(t)
}

func TestSessionAlerts_Expired(t *testing.T) {
	st := &mockNotificationStore{}
	st.On("Put", mock.Anything, mock.MatchedBy(func(n *domain.Notification) bool {
		return n.UserID == "u1" && n.Type == domain.NotificationError
	})).Return(errors.New("down"))

	// Store errors are logged, not propagated.
	NewSessionAlerts(NewService(ServiceDeps{NotificationRepo: st})).Expired(context.Background(), "u1", "s1")
	st.AssertExpectations(t)
}

func TestHumanize(t *testing.T) {
	assert.Equal(t, "2 minutes", humanize(2*time.Minute))
	assert.Equal(t, "1 minute", humanize(time.Minute))
	assert.Equal(t, "90 seconds", humanize(90*time.Second))
	assert.Equal(t, "1 second", humanize(time.Second))
}
