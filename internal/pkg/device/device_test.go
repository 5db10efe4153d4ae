package device

import (
	"context"
	"errors"
	"testing"

	"github.com/KenzoYff/evently-ux-platform-94/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockStore struct{ mock.Mock }

func (m *mockStore) GetByToken(ctx context.Context, token string) (*domain.Device, error) {
	args := m.Called(ctx, token)
	if d, _ := args.Get(0).(*domain.Device); d != nil {
		return d, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockStore) Put(ctx context.Context, d *domain.Device) error {
	return m.Called(ctx, d).Error(0)
}
func (m *mockStore) SoftDelete(ctx context.Context, deviceID string) error {
	return m.Called(ctx, deviceID).Error(0)
}

func TestResolve_ExistingForSameUser(t *testing.T) {
	st := &mockStore{}
	existing := &domain.Device{DeviceID: "d1", UserID: "u1", Token: "tok", Enable: true}
	st.On("GetByToken", mock.Anything, "tok").Return(existing, nil)

	d, created, err := Resolve(context.Background(), st, "tok", "web", "u1")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Same(t, existing, d)
	st.AssertNotCalled(t, "Put", mock.Anything, mock.Anything)
}

func TestResolve_NotFoundBuildsNew(t *testing.T) {
	st := &mockStore{}
	st.On("GetByToken", mock.Anything, "tok").Return(nil, domain.ErrNotFound)

	d, created, err := Resolve(context.Background(), st, "tok", "", "u1")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "u1", d.UserID)
	assert.Equal(t, "web", d.Platform)
	assert.True(t, d.Enable)
	assert.NotEmpty(t, d.DeviceID)
}

func TestResolve_TokenOwnedByAnotherUserBuildsNew(t *testing.T) {
	st := &mockStore{}
	st.On("GetByToken", mock.Anything, "tok").Return(&domain.Device{DeviceID: "d1", UserID: "u2", Enable: true}, nil)
	st.On("SoftDelete", mock.Anything, "d1").Return(nil)

	d, created, err := Resolve(context.Background(), st, "tok", "android", "u1")
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEqual(t, "d1", d.DeviceID)
	st.AssertExpectations(t)
}

func TestResolve_DisabledRecordIsReplaced(t *testing.T) {
	st := &mockStore{}
	st.On("GetByToken", mock.Anything, "tok").Return(&domain.Device{DeviceID: "d1", UserID: "u1", Enable: false}, nil)

	d, created, err := Resolve(context.Background(), st, "tok", "ios", "u1")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "ios", d.Platform)
	st.AssertNotCalled(t, "SoftDelete", mock.Anything, mock.Anything)
}

func TestResolve_StoreError(t *testing.T) {
	st := &mockStore{}
	st.On("GetByToken", mock.Anything, "tok").Return(nil, errors.New("boom"))

	_, _, err := Resolve(context.Background(), st, "tok", "web", "u1")
	assert.Error(t, err)
}
