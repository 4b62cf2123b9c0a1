package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/nexusnotes/nexus-notes/internal/model"
)

type MockProfileCache struct {
	mock.Mock
}

func (m *MockProfileCache) Get(ctx context.Context, userID string) (model.User, bool, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(model.User), args.Bool(1), args.Error(2)
}

func (m *MockProfileCache) Set(ctx context.Context, user model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockProfileCache) Delete(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}
