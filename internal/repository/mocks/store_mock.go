package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/nexusnotes/nexus-notes/internal/document"
	"github.com/nexusnotes/nexus-notes/internal/model"
)

type MockUserStore struct {
	mock.Mock
}

func (m *MockUserStore) Create(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserStore) GetByID(ctx context.Context, id string) (*model.User, error) {
	args := m.Called(ctx, id)
	return userArg(args, 0), args.Error(1)
}

func (m *MockUserStore) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	return userArg(args, 0), args.Error(1)
}

func (m *MockUserStore) GetByGoogleID(ctx context.Context, googleID string) (*model.User, error) {
	args := m.Called(ctx, googleID)
	return userArg(args, 0), args.Error(1)
}

func (m *MockUserStore) LinkGoogleID(ctx context.Context, userID, googleID, avatar string) (*model.User, error) {
	args := m.Called(ctx, userID, googleID, avatar)
	return userArg(args, 0), args.Error(1)
}

type MockNoteStore struct {
	mock.Mock
}

func (m *MockNoteStore) ListByOwner(ctx context.Context, userID string) ([]model.Note, error) {
	args := m.Called(ctx, userID)
	notes, _ := args.Get(0).([]model.Note)
	return notes, args.Error(1)
}

func (m *MockNoteStore) Create(ctx context.Context, note *model.Note) error {
	args := m.Called(ctx, note)
	return args.Error(0)
}

func (m *MockNoteStore) UpdateOwned(ctx context.Context, userID, noteID, title string, content document.Document) (*model.Note, error) {
	args := m.Called(ctx, userID, noteID, title, content)
	note, _ := args.Get(0).(*model.Note)
	return note, args.Error(1)
}

func (m *MockNoteStore) DeleteOwned(ctx context.Context, userID, noteID string) error {
	args := m.Called(ctx, userID, noteID)
	return args.Error(0)
}

func userArg(args mock.Arguments, i int) *model.User {
	u, _ := args.Get(i).(*model.User)
	return u
}
