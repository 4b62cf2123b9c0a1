package service

import (
	"context"

	"github.com/nexusnotes/nexus-notes/internal/document"
	"github.com/nexusnotes/nexus-notes/internal/model"
)

// UserStore is implemented by every storage backend in internal/repository.
type UserStore interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByGoogleID(ctx context.Context, googleID string) (*model.User, error)
	LinkGoogleID(ctx context.Context, userID, googleID, avatar string) (*model.User, error)
}

// NoteStore persists notes. Update and delete match on both note and owner.
type NoteStore interface {
	ListByOwner(ctx context.Context, userID string) ([]model.Note, error)
	Create(ctx context.Context, note *model.Note) error
	UpdateOwned(ctx context.Context, userID, noteID, title string, content document.Document) (*model.Note, error)
	DeleteOwned(ctx context.Context, userID, noteID string) error
}
