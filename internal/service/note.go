package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/nexusnotes/nexus-notes/internal/document"
	"github.com/nexusnotes/nexus-notes/internal/model"
	"github.com/nexusnotes/nexus-notes/internal/repository"
)

// MaxTitleLength is the longest title accepted, in characters.
const MaxTitleLength = 512

// NoteService handles note business logic. Every call is scoped to the
// caller resolved by the auth middleware.
type NoteService struct {
	notes NoteStore
}

// NewNoteService creates a new NoteService.
func NewNoteService(notes NoteStore) *NoteService {
	return &NoteService{notes: notes}
}

// List returns the caller's notes, most recently updated first.
func (s *NoteService) List(ctx context.Context, userID string) ([]model.NoteResponse, error) {
	notes, err := s.notes.ListByOwner(ctx, userID)
	if err != nil {
		return nil, err
	}

	responses := make([]model.NoteResponse, len(notes))
	for i, n := range notes {
		responses[i] = n.ToResponse()
	}
	return responses, nil
}

// Create stores a new note owned by the caller.
func (s *NoteService) Create(ctx context.Context, userID string, req model.NoteRequest) (model.NoteResponse, error) {
	title, content, err := prepareNote(req)
	if err != nil {
		return model.NoteResponse{}, err
	}

	note := &model.Note{
		UserID:  userID,
		Title:   title,
		Content: content,
	}
	if err := s.notes.Create(ctx, note); err != nil {
		return model.NoteResponse{}, err
	}

	return note.ToResponse(), nil
}

// Update replaces title and content of a note the caller owns.
func (s *NoteService) Update(ctx context.Context, userID, noteID string, req model.NoteRequest) (model.NoteResponse, error) {
	title, content, err := prepareNote(req)
	if err != nil {
		return model.NoteResponse{}, err
	}

	note, err := s.notes.UpdateOwned(ctx, userID, noteID, title, content)
	if err != nil {
		if errors.Is(err, repository.ErrNoteNotFound) {
			return model.NoteResponse{}, ErrNotFound
		}
		return model.NoteResponse{}, err
	}

	return note.ToResponse(), nil
}

// Delete removes a note the caller owns.
func (s *NoteService) Delete(ctx context.Context, userID, noteID string) error {
	if err := s.notes.DeleteOwned(ctx, userID, noteID); err != nil {
		if errors.Is(err, repository.ErrNoteNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

func prepareNote(req model.NoteRequest) (string, document.Document, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = model.DefaultNoteTitle
	}
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return "", nil, ErrTitleTooLong
	}

	content, err := document.Parse(req.Content)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrInvalidContent, err)
	}

	return title, content, nil
}
