package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nexusnotes/nexus-notes/internal/document"
	"github.com/nexusnotes/nexus-notes/internal/model"
	"github.com/nexusnotes/nexus-notes/internal/repository"
)

// NoteRepository handles note persistence operations.
type NoteRepository struct {
	db *sql.DB
}

// NewNoteRepository creates a new NoteRepository.
func NewNoteRepository(db *sql.DB) *NoteRepository {
	return &NoteRepository{db: db}
}

// ListByOwner retrieves all notes for a user, ordered by most recently updated.
func (r *NoteRepository) ListByOwner(ctx context.Context, userID string) ([]model.Note, error) {
	query := `SELECT id, user_id, title, content, created_at, updated_at
		FROM notes WHERE user_id = ? ORDER BY updated_at DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	notes := make([]model.Note, 0)
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, err
		}
		notes = append(notes, *n)
	}

	return notes, rows.Err()
}

// Create inserts a note and sets the generated ID and timestamps.
func (r *NoteRepository) Create(ctx context.Context, note *model.Note) error {
	content, err := json.Marshal(note.Content)
	if err != nil {
		return fmt.Errorf("encoding content: %w", err)
	}

	id := uuid.NewString()
	now := time.Now().UTC()

	query := `INSERT INTO notes (id, user_id, title, content, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`
	if _, err := r.db.ExecContext(ctx, query, id, note.UserID, note.Title, content, now, now); err != nil {
		return err
	}

	note.ID = id
	note.CreatedAt = now
	note.UpdatedAt = now
	return nil
}

// UpdateOwned replaces title and content of the note matching both noteID and userID.
func (r *NoteRepository) UpdateOwned(ctx context.Context, userID, noteID, title string, content document.Document) (*model.Note, error) {
	raw, err := json.Marshal(content)
	if err != nil {
		return nil, fmt.Errorf("encoding content: %w", err)
	}

	query := `UPDATE notes SET title = ?, content = ?, updated_at = ?
		WHERE id = ? AND user_id = ?`

	result, err := r.db.ExecContext(ctx, query, title, raw, time.Now().UTC(), noteID, userID)
	if err != nil {
		return nil, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if rowsAffected == 0 {
		return nil, repository.ErrNoteNotFound
	}

	return r.getOwned(ctx, userID, noteID)
}

// DeleteOwned removes the note matching both noteID and userID.
func (r *NoteRepository) DeleteOwned(ctx context.Context, userID, noteID string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM notes WHERE id = ? AND user_id = ?`, noteID, userID)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return repository.ErrNoteNotFound
	}

	return nil
}

func (r *NoteRepository) getOwned(ctx context.Context, userID, noteID string) (*model.Note, error) {
	query := `SELECT id, user_id, title, content, created_at, updated_at
		FROM notes WHERE id = ? AND user_id = ?`

	n, err := scanNote(r.db.QueryRowContext(ctx, query, noteID, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNoteNotFound
		}
		return nil, err
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNote(row rowScanner) (*model.Note, error) {
	var (
		n   model.Note
		raw []byte
	)
	if err := row.Scan(&n.ID, &n.UserID, &n.Title, &raw, &n.CreatedAt, &n.UpdatedAt); err != nil {
		return nil, err
	}

	content, err := document.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("decoding content of note %s: %w", n.ID, err)
	}
	n.Content = content
	return &n, nil
}
