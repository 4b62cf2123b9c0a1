package model

import (
	"encoding/json"
	"time"

	"github.com/nexusnotes/nexus-notes/internal/document"
)

// DefaultNoteTitle replaces blank titles.
const DefaultNoteTitle = "Nova Nota"

// Note represents a note in the database. Ownership never changes after creation.
type Note struct {
	ID        string
	UserID    string
	Title     string
	Content   document.Document
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NoteRequest is the body of create and update calls. Content is kept raw so
// the service decides how absent or malformed content is treated.
type NoteRequest struct {
	Title   string          `json:"title"`
	Content json.RawMessage `json:"content"`
}

// NoteResponse represents a note in API responses.
type NoteResponse struct {
	ID        string            `json:"id"`
	Title     string            `json:"title"`
	Content   document.Document `json:"content"`
	CreatedAt time.Time         `json:"createdAt"`
	UpdatedAt time.Time         `json:"updatedAt"`
}

// ToResponse converts a stored note to its API shape.
func (n Note) ToResponse() NoteResponse {
	return NoteResponse{
		ID:        n.ID,
		Title:     n.Title,
		Content:   n.Content,
		CreatedAt: n.CreatedAt,
		UpdatedAt: n.UpdatedAt,
	}
}
