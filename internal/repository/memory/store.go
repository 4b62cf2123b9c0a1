// Package memory is a process-local store used for development and tests.
// Data does not survive a restart.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nexusnotes/nexus-notes/internal/document"
	"github.com/nexusnotes/nexus-notes/internal/model"
	"github.com/nexusnotes/nexus-notes/internal/repository"
)

type noteRecord struct {
	note model.Note
	// seq orders notes updated within the same clock tick.
	seq uint64
}

// Store keeps users and notes in maps guarded by a single mutex.
type Store struct {
	mu    sync.RWMutex
	users map[string]model.User
	notes map[string]noteRecord
	seq   uint64
	now   func() time.Time
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		users: make(map[string]model.User),
		notes: make(map[string]noteRecord),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// Users returns the user half of the store.
func (s *Store) Users() *UserRepository { return &UserRepository{s: s} }

// Notes returns the note half of the store.
func (s *Store) Notes() *NoteRepository { return &NoteRepository{s: s} }

// UserRepository handles user persistence in memory.
type UserRepository struct {
	s *Store
}

// Create inserts a new user and sets its ID and timestamps.
func (r *UserRepository) Create(_ context.Context, user *model.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, u := range r.s.users {
		if u.Email == user.Email {
			return repository.ErrDuplicateEmail
		}
	}

	now := r.s.now()
	user.ID = uuid.NewString()
	user.CreatedAt = now
	user.UpdatedAt = now
	r.s.users[user.ID] = *user
	return nil
}

// Count reports how many users are stored.
func (r *UserRepository) Count() int {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return len(r.s.users)
}

// GetByID retrieves a user by ID.
func (r *UserRepository) GetByID(_ context.Context, id string) (*model.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return &u, nil
}

// GetByEmail retrieves a user by email address.
func (r *UserRepository) GetByEmail(_ context.Context, email string) (*model.User, error) {
	return r.find(func(u model.User) bool { return u.Email == email })
}

// GetByGoogleID retrieves a user by federated subject.
func (r *UserRepository) GetByGoogleID(_ context.Context, googleID string) (*model.User, error) {
	if googleID == "" {
		return nil, repository.ErrUserNotFound
	}
	return r.find(func(u model.User) bool { return u.GoogleID == googleID })
}

// LinkGoogleID attaches a federated subject to an existing account.
func (r *UserRepository) LinkGoogleID(_ context.Context, userID, googleID, avatar string) (*model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[userID]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	u.GoogleID = googleID
	if avatar != "" {
		u.Avatar = avatar
	}
	u.UpdatedAt = r.s.now()
	r.s.users[userID] = u
	return &u, nil
}

func (r *UserRepository) find(match func(model.User) bool) (*model.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, u := range r.s.users {
		if match(u) {
			found := u
			return &found, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

// NoteRepository handles note persistence in memory.
type NoteRepository struct {
	s *Store
}

// ListByOwner returns the user's notes, most recently updated first.
func (r *NoteRepository) ListByOwner(_ context.Context, userID string) ([]model.Note, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	records := make([]noteRecord, 0)
	for _, rec := range r.s.notes {
		if rec.note.UserID == userID {
			records = append(records, rec)
		}
	}

	sort.Slice(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if !a.note.UpdatedAt.Equal(b.note.UpdatedAt) {
			return a.note.UpdatedAt.After(b.note.UpdatedAt)
		}
		return a.seq > b.seq
	})

	notes := make([]model.Note, len(records))
	for i, rec := range records {
		notes[i] = copyNote(rec.note)
	}
	return notes, nil
}

// Create inserts a note and sets its ID and timestamps.
func (r *NoteRepository) Create(_ context.Context, note *model.Note) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	now := r.s.now()
	note.ID = uuid.NewString()
	note.CreatedAt = now
	note.UpdatedAt = now

	r.s.seq++
	r.s.notes[note.ID] = noteRecord{note: copyNote(*note), seq: r.s.seq}
	return nil
}

// UpdateOwned replaces title and content of a note owned by userID.
func (r *NoteRepository) UpdateOwned(_ context.Context, userID, noteID, title string, content document.Document) (*model.Note, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	rec, ok := r.s.notes[noteID]
	if !ok || rec.note.UserID != userID {
		return nil, repository.ErrNoteNotFound
	}

	rec.note.Title = title
	rec.note.Content = document.Clone(content)
	rec.note.UpdatedAt = r.s.now()
	r.s.seq++
	rec.seq = r.s.seq
	r.s.notes[noteID] = rec

	updated := copyNote(rec.note)
	return &updated, nil
}

// DeleteOwned removes a note owned by userID.
func (r *NoteRepository) DeleteOwned(_ context.Context, userID, noteID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	rec, ok := r.s.notes[noteID]
	if !ok || rec.note.UserID != userID {
		return repository.ErrNoteNotFound
	}
	delete(r.s.notes, noteID)
	return nil
}

func copyNote(n model.Note) model.Note {
	n.Content = document.Clone(n.Content)
	return n
}
