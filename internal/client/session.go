package client

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/nexusnotes/nexus-notes/internal/document"
	"github.com/nexusnotes/nexus-notes/internal/model"
)

// State is the lifecycle of a Session.
type State int

const (
	StateCheckingAuth State = iota
	StateUnauthenticated
	StateLoadingNotes
	StateReady
)

func (s State) String() string {
	switch s {
	case StateCheckingAuth:
		return "checking-auth"
	case StateUnauthenticated:
		return "unauthenticated"
	case StateLoadingNotes:
		return "loading-notes"
	case StateReady:
		return "ready"
	default:
		return "unknown"
	}
}

var (
	ErrNotSignedIn = errors.New("not signed in")
	ErrNoSelection = errors.New("no note selected")
	ErrUnknownNote = errors.New("note is not in the local collection")
)

// Session mirrors the signed-in user's notes. Local state changes only after
// the server has acknowledged a write. Notes are kept ordered by last update,
// newest first.
type Session struct {
	client *Client

	mu       sync.Mutex
	state    State
	user     *model.UserResponse
	notes    []model.NoteResponse
	selected string
}

// NewSession creates a session in the checking-auth state.
func NewSession(c *Client) *Session {
	return &Session{client: c, state: StateCheckingAuth}
}

// Start resolves a stored token. Without one, or when the server rejects
// it, the session becomes unauthenticated and the token is cleared.
func (s *Session) Start(ctx context.Context) error {
	s.setState(StateCheckingAuth)

	token, err := s.client.Tokens().Load()
	if err != nil || token == "" {
		s.reset()
		return err
	}

	user, err := s.client.Profile(ctx)
	if err != nil {
		_ = s.client.Tokens().Clear()
		s.reset()
		if IsUnauthorized(err) {
			return nil
		}
		return err
	}

	return s.signedIn(ctx, user)
}

// Login signs in with email and password and loads the user's notes.
func (s *Session) Login(ctx context.Context, email, password string) error {
	resp, err := s.client.Login(ctx, email, password)
	if err != nil {
		return err
	}
	return s.acceptToken(ctx, resp)
}

// Register creates an account, signs in and loads its (empty) notes.
func (s *Session) Register(ctx context.Context, name, email, password string) error {
	resp, err := s.client.Register(ctx, name, email, password)
	if err != nil {
		return err
	}
	return s.acceptToken(ctx, resp)
}

// GoogleLogin signs in with a Google ID token.
func (s *Session) GoogleLogin(ctx context.Context, idToken string) error {
	resp, err := s.client.GoogleLogin(ctx, idToken)
	if err != nil {
		return err
	}
	return s.acceptToken(ctx, resp)
}

// Logout forgets the token and every local note.
func (s *Session) Logout() error {
	err := s.client.Tokens().Clear()
	s.reset()
	return err
}

// Select makes the note with the given id current.
func (s *Session) Select(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if indexOf(s.notes, id) < 0 {
		return ErrUnknownNote
	}
	s.selected = id
	return nil
}

// Deselect clears the selection so that the next Save creates a note.
func (s *Session) Deselect() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = ""
}

// New creates an empty note on the server and selects it.
func (s *Session) New(ctx context.Context) (model.NoteResponse, error) {
	if err := s.requireReady(); err != nil {
		return model.NoteResponse{}, err
	}

	note, err := s.client.CreateNote(ctx, model.DefaultNoteTitle, document.Default())
	if err != nil {
		return model.NoteResponse{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.notes = append([]model.NoteResponse{note}, s.notes...)
	s.selected = note.ID
	s.sortLocked()
	return note, nil
}

// Save updates the selected note, or creates and selects a new one when
// nothing is selected.
func (s *Session) Save(ctx context.Context, title string, content document.Document) (model.NoteResponse, error) {
	if err := s.requireReady(); err != nil {
		return model.NoteResponse{}, err
	}

	s.mu.Lock()
	selected := s.selected
	s.mu.Unlock()

	if selected == "" {
		note, err := s.client.CreateNote(ctx, title, content)
		if err != nil {
			return model.NoteResponse{}, err
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		s.notes = append([]model.NoteResponse{note}, s.notes...)
		s.selected = note.ID
		s.sortLocked()
		return note, nil
	}

	note, err := s.client.UpdateNote(ctx, selected, title, content)
	if err != nil {
		if IsNotFound(err) {
			s.drop(selected)
		}
		return model.NoteResponse{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if i := indexOf(s.notes, note.ID); i >= 0 {
		s.notes[i] = note
	} else {
		s.notes = append(s.notes, note)
	}
	s.sortLocked()
	return note, nil
}

// Delete removes the selected note. Selection moves to the note before it,
// or to the new first note, or to nothing when the collection is empty.
func (s *Session) Delete(ctx context.Context) error {
	if err := s.requireReady(); err != nil {
		return err
	}

	s.mu.Lock()
	selected := s.selected
	s.mu.Unlock()

	if selected == "" {
		return ErrNoSelection
	}

	if err := s.client.DeleteNote(ctx, selected); err != nil {
		if IsNotFound(err) {
			s.drop(selected)
		}
		return err
	}

	s.drop(selected)
	return nil
}

// Notes returns a copy of the local collection, newest first.
func (s *Session) Notes() []model.NoteResponse {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.NoteResponse, len(s.notes))
	copy(out, s.notes)
	return out
}

// Selected returns the current note, if any.
func (s *Session) Selected() (model.NoteResponse, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := indexOf(s.notes, s.selected); i >= 0 {
		return s.notes[i], true
	}
	return model.NoteResponse{}, false
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// User returns the signed-in user.
func (s *Session) User() (model.UserResponse, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.user == nil {
		return model.UserResponse{}, false
	}
	return *s.user, true
}

func (s *Session) acceptToken(ctx context.Context, resp model.AuthResponse) error {
	if err := s.client.Tokens().Save(resp.Token); err != nil {
		return err
	}
	return s.signedIn(ctx, resp.User)
}

// signedIn loads the notes of a resolved user. A failed load still leaves
// the session ready with an empty collection.
func (s *Session) signedIn(ctx context.Context, user model.UserResponse) error {
	s.mu.Lock()
	s.user = &user
	s.state = StateLoadingNotes
	s.mu.Unlock()

	notes, err := s.client.ListNotes(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = StateReady
	s.notes = nil
	s.selected = ""
	if err != nil {
		return err
	}

	s.notes = notes
	s.sortLocked()
	if len(s.notes) > 0 {
		s.selected = s.notes[0].ID
	}
	return nil
}

func (s *Session) drop(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := indexOf(s.notes, id)
	if i < 0 {
		return
	}
	s.notes = append(s.notes[:i], s.notes[i+1:]...)

	if s.selected != id {
		return
	}
	if len(s.notes) == 0 {
		s.selected = ""
		return
	}
	s.selected = s.notes[max(0, i-1)].ID
}

func (s *Session) requireReady() error {
	if s.State() != StateReady {
		return ErrNotSignedIn
	}
	return nil
}

func (s *Session) setState(st State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = st
}

func (s *Session) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = StateUnauthenticated
	s.user = nil
	s.notes = nil
	s.selected = ""
}

func (s *Session) sortLocked() {
	sort.SliceStable(s.notes, func(i, j int) bool {
		return s.notes[i].UpdatedAt.After(s.notes[j].UpdatedAt)
	})
}

func indexOf(notes []model.NoteResponse, id string) int {
	if id == "" {
		return -1
	}
	for i, n := range notes {
		if n.ID == id {
			return i
		}
	}
	return -1
}
