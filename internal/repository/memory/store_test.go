package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexusnotes/nexus-notes/internal/document"
	"github.com/nexusnotes/nexus-notes/internal/model"
	"github.com/nexusnotes/nexus-notes/internal/repository"
)

func TestUserRepository(t *testing.T) {
	ctx := context.Background()
	users := NewStore().Users()

	ana := &model.User{Name: "Ana", Email: "ana@x.com", PasswordHash: "h"}
	require.NoError(t, users.Create(ctx, ana))
	assert.NotEmpty(t, ana.ID)
	assert.False(t, ana.CreatedAt.IsZero())

	err := users.Create(ctx, &model.User{Name: "Other", Email: "ana@x.com"})
	assert.ErrorIs(t, err, repository.ErrDuplicateEmail)

	got, err := users.GetByEmail(ctx, "ana@x.com")
	require.NoError(t, err)
	assert.Equal(t, ana.ID, got.ID)

	_, err = users.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, repository.ErrUserNotFound)

	_, err = users.GetByGoogleID(ctx, "")
	assert.ErrorIs(t, err, repository.ErrUserNotFound)

	linked, err := users.LinkGoogleID(ctx, ana.ID, "g-1", "https://img/a.png")
	require.NoError(t, err)
	assert.Equal(t, "g-1", linked.GoogleID)
	assert.Equal(t, "https://img/a.png", linked.Avatar)

	linked, err = users.LinkGoogleID(ctx, ana.ID, "g-1", "")
	require.NoError(t, err)
	assert.Equal(t, "https://img/a.png", linked.Avatar)

	byGoogle, err := users.GetByGoogleID(ctx, "g-1")
	require.NoError(t, err)
	assert.Equal(t, ana.ID, byGoogle.ID)
}

func TestNoteRepository_OwnershipScoping(t *testing.T) {
	ctx := context.Background()
	notes := NewStore().Notes()

	mine := &model.Note{UserID: "u1", Title: "mine", Content: document.Default()}
	require.NoError(t, notes.Create(ctx, mine))

	_, err := notes.UpdateOwned(ctx, "u2", mine.ID, "stolen", document.Default())
	assert.ErrorIs(t, err, repository.ErrNoteNotFound)

	err = notes.DeleteOwned(ctx, "u2", mine.ID)
	assert.ErrorIs(t, err, repository.ErrNoteNotFound)

	others, err := notes.ListByOwner(ctx, "u2")
	require.NoError(t, err)
	assert.NotNil(t, others)
	assert.Empty(t, others)

	list, err := notes.ListByOwner(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "mine", list[0].Title)

	require.NoError(t, notes.DeleteOwned(ctx, "u1", mine.ID))
	err = notes.DeleteOwned(ctx, "u1", mine.ID)
	assert.ErrorIs(t, err, repository.ErrNoteNotFound)
}

func TestNoteRepository_ListOrdersByLastUpdate(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	fixed := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return fixed }
	notes := store.Notes()

	first := &model.Note{UserID: "u1", Title: "first", Content: document.Default()}
	second := &model.Note{UserID: "u1", Title: "second", Content: document.Default()}
	require.NoError(t, notes.Create(ctx, first))
	require.NoError(t, notes.Create(ctx, second))

	list, err := notes.ListByOwner(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "second", list[0].Title)

	fixed = fixed.Add(time.Minute)
	updated, err := notes.UpdateOwned(ctx, "u1", first.ID, "first again", document.Default())
	require.NoError(t, err)
	assert.Equal(t, fixed, updated.UpdatedAt)
	assert.Equal(t, first.CreatedAt, updated.CreatedAt)

	list, err = notes.ListByOwner(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "first again", list[0].Title)
}

func TestNoteRepository_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	notes := NewStore().Notes()

	leaf := &document.Text{Text: "original"}
	n := &model.Note{UserID: "u1", Title: "t", Content: document.Document{document.NewParagraph(leaf)}}
	require.NoError(t, notes.Create(ctx, n))
	leaf.Text = "mutated"

	list, err := notes.ListByOwner(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "original", document.PlainText(list[0].Content))
}
