package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/nexusnotes/nexus-notes/internal/document"
	"github.com/nexusnotes/nexus-notes/internal/model"
	"github.com/nexusnotes/nexus-notes/internal/repository"
)

type noteRecord struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	UserID    primitive.ObjectID `bson:"userId"`
	Title     string             `bson:"title"`
	Content   []contentNode      `bson:"content"`
	CreatedAt time.Time          `bson:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt"`
}

func (r noteRecord) toModel() (*model.Note, error) {
	content, err := decodeContent(r.Content)
	if err != nil {
		return nil, fmt.Errorf("decoding content of note %s: %w", r.ID.Hex(), err)
	}
	return &model.Note{
		ID:        r.ID.Hex(),
		UserID:    r.UserID.Hex(),
		Title:     r.Title,
		Content:   content,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}, nil
}

// NoteRepository handles note persistence operations.
type NoteRepository struct {
	coll *mongo.Collection
}

// NewNoteRepository creates a new NoteRepository.
func NewNoteRepository(db *mongo.Database) *NoteRepository {
	return &NoteRepository{coll: db.Collection(notesCollection)}
}

// ListByOwner retrieves all notes for a user, ordered by most recently updated.
func (r *NoteRepository) ListByOwner(ctx context.Context, userID string) ([]model.Note, error) {
	notes := make([]model.Note, 0)

	owner, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return notes, nil
	}

	opts := options.Find().SetSort(bson.D{{Key: "updatedAt", Value: -1}, {Key: "_id", Value: -1}})
	cursor, err := r.coll.Find(ctx, bson.M{"userId": owner}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var records []noteRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, err
	}

	for _, rec := range records {
		n, err := rec.toModel()
		if err != nil {
			return nil, err
		}
		notes = append(notes, *n)
	}
	return notes, nil
}

// Create inserts a note and sets the generated ID and timestamps.
func (r *NoteRepository) Create(ctx context.Context, note *model.Note) error {
	owner, err := primitive.ObjectIDFromHex(note.UserID)
	if err != nil {
		return fmt.Errorf("invalid owner id %q: %w", note.UserID, err)
	}

	content, err := encodeContent(note.Content)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	rec := noteRecord{
		ID:        primitive.NewObjectID(),
		UserID:    owner,
		Title:     note.Title,
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if _, err := r.coll.InsertOne(ctx, rec); err != nil {
		return err
	}

	note.ID = rec.ID.Hex()
	note.CreatedAt = now
	note.UpdatedAt = now
	return nil
}

// UpdateOwned replaces title and content of the note matching both noteID and userID.
func (r *NoteRepository) UpdateOwned(ctx context.Context, userID, noteID, title string, content document.Document) (*model.Note, error) {
	filter, ok := ownedFilter(userID, noteID)
	if !ok {
		return nil, repository.ErrNoteNotFound
	}

	nodes, err := encodeContent(content)
	if err != nil {
		return nil, err
	}

	update := bson.M{"$set": bson.M{
		"title":     title,
		"content":   nodes,
		"updatedAt": time.Now().UTC(),
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var rec noteRecord
	if err := r.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&rec); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNoteNotFound
		}
		return nil, err
	}

	return rec.toModel()
}

// DeleteOwned removes the note matching both noteID and userID.
func (r *NoteRepository) DeleteOwned(ctx context.Context, userID, noteID string) error {
	filter, ok := ownedFilter(userID, noteID)
	if !ok {
		return repository.ErrNoteNotFound
	}

	result, err := r.coll.DeleteOne(ctx, filter)
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNoteNotFound
	}
	return nil
}

// ownedFilter matches a note by id and owner. Ids that are not valid
// ObjectIDs cannot match anything.
func ownedFilter(userID, noteID string) (bson.M, bool) {
	id, err := primitive.ObjectIDFromHex(noteID)
	if err != nil {
		return nil, false
	}
	owner, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, false
	}
	return bson.M{"_id": id, "userId": owner}, true
}
