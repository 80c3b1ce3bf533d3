package repository

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"wordoff/internal/model"
)

var (
	// ErrConflict means the write presented a stale version token. The
	// caller must re-fetch the session and recompute its mutation.
	ErrConflict = errors.New("session version conflict")

	// ErrDuplicateID means the session ID is already taken by a live
	// session.
	ErrDuplicateID = errors.New("session id already exists")
)

// SessionRepo is the durable session store. Update is version-fenced:
// it only replaces the document when the stored version matches the one
// the caller read, so two concurrent read-modify-write cycles can never
// silently overwrite each other.
type SessionRepo interface {
	Create(ctx context.Context, session *model.GameSession) error
	Get(ctx context.Context, id string) (*model.GameSession, error)
	Update(ctx context.Context, session *model.GameSession) error
	Delete(ctx context.Context, id string) error
	All(ctx context.Context) ([]*model.GameSession, error)
}

type sessionRepo struct {
	collection *mongo.Collection
}

func NewSessionRepo(db *mongo.Database) SessionRepo {
	return &sessionRepo{
		collection: db.Collection("game_sessions"),
	}
}

func (r *sessionRepo) Create(ctx context.Context, session *model.GameSession) error {
	session.Version = 1
	_, err := r.collection.InsertOne(ctx, session)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicateID
	}
	return err
}

func (r *sessionRepo) Get(ctx context.Context, id string) (*model.GameSession, error) {
	var session model.GameSession
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&session)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// Update replaces the document only when the stored version equals the
// version the caller read. A matched count of zero means another writer
// got there first (or the session was deleted); either way the caller's
// snapshot is stale.
func (r *sessionRepo) Update(ctx context.Context, session *model.GameSession) error {
	readVersion := session.Version
	session.Version = readVersion + 1

	result, err := r.collection.ReplaceOne(ctx, bson.M{
		"_id":     session.ID,
		"version": readVersion,
	}, session)
	if err != nil {
		session.Version = readVersion
		return err
	}
	if result.MatchedCount == 0 {
		session.Version = readVersion
		return ErrConflict
	}
	return nil
}

func (r *sessionRepo) Delete(ctx context.Context, id string) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

func (r *sessionRepo) All(ctx context.Context) ([]*model.GameSession, error) {
	cursor, err := r.collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var sessions []*model.GameSession
	if err = cursor.All(ctx, &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}
