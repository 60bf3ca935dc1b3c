package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/bluesumk/mjjf/internal/model"
)

// SessionRepo handles MongoDB operations for session documents. Every
// mutation that depends on the current document value is a conditional
// server-side update: the filter re-asserts the preconditions and a miss is
// reported to the caller instead of silently overwriting a concurrent write.
type SessionRepo interface {
	Upsert(ctx context.Context, session *model.Session) error
	GetByID(ctx context.Context, id string) (*model.Session, error)
	AddMember(ctx context.Context, id, identity string) (bool, error)
	AppendRound(ctx context.Context, id string, round model.Round) (bool, error)
	Finalize(ctx context.Context, id string, multiplier int, finalScores map[string]int) (bool, error)
	Delete(ctx context.Context, id string) error
	ListByMember(ctx context.Context, identity string, from, to time.Time) ([]*model.Session, error)
	ListFinished(ctx context.Context, from, to time.Time) ([]*model.Session, error)
}

type sessionRepo struct {
	collection *mongo.Collection
}

func NewSessionRepo(db *mongo.Database) SessionRepo {
	repo := &sessionRepo{collection: db.Collection("sessions")}
	repo.ensureIndexes(context.Background())
	return repo
}

func (r *sessionRepo) ensureIndexes(ctx context.Context) {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "members", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "createdAt", Value: -1}}},
	}
	_, _ = r.collection.Indexes().CreateMany(ctx, indexes)
}

// Upsert writes the session keyed by its id, overwriting any existing
// document. Create goes through here so that re-invoking create with the
// same id stays idempotent.
func (r *sessionRepo) Upsert(ctx context.Context, session *model.Session) error {
	opts := options.Replace().SetUpsert(true)
	_, err := r.collection.ReplaceOne(ctx, bson.M{"_id": session.ID}, session, opts)
	return err
}

func (r *sessionRepo) GetByID(ctx context.Context, id string) (*model.Session, error) {
	var session model.Session
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&session)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil // session not found
		}
		return nil, err
	}
	return &session, nil
}

// AddMember appends identity to the member set only while the session is
// still ongoing, the caller is not yet a member and a seat is free. Returns
// false when the filter missed, meaning one of those preconditions no longer
// holds.
func (r *sessionRepo) AddMember(ctx context.Context, id, identity string) (bool, error) {
	filter := bson.M{
		"_id":     id,
		"status":  model.SessionOngoing,
		"members": bson.M{"$ne": identity},
		"$expr": bson.M{
			"$lt": bson.A{bson.M{"$size": "$members"}, model.MaxMembers},
		},
	}
	update := bson.M{
		"$push": bson.M{"members": identity},
		"$set":  bson.M{"updatedAt": time.Now()},
	}

	res, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount > 0, nil
}

// AppendRound pushes the round onto the session's round list, guarded on the
// session still being ongoing. The rounds array is append-only.
func (r *sessionRepo) AppendRound(ctx context.Context, id string, round model.Round) (bool, error) {
	filter := bson.M{"_id": id, "status": model.SessionOngoing}
	update := bson.M{
		"$push": bson.M{"rounds": round},
		"$set":  bson.M{"updatedAt": time.Now()},
	}

	res, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount > 0, nil
}

// Finalize flips the session to finished and writes the multiplier and final
// scores in one update. The status guard makes the transition fire at most
// once even under concurrent finalize calls.
func (r *sessionRepo) Finalize(ctx context.Context, id string, multiplier int, finalScores map[string]int) (bool, error) {
	filter := bson.M{"_id": id, "status": model.SessionOngoing}
	update := bson.M{
		"$set": bson.M{
			"status":      model.SessionFinished,
			"multiplier":  multiplier,
			"finalScores": finalScores,
			"updatedAt":   time.Now(),
		},
	}

	res, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount > 0, nil
}

func (r *sessionRepo) Delete(ctx context.Context, id string) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

func (r *sessionRepo) ListByMember(ctx context.Context, identity string, from, to time.Time) ([]*model.Session, error) {
	filter := bson.M{"members": identity}
	addWindow(filter, from, to)
	return r.list(ctx, filter)
}

func (r *sessionRepo) ListFinished(ctx context.Context, from, to time.Time) ([]*model.Session, error) {
	filter := bson.M{"status": model.SessionFinished}
	addWindow(filter, from, to)
	return r.list(ctx, filter)
}

func (r *sessionRepo) list(ctx context.Context, filter bson.M) ([]*model.Session, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var sessions []*model.Session
	if err := cursor.All(ctx, &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

func addWindow(filter bson.M, from, to time.Time) {
	window := bson.M{}
	if !from.IsZero() {
		window["$gte"] = from
	}
	if !to.IsZero() {
		window["$lt"] = to
	}
	if len(window) > 0 {
		filter["createdAt"] = window
	}
}
