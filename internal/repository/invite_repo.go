package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/bluesumk/mjjf/internal/model"
)

// InviteRepo is the side table resolving short-code pairs back to full
// (sessionId, token) pairs. The short codes are hash-derived and can
// collide, so lookups return every candidate and the caller re-verifies
// against the stored full values.
type InviteRepo interface {
	Put(ctx context.Context, lookup *model.InviteLookup) error
	FindByShortCodes(ctx context.Context, shortSid, shortToken string) ([]*model.InviteLookup, error)
	DeleteBySession(ctx context.Context, sessionID string) error
	ListCreatedBefore(ctx context.Context, cutoff time.Time) ([]*model.InviteLookup, error)
}

type inviteRepo struct {
	collection *mongo.Collection
}

func NewInviteRepo(db *mongo.Database) InviteRepo {
	repo := &inviteRepo{collection: db.Collection("invite_codes")}
	repo.ensureIndexes(context.Background())
	return repo
}

func (r *inviteRepo) ensureIndexes(ctx context.Context) {
	indexes := []mongo.IndexModel{
		// Non-unique: distinct sessions may hash to the same code pair.
		{Keys: bson.D{{Key: "shortSid", Value: 1}, {Key: "shortToken", Value: 1}}},
		{Keys: bson.D{{Key: "sessionId", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "createdAt", Value: 1}}},
	}
	_, _ = r.collection.Indexes().CreateMany(ctx, indexes)
}

func (r *inviteRepo) Put(ctx context.Context, lookup *model.InviteLookup) error {
	opts := options.Replace().SetUpsert(true)
	_, err := r.collection.ReplaceOne(ctx, bson.M{"sessionId": lookup.SessionID}, lookup, opts)
	return err
}

func (r *inviteRepo) FindByShortCodes(ctx context.Context, shortSid, shortToken string) ([]*model.InviteLookup, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"shortSid": shortSid, "shortToken": shortToken})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var lookups []*model.InviteLookup
	if err := cursor.All(ctx, &lookups); err != nil {
		return nil, err
	}
	return lookups, nil
}

func (r *inviteRepo) DeleteBySession(ctx context.Context, sessionID string) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"sessionId": sessionID})
	return err
}

func (r *inviteRepo) ListCreatedBefore(ctx context.Context, cutoff time.Time) ([]*model.InviteLookup, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"createdAt": bson.M{"$lt": cutoff}})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var lookups []*model.InviteLookup
	if err := cursor.All(ctx, &lookups); err != nil {
		return nil, err
	}
	return lookups, nil
}
