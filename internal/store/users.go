package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/kseniabot/astro-backend/internal/apperr"
	"github.com/kseniabot/astro-backend/internal/models"
)

const usersCollection = "users"

// Users is the Mongo-backed Profiles implementation over a single collection.
type Users struct {
	col *mongo.Collection
}

func NewUsers(db *mongo.Database) *Users {
	return &Users{col: db.Collection(usersCollection)}
}

// EnsureIndexes configures the unique telegramId index. Called on startup
// after Mongo has connected.
func (s *Users) EnsureIndexes(ctx context.Context) error {
	_, err := s.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "telegramId", Value: 1}},
		Options: options.Index().SetName("idx_telegram_id").SetUnique(true),
	})
	return err
}

func filterByID(telegramID string) bson.M {
	return bson.M{"telegramId": telegramID}
}

// insertDefaults is the minimal document stamped on first contact. Keys that
// the accompanying $set already touches are skipped, because Mongo rejects
// updates writing the same path from two operators.
func insertDefaults(telegramID string, set map[string]any) bson.M {
	base := bson.M{
		"telegramId":        telegramID,
		"status":            models.StatusRegistered,
		"activeSpread":      models.SpreadNone,
		"isProfileComplete": false,
		"freeRequests":      models.DefaultFreeRequests(),
		"createdAt":         time.Now().UTC(),
	}
	for key := range base {
		for path := range set {
			if path == key || strings.HasPrefix(path, key+".") {
				delete(base, key)
				break
			}
		}
	}
	return base
}

func (s *Users) Ensure(ctx context.Context, telegramID string) (*models.UserProfile, error) {
	update := bson.M{
		"$setOnInsert": insertDefaults(telegramID, nil),
		"$set":         bson.M{"updatedAt": time.Now().UTC()},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var u models.UserProfile
	if err := s.col.FindOneAndUpdate(ctx, filterByID(telegramID), update, opts).Decode(&u); err != nil {
		return nil, apperr.Wrap(apperr.Internal, "failed to upsert user", err)
	}
	return &u, nil
}

func (s *Users) Get(ctx context.Context, telegramID string) (*models.UserProfile, error) {
	var u models.UserProfile
	err := s.col.FindOne(ctx, filterByID(telegramID)).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperr.New(apperr.NotFound, "user not found")
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "failed to load user", err)
	}
	return &u, nil
}

func (s *Users) Set(ctx context.Context, telegramID string, fields map[string]any, upsert bool) (*models.UserProfile, error) {
	set := bson.M{"updatedAt": time.Now().UTC()}
	for path, value := range fields {
		set[path] = value
	}

	update := bson.M{"$set": set}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	if upsert {
		update["$setOnInsert"] = insertDefaults(telegramID, fields)
		opts.SetUpsert(true)
	}

	var u models.UserProfile
	err := s.col.FindOneAndUpdate(ctx, filterByID(telegramID), update, opts).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperr.New(apperr.NotFound, "user not found")
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "failed to update user", err)
	}
	return &u, nil
}

func (s *Users) SetUnset(ctx context.Context, telegramID string, set map[string]any, unset []string) (*models.UserProfile, error) {
	setDoc := bson.M{"updatedAt": time.Now().UTC()}
	for path, value := range set {
		setDoc[path] = value
	}
	update := bson.M{"$set": setDoc}
	if len(unset) > 0 {
		unsetDoc := bson.M{}
		for _, path := range unset {
			unsetDoc[path] = ""
		}
		update["$unset"] = unsetDoc
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var u models.UserProfile
	err := s.col.FindOneAndUpdate(ctx, filterByID(telegramID), update, opts).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperr.New(apperr.NotFound, "user not found")
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "failed to update user", err)
	}
	return &u, nil
}

func (s *Users) SetIfSpreadActive(ctx context.Context, telegramID string, fields map[string]any) (*models.UserProfile, error) {
	set := bson.M{"updatedAt": time.Now().UTC()}
	for path, value := range fields {
		set[path] = value
	}

	// $nin with null keeps documents without the field from matching.
	filter := bson.M{
		"telegramId":   telegramID,
		"activeSpread": bson.M{"$nin": bson.A{models.SpreadNone, nil}},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var u models.UserProfile
	err := s.col.FindOneAndUpdate(ctx, filter, bson.M{"$set": set}, opts).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		// Distinguish a missing user from a user at rest.
		if _, getErr := s.Get(ctx, telegramID); getErr != nil {
			return nil, getErr
		}
		return nil, apperr.New(apperr.InvalidState, "no active spread")
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "failed to update spread", err)
	}
	return &u, nil
}

func (s *Users) ConsumeFreeRequest(ctx context.Context, telegramID, feature string) (bool, error) {
	key := "freeRequests." + feature
	filter := bson.M{"telegramId": telegramID, key: true}
	update := bson.M{"$set": bson.M{key: false, "updatedAt": time.Now().UTC()}}

	res, err := s.col.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, apperr.Wrap(apperr.Internal, "failed to consume free request", err)
	}
	return res.ModifiedCount == 1, nil
}

func (s *Users) BackfillFreeRequests(ctx context.Context, features []string) (int64, error) {
	var modified int64
	for _, feature := range features {
		key := "freeRequests." + feature
		res, err := s.col.UpdateMany(ctx,
			bson.M{key: bson.M{"$exists": false}},
			bson.M{"$set": bson.M{key: true, "updatedAt": time.Now().UTC()}},
		)
		if err != nil {
			return modified, apperr.Wrap(apperr.Internal, "failed to backfill free requests", err)
		}
		modified += res.ModifiedCount
	}
	return modified, nil
}
