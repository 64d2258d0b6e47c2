package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"castor/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ProfileRepository is the persistence surface for style profiles.
// Implementations return (nil, nil) when no profile exists for the user.
type ProfileRepository interface {
	FindByUserID(ctx context.Context, userID string) (*models.StyleProfile, error)
	UpsertByUserID(ctx context.Context, userID string, profile *models.StyleProfile) error
	FindStale(ctx context.Context, analyzedBefore time.Time, limit int64) ([]models.StyleProfile, error)
}

// MongoProfileRepository stores style profiles in MongoDB, one document per
// user (unique index on userId).
type MongoProfileRepository struct {
	collection *mongo.Collection
}

// NewMongoProfileRepository creates a profile repository over the given database.
func NewMongoProfileRepository(mongodb *MongoDB) *MongoProfileRepository {
	return &MongoProfileRepository{
		collection: mongodb.Collection(CollectionStyleProfiles),
	}
}

// FindByUserID returns the user's profile, or (nil, nil) when none exists.
func (r *MongoProfileRepository) FindByUserID(ctx context.Context, userID string) (*models.StyleProfile, error) {
	var profile models.StyleProfile
	err := r.collection.FindOne(ctx, bson.M{"userId": userID}).Decode(&profile)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find style profile: %w", err)
	}
	return &profile, nil
}

// UpsertByUserID replaces the user's profile document, inserting it if absent.
func (r *MongoProfileRepository) UpsertByUserID(ctx context.Context, userID string, profile *models.StyleProfile) error {
	update := bson.M{
		"$set": bson.M{
			"fid":                profile.FID,
			"tone":               profile.Tone,
			"avgLength":          profile.AvgLength,
			"commonPhrases":      profile.CommonPhrases,
			"topics":             profile.Topics,
			"emojiUsage":         profile.EmojiUsage,
			"languagePreference": profile.LanguagePreference,
			"sampleCasts":        profile.SampleCasts,
			"analyzedAt":         profile.AnalyzedAt,
			"engagementInsights": profile.EngagementInsights,
		},
		"$setOnInsert": bson.M{
			"_id":    profile.ID,
			"userId": userID,
		},
	}

	opts := options.Update().SetUpsert(true)
	if _, err := r.collection.UpdateOne(ctx, bson.M{"userId": userID}, update, opts); err != nil {
		return fmt.Errorf("failed to upsert style profile: %w", err)
	}
	return nil
}

// FindStale returns up to limit profiles analyzed before the cutoff,
// oldest first. Used by the background sweep job.
func (r *MongoProfileRepository) FindStale(ctx context.Context, analyzedBefore time.Time, limit int64) ([]models.StyleProfile, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "analyzedAt", Value: 1}}).
		SetLimit(limit)

	cursor, err := r.collection.Find(ctx, bson.M{"analyzedAt": bson.M{"$lt": analyzedBefore}}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find stale profiles: %w", err)
	}
	defer cursor.Close(ctx)

	var profiles []models.StyleProfile
	if err := cursor.All(ctx, &profiles); err != nil {
		return nil, fmt.Errorf("failed to decode stale profiles: %w", err)
	}
	return profiles, nil
}
