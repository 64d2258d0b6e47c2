package database

import (
	"context"
	"errors"
	"fmt"

	"castor/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// AccountContextRepository reads the optional brand overlay for an account.
// Implementations return (nil, nil) when the account has no context defined.
type AccountContextRepository interface {
	FindByAccountID(ctx context.Context, accountID string) (*models.AccountContext, error)
}

// MongoAccountContextRepository reads account contexts from MongoDB.
type MongoAccountContextRepository struct {
	collection *mongo.Collection
}

// NewMongoAccountContextRepository creates an account-context repository.
func NewMongoAccountContextRepository(mongodb *MongoDB) *MongoAccountContextRepository {
	return &MongoAccountContextRepository{
		collection: mongodb.Collection(CollectionAccountContexts),
	}
}

// FindByAccountID returns the account's brand context, or (nil, nil) when
// none has been defined.
func (r *MongoAccountContextRepository) FindByAccountID(ctx context.Context, accountID string) (*models.AccountContext, error) {
	var accountContext models.AccountContext
	err := r.collection.FindOne(ctx, bson.M{"accountId": accountID}).Decode(&accountContext)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find account context: %w", err)
	}
	return &accountContext, nil
}
