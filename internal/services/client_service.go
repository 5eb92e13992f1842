package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/alairock/kash-money/internal/models"
)

// IClientService manages billing clients.
type IClientService interface {
	Create(ctx context.Context, userID string, client *models.Client) (*models.Client, error)
	FindByID(ctx context.Context, userID, clientID string) (*models.Client, error)
	List(ctx context.Context, userID string) ([]models.Client, error)
	Update(ctx context.Context, userID, clientID string, updates map[string]interface{}) (*models.Client, error)
	Delete(ctx context.Context, userID, clientID string) error
}

const clientsCollection = "clients"

type clientService struct {
	db           *mongo.Database
	limitService ILimitService
}

// NewClientService creates a new ClientService.
func NewClientService(database *mongo.Database, limitService ILimitService) IClientService {
	return &clientService{db: database, limitService: limitService}
}

// Create inserts a new client after the plan-limit gate.
func (s *clientService) Create(ctx context.Context, userID string, client *models.Client) (*models.Client, error) {
	if err := s.limitService.AssertUnderLimit(ctx, userID, ResourceClients); err != nil {
		return nil, err
	}

	client.GenIDIfEmpty()
	client.UserID = userID
	client.Created = time.Now().UTC()

	if _, err := s.db.Collection(clientsCollection).InsertOne(ctx, client); err != nil {
		return nil, fmt.Errorf("failed to insert client for user %s: %w", userID, err)
	}
	return client, nil
}

// FindByID returns the client, scoped to the owning user.
func (s *clientService) FindByID(ctx context.Context, userID, clientID string) (*models.Client, error) {
	var client models.Client
	err := s.db.Collection(clientsCollection).FindOne(ctx, bson.M{"_id": clientID, "user_id": userID}).Decode(&client)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, mongo.ErrNoDocuments
		}
		return nil, fmt.Errorf("error finding client %s: %w", clientID, err)
	}
	return &client, nil
}

// List returns all the user's clients, alphabetical by name.
func (s *clientService) List(ctx context.Context, userID string) ([]models.Client, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := s.db.Collection(clientsCollection).Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query clients for user %s: %w", userID, err)
	}
	defer cursor.Close(ctx)

	var clients []models.Client
	if err = cursor.All(ctx, &clients); err != nil {
		return nil, fmt.Errorf("failed to decode clients: %w", err)
	}
	return clients, nil
}

// Update modifies mutable fields of a client owned by the user.
func (s *clientService) Update(ctx context.Context, userID, clientID string, updates map[string]interface{}) (*models.Client, error) {
	allowedUpdates := bson.M{}
	for key, value := range updates {
		switch key {
		case "name", "email", "address1", "address2", "city", "state", "zip":
			allowedUpdates[key] = value
		default:
			return nil, fmt.Errorf("field '%s' cannot be updated via Update", key)
		}
	}
	if len(allowedUpdates) == 0 {
		return nil, fmt.Errorf("no valid fields provided for update")
	}

	filter := bson.M{"_id": clientID, "user_id": userID}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated models.Client
	err := s.db.Collection(clientsCollection).FindOneAndUpdate(ctx, filter, bson.M{"$set": allowedUpdates}, opts).Decode(&updated)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, mongo.ErrNoDocuments
		}
		return nil, fmt.Errorf("failed to update client %s: %w", clientID, err)
	}
	return &updated, nil
}

// Delete removes a client. Existing invoices keep their client_id; the
// invoice detail screen shows an empty client block if the client is gone.
func (s *clientService) Delete(ctx context.Context, userID, clientID string) error {
	result, err := s.db.Collection(clientsCollection).DeleteOne(ctx, bson.M{"_id": clientID, "user_id": userID})
	if err != nil {
		return fmt.Errorf("db error deleting client %s: %w", clientID, err)
	}
	if result.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}
