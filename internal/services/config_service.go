package services

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/alairock/kash-money/internal/config"
)

// IConfigService exposes operator-tunable configuration stored in Mongo.
// Plan-limit defaults live here so tiers can be retuned without a deploy.
type IConfigService interface {
	Load(ctx context.Context) error
	Get(ctx context.Context, key string) (interface{}, bool)
	GetInt(ctx context.Context, key string, defaultValue int) int
	SetConfigValue(ctx context.Context, key string, value interface{}) error
	SubscribeToChanges(ctx context.Context) error
}

const (
	configCollection    = "configuration"
	configUpdateChannel = "config_updates"
)

type configService struct {
	db    *mongo.Database
	cfg   *config.Config // Holds initial defaults loaded from .env
	rdb   *redis.Client
	cache map[string]interface{}
	mutex sync.RWMutex
}

// NewConfigService creates a new ConfigService, loads the initial values
// from the database, and starts the Redis pub/sub reload listener.
func NewConfigService(database *mongo.Database, initialCfg *config.Config, rdb *redis.Client) IConfigService {
	s := &configService{
		db:    database,
		cfg:   initialCfg,
		rdb:   rdb,
		cache: make(map[string]interface{}),
	}
	if err := s.Load(context.Background()); err != nil {
		log.Printf("WARNING: Failed to load initial config from DB: %v. Using defaults from .env", err)
	}
	go func() {
		if err := s.SubscribeToChanges(context.Background()); err != nil {
			log.Printf("Config pub/sub listener stopped: %v", err)
		}
	}()
	return s
}

// ConfigEntry represents a document in the configuration collection.
type ConfigEntry struct {
	Key   string      `bson:"key"`
	Value interface{} `bson:"value"`
}

// Load fetches all config entries from DB and replaces the in-memory cache.
func (s *configService) Load(ctx context.Context) error {
	collection := s.db.Collection(configCollection)
	cursor, err := collection.Find(ctx, bson.M{})
	if err != nil {
		return fmt.Errorf("failed to query config collection: %w", err)
	}
	defer cursor.Close(ctx)

	newCache := make(map[string]interface{})
	for cursor.Next(ctx) {
		var entry ConfigEntry
		if err := cursor.Decode(&entry); err == nil {
			newCache[entry.Key] = entry.Value
		} else {
			log.Printf("Warning: Failed to decode config entry during load: %v", err)
		}
	}
	if err := cursor.Err(); err != nil {
		return fmt.Errorf("error iterating config cursor: %w", err)
	}

	s.mutex.Lock()
	s.cache = newCache
	s.mutex.Unlock()
	log.Printf("Loaded %d entries into config cache from DB.", len(newCache))
	return nil
}

// Get returns the cached value for a key, if present.
func (s *configService) Get(ctx context.Context, key string) (interface{}, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	v, ok := s.cache[key]
	return v, ok
}

// GetInt returns the cached value coerced to int, or the default. BSON
// decodes numbers as int32/int64/float64 depending on how they were written.
func (s *configService) GetInt(ctx context.Context, key string, defaultValue int) int {
	val, ok := s.Get(ctx, key)
	if !ok {
		return defaultValue
	}
	switch v := val.(type) {
	case int:
		return v
	case int32:
		return int(v)
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		log.Printf("Warning: Config key '%s' is not numeric (%T), using default.", key, val)
		return defaultValue
	}
}

// SetConfigValue upserts a config entry, updates the cache, and notifies
// other instances via Redis pub/sub.
func (s *configService) SetConfigValue(ctx context.Context, key string, value interface{}) error {
	collection := s.db.Collection(configCollection)
	opts := options.Update().SetUpsert(true)
	_, err := collection.UpdateOne(ctx, bson.M{"key": key}, bson.M{"$set": bson.M{"value": value}}, opts)
	if err != nil {
		return fmt.Errorf("failed to set config key '%s': %w", key, err)
	}

	s.mutex.Lock()
	s.cache[key] = value
	s.mutex.Unlock()

	if err := s.rdb.Publish(ctx, configUpdateChannel, key).Err(); err != nil {
		log.Printf("Warning: Failed to publish config update for key '%s': %v", key, err)
	}
	return nil
}

// SubscribeToChanges blocks, reloading the cache whenever another instance
// publishes a config update.
func (s *configService) SubscribeToChanges(ctx context.Context) error {
	pubsub := s.rdb.Subscribe(ctx, configUpdateChannel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for msg := range ch {
		log.Printf("Config update notification received (key: %s), reloading.", msg.Payload)
		if err := s.Load(ctx); err != nil {
			log.Printf("Failed to reload config after update: %v", err)
		}
	}
	return nil
}
