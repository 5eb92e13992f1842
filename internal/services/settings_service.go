package services

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/alairock/kash-money/internal/models"
)

// ISettingsService manages per-user company settings.
type ISettingsService interface {
	GetCompanySettings(ctx context.Context, userID string) (*models.CompanySettings, error)
	SetCompanySettings(ctx context.Context, userID string, settings *models.CompanySettings) error
}

const companySettingsCollection = "company_settings"

type settingsService struct {
	db *mongo.Database
}

// NewSettingsService creates a new SettingsService.
func NewSettingsService(database *mongo.Database) ISettingsService {
	return &settingsService{db: database}
}

// GetCompanySettings returns the user's company settings, or an empty
// document when none have been saved yet.
func (s *settingsService) GetCompanySettings(ctx context.Context, userID string) (*models.CompanySettings, error) {
	var settings models.CompanySettings
	err := s.db.Collection(companySettingsCollection).FindOne(ctx, bson.M{"_id": userID}).Decode(&settings)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return &models.CompanySettings{UserID: userID}, nil
		}
		return nil, fmt.Errorf("failed to read company settings for user %s: %w", userID, err)
	}
	return &settings, nil
}

// SetCompanySettings replaces the user's company settings document.
func (s *settingsService) SetCompanySettings(ctx context.Context, userID string, settings *models.CompanySettings) error {
	settings.UserID = userID
	opts := options.Replace().SetUpsert(true)
	if _, err := s.db.Collection(companySettingsCollection).ReplaceOne(ctx, bson.M{"_id": userID}, settings, opts); err != nil {
		return fmt.Errorf("failed to set company settings for user %s: %w", userID, err)
	}
	return nil
}
