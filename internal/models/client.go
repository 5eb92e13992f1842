package models

import (
	"time"
)

// Client is a billing counterparty owned by one user.
type Client struct {
	Base     `bson:",inline"`
	UserID   string    `bson:"user_id" json:"user_id"`
	Name     string    `bson:"name" json:"name"`
	Email    string    `bson:"email" json:"email"`
	Address1 string    `bson:"address1,omitempty" json:"address1,omitempty"`
	Address2 string    `bson:"address2,omitempty" json:"address2,omitempty"`
	City     string    `bson:"city,omitempty" json:"city,omitempty"`
	State    string    `bson:"state,omitempty" json:"state,omitempty"`
	Zip      string    `bson:"zip,omitempty" json:"zip,omitempty"`
	Created  time.Time `bson:"created" json:"created"`
}
