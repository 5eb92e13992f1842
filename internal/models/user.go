package models

import (
	"time"
)

// Plan is a named tier defining default resource limits for a user.
type Plan string

const (
	PlanFree     Plan = "free"
	PlanBasic    Plan = "basic"
	PlanPro      Plan = "pro"
	PlanAdvanced Plan = "advanced"
)

// User is an account owner. Every other document in the system is
// partitioned by a user's ID.
type User struct {
	Base         `bson:",inline"`
	Email        string    `bson:"email" json:"email"` // Lowercased, unique
	PasswordHash string    `bson:"password_hash" json:"-"`
	Name         string    `bson:"name" json:"name"`
	Plan         Plan      `bson:"plan" json:"plan"`
	Created      time.Time `bson:"created" json:"created"`
}
