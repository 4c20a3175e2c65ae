// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Strategy values recorded on User.Strategy.
const (
	StrategyLocal    = "local"
	StrategyOmniauth = "omniauth"
)

// User is a hypertube account.
//
// NOTE:
//   - Password holds the bcrypt hash and is never serialized to JSON.
//   - Accounts created through an OAuth provider carry Strategy "omniauth"
//     and may have no usable password.
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	FirstName    string             `bson:"first_name" json:"first_name"`
	LastName     string             `bson:"last_name" json:"last_name"`
	Username     string             `bson:"username" json:"username"`
	Email        string             `bson:"email" json:"email"`
	Password     string             `bson:"password,omitempty" json:"-"`
	Strategy     string             `bson:"strategy" json:"strategy"` // local | omniauth
	ProfileImage string             `bson:"profileImage,omitempty" json:"profileImage,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// IsOmniauth reports whether the account signs in through an OAuth provider.
func (u User) IsOmniauth() bool {
	return u.Strategy == StrategyOmniauth
}
