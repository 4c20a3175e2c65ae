// internal/domain/models/watchedmovie.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// WatchedMovie records that a user watched a movie. At most one record exists
// per (user, imdb_code); records are never updated or deleted.
type WatchedMovie struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	User     primitive.ObjectID `bson:"user" json:"user"`
	IMDbCode string             `bson:"imdb_code" json:"imdb_code"`
	Title    string             `bson:"title" json:"title"`
	Year     int                `bson:"year" json:"year"`
	Rating   float64            `bson:"rating" json:"rating"`
	Poster   string             `bson:"poster,omitempty" json:"poster,omitempty"`
	Date     time.Time          `bson:"date" json:"date"`
}
