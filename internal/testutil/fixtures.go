package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/dalemusser/hypertube/internal/app/system/authutil"
	"github.com/dalemusser/hypertube/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateUser inserts a local-strategy user whose password is password.
func (f *Fixtures) CreateUser(ctx context.Context, username, email, password string) models.User {
	f.t.Helper()

	hash := ""
	if password != "" {
		var err error
		if hash, err = authutil.HashPassword(password); err != nil {
			f.t.Fatalf("hash test password: %v", err)
		}
	}
	return f.insertUser(ctx, models.User{
		FirstName: "Test",
		LastName:  "User",
		Username:  username,
		Email:     email,
		Password:  hash,
		Strategy:  models.StrategyLocal,
	})
}

// CreateOmniauthUser inserts a user that signs in through an OAuth provider.
func (f *Fixtures) CreateOmniauthUser(ctx context.Context, username, email string) models.User {
	f.t.Helper()
	return f.insertUser(ctx, models.User{
		FirstName: "OAuth",
		LastName:  "User",
		Username:  username,
		Email:     email,
		Strategy:  models.StrategyOmniauth,
	})
}

func (f *Fixtures) insertUser(ctx context.Context, u models.User) models.User {
	f.t.Helper()

	now := time.Now().UTC().Truncate(time.Millisecond)
	u.ID = primitive.NewObjectID()
	u.CreatedAt = now
	u.UpdatedAt = now

	if _, err := f.db.Collection("users").InsertOne(ctx, u); err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	return u
}

// CreateWatched inserts a watched record for user at the given time.
func (f *Fixtures) CreateWatched(ctx context.Context, user primitive.ObjectID, imdbCode string, at time.Time) models.WatchedMovie {
	f.t.Helper()

	w := models.WatchedMovie{
		ID:       primitive.NewObjectID(),
		User:     user,
		IMDbCode: imdbCode,
		Title:    "Movie " + imdbCode,
		Year:     1994,
		Rating:   9.3,
		Date:     at.UTC().Truncate(time.Millisecond),
	}
	if _, err := f.db.Collection("watched_movies").InsertOne(ctx, w); err != nil {
		f.t.Fatalf("failed to create watched record: %v", err)
	}
	return w
}

// CreateMovie inserts a library movie.
func (f *Fixtures) CreateMovie(ctx context.Context, imdbCode, title string, rating float64, genres ...string) models.Movie {
	f.t.Helper()

	m := models.Movie{
		ID:       primitive.NewObjectID(),
		IMDbCode: imdbCode,
		Title:    title,
		Year:     2000,
		Rating:   rating,
		Genres:   genres,
	}
	if _, err := f.db.Collection("movies").InsertOne(ctx, m); err != nil {
		f.t.Fatalf("failed to create movie: %v", err)
	}
	return m
}
