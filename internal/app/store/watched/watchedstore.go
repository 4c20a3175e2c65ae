package watchedstore

import (
	"context"
	"time"

	"github.com/dalemusser/hypertube/internal/app/system/normalize"
	"github.com/dalemusser/hypertube/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// RecentLimit is the number of records ListRecent returns when asked for
// zero or fewer.
const RecentLimit = 5

type Store struct {
	c   *mongo.Collection
	now func() time.Time
}

func New(db *mongo.Database) *Store {
	return &Store{
		c:   db.Collection("watched_movies"),
		now: time.Now,
	}
}

// Exists reports whether user already has a record for imdbCode.
func (s *Store) Exists(ctx context.Context, user primitive.ObjectID, imdbCode string) (bool, error) {
	err := s.c.FindOne(ctx, bson.M{
		"user":      user,
		"imdb_code": normalize.IMDbCode(imdbCode),
	}).Err()
	if err == mongo.ErrNoDocuments {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Insert stores w with a fresh ID and the current time as its watch date.
// It returns false with a nil error when the (user, imdb_code) pair is
// already recorded.
func (s *Store) Insert(ctx context.Context, w models.WatchedMovie) (bool, error) {
	w.ID = primitive.NewObjectID()
	w.IMDbCode = normalize.IMDbCode(w.IMDbCode)
	w.Date = s.now().UTC()

	if _, err := s.c.InsertOne(ctx, w); err != nil {
		if wafflemongo.IsDup(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// ListRecent returns up to limit records for user, newest first.
func (s *Store) ListRecent(ctx context.Context, user primitive.ObjectID, limit int64) ([]models.WatchedMovie, error) {
	if limit <= 0 {
		limit = RecentLimit
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "date", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(limit)

	cur, err := s.c.Find(ctx, bson.M{"user": user}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := make([]models.WatchedMovie, 0, limit)
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
