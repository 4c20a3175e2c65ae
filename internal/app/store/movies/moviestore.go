package moviestore

import (
	"context"

	"github.com/dalemusser/hypertube/internal/app/system/normalize"
	"github.com/dalemusser/hypertube/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// GenreLimit caps the number of movies ByGenre returns.
const GenreLimit = 50

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("movies")}
}

// ByIMDbCode returns the movies carrying imdbCode (zero or one).
func (s *Store) ByIMDbCode(ctx context.Context, imdbCode string) ([]models.Movie, error) {
	cur, err := s.c.Find(ctx, bson.M{"imdb_code": normalize.IMDbCode(imdbCode)}, options.Find().SetLimit(1))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.Movie{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ByGenre returns up to GenreLimit movies tagged with genre, best rated
// first. Genre matching ignores case.
func (s *Store) ByGenre(ctx context.Context, genre string) ([]models.Movie, error) {
	opts := options.Find().
		SetCollation(&options.Collation{Locale: "en", Strength: 2}).
		SetSort(bson.D{{Key: "rating", Value: -1}, {Key: "title", Value: 1}}).
		SetLimit(GenreLimit)

	cur, err := s.c.Find(ctx, bson.M{"genres": normalize.PathParam(genre)}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.Movie{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
