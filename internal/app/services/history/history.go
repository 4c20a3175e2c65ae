// Package history records and lists the movies a user has watched.
package history

import (
	"context"
	"errors"
	"fmt"
	"strings"

	watchedstore "github.com/dalemusser/hypertube/internal/app/store/watched"
	"github.com/dalemusser/hypertube/internal/app/system/htmlsanitize"
	"github.com/dalemusser/hypertube/internal/app/system/normalize"
	"github.com/dalemusser/hypertube/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrUserNotFound is returned when the user id is malformed.
var ErrUserNotFound = errors.New("user not found")

// WatchedRepo is the watch-history persistence the service needs.
// *watchedstore.Store satisfies it.
type WatchedRepo interface {
	Exists(ctx context.Context, user primitive.ObjectID, imdbCode string) (bool, error)
	Insert(ctx context.Context, w models.WatchedMovie) (bool, error)
	ListRecent(ctx context.Context, user primitive.ObjectID, limit int64) ([]models.WatchedMovie, error)
}

// Service implements watch history.
type Service struct {
	watched WatchedRepo
}

// New creates a Service backed by watched.
func New(watched WatchedRepo) *Service {
	return &Service{watched: watched}
}

// Movie is the movie a user reports having watched.
type Movie struct {
	IMDbCode string
	Title    string
	Year     int
	Rating   float64
	Poster   string
}

// Record stores that user watched m. Recording an already-recorded movie
// is a no-op and not an error.
func (s *Service) Record(ctx context.Context, userID string, m Movie) error {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return ErrUserNotFound
	}

	exists, err := s.watched.Exists(ctx, oid, m.IMDbCode)
	if err != nil {
		return fmt.Errorf("check watched: %w", err)
	}
	if exists {
		return nil
	}

	_, err = s.watched.Insert(ctx, models.WatchedMovie{
		User:     oid,
		IMDbCode: normalize.IMDbCode(m.IMDbCode),
		Title:    htmlsanitize.PlainText(m.Title),
		Year:     m.Year,
		Rating:   m.Rating,
		Poster:   strings.TrimSpace(m.Poster),
	})
	if err != nil {
		return fmt.Errorf("insert watched: %w", err)
	}
	return nil
}

// Recent returns the newest records of user, at most watchedstore.RecentLimit.
func (s *Service) Recent(ctx context.Context, userID string) ([]models.WatchedMovie, error) {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, ErrUserNotFound
	}
	list, err := s.watched.ListRecent(ctx, oid, watchedstore.RecentLimit)
	if err != nil {
		return nil, fmt.Errorf("list watched: %w", err)
	}
	if list == nil {
		list = []models.WatchedMovie{}
	}
	return list, nil
}
