package userstore

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dalemusser/hypertube/internal/app/system/normalize"
	"github.com/dalemusser/hypertube/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	// ErrDuplicateUsername is returned when an update collides with another user's username.
	ErrDuplicateUsername = errors.New("a user with this username already exists")
	// ErrDuplicateEmail is returned when an update collides with another user's email.
	ErrDuplicateEmail = errors.New("a user with this email already exists")
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("users")}
}

// GetByID loads a user by ObjectID. Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// UsernameExistsForOther reports whether another user (not self) already has username.
func (s *Store) UsernameExistsForOther(ctx context.Context, username string, self primitive.ObjectID) (bool, error) {
	return s.existsForOther(ctx, "username", normalize.Username(username), self, nil)
}

// EmailExistsForOther reports whether another user (not self) already has email.
func (s *Store) EmailExistsForOther(ctx context.Context, email string, self primitive.ObjectID) (bool, error) {
	return s.existsForOther(ctx, "email", normalize.Email(email), self, emailCollation)
}

// emailCollation matches uniq_users_email, so rows written before emails
// were lowercased still collide with their lowercase form.
var emailCollation = &options.Collation{Locale: "en", Strength: 2}

func (s *Store) existsForOther(ctx context.Context, field, value string, self primitive.ObjectID, coll *options.Collation) (bool, error) {
	opts := options.FindOne().SetProjection(bson.M{"_id": 1})
	if coll != nil {
		opts.SetCollation(coll)
	}
	err := s.c.FindOne(ctx, bson.M{
		field: value,
		"_id": bson.M{"$ne": self},
	}, opts).Err()
	if err == mongo.ErrNoDocuments {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// ProfileUpdate holds the fields a user may change on their own profile.
// PasswordHash is written only when non-empty.
type ProfileUpdate struct {
	FirstName    string
	LastName     string
	Username     string
	Email        string
	PasswordHash string
}

// UpdateProfile overwrites the profile fields of user id. It returns false when
// no such user exists, and ErrDuplicateUsername / ErrDuplicateEmail when a
// unique index rejects the write.
func (s *Store) UpdateProfile(ctx context.Context, id primitive.ObjectID, upd ProfileUpdate) (bool, error) {
	set := bson.M{
		"first_name": upd.FirstName,
		"last_name":  upd.LastName,
		"username":   normalize.Username(upd.Username),
		"email":      normalize.Email(upd.Email),
		"updated_at": time.Now().UTC(),
	}
	if upd.PasswordHash != "" {
		set["password"] = upd.PasswordHash
	}

	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		if wafflemongo.IsDup(err) {
			return false, dupField(err)
		}
		return false, err
	}
	return res.MatchedCount > 0, nil
}

// SetProfileImage records the stored profile image filename for user id.
// It returns false when no such user exists.
func (s *Store) SetProfileImage(ctx context.Context, id primitive.ObjectID, filename string) (bool, error) {
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"profileImage": filename,
		"updated_at":   time.Now().UTC(),
	}})
	if err != nil {
		return false, err
	}
	return res.MatchedCount > 0, nil
}

// ProfileImagesInUse returns the subset of names referenced by some user's
// profileImage.
func (s *Store) ProfileImagesInUse(ctx context.Context, names []string) (map[string]bool, error) {
	inUse := make(map[string]bool)
	if len(names) == 0 {
		return inUse, nil
	}
	vals, err := s.c.Distinct(ctx, "profileImage", bson.M{"profileImage": bson.M{"$in": names}})
	if err != nil {
		return nil, err
	}
	for _, v := range vals {
		if name, ok := v.(string); ok {
			inUse[name] = true
		}
	}
	return inUse, nil
}

// dupField maps a duplicate-key error to the sentinel for the offending field.
func dupField(err error) error {
	msg := err.Error()
	if strings.Contains(msg, "uniq_users_username") || strings.Contains(msg, "username_1") {
		return ErrDuplicateUsername
	}
	return ErrDuplicateEmail
}
