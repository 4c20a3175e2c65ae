// Package profile reads and updates a user's own account.
package profile

import (
	"context"
	"errors"
	"fmt"

	userstore "github.com/dalemusser/hypertube/internal/app/store/users"
	"github.com/dalemusser/hypertube/internal/app/system/authutil"
	"github.com/dalemusser/hypertube/internal/app/system/htmlsanitize"
	"github.com/dalemusser/hypertube/internal/app/system/normalize"
	"github.com/dalemusser/hypertube/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

var (
	// ErrUserNotFound is returned for malformed ids and missing users.
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidOldPassword is returned when a local account's old password does not match.
	ErrInvalidOldPassword = errors.New("invalid old password")
	// ErrPasswordTooLong is returned when the new password cannot be hashed
	// because of its length.
	ErrPasswordTooLong = errors.New("new password too long")
)

// ConflictError reports that Field (username or email) belongs to another user.
type ConflictError struct {
	Field string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s already exists", e.Field)
}

// UserRepo is the user persistence the service needs. *userstore.Store satisfies it.
type UserRepo interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	UsernameExistsForOther(ctx context.Context, username string, self primitive.ObjectID) (bool, error)
	EmailExistsForOther(ctx context.Context, email string, self primitive.ObjectID) (bool, error)
	UpdateProfile(ctx context.Context, id primitive.ObjectID, upd userstore.ProfileUpdate) (bool, error)
	SetProfileImage(ctx context.Context, id primitive.ObjectID, filename string) (bool, error)
}

// Service implements profile reads and updates.
type Service struct {
	users UserRepo
	hash  func(string) (string, error)
}

// New creates a Service backed by users.
func New(users UserRepo) *Service {
	return &Service{users: users, hash: authutil.HashPassword}
}

// Get loads the user with hex id. Malformed and unknown ids yield ErrUserNotFound.
func (s *Service) Get(ctx context.Context, id string) (*models.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrUserNotFound
	}
	u, err := s.users.GetByID(ctx, oid)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	return u, nil
}

// UpdateInput is a profile update on behalf of the signed-in user.
type UpdateInput struct {
	UserID      string
	Strategy    string // from the credential; the stored strategy is used when empty
	FirstName   string
	LastName    string
	Username    string
	Email       string
	OldPassword string
	NewPassword string
}

// Changes lists what a successful Update altered.
type Changes struct {
	Fields   []string // profile fields whose stored value changed
	Password bool
}

// Update applies in to the caller's own account. Checks run in order: the
// user exists, the old password matches (local accounts only), the username
// is free, the email is free. The first failing check is returned.
func (s *Service) Update(ctx context.Context, in UpdateInput) (Changes, error) {
	u, err := s.Get(ctx, in.UserID)
	if err != nil {
		return Changes{}, err
	}

	strategy := normalize.Strategy(in.Strategy)
	if strategy == "" {
		strategy = normalize.Strategy(u.Strategy)
	}
	if strategy != models.StrategyOmniauth && !authutil.CheckPassword(in.OldPassword, u.Password) {
		return Changes{}, ErrInvalidOldPassword
	}

	taken, err := s.users.UsernameExistsForOther(ctx, in.Username, u.ID)
	if err != nil {
		return Changes{}, fmt.Errorf("check username: %w", err)
	}
	if taken {
		return Changes{}, &ConflictError{Field: "username"}
	}

	taken, err = s.users.EmailExistsForOther(ctx, in.Email, u.ID)
	if err != nil {
		return Changes{}, fmt.Errorf("check email: %w", err)
	}
	if taken {
		return Changes{}, &ConflictError{Field: "email"}
	}

	upd := userstore.ProfileUpdate{
		FirstName: normalize.Name(htmlsanitize.PlainText(in.FirstName)),
		LastName:  normalize.Name(htmlsanitize.PlainText(in.LastName)),
		Username:  normalize.Username(in.Username),
		Email:     normalize.Email(in.Email),
	}
	if in.NewPassword != "" {
		upd.PasswordHash, err = s.hash(in.NewPassword)
		if errors.Is(err, authutil.ErrPasswordTooLong) {
			return Changes{}, ErrPasswordTooLong
		}
		if err != nil {
			return Changes{}, fmt.Errorf("hash password: %w", err)
		}
	}

	found, err := s.users.UpdateProfile(ctx, u.ID, upd)
	switch {
	case errors.Is(err, userstore.ErrDuplicateUsername):
		return Changes{}, &ConflictError{Field: "username"}
	case errors.Is(err, userstore.ErrDuplicateEmail):
		return Changes{}, &ConflictError{Field: "email"}
	case err != nil:
		return Changes{}, fmt.Errorf("update user: %w", err)
	case !found:
		return Changes{}, ErrUserNotFound
	}
	return diff(u, upd), nil
}

func diff(u *models.User, upd userstore.ProfileUpdate) Changes {
	var c Changes
	for _, f := range []struct{ name, was, now string }{
		{"first_name", u.FirstName, upd.FirstName},
		{"last_name", u.LastName, upd.LastName},
		{"username", u.Username, upd.Username},
		{"email", u.Email, upd.Email},
	} {
		if f.was != f.now {
			c.Fields = append(c.Fields, f.name)
		}
	}
	c.Password = upd.PasswordHash != ""
	return c
}

// SetImage records filename as the profile image of user id.
func (s *Service) SetImage(ctx context.Context, id, filename string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrUserNotFound
	}
	found, err := s.users.SetProfileImage(ctx, oid, filename)
	if err != nil {
		return fmt.Errorf("set profile image: %w", err)
	}
	if !found {
		return ErrUserNotFound
	}
	return nil
}
