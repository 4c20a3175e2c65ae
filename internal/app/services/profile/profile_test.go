package profile

import (
	"context"
	"errors"
	"strings"
	"testing"

	userstore "github.com/dalemusser/hypertube/internal/app/store/users"
	"github.com/dalemusser/hypertube/internal/app/system/authutil"
	"github.com/dalemusser/hypertube/internal/domain/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// fakeUsers is an in-memory UserRepo.
type fakeUsers struct {
	byID      map[primitive.ObjectID]*models.User
	updateErr error
	readErr   error
	updates   []userstore.ProfileUpdate
}

func newFakeUsers(users ...*models.User) *fakeUsers {
	f := &fakeUsers{byID: map[primitive.ObjectID]*models.User{}}
	for _, u := range users {
		f.byID[u.ID] = u
	}
	return f
}

func (f *fakeUsers) GetByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	if f.readErr != nil {
		return nil, f.readErr
	}
	u, ok := f.byID[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) UsernameExistsForOther(_ context.Context, username string, self primitive.ObjectID) (bool, error) {
	for id, u := range f.byID {
		if id != self && u.Username == username {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeUsers) EmailExistsForOther(_ context.Context, email string, self primitive.ObjectID) (bool, error) {
	for id, u := range f.byID {
		if id != self && u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeUsers) UpdateProfile(_ context.Context, id primitive.ObjectID, upd userstore.ProfileUpdate) (bool, error) {
	if f.updateErr != nil {
		return false, f.updateErr
	}
	u, ok := f.byID[id]
	if !ok {
		return false, nil
	}
	f.updates = append(f.updates, upd)
	u.FirstName, u.LastName, u.Username, u.Email = upd.FirstName, upd.LastName, upd.Username, upd.Email
	if upd.PasswordHash != "" {
		u.Password = upd.PasswordHash
	}
	return true, nil
}

func (f *fakeUsers) SetProfileImage(_ context.Context, id primitive.ObjectID, filename string) (bool, error) {
	u, ok := f.byID[id]
	if !ok {
		return false, nil
	}
	u.ProfileImage = filename
	return true, nil
}

func fastHash(s string) (string, error) { return "hashed:" + s, nil }

func localUser(t *testing.T, username, email, password string) *models.User {
	t.Helper()
	hash, err := authutil.HashPassword(password)
	require.NoError(t, err)
	return &models.User{
		ID:       primitive.NewObjectID(),
		Username: username,
		Email:    email,
		Password: hash,
		Strategy: models.StrategyLocal,
	}
}

func newService(repo UserRepo) *Service {
	s := New(repo)
	s.hash = fastHash
	return s
}

func TestGet(t *testing.T) {
	neo := localUser(t, "neo", "neo@example.com", "Matrix123")
	svc := newService(newFakeUsers(neo))
	ctx := context.Background()

	u, err := svc.Get(ctx, neo.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, "neo", u.Username)

	_, err = svc.Get(ctx, "not-an-id")
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, err = svc.Get(ctx, primitive.NewObjectID().Hex())
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestGet_StoreError(t *testing.T) {
	repo := newFakeUsers()
	repo.readErr = errors.New("connection reset")
	svc := newService(repo)

	_, err := svc.Get(context.Background(), primitive.NewObjectID().Hex())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUserNotFound)
}

func TestUpdate(t *testing.T) {
	neo := localUser(t, "neo", "neo@example.com", "Matrix123")
	trinity := localUser(t, "trinity", "trinity@example.com", "Matrix123")

	base := func() UpdateInput {
		return UpdateInput{
			UserID:      neo.ID.Hex(),
			Strategy:    models.StrategyLocal,
			FirstName:   "Thomas",
			LastName:    "Anderson",
			Username:    "neo",
			Email:       "neo@example.com",
			OldPassword: "Matrix123",
		}
	}

	tests := []struct {
		name     string
		mutate   func(*UpdateInput)
		wantErr  error
		conflict string
	}{
		{name: "self collision accepted", mutate: func(*UpdateInput) {}},
		{name: "wrong old password", mutate: func(in *UpdateInput) { in.OldPassword = "nope" }, wantErr: ErrInvalidOldPassword},
		{name: "missing old password", mutate: func(in *UpdateInput) { in.OldPassword = "" }, wantErr: ErrInvalidOldPassword},
		{name: "username taken", mutate: func(in *UpdateInput) { in.Username = "trinity" }, conflict: "username"},
		{name: "email taken", mutate: func(in *UpdateInput) { in.Email = "trinity@example.com" }, conflict: "email"},
		{
			name: "username checked before email",
			mutate: func(in *UpdateInput) {
				in.Username = "trinity"
				in.Email = "trinity@example.com"
			},
			conflict: "username",
		},
		{
			name: "password checked before uniqueness",
			mutate: func(in *UpdateInput) {
				in.OldPassword = "nope"
				in.Username = "trinity"
			},
			wantErr: ErrInvalidOldPassword,
		},
		{name: "malformed id", mutate: func(in *UpdateInput) { in.UserID = "undefined" }, wantErr: ErrUserNotFound},
		{name: "unknown id", mutate: func(in *UpdateInput) { in.UserID = primitive.NewObjectID().Hex() }, wantErr: ErrUserNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, tr := *neo, *trinity
			svc := newService(newFakeUsers(&n, &tr))
			in := base()
			tt.mutate(&in)

			_, err := svc.Update(context.Background(), in)

			switch {
			case tt.conflict != "":
				var ce *ConflictError
				require.ErrorAs(t, err, &ce)
				assert.Equal(t, tt.conflict, ce.Field)
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			default:
				assert.NoError(t, err)
			}
		})
	}
}

func TestUpdate_OmniauthSkipsOldPassword(t *testing.T) {
	morpheus := &models.User{
		ID:       primitive.NewObjectID(),
		Username: "morpheus",
		Email:    "morpheus@example.com",
		Strategy: models.StrategyOmniauth,
	}
	repo := newFakeUsers(morpheus)
	svc := newService(repo)

	// Strategy from the credential is empty: the stored strategy applies.
	_, err := svc.Update(context.Background(), UpdateInput{
		UserID:   morpheus.ID.Hex(),
		Username: "morpheus",
		Email:    "morpheus@example.com",
	})
	require.NoError(t, err)
	require.Len(t, repo.updates, 1)
	assert.Empty(t, repo.updates[0].PasswordHash)
}

func TestUpdate_NormalizesAndHashes(t *testing.T) {
	neo := localUser(t, "neo", "neo@example.com", "Matrix123")
	repo := newFakeUsers(neo)
	svc := newService(repo)

	_, err := svc.Update(context.Background(), UpdateInput{
		UserID:      neo.ID.Hex(),
		FirstName:   "  <b>Thomas</b>  ",
		LastName:    "Anderson",
		Username:    " the_one ",
		Email:       "Thomas@Example.COM",
		OldPassword: "Matrix123",
		NewPassword: "Zion4567",
	})
	require.NoError(t, err)
	require.Len(t, repo.updates, 1)

	upd := repo.updates[0]
	assert.Equal(t, "Thomas", upd.FirstName)
	assert.Equal(t, "the_one", upd.Username)
	assert.Equal(t, "thomas@example.com", upd.Email)
	assert.Equal(t, "hashed:Zion4567", upd.PasswordHash)
}

func TestUpdate_DuplicateOnWriteIsConflict(t *testing.T) {
	neo := localUser(t, "neo", "neo@example.com", "Matrix123")
	repo := newFakeUsers(neo)
	repo.updateErr = userstore.ErrDuplicateEmail
	svc := newService(repo)

	_, err := svc.Update(context.Background(), UpdateInput{
		UserID:      neo.ID.Hex(),
		Username:    "neo",
		Email:       "raced@example.com",
		OldPassword: "Matrix123",
	})
	var ce *ConflictError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "email", ce.Field)
}

func TestSetImage(t *testing.T) {
	neo := localUser(t, "neo", "neo@example.com", "Matrix123")
	repo := newFakeUsers(neo)
	svc := newService(repo)
	ctx := context.Background()

	require.NoError(t, svc.SetImage(ctx, neo.ID.Hex(), "IMAGE-1.png"))
	assert.Equal(t, "IMAGE-1.png", repo.byID[neo.ID].ProfileImage)

	assert.ErrorIs(t, svc.SetImage(ctx, primitive.NewObjectID().Hex(), "IMAGE-2.png"), ErrUserNotFound)
	assert.ErrorIs(t, svc.SetImage(ctx, "bad", "IMAGE-3.png"), ErrUserNotFound)
}

func TestUpdate_ReportsChanges(t *testing.T) {
	neo := localUser(t, "neo", "neo@example.com", "Matrix123")
	neo.FirstName = "Thomas"
	neo.LastName = "Anderson"
	svc := newService(newFakeUsers(neo))

	changes, err := svc.Update(context.Background(), UpdateInput{
		UserID:      neo.ID.Hex(),
		FirstName:   "Thomas",
		LastName:    "Anderson",
		Username:    "the_one",
		Email:       "neo@example.com",
		OldPassword: "Matrix123",
		NewPassword: "Zion4567",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"username"}, changes.Fields)
	assert.True(t, changes.Password)
}

func TestUpdate_OverlongNewPassword(t *testing.T) {
	neo := localUser(t, "neo", "neo@example.com", "Matrix123")
	repo := newFakeUsers(neo)
	svc := New(repo) // real bcrypt

	_, err := svc.Update(context.Background(), UpdateInput{
		UserID:      neo.ID.Hex(),
		Username:    "neo",
		Email:       "neo@example.com",
		OldPassword: "Matrix123",
		NewPassword: strings.Repeat("a", 100),
	})
	assert.ErrorIs(t, err, ErrPasswordTooLong)
	assert.Empty(t, repo.updates, "nothing is written")
}
