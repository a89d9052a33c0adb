package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"gradersmith/internal/common"
	"gradersmith/internal/common/security"
	"gradersmith/internal/domain/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUserRepo struct {
	users map[string]*model.User // keyed by id
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[string]*model.User{}}
}

func (r *fakeUserRepo) Create(_ context.Context, user *model.User) error {
	for _, u := range r.users {
		if u.Email == user.Email || u.Username == user.Username {
			return common.ErrConflict
		}
	}
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r *fakeUserRepo) FindByID(_ context.Context, id string) (*model.User, error) {
	if u, ok := r.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (r *fakeUserRepo) FindByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) FindByUsername(_ context.Context, username string) (*model.User, error) {
	for _, u := range r.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func newTestAuthService(repo *fakeUserRepo) *AuthService {
	return NewAuthService(repo, security.NewTokenAuth([]byte("test-secret"), time.Hour))
}

func TestSignupCreatesUserAndIssuesToken(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestAuthService(repo)

	resp, err := svc.Signup(context.Background(), SignupRequest{
		Username: "alice", Email: "alice@example.com", Password: "hunter22",
	})
	require.NoError(t, err)
	require.NotNil(t, resp.User)

	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, model.RoleUser, resp.User.Role)
	assert.Empty(t, resp.User.HashedPassword, "hash must never leave the service")

	stored, _ := repo.FindByID(context.Background(), resp.User.ID)
	require.NotNil(t, stored)
	assert.True(t, security.CheckPasswordHash("hunter22", stored.HashedPassword))
}

func TestSignupDuplicateIsConflict(t *testing.T) {
	svc := newTestAuthService(newFakeUserRepo())
	req := SignupRequest{Username: "alice", Email: "alice@example.com", Password: "hunter22"}

	_, err := svc.Signup(context.Background(), req)
	require.NoError(t, err)
	_, err = svc.Signup(context.Background(), req)
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrConflict))
}

func TestSignupRejectsMissingFields(t *testing.T) {
	svc := newTestAuthService(newFakeUserRepo())

	_, err := svc.Signup(context.Background(), SignupRequest{Username: "alice", Email: "alice@example.com"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrValidation))
}

func TestLoginWrongPasswordAndUnknownEmailLookTheSame(t *testing.T) {
	svc := newTestAuthService(newFakeUserRepo())
	_, err := svc.Signup(context.Background(), SignupRequest{
		Username: "alice", Email: "alice@example.com", Password: "hunter22",
	})
	require.NoError(t, err)

	_, badPass := svc.Login(context.Background(), LoginRequest{Email: "alice@example.com", Password: "wrong"})
	_, noUser := svc.Login(context.Background(), LoginRequest{Email: "ghost@example.com", Password: "hunter22"})

	assert.Equal(t, common.ErrUnauthorized, badPass)
	assert.Equal(t, common.ErrUnauthorized, noUser)
}

func TestLoginSucceedsWithCorrectCredentials(t *testing.T) {
	svc := newTestAuthService(newFakeUserRepo())
	_, err := svc.Signup(context.Background(), SignupRequest{
		Username: "alice", Email: "alice@example.com", Password: "hunter22",
	})
	require.NoError(t, err)

	resp, err := svc.Login(context.Background(), LoginRequest{Email: "alice@example.com", Password: "hunter22"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "alice", resp.User.Username)
}

func TestVerifyRole(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestAuthService(repo)
	resp, err := svc.Signup(context.Background(), SignupRequest{
		Username: "alice", Email: "alice@example.com", Password: "hunter22",
	})
	require.NoError(t, err)

	role, err := svc.VerifyRole(context.Background(), resp.User.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RoleUser, role)

	_, err = svc.VerifyRole(context.Background(), "missing")
	assert.True(t, errors.Is(err, common.ErrNotFound))
}
