package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Gopikaa27/Rag-Agent/internal/model"
	"github.com/Gopikaa27/Rag-Agent/internal/pkg/jwtutil"
)

type fakeUserStore struct {
	users  map[uint]*model.User
	nextID uint
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[uint]*model.User), nextID: 1}
}

func (f *fakeUserStore) Create(user *model.User) error {
	user.ID = f.nextID
	f.nextID++
	copied := *user
	f.users[user.ID] = &copied
	return nil
}

func (f *fakeUserStore) GetByUsername(username string) (*model.User, error) {
	for _, u := range f.users {
		if u.Username == username {
			copied := *u
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeUserStore) GetByEmail(email string) (*model.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeUserStore) GetByID(id uint) (*model.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, nil
	}
	copied := *u
	return &copied, nil
}

func newAuthService() *AuthService {
	return NewAuthService(newFakeUserStore(), "test-secret", time.Hour)
}

func TestRegisterAndLogin(t *testing.T) {
	svc := newAuthService()

	registered, err := svc.Register(RegisterInput{
		Username: "alice",
		Email:    "Alice@Example.com",
		Password: "hunter2hunter2",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, registered.Token)
	assert.Equal(t, "alice@example.com", registered.User.Email)
	assert.NotEqual(t, "hunter2hunter2", registered.User.PasswordHash)

	logged, err := svc.Login(LoginInput{Username: "alice", Password: "hunter2hunter2"})
	require.NoError(t, err)

	claims, err := jwtutil.ParseToken("test-secret", logged.Token)
	require.NoError(t, err)
	assert.Equal(t, registered.User.ID, claims.UserID)
	assert.Equal(t, "alice", claims.Username)
}

func TestRegisterValidation(t *testing.T) {
	svc := newAuthService()

	cases := []RegisterInput{
		{Username: "", Email: "a@b.c", Password: "longenough"},
		{Username: "alice", Email: "", Password: "longenough"},
		{Username: "alice", Email: "a@b.c", Password: "short"},
	}
	for _, input := range cases {
		_, err := svc.Register(input)
		assert.ErrorIs(t, err, ErrInvalidInput)
	}
}

func TestRegisterDuplicates(t *testing.T) {
	svc := newAuthService()
	_, err := svc.Register(RegisterInput{Username: "alice", Email: "alice@example.com", Password: "hunter2hunter2"})
	require.NoError(t, err)

	_, err = svc.Register(RegisterInput{Username: "alice", Email: "other@example.com", Password: "hunter2hunter2"})
	assert.ErrorIs(t, err, ErrUsernameExists)

	_, err = svc.Register(RegisterInput{Username: "bob", Email: "alice@example.com", Password: "hunter2hunter2"})
	assert.ErrorIs(t, err, ErrEmailExists)
}

func TestLoginWrongPassword(t *testing.T) {
	svc := newAuthService()
	_, err := svc.Register(RegisterInput{Username: "alice", Email: "alice@example.com", Password: "hunter2hunter2"})
	require.NoError(t, err)

	_, err = svc.Login(LoginInput{Username: "alice", Password: "wrongwrongwrong"})
	assert.ErrorIs(t, err, ErrInvalidCredential)

	_, err = svc.Login(LoginInput{Username: "nobody", Password: "hunter2hunter2"})
	assert.ErrorIs(t, err, ErrInvalidCredential)
}
