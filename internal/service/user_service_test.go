package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"Flow/internal/apperr"
	"Flow/internal/credential"
	"Flow/internal/model"
	"Flow/internal/offload"
	"Flow/internal/repo"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// мок для repo.UserRepository
type mockUserRepo struct{ mock.Mock }

func (m *mockUserRepo) CreateIfAbsent(ctx context.Context, userName string) (bool, error) {
	args := m.Called(ctx, userName)
	return args.Bool(0), args.Error(1)
}

func (m *mockUserRepo) GetByName(ctx context.Context, userName string) (*model.User, error) {
	args := m.Called(ctx, userName)
	if u, ok := args.Get(0).(*model.User); ok {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockUserRepo) GetByID(ctx context.Context, id int64) (*model.User, error) {
	args := m.Called(ctx, id)
	if u, ok := args.Get(0).(*model.User); ok {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

var _ repo.UserRepository = (*mockUserRepo)(nil)

// мок для repo.ItemRepository
type mockItemRepo struct{ mock.Mock }

func (m *mockItemRepo) Upsert(ctx context.Context, item *model.Item, userID int64) (int64, error) {
	args := m.Called(ctx, item, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockItemRepo) GetByID(ctx context.Context, id int64) (*model.Item, error) {
	args := m.Called(ctx, id)
	if v, ok := args.Get(0).(*model.Item); ok {
		return v, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockItemRepo) GetForUser(ctx context.Context, userID, id int64) (*model.Item, error) {
	args := m.Called(ctx, userID, id)
	if v, ok := args.Get(0).(*model.Item); ok {
		return v, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockItemRepo) OwnerOf(ctx context.Context, itemID int64) (int64, error) {
	args := m.Called(ctx, itemID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockItemRepo) SummariesPage(ctx context.Context, userID int64, kind model.Kind, order repo.Order, offset, limit int) ([]model.ItemSummary, error) {
	args := m.Called(ctx, userID, kind, order, offset, limit)
	if v, ok := args.Get(0).([]model.ItemSummary); ok {
		return v, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockItemRepo) ListSummaries(ctx context.Context, userID int64, kind model.Kind, order repo.Order) ([]model.ItemSummary, error) {
	args := m.Called(ctx, userID, kind, order)
	if v, ok := args.Get(0).([]model.ItemSummary); ok {
		return v, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockItemRepo) Overdue(ctx context.Context, userID int64, now time.Time) ([]model.ItemSummary, error) {
	args := m.Called(ctx, userID, now)
	if v, ok := args.Get(0).([]model.ItemSummary); ok {
		return v, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockItemRepo) Count(ctx context.Context, userID int64, kind model.Kind) (int64, error) {
	args := m.Called(ctx, userID, kind)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockItemRepo) DeleteItems(ctx context.Context, userID int64, ids []int64) (int64, []string, error) {
	args := m.Called(ctx, userID, ids)
	paths, _ := args.Get(1).([]string)
	return args.Get(0).(int64), paths, args.Error(2)
}

func (m *mockItemRepo) DeleteAccount(ctx context.Context, userID int64) ([]string, error) {
	args := m.Called(ctx, userID)
	paths, _ := args.Get(0).([]string)
	return paths, args.Error(1)
}

var _ repo.ItemRepository = (*mockItemRepo)(nil)

type userFixture struct {
	users  *mockUserRepo
	items  *mockItemRepo
	creds  *credential.FileStore
	bodies *offload.Policy
	svc    *UserService
}

func newUserFixture(t *testing.T) *userFixture {
	t.Helper()
	dir := t.TempDir()
	creds, err := credential.OpenFileStore(filepath.Join(dir, "credentials.yaml"))
	require.NoError(t, err)
	bodies, err := offload.New(filepath.Join(dir, "files"))
	require.NoError(t, err)

	f := &userFixture{users: new(mockUserRepo), items: new(mockItemRepo), creds: creds, bodies: bodies}
	f.svc = NewUserService(f.users, f.items, credential.NewVerifier(creds, f.users), bodies, zap.NewNop().Sugar())
	return f
}

func TestUserService_Login(t *testing.T) {
	ctx := context.Background()

	t.Run("validation when empty", func(t *testing.T) {
		f := newUserFixture(t)
		for _, c := range [][2]string{{"", "pw"}, {"  ", "pw"}, {"alice", ""}} {
			u, err := f.svc.Login(ctx, c[0], c[1])
			assert.Nil(t, u)
			assert.ErrorIs(t, err, apperr.ErrValidation)
		}
		f.users.AssertNotCalled(t, "CreateIfAbsent", mock.Anything, mock.Anything)
	})

	t.Run("first login registers", func(t *testing.T) {
		f := newUserFixture(t)
		f.users.On("CreateIfAbsent", mock.Anything, "alice").Return(true, nil).Once()
		f.users.On("GetByName", mock.Anything, "alice").Return(&model.User{ID: 2, UserName: "alice"}, nil).Twice()

		u, err := f.svc.Login(ctx, "alice", "pw1")
		require.NoError(t, err)
		assert.Equal(t, int64(2), u.ID)

		h, ok, err := f.creds.Get("alice")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, credential.Hash("pw1"), h)

		// второй вход тем же паролем не регистрирует заново
		u, err = f.svc.Login(ctx, "alice", "pw1")
		require.NoError(t, err)
		assert.Equal(t, int64(2), u.ID)
		f.users.AssertExpectations(t)
	})

	t.Run("wrong password", func(t *testing.T) {
		f := newUserFixture(t)
		require.NoError(t, f.creds.Put("alice", credential.Hash("pw1")))

		u, err := f.svc.Login(ctx, "alice", "pw2")
		assert.Nil(t, u)
		assert.ErrorIs(t, err, ErrInvalidCredentials)
		assert.ErrorIs(t, err, apperr.ErrUnauthorized)
		f.users.AssertNotCalled(t, "GetByName", mock.Anything, mock.Anything)
	})

	t.Run("hash without user row completes registration", func(t *testing.T) {
		f := newUserFixture(t)
		require.NoError(t, f.creds.Put("bob", credential.Hash("pw")))
		f.users.On("GetByName", mock.Anything, "bob").Return(nil, apperr.NotFound("user bob")).Once()
		f.users.On("CreateIfAbsent", mock.Anything, "bob").Return(true, nil).Once()
		f.users.On("GetByName", mock.Anything, "bob").Return(&model.User{ID: 5, UserName: "bob"}, nil).Once()

		u, err := f.svc.Login(ctx, "bob", "pw")
		require.NoError(t, err)
		assert.Equal(t, int64(5), u.ID)
		f.users.AssertExpectations(t)
	})

	t.Run("completing registration fails", func(t *testing.T) {
		f := newUserFixture(t)
		require.NoError(t, f.creds.Put("bob", credential.Hash("pw")))
		f.users.On("GetByName", mock.Anything, "bob").Return(nil, apperr.NotFound("user bob")).Once()
		f.users.On("CreateIfAbsent", mock.Anything, "bob").Return(false, errors.New("db down")).Once()

		_, err := f.svc.Login(ctx, "bob", "pw")
		assert.ErrorIs(t, err, apperr.ErrPartialRegistration)
	})
}

func TestUserService_DeleteAccount(t *testing.T) {
	ctx := context.Background()
	f := newUserFixture(t)
	require.NoError(t, f.creds.Put("alice", credential.Hash("pw")))

	name := "note-3-7-1700000000000.txt"
	full := filepath.Join(f.bodies.Root(), name)
	require.NoError(t, os.WriteFile(full, []byte("big"), 0o600))

	f.users.On("GetByID", mock.Anything, int64(3)).Return(&model.User{ID: 3, UserName: "alice"}, nil).Once()
	f.items.On("DeleteAccount", mock.Anything, int64(3)).Return([]string{name}, nil).Once()

	require.NoError(t, f.svc.DeleteAccount(ctx, 3))

	_, ok, err := f.creds.Get("alice")
	require.NoError(t, err)
	assert.False(t, ok)
	_, err = os.Stat(full)
	assert.True(t, os.IsNotExist(err))
	f.items.AssertExpectations(t)
}

func TestUserService_DeleteAccount_StopsOnRepoError(t *testing.T) {
	f := newUserFixture(t)
	require.NoError(t, f.creds.Put("alice", credential.Hash("pw")))
	f.users.On("GetByID", mock.Anything, int64(3)).Return(&model.User{ID: 3, UserName: "alice"}, nil).Once()
	f.items.On("DeleteAccount", mock.Anything, int64(3)).Return(nil, errors.New("tx failed")).Once()

	assert.Error(t, f.svc.DeleteAccount(context.Background(), 3))

	// учётные данные не тронуты
	_, ok, _ := f.creds.Get("alice")
	assert.True(t, ok)
}

func TestUserService_DeleteAccount_UnknownUser(t *testing.T) {
	f := newUserFixture(t)
	f.users.On("GetByID", mock.Anything, int64(9)).Return(nil, apperr.NotFound("user 9")).Once()

	err := f.svc.DeleteAccount(context.Background(), 9)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	f.items.AssertNotCalled(t, "DeleteAccount", mock.Anything, mock.Anything)
}
