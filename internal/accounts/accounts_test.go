package accounts

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/hongminglow/fraudpulse-be/internal/models"
	"github.com/hongminglow/fraudpulse-be/internal/storage"
	"github.com/hongminglow/fraudpulse-be/internal/storage/sqlite"
)

func newService(t *testing.T, logOut io.Writer) (*Service, *sqlite.Store) {
	t.Helper()
	store, err := sqlite.New(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(store.Close)
	if logOut == nil {
		logOut = io.Discard
	}
	logger := slog.New(slog.NewJSONHandler(logOut, nil))
	return NewService(store, logger, WithHashCost(bcrypt.MinCost)), store
}

func TestAuthenticate(t *testing.T) {
	ctx := context.Background()
	var logs bytes.Buffer
	svc, _ := newService(t, &logs)

	alice, err := svc.Create(ctx, "alice", "pw1", false)
	require.NoError(t, err)
	assert.False(t, alice.IsAdmin)

	got, err := svc.Authenticate(ctx, "alice", "pw1")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, got.ID)
	assert.Equal(t, "alice", got.Username)
	assert.False(t, got.IsAdmin)

	_, wrongPassword := svc.Authenticate(ctx, "alice", "wrong")
	_, unknownUser := svc.Authenticate(ctx, "bob", "anything")
	assert.ErrorIs(t, wrongPassword, ErrInvalidCredentials)
	assert.ErrorIs(t, unknownUser, ErrInvalidCredentials)
	assert.Equal(t, wrongPassword.Error(), unknownUser.Error())

	out := logs.String()
	assert.Contains(t, out, `"reason":"bad_password"`)
	assert.Contains(t, out, `"reason":"unknown_user"`)
	assert.NotContains(t, out, "pw1")
	assert.NotContains(t, out, "anything")
}

func TestPasswordIsHashed(t *testing.T) {
	ctx := context.Background()
	svc, store := newService(t, nil)

	_, err := svc.Create(ctx, "alice", "pw1", false)
	require.NoError(t, err)

	stored, err := store.FindEmployeeByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.NotEqual(t, "pw1", stored.PasswordHash)
	assert.True(t, strings.HasPrefix(stored.PasswordHash, "$2"))
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("pw1")))
}

func TestCreateDuplicate(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t, nil)

	_, err := svc.Create(ctx, "alice", "pw1", false)
	require.NoError(t, err)
	_, err = svc.Create(ctx, "alice", "pw2", true)
	assert.ErrorIs(t, err, storage.ErrAlreadyExists)

	// case-sensitive: a different username
	_, err = svc.Create(ctx, "Alice", "pw2", false)
	assert.NoError(t, err)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestCreateRequiresCredentials(t *testing.T) {
	svc, _ := newService(t, nil)
	_, err := svc.Create(context.Background(), "  ", "pw", false)
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = svc.Create(context.Background(), "dave", "", false)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestListInInsertionOrder(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t, nil)
	for _, name := range []string{"zoe", "adam", "mia"} {
		_, err := svc.Create(ctx, name, "pw", false)
		require.NoError(t, err)
	}
	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []string{"zoe", "adam", "mia"}, []string{list[0].Username, list[1].Username, list[2].Username})
}

func TestUpdateBlankPasswordKeepsHash(t *testing.T) {
	ctx := context.Background()
	svc, store := newService(t, nil)

	alice, err := svc.Create(ctx, "alice", "pw1", false)
	require.NoError(t, err)
	before, err := store.FindEmployeeByID(ctx, alice.ID)
	require.NoError(t, err)

	updated, err := svc.Update(ctx, alice.ID, "alice.smith", "", true)
	require.NoError(t, err)
	assert.Equal(t, "alice.smith", updated.Username)
	assert.True(t, updated.IsAdmin)

	after, err := store.FindEmployeeByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, before.PasswordHash, after.PasswordHash)

	_, err = svc.Authenticate(ctx, "alice.smith", "pw1")
	assert.NoError(t, err)
}

func TestUpdateChangesPassword(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t, nil)

	alice, err := svc.Create(ctx, "alice", "pw1", true)
	require.NoError(t, err)
	updated, err := svc.Update(ctx, alice.ID, "alice", "pw2", false)
	require.NoError(t, err)
	assert.False(t, updated.IsAdmin)

	_, err = svc.Authenticate(ctx, "alice", "pw1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Authenticate(ctx, "alice", "pw2")
	assert.NoError(t, err)
}

func TestUpdateErrors(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t, nil)

	_, err := svc.Update(ctx, 42, "ghost", "", false)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	_, err = svc.Create(ctx, "alice", "pw", false)
	require.NoError(t, err)
	bob, err := svc.Create(ctx, "bob", "pw", false)
	require.NoError(t, err)

	_, err = svc.Update(ctx, bob.ID, "alice", "", false)
	assert.ErrorIs(t, err, storage.ErrAlreadyExists)

	_, err = svc.Update(ctx, bob.ID, "", "", false)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestDeleteSelfIsRefused(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t, nil)

	admin, err := svc.Create(ctx, "admin", "pw", true)
	require.NoError(t, err)
	other, err := svc.Create(ctx, "other", "pw", false)
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Delete(ctx, admin.ID, admin.ID), ErrSelfDeletion)
	assert.ErrorIs(t, svc.Delete(ctx, other.ID, other.ID), ErrSelfDeletion)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	require.NoError(t, svc.Delete(ctx, admin.ID, other.ID))
	list, err = svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, admin.ID, list[0].ID)

	assert.ErrorIs(t, svc.Delete(ctx, admin.ID, other.ID), storage.ErrNotFound)
}

func TestEnsureBootstrapAdminIsIdempotent(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t, nil)

	created, err := svc.EnsureBootstrapAdmin(ctx, "admin", "admin123")
	require.NoError(t, err)
	assert.True(t, created)

	created, err = svc.EnsureBootstrapAdmin(ctx, "admin", "admin123")
	require.NoError(t, err)
	assert.False(t, created)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.True(t, list[0].IsAdmin)

	admin, err := svc.Authenticate(ctx, "admin", "admin123")
	require.NoError(t, err)
	assert.True(t, admin.IsAdmin)
}

type brokenStore struct {
	storage.EmployeeStore
}

var errDiskFull = errors.New("disk full")

func (brokenStore) FindEmployeeByUsername(context.Context, string) (models.Employee, error) {
	return models.Employee{}, storage.ErrNotFound
}

func (brokenStore) CreateEmployee(context.Context, models.Employee) (models.Employee, error) {
	return models.Employee{}, errDiskFull
}

func (brokenStore) DeleteEmployee(context.Context, int64) error {
	return errDiskFull
}

func TestWriteFailuresSurface(t *testing.T) {
	svc := NewService(brokenStore{}, slog.New(slog.NewTextHandler(io.Discard, nil)), WithHashCost(bcrypt.MinCost))

	_, err := svc.Create(context.Background(), "alice", "pw", false)
	assert.ErrorIs(t, err, errDiskFull)
	assert.NotErrorIs(t, err, storage.ErrAlreadyExists)

	err = svc.Delete(context.Background(), 1, 2)
	assert.ErrorIs(t, err, errDiskFull)

	_, err = svc.EnsureBootstrapAdmin(context.Background(), "admin", "admin123")
	assert.ErrorIs(t, err, errDiskFull)
}

func TestInvalidHashCostFallsBack(t *testing.T) {
	store, err := sqlite.New(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(store.Close)

	var logs bytes.Buffer
	svc := NewService(store, slog.New(slog.NewJSONHandler(&logs, nil)), WithHashCost(bcrypt.MaxCost+1))
	assert.Equal(t, bcrypt.DefaultCost, svc.cost)
	assert.Contains(t, logs.String(), "bcrypt cost out of range")

	cost, err := bcrypt.Cost(svc.dummyHash)
	require.NoError(t, err)
	assert.Equal(t, bcrypt.DefaultCost, cost)
}
