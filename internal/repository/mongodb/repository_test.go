package mongodb

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskflow/internal/domain"
	"taskflow/internal/repository"
)

// Set TASKFLOW_TEST_MONGO_URL (e.g. mongodb://localhost:27017) to run these tests.
func openTestDatabase(t *testing.T) (repository.UserRepository, repository.TaskRepository) {
	t.Helper()
	uri := os.Getenv("TASKFLOW_TEST_MONGO_URL")
	if uri == "" {
		t.Skip("TASKFLOW_TEST_MONGO_URL not set")
	}

	ctx := context.Background()
	client, err := Connect(ctx, uri)
	require.NoError(t, err)

	db := client.Database("taskflow_test_" + uuid.NewString()[:8])
	t.Cleanup(func() {
		_ = db.Drop(context.Background())
		_ = client.Disconnect(context.Background())
	})

	users := NewUserRepository(db)
	tasks := NewTaskRepository(db)
	require.NoError(t, users.Init(ctx))
	require.NoError(t, tasks.Init(ctx))
	return users, tasks
}

func TestMongoUsers(t *testing.T) {
	users, _ := openTestDatabase(t)
	ctx := context.Background()

	u := &domain.User{FullName: "Dana", Email: "Dana@Example.com", PasswordHash: "h"}
	require.NoError(t, users.Create(ctx, u))
	assert.Len(t, u.ID, 24)

	err := users.Create(ctx, &domain.User{FullName: "Dana 2", Email: "dana@example.com", PasswordHash: "h"})
	assert.ErrorIs(t, err, repository.ErrDuplicate)

	require.NoError(t, users.SetRefreshToken(ctx, u.ID, "r1"))
	got, err := users.GetByEmail(ctx, "DANA@example.com")
	require.NoError(t, err)
	assert.Equal(t, "r1", got.RefreshToken)

	require.NoError(t, users.SetRefreshToken(ctx, u.ID, ""))
	got, err = users.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Empty(t, got.RefreshToken)

	_, err = users.GetByID(ctx, "not-an-object-id")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestMongoTasks(t *testing.T) {
	users, tasks := openTestDatabase(t)
	ctx := context.Background()

	alice := &domain.User{FullName: "Alice", Email: "alice@example.com", PasswordHash: "h"}
	bob := &domain.User{FullName: "Bob", Email: "bob@example.com", PasswordHash: "h"}
	require.NoError(t, users.Create(ctx, alice))
	require.NoError(t, users.Create(ctx, bob))

	first := &domain.Task{Owner: alice.ID, Title: "first", Priority: domain.PriorityLow, Status: "pending"}
	second := &domain.Task{Owner: alice.ID, Title: "second", Priority: domain.PriorityHigh, Status: "pending"}
	require.NoError(t, tasks.Create(ctx, first))
	require.NoError(t, tasks.Create(ctx, second))

	list, err := tasks.ListByOwner(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "second", list[0].Title)
	assert.Equal(t, "first", list[1].Title)

	_, err = tasks.GetForOwner(ctx, first.ID, bob.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	first.Completed = true
	require.NoError(t, tasks.UpdateForOwner(ctx, first))
	got, err := tasks.GetForOwner(ctx, first.ID, alice.ID)
	require.NoError(t, err)
	assert.True(t, got.Completed)

	assert.ErrorIs(t, tasks.DeleteForOwner(ctx, first.ID, bob.ID), repository.ErrNotFound)
	require.NoError(t, tasks.DeleteForOwner(ctx, first.ID, alice.ID))
	assert.ErrorIs(t, tasks.DeleteForOwner(ctx, "bogus", alice.ID), repository.ErrNotFound)
}
