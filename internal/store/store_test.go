package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *AddressRepository {
	t.Helper()
	db, err := Open("file::memory:?cache=shared&_t=" + t.Name())
	require.NoError(t, err)
	return NewAddressRepository(db)
}

func TestAddressRepository_CRUD(t *testing.T) {
	repo := openTestDB(t)
	ctx := context.Background()

	id, err := repo.Create(ctx, "Maison", -73.5673, 45.5017)
	require.NoError(t, err)
	assert.NotZero(t, id)

	addresses, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, addresses, 1)
	assert.Equal(t, "Maison", addresses[0].Label)
	assert.Equal(t, -73.5673, addresses[0].Lon)
	assert.Equal(t, 45.5017, addresses[0].Lat)

	require.NoError(t, repo.UpdateLabel(ctx, id, "Bureau"))
	addresses, err = repo.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Bureau", addresses[0].Label)

	require.NoError(t, repo.Delete(ctx, id))
	addresses, err = repo.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, addresses)
}

func TestAddressRepository_NotFound(t *testing.T) {
	repo := openTestDB(t)
	ctx := context.Background()

	assert.ErrorIs(t, repo.UpdateLabel(ctx, 42, "x"), ErrAddressNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, 42), ErrAddressNotFound)
}

func TestAddressRepository_ListNewestFirst(t *testing.T) {
	repo := openTestDB(t)
	ctx := context.Background()

	_, err := repo.Create(ctx, "first", -73.56, 45.50)
	require.NoError(t, err)
	_, err = repo.Create(ctx, "second", -73.57, 45.51)
	require.NoError(t, err)

	addresses, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, addresses, 2)
	assert.Equal(t, "second", addresses[0].Label)
}

func TestAlertLog_SeenAndMark(t *testing.T) {
	db, err := Open("file::memory:?cache=shared&_t=alertlog")
	require.NoError(t, err)
	log := NewAlertLog(db)
	ctx := context.Background()

	seen, err := log.Seen(ctx, 1, "P-100")
	require.NoError(t, err)
	assert.False(t, seen)

	require.NoError(t, log.Mark(ctx, 1, "P-100"))

	seen, err = log.Seen(ctx, 1, "P-100")
	require.NoError(t, err)
	assert.True(t, seen)

	// Remarking the same pair does not error
	require.NoError(t, log.Mark(ctx, 1, "P-100"))

	// Other pairs are unaffected
	seen, err = log.Seen(ctx, 2, "P-100")
	require.NoError(t, err)
	assert.False(t, seen)
	seen, err = log.Seen(ctx, 1, "P-200")
	require.NoError(t, err)
	assert.False(t, seen)
}
