package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/editgrid/internal/crud"
	"github.com/roach88/editgrid/internal/grid"
)

func TestPutEntity_CreateThenUpdate(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	created, err := s.PutEntity(ctx, "Commission", "1", grid.Record{"id": "1", "percentage": 10.5})
	require.NoError(t, err)
	assert.True(t, created)

	created, err = s.PutEntity(ctx, "Commission", "1", grid.Record{"id": "1", "percentage": 20})
	require.NoError(t, err)
	assert.False(t, created)

	got, err := s.GetEntity(ctx, "Commission", "1")
	require.NoError(t, err)
	assert.Equal(t, grid.Record{"id": "1", "percentage": float64(20)}, got)
}

func TestListEntities_InsertionOrder(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	for _, key := range []string{"c", "a", "b"} {
		_, err := s.PutEntity(ctx, "T", key, grid.Record{"id": key})
		require.NoError(t, err)
	}
	// an update keeps the original position
	_, err := s.PutEntity(ctx, "T", "c", grid.Record{"id": "c", "v": true})
	require.NoError(t, err)

	rows, err := s.ListEntities(ctx, "T")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "c", rows[0]["id"])
	assert.Equal(t, true, rows[0]["v"])
	assert.Equal(t, "a", rows[1]["id"])
	assert.Equal(t, "b", rows[2]["id"])
}

func TestListEntities_TablesAreIsolated(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	_, err := s.PutEntity(ctx, "A", "1", grid.Record{"id": "1"})
	require.NoError(t, err)
	_, err = s.PutEntity(ctx, "B", "1", grid.Record{"id": "1", "b": "x"})
	require.NoError(t, err)

	rows, err := s.ListEntities(ctx, "A")
	require.NoError(t, err)
	assert.Equal(t, []grid.Record{{"id": "1"}}, rows)
}

func TestGetEntity_NotFound(t *testing.T) {
	s := createTestStore(t)
	_, err := s.GetEntity(context.Background(), "T", "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteEntity(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	_, err := s.PutEntity(ctx, "T", "1", grid.Record{"id": "1"})
	require.NoError(t, err)

	require.NoError(t, s.DeleteEntity(ctx, "T", "1"))
	assert.ErrorIs(t, s.DeleteEntity(ctx, "T", "1"), ErrNotFound)

	n, err := s.CountEntities(ctx, "T")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRowLimit(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SetLimit(ctx, "Dividend", 2))
	limit, ok, err := s.Limit(ctx, "Dividend")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 2, limit)

	for _, key := range []string{"1", "2"} {
		_, err := s.PutEntity(ctx, "Dividend", key, grid.Record{"id": key})
		require.NoError(t, err)
	}

	_, err = s.PutEntity(ctx, "Dividend", "3", grid.Record{"id": "3"})
	var le *crud.LimitExceededError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, "Dividend", le.Entity)
	assert.Equal(t, 2, le.Limit)

	_, err = s.PutEntity(ctx, "Dividend", "2", grid.Record{"id": "2", "changed": true})
	assert.NoError(t, err, "updates are allowed at the limit")

	require.NoError(t, s.SetLimit(ctx, "Dividend", -1))
	_, ok, err = s.Limit(ctx, "Dividend")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = s.PutEntity(ctx, "Dividend", "3", grid.Record{"id": "3"})
	assert.NoError(t, err)
}

func TestPutEntity_CanonicalStorage(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	_, err := s.PutEntity(ctx, "T", "1", grid.Record{"z": "<b>", "a": 1})
	require.NoError(t, err)

	var data string
	require.NoError(t, s.DB().QueryRow("SELECT data FROM entities WHERE key = '1'").Scan(&data))
	assert.Equal(t, `{"a":1,"z":"<b>"}`, data)
}
