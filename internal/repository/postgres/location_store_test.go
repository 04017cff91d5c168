package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NordCoder/StillbirthNotify/internal/domain/location"
)

var nodeCols = []string{"id", "name", "type", "parent_id", "created_at"}

func setupStore(t *testing.T) (*sql.DB, sqlmock.Sqlmock, *LocationStore) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	return db, mock, NewLocationStoreSQL(db)
}

func TestSubtree_Success(t *testing.T) {
	db, mock, store := setupStore(t)
	defer db.Close()

	now := time.Now()
	rows := sqlmock.NewRows(nodeCols).
		AddRow(1, "Kenya", "national", nil, now).
		AddRow(2, "Nairobi", "county", 1, now).
		AddRow(3, "Ward A", "facility", 2, now)

	mock.ExpectQuery(`WITH RECURSIVE sub AS`).
		WithArgs(int64(1)).
		WillReturnRows(rows)

	nodes, err := store.Subtree(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, nodes, 3)
	assert.Nil(t, nodes[0].ParentID)
	require.NotNil(t, nodes[2].ParentID)
	assert.Equal(t, int64(2), *nodes[2].ParentID)
	assert.Equal(t, location.TypeFacility, nodes[2].Type)

	ids, err := location.NewForest(nodes).AccessibleIDs(1)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3}, ids)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubtree_NotFound(t *testing.T) {
	db, mock, store := setupStore(t)
	defer db.Close()

	mock.ExpectQuery(`WITH RECURSIVE sub AS`).
		WithArgs(int64(99)).
		WillReturnRows(sqlmock.NewRows(nodeCols))

	_, err := store.Subtree(context.Background(), 99)
	assert.ErrorIs(t, err, location.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubtree_QueryError(t *testing.T) {
	db, mock, store := setupStore(t)
	defer db.Close()

	boom := errors.New("connection reset")
	mock.ExpectQuery(`WITH RECURSIVE sub AS`).
		WithArgs(int64(1)).
		WillReturnError(boom)

	_, err := store.Subtree(context.Background(), 1)
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// A cyclic chain is cut by the path guard, but parent_id still exposes the loop.
func TestSubtree_CycleSurfacesInForest(t *testing.T) {
	db, mock, store := setupStore(t)
	defer db.Close()

	now := time.Now()
	rows := sqlmock.NewRows(nodeCols).
		AddRow(1, "A", "county", 2, now).
		AddRow(2, "B", "subcounty", 1, now)

	mock.ExpectQuery(`WITH RECURSIVE sub AS`).
		WithArgs(int64(1)).
		WillReturnRows(rows)

	nodes, err := store.Subtree(context.Background(), 1)
	require.NoError(t, err)

	_, err = location.NewForest(nodes).AccessibleIDs(1)
	assert.ErrorIs(t, err, location.ErrCycle)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAncestry_AttachesUsers(t *testing.T) {
	db, mock, store := setupStore(t)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(`WITH RECURSIVE up AS`).
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows(nodeCols).
			AddRow(3, "Ward A", "facility", 2, now).
			AddRow(2, "Nairobi", "county", 1, now).
			AddRow(1, "Kenya", "national", nil, now))

	mock.ExpectQuery(`FROM users`).
		WithArgs(pq.Array([]int64{3, 2, 1})).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "location_id"}).
			AddRow(10, "national@moh.go.ke", 1).
			AddRow(20, "county@moh.go.ke", 2).
			AddRow(30, "ward@moh.go.ke", 3))

	nodes, err := store.Ancestry(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, nodes, 3)
	assert.Equal(t, []location.UserRef{{ID: 30, Email: "ward@moh.go.ke"}}, nodes[0].Users)
	assert.Equal(t, []location.UserRef{{ID: 10, Email: "national@moh.go.ke"}}, nodes[2].Users)

	users, err := location.NewForest(nodes).ParentUsers(3)
	require.NoError(t, err)
	assert.Equal(t, []int64{30, 20, 10}, []int64{users[0].ID, users[1].ID, users[2].ID})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAncestry_NotFound(t *testing.T) {
	db, mock, store := setupStore(t)
	defer db.Close()

	mock.ExpectQuery(`WITH RECURSIVE up AS`).
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows(nodeCols))

	_, err := store.Ancestry(context.Background(), 5)
	assert.ErrorIs(t, err, location.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAncestry_UsersQueryError(t *testing.T) {
	db, mock, store := setupStore(t)
	defer db.Close()

	mock.ExpectQuery(`WITH RECURSIVE up AS`).
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows(nodeCols).AddRow(3, "Ward A", "facility", nil, time.Now()))
	mock.ExpectQuery(`FROM users`).
		WillReturnError(sql.ErrConnDone)

	_, err := store.Ancestry(context.Background(), 3)
	assert.ErrorIs(t, err, sql.ErrConnDone)
	assert.NoError(t, mock.ExpectationsWereMet())
}
