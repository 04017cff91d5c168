package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/NordCoder/StillbirthNotify/internal/domain/location"
)

var _ location.Store = (*LocationStore)(nil)

// LocationStore loads hierarchy snapshots with recursive CTEs.
// The path column stops the recursion on a cyclic parent chain; the cycle itself
// stays visible through parent_id and is reported by location.Forest.
type LocationStore struct {
	db      *sql.DB
	timeout func(context.Context) (context.Context, context.CancelFunc)
}

func NewLocationStore(db *DB) *LocationStore {
	return &LocationStore{db: db.SQL, timeout: db.withTimeout}
}

// NewLocationStoreSQL builds a store over a plain *sql.DB.
func NewLocationStoreSQL(db *sql.DB) *LocationStore {
	return &LocationStore{db: db, timeout: func(ctx context.Context) (context.Context, context.CancelFunc) {
		return ctx, func() {}
	}}
}

const (
	qSubtree = `
WITH RECURSIVE sub AS (
    SELECT id, name, type, parent_id, created_at, ARRAY[id] AS path
    FROM locations
    WHERE id = $1
    UNION ALL
    SELECT l.id, l.name, l.type, l.parent_id, l.created_at, s.path || l.id
    FROM locations l
    JOIN sub s ON l.parent_id = s.id
    WHERE NOT l.id = ANY(s.path)
)
SELECT id, name, type, parent_id, created_at
FROM sub
ORDER BY path;`

	qAncestry = `
WITH RECURSIVE up AS (
    SELECT id, name, type, parent_id, created_at, ARRAY[id] AS path
    FROM locations
    WHERE id = $1
    UNION ALL
    SELECT l.id, l.name, l.type, l.parent_id, l.created_at, u.path || l.id
    FROM locations l
    JOIN up u ON l.id = u.parent_id
    WHERE NOT l.id = ANY(u.path)
)
SELECT id, name, type, parent_id, created_at
FROM up
ORDER BY array_length(path, 1);`

	qUsersByLocations = `
SELECT id, email, location_id
FROM users
WHERE location_id = ANY($1) AND is_active
ORDER BY location_id, id;`
)

func (s *LocationStore) Subtree(ctx context.Context, rootID int64) ([]location.Node, error) {
	ctx, cancel := s.timeout(ctx)
	defer cancel()

	nodes, err := s.queryNodes(ctx, qSubtree, rootID)
	if err != nil {
		return nil, fmt.Errorf("subtree %d: %w", rootID, err)
	}
	if len(nodes) == 0 {
		return nil, fmt.Errorf("location %d: %w", rootID, location.ErrNotFound)
	}
	return nodes, nil
}

// Ancestry returns id and its ancestors nearest first, each carrying its active users.
func (s *LocationStore) Ancestry(ctx context.Context, id int64) ([]location.Node, error) {
	ctx, cancel := s.timeout(ctx)
	defer cancel()

	nodes, err := s.queryNodes(ctx, qAncestry, id)
	if err != nil {
		return nil, fmt.Errorf("ancestry %d: %w", id, err)
	}
	if len(nodes) == 0 {
		return nil, fmt.Errorf("location %d: %w", id, location.ErrNotFound)
	}

	ids := make([]int64, len(nodes))
	index := make(map[int64]int, len(nodes))
	for i, n := range nodes {
		ids[i] = n.ID
		index[n.ID] = i
	}

	rows, err := s.db.QueryContext(ctx, qUsersByLocations, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("ancestry users: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			u   location.UserRef
			loc int64
		)
		if err := rows.Scan(&u.ID, &u.Email, &loc); err != nil {
			return nil, fmt.Errorf("scan ancestry user: %w", err)
		}
		if i, ok := index[loc]; ok {
			nodes[i].Users = append(nodes[i].Users, u)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ancestry users: %w", err)
	}
	return nodes, nil
}

func (s *LocationStore) queryNodes(ctx context.Context, query string, id int64) ([]location.Node, error) {
	rows, err := s.db.QueryContext(ctx, query, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []location.Node
	for rows.Next() {
		var (
			n      location.Node
			typ    string
			parent sql.NullInt64
		)
		if err := rows.Scan(&n.ID, &n.Name, &typ, &parent, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan location: %w", err)
		}
		n.Type = location.Type(typ)
		if parent.Valid {
			p := parent.Int64
			n.ParentID = &p
		}
		out = append(out, n)
	}
	return out, rows.Err()
}
