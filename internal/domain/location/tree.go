package location

import "fmt"

// Forest is a read-only snapshot of (part of) the location hierarchy.
// It is never mutated after NewForest returns, so it can be shared between goroutines.
type Forest struct {
	nodes    map[int64]*Node
	children map[int64][]int64
}

// NewForest indexes nodes by id and children by parent id. Children keep input order.
// When an id repeats, the first occurrence wins.
func NewForest(nodes []Node) *Forest {
	f := &Forest{
		nodes:    make(map[int64]*Node, len(nodes)),
		children: make(map[int64][]int64),
	}
	for i := range nodes {
		n := nodes[i]
		if _, dup := f.nodes[n.ID]; dup {
			continue
		}
		f.nodes[n.ID] = &n
		if n.ParentID != nil {
			f.children[*n.ParentID] = append(f.children[*n.ParentID], n.ID)
		}
	}
	return f
}

// AccessibleIDs returns id followed by all of its descendants in depth-first pre-order.
func (f *Forest) AccessibleIDs(id int64) ([]int64, error) {
	if _, ok := f.nodes[id]; !ok {
		return nil, fmt.Errorf("location %d: %w", id, ErrNotFound)
	}

	visited := make(map[int64]struct{})
	out := make([]int64, 0, len(f.nodes))

	var walk func(int64) error
	walk = func(cur int64) error {
		if _, seen := visited[cur]; seen {
			return fmt.Errorf("location %d reached twice: %w", cur, ErrCycle)
		}
		visited[cur] = struct{}{}
		out = append(out, cur)
		for _, child := range f.children[cur] {
			if err := walk(child); err != nil {
				return err
			}
		}
		return nil
	}

	if err := walk(id); err != nil {
		return nil, err
	}
	return out, nil
}

// ParentUsers collects the users of id and of every ancestor up to the root,
// deduplicated by user id in first-seen order. A parent outside the snapshot ends the walk.
func (f *Forest) ParentUsers(id int64) ([]UserRef, error) {
	cur, ok := f.nodes[id]
	if !ok {
		return nil, fmt.Errorf("location %d: %w", id, ErrNotFound)
	}

	visited := make(map[int64]struct{})
	seenUsers := make(map[int64]struct{})
	out := make([]UserRef, 0)

	for cur != nil {
		if _, seen := visited[cur.ID]; seen {
			return nil, fmt.Errorf("location %d reached twice: %w", cur.ID, ErrCycle)
		}
		visited[cur.ID] = struct{}{}

		for _, u := range cur.Users {
			if _, dup := seenUsers[u.ID]; dup {
				continue
			}
			seenUsers[u.ID] = struct{}{}
			out = append(out, u)
		}

		if cur.ParentID == nil {
			break
		}
		cur = f.nodes[*cur.ParentID]
	}
	return out, nil
}
