package locations

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/NordCoder/StillbirthNotify/internal/domain/location"
	"github.com/NordCoder/StillbirthNotify/internal/domain/role"
	"github.com/NordCoder/StillbirthNotify/internal/services/api-gateway/httpx"
)

type Hierarchy interface {
	httpx.AccessChecker
	AccessibleIDs(ctx context.Context, id int64) ([]int64, error)
	ParentUsers(ctx context.Context, id int64) ([]location.UserRef, error)
}

// Invalidator drops cached hierarchy snapshots after a write.
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

type Server struct {
	log   *zap.Logger
	repo  location.Repo
	tree  Hierarchy
	cache Invalidator
}

// NewServer accepts a nil cache when snapshot caching is disabled.
func NewServer(repo location.Repo, tree Hierarchy, cache Invalidator, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{log: log.With(zap.String("component", "api.locations")), repo: repo, tree: tree, cache: cache}
}

func (s *Server) Routes() []httpx.Route {
	return []httpx.Route{
		{Method: http.MethodPost, Pattern: "/v1/locations", Perm: role.LocationsWrite, Handle: s.Create},
		{Method: http.MethodGet, Pattern: "/v1/locations/{id}", Perm: role.LocationsRead, Handle: s.Get},
		{Method: http.MethodGet, Pattern: "/v1/locations/{id}/children", Perm: role.LocationsRead, Handle: s.Children},
		{Method: http.MethodGet, Pattern: "/v1/locations/{id}/accessible", Perm: role.LocationsRead, Handle: s.Accessible},
		{Method: http.MethodGet, Pattern: "/v1/locations/{id}/parent-users", Perm: role.UsersRead, Handle: s.ParentUsers},
	}
}

type createRequest struct {
	Name     string        `json:"name"`
	Type     location.Type `json:"type"`
	ParentID *int64        `json:"parent_id"`
}

func (s *Server) Create(w http.ResponseWriter, r *http.Request, _ map[string]string) error {
	var req createRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		return err
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return httpx.Invalid("name is required")
	}
	if !req.Type.Valid() {
		return httpx.Invalid("unknown location type %q", req.Type)
	}

	ctx := r.Context()
	if req.ParentID == nil {
		// Only admins may add a new root.
		if p, _ := httpx.PrincipalFrom(ctx); p.Role != role.Admin {
			return httpx.Invalid("parent_id is required")
		}
	} else if err := httpx.RequireAccess(ctx, s.tree, *req.ParentID); err != nil {
		return err
	}

	n := &location.Node{Name: req.Name, Type: req.Type, ParentID: req.ParentID}
	if err := s.repo.Create(ctx, n); err != nil {
		return err
	}
	s.invalidate(ctx)

	s.log.Info("location created", zap.Int64("id", n.ID), zap.String("type", string(n.Type)))
	httpx.WriteJSON(w, http.StatusCreated, n)
	return nil
}

func (s *Server) Get(w http.ResponseWriter, r *http.Request, params map[string]string) error {
	id, err := s.accessibleID(r, params)
	if err != nil {
		return err
	}
	n, err := s.repo.GetByID(r.Context(), id)
	if err != nil {
		return err
	}
	users, err := s.repo.ListUsers(r.Context(), id)
	if err != nil {
		return err
	}
	n.Users = users
	httpx.WriteJSON(w, http.StatusOK, n)
	return nil
}

func (s *Server) Children(w http.ResponseWriter, r *http.Request, params map[string]string) error {
	id, err := s.accessibleID(r, params)
	if err != nil {
		return err
	}
	children, err := s.repo.ListChildren(r.Context(), id)
	if err != nil {
		return err
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"items": children})
	return nil
}

func (s *Server) Accessible(w http.ResponseWriter, r *http.Request, params map[string]string) error {
	id, err := s.accessibleID(r, params)
	if err != nil {
		return err
	}
	ids, err := s.tree.AccessibleIDs(r.Context(), id)
	if err != nil {
		return err
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"location_ids": ids})
	return nil
}

func (s *Server) ParentUsers(w http.ResponseWriter, r *http.Request, params map[string]string) error {
	id, err := s.accessibleID(r, params)
	if err != nil {
		return err
	}
	users, err := s.tree.ParentUsers(r.Context(), id)
	if err != nil {
		return err
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"users": users})
	return nil
}

func (s *Server) accessibleID(r *http.Request, params map[string]string) (int64, error) {
	id, err := httpx.PathInt64(params, "id")
	if err != nil {
		return 0, err
	}
	if err := httpx.RequireAccess(r.Context(), s.tree, id); err != nil {
		return 0, err
	}
	return id, nil
}

func (s *Server) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		s.log.Warn("location cache invalidate failed", zap.Error(err))
	}
}
