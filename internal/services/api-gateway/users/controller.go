package users

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/NordCoder/StillbirthNotify/internal/domain/role"
	"github.com/NordCoder/StillbirthNotify/internal/domain/user"
	"github.com/NordCoder/StillbirthNotify/internal/services/api-gateway/auth"
	"github.com/NordCoder/StillbirthNotify/internal/services/api-gateway/httpx"
	"github.com/NordCoder/StillbirthNotify/internal/services/api-gateway/locations"
)

type Server struct {
	log    *zap.Logger
	repo   user.Repo
	access httpx.AccessChecker
	cache  locations.Invalidator
}

// NewServer accepts a nil cache when snapshot caching is disabled. Cached
// snapshots carry the users of each location, so user writes invalidate them.
func NewServer(repo user.Repo, access httpx.AccessChecker, cache locations.Invalidator, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{log: log.With(zap.String("component", "api.users")), repo: repo, access: access, cache: cache}
}

func (s *Server) Routes() []httpx.Route {
	return []httpx.Route{
		{Method: http.MethodPost, Pattern: "/v1/users", Perm: role.UsersWrite, Handle: s.Create},
		{Method: http.MethodGet, Pattern: "/v1/users/{id}", Perm: role.UsersRead, Handle: s.Get},
	}
}

type createRequest struct {
	Email      string `json:"email"`
	Name       string `json:"name"`
	Password   string `json:"password"`
	Role       string `json:"role"`
	LocationID int64  `json:"location_id"`
}

func (s *Server) Create(w http.ResponseWriter, r *http.Request, _ map[string]string) error {
	var req createRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		return err
	}

	email := auth.NormalizeEmail(req.Email)
	if email == "" || !strings.Contains(email, "@") {
		return httpx.Invalid("a valid email is required")
	}
	rl, err := role.Parse(req.Role)
	if err != nil {
		return httpx.Invalid("unknown role %q", req.Role)
	}
	if req.LocationID <= 0 {
		return httpx.Invalid("location_id is required")
	}

	ctx := r.Context()
	if err := httpx.RequireAccess(ctx, s.access, req.LocationID); err != nil {
		return err
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return httpx.Invalid("%v", err)
	}

	u := &user.User{
		Email:      email,
		Name:       strings.TrimSpace(req.Name),
		Password:   hash,
		Role:       rl,
		LocationID: req.LocationID,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return err
	}
	invalidate(ctx, s.cache, s.log)

	s.log.Info("user created", zap.Int64("id", u.ID), zap.String("role", string(u.Role)), zap.Int64("location_id", u.LocationID))
	httpx.WriteJSON(w, http.StatusCreated, u)
	return nil
}

func (s *Server) Get(w http.ResponseWriter, r *http.Request, params map[string]string) error {
	id, err := httpx.PathInt64(params, "id")
	if err != nil {
		return err
	}
	u, err := s.repo.GetByID(r.Context(), id)
	if err != nil {
		return err
	}
	if err := httpx.RequireAccess(r.Context(), s.access, u.LocationID); err != nil {
		return err
	}
	httpx.WriteJSON(w, http.StatusOK, u)
	return nil
}

func invalidate(ctx context.Context, cache locations.Invalidator, log *zap.Logger) {
	if cache == nil {
		return
	}
	if err := cache.Invalidate(ctx); err != nil {
		log.Warn("location cache invalidate failed", zap.Error(err))
	}
}
