package roles

import (
	"net/http"

	"github.com/NordCoder/StillbirthNotify/internal/domain/role"
	"github.com/NordCoder/StillbirthNotify/internal/services/api-gateway/httpx"
)

type Server struct{}

func NewServer() *Server { return &Server{} }

func (s *Server) Routes() []httpx.Route {
	return []httpx.Route{
		{Method: http.MethodGet, Pattern: "/v1/roles", Handle: s.List},
		{Method: http.MethodGet, Pattern: "/v1/roles/{role}/permissions", Handle: s.Permissions},
	}
}

type roleView struct {
	Role        role.Role         `json:"role"`
	Permissions []role.Permission `json:"permissions"`
}

func (s *Server) List(w http.ResponseWriter, _ *http.Request, _ map[string]string) error {
	all := role.All()
	out := make([]roleView, 0, len(all))
	for _, r := range all {
		out = append(out, roleView{Role: r, Permissions: role.Permissions(r)})
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"items": out})
	return nil
}

func (s *Server) Permissions(w http.ResponseWriter, _ *http.Request, params map[string]string) error {
	r, err := role.Parse(params["role"])
	if err != nil {
		return err
	}
	httpx.WriteJSON(w, http.StatusOK, roleView{Role: r, Permissions: role.Permissions(r)})
	return nil
}
