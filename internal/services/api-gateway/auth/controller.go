package auth

import (
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/NordCoder/StillbirthNotify/internal/domain/user"
	"github.com/NordCoder/StillbirthNotify/internal/services/api-gateway/httpx"
)

type Server struct {
	log          *zap.Logger
	uc           *Usecase
	users        user.Repo
	cookieName   string
	cookieDomain string
	cookiePath   string
	cookieSecure bool
	refreshTTL   time.Duration
}

type Opts struct {
	Logger       *zap.Logger
	CookieName   string
	CookieDomain string
	CookiePath   string
	CookieSecure bool
	RefreshTTL   time.Duration
}

func NewServer(uc *Usecase, users user.Repo, o Opts) *Server {
	log := o.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{
		log:          log.With(zap.String("component", "api.auth")),
		uc:           uc,
		users:        users,
		cookieName:   o.CookieName,
		cookieDomain: o.CookieDomain,
		cookiePath:   o.CookiePath,
		cookieSecure: o.CookieSecure,
		refreshTTL:   o.RefreshTTL,
	}
}

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	AccessToken string     `json:"access_token"`
	User        *user.User `json:"user,omitempty"`
}

func (s *Server) Routes() []httpx.Route {
	return []httpx.Route{
		{Method: http.MethodPost, Pattern: "/v1/auth/sign-in", Public: true, Handle: s.SignIn},
		{Method: http.MethodPost, Pattern: "/v1/auth/refresh", Public: true, Handle: s.Refresh},
		{Method: http.MethodPost, Pattern: "/v1/auth/logout", Public: true, Handle: s.Logout},
		{Method: http.MethodGet, Pattern: "/v1/me", Handle: s.Me},
	}
}

func (s *Server) SignIn(w http.ResponseWriter, r *http.Request, _ map[string]string) error {
	var req signInRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		return err
	}
	if req.Email == "" || req.Password == "" {
		return httpx.Invalid("email and password are required")
	}

	s.log.Info("auth.signin", zap.String("email", NormalizeEmail(req.Email)))

	u, access, refresh, err := s.uc.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		return s.mapErr(err)
	}

	s.setRefreshCookie(w, refresh)
	httpx.WriteJSON(w, http.StatusOK, authResponse{AccessToken: access, User: u})
	return nil
}

func (s *Server) Refresh(w http.ResponseWriter, r *http.Request, _ map[string]string) error {
	access, refresh, err := s.uc.Refresh(r.Context(), s.refreshFromRequest(r))
	if err != nil {
		s.clearRefreshCookie(w)
		return s.mapErr(err)
	}

	s.setRefreshCookie(w, refresh)
	httpx.WriteJSON(w, http.StatusOK, authResponse{AccessToken: access})
	return nil
}

func (s *Server) Logout(w http.ResponseWriter, r *http.Request, _ map[string]string) error {
	if err := s.uc.Logout(r.Context(), s.refreshFromRequest(r)); err != nil {
		s.log.Warn("auth.logout revoke failed", zap.Error(err))
	}
	s.clearRefreshCookie(w)
	w.WriteHeader(http.StatusNoContent)
	return nil
}

func (s *Server) Me(w http.ResponseWriter, r *http.Request, _ map[string]string) error {
	p, ok := httpx.PrincipalFrom(r.Context())
	if !ok {
		return httpx.ErrUnauthenticated
	}
	u, err := s.users.GetByID(r.Context(), p.UserID)
	if err != nil {
		return err
	}
	httpx.WriteJSON(w, http.StatusOK, u)
	return nil
}

func (s *Server) mapErr(err error) error {
	switch {
	case errors.Is(err, ErrInvalidCredentials):
		return errors.Join(httpx.ErrUnauthenticated, err)
	case errors.Is(err, ErrWeakPassword):
		return errors.Join(httpx.ErrInvalidInput, err)
	default:
		return err
	}
}

func (s *Server) setRefreshCookie(w http.ResponseWriter, raw string) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.cookieName,
		Value:    raw,
		Path:     s.cookiePath,
		Domain:   s.cookieDomain,
		HttpOnly: true,
		Secure:   s.cookieSecure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(s.refreshTTL.Seconds()),
		Expires:  time.Now().Add(s.refreshTTL).UTC(),
	})
}

func (s *Server) clearRefreshCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.cookieName,
		Value:    "",
		Path:     s.cookiePath,
		Domain:   s.cookieDomain,
		HttpOnly: true,
		Secure:   s.cookieSecure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0).UTC(),
	})
}

func (s *Server) refreshFromRequest(r *http.Request) string {
	if c, err := r.Cookie(s.cookieName); err == nil && c.Value != "" {
		return c.Value
	}
	return r.Header.Get("X-Refresh-Token")
}
