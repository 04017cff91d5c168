package httpx

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/NordCoder/StillbirthNotify/internal/domain/role"
)

var (
	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "api_http_requests_total",
		Help: "HTTP requests by route and status code.",
	}, []string{"method", "route", "code"})
	httpLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "api_http_request_duration_seconds",
		Help:    "HTTP request latency by route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})
)

// Authenticator resolves a bearer token into a Principal.
type Authenticator interface {
	Authenticate(token string) (Principal, error)
}

type HandlerFunc func(w http.ResponseWriter, r *http.Request, params map[string]string) error

// Route is one endpoint. Public routes skip authentication; otherwise Perm, when set,
// must be granted to the caller's role.
type Route struct {
	Method  string
	Pattern string
	Public  bool
	Perm    role.Permission
	Handle  HandlerFunc
}

type Router struct {
	mux   *runtime.ServeMux
	authn Authenticator
	log   *zap.Logger
}

func NewRouter(mux *runtime.ServeMux, authn Authenticator, log *zap.Logger) *Router {
	return &Router{mux: mux, authn: authn, log: log}
}

func (rt *Router) Register(routes ...Route) error {
	for _, route := range routes {
		if err := rt.mux.HandlePath(route.Method, route.Pattern, rt.wrap(route)); err != nil {
			return err
		}
	}
	return nil
}

func (rt *Router) wrap(route Route) runtime.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request, params map[string]string) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, code: http.StatusOK}

		if err := rt.serve(sw, r, params, route); err != nil {
			WriteError(sw, r, rt.log, err)
		}

		httpRequests.WithLabelValues(route.Method, route.Pattern, strconv.Itoa(sw.code)).Inc()
		httpLatency.WithLabelValues(route.Method, route.Pattern).Observe(time.Since(start).Seconds())
	}
}

func (rt *Router) serve(w http.ResponseWriter, r *http.Request, params map[string]string, route Route) error {
	if route.Public {
		return route.Handle(w, r, params)
	}

	token := Bearer(r)
	if token == "" {
		return ErrUnauthenticated
	}
	p, err := rt.authn.Authenticate(token)
	if err != nil {
		return ErrUnauthenticated
	}
	if route.Perm != "" && !p.Can(route.Perm) {
		return ErrForbidden
	}
	return route.Handle(w, r.WithContext(WithPrincipal(r.Context(), p)), params)
}

func Bearer(r *http.Request) string {
	v := r.Header.Get("Authorization")
	if len(v) > 7 && strings.EqualFold(v[:7], "bearer ") {
		return strings.TrimSpace(v[7:])
	}
	return ""
}

type statusWriter struct {
	http.ResponseWriter
	code int
}

func (s *statusWriter) WriteHeader(code int) {
	s.code = code
	s.ResponseWriter.WriteHeader(code)
}
