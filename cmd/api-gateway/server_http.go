package main

import (
	"context"
	"net/http"
	"time"

	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"go.uber.org/zap"

	config "github.com/NordCoder/StillbirthNotify/internal/config/api-gateway"
	"github.com/NordCoder/StillbirthNotify/internal/domain/location"
	"github.com/NordCoder/StillbirthNotify/internal/obs"
	pg "github.com/NordCoder/StillbirthNotify/internal/repository/postgres"
	"github.com/NordCoder/StillbirthNotify/internal/services/api-gateway/auth"
	"github.com/NordCoder/StillbirthNotify/internal/services/api-gateway/httpx"
	"github.com/NordCoder/StillbirthNotify/internal/services/api-gateway/locations"
	"github.com/NordCoder/StillbirthNotify/internal/services/api-gateway/notifications"
	"github.com/NordCoder/StillbirthNotify/internal/services/api-gateway/reports"
	"github.com/NordCoder/StillbirthNotify/internal/services/api-gateway/roles"
	"github.com/NordCoder/StillbirthNotify/internal/services/api-gateway/users"
)

func buildHTTPServer(cfg *config.Config, logger *zap.Logger, db *pg.DB, hs hierarchyStore) (*http.Server, error) {
	userRepo := pg.NewUserRepo(db)
	notifRepo := pg.NewNotificationRepo(db, logger)
	tree := location.NewHierarchy(hs.store)

	authUC := auth.NewUseCase(userRepo, pg.NewRefreshTokenRepo(db), auth.Config{
		Secret:     []byte(cfg.Auth.JWTSecret),
		AccessTTL:  cfg.Auth.AccessTTL,
		RefreshTTL: cfg.Auth.RefreshTTL,
	})
	authSrv := auth.NewServer(authUC, userRepo, auth.Opts{
		Logger:       logger,
		CookieName:   cfg.Auth.CookieName,
		CookieDomain: cfg.Auth.CookieDomain,
		CookiePath:   cfg.Auth.CookiePath,
		CookieSecure: cfg.Auth.CookieSecure,
		RefreshTTL:   cfg.Auth.RefreshTTL,
	})
	notifUC := notifications.NewUseCase(notifRepo, pg.NewTransactor(db, logger), pg.NewOutboxRepo(db), cfg.Notifications.Zone, logger)

	mux := runtime.NewServeMux()
	router := httpx.NewRouter(mux, authUC, logger)
	groups := [][]httpx.Route{
		authSrv.Routes(),
		roles.NewServer().Routes(),
		users.NewServer(userRepo, tree, hs.invalidator, logger).Routes(),
		locations.NewServer(pg.NewLocationRepo(db), tree, hs.invalidator, logger).Routes(),
		notifications.NewServer(notifUC, tree).Routes(),
		reports.NewServer(notifRepo, tree, logger).Routes(),
	}
	for _, g := range groups {
		if err := router.Register(g...); err != nil {
			return nil, err
		}
	}

	root := http.NewServeMux()
	root.Handle("/", mux)
	root.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		hctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
		defer cancel()
		if err := db.Pool.Ping(hctx); err != nil {
			http.Error(w, "unhealthy: db", http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("ok"))
	})

	return &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           obs.HTTPHandler(root, "api-gateway"),
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}, nil
}

func serveHTTP(srv *http.Server, logger *zap.Logger) error {
	logger.Info("http listening", zap.String("addr", srv.Addr))
	return srv.ListenAndServe()
}
