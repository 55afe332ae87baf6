package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tradecontrol/src/auth"
	"tradecontrol/src/controlplane"
	"tradecontrol/src/handler"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	logger "github.com/sirupsen/logrus"
)

type streamHub interface {
	Serve(w http.ResponseWriter, r *http.Request, userID string, current func() controlplane.Snapshot) error
	Close()
}

// Deps are the collaborators the router mounts.
type Deps struct {
	Sessions       handler.SessionFunc
	Hub            streamHub
	Metrics        http.Handler
	IdentityHeader string
	AllowedOrigins []string
	RequestTimeout time.Duration
}

func NewRouter(d Deps) chi.Router {
	if d.RequestTimeout <= 0 {
		d.RequestTimeout = 30 * time.Second
	}

	r := chi.NewRouter()
	// === Global Middleware ===
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", d.IdentityHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Public routes
	r.Get("/healthcheck", func(w http.ResponseWriter, r *http.Request) {
		if _, err := w.Write([]byte("OK")); err != nil {
			logger.WithError(err).Error("healthcheck write error")
		}
	})
	if d.Metrics != nil {
		r.Handle("/metrics", d.Metrics)
	}

	r.Route("/api/v1/control", func(r chi.Router) {
		r.Use(auth.IdentityMiddleware(d.IdentityHeader))

		if d.Hub != nil {
			r.Get("/stream", handler.StreamHandler(d.Sessions, d.Hub))
		}

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(d.RequestTimeout))

			r.Get("/", handler.ControlStatusHandler(d.Sessions))
			r.Post("/account/toggle", handler.ToggleAccountHandler(d.Sessions))
			r.Post("/assets/{assetID}/toggle", handler.ToggleAssetHandler(d.Sessions))
			r.Post("/engine/start", handler.StartEngineHandler(d.Sessions))
			r.Post("/engine/stop", handler.StopEngineHandler(d.Sessions))
			r.Get("/orders", handler.RecentOrdersHandler(d.Sessions))
			r.Post("/orders", handler.SubmitOrderHandler(d.Sessions))
			r.Get("/settings", handler.GetRiskSettingsHandler(d.Sessions))
			r.Put("/settings", handler.SaveRiskSettingsHandler(d.Sessions))
		})
	})

	return r
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		logger.WithFields(map[string]interface{}{
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     ww.Status(),
			"bytes":      ww.BytesWritten(),
			"duration":   time.Since(start).String(),
			"request_id": middleware.GetReqID(r.Context()),
		}).Debug("HTTP request")
	})
}

// StartServer serves h until SIGINT or SIGTERM, then drains in-flight
// requests and closes the stream hub.
func StartServer(cfg *Config, h http.Handler, hub streamHub) {
	// Graceful server
	addr := ":" + cfg.Port
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Infof("Listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("Server crashed")
		}
	}()

	// Shutdown on SIGINT or SIGTERM
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("Shutting down gracefully...")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if hub != nil {
		hub.Close()
	}
	if err := srv.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("Shutdown error")
	}
}
