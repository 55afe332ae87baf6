package server

import (
	"fmt"
	"net/http"

	"tradecontrol/src/activation"
	"tradecontrol/src/auth"
	"tradecontrol/src/controlplane"
	"tradecontrol/src/database"
	"tradecontrol/src/handler"
	"tradecontrol/src/metrics"
	"tradecontrol/src/orders"
	"tradecontrol/src/repository"
	"tradecontrol/src/security"
	"tradecontrol/src/stream"

	"github.com/prometheus/client_golang/prometheus"
	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// App is the assembled control plane ready to be served.
type App struct {
	Handler http.Handler
	Hub     *stream.Hub
	Service *controlplane.Service
}

// Build wires repositories on db into the facade and mounts it on a router.
// reg receives the control plane collectors and g is scraped on /metrics.
func Build(db *gorm.DB, cfg *Config, reg prometheus.Registerer, g prometheus.Gatherer) (*App, error) {
	if db == nil {
		return nil, fmt.Errorf("build control plane: nil database")
	}

	sealer, err := security.NewSealerFromEnv()
	if err != nil {
		return nil, fmt.Errorf("build control plane: %w", err)
	}

	settings := repository.NewUserSettingsRepository().WithDB(db)
	store := activation.NewStore(
		settings,
		repository.NewEngineStatusRepository().WithDB(db),
		repository.NewTradingAssetRepository().WithDB(db),
	)
	intake := orders.NewIntake(repository.NewManualOrderRepository().WithDB(db))

	m := metrics.New(reg)
	hub := stream.NewHub(stream.NewOriginChecker(cfg.AllowedOrigins), m)

	svc, err := controlplane.NewService(
		controlplane.GetConfig(),
		store,
		intake,
		settings,
		sealer,
		controlplane.WithNotifier(hub),
		controlplane.WithRecorder(m),
	)
	if err != nil {
		return nil, fmt.Errorf("build control plane: %w", err)
	}

	router := NewRouter(Deps{
		Sessions:       handler.FromService(svc),
		Hub:            hub,
		Metrics:        metrics.Handler(g),
		IdentityHeader: auth.GetConfig().IdentityHeader,
		AllowedOrigins: cfg.AllowedOrigins,
		RequestTimeout: cfg.RequestTimeout,
	})

	return &App{Handler: router, Hub: hub, Service: svc}, nil
}

// Run connects the main database, builds the app and serves it until SIGINT or SIGTERM.
func Run() error {
	if err := database.InitMainDB(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	cfg := GetConfig()
	app, err := Build(database.MainDB, cfg, prometheus.DefaultRegisterer, prometheus.DefaultGatherer)
	if err != nil {
		return err
	}

	logger.WithField("origins", cfg.AllowedOrigins).Info("control plane ready")
	StartServer(cfg, app.Handler, app.Hub)
	return nil
}
