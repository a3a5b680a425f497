package main

import (
	"context"
	"net/http"
	_ "net/http/pprof"

	"github.com/heptiolabs/healthcheck"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/ledgerline/erpcore/internal/database"
	"github.com/ledgerline/erpcore/internal/logging"
	"github.com/ledgerline/erpcore/internal/shutdown"
)

var buildtime string

func setupMetricsAndHealthcheck() healthcheck.Handler {
	// pprof
	go func() {
		/* #nosec G114 */
		err := http.ListenAndServe("localhost:1337", nil)
		if err != nil {
			zap.S().Errorf("Error starting pprof: %s", err)
		}
	}()

	metricsPath := "/metrics"
	metricsPort := ":2112"
	zap.S().Debugf("Setting up metrics %s %v", metricsPath, metricsPort)

	http.Handle(metricsPath, promhttp.Handler())
	go func() {
		/* #nosec G114 */
		err := http.ListenAndServe(metricsPort, nil)
		if err != nil {
			zap.S().Errorf("Error starting metrics: %s", err)
		}
	}()

	zap.S().Debugf("Setting up healthcheck")

	health := healthcheck.NewHandler()
	health.AddLivenessCheck("goroutine-threshold", healthcheck.GoroutineCountCheck(1000000))
	go func() {
		/* #nosec G114 */
		err := http.ListenAndServe("0.0.0.0:8086", health)
		if err != nil {
			zap.S().Errorf("Error starting healthcheck: %s", err)
		}
	}()
	return health
}

func main() {
	log := logging.New("LOGGING_LEVEL")
	defer func() {
		_ = log.Sync()
	}()

	zap.S().Infof("This is schema-migrate build date: %s", buildtime)

	health := setupMetricsAndHealthcheck()

	settings, err := database.SettingsFromEnv()
	if err != nil {
		zap.S().Fatalf("Failed to read database settings: %v", err)
	}

	ctx := context.Background()
	db, err := database.Connect(ctx, settings)
	if err != nil {
		zap.S().Fatalf("Failed to connect to database: %v", err)
	}
	health.AddReadinessCheck("database", database.HealthCheck(db))

	// A SIGTERM mid-migration closes the pool; the open transaction rolls back.
	shutdown.New(func() error {
		db.Close()
		return nil
	})

	if err := applyMigrations(ctx, db); err != nil {
		zap.S().Fatalf("Migration failed: %v", err)
	}

	zap.S().Info("Schema is up to date")
	db.Close()
}
