package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	dig_container "github.com/eduenglish/backend/apps/api/di/dig"
	"github.com/eduenglish/backend/core"
)

const seedTimeout = time.Minute

func main() {
	c := dig_container.New()
	must(c.Invoke(run))
}

func run(app dig_container.App) {
	conf, logger := app.Conf, app.Logger

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))

	core.ParseEmailTemplates(conf, logger)

	defer logger.Info("Application stopped")
	defer app.Close(context.Background())

	seedData(app)

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.
	// /metrics - Prometheus metrics of the API.

	if conf.Server.DebugHost != "" {
		// Expose important info under /debug/vars.
		expvar.NewString("build").Set(conf.Build)
		expvar.NewString("env").Set(conf.Env)
		http.Handle("/metrics", promhttp.Handler())

		go func() {
			if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
				logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
			}
		}()
	}

	// =========================================================================
	// Start API Service

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("API listening on " + conf.Server.Host)
		serverErrors <- app.Server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err := <-serverErrors:
		logger.Error(fmt.Sprintf("server error: %v", err), err)

	case sig := <-app.Shutdown:
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		if err := app.Server.Stop(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)
		}
	}
}

// seedData creates the admin account and the sample course, then drops the demo accounts.
func seedData(app dig_container.App) {
	if !app.Conf.SeedOnStart {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), seedTimeout)
	defer cancel()

	if err := app.Seeder.Run(ctx, false); err != nil {
		app.Logger.Warn("seeding failed", err)
	}

	deleted, remaining, err := app.Seeder.CleanupDemoUsers(ctx)
	if err != nil {
		app.Logger.Warn("demo users cleanup failed", err)
		return
	}
	if deleted > 0 {
		app.Logger.Info(fmt.Sprintf("%d demo users deleted, %d learners remaining", deleted, remaining))
	}
}

func must(err error) {
	if err != nil {
		log.Fatal(err)
	}
}
