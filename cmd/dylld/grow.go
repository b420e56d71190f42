package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/FNNDSC/pl-dylld/internal/config"
	"github.com/FNNDSC/pl-dylld/internal/cube"
	"github.com/FNNDSC/pl-dylld/internal/forest"
	"github.com/FNNDSC/pl-dylld/internal/inputs"
	"github.com/FNNDSC/pl-dylld/internal/mq"
	"github.com/FNNDSC/pl-dylld/internal/recipe"
	"github.com/FNNDSC/pl-dylld/internal/seed"
	"github.com/FNNDSC/pl-dylld/internal/telemetry"
)

// grow — основной режим плагина: растит лес и пишет treeLog.json.
func grow(ctx context.Context, cfg config.Config) error {
	logger := telemetry.FromContext(ctx)

	if err := cfg.Validate(); err != nil {
		return err
	}

	parentID, err := cfg.ParentID(nil)
	if err != nil {
		return err
	}

	r, err := loadRecipe(cfg)
	if err != nil {
		return err
	}
	wait := r.WaitConfig()
	if cfg.PollInterval > 0 {
		wait.PollInterval = cfg.PollInterval
	}
	if cfg.MaxPolls > 0 {
		wait.MaxPolls = cfg.MaxPolls
	}

	client, err := cube.New(cubeConfig(cfg), logger)
	if err != nil {
		return err
	}

	if cfg.MetricsAddr != "" {
		srv := startMetrics(cfg.MetricsAddr, logger)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	var notifier forest.Notifier
	if cfg.AMQPURL != "" {
		conn, err := mq.NewConnection(cfg.AMQPURL, logger)
		if err != nil {
			logger.Warn("RabbitMQ not available, branch events disabled", "error", err)
		} else {
			defer conn.Close()
			if err := mq.SetupTopology(ctx, conn); err != nil {
				logger.Warn("failed to setup topology", "error", err)
			}
			notifier = mq.NewPublisher(conn, logger)
		}
	}

	pairs, err := mapInputs(cfg)
	if err != nil {
		return err
	}
	if len(pairs) == 0 {
		logger.Warn("no inputs matched", "input_dir", cfg.InputDir, "pattern", cfg.Pattern)
	}

	workers := 1
	if cfg.Thread {
		workers = runtime.NumCPU()
	}

	grower, err := forest.New(ctx, forest.Config{
		Platform:  client,
		Recipe:    r,
		Wait:      wait,
		Seed:      seed.Config{Plugin: cfg.SeedPlugin, ParentID: parentID},
		OutputDir: cfg.OutputDir,
		Workers:   workers,
		Notifier:  notifier,
		Logger:    logger,
	})
	if err != nil {
		return err
	}

	records, growErr := grower.Grow(ctx, pairs)

	// Журнал пишется и при прерывании: в нём то, что успело вырасти.
	if err := forest.SaveLog(cfg.OutputDir, records); err != nil {
		return errors.Join(growErr, err)
	}
	return growErr
}

func cubeConfig(cfg config.Config) cube.Config {
	return cube.Config{
		URL:               cfg.CUBEURL,
		User:              cfg.CUBEUser,
		Password:          cfg.CUBEPassword,
		MaxRequests:       cfg.MaxRequests,
		RequestsPerSecond: cfg.RequestsPerSecond,
	}
}

func loadRecipe(cfg config.Config) (*recipe.Recipe, error) {
	if cfg.Recipe == "" {
		return recipe.Default(), nil
	}
	r, err := recipe.Load(cfg.Recipe)
	if err != nil {
		return nil, fmt.Errorf("recipe %s: %w", cfg.Recipe, err)
	}
	return r, nil
}

func mapInputs(cfg config.Config) ([]inputs.Pair, error) {
	if cfg.InNode {
		return inputs.DirMapperDeep(cfg.InputDir, cfg.OutputDir)
	}
	return inputs.FileMapper(cfg.InputDir, cfg.OutputDir, cfg.Pattern)
}

// startMetrics поднимает /healthz и /metrics.
func startMetrics(addr string, logger *slog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		logger.Info("listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()
	return srv
}
