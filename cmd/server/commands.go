package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"iris-api/internal/config"
	"iris-api/internal/handler"
	"iris-api/internal/logging"
	"iris-api/internal/middleware"
	"iris-api/internal/models"
	"iris-api/internal/repository"
	"iris-api/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

func serveCmd() *cli.Command {
	return &cli.Command{
		Name:   "serve",
		Usage:  "Fit the model and serve the HTTP API",
		Action: runServe,
	}
}

func predictCmd() *cli.Command {
	flags := make([]cli.Flag, 0, len(models.SampleParams))
	for _, name := range models.SampleParams {
		flags = append(flags, &cli.StringFlag{
			Name:  flagName(name),
			Usage: fmt.Sprintf("%s in cm", name),
		})
	}

	return &cli.Command{
		Name:  "predict",
		Usage: "Fit the model and classify one sample",
		Flags: flags,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			values := url.Values{}
			for _, name := range models.SampleParams {
				if cmd.IsSet(flagName(name)) {
					values.Set(name, cmd.String(flagName(name)))
				}
			}

			sample, err := models.ParseSample(values)
			if err != nil {
				return errors.New(models.InvalidParamsMessage)
			}

			rt, err := bootstrap(cmd, false)
			if err != nil {
				return err
			}
			defer rt.close()

			result, err := rt.predictor.Predict(ctx, sample)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(os.Stdout)
			return enc.Encode(result)
		},
	}
}

func infoCmd() *cli.Command {
	return &cli.Command{
		Name:  "info",
		Usage: "Print the dataset overview",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			rt, err := bootstrap(cmd, false)
			if err != nil {
				return err
			}
			defer rt.close()

			fmt.Print(rt.predictor.InfoText(rt.cfg.Banner))
			return nil
		},
	}
}

func runServe(ctx context.Context, cmd *cli.Command) error {
	rt, err := bootstrap(cmd, true)
	if err != nil {
		return err
	}
	defer rt.close()

	cfg, logger := rt.cfg, rt.logger

	gin.SetMode(cfg.Server.Mode)
	apiHandler := handler.NewHandler(rt.predictor, cfg.Banner, logger)
	limiter := middleware.NewLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
	router := handler.NewRouter(apiHandler, limiter, logger)

	serverAddr := fmt.Sprintf(":%s", cfg.Server.Port)
	srv := &http.Server{
		Addr:         serverAddr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	logger.Info("Iris API is running",
		zap.String("address", serverAddr),
		zap.Bool("history", rt.predictor.HistoryEnabled()),
		zap.Float64("rate_limit_rps", cfg.RateLimit.RequestsPerSecond))

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("Server exited")
	return nil
}

// services is everything built once at startup
type services struct {
	cfg       *config.Config
	logger    *zap.Logger
	predictor *service.Predictor
	repo      *repository.PredictionRepository
}

func (rt *services) close() {
	if rt.repo != nil {
		if err := rt.repo.Close(); err != nil {
			rt.logger.Warn("Failed to close prediction repository", zap.Error(err))
		}
	}
	_ = rt.logger.Sync()
}

// bootstrap loads config, builds the logger and fits the classifier. The
// history store is only opened for the server.
func bootstrap(cmd *cli.Command, withHistory bool) (*services, error) {
	cfg, err := config.LoadConfig(cmd.String("config"))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if lvl := cmd.String("log-level"); lvl != "" {
		cfg.Log.Level = lvl
	}

	logger, err := logging.New(logging.Config{
		Level:      cfg.Log.Level,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	})
	if err != nil {
		return nil, err
	}

	ds, model, err := service.Train(service.ModelConfig{
		C:         cfg.Model.C,
		MaxIter:   cfg.Model.MaxIter,
		Tolerance: cfg.Model.Tolerance,
	}, logger)
	if err != nil {
		logger.Error("Failed to train classifier", zap.Error(err))
		return nil, err
	}

	rt := &services{cfg: cfg, logger: logger}

	var history service.HistoryStore
	if withHistory && cfg.History.Enabled {
		if err := ensureDir(cfg.History.Path); err != nil {
			return nil, err
		}
		repo, err := repository.NewPredictionRepository(cfg.History.Path, logger)
		if err != nil {
			logger.Error("Failed to initialize repository", zap.Error(err))
			return nil, err
		}
		rt.repo = repo
		history = repo
	}

	rt.predictor = service.NewPredictor(ds, model, history, logger)
	return rt, nil
}

func flagName(param string) string {
	return strings.ReplaceAll(param, "_", "-")
}

func ensureDir(dbPath string) error {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return fmt.Errorf("failed to create history directory: %w", err)
	}
	return nil
}
