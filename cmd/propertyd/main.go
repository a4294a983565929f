package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"

	"github.com/lsiproject/propertyhub/internal/config"
	"github.com/lsiproject/propertyhub/internal/domain"
	"github.com/lsiproject/propertyhub/internal/infra/providers"
	"github.com/lsiproject/propertyhub/internal/infra/repository"
	"github.com/lsiproject/propertyhub/internal/logging"
	"github.com/lsiproject/propertyhub/internal/present/rest"
	authmw "github.com/lsiproject/propertyhub/internal/present/rest/middleware"
	"github.com/lsiproject/propertyhub/internal/service"
	"github.com/lsiproject/propertyhub/internal/telemetry"
	"github.com/lsiproject/propertyhub/internal/usecase"
)

const (
	appName = "propertyd"
	Version = "0.1.0"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Fatal: %v\n", r)
			os.Exit(2)
		}
	}()

	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:           appName,
		Short:         "Property listing, recommendation and market service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "/etc/propertyhub/config.yaml", "path to the config file")

	cmd.AddCommand(
		serveCmd(&configPath),
		migrateCmd(&configPath),
		versionCmd(),
	)
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", appName, Version)
		},
	}
}

func migrateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			slog.SetDefault(logging.New(conf.Log, os.Stderr))

			db, err := providers.NewDatabase(conf.Server)
			if err != nil {
				return fmt.Errorf("failed to connect database: %w", err)
			}
			if err := providers.MigrateDatabase(db); err != nil {
				return fmt.Errorf("failed to migrate database: %w", err)
			}
			slog.Info("migration complete")
			return nil
		},
	}
}

func serveCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, conf)
		},
	}
}

func serve(ctx context.Context, conf config.Config) error {
	logger := logging.New(conf.Log, os.Stdout)
	slog.SetDefault(logger)

	if conf.Server.EnableTrace {
		shutdown, err := telemetry.SetupTracer(ctx, conf.Server.TraceEndpoint, Version)
		if err != nil {
			return err
		}
		defer func() {
			flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(flushCtx); err != nil {
				slog.Error("failed to flush traces", slog.String("error", err.Error()))
			}
		}()
	}

	db, err := providers.NewDatabase(conf.Server)
	if err != nil {
		return fmt.Errorf("failed to connect database: %w", err)
	}
	if err := providers.MigrateDatabase(db); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	metrics := telemetry.NewMetrics()

	policy, _ := domain.ParseClaimPolicy(conf.Auth.ClaimPolicy)
	auth, err := service.NewAuthService(service.AuthConfig{
		TrustUpstreamSignature: conf.Auth.TrustUpstreamSignature,
		Policy:                 policy,
	}, metrics)
	if err != nil {
		return err
	}

	rdb, err := providers.NewRedis(ctx, conf.Server)
	if err != nil {
		return err
	}
	var signalService *service.SignalService
	var events usecase.EventPublisher
	if rdb != nil {
		defer rdb.Close()
		signalService = service.NewSignalService(rdb)
		events = signalService
	}

	mc, err := providers.NewMemcache(conf.Server.MemcachedAddr)
	if err != nil {
		return err
	}

	cl := providers.NewClient(conf.Services)

	ledger, closeLedger, err := providers.NewLedger(ctx, conf.Ledger)
	if err != nil {
		return err
	}
	defer closeLedger()

	propertyRepo := repository.NewPropertyRepository(db)

	propertyUsecase := usecase.NewPropertyUsecase(
		propertyRepo,
		ledger,
		events,
		providers.NewObjectStorage(cl, conf.Storage),
		metrics,
	)
	recommendationUsecase := usecase.NewRecommendationUsecase(
		providers.NewUserProfileGateway(cl, conf.Services),
		providers.NewRecommendationGateway(cl, conf.Services),
		propertyRepo,
		conf.Recommendation.Timeout,
		metrics,
	)
	marketUsecase := usecase.NewMarketUsecase(
		providers.NewPricePredictionGateway(cl, mc, conf.Services),
		providers.NewHeatmapGateway(cl, conf.Services),
	)

	handler := rest.NewHandler(propertyUsecase, recommendationUsecase, marketUsecase, signalService, metrics.Registry)

	e := echo.New()
	e.HideBanner = true
	e.Use(otelecho.Middleware(appName))
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(authmw.NewAuthMiddleware(auth).IdentifyIdentity)
	handler.RegisterRoutes(e)

	errCh := make(chan error, 1)
	go func() {
		slog.Info("listening", slog.String("addr", conf.Server.Listen))
		if err := e.Start(conf.Server.Listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
