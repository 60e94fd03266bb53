package main

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/vantagewealth/summary/internal/api"
	"github.com/vantagewealth/summary/internal/config"
	"github.com/vantagewealth/summary/internal/database"
	"github.com/vantagewealth/summary/internal/domain"
	"github.com/vantagewealth/summary/internal/export"
	"github.com/vantagewealth/summary/internal/fees"
	"github.com/vantagewealth/summary/internal/fms"
	"github.com/vantagewealth/summary/internal/fx"
	"github.com/vantagewealth/summary/internal/geo"
	"github.com/vantagewealth/summary/internal/metrics"
	"github.com/vantagewealth/summary/internal/presenter"
	"github.com/vantagewealth/summary/internal/snapshot"
	"github.com/vantagewealth/summary/internal/worker"

	ledgerpkg "github.com/vantagewealth/summary/internal/ledger"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

func main() {
	app := &cli.App{
		Name:  "summary",
		Usage: "portfolio summary service",
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the HTTP API and background workers",
				Action: runServe,
			},
			{
				Name:  "export",
				Usage: "export one portfolio summary to an xlsx workbook",
				Flags: []cli.Flag{
					&cli.Int64Flag{Name: "portfolio", Required: true, Usage: "portfolio id"},
					&cli.StringFlag{Name: "version", Value: "v1", Usage: "API version (v1, v2, v3)"},
				},
				Action: runExport,
			},
			{
				Name:   "refresh-rates",
				Usage:  "fetch the latest FX rates into the database and exit",
				Action: runRefreshRates,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// services is the wired object graph shared by the commands.
type services struct {
	cfg       config.Config
	client    *fms.Client
	converter *fx.Service
	presenter *presenter.Service
	close     func()
}

func wire(ctx context.Context, cfg config.Config) (*services, error) {
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	pool, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}

	migrationsSub, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("creating migrations sub-fs: %w", err)
	}
	if err := database.RunMigrations(ctx, pool, migrationsSub); err != nil {
		pool.Close()
		return nil, err
	}

	client := fms.NewClient(cfg.FMSURL, cfg.FMSRetryMax, cfg.FMSRetryBaseDelay)

	feed := fx.NewFeedClient(cfg.RateFeedURL, cfg.RateFeedDelay, cfg.RateFeedRetryMax)
	converter, err := fx.NewService(feed, fx.NewPgRateRepository(pool), cfg.ActiveCurrencies)
	if err != nil {
		pool.Close()
		return nil, err
	}

	policy := geo.NewPolicy()
	fetcher := snapshot.NewFetcher(client, fees.NewSelector(client))
	transformer := ledgerpkg.NewTransformer(converter, geo.NewGrouper())
	engine := metrics.NewEngine(converter, policy, nil)
	svc := presenter.NewService(fetcher, transformer, engine, slog.Default())

	return &services{
		cfg:       cfg,
		client:    client,
		converter: converter,
		presenter: svc,
		close:     pool.Close,
	}, nil
}

func runServe(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()
	deps, err := wire(ctx, cfg)
	if err != nil {
		return err
	}
	defer deps.close()

	rateWorker := worker.NewRateWorker(deps.converter, cfg.RateWorkerInterval)
	go rateWorker.Run(ctx)

	if writer := monitoringWriter(ctx, cfg); writer != nil {
		exportWorker := worker.NewExportWorker(deps.presenter, deps.client, writer, cfg.WatchedPortfolios, cfg.ReportingCurrency, cfg.ExportWorkerInterval)
		go exportWorker.Run(ctx)
	}

	srv := api.NewServer(cfg.HTTPPort, deps.presenter, deps.client, cfg.ReportingCurrency)

	go func() {
		slog.Info("HTTP server listening", "port", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	slog.Info("shutdown complete")
	return nil
}

// monitoringWriter builds the sheets writer when credentials are configured.
func monitoringWriter(ctx context.Context, cfg config.Config) export.SummaryWriter {
	if cfg.SheetsSpreadsheetID == "" || cfg.SheetsCredentials == "" {
		return nil
	}
	writer, err := export.NewSheetsWriter(ctx, cfg.SheetsSpreadsheetID, cfg.SheetsCredentials)
	if err != nil {
		slog.Error("sheets writer unavailable, monitoring export disabled", "error", err)
		return nil
	}
	return writer
}

func runExport(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()
	deps, err := wire(ctx, cfg)
	if err != nil {
		return err
	}
	defer deps.close()

	version, err := domain.ParseVersion(c.String("version"))
	if err != nil {
		return err
	}

	portfolioID := c.Int64("portfolio")
	portfolio, err := deps.client.Portfolio(ctx, portfolioID)
	if err != nil {
		return err
	}
	siblings, err := deps.client.PortfoliosByUser(ctx, portfolio.UserID)
	if err != nil {
		return err
	}

	pctx := domain.PortfolioContext{
		Portfolio:         portfolio,
		AllPortfolios:     siblings,
		ReportingCurrency: cfg.ReportingCurrency,
		ServiceDate:       time.Now().UTC(),
		Version:           version,
		DepositConfirmed:  true,
	}

	summary, err := deps.presenter.Summarize(ctx, pctx)
	if err != nil {
		return err
	}

	if err := export.NewExcelWriter(cfg.ExportDir).Write(ctx, pctx, summary); err != nil {
		return err
	}
	slog.Info("summary exported", "portfolio_id", portfolioID, "dir", cfg.ExportDir)
	return nil
}

func runRefreshRates(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()
	deps, err := wire(ctx, cfg)
	if err != nil {
		return err
	}
	defer deps.close()

	if err := deps.converter.RefreshRates(ctx); err != nil {
		return err
	}
	slog.Info("rates refreshed", "currencies", cfg.ActiveCurrencies)
	return nil
}
