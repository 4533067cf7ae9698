package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/BradleyExton/canpoli-api/internal/auth"
	"github.com/BradleyExton/canpoli-api/internal/billing"
	"github.com/BradleyExton/canpoli-api/internal/config"
	"github.com/BradleyExton/canpoli-api/internal/counter"
	"github.com/BradleyExton/canpoli-api/internal/httpclient"
	"github.com/BradleyExton/canpoli-api/internal/ingest"
	"github.com/BradleyExton/canpoli-api/internal/models"
	"github.com/BradleyExton/canpoli-api/internal/observability/logging"
	"github.com/BradleyExton/canpoli-api/internal/observability/telemetry"
	"github.com/BradleyExton/canpoli-api/internal/server"
)

func main() {
	root := &cobra.Command{
		Use:           "canpoli",
		Short:         "Canadian parliamentary data platform",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(serveCmd(), ingestCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func setup(service string) (*config.Config, *gorm.DB, counter.Store, func(context.Context) error, error) {
	cfg, err := config.FromEnv()
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("config error: %w", err)
	}
	log := logging.Setup(service, cfg.Environment)

	shutdownTelemetry, err := telemetry.Init(context.Background(), telemetry.Config{
		ServiceName: service,
		Environment: cfg.Environment,
		Endpoint:    strings.TrimSpace(os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")),
		Insecure:    true,
		Headers:     telemetry.ParseHeaders(os.Getenv("OTEL_EXPORTER_OTLP_HEADERS")),
	})
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("init telemetry: %w", err)
	}

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{})
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("database connection error: %w", err)
	}
	if err := models.AutoMigrate(db); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("auto migrate error: %w", err)
	}

	store, err := counter.New(cfg.RedisURL, cfg.IsDevOrTest())
	if err != nil {
		return nil, nil, nil, nil, err
	}
	log.Info("startup complete", "environment", cfg.Environment)
	return cfg, db, store, shutdownTelemetry, nil
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, db, store, shutdownTelemetry, err := setup("canpoli-api")
			if err != nil {
				return err
			}
			defer func() { _ = shutdownTelemetry(context.Background()) }()
			defer store.Close()

			var verifier *auth.Verifier
			if cfg.AuthHSSecret != "" || cfg.AuthRSAPublicKey != "" {
				verifier, err = auth.NewVerifier(auth.Config{
					Issuer:           cfg.AuthIssuer,
					Audience:         cfg.AuthAudience,
					HSSecret:         cfg.AuthHSSecret,
					RSAPublicKeyFile: cfg.AuthRSAPublicKey,
				})
				if err != nil {
					return err
				}
			}

			var provider billing.Provider
			if cfg.StripeSecretKey != "" {
				stripeProvider, err := billing.NewStripe(billing.StripeConfig{
					SecretKey:          cfg.StripeSecretKey,
					WebhookSecret:      cfg.StripeWebhookSecret,
					PriceID:            cfg.StripePriceID,
					CheckoutSuccessURL: cfg.StripeCheckoutSuccess,
					CheckoutCancelURL:  cfg.StripeCheckoutCancel,
					PortalReturnURL:    cfg.StripePortalReturnURL,
				})
				if err != nil {
					return err
				}
				provider = stripeProvider
			}

			srv := server.New(server.Config{
				DB:       db,
				Store:    store,
				Cfg:      cfg,
				Verifier: verifier,
				Provider: provider,
			})
			handler := otelhttp.NewHandler(srv.Handler(), "canpoli-api")

			addr := ":" + cfg.Port
			fmt.Printf("starting canpoli-api on %s\n", addr)
			return http.ListenAndServe(addr, handler)
		},
	}
}

func ingestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ingest",
		Short: "Run the enabled ingestion pipelines once",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, db, store, shutdownTelemetry, err := setup("canpoli-ingest")
			if err != nil {
				return err
			}
			defer func() { _ = shutdownTelemetry(context.Background()) }()
			defer store.Close()

			pool := httpclient.New(httpclient.Config{
				Timeout:        cfg.HoCAPITimeout,
				MaxConcurrency: cfg.HoCMaxConcurrency,
				MinInterval:    cfg.HoCMinRequestInterval,
			})
			service := ingest.New(db, pool, cfg, nil)
			stats := service.Run(cmd.Context())

			// Per-pipeline errors are reported in the stats, not via the
			// exit code.
			encoded, err := json.MarshalIndent(stats, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(encoded))
			return nil
		},
	}
}
