// Command carthagectl is the operator CLI: provisioning a company, building
// and submitting declarations and generating API key hashes without going
// through the HTTP surface.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/carthage-erp/carthage-erp/internal/app"
	"github.com/carthage-erp/carthage-erp/internal/fiscal/accounts"
	"github.com/carthage-erp/carthage-erp/internal/fiscal/declaration"
	"github.com/carthage-erp/carthage-erp/internal/fiscal/documents"
	"github.com/carthage-erp/carthage-erp/internal/fiscal/fiscalyear"
	"github.com/carthage-erp/carthage-erp/internal/fiscal/settings"
	"github.com/carthage-erp/carthage-erp/internal/platform/db"
	"github.com/carthage-erp/carthage-erp/internal/provision"
	"github.com/carthage-erp/carthage-erp/internal/shared"
)

var rootCmd = &cobra.Command{
	Use:           "carthagectl",
	Short:         "Operator CLI for the Carthage fiscal compliance service",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// runtime bundles the connections and services a subcommand needs.
type runtime struct {
	cfg         *app.Config
	pool        *pgxpool.Pool
	declaration *declaration.Service
	provision   *provision.Service
}

func newRuntime(ctx context.Context) (*runtime, func(), error) {
	_ = godotenv.Load()
	cfg, err := app.LoadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("connect postgres: %w", err)
	}

	// The CLI goes straight to the settings table; redis caching only pays
	// off for the long-running server.
	settingsRepo := settings.NewRepository(pool)
	yearRepo := fiscalyear.NewRepository(pool)
	accountRepo := accounts.NewRepository(pool)

	declarationService := declaration.NewService(
		declaration.NewRepository(pool),
		documents.NewRepository(pool),
		yearRepo, accountRepo, settingsRepo, logger)
	declarationService.WithAudit(shared.NewAuditLogger(pool, "carthagectl"))
	provisionService := provision.NewService(
		provision.NewRepository(pool), accountRepo, settingsRepo, logger)

	rt := &runtime{
		cfg:         cfg,
		pool:        pool,
		declaration: declarationService,
		provision:   provisionService,
	}
	return rt, pool.Close, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
