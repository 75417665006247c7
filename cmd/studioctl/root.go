package main

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	intconfig "studio/internal/config"
	intdb "studio/internal/db"
	"studio/internal/repositories"
	"studio/internal/services"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "studioctl",
	Short:         "Maintenance commands for the rehearsal studio backend",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().Duration("timeout", time.Minute, "Abort the command after this long")
}

// runtime is what every command needs: the config, an open pool and a
// context bounded by --timeout.
type runtime struct {
	env    intconfig.Env
	db     *sql.DB
	ctx    context.Context
	cancel context.CancelFunc
}

func open(cmd *cobra.Command) (*runtime, error) {
	env := intconfig.LoadEnv()
	db, err := intconfig.ConnectDB(env)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	timeout, _ := cmd.Flags().GetDuration("timeout")
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	if env.AutoMigrate {
		if err := intdb.EnsureSchema(ctx, db); err != nil {
			cancel()
			intconfig.CloseDB()
			return nil, fmt.Errorf("ensure schema: %w", err)
		}
	}
	return &runtime{env: env, db: db, ctx: ctx, cancel: cancel}, nil
}

func (r *runtime) Close() {
	r.cancel()
	intconfig.CloseDB()
}

func (r *runtime) prices() services.PriceSource {
	return services.NewSettingsService(repositories.SettingsRepository{DB: r.db}, intconfig.NewRedisClient(r.env))
}

func (r *runtime) reports() services.ReportService {
	return services.ReportService{
		Bookings:  repositories.BookingRepository{DB: r.db},
		Reports:   repositories.ReportRepository{DB: r.db},
		Prices:    r.prices(),
		DB:        r.db,
		RequestID: "studioctl",
	}
}
