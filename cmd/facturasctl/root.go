package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/jhoicas/facturador-api/internal/application/billing"
	"github.com/jhoicas/facturador-api/internal/infrastructure/postgres"
	"github.com/jhoicas/facturador-api/pkg/config"
	"github.com/jhoicas/facturador-api/pkg/logger"
)

const dayLayout = "2006-01-02"

// env dependencias compartidas por los subcomandos; se crean en PersistentPreRunE.
type env struct {
	envFile string
	cfg     *config.Config
	log     *logger.Logger
	pool    *pgxpool.Pool
}

func newRootCmd() *cobra.Command {
	e := &env{}
	root := &cobra.Command{
		Use:           "facturasctl",
		Short:         "Herramientas de operación del facturador",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return e.setup(cmd.Context())
		},
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			if e.pool != nil {
				e.pool.Close()
			}
		},
	}
	root.PersistentFlags().StringVar(&e.envFile, "env-file", "", "archivo .env a cargar antes de la configuración")

	root.AddCommand(
		newMigrateCmd(e),
		newMarkOverdueCmd(e),
		newExportCmd(e),
		newRenderCmd(e),
	)
	return root
}

// setup carga el .env, la configuración, el logger y el pool.
func (e *env) setup(ctx context.Context) error {
	if err := loadEnvFile(e.envFile); err != nil {
		return err
	}
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("cargar configuración: %w", err)
	}
	e.cfg = cfg
	e.log = logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.Log.Level, Out: os.Stderr})

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		return fmt.Errorf("conexión a PostgreSQL: %w", err)
	}
	e.pool = pool
	return nil
}

// loadEnvFile sin ruta intenta ./.env y no falla si no existe.
func loadEnvFile(path string) error {
	if path != "" {
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("cargar %s: %w", path, err)
		}
		return nil
	}
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("cargar .env: %w", err)
	}
	return nil
}

func (e *env) defaults() billing.Defaults {
	return billing.Defaults{
		Currency:      e.cfg.Invoice.DefaultCurrency,
		PaymentTerms:  e.cfg.Invoice.DefaultPaymentTerms,
		UnitLabel:     e.cfg.Invoice.DefaultUnitLabel,
		TaxRate:       decimal.Zero,
		NumberRetries: e.cfg.Invoice.NumberRetries,
	}
}

// parseDay "" = hoy (UTC).
func parseDay(s string, now time.Time) (time.Time, error) {
	if s == "" {
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	d, err := time.Parse(dayLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("fecha %q: formato esperado YYYY-MM-DD", s)
	}
	return d, nil
}
