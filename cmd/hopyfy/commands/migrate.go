package commands

import (
	"context"
	"fmt"

	"github.com/sinan-prvt/Hopyfy-Cart/internal/catalog"
	"github.com/sinan-prvt/Hopyfy-Cart/internal/orders"
	"github.com/spf13/cobra"
)

func migrateCmd() *cobra.Command {
	var only string
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply catalog (SQLite) and orders (Postgres) migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			if only == "" || only == "catalog" {
				if err := migrateCatalog(); err != nil {
					return err
				}
			}
			if only == "" || only == "orders" {
				if cfg.Postgres.Host == "" {
					log.Warn("POSTGRES_HOST not set, skipping orders migrations")
					return nil
				}
				if err := migrateOrders(cmd.Context()); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&only, "only", "", "migrate a single store: catalog or orders")
	return cmd
}

func migrateCatalog() error {
	repo, err := catalog.NewRepository(cfg.Catalog.DBPath)
	if err != nil {
		return err
	}
	defer repo.Close()
	if err := repo.RunMigrations(cfg.Catalog.MigrationsDir); err != nil {
		return fmt.Errorf("catalog migrations: %w", err)
	}
	log.Info("catalog migrations applied", "db", cfg.Catalog.DBPath)
	return nil
}

func migrateOrders(ctx context.Context) error {
	repo, err := orders.NewPostgresRepository(ctx, postgresCredentials())
	if err != nil {
		return err
	}
	defer repo.Close()
	if err := repo.RunMigrations(cfg.Postgres.MigrationsDir); err != nil {
		return fmt.Errorf("orders migrations: %w", err)
	}
	log.Info("orders migrations applied", "host", cfg.Postgres.Host, "db", cfg.Postgres.DBName)
	return nil
}

func postgresCredentials() *orders.Credentials {
	return &orders.Credentials{
		Host:              cfg.Postgres.Host,
		Port:              cfg.Postgres.Port,
		User:              cfg.Postgres.User,
		Password:          cfg.Postgres.Password,
		DBName:            cfg.Postgres.DBName,
		MigrationsDirPath: cfg.Postgres.MigrationsDir,
	}
}
