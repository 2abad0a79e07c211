package commands

import (
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sinan-prvt/Hopyfy-Cart/internal/catalog"
	"github.com/sinan-prvt/Hopyfy-Cart/internal/domain"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/reflection"
	"gopkg.in/yaml.v3"
)

func catalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Run or populate the product catalog",
	}
	cmd.AddCommand(catalogServeCmd(), catalogImportCmd())
	return cmd
}

func catalogServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the SQLite catalog over gRPC",
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := catalog.NewRepository(cfg.Catalog.DBPath)
			if err != nil {
				return err
			}
			defer repo.Close()
			if err := repo.RunMigrations(cfg.Catalog.MigrationsDir); err != nil {
				return err
			}

			lis, err := net.Listen("tcp", ":"+cfg.Catalog.ListenPort)
			if err != nil {
				return fmt.Errorf("failed to listen: %w", err)
			}

			grpcServer := grpc.NewServer(grpc.StatsHandler(otelgrpc.NewServerHandler()))
			catalog.RegisterCatalogServer(grpcServer, catalog.NewServer(repo))
			reflection.Register(grpcServer)

			ctx, stop := signalContext()
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				log.Info("catalog service listening", "port", cfg.Catalog.ListenPort, "db", cfg.Catalog.DBPath)
				errCh <- grpcServer.Serve(lis)
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			log.Info("shutting down catalog service...")
			grpcServer.GracefulStop()
			log.Info("catalog service stopped")
			return nil
		},
	}
}

type importFile struct {
	Products []importProduct `yaml:"products"`
}

type importProduct struct {
	ID          string   `yaml:"id"`
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Price       string   `yaml:"price"`
	Stock       int      `yaml:"stock"`
	Images      []string `yaml:"images"`
	Category    string   `yaml:"category"`
	Sizes       []string `yaml:"sizes"`
	Active      *bool    `yaml:"active"`
}

func (p importProduct) toDomain() (domain.Product, error) {
	if p.ID == "" || p.Name == "" {
		return domain.Product{}, errors.New("id and name are required")
	}
	price, err := decimal.NewFromString(p.Price)
	if err != nil {
		return domain.Product{}, fmt.Errorf("price %q: %w", p.Price, err)
	}
	if price.IsNegative() || p.Stock < 0 {
		return domain.Product{}, errors.New("price and stock must not be negative")
	}
	return domain.Product{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       price,
		Stock:       p.Stock,
		Images:      p.Images,
		Category:    p.Category,
		Sizes:       p.Sizes,
		IsActive:    p.Active == nil || *p.Active,
		CreatedAt:   time.Now().UTC(),
	}, nil
}

func catalogImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import [file.yaml]",
		Short: "Upsert products from a YAML file into the SQLite catalog",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			var file importFile
			if err := yaml.Unmarshal(data, &file); err != nil {
				return fmt.Errorf("parse %s: %w", args[0], err)
			}

			repo, err := catalog.NewRepository(cfg.Catalog.DBPath)
			if err != nil {
				return err
			}
			defer repo.Close()
			if err := repo.RunMigrations(cfg.Catalog.MigrationsDir); err != nil {
				return err
			}

			for i, p := range file.Products {
				product, err := p.toDomain()
				if err != nil {
					return fmt.Errorf("product %d: %w", i, err)
				}
				if err := repo.UpsertProduct(cmd.Context(), product); err != nil {
					return err
				}
			}
			log.Info("catalog import finished", "products", len(file.Products))
			return nil
		},
	}
}
