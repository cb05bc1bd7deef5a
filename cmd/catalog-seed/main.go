// Command catalog-seed writes a sample products.json for the storefront.
package main

import (
	"log/slog"
	"os"

	"github.com/neoscienzatechnology-lgtm/ecommerce/internal/catalog"
	pkgconfig "github.com/neoscienzatechnology-lgtm/ecommerce/pkg/config"
	"github.com/neoscienzatechnology-lgtm/ecommerce/pkg/logger"
)

type config struct {
	Products int    `env:"SEED_PRODUCTS" envDefault:"12"`
	Output   string `env:"SEED_OUTPUT" envDefault:"products.json"`
	Seed     uint64 `env:"SEED_RANDOM" envDefault:"42"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

func main() {
	var cfg config
	if err := pkgconfig.Load(&cfg); err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}
	log := logger.New("catalog-seed", cfg.LogLevel)

	if cfg.Products < 1 {
		log.Error("SEED_PRODUCTS must be positive", slog.Int("products", cfg.Products))
		os.Exit(1)
	}

	products := catalog.Generate(cfg.Products, cfg.Seed)
	if err := catalog.WriteFile(cfg.Output, products); err != nil {
		log.Error("failed to write catalog", slog.String("error", err.Error()))
		os.Exit(1)
	}

	log.Info("catalog written",
		slog.String("path", cfg.Output),
		slog.Int("products", len(products)),
	)
}
