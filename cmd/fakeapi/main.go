// Command fakeapi serves the in-memory storefront API for local runs of the
// CLI. State lives in memory and is lost on exit.
package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/storefront/internal/apitest"
	"github.com/dmitrijs2005/storefront/internal/client/models"
	"github.com/dmitrijs2005/storefront/internal/logging"
	"github.com/shopspring/decimal"
)

func main() {
	address := flag.String("a", "localhost:5000", "listen address")
	seed := flag.Bool("seed", true, "preload a demo user and products")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	api := apitest.New()
	if *seed {
		seedDemo(api)
	}

	if err := api.Run(ctx, *address, logger); err != nil {
		log.Fatalf("%v", err)
	}
}

func seedDemo(api *apitest.Server) {
	owner := api.AddUser("demo@example.org", "demo123", "demo")
	for _, p := range []models.Product{
		{Name: "Desk", Description: "Solid oak writing desk", Price: decimal.RequireFromString("149.90"), InStock: 4},
		{Name: "Lamp", Description: "Brass reading lamp", Price: decimal.RequireFromString("39.50"), InStock: 12},
		{Name: "Chair", Description: "Ergonomic office chair", Price: decimal.RequireFromString("89.99"), InStock: 7},
	} {
		p.OwnerID = owner.ID
		p.Images = []string{"/uploads/" + p.Name + ".jpg"}
		api.AddProduct(p)
	}
}
