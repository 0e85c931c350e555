package main

import (
	"flag" // Command line flags

	"storefront/internal/config" // Custom import path (Config)
	"storefront/internal/db"     // Custom import path (Database)

	"github.com/sirupsen/logrus" // Logging library
)

// Main entry point for migration
func main() {
	seed := flag.Bool("seed", false, "insert the demo admin, catalog, settings and pages")
	flag.Parse()

	cfg := config.LoadConfig() // Load configuration
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	g, err := db.Open(cfg.DSN(), cfg.DBMaxOpenConns, cfg.DBMaxIdleConns, false)
	if err != nil {
		logrus.Fatalf("failed to connect to DB: %v", err)
	}
	if err := db.Migrate(g); err != nil {
		logrus.Fatalf("migration failed: %v", err)
	}
	if *seed {
		if err := db.Seed(g); err != nil {
			logrus.Fatalf("seeding failed: %v", err)
		}
		logrus.Info("Seed data inserted.")
	}
}
