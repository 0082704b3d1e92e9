package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aws/aws-greengrass-core-sdk-c/internal/database"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
)

func main() {
	var (
		dbPath  = pflag.String("db", "./data/greengrass.db", "Database file path")
		action  = pflag.String("action", "up", "Migration action: up, down, status, validate, backup")
		output  = pflag.StringP("output", "o", "", "Backup file path for the backup action")
		verbose = pflag.BoolP("verbose", "v", false, "Enable verbose logging")
	)
	pflag.Parse()

	logger := logrus.New()
	if *verbose {
		logger.SetLevel(logrus.DebugLevel)
	}

	absDBPath, err := filepath.Abs(*dbPath)
	if err != nil {
		logger.WithError(err).Fatal("Failed to get absolute database path")
	}

	logger.WithFields(logrus.Fields{
		"db_path": absDBPath,
		"action":  *action,
	}).Info("Starting migration tool")

	config := database.DefaultConnectionConfig()
	config.DatabasePath = absDBPath
	config.Logger = logger

	cm := database.NewConnectionManager(config)
	if err := cm.Connect(); err != nil {
		logger.WithError(err).Fatal("Failed to connect to database")
	}
	if err := cm.HealthCheck(); err != nil {
		cm.Close()
		logger.WithError(err).Fatal("Database health check failed")
	}

	var runErr error
	if *action == "backup" {
		runErr = backup(cm, *output)
	} else {
		runErr = run(cm.GetMigrationManager(), *action)
	}
	if err := runErr; err != nil {
		cm.Close()
		logger.WithError(err).Fatalf("Migration %s failed", *action)
	}
	cm.Close()

	logger.Info("Migration tool completed successfully")
}

func run(m *database.MigrationManager, action string) error {
	switch action {
	case "up":
		return m.RunMigrations()
	case "down":
		return m.RollbackMigration()
	case "status":
		status, err := m.GetMigrationStatus()
		if err != nil {
			return fmt.Errorf("failed to get migration status: %w", err)
		}
		fmt.Fprintf(os.Stdout, "Migration Status:\n  Version: %d\n  Applied: %t\n  Dirty: %t\n",
			status.Version, status.Applied, status.Dirty)
		return nil
	case "validate":
		if err := m.ValidateSchema(); err != nil {
			return err
		}
		fmt.Println("Schema validation passed successfully")
		return nil
	default:
		return fmt.Errorf("unknown action %q, use: up, down, status, validate, backup", action)
	}
}

func backup(cm *database.ConnectionManager, output string) error {
	if output == "" {
		return fmt.Errorf("--output is required for backup")
	}
	path, err := filepath.Abs(output)
	if err != nil {
		return fmt.Errorf("failed to get absolute backup path: %w", err)
	}
	return cm.Backup(context.Background(), path)
}
