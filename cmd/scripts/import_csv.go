package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/blacklisthub/blacklisthub-backend/internal/app"
	"github.com/blacklisthub/blacklisthub-backend/internal/config"
	"github.com/blacklisthub/blacklisthub-backend/internal/models"
	"github.com/blacklisthub/blacklisthub-backend/internal/utils"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/pflag"
)

// Imports blacklist claims from a CSV file through the regular submission path.
//
//	go run ./cmd/scripts --operator importer --reason-code fraud.payment data.csv
func main() {
	operator := pflag.String("operator", "csv_import", "username recorded as the submitting operator")
	entityType := pflag.String("type", "", "entity type for rows without a type column")
	reasonCode := pflag.String("reason-code", "", "reason code for rows without a reason_code column")
	riskLevel := pflag.String("risk-level", string(models.RiskMedium), "risk level for rows without a risk_level column")
	source := pflag.String("source", "public_record", "source for rows without a source column")
	pflag.Parse()

	if pflag.NArg() < 1 {
		log.Fatal("CSV file path is required as a command line argument")
	}
	csvFilePath := pflag.Arg(0)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logger := app.NewLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg, logger, prometheus.NewRegistry())
	if err != nil {
		log.Fatalf("Failed to initialise application: %v", err)
	}
	defer application.Close(context.Background())

	file, err := os.Open(csvFilePath)
	if err != nil {
		log.Fatalf("Failed to open CSV file: %v", err)
	}
	defer file.Close()

	importer := utils.NewCSVImporter(application.Blacklist,
		&models.Actor{Username: *operator, Role: models.RoleAdmin},
		utils.ImportDefaults{
			Type:       models.EntityType(*entityType),
			ReasonCode: *reasonCode,
			RiskLevel:  models.RiskLevel(*riskLevel),
			Source:     *source,
		})
	result, err := importer.Import(ctx, file)
	if result != nil {
		logger.Info("import finished",
			"rows", result.TotalRows, "created", result.Created, "merged", result.Merged, "errors", len(result.Errors))
		for _, msg := range result.Errors {
			logger.Warn("row skipped", "detail", msg)
		}
	}
	if err != nil {
		log.Fatalf("Failed to import data: %v", err)
	}
}
