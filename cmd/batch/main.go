package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/deepgraph/backend/internal/config"
	"github.com/deepgraph/backend/internal/ledger"
	"github.com/deepgraph/backend/internal/storage"
	"github.com/deepgraph/backend/internal/util"
	"github.com/deepgraph/backend/pkg/export"
	"github.com/deepgraph/backend/pkg/logger"
	"github.com/deepgraph/backend/pkg/logger/console"
)

func main() {
	util.LoadEnv()

	consoleLogger := console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug:  util.GetEnvBool("DEBUG", false),
		Format: util.GetEnv("LOG_FORMAT"),
		Prefix: "batch",
	})
	logger.Init(consoleLogger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()
	graphClient, err := cfg.NewGraphClient()
	if err != nil {
		logger.Fatal("Could not create graph client", "err", err)
	}
	aiClient, err := cfg.NewAIClient(ctx)
	if err != nil {
		logger.Fatal("Could not create AI client", "err", err)
	}

	inputDir := util.GetEnvString("INPUT_DIR", "./input")
	outputDir := util.GetEnvString("OUTPUT_DIR", "./output")

	var exporter export.Exporter = export.NewFileExporter(outputDir)
	if util.GetEnvBool("EXPORT_S3", false) {
		store, err := storage.NewStore(ctx)
		if err != nil {
			logger.Fatal("Could not create S3 client", "err", err)
		}
		exporter = export.NewS3Exporter(store.Client(), store.Bucket(), util.GetEnvString("EXPORT_PREFIX", "results/batch"))
	}

	processed, err := ledger.Open(util.GetEnvString("LEDGER_FILE", filepath.Join(outputDir, "processed_documents.json")))
	if err != nil {
		logger.Fatal("Could not open ledger", "err", err)
	}
	logger.Info("Opened ledger", "documents", processed.Len())

	runner := &batchRunner{
		graph:    graphClient,
		ai:       aiClient,
		exporter: exporter,
		ledger:   processed,
		force:    util.GetEnvBool("FORCE", false),
	}
	summary, err := runner.Run(ctx, inputDir)
	if err != nil {
		logger.Fatal("Batch run failed", "err", err)
	}
	logger.Info("Batch run finished",
		"files", summary.Files,
		"processed", summary.Processed,
		"skipped", summary.Skipped,
		"failed", summary.Failed,
	)
}
