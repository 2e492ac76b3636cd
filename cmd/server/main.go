package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/deepgraph/backend/internal/server"
	"github.com/deepgraph/backend/internal/util"
	"github.com/deepgraph/backend/pkg/logger"
	"github.com/deepgraph/backend/pkg/logger/console"
)

func main() {
	util.LoadEnv()

	consoleLogger := console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug:  util.GetEnvBool("DEBUG", false),
		Format: util.GetEnv("LOG_FORMAT"),
		Prefix: "server",
	})
	logger.Init(consoleLogger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	server.Init(ctx)
}
