package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/deepgraph/backend/internal/config"
	"github.com/deepgraph/backend/internal/queue"
	"github.com/deepgraph/backend/internal/storage"
	"github.com/deepgraph/backend/internal/util"
	"github.com/deepgraph/backend/pkg/export"
	"github.com/deepgraph/backend/pkg/loader/reader"
	s3loader "github.com/deepgraph/backend/pkg/loader/s3"
	"github.com/deepgraph/backend/pkg/logger"
	"github.com/deepgraph/backend/pkg/logger/console"
)

func formatDuration(d time.Duration) string {
	return fmt.Sprintf("%02d:%02d:%02d", int(d.Hours()), int(d.Minutes())%60, int(d.Seconds())%60)
}

func main() {
	util.LoadEnv()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// logger
	consoleLogger := console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug:  util.GetEnvBool("DEBUG", false),
		Format: util.GetEnv("LOG_FORMAT"),
		Prefix: "worker",
	})
	logger.Init(consoleLogger)

	cfg := config.Load()
	graphClient, err := cfg.NewGraphClient()
	if err != nil {
		logger.Fatal("Could not create graph client", "err", err)
	}
	aiClient, err := cfg.NewAIClient(ctx)
	if err != nil {
		logger.Fatal("Could not create AI client", "err", err)
	}

	store, err := storage.NewStore(ctx)
	if err != nil {
		logger.Fatal("Could not create S3 client", "err", err)
	}

	conn, err := queue.Init()
	if err != nil {
		logger.Fatal("Could not connect to queue", "err", err)
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		logger.Fatal("Failed to open channel", "err", err)
	}
	defer ch.Close()
	if err := queue.SetupQueues(ch, []string{queue.GraphQueue}); err != nil {
		logger.Fatal("Failed to set up queues", "err", err)
	}

	// One job at a time; extraction already runs MAX_WORKERS calls in parallel.
	consumerCh, err := conn.Channel()
	if err != nil {
		logger.Fatal("Failed to open consumer channel", "err", err)
	}
	defer consumerCh.Close()
	if err := consumerCh.Qos(1, 0, false); err != nil {
		logger.Fatal("Failed to set QoS", "err", err)
	}

	msgs, err := consumerCh.Consume(
		queue.GraphQueue,
		"graph_queue_consumer",
		false, // autoAck
		false, // exclusive
		false, // noLocal
		false, // noWait
		nil,   // args
	)
	if err != nil {
		logger.Fatal("Failed to start consuming", "queue", queue.GraphQueue, "err", err)
	}

	processor := &queue.GraphProcessor{
		Graph:  graphClient,
		AI:     aiClient,
		Reader: reader.NewReader(s3loader.NewS3GraphFileLoader(store.Bucket(), store.Client())),
		Exporter: func(msg queue.GraphJobMsg) export.Exporter {
			return export.NewS3Exporter(store.Client(), store.Bucket(), storage.ResultPrefix(msg.JobID))
		},
		Events: ch,
	}
	maxRetries := util.GetEnvInt("QUEUE_MAX_RETRIES", 10)

	logger.Info("Listening for messages", "queue", queue.GraphQueue)
	for {
		select {
		case <-ctx.Done():
			logger.Info("Shutdown signal received, exiting...")
			return
		case msg, ok := <-msgs:
			if !ok {
				logger.Info("Message channel closed", "queue", queue.GraphQueue)
				return
			}

			startTime := time.Now()
			logger.Info("Received message", "queue", queue.GraphQueue)

			_, processingErr := processor.ProcessGraphMessage(ctx, msg.Body)
			if processingErr != nil {
				logger.Error("Error processing message", "queue", queue.GraphQueue, "err", processingErr)
				queue.HandleProcessingError(ch, msg, msg, queue.GraphQueue, maxRetries)
			} else if err := msg.Ack(false); err != nil {
				logger.Error("Failed to ack message", "err", err)
			}

			metrics := aiClient.GetMetrics()
			logger.Info(
				"AI Metrics",
				"requests", metrics.Requests,
				"input_tokens", metrics.InputTokens,
				"output_tokens", metrics.OutputTokens,
				"total_tokens", metrics.TotalTokens,
				"duration", formatDuration(time.Duration(metrics.DurationMs)*time.Millisecond),
			)
			logger.Info("Processing time", "duration", formatDuration(time.Since(startTime)))
			aiClient.ResetMetrics()
		}
	}
}
