package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/deepgraph/backend/internal/util"
	"github.com/deepgraph/backend/pkg/ai"
	"github.com/deepgraph/backend/pkg/export"
	"github.com/deepgraph/backend/pkg/graph"
	"github.com/deepgraph/backend/pkg/loader"
	"github.com/deepgraph/backend/pkg/loader/reader"
	"github.com/deepgraph/backend/pkg/logger"
)

// ExporterFunc returns the exporter for one job, typically an S3 exporter
// rooted at the job's result prefix.
type ExporterFunc func(msg GraphJobMsg) export.Exporter

// GraphProcessor turns graph job messages into exported graphs.
type GraphProcessor struct {
	Graph    *graph.GraphClient
	AI       ai.GraphAIClient
	Reader   *reader.Reader
	Exporter ExporterFunc
	// Events receives job status events. Optional.
	Events Publisher
}

// ProcessGraphMessage handles one message body. Too short or empty documents
// are completed jobs, not failures; read, export and cancellation errors are
// returned so the message can be retried.
func (p *GraphProcessor) ProcessGraphMessage(ctx context.Context, body []byte) (*GraphJobEvent, error) {
	msg, err := DecodeGraphJob(body)
	if err != nil {
		return nil, err
	}
	if msg.Name == "" {
		msg.Name = loader.DisplayName(msg.FileKey)
	}

	file, err := p.Reader.File(msg.JobID, msg.FileKey, msg.Name)
	if err != nil {
		return nil, err
	}
	text, err := loader.LoadText(ctx, file)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", msg.FileKey, err)
	}
	logger.Info("[Queue] Read document", "job", msg.JobID, "file", msg.FileKey, "length", len(text))

	start := time.Now()
	res, err := p.Graph.ProcessDocument(ctx, p.AI, graph.Document{
		Name:    msg.Name,
		Text:    text,
		Context: msg.Context,
		OnProgress: func(done, total int) {
			logger.Debug("[Queue] Extraction progress", "job", msg.JobID, "done", done, "total", total)
		},
	})
	if err != nil {
		return nil, err
	}

	loc, err := p.Exporter(msg).Export(ctx, res)
	if err != nil {
		return nil, fmt.Errorf("export graph: %w", err)
	}

	event := &GraphJobEvent{
		JobID:     msg.JobID,
		Name:      msg.Name,
		Status:    string(res.Status),
		Reason:    res.Reason,
		Graph:     loc.Graph,
		Report:    loc.Report,
		Relations: len(res.Graph.Relations),
	}
	logger.Info("[Queue] Graph job finished",
		"job", msg.JobID,
		"status", res.Status,
		"relations", event.Relations,
		"duration", time.Since(start).Round(time.Second),
		"total_tokens", res.Metrics.TotalTokens,
	)
	p.publish(ctx, event)

	return event, nil
}

const publishTries = 3

func (p *GraphProcessor) publish(ctx context.Context, event *GraphJobEvent) {
	if p.Events == nil {
		return
	}
	data, err := json.Marshal(event)
	if err != nil {
		logger.Error("[Queue] Failed to marshal job event", "err", err)
		return
	}
	err = util.RetryErrWithContext(ctx, publishTries, func(context.Context) error {
		return PublishTopic(p.Events, event.Topic(), data)
	})
	if err != nil {
		logger.Warn("[Queue] Failed to publish job event", "job", event.JobID, "err", err)
	}
}
