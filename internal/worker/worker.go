// Package worker provides async analysis processing from the event bus.
package worker

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/opensource-climate/petrel/internal/domain"
	"github.com/opensource-climate/petrel/internal/engine"
)

// Worker consumes queued analysis requests, runs them through the
// analyzer and persists the outcome.
type Worker struct {
	bus      domain.EventBus
	repo     domain.Repository
	analyzer *engine.Analyzer

	subscriptions []domain.Subscription
	wg            sync.WaitGroup
	ctx           context.Context
	cancel        context.CancelFunc
}

// NewWorker creates a new async worker.
func NewWorker(bus domain.EventBus, repo domain.Repository, analyzer *engine.Analyzer) *Worker {
	ctx, cancel := context.WithCancel(context.Background())
	return &Worker{
		bus:      bus,
		repo:     repo,
		analyzer: analyzer,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start begins consuming analysis requests.
func (w *Worker) Start() error {
	sub, err := w.bus.Subscribe(w.ctx, domain.TopicAnalysisRequested, w.handleMessage)
	if err != nil {
		return err
	}
	w.subscriptions = append(w.subscriptions, sub)

	slog.Info("analysis worker started",
		"topic", domain.TopicAnalysisRequested,
	)
	return nil
}

// AnalysisMessage is the payload published when an analysis is queued.
type AnalysisMessage struct {
	AnalysisID string                  `json:"analysisId"`
	Request    *domain.AnalysisRequest `json:"request"`
}

// CompletionMessage is the payload published when an analysis finishes.
type CompletionMessage struct {
	AnalysisID string `json:"analysisId"`
	Status     string `json:"status"`
	Error      string `json:"error,omitempty"`
}

func (w *Worker) handleMessage(ctx context.Context, msg *domain.Message) error {
	var am AnalysisMessage
	if err := json.Unmarshal(msg.Payload, &am); err != nil {
		slog.Error("failed to parse analysis message",
			"message_id", msg.ID,
			"error", err,
		)
		return err
	}
	return w.processAnalysis(ctx, &am)
}

// processAnalysis runs one queued analysis end to end.
func (w *Worker) processAnalysis(ctx context.Context, am *AnalysisMessage) error {
	start := time.Now()

	slog.Debug("processing analysis",
		"analysis_id", am.AnalysisID,
	)

	w.updateStatus(ctx, am.AnalysisID, domain.AnalysisRunning, nil, "")

	result, err := w.analyzer.MultiRisk(ctx, am.Request)
	if err != nil {
		slog.Error("analysis failed",
			"analysis_id", am.AnalysisID,
			"error", err,
		)
		w.updateStatus(ctx, am.AnalysisID, domain.AnalysisFailed, nil, err.Error())
		w.publishCompletion(ctx, domain.TopicAnalysisFailed, am.AnalysisID, domain.AnalysisFailed, err.Error())
		return err
	}

	resultDoc, err := json.Marshal(result)
	if err != nil {
		w.updateStatus(ctx, am.AnalysisID, domain.AnalysisFailed, nil, err.Error())
		w.publishCompletion(ctx, domain.TopicAnalysisFailed, am.AnalysisID, domain.AnalysisFailed, err.Error())
		return err
	}

	w.updateStatus(ctx, am.AnalysisID, domain.AnalysisCompleted, resultDoc, "")
	w.publishCompletion(ctx, domain.TopicAnalysisCompleted, am.AnalysisID, domain.AnalysisCompleted, "")

	slog.Info("analysis processed",
		"analysis_id", am.AnalysisID,
		"status", domain.AnalysisCompleted,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return nil
}

func (w *Worker) updateStatus(ctx context.Context, id, status string, result []byte, errMsg string) {
	if w.repo == nil {
		return
	}
	rec := &domain.AnalysisRecord{
		ID:     id,
		Status: status,
		Result: result,
		Error:  errMsg,
	}
	if err := w.repo.UpdateAnalysis(ctx, rec); err != nil {
		slog.Error("failed to update analysis record",
			"analysis_id", id,
			"status", status,
			"error", err,
		)
	}
}

func (w *Worker) publishCompletion(ctx context.Context, topic, id, status, errMsg string) {
	payload, _ := json.Marshal(CompletionMessage{
		AnalysisID: id,
		Status:     status,
		Error:      errMsg,
	})
	if err := w.bus.Publish(ctx, topic, payload); err != nil {
		slog.Error("failed to publish completion event",
			"analysis_id", id,
			"topic", topic,
			"error", err,
		)
	}
}

// Stop gracefully stops the worker.
func (w *Worker) Stop() error {
	w.cancel()

	for _, sub := range w.subscriptions {
		if err := sub.Unsubscribe(); err != nil {
			slog.Error("failed to unsubscribe",
				"topic", sub.Topic(),
				"error", err,
			)
		}
	}
	w.subscriptions = nil

	w.wg.Wait()

	slog.Info("analysis worker stopped")
	return nil
}

// Stats returns worker statistics.
type Stats struct {
	SubscriptionCount int      `json:"subscriptionCount"`
	Topics            []string `json:"topics"`
}

// GetStats returns current worker statistics.
func (w *Worker) GetStats() Stats {
	topics := make([]string, len(w.subscriptions))
	for i, sub := range w.subscriptions {
		topics[i] = sub.Topic()
	}
	return Stats{
		SubscriptionCount: len(w.subscriptions),
		Topics:            topics,
	}
}
