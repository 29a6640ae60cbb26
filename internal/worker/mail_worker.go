package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/NourhenHamza/TalentGo-sub001/internal/models"
	"github.com/NourhenHamza/TalentGo-sub001/internal/worker/queue"
	"github.com/rs/zerolog"
)

type Stats struct {
	Processed int `json:"processed"`
	Failed    int `json:"failed"`
	Malformed int `json:"malformed"`
}

// MailWorker consumes workflow events and mails the recipients. Every message
// is acked, whether or not delivery worked: notifications are never retried.
type MailWorker struct {
	consumer queue.Consumer
	handler  MailHandler
	logger   zerolog.Logger

	mu    sync.Mutex
	stats Stats
	done  chan struct{}
	start time.Time
}

func NewMailWorker(consumer queue.Consumer, handler MailHandler, logger zerolog.Logger) *MailWorker {
	return &MailWorker{
		consumer: consumer,
		handler:  handler,
		logger:   logger,
		done:     make(chan struct{}),
	}
}

func (w *MailWorker) Start(ctx context.Context) error {
	msgs, err := w.consumer.Consume(ctx)
	if err != nil {
		return fmt.Errorf("failed to start consuming messages: %w", err)
	}

	w.start = time.Now()
	go w.run(ctx, msgs)

	pending, err := w.consumer.QueueLength()
	if err != nil {
		w.logger.Warn().Err(err).Msg("Failed to read queue length")
	}
	w.logger.Info().Int("queue_length", pending).Msg("Mail worker started")
	return nil
}

// Wait blocks until the message loop has exited.
func (w *MailWorker) Wait() {
	<-w.done
}

func (w *MailWorker) Stop() error {
	if err := w.consumer.Close(); err != nil {
		w.logger.Error().Err(err).Msg("Failed to close queue consumer")
	}

	stats := w.Stats()
	w.logger.Info().
		Int("processed", stats.Processed).
		Int("failed", stats.Failed).
		Int("malformed", stats.Malformed).
		Dur("uptime", time.Since(w.start)).
		Msg("Mail worker stopped")
	return nil
}

func (w *MailWorker) Stats() Stats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stats
}

func (w *MailWorker) run(ctx context.Context, msgs <-chan queue.Message) {
	defer close(w.done)

	for msg := range msgs {
		w.process(ctx, msg)
	}
	w.logger.Info().Msg("Message channel closed")
}

func (w *MailWorker) process(ctx context.Context, msg queue.Message) {
	defer func() {
		if err := msg.Ack(false); err != nil {
			w.logger.Error().Err(err).Msg("Failed to ack message")
		}
	}()

	var event models.WorkflowEvent
	if err := json.Unmarshal(msg.Body, &event); err != nil {
		w.logger.Error().Err(err).Str("type", msg.Type).Msg("Dropping malformed workflow event")
		w.record(func(s *Stats) { s.Malformed++ })
		return
	}

	if err := w.handler.HandleEvent(ctx, event); err != nil {
		w.logger.Error().Err(err).
			Str("entity_id", event.Entity.EntityID).
			Str("recipient_id", event.RecipientID).
			Str("event_kind", string(event.EventKind)).
			Msg("Failed to deliver notification mail")
		w.record(func(s *Stats) { s.Failed++ })
		return
	}

	w.record(func(s *Stats) { s.Processed++ })
}

func (w *MailWorker) record(update func(*Stats)) {
	w.mu.Lock()
	update(&w.stats)
	w.mu.Unlock()
}
