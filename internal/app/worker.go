package app

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/NourhenHamza/TalentGo-sub001/internal/config"
	"github.com/NourhenHamza/TalentGo-sub001/internal/repository"
	"github.com/NourhenHamza/TalentGo-sub001/internal/service/integration"
	"github.com/NourhenHamza/TalentGo-sub001/internal/worker"
	"github.com/NourhenHamza/TalentGo-sub001/internal/worker/queue"
	"github.com/NourhenHamza/TalentGo-sub001/pkg/rabbitmq"
	"github.com/rs/zerolog"
)

// RunWorker consumes workflow events until ctx is cancelled or the broker
// connection drops.
func RunWorker(ctx context.Context, cfg *config.Config, log zerolog.Logger, db *sql.DB) error {
	conn, err := rabbitmq.NewConnection(cfg.RabbitMQ.URL)
	if err != nil {
		return err
	}
	defer conn.Close()

	channel, err := rabbitmq.NewChannel(conn)
	if err != nil {
		return err
	}
	defer channel.Close()

	topology := rabbitmq.Topology{
		Exchange:   cfg.RabbitMQ.Exchange,
		Queue:      cfg.RabbitMQ.QueueName,
		BindingKey: cfg.RabbitMQ.RoutingKey,
	}
	if err := rabbitmq.Declare(channel, topology); err != nil {
		return err
	}

	mailer := integration.NewSMTPMailer(integration.SMTPConfig{
		Host:          cfg.SMTP.Host,
		Port:          cfg.SMTP.Port,
		User:          cfg.SMTP.User,
		Password:      cfg.SMTP.Password,
		From:          cfg.SMTP.From,
		SkipTLSVerify: cfg.SMTP.SkipTLSVerify,
	}, log)
	if cfg.SMTP.Host == "" {
		log.Warn().Msg("smtp.host is empty, notification mails will fail and be dropped")
	}

	actorRepo := repository.NewActorRepository(db, log)
	handler := worker.NewMailHandler(actorRepo, mailer, log)
	consumer := queue.NewRabbitMQConsumer(channel, cfg.RabbitMQ.QueueName, cfg.RabbitMQ.ConsumerTag, log)

	w := worker.NewMailWorker(consumer, handler, log)
	if err := w.Start(ctx); err != nil {
		return fmt.Errorf("failed to start mail worker: %w", err)
	}

	w.Wait()
	return w.Stop()
}
