package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/NourhenHamza/TalentGo-sub001/internal/models"
	"github.com/NourhenHamza/TalentGo-sub001/internal/workflow"
	"github.com/NourhenHamza/TalentGo-sub001/pkg/rabbitmq"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

type RabbitMQNotifier interface {
	Notifier
	Close() error
}

type publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

type rabbitMQNotifier struct {
	conn       *amqp.Connection
	channel    *amqp.Channel
	publisher  publisher
	exchange   string
	routingKey string
	logger     zerolog.Logger
}

func NewRabbitMQNotifier(url, exchange, routingKey, queueName string, logger zerolog.Logger) (RabbitMQNotifier, error) {
	conn, err := rabbitmq.NewConnection(url)
	if err != nil {
		return nil, err
	}

	channel, err := rabbitmq.NewChannel(conn)
	if err != nil {
		conn.Close()
		return nil, err
	}

	topology := rabbitmq.Topology{Exchange: exchange, Queue: queueName, BindingKey: routingKey}
	if err := rabbitmq.Declare(channel, topology); err != nil {
		channel.Close()
		conn.Close()
		return nil, err
	}

	logger.Info().
		Str("exchange", exchange).
		Str("queue", queueName).
		Str("routing_key", routingKey).
		Msg("Connected to RabbitMQ")

	return &rabbitMQNotifier{
		conn:       conn,
		channel:    channel,
		publisher:  channel,
		exchange:   exchange,
		routingKey: routingKey,
		logger:     logger,
	}, nil
}

func (n *rabbitMQNotifier) Notify(ctx context.Context, recipientID string, kind workflow.EventKind, summary workflow.Summary) error {
	event := models.WorkflowEvent{
		RecipientID: recipientID,
		EventKind:   kind,
		Entity:      summary,
		Timestamp:   time.Now().Unix(),
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	publishCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = n.publisher.PublishWithContext(
		publishCtx,
		n.exchange,   // exchange
		n.routingKey, // routing key
		false,        // mandatory
		false,        // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Type:         string(kind),
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish workflow event: %w", err)
	}

	n.logger.Debug().
		Str("entity_id", summary.EntityID).
		Str("event_kind", string(kind)).
		Str("recipient_id", recipientID).
		Msg("Workflow event published")

	return nil
}

func (n *rabbitMQNotifier) Close() error {
	if n.channel != nil {
		if err := n.channel.Close(); err != nil {
			n.logger.Error().Err(err).Msg("Failed to close RabbitMQ channel")
		}
	}

	if n.conn != nil {
		if err := n.conn.Close(); err != nil {
			n.logger.Error().Err(err).Msg("Failed to close RabbitMQ connection")
		}
	}

	return nil
}
