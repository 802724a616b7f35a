package rabbitmq

import (
	"context"
	"encoding/json"

	amqp "github.com/rabbitmq/amqp091-go"

	"singo-backend/config"
	"singo-backend/dto"
)

// Publisher pushes reconcile messages onto the scoring exchange. Publishing
// is best-effort from the pipeline's point of view; the caller only logs a
// failure.
type Publisher interface {
	PublishReconcile(ctx context.Context, msg dto.ReconcileMessage) error
}

type publisher struct {
	conn *amqp.Connection
	cfg  *config.RabbitMQ
}

func NewPublisher(conn *amqp.Connection, cfg *config.RabbitMQ) Publisher {
	return &publisher{conn: conn, cfg: cfg}
}

func (p *publisher) PublishReconcile(ctx context.Context, msg dto.ReconcileMessage) error {
	ch, err := p.conn.Channel()
	if err != nil {
		return err
	}
	defer ch.Close()

	if err := ch.ExchangeDeclare(ExchangeName, p.cfg.Kind, true, false, false, false, nil); err != nil {
		return err
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	return ch.PublishWithContext(ctx, ExchangeName, RoutingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	})
}
