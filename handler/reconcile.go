package handler

import (
	"context"
	"encoding/json"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"singo-backend/dto"
	"singo-backend/service"
)

// ServiceDependencies is handed to the queue consumer's message handlers.
type ServiceDependencies struct {
	ReconcileService service.ReconcileService
}

// ReconcileHandler applies one queued score-reconcile message.
func ReconcileHandler(ctx context.Context, msg amqp.Delivery, deps ServiceDependencies) error {
	var reconcileMsg dto.ReconcileMessage
	if err := json.Unmarshal(msg.Body, &reconcileMsg); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("failed to unmarshal reconcile message")
		return err
	}

	zerolog.Ctx(ctx).Info().
		Uint("record_id", reconcileMsg.RecordID).
		Float64("score", reconcileMsg.Score).
		Msg("received reconcile message")

	return deps.ReconcileService.Process(ctx, reconcileMsg)
}
