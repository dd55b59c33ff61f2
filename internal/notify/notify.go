package notify

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/ormasrl/tenderdesk/internal/model"
)

// Dispatcher consumes notification intents emitted by the engine. Delivery
// (email, in-app) lives behind this interface.
type Dispatcher interface {
	Dispatch(ctx context.Context, intents []model.NotificationIntent) error
}

// LogDispatcher records intents in the service log. Used until a real
// delivery channel is wired in deployment.
type LogDispatcher struct {
	log zerolog.Logger
}

func NewLogDispatcher(log zerolog.Logger) *LogDispatcher {
	return &LogDispatcher{log: log}
}

func (d *LogDispatcher) Dispatch(ctx context.Context, intents []model.NotificationIntent) error {
	for _, intent := range intents {
		event := d.log.Info().
			Str("kind", string(intent.Kind)).
			Str("entity_id", intent.EntityID.String())
		for key, value := range intent.Payload {
			event = event.Str(key, value)
		}
		event.Msg("notification intent")
	}
	return nil
}
