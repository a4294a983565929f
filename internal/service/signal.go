package service

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/lsiproject/propertyhub/internal/domain"
)

const PropertyEventChannel = "property-events"

type SignalService struct {
	rdb *redis.Client
}

func NewSignalService(redisClient *redis.Client) *SignalService {
	return &SignalService{
		rdb: redisClient,
	}
}

func (s *SignalService) Publish(ctx context.Context, event domain.PropertyEvent) error {

	jsonstr, err := json.Marshal(event)
	if err != nil {
		return err
	}

	err = s.rdb.Publish(ctx, PropertyEventChannel, jsonstr).Err()
	if err != nil {
		return err

	}

	return nil
}

// Realtime forwards published property events to output until ctx is done.
func (s *SignalService) Realtime(ctx context.Context, output chan<- domain.PropertyEvent) {
	pubsub := s.rdb.Subscribe(ctx, PropertyEventChannel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var event domain.PropertyEvent
			err := json.Unmarshal([]byte(msg.Payload), &event)
			if err != nil {
				slog.ErrorContext(
					ctx, "Failed to decode property event",
					slog.String("error", err.Error()),
					slog.String("module", "signal"),
				)
				continue
			}
			select {
			case output <- event:
			case <-ctx.Done():
				return
			}
		}
	}
}
