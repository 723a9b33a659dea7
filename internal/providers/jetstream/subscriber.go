package jetstream

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go/jetstream"
	"go.uber.org/zap"

	"github.com/feral-file/title-scrutiny/internal/adapter"
	"github.com/feral-file/title-scrutiny/internal/domain"
	"github.com/feral-file/title-scrutiny/internal/logger"
	"github.com/feral-file/title-scrutiny/internal/messaging"
)

const (
	defaultBufferSize        = 256
	defaultInactiveThreshold = 5 * time.Minute
	deleteConsumerTimeout    = 5 * time.Second
)

// Subscriber follows the change stream through one ephemeral consumer per subscription
type Subscriber struct {
	nc     adapter.NatsConn
	js     adapter.JetStream
	json   adapter.JSON
	config Config
}

var _ messaging.Subscriber = (*Subscriber)(nil)

// NewSubscriber connects to NATS
func NewSubscriber(cfg Config, natsJS adapter.NatsJetStream, jsonAdapter adapter.JSON) (*Subscriber, error) {
	nc, js, err := connect(cfg, natsJS)
	if err != nil {
		return nil, err
	}

	if cfg.BufferSize <= 0 {
		cfg.BufferSize = defaultBufferSize
	}
	if cfg.InactiveThreshold <= 0 {
		cfg.InactiveThreshold = defaultInactiveThreshold
	}

	return &Subscriber{
		nc:     nc,
		js:     js,
		json:   jsonAdapter,
		config: cfg,
	}, nil
}

// Subscribe starts a consumer delivering changes published from now on.
// Messages are handled one at a time so the channel keeps stream order.
func (s *Subscriber) Subscribe(ctx context.Context) (<-chan domain.ChangeEvent, messaging.Unsubscribe, error) {
	consumerConfig := jetstream.ConsumerConfig{
		DeliverPolicy:     jetstream.DeliverNewPolicy,
		AckPolicy:         jetstream.AckExplicitPolicy,
		FilterSubject:     s.config.subjectFilter(),
		InactiveThreshold: s.config.InactiveThreshold,
	}

	consumer, err := s.js.CreateOrUpdateConsumer(ctx, s.config.StreamName, consumerConfig)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create consumer: %w", err)
	}

	ch := messaging.NewChannel(s.config.BufferSize)
	consumeCtx, err := consumer.Consume(func(msg adapter.Message) {
		s.handleMessage(ctx, ch, msg)
	})
	if err != nil {
		s.deleteConsumer(consumer.Name())
		return nil, nil, fmt.Errorf("failed to start consuming: %w", err)
	}

	logger.InfoCtx(ctx, "Subscribed to change stream",
		zap.String("stream", s.config.StreamName),
		zap.String("consumer", consumer.Name()))

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			consumeCtx.Stop()
			s.deleteConsumer(consumer.Name())
			ch.Close()
		})
	}

	go func() {
		select {
		case <-ctx.Done():
			unsubscribe()
		case <-ch.Done():
		}
	}()

	return ch.Events(), unsubscribe, nil
}

// handleMessage decodes one message and queues it on the subscription
func (s *Subscriber) handleMessage(ctx context.Context, ch *messaging.Channel, msg adapter.Message) {
	var event domain.ChangeEvent
	if err := s.json.Unmarshal(msg.Data(), &event); err != nil {
		logger.ErrorCtx(ctx, err, zap.String("message", "Failed to unmarshal change event"), zap.String("subject", msg.Subject()))
		// Terminate message for unparseable data
		if err := msg.Term(); err != nil {
			logger.ErrorCtx(ctx, err, zap.String("message", "Failed to terminate message"))
		}
		return
	}

	if err := ch.Deliver(ctx, event); err != nil {
		if err := msg.Nak(); err != nil {
			logger.ErrorCtx(ctx, err, zap.String("message", "Failed to nak message"))
		}
		return
	}

	if err := msg.Ack(); err != nil {
		logger.ErrorCtx(ctx, err, zap.String("message", "Failed to ack message"), zap.String("event_id", event.ID))
	}
}

func (s *Subscriber) deleteConsumer(name string) {
	if name == "" {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), deleteConsumerTimeout)
	defer cancel()

	if err := s.js.DeleteConsumer(ctx, s.config.StreamName, name); err != nil {
		logger.Warn("Failed to delete consumer", zap.String("consumer", name), zap.Error(err))
	}
}

// Close closes the NATS connection
func (s *Subscriber) Close() {
	if s.nc == nil {
		return
	}

	s.nc.Close()
}
