package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/YanFialkovitz/app-dados-sensores/internal/config"
)

const (
	qos            = byte(1)
	handlerTimeout = 5 * time.Second
	waitPoll       = 200 * time.Millisecond
)

var ErrStopped = errors.New("mqtt subscriber stopped")

// Handler processes one valid telemetry message.
type Handler func(ctx context.Context, t Telemetry) error

// MQTTSubscriber is what feature modules need to attach their handler.
type MQTTSubscriber interface {
	SetMessageHandler(h Handler)
}

type Subscriber struct {
	client paho.Client
	topic  string
	logger *slog.Logger

	mu      sync.RWMutex
	handler Handler

	stopCh   chan struct{}
	stopOnce sync.Once
}

func brokerURL(cfg config.Config) string {
	return fmt.Sprintf("tcp://%s:%d", cfg.MQTTBroker, cfg.MQTTPort)
}

func NewSubscriber(cfg config.Config, logger *slog.Logger) *Subscriber {
	s := &Subscriber{
		topic:  cfg.MQTTTopic,
		logger: logger,
		stopCh: make(chan struct{}),
	}

	opts := paho.NewClientOptions()
	opts.AddBroker(brokerURL(cfg))
	opts.SetClientID(cfg.MQTTClientID)
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(5 * time.Second)
	opts.SetMaxReconnectInterval(60 * time.Second)
	opts.SetKeepAlive(30 * time.Second)
	opts.SetPingTimeout(10 * time.Second)

	// subscribing here also restores the subscription after a reconnect
	opts.SetOnConnectHandler(func(c paho.Client) {
		logger.Info("mqtt connected", "broker", cfg.MQTTBroker, "port", cfg.MQTTPort)
		if err := s.subscribe(c); err != nil {
			logger.Error("mqtt subscribe failed", "topic", s.topic, "error", err)
		}
	})
	opts.SetConnectionLostHandler(func(_ paho.Client, err error) {
		logger.Warn("mqtt connection lost", "error", err)
	})

	s.client = paho.NewClient(opts)
	return s
}

func (s *Subscriber) SetMessageHandler(h Handler) {
	s.mu.Lock()
	s.handler = h
	s.mu.Unlock()
}

// Connect blocks until the broker accepts the connection, ctx is done or the
// subscriber is stopped.
func (s *Subscriber) Connect(ctx context.Context) error {
	select {
	case <-s.stopCh:
		return ErrStopped
	default:
	}
	if s.client.IsConnectionOpen() {
		return nil
	}

	token := s.client.Connect()
	for !token.WaitTimeout(waitPoll) {
		select {
		case <-ctx.Done():
			s.client.Disconnect(0)
			return ctx.Err()
		case <-s.stopCh:
			s.client.Disconnect(0)
			return ErrStopped
		default:
		}
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt connect: %w", err)
	}
	return nil
}

func (s *Subscriber) subscribe(c paho.Client) error {
	token := c.Subscribe(s.topic, qos, func(_ paho.Client, msg paho.Message) {
		s.handleMessage(msg.Topic(), msg.Payload())
	})
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("subscribe timeout for topic %s", s.topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("subscribe to %s: %w", s.topic, err)
	}
	s.logger.Info("subscribed to mqtt topic", "topic", s.topic, "qos", qos)
	return nil
}

func (s *Subscriber) handleMessage(topic string, payload []byte) {
	s.logger.Debug("received mqtt message", "topic", topic, "size", len(payload))

	t, err := decodeTelemetry(topic, payload)
	if err != nil {
		s.logger.Warn("invalid telemetry message",
			"topic", topic,
			"station_id", t.StationID,
			"error", err,
		)
		return
	}

	s.mu.RLock()
	h := s.handler
	s.mu.RUnlock()
	if h == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()
	if err := h(ctx, t); err != nil {
		s.logger.Error("message handler failed",
			"topic", topic,
			"station_id", t.StationID,
			"error", err,
		)
	}
}

func (s *Subscriber) IsConnected() bool {
	return s.client.IsConnectionOpen()
}

// Disconnect stops the subscriber. It is idempotent.
func (s *Subscriber) Disconnect() {
	s.stopOnce.Do(func() { close(s.stopCh) })

	if s.client.IsConnectionOpen() {
		s.client.Unsubscribe(s.topic).WaitTimeout(2 * time.Second)
	}
	s.client.Disconnect(250)
	s.logger.Info("mqtt subscriber disconnected")
}

// Publisher sends telemetry, for the simulator and tests.
type Publisher struct {
	client paho.Client
}

func NewPublisher(cfg config.Config, clientID string) *Publisher {
	opts := paho.NewClientOptions()
	opts.AddBroker(brokerURL(cfg))
	opts.SetClientID(clientID)
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetConnectTimeout(10 * time.Second)
	return &Publisher{client: paho.NewClient(opts)}
}

func (p *Publisher) Connect(ctx context.Context) error {
	return waitToken(ctx, p.client.Connect())
}

func (p *Publisher) Publish(ctx context.Context, t Telemetry) error {
	payload, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("encode telemetry: %w", err)
	}
	return waitToken(ctx, p.client.Publish(TopicFor(t.StationID), qos, false, payload))
}

func (p *Publisher) Disconnect() {
	p.client.Disconnect(250)
}

func waitToken(ctx context.Context, token paho.Token) error {
	select {
	case <-token.Done():
		return token.Error()
	case <-ctx.Done():
		return ctx.Err()
	}
}
