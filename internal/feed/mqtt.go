package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/rileyhilliard/televisor/internal/errors"
	"github.com/rileyhilliard/televisor/internal/logger"
)

// MQTTConfig describes the broker and topic carrying throughput samples.
type MQTTConfig struct {
	Broker   string
	Topic    string
	ClientID string
	Username string
	Password string
	QoS      byte
}

// ClientFactory builds the paho client. Tests swap it out.
type ClientFactory func(*mqtt.ClientOptions) mqtt.Client

// MQTTSource emits a sample for every JSON message on a topic:
//
//	{"processed_kg": 64, "exported_kg": 31}
type MQTTSource struct {
	cfg       MQTTConfig
	log       logger.Logger
	newClient ClientFactory
	connectTO time.Duration
}

// NewMQTTSource creates a source for cfg. An empty ClientID gets a random one.
func NewMQTTSource(cfg MQTTConfig, log logger.Logger) *MQTTSource {
	if log == nil {
		log = logger.Noop()
	}
	if cfg.ClientID == "" {
		cfg.ClientID = "televisor-" + uuid.NewString()[:8]
	}
	return &MQTTSource{
		cfg:       cfg,
		log:       log,
		newClient: mqtt.NewClient,
		connectTO: 10 * time.Second,
	}
}

// WithClientFactory replaces the paho client constructor.
func (s *MQTTSource) WithClientFactory(f ClientFactory) *MQTTSource {
	s.newClient = f
	return s
}

// ClientID returns the MQTT client identifier in use.
func (s *MQTTSource) ClientID() string {
	return s.cfg.ClientID
}

// Start connects to the broker and subscribes. The subscription is renewed on
// every reconnect.
func (s *MQTTSource) Start(ctx context.Context, emit func(Sample)) (func(), error) {
	handler := s.handler(emit)

	opts := mqtt.NewClientOptions()
	opts.AddBroker(s.cfg.Broker)
	opts.SetClientID(s.cfg.ClientID)
	opts.SetUsername(s.cfg.Username)
	opts.SetPassword(s.cfg.Password)
	opts.SetAutoReconnect(true)
	opts.SetKeepAlive(60 * time.Second)
	opts.SetPingTimeout(10 * time.Second)
	opts.SetOnConnectHandler(func(c mqtt.Client) {
		s.log.Debug("mqtt connected to %s, subscribing to %s", s.cfg.Broker, s.cfg.Topic)
		token := c.Subscribe(s.cfg.Topic, s.cfg.QoS, handler)
		if token.Wait() && token.Error() != nil {
			s.log.Warn("mqtt subscribe to %s failed: %v", s.cfg.Topic, token.Error())
		}
	})
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		s.log.Warn("mqtt connection lost: %v", err)
	})

	client := s.newClient(opts)

	timeout := s.connectTO
	if deadline, ok := ctx.Deadline(); ok {
		if d := time.Until(deadline); d < timeout {
			timeout = d
		}
	}
	token := client.Connect()
	if !token.WaitTimeout(timeout) {
		client.Disconnect(0)
		return nil, errors.New(errors.ErrFeed,
			fmt.Sprintf("Timed out connecting to MQTT broker %s", s.cfg.Broker),
			"Check feed.mqtt.broker and that the broker is reachable")
	}
	if err := token.Error(); err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrFeed,
			fmt.Sprintf("Couldn't connect to MQTT broker %s", s.cfg.Broker),
			"Check feed.mqtt.broker and the credentials")
	}

	var once sync.Once
	stop := func() {
		once.Do(func() {
			if t := client.Unsubscribe(s.cfg.Topic); t.WaitTimeout(time.Second) && t.Error() != nil {
				s.log.Debug("mqtt unsubscribe: %v", t.Error())
			}
			client.Disconnect(250)
		})
	}
	return stop, nil
}

func (s *MQTTSource) handler(emit func(Sample)) mqtt.MessageHandler {
	return func(_ mqtt.Client, msg mqtt.Message) {
		sample, err := DecodeSample(msg.Payload())
		if err != nil {
			s.log.Warn("ignoring message on %s: %v", msg.Topic(), err)
			return
		}
		emit(sample)
	}
}

// DecodeSample parses a JSON throughput message. Both fields are required
// and must be non-negative.
func DecodeSample(payload []byte) (Sample, error) {
	var raw struct {
		Processed *float64 `json:"processed_kg"`
		Exported  *float64 `json:"exported_kg"`
	}
	if err := json.Unmarshal(payload, &raw); err != nil {
		return Sample{}, fmt.Errorf("invalid sample: %w", err)
	}
	if raw.Processed == nil || raw.Exported == nil {
		return Sample{}, fmt.Errorf("sample needs processed_kg and exported_kg")
	}
	if *raw.Processed < 0 || *raw.Exported < 0 {
		return Sample{}, fmt.Errorf("sample values must be non-negative")
	}
	return Sample{Processed: *raw.Processed, Exported: *raw.Exported}, nil
}
