// Package mqttingest subscribes to the capture-agent event topic and
// feeds decoded input events into the inference session.
package mqttingest

import (
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"github.com/aura-labs/aura/internal/monitor"
)

const (
	eventsTopic    = "aura/events"
	connectTimeout = 10 * time.Second
	disconnectMs   = 250
)

// wireEvent is the JSON shape the capture agent publishes. Timestamps
// are Unix milliseconds; zero means "use receive time".
type wireEvent struct {
	Kind        string `json:"kind"`
	Key         string `json:"key,omitempty"`
	WindowTitle string `json:"window_title,omitempty"`
	TsMs        int64  `json:"ts_ms,omitempty"`
}

// Config holds the broker connection settings.
type Config struct {
	Broker   string
	ClientID string
	Username string
	Password string
}

// Ingestor bridges MQTT to a monitor.Ingestor. Decode failures are
// logged and skipped; one bad event never drops its batch siblings.
type Ingestor struct {
	client mqtt.Client
	sink   monitor.Ingestor
	logger *zap.Logger
}

// NewIngestor connects to the broker and subscribes to the event
// topic. The paho client reconnects and resubscribes on its own.
func NewIngestor(cfg Config, sink monitor.Ingestor, logger *zap.Logger) (*Ingestor, error) {
	ing := &Ingestor{sink: sink, logger: logger}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)
	opts.SetUsername(cfg.Username)
	opts.SetPassword(cfg.Password)
	opts.SetAutoReconnect(true)
	opts.SetKeepAlive(60 * time.Second)
	opts.SetPingTimeout(10 * time.Second)
	opts.SetConnectTimeout(connectTimeout)
	opts.SetOnConnectHandler(func(c mqtt.Client) {
		// Resubscribe here so reconnects restore the subscription.
		if token := c.Subscribe(eventsTopic, 1, ing.handleMessage); token.Wait() && token.Error() != nil {
			logger.Error("mqtt subscribe failed", zap.String("topic", eventsTopic), zap.Error(token.Error()))
			return
		}
		logger.Info("mqtt subscribed", zap.String("topic", eventsTopic))
	})
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		logger.Warn("mqtt connection lost", zap.Error(err))
	})

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("mqtt connect %s: %w", cfg.Broker, token.Error())
	}
	ing.client = client
	logger.Info("mqtt connected", zap.String("broker", cfg.Broker))
	return ing, nil
}

func (i *Ingestor) Close() {
	i.client.Disconnect(disconnectMs)
	i.logger.Info("mqtt disconnected")
}

// handleMessage decodes a payload that is either a single event object
// or a batch array and forwards each event to the sink.
func (i *Ingestor) handleMessage(_ mqtt.Client, msg mqtt.Message) {
	payload := msg.Payload()

	var batch []wireEvent
	if err := json.Unmarshal(payload, &batch); err != nil {
		var single wireEvent
		if err := json.Unmarshal(payload, &single); err != nil {
			i.logger.Warn("mqtt payload decode failed", zap.Error(err))
			return
		}
		batch = []wireEvent{single}
	}

	received := time.Now()
	for _, we := range batch {
		kind, err := monitor.ParseEventKind(we.Kind)
		if err != nil {
			i.logger.Warn("mqtt event skipped", zap.String("kind", we.Kind), zap.Error(err))
			continue
		}
		at := received
		if we.TsMs > 0 {
			at = time.UnixMilli(we.TsMs)
		}
		i.sink.Ingest(monitor.InputEvent{
			Kind:        kind,
			Key:         we.Key,
			WindowTitle: we.WindowTitle,
			At:          at,
		})
	}
}
