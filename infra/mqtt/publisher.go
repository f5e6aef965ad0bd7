package mqtt

import (
	"encoding/json"
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/kilianp07/bikesim/core/events"
	"github.com/kilianp07/bikesim/core/logger"
	"github.com/kilianp07/bikesim/core/model"
	coremon "github.com/kilianp07/bikesim/core/monitoring"
	infralog "github.com/kilianp07/bikesim/infra/logger"
)

// Publisher sends events to <prefix>/events/<kind> and station snapshots to
// <prefix>/stations/<station id>. It implements events.Recorder and
// metrics.SnapshotSink.
type Publisher struct {
	cli        pahoClient
	prefix     string
	qos        byte
	retain     bool
	maxRetries int
	backoff    time.Duration
	timeout    time.Duration
	log        logger.Logger
}

// NewPublisher connects to the broker described by cfg.
func NewPublisher(cfg Config) (*Publisher, error) {
	cfg.SetDefaults()
	opts, err := NewClientOptions(cfg)
	if err != nil {
		return nil, err
	}
	log := infralog.New("mqtt_publisher")
	opts.OnConnect = func(paho.Client) {
		log.Infof("MQTT connected to %s", cfg.Broker)
	}
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		log.Errorf("connection lost: %v", err)
	}
	opts.OnReconnecting = func(_ paho.Client, _ *paho.ClientOptions) {
		log.Warnf("reconnecting to MQTT broker")
	}
	c := newMQTTClient(opts)
	timeout := time.Duration(cfg.TimeoutMS) * time.Millisecond
	if token := c.Connect(); !token.WaitTimeout(timeout) {
		return nil, fmt.Errorf("mqtt connect to %s timed out", cfg.Broker)
	} else if token.Error() != nil {
		return nil, token.Error()
	}
	return &Publisher{
		cli:        c,
		prefix:     cfg.TopicPrefix,
		qos:        cfg.QoS,
		retain:     cfg.Retain,
		maxRetries: cfg.MaxRetries,
		backoff:    time.Duration(cfg.BackoffMS) * time.Millisecond,
		timeout:    timeout,
		log:        log,
	}, nil
}

// EventTopic returns the topic an event kind is published on.
func (p *Publisher) EventTopic(k events.Kind) string {
	return fmt.Sprintf("%s/events/%s", p.prefix, k)
}

// StationTopic returns the topic a station snapshot is published on.
func (p *Publisher) StationTopic(stationID string) string {
	return fmt.Sprintf("%s/stations/%s", p.prefix, stationID)
}

// Record publishes e. Failures are logged and reported, never returned.
func (p *Publisher) Record(e events.Event) {
	if err := p.publishJSON(p.EventTopic(e.Kind), e); err != nil {
		p.log.Errorf("publish event %s: %v", e.ID, err)
		coremon.CaptureException(err, map[string]string{"module": "mqtt", "kind": e.Kind.String()})
	}
}

// RecordStationSnapshots publishes one retained-style message per station.
func (p *Publisher) RecordStationSnapshots(snaps []model.StationSnapshot) error {
	for _, s := range snaps {
		if err := p.publishJSON(p.StationTopic(s.StationID), s); err != nil {
			return err
		}
	}
	return nil
}

func (p *Publisher) publishJSON(topic string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	var publishErr error
	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		token := p.cli.Publish(topic, p.qos, p.retain, payload)
		if !token.WaitTimeout(p.timeout) {
			publishErr = fmt.Errorf("publish to %s timed out", topic)
		} else {
			publishErr = token.Error()
		}
		if publishErr == nil {
			return nil
		}
		p.log.Warnf("publish attempt %d to %s failed: %v", attempt+1, topic, publishErr)
		time.Sleep(p.backoff * time.Duration(1<<attempt))
	}
	return publishErr
}

// Close disconnects from the broker.
func (p *Publisher) Close() error {
	if p.cli != nil && p.cli.IsConnected() {
		p.cli.Disconnect(250)
	}
	return nil
}
