// Package mqtt publishes computed schedules to an MQTT broker so
// home-automation consumers can follow the plan.
package mqtt

import (
	"encoding/json"
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/DixonScott/battery-optimizer/core/model"
	"github.com/DixonScott/battery-optimizer/infra/logger"
)

// Config holds broker settings.
type Config struct {
	Enabled  bool   `json:"enabled"`
	Broker   string `json:"broker"`
	ClientID string `json:"client_id"`
	Username string `json:"username"`
	Password string `json:"password"`
	Topic    string `json:"topic"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.ClientID == "" {
		c.ClientID = "battery-optimizer"
	}
	if c.Topic == "" {
		c.Topic = "battery/schedule"
	}
}

// Validate checks mandatory fields when publishing is enabled.
func (c Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.Broker == "" {
		return fmt.Errorf("mqtt broker is required when publishing is enabled")
	}
	return nil
}

// ScheduleMessage is the retained payload describing one scheduling run.
type ScheduleMessage struct {
	RunID       string           `json:"run_id"`
	GeneratedAt time.Time        `json:"generated_at"`
	Engine      string           `json:"engine"`
	Mode        string           `json:"mode"`
	StepHours   float64          `json:"step_hours"`
	Start       time.Time        `json:"start"`
	ScheduleKW  model.Schedule   `json:"schedule_kw"`
	SoCKWh      model.Trajectory `json:"soc_kwh,omitempty"`
}

// Publisher pushes one schedule message per run.
type Publisher interface {
	PublishSchedule(msg ScheduleMessage) error
	Close()
}

// PahoPublisher publishes over a live broker connection.
type PahoPublisher struct {
	client paho.Client
	topic  string
	log    logger.Logger
}

// NewPahoPublisher connects to the broker and returns a publisher.
func NewPahoPublisher(cfg Config) (*PahoPublisher, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	opts := paho.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetUsername(cfg.Username).
		SetPassword(cfg.Password).
		SetConnectTimeout(10 * time.Second)
	client := paho.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(10*time.Second) || token.Error() != nil {
		err := token.Error()
		if err == nil {
			err = fmt.Errorf("timeout")
		}
		return nil, fmt.Errorf("connect mqtt broker %s: %w", cfg.Broker, err)
	}
	return &PahoPublisher{client: client, topic: cfg.Topic, log: logger.New("mqtt-publisher")}, nil
}

// PublishSchedule sends the message as retained JSON at QoS 1 so late
// subscribers still receive the current plan.
func (p *PahoPublisher) PublishSchedule(msg ScheduleMessage) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal schedule message: %w", err)
	}
	token := p.client.Publish(p.topic, 1, true, payload)
	if !token.WaitTimeout(10*time.Second) || token.Error() != nil {
		err := token.Error()
		if err == nil {
			err = fmt.Errorf("timeout")
		}
		return fmt.Errorf("publish schedule: %w", err)
	}
	p.log.Infof("published schedule run %s to %s", msg.RunID, p.topic)
	return nil
}

// Close disconnects from the broker.
func (p *PahoPublisher) Close() {
	p.client.Disconnect(250)
}
