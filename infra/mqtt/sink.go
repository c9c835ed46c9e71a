package mqtt

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	coremetrics "github.com/kilianp07/pdac/core/metrics"
	"github.com/kilianp07/pdac/infra/logger"
)

// Config defines the connection parameters of the MQTT result sink.
type Config struct {
	Broker      string      `json:"broker"`
	ClientID    string      `json:"client_id"`
	Username    string      `json:"username"`
	Password    string      `json:"password"`
	TopicPrefix string      `json:"topic_prefix"`
	QoS         byte        `json:"qos"`
	Retain      bool        `json:"retain"`
	UseTLS      bool        `json:"use_tls"`
	ClientCert  string      `json:"client_cert"`
	ClientKey   string      `json:"client_key"`
	CABundle    string      `json:"ca_bundle"`
	LWTTopic    string      `json:"lwt_topic"`
	LWTPayload  string      `json:"lwt_payload"`
	MaxRetries  int         `json:"max_retries"`
	BackoffMS   int         `json:"backoff_ms"`
	TLSConfig   *tls.Config `json:"-"`
}

func (c *Config) setDefaults() {
	if c.ClientID == "" {
		c.ClientID = "pdac-" + uuid.NewString()
	}
	if c.TopicPrefix == "" {
		c.TopicPrefix = "pdac/trials"
	}
	c.TopicPrefix = strings.TrimSuffix(c.TopicPrefix, "/")
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
	if c.BackoffMS <= 0 {
		c.BackoffMS = 100
	}
}

// pahoClient is the subset of paho.Client the sink relies on.
type pahoClient interface {
	IsConnected() bool
	Connect() paho.Token
	Disconnect(quiesce uint)
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
}

var newMQTTClient = func(opts *paho.ClientOptions) pahoClient {
	return paho.NewClient(opts)
}

// Sink publishes trial results as JSON messages, one topic per strategy.
type Sink struct {
	cli     pahoClient
	cfg     Config
	backoff time.Duration
	log     logger.Logger
	mu      sync.Mutex
}

// NewSink connects to the broker.
func NewSink(cfg Config) (*Sink, error) {
	cfg.setDefaults()
	opts, err := NewClientOptions(cfg)
	if err != nil {
		return nil, err
	}
	log := logger.New("mqtt_sink")
	opts.OnConnect = func(paho.Client) { log.Infof("MQTT connected to %s", cfg.Broker) }
	opts.OnConnectionLost = func(_ paho.Client, err error) { log.Errorf("connection lost: %v", err) }
	c := newMQTTClient(opts)
	if token := c.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	return &Sink{
		cli:     c,
		cfg:     cfg,
		backoff: time.Duration(cfg.BackoffMS) * time.Millisecond,
		log:     log,
	}, nil
}

// NewClientOptions builds paho client options from Config.
func NewClientOptions(cfg Config) (*paho.ClientOptions, error) {
	if cfg.Broker == "" {
		return nil, fmt.Errorf("mqtt: broker is required")
	}
	opts := paho.NewClientOptions().AddBroker(cfg.Broker).SetClientID(cfg.ClientID)
	opts.AutoReconnect = true
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}
	if cfg.UseTLS {
		tlsCfg, err := cfg.LoadTLSConfig()
		if err != nil {
			return nil, err
		}
		opts.SetTLSConfig(tlsCfg)
	}
	if cfg.LWTTopic != "" {
		opts.SetWill(cfg.LWTTopic, cfg.LWTPayload, cfg.QoS, false)
	}
	return opts, nil
}

// LoadTLSConfig loads the TLS configuration from the file paths in the config.
func (c Config) LoadTLSConfig() (*tls.Config, error) {
	if c.TLSConfig != nil {
		return c.TLSConfig, nil
	}
	if c.ClientCert == "" || c.ClientKey == "" || c.CABundle == "" {
		return nil, fmt.Errorf("tls config requires client_cert, client_key and ca_bundle")
	}
	cert, err := tls.LoadX509KeyPair(c.ClientCert, c.ClientKey)
	if err != nil {
		return nil, fmt.Errorf("load cert: %w", err)
	}
	caBytes, err := os.ReadFile(c.CABundle)
	if err != nil {
		return nil, fmt.Errorf("read ca: %w", err)
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(caBytes) {
		return nil, fmt.Errorf("ca bundle %s holds no certificate", c.CABundle)
	}
	return &tls.Config{Certificates: []tls.Certificate{cert}, RootCAs: pool, MinVersion: tls.VersionTLS12}, nil
}

// Topic returns the topic results of strategy are published on.
func (s *Sink) Topic(strategy string) string {
	return s.cfg.TopicPrefix + "/" + strategy
}

// RecordTrials publishes every result on its strategy topic.
func (s *Sink) RecordTrials(res []coremetrics.TrialResult) error {
	for _, r := range res {
		payload, err := json.Marshal(r)
		if err != nil {
			return err
		}
		if err := s.publish(s.Topic(r.Strategy), payload); err != nil {
			return err
		}
	}
	return nil
}

// RecordSummaries publishes the summaries as one message.
func (s *Sink) RecordSummaries(sum []coremetrics.Summary) error {
	if len(sum) == 0 {
		return nil
	}
	payload, err := json.Marshal(sum)
	if err != nil {
		return err
	}
	return s.publish(s.cfg.TopicPrefix+"/summary", payload)
}

func (s *Sink) publish(topic string, payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var err error
	for attempt := 0; attempt <= s.cfg.MaxRetries; attempt++ {
		token := s.cli.Publish(topic, s.cfg.QoS, s.cfg.Retain, payload)
		token.Wait()
		if err = token.Error(); err == nil {
			s.log.Debugf("published %d bytes to %s", len(payload), topic)
			return nil
		}
		s.log.Errorf("publish attempt %d to %s failed: %v", attempt+1, topic, err)
		if attempt < s.cfg.MaxRetries {
			time.Sleep(s.backoff * time.Duration(1<<attempt))
		}
	}
	return fmt.Errorf("publish %s: %w", topic, err)
}

// Close disconnects from the broker.
func (s *Sink) Close() error {
	if s.cli != nil && s.cli.IsConnected() {
		s.cli.Disconnect(250)
	}
	return nil
}
