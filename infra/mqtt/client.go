package mqtt

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/kilianp07/powertask/core/telemetry"
	"github.com/kilianp07/powertask/core/uplink"
	"github.com/kilianp07/powertask/infra/logger"
)

// Config defines the connection parameters for the Paho MQTT link client.
type Config struct {
	Broker        string          `json:"broker"`
	ClientID      string          `json:"client_id"`
	Username      string          `json:"username"`
	Password      string          `json:"password"`
	UplinkTopic   string          `json:"uplink_topic"`
	DownlinkTopic string          `json:"downlink_topic"`
	UseTLS        bool            `json:"use_tls"`
	ClientCert    string          `json:"client_cert"`
	ClientKey     string          `json:"client_key"`
	CABundle      string          `json:"ca_bundle"`
	QoS           map[string]byte `json:"qos"`
	LWTTopic      string          `json:"lwt_topic"`
	LWTPayload    string          `json:"lwt_payload"`
	LWTQoS        byte            `json:"lwt_qos"`
	LWTRetain     bool            `json:"lwt_retain"`
	MaxRetries    int             `json:"max_retries"`
	BackoffMS     int             `json:"backoff_ms"`
	TLSConfig     *tls.Config     `json:"-"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.UplinkTopic == "" {
		c.UplinkTopic = "powertask/uplink"
	}
	if c.DownlinkTopic == "" {
		c.DownlinkTopic = "powertask/downlink"
	}
	if c.ClientID == "" {
		c.ClientID = "powertask-" + uuid.NewString()
	}
}

// Validate checks mandatory fields.
func (c Config) Validate() error {
	if c.Broker == "" {
		return fmt.Errorf("broker is required")
	}
	return nil
}

// pahoClient is the subset of the Paho API the link client uses; it exists
// so tests can inject a fake.
type pahoClient interface {
	IsConnected() bool
	Connect() paho.Token
	Disconnect(quiesce uint)
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
	Subscribe(topic string, qos byte, callback paho.MessageHandler) paho.Token
}

var newMQTTClient = func(opts *paho.ClientOptions) pahoClient {
	return paho.NewClient(opts)
}

// LinkClient implements uplink.Transport over MQTT: output frames are
// published on the uplink topic, inbound command frames arrive on the
// downlink topic and are surfaced on Receive.
type LinkClient struct {
	cli        pahoClient
	cfg        Config
	logger     logger.Logger
	inbound    chan *telemetry.Frame
	maxRetries int
	backoff    time.Duration

	mu     sync.Mutex
	closed bool
}

// NewLinkClient connects to the MQTT broker and subscribes to the downlink
// topic.
func NewLinkClient(cfg Config) (*LinkClient, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	opts, err := NewClientOptions(cfg)
	if err != nil {
		return nil, err
	}

	log := logger.New("mqtt_link")
	lc := &LinkClient{
		cfg:        cfg,
		logger:     log,
		inbound:    make(chan *telemetry.Frame, 32),
		maxRetries: cfg.MaxRetries,
		backoff:    time.Duration(cfg.BackoffMS) * time.Millisecond,
	}

	opts.OnConnect = func(c paho.Client) {
		log.Infof("MQTT connected")
		qos := byte(0)
		if q, ok := cfg.QoS["downlink"]; ok {
			qos = q
		}
		if token := c.Subscribe(cfg.DownlinkTopic, qos, lc.onDownlink); token.Wait() && token.Error() != nil {
			log.Errorf("subscribe error: %v", token.Error())
		}
	}
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		log.Errorf("connection lost: %v", err)
	}
	opts.OnReconnecting = func(_ paho.Client, _ *paho.ClientOptions) {
		log.Warnf("reconnecting to MQTT broker")
	}
	c := newMQTTClient(opts)
	if token := c.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	lc.cli = c
	return lc, nil
}

// NewClientOptions builds mqtt client options from Config.
func NewClientOptions(cfg Config) (*paho.ClientOptions, error) {
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
		opts.SetWill(cfg.LWTTopic, cfg.LWTPayload, cfg.LWTQoS, cfg.LWTRetain)
	}
	return opts, nil
}

// LoadTLSConfig loads the TLS configuration from the file paths in the
// config.
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
	pool.AppendCertsFromPEM(caBytes)
	cfg := &tls.Config{Certificates: []tls.Certificate{cert}, RootCAs: pool, MinVersion: tls.VersionTLS12}
	return cfg, nil
}

func (lc *LinkClient) onDownlink(_ paho.Client, msg paho.Message) {
	var f telemetry.Frame
	if err := f.UnmarshalBinary(msg.Payload()); err != nil {
		lc.logger.Errorf("failed to decode downlink frame: %v", err)
		return
	}
	select {
	case lc.inbound <- &f:
		lc.logger.Infof("downlink frame for %s (%d bytes)", f.TaskID, f.Length())
	default:
		lc.logger.Warnf("downlink buffer full, dropping frame for %s", f.TaskID)
	}
}

// Send publishes the frame on the uplink topic, retrying with exponential
// backoff.
func (lc *LinkClient) Send(frame *telemetry.Frame) error {
	payload, err := frame.MarshalBinary()
	if err != nil {
		return err
	}
	qos := byte(0)
	if q, ok := lc.cfg.QoS["uplink"]; ok {
		qos = q
	}
	retries := lc.maxRetries
	if retries <= 0 {
		retries = 3
	}
	backoff := lc.backoff
	if backoff <= 0 {
		backoff = 100 * time.Millisecond
	}
	var publishErr error
	for attempt := 0; attempt <= retries; attempt++ {
		token := lc.cli.Publish(lc.cfg.UplinkTopic, qos, false, payload)
		token.Wait()
		publishErr = token.Error()
		if publishErr == nil {
			lc.logger.Infof("uplinked frame for %s (%d bytes)", frame.TaskID, frame.Length())
			return nil
		}
		lc.logger.Errorf("publish attempt %d failed: %v", attempt+1, publishErr)
		time.Sleep(backoff * time.Duration(1<<attempt))
	}
	return publishErr
}

// Receive yields inbound command frames.
func (lc *LinkClient) Receive() <-chan *telemetry.Frame { return lc.inbound }

// Close gracefully closes the MQTT connection.
func (lc *LinkClient) Close() error {
	lc.mu.Lock()
	defer lc.mu.Unlock()
	if lc.closed {
		return nil
	}
	lc.closed = true
	if lc.cli != nil && lc.cli.IsConnected() {
		lc.cli.Disconnect(250)
	}
	close(lc.inbound)
	return nil
}

var _ uplink.Transport = (*LinkClient)(nil)
