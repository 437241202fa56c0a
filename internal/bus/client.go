// Package bus wraps paho.mqtt.golang with the connection lifecycle,
// subscription bookkeeping, and dispatch semantics the control services and
// notification router share: start with a 10s connection-ack deadline,
// QoS-exactly-once publish, a single non-blocking dispatch callback
// tolerant of non-JSON payloads, and clean unsubscribe-all-then-disconnect
// on stop.
package bus

import (
	"fmt"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/AlexDuchaine19/SmartChill-sub001/internal/logging"
)

const (
	// connectTimeout bounds how long Start waits for the broker's CONNACK
	// before reporting failure.
	connectTimeout = 10 * time.Second

	// actionTimeout bounds publish/subscribe/unsubscribe acknowledgement
	// waits.
	actionTimeout = 5 * time.Second

	// disconnectQuiesceMS is how long Stop waits for in-flight operations
	// to settle before closing the connection, in milliseconds.
	disconnectQuiesceMS = 250

	// exactlyOnceQoS is the QoS class used on every publish.
	exactlyOnceQoS byte = 2

	maxQoS = 2
)

// Dispatch is invoked for every message the Client receives, regardless of
// which topic pattern matched. Implementations must not block: the paho
// client invokes one goroutine per message, but a slow dispatch still
// starves the broker's read loop if messages arrive faster than it drains.
// Implementations must also tolerate payloads that are not valid JSON.
type Dispatch func(topic string, payload []byte)

// Config holds the broker connection parameters for a fresh-session
// connection lifecycle.
type Config struct {
	BrokerIP   string
	BrokerPort int
	ClientID   string
}

// Client is a thin, concurrency-safe wrapper over a single paho MQTT
// connection shared by every control service and the notification router.
type Client struct {
	cfg      Config
	dispatch Dispatch
	logger   logging.Interface

	client paho.Client

	mu            sync.RWMutex
	connected     bool
	subscriptions map[string]byte // topic -> qos, for resubscribe on reconnect
}

// New constructs a Client bound to a single dispatch callback. Call Start
// to connect.
func New(cfg Config, dispatch Dispatch, logger logging.Interface) *Client {
	if logger == nil {
		logger = logging.NoopLogger{}
	}
	return &Client{
		cfg:           cfg,
		dispatch:      dispatch,
		logger:        logger,
		subscriptions: make(map[string]byte),
	}
}

// Start connects to the broker with a fresh (clean) session, waiting up to
// connectTimeout for the broker's connection acknowledgement.
func (c *Client) Start() error {
	opts := paho.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s:%d", c.cfg.BrokerIP, c.cfg.BrokerPort))
	opts.SetClientID(c.cfg.ClientID)
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetConnectTimeout(connectTimeout)
	opts.SetOnConnectHandler(func(_ paho.Client) {
		c.mu.Lock()
		c.connected = true
		c.mu.Unlock()
		c.restoreSubscriptions()
	})
	opts.SetConnectionLostHandler(func(_ paho.Client, err error) {
		c.mu.Lock()
		c.connected = false
		c.mu.Unlock()
		c.logger.Warn("bus connection lost", "error", err)
	})

	c.client = paho.NewClient(opts)
	token := c.client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return fmt.Errorf("%w: no ack within %v", ErrConnectionFailed, connectTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	c.mu.Lock()
	c.connected = true
	c.mu.Unlock()
	return nil
}

// IsConnected reports the client's last known connection state.
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected && c.client != nil && c.client.IsConnected()
}

// Subscribe registers the dispatch callback for topic at the given QoS,
// returning whether the broker accepted the subscription. Subscribe
// requires a connected client.
func (c *Client) Subscribe(topic string, qos byte) (bool, error) {
	if topic == "" {
		return false, ErrInvalidTopic
	}
	if qos > maxQoS {
		return false, ErrInvalidQoS
	}
	if !c.IsConnected() {
		return false, ErrNotConnected
	}

	token := c.client.Subscribe(topic, qos, c.wrapDispatch())
	if !token.WaitTimeout(actionTimeout) {
		return false, fmt.Errorf("%w: timeout after %v", ErrSubscribeFailed, actionTimeout)
	}
	if err := token.Error(); err != nil {
		return false, fmt.Errorf("%w: %w", ErrSubscribeFailed, err)
	}

	c.mu.Lock()
	c.subscriptions[topic] = qos
	c.mu.Unlock()
	return true, nil
}

// Publish sends payload to topic at QoS-exactly-once. If the client is not
// connected the message is dropped, the drop is logged, and ErrNotConnected
// is returned.
func (c *Client) Publish(topic string, payload []byte) error {
	if topic == "" {
		return ErrInvalidTopic
	}
	if !c.IsConnected() {
		c.logger.Warn("bus publish dropped: not connected", "topic", topic)
		return ErrNotConnected
	}

	token := c.client.Publish(topic, exactlyOnceQoS, false, payload)
	if !token.WaitTimeout(actionTimeout) {
		return fmt.Errorf("%w: timeout after %v", ErrPublishFailed, actionTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrPublishFailed, err)
	}
	return nil
}

// Stop unsubscribes every tracked topic and disconnects cleanly.
func (c *Client) Stop() {
	if c.client == nil {
		return
	}

	c.mu.Lock()
	topics := make([]string, 0, len(c.subscriptions))
	for t := range c.subscriptions {
		topics = append(topics, t)
	}
	c.mu.Unlock()

	if len(topics) > 0 && c.IsConnected() {
		token := c.client.Unsubscribe(topics...)
		token.WaitTimeout(actionTimeout)
	}

	c.client.Disconnect(disconnectQuiesceMS)

	c.mu.Lock()
	c.connected = false
	c.subscriptions = make(map[string]byte)
	c.mu.Unlock()
}

// restoreSubscriptions re-subscribes every tracked topic after a reconnect.
func (c *Client) restoreSubscriptions() {
	c.mu.RLock()
	subs := make(map[string]byte, len(c.subscriptions))
	for t, q := range c.subscriptions {
		subs[t] = q
	}
	c.mu.RUnlock()

	for topic, qos := range subs {
		c.client.Subscribe(topic, qos, c.wrapDispatch())
	}
}

// wrapDispatch adapts the Dispatch callback to paho's handler signature,
// recovering from panics so one malformed message cannot take down the
// broker's read loop.
func (c *Client) wrapDispatch() paho.MessageHandler {
	return func(_ paho.Client, msg paho.Message) {
		defer func() {
			if r := recover(); r != nil {
				c.logger.Error("bus dispatch panic recovered", "topic", msg.Topic(), "panic", r)
			}
		}()
		c.dispatch(msg.Topic(), msg.Payload())
	}
}
