package bus

import (
	"errors"
	"testing"
)

func TestClient_IsConnectedFalseBeforeStart(t *testing.T) {
	c := New(Config{BrokerIP: "localhost", BrokerPort: 1883, ClientID: "test"}, nil, nil)
	if c.IsConnected() {
		t.Error("IsConnected() = true before Start() was ever called")
	}
}

func TestClient_PublishBeforeConnectIsDropped(t *testing.T) {
	c := New(Config{BrokerIP: "localhost", BrokerPort: 1883, ClientID: "test"}, nil, nil)
	err := c.Publish("a/b/c", []byte("payload"))
	if !errors.Is(err, ErrNotConnected) {
		t.Errorf("Publish() error = %v, want %v", err, ErrNotConnected)
	}
}

func TestClient_PublishEmptyTopicIsInvalid(t *testing.T) {
	c := New(Config{}, nil, nil)
	err := c.Publish("", []byte("x"))
	if !errors.Is(err, ErrInvalidTopic) {
		t.Errorf("Publish() error = %v, want %v", err, ErrInvalidTopic)
	}
}

func TestClient_SubscribeBeforeConnectIsRejected(t *testing.T) {
	c := New(Config{}, nil, nil)
	ok, err := c.Subscribe("a/b", 2)
	if ok {
		t.Error("Subscribe() ok = true before connecting")
	}
	if !errors.Is(err, ErrNotConnected) {
		t.Errorf("Subscribe() error = %v, want %v", err, ErrNotConnected)
	}
}

func TestClient_SubscribeInvalidQoSRejectedBeforeConnectCheck(t *testing.T) {
	c := New(Config{}, nil, nil)
	_, err := c.Subscribe("a/b", 3)
	if !errors.Is(err, ErrInvalidQoS) {
		t.Errorf("Subscribe() error = %v, want %v", err, ErrInvalidQoS)
	}
}

func TestClient_SubscribeEmptyTopicIsInvalid(t *testing.T) {
	c := New(Config{}, nil, nil)
	_, err := c.Subscribe("", 1)
	if !errors.Is(err, ErrInvalidTopic) {
		t.Errorf("Subscribe() error = %v, want %v", err, ErrInvalidTopic)
	}
}

func TestClient_StopOnNeverStartedClientIsNoop(t *testing.T) {
	c := New(Config{}, nil, nil)
	c.Stop() // must not panic when c.client is nil
}
