package simulator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	defaultHTTPTimeout = 10 * time.Second
	maxResponseBody    = 4 << 10
	mqttQoS            = 1
)

type Sender interface {
	Send(ctx context.Context, payload Payload) error
}

// StatusError reports a response the server did not accept with 201.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Body)
}

type HTTPSender struct {
	url    string
	token  string
	client *http.Client
}

func NewHTTPSender(url string, token string) *HTTPSender {
	return &HTTPSender{
		url:    url,
		token:  token,
		client: &http.Client{Timeout: defaultHTTPTimeout},
	}
}

func (s *HTTPSender) Send(ctx context.Context, payload Payload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.token)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("post reading: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
		return &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(respBody))}
	}

	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type publisher interface {
	Publish(topic string, payload []byte, qos byte) error
}

// MQTTSender publishes readings for the server's ingest bridge. The topic
// may contain one %d verb, replaced by the sensor id.
type MQTTSender struct {
	client        publisher
	topicTemplate string
	token         string
}

func NewMQTTSender(client publisher, topicTemplate string, token string) *MQTTSender {
	return &MQTTSender{client: client, topicTemplate: topicTemplate, token: token}
}

func (s *MQTTSender) Send(_ context.Context, payload Payload) error {
	body, err := json.Marshal(struct {
		Token string `json:"token"`
		Payload
	}{Token: s.token, Payload: payload})
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}

	topic := s.topicTemplate
	if strings.Contains(topic, "%d") {
		topic = fmt.Sprintf(topic, payload.SensorID)
	}

	if err := s.client.Publish(topic, body, mqttQoS); err != nil {
		return fmt.Errorf("publish reading: %w", err)
	}
	return nil
}
