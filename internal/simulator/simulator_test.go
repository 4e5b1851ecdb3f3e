package simulator

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeneratorRanges(t *testing.T) {
	gen := NewGeneratorWithSource([]int64{1, 2}, rand.NewPCG(1, 2))

	seen := map[int64]bool{}
	for i := 0; i < 500; i++ {
		p := gen.Next()
		seen[p.SensorID] = true

		assert.Contains(t, []int64{1, 2}, p.SensorID)
		assert.GreaterOrEqual(t, p.Temperature, minTemperature)
		assert.LessOrEqual(t, p.Temperature, maxTemperature)
		assert.GreaterOrEqual(t, p.Humidity, minHumidity)
		assert.LessOrEqual(t, p.Humidity, maxHumidity)
		assert.InDelta(t, p.Temperature, round2(p.Temperature), 1e-9)
		assert.InDelta(t, p.Humidity, round2(p.Humidity), 1e-9)
	}
	assert.Len(t, seen, 2)
}

func TestGeneratorDefaultsSensors(t *testing.T) {
	gen := NewGeneratorWithSource(nil, rand.NewPCG(3, 4))
	assert.Contains(t, []int64{1, 2}, gen.Next().SensorID)
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 25.57, round2(25.5678))
	assert.Equal(t, 40.0, round2(40.001))
}

func TestHTTPSender(t *testing.T) {
	var gotAuth string
	var got Payload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &got)
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	sender := NewHTTPSender(srv.URL+"/dados-sensores", "tok")
	payload := Payload{SensorID: 2, Temperature: 21.5, Humidity: 55.25}

	require.NoError(t, sender.Send(context.Background(), payload))
	assert.Equal(t, "Bearer tok", gotAuth)
	assert.Equal(t, payload, got)
}

func TestHTTPSenderStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"Token não fornecido"}`))
	}))
	defer srv.Close()

	err := NewHTTPSender(srv.URL, "").Send(context.Background(), Payload{SensorID: 1})

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusUnauthorized, statusErr.StatusCode)
	assert.Contains(t, statusErr.Body, "Token não fornecido")
}

func TestHTTPSenderConnectionError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	err := NewHTTPSender(url, "tok").Send(context.Background(), Payload{SensorID: 1})
	require.Error(t, err)

	var statusErr *StatusError
	assert.False(t, errors.As(err, &statusErr))
}

type recordingPublisher struct {
	topic   string
	payload []byte
}

func (p *recordingPublisher) Publish(topic string, payload []byte, _ byte) error {
	p.topic, p.payload = topic, payload
	return nil
}

func TestMQTTSender(t *testing.T) {
	pub := &recordingPublisher{}
	sender := NewMQTTSender(pub, "sensores/%d/dados", "tok")

	require.NoError(t, sender.Send(context.Background(), Payload{SensorID: 2, Temperature: 22, Humidity: 50}))
	assert.Equal(t, "sensores/2/dados", pub.topic)
	assert.JSONEq(t, `{"token":"tok","sensor_id":2,"temperatura":22,"umidade":50}`, string(pub.payload))
}

type countingSender struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (s *countingSender) Send(context.Context, Payload) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.err
}

func (s *countingSender) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func TestRunnerKeepsGoingAfterFailures(t *testing.T) {
	sender := &countingSender{err: errors.New("connection refused")}
	runner := NewRunner(NewGeneratorWithSource(nil, rand.NewPCG(5, 6)), sender, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		runner.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return sender.count() >= 3 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("runner did not stop after cancel")
	}
}

func TestRunnerSendsImmediately(t *testing.T) {
	sender := &countingSender{}
	runner := NewRunner(NewGeneratorWithSource(nil, rand.NewPCG(7, 8)), sender, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	go runner.Run(ctx)
	defer cancel()

	require.Eventually(t, func() bool { return sender.count() == 1 }, time.Second, 5*time.Millisecond)
}
