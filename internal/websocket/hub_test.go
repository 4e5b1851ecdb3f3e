package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gorillaws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sensor-ingest/internal/event"
	"sensor-ingest/internal/model"
)

func TestHubStreamsReadingEvents(t *testing.T) {
	bus := event.NewBus()
	hub := NewHub(bus)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	srv := httptest.NewServer(http.HandlerFunc(NewHandler(hub, []string{"*"}).Stream))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := gorillaws.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	recorded := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	// The client registers asynchronously, so keep publishing until one
	// message gets through.
	stopPublishing := make(chan struct{})
	defer close(stopPublishing)
	go func() {
		ticker := time.NewTicker(10 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-stopPublishing:
				return
			case <-ticker.C:
				bus.Publish(event.Event{Type: event.TypeReadingCreated, Payload: model.Reading{
					ID: 4, SensorID: 2, Temperature: 24.5, Humidity: 58, RecordedAt: recorded,
				}})
			}
		}
	}()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg readingMessage
	require.NoError(t, json.Unmarshal(data, &msg))

	assert.Equal(t, event.TypeReadingCreated, msg.Type)
	require.NotNil(t, msg.Reading)
	assert.Equal(t, int64(2), msg.Reading.SensorID)
	assert.Equal(t, 24.5, msg.Reading.Temperature)
	assert.Equal(t, "2024-06-01 10:00:00", msg.Reading.Timestamp)
}

func TestStreamMessageForClear(t *testing.T) {
	msg := streamMessage(event.Event{Type: event.TypeReadingsCleared, Payload: map[string]int64{"cleared": 3}})
	assert.Equal(t, event.TypeReadingsCleared, msg.Type)
	assert.Nil(t, msg.Reading)
}

func TestOriginChecker(t *testing.T) {
	check := originChecker([]string{"http://painel.local"})

	req := httptest.NewRequest("GET", "/ws/leituras", nil)
	assert.True(t, check(req))

	req.Header.Set("Origin", "http://painel.local")
	assert.True(t, check(req))

	req.Header.Set("Origin", "http://evil.example")
	assert.False(t, check(req))

	assert.True(t, originChecker([]string{"*"})(req))
}

func TestRegisterAfterStop(t *testing.T) {
	hub := NewHub(event.NewBus())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(done)
	}()
	cancel()
	<-done

	assert.False(t, hub.Register(&Client{send: make(chan []byte, 1)}))
	hub.Unregister(&Client{})
}
