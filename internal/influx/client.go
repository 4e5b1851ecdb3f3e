package influx

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"sensor-ingest/internal/model"
)

const (
	Measurement = "sensor_readings"

	defaultConnectTimeout = 10 * time.Second
	batchSize             = 100
	flushIntervalMillis   = 5000
)

var (
	ErrDisabled         = errors.New("influx: disabled")
	ErrConnectionFailed = errors.New("influx: connection failed")
)

type Config struct {
	URL    string
	Token  string
	Org    string
	Bucket string
}

// Client writes readings through the non-blocking, batched write API.
// Write failures surface asynchronously and are only logged.
type Client struct {
	client   influxdb2.Client
	writeAPI api.WriteAPI
}

func Connect(cfg Config) (*Client, error) {
	if cfg.URL == "" {
		return nil, ErrDisabled
	}

	client := influxdb2.NewClientWithOptions(
		cfg.URL,
		cfg.Token,
		influxdb2.DefaultOptions().
			SetBatchSize(batchSize).
			SetFlushInterval(flushIntervalMillis),
	)

	ctx, cancel := context.WithTimeout(context.Background(), defaultConnectTimeout)
	defer cancel()

	healthy, err := client.Ping(ctx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: ping failed: %w", ErrConnectionFailed, err)
	}
	if !healthy {
		client.Close()
		return nil, fmt.Errorf("%w: server not healthy", ErrConnectionFailed)
	}

	writeAPI := client.WriteAPI(cfg.Org, cfg.Bucket)
	go func() {
		for err := range writeAPI.Errors() {
			slog.Warn("influx write failed", "error", err)
		}
	}()

	return &Client{client: client, writeAPI: writeAPI}, nil
}

func (c *Client) WritePoint(point *write.Point) {
	c.writeAPI.WritePoint(point)
}

func (c *Client) Close() {
	c.writeAPI.Flush()
	c.client.Close()
}

func readingPoint(r model.Reading) *write.Point {
	return write.NewPoint(
		Measurement,
		map[string]string{"sensor_id": fmt.Sprintf("%d", r.SensorID)},
		map[string]interface{}{
			"temperatura": r.Temperature,
			"umidade":     r.Humidity,
		},
		r.RecordedAt,
	)
}
