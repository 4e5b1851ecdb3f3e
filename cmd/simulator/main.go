// simulator posts random temperature and humidity readings to the ingest
// API, one every interval, until interrupted.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"sensor-ingest/internal/logger"
	"sensor-ingest/internal/mqtt"
	"sensor-ingest/internal/simulator"
)

const defaultBackendURL = "http://127.0.0.1:5000/dados-sensores"

func main() {
	if err := run(); err != nil {
		if err == pflag.ErrHelp {
			return
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	var (
		url       string
		token     string
		interval  time.Duration
		sensors   []int64
		transport string
		broker    string
		topic     string
		logFormat string
		logLevel  string
	)

	flagSet := pflag.NewFlagSet("simulator", pflag.ContinueOnError)
	flagSet.StringVar(&url, "url", envOr("BACKEND_URL", defaultBackendURL), "ingest endpoint")
	flagSet.StringVar(&token, "token", os.Getenv("JWT_TOKEN"), "bearer token sent with every reading")
	flagSet.DurationVar(&interval, "interval", simulator.DefaultInterval, "time between readings")
	flagSet.Int64SliceVar(&sensors, "sensors", []int64{1, 2}, "sensor ids to pick from")
	flagSet.StringVar(&transport, "transport", "http", "http or mqtt")
	flagSet.StringVar(&broker, "mqtt-broker", envOr("MQTT_BROKER_URL", "tcp://127.0.0.1:1883"), "broker url for the mqtt transport")
	flagSet.StringVar(&topic, "mqtt-topic", "sensores/%d/dados", "topic for the mqtt transport, %d is the sensor id")
	flagSet.StringVar(&logFormat, "log-format", envOr("LOG_FORMAT", "pretty"), "pretty or json")
	flagSet.StringVar(&logLevel, "log-level", envOr("LOG_LEVEL", "info"), "debug, info, warn or error")

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		return err
	}

	slog.SetDefault(logger.New(os.Stdout, logFormat, logLevel))

	if strings.TrimSpace(token) == "" {
		slog.Warn("no token configured, the server will answer 401")
	}

	var sender simulator.Sender
	switch transport {
	case "http":
		sender = simulator.NewHTTPSender(url, token)
		slog.Info("simulator starting", "transport", transport, "url", url, "interval", interval, "sensors", sensors)
	case "mqtt":
		client, err := mqtt.Connect(mqtt.Config{BrokerURL: broker})
		if err != nil {
			return err
		}
		defer client.Close()
		sender = simulator.NewMQTTSender(client, topic, token)
		slog.Info("simulator starting", "transport", transport, "broker", broker, "topic", topic, "interval", interval)
	default:
		return fmt.Errorf("unknown transport %q", transport)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	simulator.NewRunner(simulator.NewGenerator(sensors), sender, interval).Run(ctx)
	return nil
}

func envOr(key string, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
