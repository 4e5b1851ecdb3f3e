package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// TimestampLayout matches the textual form SQLite uses for CURRENT_TIMESTAMP,
// so both storage backends render readings identically.
const TimestampLayout = "2006-01-02 15:04:05"

const (
	msgInvalidSensorID    = "ID do sensor é obrigatório e deve ser um número."
	msgInvalidTemperature = "Temperatura é obrigatória e deve ser um número válido."
	msgInvalidHumidity    = "Umidade é obrigatória e deve ser um número válido."
	msgInvalidBody        = "Corpo da requisição inválido."
)

type Reading struct {
	ID          int64     `json:"id"`
	SensorID    int64     `json:"sensor_id"`
	Temperature float64   `json:"temperatura"`
	Humidity    float64   `json:"umidade"`
	RecordedAt  time.Time `json:"timestamp"`
}

// Row renders the reading as the positional array served by GET /dados-sensores.
func (r Reading) Row() []any {
	return []any{r.ID, r.SensorID, r.Temperature, r.Humidity, r.Timestamp()}
}

func (r Reading) Timestamp() string {
	return r.RecordedAt.UTC().Format(TimestampLayout)
}

// ReadingInput is a validated ingest payload.
type ReadingInput struct {
	SensorID    int64
	Temperature float64
	Humidity    float64
}

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// ParseReadingInput validates a raw JSON ingest payload. sensor_id must be an
// integer literal; temperatura and umidade accept any JSON number. All fields
// are checked and the first failure in sensor_id, temperatura, umidade order
// is reported.
func ParseReadingInput(body []byte) (ReadingInput, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil || fields == nil {
		return ReadingInput{}, &ValidationError{Field: "body", Message: msgInvalidBody}
	}

	sensorID, sensorErr := parseInteger(fields["sensor_id"])
	temperature, tempErr := parseNumber(fields["temperatura"])
	humidity, humErr := parseNumber(fields["umidade"])

	switch {
	case sensorErr != nil:
		return ReadingInput{}, &ValidationError{Field: "sensor_id", Message: msgInvalidSensorID}
	case tempErr != nil:
		return ReadingInput{}, &ValidationError{Field: "temperatura", Message: msgInvalidTemperature}
	case humErr != nil:
		return ReadingInput{}, &ValidationError{Field: "umidade", Message: msgInvalidHumidity}
	}

	return ReadingInput{SensorID: sensorID, Temperature: temperature, Humidity: humidity}, nil
}

func parseInteger(raw json.RawMessage) (int64, error) {
	literal, err := numberLiteral(raw)
	if err != nil {
		return 0, err
	}
	if bytes.ContainsAny(literal, ".eE") {
		return 0, fmt.Errorf("not an integer: %s", literal)
	}

	return strconv.ParseInt(string(literal), 10, 64)
}

func parseNumber(raw json.RawMessage) (float64, error) {
	literal, err := numberLiteral(raw)
	if err != nil {
		return 0, err
	}

	return strconv.ParseFloat(string(literal), 64)
}

func numberLiteral(raw json.RawMessage) ([]byte, error) {
	literal := bytes.TrimSpace(raw)
	if len(literal) == 0 {
		return nil, fmt.Errorf("missing value")
	}

	first := literal[0]
	if first != '-' && (first < '0' || first > '9') {
		return nil, fmt.Errorf("not a number: %s", literal)
	}

	return literal, nil
}

// NewChartFeed reshapes readings into parallel arrays. The arrays are never nil
// so an empty table still encodes as three empty JSON arrays.
func NewChartFeed(readings []Reading) ChartFeed {
	feed := ChartFeed{
		Timestamp:   make([]string, 0, len(readings)),
		Temperatura: make([]float64, 0, len(readings)),
		Umidade:     make([]float64, 0, len(readings)),
	}

	for _, r := range readings {
		feed.Timestamp = append(feed.Timestamp, r.Timestamp())
		feed.Temperatura = append(feed.Temperatura, r.Temperature)
		feed.Umidade = append(feed.Umidade, r.Humidity)
	}

	return feed
}
