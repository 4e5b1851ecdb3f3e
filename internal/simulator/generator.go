package simulator

import (
	"math"
	"math/rand/v2"
	"time"
)

const (
	minTemperature = 20.0
	maxTemperature = 30.0
	minHumidity    = 40.0
	maxHumidity    = 70.0
)

// Payload is the ingest body accepted by POST /dados-sensores.
type Payload struct {
	SensorID    int64   `json:"sensor_id"`
	Temperature float64 `json:"temperatura"`
	Humidity    float64 `json:"umidade"`
}

// Generator draws uniformly random readings for a fixed set of sensors.
type Generator struct {
	sensors []int64
	rng     *rand.Rand
}

func NewGenerator(sensors []int64) *Generator {
	seed := uint64(time.Now().UnixNano())
	return NewGeneratorWithSource(sensors, rand.NewPCG(seed, seed>>1))
}

func NewGeneratorWithSource(sensors []int64, src rand.Source) *Generator {
	if len(sensors) == 0 {
		sensors = []int64{1, 2}
	}
	return &Generator{sensors: sensors, rng: rand.New(src)}
}

func (g *Generator) Next() Payload {
	return Payload{
		SensorID:    g.sensors[g.rng.IntN(len(g.sensors))],
		Temperature: round2(minTemperature + g.rng.Float64()*(maxTemperature-minTemperature)),
		Humidity:    round2(minHumidity + g.rng.Float64()*(maxHumidity-minHumidity)),
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
