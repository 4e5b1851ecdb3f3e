package model

type MessageResponse struct {
	Message string `json:"message"`
}

type LoginResponse struct {
	Message string `json:"message"`
	Token   string `json:"token"`
}

// ChartFeed holds three parallel arrays aligned by row order.
type ChartFeed struct {
	Timestamp   []string  `json:"timestamp"`
	Temperatura []float64 `json:"temperatura"`
	Umidade     []float64 `json:"umidade"`
}
