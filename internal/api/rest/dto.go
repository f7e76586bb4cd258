package rest

// healthResponse is the GET /health body
type healthResponse struct {
	Status string `json:"status"`
}

// statusResponse is the GET /api/v1/upload/status body
type statusResponse struct {
	Enabled bool `json:"enabled"`
}
