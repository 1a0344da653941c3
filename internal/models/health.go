package models

import "time"

// Health states reported by the service.
const (
	HealthOK       = "ok"
	HealthDegraded = "degraded"
)

// HealthReport is the body of the service health endpoint.
type HealthReport struct {
	Status     string    `json:"status"`
	Refresher  string    `json:"refresher"`
	LastError  string    `json:"last_error,omitempty"`
	LastUpdate time.Time `json:"last_update"`
	Sequence   uint64    `json:"sequence"`
}
